// Package platforms abstracts the external social destinations behind one
// Operations interface. The publish pipeline never talks to a provider
// directly; it resolves an Operations per page platform from the Registry.
package platforms

import (
	"context"
	"time"

	"feedbird/internal/models"
)

// PublishContent is the resolved, platform-ready content for one page: the
// effective caption for the page's platform and durable media URLs only.
type PublishContent struct {
	Caption     string
	Media       []models.MediaRef
	ScheduledAt *time.Time
	Settings    *models.PostSettings
}

// PublishResult identifies the created remote post.
type PublishResult struct {
	ExternalID  string
	URL         string
	PublishedAt time.Time
}

// HistoryEntry is one previously published remote post.
type HistoryEntry struct {
	ExternalID  string
	Caption     string
	URL         string
	PublishedAt time.Time
}

// Operations is the per-platform behavior contract. Implementations must be
// safe for concurrent use; the pipeline fans out across pages in parallel.
type Operations interface {
	Platform() models.Platform

	PublishPost(ctx context.Context, page models.SocialPage, content PublishContent) (PublishResult, error)
	DeletePost(ctx context.Context, page models.SocialPage, externalID string) error
	CheckPageStatus(ctx context.Context, page models.SocialPage) (models.PageStatus, error)
	GetPostHistory(ctx context.Context, page models.SocialPage, limit int, cursor string) ([]HistoryEntry, string, error)
	ConnectPage(ctx context.Context, account models.SocialAccount, pageID string) (models.SocialPage, error)
}

// Registry maps platforms to their Operations.
type Registry struct {
	ops map[models.Platform]Operations
}

// NewRegistry builds a registry from the given adapters. Later adapters for
// the same platform replace earlier ones.
func NewRegistry(ops ...Operations) *Registry {
	r := &Registry{ops: make(map[models.Platform]Operations, len(ops))}
	for _, o := range ops {
		r.ops[o.Platform()] = o
	}
	return r
}

// For returns the Operations for a platform.
func (r *Registry) For(p models.Platform) (Operations, bool) {
	o, ok := r.ops[p]
	return o, ok
}

// Platforms lists the registered platforms.
func (r *Registry) Platforms() []models.Platform {
	out := make([]models.Platform, 0, len(r.ops))
	for p := range r.ops {
		out = append(out, p)
	}
	return out
}
