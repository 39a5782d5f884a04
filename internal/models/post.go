// Package models defines the domain entities of the post lifecycle engine.
package models

import "time"

// Status is the closed set of post lifecycle states. No other value is ever
// observable; all transitions go through the lifecycle package.
type Status string

const (
	StatusDraft            Status = "Draft"
	StatusPendingApproval  Status = "Pending Approval"
	StatusNeedsRevisions   Status = "Needs Revisions"
	StatusRevised          Status = "Revised"
	StatusApproved         Status = "Approved"
	StatusScheduled        Status = "Scheduled"
	StatusPublishing       Status = "Publishing"
	StatusPublished        Status = "Published"
	StatusFailedPublishing Status = "Failed Publishing"
)

// Valid reports whether s is one of the nine lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusNeedsRevisions, StatusRevised,
		StatusApproved, StatusScheduled, StatusPublishing, StatusPublished,
		StatusFailedPublishing:
		return true
	}
	return false
}

// Terminal reports whether s is a post-publish terminal state.
func (s Status) Terminal() bool {
	return s == StatusPublished || s == StatusFailedPublishing
}

// FileKind discriminates media payloads.
type FileKind string

const (
	FileImage FileKind = "image"
	FileVideo FileKind = "video"
)

// CaptionData is a synced/per-platform text structure used for captions and
// hashtags. When Synced is true Default applies everywhere; otherwise
// PerPlatform overrides take precedence for their platform.
type CaptionData struct {
	Synced      bool                `json:"synced"`
	Default     string              `json:"default"`
	PerPlatform map[Platform]string `json:"per_platform,omitempty"`
}

// ForPlatform resolves the effective text for a platform.
func (c CaptionData) ForPlatform(p Platform) string {
	if !c.Synced {
		if v, ok := c.PerPlatform[p]; ok {
			return v
		}
	}
	return c.Default
}

// Rect is a rectangular annotation region on a version's media.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Comment is a threaded comment. Post-, block-, and version-level comments
// share this shape; Rect is only set on version comments.
type Comment struct {
	ID                string    `json:"id"`
	ParentID          string    `json:"parent_id,omitempty"`
	Author            string    `json:"author"`
	AuthorEmail       string    `json:"author_email,omitempty"`
	AuthorImageURL    string    `json:"author_image_url,omitempty"`
	Text              string    `json:"text"`
	RevisionRequested bool      `json:"revision_requested"`
	Rect              *Rect     `json:"rect,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// MediaRef is one media entry inside a version. Src may be a data URI, a
// transient remote URL, or a durable object-store URL.
type MediaRef struct {
	Kind FileKind `json:"kind"`
	Name string   `json:"name"`
	Src  string   `json:"src"`
}

// Version is an immutable snapshot of a block's media plus the caption used
// at that point. Versions are append-only; "current" is a pointer on the
// owning block, never a destructive replace.
type Version struct {
	ID        string     `json:"id"`
	By        string     `json:"by"`
	Caption   string     `json:"caption"`
	Media     []MediaRef `json:"media,omitempty"`
	Comments  []Comment  `json:"comments"`
	CreatedAt time.Time  `json:"created_at"`
}

// Block is one media unit within a post, holding an ordered version history.
type Block struct {
	ID               string    `json:"id"`
	Kind             FileKind  `json:"kind"`
	CurrentVersionID string    `json:"current_version_id"`
	Versions         []Version `json:"versions"`
	Comments         []Comment `json:"comments"`
}

// CurrentVersion returns the version CurrentVersionID points at, or nil.
func (b *Block) CurrentVersion() *Version {
	for i := range b.Versions {
		if b.Versions[i].ID == b.CurrentVersionID {
			return &b.Versions[i]
		}
	}
	return nil
}

// Post is the central entity. A post belongs to exactly one board; BoardID
// never changes after creation. Status transitions only via the lifecycle
// state machine, and every status-changing transition produces exactly one
// activity record.
type Post struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	BoardID     string `json:"board_id"`

	Caption  CaptionData  `json:"caption"`
	Hashtags *CaptionData `json:"hashtags,omitempty"`
	Format   string       `json:"format"`
	Status   Status       `json:"status"`

	Platforms []Platform `json:"platforms"`
	Pages     []string   `json:"pages"`

	PublishDate  *time.Time `json:"publish_date,omitempty"`
	Month        int        `json:"month"` // grouping month, 1..50
	BillingMonth string     `json:"billing_month,omitempty"`

	Settings *PostSettings `json:"settings,omitempty"`

	Blocks     []Block    `json:"blocks"`
	Comments   []Comment  `json:"comments"`
	Activities []Activity `json:"activities"`

	CreatedBy     string     `json:"created_by,omitempty"`
	LastUpdatedBy string     `json:"last_updated_by,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// PostPatch carries the partial fields accepted by a post update. Nil fields
// are left untouched by the backend.
type PostPatch struct {
	Caption      *CaptionData  `json:"caption,omitempty"`
	Hashtags     *CaptionData  `json:"hashtags,omitempty"`
	Format       *string       `json:"format,omitempty"`
	Status       *Status       `json:"status,omitempty"`
	Platforms    []Platform    `json:"platforms,omitempty"`
	Pages        []string      `json:"pages,omitempty"`
	PublishDate  *time.Time    `json:"publish_date,omitempty"`
	Month        *int          `json:"month,omitempty"`
	BillingMonth *string       `json:"billing_month,omitempty"`
	Settings     *PostSettings `json:"settings,omitempty"`
	Blocks       []Block       `json:"blocks,omitempty"`
	Comments     []Comment     `json:"comments,omitempty"`
}
