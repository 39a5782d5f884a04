package platforms

import (
	"context"
	"fmt"
	"time"

	"feedbird/internal/models"
	"feedbird/internal/observability"
)

// Driver executes one provider action for a page. The gateway driver in
// gateway.go is the production implementation; tests inject fakes.
type Driver interface {
	Call(ctx context.Context, platform models.Platform, action string, payload map[string]any) (map[string]any, error)
}

// Capabilities declare what a platform accepts, checked before any network
// call so a doomed publish fails fast with a validation error.
type Capabilities struct {
	RequiresMedia      bool
	VideoOnly          bool
	MaxMediaItems      int // 0 means no cap
	SupportsScheduling bool
}

// Adapter implements Operations for one platform over a Driver.
type Adapter struct {
	platform models.Platform
	caps     Capabilities
	driver   Driver
	traces   *observability.TraceLayer
}

// NewAdapter builds an adapter for one platform.
func NewAdapter(platform models.Platform, caps Capabilities, driver Driver) *Adapter {
	return &Adapter{
		platform: platform,
		caps:     caps,
		driver:   driver,
		traces:   observability.GetTraceLayer(),
	}
}

func (a *Adapter) Platform() models.Platform {
	return a.platform
}

func (a *Adapter) validate(content PublishContent) error {
	if a.caps.RequiresMedia && len(content.Media) == 0 {
		return models.NewValidationError(fmt.Sprintf("%s posts require media", a.platform))
	}
	if a.caps.VideoOnly {
		for _, m := range content.Media {
			if m.Kind != models.FileVideo {
				return models.NewValidationError(fmt.Sprintf("%s only accepts video media", a.platform))
			}
		}
	}
	if a.caps.MaxMediaItems > 0 && len(content.Media) > a.caps.MaxMediaItems {
		return models.NewValidationError(fmt.Sprintf("%s accepts at most %d media items", a.platform, a.caps.MaxMediaItems))
	}
	if a.platform == models.PlatformGoogleBusiness {
		if err := ValidateGoogleBusiness(content.Settings, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

// PublishPost creates a remote post on one page.
func (a *Adapter) PublishPost(ctx context.Context, page models.SocialPage, content PublishContent) (PublishResult, error) {
	if err := a.validate(content); err != nil {
		return PublishResult{}, err
	}

	ctx, span := a.traces.TracePlatformPublish(ctx, string(a.platform), page.ID)
	defer span.End()

	payload := map[string]any{
		"page_id":    page.PageID,
		"auth_token": page.AuthToken,
		"caption":    content.Caption,
		"media":      mediaPayload(content.Media),
		"options":    optionsFor(a.platform, content.Settings),
	}
	if content.ScheduledAt != nil && a.caps.SupportsScheduling {
		payload["scheduled_at"] = content.ScheduledAt.UTC().Format(time.RFC3339)
	}

	resp, err := a.driver.Call(ctx, a.platform, "publish", payload)
	if err != nil {
		span.RecordError(err)
		observability.PublishAttempts.WithLabelValues(string(a.platform), "failure").Inc()
		return PublishResult{}, err
	}
	observability.PublishAttempts.WithLabelValues(string(a.platform), "success").Inc()

	res := PublishResult{
		ExternalID:  str(resp["post_id"]),
		URL:         str(resp["url"]),
		PublishedAt: time.Now().UTC(),
	}
	if ts := str(resp["published_at"]); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			res.PublishedAt = parsed
		}
	}
	return res, nil
}

// DeletePost removes a remote post.
func (a *Adapter) DeletePost(ctx context.Context, page models.SocialPage, externalID string) error {
	_, err := a.driver.Call(ctx, a.platform, "delete", map[string]any{
		"page_id":    page.PageID,
		"auth_token": page.AuthToken,
		"post_id":    externalID,
	})
	return err
}

// CheckPageStatus probes the page's connection health.
func (a *Adapter) CheckPageStatus(ctx context.Context, page models.SocialPage) (models.PageStatus, error) {
	if page.AuthToken == "" {
		return models.PageExpired, nil
	}
	resp, err := a.driver.Call(ctx, a.platform, "status", map[string]any{
		"page_id":    page.PageID,
		"auth_token": page.AuthToken,
	})
	if err != nil {
		return models.PageDisconnected, err
	}
	switch models.PageStatus(str(resp["status"])) {
	case models.PageActive:
		return models.PageActive, nil
	case models.PageExpired:
		return models.PageExpired, nil
	case models.PagePending:
		return models.PagePending, nil
	default:
		return models.PageDisconnected, nil
	}
}

// GetPostHistory pages through previously published remote posts.
func (a *Adapter) GetPostHistory(ctx context.Context, page models.SocialPage, limit int, cursor string) ([]HistoryEntry, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	resp, err := a.driver.Call(ctx, a.platform, "history", map[string]any{
		"page_id":    page.PageID,
		"auth_token": page.AuthToken,
		"limit":      limit,
		"cursor":     cursor,
	})
	if err != nil {
		return nil, "", err
	}
	var entries []HistoryEntry
	if items, ok := resp["items"].([]any); ok {
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			e := HistoryEntry{
				ExternalID: str(item["post_id"]),
				Caption:    str(item["caption"]),
				URL:        str(item["url"]),
			}
			if ts := str(item["published_at"]); ts != "" {
				if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
					e.PublishedAt = parsed
				}
			}
			entries = append(entries, e)
		}
	}
	return entries, str(resp["next_cursor"]), nil
}

// ConnectPage registers a provider page under a connected account.
func (a *Adapter) ConnectPage(ctx context.Context, account models.SocialAccount, pageID string) (models.SocialPage, error) {
	resp, err := a.driver.Call(ctx, a.platform, "connect", map[string]any{
		"account_id": account.AccountID,
		"auth_token": account.AuthToken,
		"page_id":    pageID,
	})
	if err != nil {
		return models.SocialPage{}, err
	}
	return models.SocialPage{
		ID:        str(resp["id"]),
		Platform:  a.platform,
		Name:      str(resp["name"]),
		PageID:    pageID,
		AuthToken: str(resp["auth_token"]),
		Connected: true,
		Status:    models.PageActive,
		AccountID: account.ID,
	}, nil
}

func mediaPayload(media []models.MediaRef) []map[string]string {
	out := make([]map[string]string, 0, len(media))
	for _, m := range media {
		out = append(out, map[string]string{
			"kind": string(m.Kind),
			"name": m.Name,
			"src":  m.Src,
		})
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// DefaultAdapters builds the standard adapter set over one driver, with each
// platform's acceptance rules.
func DefaultAdapters(driver Driver) []Operations {
	return []Operations{
		NewAdapter(models.PlatformFacebook, Capabilities{SupportsScheduling: true}, driver),
		NewAdapter(models.PlatformInstagram, Capabilities{RequiresMedia: true, MaxMediaItems: 10}, driver),
		NewAdapter(models.PlatformLinkedIn, Capabilities{MaxMediaItems: 9, SupportsScheduling: true}, driver),
		NewAdapter(models.PlatformPinterest, Capabilities{RequiresMedia: true, MaxMediaItems: 5}, driver),
		NewAdapter(models.PlatformYouTube, Capabilities{RequiresMedia: true, VideoOnly: true, MaxMediaItems: 1}, driver),
		NewAdapter(models.PlatformTikTok, Capabilities{RequiresMedia: true, VideoOnly: true, MaxMediaItems: 1}, driver),
		NewAdapter(models.PlatformGoogleBusiness, Capabilities{MaxMediaItems: 1}, driver),
	}
}
