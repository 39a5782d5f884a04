package models

import "time"

// Platform enumerates the external publish destinations.
type Platform string

const (
	PlatformFacebook       Platform = "facebook"
	PlatformInstagram      Platform = "instagram"
	PlatformLinkedIn       Platform = "linkedin"
	PlatformPinterest      Platform = "pinterest"
	PlatformYouTube        Platform = "youtube"
	PlatformTikTok         Platform = "tiktok"
	PlatformGoogleBusiness Platform = "google"
)

// PageStatus is the connection health of a social page or account.
type PageStatus string

const (
	PageActive       PageStatus = "active"
	PageExpired      PageStatus = "expired"
	PagePending      PageStatus = "pending"
	PageDisconnected PageStatus = "disconnected"
)

// SocialAccount is a connected provider account that owns pages.
type SocialAccount struct {
	ID        string     `json:"id"`
	Platform  Platform   `json:"platform"`
	Name      string     `json:"name"`
	AccountID string     `json:"account_id"`
	AuthToken string     `json:"auth_token,omitempty"`
	Connected bool       `json:"connected"`
	Status    PageStatus `json:"status"`
}

// SocialPage is a connected destination (one external account/page). A
// post's pages list is only valid if every referenced page belongs to the
// post's workspace and is connected.
type SocialPage struct {
	ID              string         `json:"id"`
	Platform        Platform       `json:"platform"`
	EntityType      string         `json:"entity_type"` // page, board, channel, profile, organization, business
	Name            string         `json:"name"`
	PageID          string         `json:"page_id"`
	AuthToken       string         `json:"auth_token,omitempty"`
	Connected       bool           `json:"connected"`
	Status          PageStatus     `json:"status"`
	AccountID       string         `json:"account_id"`
	StatusUpdatedAt *time.Time     `json:"status_updated_at,omitempty"`
	FollowerCount   int            `json:"follower_count,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Brand is workspace-level brand metadata (one brand per workspace).
type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// MessageChannel is a workspace-scoped discussion channel. Channel messages
// share the confirm-then-apply discipline with posts but are a separate
// aggregate.
type MessageChannel struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedBy   string    `json:"created_by"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Members     []string  `json:"members,omitempty"`
	Messages    []Comment `json:"messages,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Workspace is the top-level tenant scope: boards, brand, connected social
// pages/accounts, and posting-time settings the pipeline must respect.
type Workspace struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Logo               string           `json:"logo,omitempty"`
	CreatedBy          string           `json:"created_by,omitempty"`
	Boards             []Board          `json:"boards"`
	Brand              *Brand           `json:"brand,omitempty"`
	SocialAccounts     []SocialAccount  `json:"social_accounts,omitempty"`
	SocialPages        []SocialPage     `json:"social_pages,omitempty"`
	Channels           []MessageChannel `json:"channels,omitempty"`
	Timezone           string           `json:"timezone,omitempty"`
	WeekStart          string           `json:"week_start,omitempty"`
	AllowedPostingTime map[string]any   `json:"allowed_posting_time,omitempty"`
}

// ConnectedPages returns the workspace pages from ids that are currently
// connected, preserving the order of ids.
func (w *Workspace) ConnectedPages(ids []string) []SocialPage {
	var out []SocialPage
	for _, id := range ids {
		for i := range w.SocialPages {
			p := w.SocialPages[i]
			if p.ID == id && p.Connected {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
