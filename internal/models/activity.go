package models

import "time"

// ActivityType identifies a lifecycle event recorded in the audit trail.
type ActivityType string

const (
	ActivityRevisionRequest  ActivityType = "revision_request"
	ActivityRevised          ActivityType = "revised"
	ActivityApproved         ActivityType = "approved"
	ActivityScheduled        ActivityType = "scheduled"
	ActivityPublished        ActivityType = "published"
	ActivityFailedPublishing ActivityType = "failed_publishing"
	ActivityComment          ActivityType = "comment"
	ActivityWorkspaceInvite  ActivityType = "workspace_invited_sent"
	ActivityBoardInvite      ActivityType = "board_invited_sent"
)

// ActivityMetadata carries the typed fields an activity kind needs. Only the
// fields relevant to the activity's type are set; the rest stay zero.
type ActivityMetadata struct {
	PublishTime     *time.Time        `json:"publish_time,omitempty"`     // scheduled, published
	RevisionComment string            `json:"revision_comment,omitempty"` // revision_request
	CommentID       string            `json:"comment_id,omitempty"`       // revision_request, comment
	VersionNumber   int               `json:"version_number,omitempty"`   // revised
	InvitedEmail    string            `json:"invited_email,omitempty"`    // invitation events
	PageErrors      map[string]string `json:"page_errors,omitempty"`      // failed_publishing, by page id
}

// Actor is the resolved display identity of the user behind an activity.
type Actor struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Activity is an immutable, timestamped audit record of a lifecycle event.
// Activities are never mutated or deleted, only appended, and are ordered by
// creation time for display.
type Activity struct {
	ID          string            `json:"id"`
	WorkspaceID string            `json:"workspace_id"`
	PostID      string            `json:"post_id,omitempty"`
	Type        ActivityType      `json:"type"`
	ActorID     string            `json:"actor_id"`
	Actor       *Actor            `json:"actor,omitempty"`
	Metadata    *ActivityMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
