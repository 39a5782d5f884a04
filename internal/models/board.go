package models

import "time"

// UnlimitedRevisions marks a revision allowance with no cap.
const UnlimitedRevisions = -1

// BoardRules is per-board policy consulted by, and never mutated by, the
// lifecycle state machine and the publish pipeline. Resolved fresh per
// operation, never cached across a policy edit.
type BoardRules struct {
	AutoSchedule     bool `json:"auto_schedule"`
	RevisionRules    bool `json:"revision_rules"`
	ApprovalDeadline bool `json:"approval_deadline"`
	// Revision count allowances; UnlimitedRevisions (-1) means no cap.
	FirstMonth   int `json:"first_month,omitempty"`
	OngoingMonth int `json:"ongoing_month,omitempty"`
	// Days before publish an approval must land.
	ApprovalDays int `json:"approval_days,omitempty"`
}

// RevisionAllowance returns the revision cap for the given grouping month.
func (r BoardRules) RevisionAllowance(month int) int {
	if !r.RevisionRules {
		return UnlimitedRevisions
	}
	if month <= 1 {
		return r.FirstMonth
	}
	return r.OngoingMonth
}

// GroupComment is a threaded comment scoped to a month, independent of any
// single post.
type GroupComment struct {
	ID         string         `json:"id"`
	Author     string         `json:"author"`
	Text       string         `json:"text"`
	Resolved   bool           `json:"resolved"`
	ResolvedBy string         `json:"resolved_by,omitempty"`
	Messages   []GroupComment `json:"messages,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// BoardGroupData holds the per-month comment threads and revision counter of
// a board. Persisted as an opaque JSON tree on the backend board resource.
type BoardGroupData struct {
	Month         int            `json:"month"` // 1..50
	Comments      []GroupComment `json:"comments"`
	RevisionCount int            `json:"revision_count"`
}

// Board is a named collection of posts plus its scheduling/approval policy.
type Board struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Color       string           `json:"color,omitempty"`
	Rules       *BoardRules      `json:"rules,omitempty"`
	GroupData   []BoardGroupData `json:"group_data,omitempty"`
	Posts       []Post           `json:"posts"`
	CreatedAt   time.Time        `json:"created_at"`
}
