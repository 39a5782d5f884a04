// Package lifecycle holds the pure decision logic of the post state machine.
// Given a current status and an event it computes the next status and the
// activity to emit; it performs no I/O.
package lifecycle

import (
	"time"

	"feedbird/internal/models"
)

// Decision is the outcome of applying an event to a status. When Changed is
// false the event was not valid for the current status and callers must
// treat the call as a silent no-op, not an error: approval and revision
// actions are invoked speculatively from the UI.
type Decision struct {
	Next     models.Status
	Activity models.ActivityType // empty when no activity is emitted
	Changed  bool
}

func noop(cur models.Status) Decision {
	return Decision{Next: cur}
}

// approvalSources are the states from which approve and request-changes are
// allowed.
func approvalSource(cur models.Status) bool {
	switch cur {
	case models.StatusPendingApproval, models.StatusRevised,
		models.StatusNeedsRevisions, models.StatusApproved:
		return true
	}
	return false
}

// SubmitForApproval moves a draft into the approval flow. Emits no activity.
func SubmitForApproval(cur models.Status) Decision {
	if cur != models.StatusDraft {
		return noop(cur)
	}
	return Decision{Next: models.StatusPendingApproval, Changed: true}
}

// Approve lands an approval. When the owning board's autoSchedule rule is on
// and the post is not already scheduled, approval also schedules the post in
// the same transition; the emitted activity is always "approved".
func Approve(cur models.Status, autoSchedule bool) Decision {
	if !approvalSource(cur) {
		return noop(cur)
	}
	next := models.StatusApproved
	if autoSchedule && cur != models.StatusScheduled {
		next = models.StatusScheduled
	}
	return Decision{Next: next, Activity: models.ActivityApproved, Changed: true}
}

// RequestChanges moves a post under review back to the revision queue.
func RequestChanges(cur models.Status) Decision {
	if !approvalSource(cur) {
		return noop(cur)
	}
	return Decision{Next: models.StatusNeedsRevisions, Activity: models.ActivityRevisionRequest, Changed: true}
}

// MarkRevised records that requested changes have been addressed.
func MarkRevised(cur models.Status) Decision {
	if cur != models.StatusNeedsRevisions {
		return noop(cur)
	}
	return Decision{Next: models.StatusRevised, Activity: models.ActivityRevised, Changed: true}
}

// revisionCommentSources are the states a revision-flagged comment forces
// into Needs Revisions. Needs Revisions itself is excluded: the post is
// already there.
func revisionCommentSource(cur models.Status) bool {
	switch cur {
	case models.StatusPendingApproval, models.StatusRevised, models.StatusApproved:
		return true
	}
	return false
}

// CommentRevision applies the cross-domain rule that a revision-flagged
// comment flips the post to Needs Revisions in the same logical operation
// that records the comment.
func CommentRevision(cur models.Status) Decision {
	if !revisionCommentSource(cur) {
		return noop(cur)
	}
	return Decision{Next: models.StatusNeedsRevisions, Changed: true}
}

// StartPublishing commits the in-flight state before any network call. A
// post already publishing is rejected so at most one publish per post is in
// flight; any other status is accepted because publish can be triggered from
// Draft, Approved, or Scheduled, and re-triggered after a failure.
func StartPublishing(cur models.Status) (Decision, error) {
	if cur == models.StatusPublishing {
		return noop(cur), &models.AppError{Code: models.CodeAlreadyPublish, Message: "post is already publishing"}
	}
	return Decision{Next: models.StatusPublishing, Changed: true}, nil
}

// FinishPublishing resolves the terminal state after fan-out. A future
// scheduled time lands on Scheduled rather than Published.
func FinishPublishing(succeeded bool, scheduledFuture bool) Decision {
	if !succeeded {
		return Decision{Next: models.StatusFailedPublishing, Activity: models.ActivityFailedPublishing, Changed: true}
	}
	if scheduledFuture {
		return Decision{Next: models.StatusScheduled, Activity: models.ActivityScheduled, Changed: true}
	}
	return Decision{Next: models.StatusPublished, Activity: models.ActivityPublished, Changed: true}
}

// ReconcileTime repairs drift between wall-clock time and a stale status.
// A past publish date forces Published unless the post already reached a
// terminal state; a future publish date pulls a terminal state back to
// Scheduled. The correction is silent: no activity is ever emitted, and
// running it twice yields the same state.
func ReconcileTime(cur models.Status, publishDate *time.Time, now time.Time) models.Status {
	if publishDate == nil || publishDate.IsZero() {
		return cur
	}
	// An in-flight publish owns its own resolution.
	if cur == models.StatusPublishing {
		return cur
	}
	if publishDate.Before(now) {
		if cur.Terminal() {
			return cur
		}
		return models.StatusPublished
	}
	if cur.Terminal() {
		return models.StatusScheduled
	}
	return cur
}
