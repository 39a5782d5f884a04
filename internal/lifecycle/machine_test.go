package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbird/internal/models"
)

func allStatuses() []models.Status {
	return []models.Status{
		models.StatusDraft,
		models.StatusPendingApproval,
		models.StatusNeedsRevisions,
		models.StatusRevised,
		models.StatusApproved,
		models.StatusScheduled,
		models.StatusPublishing,
		models.StatusPublished,
		models.StatusFailedPublishing,
	}
}

func TestSubmitForApproval(t *testing.T) {
	t.Parallel()

	for _, cur := range allStatuses() {
		d := SubmitForApproval(cur)
		if cur == models.StatusDraft {
			assert.True(t, d.Changed)
			assert.Equal(t, models.StatusPendingApproval, d.Next)
		} else {
			assert.False(t, d.Changed, "submit from %s must be a no-op", cur)
			assert.Equal(t, cur, d.Next)
		}
	}
}

func TestApprove(t *testing.T) {
	t.Parallel()

	allowed := map[models.Status]bool{
		models.StatusPendingApproval: true,
		models.StatusRevised:         true,
		models.StatusNeedsRevisions:  true,
		models.StatusApproved:        true,
	}

	for _, cur := range allStatuses() {
		d := Approve(cur, false)
		if allowed[cur] {
			assert.True(t, d.Changed)
			assert.Equal(t, models.StatusApproved, d.Next)
			assert.Equal(t, models.ActivityApproved, d.Activity)
		} else {
			assert.False(t, d.Changed, "approve from %s must be a no-op", cur)
		}
	}
}

func TestApproveAutoSchedule(t *testing.T) {
	t.Parallel()

	d := Approve(models.StatusPendingApproval, true)
	require.True(t, d.Changed)
	assert.Equal(t, models.StatusScheduled, d.Next)
	assert.Equal(t, models.ActivityApproved, d.Activity)
}

func TestRequestChanges(t *testing.T) {
	t.Parallel()

	d := RequestChanges(models.StatusRevised)
	require.True(t, d.Changed)
	assert.Equal(t, models.StatusNeedsRevisions, d.Next)
	assert.Equal(t, models.ActivityRevisionRequest, d.Activity)

	for _, cur := range []models.Status{models.StatusDraft, models.StatusScheduled, models.StatusPublished} {
		assert.False(t, RequestChanges(cur).Changed)
	}
}

func TestMarkRevised(t *testing.T) {
	t.Parallel()

	d := MarkRevised(models.StatusNeedsRevisions)
	require.True(t, d.Changed)
	assert.Equal(t, models.StatusRevised, d.Next)
	assert.Equal(t, models.ActivityRevised, d.Activity)

	for _, cur := range allStatuses() {
		if cur == models.StatusNeedsRevisions {
			continue
		}
		assert.False(t, MarkRevised(cur).Changed, "revised from %s must be a no-op", cur)
	}
}

func TestCommentRevision(t *testing.T) {
	t.Parallel()

	for _, cur := range []models.Status{models.StatusPendingApproval, models.StatusRevised, models.StatusApproved} {
		d := CommentRevision(cur)
		require.True(t, d.Changed, "from %s", cur)
		assert.Equal(t, models.StatusNeedsRevisions, d.Next)
	}

	// Already in Needs Revisions: nothing to do.
	assert.False(t, CommentRevision(models.StatusNeedsRevisions).Changed)
	assert.False(t, CommentRevision(models.StatusPublished).Changed)
}

func TestStartPublishing(t *testing.T) {
	t.Parallel()

	d, err := StartPublishing(models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublishing, d.Next)

	_, err = StartPublishing(models.StatusPublishing)
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeAlreadyPublish, appErr.Code)
}

func TestFinishPublishing(t *testing.T) {
	t.Parallel()

	d := FinishPublishing(true, false)
	assert.Equal(t, models.StatusPublished, d.Next)
	assert.Equal(t, models.ActivityPublished, d.Activity)

	d = FinishPublishing(true, true)
	assert.Equal(t, models.StatusScheduled, d.Next)
	assert.Equal(t, models.ActivityScheduled, d.Activity)

	d = FinishPublishing(false, false)
	assert.Equal(t, models.StatusFailedPublishing, d.Next)
	assert.Equal(t, models.ActivityFailedPublishing, d.Activity)
}

func TestReconcileTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		cur     models.Status
		publish *time.Time
		want    models.Status
	}{
		{"no date is untouched", models.StatusScheduled, nil, models.StatusScheduled},
		{"past date forces published", models.StatusScheduled, &past, models.StatusPublished},
		{"past date leaves published alone", models.StatusPublished, &past, models.StatusPublished},
		{"past date leaves failed alone", models.StatusFailedPublishing, &past, models.StatusFailedPublishing},
		{"future date pulls published back", models.StatusPublished, &future, models.StatusScheduled},
		{"future date pulls failed back", models.StatusFailedPublishing, &future, models.StatusScheduled},
		{"future date leaves approved alone", models.StatusApproved, &future, models.StatusApproved},
		{"future date leaves draft alone", models.StatusDraft, &future, models.StatusDraft},
		{"publishing is never corrected", models.StatusPublishing, &past, models.StatusPublishing},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ReconcileTime(tt.cur, tt.publish, now)
			assert.Equal(t, tt.want, got)

			// Applying the correction twice must be a fixed point.
			assert.Equal(t, got, ReconcileTime(got, tt.publish, now))
		})
	}
}
