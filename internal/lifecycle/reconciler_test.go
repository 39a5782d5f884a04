package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbird/internal/models"
	"feedbird/internal/store"
)

func reconcilerFixture(posts []models.Post) (*Reconciler, *store.Tree) {
	tree := store.NewTree()
	tree.Hydrate([]models.Workspace{{
		ID:     "w1",
		Boards: []models.Board{{ID: "b1", Posts: posts}},
	}})
	r := NewReconciler(tree, time.Minute)
	r.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return r, tree
}

func TestSweepCorrectsDriftedPosts(t *testing.T) {
	t.Parallel()

	past := time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC)
	future := time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC)

	r, tree := reconcilerFixture([]models.Post{
		{ID: "overdue", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusScheduled, PublishDate: &past},
		{ID: "premature", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusPublished, PublishDate: &future},
		{ID: "fine", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusScheduled, PublishDate: &future},
		{ID: "undated", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusDraft},
		{ID: "inflight", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusPublishing, PublishDate: &past},
	})

	applied := r.Sweep()
	assert.Equal(t, 2, applied)

	p, _ := tree.Post("w1", "overdue")
	assert.Equal(t, models.StatusPublished, p.Status)

	p, _ = tree.Post("w1", "premature")
	assert.Equal(t, models.StatusScheduled, p.Status)

	p, _ = tree.Post("w1", "fine")
	assert.Equal(t, models.StatusScheduled, p.Status)

	p, _ = tree.Post("w1", "inflight")
	assert.Equal(t, models.StatusPublishing, p.Status)

	// Corrections are silent: no activities appended.
	tree.EachPost(func(_ string, p models.Post) {
		assert.Empty(t, p.Activities)
	})
}

func TestSweepIsIdempotent(t *testing.T) {
	t.Parallel()

	past := time.Date(2025, 6, 15, 11, 0, 0, 0, time.UTC)
	r, _ := reconcilerFixture([]models.Post{
		{ID: "overdue", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusScheduled, PublishDate: &past},
	})

	require.Equal(t, 1, r.Sweep())
	assert.Zero(t, r.Sweep(), "second sweep finds nothing to fix")
}

func TestSweepSingleFlight(t *testing.T) {
	t.Parallel()

	r, _ := reconcilerFixture(nil)
	r.running.Store(true)
	assert.Zero(t, r.Sweep(), "concurrent sweep must bail out")
	r.running.Store(false)
}
