package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbird/internal/models"
)

func seedTree() *Tree {
	t := NewTree()
	t.Hydrate([]models.Workspace{
		{
			ID: "w1",
			Boards: []models.Board{
				{
					ID:    "b1",
					Name:  "Static Posts",
					Rules: &models.BoardRules{AutoSchedule: true},
					Posts: []models.Post{
						{ID: "p1", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusDraft},
						{ID: "p2", WorkspaceID: "w1", BoardID: "b1", Status: models.StatusApproved},
					},
				},
				{ID: "b2", Name: "Short Form Videos"},
			},
			SocialPages: []models.SocialPage{
				{ID: "pg1", Platform: models.PlatformFacebook, Connected: true},
				{ID: "pg2", Platform: models.PlatformTikTok, Connected: false},
			},
		},
	})
	return t
}

func TestAccessorsTolerateMissingNodes(t *testing.T) {
	t.Parallel()
	tree := seedTree()

	_, ok := tree.Workspace("nope")
	assert.False(t, ok)

	_, ok = tree.Board("w1", "nope")
	assert.False(t, ok)

	_, ok = tree.Post("nope", "p1")
	assert.False(t, ok)

	_, ok = tree.Post("w1", "nope")
	assert.False(t, ok)

	// Missing rules resolve to the zero policy, not a panic.
	assert.Equal(t, models.BoardRules{}, tree.BoardRules("w1", "b2"))
	assert.Equal(t, models.BoardRules{}, tree.BoardRules("w1", "nope"))
}

func TestUpdatePost(t *testing.T) {
	t.Parallel()
	tree := seedTree()

	ok := tree.UpdatePost("w1", "p1", func(p *models.Post) {
		p.Status = models.StatusPendingApproval
	})
	require.True(t, ok)

	p, found := tree.Post("w1", "p1")
	require.True(t, found)
	assert.Equal(t, models.StatusPendingApproval, p.Status)

	// Sibling untouched.
	p2, _ := tree.Post("w1", "p2")
	assert.Equal(t, models.StatusApproved, p2.Status)

	assert.False(t, tree.UpdatePost("w1", "nope", func(p *models.Post) {
		t.Fatal("mutator must not run for a missing post")
	}))
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()
	tree := seedTree()

	before := tree.Workspaces()
	tree.UpdatePost("w1", "p1", func(p *models.Post) {
		p.Status = models.StatusPublished
	})

	// The snapshot taken before the mutation still shows the old status.
	assert.Equal(t, models.StatusDraft, before[0].Boards[0].Posts[0].Status)

	after := tree.Workspaces()
	assert.Equal(t, models.StatusPublished, after[0].Boards[0].Posts[0].Status)
}

func TestUpsertPost(t *testing.T) {
	t.Parallel()
	tree := seedTree()

	ok := tree.UpsertPost("w1", models.Post{ID: "p3", BoardID: "b2", Status: models.StatusDraft})
	require.True(t, ok)
	_, found := tree.Post("w1", "p3")
	assert.True(t, found)

	// Replacing by id, not appending a duplicate.
	tree.UpsertPost("w1", models.Post{ID: "p3", BoardID: "b2", Status: models.StatusApproved})
	b, _ := tree.Board("w1", "b2")
	require.Len(t, b.Posts, 1)
	assert.Equal(t, models.StatusApproved, b.Posts[0].Status)

	assert.False(t, tree.UpsertPost("nope", models.Post{ID: "p4", BoardID: "b1"}))
}

func TestRemovePosts(t *testing.T) {
	t.Parallel()
	tree := seedTree()

	tree.RemovePosts("w1", []string{"p1", "ghost"})

	_, found := tree.Post("w1", "p1")
	assert.False(t, found)
	_, found = tree.Post("w1", "p2")
	assert.True(t, found)
}

func TestConnectedPages(t *testing.T) {
	t.Parallel()
	tree := seedTree()

	w, ok := tree.Workspace("w1")
	require.True(t, ok)

	pages := w.ConnectedPages([]string{"pg2", "pg1", "ghost"})
	require.Len(t, pages, 1)
	assert.Equal(t, "pg1", pages[0].ID)
}

func TestEachPost(t *testing.T) {
	t.Parallel()
	tree := seedTree()

	var seen []string
	tree.EachPost(func(wid string, p models.Post) {
		assert.Equal(t, "w1", wid)
		seen = append(seen, p.ID)
	})
	assert.ElementsMatch(t, []string{"p1", "p2"}, seen)
}
