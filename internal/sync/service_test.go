package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedbird/internal/backend"
	"feedbird/internal/models"
	"feedbird/internal/notifications"
	"feedbird/internal/store"
)

// stubBackend implements backend.Client with overridable behavior per method.
type stubBackend struct {
	listWorkspacesFn   func(ctx context.Context) ([]models.Workspace, error)
	getWorkspaceFn     func(ctx context.Context, id string) (models.Workspace, error)
	createPostFn       func(ctx context.Context, p models.Post) (models.Post, error)
	bulkCreateFn       func(ctx context.Context, posts []models.Post) ([]models.Post, error)
	updatePostFn       func(ctx context.Context, postID string, patch models.PostPatch) (models.Post, error)
	deletePostFn       func(ctx context.Context, postID string) error
	bulkDeleteFn       func(ctx context.Context, ids []string) error
	createActivityFn   func(ctx context.Context, a models.Activity) (models.Activity, error)
	updateBoardFn      func(ctx context.Context, boardID string, patch backend.BoardPatch) (models.Board, error)
	channelMessageFn   func(ctx context.Context, channelID string, msg models.Comment) (models.Comment, error)
	workspaceInviteFn  func(ctx context.Context, workspaceID, email, role string) error
	boardInviteFn      func(ctx context.Context, boardID, email string) error

	updateCalls int
}

func (s *stubBackend) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	if s.listWorkspacesFn != nil {
		return s.listWorkspacesFn(ctx)
	}
	return nil, nil
}

func (s *stubBackend) GetWorkspace(ctx context.Context, id string) (models.Workspace, error) {
	if s.getWorkspaceFn != nil {
		return s.getWorkspaceFn(ctx, id)
	}
	return models.Workspace{ID: id}, nil
}

func (s *stubBackend) CreatePost(ctx context.Context, p models.Post) (models.Post, error) {
	if s.createPostFn != nil {
		return s.createPostFn(ctx, p)
	}
	return p, nil
}

func (s *stubBackend) BulkCreatePosts(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	if s.bulkCreateFn != nil {
		return s.bulkCreateFn(ctx, posts)
	}
	return posts, nil
}

func (s *stubBackend) UpdatePost(ctx context.Context, postID string, patch models.PostPatch) (models.Post, error) {
	s.updateCalls++
	if s.updatePostFn != nil {
		return s.updatePostFn(ctx, postID, patch)
	}
	return models.Post{ID: postID}, nil
}

func (s *stubBackend) DeletePost(ctx context.Context, postID string) error {
	if s.deletePostFn != nil {
		return s.deletePostFn(ctx, postID)
	}
	return nil
}

func (s *stubBackend) BulkDeletePosts(ctx context.Context, ids []string) error {
	if s.bulkDeleteFn != nil {
		return s.bulkDeleteFn(ctx, ids)
	}
	return nil
}

func (s *stubBackend) CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	if s.createActivityFn != nil {
		return s.createActivityFn(ctx, a)
	}
	return a, nil
}

func (s *stubBackend) ListActivities(ctx context.Context, workspaceID, postID string) ([]models.Activity, error) {
	return nil, nil
}

func (s *stubBackend) UpdateBoard(ctx context.Context, boardID string, patch backend.BoardPatch) (models.Board, error) {
	if s.updateBoardFn != nil {
		return s.updateBoardFn(ctx, boardID, patch)
	}
	return models.Board{ID: boardID, GroupData: patch.GroupData}, nil
}

func (s *stubBackend) CreateChannelMessage(ctx context.Context, channelID string, msg models.Comment) (models.Comment, error) {
	if s.channelMessageFn != nil {
		return s.channelMessageFn(ctx, channelID, msg)
	}
	return msg, nil
}

func (s *stubBackend) SendWorkspaceInvite(ctx context.Context, workspaceID, email, role string) error {
	if s.workspaceInviteFn != nil {
		return s.workspaceInviteFn(ctx, workspaceID, email, role)
	}
	return nil
}

func (s *stubBackend) SendBoardInvite(ctx context.Context, boardID, email string) error {
	if s.boardInviteFn != nil {
		return s.boardInviteFn(ctx, boardID, email)
	}
	return nil
}

// echoUpdate makes the stub behave like a backend that applies the patch to
// the post currently in the tree.
func echoUpdate(tree *store.Tree, workspaceID string) func(ctx context.Context, postID string, patch models.PostPatch) (models.Post, error) {
	return func(_ context.Context, postID string, patch models.PostPatch) (models.Post, error) {
		p, ok := tree.Post(workspaceID, postID)
		if !ok {
			return models.Post{}, errors.New("post not found upstream")
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if patch.Comments != nil {
			p.Comments = patch.Comments
		}
		if patch.Blocks != nil {
			p.Blocks = patch.Blocks
		}
		if patch.Caption != nil {
			p.Caption = *patch.Caption
		}
		if patch.PublishDate != nil {
			p.PublishDate = patch.PublishDate
		}
		return p, nil
	}
}

func newFixture(t *testing.T, autoSchedule bool, status models.Status) (*Service, *store.Tree, *stubBackend) {
	t.Helper()
	tree := store.NewTree()
	tree.Hydrate([]models.Workspace{{
		ID: "w1",
		Boards: []models.Board{{
			ID:    "b1",
			Rules: &models.BoardRules{AutoSchedule: autoSchedule},
			Posts: []models.Post{{
				ID:          "p1",
				WorkspaceID: "w1",
				BoardID:     "b1",
				Status:      status,
				Month:       1,
				Blocks: []models.Block{{
					ID:               "blk1",
					Kind:             models.FileImage,
					CurrentVersionID: "v1",
					Versions:         []models.Version{{ID: "v1"}},
				}},
			}},
		}},
		Channels: []models.MessageChannel{{ID: "ch1", WorkspaceID: "w1"}},
	}})
	stub := &stubBackend{}
	stub.updatePostFn = echoUpdate(tree, "w1")
	svc := NewService(tree, stub, notifications.NewNotifier(nil))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc, tree, stub
}

func TestApproveAutoSchedules(t *testing.T) {
	t.Parallel()
	svc, tree, _ := newFixture(t, true, models.StatusPendingApproval)

	p, err := svc.Approve(context.Background(), "w1", "p1", "user1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, p.Status)

	stored, _ := tree.Post("w1", "p1")
	assert.Equal(t, models.StatusScheduled, stored.Status)
	require.Len(t, stored.Activities, 1)
	assert.Equal(t, models.ActivityApproved, stored.Activities[0].Type)
}

func TestApproveWithoutAutoSchedule(t *testing.T) {
	t.Parallel()
	svc, _, _ := newFixture(t, false, models.StatusRevised)

	p, err := svc.Approve(context.Background(), "w1", "p1", "user1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, p.Status)
}

func TestApproveInvalidSourceIsSilentNoop(t *testing.T) {
	t.Parallel()
	svc, tree, stub := newFixture(t, true, models.StatusPublished)

	p, err := svc.Approve(context.Background(), "w1", "p1", "user1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, p.Status)
	assert.Zero(t, stub.updateCalls, "no backend call for a guarded no-op")

	stored, _ := tree.Post("w1", "p1")
	assert.Empty(t, stored.Activities)
}

func TestBackendFailureLeavesTreeUntouched(t *testing.T) {
	t.Parallel()
	svc, tree, stub := newFixture(t, false, models.StatusPendingApproval)
	stub.updatePostFn = func(context.Context, string, models.PostPatch) (models.Post, error) {
		return models.Post{}, errors.New("boom")
	}

	_, err := svc.Approve(context.Background(), "w1", "p1", "user1")
	require.Error(t, err)

	stored, _ := tree.Post("w1", "p1")
	assert.Equal(t, models.StatusPendingApproval, stored.Status)
	assert.Empty(t, stored.Activities)
}

func TestRequestChangesEnforcesRevisionLimit(t *testing.T) {
	t.Parallel()
	svc, tree, _ := newFixture(t, false, models.StatusPendingApproval)
	tree.UpdateBoard("w1", "b1", func(b *models.Board) {
		b.Rules = &models.BoardRules{RevisionRules: true, FirstMonth: 1}
		b.GroupData = []models.BoardGroupData{{Month: 1, RevisionCount: 1}}
	})

	_, err := svc.RequestChanges(context.Background(), "w1", "p1", "user1", "fix it")
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)

	stored, _ := tree.Post("w1", "p1")
	assert.Equal(t, models.StatusPendingApproval, stored.Status)
}

func TestRequestChangesChargesTheMonth(t *testing.T) {
	t.Parallel()
	svc, tree, _ := newFixture(t, false, models.StatusPendingApproval)
	tree.UpdateBoard("w1", "b1", func(b *models.Board) {
		b.Rules = &models.BoardRules{RevisionRules: true, FirstMonth: 2}
	})

	p, err := svc.RequestChanges(context.Background(), "w1", "p1", "user1", "tighten the copy")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNeedsRevisions, p.Status)

	b, _ := tree.Board("w1", "b1")
	require.Len(t, b.GroupData, 1)
	assert.Equal(t, 1, b.GroupData[0].RevisionCount)
}

func TestMarkRevised(t *testing.T) {
	t.Parallel()
	svc, _, _ := newFixture(t, false, models.StatusNeedsRevisions)

	p, err := svc.MarkRevised(context.Background(), "w1", "p1", "user1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevised, p.Status)
}

func TestRevisionCommentFlipsStatusInSamePatch(t *testing.T) {
	t.Parallel()
	svc, tree, stub := newFixture(t, false, models.StatusPendingApproval)

	var patched models.PostPatch
	inner := echoUpdate(tree, "w1")
	stub.updatePostFn = func(ctx context.Context, postID string, patch models.PostPatch) (models.Post, error) {
		patched = patch
		return inner(ctx, postID, patch)
	}

	p, err := svc.AddPostComment(context.Background(), AddCommentInput{
		WorkspaceID:       "w1",
		PostID:            "p1",
		Author:            "client",
		Text:              "logo is wrong",
		RevisionRequested: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNeedsRevisions, p.Status)
	require.Len(t, p.Comments, 1)
	assert.True(t, p.Comments[0].RevisionRequested)

	// Comment and status travel in one patch.
	require.NotNil(t, patched.Status)
	assert.Equal(t, models.StatusNeedsRevisions, *patched.Status)
	require.Len(t, patched.Comments, 1)
}

func TestPlainCommentLeavesStatusAlone(t *testing.T) {
	t.Parallel()
	svc, _, _ := newFixture(t, false, models.StatusPendingApproval)

	p, err := svc.AddPostComment(context.Background(), AddCommentInput{
		WorkspaceID: "w1",
		PostID:      "p1",
		Author:      "client",
		Text:        "love this one",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingApproval, p.Status)
}

func TestAddVersionKeepsCurrentPointer(t *testing.T) {
	t.Parallel()
	svc, _, _ := newFixture(t, false, models.StatusNeedsRevisions)

	p, err := svc.AddVersion(context.Background(), "w1", "p1", "blk1", "designer", "v2 caption",
		[]models.MediaRef{{Kind: models.FileImage, Name: "hero.webp", Src: "https://cdn.example.com/hero.webp"}})
	require.NoError(t, err)
	require.Len(t, p.Blocks, 1)
	require.Len(t, p.Blocks[0].Versions, 2)
	// The append never repoints; v1 stays current until an explicit
	// set-current-version call.
	assert.Equal(t, "v1", p.Blocks[0].CurrentVersionID)
	assert.Equal(t, "v1", p.Blocks[0].Versions[0].ID)

	p, err = svc.SetCurrentVersion(context.Background(), "w1", "p1", "blk1", p.Blocks[0].Versions[1].ID)
	require.NoError(t, err)
	assert.Equal(t, p.Blocks[0].Versions[1].ID, p.Blocks[0].CurrentVersionID)
}

func TestAddVersionAdoptsWhenNoCurrent(t *testing.T) {
	t.Parallel()
	svc, tree, _ := newFixture(t, false, models.StatusDraft)

	tree.UpdatePost("w1", "p1", func(p *models.Post) {
		p.Blocks = []models.Block{{ID: "blk-empty", Kind: models.FileImage}}
	})

	p, err := svc.AddVersion(context.Background(), "w1", "p1", "blk-empty", "designer", "first cut", nil)
	require.NoError(t, err)
	require.Len(t, p.Blocks[0].Versions, 1)
	assert.Equal(t, p.Blocks[0].Versions[0].ID, p.Blocks[0].CurrentVersionID)
}

func TestSetCurrentVersionUnknownVersion(t *testing.T) {
	t.Parallel()
	svc, _, _ := newFixture(t, false, models.StatusDraft)

	_, err := svc.SetCurrentVersion(context.Background(), "w1", "p1", "blk1", "ghost")
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestAddVersionComment(t *testing.T) {
	t.Parallel()
	svc, _, _ := newFixture(t, false, models.StatusPendingApproval)

	rect := &models.Rect{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}
	p, err := svc.AddVersionComment(context.Background(), AddCommentInput{
		WorkspaceID: "w1", PostID: "p1", Author: "client", Text: "crop here",
	}, "blk1", "v1", rect)
	require.NoError(t, err)
	require.Len(t, p.Blocks[0].Versions[0].Comments, 1)
	assert.Equal(t, rect, p.Blocks[0].Versions[0].Comments[0].Rect)
}

func TestSendChannelMessage(t *testing.T) {
	t.Parallel()
	svc, tree, _ := newFixture(t, false, models.StatusDraft)

	msg, err := svc.SendChannelMessage(context.Background(), "w1", "ch1", "user1", "kickoff notes", "")
	require.NoError(t, err)
	assert.Equal(t, "kickoff notes", msg.Text)

	w, _ := tree.Workspace("w1")
	require.Len(t, w.Channels[0].Messages, 1)
}

func TestInviteValidation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newFixture(t, false, models.StatusDraft)

	err := svc.InviteToWorkspace(context.Background(), "w1", "user1", "not-an-email", "member")
	require.Error(t, err)

	err = svc.InviteToWorkspace(context.Background(), "w1", "user1", "client@example.com", "member")
	require.NoError(t, err)
}

func TestBulkDeletePosts(t *testing.T) {
	t.Parallel()
	svc, tree, _ := newFixture(t, false, models.StatusDraft)

	require.NoError(t, svc.BulkDeletePosts(context.Background(), "w1", []string{"p1"}))
	_, found := tree.Post("w1", "p1")
	assert.False(t, found)

	err := svc.BulkDeletePosts(context.Background(), "w1", nil)
	require.Error(t, err)
}

func TestUpdatePostStripsStatus(t *testing.T) {
	t.Parallel()
	svc, _, stub := newFixture(t, false, models.StatusDraft)

	var patched models.PostPatch
	stub.updatePostFn = func(_ context.Context, postID string, patch models.PostPatch) (models.Post, error) {
		patched = patch
		return models.Post{ID: postID, WorkspaceID: "w1", BoardID: "b1"}, nil
	}

	bad := models.StatusPublished
	_, err := svc.UpdatePost(context.Background(), "w1", "p1", models.PostPatch{Status: &bad})
	require.NoError(t, err)
	assert.Nil(t, patched.Status, "content updates must not smuggle status changes")
}

func TestBulkCreatePosts(t *testing.T) {
	t.Parallel()
	svc, tree, stub := newFixture(t, false, models.StatusDraft)

	var sent []models.Post
	stub.bulkCreateFn = func(_ context.Context, posts []models.Post) ([]models.Post, error) {
		sent = posts
		return posts, nil
	}

	created, err := svc.BulkCreatePosts(context.Background(), "w1", []CreatePostInput{
		{BoardID: "b1", Caption: models.CaptionData{Default: "first"}, CreatedBy: "user1"},
		{BoardID: "b1", Caption: models.CaptionData{Default: "second"}, CreatedBy: "user1", Month: 3},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Len(t, sent, 2, "one backend round-trip for the whole batch")
	assert.Equal(t, models.StatusDraft, created[0].Status)
	assert.Equal(t, 1, created[0].Month, "month defaults to 1")
	assert.Equal(t, 3, created[1].Month)

	for _, p := range created {
		_, found := tree.Post("w1", p.ID)
		assert.True(t, found)
	}
}

func TestBulkCreatePostsValidatesBatch(t *testing.T) {
	t.Parallel()
	svc, _, stub := newFixture(t, false, models.StatusDraft)

	_, err := svc.BulkCreatePosts(context.Background(), "w1", nil)
	require.Error(t, err)

	_, err = svc.BulkCreatePosts(context.Background(), "w1", []CreatePostInput{
		{BoardID: "b1"},
		{BoardID: "ghost"},
	})
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.Zero(t, stub.updateCalls)
}

func TestBulkCreatePostsBackendFailureLeavesTreeUntouched(t *testing.T) {
	t.Parallel()
	svc, tree, stub := newFixture(t, false, models.StatusDraft)
	stub.bulkCreateFn = func(context.Context, []models.Post) ([]models.Post, error) {
		return nil, errors.New("boom")
	}

	_, err := svc.BulkCreatePosts(context.Background(), "w1", []CreatePostInput{{BoardID: "b1"}})
	require.Error(t, err)

	b, _ := tree.Board("w1", "b1")
	assert.Len(t, b.Posts, 1, "only the seeded post remains")
}

func TestConfirmedPostOnUnknownBoardRehydratesWorkspace(t *testing.T) {
	t.Parallel()
	svc, tree, stub := newFixture(t, false, models.StatusDraft)

	// The backend has already moved the post to a board this tree has never
	// seen; applying the confirmation must re-fetch instead of dropping it.
	moved := models.Post{ID: "p1", WorkspaceID: "w1", BoardID: "b2", Status: models.StatusDraft, Month: 1}
	stub.updatePostFn = func(context.Context, string, models.PostPatch) (models.Post, error) {
		return moved, nil
	}
	fetched := 0
	stub.getWorkspaceFn = func(_ context.Context, id string) (models.Workspace, error) {
		fetched++
		return models.Workspace{
			ID: id,
			Boards: []models.Board{
				{ID: "b1"},
				{ID: "b2", Posts: []models.Post{moved}},
			},
		}, nil
	}

	_, err := svc.UpdatePost(context.Background(), "w1", "p1", models.PostPatch{})
	require.NoError(t, err)
	assert.Equal(t, 1, fetched)

	stored, found := tree.Post("w1", "p1")
	require.True(t, found, "confirmed post must survive the board miss")
	assert.Equal(t, "b2", stored.BoardID)
}
