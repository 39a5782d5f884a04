// Package sync applies the confirm-then-apply discipline: every mutation is
// sent to the backend first, and only the backend's confirmed representation
// is written into the local tree. A failed backend call leaves local state
// exactly as it was.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"feedbird/internal/backend"
	"feedbird/internal/lifecycle"
	"feedbird/internal/models"
	"feedbird/internal/notifications"
	"feedbird/internal/observability"
	"feedbird/internal/store"
)

// Service coordinates the backend, the local tree, and the activity
// notifier.
type Service struct {
	tree     *store.Tree
	backend  backend.Client
	notifier *notifications.Notifier

	postLog  *observability.SyncLogger
	boardLog *observability.SyncLogger

	now   func() time.Time
	newID func() string
}

// NewService returns a new Service.
func NewService(tree *store.Tree, client backend.Client, notifier *notifications.Notifier) *Service {
	return &Service{
		tree:     tree,
		backend:  client,
		notifier: notifier,
		postLog:  observability.NewSyncLogger("posts"),
		boardLog: observability.NewSyncLogger("boards"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Tree exposes the local tree for read paths.
func (s *Service) Tree() *store.Tree {
	return s.tree
}

// Hydrate replaces the local tree with the backend's current state.
func (s *Service) Hydrate(ctx context.Context) error {
	workspaces, err := s.backend.ListWorkspaces(ctx)
	if err != nil {
		return err
	}
	s.tree.Hydrate(workspaces)
	return nil
}

// CreatePostInput is the input for creating a post.
type CreatePostInput struct {
	WorkspaceID string
	BoardID     string
	Caption     models.CaptionData
	Format      string
	Platforms   []models.Platform
	Pages       []string
	PublishDate *time.Time
	Month       int
	CreatedBy   string
}

// CreatePost creates a draft post on the backend and mirrors it locally.
func (s *Service) CreatePost(ctx context.Context, in CreatePostInput) (models.Post, error) {
	if in.WorkspaceID == "" || in.BoardID == "" {
		return models.Post{}, models.NewValidationError("workspace and board are required")
	}
	if _, ok := s.tree.Board(in.WorkspaceID, in.BoardID); !ok {
		return models.Post{}, models.NewNotFoundError("board", in.BoardID)
	}
	month := in.Month
	if month < 1 {
		month = 1
	}
	p := models.Post{
		ID:          s.newID(),
		WorkspaceID: in.WorkspaceID,
		BoardID:     in.BoardID,
		Caption:     in.Caption,
		Format:      in.Format,
		Status:      models.StatusDraft,
		Platforms:   in.Platforms,
		Pages:       in.Pages,
		PublishDate: in.PublishDate,
		Month:       month,
		CreatedBy:   in.CreatedBy,
	}
	confirmed, err := s.backend.CreatePost(ctx, p)
	if err != nil {
		s.postLog.LogError(ctx, "create", err)
		return models.Post{}, err
	}
	s.postLog.LogConfirm(ctx, "create", map[string]any{"post_id": confirmed.ID})
	s.applyPost(ctx, in.WorkspaceID, confirmed)
	return confirmed, nil
}

// BulkCreatePosts creates a batch of drafts in one backend round-trip. The
// batch is validated up front; the tree only sees the confirmed posts.
func (s *Service) BulkCreatePosts(ctx context.Context, workspaceID string, ins []CreatePostInput) ([]models.Post, error) {
	if len(ins) == 0 {
		return nil, models.NewValidationError("no posts given")
	}
	posts := make([]models.Post, 0, len(ins))
	for _, in := range ins {
		if in.BoardID == "" {
			return nil, models.NewValidationError("workspace and board are required")
		}
		if _, ok := s.tree.Board(workspaceID, in.BoardID); !ok {
			return nil, models.NewNotFoundError("board", in.BoardID)
		}
		month := in.Month
		if month < 1 {
			month = 1
		}
		posts = append(posts, models.Post{
			ID:          s.newID(),
			WorkspaceID: workspaceID,
			BoardID:     in.BoardID,
			Caption:     in.Caption,
			Format:      in.Format,
			Status:      models.StatusDraft,
			Platforms:   in.Platforms,
			Pages:       in.Pages,
			PublishDate: in.PublishDate,
			Month:       month,
			CreatedBy:   in.CreatedBy,
		})
	}
	confirmed, err := s.backend.BulkCreatePosts(ctx, posts)
	if err != nil {
		s.postLog.LogError(ctx, "bulk_create", err)
		return nil, err
	}
	s.postLog.LogConfirm(ctx, "bulk_create", map[string]any{"count": len(confirmed)})
	for _, p := range confirmed {
		s.applyPost(ctx, workspaceID, p)
	}
	return confirmed, nil
}

// applyPost places a confirmed post into the tree. A confirmed post whose
// board the local tree has not seen yet triggers a workspace re-fetch so the
// post is never silently dropped.
func (s *Service) applyPost(ctx context.Context, workspaceID string, p models.Post) {
	if s.tree.UpsertPost(workspaceID, p) {
		return
	}
	s.postLog.LogError(ctx, "apply",
		fmt.Errorf("board %s missing from local tree, re-fetching workspace %s", p.BoardID, workspaceID))
	w, err := s.backend.GetWorkspace(ctx, workspaceID)
	if err != nil {
		s.postLog.LogError(ctx, "apply", err)
		return
	}
	s.tree.UpsertWorkspace(w)
}

// UpdatePost patches content fields of a post. Status is deliberately not
// accepted here; status changes go through the lifecycle operations.
func (s *Service) UpdatePost(ctx context.Context, workspaceID, postID string, patch models.PostPatch) (models.Post, error) {
	if _, ok := s.tree.Post(workspaceID, postID); !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	patch.Status = nil
	confirmed, err := s.backend.UpdatePost(ctx, postID, patch)
	if err != nil {
		s.postLog.LogError(ctx, "update", err)
		return models.Post{}, err
	}
	s.postLog.LogConfirm(ctx, "update", map[string]any{"post_id": postID})
	s.applyPost(ctx, workspaceID, confirmed)
	return confirmed, nil
}

// DeletePost removes a post on the backend, then locally.
func (s *Service) DeletePost(ctx context.Context, workspaceID, postID string) error {
	if _, ok := s.tree.Post(workspaceID, postID); !ok {
		return models.NewNotFoundError("post", postID)
	}
	if err := s.backend.DeletePost(ctx, postID); err != nil {
		s.postLog.LogError(ctx, "delete", err)
		return err
	}
	s.tree.RemovePosts(workspaceID, []string{postID})
	return nil
}

// BulkDeletePosts removes a set of posts in one backend call. The local tree
// is only touched after the whole batch is confirmed.
func (s *Service) BulkDeletePosts(ctx context.Context, workspaceID string, ids []string) error {
	if len(ids) == 0 {
		return models.NewValidationError("no post ids given")
	}
	if err := s.backend.BulkDeletePosts(ctx, ids); err != nil {
		s.postLog.LogError(ctx, "bulk_delete", err)
		return err
	}
	s.tree.RemovePosts(workspaceID, ids)
	return nil
}

// ConfirmStatus patches a post's status on the backend and applies the
// confirmed post locally, recording the transition metric.
func (s *Service) ConfirmStatus(ctx context.Context, workspaceID, postID string, next models.Status) (models.Post, error) {
	prev, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	confirmed, err := s.backend.UpdatePost(ctx, postID, models.PostPatch{Status: &next})
	if err != nil {
		s.postLog.LogError(ctx, "status", err)
		return models.Post{}, err
	}
	s.applyPost(ctx, workspaceID, confirmed)
	observability.RecordTransition(string(prev.Status), string(next))
	return confirmed, nil
}

// RecordActivity persists an activity, appends it to the owning post's local
// audit trail, and fans it out to the workspace channel.
func (s *Service) RecordActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	confirmed, err := s.backend.CreateActivity(ctx, a)
	if err != nil {
		s.postLog.LogError(ctx, "activity", err)
		return models.Activity{}, err
	}
	if confirmed.PostID != "" {
		s.tree.UpdatePost(confirmed.WorkspaceID, confirmed.PostID, func(p *models.Post) {
			p.Activities = append(p.Activities, confirmed)
		})
	}
	if err := s.notifier.PublishActivity(ctx, confirmed); err != nil {
		observability.GlobalLogger.Warn("activity fan-out failed", "error", err)
	}
	return confirmed, nil
}

// ListActivities returns a post's audit trail with resolved actors.
func (s *Service) ListActivities(ctx context.Context, workspaceID, postID string) ([]models.Activity, error) {
	return s.backend.ListActivities(ctx, workspaceID, postID)
}

// SubmitForApproval moves a draft into Pending Approval. Invalid sources are
// silent no-ops returning the unchanged post.
func (s *Service) SubmitForApproval(ctx context.Context, workspaceID, postID string) (models.Post, error) {
	p, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	d := lifecycle.SubmitForApproval(p.Status)
	if !d.Changed {
		return p, nil
	}
	return s.ConfirmStatus(ctx, workspaceID, postID, d.Next)
}

// Approve lands an approval, consulting the owning board's auto-schedule
// rule, and records the approved activity.
func (s *Service) Approve(ctx context.Context, workspaceID, postID, actorID string) (models.Post, error) {
	p, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	rules := s.tree.BoardRules(workspaceID, p.BoardID)
	d := lifecycle.Approve(p.Status, rules.AutoSchedule)
	if !d.Changed {
		return p, nil
	}
	confirmed, err := s.ConfirmStatus(ctx, workspaceID, postID, d.Next)
	if err != nil {
		return models.Post{}, err
	}
	_, err = s.RecordActivity(ctx, models.Activity{
		WorkspaceID: workspaceID,
		PostID:      postID,
		Type:        d.Activity,
		ActorID:     actorID,
	})
	if err != nil {
		return models.Post{}, err
	}
	return s.mustPost(workspaceID, postID, confirmed), nil
}

// RequestChanges moves a post back to Needs Revisions, enforcing the board's
// monthly revision allowance and incrementing the month's counter.
func (s *Service) RequestChanges(ctx context.Context, workspaceID, postID, actorID, comment string) (models.Post, error) {
	p, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	d := lifecycle.RequestChanges(p.Status)
	if !d.Changed {
		return p, nil
	}
	if err := s.chargeRevision(ctx, workspaceID, p.BoardID, p.Month); err != nil {
		return models.Post{}, err
	}
	confirmed, err := s.ConfirmStatus(ctx, workspaceID, postID, d.Next)
	if err != nil {
		return models.Post{}, err
	}
	_, err = s.RecordActivity(ctx, models.Activity{
		WorkspaceID: workspaceID,
		PostID:      postID,
		Type:        d.Activity,
		ActorID:     actorID,
		Metadata:    &models.ActivityMetadata{RevisionComment: comment},
	})
	if err != nil {
		return models.Post{}, err
	}
	return s.mustPost(workspaceID, postID, confirmed), nil
}

// MarkRevised records that requested changes have been addressed.
func (s *Service) MarkRevised(ctx context.Context, workspaceID, postID, actorID string) (models.Post, error) {
	p, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	d := lifecycle.MarkRevised(p.Status)
	if !d.Changed {
		return p, nil
	}
	confirmed, err := s.ConfirmStatus(ctx, workspaceID, postID, d.Next)
	if err != nil {
		return models.Post{}, err
	}
	_, err = s.RecordActivity(ctx, models.Activity{
		WorkspaceID: workspaceID,
		PostID:      postID,
		Type:        d.Activity,
		ActorID:     actorID,
	})
	if err != nil {
		return models.Post{}, err
	}
	return s.mustPost(workspaceID, postID, confirmed), nil
}

// chargeRevision enforces and increments the per-month revision counter on
// the owning board. Unlimited allowances skip the backend round-trip.
func (s *Service) chargeRevision(ctx context.Context, workspaceID, boardID string, month int) error {
	b, ok := s.tree.Board(workspaceID, boardID)
	if !ok {
		return models.NewNotFoundError("board", boardID)
	}
	rules := s.tree.BoardRules(workspaceID, boardID)
	allowance := rules.RevisionAllowance(month)

	groups := make([]models.BoardGroupData, len(b.GroupData))
	copy(groups, b.GroupData)
	idx := -1
	for i := range groups {
		if groups[i].Month == month {
			idx = i
			break
		}
	}
	if idx == -1 {
		groups = append(groups, models.BoardGroupData{Month: month})
		idx = len(groups) - 1
	}
	if allowance != models.UnlimitedRevisions && groups[idx].RevisionCount >= allowance {
		return models.NewValidationError("revision limit reached for this month")
	}
	if allowance == models.UnlimitedRevisions {
		return nil
	}
	groups[idx].RevisionCount++

	confirmed, err := s.backend.UpdateBoard(ctx, boardID, backend.BoardPatch{GroupData: groups})
	if err != nil {
		s.boardLog.LogError(ctx, "charge_revision", err)
		return err
	}
	s.applyBoard(workspaceID, confirmed)
	return nil
}

// UpdateBoard patches board policy or metadata and applies the confirmed
// board locally. Rules take effect on the next lifecycle operation.
func (s *Service) UpdateBoard(ctx context.Context, workspaceID, boardID string, patch backend.BoardPatch) (models.Board, error) {
	if _, ok := s.tree.Board(workspaceID, boardID); !ok {
		return models.Board{}, models.NewNotFoundError("board", boardID)
	}
	confirmed, err := s.backend.UpdateBoard(ctx, boardID, patch)
	if err != nil {
		s.boardLog.LogError(ctx, "update", err)
		return models.Board{}, err
	}
	s.boardLog.LogConfirm(ctx, "update", map[string]any{"board_id": boardID})
	s.applyBoard(workspaceID, confirmed)
	return confirmed, nil
}

func (s *Service) applyBoard(workspaceID string, b models.Board) {
	s.tree.UpdateBoard(workspaceID, b.ID, func(dst *models.Board) {
		posts := dst.Posts // posts are owned by the tree, not the board patch
		*dst = b
		dst.Posts = posts
	})
}

// mustPost rereads the post after a multi-step mutation; the fallback keeps
// the confirmed copy if the tree raced with a delete.
func (s *Service) mustPost(workspaceID, postID string, fallback models.Post) models.Post {
	if p, ok := s.tree.Post(workspaceID, postID); ok {
		return p
	}
	return fallback
}
