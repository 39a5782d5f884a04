package sync

import (
	"context"
	"strings"

	"feedbird/internal/lifecycle"
	"feedbird/internal/models"
	"feedbird/internal/observability"
)

// AddCommentInput is the input for a post-level comment.
type AddCommentInput struct {
	WorkspaceID       string
	PostID            string
	Author            string
	AuthorEmail       string
	Text              string
	ParentID          string
	RevisionRequested bool
}

// AddPostComment appends a comment to a post. A revision-flagged comment
// also flips the post to Needs Revisions in the same backend patch, so the
// comment and the status change land together or not at all.
func (s *Service) AddPostComment(ctx context.Context, in AddCommentInput) (models.Post, error) {
	if strings.TrimSpace(in.Text) == "" {
		return models.Post{}, models.NewValidationError("comment text is required")
	}
	p, ok := s.tree.Post(in.WorkspaceID, in.PostID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", in.PostID)
	}

	comment := models.Comment{
		ID:                s.newID(),
		ParentID:          in.ParentID,
		Author:            in.Author,
		AuthorEmail:       in.AuthorEmail,
		Text:              in.Text,
		RevisionRequested: in.RevisionRequested,
		CreatedAt:         s.now().UTC(),
	}

	comments := append(append([]models.Comment{}, p.Comments...), comment)
	patch := models.PostPatch{}

	var statusChanged bool
	var next models.Status
	if in.RevisionRequested {
		if d := lifecycle.CommentRevision(p.Status); d.Changed {
			if err := s.chargeRevision(ctx, in.WorkspaceID, p.BoardID, p.Month); err != nil {
				return models.Post{}, err
			}
			next = d.Next
			patch.Status = &next
			statusChanged = true
		}
	}

	confirmed, err := s.patchComments(ctx, in.WorkspaceID, in.PostID, comments, patch)
	if err != nil {
		return models.Post{}, err
	}
	if statusChanged {
		recordStatusMetric(p.Status, next)
	}

	activityType := models.ActivityComment
	meta := &models.ActivityMetadata{CommentID: comment.ID}
	if in.RevisionRequested {
		activityType = models.ActivityRevisionRequest
		meta.RevisionComment = in.Text
	}
	_, err = s.RecordActivity(ctx, models.Activity{
		WorkspaceID: in.WorkspaceID,
		PostID:      in.PostID,
		Type:        activityType,
		ActorID:     in.Author,
		Metadata:    meta,
	})
	if err != nil {
		return models.Post{}, err
	}
	return s.mustPost(in.WorkspaceID, in.PostID, confirmed), nil
}

// AddBlockComment appends a comment to one block of a post.
func (s *Service) AddBlockComment(ctx context.Context, in AddCommentInput, blockID string) (models.Post, error) {
	if strings.TrimSpace(in.Text) == "" {
		return models.Post{}, models.NewValidationError("comment text is required")
	}
	p, ok := s.tree.Post(in.WorkspaceID, in.PostID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", in.PostID)
	}
	blocks, ok := withBlock(p.Blocks, blockID, func(b *models.Block) {
		b.Comments = append(append([]models.Comment{}, b.Comments...), models.Comment{
			ID:        s.newID(),
			ParentID:  in.ParentID,
			Author:    in.Author,
			Text:      in.Text,
			CreatedAt: s.now().UTC(),
		})
	})
	if !ok {
		return models.Post{}, models.NewNotFoundError("block", blockID)
	}
	return s.patchBlocks(ctx, in.WorkspaceID, in.PostID, blocks)
}

// AddVersionComment appends a comment, optionally anchored to a region of
// the media, to one version of a block.
func (s *Service) AddVersionComment(ctx context.Context, in AddCommentInput, blockID, versionID string, rect *models.Rect) (models.Post, error) {
	if strings.TrimSpace(in.Text) == "" {
		return models.Post{}, models.NewValidationError("comment text is required")
	}
	p, ok := s.tree.Post(in.WorkspaceID, in.PostID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", in.PostID)
	}
	versionFound := false
	blocks, ok := withBlock(p.Blocks, blockID, func(b *models.Block) {
		for i := range b.Versions {
			if b.Versions[i].ID != versionID {
				continue
			}
			versionFound = true
			v := b.Versions[i]
			v.Comments = append(append([]models.Comment{}, v.Comments...), models.Comment{
				ID:        s.newID(),
				ParentID:  in.ParentID,
				Author:    in.Author,
				Text:      in.Text,
				Rect:      rect,
				CreatedAt: s.now().UTC(),
			})
			b.Versions[i] = v
			return
		}
	})
	if !ok {
		return models.Post{}, models.NewNotFoundError("block", blockID)
	}
	if !versionFound {
		return models.Post{}, models.NewNotFoundError("version", versionID)
	}
	return s.patchBlocks(ctx, in.WorkspaceID, in.PostID, blocks)
}

// AddVersion appends a new version to a block. History is never rewritten
// and the current pointer stays where it is; only a block with no current
// version adopts the new one. Repointing is an explicit SetCurrentVersion.
func (s *Service) AddVersion(ctx context.Context, workspaceID, postID, blockID string, by, caption string, media []models.MediaRef) (models.Post, error) {
	p, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	versionID := s.newID()
	blocks, ok := withBlock(p.Blocks, blockID, func(b *models.Block) {
		b.Versions = append(append([]models.Version{}, b.Versions...), models.Version{
			ID:        versionID,
			By:        by,
			Caption:   caption,
			Media:     media,
			Comments:  []models.Comment{},
			CreatedAt: s.now().UTC(),
		})
		if b.CurrentVersionID == "" {
			b.CurrentVersionID = versionID
		}
	})
	if !ok {
		return models.Post{}, models.NewNotFoundError("block", blockID)
	}
	return s.patchBlocks(ctx, workspaceID, postID, blocks)
}

// SetCurrentVersion repoints a block at an existing version.
func (s *Service) SetCurrentVersion(ctx context.Context, workspaceID, postID, blockID, versionID string) (models.Post, error) {
	p, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return models.Post{}, models.NewNotFoundError("post", postID)
	}
	versionFound := false
	blocks, ok := withBlock(p.Blocks, blockID, func(b *models.Block) {
		for i := range b.Versions {
			if b.Versions[i].ID == versionID {
				versionFound = true
				b.CurrentVersionID = versionID
				return
			}
		}
	})
	if !ok {
		return models.Post{}, models.NewNotFoundError("block", blockID)
	}
	if !versionFound {
		return models.Post{}, models.NewNotFoundError("version", versionID)
	}
	return s.patchBlocks(ctx, workspaceID, postID, blocks)
}

func (s *Service) patchComments(ctx context.Context, workspaceID, postID string, comments []models.Comment, patch models.PostPatch) (models.Post, error) {
	// Comments ride on the post resource; the backend stores the full array.
	patch.Comments = comments
	confirmed, err := s.backend.UpdatePost(ctx, postID, patch)
	if err != nil {
		s.postLog.LogError(ctx, "comment", err)
		return models.Post{}, err
	}
	s.applyPost(ctx, workspaceID, confirmed)
	return confirmed, nil
}

func (s *Service) patchBlocks(ctx context.Context, workspaceID, postID string, blocks []models.Block) (models.Post, error) {
	confirmed, err := s.backend.UpdatePost(ctx, postID, models.PostPatch{Blocks: blocks})
	if err != nil {
		s.postLog.LogError(ctx, "blocks", err)
		return models.Post{}, err
	}
	s.applyPost(ctx, workspaceID, confirmed)
	return confirmed, nil
}

// withBlock copies the block slice, applies fn to the matching block, and
// reports whether the block was found.
func withBlock(blocks []models.Block, blockID string, fn func(*models.Block)) ([]models.Block, bool) {
	out := make([]models.Block, len(blocks))
	copy(out, blocks)
	for i := range out {
		if out[i].ID == blockID {
			b := out[i]
			versions := make([]models.Version, len(b.Versions))
			copy(versions, b.Versions)
			b.Versions = versions
			fn(&b)
			out[i] = b
			return out, true
		}
	}
	return nil, false
}

func recordStatusMetric(from, to models.Status) {
	if from != to {
		observability.RecordTransition(string(from), string(to))
	}
}
