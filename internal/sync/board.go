package sync

import (
	"context"
	"strings"

	"feedbird/internal/backend"
	"feedbird/internal/models"
)

// AddGroupComment appends a month-scoped comment thread entry to a board.
func (s *Service) AddGroupComment(ctx context.Context, workspaceID, boardID string, month int, author, text string) (models.Board, error) {
	if strings.TrimSpace(text) == "" {
		return models.Board{}, models.NewValidationError("comment text is required")
	}
	if month < 1 {
		return models.Board{}, models.NewValidationError("month must be positive")
	}
	b, ok := s.tree.Board(workspaceID, boardID)
	if !ok {
		return models.Board{}, models.NewNotFoundError("board", boardID)
	}

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
	comments := append(append([]models.GroupComment{}, groups[idx].Comments...), models.GroupComment{
		ID:        s.newID(),
		Author:    author,
		Text:      text,
		CreatedAt: s.now().UTC(),
	})
	groups[idx].Comments = comments

	confirmed, err := s.backend.UpdateBoard(ctx, boardID, backend.BoardPatch{GroupData: groups})
	if err != nil {
		s.boardLog.LogError(ctx, "group_comment", err)
		return models.Board{}, err
	}
	s.applyBoard(workspaceID, confirmed)
	return confirmed, nil
}

// ResolveGroupComment marks a month-scoped comment as resolved.
func (s *Service) ResolveGroupComment(ctx context.Context, workspaceID, boardID string, month int, commentID, resolvedBy string) (models.Board, error) {
	b, ok := s.tree.Board(workspaceID, boardID)
	if !ok {
		return models.Board{}, models.NewNotFoundError("board", boardID)
	}

	groups := make([]models.BoardGroupData, len(b.GroupData))
	copy(groups, b.GroupData)
	found := false
	for i := range groups {
		if groups[i].Month != month {
			continue
		}
		comments := make([]models.GroupComment, len(groups[i].Comments))
		copy(comments, groups[i].Comments)
		for j := range comments {
			if comments[j].ID == commentID {
				comments[j].Resolved = true
				comments[j].ResolvedBy = resolvedBy
				found = true
			}
		}
		groups[i].Comments = comments
	}
	if !found {
		return models.Board{}, models.NewNotFoundError("group comment", commentID)
	}

	confirmed, err := s.backend.UpdateBoard(ctx, boardID, backend.BoardPatch{GroupData: groups})
	if err != nil {
		s.boardLog.LogError(ctx, "resolve_group_comment", err)
		return models.Board{}, err
	}
	s.applyBoard(workspaceID, confirmed)
	return confirmed, nil
}
