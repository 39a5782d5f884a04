package sync

import (
	"context"
	"strings"

	"feedbird/internal/models"
)

// SendChannelMessage appends a message to a workspace discussion channel.
// Channel messages share the confirm-then-apply discipline with posts.
func (s *Service) SendChannelMessage(ctx context.Context, workspaceID, channelID, author, text, parentID string) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, models.NewValidationError("message text is required")
	}
	w, ok := s.tree.Workspace(workspaceID)
	if !ok {
		return models.Comment{}, models.NewNotFoundError("workspace", workspaceID)
	}
	found := false
	for i := range w.Channels {
		if w.Channels[i].ID == channelID {
			found = true
			break
		}
	}
	if !found {
		return models.Comment{}, models.NewNotFoundError("channel", channelID)
	}

	msg := models.Comment{
		ID:        s.newID(),
		ParentID:  parentID,
		Author:    author,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	confirmed, err := s.backend.CreateChannelMessage(ctx, channelID, msg)
	if err != nil {
		s.postLog.LogError(ctx, "channel_message", err)
		return models.Comment{}, err
	}

	s.tree.UpdateWorkspace(workspaceID, func(w *models.Workspace) {
		channels := make([]models.MessageChannel, len(w.Channels))
		copy(channels, w.Channels)
		w.Channels = channels
		for i := range channels {
			if channels[i].ID == channelID {
				ch := channels[i]
				ch.Messages = append(append([]models.Comment{}, ch.Messages...), confirmed)
				ch.UpdatedAt = s.now().UTC()
				channels[i] = ch
				return
			}
		}
	})
	return confirmed, nil
}

// InviteToWorkspace sends a workspace invitation and records the audit
// activity. Invitation activities carry no post id.
func (s *Service) InviteToWorkspace(ctx context.Context, workspaceID, actorID, email, role string) error {
	if !validEmail(email) {
		return models.NewValidationError("a valid email is required")
	}
	if _, ok := s.tree.Workspace(workspaceID); !ok {
		return models.NewNotFoundError("workspace", workspaceID)
	}
	if err := s.backend.SendWorkspaceInvite(ctx, workspaceID, email, role); err != nil {
		return err
	}
	_, err := s.RecordActivity(ctx, models.Activity{
		WorkspaceID: workspaceID,
		Type:        models.ActivityWorkspaceInvite,
		ActorID:     actorID,
		Metadata:    &models.ActivityMetadata{InvitedEmail: email},
	})
	return err
}

// InviteToBoard sends a board invitation and records the audit activity.
func (s *Service) InviteToBoard(ctx context.Context, workspaceID, boardID, actorID, email string) error {
	if !validEmail(email) {
		return models.NewValidationError("a valid email is required")
	}
	if _, ok := s.tree.Board(workspaceID, boardID); !ok {
		return models.NewNotFoundError("board", boardID)
	}
	if err := s.backend.SendBoardInvite(ctx, boardID, email); err != nil {
		return err
	}
	_, err := s.RecordActivity(ctx, models.Activity{
		WorkspaceID: workspaceID,
		Type:        models.ActivityBoardInvite,
		ActorID:     actorID,
		Metadata:    &models.ActivityMetadata{InvitedEmail: email},
	})
	return err
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && strings.Contains(email[at:], ".")
}
