package server

import (
	"feedbird/internal/middleware"
	"feedbird/internal/models"
	"feedbird/internal/sync"

	"github.com/gofiber/fiber/v2"
)

// commentRequest is the shared body for post, block, and version comments.
type commentRequest struct {
	Author            string       `json:"author"`
	AuthorEmail       string       `json:"author_email"`
	Text              string       `json:"text"`
	ParentID          string       `json:"parent_id"`
	RevisionRequested bool         `json:"revision_requested"`
	Rect              *models.Rect `json:"rect"`
}

func (s *Server) parseCommentInput(c *fiber.Ctx) (sync.AddCommentInput, *models.Rect, error) {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return sync.AddCommentInput{}, nil, models.NewValidationError("Invalid request body")
	}

	author := req.Author
	if author == "" {
		author = middleware.UserID(c)
	}

	return sync.AddCommentInput{
		WorkspaceID:       c.Params("id"),
		PostID:            c.Params("postId"),
		Author:            author,
		AuthorEmail:       req.AuthorEmail,
		Text:              req.Text,
		ParentID:          req.ParentID,
		RevisionRequested: req.RevisionRequested,
	}, req.Rect, nil
}

// AddPostComment adds a comment to a post. A revision-flagged comment also
// moves the post to Needs Revisions in the same update.
func (s *Server) AddPostComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	in, _, err := s.parseCommentInput(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	post, err := s.svc.AddPostComment(ctx, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// AddBlockComment adds a comment to one media block of a post
func (s *Server) AddBlockComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	in, _, err := s.parseCommentInput(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	post, err := s.svc.AddBlockComment(ctx, in, c.Params("blockId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// AddVersionComment adds a comment, optionally anchored to a region, to a
// specific version of a block
func (s *Server) AddVersionComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	in, rect, err := s.parseCommentInput(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	post, err := s.svc.AddVersionComment(ctx, in, c.Params("blockId"), c.Params("versionId"), rect)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// AddVersion appends a new version to a block and makes it current
func (s *Server) AddVersion(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Caption string            `json:"caption"`
		Media   []models.MediaRef `json:"media"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	post, err := s.svc.AddVersion(ctx, c.Params("id"), c.Params("postId"), c.Params("blockId"),
		middleware.UserID(c), req.Caption, req.Media)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// SetCurrentVersion repoints a block's current version
func (s *Server) SetCurrentVersion(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		VersionID string `json:"version_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	post, err := s.svc.SetCurrentVersion(ctx, c.Params("id"), c.Params("postId"), c.Params("blockId"), req.VersionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
