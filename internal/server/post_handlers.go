package server

import (
	"time"

	"feedbird/internal/middleware"
	"feedbird/internal/models"
	"feedbird/internal/sync"

	"github.com/gofiber/fiber/v2"
)

// CreatePost creates a draft post on a board
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	workspaceID := c.Params("id")

	var req struct {
		BoardID     string             `json:"board_id"`
		Caption     models.CaptionData `json:"caption"`
		Format      string             `json:"format"`
		Platforms   []models.Platform  `json:"platforms"`
		Pages       []string           `json:"pages"`
		PublishDate *time.Time         `json:"publish_date"`
		Month       int                `json:"month"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	post, err := s.svc.CreatePost(ctx, sync.CreatePostInput{
		WorkspaceID: workspaceID,
		BoardID:     req.BoardID,
		Caption:     req.Caption,
		Format:      req.Format,
		Platforms:   req.Platforms,
		Pages:       req.Pages,
		PublishDate: req.PublishDate,
		Month:       req.Month,
		CreatedBy:   middleware.UserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// BulkCreatePosts creates a batch of draft posts in one backend round-trip
func (s *Server) BulkCreatePosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	workspaceID := c.Params("id")

	var req struct {
		Posts []struct {
			BoardID     string             `json:"board_id"`
			Caption     models.CaptionData `json:"caption"`
			Format      string             `json:"format"`
			Platforms   []models.Platform  `json:"platforms"`
			Pages       []string           `json:"pages"`
			PublishDate *time.Time         `json:"publish_date"`
			Month       int                `json:"month"`
		} `json:"posts"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if len(req.Posts) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("posts must not be empty"))
	}

	actor := middleware.UserID(c)
	ins := make([]sync.CreatePostInput, 0, len(req.Posts))
	for _, p := range req.Posts {
		ins = append(ins, sync.CreatePostInput{
			WorkspaceID: workspaceID,
			BoardID:     p.BoardID,
			Caption:     p.Caption,
			Format:      p.Format,
			Platforms:   p.Platforms,
			Pages:       p.Pages,
			PublishDate: p.PublishDate,
			Month:       p.Month,
			CreatedBy:   actor,
		})
	}

	posts, err := s.svc.BulkCreatePosts(ctx, workspaceID, ins)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(posts)
}

// GetPost returns a single post
func (s *Server) GetPost(c *fiber.Ctx) error {
	workspaceID := c.Params("id")
	postID := c.Params("postId")

	post, ok := s.tree.Post(workspaceID, postID)
	if !ok {
		return respondError(c, models.NewNotFoundError("post", postID))
	}
	return c.JSON(post)
}

// UpdatePost applies a partial update to a post. Status fields in the body
// are ignored; status only moves through the lifecycle endpoints.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	workspaceID := c.Params("id")
	postID := c.Params("postId")

	var patch models.PostPatch
	if err := c.BodyParser(&patch); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	post, err := s.svc.UpdatePost(ctx, workspaceID, postID, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost deletes a post
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	workspaceID := c.Params("id")
	postID := c.Params("postId")

	if err := s.svc.DeletePost(ctx, workspaceID, postID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// BulkDeletePosts deletes a batch of posts in one backend round-trip
func (s *Server) BulkDeletePosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	workspaceID := c.Params("id")

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if len(req.IDs) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("ids must not be empty"))
	}

	if err := s.svc.BulkDeletePosts(ctx, workspaceID, req.IDs); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Posts deleted", "count": len(req.IDs)})
}

// GetPostActivities returns the audit trail for one post
func (s *Server) GetPostActivities(c *fiber.Ctx) error {
	ctx := c.UserContext()
	workspaceID := c.Params("id")
	postID := c.Params("postId")

	activities, err := s.svc.ListActivities(ctx, workspaceID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activities)
}
