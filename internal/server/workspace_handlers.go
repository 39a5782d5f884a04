package server

import (
	"feedbird/internal/middleware"
	"feedbird/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetWorkspaces returns every workspace in the tree
func (s *Server) GetWorkspaces(c *fiber.Ctx) error {
	return c.JSON(s.tree.Workspaces())
}

// GetWorkspace returns a single workspace with its boards and posts
func (s *Server) GetWorkspace(c *fiber.Ctx) error {
	workspaceID := c.Params("id")

	w, ok := s.tree.Workspace(workspaceID)
	if !ok {
		return respondError(c, models.NewNotFoundError("workspace", workspaceID))
	}
	return c.JSON(w)
}

// SyncFromBackend replaces the local tree with a fresh backend fetch
func (s *Server) SyncFromBackend(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if err := s.svc.Hydrate(ctx); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Synced",
		"workspaces": len(s.tree.Workspaces()),
	})
}

// GetActivities returns workspace activities, optionally filtered by post
func (s *Server) GetActivities(c *fiber.Ctx) error {
	ctx := c.UserContext()

	activities, err := s.svc.ListActivities(ctx, c.Params("id"), c.Query("post_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activities)
}

// InviteToWorkspace emails a workspace invitation and records the activity
func (s *Server) InviteToWorkspace(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	if err := s.svc.InviteToWorkspace(ctx, c.Params("id"), middleware.UserID(c), req.Email, req.Role); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Invite sent"})
}

// InviteToBoard emails a board invitation and records the activity
func (s *Server) InviteToBoard(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	if err := s.svc.InviteToBoard(ctx, c.Params("id"), c.Params("boardId"), middleware.UserID(c), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Invite sent"})
}
