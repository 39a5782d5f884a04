package server

import (
	"feedbird/internal/backend"
	"feedbird/internal/middleware"
	"feedbird/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UpdateBoard updates board settings and rules
func (s *Server) UpdateBoard(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var patch backend.BoardPatch
	if err := c.BodyParser(&patch); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	board, err := s.svc.UpdateBoard(ctx, c.Params("id"), c.Params("boardId"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(board)
}

// parseMonth extracts the :month route parameter.
func parseMonth(c *fiber.Ctx) (int, error) {
	month, err := c.ParamsInt("month")
	if err != nil || month < 1 {
		return 0, models.NewValidationError("Invalid month")
	}
	return month, nil
}

// AddGroupComment adds a comment to a board's month group
func (s *Server) AddGroupComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	month, err := parseMonth(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	board, err := s.svc.AddGroupComment(ctx, c.Params("id"), c.Params("boardId"), month,
		middleware.UserID(c), req.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(board)
}

// ResolveGroupComment marks a month group comment as resolved
func (s *Server) ResolveGroupComment(c *fiber.Ctx) error {
	ctx := c.UserContext()

	month, err := parseMonth(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	board, err := s.svc.ResolveGroupComment(ctx, c.Params("id"), c.Params("boardId"), month,
		c.Params("commentId"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(board)
}
