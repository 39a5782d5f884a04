package server

import (
	"feedbird/internal/middleware"
	"feedbird/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendChannelMessage posts a message to a workspace channel
func (s *Server) SendChannelMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Text     string `json:"text"`
		ParentID string `json:"parent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	msg, err := s.svc.SendChannelMessage(ctx, c.Params("id"), c.Params("channelId"),
		middleware.UserID(c), req.Text, req.ParentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
