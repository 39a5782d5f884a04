package server

import (
	"time"

	"feedbird/internal/middleware"
	"feedbird/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SubmitForApproval moves a draft into the approval queue
func (s *Server) SubmitForApproval(c *fiber.Ctx) error {
	ctx := c.UserContext()

	post, err := s.svc.SubmitForApproval(ctx, c.Params("id"), c.Params("postId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// ApprovePost approves a post; boards with auto-schedule move it straight
// to Scheduled
func (s *Server) ApprovePost(c *fiber.Ctx) error {
	ctx := c.UserContext()

	post, err := s.svc.Approve(ctx, c.Params("id"), c.Params("postId"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// RequestChanges sends a post back for revisions, charging the board's
// monthly revision allowance
func (s *Server) RequestChanges(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	post, err := s.svc.RequestChanges(ctx, c.Params("id"), c.Params("postId"), middleware.UserID(c), req.Comment)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// MarkRevised marks a post as revised after requested changes were made
func (s *Server) MarkRevised(c *fiber.Ctx) error {
	ctx := c.UserContext()

	post, err := s.svc.MarkRevised(ctx, c.Params("id"), c.Params("postId"), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// PublishPost runs the publish pipeline: materialize media, fan out to every
// connected page, resolve to a terminal state. An optional scheduled_time in
// the body overrides the post's own publish date.
func (s *Server) PublishPost(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		ScheduledTime *time.Time `json:"scheduled_time"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
		}
	}

	post, err := s.publisher.Publish(ctx, c.Params("id"), c.Params("postId"), middleware.UserID(c), req.ScheduledTime)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
