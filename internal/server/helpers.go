package server

import (
	"errors"

	"feedbird/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errorStatus maps an application error to its HTTP status code.
func errorStatus(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeUnauthorized:
		return fiber.StatusForbidden
	case models.CodeConflict, models.CodeAlreadyPublish:
		return fiber.StatusConflict
	case models.CodeNoConnectedPages:
		return fiber.StatusUnprocessableEntity
	case models.CodeUpstream, models.CodePartialPublish:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

// respondError writes the JSON error response for a service error.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, errorStatus(err), err)
}
