package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the engine.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeNoConnectedPages = "NO_CONNECTED_PAGES"
	CodeAlreadyPublish   = "ALREADY_PUBLISHING"
	CodePartialPublish   = "PARTIAL_PUBLISH_FAILURE"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewUpstreamError(op string, err error) *AppError {
	return &AppError{
		Code:    CodeUpstream,
		Message: fmt.Sprintf("upstream call %s failed", op),
		Err:     err,
	}
}

// NewNoConnectedPagesError is returned when a publish resolves to an empty
// destination set.
func NewNoConnectedPagesError(postID string) *AppError {
	return &AppError{
		Code:    CodeNoConnectedPages,
		Message: fmt.Sprintf("post %s has no connected destination pages", postID),
	}
}

// NewAlreadyPublishingError is returned when a publish is attempted while a
// previous publish for the same post is still in flight.
func NewAlreadyPublishingError(postID string) *AppError {
	return &AppError{
		Code:    CodeAlreadyPublish,
		Message: fmt.Sprintf("post %s is already publishing", postID),
	}
}

// NewPartialPublishError is returned when some but not all destination pages
// failed during fan-out.
func NewPartialPublishError(postID string, failed int, total int) *AppError {
	return &AppError{
		Code:    CodePartialPublish,
		Message: fmt.Sprintf("post %s failed on %d of %d destination pages", postID, failed, total),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
