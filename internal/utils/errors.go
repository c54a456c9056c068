package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		Details:    details,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

func NewForbiddenError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

// NewUnprocessableError reports a document that was received but could not be read
func NewUnprocessableError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnprocessableEntity,
		Code:       "UNPROCESSABLE_DOCUMENT",
		Message:    message,
		Details:    details,
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
		Details:    err.Error(),
	}
}

// ErrorHandler renders errors with internal details exposed. Used by tests and development.
func ErrorHandler(c fiber.Ctx, err error) error {
	return render(c, toAPIError(err, true))
}

// NewErrorHandler builds the production handler: 5xx details are hidden
// from the client and logged instead
func NewErrorHandler(log zerolog.Logger, exposeDetails bool) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		apiErr := toAPIError(err, exposeDetails)
		if apiErr.StatusCode >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
		}
		return render(c, apiErr)
	}
}

func toAPIError(err error, exposeDetails bool) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	// Router and body-limit errors raised by fiber itself
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &APIError{
			StatusCode: fiberErr.Code,
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
		}
	}

	apiErr = NewInternalError(err)
	if !exposeDetails {
		apiErr.Details = nil
	}
	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func render(c fiber.Ctx, apiErr *APIError) error {
	return c.Status(apiErr.StatusCode).JSON(apiErr)
}
