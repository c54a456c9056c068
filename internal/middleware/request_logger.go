package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/logger"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

// HeaderRequestID is echoed back on every response
const HeaderRequestID = "X-Request-ID"

// RequestLogger logs one line per request and puts a request-scoped logger
// in the request context
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)

		reqLog := log.With().Str("request_id", requestID).Logger()
		c.SetContext(logger.WithContext(c.Context(), reqLog))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = errorStatus(err)
		}

		event := reqLog.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = reqLog.Error()
		case status >= fiber.StatusBadRequest:
			event = reqLog.Warn()
		}
		event.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")

		return err
	}
}

// errorStatus is the status the error handler will render for err
func errorStatus(err error) int {
	var apiErr *utils.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
