package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// RequestIDHeader carries the id every request is logged under.
const RequestIDHeader = "X-Request-ID"

// RequestLog logs every request with a request id, echoed back to the caller.
func RequestLog() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError || err != nil {
			level = slog.LevelError
		}
		slog.Log(c.Context(), level, "http request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"status", status,
			"ip", ip,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}
