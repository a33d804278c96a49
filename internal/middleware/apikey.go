package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// APIKeyMiddleware rejects requests that do not carry key, either in the
// x-api-key header or as a bearer token. An empty key disables the check.
func APIKeyMiddleware(key string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}

		token := c.Get("x-api-key")

		// Fallback: Authorization: Bearer <key>
		if token == "" {
			parts := strings.SplitN(c.Get("Authorization"), " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing api key",
			})
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}
		return c.Next()
	}
}
