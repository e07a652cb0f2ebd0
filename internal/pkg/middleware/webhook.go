package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/abogadai/abogadai/internal/pkg/env"
)

// WebhookAuthMiddleware authenticates machine callers (the voice agent, the
// payment provider callback) via a shared secret header instead of a user
// token.
func WebhookAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := env.GetEnv("WEBHOOK_SECRET", "")
		if secret == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "unavailable", "message": "Webhook secret not configured"})
		}

		token := strings.TrimSpace(c.Get("X-Webhook-Token"))
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid webhook token"})
		}

		return c.Next()
	}
}
