package middleware

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/hodlgate/hodlgate/backend/utils"
)

const apiKeyHeader = "X-API-Key"

// APIKeyRequired guards the bot-facing endpoints with the static shared
// secret from config. An empty configured key rejects everything; running
// without one is a deployment mistake.
func APIKeyRequired(apiKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			slog.Error("API key not configured, rejecting bot-facing request",
				slog.String("path", c.Path()))
			return utils.SendUnauthorized(c, "API key not configured")
		}

		provided := c.Get(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			slog.Warn("Rejected request with bad API key",
				slog.String("path", c.Path()),
				slog.String("ip", utils.GetIPAddress(c)))
			return utils.SendUnauthorized(c, "Invalid API key")
		}

		return c.Next()
	}
}
