package handlers

import (
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/hodlgate/hodlgate/backend/apperrors"
	"github.com/hodlgate/hodlgate/backend/models"
)

// CreateSession provisions a fresh verification session. discordId is
// optional until the session is Discord-linked.
func CreateSession(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.CreateSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("body", "malformed JSON")
		}
		if req.Username == "" {
			return apperrors.RequiredError("username")
		}

		session := webApp.Sessions.Create(req.DiscordID, decodeUsername(req.Username))

		slog.Info("Session created",
			slog.String("session_id", session.ID),
			slog.String("discord_id", session.DiscordID),
			slog.String("username", session.Username))

		return c.JSON(fiber.Map{
			"sessionId": session.ID,
			"session":   models.NewSessionResponse(session),
		})
	}
}

// GetSession fetches a session by its primary id.
func GetSession(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		session, ok := webApp.Sessions.GetByID(id)
		if !ok {
			return apperrors.NewSessionNotFoundError(id)
		}
		return c.JSON(fiber.Map{
			"session": models.NewSessionResponse(session),
		})
	}
}

// DiscordWebhook links a Discord identity to a session. A session id the bot
// minted before the web UI ever called in is created on the spot.
func DiscordWebhook(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.DiscordWebhookRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("body", "malformed JSON")
		}
		if req.SessionID == "" {
			return apperrors.RequiredError("sessionId")
		}
		if req.DiscordID == "" {
			return apperrors.RequiredError("discordId")
		}

		username := decodeUsername(req.Username)
		session, ok := webApp.Sessions.Link(req.SessionID, req.DiscordID, username)
		if !ok {
			session = webApp.Sessions.CreateWithID(req.SessionID, req.DiscordID, username)
		}

		slog.Info("Session Discord-linked",
			slog.String("session_id", session.ID),
			slog.String("discord_id", session.DiscordID),
			slog.Bool("created", !ok))

		return c.JSON(fiber.Map{
			"success":   true,
			"sessionId": session.ID,
			"session":   models.NewSessionResponse(session),
		})
	}
}

// decodeUsername percent-decodes display names; bots and web UIs both send
// them URL-encoded. A value that fails to decode is kept as-is.
func decodeUsername(username string) string {
	decoded, err := url.QueryUnescape(username)
	if err != nil {
		return username
	}
	return decoded
}
