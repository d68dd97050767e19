package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/hodlgate/hodlgate/backend/apperrors"
	"github.com/hodlgate/hodlgate/backend/models"
)

// EnqueueRoleUpdate inserts a role-sync instruction directly. Used by the bot
// and by manual resyncs when the verification path was bypassed.
func EnqueueRoleUpdate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.RoleUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("body", "malformed JSON")
		}
		if req.UserID == "" {
			return apperrors.RequiredError("userId")
		}
		if req.TotalNFTs < 0 {
			return apperrors.NewValidationError("totalNFTs", "must be non-negative")
		}

		webApp.Queue.Enqueue(req.UserID, req.TotalNFTs)

		return c.JSON(fiber.Map{"success": true})
	}
}

// DrainRoleUpdates atomically hands every pending instruction to the bot and
// clears the queue. Once drained, entries are gone; a failed application is
// recovered by re-verification, not by this queue.
func DrainRoleUpdates(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		updates := webApp.Queue.DrainAll()
		if len(updates) > 0 {
			slog.Info("Role updates drained",
				slog.String("type", "relay"),
				slog.Int("count", len(updates)))
		}
		return c.JSON(models.NewPendingRoleUpdateResponses(updates))
	}
}

// CompleteRoleUpdate records the outcome of an applied role sync and
// refreshes the session's activity if one is linked.
func CompleteRoleUpdate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.RoleUpdateCompleteRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("body", "malformed JSON")
		}
		if req.UserID == "" {
			return apperrors.RequiredError("userId")
		}

		detail := strings.Join(req.Roles, ",")
		if !req.Success {
			detail = req.Error
		}
		webApp.Queue.Complete(req.UserID, req.Success, detail)

		if session, ok := webApp.Sessions.GetByDiscordID(req.UserID); ok {
			webApp.Sessions.Touch(session.ID)
		}

		return c.JSON(fiber.Map{"success": true})
	}
}
