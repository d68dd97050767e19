package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hodlgate/hodlgate/backend/apperrors"
	"github.com/hodlgate/hodlgate/backend/models"
)

// VerifyWallet runs the wallet verification workflow for a session and
// returns the holdings breakdown alongside the updated session.
func VerifyWallet(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("sessionId")

		var req models.VerifyWalletRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("body", "malformed JSON")
		}
		if req.Address == "" {
			return apperrors.RequiredError("address")
		}

		session, wallet, err := webApp.Verifier.VerifyWallet(c.Context(), sessionID, req.Address)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success": true,
			"details": fiber.Map{
				"walletBalance": wallet.NFTBalance,
				"stakedTokens":  len(wallet.StakedTokenIDs),
				"totalBalance":  wallet.TotalNFTs(),
			},
			"session": models.NewSessionResponse(session),
		})
	}
}
