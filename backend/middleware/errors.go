package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/hodlgate/hodlgate/backend/apperrors"
)

// CustomErrorHandler maps workflow error kinds to status codes and the flat
// `{error}` JSON body. Nothing here is fatal to the process; internals never
// leak beyond a message string.
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	var noHoldings *apperrors.NoHoldingsError
	if errors.As(err, &noHoldings) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No NFTs found for this wallet",
			"details": fiber.Map{
				"walletBalance": noHoldings.NFTBalance,
				"stakedTokens":  noHoldings.StakedTokens,
			},
		})
	}

	code := fiber.StatusInternalServerError
	message := "Internal server error"

	switch {
	case apperrors.IsValidation(err):
		code = fiber.StatusBadRequest
		message = err.Error()
	case apperrors.IsSessionNotFound(err):
		code = fiber.StatusNotFound
		message = "Session not found"
	case apperrors.IsChainTimeout(err):
		code = fiber.StatusInternalServerError
		message = "Chain query timed out, please retry"
	case apperrors.IsChainQuery(err):
		code = fiber.StatusInternalServerError
		message = "Failed to query on-chain holdings, please retry"
	default:
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			slog.Error("Unhandled error in request",
				slog.String("type", "error"),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err))
		}
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		return c.Next()
	}
}
