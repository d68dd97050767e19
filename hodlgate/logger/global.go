package logger

import (
	"log/slog"
	"time"
)

// LogChainQuery logs a chain capability call
func LogChainQuery(method string, address string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "chain"),
		slog.String("method", method),
		slog.String("address", address),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Chain query failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Debug("Chain query executed", attrs...)
	}
}

// LogRoleSync logs the outcome of a Discord role sync attempt
func LogRoleSync(userID string, totalNFTs int, roles []string, err error) {
	attrs := []any{
		slog.String("type", "relay"),
		slog.String("user_id", userID),
		slog.Int("total_nfts", totalNFTs),
		slog.Any("roles", roles),
	}

	if err != nil {
		slog.Error("Role sync failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Role sync applied", attrs...)
	}
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
