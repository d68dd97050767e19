package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/hodlgate/hodlgate/hodlgate"
)

const (
	successColor = 0x57F287
	errorColor   = 0xED4245
)

var Verify = discord.SlashCommandCreate{
	Name:        "verify",
	Description: "🔗 Link a crypto wallet to unlock holder roles",
}

// VerifyHandler provisions a verification session on the backend and hands
// the invoker their personal verification link.
func VerifyHandler(b *hodlgate.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()
		defer func() {
			slog.Info("Command completed",
				slog.String("type", "cmd"),
				slog.String("name", "verify"),
				slog.Duration("total_time", time.Since(start)),
			)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sessionID, err := createSession(ctx, b, e.User().ID.String(), e.User().Username)
		if err != nil {
			slog.Error("Failed to create verification session",
				slog.String("user_id", e.User().ID.String()),
				slog.Any("error", err))
			return e.CreateMessage(discord.MessageCreate{
				Flags: discord.MessageFlagEphemeral,
				Embeds: []discord.Embed{{
					Title:       "Verification unavailable",
					Description: "Could not start a verification session. Please try again in a moment.",
					Color:       errorColor,
				}},
			})
		}

		link := fmt.Sprintf("%s/verify/%s", b.Cfg.Web.PublicURL, sessionID)
		return e.CreateMessage(discord.MessageCreate{
			Flags: discord.MessageFlagEphemeral,
			Embeds: []discord.Embed{{
				Title: "🔗 Wallet Verification",
				Description: fmt.Sprintf(
					"Connect your wallet here to claim your holder roles:\n%s\n\nThe link stays valid for 24 hours.", link),
				Color: successColor,
			}},
		})
	}
}

func createSession(ctx context.Context, b *hodlgate.Bot, discordID, username string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"discordId": discordID,
		"username":  url.QueryEscape(username),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.Cfg.Bot.BackendURL+"/session", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("session create returned status %d", resp.StatusCode)
	}

	var result struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	return result.SessionID, nil
}
