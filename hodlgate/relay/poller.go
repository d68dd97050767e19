// Package relay polls the backend's role-update mailbox and applies the
// drained instructions through the role syncer. The HTTP contract keeps the
// bot deployable separately from the web API.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hodlgate/hodlgate/hodlgate/logger"
)

const applyTimeout = 30 * time.Second

// RoleApplier reconciles one user's roles with a holdings total.
type RoleApplier interface {
	Apply(ctx context.Context, userID string, totalNFTs int) ([]string, error)
}

// PendingRoleUpdate mirrors the backend's drained queue entry.
type PendingRoleUpdate struct {
	UserID     string `json:"userId"`
	TotalNFTs  int    `json:"totalNFTs"`
	EnqueuedAt int64  `json:"enqueuedAt"`
}

// Poller drains the backend queue on a fixed interval. Failed applications
// are reported and dropped; the next verification re-enqueues them.
type Poller struct {
	httpClient *http.Client
	backendURL string
	apiKey     string
	interval   time.Duration
	applier    RoleApplier
}

func NewPoller(backendURL, apiKey string, interval time.Duration, applier RoleApplier) *Poller {
	return &Poller{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		backendURL: backendURL,
		apiKey:     apiKey,
		interval:   interval,
		applier:    applier,
	}
}

// Start runs the poll loop until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.pollOnce(ctx); err != nil {
					logger.LogError("Relay poll failed", err, slog.String("type", "relay"))
				}
			}
		}
	}()
	logger.LogSystem("Relay poller started", slog.Duration("interval", p.interval))
}

// pollOnce drains the queue and applies every instruction, reporting each
// outcome back to the backend.
func (p *Poller) pollOnce(ctx context.Context) error {
	updates, err := p.drain(ctx)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	slog.Info("Applying role updates",
		slog.String("type", "relay"),
		slog.Int("count", len(updates)))

	for _, update := range updates {
		applyCtx, cancel := context.WithTimeout(ctx, applyTimeout)
		roles, applyErr := p.applier.Apply(applyCtx, update.UserID, update.TotalNFTs)
		cancel()

		logger.LogRoleSync(update.UserID, update.TotalNFTs, roles, applyErr)

		if err := p.complete(ctx, update.UserID, roles, applyErr); err != nil {
			logger.LogError("Failed to report role update completion", err,
				slog.String("user_id", update.UserID))
		}
	}
	return nil
}

func (p *Poller) drain(ctx context.Context) ([]PendingRoleUpdate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.backendURL+"/pending-role-updates", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build drain request: %w", err)
	}
	req.Header.Set("X-API-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to drain role updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drain returned status %d", resp.StatusCode)
	}

	var updates []PendingRoleUpdate
	if err := json.NewDecoder(resp.Body).Decode(&updates); err != nil {
		return nil, fmt.Errorf("failed to decode role updates: %w", err)
	}
	return updates, nil
}

func (p *Poller) complete(ctx context.Context, userID string, roles []string, applyErr error) error {
	payload := map[string]any{
		"userId":  userID,
		"success": applyErr == nil,
	}
	if applyErr != nil {
		payload["error"] = applyErr.Error()
	} else {
		payload["roles"] = roles
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode completion: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.backendURL+"/role-update/complete", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to report completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("completion returned status %d", resp.StatusCode)
	}
	return nil
}
