package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodlgate/hodlgate/backend/chain"
	"github.com/hodlgate/hodlgate/backend/middleware"
	"github.com/hodlgate/hodlgate/backend/services"
	"github.com/hodlgate/hodlgate/backend/store"
)

const testAPIKey = "test-secret"

type stubQuerier struct {
	balance int
	staker  chain.StakerInfo
	err     error
}

func (s *stubQuerier) NFTBalance(context.Context, string) (int, error) {
	return s.balance, s.err
}

func (s *stubQuerier) StakerInfo(context.Context, string) (chain.StakerInfo, error) {
	return s.staker, s.err
}

func newTestApp(q chain.Querier) (*fiber.App, *WebApp) {
	sessions := store.NewSessionStore(24 * time.Hour)
	queue := store.NewRelayQueue()
	webApp := &WebApp{
		Sessions:  sessions,
		Queue:     queue,
		Verifier:  services.NewVerificationService(sessions, queue, q, 5*time.Second),
		Dashboard: services.NewDashboardService(sessions, queue),
		Version:   "test",
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})

	app.Get("/health", HealthCheck(webApp))
	app.Post("/session", CreateSession(webApp))
	app.Get("/session/:id", GetSession(webApp))
	discord := app.Group("/discord")
	discord.Post("/webhook", DiscordWebhook(webApp))
	discord.Post("/:sessionId/wallets", VerifyWallet(webApp))
	botOnly := middleware.APIKeyRequired(testAPIKey)
	app.Post("/role-update", botOnly, EnqueueRoleUpdate(webApp))
	app.Get("/pending-role-updates", botOnly, DrainRoleUpdates(webApp))
	app.Post("/role-update/complete", botOnly, CompleteRoleUpdate(webApp))
	app.Get("/api/dashboard/stats", DashboardStatsAPI(webApp))

	return app, webApp
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func botRequest(method, target string, body any) *http.Request {
	req := jsonRequest(method, target, body)
	req.Header.Set("X-API-Key", testAPIKey)
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
}

func TestCreateAndGetSession(t *testing.T) {
	app, _ := newTestApp(&stubQuerier{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/session", fiber.Map{
		"discordId": "d1",
		"username":  "alice%20smith",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		SessionID string `json:"sessionId"`
		Session   struct {
			DiscordID string `json:"discordId"`
			Username  string `json:"username"`
		} `json:"session"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, "d1", created.Session.DiscordID)
	assert.Equal(t, "alice smith", created.Session.Username)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/session/"+created.SessionID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateSession_RequiresUsername(t *testing.T) {
	app, _ := newTestApp(&stubQuerier{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/session", fiber.Map{"discordId": "d1"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSession_NotFound(t *testing.T) {
	app, _ := newTestApp(&stubQuerier{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/session/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Session not found", body.Error)
}

func TestDiscordWebhook_LinksExistingSession(t *testing.T) {
	app, webApp := newTestApp(&stubQuerier{})
	session := webApp.Sessions.Create("", "anon")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/discord/webhook", fiber.Map{
		"sessionId": session.ID,
		"discordId": "d1",
		"username":  "alice",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	linked, ok := webApp.Sessions.GetByDiscordID("d1")
	require.True(t, ok)
	assert.Equal(t, session.ID, linked.ID)
}

func TestDiscordWebhook_CreatesUnknownSession(t *testing.T) {
	app, webApp := newTestApp(&stubQuerier{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/discord/webhook", fiber.Map{
		"sessionId": "bot-minted-id",
		"discordId": "d1",
		"username":  "alice",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	session, ok := webApp.Sessions.GetByID("bot-minted-id")
	require.True(t, ok)
	assert.Equal(t, "d1", session.DiscordID)
}

func TestVerifyWallet_EndToEnd(t *testing.T) {
	app, webApp := newTestApp(&stubQuerier{
		balance: 3,
		staker:  chain.StakerInfo{StakedTokenIDs: []uint64{7, 8}},
	})
	session := webApp.Sessions.Create("d1", "alice")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/discord/"+session.ID+"/wallets", fiber.Map{
		"address": "0xABC",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Details struct {
			WalletBalance int `json:"walletBalance"`
			StakedTokens  int `json:"stakedTokens"`
			TotalBalance  int `json:"totalBalance"`
		} `json:"details"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Details.WalletBalance)
	assert.Equal(t, 2, body.Details.StakedTokens)
	assert.Equal(t, 5, body.Details.TotalBalance)

	assert.Equal(t, 1, webApp.Queue.Len())
}

func TestVerifyWallet_NoHoldingsBody(t *testing.T) {
	app, webApp := newTestApp(&stubQuerier{})
	session := webApp.Sessions.Create("d1", "alice")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/discord/"+session.ID+"/wallets", fiber.Map{
		"address": "0xEMPTY",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error   string `json:"error"`
		Details struct {
			WalletBalance int `json:"walletBalance"`
			StakedTokens  int `json:"stakedTokens"`
		} `json:"details"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "No NFTs found for this wallet", body.Error)
	assert.Equal(t, 0, body.Details.WalletBalance)
}

func TestRoleUpdateRoundTrip(t *testing.T) {
	app, _ := newTestApp(&stubQuerier{})

	resp, err := app.Test(botRequest(http.MethodPost, "/role-update", fiber.Map{
		"userId":    "u1",
		"totalNFTs": 5,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(botRequest(http.MethodGet, "/pending-role-updates", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updates []struct {
		UserID     string `json:"userId"`
		TotalNFTs  int    `json:"totalNFTs"`
		EnqueuedAt int64  `json:"enqueuedAt"`
	}
	decodeBody(t, resp, &updates)
	require.Len(t, updates, 1)
	assert.Equal(t, "u1", updates[0].UserID)
	assert.Equal(t, 5, updates[0].TotalNFTs)
	assert.NotZero(t, updates[0].EnqueuedAt)

	// A second drain finds the queue empty.
	resp, err = app.Test(botRequest(http.MethodGet, "/pending-role-updates", nil))
	require.NoError(t, err)
	decodeBody(t, resp, &updates)
	assert.Empty(t, updates)
}

func TestRoleUpdateComplete(t *testing.T) {
	app, webApp := newTestApp(&stubQuerier{})
	webApp.Sessions.Create("u1", "alice")

	resp, err := app.Test(botRequest(http.MethodPost, "/role-update/complete", fiber.Map{
		"userId":  "u1",
		"success": true,
		"roles":   []string{"verified"},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBotEndpointsRequireAPIKey(t *testing.T) {
	app, _ := newTestApp(&stubQuerier{})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/role-update", fiber.Map{
		"userId":    "u1",
		"totalNFTs": 1,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := jsonRequest(http.MethodGet, "/pending-role-updates", nil)
	req.Header.Set("X-API-Key", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app, webApp := newTestApp(&stubQuerier{})
	webApp.Sessions.Create("d1", "alice")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Sessions)
}

func TestDashboardStatsEndpoint(t *testing.T) {
	app, webApp := newTestApp(&stubQuerier{})
	webApp.Sessions.Create("d1", "alice")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		TotalSessions  int `json:"totalSessions"`
		LinkedSessions int `json:"linkedSessions"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 1, body.TotalSessions)
	assert.Equal(t, 1, body.LinkedSessions)
}
