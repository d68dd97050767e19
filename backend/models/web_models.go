// Package models holds the request and response shapes of the backend API.
package models

import "github.com/hodlgate/hodlgate/backend/store"

// CreateSessionRequest starts a verification session.
type CreateSessionRequest struct {
	DiscordID string `json:"discordId"`
	Username  string `json:"username"`
}

// DiscordWebhookRequest links a Discord identity to a session. Sessions
// provisioned bot-side arrive with their id already minted.
type DiscordWebhookRequest struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	DiscordID string `json:"discordId"`
}

// VerifyWalletRequest submits a wallet address for verification.
type VerifyWalletRequest struct {
	Address string `json:"address"`
}

// RoleUpdateRequest enqueues a role sync directly (bot-facing).
type RoleUpdateRequest struct {
	UserID    string `json:"userId"`
	TotalNFTs int    `json:"totalNFTs"`
}

// RoleUpdateCompleteRequest reports the outcome of an applied role sync.
type RoleUpdateCompleteRequest struct {
	UserID  string   `json:"userId"`
	Success bool     `json:"success"`
	Roles   []string `json:"roles"`
	Error   string   `json:"error"`
}

// SessionResponse is the JSON projection of a session. Timestamps are
// millisecond epochs.
type SessionResponse struct {
	ID           string           `json:"id"`
	DiscordID    string           `json:"discordId,omitempty"`
	Username     string           `json:"username"`
	Wallets      []WalletResponse `json:"wallets"`
	CreatedAt    int64            `json:"createdAt"`
	LastActivity int64            `json:"lastActivity"`
}

// WalletResponse is the JSON projection of a verified wallet.
type WalletResponse struct {
	Address        string   `json:"address"`
	NFTBalance     int      `json:"nftBalance"`
	StakedTokenIDs []uint64 `json:"stakedTokenIds"`
	TotalPoints    int64    `json:"totalPoints"`
	Tier           int      `json:"tier"`
	IsMinter       bool     `json:"isMinter"`
	TotalNFTs      int      `json:"totalNFTs"`
}

// PendingRoleUpdateResponse is one drained relay queue entry.
type PendingRoleUpdateResponse struct {
	UserID     string `json:"userId"`
	TotalNFTs  int    `json:"totalNFTs"`
	EnqueuedAt int64  `json:"enqueuedAt"`
}

// NewSessionResponse projects a store session into its response shape.
func NewSessionResponse(session *store.Session) SessionResponse {
	wallets := make([]WalletResponse, len(session.Wallets))
	for i, w := range session.Wallets {
		wallets[i] = NewWalletResponse(w)
	}
	return SessionResponse{
		ID:           session.ID,
		DiscordID:    session.DiscordID,
		Username:     session.Username,
		Wallets:      wallets,
		CreatedAt:    session.CreatedAt.UnixMilli(),
		LastActivity: session.LastActivity.UnixMilli(),
	}
}

// NewWalletResponse projects a wallet record into its response shape.
func NewWalletResponse(wallet store.WalletRecord) WalletResponse {
	ids := wallet.StakedTokenIDs
	if ids == nil {
		ids = []uint64{}
	}
	return WalletResponse{
		Address:        wallet.Address,
		NFTBalance:     wallet.NFTBalance,
		StakedTokenIDs: ids,
		TotalPoints:    wallet.TotalPoints,
		Tier:           wallet.Tier,
		IsMinter:       wallet.IsMinter,
		TotalNFTs:      wallet.TotalNFTs(),
	}
}

// NewPendingRoleUpdateResponses projects a drained batch.
func NewPendingRoleUpdateResponses(updates []store.PendingRoleUpdate) []PendingRoleUpdateResponse {
	out := make([]PendingRoleUpdateResponse, len(updates))
	for i, u := range updates {
		out[i] = PendingRoleUpdateResponse{
			UserID:     u.UserID,
			TotalNFTs:  u.TotalNFTs,
			EnqueuedAt: u.EnqueuedAt.UnixMilli(),
		}
	}
	return out
}
