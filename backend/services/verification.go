// Package services implements the verification workflow and the dashboard
// aggregator on top of the stores and the chain capability.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hodlgate/hodlgate/backend/apperrors"
	"github.com/hodlgate/hodlgate/backend/chain"
	"github.com/hodlgate/hodlgate/backend/store"
)

const defaultQueryTimeout = 12 * time.Second

// VerificationService runs the wallet verification workflow: query holdings,
// apply the zero-holdings gate, record the wallet and enqueue a role sync.
type VerificationService struct {
	sessions *store.SessionStore
	queue    *store.RelayQueue
	querier  chain.Querier
	timeout  time.Duration
}

func NewVerificationService(sessions *store.SessionStore, queue *store.RelayQueue, querier chain.Querier, timeout time.Duration) *VerificationService {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &VerificationService{
		sessions: sessions,
		queue:    queue,
		querier:  querier,
		timeout:  timeout,
	}
}

// VerifyWallet verifies one address against a session. Both chain queries run
// concurrently under a shared deadline. A wallet with zero combined holdings
// is rejected without touching the session; a successful verification upserts
// the wallet record and, if the session is Discord-linked, enqueues a role
// update carrying the combined total.
func (s *VerificationService) VerifyWallet(ctx context.Context, sessionID, address string) (*store.Session, store.WalletRecord, error) {
	if address == "" {
		return nil, store.WalletRecord{}, apperrors.RequiredError("address")
	}

	session, ok := s.sessions.GetByID(sessionID)
	if !ok {
		return nil, store.WalletRecord{}, apperrors.NewSessionNotFoundError(sessionID)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		balance int
		staker  chain.StakerInfo
	)
	g, gctx := errgroup.WithContext(queryCtx)
	g.Go(func() error {
		b, err := s.querier.NFTBalance(gctx, address)
		if err != nil {
			return mapChainError("balanceOf", err)
		}
		balance = b
		return nil
	})
	g.Go(func() error {
		info, err := s.querier.StakerInfo(gctx, address)
		if err != nil {
			return mapChainError("getStakerInfo", err)
		}
		staker = info
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, store.WalletRecord{}, err
	}

	wallet := store.WalletRecord{
		Address:        address,
		NFTBalance:     balance,
		StakedTokenIDs: staker.StakedTokenIDs,
		TotalPoints:    staker.TotalPoints,
		Tier:           staker.Tier,
		IsMinter:       staker.IsMinter,
	}

	if wallet.TotalNFTs() == 0 {
		// Deliberate reject: session and queue stay untouched.
		return nil, store.WalletRecord{}, apperrors.NewNoHoldingsError(address, balance, len(staker.StakedTokenIDs))
	}

	updated, ok := s.sessions.UpsertWallet(session.ID, wallet)
	if !ok {
		// Swept between lookup and upsert.
		return nil, store.WalletRecord{}, apperrors.NewSessionNotFoundError(sessionID)
	}

	// The upsert and the enqueue are not atomic. A crash in the gap loses
	// the role sync; re-verification recovers it.
	if updated.DiscordID != "" {
		s.queue.Enqueue(updated.DiscordID, wallet.TotalNFTs())
	} else {
		slog.Debug("Session not Discord-linked, skipping role enqueue",
			slog.String("session_id", updated.ID),
			slog.String("address", address))
	}

	return updated, wallet, nil
}

// mapChainError translates chain capability failures into workflow error
// kinds. Address-shape failures are the caller's fault; deadline hits get
// their own kind so the boundary can suggest a retry.
func mapChainError(op string, err error) error {
	switch {
	case errors.Is(err, chain.ErrInvalidAddress):
		return apperrors.NewValidationError("address", "malformed wallet address")
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewChainTimeoutError(op)
	default:
		return apperrors.NewChainQueryError(op, err)
	}
}
