package store

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// PendingRoleUpdate is a role-sync instruction waiting for the bot process.
// Keyed by Discord user id; a later update for the same user overwrites the
// earlier one, since only the latest total matters.
type PendingRoleUpdate struct {
	UserID     string
	TotalNFTs  int
	EnqueuedAt time.Time
}

// RelayQueue is the transient mailbox bridging the web API and the Discord
// bot. The bot drains it over HTTP, applies role changes, and reports back.
// Drained entries are gone even if the bot then fails to process them
// (at-most-once); a failed application is recovered by re-verification.
type RelayQueue struct {
	mu      sync.Mutex
	pending map[string]PendingRoleUpdate
}

func NewRelayQueue() *RelayQueue {
	return &RelayQueue{
		pending: make(map[string]PendingRoleUpdate),
	}
}

// Enqueue inserts or overwrites the pending update for a user.
func (q *RelayQueue) Enqueue(userID string, totalNFTs int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[userID] = PendingRoleUpdate{
		UserID:     userID,
		TotalNFTs:  totalNFTs,
		EnqueuedAt: time.Now(),
	}
}

// DrainAll atomically returns every pending entry, oldest first, and clears
// the queue.
func (q *RelayQueue) DrainAll() []PendingRoleUpdate {
	q.mu.Lock()
	defer q.mu.Unlock()

	updates := make([]PendingRoleUpdate, 0, len(q.pending))
	for _, update := range q.pending {
		updates = append(updates, update)
	}
	q.pending = make(map[string]PendingRoleUpdate)

	sort.Slice(updates, func(i, j int) bool {
		return updates[i].EnqueuedAt.Before(updates[j].EnqueuedAt)
	})
	return updates
}

// Complete acknowledges a role sync for a user. Any still-pending entry is
// removed (normally a no-op after a drain); the outcome is logged either way.
// Failures are not requeued.
func (q *RelayQueue) Complete(userID string, success bool, detail string) {
	q.mu.Lock()
	delete(q.pending, userID)
	q.mu.Unlock()

	if success {
		slog.Info("Role update completed",
			slog.String("type", "relay"),
			slog.String("user_id", userID),
			slog.String("detail", detail))
	} else {
		slog.Warn("Role update failed",
			slog.String("type", "relay"),
			slog.String("user_id", userID),
			slog.String("detail", detail))
	}
}

// Len reports the number of pending updates.
func (q *RelayQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
