package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodlgate/hodlgate/backend/store"
)

func TestDashboardStats_Aggregates(t *testing.T) {
	sessions := store.NewSessionStore(24 * time.Hour)
	queue := store.NewRelayQueue()
	svc := NewDashboardService(sessions, queue)

	linked := sessions.Create("d1", "alice")
	sessions.Create("", "anon")
	sessions.UpsertWallet(linked.ID, store.WalletRecord{Address: "0xABC", NFTBalance: 3, StakedTokenIDs: []uint64{7, 8}, Tier: 2})
	sessions.UpsertWallet(linked.ID, store.WalletRecord{Address: "0xDEF", NFTBalance: 1, Tier: 2})
	queue.Enqueue("d1", 5)

	stats := svc.Stats()

	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.LinkedSessions)
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, 2, stats.TotalWallets)
	assert.Equal(t, 6, stats.TotalNFTs)
	assert.Equal(t, 1, stats.PendingUpdates)
	assert.Equal(t, 2, stats.TierCounts["silver"])
	assert.NotZero(t, stats.GeneratedAt)
}

func TestDashboardStats_SessionHistoryBuckets(t *testing.T) {
	sessions := store.NewSessionStore(48 * time.Hour)
	queue := store.NewRelayQueue()
	svc := NewDashboardService(sessions, queue)

	sessions.Create("d1", "a")
	sessions.Create("d2", "b")

	stats := svc.Stats()
	require.Len(t, stats.SessionHistory, 24)

	total := 0
	for _, entry := range stats.SessionHistory {
		total += entry.Sessions
	}
	// Fresh sessions all land in the newest hourly bucket.
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, stats.SessionHistory[23].Sessions)

	// Buckets are hourly, oldest first.
	for i := 1; i < len(stats.SessionHistory); i++ {
		assert.Equal(t, time.Hour.Milliseconds(),
			stats.SessionHistory[i].Hour-stats.SessionHistory[i-1].Hour)
	}
}

func TestDashboardStats_Empty(t *testing.T) {
	svc := NewDashboardService(store.NewSessionStore(time.Hour), store.NewRelayQueue())

	stats := svc.Stats()
	assert.Equal(t, 0, stats.TotalSessions)
	assert.Empty(t, stats.TierCounts)
	assert.Len(t, stats.SessionHistory, 24)
}
