package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// age backdates a stored session's activity timestamp.
func age(s *SessionStore, id string, lastActivity time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.byID[id]; ok {
		session.LastActivity = lastActivity
	}
}

func TestSessionStore_CreateAndLookup(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)

	session := s.Create("d1", "alice")
	require.NotEmpty(t, session.ID)
	assert.Equal(t, "d1", session.DiscordID)
	assert.Equal(t, "alice", session.Username)
	assert.Empty(t, session.Wallets)
	assert.False(t, session.CreatedAt.IsZero())

	byID, ok := s.GetByID(session.ID)
	require.True(t, ok)
	byDiscord, ok := s.GetByDiscordID("d1")
	require.True(t, ok)

	// Both indexes resolve to the same underlying record.
	assert.Equal(t, byID.ID, byDiscord.ID)
	assert.Equal(t, byID.CreatedAt, byDiscord.CreatedAt)

	_, ok = s.GetByID("missing")
	assert.False(t, ok)
}

func TestSessionStore_ReturnsDetachedSnapshots(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("d1", "alice")
	s.UpsertWallet(session.ID, WalletRecord{Address: "0xABC", NFTBalance: 1})

	got, ok := s.GetByID(session.ID)
	require.True(t, ok)

	// Mutating the snapshot must not leak into stored state.
	got.Username = "mallory"
	got.Wallets[0].NFTBalance = 99
	got.Wallets = append(got.Wallets, WalletRecord{Address: "0xDEF"})

	again, ok := s.GetByID(session.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", again.Username)
	require.Len(t, again.Wallets, 1)
	assert.Equal(t, 1, again.Wallets[0].NFTBalance)
}

func TestSessionStore_ConcurrentReadersAndWriters(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("d1", "alice")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.UpsertWallet(session.ID, WalletRecord{
				Address:        fmt.Sprintf("0x%040x", i%8),
				NFTBalance:     i,
				StakedTokenIDs: []uint64{uint64(i)},
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			got, ok := s.GetByID(session.ID)
			if !ok {
				continue
			}
			total := 0
			for _, w := range got.Wallets {
				total += w.TotalNFTs()
			}
			_ = total
		}
	}()
	wg.Wait()

	got, ok := s.GetByID(session.ID)
	require.True(t, ok)
	assert.NotEmpty(t, got.Wallets)
}

func TestSessionStore_DualIndexSharesMutations(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("d1", "alice")

	_, ok := s.UpsertWallet(session.ID, WalletRecord{Address: "0xABC", NFTBalance: 1})
	require.True(t, ok)

	byDiscord, ok := s.GetByDiscordID("d1")
	require.True(t, ok)
	assert.Len(t, byDiscord.Wallets, 1)
}

func TestSessionStore_CreateWithoutDiscordID(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("", "anon")

	_, ok := s.GetByID(session.ID)
	assert.True(t, ok)
	_, ok = s.GetByDiscordID("")
	assert.False(t, ok)
}

func TestSessionStore_Link(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("", "anon")

	linked, ok := s.Link(session.ID, "d9", "alice")
	require.True(t, ok)
	assert.Equal(t, session.ID, linked.ID)
	assert.Equal(t, "d9", linked.DiscordID)
	assert.Equal(t, "alice", linked.Username)

	byDiscord, ok := s.GetByDiscordID("d9")
	require.True(t, ok)
	assert.Equal(t, session.ID, byDiscord.ID)

	_, ok = s.Link("missing", "d9", "alice")
	assert.False(t, ok)
}

func TestSessionStore_LinkReplacesOldDiscordIndex(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("old", "alice")

	_, ok := s.Link(session.ID, "new", "alice")
	require.True(t, ok)

	_, ok = s.GetByDiscordID("old")
	assert.False(t, ok)
	_, ok = s.GetByDiscordID("new")
	assert.True(t, ok)
}

func TestSessionStore_UpsertWalletCaseInsensitive(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("d1", "alice")

	_, ok := s.UpsertWallet(session.ID, WalletRecord{Address: "0xABC", NFTBalance: 1})
	require.True(t, ok)
	_, ok = s.UpsertWallet(session.ID, WalletRecord{Address: "0xDEF", NFTBalance: 2})
	require.True(t, ok)

	// Re-verifying the same address lowercased replaces in place, same
	// position, no duplicate.
	updated, ok := s.UpsertWallet(session.ID, WalletRecord{Address: "0xabc", NFTBalance: 5})
	require.True(t, ok)
	require.Len(t, updated.Wallets, 2)
	assert.Equal(t, "0xabc", updated.Wallets[0].Address)
	assert.Equal(t, 5, updated.Wallets[0].NFTBalance)
	assert.Equal(t, "0xDEF", updated.Wallets[1].Address)

	_, ok = s.UpsertWallet("missing", WalletRecord{Address: "0xABC"})
	assert.False(t, ok)
}

func TestSessionStore_UpsertWalletTouches(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("d1", "alice")

	before := session.LastActivity
	time.Sleep(2 * time.Millisecond)
	updated, ok := s.UpsertWallet(session.ID, WalletRecord{Address: "0xABC", NFTBalance: 1})
	require.True(t, ok)
	assert.True(t, updated.LastActivity.After(before))
}

func TestSessionStore_Delete(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("d1", "alice")

	s.Delete(session.ID)

	_, ok := s.GetByID(session.ID)
	assert.False(t, ok)
	_, ok = s.GetByDiscordID("d1")
	assert.False(t, ok)

	// Deleting an absent id is a no-op, not a panic.
	s.Delete("missing")
}

func TestSessionStore_Sweep(t *testing.T) {
	s := NewSessionStore(time.Hour)
	stale := s.Create("stale", "old")
	fresh := s.Create("fresh", "new")

	age(s, stale.ID, time.Now().Add(-2*time.Hour))

	removed := s.Sweep(time.Now())
	assert.Equal(t, 1, removed)

	_, ok := s.GetByID(stale.ID)
	assert.False(t, ok)
	_, ok = s.GetByDiscordID("stale")
	assert.False(t, ok)

	_, ok = s.GetByID(fresh.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_SweepExactTimeoutSurvives(t *testing.T) {
	s := NewSessionStore(time.Hour)
	session := s.Create("d1", "alice")
	lastActivity := time.Now().Add(-time.Hour)
	age(s, session.ID, lastActivity)

	// Strictly greater than the timeout expires; exactly at it does not.
	removed := s.Sweep(lastActivity.Add(time.Hour))
	assert.Equal(t, 0, removed)
}

func TestWalletRecord_TotalNFTs(t *testing.T) {
	w := WalletRecord{NFTBalance: 3, StakedTokenIDs: []uint64{7, 8}}
	assert.Equal(t, 5, w.TotalNFTs())

	assert.Equal(t, 0, WalletRecord{}.TotalNFTs())
}

func TestSession_Wallet(t *testing.T) {
	s := NewSessionStore(24 * time.Hour)
	session := s.Create("d1", "alice")
	updated, ok := s.UpsertWallet(session.ID, WalletRecord{Address: "0xABC", NFTBalance: 1})
	require.True(t, ok)

	w, ok := updated.Wallet("0xabc")
	require.True(t, ok)
	assert.Equal(t, "0xABC", w.Address)

	_, ok = updated.Wallet("0xDEF")
	assert.False(t, ok)
}
