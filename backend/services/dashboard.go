package services

import (
	"time"

	"github.com/hodlgate/hodlgate/backend/store"
)

// activeWindow bounds how recently a session must have been touched to count
// as active on the dashboard.
const activeWindow = time.Hour

// DashboardStats is the aggregate snapshot the polling web UI renders.
type DashboardStats struct {
	TotalSessions  int            `json:"totalSessions"`
	LinkedSessions int            `json:"linkedSessions"`
	ActiveSessions int            `json:"activeSessions"`
	TotalWallets   int            `json:"totalWallets"`
	TotalNFTs      int            `json:"totalNFTs"`
	PendingUpdates int            `json:"pendingUpdates"`
	TierCounts     map[string]int `json:"tierCounts"`
	SessionHistory []HistoryEntry `json:"sessionHistory"`
	GeneratedAt    int64          `json:"generatedAt"`
}

// HistoryEntry counts sessions created within one hourly bucket.
type HistoryEntry struct {
	Hour     int64 `json:"hour"`
	Sessions int   `json:"sessions"`
}

// DashboardService aggregates live store state on demand. Every call walks
// the stores; nothing is precomputed.
type DashboardService struct {
	sessions *store.SessionStore
	queue    *store.RelayQueue
}

func NewDashboardService(sessions *store.SessionStore, queue *store.RelayQueue) *DashboardService {
	return &DashboardService{sessions: sessions, queue: queue}
}

// Stats computes the current dashboard snapshot. SessionHistory covers the
// trailing 24 hours in hourly buckets, oldest first.
func (s *DashboardService) Stats() DashboardStats {
	now := time.Now()
	stats := DashboardStats{
		TierCounts:  make(map[string]int),
		GeneratedAt: now.UnixMilli(),
	}

	const buckets = 24
	history := make([]int, buckets)
	windowStart := now.Truncate(time.Hour).Add(-time.Duration(buckets-1) * time.Hour)

	s.sessions.ForEach(func(session *store.Session) {
		stats.TotalSessions++
		if session.DiscordID != "" {
			stats.LinkedSessions++
		}
		if now.Sub(session.LastActivity) <= activeWindow {
			stats.ActiveSessions++
		}
		stats.TotalWallets += len(session.Wallets)
		for _, w := range session.Wallets {
			stats.TotalNFTs += w.TotalNFTs()
			stats.TierCounts[tierLabel(w.Tier)]++
		}

		if !session.CreatedAt.Before(windowStart) {
			bucket := int(session.CreatedAt.Sub(windowStart) / time.Hour)
			if bucket >= 0 && bucket < buckets {
				history[bucket]++
			}
		}
	})

	stats.PendingUpdates = s.queue.Len()

	stats.SessionHistory = make([]HistoryEntry, buckets)
	for i := range history {
		stats.SessionHistory[i] = HistoryEntry{
			Hour:     windowStart.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Sessions: history[i],
		}
	}
	return stats
}

func tierLabel(tier int) string {
	switch tier {
	case 0:
		return "none"
	case 1:
		return "bronze"
	case 2:
		return "silver"
	case 3:
		return "gold"
	default:
		return "legendary"
	}
}
