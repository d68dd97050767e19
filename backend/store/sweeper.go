package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically removes sessions inactive beyond the store timeout.
// It runs independently of request handling and stops at process shutdown.
type Sweeper struct {
	cron     *cron.Cron
	sessions *SessionStore
	interval time.Duration
}

func NewSweeper(sessions *SessionStore, interval time.Duration) *Sweeper {
	return &Sweeper{
		cron:     cron.New(),
		sessions: sessions,
		interval: interval,
	}
}

func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	s.cron.Start()
	slog.Info("Session sweeper started",
		slog.String("type", "sys"),
		slog.Duration("interval", s.interval))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	start := time.Now()
	removed := s.sessions.Sweep(start)
	if removed > 0 {
		slog.Info("Expired sessions removed",
			slog.String("type", "sys"),
			slog.Int("removed", removed),
			slog.Int("remaining", s.sessions.Len()),
			slog.Duration("took", time.Since(start)))
	}
}
