package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_StartSchedulesAndStopDrains(t *testing.T) {
	s := NewSweeper(NewSessionStore(time.Hour), time.Minute)

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestSweeper_SweepRemovesExpired(t *testing.T) {
	sessions := NewSessionStore(time.Hour)
	stale := sessions.Create("stale", "old")
	sessions.Create("fresh", "new")
	age(sessions, stale.ID, time.Now().Add(-2*time.Hour))

	s := NewSweeper(sessions, time.Minute)
	s.sweep()

	_, ok := sessions.GetByID(stale.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, sessions.Len())
}
