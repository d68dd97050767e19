package store

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore is the authoritative in-memory table of sessions, addressable
// by session id and by Discord id. Both indexes point at the same record, so a
// mutation through either key is visible through the other. Every method that
// hands a session to the caller returns a detached snapshot; the shared record
// never leaves the store lock. All state is intentionally ephemeral; a process
// restart clears it.
type SessionStore struct {
	mu          sync.RWMutex
	byID        map[string]*Session
	byDiscordID map[string]*Session
	timeout     time.Duration
}

// NewSessionStore creates an empty store. Sessions inactive for longer than
// timeout are removed by Sweep.
func NewSessionStore(timeout time.Duration) *SessionStore {
	return &SessionStore{
		byID:        make(map[string]*Session),
		byDiscordID: make(map[string]*Session),
		timeout:     timeout,
	}
}

// Create inserts a fresh session under a random 128-bit id. discordID may be
// empty until the session is Discord-linked.
func (s *SessionStore) Create(discordID, username string) *Session {
	return s.CreateWithID(uuid.NewString(), discordID, username)
}

// CreateWithID inserts a fresh session under a caller-supplied id. Sessions
// provisioned by the Discord webhook arrive with their id already minted.
func (s *SessionStore) CreateWithID(id, discordID, username string) *Session {
	now := time.Now()
	session := &Session{
		ID:           id,
		DiscordID:    discordID,
		Username:     username,
		Wallets:      make([]WalletRecord, 0),
		CreatedAt:    now,
		LastActivity: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = session
	if discordID != "" {
		s.byDiscordID[discordID] = session
	}
	return session.clone()
}

// GetByID looks up a session by its primary id and returns a snapshot.
func (s *SessionStore) GetByID(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return session.clone(), true
}

// GetByDiscordID looks up a session through the secondary Discord index and
// returns a snapshot.
func (s *SessionStore) GetByDiscordID(discordID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byDiscordID[discordID]
	if !ok {
		return nil, false
	}
	return session.clone(), true
}

// Link attaches a Discord identity to an existing session and indexes it
// under the Discord id. Reports false if the session does not exist.
func (s *SessionStore) Link(id, discordID, username string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[id]
	if !ok {
		return nil, false
	}

	if session.DiscordID != "" && session.DiscordID != discordID {
		delete(s.byDiscordID, session.DiscordID)
	}
	session.DiscordID = discordID
	if username != "" {
		session.Username = username
	}
	session.LastActivity = time.Now()
	s.byDiscordID[discordID] = session
	return session.clone(), true
}

// Touch refreshes a session's activity timestamp.
func (s *SessionStore) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[id]
	if !ok {
		return false
	}
	session.LastActivity = time.Now()
	return true
}

// UpsertWallet records a verified wallet on a session. The address is matched
// case-insensitively against existing entries: a match is replaced in place
// (same position), otherwise the record is appended. Always refreshes the
// activity timestamp.
func (s *SessionStore) UpsertWallet(id string, wallet WalletRecord) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[id]
	if !ok {
		return nil, false
	}

	replaced := false
	for i, existing := range session.Wallets {
		if equalAddress(existing.Address, wallet.Address) {
			session.Wallets[i] = wallet
			replaced = true
			break
		}
	}
	if !replaced {
		session.Wallets = append(session.Wallets, wallet)
	}
	session.LastActivity = time.Now()
	return session.clone(), true
}

// Delete removes a session from both indexes if present.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
}

func (s *SessionStore) deleteLocked(id string) {
	session, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	if session.DiscordID != "" {
		// Only drop the secondary entry if it still points at this record.
		if indexed, ok := s.byDiscordID[session.DiscordID]; ok && indexed == session {
			delete(s.byDiscordID, session.DiscordID)
		}
	}
}

// Sweep removes every session whose last activity is older than the store
// timeout and returns the number removed. Expired ids are snapshotted before
// deletion so the pass tolerates concurrent mutation.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.RLock()
	expired := make([]string, 0)
	for id, session := range s.byID {
		if now.Sub(session.LastActivity) > s.timeout {
			expired = append(expired, id)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range expired {
		session, ok := s.byID[id]
		if !ok || now.Sub(session.LastActivity) <= s.timeout {
			// Touched between the scan and the delete; keep it.
			continue
		}
		s.deleteLocked(id)
		removed++
	}
	return removed
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// ForEach runs fn over every session under the read lock, which excludes all
// writers for the duration of the walk. fn sees the live records: it must not
// mutate them, retain them past the call, or call back into the store.
func (s *SessionStore) ForEach(fn func(*Session)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.byID {
		fn(session)
	}
}

func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
