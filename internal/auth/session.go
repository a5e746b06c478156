package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultSessionTTL is how long a session stays valid after login.
	DefaultSessionTTL = 24 * time.Hour

	// DefaultSweepInterval is how often expired sessions are physically
	// removed from the store.
	DefaultSweepInterval = 10 * time.Minute

	// sessionIDBytes is the number of random bytes in a session ID.
	// 32 bytes (256 bits) makes guessing and birthday collisions
	// infeasible.
	sessionIDBytes = 32

	// maxIDAttempts bounds regeneration when a freshly generated ID is
	// somehow already present.
	maxIDAttempts = 3
)

// UserProfile is the identity snapshot fetched from GitHub at login time.
// It is immutable for the lifetime of the session; protected operations
// read it from the session instead of calling GitHub again.
type UserProfile struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// Session represents an authenticated caller for the lifetime of a login.
type Session struct {
	ID          string
	Profile     UserProfile
	AccessToken string // GitHub access token, never exposed to the caller
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired() bool {
	return !time.Now().Before(s.ExpiresAt)
}

// SessionStore holds active sessions in memory. All operations are safe for
// concurrent use. Sessions are created only by a completed login flow,
// returned by Get while unexpired, and removed by Invalidate, by the
// background sweep, or logically on lookup past their expiry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	sweepTicker *time.Ticker
	sweepDone   chan struct{}
	stopOnce    sync.Once
	logger      *slog.Logger
}

// NewSessionStore creates a session store with the default TTL and logger.
func NewSessionStore() *SessionStore {
	return NewSessionStoreWithLogger(DefaultSessionTTL, slog.Default())
}

// NewSessionStoreWithLogger creates a session store with a custom TTL and
// logger and starts the background sweep goroutine.
func NewSessionStoreWithLogger(ttl time.Duration, logger *slog.Logger) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		sweepTicker: time.NewTicker(DefaultSweepInterval),
		sweepDone:   make(chan struct{}),
		logger:      logger,
	}

	go s.sweepLoop()

	return s
}

// Create stores a new session for the given profile and provider token and
// returns its identifier. The identifier is regenerated on collision; if a
// collision persists the store is considered corrupted and an error wrapping
// ErrIDCollision is returned.
func (s *SessionStore) Create(profile UserProfile, accessToken string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			return nil, fmt.Errorf("%w after %d attempts", ErrIDCollision, maxIDAttempts)
		}
		generated, err := generateToken(sessionIDBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session ID: %w", err)
		}
		if _, exists := s.sessions[generated]; !exists {
			id = generated
			break
		}
		s.logger.Error("session ID collision, regenerating", "attempt", attempt+1)
	}

	now := time.Now()
	session := &Session{
		ID:          id,
		Profile:     profile,
		AccessToken: accessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	s.sessions[id] = session

	s.logger.Info("session created", "user", profile.Login, "expires_at", session.ExpiresAt)
	return session, nil
}

// Get returns the session for the given ID. Absent and expired sessions both
// return ErrSessionNotFound; an expired entry stays in the map until the next
// sweep but is never returned.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok || session.Expired() {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Invalidate removes a session. Removing an absent session is a no-op, which
// makes logout idempotent.
func (s *SessionStore) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.logger.Info("session invalidated", "user", session.Profile.Login)
	}
}

// Sweep removes all expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of stored sessions, including entries that have
// expired but not yet been swept.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// TTL returns the session time-to-live.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func (s *SessionStore) sweepLoop() {
	for {
		select {
		case <-s.sweepTicker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Info("swept expired sessions", "count", removed)
			}
		case <-s.sweepDone:
			return
		}
	}
}

// Stop stops the background sweep goroutine. Safe to call more than once.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() {
		s.sweepTicker.Stop()
		close(s.sweepDone)
	})
}

// generateToken returns n cryptographically random bytes, hex encoded.
func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
