package auth

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultStateTTL bounds how long an issued CSRF state may be
	// redeemed. Login attempts are short-lived; minutes, not hours.
	DefaultStateTTL = 10 * time.Minute

	// stateBytes is the number of random bytes in a state value.
	stateBytes = 32
)

// stateEntry is one in-flight login attempt.
type stateEntry struct {
	issuedAt  time.Time
	expiresAt time.Time
}

// StateLedger correlates issued OAuth state values with the login attempts
// that created them. Each value is redeemable exactly once; redemption
// deletes the entry atomically, so a captured callback URL cannot be
// replayed to mint a second session.
type StateLedger struct {
	mu     sync.Mutex
	states map[string]stateEntry
	ttl    time.Duration

	sweepTicker *time.Ticker
	sweepDone   chan struct{}
	stopOnce    sync.Once
	logger      *slog.Logger
}

// NewStateLedger creates a ledger with the default TTL and logger.
func NewStateLedger() *StateLedger {
	return NewStateLedgerWithLogger(DefaultStateTTL, slog.Default())
}

// NewStateLedgerWithLogger creates a ledger with a custom TTL and logger and
// starts the background sweep goroutine for never-redeemed entries.
func NewStateLedgerWithLogger(ttl time.Duration, logger *slog.Logger) *StateLedger {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &StateLedger{
		states:      make(map[string]stateEntry),
		ttl:         ttl,
		sweepTicker: time.NewTicker(time.Minute),
		sweepDone:   make(chan struct{}),
		logger:      logger,
	}

	go l.sweepLoop()

	return l
}

// Issue creates and stores a fresh state value.
func (l *StateLedger) Issue() (string, error) {
	state, err := generateToken(stateBytes)
	if err != nil {
		return "", err
	}

	now := time.Now()
	l.mu.Lock()
	l.states[state] = stateEntry{issuedAt: now, expiresAt: now.Add(l.ttl)}
	l.mu.Unlock()

	return state, nil
}

// Redeem consumes a state value. It reports true only for a present,
// unexpired entry, and deletes the entry in the same atomic step so no
// second caller can redeem the same value. Missing, already-redeemed, and
// expired states all report false.
func (l *StateLedger) Redeem(state string) bool {
	if state == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.states[state]
	if !ok {
		return false
	}
	delete(l.states, state)

	if !time.Now().Before(entry.expiresAt) {
		l.logger.Warn("rejected expired state", "issued_at", entry.issuedAt)
		return false
	}
	return true
}

// Count returns the number of in-flight states.
func (l *StateLedger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.states)
}

// Sweep removes entries that expired without ever being redeemed and
// returns how many were removed.
func (l *StateLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	removed := 0
	for state, entry := range l.states {
		if !now.Before(entry.expiresAt) {
			delete(l.states, state)
			removed++
		}
	}
	return removed
}

func (l *StateLedger) sweepLoop() {
	for {
		select {
		case <-l.sweepTicker.C:
			if removed := l.Sweep(); removed > 0 {
				l.logger.Debug("swept abandoned login states", "count", removed)
			}
		case <-l.sweepDone:
			return
		}
	}
}

// Stop stops the background sweep goroutine. Safe to call more than once.
func (l *StateLedger) Stop() {
	l.stopOnce.Do(func() {
		l.sweepTicker.Stop()
		close(l.sweepDone)
	})
}
