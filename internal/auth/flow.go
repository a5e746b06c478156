package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// Exchanger is the provider-facing surface the flow depends on. GitHubClient
// implements it; tests substitute fakes.
type Exchanger interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (UserProfile, error)
}

// Flow orchestrates one login attempt: initiate, provider redirect (outside
// this process), callback, and logout. A session exists only after the CSRF
// state round-trip, the code exchange, and the profile fetch have all
// succeeded, in that order.
type Flow struct {
	sessions *SessionStore
	states   *StateLedger
	provider Exchanger
	logger   *slog.Logger
}

// NewFlow wires a flow controller from its parts.
func NewFlow(sessions *SessionStore, states *StateLedger, provider Exchanger, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		sessions: sessions,
		states:   states,
		provider: provider,
		logger:   logger,
	}
}

// Initiate issues a CSRF state and returns the provider authorization URL
// the end user should be directed to. No session exists yet.
func (f *Flow) Initiate() (string, error) {
	state, err := f.states.Issue()
	if err != nil {
		return "", fmt.Errorf("failed to issue state: %w", err)
	}
	return f.provider.AuthorizationURL(state), nil
}

// Callback completes a login attempt. The ordering is the core correctness
// property: redeem state, then exchange the code, then fetch the profile,
// and only then create a session. Failure at any step leaves zero sessions
// behind. providerErr carries the provider's error query parameter, if any;
// the state is still consumed before aborting so the callback URL cannot be
// replayed.
func (f *Flow) Callback(ctx context.Context, state, code, providerErr string) (*Session, error) {
	if !f.states.Redeem(state) {
		f.logger.Warn("login callback with invalid state")
		return nil, ErrStateInvalid
	}

	if providerErr != "" {
		f.logger.Warn("provider returned error on callback", "provider_error", providerErr)
		return nil, ErrProviderDenied
	}

	accessToken, err := f.provider.ExchangeCode(ctx, code)
	if err != nil {
		f.logger.Warn("code exchange failed", "error", err)
		return nil, err
	}

	profile, err := f.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		f.logger.Warn("profile fetch failed", "error", err)
		return nil, err
	}

	session, err := f.sessions.Create(profile, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Logout invalidates the session. Idempotent; logging out an unknown or
// already-expired session succeeds.
func (f *Flow) Logout(sessionID string) {
	f.sessions.Invalidate(sessionID)
}

// Sessions exposes the underlying session store for the gate and for
// lifecycle management.
func (f *Flow) Sessions() *SessionStore {
	return f.sessions
}

// States exposes the underlying state ledger for lifecycle management.
func (f *Flow) States() *StateLedger {
	return f.states
}

// Stop stops the background sweepers of both stores.
func (f *Flow) Stop() {
	f.sessions.Stop()
	f.states.Stop()
}
