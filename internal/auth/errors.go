package auth

import "errors"

var (
	// ErrSessionNotFound is returned when a session ID is unknown or the
	// session has expired. This is a routine outcome, not a failure.
	ErrSessionNotFound = errors.New("session not found or expired")

	// ErrStateInvalid is returned when a callback presents a missing,
	// unknown, expired, or already-redeemed CSRF state.
	ErrStateInvalid = errors.New("invalid or expired state")

	// ErrExchangeFailed is returned when the code-for-token exchange with
	// the provider fails for any reason.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrProfileFetchFailed is returned when the provider profile fetch
	// fails after a successful token exchange. No session is created.
	ErrProfileFetchFailed = errors.New("profile fetch failed")

	// ErrProviderDenied is returned when the provider redirects back with
	// an error parameter instead of an authorization code.
	ErrProviderDenied = errors.New("provider denied authorization")

	// ErrIDCollision is returned when session ID generation repeatedly
	// produced an identifier that is already in use. With 256-bit random
	// identifiers this indicates store corruption or a broken entropy
	// source and is treated as fatal for the operation.
	ErrIDCollision = errors.New("session ID collision")
)
