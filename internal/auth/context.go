package auth

import "context"

// contextKey is a private type for context keys defined in this package.
type contextKey int

const (
	sessionContextKey contextKey = iota
	sessionIDContextKey
)

// WithSession returns a context carrying the resolved session. Set by the
// gate before a protected handler runs; handlers read the identity from the
// context instead of relying on ambient state, which keeps concurrent calls
// independent.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the session attached by the gate, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	return session, ok && session != nil
}

// WithSessionID returns a context carrying a caller-supplied session ID.
// The HTTP transport sets this from the Authorization header so tools do
// not need an explicit session_id argument.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, id)
}

// SessionIDFromContext returns the caller-supplied session ID, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(string)
	return id, ok && id != ""
}
