// Package auth implements the GitHub login flow and the session gate for
// protected MCP tools.
//
// The package is built from four pieces:
//   - SessionStore: in-memory store of authenticated sessions, keyed by an
//     opaque random identifier
//   - StateLedger: short-lived store of CSRF state values, redeemable
//     exactly once
//   - GitHubClient: authorization-code exchange and profile fetch against
//     GitHub's OAuth endpoints
//   - Flow: orchestration of initiate/callback/logout, producing sessions
//
// Protected tool handlers are wrapped with RequireSession, which resolves
// the caller's session and injects the user profile and provider token into
// the request context before the handler runs.
package auth
