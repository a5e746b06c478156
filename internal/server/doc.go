// Package server provides the MCP server context and the OAuth-enabled HTTP
// server for the coxbazar-mcp application.
//
// # Key Components
//
// ServerContext wires the shared dependencies together: the GitHub login
// flow, the session-backed authorization gate, the weather client, and the
// itinerary service. Tools reach these through the context rather than
// constructing their own.
//
// HTTPServer exposes the MCP server over streamable HTTP together with the
// login endpoints:
//   - /mcp           MCP protocol endpoint (Bearer session IDs accepted)
//   - /auth/login    issues CSRF state, redirects to GitHub
//   - /auth/callback completes the authorization-code flow
//   - /auth/logout   invalidates a session (idempotent)
//   - /healthz, /readyz  Kubernetes probes
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolating
// operational metrics from application traffic.
//
// # Security Features
//
//   - HTTPS required for production base URLs (localhost exempt for development)
//   - One-shot CSRF state redemption on the callback
//   - Generic "authentication failed" responses regardless of which flow step broke
//   - Rate limiting per client IP on all public endpoints
//   - Session IDs hashed before any log output
package server
