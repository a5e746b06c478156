package auth

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// ToolHandler is the mcp-go tool handler signature the gate wraps.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Gate is the enforcement point for protected tools. It resolves the
// caller's session before the wrapped handler runs; rejected calls never
// reach the handler, so none of its side effects occur. The gate checks
// only "has a valid session"; finer-grained permissions are the tool's own
// responsibility.
type Gate struct {
	sessions *SessionStore
	logger   *slog.Logger
}

// NewGate creates a gate backed by the given session store.
func NewGate(sessions *SessionStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{sessions: sessions, logger: logger}
}

// RequireSession wraps a protected tool handler. The session ID is taken
// from the request context (set by the HTTP transport from the
// Authorization header) or, failing that, from the session_id argument.
// Valid sessions are attached to the context; everything else is rejected
// with a result error telling the caller to log in.
func (g *Gate) RequireSession(toolName string, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID := resolveSessionID(ctx, request)
		if sessionID == "" {
			g.logger.Warn("rejected call without session", "tool", toolName)
			return mcp.NewToolResultError("authentication required: call auth_initiate_login and complete the GitHub login first"), nil
		}

		session, err := g.sessions.Get(sessionID)
		if err != nil {
			g.logger.Warn("rejected call with invalid session", "tool", toolName)
			return mcp.NewToolResultError("session not found or expired: please log in again"), nil
		}

		return handler(WithSession(ctx, session), request)
	}
}

// resolveSessionID extracts the caller's session ID. Context (HTTP
// transport) takes priority over the explicit session_id argument (stdio
// transport).
func resolveSessionID(ctx context.Context, request mcp.CallToolRequest) string {
	if id, ok := SessionIDFromContext(ctx); ok {
		return id
	}
	args, _ := request.Params.Arguments.(map[string]interface{})
	if id, ok := args["session_id"].(string); ok {
		return id
	}
	return ""
}
