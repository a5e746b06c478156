package auth

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func newGateFixture(t *testing.T) (*Gate, *SessionStore, *Session) {
	t.Helper()

	store := NewSessionStore()
	t.Cleanup(store.Stop)

	session, err := store.Create(UserProfile{Login: "octocat"}, "gho_tok")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return NewGate(store, nil), store, session
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "test_tool"
	if args != nil {
		req.Params.Arguments = args
	}
	return req
}

func TestGateRejectsWithoutSession(t *testing.T) {
	gate, _, _ := newGateFixture(t)

	ran := false
	handler := gate.RequireSession("test_tool", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ran = true
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for a call without a session")
	}
	if ran {
		t.Error("wrapped handler ran for a rejected call")
	}
}

func TestGateRejectsBogusSessionID(t *testing.T) {
	gate, _, _ := newGateFixture(t)

	ran := false
	handler := gate.RequireSession("test_tool", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ran = true
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), callRequest(map[string]interface{}{
		"session_id": "bogus",
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for a bogus session ID")
	}
	if ran {
		t.Error("wrapped handler ran for a rejected call")
	}
}

func TestGateRejectsExpiredSession(t *testing.T) {
	gate, store, session := newGateFixture(t)

	store.mu.Lock()
	store.sessions[session.ID].ExpiresAt = time.Now().Add(-time.Second)
	store.mu.Unlock()

	ran := false
	handler := gate.RequireSession("test_tool", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ran = true
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), callRequest(map[string]interface{}{
		"session_id": session.ID,
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for an expired session")
	}
	if ran {
		t.Error("wrapped handler ran for an expired session")
	}
}

func TestGateAcceptsSessionIDArgument(t *testing.T) {
	gate, _, session := newGateFixture(t)

	handler := gate.RequireSession("test_tool", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resolved, ok := SessionFromContext(ctx)
		if !ok {
			t.Error("session missing from handler context")
		} else if resolved.Profile.Login != "octocat" {
			t.Errorf("Profile.Login = %s, want octocat", resolved.Profile.Login)
		}
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), callRequest(map[string]interface{}{
		"session_id": session.ID,
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Error("expected a successful result for a valid session")
	}
}

func TestGateContextSessionIDTakesPriority(t *testing.T) {
	gate, _, session := newGateFixture(t)

	handler := gate.RequireSession("test_tool", func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	// The transport-provided ID wins over a bogus argument.
	ctx := WithSessionID(context.Background(), session.ID)
	result, err := handler(ctx, callRequest(map[string]interface{}{
		"session_id": "bogus",
	}))
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if result.IsError {
		t.Error("expected the transport session ID to be used")
	}
}
