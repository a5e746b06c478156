package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/instrumentation"
	"github.com/code4mk/coxbazar-mcp/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with metrics and audit logging.
// For protected tools it must run INSIDE the authorization gate so that the
// resolved session is already on the context; the recorded user then comes
// from the session, never from caller-supplied arguments.
//
// Usage:
//
//	s.AddTool(myTool, gate.RequireSession("my_tool",
//		common.InstrumentedToolHandler("my_tool", sc, handler)))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return InstrumentedToolHandlerWithOperation(toolName, "", sc, handler)
}

// InstrumentedToolHandlerWithOperation is like InstrumentedToolHandler but
// also tags the invocation with a domain operation (e.g. "forecast") for the
// audit record.
func InstrumentedToolHandlerWithOperation(
	toolName string,
	operation string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.Audit()

		// No instrumentation configured, just call the handler
		if metrics == nil && auditLogger == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx)
		if operation != "" {
			invocation.WithOperation(operation)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		// The gate attaches the session before the handler chain runs
		user := ""
		if session, ok := auth.SessionFromContext(ctx); ok {
			user = session.Profile.Login
			invocation.WithUser(user).WithSession(session.ID)
		}

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
			if err != nil {
				invocation.CompleteWithError(err)
			} else {
				invocation.Complete(false, nil)
			}
		} else {
			invocation.CompleteSuccess()
		}

		if metrics != nil {
			if user != "" {
				metrics.RecordToolInvocationWithUser(ctx, toolName, status, user, duration)
			} else {
				metrics.RecordToolInvocation(ctx, toolName, status, duration)
			}
		}

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
