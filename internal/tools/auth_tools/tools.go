package auth_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/logging"
	"github.com/code4mk/coxbazar-mcp/internal/server"
	"github.com/code4mk/coxbazar-mcp/internal/tools/common"
)

// RegisterAuthTools registers the authentication tools with the MCP server.
// auth_initiate_login and auth_logout are public; get_user_info and
// request_info require a valid session.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	initiateLoginTool := mcp.NewTool("auth_initiate_login",
		mcp.WithDescription("Start the GitHub login flow. Returns an authorization URL to open in a browser; completing it yields a session_id for the protected tools."),
	)
	s.AddTool(initiateLoginTool,
		common.InstrumentedToolHandler("auth_initiate_login", sc, initiateLoginHandler(sc)))

	logoutTool := mcp.NewTool("auth_logout",
		mcp.WithDescription("Invalidate a session. Idempotent: logging out an unknown or expired session still succeeds."),
		common.SessionIDArg(),
	)
	s.AddTool(logoutTool,
		common.InstrumentedToolHandler("auth_logout", sc, logoutHandler(sc)))

	userInfoTool := mcp.NewTool("get_user_info",
		mcp.WithDescription("Return the authenticated GitHub user's profile (login, name, email). Requires a valid session."),
		common.SessionIDArg(),
	)
	s.AddTool(userInfoTool, mcpserver.ToolHandlerFunc(sc.Gate().RequireSession("get_user_info",
		common.InstrumentedToolHandler("get_user_info", sc, userInfoHandler()))))

	requestInfoTool := mcp.NewTool("request_info",
		mcp.WithDescription("Return information about the current session: user, hashed session identifier, creation and expiry times. Requires a valid session."),
		common.SessionIDArg(),
	)
	s.AddTool(requestInfoTool, mcpserver.ToolHandlerFunc(sc.Gate().RequireSession("request_info",
		common.InstrumentedToolHandler("request_info", sc, requestInfoHandler()))))

	return nil
}

// initiateLoginHandler hands out the GitHub authorization URL. The browser
// completes the flow against /auth/callback; the tool never sees the code.
func initiateLoginHandler(sc *server.ServerContext) auth.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		authURL, err := sc.Flow().Initiate()
		if err != nil {
			return mcp.NewToolResultError("failed to start login flow"), nil
		}

		var b strings.Builder
		b.WriteString("Open this URL in your browser to log in with GitHub:\n\n")
		b.WriteString(authURL)
		b.WriteString("\n\nAfter you authorize, the callback response contains a session_id. ")
		b.WriteString("Pass it to protected tools as the session_id argument, or send it as a Bearer token on /mcp requests.")
		return mcp.NewToolResultText(b.String()), nil
	}
}

// logoutHandler invalidates the caller's session. The session ID comes from
// the request context (Bearer token) or the session_id argument.
func logoutHandler(sc *server.ServerContext) auth.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID := ""
		if id, ok := auth.SessionIDFromContext(ctx); ok {
			sessionID = id
		} else if args := request.GetArguments(); args != nil {
			if id, ok := args["session_id"].(string); ok {
				sessionID = id
			}
		}

		if sessionID == "" {
			return mcp.NewToolResultText("No session to log out."), nil
		}

		if _, err := sc.Sessions().Get(sessionID); err == nil {
			if metrics := sc.Metrics(); metrics != nil {
				metrics.DecrementActiveSessions(ctx)
			}
		}
		sc.Flow().Logout(sessionID)
		return mcp.NewToolResultText("Logged out."), nil
	}
}

// userInfoHandler returns the profile snapshot captured at login. No call to
// GitHub happens here.
func userInfoHandler() auth.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, ok := auth.SessionFromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("no session on request"), nil
		}

		info := map[string]any{
			"github_user": session.Profile.Login,
			"name":        session.Profile.Name,
			"email":       session.Profile.Email,
			"avatar_url":  session.Profile.AvatarURL,
			"profile_url": session.Profile.HTMLURL,
		}
		result, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode user info: %v", err)), nil
		}
		return mcp.NewToolResultText(string(result)), nil
	}
}

// requestInfoHandler describes the current session. The session ID is
// reported only as its hash.
func requestInfoHandler() auth.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session, ok := auth.SessionFromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("no session on request"), nil
		}

		info := map[string]any{
			"service":      "coxbazar-mcp",
			"user":         session.Profile.Login,
			"session":      logging.AnonymizeSessionID(session.ID),
			"session_from": session.CreatedAt.Format(time.RFC3339),
			"expires_at":   session.ExpiresAt.Format(time.RFC3339),
			"server_time":  time.Now().UTC().Format(time.RFC3339),
		}
		result, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode request info: %v", err)), nil
		}
		return mcp.NewToolResultText(string(result)), nil
	}
}
