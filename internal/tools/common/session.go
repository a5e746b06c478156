package common

import "github.com/mark3labs/mcp-go/mcp"

// SessionIDArg declares the optional session_id argument protected tools
// accept on the stdio transport. Over HTTP the session ID normally arrives
// as a Bearer token instead, so the argument stays optional.
func SessionIDArg() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Description("Session ID from a completed login. Optional when the session is sent as a Bearer token on /mcp requests."),
	)
}
