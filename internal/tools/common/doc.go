// Package common provides shared helpers for MCP tool implementations.
//
// InstrumentedToolHandler wraps tool handlers with OpenTelemetry metrics and
// audit logging. It is designed to sit inside the authorization gate so the
// audit record carries the authenticated user from the resolved session.
// SessionIDArg declares the session_id argument shared by all protected
// tools.
package common
