package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/code4mk/coxbazar-mcp/internal/logging"
)

// ToolInvocation captures all information about a tool invocation for audit logging.
// This provides a comprehensive audit trail for all MCP tool calls.
//
// # Privacy Considerations
//
// The UserLogin field identifies the authenticated user and the SessionID field
// is a bearer credential. When logging:
//   - Session IDs are always hashed before they reach any log stream
//   - User logins are only included when audit logging is configured with IncludeUser
type ToolInvocation struct {
	// InvocationID is a unique identifier for this invocation, for correlating
	// audit entries with support requests.
	InvocationID string

	// Tool name
	Tool string

	// User identity (from the OAuth profile)
	UserLogin string

	// SessionID is the raw server session ID. It is never logged verbatim.
	SessionID string

	// Operation type (forecast, login, logout, suggest, etc.)
	Operation string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// This provides a consistent set of fields for all tool invocation logs.
// The session ID is hashed; the user login is omitted. For audit streams
// that need the user identity, use LogAuditAttrs.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.InvocationID),
		slog.String(logging.KeyTool, ti.Tool),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
	}

	// Add optional fields only if present
	if ti.SessionID != "" {
		attrs = append(attrs, logging.SessionHash(ti.SessionID))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String(logging.KeyOperation, ti.Operation))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the user's provider login for audit purposes.
//
// # Security Warning
//
// Audit logs tie actions to user identities. Ensure they are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", ti.InvocationID),
		slog.String(logging.KeyTool, ti.Tool),
		slog.String(logging.KeyUser, ti.UserLogin),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
	}

	// Add all optional fields
	if ti.SessionID != "" {
		attrs = append(attrs, logging.SessionHash(ti.SessionID))
	}
	if ti.Operation != "" {
		attrs = append(attrs, slog.String(logging.KeyOperation, ti.Operation))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started and a
// fresh invocation ID. Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		InvocationID: uuid.NewString(),
		Tool:         tool,
		StartTime:    time.Now(),
	}
}

// WithUser sets the user identity information.
func (ti *ToolInvocation) WithUser(login string) *ToolInvocation {
	ti.UserLogin = login
	return ti
}

// WithSession sets the server session ID. It is hashed before logging.
func (ti *ToolInvocation) WithSession(sessionID string) *ToolInvocation {
	ti.SessionID = sessionID
	return ti
}

// WithOperation sets the operation type.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
// Returns the same ToolInvocation for method chaining.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger provides structured audit logging for tool invocations.
// It depends on the logging.Logger interface so tests can substitute
// recording fakes.
type AuditLogger struct {
	logger      logging.Logger
	includeUser bool
	enabled     bool
}

// NewAuditLogger creates a new AuditLogger with the given logger.
// By default, user logins are not included (hashed session IDs are used instead).
func NewAuditLogger(logger logging.Logger) *AuditLogger {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &AuditLogger{
		logger:      logger,
		includeUser: false,
		enabled:     true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger logging.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &AuditLogger{
		logger:      logger,
		includeUser: config.IncludeUser,
		enabled:     config.Enabled,
	}
}

// SetIncludeUser sets whether to include provider logins in audit logs.
func (al *AuditLogger) SetIncludeUser(include bool) {
	al.includeUser = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs a tool invocation using the standard log attributes.
// This is suitable for general operational logging with cardinality controls.
// If the logger is configured with IncludeUser, provider logins are logged;
// otherwise, only hashed session identifiers are used.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	// Choose between identified and anonymized logging based on configuration
	var attrs []slog.Attr
	if al.includeUser {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}

// LogToolAudit logs a tool invocation with full audit details.
// This includes the user's provider login regardless of the IncludeUser
// configuration. Use LogToolInvocation for configuration-aware logging.
func (al *AuditLogger) LogToolAudit(ti *ToolInvocation) {
	if !al.enabled {
		return
	}

	attrs := ti.LogAuditAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	al.logger.Info("tool_audit", args...)
}
