// Package logging provides structured logging utilities for the coxbazar-mcp
// server.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Credential sanitization (session ID hashing, token masking)
//   - Consistent attribute naming across the codebase
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "auth.callback")
//	logger.Info("login completed",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session created",
//	    logging.SessionHash(session.ID))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Session IDs are hashed to prevent credential leakage while allowing correlation
//   - Access tokens are never logged directly
package logging
