// Package logger provides structured logging for payauth-cli.
//
//   - logger.go: slog-based logger, formats and dynamic level
//   - context.go: context propagation of logger, request ID and command
//   - redact.go: masking of bearer tokens, JWTs and password fields
//
// Logs go to stderr; stdout is reserved for command output.
package logger
