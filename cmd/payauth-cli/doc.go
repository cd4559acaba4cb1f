// Package main provides the entry point for payauth-cli.
//
// The CLI is a client for the payauth authentication backend:
//
//   - Account registration, login, logout and profile updates
//   - Password recovery (recovery email, reset token check, reset)
//   - User listing and search
//   - Brazilian postal code (CEP) lookup
//   - Local configuration and diagnostics
//
// Usage:
//
//	payauth-cli [global flags] command [flags]
//	payauth-cli login --email ana@example.com
//	payauth-cli -o json users list --page 2
//	payauth-cli shell
//
// The bearer token survives between invocations in an encrypted local
// store; the shell keeps one session for many commands.
package main
