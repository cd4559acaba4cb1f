// Package repl provides the interactive shell of payauth-cli.
//
// Each line is split into words and handed to an Executor, normally the
// CLI application itself, so every command behaves as it does on the
// command line while the session bootstrapped at startup is reused.
// Builtins: exit, quit, history, complete PREFIX.
package repl
