// Package token provides helpers for handling bearer tokens and key
// material without exposing them.
//
// Fingerprints are short SHA-256 prefixes, safe to print in status output
// so two sessions can be told apart without revealing either token.
package token
