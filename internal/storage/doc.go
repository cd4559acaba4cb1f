// Package storage persists the bearer token for payauth-cli.
//
// A TokenStore keeps the token under a single fixed key in a KVEngine:
// BadgerEngine on disk or MemoryEngine for ephemeral sessions. When a
// Sealer is configured the value is encrypted at rest with
// XChaCha20-Poly1305 under a key derived from a local key file.
package storage
