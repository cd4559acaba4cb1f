package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// FingerprintLength is the number of hex characters in a fingerprint.
const FingerprintLength = 12

// GenerateBytes returns length bytes from crypto/rand.
func GenerateBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Hash returns the hex-encoded SHA-256 of token.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns "sha256:" and the first FingerprintLength hex
// characters of Hash(token), or "" for an empty token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return "sha256:" + Hash(token)[:FingerprintLength]
}
