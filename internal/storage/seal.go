package storage

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/payauth-go/pkg/token"
)

// Sealing errors.
var (
	ErrKeyTooShort  = errors.New("storage: master key too short (minimum 16 bytes)")
	ErrUnsealFailed = errors.New("storage: unseal failed - wrong key or corrupted data")
)

const (
	// MinKeyLength is the minimum master key length.
	MinKeyLength = 16

	// masterKeyLength is the size of generated key files.
	masterKeyLength = 32

	// sealVersion prefixes every sealed value.
	sealVersion byte = 1

	// sealInfo binds derived keys to this use.
	sealInfo = "payauth token seal v1"
)

// Sealer encrypts values at rest with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a sealing key from masterKey with HKDF-SHA256.
func NewSealer(masterKey []byte) (*Sealer, error) {
	if len(masterKey) < MinKeyLength {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte(sealInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("storage: derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("storage: create cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext. additionalData is authenticated but not stored;
// the same value must be passed to Open.
//
// Output layout: version(1) | nonce(24) | ciphertext+tag.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	out := make([]byte, 1+nonceSize, 1+nonceSize+len(plaintext)+s.aead.Overhead())
	out[0] = sealVersion
	if _, err := rand.Read(out[1:]); err != nil {
		return nil, fmt.Errorf("storage: generate nonce: %w", err)
	}
	return s.aead.Seal(out, out[1:], plaintext, additionalData), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < 1+nonceSize+s.aead.Overhead() || sealed[0] != sealVersion {
		return nil, ErrUnsealFailed
	}

	nonce := sealed[1 : 1+nonceSize]
	plaintext, err := s.aead.Open(nil, nonce, sealed[1+nonceSize:], additionalData)
	if err != nil {
		return nil, ErrUnsealFailed
	}
	return plaintext, nil
}

// LoadOrCreateKey reads the master key at path, generating a random one
// with 0600 permissions if the file does not exist.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) < MinKeyLength {
			return nil, fmt.Errorf("%w: %s", ErrKeyTooShort, path)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("storage: read key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create key dir: %w", err)
	}

	key, err = token.GenerateBytes(masterKeyLength)
	if err != nil {
		return nil, fmt.Errorf("storage: generate key: %w", err)
	}

	// The key is written to a temporary file and linked into place, so
	// a concurrent reader sees either no file or the complete key.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".token.key-*")
	if err != nil {
		return nil, fmt.Errorf("storage: create key file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(key); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("storage: write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("storage: write key file: %w", err)
	}

	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, os.ErrExist) {
			// Lost a race with another process; use its key.
			return LoadOrCreateKey(path)
		}
		return nil, fmt.Errorf("storage: install key file: %w", err)
	}
	return key, nil
}
