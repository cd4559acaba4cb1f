package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/payauth-go/internal/telemetry/logger"
)

// TokenKey is the fixed storage key of the persisted bearer token.
const TokenKey = "auth_token"

// KeyFileName is the master key file, kept next to the data directory.
const KeyFileName = "token.key"

// Config configures token persistence.
type Config struct {
	// Dir is the Badger data directory.
	Dir string

	// Encrypt seals the token at rest. The master key lives in
	// <parent of Dir>/token.key.
	Encrypt bool

	// Ephemeral keeps the token in memory only.
	Ephemeral bool

	// Badger tuning.
	Badger BadgerConfig

	// Metrics, when set, receives Badger size gauges.
	Metrics prometheus.Registerer

	// Logger is the structured logger.
	Logger logger.Logger
}

// DefaultConfig returns the default token storage configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:     dir,
		Encrypt: true,
		Badger:  DefaultBadgerConfig(),
	}
}

// TokenStore persists the bearer token.
//
// Load reports an absent token as "" with a nil error. It implements
// connection.TokenSource through Token.
type TokenStore struct {
	kv     KVEngine
	sealer *Sealer
	logger logger.Logger
}

// TokenOption configures a TokenStore.
type TokenOption func(*TokenStore)

// WithSealer encrypts the token at rest.
func WithSealer(s *Sealer) TokenOption {
	return func(t *TokenStore) {
		t.sealer = s
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(l logger.Logger) TokenOption {
	return func(t *TokenStore) {
		t.logger = l
	}
}

// NewTokenStore wraps an engine. The store takes ownership of kv and
// closes it in Close.
func NewTokenStore(kv KVEngine, opts ...TokenOption) *TokenStore {
	t := &TokenStore{
		kv:     kv,
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open builds the TokenStore described by cfg.
func Open(cfg Config) (*TokenStore, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	var opts []TokenOption
	opts = append(opts, WithTokenLogger(log))

	if cfg.Ephemeral {
		log.Debug("using ephemeral token storage")
		return NewTokenStore(NewMemoryEngine(), opts...), nil
	}

	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage: dir is required")
	}

	if cfg.Encrypt {
		key, err := LoadOrCreateKey(filepath.Join(filepath.Dir(filepath.Clean(cfg.Dir)), KeyFileName))
		if err != nil {
			return nil, err
		}
		sealer, err := NewSealer(key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSealer(sealer))
	}

	engine, err := NewBadgerEngine(KVConfig{Dir: cfg.Dir, Badger: cfg.Badger}, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if cfg.Metrics != nil {
		engine.RegisterMetrics(cfg.Metrics)
	}

	return NewTokenStore(engine, opts...), nil
}

// Load returns the persisted token, or "" if none is stored.
func (t *TokenStore) Load(ctx context.Context) (string, error) {
	value, err := t.kv.Get(ctx, []byte(TokenKey))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load token: %w", err)
	}

	if t.sealer != nil {
		value, err = t.sealer.Open(value, []byte(TokenKey))
		if err != nil {
			return "", fmt.Errorf("load token: %w", err)
		}
	}
	return string(value), nil
}

// Save persists token. Saving "" is equivalent to Clear.
func (t *TokenStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return t.Clear(ctx)
	}

	value := []byte(token)
	if t.sealer != nil {
		sealed, err := t.sealer.Seal(value, []byte(TokenKey))
		if err != nil {
			return fmt.Errorf("save token: %w", err)
		}
		value = sealed
	}

	if err := t.kv.Set(ctx, []byte(TokenKey), value); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	t.logger.Debug("token saved", "sealed", t.sealer != nil)
	return nil
}

// Clear erases the persisted token. Clearing when nothing is stored
// succeeds.
func (t *TokenStore) Clear(ctx context.Context) error {
	if err := t.kv.Delete(ctx, []byte(TokenKey)); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	t.logger.Debug("token cleared")
	return nil
}

// Token implements connection.TokenSource.
func (t *TokenStore) Token(ctx context.Context) (string, error) {
	return t.Load(ctx)
}

// Close closes the underlying engine.
func (t *TokenStore) Close() error {
	return t.kv.Close()
}
