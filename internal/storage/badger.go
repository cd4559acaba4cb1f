package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/payauth-go/internal/telemetry/logger"
)

// BadgerEngine implements KVEngine using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger

	closed     atomic.Bool
	closeOnce  sync.Once
	lastGCTime atomic.Int64 // Unix milliseconds

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerEngine opens (or creates) a Badger database in cfg.Dir.
func NewBadgerEngine(cfg KVConfig, log logger.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("badger: create dir: %w", err)
	}

	badgerCfg := cfg.Badger
	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(&badgerLogger{logger: log}).
		WithBlockCacheSize(badgerCfg.CacheSize).
		WithMemTableSize(badgerCfg.MemTableSize).
		WithValueLogFileSize(badgerCfg.ValueLogFileSize).
		WithSyncWrites(badgerCfg.SyncWrites).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    badgerCfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.gcLoop()

	log.Debug("badger engine started", "dir", cfg.Dir, "gc_interval", badgerCfg.GCInterval)
	return engine, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Set stores a key-value pair.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete removes a key.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// GC runs value log garbage collection until nothing is left to rewrite.
// Returns the number of value log files rewritten.
func (e *BadgerEngine) GC(ctx context.Context) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}

	rewritten := 0
	for {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
				break
			}
			return rewritten, fmt.Errorf("gc: %w", err)
		}
		rewritten++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.logger.Debug("gc completed", "rewritten", rewritten)
	return rewritten, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats() KVStats {
	lsm, vlog := e.db.Size()
	return KVStats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   e.lastGCTime.Load(),
	}
}

// Close stops the GC loop and closes the database.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stopCh)
		<-e.doneCh

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
		e.logger.Debug("badger engine closed")
	})
	return err
}

// RegisterMetrics exposes Badger size gauges on reg. Values are read at
// scrape time.
func (e *BadgerEngine) RegisterMetrics(reg prometheus.Registerer) *BadgerEngine {
	gauge := func(name, help string, fn func(KVStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "payauth",
			Subsystem: "badger",
			Name:      name,
			Help:      help,
		}, func() float64 {
			if e.closed.Load() {
				return 0
			}
			return fn(e.Stats())
		})
	}

	reg.MustRegister(
		gauge("lsm_size_bytes", "Badger LSM tree size in bytes",
			func(s KVStats) float64 { return float64(s.LSMSize) }),
		gauge("value_log_size_bytes", "Badger value log size in bytes",
			func(s KVStats) float64 { return float64(s.ValueLogSize) }),
		gauge("total_size_bytes", "Badger total storage size in bytes (LSM + value log)",
			func(s KVStats) float64 { return float64(s.TotalSize) }),
		gauge("last_gc_timestamp_seconds", "Unix timestamp of the last Badger GC run",
			func(s KVStats) float64 { return float64(s.LastGCTime) / 1000.0 }),
	)
	return e
}

// gcLoop runs periodic garbage collection. Long-lived processes such as
// the interactive shell are the only ones that ever hit the ticker.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	interval := e.cfg.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := e.GC(ctx); err != nil {
				e.logger.Warn("auto gc failed", "error", err)
			}
			cancel()

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
// Badger is chatty at info level, so its info output is demoted to debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
