package objstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/rostervault/internal/core/domain"
)

// Key spaces inside the Badger database. Info and data for one object are
// written in the same transaction.
const (
	infoSpace = "i/"
	dataSpace = "d/"
)

// BadgerConfig configures the Badger backend.
type BadgerConfig struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in RAM. Used by tests.
	InMemory bool

	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCDiscardRatio is the discard ratio passed to RunValueLogGC.
	// Default: 0.5
	GCDiscardRatio float64

	// SyncWrites fsyncs after each write.
	// Default: true
	SyncWrites bool
}

// DefaultBadgerConfig returns defaults for dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:            dir,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
		SyncWrites:     true,
	}
}

// Badger is a Store backed by an embedded Badger v3 database.
type Badger struct {
	db     *badger.DB
	cfg    BadgerConfig
	clock  clockwork.Clock
	logger *slog.Logger

	lastGCTime        atomic.Int64 // Unix milliseconds
	gcRuns            atomic.Uint64
	reportedGCRuns    atomic.Uint64
	metricsLSMSize    prometheus.Gauge
	metricsVLogSize   prometheus.Gauge
	metricsLastGC     prometheus.Gauge
	metricsGCRuns     prometheus.Counter
	metricsObjects    prometheus.Gauge
	metricsRegistered atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadger opens the database and starts the GC loop. A nil clock uses
// real time.
func NewBadger(cfg BadgerConfig, clock clockwork.Clock, logger *slog.Logger) (*Badger, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, domain.ErrConfiguration.WithDetails("badger dir is required")
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}
	if cfg.GCDiscardRatio <= 0 || cfg.GCDiscardRatio >= 1 {
		cfg.GCDiscardRatio = 0.5
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(&badgerLogger{logger: logger}).
		WithSyncWrites(cfg.SyncWrites)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domain.ErrStoreTransient.WithDetails("open badger").WithCause(err)
	}

	b := &Badger{
		db:     db,
		cfg:    cfg,
		clock:  clock,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go b.gcLoop()

	logger.Info("badger store opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"gc_interval", cfg.GCInterval)

	return b, nil
}

// Put writes the object and its info atomically.
func (b *Badger) Put(ctx context.Context, key string, data []byte, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreTransient.WithCause(err)
	}

	info, err := json.Marshal(ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		LastModified: b.clock.Now().UTC(),
		Metadata:     cloneMeta(meta),
	})
	if err != nil {
		return domain.ErrStoreTransient.WithDetails("encode object info").WithCause(err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataSpace+key), data); err != nil {
			return err
		}
		return txn.Set([]byte(infoSpace+key), info)
	})
	return b.wrap("put", key, err)
}

// List scans object info under prefix in key order.
func (b *Badger) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(infoSpace + prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var info ObjectInfo
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &info)
			}); err != nil {
				return err
			}
			out = append(out, info)
		}
		return nil
	})
	if err != nil {
		return nil, b.wrap("list", prefix, err)
	}
	return out, nil
}

// Get returns the object's data.
func (b *Badger) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrStoreTransient.WithCause(err)
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataSpace + key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, b.wrap("get", key, err)
	}
	return data, nil
}

// Head returns the object's info.
func (b *Badger) Head(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, domain.ErrStoreTransient.WithCause(err)
	}

	var info ObjectInfo
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(infoSpace + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &info)
		})
	})
	if err != nil {
		return ObjectInfo{}, b.wrap("head", key, err)
	}
	return info, nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (b *Badger) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreTransient.WithCause(err)
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(dataSpace + key)); err != nil {
			return err
		}
		return txn.Delete([]byte(infoSpace + key))
	})
	return b.wrap("delete", key, err)
}

// GC runs value log GC until Badger reports nothing left to rewrite.
// It returns the number of log files rewritten.
func (b *Badger) GC(ctx context.Context) (int, error) {
	if b.cfg.InMemory {
		return 0, nil
	}

	start := time.Now()
	rewrites := 0
	for ctx.Err() == nil {
		err := b.db.RunValueLogGC(b.cfg.GCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return rewrites, fmt.Errorf("badger gc: %w", err)
		}
		rewrites++
	}

	b.lastGCTime.Store(time.Now().UnixMilli())
	b.gcRuns.Add(1)

	b.logger.Debug("badger gc completed",
		"rewrites", rewrites,
		"elapsed", time.Since(start))

	return rewrites, nil
}

// Close stops the GC loop and closes the database.
func (b *Badger) Close() error {
	close(b.stopCh)
	<-b.doneCh

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	b.logger.Info("badger store closed")
	return nil
}

// RegisterMetrics registers size and GC metrics. The gauges are refreshed
// on each GC loop tick.
func (b *Badger) RegisterMetrics(reg prometheus.Registerer) *Badger {
	b.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rostervault",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	b.metricsVLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rostervault",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	b.metricsLastGC = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rostervault",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})
	b.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rostervault",
		Subsystem: "badger",
		Name:      "gc_runs_total",
		Help:      "Completed Badger value log GC runs",
	})
	b.metricsObjects = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rostervault",
		Subsystem: "badger",
		Name:      "objects",
		Help:      "Objects held in the Badger store",
	})

	reg.MustRegister(
		b.metricsLSMSize,
		b.metricsVLogSize,
		b.metricsLastGC,
		b.metricsGCRuns,
		b.metricsObjects,
	)
	b.metricsRegistered.Store(true)
	b.updateMetrics()

	return b
}

func (b *Badger) updateMetrics() {
	if !b.metricsRegistered.Load() {
		return
	}

	lsm, vlog := b.db.Size()
	b.metricsLSMSize.Set(float64(lsm))
	b.metricsVLogSize.Set(float64(vlog))

	if last := b.lastGCTime.Load(); last > 0 {
		b.metricsLastGC.Set(float64(last) / 1000.0)
	}

	runs := b.gcRuns.Load()
	if prev := b.reportedGCRuns.Swap(runs); runs > prev {
		b.metricsGCRuns.Add(float64(runs - prev))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if objs, err := b.List(ctx, ""); err == nil {
		b.metricsObjects.Set(float64(len(objs)))
	}
}

// gcLoop runs periodic garbage collection.
func (b *Badger) gcLoop() {
	defer close(b.doneCh)

	ticker := b.clock.NewTicker(b.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := b.GC(ctx); err != nil {
				b.logger.Error("auto gc failed", "error", err)
			}
			cancel()
			b.updateMetrics()

		case <-b.stopCh:
			return
		}
	}
}

func (b *Badger) wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	details := fmt.Sprintf("%s %s", op, key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.ErrObjectNotFound.WithDetails(details)
	default:
		return domain.ErrStoreTransient.WithDetails(details).WithCause(err)
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
