package backup

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/rostervault/internal/storage/memory"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
	"github.com/yndnr/rostervault/internal/telemetry/metric"
)

// DefaultInterval is the time between backups.
const DefaultInterval = 24 * time.Hour

// Object metadata keys written with every backup.
const (
	MetaCompressedSize   = "compressed_size"
	MetaRawSize          = "raw_size"
	MetaMessageCount     = "message_count"
	MetaInstructorCount  = "instructor_count"
	MetaHostCount        = "host_count"
	MetaCapturedAt       = "captured_at"
	MetaCompressionLevel = "compression_level"
	MetaEncrypted        = "encrypted"
)

// SchedulerConfig holds the scheduler's tunables.
type SchedulerConfig struct {
	Prefix        string
	Interval      time.Duration
	RetentionDays int
	SweepRate     float64
	CaptureMode   snapshot.CaptureMode
}

// TickReport describes one backup run.
type TickReport struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Key       string          `json:"key,omitempty"`
	Counts    snapshot.Counts `json:"counts"`

	RawSize        int           `json:"raw_size"`
	CompressedSize int           `json:"compressed_size"`
	Encrypted      bool          `json:"encrypted"`
	CompressTime   time.Duration `json:"compress_time"`
	UploadTime     time.Duration `json:"upload_time"`

	Uploaded bool `json:"uploaded"`
	// Replaced is set when the key matched the previous upload of this
	// scheduler. Keys have second precision, so two runs in one second
	// share a key and the later blob wins.
	Replaced bool         `json:"replaced,omitempty"`
	Sweep    *SweepResult `json:"sweep,omitempty"`

	// FailedPhase names the phase that failed, if any.
	FailedPhase string `json:"failed_phase,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the time source. Tests pass a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// Scheduler periodically backs up the state. It has a single running
// state: failures are logged and counted, and the next tick proceeds.
type Scheduler struct {
	cfg     SchedulerConfig
	state   *memory.State
	codec   *snapshot.Codec
	store   objstore.Store
	sweeper *Sweeper

	clock   clockwork.Clock
	logger  logger.Logger
	metrics *metric.Registry

	// runMu serializes ticks from the loop with RunOnce callers and
	// guards lastKey.
	runMu   sync.Mutex
	lastKey string

	lastMu sync.RWMutex
	last   *TickReport

	started atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(cfg SchedulerConfig, state *memory.State, codec *snapshot.Codec, store objstore.Store, opts ...Option) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}

	s := &Scheduler{
		cfg:    cfg,
		state:  state,
		codec:  codec,
		store:  store,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	if s.metrics == nil {
		s.metrics = metric.NewRegistry()
	}
	s.logger = s.logger.With("component", "backup")
	s.sweeper = NewSweeper(store, cfg.Prefix, cfg.RetentionDays, cfg.SweepRate, s.logger)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	return s
}

// Sweeper returns the scheduler's retention sweeper.
func (s *Scheduler) Sweeper() *Sweeper {
	return s.sweeper
}

// Start launches the background loop. The first backup runs one full
// interval after Start, never at boot.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.loop()

	s.logger.Info("backup scheduler started",
		"interval", s.cfg.Interval,
		"retention_days", s.cfg.RetentionDays,
		"prefix", s.cfg.Prefix,
		"compression_level", s.codec.Level(),
		"encrypted", s.codec.Encrypted())
}

// Stop ends the loop. An in-flight tick may finish until ctx is done,
// after which it is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	if !s.started.Load() {
		s.cancel()
		return nil
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	select {
	case <-s.doneCh:
		s.cancel()
		s.logger.Info("backup scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.doneCh
		return ctx.Err()
	}
}

// Last returns the report of the most recent tick, or nil.
func (s *Scheduler) Last() *TickReport {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.last
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)

	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			// Errors are logged and counted inside; the loop keeps going.
			_, _ = s.RunOnce(s.ctx)

		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs one tick: capture, encode, upload, then sweep.
// It serializes with the loop, so ticks never overlap.
//
// The returned report is always non-nil. A sweep failure after a
// successful upload is returned as an error with Uploaded set.
func (s *Scheduler) RunOnce(ctx context.Context) (*TickReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	now := s.clock.Now().UTC()
	report := &TickReport{
		RunID:     ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		StartedAt: now,
	}
	log := s.logger.With("run_id", report.RunID)
	ctx = logger.WithRunID(ctx, report.RunID)

	s.metrics.IncTick()
	err := s.tick(ctx, log, now, report)

	s.lastMu.Lock()
	s.last = report
	s.lastMu.Unlock()

	return report, err
}

func (s *Scheduler) tick(ctx context.Context, log logger.Logger, now time.Time, report *TickReport) error {
	snap := snapshot.Capture(s.state, s.cfg.CaptureMode, now)
	report.Counts = snap.Counts()

	enc, err := s.codec.Encode(snap)
	if err != nil {
		return s.fail(log, report, metric.PhaseEncode, err)
	}
	report.RawSize = enc.RawSize
	report.CompressedSize = len(enc.Data)
	report.Encrypted = enc.Encrypted
	report.CompressTime = enc.Elapsed
	report.Key = snapshot.ObjectKey(s.cfg.Prefix, now, enc.Encrypted)
	if report.Key == s.lastKey {
		report.Replaced = true
		log.Warn("backup key already used this second, replacing previous upload", "key", report.Key)
	}

	uploadStart := time.Now()
	err = s.store.Put(ctx, report.Key, enc.Data, s.metadata(snap, enc))
	report.UploadTime = time.Since(uploadStart)
	if err != nil {
		return s.fail(log, report, metric.PhaseUpload, err)
	}
	report.Uploaded = true
	s.lastKey = report.Key

	s.metrics.SetLastSuccess(now)
	s.metrics.SetSnapshotCounts(report.Counts.Records, report.Counts.Instructors, report.Counts.Hosts)
	s.metrics.SetSnapshotSizes(report.RawSize, report.CompressedSize)
	s.metrics.ObserveCompression(report.CompressTime)
	s.metrics.ObserveUpload(report.UploadTime)

	log.Info("backup uploaded",
		"key", report.Key,
		"records", report.Counts.Records,
		"instructors", report.Counts.Instructors,
		"hosts", report.Counts.Hosts,
		"raw_size", report.RawSize,
		"compressed_size", report.CompressedSize,
		"compress_time", report.CompressTime,
		"upload_time", report.UploadTime)

	res, err := s.sweeper.Sweep(ctx, now)
	report.Sweep = &res
	s.metrics.RecordSweep(len(res.Deleted), len(res.Failed))
	if err != nil {
		return s.fail(log, report, metric.PhaseSweep, err)
	}
	if len(res.Failed) > 0 {
		errs := make([]error, 0, len(res.Failed))
		for _, f := range res.Failed {
			errs = append(errs, f.Err)
		}
		return s.fail(log, report, metric.PhaseSweep, errors.Join(errs...))
	}
	if len(res.Deleted) > 0 {
		log.Info("retention sweep completed",
			"deleted", len(res.Deleted),
			"cutoff", res.Cutoff)
	}

	return nil
}

func (s *Scheduler) fail(log logger.Logger, report *TickReport, phase string, err error) error {
	report.FailedPhase = phase
	report.Error = err.Error()
	s.metrics.RecordFailure(phase)

	log.Error("backup tick failed",
		"phase", phase,
		"key", report.Key,
		"records", report.Counts.Records,
		"instructors", report.Counts.Instructors,
		"hosts", report.Counts.Hosts,
		"error", err)
	return err
}

func (s *Scheduler) metadata(snap *snapshot.Snapshot, enc *snapshot.Encoded) map[string]string {
	c := snap.Counts()
	return map[string]string{
		MetaCompressedSize:   strconv.Itoa(len(enc.Data)),
		MetaRawSize:          strconv.Itoa(enc.RawSize),
		MetaMessageCount:     strconv.Itoa(c.Records),
		MetaInstructorCount:  strconv.Itoa(c.Instructors),
		MetaHostCount:        strconv.Itoa(c.Hosts),
		MetaCapturedAt:       snap.CapturedAt.Format(time.RFC3339),
		MetaCompressionLevel: strconv.Itoa(s.codec.Level()),
		MetaEncrypted:        strconv.FormatBool(enc.Encrypted),
	}
}
