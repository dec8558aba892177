package backup

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/memory"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/objstore/objstoretest"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
	"github.com/yndnr/rostervault/internal/telemetry/metric"
)

const testPrefix = "message-backups"

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	clock   *clockwork.FakeClock
	mem     *objstore.Memory
	store   *objstoretest.Faulty
	state   *memory.State
	codec   *snapshot.Codec
	metrics *metric.Registry
	log     logger.Logger
}

func newTestEnv(t *testing.T, opts ...snapshot.CodecOption) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(epoch)
	mem := objstore.NewMemory(clock)
	codec, err := snapshot.NewCodec(opts...)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	t.Cleanup(codec.Close)

	log, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: io.Discard})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	return &testEnv{
		clock:   clock,
		mem:     mem,
		store:   objstoretest.New(mem),
		state:   memory.New(),
		codec:   codec,
		metrics: metric.NewRegistry(),
		log:     log,
	}
}

func (e *testEnv) scheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Prefix == "" {
		cfg.Prefix = testPrefix
	}
	return NewScheduler(cfg, e.state, e.codec, e.store,
		WithClock(e.clock),
		WithLogger(e.log),
		WithMetrics(e.metrics),
	)
}

func (e *testEnv) catalog() *Catalog {
	return NewCatalog(e.store, testPrefix, e.codec)
}

// putAged stores an object under the test prefix modified age ago.
func (e *testEnv) putAged(t *testing.T, name string, age time.Duration) string {
	t.Helper()
	key := testPrefix + "/" + name
	if err := e.mem.Put(context.Background(), key, []byte("x"), nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e.mem.SetLastModified(key, e.clock.Now().Add(-age))
	return key
}

// putSnapshot encodes s and stores it modified at t.
func (e *testEnv) putSnapshot(t *testing.T, s *snapshot.Snapshot, at time.Time) string {
	t.Helper()
	enc, err := e.codec.Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	key := snapshot.ObjectKey(testPrefix, at, enc.Encrypted)
	if err := e.mem.Put(context.Background(), key, enc.Data, nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e.mem.SetLastModified(key, at)
	return key
}

func (e *testEnv) populate() {
	e.state.AddEngagement(*domain.NewEngagement("Ada", "Grace", "2024-03-01", "Compilers"))
	e.state.AddEngagement(*domain.NewEngagement("Bob", "Linus", "2024-03-02", "Kernels"))
	e.state.Instructors.Add("Ada")
	e.state.Instructors.Add("Bob")
	e.state.Hosts.Add("Grace")
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
