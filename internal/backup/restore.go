package backup

import (
	"context"
	"errors"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/memory"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
	"github.com/yndnr/rostervault/internal/telemetry/metric"
)

// RestoreOutcome summarizes a restore attempt.
type RestoreOutcome string

const (
	// RestoreSkipped means no collection was empty, so nothing was fetched.
	RestoreSkipped RestoreOutcome = "skipped"
	// RestoreDisabled means restore was turned off by configuration.
	RestoreDisabled RestoreOutcome = "disabled"
	// RestoreNoSnapshots means the prefix held no backups.
	RestoreNoSnapshots RestoreOutcome = "no_snapshots"
	// RestoreApplied means at least one empty collection was checked
	// against a decoded backup.
	RestoreApplied RestoreOutcome = "restored"
	// RestoreFailed means listing, download or decoding failed.
	RestoreFailed RestoreOutcome = "failed"
)

// RestoreReport describes a restore attempt.
type RestoreReport struct {
	Outcome RestoreOutcome `json:"outcome"`
	Key     string         `json:"key,omitempty"`

	// Restored lists collections that were empty and got replaced.
	Restored []string `json:"restored,omitempty"`
	// Kept lists collections left alone because they held data.
	Kept []string `json:"kept,omitempty"`

	Counts snapshot.Counts `json:"counts"`
	Err    error           `json:"-"`
}

// Restorer fills empty collections from the latest backup.
type Restorer struct {
	state   *memory.State
	catalog *Catalog
	logger  logger.Logger
	metrics *metric.Registry
}

// NewRestorer creates a restorer.
func NewRestorer(state *memory.State, catalog *Catalog, log logger.Logger, metrics *metric.Registry) *Restorer {
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}
	return &Restorer{
		state:   state,
		catalog: catalog,
		logger:  log.With("component", "restore"),
		metrics: metrics,
	}
}

// Restore runs once before the scheduler starts. It never returns an
// error: failures are logged and carried in the report, and the process
// starts with whatever state it has.
func (r *Restorer) Restore(ctx context.Context) *RestoreReport {
	report := r.restore(ctx)
	r.metrics.RecordRestore(string(report.Outcome))
	return report
}

func (r *Restorer) restore(ctx context.Context) *RestoreReport {
	if !r.state.Records.IsEmpty() && !r.state.Instructors.IsEmpty() && !r.state.Hosts.IsEmpty() {
		r.logger.Info("all collections populated, skipping restore")
		return &RestoreReport{Outcome: RestoreSkipped}
	}

	latest, err := r.catalog.Latest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSnapshots) {
			r.logger.Info("no backups found, starting empty", "prefix", r.catalog.Prefix())
			return &RestoreReport{Outcome: RestoreNoSnapshots, Err: err}
		}
		r.logger.Error("failed to list backups", "phase", metric.PhaseList, "error", err)
		r.metrics.RecordFailure(metric.PhaseList)
		return &RestoreReport{Outcome: RestoreFailed, Err: err}
	}

	report := &RestoreReport{Key: latest.Key}
	snap, err := r.catalog.Fetch(ctx, latest.Key)
	if err != nil {
		phase := metric.PhaseDownload
		if errors.Is(err, domain.ErrCorruptSnapshot) || errors.Is(err, domain.ErrCompression) {
			phase = metric.PhaseDecode
		}
		r.logger.Error("failed to fetch backup", "phase", phase, "key", latest.Key, "error", err)
		r.metrics.RecordFailure(phase)
		report.Outcome = RestoreFailed
		report.Err = err
		return report
	}
	report.Counts = snap.Counts()

	// Emptiness is checked again at apply time: a collection that gained
	// data while the backup downloaded is left alone.
	apply := func(name string, replaced bool) {
		if replaced {
			report.Restored = append(report.Restored, name)
		} else {
			report.Kept = append(report.Kept, name)
		}
	}
	apply(memory.RecordsName, r.state.Records.ReplaceIfEmpty(snap.Records))
	apply(memory.InstructorsName, r.state.Instructors.ReplaceIfEmpty(snap.Instructors))
	apply(memory.HostsName, r.state.Hosts.ReplaceIfEmpty(snap.Hosts))

	report.Outcome = RestoreApplied
	r.logger.Info("restored from backup",
		"key", latest.Key,
		"restored", report.Restored,
		"kept", report.Kept,
		"records", report.Counts.Records,
		"instructors", report.Counts.Instructors,
		"hosts", report.Counts.Hosts)

	return report
}
