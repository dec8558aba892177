package backup

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
)

const (
	// DefaultRetentionDays is how long backups are kept.
	DefaultRetentionDays = 30

	// DefaultSweepRate is the default delete rate in objects per second.
	DefaultSweepRate = 10.0
)

// SweepFailure is one object the sweep could not delete.
type SweepFailure struct {
	Key string `json:"key"`
	Err error  `json:"-"`
}

// SweepResult is the outcome of one retention sweep.
type SweepResult struct {
	Cutoff  time.Time      `json:"cutoff"`
	Listed  int            `json:"listed"`
	Deleted []string       `json:"deleted"`
	Failed  []SweepFailure `json:"failed,omitempty"`
}

// Sweeper deletes backups older than the retention period.
type Sweeper struct {
	store     objstore.Store
	prefix    string
	retention time.Duration
	limiter   *rate.Limiter
	logger    logger.Logger
}

// NewSweeper creates a sweeper keeping retentionDays of backups under
// prefix. Deletes are paced at perSecond; zero or less disables pacing.
func NewSweeper(store objstore.Store, prefix string, retentionDays int, perSecond float64, log logger.Logger) *Sweeper {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Sweeper{
		store:     store,
		prefix:    prefix,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    log,
	}
}

// Cutoff returns the instant before which backups expire.
func (s *Sweeper) Cutoff(now time.Time) time.Time {
	return now.Add(-s.retention)
}

// Expired lists the backups a sweep at now would delete. Objects modified
// exactly at the cutoff are kept.
func (s *Sweeper) Expired(ctx context.Context, now time.Time) ([]objstore.ObjectInfo, int, error) {
	objs, err := s.store.List(ctx, snapshot.ListPrefix(s.prefix))
	if err != nil {
		return nil, 0, err
	}

	cutoff := s.Cutoff(now)
	var expired []objstore.ObjectInfo
	for _, o := range objs {
		if o.LastModified.Before(cutoff) {
			expired = append(expired, o)
		}
	}
	return expired, len(objs), nil
}

// Sweep deletes expired backups. A listing failure aborts the sweep and is
// returned; delete failures are collected in the result and the sweep
// moves on to the next object.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	res := SweepResult{Cutoff: s.Cutoff(now)}

	expired, listed, err := s.Expired(ctx, now)
	if err != nil {
		return res, err
	}
	res.Listed = listed

	for _, o := range expired {
		if err := s.limiter.Wait(ctx); err != nil {
			// Context is done; everything left is a failure.
			res.Failed = append(res.Failed, SweepFailure{Key: o.Key, Err: err})
			continue
		}
		if err := s.store.Delete(ctx, o.Key); err != nil {
			s.logger.Warn("failed to delete expired backup",
				"key", o.Key,
				"last_modified", o.LastModified,
				"error", err)
			res.Failed = append(res.Failed, SweepFailure{Key: o.Key, Err: err})
			continue
		}
		s.logger.Info("deleted expired backup",
			"key", o.Key,
			"last_modified", o.LastModified)
		res.Deleted = append(res.Deleted, o.Key)
	}

	return res, nil
}
