package snapshot

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/memory"
)

// Snapshot is an immutable copy of the three collections.
//
// Callers must treat the maps as read-only.
type Snapshot struct {
	Records     map[uuid.UUID]domain.Engagement
	Instructors map[string]struct{}
	Hosts       map[string]struct{}

	CapturedAt time.Time
}

// Counts holds per-collection sizes.
type Counts struct {
	Records     int `json:"records"`
	Instructors int `json:"instructors"`
	Hosts       int `json:"hosts"`
}

// CaptureMode selects how Capture locks the state.
type CaptureMode int

const (
	// CaptureEach locks each collection separately, one after another.
	CaptureEach CaptureMode = iota
	// CaptureAtomic holds all three locks for the duration of the copy.
	CaptureAtomic
)

// Capture copies the state. Locks are released before Capture returns; no
// encoding happens while they are held.
func Capture(st *memory.State, mode CaptureMode, now time.Time) *Snapshot {
	var c memory.Contents
	if mode == CaptureAtomic {
		c = st.CopyAll()
	} else {
		c = st.CopyEach()
	}
	return &Snapshot{
		Records:     c.Records,
		Instructors: c.Instructors,
		Hosts:       c.Hosts,
		CapturedAt:  now.UTC(),
	}
}

// New builds a snapshot from slices. Used by tests and tooling.
func New(records []domain.Engagement, instructors, hosts []string) *Snapshot {
	s := &Snapshot{
		Records:     make(map[uuid.UUID]domain.Engagement, len(records)),
		Instructors: memory.SetOf(instructors),
		Hosts:       memory.SetOf(hosts),
	}
	for _, r := range records {
		s.Records[r.ID] = r
	}
	return s
}

// Counts returns the size of each collection.
func (s *Snapshot) Counts() Counts {
	return Counts{
		Records:     len(s.Records),
		Instructors: len(s.Instructors),
		Hosts:       len(s.Hosts),
	}
}

// IsEmpty reports whether all three collections are empty.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Records) == 0 && len(s.Instructors) == 0 && len(s.Hosts) == 0
}

// Equal reports set equality of every collection. CapturedAt is ignored.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s == nil || o == nil {
		return s == o
	}
	return maps.Equal(s.Records, o.Records) &&
		maps.Equal(s.Instructors, o.Instructors) &&
		maps.Equal(s.Hosts, o.Hosts)
}
