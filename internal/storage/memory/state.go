package memory

import (
	"github.com/google/uuid"

	"github.com/yndnr/rostervault/internal/core/domain"
)

// Collection names, as they appear in logs and metric labels.
const (
	RecordsName     = "records"
	InstructorsName = "instructors"
	HostsName       = "hosts"
)

// State is the shared in-memory state observed by the backup subsystem.
//
// State is owned by the process; request handlers mutate it and the backup
// scheduler only borrows read access for the duration of a copy.
type State struct {
	Records     *Collection[uuid.UUID, domain.Engagement]
	Instructors *StringSet
	Hosts       *StringSet
}

// New creates an empty state.
func New() *State {
	return &State{
		Records:     NewCollection[uuid.UUID, domain.Engagement](RecordsName),
		Instructors: NewStringSet(InstructorsName),
		Hosts:       NewStringSet(HostsName),
	}
}

// AddEngagement stores e keyed by its ID.
func (s *State) AddEngagement(e domain.Engagement) {
	s.Records.Put(e.ID, e)
}

// Contents is a detached copy of all three collections.
type Contents struct {
	Records     map[uuid.UUID]domain.Engagement
	Instructors map[string]struct{}
	Hosts       map[string]struct{}
}

// CopyEach copies each collection under its own lock, one after another.
//
// The three copies are not taken at a single instant: a writer may change
// Hosts between the Records copy and the Hosts copy. Backups accept this.
func (s *State) CopyEach() Contents {
	return Contents{
		Records:     s.Records.Copy(),
		Instructors: s.Instructors.Copy(),
		Hosts:       s.Hosts.Copy(),
	}
}

// CopyAll copies all three collections while holding all three locks, so
// the copies reflect one instant. Writers on every collection wait for the
// duration of the copy.
func (s *State) CopyAll() Contents {
	var c Contents
	s.LockAll(func() {
		c = Contents{
			Records:     s.Records.copyLocked(),
			Instructors: s.Instructors.copyLocked(),
			Hosts:       s.Hosts.copyLocked(),
		}
	})
	return c
}

// LockAll runs fn holding the Records, Instructors and Hosts locks,
// acquired in that order.
func (s *State) LockAll(fn func()) {
	s.Records.lock()
	defer s.Records.unlock()
	s.Instructors.lock()
	defer s.Instructors.unlock()
	s.Hosts.lock()
	defer s.Hosts.unlock()
	fn()
}

// Counts returns the current size of each collection.
func (s *State) Counts() (records, instructors, hosts int) {
	return s.Records.Len(), s.Instructors.Len(), s.Hosts.Len()
}
