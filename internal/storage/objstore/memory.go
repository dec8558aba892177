package objstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yndnr/rostervault/internal/core/domain"
)

type memObject struct {
	data []byte
	info ObjectInfo
}

// Memory is an in-process Store. LastModified comes from the injected clock.
type Memory struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	objects map[string]memObject
}

// NewMemory creates an empty in-memory store. A nil clock uses real time.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		clock:   clock,
		objects: make(map[string]memObject),
	}
}

// Put stores a copy of data.
func (m *Memory) Put(ctx context.Context, key string, data []byte, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreTransient.WithCause(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{
		data: slices.Clone(data),
		info: ObjectInfo{
			Key:          key,
			Size:         int64(len(data)),
			LastModified: m.clock.Now().UTC(),
			Metadata:     cloneMeta(meta),
		},
	}
	return nil
}

// List returns objects under prefix sorted by key.
func (m *Memory) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrStoreTransient.WithCause(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ObjectInfo
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			info := o.info
			info.Metadata = cloneMeta(info.Metadata)
			out = append(out, info)
		}
	}
	slices.SortFunc(out, func(a, b ObjectInfo) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

// Get returns a copy of the object's data.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrStoreTransient.WithCause(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrObjectNotFound.WithDetails(key)
	}
	return slices.Clone(o.data), nil
}

// Head returns the object's info.
func (m *Memory) Head(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, domain.ErrStoreTransient.WithCause(err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return ObjectInfo{}, domain.ErrObjectNotFound.WithDetails(key)
	}
	info := o.info
	info.Metadata = cloneMeta(info.Metadata)
	return info, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrStoreTransient.WithCause(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// SetLastModified overrides an object's modification time. It reports
// false when key does not exist.
func (m *Memory) SetLastModified(key string, t time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return false
	}
	o.info.LastModified = t.UTC()
	m.objects[key] = o
	return true
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
