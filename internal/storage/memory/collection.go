package memory

import (
	"cmp"
	"slices"
	"sync"
)

// Collection is a map guarded by its own mutex.
type Collection[K comparable, V any] struct {
	name  string
	mu    sync.Mutex
	items map[K]V
}

// NewCollection creates an empty named collection.
func NewCollection[K comparable, V any](name string) *Collection[K, V] {
	return &Collection[K, V]{
		name:  name,
		items: make(map[K]V),
	}
}

// Name returns the collection name used in logs and metrics.
func (c *Collection[K, V]) Name() string {
	return c.name
}

// With runs fn with exclusive access to the underlying map.
// fn must not retain the map or call With on the same collection.
func (c *Collection[K, V]) With(fn func(items map[K]V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.items)
}

// Get returns the value stored under k.
func (c *Collection[K, V]) Get(k K) (V, bool) {
	var (
		v  V
		ok bool
	)
	c.With(func(items map[K]V) {
		v, ok = items[k]
	})
	return v, ok
}

// Put stores v under k, replacing any previous value.
func (c *Collection[K, V]) Put(k K, v V) {
	c.With(func(items map[K]V) {
		items[k] = v
	})
}

// Delete removes k and reports whether it was present.
func (c *Collection[K, V]) Delete(k K) bool {
	var ok bool
	c.With(func(items map[K]V) {
		if _, ok = items[k]; ok {
			delete(items, k)
		}
	})
	return ok
}

// Len returns the number of entries.
func (c *Collection[K, V]) Len() int {
	var n int
	c.With(func(items map[K]V) {
		n = len(items)
	})
	return n
}

// IsEmpty reports whether the collection has no entries.
func (c *Collection[K, V]) IsEmpty() bool {
	return c.Len() == 0
}

// Copy returns a shallow copy of the contents taken under the lock.
func (c *Collection[K, V]) Copy() map[K]V {
	var out map[K]V
	c.With(func(items map[K]V) {
		out = copyMap(items)
	})
	return out
}

// Replace swaps the contents for a copy of items.
func (c *Collection[K, V]) Replace(items map[K]V) {
	fresh := copyMap(items)
	c.mu.Lock()
	c.items = fresh
	c.mu.Unlock()
}

// ReplaceIfEmpty swaps in a copy of items only if the collection is empty,
// checking and replacing under one critical section. It reports whether the
// replacement happened.
func (c *Collection[K, V]) ReplaceIfEmpty(items map[K]V) bool {
	fresh := copyMap(items)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) != 0 {
		return false
	}
	c.items = fresh
	return true
}

func (c *Collection[K, V]) lock()   { c.mu.Lock() }
func (c *Collection[K, V]) unlock() { c.mu.Unlock() }

// copyLocked copies the contents; the caller holds the lock.
func (c *Collection[K, V]) copyLocked() map[K]V {
	return copyMap(c.items)
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// StringSet is a Collection of unique strings.
type StringSet struct {
	*Collection[string, struct{}]
}

// NewStringSet creates an empty named set.
func NewStringSet(name string) *StringSet {
	return &StringSet{Collection: NewCollection[string, struct{}](name)}
}

// Add inserts s and reports whether it was newly added.
func (s *StringSet) Add(v string) bool {
	var added bool
	s.With(func(items map[string]struct{}) {
		if _, ok := items[v]; !ok {
			items[v] = struct{}{}
			added = true
		}
	})
	return added
}

// Contains reports whether v is in the set.
func (s *StringSet) Contains(v string) bool {
	_, ok := s.Get(v)
	return ok
}

// Remove deletes v and reports whether it was present.
func (s *StringSet) Remove(v string) bool {
	return s.Delete(v)
}

// Values returns the members in ascending order.
func (s *StringSet) Values() []string {
	return SortedKeys(s.Copy())
}

// ReplaceValues swaps the contents for the given members.
func (s *StringSet) ReplaceValues(values []string) {
	s.Replace(SetOf(values))
}

// SetOf builds a set map from values.
func SetOf(values []string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
