// Package objstoretest provides a fault-injecting Store for tests.
package objstoretest

import (
	"context"
	"sync"

	"github.com/yndnr/rostervault/internal/storage/objstore"
)

// Op names a Store method.
type Op string

const (
	OpPut    Op = "put"
	OpList   Op = "list"
	OpGet    Op = "get"
	OpHead   Op = "head"
	OpDelete Op = "delete"
)

// Faulty wraps a Store and fails selected calls.
type Faulty struct {
	objstore.Store

	mu     sync.Mutex
	fail   map[Op]error
	failOn map[string]error // delete key -> error
	calls  map[Op]int
}

// New wraps inner.
func New(inner objstore.Store) *Faulty {
	return &Faulty{
		Store:  inner,
		fail:   make(map[Op]error),
		failOn: make(map[string]error),
		calls:  make(map[Op]int),
	}
}

// Fail makes every call to op return err until Heal is called.
func (f *Faulty) Fail(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

// FailDelete makes deletes of key return err.
func (f *Faulty) FailDelete(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[key] = err
}

// Heal clears every injected failure.
func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.fail)
	clear(f.failOn)
}

// Calls returns how many times op was invoked.
func (f *Faulty) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Faulty) check(op Op, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	if op == OpDelete {
		if err, ok := f.failOn[key]; ok {
			return err
		}
	}
	return f.fail[op]
}

func (f *Faulty) Put(ctx context.Context, key string, data []byte, meta map[string]string) error {
	if err := f.check(OpPut, key); err != nil {
		return err
	}
	return f.Store.Put(ctx, key, data, meta)
}

func (f *Faulty) List(ctx context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	if err := f.check(OpList, prefix); err != nil {
		return nil, err
	}
	return f.Store.List(ctx, prefix)
}

func (f *Faulty) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.check(OpGet, key); err != nil {
		return nil, err
	}
	return f.Store.Get(ctx, key)
}

func (f *Faulty) Head(ctx context.Context, key string) (objstore.ObjectInfo, error) {
	if err := f.check(OpHead, key); err != nil {
		return objstore.ObjectInfo{}, err
	}
	return f.Store.Head(ctx, key)
}

func (f *Faulty) Delete(ctx context.Context, key string) error {
	if err := f.check(OpDelete, key); err != nil {
		return err
	}
	return f.Store.Delete(ctx, key)
}
