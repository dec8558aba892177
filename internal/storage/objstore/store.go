package objstore

import (
	"context"
	"time"
)

// Backend names accepted by configuration.
const (
	BackendS3     = "s3"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Store is a flat key/blob store.
//
// Put is all-or-nothing: a failed Put leaves no partial object behind.
// List may omit Metadata; Head always returns it.
type Store interface {
	Put(ctx context.Context, key string, data []byte, meta map[string]string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

func cloneMeta(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
