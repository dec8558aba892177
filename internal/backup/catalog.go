package backup

import (
	"context"
	"slices"
	"strings"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
)

// Catalog reads the backups stored under one prefix.
type Catalog struct {
	store  objstore.Store
	prefix string
	codec  *snapshot.Codec
}

// NewCatalog creates a catalog over store.
func NewCatalog(store objstore.Store, prefix string, codec *snapshot.Codec) *Catalog {
	return &Catalog{store: store, prefix: prefix, codec: codec}
}

// Prefix returns the configured key prefix.
func (c *Catalog) Prefix() string {
	return c.prefix
}

// List returns every object under the prefix, newest first.
func (c *Catalog) List(ctx context.Context) ([]objstore.ObjectInfo, error) {
	objs, err := c.store.List(ctx, snapshot.ListPrefix(c.prefix))
	if err != nil {
		return nil, err
	}
	slices.SortFunc(objs, func(a, b objstore.ObjectInfo) int {
		if c := b.LastModified.Compare(a.LastModified); c != 0 {
			return c
		}
		return strings.Compare(b.Key, a.Key)
	})
	return objs, nil
}

// Latest returns the most recently modified backup. It returns
// domain.ErrNoSnapshots when the prefix is empty.
func (c *Catalog) Latest(ctx context.Context) (objstore.ObjectInfo, error) {
	objs, err := c.store.List(ctx, snapshot.ListPrefix(c.prefix))
	if err != nil {
		return objstore.ObjectInfo{}, err
	}
	latest, ok := snapshot.Latest(objs)
	if !ok {
		return objstore.ObjectInfo{}, domain.ErrNoSnapshots.WithDetails(c.prefix)
	}
	return latest, nil
}

// Fetch downloads and decodes the backup at key.
func (c *Catalog) Fetch(ctx context.Context, key string) (*snapshot.Snapshot, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.codec.Decode(data)
}
