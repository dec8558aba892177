// Package objstore abstracts the remote object store that holds backups.
//
// Three backends implement Store:
//
//   - s3.go: AWS S3 and S3-compatible services (aws-sdk-go-v2)
//   - badger.go: embedded Badger v3 database for single-host deployments
//   - memory.go: in-process map for tests and dry runs
//
// Every error returned by a Store is a remote store error from
// internal/core/domain: ErrObjectNotFound, ErrStorePermission or
// ErrStoreTransient.
package objstore
