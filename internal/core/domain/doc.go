// Package domain defines the core domain models for rostervault.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Engagement: the scheduled record held in memory and captured by backups
//   - Errors: coded errors shared by the storage, codec and backup layers
//
// The JSON shape of Engagement is the wire shape of every backup blob, so
// field tags here must stay stable across releases.
package domain
