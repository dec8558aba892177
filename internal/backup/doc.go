// Package backup runs the durability loop for the in-memory state.
//
//   - scheduler.go: periodic capture, encode, upload and sweep
//   - sweeper.go: age-based deletion of old backups
//   - restore.go: one-shot restore of empty collections at startup
//   - catalog.go: listing and fetching backups under a prefix
//
// None of these hold a state lock during compression or remote I/O.
package backup
