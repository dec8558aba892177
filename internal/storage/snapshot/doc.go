// Package snapshot captures, encodes and decodes backups of the in-memory
// state.
//
// A backup blob is produced in three steps:
//
//	Capture   copy each collection under its own lock
//	Serialize JSON {"engagements":[...],"instructors":[...],"hosts":[...]}
//	Compress  zstd at the configured level
//
// and optionally sealed with an AEAD cipher when an encryption key is
// configured. Decode runs the inverse chain and rejects anything that does
// not match the schema with domain.ErrCorruptSnapshot.
//
// Blobs are stored under keys of the form
//
//	{prefix}/backup_{YYYYMMDD_HHMMSS}.json.zst
//
// with the timestamp in UTC. The key timestamp is informational only: the
// newest backup is the one with the greatest store-reported LastModified
// (see Latest).
package snapshot
