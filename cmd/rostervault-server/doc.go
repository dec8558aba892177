// Package main provides the entry point for rostervault-server.
//
// The server holds the engagement roster in memory and keeps it durable
// by uploading a compressed snapshot to the object store every interval:
//
//   - On boot, empty collections are refilled from the newest backup
//   - Every interval a snapshot is captured, compressed and uploaded
//   - After each upload, backups past the retention window are swept
//   - An ops listener serves probes, metrics and the admin API
//
// Usage:
//
//	rostervault-server [flags]
//	rostervault-server -config /etc/rostervault/server.yaml
package main
