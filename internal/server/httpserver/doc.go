// Package httpserver provides the operations HTTP server for rostervault.
//
// The server is meant for loopback or a private network. It exposes
// liveness and readiness probes, Prometheus metrics and a small admin API
// to list remote backups and trigger a backup run.
package httpserver
