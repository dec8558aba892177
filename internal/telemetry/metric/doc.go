// Package metric provides Prometheus metrics for rostervault.
//
//   - prometheus.go: registry, backup and ops HTTP metrics, /metrics handler
//   - collector.go: collector reporting live in-memory state sizes
//
// Metrics are exposed at /metrics on the ops server.
package metric
