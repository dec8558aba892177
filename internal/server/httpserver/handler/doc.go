// Package handler implements the ops HTTP endpoints: probes, backup
// listing and on-demand backup runs.
package handler
