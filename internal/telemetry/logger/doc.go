// Package logger provides structured logging for rostervault.
//
//   - logger.go: log/slog handler setup, global level, package-level helpers
//   - context.go: context propagation of loggers, request IDs and run IDs
//   - redact.go: masking of secrets before they reach the output
package logger
