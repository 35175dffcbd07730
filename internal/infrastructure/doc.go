// Package infrastructure carries the cross-cutting runtime pieces: the JSON
// slog logger with trace-id injection, trace-id context helpers, and
// OpenTelemetry setup with Prometheus-exported pipeline metrics.
package infrastructure
