// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// This package centralizes observability concerns to enable:
//   - Job tracing from enqueue through content dispatch
//   - Structured logging with context propagation
//   - Prometheus metrics for monitoring
//   - SLO tracking for the refresh pipeline
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracing integration
//   - slo: Service level objective gauges
package observability
