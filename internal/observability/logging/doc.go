// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Trace ID propagation for refresh jobs
//   - Context-aware logging
//   - Configurable log levels
package logging
