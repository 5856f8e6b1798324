// Package tracing provides OpenTelemetry tracing integration.
//
// Trace context travels inside queued job payloads: the sweep injects the
// current context into a Carrier before enqueueing, and the consumer extracts
// it after dequeueing so one refresh shares a trace end to end.
//
// Example usage:
//
//	ctx, span := tracing.StartJobSpan(ctx, job.FeedURL, msgID)
//	err := svc.RefreshFeed(ctx, job)
//	tracing.EndJobSpan(span, err)
package tracing
