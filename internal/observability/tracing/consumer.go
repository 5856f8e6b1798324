package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Carrier is the trace context map carried inside a queued job payload.
// The producer injects into it, the consumer extracts from it, so one
// refresh shares a trace from enqueue to dispatch.
type Carrier map[string]string

// Inject writes the current trace context from ctx into the carrier using
// the W3C Trace Context format. Call on the producer side before enqueueing.
func Inject(ctx context.Context, carrier Carrier) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(carrier))
}

// Extract reads the trace context from the carrier into a new context.
// Call on the consumer side after dequeueing.
func Extract(ctx context.Context, carrier Carrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(carrier))
}

// StartJobSpan starts a consumer span for one dequeued refresh job.
// The span records the feed URL and message ID, and is marked as an error
// via EndJobSpan when the job fails.
//
// Example usage:
//
//	ctx, span := tracing.StartJobSpan(ctx, job.FeedURL, msgID)
//	err := svc.RefreshFeed(ctx, job)
//	tracing.EndJobSpan(span, err)
func StartJobSpan(ctx context.Context, feedURL, messageID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "refresh-job",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("feed.url", feedURL),
			attribute.String("messaging.message_id", messageID),
		),
	)
	return ctx, span
}

// EndJobSpan finishes a job span, recording err when the job failed.
func EndJobSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
