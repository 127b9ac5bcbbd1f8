// Package otel provides OpenTelemetry span helpers shared by the sync
// coordinator and the PostgreSQL store.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of spans started outside the HTTP layer
const TracerName = "github.com/pickarooms/reservations-server"

// Attribute keys for business context, shared so traces use consistent names
const (
	AttrFeedName    = attribute.Key("feed.name")
	AttrFeedChannel = attribute.Key("feed.channel")
	AttrResourceID  = attribute.Key("booking.resource")
	AttrEventCount  = attribute.Key("feed.event_count")
	AttrUnchanged   = attribute.Key("feed.unchanged")
	AttrCreated     = attribute.Key("booking.created")
	AttrUpdated     = attribute.Key("booking.updated")
	AttrCancelled   = attribute.Key("booking.cancelled")
	AttrTxAttempts  = attribute.Key("db.tx.max_attempts")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors. The status description stays
// generic so feed URLs and SQL never reach the trace status; the error
// itself is kept as a span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
