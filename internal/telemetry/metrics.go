package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// BookingMetricsMeterName is the name used for the booking metrics meter
	BookingMetricsMeterName = "github.com/pickarooms/reservations-server/bookings"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/pickarooms/reservations-server/sync"
)

// BookingMetrics holds the instruments of the reconciliation engine
type BookingMetrics struct {
	mutations   metric.Int64Counter
	enrichments metric.Int64Counter
	accessCodes metric.Int64Counter
}

// NewBookingMetrics creates booking metrics on the given provider.
// If provider is nil, it returns nil (no-op metrics).
func NewBookingMetrics(provider metric.MeterProvider) (*BookingMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(BookingMetricsMeterName)

	mutations, err := meter.Int64Counter(
		"reservations_booking_mutations",
		metric.WithDescription("Booking rows created, updated or cancelled by a channel"),
		metric.WithUnit("{booking}"),
	)
	if err != nil {
		return nil, err
	}

	enrichments, err := meter.Int64Counter(
		"reservations_enrichment_attempts",
		metric.WithDescription("Enrichment attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	accessCodes, err := meter.Int64Counter(
		"reservations_access_codes",
		metric.WithDescription("Access code operations on locks"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, err
	}

	return &BookingMetrics{
		mutations:   mutations,
		enrichments: enrichments,
		accessCodes: accessCodes,
	}, nil
}

// RecordMutations records the rows a channel sync created, updated and cancelled
func (m *BookingMetrics) RecordMutations(ctx context.Context, channel string, created, updated, cancelled int) {
	if m == nil || m.mutations == nil {
		return
	}
	for kind, n := range map[string]int{"created": created, "updated": updated, "cancelled": cancelled} {
		if n == 0 {
			continue
		}
		m.mutations.Add(ctx, int64(n), metric.WithAttributes(
			attribute.String("channel", channel),
			attribute.String("kind", kind),
		))
	}
}

// RecordEnrichment records the outcome of one enrichment attempt
func (m *BookingMetrics) RecordEnrichment(ctx context.Context, outcome string) {
	if m == nil || m.enrichments == nil {
		return
	}
	m.enrichments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordAccessCodes records codes issued, revoked, rolled back or failed
func (m *BookingMetrics) RecordAccessCodes(ctx context.Context, operation string, count int) {
	if m == nil || m.accessCodes == nil {
		return
	}
	m.accessCodes.Add(ctx, int64(count), metric.WithAttributes(attribute.String("operation", operation)))
}

// SyncMetrics holds the OpenTelemetry instruments for feed sync metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"reservations_sync_duration_seconds",
		metric.WithDescription("Duration of feed sync operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
	}, nil
}

// RecordSyncDuration records the duration of a sync operation for a feed
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, feed string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("feed", feed),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
