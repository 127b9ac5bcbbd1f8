// Package cancellation rolls back the access codes of bookings cancelled
// before the guest arrived. It consumes StatusChanged events from the
// booking event log after a persisted cursor.
package cancellation

//go:generate mockgen -destination=mocks/mock_handler.go -package=mocks -source=handler.go Revoker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/store"
)

const (
	// Consumer is the name of the event log cursor owned by the handler
	Consumer = "cancellation"

	defaultBatchSize = 100
)

// Revoker removes the access codes of a contact profile
type Revoker interface {
	RevokeProfile(ctx context.Context, profileID uuid.UUID) error
}

// Result summarizes one drain of the event log
type Result struct {
	Events          int
	ProfilesDeleted int
	Cursor          int64
}

// Option configures a Handler
type Option func(*Handler)

// WithClock sets the clock used for events that carry no timestamp
func WithClock(c clock.PassiveClock) Option {
	return func(h *Handler) {
		h.clock = c
	}
}

// WithLocation sets the operating timezone
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		h.location = loc
	}
}

// WithBatchSize sets how many events are read per store round trip
func WithBatchSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.batch = n
		}
	}
}

// Handler applies the pre-arrival cancellation rule
type Handler struct {
	store    store.Store
	revoker  Revoker
	clock    clock.PassiveClock
	location *time.Location
	batch    int
}

// New creates a cancellation handler
func New(s store.Store, revoker Revoker, opts ...Option) *Handler {
	h := &Handler{
		store:    s,
		revoker:  revoker,
		clock:    clock.RealClock{},
		location: time.UTC,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Drain processes every event appended since the last drain. The cursor
// advances past each handled event, so a failure resumes where it stopped.
func (h *Handler) Drain(ctx context.Context) (Result, error) {
	cursor, err := h.store.GetCursor(ctx, Consumer)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read cursor: %w", err)
	}
	result := Result{Cursor: cursor}

	for {
		events, err := h.store.EventsAfter(ctx, result.Cursor, h.batch)
		if err != nil {
			return result, fmt.Errorf("failed to read events: %w", err)
		}
		for _, event := range events {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			deleted, err := h.handle(ctx, event)
			if err != nil {
				return result, err
			}
			result.Events++
			result.Cursor = event.Seq
			if deleted {
				result.ProfilesDeleted++
			}
		}
		if len(events) < h.batch {
			return result, nil
		}
	}
}

// handle applies the rule to one event and advances the cursor in the same
// transaction as the profile deletion
func (h *Handler) handle(ctx context.Context, event booking.Event) (bool, error) {
	profileID, b, err := h.target(ctx, event)
	if err != nil {
		return false, err
	}

	if profileID != nil {
		slog.Info("Revoking access codes of booking cancelled before arrival",
			"booking_id", b.ID,
			"reference", b.Reference,
			"resource", b.ResourceID,
			"arrival", b.Arrival.String())
		if err := h.revoker.RevokeProfile(ctx, *profileID); err != nil {
			slog.Error("Failed to revoke some access codes",
				"booking_id", b.ID,
				"profile_id", *profileID,
				"error", err)
		}
	}

	err = h.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if profileID != nil {
			if err := tx.DeleteProfile(ctx, *profileID); err != nil && !errors.Is(err, booking.ErrNotFound) {
				return err
			}
		}
		return tx.SetCursor(ctx, Consumer, event.Seq)
	})
	if err != nil {
		return false, fmt.Errorf("failed to handle event %d: %w", event.Seq, err)
	}
	return profileID != nil, nil
}

// cancelledOn is the operating-timezone date the cancellation was recorded.
// Drains lag behind the write, so the drain time cannot decide the rule.
// Events without a timestamp fall back to the clock.
func (h *Handler) cancelledOn(event booking.Event) civil.Date {
	at := event.At
	if at.IsZero() {
		at = h.clock.Now()
	}
	return civil.DateOf(at.In(h.location))
}

// target returns the profile to delete for an event, or nil when the event
// needs no action
func (h *Handler) target(ctx context.Context, event booking.Event) (*uuid.UUID, *booking.Booking, error) {
	if event.Kind != booking.EventStatusChanged || event.To != booking.StatusCancelled {
		return nil, nil, nil
	}
	b, err := h.store.GetBooking(ctx, event.BookingID)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load booking: %w", err)
	}
	// restored since the event was written
	if b.Status != booking.StatusCancelled {
		return nil, b, nil
	}
	if b.ContactProfileID == nil {
		return nil, b, nil
	}
	if !h.cancelledOn(event).Before(b.Arrival) {
		slog.Info("Keeping access codes of booking cancelled on or after arrival",
			"booking_id", b.ID,
			"reference", b.Reference,
			"arrival", b.Arrival.String(),
			"cancelled_at", event.At)
		return nil, b, nil
	}
	return b.ContactProfileID, b, nil
}
