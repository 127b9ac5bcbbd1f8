package commands

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/store"
)

// Alerter notifies operators
type Alerter interface {
	Alert(ctx context.Context, body string) error
}

// Resolver records collisions and asks operators to resolve them
type Resolver struct {
	store     store.Store
	resources Resources
	alerter   Alerter
	clock     clock.PassiveClock
}

// NewResolver creates a collision resolver
func NewResolver(s store.Store, resources Resources, alerter Alerter, c clock.PassiveClock) *Resolver {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Resolver{store: s, resources: resources, alerter: alerter, clock: c}
}

// OpenCollision records the competing references of an arrival date, merging
// into an open collision of the same date, and alerts operators with the
// candidates and the reply grammar. Reopening an identical collision is a
// no-op apart from the repeated alert.
func (r *Resolver) OpenCollision(ctx context.Context, amb *booking.AmbiguousMatchError, bookingIDs []uuid.UUID) error {
	var collision *booking.Collision
	var rows []*booking.Booking
	err := r.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		open, err := tx.ListOpenCollisions(ctx)
		if err != nil {
			return err
		}
		now := r.clock.Now()
		collision = nil
		for _, c := range open {
			if c.Arrival == amb.Arrival {
				collision = c
				break
			}
		}
		if collision == nil {
			collision = &booking.Collision{
				ID:        uuid.New(),
				Arrival:   amb.Arrival,
				Status:    booking.CollisionOpen,
				CreatedAt: now,
			}
		}
		collision.References = union(collision.References, amb.References)
		collision.BookingIDs = union(collision.BookingIDs, bookingIDs)
		collision.UpdatedAt = now
		if err := tx.SaveCollision(ctx, collision); err != nil {
			return err
		}

		rows = nil
		if len(collision.BookingIDs) > 0 {
			rows, err = tx.ListBookings(ctx, booking.Filter{IDs: collision.BookingIDs})
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record collision for %s: %w", amb.Arrival, err)
	}

	slog.Warn("Collision opened",
		"collision_id", collision.ID,
		"arrival", collision.Arrival,
		"references", collision.References)

	if err := r.alerter.Alert(ctx, r.alertBody(collision, rows)); err != nil {
		return fmt.Errorf("failed to alert operators about collision %s: %w", collision.ID, err)
	}
	return nil
}

func (r *Resolver) alertBody(c *booking.Collision, rows []*booking.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "COLLISION %s: %d confirmations for %d unmatched bookings.\n",
		formatDate(c.Arrival), len(c.References), len(rows))
	b.WriteString("Candidates:")
	for _, ref := range c.References {
		b.WriteString(" #" + ref)
	}

	var rooms []string
	for _, row := range rows {
		if res, ok := r.resources.ResourceByID(row.ResourceID); ok {
			rooms = append(rooms, fmt.Sprintf("%d (%s, %d nights)", res.Number, res.Name, row.Nights()))
			continue
		}
		rooms = append(rooms, fmt.Sprintf("%s (%d nights)", row.ResourceID, row.Nights()))
	}
	sort.Strings(rooms)
	if len(rooms) > 0 {
		b.WriteString("\nRooms: " + strings.Join(rooms, ", "))
	}

	example := "REF"
	if len(c.References) > 0 {
		example = c.References[0]
	}
	fmt.Fprintf(&b, "\nReply REF: ROOM-NIGHTS, one line per booking, e.g. %s: 1-2", example)
	return b.String()
}

func union[T comparable](a, b []T) []T {
	out := slices.Clone(a)
	for _, v := range b {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
