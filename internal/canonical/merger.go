// Package canonical merges channel updates into the canonical booking store.
//
// A calendar feed only knows its own entries, so every update is matched
// against existing rows before anything is written:
//
//  1. an authoritative reference matches (reference, resource, arrival),
//     which lets a reference-bearing entry adopt a reference-less row
//  2. otherwise the channel-local uid matches (channel, uid)
//  3. otherwise a new row is created
//
// Dates, status and the raw snapshot follow the channel. The reference and
// display name are adopt-only and never blanked.
package canonical

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/feed"
	"github.com/pickarooms/reservations-server/internal/store"
)

// Result summarizes one merge
type Result struct {
	Created   int
	Updated   int
	Cancelled int
	Unchanged int
	Skipped   int
	// NewUnenriched holds the ids of created rows that still need a reference
	NewUnenriched []uuid.UUID
}

// Mutations returns the number of rows written by the merge
func (r *Result) Mutations() int {
	return r.Created + r.Updated + r.Cancelled
}

// Option configures a Merger
type Option func(*Merger)

// WithClock sets the clock used for timestamps
func WithClock(c clock.PassiveClock) Option {
	return func(m *Merger) {
		m.clock = c
	}
}

// WithDepartureMatch makes reference matching also require equal departure dates
func WithDepartureMatch(required bool) Option {
	return func(m *Merger) {
		m.requireDepartureMatch = required
	}
}

// Merger applies calendar feed contents to the store
type Merger struct {
	store                 store.Store
	clock                 clock.PassiveClock
	requireDepartureMatch bool
}

// NewMerger creates a Merger over s
func NewMerger(s store.Store, opts ...Option) *Merger {
	m := &Merger{
		store: s,
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyFeed merges the decoded feed of one (resource, channel) pair in a
// single transaction. Confirmed rows whose uid is no longer published and
// whose stay has not ended by today are cancelled, enriched or not.
func (m *Merger) ApplyFeed(
	ctx context.Context,
	resourceID string,
	channel booking.Channel,
	parsed *feed.Result,
	today civil.Date,
) (*Result, error) {
	var result *Result
	err := m.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		result = &Result{Skipped: len(parsed.Skipped)}
		seen := make(map[string]bool, len(parsed.Events)+len(parsed.SkippedUIDs))
		for _, uid := range parsed.SkippedUIDs {
			seen[uid] = true
		}

		for i := range parsed.Events {
			event := &parsed.Events[i]
			seen[event.UID] = true
			if err := m.upsert(ctx, tx, resourceID, channel, event, result); err != nil {
				return fmt.Errorf("failed to merge event %s: %w", event.UID, err)
			}
		}

		return m.cancelDisappeared(ctx, tx, resourceID, channel, seen, today, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Feed merged",
		"resource", resourceID,
		"channel", channel,
		"created", result.Created,
		"updated", result.Updated,
		"cancelled", result.Cancelled,
		"unchanged", result.Unchanged,
		"skipped", result.Skipped)
	return result, nil
}

func (m *Merger) upsert(
	ctx context.Context,
	tx store.Tx,
	resourceID string,
	channel booking.Channel,
	event *feed.Event,
	result *Result,
) error {
	existing, err := m.match(ctx, tx, resourceID, channel, event)
	if err != nil {
		return err
	}

	now := m.clock.Now()
	if existing == nil {
		b := &booking.Booking{
			ID:          uuid.New(),
			ResourceID:  resourceID,
			Channel:     channel,
			ExternalUID: event.UID,
			Reference:   event.Reference,
			DisplayName: event.Summary,
			Arrival:     event.Start,
			Departure:   event.End,
			Status:      event.Status,
			RawSnapshot: event.Raw,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		result.Created++
		if b.NeedsReference() && b.Status == booking.StatusConfirmed {
			result.NewUnenriched = append(result.NewUnenriched, b.ID)
		}
		return nil
	}

	updated := existing.Clone()
	updated.Arrival = event.Start
	updated.Departure = event.End
	updated.RawSnapshot = event.Raw
	updated.Reference = booking.AdoptReference(existing.Reference, event.Reference)
	updated.DisplayName = booking.AdoptDisplayName(existing.DisplayName, event.Summary)
	if existing.ExternalUID == "" {
		free, err := m.uidIsFree(ctx, tx, resourceID, channel, event.UID, existing.ID)
		if err != nil {
			return err
		}
		if free {
			updated.Channel = channel
			updated.ExternalUID = event.UID
		}
	}
	// A row cancelled in favour of a spreadsheet reference stays cancelled
	// until the spreadsheet restores it.
	if existing.SupersededBy == "" && booking.CanTransition(existing.Status, event.Status, existing.IsEnriched()) {
		updated.Status = event.Status
	}

	if sameContent(existing, updated) {
		result.Unchanged++
		return nil
	}

	updated.UpdatedAt = now
	if err := tx.UpdateBooking(ctx, updated); err != nil {
		return err
	}
	if updated.Status != existing.Status {
		if _, err := tx.AppendEvent(ctx, booking.StatusChanged(updated, existing.Status, now)); err != nil {
			return err
		}
		if updated.Status == booking.StatusCancelled {
			result.Cancelled++
			return nil
		}
	}
	result.Updated++
	return nil
}

// match returns the row an event updates, or nil when a new row is needed
func (m *Merger) match(
	ctx context.Context,
	tx store.Tx,
	resourceID string,
	channel booking.Channel,
	event *feed.Event,
) (*booking.Booking, error) {
	if booking.IsAuthoritativeReference(event.Reference) {
		filter := booking.Filter{
			Reference:  event.Reference,
			ResourceID: resourceID,
			Arrival:    &event.Start,
		}
		if m.requireDepartureMatch {
			filter.Departure = &event.End
		}
		candidates, err := tx.ListBookings(ctx, filter)
		if err != nil {
			return nil, err
		}
		if b := preferConfirmed(candidates); b != nil {
			return b, nil
		}
	}

	candidates, err := tx.ListBookings(ctx, booking.Filter{
		ResourceID:  resourceID,
		Channel:     channel,
		ExternalUID: event.UID,
	})
	if err != nil {
		return nil, err
	}
	return preferConfirmed(candidates), nil
}

// uidIsFree reports whether no other confirmed row holds the channel uid
func (*Merger) uidIsFree(
	ctx context.Context,
	tx store.Tx,
	resourceID string,
	channel booking.Channel,
	uid string,
	self uuid.UUID,
) (bool, error) {
	holders, err := tx.ListBookings(ctx, booking.Filter{
		ResourceID:  resourceID,
		Channel:     channel,
		ExternalUID: uid,
		Statuses:    []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return false, err
	}
	return !slices.ContainsFunc(holders, func(b *booking.Booking) bool { return b.ID != self }), nil
}

func (m *Merger) cancelDisappeared(
	ctx context.Context,
	tx store.Tx,
	resourceID string,
	channel booking.Channel,
	seen map[string]bool,
	today civil.Date,
	result *Result,
) error {
	active, err := tx.ListBookings(ctx, booking.Filter{
		ResourceID: resourceID,
		Channel:    channel,
		Statuses:   []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return err
	}

	now := m.clock.Now()
	for _, b := range active {
		if b.ExternalUID == "" || seen[b.ExternalUID] || b.Departure.Before(today) {
			continue
		}
		from := b.Status
		b.Status = booking.StatusCancelled
		b.UpdatedAt = now
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(ctx, booking.StatusChanged(b, from, now)); err != nil {
			return err
		}
		slog.Info("Booking disappeared from feed, cancelled",
			"booking_id", b.ID,
			"resource", resourceID,
			"channel", channel,
			"reference", b.Reference)
		result.Cancelled++
	}
	return nil
}

// preferConfirmed picks the confirmed candidate, falling back to the newest row
func preferConfirmed(candidates []*booking.Booking) *booking.Booking {
	for _, b := range candidates {
		if b.Status == booking.StatusConfirmed {
			return b
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[len(candidates)-1]
}

// sameContent compares the fields a merge can change
func sameContent(a, b *booking.Booking) bool {
	return a.Channel == b.Channel &&
		a.ExternalUID == b.ExternalUID &&
		a.Reference == b.Reference &&
		a.DisplayName == b.DisplayName &&
		a.Arrival == b.Arrival &&
		a.Departure == b.Departure &&
		a.Status == b.Status &&
		a.RawSnapshot == b.RawSnapshot
}
