package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/archive"
	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/store"
)

// Outcome is the result of one attempt
type Outcome string

const (
	// OutcomeSkipped means the booking no longer needed a reference
	OutcomeSkipped Outcome = "skipped"
	// OutcomeEnriched means a single reference was adopted
	OutcomeEnriched Outcome = "enriched"
	// OutcomeCollision means competing references were handed to operators
	OutcomeCollision Outcome = "collision"
	// OutcomeNoMatch means no confirmation was found yet
	OutcomeNoMatch Outcome = "no_match"
	// OutcomeUnavailable means the archive could not be searched
	OutcomeUnavailable Outcome = "archive_unavailable"
	// OutcomeEscalated means the last attempt failed and operators were alerted
	OutcomeEscalated Outcome = "escalated"
)

// Final reports whether no further attempt should be scheduled
func (o Outcome) Final() bool {
	return o != OutcomeNoMatch && o != OutcomeUnavailable
}

// Result describes one attempt
type Result struct {
	Outcome Outcome
	// BookingIDs are the rows the attempt settled
	BookingIDs []uuid.UUID
	References []string
}

// Finder performs single enrichment attempts
type Finder struct {
	store      store.Store
	archive    archive.Client
	collisions CollisionHandler
	alerter    Alerter
	settings   Settings
	clock      clock.PassiveClock
}

// NewFinder creates a Finder
func NewFinder(
	s store.Store,
	a archive.Client,
	collisions CollisionHandler,
	alerter Alerter,
	settings Settings,
	c clock.PassiveClock,
) *Finder {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Finder{
		store:      s,
		archive:    a,
		collisions: collisions,
		alerter:    alerter,
		settings:   settings,
		clock:      c,
	}
}

// candidate is a reference found in the archive with the messages naming it
type candidate struct {
	reference  string
	messageIDs []string
}

// Attempt searches the archive for the reference of a booking. The booking
// is re-read first so that a row enriched in the meantime is left alone.
func (f *Finder) Attempt(ctx context.Context, id uuid.UUID, attempt int, last bool) (Result, error) {
	b, err := f.store.GetBooking(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	if err != nil {
		return Result{Outcome: OutcomeUnavailable}, err
	}
	if !b.NeedsReference() || b.Status != booking.StatusConfirmed {
		return f.finish(ctx, b, attempt, Result{Outcome: OutcomeSkipped}, nil)
	}

	unmatched, err := f.store.ListBookings(ctx, booking.Filter{
		Arrival:          &b.Arrival,
		Statuses:         []booking.Status{booking.StatusConfirmed},
		WithoutReference: true,
	})
	if err != nil {
		return Result{Outcome: OutcomeUnavailable}, err
	}

	limit, err := f.searchLimit(ctx, b, unmatched)
	if err != nil {
		return Result{Outcome: OutcomeUnavailable}, err
	}

	messages, err := f.archive.Search(ctx, archive.Query{
		Sender: f.settings.Sender,
		After:  f.clock.Now().Add(-f.settings.Lookback),
		Limit:  limit,
	})
	if err != nil {
		slog.Warn("Archive search failed", "booking_id", b.ID, "attempt", attempt, "error", err)
		result := Result{Outcome: OutcomeUnavailable}
		if last {
			return f.escalate(ctx, b, attempt, result)
		}
		return f.finish(ctx, b, attempt, result, nil)
	}

	candidates, err := f.candidates(ctx, b, messages)
	if err != nil {
		return Result{Outcome: OutcomeUnavailable}, err
	}

	ids := make([]uuid.UUID, 0, len(unmatched))
	for _, u := range unmatched {
		ids = append(ids, u.ID)
	}

	switch len(candidates) {
	case 0:
		result := Result{Outcome: OutcomeNoMatch}
		if last {
			return f.escalate(ctx, b, attempt, result)
		}
		return f.finish(ctx, b, attempt, result, nil)

	case 1:
		return f.adopt(ctx, b, attempt, candidates[0], ids)

	default:
		refs := make([]string, 0, len(candidates))
		var messageIDs []string
		for _, c := range candidates {
			refs = append(refs, c.reference)
			messageIDs = append(messageIDs, c.messageIDs...)
		}
		ambiguous := &booking.AmbiguousMatchError{Arrival: b.Arrival, References: refs}
		if err := f.collisions.OpenCollision(ctx, ambiguous, ids); err != nil {
			return Result{Outcome: OutcomeNoMatch}, fmt.Errorf("failed to hand over collision: %w", err)
		}
		slog.Warn("Enrichment collision", "booking_id", b.ID, "arrival", b.Arrival, "references", refs)
		result := Result{Outcome: OutcomeCollision, BookingIDs: ids, References: refs}
		return f.finish(ctx, b, attempt, result, messageIDs)
	}
}

// searchLimit widens the search when the date is already contested
func (f *Finder) searchLimit(ctx context.Context, b *booking.Booking, unmatched []*booking.Booking) (int, error) {
	if len(unmatched) > 1 {
		return f.settings.CollisionMaxResults, nil
	}
	open, err := f.store.ListOpenCollisions(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range open {
		if c.Arrival == b.Arrival {
			return f.settings.CollisionMaxResults, nil
		}
	}
	return f.settings.MaxResults, nil
}

// candidates collects the unprocessed confirmations for the booking's
// arrival date whose reference is not assigned yet
func (f *Finder) candidates(ctx context.Context, b *booking.Booking, messages []archive.Message) ([]candidate, error) {
	var result []candidate
	index := make(map[string]int)

	for _, m := range messages {
		conf, ok := archive.ParseSubject(m.Subject)
		if !ok || !conf.Identifies() || conf.Arrival != b.Arrival {
			continue
		}
		processed, err := f.store.IsMessageProcessed(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if processed {
			continue
		}
		if i, ok := index[conf.Reference]; ok {
			result[i].messageIDs = append(result[i].messageIDs, m.ID)
			continue
		}

		known, err := f.store.ListBookings(ctx, booking.Filter{
			Reference: conf.Reference,
			Arrival:   &b.Arrival,
			Limit:     1,
		})
		if err != nil {
			return nil, err
		}
		if len(known) > 0 {
			continue
		}
		index[conf.Reference] = len(result)
		result = append(result, candidate{reference: conf.Reference, messageIDs: []string{m.ID}})
	}
	return result, nil
}

// adopt assigns the only reference found to every unmatched row of the date
func (f *Finder) adopt(
	ctx context.Context,
	b *booking.Booking,
	attempt int,
	c candidate,
	ids []uuid.UUID,
) (Result, error) {
	now := f.clock.Now()
	var adopted []uuid.UUID
	err := f.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		adopted = adopted[:0]
		for _, id := range ids {
			row, err := tx.GetBooking(ctx, id)
			if errors.Is(err, booking.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !row.NeedsReference() || row.Status != booking.StatusConfirmed {
				continue
			}
			row.Reference = c.reference
			row.UpdatedAt = now
			if err := tx.UpdateBooking(ctx, row); err != nil {
				return err
			}
			adopted = append(adopted, row.ID)
		}
		if err := tx.MarkMessagesProcessed(ctx, c.messageIDs, now); err != nil {
			return err
		}
		return tx.AppendAttempt(ctx, attemptEntry(b.ID, attempt, now, OutcomeEnriched, []string{c.reference}))
	})
	if err != nil {
		return Result{Outcome: OutcomeNoMatch}, fmt.Errorf("failed to adopt reference %s: %w", c.reference, err)
	}

	slog.Info("Booking enriched from archive",
		"booking_id", b.ID,
		"reference", c.reference,
		"arrival", b.Arrival,
		"rows", len(adopted),
		"attempt", attempt)
	f.markRead(ctx, c.messageIDs)
	return Result{Outcome: OutcomeEnriched, BookingIDs: adopted, References: []string{c.reference}}, nil
}

func (f *Finder) escalate(ctx context.Context, b *booking.Booking, attempt int, result Result) (Result, error) {
	body := fmt.Sprintf(
		"No confirmation found for the %s booking in %s arriving %s after %d attempts. "+
			"Reply with the booking number to assign it.",
		b.Channel, b.ResourceID, b.Arrival, attempt)
	if err := f.alerter.Alert(ctx, body); err != nil {
		slog.Error("Failed to alert operators about unmatched booking", "booking_id", b.ID, "error", err)
	}
	result.Outcome = OutcomeEscalated
	return f.finish(ctx, b, attempt, result, nil)
}

// finish records the attempt, marking messageIDs processed in the same transaction
func (f *Finder) finish(
	ctx context.Context,
	b *booking.Booking,
	attempt int,
	result Result,
	messageIDs []string,
) (Result, error) {
	now := f.clock.Now()
	err := f.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if len(messageIDs) > 0 {
			if err := tx.MarkMessagesProcessed(ctx, messageIDs, now); err != nil {
				return err
			}
		}
		return tx.AppendAttempt(ctx, attemptEntry(b.ID, attempt, now, result.Outcome, result.References))
	})
	if err != nil {
		return result, fmt.Errorf("failed to record enrichment attempt: %w", err)
	}
	f.markRead(ctx, messageIDs)
	return result, nil
}

// markRead flags consumed messages in the mailbox. Failures only cost a
// repeated skip since processed messages are tracked locally.
func (f *Finder) markRead(ctx context.Context, messageIDs []string) {
	for _, id := range messageIDs {
		if err := f.archive.MarkRead(ctx, id); err != nil {
			slog.Warn("Failed to mark archive message read", "message_id", id, "error", err)
		}
	}
}

func attemptEntry(bookingID uuid.UUID, attempt int, at time.Time, outcome Outcome, refs []string) booking.AttemptEntry {
	return booking.AttemptEntry{
		ID:         uuid.New(),
		At:         at,
		BookingID:  bookingID,
		Attempt:    attempt,
		Outcome:    string(outcome),
		References: refs,
	}
}
