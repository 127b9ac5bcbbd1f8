// Package storetest holds the behavioural test suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/status"
	"github.com/pickarooms/reservations-server/internal/store"
)

// Factory returns an empty store for one test
type Factory func(t *testing.T) store.Store

var (
	baseTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	arrival  = civil.Date{Year: 2025, Month: time.June, Day: 10}
)

// NewBooking returns a confirmed booking fixture created at the given offset from a fixed base time
func NewBooking(resource, uid string, offset time.Duration) *booking.Booking {
	created := baseTime.Add(offset)
	return &booking.Booking{
		ID:          uuid.New(),
		ResourceID:  resource,
		Channel:     booking.ChannelBooking,
		ExternalUID: uid,
		Arrival:     arrival,
		Departure:   arrival.AddDays(2),
		Status:      booking.StatusConfirmed,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func insert(t *testing.T, s store.Store, bookings ...*booking.Booking) {
	t.Helper()
	err := s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, b := range bookings {
			if err := tx.InsertBooking(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func ids(bookings []*booking.Booking) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}

// Run executes the suite against stores created by newStore
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("booking_crud", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		b := NewBooking("room-1", "uid-1", 0)
		insert(t, s, b)

		got, err := s.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ResourceID, got.ResourceID)
		assert.Equal(t, b.Arrival, got.Arrival)
		assert.Equal(t, b.Departure, got.Departure)
		assert.Equal(t, booking.StatusConfirmed, got.Status)
		assert.True(t, b.CreatedAt.Equal(got.CreatedAt))
		assert.Nil(t, got.ContactProfileID)

		got.Reference = "1234567890"
		got.Status = booking.StatusCancelled
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.UpdateBooking(ctx, got)
		}))

		updated, err := s.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "1234567890", updated.Reference)
		assert.Equal(t, booking.StatusCancelled, updated.Status)

		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.DeleteBooking(ctx, b.ID)
		}))
		_, err = s.GetBooking(ctx, b.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)

		err = s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.DeleteBooking(ctx, b.ID)
		})
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})

	t.Run("confirmed_uid_is_unique", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		first := NewBooking("room-1", "uid-1", 0)
		insert(t, s, first)

		dup := NewBooking("room-1", "uid-1", time.Minute)
		err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.InsertBooking(ctx, dup)
		})
		require.ErrorIs(t, err, store.ErrConstraint)

		dup.Status = booking.StatusCancelled
		insert(t, s, dup)

		other := NewBooking("room-2", "uid-1", 2*time.Minute)
		insert(t, s, other)
	})

	t.Run("failed_transaction_is_discarded", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		b := NewBooking("room-1", "uid-1", 0)
		boom := errors.New("boom")

		err := s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if err := tx.InsertBooking(ctx, b); err != nil {
				return err
			}
			if _, err := tx.AppendEvent(ctx, booking.StatusChanged(b, booking.StatusPending, baseTime)); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.GetBooking(ctx, b.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)
		events, err := s.EventsAfter(ctx, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("list_bookings_filters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a := NewBooking("room-1", "uid-a", 0)
		a.Reference = "1111111111"
		b := NewBooking("room-2", "uid-b", time.Minute)
		c := NewBooking("room-1", "uid-c", 2*time.Minute)
		c.Status = booking.StatusCancelled
		c.Arrival = arrival.AddDays(5)
		c.Departure = arrival.AddDays(7)
		insert(t, s, c, b, a)

		all, err := s.ListBookings(ctx, booking.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID}, ids(all))

		byResource, err := s.ListBookings(ctx, booking.Filter{ResourceID: "room-1"})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, c.ID}, ids(byResource))

		confirmed, err := s.ListBookings(ctx, booking.Filter{Statuses: []booking.Status{booking.StatusConfirmed}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids(confirmed))

		noRef, err := s.ListBookings(ctx, booking.Filter{WithoutReference: true, WithoutProfile: true})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID, c.ID}, ids(noRef))

		byRef, err := s.ListBookings(ctx, booking.Filter{Reference: "1111111111", Arrival: &arrival})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID}, ids(byRef))

		later := arrival.AddDays(3)
		fromLater, err := s.ListBookings(ctx, booking.Filter{ArrivalFrom: &later})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c.ID}, ids(fromLater))

		before := arrival.AddDays(3)
		departing, err := s.ListBookings(ctx, booking.Filter{DepartureBefore: &before})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids(departing))

		byIDs, err := s.ListBookings(ctx, booking.Filter{IDs: []uuid.UUID{c.ID, a.ID}})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID, c.ID}, ids(byIDs))

		limited, err := s.ListBookings(ctx, booking.Filter{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID}, ids(limited))

		after := baseTime
		created, err := s.ListBookings(ctx, booking.Filter{CreatedAfter: &after})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID, c.ID}, ids(created))
	})

	t.Run("event_log_and_cursor", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		b := NewBooking("room-1", "uid-1", 0)
		insert(t, s, b)

		var seqs []int64
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			for i := 0; i < 3; i++ {
				seq, err := tx.AppendEvent(ctx, booking.StatusChanged(b, booking.StatusPending, baseTime))
				if err != nil {
					return err
				}
				seqs = append(seqs, seq)
			}
			return nil
		}))
		require.Len(t, seqs, 3)
		assert.Less(t, seqs[0], seqs[1])
		assert.Less(t, seqs[1], seqs[2])

		events, err := s.EventsAfter(ctx, seqs[0], 0)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, seqs[1], events[0].Seq)
		assert.Equal(t, booking.EventStatusChanged, events[0].Kind)
		assert.Equal(t, b.ID, events[0].BookingID)
		assert.Equal(t, booking.StatusPending, events[0].From)
		assert.Equal(t, booking.StatusConfirmed, events[0].To)

		limited, err := s.EventsAfter(ctx, 0, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, seqs[0], limited[0].Seq)

		cursor, err := s.GetCursor(ctx, "cancellations")
		require.NoError(t, err)
		assert.Zero(t, cursor)

		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.SetCursor(ctx, "cancellations", seqs[2])
		}))
		cursor, err = s.GetCursor(ctx, "cancellations")
		require.NoError(t, err)
		assert.Equal(t, seqs[2], cursor)
	})

	t.Run("profiles", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		profile := &booking.ContactProfile{
			ID:         uuid.New(),
			Reference:  "1234567890",
			Arrival:    arrival,
			FullName:   "Ada Lovelace",
			Code:       "4821",
			ValidFrom:  baseTime,
			ValidUntil: baseTime.Add(72 * time.Hour),
			Handles: []booking.CodeHandle{
				{ResourceID: "shared", LockID: 1, HandleID: 11, Shared: true},
				{ResourceID: "room-1", LockID: 2, HandleID: 22},
			},
			CreatedAt: baseTime,
		}
		b := NewBooking("room-1", "uid-1", 0)
		b.Reference = profile.Reference
		b.ContactProfileID = &profile.ID

		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if err := tx.SaveProfile(ctx, profile); err != nil {
				return err
			}
			return tx.InsertBooking(ctx, b)
		}))

		got, err := s.GetProfileByReference(ctx, "1234567890")
		require.NoError(t, err)
		assert.Equal(t, profile.ID, got.ID)
		assert.Equal(t, "4821", got.Code)
		assert.ElementsMatch(t, profile.Handles, got.Handles)
		shared, ok := got.SharedHandle()
		require.True(t, ok)
		assert.Equal(t, int64(11), shared.HandleID)

		linked, err := s.ListBookings(ctx, booking.Filter{ProfileID: &profile.ID})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID}, ids(linked))

		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.DeleteProfile(ctx, profile.ID)
		}))
		_, err = s.GetProfile(ctx, profile.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)

		unlinked, err := s.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Nil(t, unlinked.ContactProfileID)
	})

	t.Run("processed_messages", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		done, err := s.IsMessageProcessed(ctx, "msg-1")
		require.NoError(t, err)
		assert.False(t, done)

		for range 2 {
			require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
				return tx.MarkMessagesProcessed(ctx, []string{"msg-1", "msg-2"}, baseTime)
			}))
		}

		done, err = s.IsMessageProcessed(ctx, "msg-2")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("collisions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		c := &booking.Collision{
			ID:         uuid.New(),
			Arrival:    arrival,
			References: []string{"1111111111", "2222222222"},
			BookingIDs: []uuid.UUID{uuid.New(), uuid.New()},
			Status:     booking.CollisionOpen,
			CreatedAt:  baseTime,
			UpdatedAt:  baseTime,
		}
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.SaveCollision(ctx, c)
		}))

		open, err := s.ListOpenCollisions(ctx)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, c.References, open[0].References)
		assert.Equal(t, c.BookingIDs, open[0].BookingIDs)

		c.MarkResolved("1111111111", baseTime)
		c.MarkResolved("2222222222", baseTime)
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.SaveCollision(ctx, c)
		}))

		open, err = s.ListOpenCollisions(ctx)
		require.NoError(t, err)
		assert.Empty(t, open)

		got, err := s.GetCollision(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.CollisionResolved, got.Status)
		assert.Equal(t, []string{"1111111111", "2222222222"}, got.ResolvedReferences)
	})

	t.Run("logs_are_pruned", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		bookingID := uuid.New()

		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			for i := range 5 {
				at := baseTime.Add(time.Duration(i) * time.Hour)
				if err := tx.AppendAudit(ctx, booking.AuditEntry{
					ID: uuid.New(), At: at, Sender: "+34600000000", Command: "check", Method: "check",
				}); err != nil {
					return err
				}
				if err := tx.AppendAttempt(ctx, booking.AttemptEntry{
					ID: uuid.New(), At: at, BookingID: bookingID, Attempt: i + 1, Outcome: "none",
				}); err != nil {
					return err
				}
			}
			return nil
		}))

		audit, err := s.ListAudit(ctx, 2)
		require.NoError(t, err)
		require.Len(t, audit, 2)
		assert.True(t, audit[0].At.After(audit[1].At))

		var removed int
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			removed, err = tx.PruneLogs(ctx, baseTime.Add(time.Hour), 3)
			return err
		}))
		assert.Equal(t, 4, removed)

		audit, err = s.ListAudit(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, audit, 3)

		attempts, err := s.ListAttempts(ctx, bookingID)
		require.NoError(t, err)
		require.Len(t, attempts, 3)
		assert.Equal(t, 3, attempts[0].Attempt)
	})

	t.Run("checkin_flows_expire", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		live := &booking.CheckinFlow{
			ID: uuid.New(), Reference: "1234567890", Arrival: arrival, State: booking.FlowStarted,
			ExpiresAt: baseTime.Add(time.Hour), UpdatedAt: baseTime,
		}
		stale := &booking.CheckinFlow{
			ID: uuid.New(), Reference: "2234567890", Arrival: arrival, State: booking.FlowDetailsSubmitted,
			ExpiresAt: baseTime.Add(-time.Minute), UpdatedAt: baseTime,
		}
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			if err := tx.SaveCheckinFlow(ctx, live); err != nil {
				return err
			}
			return tx.SaveCheckinFlow(ctx, stale)
		}))

		var removed int
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			removed, err = tx.DeleteExpiredCheckinFlows(ctx, baseTime)
			return err
		}))
		assert.Equal(t, 1, removed)

		got, err := s.GetCheckinFlow(ctx, live.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.FlowStarted, got.State)
		_, err = s.GetCheckinFlow(ctx, stale.ID)
		assert.ErrorIs(t, err, booking.ErrNotFound)
	})

	t.Run("sync_status", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetSyncStatus(ctx, "room-1/booking")
		require.ErrorIs(t, err, booking.ErrNotFound)

		now := baseTime
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			return tx.SaveSyncStatus(ctx, "room-1/booking", &status.SyncStatus{
				Phase:        status.SyncPhaseComplete,
				LastSyncTime: &now,
				LastSyncHash: "abc",
				EventCount:   4,
			})
		}))

		got, err := s.GetSyncStatus(ctx, "room-1/booking")
		require.NoError(t, err)
		assert.Equal(t, status.SyncPhaseComplete, got.Phase)
		assert.Equal(t, "abc", got.LastSyncHash)
		assert.Equal(t, 4, got.EventCount)
		require.NotNil(t, got.LastSyncTime)
		assert.True(t, now.Equal(*got.LastSyncTime))
		assert.Nil(t, got.LastAttempt)

		all, err := s.ListSyncStatuses(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
