package spreadsheet

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/canonical"
	"github.com/pickarooms/reservations-server/internal/feed"
	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/store/inmemory"
)

var (
	now   = time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC)
	june1 = civil.Date{Year: 2025, Month: time.June, Day: 1}

	unitTypes = map[string]string{
		"room 1": "room-1",
		"room 2": "room-2",
		"room 3": "room-3",
	}
)

func newReconciler(t *testing.T) (*Reconciler, *inmemory.Store) {
	t.Helper()
	s := inmemory.New()
	return NewReconciler(s, unitTypes, WithClock(testclock.NewFakePassiveClock(now))), s
}

func row(ref, guest string, arrival civil.Date, nights int, unitType string, status RowStatus) Row {
	return Row{
		Reference: ref,
		GuestName: guest,
		Arrival:   arrival,
		Departure: arrival.AddDays(nights),
		UnitType:  unitType,
		Status:    status,
	}
}

func insert(t *testing.T, s store.Store, b *booking.Booking) *booking.Booking {
	t.Helper()
	b.ID = uuid.New()
	b.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.InsertBooking(ctx, b)
	}))
	return b
}

func bookings(t *testing.T, s store.Store, filter booking.Filter) []*booking.Booking {
	t.Helper()
	result, err := s.ListBookings(context.Background(), filter)
	require.NoError(t, err)
	return result
}

func resourcesOf(rows []*booking.Booking) []string {
	var ids []string
	for _, b := range rows {
		ids = append(ids, b.ResourceID)
	}
	return ids
}

func TestReconcileMultiResourceAdoptsSkeleton(t *testing.T) {
	t.Parallel()

	r, s := newReconciler(t)
	merger := canonical.NewMerger(s, canonical.WithClock(testclock.NewFakePassiveClock(now)))

	_, err := merger.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
		Events: []feed.Event{{
			UID:     "uid-1",
			Summary: "CLOSED - Not available",
			Start:   june1,
			End:     june1.AddDays(2),
			Status:  booking.StatusConfirmed,
		}},
	}, civil.DateOf(now))
	require.NoError(t, err)
	skeleton := bookings(t, s, booking.Filter{ResourceID: "room-1"})
	require.Len(t, skeleton, 1)

	report, err := r.Reconcile(context.Background(), &Sheet{Rows: []Row{
		row("1234567890", "Jane Doe", june1, 2, "Room 1, Room 2", RowOK),
	}}, "operator")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.MultiResource)

	rows := bookings(t, s, booking.Filter{Reference: "1234567890"})
	require.Len(t, rows, 2)
	assert.ElementsMatch(t, []string{"room-1", "room-2"}, resourcesOf(rows))
	for _, b := range rows {
		assert.Equal(t, booking.StatusConfirmed, b.Status)
		assert.Equal(t, "Jane Doe", b.DisplayName)
	}
	adopted, err := s.GetBooking(context.Background(), skeleton[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", adopted.Reference)
	assert.Equal(t, "uid-1", adopted.ExternalUID)

	// The feed keeps publishing the entry without a reference
	res, err := merger.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
		Events: []feed.Event{{
			UID:     "uid-1",
			Summary: "CLOSED - Not available",
			Start:   june1,
			End:     june1.AddDays(2),
			Status:  booking.StatusConfirmed,
		}},
	}, civil.DateOf(now))
	require.NoError(t, err)
	assert.Zero(t, res.Mutations())
	adopted, err = s.GetBooking(context.Background(), skeleton[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", adopted.Reference)
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	r, s := newReconciler(t)
	insert(t, s, &booking.Booking{
		ResourceID: "room-3",
		Channel:    booking.ChannelBooking,
		Reference:  "9999999999",
		Arrival:    june1,
		Departure:  june1.AddDays(2),
		Status:     booking.StatusConfirmed,
	})
	sheet := &Sheet{Rows: []Row{
		row("1234567890", "Jane Doe", june1, 2, "Room 1, Room 2", RowOK),
		row("2234567890", "John Roe", june1.AddDays(3), 1, "Room 3", RowGuestCancelled),
		row("3234567890", "Ann Poe", june1, 4, "Room 3", RowOK),
	}}

	first, err := r.Reconcile(context.Background(), sheet, "operator")
	require.NoError(t, err)
	assert.NotZero(t, first.Mutations())
	snapshot := bookings(t, s, booking.Filter{})
	events, err := s.EventsAfter(context.Background(), 0, 0)
	require.NoError(t, err)

	second, err := r.Reconcile(context.Background(), sheet, "operator")
	require.NoError(t, err)
	assert.Zero(t, second.Mutations())
	assert.Equal(t, 4, second.Unchanged)
	assert.Equal(t, snapshot, bookings(t, s, booking.Filter{}))

	after, err := s.EventsAfter(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, events, after)

	audit, err := s.ListAudit(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, audit, 2)
	assert.Equal(t, AuditMethod, audit[0].Method)
	assert.Equal(t, "operator", audit[0].Sender)
}

func TestReconcileRestoresVictim(t *testing.T) {
	t.Parallel()

	r, s := newReconciler(t)
	victim := insert(t, s, &booking.Booking{
		ResourceID:  "room-1",
		Channel:     booking.ChannelBooking,
		ExternalUID: "uid-victim",
		Reference:   "5555555555",
		Arrival:     june1,
		Departure:   june1.AddDays(2),
		Status:      booking.StatusConfirmed,
	})

	// Wrong export: the new booking is placed in room 1
	report, err := r.Reconcile(context.Background(), &Sheet{Rows: []Row{
		row("1234567890", "Jane Doe", june1, 2, "Room 1", RowOK),
	}}, "operator")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Superseded)
	assert.Equal(t, 1, report.Created)

	got, err := s.GetBooking(context.Background(), victim.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
	assert.Equal(t, "1234567890", got.SupersededBy)

	// Corrected export moves it to room 2
	report, err = r.Reconcile(context.Background(), &Sheet{Rows: []Row{
		row("1234567890", "Jane Doe", june1, 2, "Room 2", RowOK),
	}}, "operator")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Restored)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "removed from room-1")

	got, err = s.GetBooking(context.Background(), victim.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)
	assert.Empty(t, got.SupersededBy)

	rows := bookings(t, s, booking.Filter{Reference: "1234567890"})
	assert.Equal(t, []string{"room-2"}, resourcesOf(rows))

	events, err := s.EventsAfter(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, booking.StatusCancelled, events[0].To)
	assert.Equal(t, booking.StatusConfirmed, events[1].To)
}

func TestReconcileKeepsEnrichedRows(t *testing.T) {
	t.Parallel()

	r, s := newReconciler(t)
	profile := uuid.New()
	enriched := insert(t, s, &booking.Booking{
		ResourceID:       "room-1",
		Channel:          booking.ChannelSpreadsheet,
		Reference:        "1234567890",
		Arrival:          june1,
		Departure:        june1.AddDays(2),
		Status:           booking.StatusConfirmed,
		ContactProfileID: &profile,
	})

	report, err := r.Reconcile(context.Background(), &Sheet{Rows: []Row{
		row("1234567890", "Jane Doe", june1, 2, "Room 2", RowOK),
	}}, "operator")
	require.NoError(t, err)
	assert.Zero(t, report.Deleted)
	require.NotEmpty(t, report.Warnings)

	_, err = s.GetBooking(context.Background(), enriched.ID)
	require.NoError(t, err)
}

func TestReconcileStatusTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		current    booking.Status
		rowStatus  RowStatus
		wantStatus booking.Status
		wantEvents int
	}{
		{name: "ok resurrects cancelled row", current: booking.StatusCancelled, rowStatus: RowOK,
			wantStatus: booking.StatusConfirmed, wantEvents: 1},
		{name: "guest cancellation cancels", current: booking.StatusConfirmed, rowStatus: RowGuestCancelled,
			wantStatus: booking.StatusCancelled, wantEvents: 1},
		{name: "ok keeps confirmed", current: booking.StatusConfirmed, rowStatus: RowOK,
			wantStatus: booking.StatusConfirmed, wantEvents: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, s := newReconciler(t)
			b := insert(t, s, &booking.Booking{
				ResourceID:  "room-1",
				Channel:     booking.ChannelSpreadsheet,
				Reference:   "1234567890",
				DisplayName: "Jane Doe",
				Arrival:     june1,
				Departure:   june1.AddDays(2),
				Status:      tt.current,
			})

			_, err := r.Reconcile(context.Background(), &Sheet{Rows: []Row{
				row("1234567890", "Jane Doe", june1, 2, "Room 1", tt.rowStatus),
			}}, "operator")
			require.NoError(t, err)

			got, err := s.GetBooking(context.Background(), b.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)

			events, err := s.EventsAfter(context.Background(), 0, 0)
			require.NoError(t, err)
			assert.Len(t, events, tt.wantEvents)
		})
	}
}

func TestReconcileFiltersRows(t *testing.T) {
	t.Parallel()

	r, s := newReconciler(t)
	report, err := r.Reconcile(context.Background(), &Sheet{
		Rows: []Row{
			row("1111111111", "Past Guest", civil.DateOf(now).AddDays(-1), 2, "Room 1", RowOK),
			row("2222222222", "Hotel Cancelled", june1, 2, "Room 1", RowCancelled),
			row("3333333333", "Unknown Room", june1, 2, "Room 1, Penthouse", RowOK),
			row("4444444444", "Today", civil.DateOf(now), 1, "Room 2", RowOK),
		},
		Skipped: []error{&booking.MalformedInputError{Source: source, Reason: "line 9: missing booking number"}},
	}, "operator")
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 1, report.Ignored)
	assert.Equal(t, 1, report.Created)
	assert.Len(t, report.Skipped, 2)

	rows := bookings(t, s, booking.Filter{})
	require.Len(t, rows, 1)
	assert.Equal(t, "4444444444", rows[0].Reference)
	assert.Equal(t, booking.ChannelSpreadsheet, rows[0].Channel)
	assert.Empty(t, rows[0].ExternalUID)
}
