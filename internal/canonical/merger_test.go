package canonical

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
	"github.com/pickarooms/reservations-server/internal/feed"
	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/store/inmemory"
)

var (
	now   = time.Date(2025, time.May, 20, 8, 0, 0, 0, time.UTC)
	today = civil.DateOf(now)
	june1 = civil.Date{Year: 2025, Month: time.June, Day: 1}
)

func event(uid, reference string, start civil.Date, nights int) feed.Event {
	summary := "CLOSED - Not available"
	if reference != "" {
		summary = "Reservation " + reference
	}
	return feed.Event{
		UID:       uid,
		Summary:   summary,
		Reference: reference,
		Start:     start,
		End:       start.AddDays(nights),
		Status:    booking.StatusConfirmed,
		Raw:       "UID:" + uid,
	}
}

func newMerger(t *testing.T, opts ...Option) (*Merger, *inmemory.Store) {
	t.Helper()
	s := inmemory.New()
	opts = append([]Option{WithClock(testclock.NewFakePassiveClock(now))}, opts...)
	return NewMerger(s, opts...), s
}

func insert(t *testing.T, s store.Store, b *booking.Booking) {
	t.Helper()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now.Add(-time.Hour)
	}
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.InsertBooking(ctx, b)
	}))
}

func all(t *testing.T, s store.Store, filter booking.Filter) []*booking.Booking {
	t.Helper()
	result, err := s.ListBookings(context.Background(), filter)
	require.NoError(t, err)
	return result
}

func TestApplyFeedCreatesRows(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
		Events: []feed.Event{
			event("uid-1", "", june1, 2),
			event("uid-2", "5012345678", june1.AddDays(5), 3),
		},
	}, today)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	require.Len(t, res.NewUnenriched, 1)

	rows := all(t, s, booking.Filter{ResourceID: "room-1"})
	require.Len(t, rows, 2)
	byUID := map[string]*booking.Booking{}
	for _, b := range rows {
		byUID[b.ExternalUID] = b
	}
	assert.Equal(t, res.NewUnenriched[0], byUID["uid-1"].ID)
	assert.Equal(t, "5012345678", byUID["uid-2"].Reference)
	assert.Equal(t, booking.StatusConfirmed, byUID["uid-2"].Status)
	assert.Equal(t, 3, byUID["uid-2"].Nights())
}

func TestApplyFeedIsIdempotent(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	parsed := &feed.Result{Events: []feed.Event{
		event("uid-1", "", june1, 2),
		event("uid-2", "5012345678", june1.AddDays(5), 3),
	}}

	_, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, parsed, today)
	require.NoError(t, err)
	before := all(t, s, booking.Filter{})

	res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, parsed, today)
	require.NoError(t, err)

	assert.Zero(t, res.Mutations())
	assert.Equal(t, 2, res.Unchanged)
	assert.Equal(t, before, all(t, s, booking.Filter{}))

	events, err := s.EventsAfter(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestApplyFeedNeverBlanksReference(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	insert(t, s, &booking.Booking{
		ResourceID:  "room-1",
		Channel:     booking.ChannelBooking,
		ExternalUID: "uid-1",
		Reference:   "5012345678",
		DisplayName: "Jane Doe",
		Arrival:     june1,
		Departure:   june1.AddDays(2),
		Status:      booking.StatusConfirmed,
	})

	blank := event("uid-1", "", june1, 3)
	blank.Summary = ""
	shorter := event("uid-1", "50123", june1, 3)
	shorter.Summary = "Jane"

	for _, ev := range []feed.Event{blank, shorter} {
		_, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
			Events: []feed.Event{ev},
		}, today)
		require.NoError(t, err)

		rows := all(t, s, booking.Filter{})
		require.Len(t, rows, 1)
		assert.Equal(t, "5012345678", rows[0].Reference)
		assert.Equal(t, "Jane Doe", rows[0].DisplayName)
		assert.Equal(t, june1.AddDays(3), rows[0].Departure)
	}
}

func TestApplyFeedLengthensReference(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	row := &booking.Booking{
		ResourceID:  "room-1",
		Channel:     booking.ChannelBooking,
		ExternalUID: "uid-1",
		Reference:   "12345",
		DisplayName: "J Doe",
		Arrival:     june1,
		Departure:   june1.AddDays(2),
		Status:      booking.StatusConfirmed,
	}
	insert(t, s, row)

	longer := event("uid-1", "5012345678", june1, 2)
	longer.Summary = "Jane Doe"
	res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
		Events: []feed.Event{longer},
	}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	got, err := s.GetBooking(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, "5012345678", got.Reference)
	assert.Equal(t, "Jane Doe", got.DisplayName)
}

func TestApplyFeedAdoptsReferenceRow(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	spreadsheetRow := &booking.Booking{
		ResourceID: "room-1",
		Channel:    booking.ChannelSpreadsheet,
		Reference:  "5012345678",
		Arrival:    june1,
		Departure:  june1.AddDays(2),
		Status:     booking.StatusConfirmed,
	}
	insert(t, s, spreadsheetRow)

	res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
		Events: []feed.Event{event("uid-1", "5012345678", june1, 2)},
	}, today)
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Equal(t, 1, res.Updated)

	got, err := s.GetBooking(context.Background(), spreadsheetRow.ID)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.ExternalUID)
	assert.Equal(t, booking.ChannelBooking, got.Channel)
}

func TestApplyFeedDepartureMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		required    bool
		wantCreated int
	}{
		{name: "reference and arrival are enough", required: false, wantCreated: 0},
		{name: "departure must also match", required: true, wantCreated: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, s := newMerger(t, WithDepartureMatch(tt.required))
			insert(t, s, &booking.Booking{
				ResourceID: "room-1",
				Channel:    booking.ChannelSpreadsheet,
				Reference:  "5012345678",
				Arrival:    june1,
				Departure:  june1.AddDays(4),
				Status:     booking.StatusConfirmed,
			})

			res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
				Events: []feed.Event{event("uid-1", "5012345678", june1, 2)},
			}, today)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, res.Created)
		})
	}
}

func TestApplyFeedCancelsDisappearedRows(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	profile := uuid.New()
	enriched := &booking.Booking{
		ResourceID:       "room-1",
		Channel:          booking.ChannelBooking,
		ExternalUID:      "gone",
		Reference:        "5012345678",
		Arrival:          june1,
		Departure:        june1.AddDays(2),
		Status:           booking.StatusConfirmed,
		ContactProfileID: &profile,
	}
	past := &booking.Booking{
		ResourceID:  "room-1",
		Channel:     booking.ChannelBooking,
		ExternalUID: "past",
		Arrival:     today.AddDays(-5),
		Departure:   today.AddDays(-1),
		Status:      booking.StatusConfirmed,
	}
	malformed := &booking.Booking{
		ResourceID:  "room-1",
		Channel:     booking.ChannelBooking,
		ExternalUID: "malformed",
		Arrival:     june1.AddDays(10),
		Departure:   june1.AddDays(12),
		Status:      booking.StatusConfirmed,
	}
	otherChannel := &booking.Booking{
		ResourceID:  "room-1",
		Channel:     booking.ChannelAirbnb,
		ExternalUID: "airbnb-1",
		Arrival:     june1.AddDays(20),
		Departure:   june1.AddDays(22),
		Status:      booking.StatusConfirmed,
	}
	for _, b := range []*booking.Booking{enriched, past, malformed, otherChannel} {
		insert(t, s, b)
	}

	res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking, &feed.Result{
		Skipped:     []error{&booking.MalformedInputError{Source: "calendar event", Input: "malformed"}},
		SkippedUIDs: []string{"malformed"},
	}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, 1, res.Skipped)

	got, err := s.GetBooking(context.Background(), enriched.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
	assert.Equal(t, "5012345678", got.Reference)

	for _, id := range []uuid.UUID{past.ID, malformed.ID, otherChannel.ID} {
		b, err := s.GetBooking(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, b.Status, b.ExternalUID)
	}

	events, err := s.EventsAfter(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, booking.EventStatusChanged, events[0].Kind)
	assert.Equal(t, enriched.ID, events[0].BookingID)
	assert.Equal(t, booking.StatusConfirmed, events[0].From)
	assert.Equal(t, booking.StatusCancelled, events[0].To)
}

func TestApplyFeedCancelledEntry(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	row := &booking.Booking{
		ResourceID:  "room-1",
		Channel:     booking.ChannelBooking,
		ExternalUID: "uid-1",
		Arrival:     june1,
		Departure:   june1.AddDays(2),
		Status:      booking.StatusConfirmed,
		RawSnapshot: "UID:uid-1",
	}
	insert(t, s, row)

	cancelled := event("uid-1", "", june1, 2)
	cancelled.Status = booking.StatusCancelled
	res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking,
		&feed.Result{Events: []feed.Event{cancelled}}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)

	// The platform lists the stay again
	res, err = m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking,
		&feed.Result{Events: []feed.Event{event("uid-1", "", june1, 2)}}, today)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Zero(t, res.Created)

	got, err := s.GetBooking(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)

	events, err := s.EventsAfter(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestApplyFeedKeepsSupersededRowsCancelled(t *testing.T) {
	t.Parallel()

	m, s := newMerger(t)
	row := &booking.Booking{
		ResourceID:   "room-1",
		Channel:      booking.ChannelBooking,
		ExternalUID:  "uid-1",
		Arrival:      june1,
		Departure:    june1.AddDays(2),
		Status:       booking.StatusCancelled,
		SupersededBy: "5012345678",
		RawSnapshot:  "UID:uid-1",
		DisplayName:  "CLOSED - Not available",
	}
	insert(t, s, row)

	res, err := m.ApplyFeed(context.Background(), "room-1", booking.ChannelBooking,
		&feed.Result{Events: []feed.Event{event("uid-1", "", june1, 2)}}, today)
	require.NoError(t, err)
	assert.Zero(t, res.Mutations())
	assert.Zero(t, res.Created)

	got, err := s.GetBooking(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, got.Status)
}
