package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	testclock "k8s.io/utils/clock/testing"

	"github.com/pickarooms/reservations-server/internal/archive"
	archivemocks "github.com/pickarooms/reservations-server/internal/archive/mocks"
	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/enrichment/mocks"
	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/store/inmemory"
)

var (
	now    = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	june20 = civil.Date{Year: 2025, Month: time.June, Day: 20}
)

func testSettings() Settings {
	return Settings{
		Schedule:            []time.Duration{5 * time.Minute, 8 * time.Minute, 12 * time.Minute, 18 * time.Minute},
		Sender:              "noreply@booking.com",
		Lookback:            30 * 24 * time.Hour,
		MaxResults:          20,
		CollisionMaxResults: 30,
	}
}

func newBooking(s store.Store, t *testing.T, resource, reference string, createdAt time.Time) *booking.Booking {
	t.Helper()
	b := &booking.Booking{
		ID:          uuid.New(),
		ResourceID:  resource,
		Channel:     booking.ChannelBooking,
		ExternalUID: uuid.NewString() + "@booking.com",
		Reference:   reference,
		DisplayName: "CLOSED - Not available",
		Arrival:     june20,
		Departure:   june20.AddDays(2),
		Status:      booking.StatusConfirmed,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, s.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.InsertBooking(ctx, b)
	}))
	return b
}

func message(id, reference string) archive.Message {
	return archive.Message{
		ID:         id,
		Subject:    "Booking.com - New booking! (" + reference + ", Friday, 20 June 2025)",
		ReceivedAt: now.Add(-time.Minute),
	}
}

type finderFixture struct {
	store      *inmemory.Store
	archive    *archivemocks.MockClient
	collisions *mocks.MockCollisionHandler
	alerter    *mocks.MockAlerter
	finder     *Finder
}

func newFinderFixture(t *testing.T) *finderFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &finderFixture{
		store:      inmemory.New(),
		archive:    archivemocks.NewMockClient(ctrl),
		collisions: mocks.NewMockCollisionHandler(ctrl),
		alerter:    mocks.NewMockAlerter(ctrl),
	}
	f.finder = NewFinder(f.store, f.archive, f.collisions, f.alerter, testSettings(), testclock.NewFakePassiveClock(now))
	return f
}

func (f *finderFixture) reference(t *testing.T, id uuid.UUID) string {
	t.Helper()
	b, err := f.store.GetBooking(context.Background(), id)
	require.NoError(t, err)
	return b.Reference
}

func TestAttemptAdoptsSingleReference(t *testing.T) {
	t.Parallel()

	f := newFinderFixture(t)
	b := newBooking(f.store, t, "room-1", "", now)

	f.archive.EXPECT().Search(gomock.Any(), archive.Query{
		Sender: "noreply@booking.com",
		After:  now.Add(-30 * 24 * time.Hour),
		Limit:  20,
	}).Return([]archive.Message{
		message("m1", "5012345678"),
		{ID: "m2", Subject: "Booking.com - New booking! (5099999999, Sunday, 22 June 2025)"},
		{ID: "m3", Subject: "Your invoice"},
	}, nil)
	f.archive.EXPECT().MarkRead(gomock.Any(), "m1").Return(nil)

	result, err := f.finder.Attempt(context.Background(), b.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnriched, result.Outcome)
	assert.Equal(t, []uuid.UUID{b.ID}, result.BookingIDs)
	assert.Equal(t, "5012345678", f.reference(t, b.ID))

	processed, err := f.store.IsMessageProcessed(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, processed)
	processed, err = f.store.IsMessageProcessed(context.Background(), "m2")
	require.NoError(t, err)
	assert.False(t, processed)

	attempts, err := f.store.ListAttempts(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 1, attempts[0].Attempt)
	assert.Equal(t, "enriched", attempts[0].Outcome)
	assert.Equal(t, []string{"5012345678"}, attempts[0].References)
}

func TestAttemptAdoptsIntoEveryResource(t *testing.T) {
	t.Parallel()

	f := newFinderFixture(t)
	room1 := newBooking(f.store, t, "room-1", "", now)
	room2 := newBooking(f.store, t, "room-2", "", now.Add(time.Second))

	// two unmatched rows on the date widen the search
	f.archive.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, q archive.Query) ([]archive.Message, error) {
			assert.Equal(t, 30, q.Limit)
			return []archive.Message{message("m1", "5012345678")}, nil
		})
	f.archive.EXPECT().MarkRead(gomock.Any(), "m1").Return(nil)

	result, err := f.finder.Attempt(context.Background(), room1.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnriched, result.Outcome)
	assert.ElementsMatch(t, []uuid.UUID{room1.ID, room2.ID}, result.BookingIDs)
	assert.Equal(t, "5012345678", f.reference(t, room1.ID))
	assert.Equal(t, "5012345678", f.reference(t, room2.ID))
}

func TestAttemptHandsCollisionToOperators(t *testing.T) {
	t.Parallel()

	f := newFinderFixture(t)
	room1 := newBooking(f.store, t, "room-1", "", now)
	room2 := newBooking(f.store, t, "room-2", "", now.Add(time.Second))

	f.archive.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]archive.Message{
		message("m1", "5000000001"),
		message("m2", "5000000002"),
		message("m3", "5000000001"),
	}, nil)
	f.collisions.EXPECT().OpenCollision(gomock.Any(), &booking.AmbiguousMatchError{
		Arrival:    june20,
		References: []string{"5000000001", "5000000002"},
	}, []uuid.UUID{room1.ID, room2.ID}).Return(nil)
	f.archive.EXPECT().MarkRead(gomock.Any(), gomock.Any()).Return(nil).Times(3)

	result, err := f.finder.Attempt(context.Background(), room1.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCollision, result.Outcome)
	assert.True(t, result.Outcome.Final())
	assert.Empty(t, f.reference(t, room1.ID))
	assert.Empty(t, f.reference(t, room2.ID))

	for _, id := range []string{"m1", "m2", "m3"} {
		processed, err := f.store.IsMessageProcessed(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, processed, id)
	}
}

func TestAttemptCollisionHandoffFailure(t *testing.T) {
	t.Parallel()

	f := newFinderFixture(t)
	b := newBooking(f.store, t, "room-1", "", now)

	f.archive.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]archive.Message{
		message("m1", "5000000001"),
		message("m2", "5000000002"),
	}, nil)
	f.collisions.EXPECT().OpenCollision(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))

	result, err := f.finder.Attempt(context.Background(), b.ID, 1, false)
	require.Error(t, err)
	assert.False(t, result.Outcome.Final())

	processed, err := f.store.IsMessageProcessed(context.Background(), "m1")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestAttemptIgnoresKnownAndProcessedMessages(t *testing.T) {
	t.Parallel()

	f := newFinderFixture(t)
	newBooking(f.store, t, "room-2", "5000000001", now.Add(-time.Hour))
	b := newBooking(f.store, t, "room-1", "", now)
	require.NoError(t, f.store.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.MarkMessagesProcessed(ctx, []string{"m2"}, now.Add(-time.Hour))
	}))

	f.archive.EXPECT().Search(gomock.Any(), gomock.Any()).Return([]archive.Message{
		message("m1", "5000000001"),
		message("m2", "5000000002"),
		{ID: "m3", Subject: "Booking.com - Cancelled booking! (5000000003, Friday, 20 June 2025)"},
		message("m4", "5000000004"),
	}, nil)
	f.archive.EXPECT().MarkRead(gomock.Any(), "m4").Return(errors.New("mailbox busy"))

	result, err := f.finder.Attempt(context.Background(), b.ID, 2, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeEnriched, result.Outcome)
	assert.Equal(t, "5000000004", f.reference(t, b.ID))
}

func TestAttemptWithoutMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		last    bool
		search  error
		outcome Outcome
	}{
		{name: "retries later", outcome: OutcomeNoMatch},
		{name: "escalates on last attempt", last: true, outcome: OutcomeEscalated},
		{
			name:    "archive unavailable",
			search:  &booking.TransientChannelError{Channel: "archive", Err: errors.New("timeout")},
			outcome: OutcomeUnavailable,
		},
		{
			name:    "archive unavailable on last attempt",
			last:    true,
			search:  &booking.TransientChannelError{Channel: "archive", Err: errors.New("timeout")},
			outcome: OutcomeEscalated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFinderFixture(t)
			b := newBooking(f.store, t, "room-1", "", now)
			f.archive.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, tt.search)
			if tt.last {
				f.alerter.EXPECT().Alert(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, body string) error {
						assert.Contains(t, body, "room-1")
						assert.Contains(t, body, "2025-06-20")
						return nil
					})
			}

			result, err := f.finder.Attempt(context.Background(), b.ID, 4, tt.last)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, result.Outcome)
			assert.Equal(t, tt.last, result.Outcome.Final())

			attempts, err := f.store.ListAttempts(context.Background(), b.ID)
			require.NoError(t, err)
			require.Len(t, attempts, 1)
			assert.Equal(t, string(tt.outcome), attempts[0].Outcome)
		})
	}
}

func TestAttemptSkipsSettledBookings(t *testing.T) {
	t.Parallel()

	f := newFinderFixture(t)
	enriched := newBooking(f.store, t, "room-1", "5012345678", now)

	result, err := f.finder.Attempt(context.Background(), enriched.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)

	result, err = f.finder.Attempt(context.Background(), uuid.New(), 1, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, result.Outcome)
}

func TestAttemptWidensSearchForOpenCollision(t *testing.T) {
	t.Parallel()

	f := newFinderFixture(t)
	b := newBooking(f.store, t, "room-1", "", now)
	require.NoError(t, f.store.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		return tx.SaveCollision(ctx, &booking.Collision{
			ID:         uuid.New(),
			Arrival:    june20,
			References: []string{"5000000001", "5000000002"},
			Status:     booking.CollisionOpen,
			CreatedAt:  now,
		})
	}))

	f.archive.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, q archive.Query) ([]archive.Message, error) {
			assert.Equal(t, 30, q.Limit)
			return nil, nil
		})

	result, err := f.finder.Attempt(context.Background(), b.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoMatch, result.Outcome)
}
