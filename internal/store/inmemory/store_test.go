package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/store"
	"github.com/pickarooms/reservations-server/internal/store/storetest"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(*testing.T) store.Store {
		return New()
	})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	b := storetest.NewBooking("room-1", "uid-1", 0)
	require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertBooking(ctx, b)
	}))

	b.Status = booking.StatusCancelled
	got, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)

	got.Reference = "1234567890"
	again, err := s.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Reference)
}

func TestWithTxCancelledContext(t *testing.T) {
	t.Parallel()

	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(context.Context, store.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
