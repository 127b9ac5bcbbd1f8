package pgtypes

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateRoundTrip(t *testing.T) {
	t.Parallel()

	d := civil.Date{Year: 2025, Month: time.December, Day: 20}
	pg := Date(d)
	require.True(t, pg.Valid)
	assert.Equal(t, d, CivilDate(pg))

	assert.False(t, NullableDate(nil).Valid)
	assert.Equal(t, civil.Date{}, CivilDate(pgtype.Date{}))
}

func TestCivilDateIgnoresLocation(t *testing.T) {
	t.Parallel()

	// pgx decodes DATE columns as midnight UTC
	pg := pgtype.Date{Time: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	assert.Equal(t, civil.Date{Year: 2025, Month: time.June, Day: 1}, CivilDate(pg))
}

func TestUUIDConversions(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	assert.Equal(t, id, FromUUID(UUID(id)))
	assert.Nil(t, FromNullableUUID(NullableUUID(nil)))
	require.NotNil(t, FromNullableUUID(NullableUUID(&id)))
	assert.Equal(t, id, *FromNullableUUID(NullableUUID(&id)))

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	assert.Equal(t, ids, FromUUIDs(UUIDs(ids)))
	assert.NotNil(t, UUIDs(nil))
	assert.Empty(t, FromUUIDs([]pgtype.UUID{{}}))
}

func TestTimestamptzConversions(t *testing.T) {
	t.Parallel()

	now := time.Now()
	assert.False(t, NullableTimestamptz(nil).Valid)
	got := FromNullableTimestamptz(NullableTimestamptz(&now))
	require.NotNil(t, got)
	assert.True(t, now.Equal(*got))
	assert.Nil(t, FromNullableTimestamptz(pgtype.Timestamptz{}))
}

func TestTextAndStrings(t *testing.T) {
	t.Parallel()

	assert.False(t, Text("").Valid)
	assert.Equal(t, pgtype.Text{String: "x", Valid: true}, Text("x"))
	assert.NotNil(t, Strings(nil))
	assert.Equal(t, []string{"a"}, Strings([]string{"a"}))
}
