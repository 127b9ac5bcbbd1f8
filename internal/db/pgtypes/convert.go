// Package pgtypes converts between the domain types of the reservations
// server and the pgtype values used by the generated query layer.
package pgtypes

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Date converts a civil date into a non-NULL pgtype.Date
func Date(d civil.Date) pgtype.Date {
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

// NullableDate converts an optional civil date, mapping nil to NULL
func NullableDate(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return Date(*d)
}

// CivilDate converts a pgtype.Date back into a civil date.
// A NULL date yields the zero civil.Date.
func CivilDate(d pgtype.Date) civil.Date {
	if !d.Valid {
		return civil.Date{}
	}
	return civil.DateOf(d.Time.UTC())
}

// UUID converts a uuid into a non-NULL pgtype.UUID
func UUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// NullableUUID converts an optional uuid, mapping nil to NULL
func NullableUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return UUID(*id)
}

// UUIDs converts a slice of uuids. The result is never nil so that it
// encodes as an empty array rather than NULL.
func UUIDs(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		out = append(out, UUID(id))
	}
	return out
}

// FromUUID converts a non-NULL pgtype.UUID into a uuid
func FromUUID(id pgtype.UUID) uuid.UUID {
	return uuid.UUID(id.Bytes)
}

// FromNullableUUID converts a pgtype.UUID into an optional uuid
func FromNullableUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

// FromUUIDs converts a slice of pgtype.UUID values, skipping NULL entries
func FromUUIDs(ids []pgtype.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id.Valid {
			out = append(out, uuid.UUID(id.Bytes))
		}
	}
	return out
}

// Timestamptz converts a time into a non-NULL pgtype.Timestamptz
func Timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// NullableTimestamptz converts an optional time, mapping nil to NULL
func NullableTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return Timestamptz(*t)
}

// FromNullableTimestamptz converts a pgtype.Timestamptz into an optional time
func FromNullableTimestamptz(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Text converts a string into pgtype.Text, mapping the empty string to NULL
func Text(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// Strings returns s, or an empty slice when s is nil
func Strings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
