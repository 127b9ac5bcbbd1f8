// Package store defines the persistence boundary of the canonical booking
// store. Every mutation runs inside a serializable transaction so that merges
// from concurrent channels never interleave.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/status"
)

// ErrConstraint is returned when a write would break a uniqueness invariant,
// such as two confirmed rows for the same resource, channel and external uid.
var ErrConstraint = errors.New("store constraint violated")

// Reader exposes the read operations shared by the store and its transactions
type Reader interface {
	// GetBooking returns the booking with the given id or booking.ErrNotFound
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// ListBookings returns bookings matching the filter ordered by creation time
	ListBookings(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error)

	// GetProfile returns the contact profile with the given id or booking.ErrNotFound
	GetProfile(ctx context.Context, id uuid.UUID) (*booking.ContactProfile, error)
	// GetProfileByReference returns the newest profile for a reference or booking.ErrNotFound
	GetProfileByReference(ctx context.Context, reference string) (*booking.ContactProfile, error)

	// EventsAfter returns up to limit events with a sequence number greater than seq
	EventsAfter(ctx context.Context, seq int64, limit int) ([]booking.Event, error)
	// GetCursor returns the last sequence number processed by the named consumer
	GetCursor(ctx context.Context, consumer string) (int64, error)

	// IsMessageProcessed reports whether an archive message was already consumed
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)

	// GetCollision returns a collision by id or booking.ErrNotFound
	GetCollision(ctx context.Context, id uuid.UUID) (*booking.Collision, error)
	// ListOpenCollisions returns unresolved collisions, oldest first
	ListOpenCollisions(ctx context.Context) ([]*booking.Collision, error)

	// ListAudit returns the newest audit entries first
	ListAudit(ctx context.Context, limit int) ([]booking.AuditEntry, error)
	// ListAttempts returns the enrichment attempts recorded for a booking
	ListAttempts(ctx context.Context, bookingID uuid.UUID) ([]booking.AttemptEntry, error)

	// GetCheckinFlow returns a check-in flow or booking.ErrNotFound
	GetCheckinFlow(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error)

	// GetSyncStatus returns the persisted sync status of a feed or booking.ErrNotFound
	GetSyncStatus(ctx context.Context, feed string) (*status.SyncStatus, error)
	// ListSyncStatuses returns every persisted feed sync status
	ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error)
}

// Tx is a unit of work against the store. Changes become visible to other
// readers only when the function passed to WithTx returns nil.
type Tx interface {
	Reader

	InsertBooking(ctx context.Context, b *booking.Booking) error
	UpdateBooking(ctx context.Context, b *booking.Booking) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error

	// AppendEvent appends to the event log and returns the assigned sequence number
	AppendEvent(ctx context.Context, event booking.Event) (int64, error)
	SetCursor(ctx context.Context, consumer string, seq int64) error

	// SaveProfile inserts or replaces a contact profile
	SaveProfile(ctx context.Context, p *booking.ContactProfile) error
	// DeleteProfile removes a profile and unlinks every booking pointing to it
	DeleteProfile(ctx context.Context, id uuid.UUID) error

	MarkMessagesProcessed(ctx context.Context, messageIDs []string, at time.Time) error

	SaveCollision(ctx context.Context, c *booking.Collision) error

	AppendAudit(ctx context.Context, entry booking.AuditEntry) error
	AppendAttempt(ctx context.Context, entry booking.AttemptEntry) error
	// PruneLogs drops audit and attempt entries older than before and keeps
	// at most keep entries of each kind. It returns the number removed.
	PruneLogs(ctx context.Context, before time.Time, keep int) (int, error)

	SaveCheckinFlow(ctx context.Context, f *booking.CheckinFlow) error
	// DeleteExpiredCheckinFlows removes flows that expired before now
	DeleteExpiredCheckinFlows(ctx context.Context, now time.Time) (int, error)

	SaveSyncStatus(ctx context.Context, feed string, s *status.SyncStatus) error
}

// Store is the canonical booking store
type Store interface {
	Reader

	// WithTx runs fn inside a serializable transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Close releases the resources held by the store
	Close() error
}
