// Package inmemory provides a process-local implementation of store.Store.
// Transactions work on a copy of the state that replaces the live state on
// commit; a single writer lock gives serializable isolation.
package inmemory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/status"
	"github.com/pickarooms/reservations-server/internal/store"
)

// data is the full state of the store. Records held in the maps are never
// mutated in place: writers always store fresh clones.
type data struct {
	bookings     map[uuid.UUID]*booking.Booking
	profiles     map[uuid.UUID]*booking.ContactProfile
	events       []booking.Event
	nextSeq      int64
	cursors      map[string]int64
	processed    map[string]time.Time
	collisions   map[uuid.UUID]*booking.Collision
	audit        []booking.AuditEntry
	attempts     []booking.AttemptEntry
	flows        map[uuid.UUID]*booking.CheckinFlow
	syncStatuses map[string]*status.SyncStatus
}

func newData() *data {
	return &data{
		bookings:     make(map[uuid.UUID]*booking.Booking),
		profiles:     make(map[uuid.UUID]*booking.ContactProfile),
		nextSeq:      1,
		cursors:      make(map[string]int64),
		processed:    make(map[string]time.Time),
		collisions:   make(map[uuid.UUID]*booking.Collision),
		flows:        make(map[uuid.UUID]*booking.CheckinFlow),
		syncStatuses: make(map[string]*status.SyncStatus),
	}
}

func (d *data) clone() *data {
	return &data{
		bookings:     maps.Clone(d.bookings),
		profiles:     maps.Clone(d.profiles),
		events:       slices.Clone(d.events),
		nextSeq:      d.nextSeq,
		cursors:      maps.Clone(d.cursors),
		processed:    maps.Clone(d.processed),
		collisions:   maps.Clone(d.collisions),
		audit:        slices.Clone(d.audit),
		attempts:     slices.Clone(d.attempts),
		flows:        maps.Clone(d.flows),
		syncStatuses: maps.Clone(d.syncStatuses),
	}
}

// Store is an in-memory store.Store
type Store struct {
	mu    sync.RWMutex
	state *data
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{state: newData()}
}

// WithTx runs fn against a private copy of the state and publishes it when fn succeeds
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{reader: reader{d: s.state.clone()}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}
	s.state = tx.d
	return nil
}

// Close is a no-op for the in-memory store
func (*Store) Close() error {
	return nil
}

func (s *Store) read() reader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{d: s.state}
}

// GetBooking implements store.Reader
func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	return s.read().GetBooking(ctx, id)
}

// ListBookings implements store.Reader
func (s *Store) ListBookings(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	return s.read().ListBookings(ctx, filter)
}

// GetProfile implements store.Reader
func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*booking.ContactProfile, error) {
	return s.read().GetProfile(ctx, id)
}

// GetProfileByReference implements store.Reader
func (s *Store) GetProfileByReference(ctx context.Context, reference string) (*booking.ContactProfile, error) {
	return s.read().GetProfileByReference(ctx, reference)
}

// EventsAfter implements store.Reader
func (s *Store) EventsAfter(ctx context.Context, seq int64, limit int) ([]booking.Event, error) {
	return s.read().EventsAfter(ctx, seq, limit)
}

// GetCursor implements store.Reader
func (s *Store) GetCursor(ctx context.Context, consumer string) (int64, error) {
	return s.read().GetCursor(ctx, consumer)
}

// IsMessageProcessed implements store.Reader
func (s *Store) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	return s.read().IsMessageProcessed(ctx, messageID)
}

// GetCollision implements store.Reader
func (s *Store) GetCollision(ctx context.Context, id uuid.UUID) (*booking.Collision, error) {
	return s.read().GetCollision(ctx, id)
}

// ListOpenCollisions implements store.Reader
func (s *Store) ListOpenCollisions(ctx context.Context) ([]*booking.Collision, error) {
	return s.read().ListOpenCollisions(ctx)
}

// ListAudit implements store.Reader
func (s *Store) ListAudit(ctx context.Context, limit int) ([]booking.AuditEntry, error) {
	return s.read().ListAudit(ctx, limit)
}

// ListAttempts implements store.Reader
func (s *Store) ListAttempts(ctx context.Context, bookingID uuid.UUID) ([]booking.AttemptEntry, error) {
	return s.read().ListAttempts(ctx, bookingID)
}

// GetCheckinFlow implements store.Reader
func (s *Store) GetCheckinFlow(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error) {
	return s.read().GetCheckinFlow(ctx, id)
}

// GetSyncStatus implements store.Reader
func (s *Store) GetSyncStatus(ctx context.Context, feed string) (*status.SyncStatus, error) {
	return s.read().GetSyncStatus(ctx, feed)
}

// ListSyncStatuses implements store.Reader
func (s *Store) ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error) {
	return s.read().ListSyncStatuses(ctx)
}

// reader serves reads from a fixed snapshot
type reader struct {
	d *data
}

func (r reader) GetBooking(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.d.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, booking.ErrNotFound)
	}
	return b.Clone(), nil
}

func (r reader) ListBookings(_ context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	result := make([]*booking.Booking, 0)
	for _, b := range r.d.bookings {
		if filter.Matches(b) {
			result = append(result, b.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *booking.Booking) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r reader) GetProfile(_ context.Context, id uuid.UUID) (*booking.ContactProfile, error) {
	p, ok := r.d.profiles[id]
	if !ok {
		return nil, fmt.Errorf("contact profile %s: %w", id, booking.ErrNotFound)
	}
	return p.Clone(), nil
}

func (r reader) GetProfileByReference(_ context.Context, reference string) (*booking.ContactProfile, error) {
	var newest *booking.ContactProfile
	for _, p := range r.d.profiles {
		if p.Reference != reference {
			continue
		}
		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("contact profile for %s: %w", reference, booking.ErrNotFound)
	}
	return newest.Clone(), nil
}

func (r reader) EventsAfter(_ context.Context, seq int64, limit int) ([]booking.Event, error) {
	idx, _ := slices.BinarySearchFunc(r.d.events, seq+1, func(e booking.Event, target int64) int {
		return cmp.Compare(e.Seq, target)
	})
	events := r.d.events[idx:]
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return slices.Clone(events), nil
}

func (r reader) GetCursor(_ context.Context, consumer string) (int64, error) {
	return r.d.cursors[consumer], nil
}

func (r reader) IsMessageProcessed(_ context.Context, messageID string) (bool, error) {
	_, ok := r.d.processed[messageID]
	return ok, nil
}

func (r reader) GetCollision(_ context.Context, id uuid.UUID) (*booking.Collision, error) {
	c, ok := r.d.collisions[id]
	if !ok {
		return nil, fmt.Errorf("collision %s: %w", id, booking.ErrNotFound)
	}
	return c.Clone(), nil
}

func (r reader) ListOpenCollisions(_ context.Context) ([]*booking.Collision, error) {
	result := make([]*booking.Collision, 0)
	for _, c := range r.d.collisions {
		if c.Status == booking.CollisionOpen {
			result = append(result, c.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *booking.Collision) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return result, nil
}

func (r reader) ListAudit(_ context.Context, limit int) ([]booking.AuditEntry, error) {
	result := slices.Clone(r.d.audit)
	slices.Reverse(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r reader) ListAttempts(_ context.Context, bookingID uuid.UUID) ([]booking.AttemptEntry, error) {
	result := make([]booking.AttemptEntry, 0)
	for _, a := range r.d.attempts {
		if a.BookingID == bookingID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r reader) GetCheckinFlow(_ context.Context, id uuid.UUID) (*booking.CheckinFlow, error) {
	f, ok := r.d.flows[id]
	if !ok {
		return nil, fmt.Errorf("check-in flow %s: %w", id, booking.ErrNotFound)
	}
	return f.Clone(), nil
}

func (r reader) GetSyncStatus(_ context.Context, feed string) (*status.SyncStatus, error) {
	s, ok := r.d.syncStatuses[feed]
	if !ok {
		return nil, fmt.Errorf("sync status %s: %w", feed, booking.ErrNotFound)
	}
	c := *s
	return &c, nil
}

func (r reader) ListSyncStatuses(_ context.Context) (map[string]*status.SyncStatus, error) {
	result := make(map[string]*status.SyncStatus, len(r.d.syncStatuses))
	for name, s := range r.d.syncStatuses {
		c := *s
		result[name] = &c
	}
	return result, nil
}

// memTx is a transaction over a private copy of the state
type memTx struct {
	reader
}

func (t *memTx) InsertBooking(_ context.Context, b *booking.Booking) error {
	if _, exists := t.d.bookings[b.ID]; exists {
		return fmt.Errorf("booking %s already exists: %w", b.ID, store.ErrConstraint)
	}
	if err := t.checkUnique(b); err != nil {
		return err
	}
	t.d.bookings[b.ID] = b.Clone()
	return nil
}

func (t *memTx) UpdateBooking(_ context.Context, b *booking.Booking) error {
	if _, exists := t.d.bookings[b.ID]; !exists {
		return fmt.Errorf("booking %s: %w", b.ID, booking.ErrNotFound)
	}
	if err := t.checkUnique(b); err != nil {
		return err
	}
	t.d.bookings[b.ID] = b.Clone()
	return nil
}

// checkUnique enforces one confirmed row per resource, channel and external uid
func (t *memTx) checkUnique(b *booking.Booking) error {
	if b.ExternalUID == "" || b.Status != booking.StatusConfirmed {
		return nil
	}
	for id, other := range t.d.bookings {
		if id == b.ID || other.Status != booking.StatusConfirmed {
			continue
		}
		if other.ResourceID == b.ResourceID && other.Channel == b.Channel && other.ExternalUID == b.ExternalUID {
			return fmt.Errorf("confirmed booking for %s/%s/%s: %w",
				b.ResourceID, b.Channel, b.ExternalUID, store.ErrConstraint)
		}
	}
	return nil
}

func (t *memTx) DeleteBooking(_ context.Context, id uuid.UUID) error {
	if _, exists := t.d.bookings[id]; !exists {
		return fmt.Errorf("booking %s: %w", id, booking.ErrNotFound)
	}
	delete(t.d.bookings, id)
	return nil
}

func (t *memTx) AppendEvent(_ context.Context, event booking.Event) (int64, error) {
	event.Seq = t.d.nextSeq
	t.d.nextSeq++
	t.d.events = append(t.d.events, event)
	return event.Seq, nil
}

func (t *memTx) SetCursor(_ context.Context, consumer string, seq int64) error {
	t.d.cursors[consumer] = seq
	return nil
}

func (t *memTx) SaveProfile(_ context.Context, p *booking.ContactProfile) error {
	t.d.profiles[p.ID] = p.Clone()
	return nil
}

func (t *memTx) DeleteProfile(_ context.Context, id uuid.UUID) error {
	if _, exists := t.d.profiles[id]; !exists {
		return fmt.Errorf("contact profile %s: %w", id, booking.ErrNotFound)
	}
	delete(t.d.profiles, id)
	for bid, b := range t.d.bookings {
		if b.ContactProfileID != nil && *b.ContactProfileID == id {
			c := b.Clone()
			c.ContactProfileID = nil
			t.d.bookings[bid] = c
		}
	}
	return nil
}

func (t *memTx) MarkMessagesProcessed(_ context.Context, messageIDs []string, at time.Time) error {
	for _, id := range messageIDs {
		if _, ok := t.d.processed[id]; !ok {
			t.d.processed[id] = at
		}
	}
	return nil
}

func (t *memTx) SaveCollision(_ context.Context, c *booking.Collision) error {
	t.d.collisions[c.ID] = c.Clone()
	return nil
}

func (t *memTx) AppendAudit(_ context.Context, entry booking.AuditEntry) error {
	entry.BookingIDs = slices.Clone(entry.BookingIDs)
	t.d.audit = append(t.d.audit, entry)
	return nil
}

func (t *memTx) AppendAttempt(_ context.Context, entry booking.AttemptEntry) error {
	entry.References = slices.Clone(entry.References)
	t.d.attempts = append(t.d.attempts, entry)
	return nil
}

func (t *memTx) PruneLogs(_ context.Context, before time.Time, keep int) (int, error) {
	var removed int
	t.d.audit, removed = prune(t.d.audit, func(e booking.AuditEntry) time.Time { return e.At }, before, keep)
	var removedAttempts int
	t.d.attempts, removedAttempts = prune(t.d.attempts,
		func(e booking.AttemptEntry) time.Time { return e.At }, before, keep)
	return removed + removedAttempts, nil
}

// prune keeps entries at or after before, capped to the newest keep entries.
// Entries are stored in append order.
func prune[T any](entries []T, at func(T) time.Time, before time.Time, keep int) ([]T, int) {
	kept := make([]T, 0, len(entries))
	for _, e := range entries {
		if !at(e).Before(before) {
			kept = append(kept, e)
		}
	}
	if keep > 0 && len(kept) > keep {
		kept = kept[len(kept)-keep:]
	}
	return kept, len(entries) - len(kept)
}

func (t *memTx) SaveCheckinFlow(_ context.Context, f *booking.CheckinFlow) error {
	t.d.flows[f.ID] = f.Clone()
	return nil
}

func (t *memTx) DeleteExpiredCheckinFlows(_ context.Context, now time.Time) (int, error) {
	removed := 0
	for id, f := range t.d.flows {
		if f.ExpiresAt.Before(now) {
			delete(t.d.flows, id)
			removed++
		}
	}
	return removed, nil
}

func (t *memTx) SaveSyncStatus(_ context.Context, feed string, s *status.SyncStatus) error {
	c := *s
	t.d.syncStatuses[feed] = &c
	return nil
}
