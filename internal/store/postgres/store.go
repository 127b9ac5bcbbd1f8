// Package postgres provides the PostgreSQL implementation of store.Store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/db/pgtypes"
	"github.com/pickarooms/reservations-server/internal/db/sqlc"
	"github.com/pickarooms/reservations-server/internal/otel"
	"github.com/pickarooms/reservations-server/internal/status"
	"github.com/pickarooms/reservations-server/internal/store"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

const defaultMaxTxAttempts uint = 5

// Store is a store.Store backed by PostgreSQL
type Store struct {
	reader
	pool          *pgxpool.Pool
	maxTxAttempts uint
	tracer        trace.Tracer
}

var _ store.Store = (*Store)(nil)

// Option configures the Store
type Option func(*Store)

// WithMaxTxAttempts bounds how many times a transaction is replayed after a
// serialization failure
func WithMaxTxAttempts(n uint) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTxAttempts = n
		}
	}
}

// WithTracer records a span around every transaction
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

// New creates a store using the given pool. The pool is owned by the caller
// unless Close is called.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		reader:        reader{q: sqlc.New(pool)},
		pool:          pool,
		maxTxAttempts: defaultMaxTxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithTx runs fn in a serializable transaction, replaying it when PostgreSQL
// reports a serialization failure
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "store.WithTx",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			otel.AttrTxAttempts.Int(int(s.maxTxAttempts)),
		),
	)
	defer span.End()

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := s.runTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if isRetryable(err) {
			slog.Debug("Retrying transaction after serialization failure", "error", err)
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(s.maxTxAttempts),
	)
	otel.RecordError(span, err)
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	pgxTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := pgxTx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(ctx, &pgTx{reader: reader{q: sqlc.New(pgxTx)}}); err != nil {
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the underlying pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	return false
}

// mapWriteError translates constraint violations into store.ErrConstraint
func mapWriteError(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, store.ErrConstraint)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// mapReadError translates a missing row into booking.ErrNotFound
func mapReadError(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, booking.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// reader implements store.Reader on top of any sqlc query handle
type reader struct {
	q *sqlc.Queries
}

func (r reader) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row, err := r.q.GetBooking(ctx, pgtypes.UUID(id))
	if err != nil {
		return nil, mapReadError(err, "booking "+id.String())
	}
	return toBooking(row), nil
}

func (r reader) ListBookings(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	params := sqlc.ListBookingsParams{
		Reference:        pgtypes.Text(filter.Reference),
		ResourceID:       pgtypes.Text(filter.ResourceID),
		Channel:          pgtypes.Text(string(filter.Channel)),
		ExternalUid:      pgtypes.Text(filter.ExternalUID),
		Arrival:          pgtypes.NullableDate(filter.Arrival),
		Departure:        pgtypes.NullableDate(filter.Departure),
		ArrivalFrom:      pgtypes.NullableDate(filter.ArrivalFrom),
		DepartureBefore:  pgtypes.NullableDate(filter.DepartureBefore),
		ProfileID:        pgtypes.NullableUUID(filter.ProfileID),
		WithoutReference: filter.WithoutReference,
		WithoutProfile:   filter.WithoutProfile,
		CreatedAfter:     pgtypes.NullableTimestamptz(filter.CreatedAfter),
	}
	if len(filter.IDs) > 0 {
		params.Ids = pgtypes.UUIDs(filter.IDs)
	}
	if len(filter.Statuses) > 0 {
		params.Statuses = make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			params.Statuses = append(params.Statuses, string(st))
		}
	}
	if filter.Limit > 0 {
		params.MaxRows = pgtype.Int4{Int32: int32(filter.Limit), Valid: true}
	}

	rows, err := r.q.ListBookings(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	result := make([]*booking.Booking, 0, len(rows))
	for _, row := range rows {
		result = append(result, toBooking(row))
	}
	return result, nil
}

func (r reader) GetProfile(ctx context.Context, id uuid.UUID) (*booking.ContactProfile, error) {
	row, err := r.q.GetContactProfile(ctx, pgtypes.UUID(id))
	if err != nil {
		return nil, mapReadError(err, "contact profile "+id.String())
	}
	return r.withHandles(ctx, row)
}

func (r reader) GetProfileByReference(ctx context.Context, reference string) (*booking.ContactProfile, error) {
	row, err := r.q.GetContactProfileByReference(ctx, reference)
	if err != nil {
		return nil, mapReadError(err, "contact profile for "+reference)
	}
	return r.withHandles(ctx, row)
}

func (r reader) withHandles(ctx context.Context, row sqlc.ContactProfile) (*booking.ContactProfile, error) {
	p := toProfile(row)
	handles, err := r.q.ListCodeHandles(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list code handles: %w", err)
	}
	p.Handles = make([]booking.CodeHandle, 0, len(handles))
	for _, h := range handles {
		p.Handles = append(p.Handles, booking.CodeHandle{
			ResourceID: h.ResourceID,
			LockID:     h.LockID,
			HandleID:   h.HandleID,
			Shared:     h.Shared,
		})
	}
	return p, nil
}

func (r reader) EventsAfter(ctx context.Context, seq int64, limit int) ([]booking.Event, error) {
	maxRows := int32(math.MaxInt32)
	if limit > 0 {
		maxRows = int32(limit)
	}
	rows, err := r.q.ListEventsAfter(ctx, sqlc.ListEventsAfterParams{Seq: seq, MaxRows: maxRows})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := make([]booking.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, booking.Event{
			Seq:       row.Seq,
			Kind:      booking.EventKind(row.Kind),
			BookingID: pgtypes.FromUUID(row.BookingID),
			From:      booking.Status(row.FromStatus),
			To:        booking.Status(row.ToStatus),
			At:        row.OccurredAt.Time,
		})
	}
	return events, nil
}

func (r reader) GetCursor(ctx context.Context, consumer string) (int64, error) {
	seq, err := r.q.GetEventCursor(ctx, consumer)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cursor %s: %w", consumer, err)
	}
	return seq, nil
}

func (r reader) IsMessageProcessed(ctx context.Context, messageID string) (bool, error) {
	ok, err := r.q.IsMessageProcessed(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to check message %s: %w", messageID, err)
	}
	return ok, nil
}

func (r reader) GetCollision(ctx context.Context, id uuid.UUID) (*booking.Collision, error) {
	row, err := r.q.GetCollision(ctx, pgtypes.UUID(id))
	if err != nil {
		return nil, mapReadError(err, "collision "+id.String())
	}
	return toCollision(row), nil
}

func (r reader) ListOpenCollisions(ctx context.Context) ([]*booking.Collision, error) {
	rows, err := r.q.ListOpenCollisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collisions: %w", err)
	}
	result := make([]*booking.Collision, 0, len(rows))
	for _, row := range rows {
		result = append(result, toCollision(row))
	}
	return result, nil
}

func (r reader) ListAudit(ctx context.Context, limit int) ([]booking.AuditEntry, error) {
	var maxRows pgtype.Int4
	if limit > 0 {
		maxRows = pgtype.Int4{Int32: int32(limit), Valid: true}
	}
	rows, err := r.q.ListAuditEntries(ctx, maxRows)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	entries := make([]booking.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, booking.AuditEntry{
			ID:         pgtypes.FromUUID(row.ID),
			At:         row.OccurredAt.Time,
			Sender:     row.Sender,
			Command:    row.Command,
			Method:     row.Method,
			BookingIDs: pgtypes.FromUUIDs(row.BookingIds),
			Outcome:    row.Outcome,
		})
	}
	return entries, nil
}

func (r reader) ListAttempts(ctx context.Context, bookingID uuid.UUID) ([]booking.AttemptEntry, error) {
	rows, err := r.q.ListEnrichmentAttempts(ctx, pgtypes.UUID(bookingID))
	if err != nil {
		return nil, fmt.Errorf("failed to list enrichment attempts: %w", err)
	}
	entries := make([]booking.AttemptEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, booking.AttemptEntry{
			ID:         pgtypes.FromUUID(row.ID),
			At:         row.OccurredAt.Time,
			BookingID:  pgtypes.FromUUID(row.BookingID),
			Attempt:    int(row.Attempt),
			Outcome:    row.Outcome,
			References: row.Refs,
		})
	}
	return entries, nil
}

func (r reader) GetCheckinFlow(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error) {
	row, err := r.q.GetCheckinFlow(ctx, pgtypes.UUID(id))
	if err != nil {
		return nil, mapReadError(err, "check-in flow "+id.String())
	}
	return &booking.CheckinFlow{
		ID:        pgtypes.FromUUID(row.ID),
		Reference: row.BookingReference,
		Arrival:   pgtypes.CivilDate(row.ArrivalDate),
		State:     booking.FlowState(row.State),
		FullName:  row.FullName,
		Phone:     row.Phone,
		Email:     row.Email,
		ProfileID: pgtypes.FromNullableUUID(row.ProfileID),
		Failure:   row.Failure,
		ExpiresAt: row.ExpiresAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}, nil
}

func (r reader) GetSyncStatus(ctx context.Context, feed string) (*status.SyncStatus, error) {
	row, err := r.q.GetFeedSyncStatus(ctx, feed)
	if err != nil {
		return nil, mapReadError(err, "sync status "+feed)
	}
	return toSyncStatus(row), nil
}

func (r reader) ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error) {
	rows, err := r.q.ListFeedSyncStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync statuses: %w", err)
	}
	result := make(map[string]*status.SyncStatus, len(rows))
	for _, row := range rows {
		result[row.Feed] = toSyncStatus(row)
	}
	return result, nil
}

// pgTx implements store.Tx inside a pgx transaction
type pgTx struct {
	reader
}

func (t *pgTx) InsertBooking(ctx context.Context, b *booking.Booking) error {
	err := t.q.InsertBooking(ctx, sqlc.InsertBookingParams{
		ID:               pgtypes.UUID(b.ID),
		ResourceID:       b.ResourceID,
		Channel:          string(b.Channel),
		ExternalUid:      b.ExternalUID,
		BookingReference: b.Reference,
		DisplayName:      b.DisplayName,
		ArrivalDate:      pgtypes.Date(b.Arrival),
		DepartureDate:    pgtypes.Date(b.Departure),
		Status:           sqlc.BookingStatus(b.Status),
		ContactProfileID: pgtypes.NullableUUID(b.ContactProfileID),
		SupersededBy:     b.SupersededBy,
		RawSnapshot:      b.RawSnapshot,
		CreatedAt:        pgtypes.Timestamptz(b.CreatedAt),
		UpdatedAt:        pgtypes.Timestamptz(b.UpdatedAt),
	})
	if err != nil {
		return mapWriteError(err, "failed to insert booking "+b.ID.String())
	}
	return nil
}

func (t *pgTx) UpdateBooking(ctx context.Context, b *booking.Booking) error {
	n, err := t.q.UpdateBooking(ctx, sqlc.UpdateBookingParams{
		ResourceID:       b.ResourceID,
		Channel:          string(b.Channel),
		ExternalUid:      b.ExternalUID,
		BookingReference: b.Reference,
		DisplayName:      b.DisplayName,
		ArrivalDate:      pgtypes.Date(b.Arrival),
		DepartureDate:    pgtypes.Date(b.Departure),
		Status:           sqlc.BookingStatus(b.Status),
		ContactProfileID: pgtypes.NullableUUID(b.ContactProfileID),
		SupersededBy:     b.SupersededBy,
		RawSnapshot:      b.RawSnapshot,
		UpdatedAt:        pgtypes.Timestamptz(b.UpdatedAt),
		ID:               pgtypes.UUID(b.ID),
	})
	if err != nil {
		return mapWriteError(err, "failed to update booking "+b.ID.String())
	}
	if n == 0 {
		return fmt.Errorf("booking %s: %w", b.ID, booking.ErrNotFound)
	}
	return nil
}

func (t *pgTx) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	n, err := t.q.DeleteBooking(ctx, pgtypes.UUID(id))
	if err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("booking %s: %w", id, booking.ErrNotFound)
	}
	return nil
}

func (t *pgTx) AppendEvent(ctx context.Context, event booking.Event) (int64, error) {
	seq, err := t.q.AppendBookingEvent(ctx, sqlc.AppendBookingEventParams{
		Kind:       string(event.Kind),
		BookingID:  pgtypes.UUID(event.BookingID),
		FromStatus: sqlc.BookingStatus(event.From),
		ToStatus:   sqlc.BookingStatus(event.To),
		OccurredAt: pgtypes.Timestamptz(event.At),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append event: %w", err)
	}
	return seq, nil
}

func (t *pgTx) SetCursor(ctx context.Context, consumer string, seq int64) error {
	if err := t.q.UpsertEventCursor(ctx, sqlc.UpsertEventCursorParams{Consumer: consumer, Seq: seq}); err != nil {
		return fmt.Errorf("failed to set cursor %s: %w", consumer, err)
	}
	return nil
}

func (t *pgTx) SaveProfile(ctx context.Context, p *booking.ContactProfile) error {
	err := t.q.UpsertContactProfile(ctx, sqlc.UpsertContactProfileParams{
		ID:               pgtypes.UUID(p.ID),
		BookingReference: p.Reference,
		ArrivalDate:      pgtypes.Date(p.Arrival),
		FullName:         p.FullName,
		Phone:            p.Phone,
		Email:            p.Email,
		AccessCode:       p.Code,
		ValidFrom:        pgtypes.Timestamptz(p.ValidFrom),
		ValidUntil:       pgtypes.Timestamptz(p.ValidUntil),
		CreatedAt:        pgtypes.Timestamptz(p.CreatedAt),
	})
	if err != nil {
		return mapWriteError(err, "failed to save contact profile "+p.ID.String())
	}

	if err := t.q.DeleteCodeHandles(ctx, pgtypes.UUID(p.ID)); err != nil {
		return fmt.Errorf("failed to replace code handles: %w", err)
	}
	for _, h := range p.Handles {
		err := t.q.InsertCodeHandle(ctx, sqlc.InsertCodeHandleParams{
			ProfileID:  pgtypes.UUID(p.ID),
			ResourceID: h.ResourceID,
			LockID:     h.LockID,
			HandleID:   h.HandleID,
			Shared:     h.Shared,
		})
		if err != nil {
			return mapWriteError(err, "failed to insert code handle for "+h.ResourceID)
		}
	}
	return nil
}

// DeleteProfile relies on ON DELETE SET NULL to unlink bookings and on
// ON DELETE CASCADE to drop the code handles
func (t *pgTx) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	n, err := t.q.DeleteContactProfile(ctx, pgtypes.UUID(id))
	if err != nil {
		return fmt.Errorf("failed to delete contact profile %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("contact profile %s: %w", id, booking.ErrNotFound)
	}
	return nil
}

func (t *pgTx) MarkMessagesProcessed(ctx context.Context, messageIDs []string, at time.Time) error {
	for _, id := range messageIDs {
		err := t.q.MarkMessageProcessed(ctx, sqlc.MarkMessageProcessedParams{
			MessageID:   id,
			ProcessedAt: pgtypes.Timestamptz(at),
		})
		if err != nil {
			return fmt.Errorf("failed to mark message %s processed: %w", id, err)
		}
	}
	return nil
}

func (t *pgTx) SaveCollision(ctx context.Context, c *booking.Collision) error {
	err := t.q.UpsertCollision(ctx, sqlc.UpsertCollisionParams{
		ID:           pgtypes.UUID(c.ID),
		ArrivalDate:  pgtypes.Date(c.Arrival),
		Refs:         pgtypes.Strings(c.References),
		BookingIds:   pgtypes.UUIDs(c.BookingIDs),
		ResolvedRefs: pgtypes.Strings(c.ResolvedReferences),
		Status:       string(c.Status),
		CreatedAt:    pgtypes.Timestamptz(c.CreatedAt),
		UpdatedAt:    pgtypes.Timestamptz(c.UpdatedAt),
	})
	if err != nil {
		return mapWriteError(err, "failed to save collision "+c.ID.String())
	}
	return nil
}

func (t *pgTx) AppendAudit(ctx context.Context, entry booking.AuditEntry) error {
	err := t.q.InsertAuditEntry(ctx, sqlc.InsertAuditEntryParams{
		ID:         pgtypes.UUID(entry.ID),
		OccurredAt: pgtypes.Timestamptz(entry.At),
		Sender:     entry.Sender,
		Command:    entry.Command,
		Method:     entry.Method,
		BookingIds: pgtypes.UUIDs(entry.BookingIDs),
		Outcome:    entry.Outcome,
	})
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (t *pgTx) AppendAttempt(ctx context.Context, entry booking.AttemptEntry) error {
	err := t.q.InsertEnrichmentAttempt(ctx, sqlc.InsertEnrichmentAttemptParams{
		ID:         pgtypes.UUID(entry.ID),
		OccurredAt: pgtypes.Timestamptz(entry.At),
		BookingID:  pgtypes.UUID(entry.BookingID),
		Attempt:    int32(entry.Attempt),
		Outcome:    entry.Outcome,
		Refs:       pgtypes.Strings(entry.References),
	})
	if err != nil {
		return fmt.Errorf("failed to append enrichment attempt: %w", err)
	}
	return nil
}

func (t *pgTx) PruneLogs(ctx context.Context, before time.Time, keep int) (int, error) {
	cutoff := pgtypes.Timestamptz(before)

	var total int64
	steps := []func() (int64, error){
		func() (int64, error) { return t.q.DeleteAuditEntriesBefore(ctx, cutoff) },
		func() (int64, error) { return t.q.DeleteEnrichmentAttemptsBefore(ctx, cutoff) },
	}
	if keep > 0 {
		steps = append(steps,
			func() (int64, error) { return t.q.TrimAuditEntries(ctx, int32(keep)) },
			func() (int64, error) { return t.q.TrimEnrichmentAttempts(ctx, int32(keep)) },
		)
	}
	for _, step := range steps {
		n, err := step()
		if err != nil {
			return int(total), fmt.Errorf("failed to prune logs: %w", err)
		}
		total += n
	}
	return int(total), nil
}

func (t *pgTx) SaveCheckinFlow(ctx context.Context, f *booking.CheckinFlow) error {
	err := t.q.UpsertCheckinFlow(ctx, sqlc.UpsertCheckinFlowParams{
		ID:               pgtypes.UUID(f.ID),
		BookingReference: f.Reference,
		ArrivalDate:      pgtypes.Date(f.Arrival),
		State:            string(f.State),
		FullName:         f.FullName,
		Phone:            f.Phone,
		Email:            f.Email,
		ProfileID:        pgtypes.NullableUUID(f.ProfileID),
		Failure:          f.Failure,
		ExpiresAt:        pgtypes.Timestamptz(f.ExpiresAt),
		UpdatedAt:        pgtypes.Timestamptz(f.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to save check-in flow %s: %w", f.ID, err)
	}
	return nil
}

func (t *pgTx) DeleteExpiredCheckinFlows(ctx context.Context, now time.Time) (int, error) {
	n, err := t.q.DeleteExpiredCheckinFlows(ctx, pgtypes.Timestamptz(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired check-in flows: %w", err)
	}
	return int(n), nil
}

func (t *pgTx) SaveSyncStatus(ctx context.Context, feed string, s *status.SyncStatus) error {
	err := t.q.UpsertFeedSyncStatus(ctx, sqlc.UpsertFeedSyncStatusParams{
		Feed:         feed,
		Phase:        string(s.Phase),
		Message:      s.Message,
		LastAttempt:  pgtypes.NullableTimestamptz(s.LastAttempt),
		AttemptCount: int32(s.AttemptCount),
		LastSyncTime: pgtypes.NullableTimestamptz(s.LastSyncTime),
		LastSyncHash: s.LastSyncHash,
		EventCount:   int32(s.EventCount),
		SyncSchedule: s.SyncSchedule,
	})
	if err != nil {
		return fmt.Errorf("failed to save sync status %s: %w", feed, err)
	}
	return nil
}

func toBooking(row sqlc.Booking) *booking.Booking {
	return &booking.Booking{
		ID:               pgtypes.FromUUID(row.ID),
		ResourceID:       row.ResourceID,
		Channel:          booking.Channel(row.Channel),
		ExternalUID:      row.ExternalUid,
		Reference:        row.BookingReference,
		DisplayName:      row.DisplayName,
		Arrival:          pgtypes.CivilDate(row.ArrivalDate),
		Departure:        pgtypes.CivilDate(row.DepartureDate),
		Status:           booking.Status(row.Status),
		ContactProfileID: pgtypes.FromNullableUUID(row.ContactProfileID),
		SupersededBy:     row.SupersededBy,
		RawSnapshot:      row.RawSnapshot,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}

func toProfile(row sqlc.ContactProfile) *booking.ContactProfile {
	return &booking.ContactProfile{
		ID:         pgtypes.FromUUID(row.ID),
		Reference:  row.BookingReference,
		Arrival:    pgtypes.CivilDate(row.ArrivalDate),
		FullName:   row.FullName,
		Phone:      row.Phone,
		Email:      row.Email,
		Code:       row.AccessCode,
		ValidFrom:  row.ValidFrom.Time,
		ValidUntil: row.ValidUntil.Time,
		CreatedAt:  row.CreatedAt.Time,
	}
}

func toCollision(row sqlc.Collision) *booking.Collision {
	return &booking.Collision{
		ID:                 pgtypes.FromUUID(row.ID),
		Arrival:            pgtypes.CivilDate(row.ArrivalDate),
		References:         row.Refs,
		BookingIDs:         pgtypes.FromUUIDs(row.BookingIds),
		ResolvedReferences: row.ResolvedRefs,
		Status:             booking.CollisionStatus(row.Status),
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}
}

func toSyncStatus(row sqlc.FeedSyncStatus) *status.SyncStatus {
	return &status.SyncStatus{
		Phase:        status.SyncPhase(row.Phase),
		Message:      row.Message,
		LastAttempt:  pgtypes.FromNullableTimestamptz(row.LastAttempt),
		AttemptCount: int(row.AttemptCount),
		LastSyncTime: pgtypes.FromNullableTimestamptz(row.LastSyncTime),
		LastSyncHash: row.LastSyncHash,
		EventCount:   int(row.EventCount),
		SyncSchedule: row.SyncSchedule,
	}
}
