package commands

//go:generate mockgen -destination=mocks/mock_interpreter.go -package=mocks -source=interpreter.go CodeRevoker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/store"
)

// ReplyUnauthorized is sent to senders outside the authorized set
const ReplyUnauthorized = "Unauthorized"

// Resources resolves the resources commands refer to
type Resources interface {
	ResourceByNumber(n int) (*config.ResourceConfig, bool)
	ResourceByID(id string) (*config.ResourceConfig, bool)
}

// CodeRevoker revokes the access codes recorded on a contact profile
type CodeRevoker interface {
	RevokeCodes(ctx context.Context, profile *booking.ContactProfile) error
}

// InterpreterOption configures an Interpreter
type InterpreterOption func(*Interpreter)

// WithClock sets the clock used for "today" and audit timestamps
func WithClock(c clock.PassiveClock) InterpreterOption {
	return func(i *Interpreter) {
		i.clock = c
	}
}

// WithLocation sets the operating timezone
func WithLocation(loc *time.Location) InterpreterOption {
	return func(i *Interpreter) {
		i.loc = loc
	}
}

// WithCodeRevoker sets the revoker used when a correction drops a profile
func WithCodeRevoker(r CodeRevoker) InterpreterOption {
	return func(i *Interpreter) {
		i.revoker = r
	}
}

// Interpreter executes operator commands against the booking store
type Interpreter struct {
	store     store.Store
	resources Resources
	senders   map[string]struct{}
	revoker   CodeRevoker
	clock     clock.PassiveClock
	loc       *time.Location
}

// NewInterpreter creates an interpreter accepting commands from senders only
func NewInterpreter(s store.Store, resources Resources, senders []string, opts ...InterpreterOption) *Interpreter {
	i := &Interpreter{
		store:     s,
		resources: resources,
		senders:   make(map[string]struct{}, len(senders)),
		clock:     clock.RealClock{},
		loc:       time.UTC,
	}
	for _, sender := range senders {
		i.senders[normalizeSender(sender)] = struct{}{}
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func normalizeSender(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// Authorized reports whether sender may issue commands
func (i *Interpreter) Authorized(sender string) bool {
	_, ok := i.senders[normalizeSender(sender)]
	return ok
}

func (i *Interpreter) today() civil.Date {
	return booking.DateOf(i.clock.Now(), i.loc)
}

// outcome is the result of one executed command
type outcome struct {
	reply      string
	bookingIDs []uuid.UUID
}

// Handle executes body on behalf of sender and returns the plain-text reply.
// Failures are reported in the reply; they never pass silently.
func (i *Interpreter) Handle(ctx context.Context, sender, body string) string {
	if !i.Authorized(sender) {
		slog.Warn("Command from unauthorized sender", "sender", sender)
		return ReplyUnauthorized
	}

	cmd, err := Parse(body)
	if err != nil {
		slog.Warn("Unrecognized command", "sender", sender, "error", err)
		return fmt.Sprintf("Could not understand %q. Reply help for the command list.", strings.TrimSpace(body))
	}

	var res outcome
	switch cmd.Kind {
	case KindHelp:
		res = outcome{reply: Guide}
	case KindBatch:
		res = i.batch(ctx, sender, body, cmd)
		return res.reply
	case KindCorrect:
		res, err = i.correct(ctx, sender, body, cmd.Assignments[0])
	case KindCancel:
		res, err = i.cancel(ctx, sender, body, cmd.Reference)
	case KindCheck:
		res, err = i.check(ctx, cmd.Reference)
	case KindAssign:
		res, err = i.withAudit(ctx, sender, body, MethodAssign, func(ctx context.Context, tx store.Tx) (outcome, error) {
			return i.assign(ctx, tx, cmd.Assignments[0])
		})
	case KindAdopt:
		res, err = i.withAudit(ctx, sender, body, MethodAdopt, func(ctx context.Context, tx store.Tx) (outcome, error) {
			return i.adopt(ctx, tx, cmd.Reference)
		})
	}

	if err != nil {
		reply := failureReply(err)
		i.record(ctx, sender, body, cmd.Kind.Method(), reply)
		return reply
	}
	if cmd.Kind == KindHelp || cmd.Kind == KindCheck {
		i.record(ctx, sender, body, cmd.Kind.Method(), "ok")
	}
	slog.Info("Command executed", "sender", sender, "kind", cmd.Kind, "bookings", len(res.bookingIDs))
	return res.reply
}

func failureReply(err error) string {
	var stale *booking.StaleCommandError
	if errors.As(err, &stale) {
		return fmt.Sprintf("Already done: #%s %s.", stale.Reference, stale.Reason)
	}
	var bad *booking.MalformedInputError
	if errors.As(err, &bad) {
		return fmt.Sprintf("Invalid command: %s.", bad.Reason)
	}
	return fmt.Sprintf("Failed: %s.", err)
}

// withAudit runs fn in a transaction and records the audit entry in the same
// transaction when fn succeeds
func (i *Interpreter) withAudit(
	ctx context.Context,
	sender, body, method string,
	fn func(ctx context.Context, tx store.Tx) (outcome, error),
) (outcome, error) {
	var res outcome
	err := i.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if res, err = fn(ctx, tx); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, i.auditEntry(sender, body, method, res.bookingIDs, "ok"))
	})
	return res, err
}

// record stores an audit entry outside of any command transaction
func (i *Interpreter) record(ctx context.Context, sender, body, method, result string) {
	err := i.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.AppendAudit(ctx, i.auditEntry(sender, body, method, nil, result))
	})
	if err != nil {
		slog.Error("Failed to record command audit", "sender", sender, "error", err)
	}
}

func (i *Interpreter) auditEntry(sender, body, method string, ids []uuid.UUID, result string) booking.AuditEntry {
	return booking.AuditEntry{
		ID:         uuid.New(),
		At:         i.clock.Now(),
		Sender:     sender,
		Command:    strings.TrimSpace(body),
		Method:     method,
		BookingIDs: ids,
		Outcome:    result,
	}
}

func (i *Interpreter) resource(n int) (*config.ResourceConfig, error) {
	res, ok := i.resources.ResourceByNumber(n)
	if !ok {
		return nil, &booking.MalformedInputError{
			Source: "command",
			Input:  fmt.Sprint(n),
			Reason: fmt.Sprintf("unknown room number %d", n),
		}
	}
	return res, nil
}

func (i *Interpreter) resourceName(id string) string {
	if res, ok := i.resources.ResourceByID(id); ok && res.Name != "" {
		return res.Name
	}
	return id
}

// collisionFor returns the newest collision listing ref, or nil
func collisionFor(ref string, open []*booking.Collision) *booking.Collision {
	for idx := len(open) - 1; idx >= 0; idx-- {
		if open[idx].Contains(ref) {
			return open[idx]
		}
	}
	return nil
}

// assign places ref on the unenriched row of the resource. When the
// reference is a collision candidate the row must arrive on the collision
// date; a missing row is then created since the confirmation is known.
func (i *Interpreter) assign(ctx context.Context, tx store.Tx, a Assignment) (outcome, error) {
	res, err := i.resource(a.Resource)
	if err != nil {
		return outcome{}, err
	}

	assigned, err := tx.ListBookings(ctx, booking.Filter{
		Reference:  a.Reference,
		ResourceID: res.ID,
		Statuses:   []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return outcome{}, err
	}
	if len(assigned) > 0 {
		return outcome{}, &booking.StaleCommandError{
			Reference: a.Reference,
			Reason:    "is already assigned to " + res.Name,
		}
	}

	open, err := tx.ListOpenCollisions(ctx)
	if err != nil {
		return outcome{}, err
	}
	collision := collisionFor(a.Reference, open)

	filter := booking.Filter{
		ResourceID:       res.ID,
		Statuses:         []booking.Status{booking.StatusConfirmed},
		WithoutReference: true,
	}
	today := i.today()
	if collision != nil {
		filter.Arrival = &collision.Arrival
	} else {
		filter.ArrivalFrom = &today
	}
	rows, err := tx.ListBookings(ctx, filter)
	if err != nil {
		return outcome{}, err
	}

	now := i.clock.Now()
	var row *booking.Booking
	switch {
	case len(rows) > 0:
		row = rows[0]
		row.Reference = a.Reference
		row.Departure = row.Arrival.AddDays(a.Nights)
		row.UpdatedAt = now
		if err := tx.UpdateBooking(ctx, row); err != nil {
			return outcome{}, err
		}
	case collision != nil:
		row = &booking.Booking{
			ID:         uuid.New(),
			ResourceID: res.ID,
			Channel:    booking.ChannelManual,
			Reference:  a.Reference,
			Arrival:    collision.Arrival,
			Departure:  collision.Arrival.AddDays(a.Nights),
			Status:     booking.StatusConfirmed,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.InsertBooking(ctx, row); err != nil {
			return outcome{}, err
		}
	default:
		return outcome{}, fmt.Errorf("no reservation waiting for a reference in %s", res.Name)
	}

	if collision != nil {
		collision.MarkResolved(a.Reference, now)
		if err := tx.SaveCollision(ctx, collision); err != nil {
			return outcome{}, err
		}
	}

	return outcome{
		reply: fmt.Sprintf("Assigned #%s to %s, %s to %s (%d nights).",
			a.Reference, res.Name, formatDate(row.Arrival), formatDate(row.Departure), a.Nights),
		bookingIDs: []uuid.UUID{row.ID},
	}, nil
}

// adopt gives ref to the oldest upcoming row still waiting for a reference
func (i *Interpreter) adopt(ctx context.Context, tx store.Tx, ref string) (outcome, error) {
	known, err := tx.ListBookings(ctx, booking.Filter{
		Reference: ref,
		Statuses:  []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return outcome{}, err
	}
	if len(known) > 0 {
		return outcome{}, &booking.StaleCommandError{
			Reference: ref,
			Reason:    "is already assigned to " + i.resourceName(known[0].ResourceID),
		}
	}

	open, err := tx.ListOpenCollisions(ctx)
	if err != nil {
		return outcome{}, err
	}
	collision := collisionFor(ref, open)

	today := i.today()
	filter := booking.Filter{
		Statuses:         []booking.Status{booking.StatusConfirmed},
		WithoutReference: true,
		ArrivalFrom:      &today,
	}
	if collision != nil {
		filter.Arrival = &collision.Arrival
	}
	rows, err := tx.ListBookings(ctx, filter)
	if err != nil {
		return outcome{}, err
	}
	if len(rows) == 0 {
		return outcome{}, fmt.Errorf("no reservation is waiting for a reference")
	}

	now := i.clock.Now()
	row := rows[0]
	row.Reference = ref
	row.UpdatedAt = now
	if err := tx.UpdateBooking(ctx, row); err != nil {
		return outcome{}, err
	}
	if collision != nil {
		collision.MarkResolved(ref, now)
		if err := tx.SaveCollision(ctx, collision); err != nil {
			return outcome{}, err
		}
	}

	return outcome{
		reply: fmt.Sprintf("Assigned #%s to %s, %s to %s (%d nights).",
			ref, i.resourceName(row.ResourceID), formatDate(row.Arrival), formatDate(row.Departure), row.Nights()),
		bookingIDs: []uuid.UUID{row.ID},
	}, nil
}

// batch runs every assignment on its own so that one bad line does not
// block the others
func (i *Interpreter) batch(ctx context.Context, sender, body string, cmd Command) outcome {
	var (
		lines []string
		ids   []uuid.UUID
		fails []string
	)
	for _, a := range cmd.Assignments {
		var res outcome
		err := i.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
			var err error
			res, err = i.assign(ctx, tx, a)
			return err
		})
		if err != nil {
			line := fmt.Sprintf("#%s: %s", a.Reference, failureReply(err))
			lines = append(lines, line)
			fails = append(fails, line)
			continue
		}
		lines = append(lines, res.reply)
		ids = append(ids, res.bookingIDs...)
	}

	result := "ok"
	if len(fails) > 0 {
		result = strings.Join(fails, "; ")
	}
	err := i.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.AppendAudit(ctx, i.auditEntry(sender, body, MethodBatch, ids, result))
	})
	if err != nil {
		slog.Error("Failed to record command audit", "sender", sender, "error", err)
	}

	return outcome{
		reply:      fmt.Sprintf("%d of %d bookings assigned.\n%s", len(cmd.Assignments)-len(fails), len(cmd.Assignments), strings.Join(lines, "\n")),
		bookingIDs: ids,
	}
}

// cancel marks every confirmed row of ref cancelled. Access codes are left
// to the cancellation handler, which applies the arrival-day rule.
func (i *Interpreter) cancel(ctx context.Context, sender, body, ref string) (outcome, error) {
	return i.withAudit(ctx, sender, body, MethodCancel, func(ctx context.Context, tx store.Tx) (outcome, error) {
		rows, err := tx.ListBookings(ctx, booking.Filter{Reference: ref})
		if err != nil {
			return outcome{}, err
		}
		if len(rows) == 0 {
			return outcome{}, fmt.Errorf("reservation #%s not found", ref)
		}

		now := i.clock.Now()
		var ids []uuid.UUID
		var names []string
		for _, row := range rows {
			if row.Status == booking.StatusCancelled {
				continue
			}
			from := row.Status
			row.Status = booking.StatusCancelled
			row.UpdatedAt = now
			if err := tx.UpdateBooking(ctx, row); err != nil {
				return outcome{}, err
			}
			if _, err := tx.AppendEvent(ctx, booking.StatusChanged(row, from, now)); err != nil {
				return outcome{}, err
			}
			ids = append(ids, row.ID)
			names = append(names, i.resourceName(row.ResourceID))
		}
		if len(ids) == 0 {
			return outcome{}, &booking.StaleCommandError{Reference: ref, Reason: "is already cancelled"}
		}
		return outcome{
			reply:      fmt.Sprintf("Cancelled #%s (%s), check-in %s.", ref, strings.Join(names, ", "), formatDate(rows[0].Arrival)),
			bookingIDs: ids,
		}, nil
	})
}

// check reports the reservation without changing it
func (i *Interpreter) check(ctx context.Context, ref string) (outcome, error) {
	rows, err := i.store.ListBookings(ctx, booking.Filter{Reference: ref})
	if err != nil {
		return outcome{}, err
	}
	if len(rows) == 0 {
		return outcome{reply: fmt.Sprintf("Reservation #%s not found.", ref)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reservation #%s", ref)
	for _, row := range rows {
		state := "Pending enrichment"
		switch {
		case row.Status == booking.StatusCancelled:
			state = "Cancelled"
		case row.IsEnriched():
			state = "Confirmed, codes issued"
		case row.Status == booking.StatusConfirmed:
			state = "Confirmed, awaiting guest details"
		}
		fmt.Fprintf(&b, "\n%s: %s to %s (%d nights), %s",
			i.resourceName(row.ResourceID), formatDate(row.Arrival), formatDate(row.Departure), row.Nights(), state)
		if row.IsEnriched() {
			if p, err := i.store.GetProfile(ctx, *row.ContactProfileID); err == nil {
				fmt.Fprintf(&b, "\nGuest: %s, phone %s", p.FullName, orNA(p.Phone))
			}
		}
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return outcome{reply: b.String(), bookingIDs: ids}, nil
}

// correct deletes the rows of the reference, with their contact profiles,
// and recreates a single row in the given resource
func (i *Interpreter) correct(ctx context.Context, sender, body string, a Assignment) (outcome, error) {
	res, err := i.resource(a.Resource)
	if err != nil {
		return outcome{}, err
	}

	rows, err := i.store.ListBookings(ctx, booking.Filter{
		Reference: a.Reference,
		Statuses:  []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return outcome{}, err
	}
	if len(rows) == 0 {
		return outcome{}, fmt.Errorf("reservation #%s not found", a.Reference)
	}
	arrival := rows[0].Arrival
	departure := arrival.AddDays(a.Nights)
	if len(rows) == 1 && rows[0].ResourceID == res.ID && rows[0].Departure == departure {
		return outcome{}, &booking.StaleCommandError{
			Reference: a.Reference,
			Reason:    fmt.Sprintf("is already in %s for %d nights", res.Name, a.Nights),
		}
	}

	profiles := profileIDs(rows)
	// the profiles are gone once the correction commits, so their handles
	// are read now and revoked afterwards
	dropped, err := i.loadProfiles(ctx, profiles)
	if err != nil {
		return outcome{}, err
	}

	var previous []string
	for _, row := range rows {
		previous = append(previous, fmt.Sprintf("%s %d nights", i.resourceName(row.ResourceID), row.Nights()))
	}

	done, err := i.withAudit(ctx, sender, body, MethodCorrect, func(ctx context.Context, tx store.Tx) (outcome, error) {
		for _, id := range profiles {
			if err := tx.DeleteProfile(ctx, id); err != nil && !errors.Is(err, booking.ErrNotFound) {
				return outcome{}, err
			}
		}

		now := i.clock.Now()
		replacement := &booking.Booking{
			ID:          uuid.New(),
			ResourceID:  res.ID,
			Channel:     booking.ChannelManual,
			Reference:   a.Reference,
			DisplayName: rows[0].DisplayName,
			Arrival:     arrival,
			Departure:   departure,
			Status:      booking.StatusConfirmed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		ids := []uuid.UUID{replacement.ID}
		for _, row := range rows {
			// keep the feed identity when the room is unchanged so the next
			// sync matches the replacement instead of recreating a skeleton
			if row.ResourceID == res.ID && row.ExternalUID != "" && replacement.ExternalUID == "" {
				replacement.Channel = row.Channel
				replacement.ExternalUID = row.ExternalUID
			}
			if err := tx.DeleteBooking(ctx, row.ID); err != nil {
				return outcome{}, err
			}
			ids = append(ids, row.ID)
		}
		if err := tx.InsertBooking(ctx, replacement); err != nil {
			return outcome{}, err
		}

		return outcome{
			reply: fmt.Sprintf("Corrected #%s. Previous: %s. Now: %s, %s to %s (%d nights).",
				a.Reference, strings.Join(previous, ", "), res.Name, formatDate(arrival), formatDate(departure), a.Nights),
			bookingIDs: ids,
		}, nil
	})
	if err != nil {
		return outcome{}, err
	}
	i.revokeDropped(ctx, a.Reference, dropped)
	return done, nil
}

func (i *Interpreter) loadProfiles(ctx context.Context, ids []uuid.UUID) ([]*booking.ContactProfile, error) {
	if i.revoker == nil {
		return nil, nil
	}
	profiles := make([]*booking.ContactProfile, 0, len(ids))
	for _, id := range ids {
		p, err := i.store.GetProfile(ctx, id)
		if errors.Is(err, booking.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// revokeDropped removes the codes of profiles deleted by a committed
// correction. Failures are reported to operators by the revoker.
func (i *Interpreter) revokeDropped(ctx context.Context, reference string, profiles []*booking.ContactProfile) {
	for _, p := range profiles {
		if err := i.revoker.RevokeCodes(ctx, p); err != nil {
			slog.Error("Failed to revoke codes during correction", "reference", reference, "profile_id", p.ID, "error", err)
		}
	}
}

func profileIDs(rows []*booking.Booking) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, row := range rows {
		if row.ContactProfileID == nil {
			continue
		}
		if _, ok := seen[*row.ContactProfileID]; ok {
			continue
		}
		seen[*row.ContactProfileID] = struct{}{}
		ids = append(ids, *row.ContactProfileID)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
	return ids
}

func formatDate(d civil.Date) string {
	return d.In(time.UTC).Format("02 Jan 2006")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
