package spreadsheet

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/store"
)

// AuditMethod tags the audit entry written for every upload
const AuditMethod = "csv_upload"

// Report summarizes one reconciliation
type Report struct {
	TotalRows      int      `json:"totalRows"`
	SingleResource int      `json:"singleResource"`
	MultiResource  int      `json:"multiResource"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Unchanged      int      `json:"unchanged"`
	Deleted        int      `json:"deleted"`
	Restored       int      `json:"restored"`
	Superseded     int      `json:"superseded"`
	Ignored        int      `json:"ignored"`
	Skipped        []string `json:"skipped,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`

	touched []uuid.UUID
}

// Mutations returns the number of rows written
func (r *Report) Mutations() int {
	return r.Created + r.Updated + r.Deleted + r.Restored + r.Superseded
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithClock sets the clock used for "today" and timestamps
func WithClock(c clock.PassiveClock) Option {
	return func(r *Reconciler) {
		r.clock = c
	}
}

// WithLocation sets the operating timezone used to decide which rows are past
func WithLocation(loc *time.Location) Option {
	return func(r *Reconciler) {
		r.loc = loc
	}
}

// Reconciler applies uploaded exports to the store
type Reconciler struct {
	store     store.Store
	unitTypes map[string]string
	clock     clock.PassiveClock
	loc       *time.Location
}

// NewReconciler creates a reconciler. unitTypes maps lowercased unit type
// labels onto resource ids.
func NewReconciler(s store.Store, unitTypes map[string]string, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:     s,
		unitTypes: unitTypes,
		clock:     clock.RealClock{},
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// group is every export row sharing a reference and arrival date
type group struct {
	key       booking.GroupKey
	row       Row
	resources []string
}

// Reconcile applies the export in one transaction. uploadedBy is recorded
// in the audit log.
func (r *Reconciler) Reconcile(ctx context.Context, sheet *Sheet, uploadedBy string) (*Report, error) {
	report := &Report{}
	for _, err := range sheet.Skipped {
		report.Skipped = append(report.Skipped, err.Error())
	}

	groups := r.plan(sheet, report)

	err := r.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		// Start from a clean tally on transaction retries
		*report = Report{
			TotalRows:      report.TotalRows,
			SingleResource: report.SingleResource,
			MultiResource:  report.MultiResource,
			Ignored:        report.Ignored,
			Skipped:        report.Skipped,
		}
		for _, g := range groups {
			if err := r.reconcileGroup(ctx, tx, g, report); err != nil {
				return fmt.Errorf("failed to reconcile %s: %w", g.key.Reference, err)
			}
		}
		return tx.AppendAudit(ctx, booking.AuditEntry{
			ID:         uuid.New(),
			At:         r.clock.Now(),
			Sender:     uploadedBy,
			Command:    "spreadsheet upload",
			Method:     AuditMethod,
			BookingIDs: report.touched,
			Outcome: fmt.Sprintf("%d created, %d updated, %d deleted, %d restored, %d superseded",
				report.Created, report.Updated, report.Deleted, report.Restored, report.Superseded),
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Spreadsheet reconciled",
		"uploaded_by", uploadedBy,
		"rows", report.TotalRows,
		"created", report.Created,
		"updated", report.Updated,
		"deleted", report.Deleted,
		"restored", report.Restored,
		"superseded", report.Superseded,
		"skipped", len(report.Skipped))
	return report, nil
}

// plan filters the export down to current, active rows and resolves their
// resources. Rows sharing a reference and arrival merge their resources.
func (r *Reconciler) plan(sheet *Sheet, report *Report) []*group {
	today := booking.DateOf(r.clock.Now(), r.loc)
	byKey := make(map[booking.GroupKey]*group)
	var groups []*group

	for _, row := range sheet.Rows {
		if row.Arrival.Before(today) {
			continue
		}
		report.TotalRows++
		if row.Status == RowCancelled {
			report.Ignored++
			continue
		}
		resources, err := DecodeUnitType(row.UnitType, r.unitTypes)
		if err != nil {
			slog.Warn("Skipping spreadsheet row", "reference", row.Reference, "line", row.Line, "error", err)
			report.Skipped = append(report.Skipped, fmt.Sprintf("line %d: %v", row.Line, err))
			continue
		}
		if len(resources) > 1 {
			report.MultiResource++
		} else {
			report.SingleResource++
		}

		key := booking.GroupKey{Reference: row.Reference, Arrival: row.Arrival}
		if g, ok := byKey[key]; ok {
			for _, id := range resources {
				if !slices.Contains(g.resources, id) {
					g.resources = append(g.resources, id)
				}
			}
			continue
		}
		g := &group{key: key, row: row, resources: resources}
		byKey[key] = g
		groups = append(groups, g)
	}
	return groups
}

func (r *Reconciler) reconcileGroup(ctx context.Context, tx store.Tx, g *group, report *Report) error {
	existing, err := tx.ListBookings(ctx, booking.Filter{
		Reference: g.key.Reference,
		Arrival:   &g.key.Arrival,
	})
	if err != nil {
		return err
	}
	have := make(map[string][]*booking.Booking)
	var haveOrder []string
	for _, b := range existing {
		if _, ok := have[b.ResourceID]; !ok {
			haveOrder = append(haveOrder, b.ResourceID)
		}
		have[b.ResourceID] = append(have[b.ResourceID], b)
	}

	var removed, added []string
	for _, res := range haveOrder {
		if slices.Contains(g.resources, res) {
			continue
		}
		removed = append(removed, res)
		if err := r.removeAssignment(ctx, tx, g, have[res], report); err != nil {
			return err
		}
	}

	for _, res := range g.resources {
		rows, ok := have[res]
		if ok {
			if err := r.updateAssignment(ctx, tx, g, preferConfirmed(rows), report); err != nil {
				return err
			}
			continue
		}
		added = append(added, res)
		if err := r.addAssignment(ctx, tx, g, res, report); err != nil {
			return err
		}
	}

	if len(existing) > 0 && (len(removed) > 0 || len(added) > 0) {
		msg := fmt.Sprintf("resource change for %s (%s, %s):", g.key.Reference, g.row.GuestName, g.key.Arrival)
		if len(removed) > 0 {
			msg += " removed from " + strings.Join(removed, ", ") + "."
		}
		if len(added) > 0 {
			msg += " added to " + strings.Join(added, ", ") + "."
		}
		slog.Warn("Spreadsheet moved booking", "reference", g.key.Reference, "removed", removed, "added", added)
		report.Warnings = append(report.Warnings, msg)
	}
	return nil
}

// removeAssignment deletes rows the export no longer assigns to a resource
// and restores the rows that were cancelled to make room for them
func (r *Reconciler) removeAssignment(
	ctx context.Context,
	tx store.Tx,
	g *group,
	rows []*booking.Booking,
	report *Report,
) error {
	for _, b := range rows {
		if b.IsEnriched() {
			msg := fmt.Sprintf("%s in %s has access codes issued and was kept", g.key.Reference, b.ResourceID)
			slog.Warn("Not removing enriched booking", "booking_id", b.ID, "reference", g.key.Reference, "resource", b.ResourceID)
			report.Warnings = append(report.Warnings, msg)
			continue
		}
		if err := tx.DeleteBooking(ctx, b.ID); err != nil {
			return err
		}
		report.Deleted++
		slog.Info("Removed wrong assignment", "booking_id", b.ID, "reference", g.key.Reference, "resource", b.ResourceID)

		if err := r.restoreVictims(ctx, tx, g.key, b.ResourceID, report); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) restoreVictims(
	ctx context.Context,
	tx store.Tx,
	key booking.GroupKey,
	resourceID string,
	report *Report,
) error {
	candidates, err := tx.ListBookings(ctx, booking.Filter{
		ResourceID: resourceID,
		Arrival:    &key.Arrival,
		Statuses:   []booking.Status{booking.StatusCancelled},
	})
	if err != nil {
		return err
	}

	now := r.clock.Now()
	for _, victim := range candidates {
		if victim.SupersededBy != key.Reference {
			continue
		}
		free, err := confirmedSlotFree(ctx, tx, victim)
		if err != nil {
			return err
		}
		if !free {
			slog.Warn("Cannot restore booking, uid already confirmed elsewhere",
				"booking_id", victim.ID, "resource", resourceID)
			continue
		}
		from := victim.Status
		victim.Status = booking.StatusConfirmed
		victim.SupersededBy = ""
		victim.UpdatedAt = now
		if err := tx.UpdateBooking(ctx, victim); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(ctx, booking.StatusChanged(victim, from, now)); err != nil {
			return err
		}
		report.Restored++
		report.touched = append(report.touched, victim.ID)
		slog.Info("Restored booking cancelled by a wrong assignment",
			"booking_id", victim.ID,
			"reference", victim.Reference,
			"resource", resourceID)
	}
	return nil
}

// updateAssignment brings an assigned row in line with the export
func (r *Reconciler) updateAssignment(
	ctx context.Context,
	tx store.Tx,
	g *group,
	b *booking.Booking,
	report *Report,
) error {
	updated := b.Clone()
	updated.Departure = g.row.Departure
	if g.row.GuestName != "" {
		updated.DisplayName = g.row.GuestName
	}
	switch g.row.Status {
	case RowGuestCancelled:
		updated.Status = booking.StatusCancelled
	default:
		updated.Status = booking.StatusConfirmed
		updated.SupersededBy = ""
	}

	if updated.Status == booking.StatusConfirmed && b.Status != booking.StatusConfirmed {
		free, err := confirmedSlotFree(ctx, tx, updated)
		if err != nil {
			return err
		}
		if !free {
			updated.Status = b.Status
			updated.SupersededBy = b.SupersededBy
		}
	}

	if updated.Departure == b.Departure &&
		updated.DisplayName == b.DisplayName &&
		updated.Status == b.Status &&
		updated.SupersededBy == b.SupersededBy {
		report.Unchanged++
		return nil
	}

	now := r.clock.Now()
	updated.UpdatedAt = now
	if err := tx.UpdateBooking(ctx, updated); err != nil {
		return err
	}
	if updated.Status != b.Status {
		if _, err := tx.AppendEvent(ctx, booking.StatusChanged(updated, b.Status, now)); err != nil {
			return err
		}
	}
	report.Updated++
	report.touched = append(report.touched, updated.ID)
	return nil
}

// addAssignment places the reference on a resource that does not carry it yet
func (r *Reconciler) addAssignment(
	ctx context.Context,
	tx store.Tx,
	g *group,
	resourceID string,
	report *Report,
) error {
	now := r.clock.Now()
	status := booking.StatusConfirmed
	if g.row.Status == RowGuestCancelled {
		status = booking.StatusCancelled
	}

	// A skeletal row for the same stay is the same booking without its reference
	skeletons, err := tx.ListBookings(ctx, booking.Filter{
		ResourceID:       resourceID,
		Arrival:          &g.key.Arrival,
		Departure:        &g.row.Departure,
		Statuses:         []booking.Status{booking.StatusConfirmed},
		WithoutReference: true,
	})
	if err != nil {
		return err
	}
	if len(skeletons) > 0 {
		b := skeletons[0]
		b.Reference = g.key.Reference
		if g.row.GuestName != "" {
			b.DisplayName = g.row.GuestName
		}
		b.Status = status
		b.UpdatedAt = now
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if status != booking.StatusConfirmed {
			if _, err := tx.AppendEvent(ctx, booking.StatusChanged(b, booking.StatusConfirmed, now)); err != nil {
				return err
			}
		}
		report.Updated++
		report.touched = append(report.touched, b.ID)
		slog.Info("Spreadsheet enriched booking", "booking_id", b.ID, "reference", g.key.Reference, "resource", resourceID)
		return nil
	}

	if status == booking.StatusConfirmed {
		occupants, err := tx.ListBookings(ctx, booking.Filter{
			ResourceID: resourceID,
			Arrival:    &g.key.Arrival,
			Statuses:   []booking.Status{booking.StatusConfirmed},
		})
		if err != nil {
			return err
		}
		for _, occupant := range occupants {
			if occupant.Reference == "" || occupant.Reference == g.key.Reference {
				continue
			}
			occupant.Status = booking.StatusCancelled
			occupant.SupersededBy = g.key.Reference
			occupant.UpdatedAt = now
			if err := tx.UpdateBooking(ctx, occupant); err != nil {
				return err
			}
			if _, err := tx.AppendEvent(ctx, booking.StatusChanged(occupant, booking.StatusConfirmed, now)); err != nil {
				return err
			}
			report.Superseded++
			report.touched = append(report.touched, occupant.ID)
			slog.Warn("Spreadsheet superseded booking",
				"booking_id", occupant.ID,
				"reference", occupant.Reference,
				"superseded_by", g.key.Reference,
				"resource", resourceID)
		}
	}

	b := &booking.Booking{
		ID:          uuid.New(),
		ResourceID:  resourceID,
		Channel:     booking.ChannelSpreadsheet,
		Reference:   g.key.Reference,
		DisplayName: g.row.GuestName,
		Arrival:     g.key.Arrival,
		Departure:   g.row.Departure,
		Status:      status,
		RawSnapshot: rawSnapshot(g.row),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.InsertBooking(ctx, b); err != nil {
		return err
	}
	report.Created++
	report.touched = append(report.touched, b.ID)
	slog.Info("Spreadsheet created booking", "booking_id", b.ID, "reference", g.key.Reference, "resource", resourceID)
	return nil
}

// confirmedSlotFree reports whether b can become confirmed without clashing
// with another confirmed row holding the same channel uid
func confirmedSlotFree(ctx context.Context, tx store.Tx, b *booking.Booking) (bool, error) {
	if b.ExternalUID == "" {
		return true, nil
	}
	holders, err := tx.ListBookings(ctx, booking.Filter{
		ResourceID:  b.ResourceID,
		Channel:     b.Channel,
		ExternalUID: b.ExternalUID,
		Statuses:    []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return false, err
	}
	return !slices.ContainsFunc(holders, func(h *booking.Booking) bool { return h.ID != b.ID }), nil
}

func preferConfirmed(rows []*booking.Booking) *booking.Booking {
	for _, b := range rows {
		if b.Status == booking.StatusConfirmed {
			return b
		}
	}
	return rows[0]
}

func rawSnapshot(row Row) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		row.Reference, row.GuestName, row.Arrival, row.Departure, row.UnitType, row.Phone, row.Status)
}

