// Package access issues and revokes the keypad codes that let a guest into
// the shared entrance and every resource of a booking, keeping the lock
// vendor and the booking store consistent.
package access

//go:generate mockgen -destination=mocks/mock_orchestrator.go -package=mocks -source=orchestrator.go Resources,IssuanceRecorder,Alerter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/config"
	"github.com/pickarooms/reservations-server/internal/lockapi"
	"github.com/pickarooms/reservations-server/internal/store"
)

const (
	defaultRevokeTries   = 3
	defaultRevokeElapsed = 30 * time.Second
)

// Resources resolves configured resources
type Resources interface {
	ResourceByID(id string) (*config.ResourceConfig, bool)
}

// IssuanceRecorder observes code operations, e.g. for metrics
type IssuanceRecorder interface {
	RecordAccessCodes(ctx context.Context, operation string, count int)
}

// Alerter tells operators about codes that need a manual fix
type Alerter interface {
	Alert(ctx context.Context, body string) error
}

// Guest holds the contact details captured for an identity group
type Guest struct {
	FullName string
	Phone    string
	Email    string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock sets the clock used for validity windows
func WithClock(c clock.PassiveClock) Option {
	return func(o *Orchestrator) {
		o.clock = c
	}
}

// WithLocation sets the operating timezone
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) {
		o.location = loc
	}
}

// WithSharedResource installs codes on a shared entrance before any resource
func WithSharedResource(shared *config.SharedResourceConfig) Option {
	return func(o *Orchestrator) {
		o.shared = shared
	}
}

// WithCodeSource replaces the random code generator
func WithCodeSource(generate func() (string, error)) Option {
	return func(o *Orchestrator) {
		o.generate = generate
	}
}

// WithRevokeBackOff sets the backoff policy and try limit of code revocation
func WithRevokeBackOff(newBackOff func() backoff.BackOff, tries uint) Option {
	return func(o *Orchestrator) {
		o.newBackOff = newBackOff
		o.revokeTries = tries
	}
}

// WithRecorder registers an observer of code operations
func WithRecorder(r IssuanceRecorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithAlerter reports failed issuance and codes left on the locks to
// operators
func WithAlerter(a Alerter) Option {
	return func(o *Orchestrator) {
		o.alerter = a
	}
}

// Orchestrator issues access codes for identity groups. Issuance is
// all-or-nothing across the shared entrance and every linked resource.
type Orchestrator struct {
	store       store.Store
	locks       lockapi.Client
	resources   Resources
	shared      *config.SharedResourceConfig
	clock       clock.PassiveClock
	location    *time.Location
	generate    func() (string, error)
	newBackOff  func() backoff.BackOff
	revokeTries uint
	recorder    IssuanceRecorder
	alerter     Alerter
	keys        *keyMutex
}

// New creates an orchestrator
func New(s store.Store, locks lockapi.Client, resources Resources, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       s,
		locks:       locks,
		resources:   resources,
		clock:       clock.RealClock{},
		location:    time.UTC,
		generate:    NewCodeGenerator(4).Generate,
		newBackOff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		revokeTries: defaultRevokeTries,
		keys:        newKeyMutex(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewFromConfig creates an orchestrator wired to the configured shared
// entrance, timezone and code length
func NewFromConfig(cfg *config.Config, s store.Store, locks lockapi.Client, opts ...Option) (*Orchestrator, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	length := 0
	if cfg.Locks != nil {
		length = cfg.Locks.GetCodeLength()
	}
	base := []Option{
		WithLocation(loc),
		WithSharedResource(cfg.SharedResource),
		WithCodeSource(NewCodeGenerator(length).Generate),
	}
	return New(s, locks, cfg, append(base, opts...)...), nil
}

// Issue installs a code for every confirmed row of the identity group
// (reference, arrival) and links the rows to one contact profile. Rows of an
// already enriched group that gained a resource reuse the code of the
// existing profile. On failure no code issued by this call stays installed.
func (o *Orchestrator) Issue(ctx context.Context, reference string, arrival civil.Date, guest Guest) (*booking.ContactProfile, error) {
	unlock := o.keys.Lock(reference)
	defer unlock()

	rows, err := o.store.ListBookings(ctx, booking.Filter{
		Reference: reference,
		Arrival:   &arrival,
		Statuses:  []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list identity group: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no confirmed booking #%s arriving %s: %w", reference, arrival, booking.ErrNotFound)
	}

	profile, err := o.existingProfile(ctx, rows)
	if err != nil {
		return nil, err
	}

	now := o.clock.Now()
	validUntil := o.validUntil(rows)
	if profile == nil {
		code, err := o.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate access code: %w", err)
		}
		profile = &booking.ContactProfile{
			ID:        uuid.New(),
			Reference: reference,
			Arrival:   arrival,
			Code:      code,
			ValidFrom: now,
			CreatedAt: now,
		}
	}
	if validUntil.After(profile.ValidUntil) {
		profile.ValidUntil = validUntil
	}
	applyGuest(profile, guest)

	issued, err := o.install(ctx, profile, rows)
	if err != nil {
		var issueErr *booking.CodeIssuanceError
		if errors.As(err, &issueErr) {
			o.alert(ctx, issuanceAlert(reference, arrival, issueErr))
		}
		return nil, err
	}

	previous := profile.Handles
	profile.Handles = append(slices.Clone(previous), issued...)
	err = o.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.SaveProfile(ctx, profile); err != nil {
			return err
		}
		for _, row := range rows {
			if row.ContactProfileID != nil && *row.ContactProfileID == profile.ID {
				continue
			}
			current, err := tx.GetBooking(ctx, row.ID)
			if err != nil {
				return err
			}
			current.ContactProfileID = &profile.ID
			current.UpdatedAt = now
			if err := tx.UpdateBooking(ctx, current); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		profile.Handles = previous
		left, _ := o.rollback(ctx, reference, issued)
		issueErr := &booking.CodeIssuanceError{
			Resource:   "contact profile",
			Err:        err,
			RolledBack: len(left) == 0,
			Remaining:  left,
		}
		o.alert(ctx, issuanceAlert(reference, arrival, issueErr))
		return nil, fmt.Errorf("failed to persist contact profile: %w", err)
	}

	o.record(ctx, "issued", len(issued))
	slog.Info("Access codes issued",
		"reference", reference,
		"profile_id", profile.ID,
		"handles", len(issued),
		"rows", len(rows))
	return profile, nil
}

// RevokeProfile loads a stored profile and revokes its codes. The profile
// itself is left in place.
func (o *Orchestrator) RevokeProfile(ctx context.Context, profileID uuid.UUID) error {
	profile, err := o.store.GetProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("failed to load contact profile: %w", err)
	}
	return o.RevokeCodes(ctx, profile)
}

// RevokeCodes deletes every handle of profile from the locks. Failures are
// logged, reported to operators with the handles left installed and
// returned together once every handle was tried.
func (o *Orchestrator) RevokeCodes(ctx context.Context, profile *booking.ContactProfile) error {
	unlock := o.keys.Lock(profile.Reference)
	defer unlock()

	left, errs := o.revoke(ctx, profile.Reference, profile.Handles)
	o.record(ctx, "revoked", len(profile.Handles)-len(left))
	if len(left) > 0 {
		o.alert(ctx, fmt.Sprintf("Could not revoke access codes of #%s arriving %s, remove by hand:\n%s",
			profile.Reference, profile.Arrival, describeHandles(left)))
	}
	return errors.Join(errs...)
}

// install adds the missing codes, shared entrance first. Any failure rolls
// back what this call installed.
func (o *Orchestrator) install(ctx context.Context, profile *booking.ContactProfile, rows []*booking.Booking) ([]booking.CodeHandle, error) {
	var issued []booking.CodeHandle
	req := lockapi.AddCodeRequest{
		Code:       profile.Code,
		Name:       "#" + profile.Reference,
		ValidFrom:  o.clock.Now(),
		ValidUntil: profile.ValidUntil,
	}

	if o.shared != nil {
		if _, ok := profile.SharedHandle(); !ok {
			req.LockID = o.shared.LockID
			handle, err := o.locks.AddCode(ctx, req)
			if err != nil {
				o.record(ctx, "failed", 1)
				return nil, &booking.CodeIssuanceError{Resource: o.shared.Name, Err: err}
			}
			issued = append(issued, booking.CodeHandle{
				ResourceID: o.shared.Name,
				LockID:     o.shared.LockID,
				HandleID:   handle,
				Shared:     true,
			})
		}
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		if seen[row.ResourceID] {
			continue
		}
		seen[row.ResourceID] = true
		if _, ok := profile.HandleFor(row.ResourceID); ok {
			continue
		}

		resource, ok := o.resources.ResourceByID(row.ResourceID)
		var err error
		var handle int64
		if !ok {
			err = &booking.MalformedInputError{Source: "resource", Input: row.ResourceID, Reason: "resource is not configured"}
		} else {
			req.LockID = resource.LockID
			handle, err = o.locks.AddCode(ctx, req)
		}
		if err != nil {
			o.record(ctx, "failed", 1)
			left, _ := o.rollback(ctx, profile.Reference, issued)
			return nil, &booking.CodeIssuanceError{
				Resource:   row.ResourceID,
				Err:        err,
				RolledBack: len(left) == 0,
				Remaining:  left,
			}
		}
		issued = append(issued, booking.CodeHandle{
			ResourceID: row.ResourceID,
			LockID:     resource.LockID,
			HandleID:   handle,
		})
	}
	return issued, nil
}

func (o *Orchestrator) rollback(ctx context.Context, reference string, issued []booking.CodeHandle) ([]booking.CodeHandle, []error) {
	if len(issued) == 0 {
		return nil, nil
	}
	left, errs := o.revoke(ctx, reference, issued)
	o.record(ctx, "rolled_back", len(issued)-len(left))
	return left, errs
}

// revoke deletes handles with bounded retries and returns those that could
// not be deleted along with the reasons
func (o *Orchestrator) revoke(ctx context.Context, reference string, handles []booking.CodeHandle) ([]booking.CodeHandle, []error) {
	var (
		left   []booking.CodeHandle
		failed []error
	)
	for _, h := range handles {
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			err := o.locks.DeleteCode(ctx, h.LockID, h.HandleID)
			var apiErr *lockapi.APIError
			if errors.As(err, &apiErr) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		},
			backoff.WithBackOff(o.newBackOff()),
			backoff.WithMaxTries(o.revokeTries),
			backoff.WithMaxElapsedTime(defaultRevokeElapsed),
		)
		if err != nil {
			slog.Error("Failed to revoke access code",
				"reference", reference,
				"resource", h.ResourceID,
				"lock_id", h.LockID,
				"handle_id", h.HandleID,
				"error", err)
			left = append(left, h)
			failed = append(failed, fmt.Errorf("handle %d on lock %d: %w", h.HandleID, h.LockID, err))
		}
	}
	return left, failed
}

// alert delivers body to operators. Delivery problems are only logged so
// they never mask the lock error being reported.
func (o *Orchestrator) alert(ctx context.Context, body string) {
	if o.alerter == nil {
		slog.Warn("Access code problem not sent to operators, no alerter configured", "body", body)
		return
	}
	if err := o.alerter.Alert(ctx, body); err != nil {
		slog.Error("Failed to alert operators about access codes", "error", err)
	}
}

func issuanceAlert(reference string, arrival civil.Date, err *booking.CodeIssuanceError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Access code for #%s arriving %s failed on %s: %v.", reference, arrival, err.Resource, err.Err)
	if len(err.Remaining) > 0 {
		fmt.Fprintf(&b, " Rollback incomplete, remove by hand:\n%s", describeHandles(err.Remaining))
	} else {
		b.WriteString(" No code was left installed.")
	}
	return b.String()
}

func describeHandles(handles []booking.CodeHandle) string {
	lines := make([]string, 0, len(handles))
	for _, h := range handles {
		lines = append(lines, fmt.Sprintf("%s: lock %d handle %d", h.ResourceID, h.LockID, h.HandleID))
	}
	return strings.Join(lines, "\n")
}

func (o *Orchestrator) existingProfile(ctx context.Context, rows []*booking.Booking) (*booking.ContactProfile, error) {
	for _, row := range rows {
		if row.ContactProfileID == nil {
			continue
		}
		profile, err := o.store.GetProfile(ctx, *row.ContactProfileID)
		if errors.Is(err, booking.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load contact profile: %w", err)
		}
		return profile, nil
	}
	return nil, nil
}

// validUntil is the start of the day after the latest departure of the
// group, in the operating timezone
func (o *Orchestrator) validUntil(rows []*booking.Booking) time.Time {
	departure := rows[0].Departure
	for _, row := range rows[1:] {
		if row.Departure.After(departure) {
			departure = row.Departure
		}
	}
	return departure.AddDays(1).In(o.location)
}

func (o *Orchestrator) record(ctx context.Context, operation string, count int) {
	if o.recorder != nil && count > 0 {
		o.recorder.RecordAccessCodes(ctx, operation, count)
	}
}

func applyGuest(p *booking.ContactProfile, g Guest) {
	if g.FullName != "" {
		p.FullName = g.FullName
	}
	if g.Phone != "" {
		p.Phone = g.Phone
	}
	if g.Email != "" {
		p.Email = g.Email
	}
}
