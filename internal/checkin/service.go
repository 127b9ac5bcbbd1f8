// Package checkin drives the guest check-in flow: the guest identifies a
// booking, submits contact details and receives access codes. The state of
// every flow is persisted with an expiry and addressed by a correlation id.
package checkin

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Issuer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/pickarooms/reservations-server/internal/access"
	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/store"
)

// ErrExpired is returned for steps on a flow past its expiry
var ErrExpired = errors.New("check-in flow expired")

// StateError is returned when a step does not follow the current state
type StateError struct {
	Step  string
	State booking.FlowState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a check-in in state %s", e.Step, e.State)
}

// Issuer issues access codes for an identity group
type Issuer interface {
	Issue(ctx context.Context, reference string, arrival civil.Date, guest access.Guest) (*booking.ContactProfile, error)
}

// Details are the contact details a guest submits
type Details struct {
	FullName string
	Phone    string
	Email    string
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the clock used for expiry
func WithClock(c clock.PassiveClock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithLocation sets the operating timezone
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// Service runs check-in flows
type Service struct {
	store    store.Store
	issuer   Issuer
	ttl      time.Duration
	clock    clock.PassiveClock
	location *time.Location
}

// New creates a check-in service whose flows expire after ttl without progress
func New(s store.Store, issuer Issuer, ttl time.Duration, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		issuer:   issuer,
		ttl:      ttl,
		clock:    clock.RealClock{},
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Start opens a flow for the next confirmed stay with the given reference
func (s *Service) Start(ctx context.Context, reference string) (*booking.CheckinFlow, error) {
	reference = strings.TrimPrefix(strings.TrimSpace(reference), "#")
	if !booking.IsAuthoritativeReference(reference) {
		return nil, &booking.MalformedInputError{Source: "checkin", Input: reference, Reason: "not a booking reference"}
	}

	now := s.clock.Now()
	today := civil.DateOf(now.In(s.location))
	rows, err := s.store.ListBookings(ctx, booking.Filter{
		Reference:   reference,
		ArrivalFrom: &today,
		Statuses:    []booking.Status{booking.StatusConfirmed},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up booking: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no upcoming confirmed booking #%s: %w", reference, booking.ErrNotFound)
	}
	arrival := rows[0].Arrival
	for _, row := range rows[1:] {
		if row.Arrival.Before(arrival) {
			arrival = row.Arrival
		}
	}

	flow := &booking.CheckinFlow{
		ID:        uuid.New(),
		Reference: reference,
		Arrival:   arrival,
		State:     booking.FlowStarted,
		ExpiresAt: now.Add(s.ttl),
		UpdatedAt: now,
	}
	if err := s.save(ctx, flow); err != nil {
		return nil, err
	}
	slog.Info("Check-in started", "reference", reference, "flow_id", flow.ID)
	return flow, nil
}

// SubmitDetails records the guest's contact details. Details may be
// resubmitted until the flow completes.
func (s *Service) SubmitDetails(ctx context.Context, id uuid.UUID, d Details) (*booking.CheckinFlow, error) {
	flow, err := s.active(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow.State != booking.FlowStarted && flow.State != booking.FlowDetailsSubmitted {
		return nil, &StateError{Step: "submit details for", State: flow.State}
	}

	d.FullName = strings.TrimSpace(d.FullName)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Email = strings.TrimSpace(d.Email)
	if d.FullName == "" {
		return nil, &booking.MalformedInputError{Source: "checkin", Reason: "full name is required"}
	}
	if d.Phone == "" && d.Email == "" {
		return nil, &booking.MalformedInputError{Source: "checkin", Reason: "a phone number or an email address is required"}
	}

	now := s.clock.Now()
	flow.FullName = d.FullName
	flow.Phone = d.Phone
	flow.Email = d.Email
	flow.State = booking.FlowDetailsSubmitted
	flow.ExpiresAt = now.Add(s.ttl)
	flow.UpdatedAt = now
	if err := s.save(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// Complete issues access codes for the identity group of the flow. A failed
// issuance ends the flow in the failed state with the reason recorded;
// completing a completed flow returns it unchanged.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error) {
	flow, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow.State == booking.FlowCompleted {
		return flow, nil
	}
	if s.expired(flow) {
		return nil, ErrExpired
	}
	if flow.State != booking.FlowDetailsSubmitted {
		return nil, &StateError{Step: "complete", State: flow.State}
	}

	profile, issueErr := s.issuer.Issue(ctx, flow.Reference, flow.Arrival, access.Guest{
		FullName: flow.FullName,
		Phone:    flow.Phone,
		Email:    flow.Email,
	})

	flow.UpdatedAt = s.clock.Now()
	if issueErr != nil {
		flow.State = booking.FlowFailed
		flow.Failure = issueErr.Error()
		slog.Error("Check-in failed", "reference", flow.Reference, "flow_id", flow.ID, "error", issueErr)
	} else {
		flow.State = booking.FlowCompleted
		flow.ProfileID = &profile.ID
		slog.Info("Check-in completed", "reference", flow.Reference, "flow_id", flow.ID, "profile_id", profile.ID)
	}
	if err := s.save(ctx, flow); err != nil {
		return nil, err
	}
	if issueErr != nil {
		return flow, fmt.Errorf("failed to issue access codes: %w", issueErr)
	}
	return flow, nil
}

// Get returns a flow. Unfinished flows past their expiry are reported as
// ErrExpired.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error) {
	flow, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow.State != booking.FlowCompleted && s.expired(flow) {
		return nil, ErrExpired
	}
	return flow, nil
}

func (s *Service) active(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error) {
	flow, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.expired(flow) {
		return nil, ErrExpired
	}
	return flow, nil
}

func (s *Service) expired(flow *booking.CheckinFlow) bool {
	return !s.clock.Now().Before(flow.ExpiresAt)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error) {
	flow, err := s.store.GetCheckinFlow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in flow: %w", err)
	}
	return flow, nil
}

func (s *Service) save(ctx context.Context, flow *booking.CheckinFlow) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.SaveCheckinFlow(ctx, flow)
	})
	if err != nil {
		return fmt.Errorf("failed to save check-in flow: %w", err)
	}
	return nil
}
