package booking

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// CodeHandle identifies one access code installed on a lock
type CodeHandle struct {
	ResourceID string
	LockID     int64
	HandleID   int64
	Shared     bool
}

// ContactProfile holds guest contact details and the access code issued for
// an identity group. Every booking of the group links to the same profile.
type ContactProfile struct {
	ID         uuid.UUID
	Reference  string
	Arrival    civil.Date
	FullName   string
	Phone      string
	Email      string
	Code       string
	ValidFrom  time.Time
	ValidUntil time.Time
	Handles    []CodeHandle
	CreatedAt  time.Time
}

// Clone returns a deep copy of the profile
func (p *ContactProfile) Clone() *ContactProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Handles = append([]CodeHandle(nil), p.Handles...)
	return &c
}

// HandleFor returns the non-shared handle installed for a resource
func (p *ContactProfile) HandleFor(resourceID string) (CodeHandle, bool) {
	for _, h := range p.Handles {
		if !h.Shared && h.ResourceID == resourceID {
			return h, true
		}
	}
	return CodeHandle{}, false
}

// SharedHandle returns the handle installed on the shared resource
func (p *ContactProfile) SharedHandle() (CodeHandle, bool) {
	for _, h := range p.Handles {
		if h.Shared {
			return h, true
		}
	}
	return CodeHandle{}, false
}

// EventKind is the type of an entry in the booking event log
type EventKind string

// EventStatusChanged records a status transition of a booking row
const EventStatusChanged EventKind = "StatusChanged"

// Event is an append-only record of a booking mutation. Seq is assigned by the store.
type Event struct {
	Seq       int64
	Kind      EventKind
	BookingID uuid.UUID
	From      Status
	To        Status
	At        time.Time
}

// StatusChanged builds a status transition event for b
func StatusChanged(b *Booking, from Status, at time.Time) Event {
	return Event{
		Kind:      EventStatusChanged,
		BookingID: b.ID,
		From:      from,
		To:        b.Status,
		At:        at,
	}
}

// CollisionStatus is the state of an operator collision
type CollisionStatus string

const (
	// CollisionOpen waits for operator assignment
	CollisionOpen CollisionStatus = "open"
	// CollisionResolved has every candidate reference assigned
	CollisionResolved CollisionStatus = "resolved"
)

// Collision records several confirmations competing for the same arrival date
type Collision struct {
	ID                 uuid.UUID
	Arrival            civil.Date
	References         []string
	BookingIDs         []uuid.UUID
	ResolvedReferences []string
	Status             CollisionStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Clone returns a deep copy of the collision
func (c *Collision) Clone() *Collision {
	if c == nil {
		return nil
	}
	out := *c
	out.References = append([]string(nil), c.References...)
	out.BookingIDs = append([]uuid.UUID(nil), c.BookingIDs...)
	out.ResolvedReferences = append([]string(nil), c.ResolvedReferences...)
	return &out
}

// Contains reports whether ref is one of the collision candidates
func (c *Collision) Contains(ref string) bool {
	for _, r := range c.References {
		if r == ref {
			return true
		}
	}
	return false
}

// MarkResolved records ref as assigned and closes the collision when every
// candidate is assigned
func (c *Collision) MarkResolved(ref string, at time.Time) {
	for _, r := range c.ResolvedReferences {
		if r == ref {
			return
		}
	}
	c.ResolvedReferences = append(c.ResolvedReferences, ref)
	c.UpdatedAt = at
	if len(c.ResolvedReferences) >= len(c.References) {
		c.Status = CollisionResolved
	}
}

// AuditEntry is a durable record of an operator action
type AuditEntry struct {
	ID         uuid.UUID
	At         time.Time
	Sender     string
	Command    string
	Method     string
	BookingIDs []uuid.UUID
	Outcome    string
}

// AttemptEntry records one enrichment attempt
type AttemptEntry struct {
	ID         uuid.UUID
	At         time.Time
	BookingID  uuid.UUID
	Attempt    int
	Outcome    string
	References []string
}

// FlowState is a step of the guest check-in flow
type FlowState string

const (
	// FlowStarted means the guest identified the booking
	FlowStarted FlowState = "started"
	// FlowDetailsSubmitted means contact details were captured
	FlowDetailsSubmitted FlowState = "details_submitted"
	// FlowCompleted means access codes were issued
	FlowCompleted FlowState = "completed"
	// FlowFailed means issuance failed and the flow cannot continue
	FlowFailed FlowState = "failed"
)

// CheckinFlow is the persisted state of one guest check-in, keyed by a
// correlation id handed to the client.
type CheckinFlow struct {
	ID        uuid.UUID
	Reference string
	Arrival   civil.Date
	State     FlowState
	FullName  string
	Phone     string
	Email     string
	ProfileID *uuid.UUID
	Failure   string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the flow
func (f *CheckinFlow) Clone() *CheckinFlow {
	if f == nil {
		return nil
	}
	c := *f
	if f.ProfileID != nil {
		id := *f.ProfileID
		c.ProfileID = &id
	}
	return &c
}
