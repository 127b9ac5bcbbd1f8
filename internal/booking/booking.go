// Package booking contains the canonical reservation model shared by every
// channel that feeds the reconciliation engine.
package booking

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Channel identifies the external data source a booking row came from
type Channel string

const (
	// ChannelBooking is the Booking.com calendar feed
	ChannelBooking Channel = "booking"
	// ChannelAirbnb is the Airbnb calendar feed
	ChannelAirbnb Channel = "airbnb"
	// ChannelSpreadsheet is the operator-uploaded reservation export
	ChannelSpreadsheet Channel = "spreadsheet"
	// ChannelManual marks rows created by operator commands
	ChannelManual Channel = "manual"
)

// ParseChannel decodes a configured channel name
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(s); c {
	case ChannelBooking, ChannelAirbnb, ChannelSpreadsheet, ChannelManual:
		return c, nil
	default:
		return "", &MalformedInputError{Source: "channel", Input: s, Reason: "unknown channel"}
	}
}

// Booking is one row of the canonical booking store: one stay in one resource.
type Booking struct {
	ID          uuid.UUID
	ResourceID  string
	Channel     Channel
	ExternalUID string
	// Reference is the confirmation number issued by the reservation platform
	Reference   string
	DisplayName string
	Arrival     civil.Date
	Departure   civil.Date
	Status      Status
	// ContactProfileID is set once access codes were issued for this row
	ContactProfileID *uuid.UUID
	// SupersededBy holds the reference whose spreadsheet row caused this row
	// to be cancelled automatically. Cleared when the row is restored.
	SupersededBy string
	RawSnapshot  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a deep copy of the booking
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.ContactProfileID != nil {
		id := *b.ContactProfileID
		c.ContactProfileID = &id
	}
	return &c
}

// IsEnriched reports whether a contact profile is attached to the row
func (b *Booking) IsEnriched() bool {
	return b.ContactProfileID != nil
}

// NeedsReference reports whether the row is still waiting for its confirmation number
func (b *Booking) NeedsReference() bool {
	return b.Reference == ""
}

// Nights returns the length of the stay
func (b *Booking) Nights() int {
	return b.Departure.DaysSince(b.Arrival)
}

// GroupKey identifies the canonical identity group of a row
type GroupKey struct {
	Reference string
	Arrival   civil.Date
}

// Group returns the identity group key; ok is false for rows without a reference
func (b *Booking) Group() (GroupKey, bool) {
	if b.Reference == "" {
		return GroupKey{}, false
	}
	return GroupKey{Reference: b.Reference, Arrival: b.Arrival}, true
}

// Filter selects bookings from the store. Zero-valued fields do not constrain.
type Filter struct {
	IDs              []uuid.UUID
	Reference        string
	ResourceID       string
	Channel          Channel
	ExternalUID      string
	Arrival          *civil.Date
	Departure        *civil.Date
	ArrivalFrom      *civil.Date
	DepartureBefore  *civil.Date
	Statuses         []Status
	ProfileID        *uuid.UUID
	WithoutReference bool
	WithoutProfile   bool
	CreatedAfter     *time.Time
	Limit            int
}

// Matches reports whether b satisfies every constraint of the filter
func (f *Filter) Matches(b *Booking) bool {
	if len(f.IDs) > 0 && !containsID(f.IDs, b.ID) {
		return false
	}
	if f.Reference != "" && b.Reference != f.Reference {
		return false
	}
	if f.ResourceID != "" && b.ResourceID != f.ResourceID {
		return false
	}
	if f.Channel != "" && b.Channel != f.Channel {
		return false
	}
	if f.ExternalUID != "" && b.ExternalUID != f.ExternalUID {
		return false
	}
	if f.Arrival != nil && b.Arrival != *f.Arrival {
		return false
	}
	if f.Departure != nil && b.Departure != *f.Departure {
		return false
	}
	if f.ArrivalFrom != nil && b.Arrival.Before(*f.ArrivalFrom) {
		return false
	}
	if f.DepartureBefore != nil && !b.Departure.Before(*f.DepartureBefore) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, b.Status) {
		return false
	}
	if f.ProfileID != nil && (b.ContactProfileID == nil || *b.ContactProfileID != *f.ProfileID) {
		return false
	}
	if f.WithoutReference && b.Reference != "" {
		return false
	}
	if f.WithoutProfile && b.ContactProfileID != nil {
		return false
	}
	if f.CreatedAfter != nil && !b.CreatedAt.After(*f.CreatedAfter) {
		return false
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsStatus(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// DateOf returns the civil date of t in loc
func DateOf(t time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(t.In(loc))
}
