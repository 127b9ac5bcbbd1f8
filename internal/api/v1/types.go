package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/status"
)

// BookingResponse is one canonical booking row
type BookingResponse struct {
	ID               uuid.UUID  `json:"id"`
	ResourceID       string     `json:"resourceId"`
	Channel          string     `json:"channel"`
	ExternalUID      string     `json:"externalUid,omitempty"`
	Reference        string     `json:"reference,omitempty"`
	DisplayName      string     `json:"displayName,omitempty"`
	Arrival          string     `json:"arrival"`
	Departure        string     `json:"departure"`
	Status           string     `json:"status"`
	ContactProfileID *uuid.UUID `json:"contactProfileId,omitempty"`
	SupersededBy     string     `json:"supersededBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ListBookingsResponse is the body of GET /api/v1/bookings
type ListBookingsResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Count    int               `json:"count"`
}

// SyncStatusResponse is the body of GET /api/v1/sync/status
type SyncStatusResponse struct {
	Feeds map[string]*status.SyncStatus `json:"feeds"`
}

// TriggerSyncRequest is the optional body of POST /api/v1/sync. An empty
// feed name syncs every feed.
type TriggerSyncRequest struct {
	Feed string `json:"feed"`
}

// TriggerSyncResponse acknowledges a sync request
type TriggerSyncResponse struct {
	Feed   string `json:"feed,omitempty"`
	Status string `json:"status"`
}

// CollisionResponse is one open collision
type CollisionResponse struct {
	ID                 uuid.UUID   `json:"id"`
	Arrival            string      `json:"arrival"`
	References         []string    `json:"references"`
	ResolvedReferences []string    `json:"resolvedReferences,omitempty"`
	BookingIDs         []uuid.UUID `json:"bookingIds"`
	Status             string      `json:"status"`
	CreatedAt          time.Time   `json:"createdAt"`
}

// AuditEntryResponse is one audit log entry
type AuditEntryResponse struct {
	ID         uuid.UUID   `json:"id"`
	At         time.Time   `json:"at"`
	Sender     string      `json:"sender"`
	Command    string      `json:"command"`
	Method     string      `json:"method"`
	BookingIDs []uuid.UUID `json:"bookingIds,omitempty"`
	Outcome    string      `json:"outcome"`
}

// StartCheckinRequest is the body of POST /api/v1/checkin
type StartCheckinRequest struct {
	Reference string `json:"reference"`
}

// CheckinDetailsRequest is the body of POST /api/v1/checkin/{id}/details
type CheckinDetailsRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// CheckinFlowResponse describes a check-in flow
type CheckinFlowResponse struct {
	ID        uuid.UUID  `json:"id"`
	Reference string     `json:"reference"`
	Arrival   string     `json:"arrival"`
	State     string     `json:"state"`
	FullName  string     `json:"fullName,omitempty"`
	ProfileID *uuid.UUID `json:"profileId,omitempty"`
	Failure   string     `json:"failure,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:               b.ID,
		ResourceID:       b.ResourceID,
		Channel:          string(b.Channel),
		ExternalUID:      b.ExternalUID,
		Reference:        b.Reference,
		DisplayName:      b.DisplayName,
		Arrival:          b.Arrival.String(),
		Departure:        b.Departure.String(),
		Status:           string(b.Status),
		ContactProfileID: b.ContactProfileID,
		SupersededBy:     b.SupersededBy,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toCollisionResponse(c *booking.Collision) CollisionResponse {
	return CollisionResponse{
		ID:                 c.ID,
		Arrival:            c.Arrival.String(),
		References:         c.References,
		ResolvedReferences: c.ResolvedReferences,
		BookingIDs:         c.BookingIDs,
		Status:             string(c.Status),
		CreatedAt:          c.CreatedAt,
	}
}

func toAuditEntryResponse(e booking.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID,
		At:         e.At,
		Sender:     e.Sender,
		Command:    e.Command,
		Method:     e.Method,
		BookingIDs: e.BookingIDs,
		Outcome:    e.Outcome,
	}
}

func toCheckinFlowResponse(f *booking.CheckinFlow) CheckinFlowResponse {
	return CheckinFlowResponse{
		ID:        f.ID,
		Reference: f.Reference,
		Arrival:   f.Arrival.String(),
		State:     string(f.State),
		FullName:  f.FullName,
		ProfileID: f.ProfileID,
		Failure:   f.Failure,
		ExpiresAt: f.ExpiresAt,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}
