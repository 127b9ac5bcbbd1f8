// Package v1 provides the REST handlers of the reservations API.
package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/checkin"
	"github.com/pickarooms/reservations-server/internal/spreadsheet"
	"github.com/pickarooms/reservations-server/internal/status"
)

// BookingReader reads the canonical store
type BookingReader interface {
	ListBookings(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error)
	ListOpenCollisions(ctx context.Context) ([]*booking.Collision, error)
	ListAudit(ctx context.Context, limit int) ([]booking.AuditEntry, error)
}

// SyncStatusLister lists the sync state of the configured feeds
type SyncStatusLister interface {
	ListSyncStatuses(ctx context.Context) (map[string]*status.SyncStatus, error)
}

// SyncTrigger requests manual feed syncs
type SyncTrigger interface {
	Trigger(feed string) error
}

// SpreadsheetReconciler applies an uploaded reservation export
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks github.com/pickarooms/reservations-server/internal/api/v1 SpreadsheetReconciler,CommandSubmitter,CheckinService,ReadinessChecker
type SpreadsheetReconciler interface {
	Reconcile(ctx context.Context, sheet *spreadsheet.Sheet, uploadedBy string) (*spreadsheet.Report, error)
}

// CommandSubmitter hands an operator message to the command interpreter
// and returns the reply
type CommandSubmitter interface {
	Submit(ctx context.Context, sender, body string) (string, error)
}

// CheckinService drives the guest check-in flow
type CheckinService interface {
	Start(ctx context.Context, reference string) (*booking.CheckinFlow, error)
	SubmitDetails(ctx context.Context, id uuid.UUID, d checkin.Details) (*booking.CheckinFlow, error)
	Complete(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error)
	Get(ctx context.Context, id uuid.UUID) (*booking.CheckinFlow, error)
}

// ReadinessChecker reports whether the server can serve requests
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Services bundles the components the routes delegate to
type Services struct {
	Bookings    BookingReader
	SyncStatus  SyncStatusLister
	Sync        SyncTrigger
	Spreadsheet SpreadsheetReconciler
	Commands    CommandSubmitter
	Checkin     CheckinService
}
