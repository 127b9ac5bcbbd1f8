package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pickarooms/reservations-server/internal/api/common"
	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/checkin"
	"github.com/pickarooms/reservations-server/internal/sync/coordinator"
)

// Routes defines the routes for the reservations API with dependency injection
type Routes struct {
	svc Services
}

// NewRoutes creates a new Routes instance with the provided services
func NewRoutes(svc Services) *Routes {
	return &Routes{svc: svc}
}

// Router creates the /api/v1 router. Routes are only registered for the
// services that are configured.
func Router(svc Services) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	if svc.Bookings != nil {
		r.Get("/bookings", routes.listBookings)
		r.Get("/collisions", routes.listCollisions)
		r.Get("/audit", routes.listAudit)
	}

	if svc.SyncStatus != nil {
		r.Get("/sync/status", routes.getSyncStatus)
	}
	if svc.Sync != nil {
		r.Post("/sync", routes.triggerSync)
	}

	if svc.Spreadsheet != nil {
		r.Post("/spreadsheet", routes.uploadSpreadsheet)
	}

	if svc.Commands != nil {
		r.Post("/commands", routes.submitCommand)
	}

	if svc.Checkin != nil {
		r.Route("/checkin", func(r chi.Router) {
			r.Post("/", routes.startCheckin)
			r.Get("/{id}", routes.getCheckin)
			r.Post("/{id}/details", routes.submitCheckinDetails)
			r.Post("/{id}/complete", routes.completeCheckin)
		})
	}

	return r
}

// writeServiceError maps domain errors to HTTP status codes. Unexpected
// errors are logged and reported with the generic message.
func writeServiceError(w http.ResponseWriter, err error, message string) {
	var stateErr *checkin.StateError
	switch {
	case errors.Is(err, checkin.ErrExpired):
		common.WriteErrorResponse(w, err.Error(), http.StatusGone)
	case errors.As(err, &stateErr):
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, coordinator.ErrUnknownFeed):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case booking.IsMalformed(err):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		common.WriteErrorResponse(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		slog.Error(message, "error", err)
		common.WriteErrorResponse(w, message, http.StatusInternalServerError)
	}
}
