package v1

import (
	"net/http"
	"strings"

	"github.com/pickarooms/reservations-server/internal/api/common"
	"github.com/pickarooms/reservations-server/internal/booking"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// listBookings handles GET /api/v1/bookings
//
// Query parameters: reference, resource, channel, arrival (YYYY-MM-DD),
// status (comma separated) and limit.
func (rr *Routes) listBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := bookingFilter(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := rr.svc.Bookings.ListBookings(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "Failed to list bookings")
		return
	}

	resp := ListBookingsResponse{
		Bookings: make([]BookingResponse, 0, len(rows)),
		Count:    len(rows),
	}
	for _, b := range rows {
		resp.Bookings = append(resp.Bookings, toBookingResponse(b))
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

func bookingFilter(r *http.Request) (booking.Filter, error) {
	q := r.URL.Query()
	filter := booking.Filter{
		Reference:  strings.TrimPrefix(strings.TrimSpace(q.Get("reference")), "#"),
		ResourceID: strings.TrimSpace(q.Get("resource")),
	}

	if ch := strings.TrimSpace(q.Get("channel")); ch != "" {
		channel, err := booking.ParseChannel(ch)
		if err != nil {
			return filter, err
		}
		filter.Channel = channel
	}

	arrival, err := common.GetDateQuery(r, "arrival")
	if err != nil {
		return filter, err
	}
	filter.Arrival = arrival

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, err := booking.ParseStatus(strings.TrimSpace(s))
			if err != nil {
				return filter, err
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}

	limit, err := common.GetLimitQuery(r, defaultListLimit, maxListLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	return filter, nil
}

// listCollisions handles GET /api/v1/collisions
func (rr *Routes) listCollisions(w http.ResponseWriter, r *http.Request) {
	collisions, err := rr.svc.Bookings.ListOpenCollisions(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list collisions")
		return
	}

	resp := make([]CollisionResponse, 0, len(collisions))
	for _, c := range collisions {
		resp = append(resp, toCollisionResponse(c))
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// listAudit handles GET /api/v1/audit
func (rr *Routes) listAudit(w http.ResponseWriter, r *http.Request) {
	limit, err := common.GetLimitQuery(r, defaultListLimit, maxListLimit)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := rr.svc.Bookings.ListAudit(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err, "Failed to list audit entries")
		return
	}

	resp := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toAuditEntryResponse(e))
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}
