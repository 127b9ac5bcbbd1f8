package v1

import (
	"encoding/json"
	"net/http"

	"github.com/pickarooms/reservations-server/internal/api/common"
	"github.com/pickarooms/reservations-server/internal/booking"
	"github.com/pickarooms/reservations-server/internal/checkin"
)

// startCheckin handles POST /api/v1/checkin
func (rr *Routes) startCheckin(w http.ResponseWriter, r *http.Request) {
	var req StartCheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	flow, err := rr.svc.Checkin.Start(r.Context(), req.Reference)
	if err != nil {
		writeServiceError(w, err, "Failed to start check-in")
		return
	}
	common.WriteJSONResponse(w, toCheckinFlowResponse(flow), http.StatusCreated)
}

// getCheckin handles GET /api/v1/checkin/{id}
func (rr *Routes) getCheckin(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetUUIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := rr.svc.Checkin.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get check-in")
		return
	}
	common.WriteJSONResponse(w, toCheckinFlowResponse(flow), http.StatusOK)
}

// submitCheckinDetails handles POST /api/v1/checkin/{id}/details
func (rr *Routes) submitCheckinDetails(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetUUIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CheckinDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	flow, err := rr.svc.Checkin.SubmitDetails(r.Context(), id, checkin.Details{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		writeServiceError(w, err, "Failed to submit check-in details")
		return
	}
	common.WriteJSONResponse(w, toCheckinFlowResponse(flow), http.StatusOK)
}

// completeCheckin handles POST /api/v1/checkin/{id}/complete
//
// A failed code issuance is reported as 502 with the failure reason; the
// flow is kept in the failed state.
func (rr *Routes) completeCheckin(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetUUIDParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	flow, err := rr.svc.Checkin.Complete(r.Context(), id)
	if err != nil {
		if flow != nil && flow.State == booking.FlowFailed {
			common.WriteErrorResponse(w, flow.Failure, http.StatusBadGateway)
			return
		}
		writeServiceError(w, err, "Failed to complete check-in")
		return
	}
	common.WriteJSONResponse(w, toCheckinFlowResponse(flow), http.StatusOK)
}
