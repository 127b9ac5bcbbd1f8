package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/pickarooms/reservations-server/internal/api/common"
)

// getSyncStatus handles GET /api/v1/sync/status
func (rr *Routes) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := rr.svc.SyncStatus.ListSyncStatuses(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to list sync statuses")
		return
	}
	common.WriteJSONResponse(w, SyncStatusResponse{Feeds: statuses}, http.StatusOK)
}

// triggerSync handles POST /api/v1/sync
//
// The feed is taken from the "feed" query parameter or the JSON body. An
// empty feed requests a sync of every configured feed.
func (rr *Routes) triggerSync(w http.ResponseWriter, r *http.Request) {
	feed := strings.TrimSpace(r.URL.Query().Get("feed"))
	if feed == "" {
		var req TriggerSyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
			return
		}
		feed = strings.TrimSpace(req.Feed)
	}

	if err := rr.svc.Sync.Trigger(feed); err != nil {
		writeServiceError(w, err, "Failed to trigger sync")
		return
	}
	common.WriteJSONResponse(w, TriggerSyncResponse{Feed: feed, Status: "accepted"}, http.StatusAccepted)
}
