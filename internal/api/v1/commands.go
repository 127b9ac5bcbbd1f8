package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pickarooms/reservations-server/internal/api/common"
)

// submitCommand handles POST /api/v1/commands
//
// The form carries the sender in "From" and the message in "Body", the
// shape used by SMS webhooks. The interpreter's reply is returned as plain
// text.
func (rr *Routes) submitCommand(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.WriteTextResponse(w, "invalid form", http.StatusBadRequest)
		return
	}
	sender := strings.TrimSpace(r.PostForm.Get("From"))
	body := r.PostForm.Get("Body")
	if sender == "" {
		common.WriteTextResponse(w, "missing sender", http.StatusBadRequest)
		return
	}

	reply, err := rr.svc.Commands.Submit(r.Context(), sender, body)
	if err != nil {
		slog.Warn("Command not processed", "sender", sender, "error", err)
		common.WriteTextResponse(w, "command channel unavailable", http.StatusServiceUnavailable)
		return
	}
	common.WriteTextResponse(w, reply, http.StatusOK)
}
