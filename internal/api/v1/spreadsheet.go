package v1

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pickarooms/reservations-server/internal/api/common"
	"github.com/pickarooms/reservations-server/internal/spreadsheet"
)

const (
	maxUploadBytes = 10 << 20

	uploadedByHeader  = "X-Uploaded-By"
	defaultUploadedBy = "api"
)

// uploadSpreadsheet handles POST /api/v1/spreadsheet
//
// The body is the raw export. The format is taken from the "name" query
// parameter, then the content type, then the content itself.
func (rr *Routes) uploadSpreadsheet(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.WriteErrorResponse(w, "upload exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		common.WriteErrorResponse(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		common.WriteErrorResponse(w, "upload is empty", http.StatusBadRequest)
		return
	}

	sheet, err := spreadsheet.Parse(uploadName(r), data)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	uploadedBy := strings.TrimSpace(r.Header.Get(uploadedByHeader))
	if uploadedBy == "" {
		uploadedBy = defaultUploadedBy
	}

	report, err := rr.svc.Spreadsheet.Reconcile(r.Context(), sheet, uploadedBy)
	if err != nil {
		writeServiceError(w, err, "Failed to reconcile spreadsheet")
		return
	}
	common.WriteJSONResponse(w, report, http.StatusOK)
}

func uploadName(r *http.Request) string {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		return name
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	switch mediaType {
	case "text/csv":
		return "upload.csv"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "upload.xlsx"
	}
	return ""
}
