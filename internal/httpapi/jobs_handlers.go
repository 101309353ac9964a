package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/store"
)

type JobsHandler struct {
	Scraped  *store.ScrapedJobStore
	Importer JobImporter
	Hub      *events.Hub
	Log      *zap.SugaredLogger
}

// Unimported lists the curation queue: active, non-duplicate, not yet on the board.
func (h JobsHandler) Unimported(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Scraped.FindUnimported(r.Context())
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	if jobs == nil {
		jobs = []domain.ScrapedJob{}
	}
	writeJSON(w, jobs)
}

type importReq struct {
	IDs     []int64 `json:"ids"`
	AdminID string  `json:"adminId"`
}

func (h JobsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if len(req.IDs) == 0 {
		WriteError(w, r, 400, "empty_request", "ids is required")
		return
	}
	if req.AdminID == "" {
		req.AdminID = "admin"
	}

	summary, err := h.Importer.ImportJobs(r.Context(), req.IDs, req.AdminID)
	if err != nil {
		WriteError(w, r, 500, "import_error", err.Error())
		return
	}

	if summary.Imported > 0 {
		h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeJobsImported, 1,
			map[string]any{"imported": summary.Imported, "skipped": summary.Skipped}))
	}
	writeJSON(w, summary)
}
