package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobportal-engine/internal/domain"
	"jobportal-engine/internal/events"
	"jobportal-engine/internal/scrape"
	"jobportal-engine/internal/store"
)

type SourcesHandler struct {
	Sources *store.SourceStore
	Scraped *store.ScrapedJobStore
	Runner  SourceRunner
	Hub     *events.Hub
	Log     *zap.SugaredLogger
}

func (h SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Sources.FindAll(r.Context())
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, sources)
}

func (h SourcesHandler) Active(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Sources.FindActive(r.Context())
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, sources)
}

func (h SourcesHandler) Due(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Sources.FindDue(r.Context(), time.Now().UTC())
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, sources)
}

func (h SourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var src domain.CompanySource
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if problems := src.Validate(); len(problems) > 0 {
		writeValidationErrors(w, problems)
		return
	}

	err := h.Sources.Create(r.Context(), &src)
	if errors.Is(err, store.ErrDuplicateURL) {
		WriteError(w, r, http.StatusConflict, "duplicate_url", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeSourceCreated, 1,
		map[string]any{"id": src.ID}))
	WriteJSON(w, http.StatusCreated, src)
}

// ByPath routes /sources/{id}, /sources/{id}/scrape and /sources/{id}/jobs.
func (h SourcesHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sources/")
	idStr, tail, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, 400, "invalid_id", "invalid source id")
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case tail == "" && r.Method == http.MethodPut:
		h.update(w, r, id)
	case tail == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case tail == "scrape" && r.Method == http.MethodPost:
		h.scrapeNow(w, r, id)
	case tail == "jobs" && r.Method == http.MethodGet:
		h.jobs(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h SourcesHandler) get(w http.ResponseWriter, r *http.Request, id int64) {
	src, err := h.Sources.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "source not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, src)
}

func (h SourcesHandler) update(w http.ResponseWriter, r *http.Request, id int64) {
	existing, err := h.Sources.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "source not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	var src domain.CompanySource
	if err := json.NewDecoder(r.Body).Decode(&src); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	src.ID = id
	src.CreatedBy = existing.CreatedBy
	if problems := src.Validate(); len(problems) > 0 {
		writeValidationErrors(w, problems)
		return
	}

	// Changing the URL must not collide with another source.
	if src.CareerPageURL != existing.CareerPageURL {
		if other, err := h.Sources.FindByURL(r.Context(), src.CareerPageURL); err == nil && other.ID != id {
			WriteError(w, r, http.StatusConflict, "duplicate_url", store.ErrDuplicateURL.Error())
			return
		}
	}

	if err := h.Sources.Update(r.Context(), &src); err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	updated, err := h.Sources.FindByID(r.Context(), id)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeSourceUpdated, 1,
		map[string]any{"id": id}))
	writeJSON(w, updated)
}

func (h SourcesHandler) delete(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := h.Sources.FindByID(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "source not found")
		return
	}
	if err := h.Sources.Delete(r.Context(), id); err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	h.Hub.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeSourceDeleted, 1,
		map[string]any{"id": id}))
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h SourcesHandler) scrapeNow(w http.ResponseWriter, r *http.Request, id int64) {
	src, err := h.Sources.FindByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "source not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeScrapeStarted, 1, map[string]any{"source": id}))

	res, err := h.Runner.ScrapeSource(r.Context(), src)
	if errors.Is(err, scrape.ErrScrapeInProgress) {
		WriteError(w, r, http.StatusConflict, "scrape_in_progress", err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, 500, "scrape_error", err.Error())
		return
	}

	h.Hub.Publish(events.MakeEvent(reqID, events.TypeScrapeFinished, 1, res))
	writeJSON(w, res)
}

func (h SourcesHandler) jobs(w http.ResponseWriter, r *http.Request, id int64) {
	if _, err := h.Sources.FindByID(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "source not found")
		return
	}
	activeOnly := r.URL.Query().Get("activeOnly") == "true"
	jobs, err := h.Scraped.FindBySource(r.Context(), id, activeOnly)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	if jobs == nil {
		jobs = []domain.ScrapedJob{}
	}
	writeJSON(w, jobs)
}

func writeValidationErrors(w http.ResponseWriter, problems []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{"errors": problems})
}
