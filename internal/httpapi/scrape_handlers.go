package httpapi

import (
	"net/http"
	"sync/atomic"
)

type ScrapeHandler struct {
	TickStatus *atomic.Value // httpapi.TickStatus
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.TickStatus.Load().(TickStatus)
	writeJSON(w, st)
}
