package handler

import (
	"net/http"
	"time"
)

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ProbeResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. The process is ready once startup restore
// has finished, whatever its outcome.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.restoring() {
		writeError(w, r, http.StatusServiceUnavailable, "RV-OPS-5030", "restore in progress", nil)
		return
	}
	writeJSON(w, r, http.StatusOK, ProbeResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) restoring() bool {
	return h.status != nil && h.status() == nil
}
