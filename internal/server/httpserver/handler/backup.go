package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/yndnr/rostervault/internal/infra/buildinfo"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
)

// Status handles GET /admin/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Build: buildinfo.Get()}
	if h.status != nil {
		resp.Restore = newRestoreView(h.status())
	}
	if h.runner != nil {
		resp.LastRun = h.runner.Last()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ListBackups handles GET /admin/v1/backups?limit=N, newest first.
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "RV-OPS-4001", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	objects, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err, nil)
		return
	}
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}

	writeJSON(w, r, http.StatusOK, ListBackupsResponse{
		Prefix:  h.catalog.Prefix(),
		Count:   len(objects),
		Backups: objects,
	})
}

// LatestBackup handles GET /admin/v1/backups/latest.
func (h *Handler) LatestBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.catalog.Latest(r.Context())
	if err != nil {
		writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

// CreateBackup handles POST /admin/v1/backups by running one backup now.
// The run completes even if the client goes away. A run whose upload
// succeeded but whose sweep failed is still reported as created.
//
// Until startup restore finishes the state may still be empty, and a
// backup taken then would become the newest object restore reads.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if h.restoring() {
		writeError(w, r, http.StatusServiceUnavailable, "RV-OPS-5030", "restore in progress", nil)
		return
	}
	ctx := context.WithoutCancel(r.Context())

	report, err := h.runner.RunOnce(ctx)
	if err != nil && (report == nil || !report.Uploaded) {
		logger.L(r.Context()).Warn("on-demand backup failed", "error", err)
		writeDomainError(w, r, err, report)
		return
	}

	writeJSON(w, r, http.StatusCreated, report)
}
