package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/telemetry/logger"
)

// Catalog lists backups under the configured prefix.
type Catalog interface {
	Prefix() string
	List(ctx context.Context) ([]objstore.ObjectInfo, error)
	Latest(ctx context.Context) (objstore.ObjectInfo, error)
}

// Runner runs backups on demand.
type Runner interface {
	RunOnce(ctx context.Context) (*backup.TickReport, error)
	Last() *backup.TickReport
}

// StatusFunc returns the startup restore report, or nil while restore
// has not finished.
type StatusFunc func() *backup.RestoreReport

// Handler serves the ops endpoints.
type Handler struct {
	catalog Catalog
	runner  Runner
	status  StatusFunc
}

// New creates a Handler. status may be nil, in which case the server is
// always ready.
func New(catalog Catalog, runner Runner, status StatusFunc) *Handler {
	return &Handler{
		catalog: catalog,
		runner:  runner,
		status:  status,
	}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "RV-OPS-4040", "route not found", nil)
}

// MethodNotAllowed answers known routes with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "RV-OPS-4050", "method not allowed", nil)
}

// writeJSON writes a JSON response with standard envelope format.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	response := NewResponse(logger.RequestIDFromContext(r.Context()), data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	response := NewErrorResponse(logger.RequestIDFromContext(r.Context()), code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// writeDomainError converts backup errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, details any) {
	var de *domain.DomainError
	if errors.As(err, &de) {
		writeError(w, r, errorStatus(de), de.Code, err.Error(), details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	writeError(w, r, http.StatusInternalServerError, "RV-SYS-5000", "internal server error", details)
}

// errorStatus maps domain errors to HTTP status codes. Remote store
// failures are upstream problems, not ours.
func errorStatus(de *domain.DomainError) int {
	switch {
	case errors.Is(de, domain.ErrNoSnapshots), errors.Is(de, domain.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(de, domain.ErrStorePermission):
		return http.StatusBadGateway
	case errors.Is(de, domain.ErrStoreTransient):
		return http.StatusServiceUnavailable
	case errors.Is(de, domain.ErrCorruptSnapshot):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
