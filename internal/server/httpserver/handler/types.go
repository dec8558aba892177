package handler

import (
	"time"

	"github.com/yndnr/rostervault/internal/backup"
	"github.com/yndnr/rostervault/internal/infra/buildinfo"
	"github.com/yndnr/rostervault/internal/storage/objstore"
	"github.com/yndnr/rostervault/internal/storage/snapshot"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ProbeResponse is the body of /health and /ready.
type ProbeResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ListBackupsResponse is the body of GET /admin/v1/backups.
type ListBackupsResponse struct {
	Prefix  string                `json:"prefix"`
	Count   int                   `json:"count"`
	Backups []objstore.ObjectInfo `json:"backups"`
}

// RestoreView is the JSON form of a restore report.
type RestoreView struct {
	Outcome  backup.RestoreOutcome `json:"outcome"`
	Key      string                `json:"key,omitempty"`
	Restored []string              `json:"restored,omitempty"`
	Kept     []string              `json:"kept,omitempty"`
	Counts   snapshot.Counts       `json:"counts"`
	Error    string                `json:"error,omitempty"`
}

func newRestoreView(r *backup.RestoreReport) *RestoreView {
	if r == nil {
		return nil
	}
	v := &RestoreView{
		Outcome:  r.Outcome,
		Key:      r.Key,
		Restored: r.Restored,
		Kept:     r.Kept,
		Counts:   r.Counts,
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

// StatusResponse is the body of GET /admin/v1/status.
type StatusResponse struct {
	Build   buildinfo.Info     `json:"build"`
	Restore *RestoreView       `json:"restore,omitempty"`
	LastRun *backup.TickReport `json:"last_run,omitempty"`
}
