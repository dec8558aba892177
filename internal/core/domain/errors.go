// Package domain defines the core domain models for rostervault.
package domain

import (
	"errors"
	"fmt"
)

// DomainError is an error carrying a stable, machine-readable code.
//
// Codes follow the form RV-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "RV-STOR-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Remote store errors (STOR)
// ============================================================================

var (
	// ErrObjectNotFound indicates the key does not exist in the remote store.
	ErrObjectNotFound = NewDomainError("RV-STOR-4040", "object not found")

	// ErrStorePermission indicates the credentials may not perform the call.
	ErrStorePermission = NewDomainError("RV-STOR-4030", "remote store permission denied")

	// ErrStoreTransient indicates a network, throttling or server-side failure.
	ErrStoreTransient = NewDomainError("RV-STOR-5030", "remote store unavailable")
)

// ============================================================================
// Codec errors (CODC, SNAP)
// ============================================================================

var (
	// ErrCompression indicates the compressor failed to encode or decode.
	ErrCompression = NewDomainError("RV-CODC-5000", "compression failed")

	// ErrCorruptSnapshot indicates decoded bytes do not match the snapshot schema.
	ErrCorruptSnapshot = NewDomainError("RV-SNAP-4220", "corrupt snapshot")

	// ErrNoSnapshots indicates no snapshot object exists under the prefix.
	ErrNoSnapshots = NewDomainError("RV-SNAP-4040", "no snapshots available")
)

// ============================================================================
// Configuration errors (CONF)
// ============================================================================

var (
	// ErrConfiguration indicates a missing or invalid required setting.
	ErrConfiguration = NewDomainError("RV-CONF-4000", "invalid configuration")
)

// IsRemoteStoreError reports whether err is any of the remote store errors.
func IsRemoteStoreError(err error) bool {
	return errors.Is(err, ErrObjectNotFound) ||
		errors.Is(err, ErrStorePermission) ||
		errors.Is(err, ErrStoreTransient)
}
