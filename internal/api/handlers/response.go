package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/scribehub/scribe-server/internal/errs"
)

// APIError represents a standard API error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Common error codes.
const (
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeForbidden      = "forbidden"
	ErrCodeExpired        = "expired"
	ErrCodeInternalError  = "internal_error"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, &APIError{
		Code:    code,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// WriteServiceError maps a service-layer error onto the HTTP surface.
// Internal failures are logged but never leak their cause to the client.
func WriteServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var e *errs.Error
	message := err.Error()
	if errors.As(err, &e) {
		message = e.Message
	}

	switch errs.KindOf(err) {
	case errs.KindValidation:
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidRequest, message)
	case errs.KindAuthorization:
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
	case errs.KindNotFound:
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
	case errs.KindConflict:
		WriteError(w, http.StatusConflict, ErrCodeConflict, message)
	case errs.KindExpired:
		WriteError(w, http.StatusGone, ErrCodeExpired, message)
	default:
		if logger != nil {
			logger.Error("request failed", "error", err)
		}
		WriteInternalError(w, "An unexpected error occurred")
	}
}
