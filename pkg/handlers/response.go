// Package handlers implements the HTTP surface of the AIDSENSE backend.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps a service error onto the HTTP taxonomy: validation 400,
// conflict 409, not-found 404, everything else a generic 500 so storage
// internals never leak to the caller.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case apperrors.IsValidation(err):
		_ = ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
	case apperrors.IsConflict(err):
		_ = ErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		_ = ErrorResponse(w, http.StatusNotFound, "not_found", "Resource not found")
	default:
		logger.Error("Request failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Operation failed")
	}
}
