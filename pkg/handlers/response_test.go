package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteError_Validation(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), apperrors.Validation("lat", "must be between -90 and 90"))

	assert.Equal(t, 400, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "validation_error", body["error"])
	assert.Contains(t, body["message"], "lat")
}

func TestWriteError_Conflict(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), apperrors.Conflict("sos_request", "PENDING", "COMPLETE"))

	assert.Equal(t, 409, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "conflict", body["error"])
	assert.Contains(t, body["message"], "PENDING")
	assert.Contains(t, body["message"], "COMPLETE")
}

func TestWriteError_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), fmt.Errorf("loading request: %w", apperrors.ErrNotFound))

	assert.Equal(t, 404, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "not_found", body["error"])
}

func TestWriteError_InternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), errors.New("pq: connection refused at 10.0.0.3:5432"))

	assert.Equal(t, 500, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "internal_error", body["error"])
	assert.Equal(t, "Operation failed", body["message"])
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestWriteError_WrappedValidationStillMapsTo400(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, zap.NewNop(), fmt.Errorf("creating request: %w", apperrors.Validation("type", "unknown emergency type")))

	assert.Equal(t, 400, rec.Code)
}

func TestWriteJSON_SetsContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rec, 201, map[string]string{"status": "REQUESTED"}))

	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "REQUESTED")
}
