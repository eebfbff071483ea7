package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
)

// pathUUID parses a UUID path parameter registered as {name} on the mux.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation(name, "must be a valid UUID")
	}
	return id, nil
}

// queryFloat parses an optional float query parameter, nil when absent.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.Validation(name, "must be a number")
	}
	return &v, nil
}

// queryInt parses an optional int query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation(name, "must be an integer")
	}
	return v, nil
}
