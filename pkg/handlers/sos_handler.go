package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
)

// maxImageBytes caps the attached photo size at 10 MiB.
const maxImageBytes = 10 << 20

// CreateSosRequest is the JSON intake payload.
type CreateSosRequest struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	AddressText string   `json:"address_text"`
	Phone       string   `json:"phone"`
}

// SosHandler handles SOS request intake and the requester-side lifecycle.
type SosHandler struct {
	sosService services.SosService
	logger     *zap.Logger
}

// NewSosHandler creates a new SosHandler.
func NewSosHandler(sosService services.SosService, logger *zap.Logger) *SosHandler {
	return &SosHandler{sosService: sosService, logger: logger}
}

// RegisterRoutes registers the SOS routes on the given mux.
func (h *SosHandler) RegisterRoutes(mux *http.ServeMux, authMw *auth.Middleware) {
	mux.HandleFunc("POST /api/sos", authMw.OptionalAuth(h.Create))
	mux.HandleFunc("GET /api/sos/me", authMw.RequireAuth(h.ListOwn))
	mux.HandleFunc("GET /api/sos/{id}", h.Get)
	mux.HandleFunc("POST /api/sos/{id}/cancel", authMw.RequireAuth(h.Cancel))
	mux.HandleFunc("POST /api/sos/{id}/complete", authMw.RequireAuth(h.Complete))
}

// Create handles POST /api/sos. Accepts JSON, or multipart/form-data when a
// photo is attached. Unauthenticated callers may submit with a phone number.
func (h *SosHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeCreate(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	if principal, ok := auth.GetPrincipal(r.Context()); ok {
		input.UserID = &principal.ID
	}

	req, err := h.sosService.CreateRequest(r.Context(), input)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, req)
}

func (h *SosHandler) decodeCreate(r *http.Request) (*services.CreateSosInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return h.decodeMultipartCreate(r)
	}

	var body CreateSosRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, apperrors.Validation("body", "invalid JSON payload")
	}
	return &services.CreateSosInput{
		Type:        models.SosType(body.Type),
		Description: body.Description,
		Lat:         body.Lat,
		Lon:         body.Lon,
		AddressText: body.AddressText,
		Phone:       body.Phone,
	}, nil
}

func (h *SosHandler) decodeMultipartCreate(r *http.Request) (*services.CreateSosInput, error) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		return nil, apperrors.Validation("body", "invalid multipart payload")
	}

	input := &services.CreateSosInput{
		Type:        models.SosType(r.FormValue("type")),
		Description: r.FormValue("description"),
		AddressText: r.FormValue("address_text"),
		Phone:       r.FormValue("phone"),
	}
	for name, dst := range map[string]**float64{"lat": &input.Lat, "lon": &input.Lon} {
		raw := r.FormValue(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperrors.Validation(name, "must be a number")
		}
		*dst = &v
	}

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if readErr != nil {
			return nil, apperrors.Validation("image", "failed to read image")
		}
		input.ImageName = header.Filename
		input.ImageData = data
	} else if err != http.ErrMissingFile {
		return nil, apperrors.Validation("image", "invalid image part")
	}
	return input, nil
}

// Get handles GET /api/sos/{id}.
func (h *SosHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	req, err := h.sosService.GetRequest(r.Context(), id)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, req)
}

// ListOwn handles GET /api/sos/me.
func (h *SosHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.GetPrincipal(r.Context())
	reqs, err := h.sosService.ListOwn(r.Context(), principal.ID)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, reqs)
}

// Cancel handles POST /api/sos/{id}/cancel.
func (h *SosHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.requesterTransition(w, r, h.sosService.Cancel)
}

// Complete handles POST /api/sos/{id}/complete.
func (h *SosHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.requesterTransition(w, r, h.sosService.Complete)
}

func (h *SosHandler) requesterTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id, userID uuid.UUID) (*models.SosRequest, error),
) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	principal, _ := auth.GetPrincipal(r.Context())
	req, err := op(r.Context(), id, principal.ID)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, req)
}
