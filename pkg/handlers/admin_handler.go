package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
)

// AdminHandler exposes triage, moderation and configuration endpoints.
type AdminHandler struct {
	adminService  services.AdminService
	weightService services.WeightService
	logger        *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService services.AdminService, weightService services.WeightService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{adminService: adminService, weightService: weightService, logger: logger}
}

// RegisterRoutes registers the admin routes on the given mux. Every route
// requires the ADMIN role.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMw *auth.Middleware) {
	admin := func(fn http.HandlerFunc) http.HandlerFunc {
		return authMw.RequireRole(auth.RoleAdmin, fn)
	}
	mux.HandleFunc("POST /api/admin/sos/{id}/apply-fix", admin(h.ApplyFix))
	mux.HandleFunc("PATCH /api/admin/sos/{id}/status", admin(h.UpdateStatus))
	mux.HandleFunc("GET /api/admin/sos/requested", admin(h.ListRequested))
	mux.HandleFunc("GET /api/admin/sos/events", admin(h.ListEvents))
	mux.HandleFunc("GET /api/admin/teams", admin(h.ListTeams))
	mux.HandleFunc("PATCH /api/admin/teams/{id}/review", admin(h.ReviewTeam))
	mux.HandleFunc("GET /api/admin/weights", admin(h.GetWeights))
	mux.HandleFunc("PUT /api/admin/weights", admin(h.SetWeights))
	mux.HandleFunc("GET /api/admin/type-weights", admin(h.GetTypeWeights))
	mux.HandleFunc("PATCH /api/admin/type-weights/{id}", admin(h.SetTypeWeight))
}

// ApplyFix handles POST /api/admin/sos/{id}/apply-fix.
func (h *AdminHandler) ApplyFix(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	req, err := h.adminService.ApplyEnrichment(r.Context(), id)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, req)
}

// UpdateStatus handles PATCH /api/admin/sos/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	req, err := h.adminService.UpdateRequestStatus(r.Context(), id, models.SosStatus(body.Status))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, req)
}

// ReviewTeam handles PATCH /api/admin/teams/{id}/review.
func (h *AdminHandler) ReviewTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	var body struct {
		Status string `json:"team_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	team, err := h.adminService.ReviewTeam(r.Context(), id, models.TeamStatus(body.Status))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, team)
}

type listResponse struct {
	Items      interface{}       `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// ListTeams handles GET /api/admin/teams?limit=&page=.
func (h *AdminHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	limit, page, err := listParams(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	teams, pagination, err := h.adminService.ListTeams(r.Context(), limit, page)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, listResponse{Items: teams, Pagination: pagination})
}

// ListEvents handles GET /api/admin/sos/events?limit=&page=, the post-triage
// activity feed.
func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, page, err := listParams(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	events, pagination, err := h.adminService.ListEvents(r.Context(), limit, page)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, listResponse{Items: events, Pagination: pagination})
}

// ListRequested handles GET /api/admin/sos/requested?limit=&page=, the
// pre-triage review queue with origin snapshots and enrichment results.
func (h *AdminHandler) ListRequested(w http.ResponseWriter, r *http.Request) {
	limit, page, err := listParams(r)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	rows, pagination, err := h.adminService.ListRequested(r.Context(), limit, page)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, listResponse{Items: rows, Pagination: pagination})
}

func listParams(r *http.Request) (limit, page int, err error) {
	limit, err = queryInt(r, "limit", 20)
	if err != nil {
		return 0, 0, err
	}
	page, err = queryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	return limit, page, nil
}

// GetWeights handles GET /api/admin/weights.
func (h *AdminHandler) GetWeights(w http.ResponseWriter, r *http.Request) {
	weights, err := h.weightService.GetWeights(r.Context())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, weights)
}

// SetWeights handles PUT /api/admin/weights, replacing the whole scoring
// weight configuration.
func (h *AdminHandler) SetWeights(w http.ResponseWriter, r *http.Request) {
	var weights map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&weights); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	if err := h.weightService.SetWeights(r.Context(), weights); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, weights)
}

// GetTypeWeights handles GET /api/admin/type-weights.
func (h *AdminHandler) GetTypeWeights(w http.ResponseWriter, r *http.Request) {
	tw, err := h.weightService.GetTypeWeights(r.Context())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, tw)
}

// SetTypeWeight handles PATCH /api/admin/type-weights/{id}.
func (h *AdminHandler) SetTypeWeight(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	var body struct {
		BaseScore float64 `json:"base_score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	tw, err := h.weightService.SetTypeWeight(r.Context(), id, body.BaseScore)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, tw)
}
