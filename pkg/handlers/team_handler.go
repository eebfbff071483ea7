package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/models"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
)

// CreateTeamRequest is the team registration payload.
type CreateTeamRequest struct {
	Name           string  `json:"name"`
	SizeMember     string  `json:"size_member"`
	Phone          string  `json:"phone"`
	Province       string  `json:"province"`
	District       string  `json:"district"`
	Commune        string  `json:"commune"`
	Organizational string  `json:"organizational"`
	DocumentURL    *string `json:"document_url"`
}

// TeamHandler handles team registration and the team-side case lifecycle.
type TeamHandler struct {
	teamService services.TeamService
	logger      *zap.Logger
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService services.TeamService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teamService: teamService, logger: logger}
}

// RegisterRoutes registers the team routes on the given mux.
func (h *TeamHandler) RegisterRoutes(mux *http.ServeMux, authMw *auth.Middleware) {
	mux.HandleFunc("POST /api/teams", authMw.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/teams/me", authMw.RequireAuth(h.GetOwn))
	mux.HandleFunc("GET /api/teams/requests", authMw.RequireRole(auth.RoleTeam, h.ListRequests))
	mux.HandleFunc("GET /api/teams/{id}", authMw.RequireAuth(h.Get))
	mux.HandleFunc("POST /api/teams/sos/{id}/claim", authMw.RequireRole(auth.RoleTeam, h.Claim))
	mux.HandleFunc("POST /api/teams/sos/{id}/release", authMw.RequireRole(auth.RoleTeam, h.Release))
	mux.HandleFunc("POST /api/teams/sos/{id}/complete", authMw.RequireRole(auth.RoleTeam, h.Complete))
}

// Create handles POST /api/teams. The caller becomes the team leader.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	principal, _ := auth.GetPrincipal(r.Context())

	team, err := h.teamService.CreateTeam(r.Context(), &services.CreateTeamInput{
		LeaderID:       principal.ID,
		Name:           body.Name,
		Size:           models.TeamSize(body.SizeMember),
		Phone:          body.Phone,
		Province:       body.Province,
		District:       body.District,
		Commune:        body.Commune,
		Organizational: body.Organizational,
		DocumentURL:    body.DocumentURL,
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, team)
}

// Get handles GET /api/teams/{id}.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	team, err := h.teamService.GetTeam(r.Context(), id)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, team)
}

// GetOwn handles GET /api/teams/me, returning the caller's own team.
func (h *TeamHandler) GetOwn(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.GetPrincipal(r.Context())
	team, err := h.teamService.GetOwnTeam(r.Context(), principal.ID)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, team)
}

// ListRequests handles GET /api/teams/requests?status=.
func (h *TeamHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.GetPrincipal(r.Context())
	if principal.TeamID == nil {
		WriteError(w, h.logger, apperrors.Validation("team_id", "token carries no team"))
		return
	}
	status := models.SosStatus(r.URL.Query().Get("status"))
	reqs, err := h.teamService.ListTeamRequests(r.Context(), *principal.TeamID, status)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, reqs)
}

// Claim handles POST /api/teams/sos/{id}/claim.
func (h *TeamHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.teamTransition(w, r, h.teamService.Claim)
}

// Release handles POST /api/teams/sos/{id}/release.
func (h *TeamHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.teamTransition(w, r, h.teamService.Release)
}

// Complete handles POST /api/teams/sos/{id}/complete.
func (h *TeamHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.teamTransition(w, r, h.teamService.CompleteCase)
}

func (h *TeamHandler) teamTransition(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, sosID, teamID uuid.UUID) (*models.SosRequest, error),
) {
	id, err := pathUUID(r, "id")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	principal, _ := auth.GetPrincipal(r.Context())
	if principal.TeamID == nil {
		WriteError(w, h.logger, apperrors.Validation("team_id", "token carries no team"))
		return
	}
	req, err := op(r.Context(), id, *principal.TeamID)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, req)
}
