package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
)

// SearchHandler exposes candidate search and score computation.
type SearchHandler struct {
	searchService  services.SearchService
	scoringService services.ScoringService
	logger         *zap.Logger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService services.SearchService, scoringService services.ScoringService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{searchService: searchService, scoringService: scoringService, logger: logger}
}

// RegisterRoutes registers the search routes on the given mux.
func (h *SearchHandler) RegisterRoutes(mux *http.ServeMux, authMw *auth.Middleware) {
	mux.HandleFunc("GET /api/sos/search", authMw.RequireAuth(h.Search))
	mux.HandleFunc("POST /api/sos/score", authMw.RequireAuth(h.Score))
}

// Search handles GET /api/sos/search?lat=&lon=&radius=&window=.
// radius=0 (or absent) returns every open request.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	radius, err := queryFloat(r, "radius")
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	window, err := services.ParseRecencyWindow(r.URL.Query().Get("window"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	params := services.SearchParams{Lat: lat, Lon: lon, Window: window}
	if radius != nil {
		params.RadiusMeters = *radius
	}

	candidates, err := h.searchService.SearchCandidates(r.Context(), params)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, candidates)
}

// Score handles POST /api/sos/score: computes the composite score breakdown
// for the submitted factors under the current weight configuration.
func (h *SearchHandler) Score(w http.ResponseWriter, r *http.Request) {
	var factors services.ScoreFactors
	if err := json.NewDecoder(r.Body).Decode(&factors); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	breakdown, err := h.scoringService.Score(r.Context(), factors)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, breakdown)
}
