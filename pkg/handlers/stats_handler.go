package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
)

// StatsHandler serves aggregate dashboard counts.
type StatsHandler struct {
	statsService services.StatsService
	logger       *zap.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService services.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{statsService: statsService, logger: logger}
}

// RegisterRoutes registers the stats routes on the given mux.
func (h *StatsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats/sos-count", h.CountByStatus)
}

// CountByStatus handles GET /api/stats/sos-count.
func (h *StatsHandler) CountByStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.CountByStatus(r.Context())
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, counts)
}
