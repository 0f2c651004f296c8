package api

import (
	"context"
	"net/http"

	"github.com/okian/mergington/internal/domain/model"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) model.Stats
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats(r.Context()))
}
