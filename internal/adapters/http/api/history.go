package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/mergington/internal/domain/model"
	"github.com/okian/mergington/pkg/logger"
)

const defaultHistoryLimit = 20

// HistoryDependencies defines the interface for journal reads.
type HistoryDependencies interface {
	History(ctx context.Context, n int) []model.RosterChange
}

// HistoryHandler handles roster history requests.
type HistoryHandler struct {
	deps     HistoryDependencies
	maxLimit int
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, maxLimit int) *HistoryHandler {
	return &HistoryHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetHistory handles GET /history?limit=N requests. Without limit the
// most recent 20 changes (or maxLimit, if smaller) are returned.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	n := min(defaultHistoryLimit, h.maxLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > h.maxLimit {
			logger.Get().Debug(r.Context(), "rejected history limit",
				logger.String("limit", raw), logger.Error(NewKind(op, ErrBadRequest)))
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be an integer between 1 and %d", h.maxLimit))
			return
		}
		n = v
	}

	changes := h.deps.History(r.Context(), n)
	if changes == nil {
		changes = []model.RosterChange{}
	}
	writeJSON(w, http.StatusOK, changes)
}
