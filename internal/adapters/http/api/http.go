// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/mergington/internal/domain/model"
	"github.com/okian/mergington/pkg/metrics"
)

const defaultMaxHistoryLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ActivityDependencies
	HistoryDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	activitiesHandler *ActivitiesHandler
	historyHandler    *HistoryHandler
}

// NewServer creates a new API server with all handlers. maxHistoryLimit
// caps GET /history?limit; values below 1 use the default of 100.
func NewServer(deps Dependencies, maxHistoryLimit int) *Server {
	if maxHistoryLimit < 1 {
		maxHistoryLimit = defaultMaxHistoryLimit
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		activitiesHandler: NewActivitiesHandler(deps),
		historyHandler:    NewHistoryHandler(deps, maxHistoryLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /activities", MetricsMiddleware(s.activitiesHandler.HandleList, "activities"))
	mux.HandleFunc("POST /activities/{activity}/signup", MetricsMiddleware(s.activitiesHandler.HandleSignup, "signup"))
	mux.HandleFunc("POST /activities/{activity}/unregister", MetricsMiddleware(s.activitiesHandler.HandleUnregister, "unregister"))
	mux.HandleFunc("GET /history", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// activityView is the wire shape of one activity.
type activityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

func toView(a model.Activity) activityView {
	participants := a.Participants
	if participants == nil {
		participants = []string{}
	}
	return activityView{
		Description:     a.Description,
		Schedule:        a.Schedule,
		MaxParticipants: a.MaxParticipants,
		Participants:    participants,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	if detail == "" {
		detail = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}
