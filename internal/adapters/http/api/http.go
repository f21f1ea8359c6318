// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safetaichung/saferoute/internal/adapters/maps"
	"github.com/safetaichung/saferoute/internal/adapters/repository"
	"github.com/safetaichung/saferoute/internal/domain/model"
	"github.com/safetaichung/saferoute/internal/domain/route"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// RouteRisk scores an explicit district list at a departure hour.
	RouteRisk(ctx context.Context, districts []string, departureHour int) (model.RouteRiskResult, error)

	// ResolveRoute turns an origin and destination address into the
	// districts a route query should cover.
	ResolveRoute(ctx context.Context, origin, destination string) ([]string, error)

	// Read operations expose the current snapshot tables.
	DistrictSummary(ctx context.Context) ([]model.DistrictRiskEntry, error)
	District(ctx context.Context, name string) (model.DistrictRiskEntry, error)
	HourlyByDistrict(ctx context.Context, district string) ([]model.HourlyRiskEntry, error)

	// Refresh re-runs the aggregation pipeline and installs the result.
	Refresh(ctx context.Context) (*model.Snapshot, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	routeRiskHandler *RouteRiskHandler
	districtsHandler *DistrictsHandler
	hourlyHandler    *HourlyHandler
	refreshHandler   *RefreshHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRouteDistricts int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		routeRiskHandler: NewRouteRiskHandler(deps, maxRouteDistricts),
		districtsHandler: NewDistrictsHandler(deps),
		hourlyHandler:    NewHourlyHandler(deps),
		refreshHandler:   NewRefreshHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/route-risk", MetricsMiddleware(s.routeRiskHandler.HandlePostRouteRisk, "route_risk"))
	mux.HandleFunc("/districts", MetricsMiddleware(s.districtsHandler.HandleListDistricts, "districts"))
	mux.HandleFunc("/districts/", MetricsMiddleware(s.districtsHandler.HandleGetDistrict, "district"))
	mux.HandleFunc("/hours", MetricsMiddleware(s.hourlyHandler.HandleGetHours, "hours"))
	mux.HandleFunc("/refresh", MetricsMiddleware(s.refreshHandler.HandlePostRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates typed domain errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, route.ErrEmptyRoute), errors.Is(err, route.ErrInvalidHour),
		errors.Is(err, ErrBadRequest), errors.Is(err, maps.ErrNoResult), errors.Is(err, maps.ErrNoRoute):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrDistrictNotFound), errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrSummaryNotAvailable):
		writeError(w, http.StatusServiceUnavailable, "summary_not_available", err)
	case errors.Is(err, maps.ErrMissingAPIKey):
		writeError(w, http.StatusServiceUnavailable, "geocoding_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
