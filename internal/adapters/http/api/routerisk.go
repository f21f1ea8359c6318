// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RouteRiskHandler handles route risk queries.
type RouteRiskHandler struct {
	deps              Dependencies
	maxRouteDistricts int
}

// NewRouteRiskHandler creates a new route risk handler.
func NewRouteRiskHandler(deps Dependencies, maxRouteDistricts int) *RouteRiskHandler {
	return &RouteRiskHandler{
		deps:              deps,
		maxRouteDistricts: maxRouteDistricts,
	}
}

// routeRiskRequest is the POST /route-risk body. Callers either name the
// districts directly or give an origin and destination address to resolve.
type routeRiskRequest struct {
	Districts     []string `json:"districts"`
	DepartureHour int      `json:"departure_hour"`
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
}

func (req routeRiskRequest) validate() error {
	hasDistricts := len(req.Districts) > 0
	hasAddresses := strings.TrimSpace(req.Origin) != "" && strings.TrimSpace(req.Destination) != ""
	if !hasDistricts && !hasAddresses {
		return fmt.Errorf("%w: provide districts, or origin and destination", ErrBadRequest)
	}
	return nil
}

// HandlePostRouteRisk handles POST /route-risk requests.
func (h *RouteRiskHandler) HandlePostRouteRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req routeRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid json body", ErrBadRequest))
		return
	}
	if err := req.validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	districts := req.Districts
	if len(districts) == 0 {
		resolved, err := h.deps.ResolveRoute(r.Context(), req.Origin, req.Destination)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		districts = resolved
	}
	if len(districts) > h.maxRouteDistricts {
		writeError(w, http.StatusBadRequest, "route_too_long",
			fmt.Errorf("%w: at most %d districts per route", ErrBadRequest, h.maxRouteDistricts))
		return
	}

	result, err := h.deps.RouteRisk(r.Context(), districts, req.DepartureHour)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
