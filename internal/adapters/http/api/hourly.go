// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strings"
)

// HourlyHandler handles hourly risk profile reads.
type HourlyHandler struct {
	deps Dependencies
}

// NewHourlyHandler creates a new hourly handler.
func NewHourlyHandler(deps Dependencies) *HourlyHandler {
	return &HourlyHandler{deps: deps}
}

// HandleGetHours handles GET /hours?district=NAME requests. The profile
// is sparse: only hours with observed incidents appear.
func (h *HourlyHandler) HandleGetHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	district := strings.TrimSpace(r.URL.Query().Get("district"))
	if district == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: district query parameter required", ErrBadRequest))
		return
	}
	entries, err := h.deps.HourlyByDistrict(r.Context(), district)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
