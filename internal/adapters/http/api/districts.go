// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"strings"
)

// DistrictsHandler handles district summary reads.
type DistrictsHandler struct {
	deps Dependencies
}

// NewDistrictsHandler creates a new districts handler.
func NewDistrictsHandler(deps Dependencies) *DistrictsHandler {
	return &DistrictsHandler{deps: deps}
}

// HandleListDistricts handles GET /districts requests. Entries come back
// ordered by descending incident rate, unrated districts last.
func (h *DistrictsHandler) HandleListDistricts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	entries, err := h.deps.DistrictSummary(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetDistrict handles GET /districts/{name} requests.
func (h *DistrictsHandler) HandleGetDistrict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/districts/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: district name required", ErrBadRequest))
		return
	}
	entry, err := h.deps.District(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
