// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// RefreshHandler triggers a pipeline re-run over the raw data.
type RefreshHandler struct {
	deps Dependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps Dependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Districts   int       `json:"districts"`
	HourlyRows  int       `json:"hourly_rows"`
	Valid       int       `json:"valid_records"`
	Invalid     int       `json:"invalid_records"`
}

// HandlePostRefresh handles POST /refresh requests. The call is
// synchronous; the response describes the snapshot that replaced the
// previous one.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Refresh(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		RunID:       snap.RunID,
		GeneratedAt: snap.GeneratedAt,
		Districts:   len(snap.Districts),
		HourlyRows:  len(snap.Hourly),
		Valid:       snap.Audit.Valid,
		Invalid:     snap.Audit.Invalid,
	})
}
