package api

import (
	"net/http"
	"strings"

	"github.com/okian/scoutlens/internal/domain/types"
)

// DashboardHandler serves built dashboards.
type DashboardHandler struct {
	deps Dependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

type listResponse struct {
	Dashboards []types.Summary `json:"dashboards"`
}

// HandleList handles GET /dashboards.
func (h *DashboardHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items := h.deps.List(r.Context())
	if items == nil {
		items = []types.Summary{}
	}
	writeJSON(w, http.StatusOK, listResponse{Dashboards: items})
}

// HandleGet handles GET /dashboards/{player}.
func (h *DashboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(r.PathValue("player"))
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingParam)
		return
	}

	d, err := h.deps.Dashboard(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
