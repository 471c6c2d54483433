package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/source"
)

// ReconcileHandler averages a single subjective metric on demand.
type ReconcileHandler struct {
	deps Dependencies
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(deps Dependencies) *ReconcileHandler {
	return &ReconcileHandler{deps: deps}
}

type reconcileResponse struct {
	Metric  string                  `json:"metric"`
	Entries []source.Entry[float64] `json:"entries"`
	Average float64                 `json:"average"`
	Display string                  `json:"display"`
	// Drift is present only when the body carried an "average".
	Drift *float64 `json:"drift,omitempty"`
}

// HandleReconcile handles POST /reconcile. The body is one subjective
// metric record: {"metric": "...", "average": n, "<provider>": n|null, ...}.
func (h *ReconcileHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	var m model.SubjectiveMetric
	if err := decodeBody(w, r, &m); err != nil {
		writeDomainError(w, err)
		return
	}
	if m.Metric == "" {
		writeDomainError(w, badRequest(errors.New("missing metric")))
		return
	}

	res, err := h.deps.Reconcile(r.Context(), m.Sources)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := reconcileResponse{
		Metric:  m.Metric,
		Entries: res.Entries,
		Average: res.Average,
		Display: strconv.FormatFloat(res.Average, 'f', 2, 64),
	}
	if m.Supplied != nil {
		d := res.Drift(*m.Supplied)
		out.Drift = &d
	}
	writeJSON(w, http.StatusOK, out)
}
