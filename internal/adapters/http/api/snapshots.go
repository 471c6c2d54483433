package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/okian/scoutlens/internal/domain/model"
)

// SnapshotHandler accepts raw provider snapshots.
type SnapshotHandler struct {
	deps    Dependencies
	limiter *playerLimiter
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(deps Dependencies) *SnapshotHandler {
	return &SnapshotHandler{deps: deps}
}

// HandlePostSnapshot handles POST /snapshots/{player}. The rebuild happens
// asynchronously; a 202 carries the job id, or duplicate=true when the
// snapshot is unchanged.
func (h *SnapshotHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(r.PathValue("player"))
	if playerID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingParam)
		return
	}

	if h.limiter != nil {
		if ok, wait := h.limiter.allow(playerID, time.Now()); !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "rate_limited", ErrRateLimited)
			return
		}
	}

	var snap model.Snapshot
	if err := decodeBody(w, r, &snap); err != nil {
		writeDomainError(w, err)
		return
	}

	sub, err := h.deps.Submit(r.Context(), playerID, &snap)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sub)
}
