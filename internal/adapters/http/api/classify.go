package api

import (
	"errors"
	"net/http"

	"github.com/okian/scoutlens/internal/domain/status"
)

// ClassifyHandler exposes the status classifier on its own.
type ClassifyHandler struct {
	deps Dependencies
}

// NewClassifyHandler creates a new classify handler.
func NewClassifyHandler(deps Dependencies) *ClassifyHandler {
	return &ClassifyHandler{deps: deps}
}

type classifyRequest struct {
	Rating *float64 `json:"rating"`
}

type classifyResponse struct {
	Rating float64 `json:"rating"`
	status.Status
}

// HandleClassify handles POST /classify with {"rating": n}.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Rating == nil {
		writeDomainError(w, badRequest(errors.New("missing rating")))
		return
	}

	st, err := h.deps.Classify(r.Context(), *req.Rating)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classifyResponse{Rating: *req.Rating, Status: st})
}
