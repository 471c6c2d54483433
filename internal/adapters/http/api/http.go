// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/scoutlens/internal/domain/dashboard"
	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/reconcile"
	"github.com/okian/scoutlens/internal/domain/source"
	"github.com/okian/scoutlens/internal/domain/status"
	"github.com/okian/scoutlens/internal/domain/types"
)

// maxBodyBytes bounds request bodies. Snapshots are small documents.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues a dashboard rebuild. Returns types.ErrBackpressure
	// (wrapped) when the build queue is full.
	Submit(ctx context.Context, playerID string, snap *model.Snapshot) (types.Submission, error)

	// Read operations expose built dashboards.
	Dashboard(ctx context.Context, playerID string) (*dashboard.Dashboard, error)
	List(ctx context.Context) []types.Summary

	Classify(ctx context.Context, rating float64) (status.Status, error)
	Reconcile(ctx context.Context, rec source.Record[float64]) (reconcile.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	snapshotHandler  *SnapshotHandler
	dashboardHandler *DashboardHandler
	classifyHandler  *ClassifyHandler
	reconcileHandler *ReconcileHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	submitRate  float64
	submitBurst int
}

// WithSubmitLimit throttles POST /snapshots per player to perSecond with the
// given burst. A non-positive rate disables throttling.
func WithSubmitLimit(perSecond float64, burst int) ServerOption {
	return func(c *serverConfig) {
		c.submitRate = perSecond
		c.submitBurst = burst
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	var cfg serverConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	snapshots := NewSnapshotHandler(deps)
	snapshots.limiter = newPlayerLimiter(cfg.submitRate, cfg.submitBurst)

	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		snapshotHandler:  snapshots,
		dashboardHandler: NewDashboardHandler(deps),
		classifyHandler:  NewClassifyHandler(deps),
		reconcileHandler: NewReconcileHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /snapshots/{player}", MetricsMiddleware(s.snapshotHandler.HandlePostSnapshot, "snapshots"))
	mux.HandleFunc("GET /dashboards", MetricsMiddleware(s.dashboardHandler.HandleList, "dashboards"))
	mux.HandleFunc("GET /dashboards/{player}", MetricsMiddleware(s.dashboardHandler.HandleGet, "dashboard"))
	mux.HandleFunc("POST /classify", MetricsMiddleware(s.classifyHandler.HandleClassify, "classify"))
	mux.HandleFunc("POST /reconcile", MetricsMiddleware(s.reconcileHandler.HandleReconcile, "reconcile"))
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

// writeDomainError maps an error raised below the transport to a response.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidSnapshot),
		errors.Is(err, model.ErrDuplicateMetric),
		errors.Is(err, dashboard.ErrEmptyPlayerID),
		errors.Is(err, dashboard.ErrNilSnapshot),
		errors.Is(err, status.ErrInvalidRating),
		errors.Is(err, reconcile.ErrEmptyMetric),
		errors.Is(err, reconcile.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, types.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decodeBody reads one JSON document from r into v, rejecting unknown
// trailing content.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return badRequest(err)
	}
	if dec.More() {
		return badRequest(errors.New("unexpected data after JSON body"))
	}
	return nil
}
