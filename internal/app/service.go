// Package service wires the dashboard builder, build queue, worker pool and
// repository together and exposes what the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	buildqueue "github.com/okian/scoutlens/internal/adapters/mq/queue"
	workerpool "github.com/okian/scoutlens/internal/adapters/mq/worker"
	"github.com/okian/scoutlens/internal/adapters/repository"
	"github.com/okian/scoutlens/internal/domain/dashboard"
	"github.com/okian/scoutlens/internal/domain/dedupe"
	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/reconcile"
	"github.com/okian/scoutlens/internal/domain/source"
	"github.com/okian/scoutlens/internal/domain/status"
	"github.com/okian/scoutlens/internal/domain/types"
	"github.com/okian/scoutlens/pkg/logger"
	"github.com/okian/scoutlens/pkg/metrics"
)

// Service implements the API dependencies for the dashboard system.
type Service struct {
	mu sync.RWMutex

	builder    *dashboard.Builder
	classifier *status.Classifier
	store      repository.Store
	deduper    dedupe.Deduper
	queue      buildqueue.Queue
	pool       *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	builderOpts []dashboard.Option

	started bool

	// submitMu orders fingerprint recording with seq assignment so the
	// deduper's current fingerprint and the highest seq name the same
	// submission.
	submitMu sync.Mutex
	seq      atomic.Uint64

	logger  logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of build workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued builds.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many players' last snapshot fingerprints are kept.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithClassifier sets the status thresholds for badges and /classify.
func WithClassifier(c *status.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithBuilderOptions passes options through to the dashboard builder.
func WithBuilderOptions(opts ...dashboard.Option) Option {
	return func(s *Service) {
		s.builderOpts = append(s.builderOpts, opts...)
	}
}

// WithStore replaces the in-memory repository.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// New constructs a Service. Components are created here; workers start in Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1_000,
		dedupeSize:  50_000,
		classifier:  status.NewClassifier(),
		logger:      logger.Discard(),
		metrics:     metrics.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}

	bopts := []dashboard.Option{
		dashboard.WithClassifier(s.classifier),
		dashboard.WithLogger(s.logger.Named("dashboard")),
		dashboard.WithMetrics(s.metrics),
	}
	s.builder = dashboard.NewBuilder(append(bopts, s.builderOpts...)...)
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithMetrics(s.metrics))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Start creates the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.queue = buildqueue.NewInMemoryQueue(
		buildqueue.WithCapacity(s.queueSize),
		buildqueue.WithMetrics(s.metrics),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.builder, s.store,
		workerpool.WithPoolLogger(s.logger.Named("worker")),
		workerpool.WithPoolMetrics(s.metrics),
	)
	// Workers outlive the start context; Stop ends them.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "dashboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("headline", s.builder.HeadlineMetric()),
	)
	return nil
}

// Stop closes the queue and waits for queued builds to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping dashboard service...")

	err := s.pool.Shutdown(ctx)
	s.started = false

	s.logger.Info(ctx, "dashboard service stopped")
	return err
}

// Submit validates snap and queues a rebuild for playerID. A snapshot equal
// to the last accepted one is acknowledged without queueing.
func (s *Service) Submit(ctx context.Context, playerID string, snap *model.Snapshot) (types.Submission, error) {
	if playerID == "" {
		return types.Submission{}, dashboard.ErrEmptyPlayerID
	}
	if snap == nil {
		return types.Submission{}, dashboard.ErrNilSnapshot
	}
	if err := snap.Validate(); err != nil {
		return types.Submission{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Submission{}, ErrNotStarted
	}

	fp, err := dedupe.Fingerprint(snap)
	if err != nil {
		return types.Submission{}, fmt.Errorf("fingerprint %s: %w", playerID, err)
	}
	s.submitMu.Lock()
	if s.deduper.SeenAndRecord(ctx, playerID, fp) {
		s.submitMu.Unlock()
		s.logger.Debug(ctx, "unchanged snapshot, skipping rebuild", logger.String("player", playerID))
		return types.Submission{PlayerID: playerID, Duplicate: true}, nil
	}
	seq := s.seq.Add(1)
	s.submitMu.Unlock()

	job := model.BuildJob{JobID: uuid.NewString(), PlayerID: playerID, Snapshot: snap, Seq: seq, TS: time.Now()}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, playerID, fp)
		if errors.Is(err, buildqueue.ErrFull) {
			return types.Submission{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return types.Submission{}, err
	}
	return types.Submission{JobID: job.JobID, PlayerID: playerID}, nil
}

// Build renders and stores playerID's dashboard synchronously. If a later
// submission is stored first, the rendered dashboard is returned and the
// stored one is left alone.
func (s *Service) Build(ctx context.Context, playerID string, snap *model.Snapshot) (*dashboard.Dashboard, error) {
	fp, fpErr := dedupe.Fingerprint(snap)

	s.submitMu.Lock()
	if fpErr == nil {
		s.deduper.SeenAndRecord(ctx, playerID, fp)
	}
	seq := s.seq.Add(1)
	s.submitMu.Unlock()

	d, err := s.builder.Build(ctx, playerID, snap)
	if err == nil {
		err = s.store.Put(ctx, playerID, seq, snap, d)
	}
	switch {
	case errors.Is(err, types.ErrStaleWrite):
		s.logger.Debug(ctx, "newer dashboard already stored", logger.String("player", playerID))
		return d, nil
	case err != nil:
		if fpErr == nil {
			s.deduper.Unrecord(ctx, playerID, fp)
		}
		return nil, err
	}
	return d, nil
}

// Dashboard returns the latest dashboard or repository.ErrNotFound.
func (s *Service) Dashboard(ctx context.Context, playerID string) (*dashboard.Dashboard, error) {
	return s.store.Dashboard(ctx, playerID)
}

// List returns one summary per player with a dashboard.
func (s *Service) List(ctx context.Context) []types.Summary {
	return s.store.List(ctx)
}

// Classify maps a rating to a status with the configured thresholds.
func (s *Service) Classify(_ context.Context, rating float64) (status.Status, error) {
	st, err := s.classifier.Classify(rating)
	if err != nil {
		s.metrics.RecordClassifyError()
		return status.Status{}, err
	}
	s.metrics.RecordClassification(st.Band.String())
	return st, nil
}

// Reconcile averages one subjective metric's readings.
func (s *Service) Reconcile(_ context.Context, rec source.Record[float64]) (reconcile.Result, error) {
	res, err := reconcile.Reconcile(rec)
	if err != nil {
		reason := "empty"
		if errors.Is(err, reconcile.ErrInvalidValue) {
			reason = "invalid_value"
		}
		s.metrics.RecordReconcileError(reason)
		return reconcile.Result{}, err
	}
	s.metrics.RecordReconcile()
	return res, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueCapacity":  s.queueSize,
		"headlineMetric": s.builder.HeadlineMetric(),
		"dashboards":     s.store.Count(ctx),
		"fingerprints":   s.deduper.Size(),
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["processed"] = s.pool.Counters().Processed()
		stats["failed"] = s.pool.Counters().Failed()
	}
	return stats
}
