// Package worker drains the build queue, renders dashboards and stores them.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoutlens/internal/domain/dashboard"
	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/types"
	"github.com/okian/scoutlens/pkg/logger"
	"github.com/okian/scoutlens/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.BuildJob

// Builder renders one player's dashboard.
type Builder interface {
	Build(ctx context.Context, playerID string, snap *model.Snapshot) (*dashboard.Dashboard, error)
}

// Store keeps the latest snapshot and dashboard per player. Put returns
// types.ErrStaleWrite when a newer submission is already stored.
type Store interface {
	Put(ctx context.Context, playerID string, seq uint64, snap *model.Snapshot, d *dashboard.Dashboard) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until the queue closes or ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// Counters are shared by every worker in a pool.
type Counters struct {
	processed  atomic.Int64
	failed     atomic.Int64
	superseded atomic.Int64
}

// Processed returns the number of dashboards stored.
func (c *Counters) Processed() int64 { return c.processed.Load() }

// Failed returns the number of jobs that could not be completed.
func (c *Counters) Failed() int64 { return c.failed.Load() }

// Superseded returns the number of builds dropped because a newer
// submission for the same player was stored first.
func (c *Counters) Superseded() int64 { return c.superseded.Load() }

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	builder  Builder
	store    Store
	name     string
	counters *Counters

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger  logger.Logger
	metrics *metrics.Manager
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, b Builder, s Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		builder:  b,
		store:    s,
		name:     "worker",
		counters: &Counters{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Discard(),
		metrics:  metrics.Global(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Name returns the worker name.
func (w *InMemoryWorker) Name() string { return w.name }

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "build job failed",
					logger.String("job", job.JobID),
					logger.String("player", job.PlayerID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	d, err := w.builder.Build(ctx, job.PlayerID, job.Snapshot)
	if err != nil {
		w.fail()
		return fmt.Errorf("build %s: %w", job.PlayerID, err)
	}
	if err := w.store.Put(ctx, job.PlayerID, job.Seq, job.Snapshot, d); err != nil {
		if errors.Is(err, types.ErrStaleWrite) {
			w.counters.superseded.Add(1)
			w.logger.Debug(ctx, "newer dashboard already stored",
				logger.String("job", job.JobID),
				logger.String("player", job.PlayerID))
			return nil
		}
		w.fail()
		return fmt.Errorf("store %s: %w", job.PlayerID, err)
	}

	w.counters.processed.Add(1)
	w.logger.Debug(ctx, "dashboard stored",
		logger.String("job", job.JobID),
		logger.String("player", job.PlayerID),
		logger.String("render", d.RenderID),
		logger.Duration("queued", time.Since(job.TS)))
	return nil
}

func (w *InMemoryWorker) fail() {
	w.counters.failed.Add(1)
	w.metrics.RecordWorkerFailure()
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *Counters
	logger   logger.Logger
	metrics  *metrics.Manager
}

// NewPool creates a pool of workerCount workers. A count below one uses the
// number of CPUs.
func NewPool(workerCount int, q Queue, b Builder, s Store, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: &Counters{},
		logger:   logger.Discard(),
		metrics:  metrics.Global(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, b, s,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
			WithMetrics(p.metrics),
			withCounters(p.counters),
		)
	}
	p.metrics.UpdateWorkerCount(workerCount)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Counters returns the pool-wide job counters.
func (p *Pool) Counters() *Counters { return p.counters }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets the workers drain what is already queued
// and waits for them. Workers still busy when ctx or the pool timeout ends
// are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}
	p.metrics.UpdateWorkerCount(0)

	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
