// Package queue holds dashboard build jobs between submission and the worker
// pool. The only implementation is an in-memory bounded channel.
package queue

import (
	"context"
	"sync"

	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/pkg/metrics"
)

const defaultQueueCapacity = 1_000

// Job is the payload flowing through the queue.
type Job = model.BuildJob

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It never blocks: a full queue returns ErrFull.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns the channel jobs arrive on. It is closed by Close.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Cap returns the queue bound.
	Cap() int

	// Close stops accepting jobs. Jobs already queued are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	metrics  *metrics.Manager

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		metrics:  metrics.Global(),
	}
	for _, opt := range opts {
		opt(q)
	}

	q.jobs = make(chan Job, q.capacity)

	q.metrics.UpdateQueueCapacity(q.capacity)
	q.metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	if err := ctx.Err(); err != nil {
		q.metrics.RecordQueueRejected("context_cancelled")
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.RecordQueueRejected("closed")
		return ErrClosed
	}

	select {
	case q.jobs <- j:
		q.metrics.RecordQueueEnqueue()
		q.metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		q.metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue. Every caller shares it.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	q.metrics.UpdateQueueSize(size)
	return size
}

// Cap returns the queue bound.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
