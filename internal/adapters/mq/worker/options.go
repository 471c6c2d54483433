package worker

import (
	"github.com/okian/scoutlens/pkg/logger"
	"github.com/okian/scoutlens/pkg/metrics"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(w *InMemoryWorker) {
		if m != nil {
			w.metrics = m
		}
	}
}

func withCounters(c *Counters) Option {
	return func(w *InMemoryWorker) {
		w.counters = c
	}
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger shared by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPoolMetrics sets the metrics manager shared by the pool and its workers.
func WithPoolMetrics(m *metrics.Manager) PoolOption {
	return func(p *Pool) {
		if m != nil {
			p.metrics = m
		}
	}
}
