package repository

import (
	"time"

	"github.com/okian/scoutlens/pkg/metrics"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *MemoryStore) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
