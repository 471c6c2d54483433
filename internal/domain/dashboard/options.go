package dashboard

import (
	"time"

	"github.com/okian/scoutlens/internal/domain/source"
	"github.com/okian/scoutlens/internal/domain/status"
	"github.com/okian/scoutlens/pkg/logger"
	"github.com/okian/scoutlens/pkg/metrics"
)

// DefaultHeadlineMetric is the subjective metric the badge reflects.
const DefaultHeadlineMetric = "Match Rating"

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithClassifier sets the classifier used for the badge.
func WithClassifier(c *status.Classifier) Option {
	return func(b *Builder) {
		if c != nil {
			b.classifier = c
		}
	}
}

// WithHeadlineMetric sets which subjective metric drives the badge.
func WithHeadlineMetric(name string) Option {
	return func(b *Builder) {
		if name != "" {
			b.headline = name
		}
	}
}

// WithKnownSources pins the providers objective stats are judged against.
// When unset every snapshot supplies its own.
func WithKnownSources(known source.Names) Option {
	return func(b *Builder) {
		b.known = known
	}
}

// WithDriftTolerance sets the largest supplied-average gap that is not logged.
func WithDriftTolerance(tol float64) Option {
	return func(b *Builder) {
		if tol >= 0 {
			b.driftTolerance = tol
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(b *Builder) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithClock overrides time.Now for render timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}
