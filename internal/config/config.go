// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions that may block accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/okian/scoutlens/internal/domain/source"
	"github.com/okian/scoutlens/internal/domain/status"
)

// Threshold is one classification row as written in config files.
type Threshold struct {
	Upper float64 `koanf:"upper"`
	Band  string  `koanf:"band"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches the log format from text to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory build queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of dashboard build workers.
	WorkerCount int `koanf:"worker_count"`

	// SnapshotDir is scanned for *.json snapshots at startup. Empty disables it.
	SnapshotDir string `koanf:"snapshot_dir"`

	// KnownSources overrides the providers objective stats are judged against.
	KnownSources []string `koanf:"known_sources"`

	// HeadlineMetric names the subjective metric the status badge reflects.
	HeadlineMetric string `koanf:"headline_metric"`

	StatusThresholds []Threshold `koanf:"status_thresholds"`
	StatusFallback   string      `koanf:"status_fallback"`

	// DriftTolerance is the largest supplied-vs-recomputed average gap that is
	// not logged.
	DriftTolerance float64 `koanf:"drift_tolerance"`

	// SubmitRate is the sustained snapshot submissions per second allowed for
	// one player. Zero disables the limit.
	SubmitRate  float64 `koanf:"submit_rate"`
	SubmitBurst int     `koanf:"submit_burst"`
}

// New creates a Config populated with defaults. The context is unused today.
func New(_ context.Context) *Config {
	def := status.DefaultTable()
	rows := make([]Threshold, len(def.Rows))
	for i, r := range def.Rows {
		rows[i] = Threshold{Upper: r.Upper, Band: r.Band.String()}
	}
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		QueueSize:        1_000,
		WorkerCount:      runtime.NumCPU(),
		HeadlineMetric:   "Match Rating",
		StatusThresholds: rows,
		StatusFallback:   def.Fallback.String(),
		DriftTolerance:   0.01,
		SubmitRate:       2,
		SubmitBurst:      5,
	}
}

// StatusTable converts the configured rows into a validated table.
func (c *Config) StatusTable() (status.Table, error) {
	t := status.Table{Rows: make([]status.Threshold, 0, len(c.StatusThresholds))}
	for i, row := range c.StatusThresholds {
		b, err := status.ParseBand(row.Band)
		if err != nil {
			return status.Table{}, fmt.Errorf("%w: status_thresholds[%d]: %v", ErrInvalidConfig, i, err)
		}
		t.Rows = append(t.Rows, status.Threshold{Upper: row.Upper, Band: b})
	}
	fb, err := status.ParseBand(c.StatusFallback)
	if err != nil {
		return status.Table{}, fmt.Errorf("%w: status_fallback: %v", ErrInvalidConfig, err)
	}
	t.Fallback = fb
	if err := t.Validate(); err != nil {
		return status.Table{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return t, nil
}

// Sources returns KnownSources as an ordered set, trimming blanks.
func (c *Config) Sources() source.Names {
	var n source.Names
	for _, s := range c.KnownSources {
		if s = strings.TrimSpace(s); s != "" {
			n.Add(source.Name(s))
		}
	}
	return n
}

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case strings.TrimSpace(c.HeadlineMetric) == "":
		return fmt.Errorf("%w: headline_metric must not be empty", ErrInvalidConfig)
	case math.IsNaN(c.DriftTolerance) || c.DriftTolerance < 0:
		return fmt.Errorf("%w: drift_tolerance must be >= 0", ErrInvalidConfig)
	case math.IsNaN(c.SubmitRate) || math.IsInf(c.SubmitRate, 0) || c.SubmitRate < 0:
		return fmt.Errorf("%w: submit_rate must be a finite number >= 0", ErrInvalidConfig)
	case c.SubmitRate > 0 && c.SubmitBurst <= 0:
		return fmt.Errorf("%w: submit_burst must be positive when submit_rate is set", ErrInvalidConfig)
	}
	_, err := c.StatusTable()
	return err
}
