// Package reconcile turns per-provider readings of one subjective metric into
// a comparable series with a single representative average.
package reconcile

import (
	"math"

	"github.com/okian/scoutlens/internal/domain/source"
)

// Result is the reconciled view of one metric.
type Result struct {
	// Entries holds the present readings in provider insertion order.
	Entries []source.Entry[float64] `json:"entries"`
	// Average is the arithmetic mean of Entries at full precision.
	Average float64 `json:"average"`
}

// Reconcile computes the ordered readings and their mean. Absent providers do
// not contribute. It returns ErrEmptyMetric when nothing was reported and a
// *ValueError when a reading is NaN or infinite.
func Reconcile(rec source.Record[float64]) (Result, error) {
	entries := rec.Present()
	if len(entries) == 0 {
		return Result{}, ErrEmptyMetric
	}

	sum := 0.0
	for _, e := range entries {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return Result{}, &ValueError{Source: e.Source, Value: e.Value}
		}
		sum += e.Value
	}

	return Result{
		Entries: entries,
		Average: sum / float64(len(entries)),
	}, nil
}

// Drift returns how far a provider-supplied average is from the recomputed
// one. The supplied figure is never used for anything else.
func (r Result) Drift(supplied float64) float64 {
	return math.Abs(supplied - r.Average)
}
