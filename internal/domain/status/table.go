package status

import (
	"fmt"
	"math"
)

// Threshold assigns Band to every rating at or below Upper that no earlier
// row claimed.
type Threshold struct {
	Upper float64 `json:"upper" koanf:"upper"`
	Band  Band    `json:"band" koanf:"band"`
}

// Table is an ordered list of thresholds followed by a catch-all band for
// ratings above the last Upper.
type Table struct {
	Rows     []Threshold `json:"rows"`
	Fallback Band        `json:"fallback"`
}

// DefaultTable is the dashboard policy: <= 4.0 good, <= 6.5 caution, else warning.
func DefaultTable() Table {
	return Table{
		Rows: []Threshold{
			{Upper: 4.0, Band: Good},
			{Upper: 6.5, Band: Caution},
		},
		Fallback: Warning,
	}
}

// Validate checks that the uppers are finite and strictly increasing and all
// bands are known.
func (t Table) Validate() error {
	if !t.Fallback.Valid() {
		return fmt.Errorf("%w: fallback %s", ErrInvalidTable, t.Fallback)
	}
	prev := math.Inf(-1)
	for i, row := range t.Rows {
		if math.IsNaN(row.Upper) || math.IsInf(row.Upper, 0) {
			return fmt.Errorf("%w: row %d upper is not finite", ErrInvalidTable, i)
		}
		if row.Upper <= prev {
			return fmt.Errorf("%w: row %d upper %v not above %v", ErrInvalidTable, i, row.Upper, prev)
		}
		if !row.Band.Valid() {
			return fmt.Errorf("%w: row %d band %s", ErrInvalidTable, i, row.Band)
		}
		prev = row.Upper
	}
	return nil
}

func (t Table) bandFor(rating float64) Band {
	for _, row := range t.Rows {
		if rating <= row.Upper {
			return row.Band
		}
	}
	return t.Fallback
}

func (t Table) clone() Table {
	return Table{Rows: append([]Threshold(nil), t.Rows...), Fallback: t.Fallback}
}
