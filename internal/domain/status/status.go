// Package status maps an aggregate rating onto a discrete severity band.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Band is one of the mutually exclusive status levels.
type Band int

// Known bands, from least to most severe.
const (
	Good Band = iota + 1
	Caution
	Warning
)

// Severity is the display-agnostic level a consumer maps to its own styling.
type Severity string

// Severity levels.
const (
	SeverityOK       Severity = "ok"
	SeverityElevated Severity = "elevated"
	SeverityCritical Severity = "critical"
)

var bandNames = map[Band]string{
	Good:    "good",
	Caution: "caution",
	Warning: "warning",
}

// labels are the fixed badge strings shown on the dashboard header.
var labels = map[Band]string{
	Good:    "양호",
	Caution: "주의",
	Warning: "경고",
}

var severities = map[Band]Severity{
	Good:    SeverityOK,
	Caution: SeverityElevated,
	Warning: SeverityCritical,
}

// String returns the band token, e.g. "caution".
func (b Band) String() string {
	if s, ok := bandNames[b]; ok {
		return s
	}
	return fmt.Sprintf("band(%d)", int(b))
}

// Valid reports whether b is a known band.
func (b Band) Valid() bool {
	_, ok := bandNames[b]
	return ok
}

// Label returns the badge text for b.
func (b Band) Label() string { return labels[b] }

// Severity returns the semantic level of b.
func (b Band) Severity() Severity { return severities[b] }

// ParseBand accepts a band token, case-insensitively.
func ParseBand(s string) (Band, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for b, name := range bandNames {
		if name == key {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBand, s)
}

// MarshalJSON encodes the band as its token.
func (b Band) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON decodes a band token.
func (b *Band) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBand(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Status is the classification handed to the view layer.
type Status struct {
	Band     Band     `json:"band"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

func statusOf(b Band) Status {
	return Status{Band: b, Label: b.Label(), Severity: b.Severity()}
}

// Classifier assigns bands from a threshold table.
type Classifier struct {
	table Table
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithTable replaces the default thresholds. Invalid tables are ignored;
// call Table.Validate first to surface the reason.
func WithTable(t Table) Option {
	return func(c *Classifier) {
		if t.Validate() == nil {
			c.table = t.clone()
		}
	}
}

// NewClassifier creates a classifier using DefaultTable unless overridden.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{table: DefaultTable()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns a copy of the thresholds in use.
func (c *Classifier) Table() Table { return c.table.clone() }

// Classify maps rating to a status. NaN and infinities return ErrInvalidRating.
func (c *Classifier) Classify(rating float64) (Status, error) {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return Status{}, fmt.Errorf("%w: %v", ErrInvalidRating, rating)
	}
	return statusOf(c.table.bandFor(rating)), nil
}

var defaultClassifier = NewClassifier()

// Classify uses the default thresholds.
func Classify(rating float64) (Status, error) {
	return defaultClassifier.Classify(rating)
}
