package reconcile

import (
	"errors"
	"fmt"

	"github.com/okian/scoutlens/internal/domain/source"
)

// Sentinel kinds for reconciliation errors.
var (
	ErrEmptyMetric  = errors.New("metric has no reported values")
	ErrInvalidValue = errors.New("metric value is not finite")
)

// ValueError names the provider whose reading could not be used.
type ValueError struct {
	Source source.Name
	Value  float64
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s reported %v: %s", e.Source, e.Value, ErrInvalidValue)
}

// Is matches ErrInvalidValue.
func (e *ValueError) Is(target error) bool {
	return target == ErrInvalidValue
}
