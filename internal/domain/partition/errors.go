package partition

import (
	"errors"
	"fmt"

	"github.com/okian/scoutlens/internal/domain/source"
)

// Sentinel kinds for partition errors.
var (
	ErrAmbiguousStat  = errors.New("stat reported by some but not all known sources")
	ErrNoKnownSources = errors.New("no known sources")
)

// AmbiguousError describes a stat that is neither common nor unique.
type AmbiguousError struct {
	Stat      string
	Reporters []source.Name
	Known     int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("stat %q reported by %d of %d known sources %v: %s",
		e.Stat, len(e.Reporters), e.Known, e.Reporters, ErrAmbiguousStat)
}

// Is matches ErrAmbiguousStat.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguousStat
}
