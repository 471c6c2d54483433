package dashboard

import (
	"errors"
)

// Sentinel kinds for dashboard errors.
var (
	ErrNilSnapshot   = errors.New("nil snapshot")
	ErrEmptyPlayerID = errors.New("empty player id")
)

// Reasons shown when a section has nothing to render.
const (
	ReasonNoData          = "no data available"
	ReasonHeadlineMissing = "headline metric not reported"
)
