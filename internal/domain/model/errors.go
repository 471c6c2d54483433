package model

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrDuplicateMetric = errors.New("duplicate subjective metric")
)
