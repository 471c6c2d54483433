package types

import "errors"

// Errors shared across layers so the transport can map them without
// importing the packages that raise them.
var (
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrStaleWrite   = errors.New("newer submission already stored")
)
