package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingParam = errors.New("missing path parameter")
	ErrRateLimited  = errors.New("too many snapshots for this player")
	ErrBodyTooLarge = errors.New("request body too large")
)

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", ErrBadRequest, err)
}
