package status

import "errors"

// Sentinel kinds for status errors.
var (
	ErrInvalidRating = errors.New("rating is not a finite number")
	ErrInvalidTable  = errors.New("invalid threshold table")
	ErrUnknownBand   = errors.New("unknown status band")
)
