package service

import (
	"errors"

	"github.com/okian/scoutlens/internal/domain/types"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = types.ErrBackpressure
)
