package repository

import (
	"errors"

	"github.com/okian/scoutlens/internal/domain/types"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = types.ErrNotFound
	ErrNilDashboard  = errors.New("nil dashboard")
	ErrEmptyPlayerID = errors.New("empty player id")

	// ErrStaleWrite is returned by Put when a newer submission for the
	// player is already stored. Nothing is written.
	ErrStaleWrite = types.ErrStaleWrite
)
