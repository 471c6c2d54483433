// Package repository keeps the latest snapshot and dashboard per player.
package repository

import (
	"context"
	"time"

	"github.com/okian/scoutlens/internal/domain/dashboard"
	"github.com/okian/scoutlens/internal/domain/model"
	"github.com/okian/scoutlens/internal/domain/types"
)

// Record is what the store holds for one player.
type Record struct {
	PlayerID  string
	Snapshot  *model.Snapshot
	Dashboard *dashboard.Dashboard
	Seq       uint64
	UpdatedAt time.Time
}

// Store provides read/write access to rendered dashboards.
type Store interface {
	// Put replaces the player's snapshot and dashboard. A new player is
	// appended to the listing; an existing one keeps its position. A write
	// whose seq is below the stored one returns ErrStaleWrite.
	Put(ctx context.Context, playerID string, seq uint64, snap *model.Snapshot, d *dashboard.Dashboard) error

	// Get returns ErrNotFound if the player is unknown.
	Get(ctx context.Context, playerID string) (Record, error)

	// Dashboard returns the latest dashboard or ErrNotFound.
	Dashboard(ctx context.Context, playerID string) (*dashboard.Dashboard, error)

	// List returns one summary per player in first-stored order.
	List(ctx context.Context) []types.Summary

	// Delete removes a player. Returns ErrNotFound if the player is unknown.
	Delete(ctx context.Context, playerID string) error

	Count(ctx context.Context) int
}
