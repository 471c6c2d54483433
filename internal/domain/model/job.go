// Package model contains domain models passed between layers.
package model

import "time"

// BuildJob asks a worker to (re)build one player's dashboard.
type BuildJob struct {
	JobID    string    // unique id, used to correlate logs
	PlayerID string    // repository key
	Snapshot *Snapshot // input data, owned by the job once enqueued
	Seq      uint64    // submission order; a store keeps the highest per player
	TS       time.Time // submission time
}
