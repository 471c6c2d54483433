// Package types contains common types used across the application
package types

// Summary is one row of the dashboard listing
type Summary struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Team     string `json:"team,omitempty"`
	// Band and Rating are unset when the headline rating is unavailable.
	Band     string   `json:"band,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	RenderID string   `json:"render_id"`
}

// Submission describes an accepted snapshot.
type Submission struct {
	JobID    string `json:"job_id,omitempty"`
	PlayerID string `json:"player_id"`
	// Duplicate is set when the snapshot matches the last accepted one and
	// no rebuild was queued.
	Duplicate bool `json:"duplicate"`
}
