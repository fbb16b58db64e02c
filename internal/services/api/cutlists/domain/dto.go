// Package domain defines wire DTOs for the stored-run read API
package domain

// RunsQuery pages and filters the run listing. The cursor pair echoes
// next_started_at/next_id from the previous page
type RunsQuery struct {
	GameID string `json:"game_id" validate:"omitempty,alphanum,max=32" example:"heartgold"`
	Status string `json:"status" validate:"omitempty,oneof=running done failed" example:"done"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=200" example:"50"`

	AfterStartedAt string `json:"after_started_at" validate:"omitempty" example:"2026-08-21T13:00:00.000000Z"`
	AfterID        string `json:"after_id" validate:"omitempty,uuid" example:"b7f9c2e4-4f3a-4f2e-9c1d-8a6e5d4c3b2a"`
}

// Run is the wire view of a stored run
type Run struct {
	ID         string  `json:"id"`
	VideoPath  string  `json:"video_path"`
	GameID     string  `json:"game_id"`
	FPS        float64 `json:"fps"`
	Frames     int64   `json:"frames"`
	Workers    int     `json:"workers"`
	Status     string  `json:"status"`
	Detections int     `json:"detections"`
	Intervals  int     `json:"intervals"`
	Dropped    int     `json:"dropped"`
	Degraded   bool    `json:"degraded"`
	Error      string  `json:"error,omitempty"`
	StartedAt  string  `json:"started_at"`
	FinishedAt string  `json:"finished_at,omitempty"`
}

// RunsPage is one keyset page of runs. The next_* pair is absent on the
// last page
type RunsPage struct {
	Runs          []Run  `json:"runs"`
	NextStartedAt string `json:"next_started_at,omitempty"`
	NextID        string `json:"next_id,omitempty"`
}

// IntervalsQuery narrows a run's cutlist
type IntervalsQuery struct {
	Key string `json:"key" validate:"omitempty,max=64" example:"misty"`
}

// Interval is the wire view of one refined cut, rendered against the
// run's frame rate
type Interval struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	StartFrame    int64   `json:"start_frame"`
	EndFrame      int64   `json:"end_frame"`
	StartSeconds  float64 `json:"start_seconds"`
	EndSeconds    float64 `json:"end_seconds"`
	StartTimecode string  `json:"start_timecode"`
	EndTimecode   string  `json:"end_timecode"`
	SeedFrame     int64   `json:"seed_frame"`
	InKind        string  `json:"in_kind"`
	OutKind       string  `json:"out_kind"`
}

// IntervalsResponse carries a run's cutlist
type IntervalsResponse struct {
	RunID     string     `json:"run_id"`
	FPS       float64    `json:"fps"`
	Intervals []Interval `json:"intervals"`
}
