// Package domain defines core types and interfaces for cutlists
package domain

import (
	"time"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// Run lifecycle states persisted in runs.status
const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// BeginRun is the insert payload for a new run row
type BeginRun struct {
	ID        string // uuid
	VideoPath string
	GameID    string
	FPS       float64
	Frames    timeline.Frame
	Workers   int
	StartedAt time.Time
}

// FinishRun finalizes a run row with outcome counters
type FinishRun struct {
	ID         string
	Status     string
	Detections int
	Intervals  int
	Dropped    int
	Degraded   bool
	Error      string // empty when the run succeeded
	FinishedAt time.Time
}

// Run is the persisted run view shared across consumers
type Run struct {
	ID         string
	VideoPath  string
	GameID     string
	FPS        float64
	Frames     timeline.Frame
	Workers    int
	Status     string
	Detections int
	Intervals  int
	Dropped    int
	Degraded   bool
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// IntervalWrite is one refined cut destined for cut_intervals
type IntervalWrite struct {
	RunID   string
	Key     string
	Label   string
	Start   timeline.Frame
	End     timeline.Frame
	Seed    timeline.Frame // detection frame the refinement started from
	InKind  string
	OutKind string
}

// IntervalRow is the persisted cut interval view, ordered by start frame
type IntervalRow struct {
	RunID   string
	Key     string
	Label   string
	Start   timeline.Frame
	End     timeline.Frame
	Seed    timeline.Frame
	InKind  string
	OutKind string
}

// AfterKey supports stable keyset pagination over (started_at, id)
type AfterKey struct {
	StartedAt time.Time
	ID        string // uuid
}

// ListInput defines the input parameters for listing runs
type ListInput struct {
	After AfterKey // zero value = from start
	Limit int      // hard-capped in service

	// Optional filters (all ANDed)
	GameID string
	Status string
}

// IntervalFilter narrows interval listings for one run
type IntervalFilter struct {
	Key string
}
