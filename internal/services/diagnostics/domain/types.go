// Package domain contains diagnostics types and ports
package domain

import (
	"time"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// Drop records a detection that never became a valid interval
type Drop struct {
	RunID  string
	Key    string
	Seed   timeline.Frame
	Reason string
	At     time.Time
}

// ProbeStats is the per-run counter snapshot taken after refinement
type ProbeStats struct {
	RunID         string
	Probed        int
	Recognized    int
	Accepted      int
	Suppressed    int
	ProbeFailures int
	CachedFrames  int
	InFallbacks   int
	OutFallbacks  int
	Rescues       int
	Dropped       int
	Degraded      bool
	At            time.Time
}
