// Package domain defines core types and interfaces for analysis
package domain

import (
	"time"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// AnalyzeRequest describes one full detection run over a capture file
type AnalyzeRequest struct {
	VideoPath string
	GameID    string

	// Keys restricts the run to these event keys; empty runs every key
	// the game defines
	Keys []string

	// FPS overrides the container frame rate when the capture is known
	// to be mis-tagged; zero trusts the container
	FPS float64

	Workers int

	// Walk and refinement geometry overrides; zero fields take the
	// service defaults
	DenseStep  timeline.Frame
	SparseStep timeline.Frame
	DenseUntil timeline.Frame
	JumpBack   timeline.Frame

	// Downscale shrinks probed crops before classification; zero takes
	// the source default
	Downscale float64

	// DebugDir dumps recognizer input crops when set
	DebugDir string

	// Export destinations written after a successful run; empty paths
	// skip that writer
	TimeboltPath string
	BlocksPath   string
}

// RunSummary reports one finished run
type RunSummary struct {
	RunID      string
	GameID     string
	VideoPath  string
	FPS        float64
	Frames     timeline.Frame
	Detections int
	Intervals  []timeline.Interval
	Dropped    int
	Degraded   bool
	Elapsed    time.Duration
}

// OpenSpec tells the source port what to open and how to crop it.
// Recognizer tuning beyond this lives with the port implementation
type OpenSpec struct {
	Path      string
	Game      *gamepack.Game
	Downscale float64
	DebugDir  string
}
