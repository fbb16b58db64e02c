// Package scan walks a video timeline probing frames for battle banner text.
// The walk is adaptive: dense strides early where short battles cluster,
// sparse strides for the rest of the capture
package scan

import (
	"context"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/normalize"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
)

// Default walk geometry in frames, sized for 240fps captures
const (
	// DefaultDenseStep is the probe stride inside the dense window (2s)
	DefaultDenseStep timeline.Frame = 480
	// DefaultSparseStep is the probe stride after the dense window (6s)
	DefaultSparseStep timeline.Frame = 1440
	// DefaultDenseUntil bounds the dense window (first 10 minutes)
	DefaultDenseUntil timeline.Frame = 43200
)

// Options controls the walk geometry. Zero fields take defaults
type Options struct {
	DenseStep  timeline.Frame
	SparseStep timeline.Frame
	DenseUntil timeline.Frame
}

func (o Options) withDefaults() Options {
	if o.DenseStep <= 0 {
		o.DenseStep = DefaultDenseStep
	}
	if o.SparseStep <= 0 {
		o.SparseStep = DefaultSparseStep
	}
	if o.DenseUntil <= 0 {
		o.DenseUntil = DefaultDenseUntil
	}
	return o
}

// Detection is one accepted banner sighting
type Detection struct {
	Key   string
	Frame timeline.Frame
	Step  timeline.Frame // stride in effect when the sighting was accepted
}

// Stats summarizes one walk for run telemetry
type Stats struct {
	Probed        int
	Recognized    int // probes that yielded non-empty text
	Accepted      int
	Suppressed    int
	ProbeFailures int
	Degraded      bool // recognizer went unavailable; walk ended early
}

// Scanner probes frames and matches banner text against one game's keys
type Scanner struct {
	game *gamepack.Game
	norm *normalize.Normalizer
	opts Options
}

// New creates a Scanner with default walk geometry
func New(game *gamepack.Game) *Scanner {
	return NewWithOptions(game, Options{})
}

// NewWithOptions creates a Scanner with custom walk geometry
func NewWithOptions(game *gamepack.Game, opts Options) *Scanner {
	return &Scanner{game: game, norm: normalize.New(), opts: opts.withDefaults()}
}

// StepAt returns the stride in effect at a frame position
func (s *Scanner) StepAt(f timeline.Frame) timeline.Frame {
	if f < s.opts.DenseUntil {
		return s.opts.DenseStep
	}
	return s.opts.SparseStep
}

// Scan walks [0,total) at the adaptive stride, recognizing text once per
// probed frame and matching every key against it. Accepted detections are
// handed to emit as they happen so boundary refinement can start while the
// walk is still running.
//
// A hit is suppressed when any previously accepted frame for the same key
// lies within the current stride times the key's multiplier; suppressed
// hits are not recorded and never widen the window. Probe failures skip the
// frame. A recognizer outage ends the walk early with whatever was found
func (s *Scanner) Scan(ctx context.Context, rec probe.Recognizer, total timeline.Frame, emit func(Detection)) ([]Detection, Stats, error) {
	var (
		dets     []Detection
		st       Stats
		accepted = make(map[string][]timeline.Frame, len(s.game.Keys))
	)

	for frame := timeline.Frame(0); frame < total; {
		if err := ctx.Err(); err != nil {
			return dets, st, err
		}
		step := s.StepAt(frame)

		text, err := rec.Recognize(ctx, frame)
		st.Probed++
		switch {
		case perr.IsCode(err, perr.ErrorCodeRecognizerUnavailable):
			st.Degraded = true
			return dets, st, nil
		case err != nil:
			st.ProbeFailures++
			frame += step
			continue
		}

		if text != "" {
			st.Recognized++
			pj := normalize.BuildProjections(s.norm.Normalize(text))
			for _, key := range s.game.MatchAll(pj) {
				m, _ := s.game.Matcher(key)
				window := step * timeline.Frame(m.Multiplier)
				if tooClose(accepted[key], frame, window) {
					st.Suppressed++
					continue
				}
				accepted[key] = append(accepted[key], frame)
				d := Detection{Key: key, Frame: frame, Step: step}
				dets = append(dets, d)
				st.Accepted++
				if emit != nil {
					emit(d)
				}
			}
		}

		frame += step
	}
	return dets, st, nil
}

// tooClose reports whether any prior accepted frame for the key sits within
// the suppression window (strict)
func tooClose(prior []timeline.Frame, f, window timeline.Frame) bool {
	for _, a := range prior {
		d := f - a
		if d < 0 {
			d = -d
		}
		if d < window {
			return true
		}
	}
	return false
}
