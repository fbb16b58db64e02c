// Package refine turns a banner sighting into a frame-exact cut interval.
// It walks text presence coarsely, bisects the disappearance boundary, lands
// on the center of the nearest black/white run, and falls back through a
// ladder of widening sweeps when the direct search finds nothing
package refine

import (
	"context"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/normalize"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
)

// DefaultJump is the text-presence stride for boundary walks (3s at 240fps)
const DefaultJump timeline.Frame = 720

// Fallback horizons in seconds of video time
const (
	backstopInHorizon  = 60
	backstopOutTight   = 30
	backstopOutWide    = 120
	trailingEOVWindow  = 60
	rescueTightHorizon = 180
	rescueWideHorizon  = 300
)

// Fallback sweep strides in frames
const (
	backstopFineStep   timeline.Frame = 5
	backstopCoarseStep timeline.Frame = 10
	rescueWideStep     timeline.Frame = 20
)

// Kind classifies the transition frame a cut landed on
type Kind string

const (
	KindBlack   Kind = "black"
	KindWhite   Kind = "white"
	KindUnknown Kind = "unknown"
)

func kindOf(c probe.Classification) Kind {
	switch {
	case c.Low:
		return KindBlack
	case c.High:
		return KindWhite
	default:
		return KindUnknown
	}
}

// Config fixes the search geometry for one run. Frame fields derive from
// fps via ConfigForFPS; tests may set them directly
type Config struct {
	FPS          float64
	Jump         timeline.Frame // text walk stride
	MinWindow    timeline.Frame // text bisection stops at this width
	MarkerCoarse timeline.Frame // first transition sweep stride
	MarkerFine   timeline.Frame // retry sweep stride
	CenterRadius timeline.Frame // run edge search bound around a hit
}

// ConfigForFPS derives the default geometry from the capture frame rate
func ConfigForFPS(fps float64) Config {
	mw := timeline.Frame(fps * 0.5)
	if mw < 1 {
		mw = 1
	}
	return Config{
		FPS:          fps,
		Jump:         DefaultJump,
		MinWindow:    mw,
		MarkerCoarse: 10,
		MarkerFine:   1,
		CenterRadius: timeline.Frame(fps * 2),
	}
}

// Result is one refined battle: the seed sighting plus its exact cut pair
// and what the cut frames look like
type Result struct {
	Key    string
	Seed   timeline.Frame // the scan sighting that opened the search
	CutIn  timeline.Frame
	CutOut timeline.Frame

	InKind  Kind
	OutKind Kind
	InMean  float64
	OutMean float64

	// InFallback and OutFallback mark cut frames produced by a backstop
	// tier rather than a clean transition bisection. Rescued marks a pair
	// that only uninverted during the rescue sweep
	InFallback  bool
	OutFallback bool
	Rescued     bool
}

// Refiner resolves cut points for one game's detections
type Refiner struct {
	game *gamepack.Game
	norm *normalize.Normalizer
	cfg  Config
}

// New creates a Refiner over a compiled game entry
func New(game *gamepack.Game, cfg Config) *Refiner {
	return &Refiner{game: game, norm: normalize.New(), cfg: cfg}
}

// Refine resolves the cut interval around one sighting. Probe failures
// during any sweep read as "condition false" and the search keeps moving;
// an interval that stays inverted after every rescue tier is dropped with
// an InvalidInterval error
func (r *Refiner) Refine(ctx context.Context, h probe.Handle, total timeline.Frame, key string, seed timeline.Frame) (Result, error) {
	m, ok := r.game.Matcher(key)
	if !ok {
		return Result{}, perr.Newf(perr.ErrorCodeInvalidArgument, "refine: game %q has no key %q", r.game.ID, key)
	}
	if total <= 0 || seed < 0 || seed >= total {
		return Result{}, perr.Newf(perr.ErrorCodeInvalidArgument, "refine: seed %d outside [0,%d)", seed, total)
	}

	var inFB, outFB, rescued bool

	cutIn, err := r.cutIn(ctx, h, total, m, seed)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeBoundaryNotFound) {
			return Result{}, err
		}
		cutIn = r.backstopIn(ctx, h, total, seed)
		inFB = true
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	cutOut, err := r.cutOut(ctx, h, total, m, seed)
	if err != nil {
		if !perr.IsCode(err, perr.ErrorCodeBoundaryNotFound) {
			return Result{}, err
		}
		cutOut = r.backstopOut(ctx, h, total, seed)
		outFB = true
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Rescue pass when the pair came out inverted or collapsed
	if cutOut <= cutIn {
		if c, ok := r.findMarker(ctx, h, cutIn+1, min(total-1, cutIn+r.seconds(rescueTightHorizon)), backstopCoarseStep); ok {
			cutOut = r.centerRun(ctx, h, total, c)
			rescued = true
		}
	}
	if cutOut <= cutIn {
		if c, ok := r.findMarker(ctx, h, cutIn+1, min(total-1, cutIn+r.seconds(rescueWideHorizon)), rescueWideStep); ok {
			cutOut = r.centerRun(ctx, h, total, c)
			rescued = true
		}
	}
	if cutOut <= cutIn {
		return Result{}, perr.InvalidIntervalf("refine: no closing transition for %q seeded at frame %d", key, seed)
	}

	res := Result{
		Key: key, Seed: seed,
		CutIn: cutIn, CutOut: cutOut,
		InKind: KindUnknown, OutKind: KindUnknown,
		InFallback: inFB, OutFallback: outFB, Rescued: rescued,
	}
	if c, cerr := h.Classify(ctx, cutIn); cerr == nil {
		res.InKind, res.InMean = kindOf(c), c.Intensity
	}
	if c, cerr := h.Classify(ctx, cutOut); cerr == nil {
		res.OutKind, res.OutMean = kindOf(c), c.Intensity
	}
	return res, nil
}

// cutIn jumps backward until the banner text disappears, bisects the
// reappearance boundary, then sweeps backward from it for the transition run
func (r *Refiner) cutIn(ctx context.Context, h probe.Handle, total timeline.Frame, m *gamepack.Matcher, seed timeline.Frame) (timeline.Frame, error) {
	jump := r.cfg.Jump
	frame, last := seed, seed
	for frame > 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		frame -= jump
		if frame < 0 {
			frame = 0
		}
		if r.matchAt(ctx, h, m, frame) {
			last = frame
			continue
		}
		boundary := r.textBoundary(ctx, h, m, frame, last, true)
		lo := max(timeline.Frame(0), boundary-jump)
		if c, ok := r.findMarker(ctx, h, boundary, lo, r.cfg.MarkerCoarse); ok {
			return r.centerRun(ctx, h, total, c), nil
		}
		if c, ok := r.findMarker(ctx, h, boundary, lo, r.cfg.MarkerFine); ok {
			return r.centerRun(ctx, h, total, c), nil
		}
		return 0, perr.BoundaryNotFoundf("cut-in: no transition within %d frames before boundary %d", jump, boundary)
	}
	return 0, perr.BoundaryNotFoundf("cut-in: banner text held to frame 0")
}

// cutOut mirrors cutIn forward: the transition run follows the frame where
// the banner text was last seen
func (r *Refiner) cutOut(ctx context.Context, h probe.Handle, total timeline.Frame, m *gamepack.Matcher, seed timeline.Frame) (timeline.Frame, error) {
	jump := r.cfg.Jump
	frame, last := seed, seed
	for frame < total-1 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		frame += jump
		if frame > total-1 {
			frame = total - 1
		}
		if r.matchAt(ctx, h, m, frame) {
			last = frame
			continue
		}
		boundary := r.textBoundary(ctx, h, m, last, frame, false)
		lo := max(timeline.Frame(0), boundary-r.seconds(5))
		hi := min(total-1, boundary+jump)
		if c, ok := r.findMarker(ctx, h, lo, hi, r.cfg.MarkerCoarse); ok {
			return r.centerRun(ctx, h, total, c), nil
		}
		ext := min(total-1, frame+jump*2)
		if c, ok := r.findMarker(ctx, h, hi, ext, r.cfg.MarkerCoarse); ok {
			return r.centerRun(ctx, h, total, c), nil
		}
		return 0, perr.BoundaryNotFoundf("cut-out: no transition within %d frames after boundary %d", jump*2, boundary)
	}
	return 0, perr.BoundaryNotFoundf("cut-out: banner text held to the last frame")
}

// backstopIn is the cut-in ladder after the jump walk found nothing: one
// fine sweep back a minute, then the seed itself
func (r *Refiner) backstopIn(ctx context.Context, h probe.Handle, total, seed timeline.Frame) timeline.Frame {
	lo := max(timeline.Frame(0), seed-r.seconds(backstopInHorizon))
	if c, ok := r.findMarker(ctx, h, seed, lo, backstopFineStep); ok {
		return r.centerRun(ctx, h, total, c)
	}
	return seed
}

// backstopOut tries a tight fine sweep, a wide coarse sweep, then end of
// video when the seed sits in the trailing minute, then the seed itself
func (r *Refiner) backstopOut(ctx context.Context, h probe.Handle, total, seed timeline.Frame) timeline.Frame {
	hi := min(total-1, seed+r.seconds(backstopOutTight))
	if c, ok := r.findMarker(ctx, h, seed, hi, backstopFineStep); ok {
		return r.centerRun(ctx, h, total, c)
	}
	hi = min(total-1, seed+r.seconds(backstopOutWide))
	if c, ok := r.findMarker(ctx, h, seed, hi, backstopCoarseStep); ok {
		return r.centerRun(ctx, h, total, c)
	}
	if seed > total-r.seconds(trailingEOVWindow) {
		return total - 1
	}
	return seed
}

// textBoundary bisects [a,b] for the frame where the banner appears
// (findFirst) or disappears, stopping at MinWindow precision
func (r *Refiner) textBoundary(ctx context.Context, h probe.Handle, m *gamepack.Matcher, a, b timeline.Frame, findFirst bool) timeline.Frame {
	left, right := a, b
	if left > right {
		left, right = right, left
	}
	minW := r.cfg.MinWindow
	if minW < 1 {
		minW = 1
	}
	for right-left > minW {
		mid := (left + right) / 2
		detected := r.matchAt(ctx, h, m, mid)
		if findFirst {
			if detected {
				right = mid
			} else {
				left = mid
			}
		} else {
			if detected {
				left = mid
			} else {
				right = mid
			}
		}
	}
	return (left + right) / 2
}

// findMarker sweeps from from to to inclusive (either direction) at step,
// returning the first frame classified low or high
func (r *Refiner) findMarker(ctx context.Context, h probe.Handle, from, to, step timeline.Frame) (timeline.Frame, bool) {
	if step <= 0 {
		step = 1
	}
	if from <= to {
		for f := from; f <= to; f += step {
			if r.markerAt(ctx, h, f) {
				return f, true
			}
		}
		return 0, false
	}
	for f := from; f >= to; f -= step {
		if r.markerAt(ctx, h, f) {
			return f, true
		}
	}
	return 0, false
}

// runEdge bisects [lo,hi] for the first (findStart) or last frame of a
// transition run. When both ends read the same it returns lo when already
// inside a run, or not-found when outside one
func (r *Refiner) runEdge(ctx context.Context, h probe.Handle, lo, hi timeline.Frame, findStart bool) (timeline.Frame, bool) {
	loBW := r.markerAt(ctx, h, lo)
	hiBW := r.markerAt(ctx, h, hi)
	if loBW == hiBW {
		if loBW {
			return lo, true
		}
		return 0, false
	}
	left, right := lo, hi
	for right-left > 1 {
		mid := (left + right) / 2
		if r.markerAt(ctx, h, mid) {
			if findStart {
				right = mid
			} else {
				left = mid
			}
		} else {
			if findStart {
				left = mid
			} else {
				right = mid
			}
		}
	}
	if findStart {
		return right, true
	}
	return left, true
}

// centerRun resolves the midpoint of the transition run containing approx
func (r *Refiner) centerRun(ctx context.Context, h probe.Handle, total, approx timeline.Frame) timeline.Frame {
	start := approx
	if s, ok := r.runEdge(ctx, h, max(timeline.Frame(0), approx-r.cfg.CenterRadius), approx, true); ok {
		start = s
	}
	end := approx
	if e, ok := r.runEdge(ctx, h, approx, min(total-1, approx+r.cfg.CenterRadius), false); ok {
		end = e
	}
	return (start + end) / 2
}

func (r *Refiner) matchAt(ctx context.Context, h probe.Handle, m *gamepack.Matcher, f timeline.Frame) bool {
	text, err := h.Recognize(ctx, f)
	if err != nil || text == "" {
		return false
	}
	return m.Match(normalize.BuildProjections(r.norm.Normalize(text)))
}

func (r *Refiner) markerAt(ctx context.Context, h probe.Handle, f timeline.Frame) bool {
	c, err := h.Classify(ctx, f)
	if err != nil {
		return false
	}
	return c.Low || c.High
}

func (r *Refiner) seconds(s float64) timeline.Frame {
	return timeline.Frame(r.cfg.FPS * s)
}
