// Package service implements the analysis service
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Scotts-Thoughts/fury-cutter/internal/adapters/export"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/refine"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/scan"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/logger"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/analysis/domain"
	cutdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/cutlists/domain"
	diagdom "github.com/Scotts-Thoughts/fury-cutter/internal/services/diagnostics/domain"
)

// Config for the analysis service
type Config struct {
	Workers    int
	DenseStep  timeline.Frame
	SparseStep timeline.Frame
	DenseUntil timeline.Frame
	JumpBack   timeline.Frame
	Downscale  float64
}

// Service implements domain.RunnerPort
type Service struct {
	Source domain.SourcePort
	Writer cutdom.WriterPort
	Rec    diagdom.RecorderPort
	Pack   *gamepack.Pack
	Cfg    Config
}

var _ domain.RunnerPort = (*Service)(nil)

// New constructs a new analysis service
func New(src domain.SourcePort, writer cutdom.WriterPort, rec diagdom.RecorderPort, pack *gamepack.Pack, cfg Config) *Service {
	if src == nil {
		panic("analysis.Service requires a non nil SourcePort")
	}
	if writer == nil {
		panic("analysis.Service requires a non nil cutlists writer")
	}
	if rec == nil {
		panic("analysis.Service requires a non nil diagnostics recorder")
	}
	if pack == nil {
		panic("analysis.Service requires a non nil game pack")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() - 1
		if cfg.Workers < 1 {
			cfg.Workers = 1
		}
	}
	return &Service{Source: src, Writer: writer, Rec: rec, Pack: pack, Cfg: cfg}
}

// runEnv carries the resolved inputs of one run
type runEnv struct {
	id      string
	game    *gamepack.Game
	src     probe.Source
	fps     float64
	total   timeline.Frame
	workers int
	started time.Time
	req     domain.AnalyzeRequest
}

// refineTask is the slot one dispatched refinement owns. The dispatcher
// appends slots under a lock; each goroutine writes only its own
type refineTask struct {
	det scan.Detection
	res refine.Result
	err error
}

// Analyze runs detection and refinement over one capture, persists the
// run and its cutlist, and writes any requested editor exports
func (s *Service) Analyze(ctx context.Context, req domain.AnalyzeRequest) (domain.RunSummary, error) {
	started := time.Now()

	if req.VideoPath == "" {
		return domain.RunSummary{}, perr.InvalidArgf("analysis: video path required")
	}
	game, ok := s.Pack.Game(req.GameID)
	if !ok {
		return domain.RunSummary{}, perr.InvalidArgf("analysis: unknown game %q", req.GameID)
	}
	game, err := game.Restrict(req.Keys)
	if err != nil {
		return domain.RunSummary{}, perr.InvalidArgf("analysis: %v", err)
	}

	src, err := s.Source.Open(ctx, domain.OpenSpec{
		Path:      req.VideoPath,
		Game:      game,
		Downscale: s.downscale(req),
		DebugDir:  req.DebugDir,
	})
	if err != nil {
		return domain.RunSummary{}, err
	}

	info := src.Info()
	fps := info.FPS
	if req.FPS > 0 {
		fps = req.FPS
	}
	if fps <= 0 {
		return domain.RunSummary{}, perr.InvalidArgf("analysis: %s: frame rate unknown; pass one explicitly", req.VideoPath)
	}
	if info.Frames <= 0 {
		return domain.RunSummary{}, perr.InvalidArgf("analysis: %s: no frames to probe", req.VideoPath)
	}

	workers := req.Workers
	if workers <= 0 {
		workers = s.Cfg.Workers
	}

	env := runEnv{
		id:      uuid.NewString(),
		game:    game,
		src:     src,
		fps:     fps,
		total:   info.Frames,
		workers: workers,
		started: started,
		req:     req,
	}

	if err := s.Writer.BeginRun(ctx, cutdom.BeginRun{
		ID:        env.id,
		VideoPath: req.VideoPath,
		GameID:    game.ID,
		FPS:       fps,
		Frames:    info.Frames,
		Workers:   workers,
		StartedAt: started.UTC(),
	}); err != nil {
		return domain.RunSummary{}, err
	}

	sum, err := s.execute(ctx, env)
	if err != nil {
		return domain.RunSummary{}, err
	}
	return sum, nil
}

// execute does the work for an already registered run. The run row is
// finalized on every path, failure included
func (s *Service) execute(ctx context.Context, env runEnv) (sum domain.RunSummary, retErr error) {
	l := logger.C(ctx).With().
		Str("mod", "analysis").
		Str("run_id", env.id).
		Str("game", env.game.ID).
		Logger()
	l.Info().
		Str("video", env.req.VideoPath).
		Float64("fps", env.fps).
		Int64("frames", int64(env.total)).
		Int("workers", env.workers).
		Msg("analysis: run start")

	sum = domain.RunSummary{
		RunID:     env.id,
		GameID:    env.game.ID,
		VideoPath: env.req.VideoPath,
		FPS:       env.fps,
		Frames:    env.total,
	}

	// Always finalize the run row. The write uses a detached context so
	// cancellation of the run still records the outcome
	defer func() {
		fin := cutdom.FinishRun{
			ID:         env.id,
			Status:     map[bool]string{true: cutdom.RunStatusFailed, false: cutdom.RunStatusDone}[retErr != nil],
			Detections: sum.Detections,
			Intervals:  len(sum.Intervals),
			Dropped:    sum.Dropped,
			Degraded:   sum.Degraded,
			FinishedAt: time.Now().UTC(),
		}
		if retErr != nil {
			fin.Error = retErr.Error()
			l.Error().Err(retErr).Msg("analysis: run failed")
		}
		if err := s.Writer.FinishRun(context.WithoutCancel(ctx), fin); err != nil {
			l.Error().Err(err).Msg("analysis: finish run row failed")
			if retErr == nil {
				retErr = err
			}
		}
	}()

	h, err := env.src.Open(ctx)
	if err != nil {
		// A missing recognizer degrades to an empty successful run, the
		// same outcome as a recognizer dying mid walk
		if perr.IsCode(err, perr.ErrorCodeRecognizerUnavailable) {
			l.Warn().Err(err).Msg("analysis: recognizer unavailable; run degraded")
			sum.Degraded = true
			s.Rec.RecordProbeStats(ctx, diagdom.ProbeStats{RunID: env.id, Degraded: true, At: time.Now()})
			sum.Elapsed = time.Since(env.started)
			return sum, nil
		}
		return sum, err
	}
	defer func() {
		if err := h.Close(); err != nil {
			l.Warn().Err(err).Msg("analysis: close probe handle failed")
		}
	}()

	cache := probe.NewTextCache()
	ref := refine.New(env.game, s.refineConfig(env.fps, env.req))
	sc := scan.NewWithOptions(env.game, s.walkOptions(env.req))

	var (
		mu    sync.Mutex
		tasks []*refineTask
	)
	sem := make(chan struct{}, env.workers)
	wg := sync.WaitGroup{}

	// Refinement starts as soon as the walk accepts a sighting. emit never
	// blocks: the goroutine queues on the semaphore, not the walk, so a
	// full worker pool delays refinement without pacing the scan
	emit := func(d scan.Detection) {
		t := &refineTask{det: d}
		mu.Lock()
		tasks = append(tasks, t)
		mu.Unlock()

		wg.Add(1)
		go func() {
			sem <- struct{}{}
			defer func() {
				if p := recover(); p != nil {
					t.err = perr.TaskFailuref("analysis: refine %s@%d: %v", t.det.Key, t.det.Frame, p)
				}
				<-sem
				wg.Done()
			}()
			th, err := env.src.Open(ctx)
			if err != nil {
				t.err = err
				return
			}
			defer func() { _ = th.Close() }()
			t.res, t.err = ref.Refine(ctx, probe.WithCache(th, cache), env.total, t.det.Key, t.det.Frame)
		}()
	}

	dets, stats, scanErr := sc.Scan(ctx, probe.WithCache(h, cache), env.total, emit)
	wg.Wait()
	if scanErr != nil {
		return sum, scanErr
	}
	sum.Detections = len(dets)
	sum.Degraded = stats.Degraded

	var (
		ivs                        []timeline.Interval
		kept                       []*refineTask
		inFalls, outFalls, rescues int
	)
	drops := make([]diagdom.Drop, 0, 4)
	for _, t := range tasks {
		switch {
		case t.err == nil:
			kept = append(kept, t)
			if t.res.InFallback {
				inFalls++
			}
			if t.res.OutFallback {
				outFalls++
			}
			if t.res.Rescued {
				rescues++
			}
			ivs = append(ivs, timeline.Interval{
				Key:   t.res.Key,
				Start: t.res.CutIn,
				End:   t.res.CutOut,
				Label: s.Pack.Label(t.res.Key),
			})
		case perr.IsCode(t.err, perr.ErrorCodeInvalidInterval):
			drops = append(drops, taskDrop(env.id, t, "invalid_interval"))
		default:
			l.Warn().Err(t.err).
				Str("event_key", t.det.Key).
				Int64("seed", int64(t.det.Frame)).
				Msg("analysis: refinement failed")
			drops = append(drops, taskDrop(env.id, t, "task_failure"))
		}
	}
	sum.Dropped = len(drops)
	sum.Intervals = timeline.Merge(ivs)

	if len(sum.Intervals) > 0 {
		if _, err := s.Writer.WriteIntervals(ctx, intervalWrites(env.id, sum.Intervals, kept)); err != nil {
			return sum, err
		}
	}

	if env.req.TimeboltPath != "" {
		if err := export.WriteTimebolt(env.req.TimeboltPath, sum.Intervals, env.total, env.fps); err != nil {
			return sum, err
		}
	}
	if env.req.BlocksPath != "" {
		if err := export.WriteBlocks(env.req.BlocksPath, sum.Intervals, env.fps); err != nil {
			return sum, err
		}
	}

	s.Rec.RecordDrops(ctx, drops)
	s.Rec.RecordProbeStats(ctx, diagdom.ProbeStats{
		RunID:         env.id,
		Probed:        stats.Probed,
		Recognized:    stats.Recognized,
		Accepted:      stats.Accepted,
		Suppressed:    stats.Suppressed,
		ProbeFailures: stats.ProbeFailures,
		CachedFrames:  cache.Len(),
		InFallbacks:   inFalls,
		OutFallbacks:  outFalls,
		Rescues:       rescues,
		Dropped:       len(drops),
		Degraded:      stats.Degraded,
		At:            time.Now(),
	})

	sum.Elapsed = time.Since(env.started)
	l.Info().
		Int("detections", sum.Detections).
		Int("intervals", len(sum.Intervals)).
		Int("dropped", sum.Dropped).
		Dur("elapsed", sum.Elapsed).
		Msg("analysis: run done")
	return sum, nil
}

func (s *Service) downscale(req domain.AnalyzeRequest) float64 {
	if req.Downscale > 0 {
		return req.Downscale
	}
	return s.Cfg.Downscale
}

func (s *Service) walkOptions(req domain.AnalyzeRequest) scan.Options {
	o := scan.Options{
		DenseStep:  s.Cfg.DenseStep,
		SparseStep: s.Cfg.SparseStep,
		DenseUntil: s.Cfg.DenseUntil,
	}
	if req.DenseStep > 0 {
		o.DenseStep = req.DenseStep
	}
	if req.SparseStep > 0 {
		o.SparseStep = req.SparseStep
	}
	if req.DenseUntil > 0 {
		o.DenseUntil = req.DenseUntil
	}
	return o
}

func (s *Service) refineConfig(fps float64, req domain.AnalyzeRequest) refine.Config {
	cfg := refine.ConfigForFPS(fps)
	switch {
	case req.JumpBack > 0:
		cfg.Jump = req.JumpBack
	case s.Cfg.JumpBack > 0:
		cfg.Jump = s.Cfg.JumpBack
	}
	return cfg
}

func taskDrop(runID string, t *refineTask, reason string) diagdom.Drop {
	return diagdom.Drop{
		RunID:  runID,
		Key:    t.det.Key,
		Seed:   t.det.Frame,
		Reason: reason,
		At:     time.Now(),
	}
}

// intervalWrites maps merged intervals back onto the refinements that
// produced their edges so seed and transition kinds persist
func intervalWrites(runID string, merged []timeline.Interval, kept []*refineTask) []cutdom.IntervalWrite {
	writes := make([]cutdom.IntervalWrite, 0, len(merged))
	for _, iv := range merged {
		w := cutdom.IntervalWrite{
			RunID: runID,
			Key:   iv.Key,
			Label: iv.Label,
			Start: iv.Start,
			End:   iv.End,
		}
		for _, t := range kept {
			if t.res.Key != iv.Key {
				continue
			}
			// kept is in detection order; the earliest refinement on a
			// shared edge owns it
			if t.res.CutIn == iv.Start && w.InKind == "" {
				w.Seed = t.res.Seed
				w.InKind = string(t.res.InKind)
			}
			if t.res.CutOut == iv.End && w.OutKind == "" {
				w.OutKind = string(t.res.OutKind)
			}
		}
		writes = append(writes, w)
	}
	return writes
}
