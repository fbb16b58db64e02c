// Package video implements the probe contracts over a video file by
// shelling out to ffprobe, ffmpeg and tesseract. No decoder is linked in;
// every probe is one short-lived process
package video

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
	"github.com/Scotts-Thoughts/fury-cutter/internal/platform/logger"
)

// Options tune frame probing without touching the walk geometry
type Options struct {
	// Downscale shrinks the playfield crop before averaging its luma.
	// 1 disables, values outside (0,1] fall back to the default 0.25
	Downscale float64

	// PSM is the tesseract page segmentation mode. The nameplate is a
	// single text line, so 7 is the default
	PSM int

	// Lang selects a tesseract language pack when non-empty
	Lang string

	// BinarizeThreshold, when > 0, turns the nameplate crop into
	// black-on-white before recognition: luma below the threshold maps
	// to ink, everything else to paper
	BinarizeThreshold int

	// LowMax and HighMin override the intensity thresholds when > 0
	LowMax  float64
	HighMin float64

	// DebugDir receives every nameplate crop as a PNG when set
	DebugDir string
}

func (o Options) withDefaults() Options {
	if o.Downscale <= 0 || o.Downscale > 1 {
		o.Downscale = 0.25
	}
	if o.PSM == 0 {
		o.PSM = 7
	}
	if o.LowMax <= 0 {
		o.LowMax = probe.DefaultLowMax
	}
	if o.HighMin <= 0 {
		o.HighMin = probe.DefaultHighMin
	}
	return o
}

// runner executes one external command and returns its output streams.
// It exists so handle logic is testable without the binaries installed
type runner func(ctx context.Context, name string, args []string, stdin []byte) (stdout, stderr []byte, err error)

func execRun(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// Source opens probe handles over one video file.
// A Source is safe to share; each worker opens its own Handle
type Source struct {
	path string
	info probe.Info
	game *gamepack.Game
	opts Options

	ffmpegPath    string
	ffprobePath   string
	tesseractPath string // empty when the binary is missing

	run runner
}

// NewSource resolves the external tools and probes the container for
// fps and frame count. ffprobe and ffmpeg are required. A missing
// tesseract binary is tolerated here so the container info is still
// readable; Open then fails with RecognizerUnavailable
func NewSource(ctx context.Context, path string, game *gamepack.Game, opts Options) (*Source, error) {
	if game == nil {
		return nil, fmt.Errorf("video: nil game")
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("video: ffprobe not found in PATH: %w", err)
	}
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("video: ffmpeg not found in PATH: %w", err)
	}

	tesseractPath, err := exec.LookPath("tesseract")
	if err != nil {
		tesseractPath = ""
		logger.C(ctx).Warn().Str("path", path).
			Msg("tesseract not found in PATH; text recognition unavailable")
	}

	s := &Source{
		path:          path,
		game:          game,
		opts:          opts.withDefaults(),
		ffmpegPath:    ffmpegPath,
		ffprobePath:   ffprobePath,
		tesseractPath: tesseractPath,
		run:           execRun,
	}

	info, err := s.probeContainer(ctx)
	if err != nil {
		return nil, err
	}
	s.info = info

	if s.opts.DebugDir != "" {
		if err := os.MkdirAll(s.opts.DebugDir, 0o755); err != nil {
			return nil, fmt.Errorf("video: create debug dir: %w", err)
		}
	}
	return s, nil
}

// Info implements probe.Source
func (s *Source) Info() probe.Info { return s.info }

// Open implements probe.Source
func (s *Source) Open(ctx context.Context) (probe.Handle, error) {
	if s.tesseractPath == "" {
		return nil, perr.RecognizerUnavailablef("video: tesseract not found in PATH")
	}
	return &handle{src: s}, nil
}
