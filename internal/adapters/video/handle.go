package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
)

const yavgKey = "lavfi.signalstats.YAVG"

// handle probes single frames through short-lived ffmpeg/tesseract runs.
// It carries no per-frame state beyond the parent source, but mirrors the
// one-handle-per-worker contract anyway
type handle struct {
	src *Source
}

// Classify implements probe.Classifier: decode one playfield crop and
// read its mean luma from the signalstats filter
func (h *handle) Classify(ctx context.Context, f timeline.Frame) (probe.Classification, error) {
	args := h.classifyArgs(f)
	out, _, err := h.src.run(ctx, h.src.ffmpegPath, args, nil)
	if err != nil {
		if ctx.Err() != nil {
			return probe.Classification{}, ctx.Err()
		}
		return probe.Classification{}, perr.ProbeFailuref("video: classify frame %d: %v", f, err)
	}

	y, ok := parseYAVG(string(out))
	if !ok {
		return probe.Classification{}, perr.ProbeFailuref("video: classify frame %d: no %s in output", f, yavgKey)
	}
	return probe.ClassifyIntensity(y, h.src.opts.LowMax, h.src.opts.HighMin), nil
}

// Recognize implements probe.Recognizer: extract the nameplate crop as a
// PNG and hand it to tesseract on stdin
func (h *handle) Recognize(ctx context.Context, f timeline.Frame) (string, error) {
	args := h.recognizeArgs(f)
	png, _, err := h.src.run(ctx, h.src.ffmpegPath, args, nil)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", perr.ProbeFailuref("video: extract frame %d: %v", f, err)
	}
	if len(png) == 0 {
		return "", perr.ProbeFailuref("video: extract frame %d: empty image", f)
	}

	if dir := h.src.opts.DebugDir; dir != "" {
		name := filepath.Join(dir, fmt.Sprintf("frame_%08d.png", f))
		if werr := os.WriteFile(name, png, 0o644); werr != nil {
			return "", fmt.Errorf("video: write debug crop: %w", werr)
		}
	}

	tessArgs := []string{"stdin", "stdout", "--psm", strconv.Itoa(h.src.opts.PSM)}
	if h.src.opts.Lang != "" {
		tessArgs = append(tessArgs, "-l", h.src.opts.Lang)
	}
	text, _, err := h.src.run(ctx, h.src.tesseractPath, tessArgs, png)
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			return "", perr.ProbeFailuref("video: recognize frame %d: %v", f, err)
		case ctx.Err() != nil:
			return "", ctx.Err()
		default:
			// the process never started; the recognizer is gone
			return "", perr.RecognizerUnavailablef("video: tesseract: %v", err)
		}
	}
	return strings.TrimSpace(string(text)), nil
}

// Close implements probe.Handle. Probes are process-per-call, so there is
// nothing to release
func (h *handle) Close() error { return nil }

func (h *handle) classifyArgs(f timeline.Frame) []string {
	filters := []string{cropFilter(h.src.game.Playfield)}
	if q := h.src.opts.Downscale; q < 1 {
		s := strconv.FormatFloat(q, 'f', -1, 64)
		filters = append(filters, "scale=iw*"+s+":ih*"+s)
	}
	filters = append(filters, "signalstats", "metadata=print:key="+yavgKey+":file=-")

	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", seekSeconds(f, h.src.info.FPS),
		"-i", h.src.path,
		"-frames:v", "1",
		"-vf", strings.Join(filters, ","),
		"-f", "null", "-",
	}
}

func (h *handle) recognizeArgs(f timeline.Frame) []string {
	filters := []string{cropFilter(h.src.game.Nameplate)}
	if t := h.src.opts.BinarizeThreshold; t > 0 {
		filters = append(filters,
			"format=gray",
			fmt.Sprintf("lut=y='if(lt(val,%d),0,255)'", t),
		)
	}

	return []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", seekSeconds(f, h.src.info.FPS),
		"-i", h.src.path,
		"-frames:v", "1",
		"-vf", strings.Join(filters, ","),
		"-f", "image2pipe", "-vcodec", "png", "pipe:1",
	}
}

func cropFilter(r gamepack.Region) string {
	return fmt.Sprintf("crop=%d:%d:%d:%d", r.W, r.H, r.X, r.Y)
}

// seekSeconds places the demuxer half a frame before f so the first
// decoded frame is exactly f on constant-rate video, immune to float
// noise in the timestamp
func seekSeconds(f timeline.Frame, fps float64) string {
	t := (float64(f) - 0.5) / fps
	if t < 0 {
		t = 0
	}
	return strconv.FormatFloat(t, 'f', 6, 64)
}

// parseYAVG extracts the signalstats mean luma from metadata filter output
func parseYAVG(out string) (float64, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		val, ok := strings.CutPrefix(line, yavgKey+"=")
		if !ok {
			continue
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return y, true
	}
	return 0, false
}
