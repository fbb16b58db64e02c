package video

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// ffprobeResult matches the ffprobe JSON output structure
type ffprobeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
	} `json:"streams"`
}

func (s *Source) probeContainer(ctx context.Context) (probe.Info, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		s.path,
	}

	out, _, err := s.run(ctx, s.ffprobePath, args, nil)
	if err != nil {
		return probe.Info{}, fmt.Errorf("video: ffprobe %s: %w", s.path, err)
	}

	var res ffprobeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return probe.Info{}, fmt.Errorf("video: parse ffprobe output: %w", err)
	}

	info := probe.Info{Path: s.path}
	for _, stream := range res.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.FPS = parseFrameRate(stream.RFrameRate)
		if info.FPS == 0 {
			info.FPS = parseFrameRate(stream.AvgFrameRate)
		}
		if n, err := strconv.ParseInt(stream.NbFrames, 10, 64); err == nil && n > 0 {
			info.Frames = timeline.Frame(n)
		}
		break
	}

	if info.FPS <= 0 {
		return probe.Info{}, fmt.Errorf("video: no video stream with a frame rate in %s", s.path)
	}

	// containers without nb_frames (mkv, ts) report duration only
	if info.Frames == 0 {
		dur, err := strconv.ParseFloat(res.Format.Duration, 64)
		if err != nil || dur <= 0 {
			return probe.Info{}, fmt.Errorf("video: cannot derive frame count for %s", s.path)
		}
		info.Frames = timeline.Frame(math.Round(dur * info.FPS))
	}
	return info, nil
}

// parseFrameRate converts an ffprobe rational like "30000/1001" to fps.
// Returns 0 when the field is missing or degenerate
func parseFrameRate(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
