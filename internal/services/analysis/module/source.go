package module

import (
	"context"

	"github.com/Scotts-Thoughts/fury-cutter/internal/adapters/video"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	"github.com/Scotts-Thoughts/fury-cutter/internal/services/analysis/domain"
)

// ffmpegSource opens captures through the ffmpeg probing adapter,
// folding the module's recognizer tuning into every open
type ffmpegSource struct {
	psm      int
	lang     string
	binarize int
}

var _ domain.SourcePort = ffmpegSource{}

func (f ffmpegSource) Open(ctx context.Context, spec domain.OpenSpec) (probe.Source, error) {
	return video.NewSource(ctx, spec.Path, spec.Game, video.Options{
		Downscale:         spec.Downscale,
		PSM:               f.psm,
		Lang:              f.lang,
		BinarizeThreshold: f.binarize,
		DebugDir:          spec.DebugDir,
	})
}
