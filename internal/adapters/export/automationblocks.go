package export

import (
	"sort"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// LabelEntry is one labeled battle on the Automation Blocks sheet
type LabelEntry struct {
	Trainer       string  `json:"trainer"`
	Label         string  `json:"label"`
	StartSeconds  float64 `json:"start_seconds"`
	EndSeconds    float64 `json:"end_seconds"`
	StartTimecode string  `json:"start_timecode"`
	EndTimecode   string  `json:"end_timecode"`
	StartFrame    int64   `json:"start_frame"`
	EndFrame      int64   `json:"end_frame"`
}

// AutomationBlocks is the label sheet a Premiere Pro Automation Blocks
// script consumes to color clips on the timeline
type AutomationBlocks struct {
	FPS          float64      `json:"fps"`
	TotalBattles int          `json:"total_battles"`
	Labels       []LabelEntry `json:"labels"`
}

// Blocks renders intervals as an Automation Blocks sheet. Interval labels
// come through as-is; the pack assigns them when the cutlist is built
func Blocks(ivs []timeline.Interval, fps float64) AutomationBlocks {
	sorted := make([]timeline.Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	labels := make([]LabelEntry, 0, len(sorted))
	for _, iv := range sorted {
		labels = append(labels, LabelEntry{
			Trainer:       titleCase(iv.Key),
			Label:         iv.Label,
			StartSeconds:  round4(timeline.Seconds(iv.Start, fps)),
			EndSeconds:    round4(timeline.Seconds(iv.End, fps)),
			StartTimecode: timeline.Timecode(iv.Start, fps),
			EndTimecode:   timeline.Timecode(iv.End, fps),
			StartFrame:    int64(iv.Start),
			EndFrame:      int64(iv.End),
		})
	}

	return AutomationBlocks{
		FPS:          fps,
		TotalBattles: len(labels),
		Labels:       labels,
	}
}

// WriteBlocks writes the label sheet as indented JSON
func WriteBlocks(path string, ivs []timeline.Interval, fps float64) error {
	return writeJSON(path, Blocks(ivs, fps))
}
