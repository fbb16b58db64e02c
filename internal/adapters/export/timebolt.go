package export

import (
	"sort"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// Segment is one Timebolt timeline segment. Battle segments carry a
// label and a display name; the gaps between them carry neither
type Segment struct {
	Start           float64 `json:"start"`
	Duration        float64 `json:"duration"`
	Type            string  `json:"type"`
	Punched         int     `json:"punched"`
	PunchedPosition string  `json:"punchedPosition"`
	Operation       string  `json:"operation"`
	Label           string  `json:"label,omitempty"`
	Name            string  `json:"name,omitempty"`
}

// battleLabel is the Timebolt color every battle segment gets; per-key
// colors only exist on the Automation Blocks side
const battleLabel = "Green"

func segment(start, duration float64) Segment {
	return Segment{
		Start:           start,
		Duration:        duration,
		Type:            "original",
		Punched:         1,
		PunchedPosition: "center",
		Operation:       "keep",
	}
}

// Timebolt renders intervals as a segment list covering the whole video:
// every battle becomes a named keep segment and the footage between
// battles stays as unnamed keep segments, so nothing is cut by import
func Timebolt(ivs []timeline.Interval, total timeline.Frame, fps float64) []Segment {
	sorted := make([]timeline.Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	duration := timeline.Seconds(total, fps)
	segments := make([]Segment, 0, 2*len(sorted)+1)
	current := 0.0

	for _, iv := range sorted {
		in := timeline.Seconds(iv.Start, fps)
		out := timeline.Seconds(iv.End, fps)

		if in > current {
			segments = append(segments, segment(current, in-current))
		}

		battle := segment(in, out-in)
		battle.Label = battleLabel
		battle.Name = titleCase(iv.Key) + " Battle"
		segments = append(segments, battle)

		current = out
	}

	if current < duration {
		segments = append(segments, segment(current, duration-current))
	}
	return segments
}

// WriteTimebolt writes the segment list as indented JSON
func WriteTimebolt(path string, ivs []timeline.Interval, total timeline.Frame, fps float64) error {
	return writeJSON(path, Timebolt(ivs, total, fps))
}
