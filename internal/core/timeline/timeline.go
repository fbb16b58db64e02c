// Package timeline provides frame index math, refined cut intervals and the
// merge pass that collapses overlapping detections into a final cutlist
package timeline

import (
	"fmt"
	"math"
	"sort"
)

// Frame is a zero-based index into a video's frame sequence
type Frame int64

// Interval is a refined [Start, End] cut for one event key.
// Both endpoints are inclusive frame indexes
type Interval struct {
	Key   string
	Start Frame
	End   Frame
	Label string
}

// Frames returns the inclusive span length
func (iv Interval) Frames() Frame { return iv.End - iv.Start + 1 }

// Seconds converts a frame index to seconds at the given rate
func Seconds(f Frame, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(f) / fps
}

// FromSeconds converts seconds to the nearest frame index at the given rate
func FromSeconds(s, fps float64) Frame {
	if fps <= 0 || s <= 0 {
		return 0
	}
	return Frame(math.Round(s * fps))
}

// Timecode renders a frame index as SMPTE HH:MM:SS:FF using the rounded
// integer frame rate (non-drop). 29.97 renders with a 30-frame second
func Timecode(f Frame, fps float64) string {
	fi := int64(math.Round(fps))
	if fi <= 0 || f < 0 {
		return "00:00:00:00"
	}
	frames := int64(f) % fi
	total := int64(f) / fi
	return fmt.Sprintf("%02d:%02d:%02d:%02d", total/3600, (total/60)%60, total%60, frames)
}

// Merge collapses intervals that overlap or touch (next.Start <= cur.End,
// inclusive) within the same key, then returns the union of all keys sorted
// by start. It never merges across keys. Merge is idempotent and does not
// mutate its input
func Merge(xs []Interval) []Interval {
	if len(xs) == 0 {
		return nil
	}

	byKey := make(map[string][]Interval, 8)
	for _, iv := range xs {
		byKey[iv.Key] = append(byKey[iv.Key], iv)
	}

	out := make([]Interval, 0, len(xs))
	for _, group := range byKey {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Start != group[j].Start {
				return group[i].Start < group[j].Start
			}
			return group[i].End < group[j].End
		})
		cur := group[0]
		for _, iv := range group[1:] {
			if iv.Start <= cur.End {
				if iv.End > cur.End {
					cur.End = iv.End
				}
				continue
			}
			out = append(out, cur)
			cur = iv
		}
		out = append(out, cur)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].Key < out[j].Key
	})
	return out
}
