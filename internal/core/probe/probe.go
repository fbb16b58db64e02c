// Package probe defines the frame probing contracts the engine searches
// through: intensity classification, text recognition and the shared
// recognition cache
package probe

import (
	"context"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// Default intensity thresholds on the 0..255 luminance scale
const (
	DefaultLowMax  = 5.0
	DefaultHighMin = 250.0
)

// Classification is the result of probing a frame's intensity.
// Low marks transition frames (fade to black), High marks flash frames
type Classification struct {
	Low       bool
	High      bool
	Intensity float64 // mean luminance 0..255
}

// ClassifyIntensity applies thresholds to a mean luminance reading
func ClassifyIntensity(y, lowMax, highMin float64) Classification {
	return Classification{
		Low:       y <= lowMax,
		High:      y >= highMin,
		Intensity: y,
	}
}

// Info describes an opened video source
type Info struct {
	Path   string
	FPS    float64
	Frames timeline.Frame
}

// Classifier reports a frame's intensity classification.
// Results are cheap and time-sensitive during boundary searches and are
// never cached
type Classifier interface {
	Classify(ctx context.Context, f timeline.Frame) (Classification, error)
}

// Recognizer extracts on-screen text from a frame.
// Implementations are deterministic per frame so memoized double-compute
// is harmless
type Recognizer interface {
	Recognize(ctx context.Context, f timeline.Frame) (string, error)
}

// Handle is a per-task view over one video. Handles are not safe for
// concurrent use; each worker opens its own
type Handle interface {
	Classifier
	Recognizer
	Close() error
}

// Source opens independent probe handles over the same video
type Source interface {
	Info() Info
	Open(ctx context.Context) (Handle, error)
}
