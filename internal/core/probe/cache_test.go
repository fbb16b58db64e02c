// internal/core/probe/cache_test.go
package probe

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// countingRecognizer returns a fixed string per frame and counts calls
type countingRecognizer struct {
	calls atomic.Int64
	gate  chan struct{} // optional: holds Recognize open to force a race
}

func (r *countingRecognizer) Recognize(_ context.Context, f timeline.Frame) (string, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	return "text-" + timeline.Timecode(f, 30), nil
}

func TestCachedRecognizer_HitSkipsBackend(t *testing.T) {
	rec := &countingRecognizer{}
	cr := CachedRecognizer{R: rec, C: NewTextCache()}

	a, err := cr.Recognize(context.Background(), 90)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	b, err := cr.Recognize(context.Background(), 90)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if a != b {
		t.Fatalf("values differ: %q vs %q", a, b)
	}
	if got := rec.calls.Load(); got != 1 {
		t.Fatalf("backend calls = %d, want 1", got)
	}
}

func TestCachedRecognizer_ConcurrentMissKeepsOneEntry(t *testing.T) {
	rec := &countingRecognizer{gate: make(chan struct{})}
	cache := NewTextCache()
	cr := CachedRecognizer{R: rec, C: cache}

	const frame = timeline.Frame(1200)
	var wg sync.WaitGroup
	got := make([]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := cr.Recognize(context.Background(), frame)
			if err != nil {
				t.Errorf("recognize: %v", err)
				return
			}
			got[i] = s
		}(i)
	}
	// both goroutines are inside the backend now (or will be); release them
	close(rec.gate)
	wg.Wait()

	if got[0] != got[1] {
		t.Fatalf("racing callers observed different values: %q vs %q", got[0], got[1])
	}
	if n := cache.Len(); n != 1 {
		t.Fatalf("cache entries = %d, want exactly 1", n)
	}
	// double-compute is allowed, double-entry is not
	if calls := rec.calls.Load(); calls < 1 || calls > 2 {
		t.Fatalf("backend calls = %d, want 1 or 2", calls)
	}
}

type failingRecognizer struct{ calls int }

func (r *failingRecognizer) Recognize(context.Context, timeline.Frame) (string, error) {
	r.calls++
	return "", context.DeadlineExceeded
}

func TestCachedRecognizer_ErrorsAreNotCached(t *testing.T) {
	rec := &failingRecognizer{}
	cr := CachedRecognizer{R: rec, C: NewTextCache()}

	if _, err := cr.Recognize(context.Background(), 5); err == nil {
		t.Fatalf("want error")
	}
	if _, err := cr.Recognize(context.Background(), 5); err == nil {
		t.Fatalf("want error on retry too")
	}
	if rec.calls != 2 {
		t.Fatalf("backend calls = %d, want 2 (errors must not cache)", rec.calls)
	}
	if cr.C.Len() != 0 {
		t.Fatalf("error landed in cache")
	}
}

type stubHandle struct {
	countingRecognizer
	classifies int
}

func (h *stubHandle) Classify(context.Context, timeline.Frame) (Classification, error) {
	h.classifies++
	return Classification{Intensity: 128}, nil
}

func (h *stubHandle) Close() error { return nil }

func TestWithCache_SharesRecognitionAcrossHandles(t *testing.T) {
	cache := NewTextCache()
	a := &stubHandle{}
	b := &stubHandle{}
	ha := WithCache(a, cache)
	hb := WithCache(b, cache)

	if _, err := ha.Recognize(context.Background(), 42); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if _, err := hb.Recognize(context.Background(), 42); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if n := a.calls.Load() + b.calls.Load(); n != 1 {
		t.Fatalf("backend recognitions = %d, want 1 for the shared frame", n)
	}

	if _, err := ha.Classify(context.Background(), 42); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if _, err := ha.Classify(context.Background(), 42); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if a.classifies != 2 {
		t.Fatalf("classifies = %d, want 2, classification must not cache", a.classifies)
	}
}

func TestClassifyIntensity(t *testing.T) {
	cases := []struct {
		y    float64
		low  bool
		high bool
	}{
		{0, true, false},
		{5, true, false},
		{5.1, false, false},
		{128, false, false},
		{249.9, false, false},
		{250, false, true},
		{255, false, true},
	}
	for _, c := range cases {
		got := ClassifyIntensity(c.y, DefaultLowMax, DefaultHighMin)
		if got.Low != c.low || got.High != c.high {
			t.Fatalf("ClassifyIntensity(%v) = %+v, want low=%v high=%v", c.y, got, c.low, c.high)
		}
		if got.Intensity != c.y {
			t.Fatalf("intensity not carried: %+v", got)
		}
	}
}
