package probe

import (
	"context"
	"sync"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
)

// TextCache memoizes recognized text per frame across all workers of a run.
// Recognition is deterministic, so two goroutines racing the same miss may
// both compute; the second Put stores an identical value and the map keeps
// exactly one entry. Classification results never go through here
type TextCache struct {
	mu sync.Mutex
	m  map[timeline.Frame]string
}

// NewTextCache returns an empty cache
func NewTextCache() *TextCache {
	return &TextCache{m: make(map[timeline.Frame]string, 256)}
}

// Get returns the cached text for f, if present
func (c *TextCache) Get(f timeline.Frame) (string, bool) {
	c.mu.Lock()
	s, ok := c.m[f]
	c.mu.Unlock()
	return s, ok
}

// Put stores text for f
func (c *TextCache) Put(f timeline.Frame, s string) {
	c.mu.Lock()
	c.m[f] = s
	c.mu.Unlock()
}

// Len returns the number of cached frames
func (c *TextCache) Len() int {
	c.mu.Lock()
	n := len(c.m)
	c.mu.Unlock()
	return n
}

// CachedRecognizer wraps a Recognizer with a shared TextCache.
// Errors pass through uncached so a transient probe failure can be retried
// by a later visit to the same frame
type CachedRecognizer struct {
	R Recognizer
	C *TextCache
}

// Recognize implements Recognizer
func (cr CachedRecognizer) Recognize(ctx context.Context, f timeline.Frame) (string, error) {
	if s, ok := cr.C.Get(f); ok {
		return s, nil
	}
	s, err := cr.R.Recognize(ctx, f)
	if err != nil {
		return "", err
	}
	cr.C.Put(f, s)
	return s, nil
}

// WithCache returns h with its Recognize path memoized through c.
// Classification stays uncached
func WithCache(h Handle, c *TextCache) Handle {
	return cachedHandle{Handle: h, rec: CachedRecognizer{R: h, C: c}}
}

type cachedHandle struct {
	Handle
	rec CachedRecognizer
}

func (ch cachedHandle) Recognize(ctx context.Context, f timeline.Frame) (string, error) {
	return ch.rec.Recognize(ctx, f)
}
