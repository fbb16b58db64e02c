// internal/core/refine/refine_test.go
package refine

import (
	"context"
	"testing"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/timeline"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
)

type span struct{ lo, hi timeline.Frame }

func (s span) has(f timeline.Frame) bool { return f >= s.lo && f <= s.hi }

// fakeHandle plays a video back as text-presence and low-luma spans
type fakeHandle struct {
	banner string
	text   []span
	lows   []span
}

func (h *fakeHandle) Classify(_ context.Context, f timeline.Frame) (probe.Classification, error) {
	for _, s := range h.lows {
		if s.has(f) {
			return probe.Classification{Low: true, Intensity: 2}, nil
		}
	}
	return probe.Classification{Intensity: 128}, nil
}

func (h *fakeHandle) Recognize(_ context.Context, f timeline.Frame) (string, error) {
	for _, s := range h.text {
		if s.has(f) {
			return h.banner, nil
		}
	}
	return "", nil
}

func (h *fakeHandle) Close() error { return nil }

// testConfig keeps the searches small enough to trace by hand
func testConfig() Config {
	return Config{
		FPS:          20,
		Jump:         50,
		MinWindow:    10,
		MarkerCoarse: 10,
		MarkerFine:   1,
		CenterRadius: 40,
	}
}

func testRefiner(t *testing.T) *Refiner {
	t.Helper()
	p, err := gamepack.Load()
	if err != nil {
		t.Fatalf("gamepack.Load(): %v", err)
	}
	g, ok := p.Game("heartgold")
	if !ok {
		t.Fatalf("heartgold missing")
	}
	return New(g, testConfig())
}

func TestRefine_BisectionLandsOnRunCenter(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{
		banner: "leader falkner",
		text:   []span{{150, 450}},
		lows:   []span{{100, 140}, {480, 520}},
	}

	res, err := r.Refine(context.Background(), h, 1000, "falkner", 300)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if res.CutIn != 120 {
		t.Fatalf("cut-in = %d, want 120 (center of the 100..140 run)", res.CutIn)
	}
	if res.CutOut != 500 {
		t.Fatalf("cut-out = %d, want 500 (center of the 480..520 run)", res.CutOut)
	}
	if res.InKind != KindBlack || res.OutKind != KindBlack {
		t.Fatalf("kinds = %s/%s, want black/black", res.InKind, res.OutKind)
	}
	if res.Seed != 300 || res.Key != "falkner" {
		t.Fatalf("result identity = %+v", res)
	}
	if res.InFallback || res.OutFallback || res.Rescued {
		t.Fatalf("clean bisection flagged as fallback: %+v", res)
	}
}

func TestRefine_CutInBackstopsToSeed(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{
		banner: "leader falkner",
		text:   []span{{150, 450}},
		lows:   []span{{480, 520}}, // nothing before the battle
	}

	res, err := r.Refine(context.Background(), h, 3000, "falkner", 300)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if res.CutIn != 300 {
		t.Fatalf("cut-in = %d, want the seed when no opening run exists", res.CutIn)
	}
	if res.CutOut != 500 {
		t.Fatalf("cut-out = %d, want 500", res.CutOut)
	}
	if res.InKind != KindUnknown {
		t.Fatalf("in kind = %s, want unknown at the seed frame", res.InKind)
	}
	if !res.InFallback || res.OutFallback {
		t.Fatalf("fallback flags = in:%v out:%v, want in only", res.InFallback, res.OutFallback)
	}
}

func TestRefine_CutOutFallsBackToEndOfVideo(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{
		banner: "leader falkner",
		text:   []span{{900, 999}}, // battle runs out the capture
	}

	res, err := r.Refine(context.Background(), h, 1000, "falkner", 950)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if res.CutIn != 950 {
		t.Fatalf("cut-in = %d, want seed", res.CutIn)
	}
	if res.CutOut != 999 {
		t.Fatalf("cut-out = %d, want last frame", res.CutOut)
	}
	if res.OutKind != KindUnknown {
		t.Fatalf("out kind = %s, want unknown", res.OutKind)
	}
	if !res.OutFallback {
		t.Fatalf("end-of-video cut-out not flagged as fallback")
	}
}

func TestRefine_TightRescueRecoversCollapsedPair(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{
		banner: "leader falkner",
		text:   []span{{150, 450}},
		// first run sits beyond every direct horizon but inside the
		// three-minute rescue sweep
		lows: []span{{2800, 2840}},
	}

	res, err := r.Refine(context.Background(), h, 8000, "falkner", 300)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if res.CutIn != 300 {
		t.Fatalf("cut-in = %d, want seed", res.CutIn)
	}
	if res.CutOut != 2820 {
		t.Fatalf("cut-out = %d, want 2820 from the tight rescue sweep", res.CutOut)
	}
	if !res.Rescued {
		t.Fatalf("rescued pair not flagged")
	}
}

func TestRefine_WideRescueRecoversCollapsedPair(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{
		banner: "leader falkner",
		text:   []span{{150, 450}},
		// beyond the tight rescue horizon, inside the five-minute one
		lows: []span{{4000, 4040}},
	}

	res, err := r.Refine(context.Background(), h, 8000, "falkner", 300)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if res.CutOut != 4020 {
		t.Fatalf("cut-out = %d, want 4020 from the wide rescue sweep", res.CutOut)
	}
}

func TestRefine_DropsWhenNoClosingTransition(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{
		banner: "leader falkner",
		text:   []span{{150, 450}},
		// no transition runs anywhere
	}

	_, err := r.Refine(context.Background(), h, 8000, "falkner", 300)
	if err == nil {
		t.Fatalf("expected a drop")
	}
	if !perr.IsCode(err, perr.ErrorCodeInvalidInterval) {
		t.Fatalf("err = %v, want InvalidInterval", err)
	}
}

func TestRefine_RejectsBadSeedAndKey(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{}

	if _, err := r.Refine(context.Background(), h, 100, "falkner", 100); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("seed beyond total: err = %v, want InvalidArgument", err)
	}
	if _, err := r.Refine(context.Background(), h, 100, "no such key", 10); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown key: err = %v, want InvalidArgument", err)
	}
}

func TestFindMarker_InclusiveBothDirections(t *testing.T) {
	r := testRefiner(t)
	h := &fakeHandle{lows: []span{{96, 98}}}
	ctx := context.Background()

	f, ok := r.findMarker(ctx, h, 146, 96, 10)
	if !ok || f != 96 {
		t.Fatalf("descending sweep = (%d,%v), want 96 found at the inclusive end", f, ok)
	}
	f, ok = r.findMarker(ctx, h, 90, 98, 4)
	if !ok || f != 98 {
		t.Fatalf("ascending sweep = (%d,%v), want 98", f, ok)
	}
	if _, ok := r.findMarker(ctx, h, 0, 90, 10); ok {
		t.Fatalf("sweep without a run should miss")
	}
}

func TestKindOf(t *testing.T) {
	if k := kindOf(probe.Classification{Low: true, Intensity: 1}); k != KindBlack {
		t.Fatalf("low → %s, want black", k)
	}
	if k := kindOf(probe.Classification{High: true, Intensity: 255}); k != KindWhite {
		t.Fatalf("high → %s, want white", k)
	}
	if k := kindOf(probe.Classification{Intensity: 128}); k != KindUnknown {
		t.Fatalf("mid → %s, want unknown", k)
	}
}
