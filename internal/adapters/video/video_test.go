package video

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/Scotts-Thoughts/fury-cutter/internal/core/gamepack"
	"github.com/Scotts-Thoughts/fury-cutter/internal/core/probe"
	perr "github.com/Scotts-Thoughts/fury-cutter/internal/platform/errors"
)

func testGame() *gamepack.Game {
	return &gamepack.Game{
		ID:        "heartgold",
		Playfield: gamepack.Region{X: 1490, Y: 20, W: 400, H: 35},
		Nameplate: gamepack.Region{X: 1584, Y: 25, W: 322, H: 31},
	}
}

func testSource(run runner) *Source {
	return &Source{
		path:          "gameplay.mp4",
		info:          probe.Info{Path: "gameplay.mp4", FPS: 240, Frames: 100000},
		game:          testGame(),
		opts:          Options{}.withDefaults(),
		ffmpegPath:    "/usr/bin/ffmpeg",
		ffprobePath:   "/usr/bin/ffprobe",
		tesseractPath: "/usr/bin/tesseract",
		run:           run,
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"240/1", 240},
		{"30000/1001", 30000.0 / 1001.0},
		{"24", 24},
		{"", 0},
		{"0/0", 0},
		{"x/y", 0},
		{"30/0", 0},
	}
	for _, tc := range cases {
		if got := parseFrameRate(tc.in); got != tc.want {
			t.Fatalf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSeekSeconds(t *testing.T) {
	if got := seekSeconds(0, 240); got != "0.000000" {
		t.Fatalf("frame 0 = %q, want 0.000000", got)
	}
	if got := seekSeconds(240, 240); got != "0.997917" {
		t.Fatalf("frame 240 = %q, want half a frame early", got)
	}
}

func TestParseYAVG(t *testing.T) {
	out := "frame:0    pts:7361354  pts_time:30.672308\nlavfi.signalstats.YAVG=16.421875\n"
	y, ok := parseYAVG(out)
	if !ok || y != 16.421875 {
		t.Fatalf("parseYAVG = %v %v, want 16.421875 true", y, ok)
	}
	if _, ok := parseYAVG("frame:0 pts:0\n"); ok {
		t.Fatalf("parseYAVG without the key: want miss")
	}
	if _, ok := parseYAVG("lavfi.signalstats.YAVG=oops\n"); ok {
		t.Fatalf("parseYAVG with garbage value: want miss")
	}
}

func TestProbeContainer(t *testing.T) {
	const withFrames = `{
		"format": {"duration": "420.5"},
		"streams": [
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "video", "r_frame_rate": "240/1", "nb_frames": "100920", "width": 1920, "height": 1080}
		]
	}`
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		if !strings.Contains(name, "ffprobe") {
			t.Fatalf("probeContainer ran %q, want ffprobe", name)
		}
		return []byte(withFrames), nil, nil
	})
	info, err := s.probeContainer(context.Background())
	if err != nil {
		t.Fatalf("probeContainer: %v", err)
	}
	if info.FPS != 240 || info.Frames != 100920 {
		t.Fatalf("info = %+v, want fps 240 frames 100920", info)
	}
}

func TestProbeContainer_DurationFallback(t *testing.T) {
	const noFrames = `{
		"format": {"duration": "10.0"},
		"streams": [{"codec_type": "video", "r_frame_rate": "30/1"}]
	}`
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		return []byte(noFrames), nil, nil
	})
	info, err := s.probeContainer(context.Background())
	if err != nil {
		t.Fatalf("probeContainer: %v", err)
	}
	if info.Frames != 300 {
		t.Fatalf("frames = %d, want 300 from duration*fps", info.Frames)
	}
}

func TestProbeContainer_NoVideoStream(t *testing.T) {
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		return []byte(`{"streams":[{"codec_type":"audio"}]}`), nil, nil
	})
	if _, err := s.probeContainer(context.Background()); err == nil {
		t.Fatalf("probeContainer on audio-only input: want error")
	}
}

func TestClassify(t *testing.T) {
	var gotArgs []string
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		gotArgs = args
		return []byte("frame:0 pts:100\nlavfi.signalstats.YAVG=3.25\n"), nil, nil
	})
	h := &handle{src: s}

	c, err := h.Classify(context.Background(), 7200)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !c.Low || c.High || c.Intensity != 3.25 {
		t.Fatalf("classification = %+v, want low at 3.25", c)
	}

	vf := strings.Join(gotArgs, " ")
	if !strings.Contains(vf, "crop=400:35:1490:20") {
		t.Fatalf("args missing playfield crop: %v", gotArgs)
	}
	if !strings.Contains(vf, "scale=iw*0.25:ih*0.25") {
		t.Fatalf("args missing downscale: %v", gotArgs)
	}
	if !strings.Contains(vf, "signalstats") {
		t.Fatalf("args missing signalstats: %v", gotArgs)
	}
}

func TestClassify_FailureIsProbeFailure(t *testing.T) {
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		return nil, []byte("boom"), errors.New("exit status 1")
	})
	h := &handle{src: s}

	_, err := h.Classify(context.Background(), 10)
	if !perr.IsCode(err, perr.ErrorCodeProbeFailure) {
		t.Fatalf("code = %v, want probe failure", perr.CodeOf(err))
	}
}

func TestRecognize(t *testing.T) {
	fakePNG := []byte{0x89, 'P', 'N', 'G'}
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		if strings.Contains(name, "ffmpeg") {
			vf := strings.Join(args, " ")
			if !strings.Contains(vf, "crop=322:31:1584:25") {
				t.Fatalf("extract args missing nameplate crop: %v", args)
			}
			return fakePNG, nil, nil
		}
		if string(stdin) != string(fakePNG) {
			t.Fatalf("tesseract stdin = %v, want the extracted png", stdin)
		}
		if args[0] != "stdin" || args[1] != "stdout" {
			t.Fatalf("tesseract args = %v", args)
		}
		return []byte(" LEADER MISTY\n\f"), nil, nil
	})
	h := &handle{src: s}

	text, err := h.Recognize(context.Background(), 7200)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if text != "LEADER MISTY" {
		t.Fatalf("text = %q, want trimmed recognizer output", text)
	}
}

func TestRecognize_EmptyExtractIsProbeFailure(t *testing.T) {
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		return nil, nil, nil
	})
	h := &handle{src: s}

	_, err := h.Recognize(context.Background(), 10)
	if !perr.IsCode(err, perr.ErrorCodeProbeFailure) {
		t.Fatalf("code = %v, want probe failure", perr.CodeOf(err))
	}
}

func TestRecognize_TesseractGoneIsUnavailable(t *testing.T) {
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		if strings.Contains(name, "ffmpeg") {
			return []byte{1}, nil, nil
		}
		return nil, nil, errors.New("fork/exec /usr/bin/tesseract: no such file or directory")
	})
	h := &handle{src: s}

	_, err := h.Recognize(context.Background(), 10)
	if !perr.IsCode(err, perr.ErrorCodeRecognizerUnavailable) {
		t.Fatalf("code = %v, want recognizer unavailable", perr.CodeOf(err))
	}
}

func TestRecognize_TesseractExitIsProbeFailure(t *testing.T) {
	s := testSource(func(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
		if strings.Contains(name, "ffmpeg") {
			return []byte{1}, nil, nil
		}
		return nil, nil, &exec.ExitError{}
	})
	h := &handle{src: s}

	_, err := h.Recognize(context.Background(), 10)
	if !perr.IsCode(err, perr.ErrorCodeProbeFailure) {
		t.Fatalf("code = %v, want probe failure", perr.CodeOf(err))
	}
}

func TestRecognizeArgs_Binarize(t *testing.T) {
	s := testSource(nil)
	s.opts.BinarizeThreshold = 60
	h := &handle{src: s}

	vf := strings.Join(h.recognizeArgs(100), " ")
	if !strings.Contains(vf, "format=gray,lut=y='if(lt(val,60),0,255)'") {
		t.Fatalf("binarize chain missing: %q", vf)
	}
}

func TestOpen_NoTesseract(t *testing.T) {
	s := testSource(nil)
	s.tesseractPath = ""

	_, err := s.Open(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeRecognizerUnavailable) {
		t.Fatalf("code = %v, want recognizer unavailable", perr.CodeOf(err))
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.Downscale != 0.25 || o.PSM != 7 {
		t.Fatalf("defaults = %+v", o)
	}
	if o.LowMax != probe.DefaultLowMax || o.HighMin != probe.DefaultHighMin {
		t.Fatalf("threshold defaults = %+v", o)
	}

	o = Options{Downscale: 1, PSM: 6}.withDefaults()
	if o.Downscale != 1 || o.PSM != 6 {
		t.Fatalf("explicit options clobbered: %+v", o)
	}
}
