package engine

import (
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/motion"
	"github.com/autoframe/autoframe/pkg/saliency"
)

func computeOnlyOptions(targetW, targetH int) Options {
	opts := DefaultOptions()
	opts.TargetWidth = targetW
	opts.TargetHeight = targetH
	opts.EmitFrames = false
	return opts
}

func TestOptionsValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Options)
		wantSub string
	}{
		{"odd width", func(o *Options) { o.TargetWidth = 719; o.TargetHeight = 1124 }, "width"},
		{"odd height", func(o *Options) { o.TargetHeight = 1279 }, "height"},
		{"zero scene size", func(o *Options) { o.MaxSceneSize = 0 }, "max scene size"},
		{"negative prior buffer", func(o *Options) { o.PriorFrameBufferSize = -1 }, "prior frame buffer"},
		{"bad coverage fraction", func(o *Options) { o.NonRequiredRegionMinCoverageFraction = 1.5 }, "coverage"},
		{"bad solid fraction", func(o *Options) { o.SolidBackgroundPaddingFraction = 0 }, "solid background"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			err := opts.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestOptionsRequireSolver(t *testing.T) {
	opts := DefaultOptions()
	opts.Solver = SolverUnset
	if err := opts.Validate(); err != ErrNoSolver {
		t.Errorf("got %v, want ErrNoSolver", err)
	}
}

func TestNewRequiresSink(t *testing.T) {
	opts := computeOnlyOptions(240, 480)
	if _, err := New(opts, Sinks{}); err != ErrNoSink {
		t.Errorf("got %v, want ErrNoSink", err)
	}

	// Pixel output enabled without a frame sink is a conflict.
	opts.EmitFrames = true
	if _, err := New(opts, Sinks{OnRecord: func(RenderRecord) error { return nil }}); err == nil {
		t.Error("expected error for pixel output without frame sink")
	}

	// A frame sink with pixel output disabled is the inverse conflict.
	opts.EmitFrames = false
	if _, err := New(opts, Sinks{OnFrame: func(gocv.Mat, int64) error { return nil }}); err == nil {
		t.Error("expected error for frame sink without pixel output")
	}
}

func TestResolveLayoutPolicies(t *testing.T) {
	base := computeOnlyOptions(360, 640)

	t.Run("use target dimension", func(t *testing.T) {
		l, err := resolveLayout(1920, 1080, base)
		if err != nil {
			t.Fatal(err)
		}
		if l.outputWidth != 360 || l.outputHeight != 640 {
			t.Errorf("output = %dx%d, want 360x640", l.outputWidth, l.outputHeight)
		}
		if l.cropHeight != 1080 || l.cropWidth != 608 {
			t.Errorf("crop = %dx%d, want 608x1080", l.cropWidth, l.cropHeight)
		}
	})

	t.Run("target exceeds frame", func(t *testing.T) {
		if _, err := resolveLayout(320, 240, base); err == nil {
			t.Error("expected error for target larger than frame")
		}
	})

	t.Run("keep original height", func(t *testing.T) {
		opts := base
		opts.TargetSizeType = KeepOriginalHeight
		l, err := resolveLayout(1920, 1080, opts)
		if err != nil {
			t.Fatal(err)
		}
		if l.outputHeight != 1080 || l.outputWidth != 608 {
			t.Errorf("output = %dx%d, want 608x1080", l.outputWidth, l.outputHeight)
		}
	})

	t.Run("keep original width", func(t *testing.T) {
		opts := base
		opts.TargetSizeType = KeepOriginalWidth
		l, err := resolveLayout(1920, 1080, opts)
		if err != nil {
			t.Fatal(err)
		}
		if l.outputWidth != 1920 || l.outputHeight != 3412 {
			t.Errorf("output = %dx%d, want 1920x3412", l.outputWidth, l.outputHeight)
		}
	})

	t.Run("derived dimensions always even", func(t *testing.T) {
		policies := []TargetSizeType{KeepOriginalWidth, KeepOriginalHeight, MaximizeTargetDimension}
		sizes := [][2]int{{1919, 1079}, {1280, 721}, {640, 361}, {101, 99}}
		for _, p := range policies {
			for _, s := range sizes {
				opts := base
				opts.TargetSizeType = p
				l, err := resolveLayout(s[0], s[1], opts)
				if err != nil {
					t.Fatalf("%v %v: %v", p, s, err)
				}
				if l.outputWidth%2 != 0 || l.outputHeight%2 != 0 {
					t.Errorf("%v %v: output %dx%d has odd dimension", p, s, l.outputWidth, l.outputHeight)
				}
			}
		}
	})
}

func TestEngineComputeOnly(t *testing.T) {
	var records []RenderRecord
	var summaries []SceneSummary
	eng, err := New(computeOnlyOptions(240, 480), Sinks{
		OnRecord:  func(r RenderRecord) error { records = append(records, r); return nil },
		OnSummary: func(s SceneSummary) error { summaries = append(summaries, s); return nil },
	})
	if err != nil {
		t.Fatal(err)
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for i := 0; i < 10; i++ {
		if err := eng.AddFrame(frame, int64(i)*33_333); err != nil {
			t.Fatal(err)
		}
	}
	if err := eng.AddDetections(0, []saliency.SalientRegion{{
		Location: geometry.Rect{X: 300, Y: 200, Width: 40, Height: 80},
		Score:    0.9,
	}}, 640, 480); err != nil {
		t.Fatal(err)
	}
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}

	if len(records) != 10 {
		t.Fatalf("got %d records, want 10", len(records))
	}
	for _, r := range records {
		if r.CropFrom.Width != 240 || r.CropFrom.Height != 480 {
			t.Errorf("crop_from = %+v, want 240x480", r.CropFrom)
		}
		if r.RenderTo != (geometry.Rect{X: 0, Y: 0, Width: 240, Height: 480}) {
			t.Errorf("render_to = %+v, want full output", r.RenderTo)
		}
		if r.PaddingColor != [3]uint8{0, 0, 0} {
			t.Errorf("padding_color = %v, want black", r.PaddingColor)
		}
	}
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	if summaries[0].FrameCount != 10 || summaries[0].KeyFrameCount != 1 {
		t.Errorf("summary = %+v", summaries[0])
	}
	if summaries[0].PaddingApplied {
		t.Error("no padding expected when crop matches output aspect")
	}
}

func TestEngineForcedFlushAndSceneBoundaries(t *testing.T) {
	opts := computeOnlyOptions(240, 480)
	opts.MaxSceneSize = 5
	opts.PriorFrameBufferSize = 2

	var summaries []SceneSummary
	eng, err := New(opts, Sinks{
		OnRecord:  func(RenderRecord) error { return nil },
		OnSummary: func(s SceneSummary) error { summaries = append(summaries, s); return nil },
	})
	if err != nil {
		t.Fatal(err)
	}

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	for i := 0; i < 8; i++ {
		if err := eng.AddFrame(frame, int64(i)*33_333); err != nil {
			t.Fatal(err)
		}
	}
	// Frames 0-4 flushed by the full buffer, 5-7 by Close.
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}

	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].FrameCount != 5 || summaries[1].FrameCount != 3 {
		t.Errorf("frame counts = %d, %d, want 5, 3", summaries[0].FrameCount, summaries[1].FrameCount)
	}
	if summaries[0].SceneIndex != 0 || summaries[1].SceneIndex != 1 {
		t.Errorf("scene indices = %d, %d", summaries[0].SceneIndex, summaries[1].SceneIndex)
	}
	// No salient regions anywhere: both scenes are steady.
	for _, s := range summaries {
		if s.CameraMotion != motion.Steady {
			t.Errorf("scene %d motion = %v, want steady", s.SceneIndex, s.CameraMotion)
		}
	}
}

func TestEngineClosed(t *testing.T) {
	eng, err := New(computeOnlyOptions(240, 480), Sinks{
		OnRecord: func(RenderRecord) error { return nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	if err := eng.AddFrame(frame, 0); err != ErrClosed {
		t.Errorf("AddFrame after close = %v, want ErrClosed", err)
	}
	if err := eng.SignalShotBoundary(); err != ErrClosed {
		t.Errorf("SignalShotBoundary after close = %v, want ErrClosed", err)
	}
}

func TestUserHintOverride(t *testing.T) {
	eng := &Engine{opts: Options{UserHintsOnly: true}}
	infos := []saliency.KeyFrameInfo{
		{TimestampUS: 0, Detections: []saliency.SalientRegion{
			{Score: 0.9, Signal: saliency.SignalFace},
			{Score: 0.5, Signal: saliency.SignalUserHint},
		}},
		{TimestampUS: 1000, Detections: []saliency.SalientRegion{
			{Score: 0.8, Signal: saliency.SignalHuman},
		}},
	}
	filtered := eng.applyUserHintOverride(infos)
	if len(filtered[0].Detections) != 1 || filtered[0].Detections[0].Signal != saliency.SignalUserHint {
		t.Errorf("first key frame = %+v, want only the user hint", filtered[0].Detections)
	}
	// The override applies scene-wide: key frames without hints lose all
	// detections once any hint is present in the scene.
	if len(filtered[1].Detections) != 0 {
		t.Errorf("second key frame = %+v, want no detections", filtered[1].Detections)
	}

	eng.opts.UserHintsOnly = false
	unfiltered := eng.applyUserHintOverride(infos)
	if len(unfiltered[0].Detections) != 2 {
		t.Error("override disabled should not filter")
	}
}
