package motion

import (
	"math"
	"testing"

	"github.com/autoframe/autoframe/pkg/scene"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.TargetWidth = 100
	opts.TargetHeight = 100
	return opts
}

func newTestAnalyzer(t *testing.T, opts Options) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(opts)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func emptySummary(frameW, frameH, cropW, cropH int) *scene.SceneKeyFrameCropSummary {
	return &scene.SceneKeyFrameCropSummary{
		FrameWidth:       frameW,
		FrameHeight:      frameH,
		CropWindowWidth:  cropW,
		CropWindowHeight: cropH,
	}
}

func timestamps(n int, stepUS int64) ([]int64, []bool) {
	ts := make([]int64, n)
	keys := make([]bool, n)
	for i := range ts {
		ts[i] = int64(i) * stepUS
		keys[i] = i%3 == 0
	}
	return ts, keys
}

func TestAnalyzeScene_NoSalientRegionDefaultsToCenter(t *testing.T) {
	a := newTestAnalyzer(t, testOptions())
	summary := emptySummary(640, 480, 100, 100)
	ts, keys := timestamps(5, 33_000)

	motion, frames, err := a.AnalyzeScene(summary, ts, keys, false)
	if err != nil {
		t.Fatal(err)
	}
	if motion.Kind != Steady {
		t.Fatalf("kind = %v, want steady", motion.Kind)
	}
	if motion.Steady.X != 320 || motion.Steady.Y != 240 {
		t.Errorf("look-at = (%v, %v), want (320, 240)", motion.Steady.X, motion.Steady.Y)
	}
	if len(frames) != 5 {
		t.Fatalf("frames = %d, want 5", len(frames))
	}
	for _, f := range frames {
		if len(f.Points) != 1 {
			t.Fatalf("points = %d, want 1", len(f.Points))
		}
		if f.Points[0].Weight != a.opts.MaximumSalientPointWeight {
			t.Errorf("weight = %v, want %v", f.Points[0].Weight, a.opts.MaximumSalientPointWeight)
		}
	}
}

func TestAnalyzeScene_CenteringHysteresis(t *testing.T) {
	opts := testOptions()
	opts.DurationBeforeCenteringUS = 1_000_000
	a := newTestAnalyzer(t, opts)

	// First scene: low-motion salient content away from center.
	salient := emptySummary(640, 480, 100, 100)
	salient.HasSalientRegion = true
	salient.CenterMinX, salient.CenterMaxX = 100, 110
	salient.CenterMinY, salient.CenterMaxY = 100, 110
	salient.KeyFrameCompactInfos = []scene.KeyFrameCompactInfo{{CenterX: 105, CenterY: 105, Score: 1}}
	ts1, keys1 := timestamps(5, 33_000)
	m1, _, err := a.AnalyzeScene(salient, ts1, keys1, false)
	if err != nil {
		t.Fatal(err)
	}
	if m1.Kind != Steady {
		t.Fatalf("first scene kind = %v, want steady", m1.Kind)
	}

	// Second scene: no salient region, starting shortly after. The prior
	// look-at point must be reused.
	empty := emptySummary(640, 480, 100, 100)
	ts2 := []int64{200_000, 233_000}
	m2, _, err := a.AnalyzeScene(empty, ts2, []bool{true, false}, false)
	if err != nil {
		t.Fatal(err)
	}
	if m2.Steady != m1.Steady {
		t.Errorf("short gap look-at = %+v, want reuse of %+v", m2.Steady, m1.Steady)
	}

	// Third scene: no salient region after a long gap. Recenters.
	empty2 := emptySummary(640, 480, 100, 100)
	ts3 := []int64{5_000_000, 5_033_000}
	m3, _, err := a.AnalyzeScene(empty2, ts3, []bool{true, false}, false)
	if err != nil {
		t.Fatal(err)
	}
	if m3.Steady.X != 320 || m3.Steady.Y != 240 {
		t.Errorf("long gap look-at = %+v, want frame center", m3.Steady)
	}
}

func TestAnalyzeScene_SweepingEndpoints(t *testing.T) {
	opts := testOptions()
	opts.TargetWidth = 40
	opts.TargetHeight = 40
	opts.MinimumSuccessRate = 0.5
	opts.MinimumSceneSpanSec = 0.1
	a := newTestAnalyzer(t, opts)

	summary := emptySummary(100, 100, 60, 40) // crop width 1.5x target
	summary.HasSalientRegion = true
	summary.FrameSuccessRate = 0.1
	summary.KeyFrameCompactInfos = []scene.KeyFrameCompactInfo{{CenterX: 50, CenterY: 50, Score: 1}}
	ts, keys := timestamps(10, 33_000)

	motion, frames, err := a.AnalyzeScene(summary, ts, keys, false)
	if err != nil {
		t.Fatal(err)
	}
	if motion.Kind != Sweeping {
		t.Fatalf("kind = %v, want sweeping", motion.Kind)
	}
	want := SweepingMotion{StartX: 0, StartY: 50, EndX: 100, EndY: 50}
	if motion.Sweeping != want {
		t.Errorf("sweep = %+v, want %+v", motion.Sweeping, want)
	}

	// Focus points pan linearly from start to end.
	first := frames[0].Points[0]
	last := frames[len(frames)-1].Points[0]
	if first.NormX != 0 || last.NormX != 1 {
		t.Errorf("sweep norm x: first %v last %v, want 0 and 1", first.NormX, last.NormX)
	}
	mid := frames[len(frames)/2].Points[0]
	if mid.NormX <= first.NormX || mid.NormX >= last.NormX {
		t.Errorf("sweep not monotonic: mid %v", mid.NormX)
	}
}

func TestAnalyzeScene_SolidBackgroundBlocksSweeping(t *testing.T) {
	opts := testOptions()
	opts.MinimumSceneSpanSec = 0.1
	a := newTestAnalyzer(t, opts)

	summary := emptySummary(640, 480, 100, 100)
	summary.HasSalientRegion = true
	summary.FrameSuccessRate = 0 // would sweep, but background is solid
	summary.KeyFrameCompactInfos = []scene.KeyFrameCompactInfo{{CenterX: 320, CenterY: 240, Score: 1}}
	ts, keys := timestamps(10, 33_000)

	motion, _, err := a.AnalyzeScene(summary, ts, keys, true)
	if err != nil {
		t.Fatal(err)
	}
	if motion.Kind == Sweeping {
		t.Error("solid background scene must not sweep")
	}
}

func TestAnalyzeScene_SteadySnapsToCenter(t *testing.T) {
	opts := testOptions()
	opts.SnapCenterMaxDistancePercent = 0.1
	a := newTestAnalyzer(t, opts)

	summary := emptySummary(640, 480, 100, 100)
	summary.HasSalientRegion = true
	summary.FrameSuccessRate = 1
	// Center range midpoint (330, 250): within 10% of (320, 240).
	summary.CenterMinX, summary.CenterMaxX = 325, 335
	summary.CenterMinY, summary.CenterMaxY = 245, 255
	summary.KeyFrameCompactInfos = []scene.KeyFrameCompactInfo{{CenterX: 330, CenterY: 250, Score: 1}}
	ts, keys := timestamps(4, 33_000)

	motion, _, err := a.AnalyzeScene(summary, ts, keys, false)
	if err != nil {
		t.Fatal(err)
	}
	if motion.Kind != Steady {
		t.Fatalf("kind = %v, want steady", motion.Kind)
	}
	if motion.Steady.X != 320 || motion.Steady.Y != 240 {
		t.Errorf("look-at = %+v, want snapped center (320, 240)", motion.Steady)
	}
}

func TestAnalyzeScene_RequiredRegionGrowsCropWindow(t *testing.T) {
	a := newTestAnalyzer(t, testOptions())

	summary := emptySummary(640, 480, 100, 100)
	summary.HasSalientRegion = true
	summary.HasRequiredSalientRegion = true
	summary.FrameSuccessRate = 1
	summary.RequiredRegionUnion.X = 100
	summary.RequiredRegionUnion.Y = 100
	summary.RequiredRegionUnion.Width = 300
	summary.RequiredRegionUnion.Height = 80
	summary.KeyFrameCompactInfos = []scene.KeyFrameCompactInfo{{CenterX: 250, CenterY: 140, Score: 1}}
	ts, keys := timestamps(4, 33_000)

	motion, _, err := a.AnalyzeScene(summary, ts, keys, false)
	if err != nil {
		t.Fatal(err)
	}
	if motion.Kind != Steady {
		t.Fatalf("kind = %v, want steady", motion.Kind)
	}
	if summary.CropWindowWidth != 300 {
		t.Errorf("crop window width = %d, want 300", summary.CropWindowWidth)
	}
	if summary.CropWindowHeight != 100 {
		t.Errorf("crop window height = %d, want 100", summary.CropWindowHeight)
	}
	if motion.Steady.X != 250 {
		t.Errorf("look-at x = %v, want required union center 250", motion.Steady.X)
	}
}

func TestAnalyzeScene_TrackingWeights(t *testing.T) {
	opts := testOptions()
	opts.MotionStabilizationThresholdPercent = 0.05
	opts.AllowSweeping = false
	a := newTestAnalyzer(t, opts)

	summary := emptySummary(640, 480, 100, 100)
	summary.HasSalientRegion = true
	summary.FrameSuccessRate = 1
	summary.HorizontalMotionAmount = 0.4
	summary.VerticalMotionAmount = 0.01
	summary.CenterMinX, summary.CenterMaxX = 100, 356
	summary.CenterMinY, summary.CenterMaxY = 240, 245
	summary.KeyFrameCompactInfos = []scene.KeyFrameCompactInfo{
		{TimestampUS: 0, CenterX: 100, CenterY: 240, Score: 0.2},
		{TimestampUS: 100_000, CenterX: -1, CenterY: -1, Score: -1}, // empty key frame skipped
		{TimestampUS: 200_000, CenterX: 356, CenterY: 245, Score: 0.8},
	}
	ts := []int64{0, 50_000, 100_000, 150_000, 200_000}
	keys := []bool{true, false, true, false, true}

	motion, frames, err := a.AnalyzeScene(summary, ts, keys, false)
	if err != nil {
		t.Fatal(err)
	}
	if motion.Kind != Tracking {
		t.Fatalf("kind = %v, want tracking", motion.Kind)
	}
	if len(frames) != 5 {
		t.Fatalf("frames = %d, want 5", len(frames))
	}

	// The highest weight must equal the configured maximum after rescale.
	maxWeight := 0.0
	for _, f := range frames {
		for _, p := range f.Points {
			if p.Weight > maxWeight {
				maxWeight = p.Weight
			}
			if p.Weight <= 0 {
				t.Errorf("non-positive weight %v", p.Weight)
			}
		}
	}
	if math.Abs(maxWeight-opts.MaximumSalientPointWeight) > 1e-9 {
		t.Errorf("max weight = %v, want %v", maxWeight, opts.MaximumSalientPointWeight)
	}

	// Focus x follows the interpolated center.
	if frames[0].Points[0].NormX >= frames[4].Points[0].NormX {
		t.Error("tracking focus points do not follow the moving center")
	}
}

func TestAnalyzeScene_Preconditions(t *testing.T) {
	a := newTestAnalyzer(t, testOptions())
	summary := emptySummary(640, 480, 100, 100)

	if _, _, err := a.AnalyzeScene(summary, nil, nil, false); err == nil {
		t.Error("expected error for zero scene frames")
	}
	if _, _, err := a.AnalyzeScene(summary, []int64{0, 1}, []bool{true}, false); err == nil {
		t.Error("expected error for mismatched key frame flags")
	}
}

func TestLayoutFocusPoints_FullHeightCrop(t *testing.T) {
	a := newTestAnalyzer(t, testOptions())
	summary := emptySummary(640, 480, 100, 480) // crop spans full height

	points := a.layoutFocusPoints(summary, 0.3, 0.5, 10)
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].NormY != 0 || points[1].NormY != 1 {
		t.Errorf("expected topmost and bottommost points, got %v and %v", points[0], points[1])
	}
	if points[0].NormX != 0.3 || points[1].NormX != 0.3 {
		t.Error("top and bottom points must share the look-at x")
	}
}
