package scene

import (
	"math"
	"testing"

	"github.com/autoframe/autoframe/pkg/cropregion"
	"github.com/autoframe/autoframe/pkg/geometry"
)

func TestAggregateKeyFrameResults_Empty(t *testing.T) {
	opts := AggregatorOptions{TargetWidth: 100, TargetHeight: 100}
	summary, err := AggregateKeyFrameResults(opts, nil, 640, 480)
	if err != nil {
		t.Fatal(err)
	}
	if summary.HasSalientRegion {
		t.Error("empty scene must not report a salient region")
	}
	if summary.CropWindowWidth != 100 || summary.CropWindowHeight != 100 {
		t.Errorf("crop window = %dx%d, want 100x100", summary.CropWindowWidth, summary.CropWindowHeight)
	}
	if summary.FrameSuccessRate != 0 {
		t.Errorf("success rate = %v, want 0", summary.FrameSuccessRate)
	}
}

func TestAggregateKeyFrameResults_CentersAndMotion(t *testing.T) {
	opts := AggregatorOptions{TargetWidth: 100, TargetHeight: 100}
	results := []cropregion.KeyFrameCropResult{
		{
			Region:                      geometry.NewRect(100, 100, 80, 80),
			RegionScore:                 0.5,
			RequiredCoveredInTargetSize: true,
			TimestampUS:                 0,
		},
		{
			Region:                      geometry.NewRect(300, 200, 80, 80),
			RegionScore:                 0.9,
			RequiredCoveredInTargetSize: true,
			TimestampUS:                 100_000,
		},
	}
	summary, err := AggregateKeyFrameResults(opts, results, 640, 480)
	if err != nil {
		t.Fatal(err)
	}

	if !summary.HasSalientRegion {
		t.Fatal("scene should have a salient region")
	}
	if summary.CenterMinX != 140 || summary.CenterMaxX != 340 {
		t.Errorf("center x range = [%v, %v], want [140, 340]", summary.CenterMinX, summary.CenterMaxX)
	}
	wantH := (340.0 - 140.0) / 640.0
	if math.Abs(summary.HorizontalMotionAmount-wantH) > 1e-12 {
		t.Errorf("horizontal motion = %v, want %v", summary.HorizontalMotionAmount, wantH)
	}
	if summary.ScoreMin != 0.5 || summary.ScoreMax != 0.9 {
		t.Errorf("score range = [%v, %v], want [0.5, 0.9]", summary.ScoreMin, summary.ScoreMax)
	}
	if summary.FrameSuccessRate != 1.0 {
		t.Errorf("success rate = %v, want 1.0", summary.FrameSuccessRate)
	}
}

func TestAggregateKeyFrameResults_EmptyRegionSentinels(t *testing.T) {
	opts := AggregatorOptions{TargetWidth: 100, TargetHeight: 100}
	results := []cropregion.KeyFrameCropResult{
		{RegionIsEmpty: true, RequiredRegionIsEmpty: true, RequiredCoveredInTargetSize: true, TimestampUS: 42},
	}
	summary, err := AggregateKeyFrameResults(opts, results, 640, 480)
	if err != nil {
		t.Fatal(err)
	}
	info := summary.KeyFrameCompactInfos[0]
	if info.CenterX != -1 || info.CenterY != -1 || info.Score != -1 {
		t.Errorf("sentinel compact info = %+v", info)
	}
	if summary.HasSalientRegion {
		t.Error("scene with only empty regions must not report a salient region")
	}
}

func TestAggregateKeyFrameResults_CropWindowNeverShrinks(t *testing.T) {
	opts := AggregatorOptions{TargetWidth: 100, TargetHeight: 100}
	results := []cropregion.KeyFrameCropResult{
		{Region: geometry.NewRect(0, 0, 250, 60), RegionScore: 1, TimestampUS: 0},
		{Region: geometry.NewRect(0, 0, 30, 30), RegionScore: 1, TimestampUS: 1},
	}
	summary, err := AggregateKeyFrameResults(opts, results, 640, 480)
	if err != nil {
		t.Fatal(err)
	}
	if summary.CropWindowWidth != 250 {
		t.Errorf("crop window width = %d, want 250", summary.CropWindowWidth)
	}
	if summary.CropWindowHeight != 100 {
		t.Errorf("crop window height = %d, want 100 (target floor)", summary.CropWindowHeight)
	}
}

func TestAggregateKeyFrameResults_RequiredUnion(t *testing.T) {
	opts := AggregatorOptions{TargetWidth: 100, TargetHeight: 100}
	results := []cropregion.KeyFrameCropResult{
		{
			Region:         geometry.NewRect(10, 10, 50, 50),
			RequiredRegion: geometry.NewRect(10, 10, 50, 50),
			RegionScore:    1,
		},
		{
			Region:         geometry.NewRect(200, 300, 50, 50),
			RequiredRegion: geometry.NewRect(200, 300, 50, 50),
			RegionScore:    1,
		},
	}
	summary, err := AggregateKeyFrameResults(opts, results, 640, 480)
	if err != nil {
		t.Fatal(err)
	}
	if !summary.HasRequiredSalientRegion {
		t.Fatal("expected required salient region")
	}
	want := geometry.NewRect(10, 10, 240, 340)
	if summary.RequiredRegionUnion != want {
		t.Errorf("required union = %v, want %v", summary.RequiredRegionUnion, want)
	}
}

func TestAggregateKeyFrameResults_Validation(t *testing.T) {
	opts := AggregatorOptions{TargetWidth: 100, TargetHeight: 100}
	if _, err := AggregateKeyFrameResults(opts, nil, 0, 480); err == nil {
		t.Error("expected error for zero frame width")
	}
	if _, err := AggregateKeyFrameResults(AggregatorOptions{TargetWidth: 700, TargetHeight: 100}, nil, 640, 480); err == nil {
		t.Error("expected error for target exceeding frame")
	}
	neg := []cropregion.KeyFrameCropResult{{Region: geometry.NewRect(0, 0, 10, 10), RegionScore: -0.5}}
	if _, err := AggregateKeyFrameResults(opts, neg, 640, 480); err == nil {
		t.Error("expected error for negative score")
	}
}
