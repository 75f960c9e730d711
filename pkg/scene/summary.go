// Package scene aggregates per-key-frame crop results into a single summary
// describing how salient content moves over one scene.
package scene

import (
	"fmt"
	"math"

	"github.com/autoframe/autoframe/pkg/cropregion"
	"github.com/autoframe/autoframe/pkg/geometry"
)

// KeyFrameCompactInfo is the per-key-frame view the motion analyzer needs:
// crop center and score, with -1 sentinels for key frames whose crop region
// was empty.
type KeyFrameCompactInfo struct {
	TimestampUS int64
	CenterX     float64
	CenterY     float64
	Score       float64
}

// SceneKeyFrameCropSummary aggregates all key frame crop results of a scene.
// Built once per scene, read by the camera motion analyzer, then discarded.
type SceneKeyFrameCropSummary struct {
	FrameWidth  int
	FrameHeight int

	// CropWindowWidth and CropWindowHeight start at the target size and
	// grow to the largest region seen. They never shrink below target.
	CropWindowWidth  int
	CropWindowHeight int

	CenterMinX float64
	CenterMaxX float64
	CenterMinY float64
	CenterMaxY float64

	ScoreMin float64
	ScoreMax float64

	KeyFrameCompactInfos []KeyFrameCompactInfo

	HasSalientRegion         bool
	HasRequiredSalientRegion bool
	RequiredRegionUnion      geometry.Rect

	// FrameSuccessRate is the fraction of key frames whose required
	// regions fit the nominal target size.
	FrameSuccessRate float64

	// HorizontalMotionAmount and VerticalMotionAmount are the center
	// spreads normalized by the frame dimensions.
	HorizontalMotionAmount float64
	VerticalMotionAmount   float64
}

// AggregatorOptions configures scene aggregation.
type AggregatorOptions struct {
	TargetWidth  int `json:"target_width"`
	TargetHeight int `json:"target_height"`
}

// AggregateKeyFrameResults folds the scene's key frame crop results into a
// SceneKeyFrameCropSummary. Zero key frames is not an error: it produces a
// summary with no salient region.
func AggregateKeyFrameResults(opts AggregatorOptions, results []cropregion.KeyFrameCropResult, frameWidth, frameHeight int) (SceneKeyFrameCropSummary, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return SceneKeyFrameCropSummary{}, fmt.Errorf("scene: frame size %dx%d must be positive", frameWidth, frameHeight)
	}
	if opts.TargetWidth <= 0 || opts.TargetHeight <= 0 {
		return SceneKeyFrameCropSummary{}, fmt.Errorf("scene: target size %dx%d must be positive", opts.TargetWidth, opts.TargetHeight)
	}
	if opts.TargetWidth > frameWidth || opts.TargetHeight > frameHeight {
		return SceneKeyFrameCropSummary{}, fmt.Errorf("scene: target size %dx%d exceeds frame size %dx%d",
			opts.TargetWidth, opts.TargetHeight, frameWidth, frameHeight)
	}

	summary := SceneKeyFrameCropSummary{
		FrameWidth:       frameWidth,
		FrameHeight:      frameHeight,
		CropWindowWidth:  opts.TargetWidth,
		CropWindowHeight: opts.TargetHeight,
		CenterMinX:       math.Inf(1),
		CenterMaxX:       math.Inf(-1),
		CenterMinY:       math.Inf(1),
		CenterMaxY:       math.Inf(-1),
		ScoreMin:         math.Inf(1),
		ScoreMax:         math.Inf(-1),
	}

	successes := 0
	for _, result := range results {
		if result.RequiredCoveredInTargetSize {
			successes++
		}

		if result.RegionIsEmpty {
			summary.KeyFrameCompactInfos = append(summary.KeyFrameCompactInfos, KeyFrameCompactInfo{
				TimestampUS: result.TimestampUS,
				CenterX:     -1,
				CenterY:     -1,
				Score:       -1,
			})
			continue
		}

		centerX := float64(result.Region.CenterX())
		centerY := float64(result.Region.CenterY())
		if centerX < 0 || centerY < 0 {
			return SceneKeyFrameCropSummary{}, fmt.Errorf("scene: negative region center (%v, %v)", centerX, centerY)
		}
		if result.RegionScore < 0 {
			return SceneKeyFrameCropSummary{}, fmt.Errorf("scene: negative region score %v", result.RegionScore)
		}

		// Keep a centered crop window of the current target size inside
		// the frame.
		centerX = geometry.Clamp(centerX,
			float64(summary.CropWindowWidth)/2,
			float64(frameWidth)-float64(summary.CropWindowWidth)/2)
		centerY = geometry.Clamp(centerY,
			float64(summary.CropWindowHeight)/2,
			float64(frameHeight)-float64(summary.CropWindowHeight)/2)

		summary.HasSalientRegion = true
		summary.CenterMinX = math.Min(summary.CenterMinX, centerX)
		summary.CenterMaxX = math.Max(summary.CenterMaxX, centerX)
		summary.CenterMinY = math.Min(summary.CenterMinY, centerY)
		summary.CenterMaxY = math.Max(summary.CenterMaxY, centerY)
		summary.ScoreMin = math.Min(summary.ScoreMin, result.RegionScore)
		summary.ScoreMax = math.Max(summary.ScoreMax, result.RegionScore)

		summary.CropWindowWidth = max(summary.CropWindowWidth, result.Region.Width)
		summary.CropWindowHeight = max(summary.CropWindowHeight, result.Region.Height)

		summary.KeyFrameCompactInfos = append(summary.KeyFrameCompactInfos, KeyFrameCompactInfo{
			TimestampUS: result.TimestampUS,
			CenterX:     centerX,
			CenterY:     centerY,
			Score:       result.RegionScore,
		})

		if !result.RequiredRegionIsEmpty {
			summary.HasRequiredSalientRegion = true
			summary.RequiredRegionUnion = geometry.RectUnion(summary.RequiredRegionUnion, result.RequiredRegion)
		}
	}

	if len(results) > 0 {
		summary.FrameSuccessRate = float64(successes) / float64(len(results))
	}
	if summary.HasSalientRegion {
		summary.HorizontalMotionAmount = (summary.CenterMaxX - summary.CenterMinX) / float64(frameWidth)
		summary.VerticalMotionAmount = (summary.CenterMaxY - summary.CenterMinY) / float64(frameHeight)
	} else {
		summary.CenterMinX, summary.CenterMaxX = 0, 0
		summary.CenterMinY, summary.CenterMaxY = 0, 0
		summary.ScoreMin, summary.ScoreMax = 0, 0
	}

	return summary, nil
}
