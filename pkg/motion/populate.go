package motion

import (
	"errors"
	"fmt"

	"github.com/autoframe/autoframe/pkg/interp"
	"github.com/autoframe/autoframe/pkg/scene"
)

// minTrackingScore keeps tracking weights away from zero so no frame ends up
// with a degenerate zero-weight focus point.
const minTrackingScore = 1e-4

// populateFocusPointFrames expands the chosen motion variant into one
// FocusPointFrame per output frame.
func (a *Analyzer) populateFocusPointFrames(summary *scene.SceneKeyFrameCropSummary, motion SceneCameraMotion, frameTimestampsUS []int64, isKeyFrame []bool) ([]FocusPointFrame, error) {
	switch motion.Kind {
	case Steady:
		return a.populateSteady(summary, motion.Steady, frameTimestampsUS, isKeyFrame)
	case Sweeping:
		return a.populateSweeping(summary, motion.Sweeping, frameTimestampsUS, isKeyFrame)
	case Tracking:
		return a.populateTracking(summary, frameTimestampsUS, isKeyFrame)
	default:
		return nil, fmt.Errorf("motion: unknown camera motion kind %d", motion.Kind)
	}
}

func (a *Analyzer) populateSteady(summary *scene.SceneKeyFrameCropSummary, steady SteadyMotion, frameTimestampsUS []int64, isKeyFrame []bool) ([]FocusPointFrame, error) {
	normX := steady.X / float64(summary.FrameWidth)
	normY := steady.Y / float64(summary.FrameHeight)
	points := a.layoutFocusPoints(summary, normX, normY, a.opts.MaximumSalientPointWeight)

	frames := make([]FocusPointFrame, len(frameTimestampsUS))
	for i, ts := range frameTimestampsUS {
		frames[i] = FocusPointFrame{TimestampUS: ts, IsKeyFrame: isKeyFrame[i], Points: points}
	}
	return frames, nil
}

func (a *Analyzer) populateSweeping(summary *scene.SceneKeyFrameCropSummary, sweep SweepingMotion, frameTimestampsUS []int64, isKeyFrame []bool) ([]FocusPointFrame, error) {
	n := len(frameTimestampsUS)
	frames := make([]FocusPointFrame, n)
	for i, ts := range frameTimestampsUS {
		fraction := 0.0
		if n > 1 {
			fraction = float64(i) / float64(n-1)
		}
		x := interp.Lerp(sweep.StartX, sweep.EndX, fraction) / float64(summary.FrameWidth)
		y := interp.Lerp(sweep.StartY, sweep.EndY, fraction) / float64(summary.FrameHeight)
		frames[i] = FocusPointFrame{
			TimestampUS: ts,
			IsKeyFrame:  isKeyFrame[i],
			Points:      []FocusPoint{a.focusPoint(x, y, a.opts.MaximumSalientPointWeight)},
		}
	}
	return frames, nil
}

func (a *Analyzer) populateTracking(summary *scene.SceneKeyFrameCropSummary, frameTimestampsUS []int64, isKeyFrame []bool) ([]FocusPointFrame, error) {
	if len(summary.KeyFrameCompactInfos) == 0 {
		return nil, errors.New("motion: tracking requires key frame compact infos")
	}

	// Three piecewise-linear functions over key frame time, relative to the
	// first key frame so the knot positions stay well conditioned.
	baseUS := summary.KeyFrameCompactInfos[0].TimestampUS
	centerX := interp.NewPiecewiseLinear()
	centerY := interp.NewPiecewiseLinear()
	score := interp.NewPiecewiseLinear()
	for _, info := range summary.KeyFrameCompactInfos {
		if info.CenterX < 0 || info.CenterY < 0 || info.Score < 0 {
			continue
		}
		t := float64(info.TimestampUS - baseUS)
		if err := centerX.AddPoint(t, info.CenterX); err != nil {
			return nil, err
		}
		if err := centerY.AddPoint(t, info.CenterY); err != nil {
			return nil, err
		}
		if err := score.AddPoint(t, info.Score); err != nil {
			return nil, err
		}
	}
	if centerX.NumPoints() == 0 {
		return nil, errors.New("motion: tracking requires at least one valid key frame center")
	}

	frames := make([]FocusPointFrame, len(frameTimestampsUS))
	maxWeight := 0.0
	for i, ts := range frameTimestampsUS {
		t := float64(ts - baseUS)
		normX := centerX.Evaluate(t) / float64(summary.FrameWidth)
		normY := centerY.Evaluate(t) / float64(summary.FrameHeight)
		weight := score.Evaluate(t)
		if weight < minTrackingScore {
			weight = minTrackingScore
		}
		frames[i] = FocusPointFrame{
			TimestampUS: ts,
			IsKeyFrame:  isKeyFrame[i],
			Points:      a.layoutFocusPoints(summary, normX, normY, weight),
		}
		if weight > maxWeight {
			maxWeight = weight
		}
	}

	// Rescale so the strongest focus point carries the configured weight.
	scale := a.opts.MaximumSalientPointWeight / maxWeight
	for i := range frames {
		for j := range frames[i].Points {
			frames[i].Points[j].Weight *= scale
		}
	}
	return frames, nil
}

// layoutFocusPoints places the focus points for one normalized location.
// When the crop window spans the full frame height the vertical extent is
// pinned with a top and a bottom point; the symmetric rule applies when it
// spans the full width. Otherwise a single centered point suffices.
func (a *Analyzer) layoutFocusPoints(summary *scene.SceneKeyFrameCropSummary, normX, normY, weight float64) []FocusPoint {
	switch {
	case summary.CropWindowHeight == summary.FrameHeight:
		return []FocusPoint{
			a.focusPoint(normX, 0, weight),
			a.focusPoint(normX, 1, weight),
		}
	case summary.CropWindowWidth == summary.FrameWidth:
		return []FocusPoint{
			a.focusPoint(0, normY, weight),
			a.focusPoint(1, normY, weight),
		}
	default:
		return []FocusPoint{a.focusPoint(normX, normY, weight)}
	}
}

func (a *Analyzer) focusPoint(normX, normY, weight float64) FocusPoint {
	return FocusPoint{
		NormX:       normX,
		NormY:       normY,
		Weight:      weight,
		BoundLeft:   a.opts.SalientPointBound,
		BoundRight:  a.opts.SalientPointBound,
		BoundTop:    a.opts.SalientPointBound,
		BoundBottom: a.opts.SalientPointBound,
	}
}
