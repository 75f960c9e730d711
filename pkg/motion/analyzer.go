package motion

import (
	"errors"
	"math"

	"github.com/autoframe/autoframe/internal/log"
	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/scene"
)

// ErrNoSceneFrames indicates a scene with zero output frames.
var ErrNoSceneFrames = errors.New("motion: scene has no frames")

// Analyzer classifies camera motion per scene. It keeps the small amount of
// cross-scene state the hysteresis rules need: the previous steady look-at
// point and the time salient content was last seen.
type Analyzer struct {
	opts Options

	hasPriorLookAt bool
	priorLookAtX   float64
	priorLookAtY   float64

	hasSeenSalient         bool
	lastSalientTimestampUS int64
}

// NewAnalyzer validates options and returns a camera motion analyzer.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{opts: opts}, nil
}

// AnalyzeScene decides the scene's camera motion and produces one
// FocusPointFrame per output frame. The summary's crop window may grow when
// a steady required region demands it.
func (a *Analyzer) AnalyzeScene(summary *scene.SceneKeyFrameCropSummary, frameTimestampsUS []int64, isKeyFrame []bool, hasSolidBackground bool) (SceneCameraMotion, []FocusPointFrame, error) {
	if len(frameTimestampsUS) == 0 {
		return SceneCameraMotion{}, nil, ErrNoSceneFrames
	}
	if len(isKeyFrame) != len(frameTimestampsUS) {
		return SceneCameraMotion{}, nil, errors.New("motion: key frame flags do not match frame timestamps")
	}

	motion, err := a.decideCameraMotion(summary, frameTimestampsUS, hasSolidBackground)
	if err != nil {
		return SceneCameraMotion{}, nil, err
	}

	frames, err := a.populateFocusPointFrames(summary, motion, frameTimestampsUS, isKeyFrame)
	if err != nil {
		return SceneCameraMotion{}, nil, err
	}
	return motion, frames, nil
}

func (a *Analyzer) decideCameraMotion(summary *scene.SceneKeyFrameCropSummary, frameTimestampsUS []int64, hasSolidBackground bool) (SceneCameraMotion, error) {
	sceneStartUS := frameTimestampsUS[0]
	sceneEndUS := frameTimestampsUS[len(frameTimestampsUS)-1]
	sceneSpanSec := float64(sceneEndUS-sceneStartUS) / 1e6

	// 1. No salient content: hold the camera. Reuse the previous look-at
	// point on a short gap, otherwise recenter.
	if !summary.HasSalientRegion {
		x := float64(summary.FrameWidth) / 2
		y := float64(summary.FrameHeight) / 2
		if a.hasSeenSalient && a.hasPriorLookAt &&
			sceneStartUS-a.lastSalientTimestampUS < a.opts.DurationBeforeCenteringUS {
			x, y = a.priorLookAtX, a.priorLookAtY
		}
		a.setPriorLookAt(x, y)
		log.Debug("scene has no salient region", "look_at_x", x, "look_at_y", y)
		return SceneCameraMotion{Kind: Steady, Steady: SteadyMotion{X: x, Y: y}}, nil
	}

	a.hasSeenSalient = true
	a.lastSalientTimestampUS = sceneEndUS

	// 2. Sweeping: content the crop cannot keep up with, over a long
	// enough scene with a real (non solid color) background.
	if a.opts.AllowSweeping && !hasSolidBackground &&
		summary.FrameSuccessRate < a.opts.MinimumSuccessRate &&
		sceneSpanSec >= a.opts.MinimumSceneSpanSec {
		sweep := a.decideSweepEndpoints(summary)
		a.setPriorLookAt(sweep.EndX, sweep.EndY)
		return SceneCameraMotion{Kind: Sweeping, Sweeping: sweep}, nil
	}

	// 3. Low motion or a single frame: steady at a solved look-at point.
	if (summary.HorizontalMotionAmount < a.opts.MotionStabilizationThresholdPercent &&
		summary.VerticalMotionAmount < a.opts.MotionStabilizationThresholdPercent) ||
		len(frameTimestampsUS) == 1 {
		look := a.decideSteadyLookAtRegion(summary)
		a.setPriorLookAt(look.X, look.Y)
		return SceneCameraMotion{Kind: Steady, Steady: look}, nil
	}

	// 4. Otherwise follow the key frame centers.
	if last, ok := lastValidCenter(summary.KeyFrameCompactInfos); ok {
		a.setPriorLookAt(last.CenterX, last.CenterY)
	}
	return SceneCameraMotion{Kind: Tracking}, nil
}

// decideSweepEndpoints picks the pan start and end. With SweepEntireFrame
// the pan runs edge to edge along the axis the crop window exceeds;
// otherwise it spans the observed center range.
func (a *Analyzer) decideSweepEndpoints(summary *scene.SceneKeyFrameCropSummary) SweepingMotion {
	if a.opts.SweepEntireFrame {
		if summary.CropWindowWidth > a.opts.TargetWidth {
			y := float64(summary.FrameHeight) / 2
			return SweepingMotion{StartX: 0, StartY: y, EndX: float64(summary.FrameWidth), EndY: y}
		}
		x := float64(summary.FrameWidth) / 2
		return SweepingMotion{StartX: x, StartY: 0, EndX: x, EndY: float64(summary.FrameHeight)}
	}
	return SweepingMotion{
		StartX: summary.CenterMinX,
		StartY: summary.CenterMinY,
		EndX:   summary.CenterMaxX,
		EndY:   summary.CenterMaxY,
	}
}

// decideSteadyLookAtRegion solves the fixed look-at point for a low-motion
// scene and grows the crop window when required content demands it.
func (a *Analyzer) decideSteadyLookAtRegion(summary *scene.SceneKeyFrameCropSummary) SteadyMotion {
	var x, y float64
	if summary.HasRequiredSalientRegion {
		union := summary.RequiredRegionUnion
		x = float64(union.CenterX())
		y = float64(union.CenterY())
		summary.CropWindowWidth = max(a.opts.TargetWidth, union.Width)
		summary.CropWindowHeight = max(a.opts.TargetHeight, union.Height)
	} else {
		x = (summary.CenterMinX + summary.CenterMaxX) / 2
		y = (summary.CenterMinY + summary.CenterMaxY) / 2
		summary.CropWindowWidth = a.opts.TargetWidth
		summary.CropWindowHeight = a.opts.TargetHeight

		frameCenterX := float64(summary.FrameWidth) / 2
		frameCenterY := float64(summary.FrameHeight) / 2
		if math.Abs(x-frameCenterX)/float64(summary.FrameWidth) <= a.opts.SnapCenterMaxDistancePercent &&
			math.Abs(y-frameCenterY)/float64(summary.FrameHeight) <= a.opts.SnapCenterMaxDistancePercent {
			x, y = frameCenterX, frameCenterY
		}
	}

	// A centered crop window of the chosen size must stay inside the frame.
	halfW := float64(summary.CropWindowWidth) / 2
	halfH := float64(summary.CropWindowHeight) / 2
	x = geometry.Clamp(x, halfW, float64(summary.FrameWidth)-halfW)
	y = geometry.Clamp(y, halfH, float64(summary.FrameHeight)-halfH)
	return SteadyMotion{X: x, Y: y}
}

func (a *Analyzer) setPriorLookAt(x, y float64) {
	a.priorLookAtX = x
	a.priorLookAtY = y
	a.hasPriorLookAt = true
}

func lastValidCenter(infos []scene.KeyFrameCompactInfo) (scene.KeyFrameCompactInfo, bool) {
	for i := len(infos) - 1; i >= 0; i-- {
		if infos[i].CenterX >= 0 && infos[i].CenterY >= 0 {
			return infos[i], true
		}
	}
	return scene.KeyFrameCompactInfo{}, false
}
