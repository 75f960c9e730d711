// Package cropper turns the solved camera path into per-frame crop
// rectangles and, when pixel output is requested, resamples each frame into
// the crop window with an affine warp.
package cropper

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/motion"
	"github.com/autoframe/autoframe/pkg/path"
	"github.com/autoframe/autoframe/pkg/scene"
)

// ErrNoSolver indicates the cropper was built without a camera motion model.
var ErrNoSolver = errors.New("cropper: no camera motion model selected")

// resettable is implemented by stateful solvers that carry camera state
// across scenes.
type resettable interface {
	Reset()
}

// SceneCropper orchestrates a path solver over one scene's focus points.
type SceneCropper struct {
	solver path.Solver
}

// New returns a scene cropper driving the given solver. Exactly one solver
// must be configured.
func New(solver path.Solver) (*SceneCropper, error) {
	if solver == nil {
		return nil, ErrNoSolver
	}
	return &SceneCropper{solver: solver}, nil
}

// Result is the output of CropFrames.
type Result struct {
	// CropFrom holds one source-space crop rectangle per scene frame,
	// always populated so external renderers can reproduce the decision.
	CropFrom []geometry.Rect

	// Frames holds the warped pixel output, only when requested.
	Frames []gocv.Mat
}

// CropFrames computes the camera path for the scene and derives crop
// rectangles, optionally warping the buffered frames.
//
// Static borders previously detected at the top and bottom of the frame are
// excluded from the solve space; crop rectangles are shifted back down by
// the top border afterwards. When emitFrames is set, frames must hold one
// pixel buffer per timestamp.
func (c *SceneCropper) CropFrames(summary *scene.SceneKeyFrameCropSummary, timestampsUS []int64, focusFrames, priorFocusFrames []motion.FocusPointFrame, frames []gocv.Mat, emitFrames bool, topStaticBorder, bottomStaticBorder int, continueLastScene bool) (Result, error) {
	if len(timestampsUS) == 0 {
		return Result{}, errors.New("cropper: empty scene")
	}
	if len(focusFrames) != len(timestampsUS) {
		return Result{}, fmt.Errorf("cropper: %d focus point frames for %d timestamps", len(focusFrames), len(timestampsUS))
	}
	cropW := summary.CropWindowWidth
	cropH := summary.CropWindowHeight
	if cropW <= 0 || cropH <= 0 {
		return Result{}, fmt.Errorf("cropper: crop size %dx%d must be positive", cropW, cropH)
	}
	if cropW > summary.FrameWidth || cropH > summary.FrameHeight {
		return Result{}, fmt.Errorf("cropper: crop size %dx%d exceeds frame %dx%d",
			cropW, cropH, summary.FrameWidth, summary.FrameHeight)
	}
	if emitFrames && len(frames) == 0 {
		return Result{}, errors.New("cropper: pixel output requested but no frames were buffered")
	}
	if emitFrames && len(frames) != len(timestampsUS) {
		return Result{}, fmt.Errorf("cropper: %d frames for %d timestamps", len(frames), len(timestampsUS))
	}
	if topStaticBorder < 0 || bottomStaticBorder < 0 {
		return Result{}, errors.New("cropper: static borders must be non-negative")
	}

	if !continueLastScene {
		if r, ok := c.solver.(resettable); ok {
			r.Reset()
		}
	}

	// Solve in the frame area that excludes static letterbox borders.
	solveHeight := summary.FrameHeight - topStaticBorder - bottomStaticBorder
	effCropH := min(cropH, solveHeight)
	if solveHeight <= 0 {
		return Result{}, fmt.Errorf("cropper: static borders %d+%d consume the whole frame", topStaticBorder, bottomStaticBorder)
	}

	transforms, err := c.solver.ComputeCameraPath(focusFrames, priorFocusFrames, summary.FrameWidth, solveHeight, cropW, effCropH)
	if err != nil {
		return Result{}, err
	}
	if len(transforms) < len(priorFocusFrames)+len(focusFrames) {
		return Result{}, fmt.Errorf("cropper: solver returned %d transforms, want at least %d",
			len(transforms), len(priorFocusFrames)+len(focusFrames))
	}
	// Prior-scene transforms only seeded the fit.
	transforms = transforms[len(priorFocusFrames):]

	result := Result{CropFrom: make([]geometry.Rect, len(timestampsUS))}
	for i := range timestampsUS {
		// Re-anchor from center-aligned translation to a top-left crop
		// origin, then shift past the removed top border.
		x := transforms[i].Tx() + float64(summary.FrameWidth-cropW)/2
		y := transforms[i].Ty() + float64(solveHeight-effCropH)/2 + float64(topStaticBorder)
		rect := geometry.NewRect(int(math.Round(x)), int(math.Round(y)), cropW, cropH)
		rect.X = clampInt(rect.X, 0, summary.FrameWidth-cropW)
		rect.Y = clampInt(rect.Y, 0, summary.FrameHeight-cropH)
		result.CropFrom[i] = rect
	}

	if emitFrames {
		result.Frames = make([]gocv.Mat, len(frames))
		for i, src := range frames {
			dst, err := warpCrop(src, result.CropFrom[i])
			if err != nil {
				for _, m := range result.Frames[:i] {
					m.Close()
				}
				return Result{}, err
			}
			result.Frames[i] = dst
		}
	}
	return result, nil
}

// warpCrop resamples the crop rectangle out of src with a pure-translation
// affine warp.
func warpCrop(src gocv.Mat, crop geometry.Rect) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.Mat{}, errors.New("cropper: empty source frame")
	}
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	m.SetDoubleAt(0, 0, 1)
	m.SetDoubleAt(0, 2, -float64(crop.X))
	m.SetDoubleAt(1, 1, 1)
	m.SetDoubleAt(1, 2, -float64(crop.Y))

	dst := gocv.NewMat()
	gocv.WarpAffine(src, &dst, m, image.Pt(crop.Width, crop.Height))
	return dst, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
