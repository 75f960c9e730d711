// Package path turns per-frame focus points into a smooth camera trajectory:
// one 2x3 affine transform per frame describing where the crop window sits.
// Two interchangeable solvers exist: a batch polynomial regression and an
// incremental kinematic follower.
package path

import (
	"errors"

	"github.com/autoframe/autoframe/pkg/motion"
)

// Sentinel errors for the path package.
var (
	// ErrNoFocusPoints indicates no focus point exists across the prior
	// and current frames.
	ErrNoFocusPoints = errors.New("path: no focus points to fit")

	// ErrOutputExceedsInput indicates the crop size is larger than the
	// source frame.
	ErrOutputExceedsInput = errors.New("path: output dimensions exceed original dimensions")

	// ErrNotInitialized indicates State was read before any observation.
	ErrNotInitialized = errors.New("path: solver has no observations yet")
)

// Transform is a 2x3 affine matrix mapping output pixel coordinates to input
// pixel coordinates. Path solvers emit pure translations relative to the
// frame center; the scene cropper re-anchors them to top-left crop origins.
type Transform struct {
	M [2][3]float64
}

// Translation returns a pure-translation transform.
func Translation(tx, ty float64) Transform {
	return Transform{M: [2][3]float64{
		{1, 0, tx},
		{0, 1, ty},
	}}
}

// Tx returns the horizontal translation component.
func (t Transform) Tx() float64 { return t.M[0][2] }

// Ty returns the vertical translation component.
func (t Transform) Ty() float64 { return t.M[1][2] }

// Solver converts focus point frames into per-frame camera transforms.
// The returned slice covers the prior frames first, then the current scene
// frames; callers discard the prior entries.
type Solver interface {
	ComputeCameraPath(focus, prior []motion.FocusPointFrame, originalWidth, originalHeight, outputWidth, outputHeight int) ([]Transform, error)
}

// validateDims checks the shared solver preconditions.
func validateDims(originalWidth, originalHeight, outputWidth, outputHeight int) error {
	if originalWidth <= 0 || originalHeight <= 0 || outputWidth <= 0 || outputHeight <= 0 {
		return errors.New("path: dimensions must be positive")
	}
	if outputWidth > originalWidth || outputHeight > originalHeight {
		return ErrOutputExceedsInput
	}
	return nil
}

// maxDelta returns the largest legal center offset on one axis: the crop
// window must not exit the frame.
func maxDelta(original, output int) float64 {
	return float64(original-output) / 2
}
