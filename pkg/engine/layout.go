package engine

import (
	"fmt"
	"math"
)

// frameLayout is the geometry resolved once per stream from the first
// frame's dimensions: the emitted output size and the nominal crop window
// inside the source.
type frameLayout struct {
	frameWidth  int
	frameHeight int

	outputWidth  int
	outputHeight int

	cropWidth  int
	cropHeight int
}

// resolveLayout derives the output and crop-window dimensions for the given
// input size. Derived dimensions are rounded down to even numbers so the
// output stays encodable with chroma-subsampled formats.
func resolveLayout(frameWidth, frameHeight int, opts Options) (frameLayout, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return frameLayout{}, fmt.Errorf("engine: frame size %dx%d must be positive", frameWidth, frameHeight)
	}

	targetAspect := float64(opts.TargetWidth) / float64(opts.TargetHeight)
	l := frameLayout{frameWidth: frameWidth, frameHeight: frameHeight}

	switch opts.TargetSizeType {
	case UseTargetDimension:
		if opts.TargetWidth > frameWidth || opts.TargetHeight > frameHeight {
			return frameLayout{}, fmt.Errorf("engine: target size %dx%d exceeds frame size %dx%d",
				opts.TargetWidth, opts.TargetHeight, frameWidth, frameHeight)
		}
		l.outputWidth = opts.TargetWidth
		l.outputHeight = opts.TargetHeight
	case KeepOriginalWidth:
		l.outputWidth = frameWidth &^ 1
		l.outputHeight = evenRound(float64(l.outputWidth) / targetAspect)
	case KeepOriginalHeight:
		l.outputHeight = frameHeight &^ 1
		l.outputWidth = evenRound(float64(l.outputHeight) * targetAspect)
	case MaximizeTargetDimension:
		frameAspect := float64(frameWidth) / float64(frameHeight)
		if frameAspect > targetAspect {
			l.outputHeight = frameHeight &^ 1
			l.outputWidth = evenRound(float64(l.outputHeight) * targetAspect)
		} else {
			l.outputWidth = frameWidth &^ 1
			l.outputHeight = evenRound(float64(l.outputWidth) / targetAspect)
		}
	default:
		return frameLayout{}, fmt.Errorf("engine: unknown target size type %d", opts.TargetSizeType)
	}
	if l.outputWidth <= 0 || l.outputHeight <= 0 {
		return frameLayout{}, fmt.Errorf("engine: resolved output size %dx%d is empty", l.outputWidth, l.outputHeight)
	}

	// The crop window fills the source along one axis at the output aspect
	// ratio. The cropped pixels are resized to the output size afterwards.
	outputAspect := float64(l.outputWidth) / float64(l.outputHeight)
	frameAspect := float64(frameWidth) / float64(frameHeight)
	if frameAspect >= outputAspect {
		l.cropHeight = frameHeight
		l.cropWidth = int(math.Round(float64(frameHeight) * outputAspect))
	} else {
		l.cropWidth = frameWidth
		l.cropHeight = int(math.Round(float64(frameWidth) / outputAspect))
	}
	if l.cropWidth > frameWidth {
		l.cropWidth = frameWidth
	}
	if l.cropHeight > frameHeight {
		l.cropHeight = frameHeight
	}
	if l.cropWidth <= 0 || l.cropHeight <= 0 {
		return frameLayout{}, fmt.Errorf("engine: crop window %dx%d is empty for frame %dx%d",
			l.cropWidth, l.cropHeight, frameWidth, frameHeight)
	}
	return l, nil
}

func evenRound(v float64) int {
	return int(math.Round(v)) &^ 1
}
