package padding

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/autoframe/autoframe/pkg/geometry"
)

var (
	// ErrInvalidInputSize is returned for non-positive input dimensions.
	ErrInvalidInputSize = errors.New("padding: input dimensions must be positive")

	// ErrInvalidAspect is returned for a non-positive target aspect ratio.
	ErrInvalidAspect = errors.New("padding: target aspect ratio must be positive")

	// ErrFrameSizeMismatch is returned when a frame handed to Render does not
	// match the dimensions the generator was built for.
	ErrFrameSizeMismatch = errors.New("padding: frame size does not match generator input size")
)

// EffectOptions controls how the padded background is rendered when no solid
// color is available. The blurred-source path scales a copy of the frame to
// fill the canvas, blurs it, darkens it with a linear contrast multiply, and
// alpha-blends it toward black.
type EffectOptions struct {
	// BlurKernelSize is the Gaussian kernel width used on the background
	// strips. Even values are bumped to the next odd value.
	BlurKernelSize int `json:"blur_kernel_size"`

	// BackgroundContrast scales background intensity, 1 leaves it unchanged.
	BackgroundContrast float64 `json:"background_contrast"`

	// OverlayOpacity blends the background toward black, 0 disables the
	// overlay and 1 yields solid black.
	OverlayOpacity float64 `json:"overlay_opacity"`
}

// DefaultEffectOptions returns the blur/dim settings used when the caller
// does not override them.
func DefaultEffectOptions() EffectOptions {
	return EffectOptions{
		BlurKernelSize:     200,
		BackgroundContrast: 0.6,
		OverlayOpacity:     0.6,
	}
}

// Validate checks option ranges.
func (o EffectOptions) Validate() error {
	if o.BlurKernelSize <= 0 {
		return fmt.Errorf("padding: blur kernel size must be positive, got %d", o.BlurKernelSize)
	}
	if o.BackgroundContrast <= 0 || o.BackgroundContrast > 1 {
		return fmt.Errorf("padding: background contrast must be in (0, 1], got %v", o.BackgroundContrast)
	}
	if o.OverlayOpacity < 0 || o.OverlayOpacity > 1 {
		return fmt.Errorf("padding: overlay opacity must be in [0, 1], got %v", o.OverlayOpacity)
	}
	return nil
}

// EffectGenerator pads frames of a fixed input size out to a fixed target
// aspect ratio. The padding axis, canvas size, and foreground placement are
// decided once at construction so every frame in a scene renders the same
// way.
type EffectGenerator struct {
	inputWidth  int
	inputHeight int
	outWidth    int
	outHeight   int
	foreground  geometry.Rect
	verticalPad bool
	opts        EffectOptions
}

// NewEffectGenerator sizes the output canvas for the given input dimensions
// and target aspect ratio. When the input is wider than the target the
// canvas keeps the input width and grows in height (bars above and below);
// otherwise it keeps the input height and grows in width. With scaleToEven
// set, both canvas dimensions are rounded down to even values so the result
// stays encodable with chroma-subsampled formats.
func NewEffectGenerator(inputWidth, inputHeight int, targetAspect float64, scaleToEven bool, opts EffectOptions) (*EffectGenerator, error) {
	if inputWidth <= 0 || inputHeight <= 0 {
		return nil, ErrInvalidInputSize
	}
	if targetAspect <= 0 {
		return nil, ErrInvalidAspect
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	g := &EffectGenerator{
		inputWidth:  inputWidth,
		inputHeight: inputHeight,
		opts:        opts,
	}

	inputAspect := float64(inputWidth) / float64(inputHeight)
	if inputAspect > targetAspect {
		g.verticalPad = true
		g.outWidth = inputWidth
		g.outHeight = int(math.Round(float64(inputWidth) / targetAspect))
	} else {
		g.outWidth = int(math.Round(float64(inputHeight) * targetAspect))
		g.outHeight = inputHeight
	}
	if scaleToEven {
		g.outWidth &^= 1
		g.outHeight &^= 1
	}
	if g.outWidth <= 0 || g.outHeight <= 0 {
		return nil, ErrInvalidInputSize
	}

	// Fit the foreground inside the canvas preserving its aspect, centered
	// along the padded axis. The even rounding above can shave a pixel off
	// the shared axis, so the foreground is rescaled rather than copied.
	if g.verticalPad {
		fgW := g.outWidth
		fgH := int(math.Round(float64(fgW) * float64(inputHeight) / float64(inputWidth)))
		if fgH > g.outHeight {
			fgH = g.outHeight
		}
		g.foreground = geometry.Rect{X: 0, Y: (g.outHeight - fgH) / 2, Width: fgW, Height: fgH}
	} else {
		fgH := g.outHeight
		fgW := int(math.Round(float64(fgH) * float64(inputWidth) / float64(inputHeight)))
		if fgW > g.outWidth {
			fgW = g.outWidth
		}
		g.foreground = geometry.Rect{X: (g.outWidth - fgW) / 2, Y: 0, Width: fgW, Height: fgH}
	}

	return g, nil
}

// OutputSize returns the padded canvas dimensions.
func (g *EffectGenerator) OutputSize() (width, height int) {
	return g.outWidth, g.outHeight
}

// ComputeOutputLocation returns where the foreground frame lands on the
// padded canvas.
func (g *EffectGenerator) ComputeOutputLocation() geometry.Rect {
	return g.foreground
}

// Render pads one frame. When background is non-nil the bars are filled with
// that solid color; otherwise they are filled with a blurred, dimmed copy of
// the frame. The caller owns the returned Mat.
func (g *EffectGenerator) Render(frame gocv.Mat, background *[3]uint8) (gocv.Mat, error) {
	if frame.Cols() != g.inputWidth || frame.Rows() != g.inputHeight {
		return gocv.Mat{}, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrFrameSizeMismatch, frame.Cols(), frame.Rows(), g.inputWidth, g.inputHeight)
	}

	canvas := gocv.NewMatWithSize(g.outHeight, g.outWidth, frame.Type())

	if background != nil {
		// gocv Mats are BGR ordered.
		canvas.SetTo(gocv.NewScalar(
			float64(background[2]), float64(background[1]), float64(background[0]), 0))
	} else if err := g.renderBlurredBackground(frame, &canvas); err != nil {
		canvas.Close()
		return gocv.Mat{}, err
	}

	fg := g.foreground
	region := canvas.Region(image.Rect(fg.X, fg.Y, fg.X+fg.Width, fg.Y+fg.Height))
	defer region.Close()
	if fg.Width == g.inputWidth && fg.Height == g.inputHeight {
		frame.CopyTo(&region)
	} else {
		gocv.Resize(frame, &region, image.Pt(fg.Width, fg.Height), 0, 0, gocv.InterpolationArea)
	}

	return canvas, nil
}

// renderBlurredBackground fills the canvas with a center-cropped, scaled-up
// copy of the frame, then blurs the bar strips and darkens the background.
// The foreground paste in Render covers the center afterwards.
func (g *EffectGenerator) renderBlurredBackground(frame gocv.Mat, canvas *gocv.Mat) error {
	// Scale the source to cover the canvas, cropping the overflow.
	scale := math.Max(
		float64(g.outWidth)/float64(g.inputWidth),
		float64(g.outHeight)/float64(g.inputHeight))
	cropW := int(math.Round(float64(g.outWidth) / scale))
	cropH := int(math.Round(float64(g.outHeight) / scale))
	cropW = min(cropW, g.inputWidth)
	cropH = min(cropH, g.inputHeight)
	x0 := (g.inputWidth - cropW) / 2
	y0 := (g.inputHeight - cropH) / 2

	src := frame.Region(image.Rect(x0, y0, x0+cropW, y0+cropH))
	defer src.Close()
	gocv.Resize(src, canvas, image.Pt(g.outWidth, g.outHeight), 0, 0, gocv.InterpolationLinear)

	// Only the bar strips stay visible, so only they get blurred.
	k := g.opts.BlurKernelSize | 1
	fg := g.foreground
	var strips []image.Rectangle
	if g.verticalPad {
		strips = append(strips,
			image.Rect(0, 0, g.outWidth, fg.Y),
			image.Rect(0, fg.Y+fg.Height, g.outWidth, g.outHeight))
	} else {
		strips = append(strips,
			image.Rect(0, 0, fg.X, g.outHeight),
			image.Rect(fg.X+fg.Width, 0, g.outWidth, g.outHeight))
	}
	for _, r := range strips {
		if r.Empty() {
			continue
		}
		strip := canvas.Region(r)
		gocv.GaussianBlur(strip, &strip, image.Pt(k, k), 0, 0, gocv.BorderDefault)
		strip.Close()
	}

	if g.opts.BackgroundContrast < 1 {
		canvas.ConvertToWithParams(canvas, gocv.MatTypeCV8UC3, float32(g.opts.BackgroundContrast), 0)
	}
	if g.opts.OverlayOpacity > 0 {
		black := gocv.NewMatWithSize(g.outHeight, g.outWidth, canvas.Type())
		defer black.Close()
		gocv.AddWeighted(*canvas, 1-g.opts.OverlayOpacity, black, g.opts.OverlayOpacity, 0, canvas)
	}
	return nil
}
