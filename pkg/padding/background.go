package padding

import (
	"errors"

	"github.com/autoframe/autoframe/pkg/interp"
	"github.com/autoframe/autoframe/pkg/saliency"
)

var (
	// ErrNoBackgroundSamples is returned when an interpolator is requested
	// before any solid-background observation was added.
	ErrNoBackgroundSamples = errors.New("padding: no solid background samples in scene")

	// ErrInvalidFraction is returned for a solid-background fraction outside
	// (0, 1].
	ErrInvalidFraction = errors.New("padding: solid background fraction must be in (0, 1]")
)

type backgroundSample struct {
	timestampUS int64
	color       [3]uint8
}

// BackgroundSampler accumulates per-frame static features for a scene and
// decides whether the scene carries a stable solid background color. The
// scene qualifies when at least minFraction of the observed frames reported
// a solid color.
type BackgroundSampler struct {
	minFraction float64
	total       int
	samples     []backgroundSample
}

// NewBackgroundSampler returns a sampler that declares the scene
// solid-backed when at least minFraction of observed frames carry a solid
// color.
func NewBackgroundSampler(minFraction float64) (*BackgroundSampler, error) {
	if minFraction <= 0 || minFraction > 1 {
		return nil, ErrInvalidFraction
	}
	return &BackgroundSampler{minFraction: minFraction}, nil
}

// Add records the static features observed for one frame. Frames without a
// detected solid background still count toward the total.
func (s *BackgroundSampler) Add(f saliency.StaticFeatures) {
	s.total++
	if f.SolidBackground == nil {
		return
	}
	s.samples = append(s.samples, backgroundSample{
		timestampUS: f.TimestampUS,
		color:       *f.SolidBackground,
	})
}

// HasSolidBackground reports whether enough frames carried a solid color to
// treat the whole scene as solid-backed.
func (s *BackgroundSampler) HasSolidBackground() bool {
	if s.total == 0 {
		return false
	}
	return float64(len(s.samples))/float64(s.total) >= s.minFraction
}

// Interpolator builds a per-timestamp color function from the collected
// samples. Colors are interpolated channel-wise in CIELAB so transitions
// between slightly different background shades stay smooth.
func (s *BackgroundSampler) Interpolator() (*BackgroundColorInterpolator, error) {
	if len(s.samples) == 0 {
		return nil, ErrNoBackgroundSamples
	}
	bi := &BackgroundColorInterpolator{
		l: interp.NewPiecewiseLinear(),
		a: interp.NewPiecewiseLinear(),
		b: interp.NewPiecewiseLinear(),
	}
	for _, sm := range s.samples {
		lab := RGBToLab(sm.color[0], sm.color[1], sm.color[2])
		t := float64(sm.timestampUS)
		if err := bi.l.AddPoint(t, lab.L); err != nil {
			return nil, err
		}
		if err := bi.a.AddPoint(t, lab.A); err != nil {
			return nil, err
		}
		if err := bi.b.AddPoint(t, lab.B); err != nil {
			return nil, err
		}
	}
	return bi, nil
}

// BackgroundColorInterpolator evaluates the scene background color at an
// arbitrary timestamp. Timestamps outside the sampled range saturate to the
// first or last sample.
type BackgroundColorInterpolator struct {
	l, a, b *interp.PiecewiseLinear
}

// ColorAt returns the interpolated background color at the given timestamp
// as 8-bit sRGB.
func (bi *BackgroundColorInterpolator) ColorAt(timestampUS int64) [3]uint8 {
	t := float64(timestampUS)
	r, g, b := LabToRGB(Lab{
		L: bi.l.Evaluate(t),
		A: bi.a.Evaluate(t),
		B: bi.b.Evaluate(t),
	})
	return [3]uint8{r, g, b}
}
