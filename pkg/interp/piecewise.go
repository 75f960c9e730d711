// Package interp provides the 1-D interpolation kernels used by the motion
// analyzer and the background color blender.
package interp

import (
	"errors"
	"sort"
)

// ErrUnsortedPoints indicates knots were added with decreasing x values.
var ErrUnsortedPoints = errors.New("interp: points must have non-decreasing x")

// PiecewiseLinear is a piecewise-linear function over a set of (x, y) knots.
// Evaluation saturates: inputs below the first knot return the first y,
// inputs past the last knot return the last y.
type PiecewiseLinear struct {
	xs []float64
	ys []float64
}

// NewPiecewiseLinear returns an empty function.
func NewPiecewiseLinear() *PiecewiseLinear {
	return &PiecewiseLinear{}
}

// AddPoint appends a knot. Knots must be added in non-decreasing x order.
func (f *PiecewiseLinear) AddPoint(x, y float64) error {
	if n := len(f.xs); n > 0 && x < f.xs[n-1] {
		return ErrUnsortedPoints
	}
	f.xs = append(f.xs, x)
	f.ys = append(f.ys, y)
	return nil
}

// NumPoints returns the number of knots.
func (f *PiecewiseLinear) NumPoints() int {
	return len(f.xs)
}

// Evaluate returns the interpolated value at x. With no knots the result is
// 0; with one knot the function is constant.
func (f *PiecewiseLinear) Evaluate(x float64) float64 {
	n := len(f.xs)
	if n == 0 {
		return 0
	}
	if x <= f.xs[0] {
		return f.ys[0]
	}
	if x >= f.xs[n-1] {
		return f.ys[n-1]
	}
	// First knot strictly greater than x; the segment starts one before.
	i := sort.SearchFloat64s(f.xs, x)
	if f.xs[i] == x {
		return f.ys[i]
	}
	x0, x1 := f.xs[i-1], f.xs[i]
	y0, y1 := f.ys[i-1], f.ys[i]
	if x1 == x0 {
		return y1
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
