// Package geometry provides the integer rectangle math used throughout the
// reframing pipeline: clamping, unions, scaling, and normalized-coordinate
// conversion. All rectangles are axis-aligned and live in image space with
// the origin at the top-left corner.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFrameSize indicates a non-positive frame dimension.
var ErrInvalidFrameSize = errors.New("geometry: frame dimensions must be positive")

// Rect is an axis-aligned integer rectangle {x, y, width, height}.
// A Rect with zero width or height is empty but still positioned.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NormalizedRect is a rectangle whose coordinates are fractions of the frame
// size, each in [0, 1].
type NormalizedRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect returns a rectangle from a position and size.
func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Right returns the exclusive right edge.
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// CenterX returns the horizontal center using integer midpoint.
func (r Rect) CenterX() int {
	return r.X + r.Width/2
}

// CenterY returns the vertical center using integer midpoint.
func (r Rect) CenterY() int {
	return r.Y + r.Height/2
}

// Contains reports whether r fully contains other.
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// ToAbsolute converts a normalized rectangle to pixel coordinates within a
// frame of the given size, rounding to the nearest pixel.
func (n NormalizedRect) ToAbsolute(frameWidth, frameHeight int) (Rect, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return Rect{}, ErrInvalidFrameSize
	}
	return Rect{
		X:      int(math.Round(n.X * float64(frameWidth))),
		Y:      int(math.Round(n.Y * float64(frameHeight))),
		Width:  int(math.Round(n.Width * float64(frameWidth))),
		Height: int(math.Round(n.Height * float64(frameHeight))),
	}, nil
}

// RectUnion returns the smallest rectangle containing both a and b.
// An empty operand does not shrink the result: if exactly one operand is
// empty the other is returned unchanged.
func RectUnion(a, b Rect) Rect {
	if a.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return a
	}
	x := min(a.X, b.X)
	y := min(a.Y, b.Y)
	right := max(a.Right(), b.Right())
	bottom := max(a.Bottom(), b.Bottom())
	return Rect{X: x, Y: y, Width: right - x, Height: bottom - y}
}

// ClampRect limits a rectangle to the frame [0, width) x [0, height).
// The result never has negative size; a rectangle entirely outside the
// frame clamps to an empty rectangle on the nearest edge. ClampRect is
// idempotent.
func ClampRect(frameWidth, frameHeight int, r Rect) (Rect, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return Rect{}, ErrInvalidFrameSize
	}
	left := clampInt(r.X, 0, frameWidth)
	top := clampInt(r.Y, 0, frameHeight)
	right := clampInt(r.Right(), left, frameWidth)
	bottom := clampInt(r.Bottom(), top, frameHeight)
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}, nil
}

// ScaleRect scales a rectangle by independent horizontal and vertical
// factors, rounding each edge to the nearest pixel.
func ScaleRect(r Rect, scaleX, scaleY float64) Rect {
	left := float64(r.X) * scaleX
	top := float64(r.Y) * scaleY
	right := float64(r.Right()) * scaleX
	bottom := float64(r.Bottom()) * scaleY
	return Rect{
		X:      int(math.Round(left)),
		Y:      int(math.Round(top)),
		Width:  int(math.Round(right - left)),
		Height: int(math.Round(bottom - top)),
	}
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

// Clamp limits a float to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
