package geometry

import "errors"

// ErrInvertedSegment indicates a segment whose right endpoint precedes its
// left endpoint.
var ErrInvertedSegment = errors.New("geometry: segment endpoints are inverted")

// Segment is a 1-D closed interval [Left, Right] on one image axis.
type Segment struct {
	Left  int
	Right int
}

// Length returns the extent of the segment.
func (s Segment) Length() int {
	return s.Right - s.Left
}

// CoverType describes how much of a candidate segment ended up inside the
// combined segment after an expansion attempt.
type CoverType int

const (
	// FullyCovered means the combined segment contains the whole candidate.
	FullyCovered CoverType = iota
	// PartiallyCovered means only the centered minimum fraction of the
	// candidate fits.
	PartiallyCovered
	// NotCovered means the base segment was left unchanged.
	NotCovered
)

func (c CoverType) String() string {
	switch c {
	case FullyCovered:
		return "fully_covered"
	case PartiallyCovered:
		return "partially_covered"
	case NotCovered:
		return "not_covered"
	default:
		return "unknown"
	}
}

// ExpandSegmentUnderConstraint attempts to grow base to include candidate
// without exceeding maxLength.
//
// Three outcomes, tried in order:
//  1. The union of base and candidate fits within maxLength: the union is
//     adopted and the candidate is fully covered.
//  2. The union of base with only the centered minCoverageFraction of the
//     candidate fits: that smaller union is adopted and the candidate is
//     partially covered.
//  3. Neither fits: base is returned unchanged and the candidate is not
//     covered.
func ExpandSegmentUnderConstraint(candidate, base Segment, maxLength int, minCoverageFraction float64) (Segment, CoverType, error) {
	if candidate.Right < candidate.Left || base.Right < base.Left {
		return Segment{}, NotCovered, ErrInvertedSegment
	}
	if maxLength <= 0 {
		return Segment{}, NotCovered, errors.New("geometry: max length must be positive")
	}
	if minCoverageFraction < 0 || minCoverageFraction > 1 {
		return Segment{}, NotCovered, errors.New("geometry: min coverage fraction must be in [0, 1]")
	}

	full := unionSegments(base, candidate)
	if full.Length() <= maxLength {
		return full, FullyCovered, nil
	}

	// Shrink the candidate symmetrically about its center to the minimum
	// fraction that still counts as covering it.
	center := float64(candidate.Left+candidate.Right) / 2
	halfExtent := float64(candidate.Length()) * minCoverageFraction / 2
	reduced := Segment{
		Left:  int(center - halfExtent),
		Right: int(center + halfExtent),
	}
	partial := unionSegments(base, reduced)
	if partial.Length() <= maxLength {
		return partial, PartiallyCovered, nil
	}

	return base, NotCovered, nil
}

func unionSegments(a, b Segment) Segment {
	return Segment{Left: min(a.Left, b.Left), Right: max(a.Right, b.Right)}
}
