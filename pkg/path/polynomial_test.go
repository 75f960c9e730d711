package path

import (
	"math"
	"testing"

	"github.com/autoframe/autoframe/pkg/motion"
)

func TestPolynomialSolver_BoundClamp(t *testing.T) {
	s := NewPolynomialSolver()
	// Focus pinned at norm_x 0.99 of a 500-wide frame cropped to 100:
	// (0.99-0.5)*500 = 245 would exit the frame, so the shift clamps to
	// exactly 200.
	frames := steadyFocusFrames(10, 0.99, 0.5, 33_000)
	transforms, err := s.ComputeCameraPath(frames, nil, 500, 100, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(transforms) != 10 {
		t.Fatalf("transforms = %d, want 10", len(transforms))
	}
	for i, tr := range transforms {
		if math.Abs(tr.Tx()-200) > 1e-6 {
			t.Errorf("transform[%d].Tx = %v, want 200", i, tr.Tx())
		}
		if tr.Ty() != 0 {
			t.Errorf("transform[%d].Ty = %v, want 0 (axis not cropped)", i, tr.Ty())
		}
	}
}

func TestPolynomialSolver_CenteredFocusStaysCentered(t *testing.T) {
	s := NewPolynomialSolver()
	frames := steadyFocusFrames(8, 0.5, 0.5, 33_000)
	transforms, err := s.ComputeCameraPath(frames, nil, 640, 480, 320, 480)
	if err != nil {
		t.Fatal(err)
	}
	for i, tr := range transforms {
		if math.Abs(tr.Tx()) > 1e-2 {
			t.Errorf("transform[%d].Tx = %v, want 0", i, tr.Tx())
		}
	}
}

func TestPolynomialSolver_FollowsMovingFocus(t *testing.T) {
	s := NewPolynomialSolver()
	// Focus drifts from 0.3 to 0.7 across the scene; the fitted path must
	// move right overall.
	n := 20
	frames := make([]motion.FocusPointFrame, n)
	for i := range frames {
		x := 0.3 + 0.4*float64(i)/float64(n-1)
		frames[i] = motion.FocusPointFrame{
			TimestampUS: int64(i) * 33_000,
			Points:      []motion.FocusPoint{{NormX: x, NormY: 0.5, Weight: 10}},
		}
	}
	transforms, err := s.ComputeCameraPath(frames, nil, 1000, 100, 400, 100)
	if err != nil {
		t.Fatal(err)
	}
	first := transforms[0].Tx()
	last := transforms[n-1].Tx()
	if last <= first {
		t.Errorf("path does not follow focus: first %v, last %v", first, last)
	}
	for _, tr := range transforms {
		if math.Abs(tr.Tx()) > 300+1e-9 {
			t.Errorf("shift %v exceeds the 300px bound", tr.Tx())
		}
	}
}

func TestPolynomialSolver_ContinuityAcrossForcedFlush(t *testing.T) {
	s := NewPolynomialSolver()
	const normX = 0.7

	before := steadyFocusFrames(12, normX, 0.5, 33_000)
	t1, err := s.ComputeCameraPath(before, nil, 500, 100, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	lastShift := t1[len(t1)-1].Tx()

	// Forced flush: the tail window of the previous scene seeds the next
	// fit at negative indices.
	prior := before[len(before)-4:]
	after := steadyFocusFrames(12, normX, 0.5, 33_000)
	t2, err := s.ComputeCameraPath(after, prior, 500, 100, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(t2) != len(prior)+len(after) {
		t.Fatalf("transforms = %d, want %d (prior + current)", len(t2), len(prior)+len(after))
	}
	firstCurrent := t2[len(prior)].Tx()
	if math.Abs(firstCurrent-lastShift) > 1.0 {
		t.Errorf("discontinuity across flush: %v then %v", lastShift, firstCurrent)
	}
}

func TestPolynomialSolver_Preconditions(t *testing.T) {
	s := NewPolynomialSolver()
	if _, err := s.ComputeCameraPath(nil, nil, 500, 100, 100, 100); err == nil {
		t.Error("expected error with no focus point frames")
	}
	if _, err := s.ComputeCameraPath(steadyFocusFrames(3, 0.5, 0.5, 33_000), nil, 100, 100, 500, 100); err == nil {
		t.Error("expected error when output exceeds input")
	}
	// Frames exist but carry no points at all.
	empty := []motion.FocusPointFrame{{TimestampUS: 0}, {TimestampUS: 33_000}}
	if _, err := s.ComputeCameraPath(empty, nil, 500, 100, 100, 100); err == nil {
		t.Error("expected error with empty focus point frames")
	}
}
