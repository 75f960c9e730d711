package interp

import (
	"math"
	"testing"
)

func TestPiecewiseLinear_Saturation(t *testing.T) {
	f := NewPiecewiseLinear()
	for i := 0; i <= 5; i++ {
		if err := f.AddPoint(float64(i), float64(i)); err != nil {
			t.Fatal(err)
		}
	}

	if got := f.Evaluate(-1); got != 0 {
		t.Errorf("Evaluate(-1) = %v, want 0 (saturate low)", got)
	}
	if got := f.Evaluate(6); got != 5 {
		t.Errorf("Evaluate(6) = %v, want 5 (saturate high)", got)
	}
	if got := f.Evaluate(4.5); math.Abs(got-4.5) > 1e-12 {
		t.Errorf("Evaluate(4.5) = %v, want 4.5", got)
	}
}

func TestPiecewiseLinear_ExactKnot(t *testing.T) {
	f := NewPiecewiseLinear()
	f.AddPoint(0, 10)
	f.AddPoint(2, 30)
	f.AddPoint(4, 20)

	if got := f.Evaluate(2); got != 30 {
		t.Errorf("Evaluate(2) = %v, want 30", got)
	}
	if got := f.Evaluate(3); math.Abs(got-25) > 1e-12 {
		t.Errorf("Evaluate(3) = %v, want 25", got)
	}
}

func TestPiecewiseLinear_Degenerate(t *testing.T) {
	f := NewPiecewiseLinear()
	if got := f.Evaluate(1); got != 0 {
		t.Errorf("empty function Evaluate = %v, want 0", got)
	}

	f.AddPoint(1, 7)
	if got := f.Evaluate(-100); got != 7 {
		t.Errorf("single-knot Evaluate = %v, want 7", got)
	}
	if got := f.Evaluate(100); got != 7 {
		t.Errorf("single-knot Evaluate = %v, want 7", got)
	}
}

func TestPiecewiseLinear_RejectsUnsorted(t *testing.T) {
	f := NewPiecewiseLinear()
	f.AddPoint(5, 1)
	if err := f.AddPoint(4, 2); err == nil {
		t.Error("expected error for decreasing x")
	}
}
