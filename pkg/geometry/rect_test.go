package geometry

import "testing"

func TestClampRect_Idempotent(t *testing.T) {
	cases := []Rect{
		{X: -10, Y: -10, Width: 50, Height: 50},
		{X: 90, Y: 90, Width: 50, Height: 50},
		{X: 10, Y: 10, Width: 20, Height: 20},
		{X: 200, Y: 200, Width: 10, Height: 10},
		{X: 0, Y: 0, Width: 0, Height: 0},
	}
	for _, r := range cases {
		once, err := ClampRect(100, 100, r)
		if err != nil {
			t.Fatalf("ClampRect(%v): %v", r, err)
		}
		twice, err := ClampRect(100, 100, once)
		if err != nil {
			t.Fatalf("ClampRect(%v) second pass: %v", once, err)
		}
		if once != twice {
			t.Errorf("ClampRect not idempotent for %v: %v then %v", r, once, twice)
		}
		if once.Width < 0 || once.Height < 0 {
			t.Errorf("ClampRect(%v) produced negative size %v", r, once)
		}
	}
}

func TestClampRect_InvalidFrame(t *testing.T) {
	if _, err := ClampRect(0, 100, Rect{}); err == nil {
		t.Error("expected error for zero frame width")
	}
	if _, err := ClampRect(100, -1, Rect{}); err == nil {
		t.Error("expected error for negative frame height")
	}
}

func TestRectUnion_Associative(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 5, Width: 20, Height: 20}
	c := Rect{X: -5, Y: 8, Width: 12, Height: 4}

	left := RectUnion(RectUnion(a, b), c)
	right := RectUnion(a, RectUnion(b, c))
	if left != right {
		t.Errorf("union not associative: %v vs %v", left, right)
	}
	if RectUnion(a, b) != RectUnion(b, a) {
		t.Error("union not commutative")
	}
	for _, r := range []Rect{a, b, c} {
		if !left.Contains(r) {
			t.Errorf("union %v does not contain operand %v", left, r)
		}
	}
}

func TestRectUnion_EmptyOperand(t *testing.T) {
	a := Rect{X: 10, Y: 10, Width: 30, Height: 40}
	empty := Rect{X: 99, Y: 99}
	if got := RectUnion(a, empty); got != a {
		t.Errorf("union with empty = %v, want %v", got, a)
	}
	if got := RectUnion(empty, a); got != a {
		t.Errorf("union with empty (reversed) = %v, want %v", got, a)
	}
}

func TestScaleRect(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 30, Height: 40}
	got := ScaleRect(r, 2, 0.5)
	want := Rect{X: 20, Y: 10, Width: 60, Height: 20}
	if got != want {
		t.Errorf("ScaleRect = %v, want %v", got, want)
	}
}

func TestNormalizedRect_ToAbsolute(t *testing.T) {
	n := NormalizedRect{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.25}
	got, err := n.ToAbsolute(640, 480)
	if err != nil {
		t.Fatal(err)
	}
	want := Rect{X: 160, Y: 240, Width: 320, Height: 120}
	if got != want {
		t.Errorf("ToAbsolute = %v, want %v", got, want)
	}

	if _, err := n.ToAbsolute(0, 480); err == nil {
		t.Error("expected error for zero frame width")
	}
}

func TestExpandSegmentUnderConstraint(t *testing.T) {
	tests := []struct {
		name         string
		base         Segment
		candidate    Segment
		maxLength    int
		wantSegment  Segment
		wantCoverage CoverType
	}{
		{
			name:         "fully covered",
			base:         Segment{Left: 5, Right: 10},
			candidate:    Segment{Left: 3, Right: 8},
			maxLength:    10,
			wantSegment:  Segment{Left: 3, Right: 10},
			wantCoverage: FullyCovered,
		},
		{
			name:         "partially covered",
			base:         Segment{Left: 4, Right: 8},
			candidate:    Segment{Left: 0, Right: 16},
			maxLength:    10,
			wantSegment:  Segment{Left: 4, Right: 12},
			wantCoverage: PartiallyCovered,
		},
		{
			name:         "not covered",
			base:         Segment{Left: 6, Right: 14},
			candidate:    Segment{Left: 0, Right: 4},
			maxLength:    10,
			wantSegment:  Segment{Left: 6, Right: 14},
			wantCoverage: NotCovered,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cover, err := ExpandSegmentUnderConstraint(tt.candidate, tt.base, tt.maxLength, 0.5)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.wantSegment {
				t.Errorf("segment = %v, want %v", got, tt.wantSegment)
			}
			if cover != tt.wantCoverage {
				t.Errorf("cover = %v, want %v", cover, tt.wantCoverage)
			}
		})
	}
}

func TestExpandSegmentUnderConstraint_Inverted(t *testing.T) {
	_, _, err := ExpandSegmentUnderConstraint(Segment{Left: 5, Right: 2}, Segment{Left: 0, Right: 1}, 10, 0.5)
	if err == nil {
		t.Error("expected error for inverted candidate segment")
	}
}
