// Package motion classifies a scene's camera behavior (steady, sweeping, or
// tracking) from the aggregated key frame summary and expands the decision
// into per-frame weighted focus points for the path solvers.
package motion

// Type tags the camera motion variant chosen for a scene.
type Type int

const (
	// Steady holds the camera at one look-at point for the whole scene.
	Steady Type = iota
	// Sweeping pans the camera linearly from a start to an end point.
	Sweeping
	// Tracking follows the key frame centers over time.
	Tracking
)

func (t Type) String() string {
	switch t {
	case Steady:
		return "steady"
	case Sweeping:
		return "sweeping"
	case Tracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// SteadyMotion is a fixed look-at point in source pixels.
type SteadyMotion struct {
	X float64
	Y float64
}

// SweepingMotion is a linear pan between two points in source pixels.
type SweepingMotion struct {
	StartX float64
	StartY float64
	EndX   float64
	EndY   float64
}

// SceneCameraMotion is the per-scene classification. Exactly one variant is
// meaningful, selected by Kind; Tracking carries no payload because the
// per-frame interpolation uses the key frame compact infos directly.
type SceneCameraMotion struct {
	Kind     Type
	Steady   SteadyMotion
	Sweeping SweepingMotion
}

// FocusPoint is a normalized location the crop window should keep visible,
// with an associated weight and optional bound margins.
type FocusPoint struct {
	NormX  float64 `json:"norm_x"`
	NormY  float64 `json:"norm_y"`
	Weight float64 `json:"weight"`

	BoundLeft   float64 `json:"bound_left"`
	BoundRight  float64 `json:"bound_right"`
	BoundTop    float64 `json:"bound_top"`
	BoundBottom float64 `json:"bound_bottom"`
}

// FocusPointFrame is the ordered set of focus points for one output frame.
type FocusPointFrame struct {
	TimestampUS int64
	IsKeyFrame  bool
	Points      []FocusPoint
}

// WeightedCenter returns the weight-averaged normalized focus location and
// the total weight. A frame without points returns ok=false.
func (f FocusPointFrame) WeightedCenter() (x, y, totalWeight float64, ok bool) {
	if len(f.Points) == 0 {
		return 0, 0, 0, false
	}
	for _, p := range f.Points {
		w := p.Weight
		if w <= 0 {
			w = 1e-6
		}
		x += p.NormX * w
		y += p.NormY * w
		totalWeight += w
	}
	return x / totalWeight, y / totalWeight, totalWeight, true
}
