package motion

import "fmt"

// Options holds the camera motion thresholds. Target sizes are the nominal
// crop window dimensions in source pixels.
type Options struct {
	TargetWidth  int `json:"target_width"`
	TargetHeight int `json:"target_height"`

	// MotionStabilizationThresholdPercent is the normalized center spread
	// below which a scene is held steady instead of tracked.
	MotionStabilizationThresholdPercent float64 `json:"motion_stabilization_threshold_percent"`

	// SnapCenterMaxDistancePercent snaps a steady look-at point to the
	// exact frame center when it is already within this normalized
	// distance of it, preventing micro-jitter around true center.
	SnapCenterMaxDistancePercent float64 `json:"snap_center_max_distance_percent"`

	// === Sweeping ===
	AllowSweeping    bool `json:"allow_sweeping"`
	SweepEntireFrame bool `json:"sweep_entire_frame"`

	// MinimumSuccessRate is the frame success rate below which a scene
	// becomes a sweeping candidate.
	MinimumSuccessRate float64 `json:"minimum_success_rate"`

	// MinimumSceneSpanSec is the shortest scene that may sweep.
	MinimumSceneSpanSec float64 `json:"minimum_scene_span_sec"`

	// DurationBeforeCenteringUS keeps the previous steady look-at point
	// for salient-free scenes that follow a salient scene within this
	// window, avoiding a jarring recenter on short gaps.
	DurationBeforeCenteringUS int64 `json:"duration_before_centering_us"`

	// MaximumSalientPointWeight is the weight given to steady focus
	// points and to the strongest tracking focus point after rescaling.
	MaximumSalientPointWeight float64 `json:"maximum_salient_point_weight"`

	// SalientPointBound is the margin each focus point requests on all
	// four sides, as a fraction of the crop window.
	SalientPointBound float64 `json:"salient_point_bound"`
}

// DefaultOptions returns recommended thresholds. Target sizes must still be
// set by the caller.
func DefaultOptions() Options {
	return Options{
		MotionStabilizationThresholdPercent: 0.5,
		SnapCenterMaxDistancePercent:        0.1,
		AllowSweeping:                       true,
		SweepEntireFrame:                    true,
		MinimumSuccessRate:                  0.4,
		MinimumSceneSpanSec:                 1.0,
		DurationBeforeCenteringUS:           1_000_000,
		MaximumSalientPointWeight:           100.0,
		SalientPointBound:                   0.4,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.TargetWidth <= 0 || o.TargetHeight <= 0 {
		return fmt.Errorf("motion: target size %dx%d must be positive", o.TargetWidth, o.TargetHeight)
	}
	if o.MotionStabilizationThresholdPercent < 0 || o.MotionStabilizationThresholdPercent > 1 {
		return fmt.Errorf("motion: stabilization threshold %v must be in [0, 1]", o.MotionStabilizationThresholdPercent)
	}
	if o.SnapCenterMaxDistancePercent < 0 || o.SnapCenterMaxDistancePercent > 1 {
		return fmt.Errorf("motion: snap distance %v must be in [0, 1]", o.SnapCenterMaxDistancePercent)
	}
	if o.MinimumSuccessRate < 0 || o.MinimumSuccessRate > 1 {
		return fmt.Errorf("motion: minimum success rate %v must be in [0, 1]", o.MinimumSuccessRate)
	}
	if o.DurationBeforeCenteringUS < 0 {
		return fmt.Errorf("motion: duration before centering %d must be non-negative", o.DurationBeforeCenteringUS)
	}
	if o.MaximumSalientPointWeight <= 0 {
		return fmt.Errorf("motion: maximum salient point weight %v must be positive", o.MaximumSalientPointWeight)
	}
	return nil
}
