// Package config loads the yaml run configuration for the autoframe CLI
// and resolves it into engine options.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/autoframe/autoframe/pkg/cropregion"
	"github.com/autoframe/autoframe/pkg/engine"
)

// RunConfig is the file-level configuration for a batch run. Zero values
// fall back to the engine defaults.
type RunConfig struct {
	TargetWidth    int    `yaml:"target_width"`
	TargetHeight   int    `yaml:"target_height"`
	TargetSizeType string `yaml:"target_size_type"`

	MaxSceneSize         int    `yaml:"max_scene_size"`
	PriorFrameBufferSize *int   `yaml:"prior_frame_buffer_size"`
	Solver               string `yaml:"solver"`
	ScoreAggregation     string `yaml:"score_aggregation"`
	UserHintsOnly        bool   `yaml:"user_hints_only"`

	Padding struct {
		BlurKernelSize     int     `yaml:"blur_kernel_size"`
		BackgroundContrast float64 `yaml:"background_contrast"`
		OverlayOpacity     float64 `yaml:"overlay_opacity"`
		SolidFraction      float64 `yaml:"solid_background_fraction"`
	} `yaml:"padding"`

	Motion struct {
		StabilizationThresholdPercent float64 `yaml:"stabilization_threshold_percent"`
		SnapCenterMaxDistancePercent  float64 `yaml:"snap_center_max_distance_percent"`
		AllowSweeping                 *bool   `yaml:"allow_sweeping"`
		SweepEntireFrame              *bool   `yaml:"sweep_entire_frame"`
		MinimumSuccessRate            float64 `yaml:"minimum_success_rate"`
	} `yaml:"motion"`
}

// Load reads and parses a yaml run configuration.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var rc RunConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &rc, nil
}

// Resolve merges the file values over the engine defaults. Validation is
// left to engine.New.
func (rc *RunConfig) Resolve() (engine.Options, error) {
	opts := engine.DefaultOptions()

	if rc.TargetWidth > 0 {
		opts.TargetWidth = rc.TargetWidth
	}
	if rc.TargetHeight > 0 {
		opts.TargetHeight = rc.TargetHeight
	}
	if rc.TargetSizeType != "" {
		t, err := parseTargetSizeType(rc.TargetSizeType)
		if err != nil {
			return engine.Options{}, err
		}
		opts.TargetSizeType = t
	}
	if rc.MaxSceneSize > 0 {
		opts.MaxSceneSize = rc.MaxSceneSize
	}
	if rc.PriorFrameBufferSize != nil {
		opts.PriorFrameBufferSize = *rc.PriorFrameBufferSize
	}
	if rc.Solver != "" {
		s, err := parseSolver(rc.Solver)
		if err != nil {
			return engine.Options{}, err
		}
		opts.Solver = s
	}
	if rc.ScoreAggregation != "" {
		a, err := parseAggregation(rc.ScoreAggregation)
		if err != nil {
			return engine.Options{}, err
		}
		opts.ScoreAggregation = a
	}
	opts.UserHintsOnly = rc.UserHintsOnly

	if rc.Padding.BlurKernelSize > 0 {
		opts.Padding.BlurKernelSize = rc.Padding.BlurKernelSize
	}
	if rc.Padding.BackgroundContrast > 0 {
		opts.Padding.BackgroundContrast = rc.Padding.BackgroundContrast
	}
	if rc.Padding.OverlayOpacity > 0 {
		opts.Padding.OverlayOpacity = rc.Padding.OverlayOpacity
	}
	if rc.Padding.SolidFraction > 0 {
		opts.SolidBackgroundPaddingFraction = rc.Padding.SolidFraction
	}

	if rc.Motion.StabilizationThresholdPercent > 0 {
		opts.Motion.MotionStabilizationThresholdPercent = rc.Motion.StabilizationThresholdPercent
	}
	if rc.Motion.SnapCenterMaxDistancePercent > 0 {
		opts.Motion.SnapCenterMaxDistancePercent = rc.Motion.SnapCenterMaxDistancePercent
	}
	if rc.Motion.AllowSweeping != nil {
		opts.Motion.AllowSweeping = *rc.Motion.AllowSweeping
	}
	if rc.Motion.SweepEntireFrame != nil {
		opts.Motion.SweepEntireFrame = *rc.Motion.SweepEntireFrame
	}
	if rc.Motion.MinimumSuccessRate > 0 {
		opts.Motion.MinimumSuccessRate = rc.Motion.MinimumSuccessRate
	}
	return opts, nil
}

func parseTargetSizeType(name string) (engine.TargetSizeType, error) {
	switch name {
	case "use_target_dimension":
		return engine.UseTargetDimension, nil
	case "keep_original_width":
		return engine.KeepOriginalWidth, nil
	case "keep_original_height":
		return engine.KeepOriginalHeight, nil
	case "maximize_target_dimension":
		return engine.MaximizeTargetDimension, nil
	default:
		return 0, fmt.Errorf("config: unknown target size type %q", name)
	}
}

func parseSolver(name string) (engine.SolverType, error) {
	switch name {
	case "kinematic":
		return engine.SolverKinematic, nil
	case "polynomial":
		return engine.SolverPolynomial, nil
	default:
		return 0, fmt.Errorf("config: unknown solver %q", name)
	}
}

func parseAggregation(name string) (cropregion.ScoreAggregation, error) {
	switch name {
	case "maximum":
		return cropregion.AggregateMaximum, nil
	case "sum_required":
		return cropregion.AggregateSumRequired, nil
	case "sum_all":
		return cropregion.AggregateSumAll, nil
	case "constant":
		return cropregion.AggregateConstant, nil
	default:
		return 0, fmt.Errorf("config: unknown score aggregation %q", name)
	}
}
