// Package cropregion computes, for one key frame, the single crop rectangle
// that covers all required detections and as many non-required detections as
// fit under the target-size constraint.
package cropregion

import (
	"errors"
	"fmt"
)

// ScoreAggregation selects how per-detection scores fold into the final
// region score.
type ScoreAggregation int

const (
	// AggregateMaximum keeps the highest contributing score.
	AggregateMaximum ScoreAggregation = iota
	// AggregateSumRequired sums scores of required detections only.
	AggregateSumRequired
	// AggregateSumAll sums scores of every contributing detection.
	AggregateSumAll
	// AggregateConstant yields 1.0 once any detection contributes.
	AggregateConstant
)

func (s ScoreAggregation) String() string {
	switch s {
	case AggregateMaximum:
		return "maximum"
	case AggregateSumRequired:
		return "sum_required"
	case AggregateSumAll:
		return "sum_all"
	case AggregateConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// Options configures the per-key-frame crop solver.
type Options struct {
	// TargetWidth and TargetHeight give the nominal crop size in source
	// pixels. Required detections may force a larger working size.
	TargetWidth  int `json:"target_width"`
	TargetHeight int `json:"target_height"`

	// ScoreAggregation folds detection scores into the region score.
	ScoreAggregation ScoreAggregation `json:"score_aggregation"`

	// NonRequiredRegionMinCoverageFraction is the centered fraction of a
	// non-required detection that must fit for the region to expand toward
	// it at all.
	NonRequiredRegionMinCoverageFraction float64 `json:"non_required_region_min_coverage_fraction"`
}

// DefaultOptions returns the recommended solver configuration. Target size
// must still be set by the caller.
func DefaultOptions() Options {
	return Options{
		ScoreAggregation:                     AggregateConstant,
		NonRequiredRegionMinCoverageFraction: 0.5,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.TargetWidth <= 0 || o.TargetHeight <= 0 {
		return fmt.Errorf("cropregion: target size %dx%d must be positive", o.TargetWidth, o.TargetHeight)
	}
	if o.NonRequiredRegionMinCoverageFraction < 0 || o.NonRequiredRegionMinCoverageFraction > 1 {
		return errors.New("cropregion: min coverage fraction must be in [0, 1]")
	}
	switch o.ScoreAggregation {
	case AggregateMaximum, AggregateSumRequired, AggregateSumAll, AggregateConstant:
	default:
		return fmt.Errorf("cropregion: unknown score aggregation %d", o.ScoreAggregation)
	}
	return nil
}
