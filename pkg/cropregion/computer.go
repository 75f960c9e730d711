package cropregion

import (
	"github.com/autoframe/autoframe/internal/log"
	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/saliency"
)

// KeyFrameCropResult is the computed crop decision for one key frame.
type KeyFrameCropResult struct {
	// Region is the crop rectangle covering required detections and the
	// adopted non-required detections.
	Region geometry.Rect

	// RequiredRegion is the union of all required detections.
	RequiredRegion geometry.Rect

	RegionIsEmpty         bool
	RequiredRegionIsEmpty bool

	// RegionScore aggregates contributing detection scores per the
	// configured policy. Never negative.
	RegionScore float64

	// FractionNonRequiredCovered is the fraction of non-required
	// detections fully covered in both dimensions. Partially covered
	// detections get no partial credit. 1.0 when there are none.
	FractionNonRequiredCovered float64

	// RequiredCoveredInTargetSize reports whether the required-region
	// union fits inside the nominal target size.
	RequiredCoveredInTargetSize bool

	TimestampUS int64
}

// Computer solves ComputeFrameCropRegion for successive key frames.
type Computer struct {
	opts Options
}

// NewComputer validates options and returns a crop solver.
func NewComputer(opts Options) (*Computer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Computer{opts: opts}, nil
}

// ComputeFrameCropRegion aggregates the key frame's detections into a single
// crop rectangle under the target-size constraint.
func (c *Computer) ComputeFrameCropRegion(info saliency.KeyFrameInfo) (KeyFrameCropResult, error) {
	required, nonRequired := saliency.Partition(info.Detections)

	result := KeyFrameCropResult{
		TimestampUS:                 info.TimestampUS,
		RegionIsEmpty:               true,
		RequiredRegionIsEmpty:       true,
		RequiredCoveredInTargetSize: true,
		FractionNonRequiredCovered:  1.0,
	}
	scores := newScoreAccumulator(c.opts.ScoreAggregation)

	var region geometry.Rect
	for _, r := range required {
		region = geometry.RectUnion(region, r.Location)
		scores.add(r.Score, true)
	}
	if len(required) > 0 && !region.IsEmpty() {
		result.RequiredRegion = region
		result.RequiredRegionIsEmpty = false
		result.RegionIsEmpty = false
		result.RequiredCoveredInTargetSize =
			region.Width <= c.opts.TargetWidth && region.Height <= c.opts.TargetHeight
	}

	// Required content is never cropped out: it enlarges the working
	// target when it exceeds the nominal size.
	maxWidth := max(c.opts.TargetWidth, result.RequiredRegion.Width)
	maxHeight := max(c.opts.TargetHeight, result.RequiredRegion.Height)

	fullyCovered := 0
	for _, r := range nonRequired {
		if result.RegionIsEmpty {
			// Seed an empty region as a zero-size rectangle centered on
			// the first candidate so the expansion stays symmetric.
			region = geometry.Rect{X: r.Location.CenterX(), Y: r.Location.CenterY()}
			result.RegionIsEmpty = false
		}

		xSeg, xCover, err := geometry.ExpandSegmentUnderConstraint(
			geometry.Segment{Left: r.Location.X, Right: r.Location.Right()},
			geometry.Segment{Left: region.X, Right: region.Right()},
			maxWidth, c.opts.NonRequiredRegionMinCoverageFraction)
		if err != nil {
			return KeyFrameCropResult{}, err
		}
		ySeg, yCover, err := geometry.ExpandSegmentUnderConstraint(
			geometry.Segment{Left: r.Location.Y, Right: r.Location.Bottom()},
			geometry.Segment{Left: region.Y, Right: region.Bottom()},
			maxHeight, c.opts.NonRequiredRegionMinCoverageFraction)
		if err != nil {
			return KeyFrameCropResult{}, err
		}

		if xCover != geometry.NotCovered {
			region.X = xSeg.Left
			region.Width = xSeg.Length()
		}
		if yCover != geometry.NotCovered {
			region.Y = ySeg.Left
			region.Height = ySeg.Length()
		}
		if xCover == geometry.FullyCovered && yCover == geometry.FullyCovered {
			fullyCovered++
			scores.add(r.Score, false)
		}
	}

	if len(nonRequired) > 0 {
		result.FractionNonRequiredCovered = float64(fullyCovered) / float64(len(nonRequired))
	}
	if !result.RegionIsEmpty {
		result.Region = region
	}
	result.RegionScore = scores.value()
	return result, nil
}

// scoreAccumulator folds contributing detection scores per policy.
type scoreAccumulator struct {
	policy      ScoreAggregation
	score       float64
	contributed bool
}

func newScoreAccumulator(policy ScoreAggregation) *scoreAccumulator {
	return &scoreAccumulator{policy: policy}
}

func (a *scoreAccumulator) add(score float64, required bool) {
	if score < 0 {
		log.Warn("ignoring negative detection score", "score", score)
		return
	}
	switch a.policy {
	case AggregateMaximum:
		if !a.contributed || score > a.score {
			a.score = score
		}
	case AggregateSumRequired:
		if required {
			a.score += score
		}
	case AggregateSumAll:
		a.score += score
	case AggregateConstant:
		a.score = 1.0
	}
	a.contributed = true
}

func (a *scoreAccumulator) value() float64 {
	return a.score
}
