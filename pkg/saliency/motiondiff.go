package saliency

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/autoframe/autoframe/pkg/geometry"
)

// Source produces salient regions for video frames. Implementations wrap ML
// detectors or classical vision pipelines; the engine only consumes the
// resulting regions.
type Source interface {
	// Detect finds salient regions in a BGR frame.
	Detect(frame gocv.Mat) ([]SalientRegion, error)

	// Close releases detector resources.
	Close() error
}

// MotionConfig holds tunable parameters for the frame-difference detector.
type MotionConfig struct {
	// DiffThreshold is the per-pixel intensity delta treated as motion.
	DiffThreshold float32 `json:"diff_threshold"`

	// MinArea is the smallest contour area (fraction of frame area) kept
	// as a region.
	MinArea float64 `json:"min_area"`

	// DilateIterations grows motion blobs before contour extraction.
	DilateIterations int `json:"dilate_iterations"`

	// MaxRegions caps how many regions a single frame may report.
	MaxRegions int `json:"max_regions"`
}

// DefaultMotionConfig returns parameters tuned for 720p-1080p footage.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		DiffThreshold:    25,
		MinArea:          0.002,
		DilateIterations: 2,
		MaxRegions:       8,
	}
}

// MotionDetector is a classical frame-difference saliency source: grayscale,
// absolute difference against the previous frame, threshold, dilate, contour
// bounding boxes scored by relative area. It lets the engine run stand-alone
// without an external ML detector.
type MotionDetector struct {
	cfg     MotionConfig
	prev    gocv.Mat
	hasPrev bool
}

// NewMotionDetector creates a frame-difference detector.
func NewMotionDetector(cfg MotionConfig) *MotionDetector {
	return &MotionDetector{cfg: cfg, prev: gocv.NewMat()}
}

// Detect implements Source. The first frame yields no regions.
func (d *MotionDetector) Detect(frame gocv.Mat) ([]SalientRegion, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	if !d.hasPrev {
		gray.CopyTo(&d.prev)
		d.hasPrev = true
		return nil, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, d.prev, &diff)
	gray.CopyTo(&d.prev)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, d.cfg.DiffThreshold, 255, gocv.ThresholdBinary)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	for i := 0; i < d.cfg.DilateIterations; i++ {
		gocv.Dilate(mask, &mask, kernel)
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	frameArea := float64(frame.Cols() * frame.Rows())
	var regions []SalientRegion
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area/frameArea < d.cfg.MinArea {
			continue
		}
		box := gocv.BoundingRect(c)
		regions = append(regions, SalientRegion{
			Location: geometry.NewRect(box.Min.X, box.Min.Y, box.Dx(), box.Dy()),
			Score:    area / frameArea,
			Signal:   SignalMotion,
		})
	}

	SortByScore(regions)
	if d.cfg.MaxRegions > 0 && len(regions) > d.cfg.MaxRegions {
		regions = regions[:d.cfg.MaxRegions]
	}
	return regions, nil
}

// Close releases the previous-frame buffer.
func (d *MotionDetector) Close() error {
	return d.prev.Close()
}

// CutDetector flags shot boundaries from frame-to-frame intensity change.
type CutDetector struct {
	// Threshold is the mean absolute intensity delta (0-255) above which a
	// frame is treated as a new shot.
	Threshold float64

	prev    gocv.Mat
	hasPrev bool
}

// NewCutDetector creates a shot-boundary detector. A threshold around 40
// works for typical hard cuts.
func NewCutDetector(threshold float64) *CutDetector {
	return &CutDetector{Threshold: threshold, prev: gocv.NewMat()}
}

// IsCut reports whether the frame starts a new shot.
func (d *CutDetector) IsCut(frame gocv.Mat) bool {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	// Downscale so the metric is cheap and framing-noise tolerant.
	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(gray, &small, image.Pt(64, 36), 0, 0, gocv.InterpolationArea)

	if !d.hasPrev {
		small.CopyTo(&d.prev)
		d.hasPrev = true
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(small, d.prev, &diff)
	small.CopyTo(&d.prev)

	return diff.Mean().Val1 > d.Threshold
}

// Close releases the previous-frame buffer.
func (d *CutDetector) Close() error {
	return d.prev.Close()
}
