package saliency

import (
	"fmt"

	"github.com/autoframe/autoframe/pkg/geometry"
)

// KeyFrameInfo holds the detections for one key frame, in source-frame pixel
// coordinates. Immutable after packing.
type KeyFrameInfo struct {
	TimestampUS int64
	Detections  []SalientRegion
}

// PackKeyFrameInfo converts raw detections into a KeyFrameInfo, rescaling
// each location from the detection frame size to the original frame size and
// clamping it inside the original bounds. Regions reported with normalized
// coordinates are resolved against the original frame directly.
func PackKeyFrameInfo(timestampUS int64, regions []SalientRegion, originalWidth, originalHeight, detectionWidth, detectionHeight int) (KeyFrameInfo, error) {
	if originalWidth <= 0 || originalHeight <= 0 {
		return KeyFrameInfo{}, fmt.Errorf("saliency: original frame size %dx%d must be positive", originalWidth, originalHeight)
	}
	if detectionWidth <= 0 || detectionHeight <= 0 {
		return KeyFrameInfo{}, fmt.Errorf("saliency: detection frame size %dx%d must be positive", detectionWidth, detectionHeight)
	}
	scaleX := float64(originalWidth) / float64(detectionWidth)
	scaleY := float64(originalHeight) / float64(detectionHeight)

	info := KeyFrameInfo{TimestampUS: timestampUS}
	for _, r := range regions {
		var loc geometry.Rect
		var err error
		if r.Normalized != nil {
			loc, err = r.Normalized.ToAbsolute(originalWidth, originalHeight)
			if err != nil {
				return KeyFrameInfo{}, err
			}
		} else {
			loc = geometry.ScaleRect(r.Location, scaleX, scaleY)
		}
		loc, err = geometry.ClampRect(originalWidth, originalHeight, loc)
		if err != nil {
			return KeyFrameInfo{}, err
		}
		packed := r
		packed.Location = loc
		packed.Normalized = nil
		info.Detections = append(info.Detections, packed)
	}
	return info, nil
}
