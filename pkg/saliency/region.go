// Package saliency defines the per-frame detection signals that drive the
// reframing engine: salient regions with scores, key frame packaging, and
// static frame features (borders, solid background color).
package saliency

import (
	"sort"

	"github.com/autoframe/autoframe/pkg/geometry"
)

// SignalType identifies the detector that produced a salient region.
type SignalType int

const (
	// SignalUnknown is an unclassified detection.
	SignalUnknown SignalType = iota
	// SignalFace is a face detection.
	SignalFace
	// SignalHuman is a full-body person detection.
	SignalHuman
	// SignalPet is an animal detection.
	SignalPet
	// SignalCar is a vehicle detection.
	SignalCar
	// SignalObject is a generic object detection.
	SignalObject
	// SignalMotion is a motion-derived region.
	SignalMotion
	// SignalText is an OCR text region.
	SignalText
	// SignalLogo is a logo region.
	SignalLogo
	// SignalUserHint is an operator-supplied region. When user hints are
	// present and the engine is configured to honor them exclusively, all
	// other signals in the scene are discarded.
	SignalUserHint
)

func (s SignalType) String() string {
	switch s {
	case SignalFace:
		return "face"
	case SignalHuman:
		return "human"
	case SignalPet:
		return "pet"
	case SignalCar:
		return "car"
	case SignalObject:
		return "object"
	case SignalMotion:
		return "motion"
	case SignalText:
		return "text"
	case SignalLogo:
		return "logo"
	case SignalUserHint:
		return "user_hint"
	default:
		return "unknown"
	}
}

// SalientRegion is one detection on a key frame. Location is in source-frame
// pixel coordinates once packed; Normalized carries the pre-scaling value
// when the producer reports fractional coordinates.
type SalientRegion struct {
	Location   geometry.Rect
	Normalized *geometry.NormalizedRect
	Score      float64
	IsRequired bool
	Signal     SignalType
}

// StaticFeatures is a per-sample report of frame properties that do not move
// with the content: detected letterbox borders and, when the frame margin is
// one flat color, that color as an RGB triple.
type StaticFeatures struct {
	TopBorderHeight    int
	BottomBorderHeight int
	// SolidBackground holds the detected flat background color in RGB
	// channel order, or nil when no solid background was found.
	SolidBackground *[3]uint8
	TimestampUS     int64
}

// SortByScore stable-sorts regions by descending score, preserving the
// original order of equal scores.
func SortByScore(regions []SalientRegion) {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Score > regions[j].Score
	})
}

// Partition splits regions into required and non-required groups, each
// stable-sorted by descending score.
func Partition(regions []SalientRegion) (required, nonRequired []SalientRegion) {
	for _, r := range regions {
		if r.IsRequired {
			required = append(required, r)
		} else {
			nonRequired = append(nonRequired, r)
		}
	}
	SortByScore(required)
	SortByScore(nonRequired)
	return required, nonRequired
}

// HasUserHint reports whether any region carries the user hint signal.
func HasUserHint(regions []SalientRegion) bool {
	for _, r := range regions {
		if r.Signal == SignalUserHint {
			return true
		}
	}
	return false
}

// OnlyUserHints returns the subset of regions tagged as user hints.
func OnlyUserHints(regions []SalientRegion) []SalientRegion {
	var hints []SalientRegion
	for _, r := range regions {
		if r.Signal == SignalUserHint {
			hints = append(hints, r)
		}
	}
	return hints
}
