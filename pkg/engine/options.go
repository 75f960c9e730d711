// Package engine is the streaming controller that turns incoming frames,
// saliency detections, and shot boundary flags into reframed output. It
// buffers one scene at a time and runs the crop-region, aggregation, motion
// analysis, path solving, cropping, and padding stages when the scene ends.
package engine

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/autoframe/autoframe/pkg/cropregion"
	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/motion"
	"github.com/autoframe/autoframe/pkg/padding"
	"github.com/autoframe/autoframe/pkg/path"
)

var (
	// ErrNoSolver is returned when no camera motion model was selected.
	ErrNoSolver = errors.New("engine: no camera motion model selected")

	// ErrNoSink is returned when the options wire no output at all.
	ErrNoSink = errors.New("engine: at least one output sink must be set")

	// ErrClosed is returned when input arrives after Close.
	ErrClosed = errors.New("engine: closed")
)

// TargetSizeType selects how the output dimensions are derived from the
// configured target and the input frame size.
type TargetSizeType int

const (
	// UseTargetDimension emits exactly the configured width and height.
	UseTargetDimension TargetSizeType = iota

	// KeepOriginalWidth keeps the input width and derives the height from
	// the target aspect ratio.
	KeepOriginalWidth

	// KeepOriginalHeight keeps the input height and derives the width from
	// the target aspect ratio.
	KeepOriginalHeight

	// MaximizeTargetDimension picks the largest output of the target aspect
	// ratio that fits inside the input frame.
	MaximizeTargetDimension
)

func (t TargetSizeType) String() string {
	switch t {
	case UseTargetDimension:
		return "use_target_dimension"
	case KeepOriginalWidth:
		return "keep_original_width"
	case KeepOriginalHeight:
		return "keep_original_height"
	case MaximizeTargetDimension:
		return "maximize_target_dimension"
	default:
		return "unknown"
	}
}

// SolverType selects the camera path model.
type SolverType int

const (
	// SolverUnset means no model was chosen; configuration fails fast.
	SolverUnset SolverType = iota

	// SolverKinematic uses the incremental velocity/acceleration limited
	// model and carries state across forced flushes.
	SolverKinematic

	// SolverPolynomial fits a robust fourth-degree polynomial per scene.
	SolverPolynomial
)

func (s SolverType) String() string {
	switch s {
	case SolverKinematic:
		return "kinematic"
	case SolverPolynomial:
		return "polynomial"
	default:
		return "unset"
	}
}

// RenderRecord describes one frame's reframing decision in a form an
// external renderer can replay without re-running the pipeline.
type RenderRecord struct {
	CropFrom     geometry.Rect `json:"crop_from"`
	RenderTo     geometry.Rect `json:"render_to"`
	PaddingColor [3]uint8      `json:"padding_color"`
	TimestampUS  int64         `json:"timestamp_us"`
}

// SceneSummary describes one processed scene.
type SceneSummary struct {
	RunID            string      `json:"run_id"`
	SceneIndex       int         `json:"scene_index"`
	StartTimestampUS int64       `json:"start_timestamp_us"`
	EndTimestampUS   int64       `json:"end_timestamp_us"`
	CameraMotion     motion.Type `json:"camera_motion"`
	PaddingApplied   bool        `json:"padding_applied"`
	FrameCount       int         `json:"frame_count"`
	KeyFrameCount    int         `json:"key_frame_count"`
}

// Sinks receives the engine's output. At least one of OnFrame or OnRecord
// must be set. A sink error aborts processing of the current stream.
type Sinks struct {
	// OnFrame receives the reframed pixel output. The callback owns the
	// Mat and must close it.
	OnFrame func(frame gocv.Mat, timestampUS int64) error

	// OnRecord receives one render record per processed frame.
	OnRecord func(RenderRecord) error

	// OnSummary receives one record per completed scene.
	OnSummary func(SceneSummary) error
}

// Options configures an Engine. Immutable once passed to New.
type Options struct {
	// === Target geometry ===
	TargetWidth    int            `json:"target_width"`
	TargetHeight   int            `json:"target_height"`
	TargetSizeType TargetSizeType `json:"target_size_type"`

	// === Scene buffering ===

	// MaxSceneSize is the forced-flush threshold in frames. Must be > 0.
	MaxSceneSize int `json:"max_scene_size"`

	// PriorFrameBufferSize is the tail window of focus point frames kept
	// across a forced flush for trajectory continuity. Must be >= 0.
	PriorFrameBufferSize int `json:"prior_frame_buffer_size"`

	// === Camera path ===
	Solver    SolverType           `json:"solver"`
	Kinematic path.KinematicOptions `json:"kinematic"`

	// === Saliency handling ===
	ScoreAggregation                     cropregion.ScoreAggregation `json:"score_aggregation"`
	NonRequiredRegionMinCoverageFraction float64                     `json:"non_required_region_min_coverage_fraction"`
	Motion                               motion.Options              `json:"motion"`

	// UserHintsOnly discards every non-hint detection in scenes where at
	// least one user hint is present.
	UserHintsOnly bool `json:"user_hints_only"`

	// === Padding ===
	Padding padding.EffectOptions `json:"padding"`

	// SolidBackgroundPaddingFraction is the minimum fraction of frames
	// reporting a solid color for the scene to pad with that color.
	SolidBackgroundPaddingFraction float64 `json:"solid_background_padding_fraction"`

	// EmitFrames enables pixel output. When false the engine runs in
	// compute-only mode and buffers no pixel data.
	EmitFrames bool `json:"emit_frames"`
}

// DefaultOptions returns a working configuration for a 9:16 portrait
// reframe of typical landscape input.
func DefaultOptions() Options {
	return Options{
		TargetWidth:                          720,
		TargetHeight:                         1280,
		TargetSizeType:                       UseTargetDimension,
		MaxSceneSize:                         600,
		PriorFrameBufferSize:                 30,
		Solver:                               SolverKinematic,
		Kinematic:                            path.DefaultKinematicOptions(),
		ScoreAggregation:                     cropregion.AggregateConstant,
		NonRequiredRegionMinCoverageFraction: 0.5,
		Motion:                               motion.DefaultOptions(),
		Padding:                              padding.DefaultEffectOptions(),
		SolidBackgroundPaddingFraction:       0.8,
		EmitFrames:                           true,
	}
}

// Validate checks the configuration. Explicitly given odd target dimensions
// are rejected rather than adjusted.
func (o Options) Validate() error {
	if o.TargetWidth <= 0 || o.TargetHeight <= 0 {
		return fmt.Errorf("engine: target size %dx%d must be positive", o.TargetWidth, o.TargetHeight)
	}
	if o.TargetSizeType == UseTargetDimension {
		if o.TargetWidth%2 != 0 {
			return fmt.Errorf("engine: target width %d must be even", o.TargetWidth)
		}
		if o.TargetHeight%2 != 0 {
			return fmt.Errorf("engine: target height %d must be even", o.TargetHeight)
		}
	}
	if o.MaxSceneSize <= 0 {
		return fmt.Errorf("engine: max scene size must be positive, got %d", o.MaxSceneSize)
	}
	if o.PriorFrameBufferSize < 0 {
		return fmt.Errorf("engine: prior frame buffer size must not be negative, got %d", o.PriorFrameBufferSize)
	}
	switch o.Solver {
	case SolverKinematic:
		if err := o.Kinematic.Validate(); err != nil {
			return err
		}
	case SolverPolynomial:
	default:
		return ErrNoSolver
	}
	if o.NonRequiredRegionMinCoverageFraction < 0 || o.NonRequiredRegionMinCoverageFraction > 1 {
		return fmt.Errorf("engine: non-required min coverage fraction must be in [0, 1], got %v",
			o.NonRequiredRegionMinCoverageFraction)
	}
	if o.SolidBackgroundPaddingFraction <= 0 || o.SolidBackgroundPaddingFraction > 1 {
		return fmt.Errorf("engine: solid background padding fraction must be in (0, 1], got %v",
			o.SolidBackgroundPaddingFraction)
	}
	if err := o.Padding.Validate(); err != nil {
		return err
	}
	return nil
}
