package path

import (
	"fmt"

	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/motion"
)

// KinematicOptions tunes the incremental follower.
type KinematicOptions struct {
	// UpdateRateSeconds is the time constant pulling the camera toward
	// its target. Smaller values react faster.
	UpdateRateSeconds float64 `json:"update_rate_seconds"`

	// MaxVelocity limits camera speed in pixels per second.
	MaxVelocity float64 `json:"max_velocity"`

	// MaxAcceleration limits velocity change in pixels per second squared.
	MaxAcceleration float64 `json:"max_acceleration"`

	// MinMotionToReframe is the dead zone: observed moves smaller than
	// this many pixels do not move the camera.
	MinMotionToReframe float64 `json:"min_motion_to_reframe"`
}

// DefaultKinematicOptions returns gains tuned for smooth subject following
// at typical frame rates.
func DefaultKinematicOptions() KinematicOptions {
	return KinematicOptions{
		UpdateRateSeconds:  0.30,
		MaxVelocity:        500,
		MaxAcceleration:    4000,
		MinMotionToReframe: 12,
	}
}

// Validate checks option ranges.
func (o KinematicOptions) Validate() error {
	if o.UpdateRateSeconds <= 0 {
		return fmt.Errorf("path: update rate %v must be positive", o.UpdateRateSeconds)
	}
	if o.MaxVelocity <= 0 {
		return fmt.Errorf("path: max velocity %v must be positive", o.MaxVelocity)
	}
	if o.MaxAcceleration <= 0 {
		return fmt.Errorf("path: max acceleration %v must be positive", o.MaxAcceleration)
	}
	if o.MinMotionToReframe < 0 {
		return fmt.Errorf("path: min motion to reframe %v must be non-negative", o.MinMotionToReframe)
	}
	return nil
}

// Axis1D is a single-axis kinematic camera follower. Observations arrive on
// key frames; predictions advance the state on every other frame. Position
// is clamped to [minPos, maxPos] so the crop window stays inside the frame.
type Axis1D struct {
	opts KinematicOptions

	minPos float64
	maxPos float64

	position    float64
	velocity    float64
	target      float64
	lastUS      int64
	initialized bool
}

// NewAxis1D creates a follower for one axis with the given position bounds.
func NewAxis1D(opts KinematicOptions, minPos, maxPos float64) (*Axis1D, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if maxPos < minPos {
		return nil, fmt.Errorf("path: max position %v below min position %v", maxPos, minPos)
	}
	return &Axis1D{opts: opts, minPos: minPos, maxPos: maxPos}, nil
}

// SetBounds updates the legal position range and re-clamps the state.
func (a *Axis1D) SetBounds(minPos, maxPos float64) error {
	if maxPos < minPos {
		return fmt.Errorf("path: max position %v below min position %v", maxPos, minPos)
	}
	a.minPos = minPos
	a.maxPos = maxPos
	a.position = geometry.Clamp(a.position, minPos, maxPos)
	a.target = geometry.Clamp(a.target, minPos, maxPos)
	return nil
}

// AddObservation feeds a measured subject position at a key frame.
func (a *Axis1D) AddObservation(observed float64, timestampUS int64) error {
	observed = geometry.Clamp(observed, a.minPos, a.maxPos)
	if !a.initialized {
		a.position = observed
		a.target = observed
		a.lastUS = timestampUS
		a.initialized = true
		return nil
	}
	// Dead zone: ignore jitter-scale moves.
	if absf(observed-a.position) >= a.opts.MinMotionToReframe {
		a.target = observed
	}
	a.advance(timestampUS)
	return nil
}

// UpdatePrediction advances the camera toward its target on a non-key frame.
func (a *Axis1D) UpdatePrediction(timestampUS int64) error {
	if !a.initialized {
		return ErrNotInitialized
	}
	a.advance(timestampUS)
	return nil
}

// State returns the current camera position.
func (a *Axis1D) State() (float64, error) {
	if !a.initialized {
		return 0, ErrNotInitialized
	}
	return a.position, nil
}

// Initialized reports whether any observation has been fed.
func (a *Axis1D) Initialized() bool {
	return a.initialized
}

func (a *Axis1D) advance(timestampUS int64) {
	dt := float64(timestampUS-a.lastUS) / 1e6
	a.lastUS = timestampUS
	if dt <= 0 {
		return
	}

	desired := (a.target - a.position) / a.opts.UpdateRateSeconds
	desired = geometry.Clamp(desired, -a.opts.MaxVelocity, a.opts.MaxVelocity)

	maxDeltaV := a.opts.MaxAcceleration * dt
	a.velocity = geometry.Clamp(desired, a.velocity-maxDeltaV, a.velocity+maxDeltaV)

	a.position = geometry.Clamp(a.position+a.velocity*dt, a.minPos, a.maxPos)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// KinematicSolver drives one Axis1D per cropped axis and implements the
// shared Solver contract. It is stateful: reusing the same instance across
// a forced flush continues the previous trajectory.
type KinematicSolver struct {
	opts KinematicOptions
	x    *Axis1D
	y    *Axis1D
}

// NewKinematicSolver returns an incremental path solver.
func NewKinematicSolver(opts KinematicOptions) (*KinematicSolver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &KinematicSolver{opts: opts}, nil
}

// Reset drops the camera state. Call at true shot boundaries.
func (s *KinematicSolver) Reset() {
	s.x = nil
	s.y = nil
}

// ComputeCameraPath implements Solver. Prior frames are only replayed when
// the solver has no state yet; otherwise its own carried state provides the
// continuity.
func (s *KinematicSolver) ComputeCameraPath(focus, prior []motion.FocusPointFrame, originalWidth, originalHeight, outputWidth, outputHeight int) ([]Transform, error) {
	if err := validateDims(originalWidth, originalHeight, outputWidth, outputHeight); err != nil {
		return nil, err
	}

	if s.x == nil {
		var err error
		s.x, err = NewAxis1D(s.opts, float64(outputWidth)/2, float64(originalWidth)-float64(outputWidth)/2)
		if err != nil {
			return nil, err
		}
		s.y, err = NewAxis1D(s.opts, float64(outputHeight)/2, float64(originalHeight)-float64(outputHeight)/2)
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.x.SetBounds(float64(outputWidth)/2, float64(originalWidth)-float64(outputWidth)/2); err != nil {
			return nil, err
		}
		if err := s.y.SetBounds(float64(outputHeight)/2, float64(originalHeight)-float64(outputHeight)/2); err != nil {
			return nil, err
		}
	}

	transforms := make([]Transform, 0, len(prior)+len(focus))
	replayPrior := !s.x.Initialized()
	if replayPrior {
		for _, f := range prior {
			t, err := s.step(f, originalWidth, originalHeight)
			if err != nil {
				return nil, err
			}
			transforms = append(transforms, t)
		}
	} else {
		// State already covers the prior window; emit placeholders the
		// cropper will discard.
		for range prior {
			transforms = append(transforms, Translation(0, 0))
		}
	}
	for _, f := range focus {
		t, err := s.step(f, originalWidth, originalHeight)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	return transforms, nil
}

func (s *KinematicSolver) step(f motion.FocusPointFrame, originalWidth, originalHeight int) (Transform, error) {
	normX, normY, _, ok := f.WeightedCenter()
	if ok && (f.IsKeyFrame || !s.x.Initialized()) {
		if err := s.x.AddObservation(normX*float64(originalWidth), f.TimestampUS); err != nil {
			return Transform{}, err
		}
		if err := s.y.AddObservation(normY*float64(originalHeight), f.TimestampUS); err != nil {
			return Transform{}, err
		}
	} else {
		if !s.x.Initialized() {
			// No observation ever arrived: hold frame center.
			if err := s.x.AddObservation(float64(originalWidth)/2, f.TimestampUS); err != nil {
				return Transform{}, err
			}
			if err := s.y.AddObservation(float64(originalHeight)/2, f.TimestampUS); err != nil {
				return Transform{}, err
			}
		} else {
			if err := s.x.UpdatePrediction(f.TimestampUS); err != nil {
				return Transform{}, err
			}
			if err := s.y.UpdatePrediction(f.TimestampUS); err != nil {
				return Transform{}, err
			}
		}
	}

	px, err := s.x.State()
	if err != nil {
		return Transform{}, err
	}
	py, err := s.y.State()
	if err != nil {
		return Transform{}, err
	}
	return Translation(px-float64(originalWidth)/2, py-float64(originalHeight)/2), nil
}
