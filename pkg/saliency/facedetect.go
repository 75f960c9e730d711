package saliency

import (
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/autoframe/autoframe/pkg/geometry"
)

// FaceConfig configures the YuNet face saliency source.
type FaceConfig struct {
	// ModelPath points at the YuNet ONNX model file.
	ModelPath string `json:"model_path"`

	// ScoreThreshold drops detections below this confidence.
	ScoreThreshold float64 `json:"score_threshold"`

	// Required marks face detections as must-keep regions, forcing the
	// crop window to cover them.
	Required bool `json:"required"`
}

// DefaultFaceConfig returns the face source defaults. Faces are required
// regions: a reframe that cuts off a face is worse than one that pads.
func DefaultFaceConfig() FaceConfig {
	return FaceConfig{
		ScoreThreshold: 0.6,
		Required:       true,
	}
}

// FaceDetector is a Source producing one salient region per detected face,
// backed by OpenCV's FaceDetectorYN.
type FaceDetector struct {
	detector gocv.FaceDetectorYN
	cfg      FaceConfig

	mu       sync.Mutex
	inputSet bool
}

// NewFaceDetector loads the YuNet model. The detector input size is bound
// to the first frame it sees.
func NewFaceDetector(cfg FaceConfig) (*FaceDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("saliency: face model %s: %w", cfg.ModelPath, err)
	}
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(320, 320),
		float32(cfg.ScoreThreshold),
		0.3,  // NMS threshold
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)
	return &FaceDetector{detector: detector, cfg: cfg}, nil
}

// Detect returns one region per face found in the frame, in frame pixel
// coordinates.
func (d *FaceDetector) Detect(frame gocv.Mat) ([]SalientRegion, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame.Empty() {
		return nil, fmt.Errorf("saliency: empty frame")
	}
	if !d.inputSet {
		d.detector.SetInputSize(image.Pt(frame.Cols(), frame.Rows()))
		d.inputSet = true
	}

	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(frame, &faces)

	var regions []SalientRegion
	for r := 0; r < faces.Rows(); r++ {
		// Column layout: 0-3 box, 4-13 landmarks, 14 score.
		x := float64(faces.GetFloatAt(r, 0))
		y := float64(faces.GetFloatAt(r, 1))
		w := float64(faces.GetFloatAt(r, 2))
		h := float64(faces.GetFloatAt(r, 3))
		score := float64(faces.GetFloatAt(r, 14))
		if score < d.cfg.ScoreThreshold {
			continue
		}

		rect, err := geometry.ClampRect(frame.Cols(), frame.Rows(), geometry.Rect{
			X:      int(math.Round(x)),
			Y:      int(math.Round(y)),
			Width:  int(math.Round(w)),
			Height: int(math.Round(h)),
		})
		if err != nil {
			return nil, err
		}
		regions = append(regions, SalientRegion{
			Location:   rect,
			Score:      score,
			IsRequired: d.cfg.Required,
			Signal:     SignalFace,
		})
	}
	return regions, nil
}

// Close releases the underlying model.
func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
