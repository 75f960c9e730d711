package engine

import (
	"fmt"
	"image"
	"math"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/autoframe/autoframe/internal/log"
	"github.com/autoframe/autoframe/pkg/cropper"
	"github.com/autoframe/autoframe/pkg/cropregion"
	"github.com/autoframe/autoframe/pkg/geometry"
	"github.com/autoframe/autoframe/pkg/motion"
	"github.com/autoframe/autoframe/pkg/padding"
	"github.com/autoframe/autoframe/pkg/path"
	"github.com/autoframe/autoframe/pkg/saliency"
	"github.com/autoframe/autoframe/pkg/scene"
)

type bufferedFrame struct {
	mat         gocv.Mat
	hasMat      bool
	timestampUS int64
}

// sceneBuffer holds the in-flight scene. Exclusively owned by the engine,
// cleared after every flush.
type sceneBuffer struct {
	frames    []bufferedFrame
	keyFrames map[int64]saliency.KeyFrameInfo
	static    []saliency.StaticFeatures
}

func newSceneBuffer() sceneBuffer {
	return sceneBuffer{keyFrames: make(map[int64]saliency.KeyFrameInfo)}
}

func (b *sceneBuffer) reset() {
	for i := range b.frames {
		if b.frames[i].hasMat {
			b.frames[i].mat.Close()
		}
	}
	b.frames = b.frames[:0]
	b.keyFrames = make(map[int64]saliency.KeyFrameInfo)
	b.static = b.static[:0]
}

// Engine is the streaming controller. Feed it frames, detections, static
// features, and shot boundaries in timestamp order; it buffers one scene at
// a time and emits reframed output through the configured sinks when the
// scene ends. All processing is synchronous inside the call that triggers
// the flush. Not safe for concurrent use.
type Engine struct {
	opts  Options
	sinks Sinks
	runID string

	layout   *frameLayout
	computer *cropregion.Computer
	analyzer *motion.Analyzer
	cropper  *cropper.SceneCropper

	buf               sceneBuffer
	priorFocus        []motion.FocusPointFrame
	continueLastScene bool
	sceneIndex        int
	closed            bool
}

// New builds an engine. Geometry that depends on the input frame size is
// resolved when the first frame arrives.
func New(opts Options, sinks Sinks) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sinks.OnFrame == nil && sinks.OnRecord == nil {
		return nil, ErrNoSink
	}
	if opts.EmitFrames && sinks.OnFrame == nil {
		return nil, fmt.Errorf("engine: pixel output enabled but no frame sink set")
	}
	if !opts.EmitFrames && sinks.OnFrame != nil {
		return nil, fmt.Errorf("engine: frame sink set but pixel output disabled")
	}

	var solver path.Solver
	switch opts.Solver {
	case SolverKinematic:
		ks, err := path.NewKinematicSolver(opts.Kinematic)
		if err != nil {
			return nil, err
		}
		solver = ks
	case SolverPolynomial:
		solver = path.NewPolynomialSolver()
	}
	cr, err := cropper.New(solver)
	if err != nil {
		return nil, err
	}

	return &Engine{
		opts:    opts,
		sinks:   sinks,
		runID:   uuid.NewString(),
		cropper: cr,
		buf:     newSceneBuffer(),
	}, nil
}

// RunID identifies this engine instance, for report rows and logs.
func (e *Engine) RunID() string { return e.runID }

// AddFrame buffers one video frame. The engine clones the Mat; the caller
// keeps ownership of its buffer. A full scene buffer triggers a forced
// flush before returning.
func (e *Engine) AddFrame(frame gocv.Mat, timestampUS int64) error {
	if e.closed {
		return ErrClosed
	}
	if err := e.ensureLayout(frame.Cols(), frame.Rows()); err != nil {
		return err
	}
	if frame.Cols() != e.layout.frameWidth || frame.Rows() != e.layout.frameHeight {
		return fmt.Errorf("engine: frame size changed from %dx%d to %dx%d mid-stream",
			e.layout.frameWidth, e.layout.frameHeight, frame.Cols(), frame.Rows())
	}

	bf := bufferedFrame{timestampUS: timestampUS}
	if e.opts.EmitFrames {
		bf.mat = frame.Clone()
		bf.hasMat = true
	}
	e.buf.frames = append(e.buf.frames, bf)

	if len(e.buf.frames) >= e.opts.MaxSceneSize {
		return e.flush(false)
	}
	return nil
}

// AddDetections registers the saliency detections for the key frame at the
// given timestamp. Detection coordinates are scaled from the detector's
// frame size to the input frame size at ingestion. A frame must have been
// seen before detections can be ingested.
func (e *Engine) AddDetections(timestampUS int64, regions []saliency.SalientRegion, detectionWidth, detectionHeight int) error {
	if e.closed {
		return ErrClosed
	}
	if e.layout == nil {
		return fmt.Errorf("engine: detections received before any frame")
	}
	info, err := saliency.PackKeyFrameInfo(timestampUS, regions,
		e.layout.frameWidth, e.layout.frameHeight, detectionWidth, detectionHeight)
	if err != nil {
		return err
	}
	e.buf.keyFrames[timestampUS] = info
	return nil
}

// AddStaticFeatures buffers one static-features sample (solid background
// color, static border heights) for the current scene.
func (e *Engine) AddStaticFeatures(f saliency.StaticFeatures) error {
	if e.closed {
		return ErrClosed
	}
	e.buf.static = append(e.buf.static, f)
	return nil
}

// SignalShotBoundary ends the current scene and processes it. Prior focus
// state is discarded: the next scene starts a fresh camera path.
func (e *Engine) SignalShotBoundary() error {
	if e.closed {
		return ErrClosed
	}
	return e.flush(true)
}

// Close flushes the remaining buffered scene and releases the engine.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	err := e.flush(true)
	e.closed = true
	return err
}

func (e *Engine) ensureLayout(frameWidth, frameHeight int) error {
	if e.layout != nil {
		return nil
	}
	l, err := resolveLayout(frameWidth, frameHeight, e.opts)
	if err != nil {
		return err
	}

	comp, err := cropregion.NewComputer(cropregion.Options{
		TargetWidth:                          l.cropWidth,
		TargetHeight:                         l.cropHeight,
		ScoreAggregation:                     e.opts.ScoreAggregation,
		NonRequiredRegionMinCoverageFraction: e.opts.NonRequiredRegionMinCoverageFraction,
	})
	if err != nil {
		return err
	}

	motionOpts := e.opts.Motion
	motionOpts.TargetWidth = l.cropWidth
	motionOpts.TargetHeight = l.cropHeight
	an, err := motion.NewAnalyzer(motionOpts)
	if err != nil {
		return err
	}

	e.layout = &l
	e.computer = comp
	e.analyzer = an
	log.Info("resolved stream layout",
		"run_id", e.runID,
		"frame", fmt.Sprintf("%dx%d", l.frameWidth, l.frameHeight),
		"output", fmt.Sprintf("%dx%d", l.outputWidth, l.outputHeight),
		"crop_window", fmt.Sprintf("%dx%d", l.cropWidth, l.cropHeight))
	return nil
}

func (e *Engine) flush(shotBoundary bool) error {
	defer e.buf.reset()

	if len(e.buf.frames) == 0 {
		if shotBoundary {
			e.priorFocus = nil
			e.continueLastScene = false
		}
		return nil
	}
	return e.processScene(shotBoundary)
}

func (e *Engine) processScene(shotBoundary bool) error {
	l := e.layout
	n := len(e.buf.frames)
	timestamps := make([]int64, n)
	isKeyFrame := make([]bool, n)
	var keyInfos []saliency.KeyFrameInfo
	for i, bf := range e.buf.frames {
		timestamps[i] = bf.timestampUS
		if info, ok := e.buf.keyFrames[bf.timestampUS]; ok {
			isKeyFrame[i] = true
			keyInfos = append(keyInfos, info)
		}
	}

	keyInfos = e.applyUserHintOverride(keyInfos)

	results := make([]cropregion.KeyFrameCropResult, 0, len(keyInfos))
	for _, info := range keyInfos {
		res, err := e.computer.ComputeFrameCropRegion(info)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	summary, err := scene.AggregateKeyFrameResults(scene.AggregatorOptions{
		TargetWidth:  l.cropWidth,
		TargetHeight: l.cropHeight,
	}, results, l.frameWidth, l.frameHeight)
	if err != nil {
		return err
	}

	sampler, err := padding.NewBackgroundSampler(e.opts.SolidBackgroundPaddingFraction)
	if err != nil {
		return err
	}
	topBorder, bottomBorder := math.MaxInt, math.MaxInt
	for _, f := range e.buf.static {
		sampler.Add(f)
		topBorder = min(topBorder, f.TopBorderHeight)
		bottomBorder = min(bottomBorder, f.BottomBorderHeight)
	}
	if len(e.buf.static) == 0 {
		topBorder, bottomBorder = 0, 0
	}
	hasSolid := sampler.HasSolidBackground()

	cameraMotion, focusFrames, err := e.analyzer.AnalyzeScene(&summary, timestamps, isKeyFrame, hasSolid)
	if err != nil {
		return err
	}

	var frames []gocv.Mat
	if e.opts.EmitFrames {
		frames = make([]gocv.Mat, n)
		for i := range e.buf.frames {
			frames[i] = e.buf.frames[i].mat
		}
	}
	cropRes, err := e.cropper.CropFrames(&summary, timestamps, focusFrames, e.priorFocus,
		frames, e.opts.EmitFrames, topBorder, bottomBorder, e.continueLastScene)
	if err != nil {
		return err
	}

	paddingApplied, err := e.emitScene(cropRes, timestamps, sampler, hasSolid)
	if err != nil {
		return err
	}

	if e.sinks.OnSummary != nil {
		if err := e.sinks.OnSummary(SceneSummary{
			RunID:            e.runID,
			SceneIndex:       e.sceneIndex,
			StartTimestampUS: timestamps[0],
			EndTimestampUS:   timestamps[n-1],
			CameraMotion:     cameraMotion.Kind,
			PaddingApplied:   paddingApplied,
			FrameCount:       n,
			KeyFrameCount:    len(keyInfos),
		}); err != nil {
			return err
		}
	}
	e.sceneIndex++

	if !shotBoundary && e.opts.PriorFrameBufferSize > 0 {
		keep := min(e.opts.PriorFrameBufferSize, len(focusFrames))
		e.priorFocus = append([]motion.FocusPointFrame(nil), focusFrames[len(focusFrames)-keep:]...)
		e.continueLastScene = true
	} else {
		e.priorFocus = nil
		e.continueLastScene = false
	}
	return nil
}

// applyUserHintOverride drops non-hint detections for the whole scene when
// hints are present and the override is enabled.
func (e *Engine) applyUserHintOverride(keyInfos []saliency.KeyFrameInfo) []saliency.KeyFrameInfo {
	if !e.opts.UserHintsOnly {
		return keyInfos
	}
	sceneHasHint := false
	for _, info := range keyInfos {
		if saliency.HasUserHint(info.Detections) {
			sceneHasHint = true
			break
		}
	}
	if !sceneHasHint {
		return keyInfos
	}
	filtered := make([]saliency.KeyFrameInfo, len(keyInfos))
	for i, info := range keyInfos {
		filtered[i] = saliency.KeyFrameInfo{
			TimestampUS: info.TimestampUS,
			Detections:  saliency.OnlyUserHints(info.Detections),
		}
	}
	return filtered
}

// emitScene converts crop rectangles into render records and, when enabled,
// padded and resized pixel output.
func (e *Engine) emitScene(cropRes cropper.Result, timestamps []int64, sampler *padding.BackgroundSampler, hasSolid bool) (bool, error) {
	l := e.layout
	if len(cropRes.CropFrom) == 0 {
		return false, nil
	}

	cropW := cropRes.CropFrom[0].Width
	cropH := cropRes.CropFrom[0].Height
	outAspect := float64(l.outputWidth) / float64(l.outputHeight)
	cropAspect := float64(cropW) / float64(cropH)
	padNeeded := math.Abs(cropAspect-outAspect) > 1e-3

	renderTo := geometry.Rect{X: 0, Y: 0, Width: l.outputWidth, Height: l.outputHeight}
	var gen *padding.EffectGenerator
	var colors *padding.BackgroundColorInterpolator
	if padNeeded {
		var err error
		gen, err = padding.NewEffectGenerator(cropW, cropH, outAspect, true, e.opts.Padding)
		if err != nil {
			return false, err
		}
		padW, padH := gen.OutputSize()
		fg := gen.ComputeOutputLocation()
		renderTo = geometry.ScaleRect(fg,
			float64(l.outputWidth)/float64(padW),
			float64(l.outputHeight)/float64(padH))
		if hasSolid {
			colors, err = sampler.Interpolator()
			if err != nil {
				return false, err
			}
		}
	}

	for i, crop := range cropRes.CropFrom {
		ts := timestamps[i]
		var bg [3]uint8
		if colors != nil {
			bg = colors.ColorAt(ts)
		}

		if e.sinks.OnRecord != nil {
			if err := e.sinks.OnRecord(RenderRecord{
				CropFrom:     crop,
				RenderTo:     renderTo,
				PaddingColor: bg,
				TimestampUS:  ts,
			}); err != nil {
				return padNeeded, err
			}
		}

		if !e.opts.EmitFrames {
			continue
		}
		out, err := e.renderFrame(cropRes.Frames[i], gen, colors, bg)
		if err != nil {
			return padNeeded, err
		}
		if err := e.sinks.OnFrame(out, ts); err != nil {
			return padNeeded, err
		}
	}
	return padNeeded, nil
}

// renderFrame pads and resizes one cropped frame to the output size. It
// consumes cropped and returns a Mat the sink owns.
func (e *Engine) renderFrame(cropped gocv.Mat, gen *padding.EffectGenerator, colors *padding.BackgroundColorInterpolator, bg [3]uint8) (gocv.Mat, error) {
	l := e.layout
	stage := cropped
	if gen != nil {
		var bgPtr *[3]uint8
		if colors != nil {
			bgPtr = &bg
		}
		padded, err := gen.Render(cropped, bgPtr)
		cropped.Close()
		if err != nil {
			return gocv.Mat{}, err
		}
		stage = padded
	}

	if stage.Cols() == l.outputWidth && stage.Rows() == l.outputHeight {
		return stage, nil
	}
	out := gocv.NewMat()
	gocv.Resize(stage, &out, image.Pt(l.outputWidth, l.outputHeight), 0, 0, gocv.InterpolationArea)
	stage.Close()
	return out, nil
}
