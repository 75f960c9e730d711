package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"

	"github.com/autoframe/autoframe/internal/config"
	"github.com/autoframe/autoframe/internal/log"
	"github.com/autoframe/autoframe/internal/report"
	"github.com/autoframe/autoframe/internal/sysinfo"
	"github.com/autoframe/autoframe/pkg/engine"
	"github.com/autoframe/autoframe/pkg/saliency"
	"github.com/autoframe/autoframe/pkg/web"
)

type reframeFlags struct {
	configPath     string
	outputDir      string
	width          int
	height         int
	solver         string
	computeOnly    bool
	dbPath         string
	servePort      string
	detectInterval int
	cutThreshold   float64
	faceModel      string
	jobs           int
}

func newReframeCmd() *cobra.Command {
	var flags reframeFlags

	cmd := &cobra.Command{
		Use:   "reframe [video...]",
		Short: "Reframe one or more videos to the target aspect ratio",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReframe(flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "yaml run configuration")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", ".", "directory for reframed videos")
	cmd.Flags().IntVar(&flags.width, "width", 0, "target width (overrides config)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "target height (overrides config)")
	cmd.Flags().StringVar(&flags.solver, "solver", "", "camera path solver: kinematic or polynomial")
	cmd.Flags().BoolVar(&flags.computeOnly, "compute-only", false, "emit render records without pixel output")
	cmd.Flags().StringVar(&flags.dbPath, "db", "", "sqlite database for run results")
	cmd.Flags().StringVar(&flags.servePort, "serve", "", "serve the preview dashboard on this port")
	cmd.Flags().IntVar(&flags.detectInterval, "detect-interval", 5, "run saliency detection every N frames")
	cmd.Flags().Float64Var(&flags.cutThreshold, "cut-threshold", 18, "shot boundary sensitivity, lower cuts more")
	cmd.Flags().StringVar(&flags.faceModel, "face-model", "", "YuNet ONNX model; adds face saliency when set")
	cmd.Flags().IntVarP(&flags.jobs, "jobs", "j", 1, "videos to process in parallel")

	return cmd
}

func runReframe(flags reframeFlags, inputs []string) error {
	opts, err := resolveOptions(flags)
	if err != nil {
		return err
	}

	var store *report.Store
	if flags.dbPath != "" {
		store, err = report.OpenStore(flags.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var preview *web.Server
	if flags.servePort != "" {
		preview = web.NewServer(flags.servePort)
		preview.StartAsync()
		defer preview.Shutdown()
	}

	var g errgroup.Group
	g.SetLimit(max(flags.jobs, 1))
	for _, input := range inputs {
		g.Go(func() error {
			if err := processVideo(input, flags, opts, store, preview); err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func resolveOptions(flags reframeFlags) (engine.Options, error) {
	opts := engine.DefaultOptions()
	if flags.configPath != "" {
		rc, err := config.Load(flags.configPath)
		if err != nil {
			return engine.Options{}, err
		}
		opts, err = rc.Resolve()
		if err != nil {
			return engine.Options{}, err
		}
	}
	if flags.width > 0 {
		opts.TargetWidth = flags.width
	}
	if flags.height > 0 {
		opts.TargetHeight = flags.height
	}
	switch flags.solver {
	case "":
	case "kinematic":
		opts.Solver = engine.SolverKinematic
	case "polynomial":
		opts.Solver = engine.SolverPolynomial
	default:
		return engine.Options{}, fmt.Errorf("unknown solver %q", flags.solver)
	}
	opts.EmitFrames = !flags.computeOnly
	return opts, nil
}

func outputPath(input, outputDir string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return filepath.Join(outputDir, strings.TrimSuffix(base, ext)+"_reframed.mp4")
}

func processVideo(input string, flags reframeFlags, opts engine.Options, store *report.Store, preview *web.Server) error {
	capture, err := gocv.OpenVideoCapture(input)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}
	frameWidth := int(capture.Get(gocv.VideoCaptureFrameWidth))
	frameHeight := int(capture.Get(gocv.VideoCaptureFrameHeight))
	totalFrames := int64(capture.Get(gocv.VideoCaptureFrameCount))

	// Cap the scene buffer so long cut-free footage cannot exhaust memory.
	if limit := sysinfo.MaxBufferedFrames(frameWidth, frameHeight, 3); limit < opts.MaxSceneSize {
		log.Warn("reducing max scene size to fit memory", "from", opts.MaxSceneSize, "to", limit)
		opts.MaxSceneSize = limit
	}

	outPath := ""
	if opts.EmitFrames {
		outPath = outputPath(input, flags.outputDir)
	}

	reporter := report.NewTerminalReporter()
	reporter.RunStarted(input, outPath, frameWidth, frameHeight, opts.TargetWidth, opts.TargetHeight)
	if totalFrames > 0 {
		reporter.ProgressStarted(totalFrames)
	}
	if preview != nil {
		preview.UpdateStatus(func(st *web.Status) {
			st.InputPath = input
			st.Processing = true
		})
	}

	var writer *gocv.VideoWriter
	defer func() {
		if writer != nil {
			writer.Close()
		}
	}()
	var summaries []engine.SceneSummary
	var runID string

	sinks := engine.Sinks{
		OnRecord: func(r engine.RenderRecord) error {
			if store != nil {
				if err := store.SaveRecord(runID, r); err != nil {
					return err
				}
			}
			if preview != nil {
				return preview.PublishRecord(r)
			}
			return nil
		},
		OnSummary: func(s engine.SceneSummary) error {
			summaries = append(summaries, s)
			reporter.SceneProcessed(s)
			if store != nil {
				if err := store.SaveScene(s); err != nil {
					return err
				}
			}
			if preview != nil {
				return preview.PublishSummary(s)
			}
			return nil
		},
	}
	if opts.EmitFrames {
		sinks.OnFrame = func(frame gocv.Mat, timestampUS int64) error {
			defer frame.Close()
			if writer == nil {
				var err error
				writer, err = gocv.VideoWriterFile(outPath, "mp4v", fps,
					frame.Cols(), frame.Rows(), true)
				if err != nil {
					return fmt.Errorf("open writer: %w", err)
				}
			}
			if err := writer.Write(frame); err != nil {
				return fmt.Errorf("write frame at %dus: %w", timestampUS, err)
			}
			reporter.FrameProcessed()
			return nil
		}
	} else {
		prev := sinks.OnRecord
		sinks.OnRecord = func(r engine.RenderRecord) error {
			reporter.FrameProcessed()
			return prev(r)
		}
	}

	eng, err := engine.New(opts, sinks)
	if err != nil {
		return err
	}
	runID = eng.RunID()
	if preview != nil {
		preview.UpdateStatus(func(st *web.Status) { st.RunID = runID })
	}

	sources := []saliency.Source{saliency.NewMotionDetector(saliency.DefaultMotionConfig())}
	if flags.faceModel != "" {
		faceCfg := saliency.DefaultFaceConfig()
		faceCfg.ModelPath = flags.faceModel
		faces, err := saliency.NewFaceDetector(faceCfg)
		if err != nil {
			return err
		}
		sources = append(sources, faces)
	}
	defer func() {
		for _, s := range sources {
			s.Close()
		}
	}()
	cuts := saliency.NewCutDetector(flags.cutThreshold)
	defer cuts.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	frameIndex := 0
	usPerFrame := 1e6 / fps
	for capture.Read(&frame) {
		if frame.Empty() {
			continue
		}
		ts := int64(float64(frameIndex) * usPerFrame)

		if frameIndex > 0 && cuts.IsCut(frame) {
			if err := eng.SignalShotBoundary(); err != nil {
				return err
			}
		}
		if err := eng.AddFrame(frame, ts); err != nil {
			return err
		}
		if frameIndex%max(flags.detectInterval, 1) == 0 {
			var regions []saliency.SalientRegion
			for _, s := range sources {
				found, err := s.Detect(frame)
				if err != nil {
					return err
				}
				regions = append(regions, found...)
			}
			if err := eng.AddDetections(ts, regions, frame.Cols(), frame.Rows()); err != nil {
				return err
			}
			if err := eng.AddStaticFeatures(probeStaticFeatures(frame, ts)); err != nil {
				return err
			}
		}
		frameIndex++
	}
	if err := eng.Close(); err != nil {
		return err
	}

	reporter.RunFinished(summaries)
	if preview != nil {
		preview.UpdateStatus(func(st *web.Status) { st.Processing = false })
	}
	log.Info("finished", "input", input, "frames", frameIndex, "scenes", len(summaries), "run_id", runID)
	return nil
}

// probeStaticFeatures samples a coarse downscale of the frame and reports a
// solid background color when the pixel spread is small.
func probeStaticFeatures(frame gocv.Mat, timestampUS int64) saliency.StaticFeatures {
	const (
		sampleW = 16
		sampleH = 9
		// maxSpread is the largest per-channel deviation from the mean,
		// in 8-bit steps, still counted as a solid color.
		maxSpread = 14.0
	)

	sample := gocv.NewMat()
	defer sample.Close()
	gocv.Resize(frame, &sample, image.Pt(sampleW, sampleH), 0, 0, gocv.InterpolationArea)

	var sum [3]float64
	for y := 0; y < sampleH; y++ {
		for x := 0; x < sampleW; x++ {
			v := sample.GetVecbAt(y, x)
			for c := 0; c < 3; c++ {
				sum[c] += float64(v[c])
			}
		}
	}
	n := float64(sampleW * sampleH)
	mean := [3]float64{sum[0] / n, sum[1] / n, sum[2] / n}

	var spread float64
	for y := 0; y < sampleH; y++ {
		for x := 0; x < sampleW; x++ {
			v := sample.GetVecbAt(y, x)
			for c := 0; c < 3; c++ {
				if d := absFloat(float64(v[c]) - mean[c]); d > spread {
					spread = d
				}
			}
		}
	}

	sf := saliency.StaticFeatures{TimestampUS: timestampUS}
	if spread <= maxSpread {
		// Mats are BGR; StaticFeatures carries RGB.
		color := [3]uint8{uint8(mean[2]), uint8(mean[1]), uint8(mean[0])}
		sf.SolidBackground = &color
	}
	return sf
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
