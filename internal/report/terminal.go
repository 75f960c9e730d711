package report

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/autoframe/autoframe/pkg/engine"
	"github.com/autoframe/autoframe/pkg/motion"
)

// TerminalReporter prints human-friendly run progress and an end-of-run
// per-scene table.
type TerminalReporter struct {
	mu       sync.Mutex
	progress *progressbar.ProgressBar

	cyan    *color.Color
	green   *color.Color
	yellow  *color.Color
	magenta *color.Color
	bold    *color.Color
}

// NewTerminalReporter builds a reporter writing to stdout/stderr.
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
}

// RunStarted prints the input/output header for one video.
func (r *TerminalReporter) RunStarted(input, output string, frameWidth, frameHeight, targetWidth, targetHeight int) {
	fmt.Println()
	r.cyan.Println("REFRAME")
	r.printLabel(8, "Input:", input)
	if output != "" {
		r.printLabel(8, "Output:", output)
	}
	r.printLabel(8, "Source:", fmt.Sprintf("%dx%d", frameWidth, frameHeight))
	r.printLabel(8, "Target:", fmt.Sprintf("%dx%d", targetWidth, targetHeight))
}

// ProgressStarted opens a frame-level progress bar.
func (r *TerminalReporter) ProgressStarted(totalFrames int64) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = progressbar.NewOptions64(
		totalFrames,
		progressbar.OptionSetDescription("Reframing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// FrameProcessed advances the progress bar by one frame.
func (r *TerminalReporter) FrameProcessed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		r.progress.Add(1)
	}
}

// SceneProcessed prints one line per completed scene during the run.
func (r *TerminalReporter) SceneProcessed(sum engine.SceneSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc := fmt.Sprintf("scene %d: %s, %d frames", sum.SceneIndex, sum.CameraMotion, sum.FrameCount)
	if r.progress != nil {
		r.progress.Describe(desc)
		return
	}
	fmt.Printf("  %s %s\n", r.magenta.Sprint("›"), desc)
}

// RunFinished closes the progress bar and prints the scene table.
func (r *TerminalReporter) RunFinished(summaries []engine.SceneSummary) {
	r.finishProgress()

	fmt.Println()
	r.cyan.Println("SCENES")
	if len(summaries) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, sum := range summaries {
		padded := ""
		if sum.PaddingApplied {
			padded = r.yellow.Sprint(" padded")
		}
		motionLabel := r.green.Sprint(sum.CameraMotion.String())
		fmt.Printf("  %s %8.3fs - %8.3fs  %-28s %4d frames, %3d key%s\n",
			r.bold.Sprintf("#%-3d", sum.SceneIndex),
			float64(sum.StartTimestampUS)/1e6,
			float64(sum.EndTimestampUS)/1e6,
			motionLabel,
			sum.FrameCount, sum.KeyFrameCount, padded)
	}
}

func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		r.progress.Finish()
		r.progress = nil
	}
}

func motionFromName(name string) motion.Type {
	switch name {
	case "sweeping":
		return motion.Sweeping
	case "tracking":
		return motion.Tracking
	default:
		return motion.Steady
	}
}
