// Package sysinfo sizes the engine's scene buffer against the machine's
// available memory, so long scenes of large frames do not force the host
// into swap.
package sysinfo

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/autoframe/autoframe/internal/log"
)

const (
	// memoryBudgetFraction of available memory may be spent on buffered
	// frames.
	memoryBudgetFraction = 0.5

	minBufferedFrames = 30
	maxBufferedFrames = 2000
)

// MaxBufferedFrames returns a scene-buffer cap for the given frame
// geometry, derived from currently available memory. Falls back to a
// conservative fixed value when memory statistics are unavailable.
func MaxBufferedFrames(frameWidth, frameHeight, bytesPerPixel int) int {
	frameBytes := uint64(frameWidth) * uint64(frameHeight) * uint64(bytesPerPixel)
	if frameBytes == 0 {
		return minBufferedFrames
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("memory statistics unavailable, using fixed scene buffer", "error", err)
		return minBufferedFrames
	}

	budget := uint64(float64(vm.Available) * memoryBudgetFraction)
	frames := int(budget / frameBytes)
	if frames < minBufferedFrames {
		frames = minBufferedFrames
	}
	if frames > maxBufferedFrames {
		frames = maxBufferedFrames
	}
	log.Debug("sized scene buffer from available memory",
		"available_mb", vm.Available/(1024*1024), "max_frames", frames)
	return frames
}
