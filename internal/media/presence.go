package media

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// FrameAnalyzer decides whether a candidate is visible in one video frame.
type FrameAnalyzer interface {
	Present(frame image.Image) bool
}

// ActivityAnalyzer approximates face presence by perception-hash differencing
// between consecutive frames: a frame that differs from its predecessor by at
// least MinDistance bits counts as a detection. It stands in for a real face
// detector behind the FrameAnalyzer seam and is advisory only.
type ActivityAnalyzer struct {
	MinDistance int

	mu   sync.Mutex
	prev *goimagehash.ImageHash
}

func NewActivityAnalyzer() *ActivityAnalyzer {
	return &ActivityAnalyzer{MinDistance: 2}
}

func (a *ActivityAnalyzer) Present(frame image.Image) bool {
	hash, err := goimagehash.PerceptionHash(frame)
	if err != nil {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.prev
	a.prev = hash
	if prev == nil {
		// First frame: the candidate just enabled the camera.
		return true
	}
	distance, err := prev.Distance(hash)
	if err != nil {
		return false
	}
	return distance >= a.MinDistance
}
