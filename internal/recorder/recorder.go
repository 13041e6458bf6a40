// Package recorder wraps one recording pass per question: start, buffer
// capture chunks, stop, produce an audio payload.
package recorder

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// Recording is one finalized answer payload, consumed exactly once by the
// transcript submitter.
type Recording struct {
	Payload    []byte // WAV container, PCM16LE mono
	DurationMS int64
}

// Recorder owns the chunk buffer for the active turn. State is instance
// scoped; a fresh orchestrator gets a fresh recorder.
type Recorder struct {
	sampleRate int
	minBytes   int

	mu        sync.Mutex
	active    bool
	pcm       bytes.Buffer
	startedAt time.Time
	samples   int
}

// New creates a recorder. Payloads whose PCM body is smaller than minBytes
// are treated as empty/no-answer and discarded.
func New(sampleRate, minBytes int) *Recorder {
	return &Recorder{sampleRate: sampleRate, minBytes: minBytes}
}

// Begin starts a recording pass. At most one recording is active per session:
// calling Begin while active is a no-op and returns false.
func (r *Recorder) Begin(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return false
	}
	r.active = true
	r.pcm.Reset()
	r.samples = 0
	r.startedAt = now
	return true
}

// Active reports whether a recording pass is in flight.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Write buffers one capture chunk, converting float32 samples to PCM16LE.
// Chunks arriving while no recording is active are dropped.
func (r *Recorder) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(float64(s) * math.MaxInt16))
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		r.pcm.Write(b[:])
	}
	r.samples += len(samples)
}

// End stops the active recording and finalizes the payload. It is idempotent:
// a second call, or a call with no active recording, returns ok=false. A
// payload below the minimum viable size is discarded and also returns
// ok=false; the turn counts as a skipped answer.
func (r *Recorder) End() (Recording, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return Recording{}, false
	}
	r.active = false

	pcm := append([]byte(nil), r.pcm.Bytes()...)
	r.pcm.Reset()
	samples := r.samples
	r.samples = 0

	if len(pcm) < r.minBytes {
		return Recording{}, false
	}

	durationMS := int64(0)
	if r.sampleRate > 0 {
		durationMS = int64(samples) * 1000 / int64(r.sampleRate)
	}
	return Recording{
		Payload:    encodeWAV(pcm, r.sampleRate),
		DurationMS: durationMS,
	}, true
}
