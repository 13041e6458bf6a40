// Package media owns camera/microphone acquisition for an interview session.
// The stream is acquired once per session and released exactly once on every
// session-ending path; a presence monitor derives an advisory face-presence
// signal from the video track.
package media

import (
	"context"
	"image"
	"time"
)

// AudioChunk is one capture buffer of mono float32 samples.
type AudioChunk struct {
	Samples []float32
	Time    time.Time
}

// AudioTrack delivers capture buffers until stopped.
type AudioTrack interface {
	Chunks() <-chan AudioChunk
	Stop()
}

// VideoTrack delivers frames at a bounded cadence until stopped.
type VideoTrack interface {
	Frames() <-chan image.Image
	Stop()
}

// AudioDevice opens a microphone capture track.
type AudioDevice interface {
	OpenAudio(ctx context.Context, sampleRate, framesPerBuffer int) (AudioTrack, error)
}

// VideoDevice opens a camera capture track.
type VideoDevice interface {
	OpenVideo(ctx context.Context, frameInterval time.Duration) (VideoTrack, error)
}

// Device pairs the audio and video capture backends; both are requested
// together, once, for the whole session lifetime.
type Device struct {
	Audio AudioDevice
	Video VideoDevice
}

// Constraints configure a single acquisition.
type Constraints struct {
	SampleRate      int
	FramesPerBuffer int
	FrameInterval   time.Duration
}
