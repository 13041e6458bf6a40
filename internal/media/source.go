package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAcquisition marks a fatal-to-start capture failure (permission denied,
// no device, backend init error).
var ErrAcquisition = errors.New("media acquisition failed")

// ErrAlreadyAcquired is returned when Acquire is called twice; the stream is
// session-scoped and never re-acquired per turn.
var ErrAlreadyAcquired = errors.New("media stream already acquired")

// Stream is the live audio+video capture pair lent to the VAD, recorder and
// presence monitor for the duration of one session. The Source retains
// ownership; only Source.Release stops the tracks.
type Stream struct {
	audio AudioTrack
	video VideoTrack
}

func (s *Stream) Audio() AudioTrack { return s.audio }
func (s *Stream) Video() VideoTrack { return s.video }

// PresenceSignal is the advisory face-presence indicator. It is updated only
// by the presence monitor and read for display; it never alters protocol flow.
type PresenceSignal struct {
	LastSeen      time.Time
	WarningActive bool
}

// Source acquires and owns the capture stream.
type Source struct {
	dev Device
	log *zap.Logger

	mu       sync.Mutex
	stream   *Stream
	released bool

	presMu        sync.RWMutex
	presence      PresenceSignal
	monitorCancel context.CancelFunc
	monitorDone   chan struct{}
}

func NewSource(dev Device, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{dev: dev, log: log}
}

// Acquire opens both tracks together. A video failure rolls the audio track
// back so a half-open stream never escapes.
func (s *Source) Acquire(ctx context.Context, c Constraints) (*Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return nil, ErrAlreadyAcquired
	}
	if s.released {
		return nil, fmt.Errorf("%w: source already released", ErrAcquisition)
	}

	audio, err := s.dev.Audio.OpenAudio(ctx, c.SampleRate, c.FramesPerBuffer)
	if err != nil {
		return nil, fmt.Errorf("%w: audio: %v", ErrAcquisition, err)
	}
	video, err := s.dev.Video.OpenVideo(ctx, c.FrameInterval)
	if err != nil {
		audio.Stop()
		return nil, fmt.Errorf("%w: video: %v", ErrAcquisition, err)
	}

	s.stream = &Stream{audio: audio, video: video}
	return s.stream, nil
}

// AttachPresenceMonitor consumes video frames and maintains the presence
// signal: every detection refreshes LastSeen, and the warning arms when no
// detection occurred for longer than grace.
func (s *Source) AttachPresenceMonitor(analyzer FrameAnalyzer, grace time.Duration) {
	s.mu.Lock()
	stream := s.stream
	if stream == nil || s.monitorCancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.monitorCancel = cancel
	s.monitorDone = done
	s.mu.Unlock()

	now := time.Now()
	s.presMu.Lock()
	s.presence = PresenceSignal{LastSeen: now}
	s.presMu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-stream.video.Frames():
				if !ok {
					return
				}
				s.observeFrame(analyzer.Present(frame), grace)
			}
		}
	}()
}

func (s *Source) observeFrame(present bool, grace time.Duration) {
	now := time.Now()
	s.presMu.Lock()
	defer s.presMu.Unlock()
	if present {
		s.presence.LastSeen = now
		s.presence.WarningActive = false
		return
	}
	if now.Sub(s.presence.LastSeen) > grace {
		s.presence.WarningActive = true
	}
}

// Presence returns the current advisory signal.
func (s *Source) Presence() PresenceSignal {
	s.presMu.RLock()
	defer s.presMu.RUnlock()
	return s.presence
}

// Release stops the monitor and every track. Safe to call multiple times and
// from any session-ending path.
func (s *Source) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	stream := s.stream
	cancel := s.monitorCancel
	done := s.monitorDone
	s.stream = nil
	s.monitorCancel = nil
	s.monitorDone = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	if stream != nil {
		stream.audio.Stop()
		stream.video.Stop()
		s.log.Debug("media stream released")
	}
}
