package media

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice captures microphone input through the default portaudio
// input device.
type PortAudioDevice struct{}

func NewPortAudioDevice() *PortAudioDevice { return &PortAudioDevice{} }

type portAudioTrack struct {
	stream   *portaudio.Stream
	out      chan AudioChunk
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func (d *PortAudioDevice) OpenAudio(ctx context.Context, sampleRate, framesPerBuffer int) (AudioTrack, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	buf := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBuffer, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	trackCtx, cancel := context.WithCancel(ctx)
	t := &portAudioTrack{
		stream: stream,
		out:    make(chan AudioChunk, 64),
		cancel: cancel,
	}

	go func() {
		defer close(t.out)
		for {
			select {
			case <-trackCtx.Done():
				return
			default:
			}

			if err := stream.Read(); err != nil {
				return
			}
			chunk := AudioChunk{
				Samples: append([]float32(nil), buf...),
				Time:    time.Now(),
			}
			select {
			case t.out <- chunk:
			default:
				// Consumer fell behind; drop rather than block capture.
			}
		}
	}()

	return t, nil
}

func (t *portAudioTrack) Chunks() <-chan AudioChunk { return t.out }

func (t *portAudioTrack) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		_ = t.stream.Stop()
		_ = t.stream.Close()
		_ = portaudio.Terminate()
	})
}

// NoVideoDevice satisfies the video half of acquisition on hosts without a
// camera backend: the track opens successfully but never emits frames, so the
// presence warning arms after the grace window. The signal stays advisory.
type NoVideoDevice struct{}

func NewNoVideoDevice() *NoVideoDevice { return &NoVideoDevice{} }

type noVideoTrack struct {
	frames   chan image.Image
	stopOnce sync.Once
}

func (d *NoVideoDevice) OpenVideo(_ context.Context, _ time.Duration) (VideoTrack, error) {
	return &noVideoTrack{frames: make(chan image.Image)}, nil
}

func (t *noVideoTrack) Frames() <-chan image.Image { return t.frames }

func (t *noVideoTrack) Stop() {
	t.stopOnce.Do(func() { close(t.frames) })
}
