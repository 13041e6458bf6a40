package media

import (
	"context"
	"image"
	"sync"
	"time"
)

// MockAudioDevice produces synthetic capture chunks at a fixed interval. It
// backs the mock capture backend and package tests.
type MockAudioDevice struct {
	Interval time.Duration
	// NextChunk returns the samples for chunk i; nil yields silence.
	NextChunk func(i int) []float32
	// OpenErr, when set, makes acquisition fail.
	OpenErr error

	mu        sync.Mutex
	openCount int
}

func (d *MockAudioDevice) OpenAudio(ctx context.Context, _, framesPerBuffer int) (AudioTrack, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.mu.Lock()
	d.openCount++
	d.mu.Unlock()

	interval := d.Interval
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}

	trackCtx, cancel := context.WithCancel(ctx)
	t := &mockAudioTrack{out: make(chan AudioChunk, 64), cancel: cancel}

	go func() {
		defer close(t.out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-trackCtx.Done():
				return
			case now := <-ticker.C:
				var samples []float32
				if d.NextChunk != nil {
					samples = d.NextChunk(i)
				}
				if samples == nil {
					samples = make([]float32, framesPerBuffer)
				}
				select {
				case t.out <- AudioChunk{Samples: samples, Time: now}:
				default:
				}
			}
		}
	}()

	return t, nil
}

// OpenCount reports how many capture tracks were opened.
func (d *MockAudioDevice) OpenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openCount
}

type mockAudioTrack struct {
	out      chan AudioChunk
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func (t *mockAudioTrack) Chunks() <-chan AudioChunk { return t.out }

func (t *mockAudioTrack) Stop() {
	t.stopOnce.Do(t.cancel)
}

// MockVideoDevice emits frames produced by NextFrame at the requested
// interval; a nil NextFrame emits a static gray frame.
type MockVideoDevice struct {
	NextFrame func(i int) image.Image
	OpenErr   error
}

func (d *MockVideoDevice) OpenVideo(ctx context.Context, frameInterval time.Duration) (VideoTrack, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	if frameInterval <= 0 {
		frameInterval = 50 * time.Millisecond
	}

	trackCtx, cancel := context.WithCancel(ctx)
	t := &mockVideoTrack{out: make(chan image.Image, 8), cancel: cancel}

	go func() {
		defer close(t.out)
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-trackCtx.Done():
				return
			case <-ticker.C:
				frame := image.Image(image.NewGray(image.Rect(0, 0, 32, 32)))
				if d.NextFrame != nil {
					frame = d.NextFrame(i)
				}
				select {
				case t.out <- frame:
				default:
				}
			}
		}
	}()

	return t, nil
}

type mockVideoTrack struct {
	out      chan image.Image
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func (t *mockVideoTrack) Frames() <-chan image.Image { return t.out }

func (t *mockVideoTrack) Stop() {
	t.stopOnce.Do(t.cancel)
}
