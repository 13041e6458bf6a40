// Package playback plays question prompts one at a time. Every play attempt
// resolves, success or not, so the caller can always sequence the next phase
// off the returned channel.
package playback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Player renders one prompt payload to the audio output. Implementations
// block until playback finishes or ctx is canceled.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// NullPlayer discards prompt audio immediately. It backs headless runs and
// tests where no output device exists.
type NullPlayer struct{}

func (NullPlayer) Play(context.Context, []byte) error { return nil }

// Sequencer serializes prompt playback: starting a new prompt stops the one
// in flight, and at most one plays at any moment.
type Sequencer struct {
	player Player
	client *http.Client
	log    *zap.Logger

	// OnFailure, when set, is invoked once per play attempt that resolved
	// with an error. Set before the first Play call.
	OnFailure func()

	mu      sync.Mutex
	cancel  context.CancelFunc
	current chan struct{}
}

func NewSequencer(player Player, client *http.Client, log *zap.Logger) *Sequencer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sequencer{player: player, client: client, log: log}
}

// Play starts the prompt at audioURL and returns a channel that closes when
// playback ends for any reason. A prompt already in flight is stopped first.
// An empty URL resolves immediately; fetch and render failures are logged and
// resolve rather than wedging the session.
func (s *Sequencer) Play(ctx context.Context, audioURL string) <-chan struct{} {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		prev := s.current
		s.mu.Unlock()
		<-prev
		s.mu.Lock()
	}

	done := make(chan struct{})
	if audioURL == "" {
		s.cancel = nil
		s.current = nil
		s.mu.Unlock()
		close(done)
		return done
	}

	playCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.current = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if err := s.playOnce(playCtx, audioURL); err != nil {
			s.log.Warn("prompt playback failed", zap.String("url", audioURL), zap.Error(err))
			if s.OnFailure != nil {
				s.OnFailure()
			}
		}
	}()
	return done
}

func (s *Sequencer) playOnce(ctx context.Context, audioURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return fmt.Errorf("build prompt request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch prompt audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch prompt audio: unexpected status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read prompt audio: %w", err)
	}
	if err := s.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("render prompt audio: %w", err)
	}
	return nil
}

// Stop cancels any prompt in flight and waits for it to wind down. Safe to
// call with nothing playing, and safe to call repeatedly.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	current := s.current
	s.cancel = nil
	s.current = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if current != nil {
		<-current
	}
}
