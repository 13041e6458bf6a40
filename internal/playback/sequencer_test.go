package playback

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// blockingPlayer blocks until its context is canceled or release is closed.
type blockingPlayer struct {
	mu      sync.Mutex
	started int
	release chan struct{}
}

func newBlockingPlayer() *blockingPlayer {
	return &blockingPlayer{release: make(chan struct{})}
}

func (p *blockingPlayer) Play(ctx context.Context, _ []byte) error {
	p.mu.Lock()
	p.started++
	p.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.release:
		return nil
	}
}

func (p *blockingPlayer) startedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func promptServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("prompt-audio"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmptyURLResolvesImmediately(t *testing.T) {
	s := NewSequencer(NullPlayer{}, nil, nil)
	select {
	case <-s.Play(context.Background(), ""):
	case <-time.After(time.Second):
		t.Fatalf("empty-URL play did not resolve")
	}
}

func TestPlayResolvesOnCompletion(t *testing.T) {
	srv := promptServer(t)
	s := NewSequencer(NullPlayer{}, srv.Client(), nil)

	select {
	case <-s.Play(context.Background(), srv.URL):
	case <-time.After(2 * time.Second):
		t.Fatalf("play did not resolve")
	}
}

func TestPlayResolvesOnFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSequencer(NullPlayer{}, srv.Client(), nil)
	select {
	case <-s.Play(context.Background(), srv.URL):
	case <-time.After(2 * time.Second):
		t.Fatalf("failed play did not resolve")
	}
}

func TestNewPlayStopsInFlightPrompt(t *testing.T) {
	srv := promptServer(t)
	player := newBlockingPlayer()
	s := NewSequencer(player, srv.Client(), nil)
	defer s.Stop()

	first := s.Play(context.Background(), srv.URL)

	deadline := time.Now().Add(2 * time.Second)
	for player.startedCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if player.startedCount() != 1 {
		t.Fatalf("first prompt never started")
	}

	second := s.Play(context.Background(), srv.URL)

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded prompt did not resolve")
	}

	close(player.release)
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatalf("second prompt did not resolve")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	srv := promptServer(t)
	player := newBlockingPlayer()
	s := NewSequencer(player, srv.Client(), nil)

	done := s.Play(context.Background(), srv.URL)
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stopped prompt did not resolve")
	}
}

func TestStopWithNothingPlaying(t *testing.T) {
	s := NewSequencer(NullPlayer{}, nil, nil)
	s.Stop()
}
