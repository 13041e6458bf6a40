// Package app assembles the interview client from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/prerak-b/vivavoce/internal/config"
	"github.com/prerak-b/vivavoce/internal/httpapi"
	"github.com/prerak-b/vivavoce/internal/journal"
	"github.com/prerak-b/vivavoce/internal/media"
	"github.com/prerak-b/vivavoce/internal/observability"
	"github.com/prerak-b/vivavoce/internal/playback"
	"github.com/prerak-b/vivavoce/internal/recorder"
	"github.com/prerak-b/vivavoce/internal/results"
	"github.com/prerak-b/vivavoce/internal/session"
	"github.com/prerak-b/vivavoce/internal/transcribe"
	"github.com/prerak-b/vivavoce/internal/vad"
)

type BuildResult struct {
	Config  config.Config
	API     *httpapi.Server
	Metrics *observability.Metrics
	Journal journal.Store

	// Cleanup releases external resources (DB pool) on shutdown.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, log *zap.Logger) (*BuildResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := journal.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("journal init failed: %w", err)
	}

	device, analyzer, err := buildCapture(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	sttClient := transcribe.NewClient(cfg.TranscribeURL, httpClient, log.Named("transcribe"))
	resultsClient := results.NewClient(cfg.ResultsURL, cfg.HealthURL, httpClient)

	player := buildPlayer(cfg)

	factory := func() *session.Orchestrator {
		source := media.NewSource(device, log.Named("media"))
		seq := playback.NewSequencer(player, httpClient, log.Named("playback"))
		seq.OnFailure = metrics.PromptPlayFailures.Inc
		return session.NewOrchestrator(
			session.Options{
				ControlWSURL: cfg.ControlWSURL,
				Constraints: media.Constraints{
					SampleRate:      cfg.SampleRate,
					FramesPerBuffer: cfg.FramesPerBuffer,
					FrameInterval:   cfg.PresenceFrameRate,
				},
				VAD: vad.Config{
					EnergyThreshold: cfg.VADEnergyThreshold,
					WarmUp:          cfg.VADWarmUp,
					SilenceHold:     cfg.VADSilenceHold,
					MaxTurn:         cfg.VADMaxTurn,
				},
				PresenceGrace: cfg.PresenceGrace,
				Analyzer:      analyzer,
			},
			source,
			recorder.New(cfg.SampleRate, cfg.MinPayloadBytes),
			seq,
			sttClient,
			store,
			metrics,
			log.Named("session"),
		)
	}

	api := httpapi.New(factory, resultsClient, store, log.Named("api"))

	return &BuildResult{
		Config:  cfg,
		API:     api,
		Metrics: metrics,
		Journal: store,
		Cleanup: store.Close,
	}, nil
}

// buildCapture selects the capture backends. Presence analysis only runs when
// a video backend actually produces frames.
func buildCapture(cfg config.Config) (media.Device, media.FrameAnalyzer, error) {
	var dev media.Device
	switch cfg.CaptureBackend {
	case "portaudio":
		dev.Audio = media.NewPortAudioDevice()
	case "mock":
		dev.Audio = &media.MockAudioDevice{Interval: 20 * time.Millisecond}
	default:
		return media.Device{}, nil, fmt.Errorf("unsupported capture backend %q", cfg.CaptureBackend)
	}

	var analyzer media.FrameAnalyzer
	switch cfg.VideoBackend {
	case "none":
		dev.Video = media.NewNoVideoDevice()
	case "mock":
		dev.Video = &media.MockVideoDevice{}
		analyzer = media.NewActivityAnalyzer()
	default:
		return media.Device{}, nil, fmt.Errorf("unsupported video backend %q", cfg.VideoBackend)
	}
	return dev, analyzer, nil
}

func buildPlayer(cfg config.Config) playback.Player {
	if cfg.CaptureBackend == "portaudio" {
		return &playback.PortAudioPlayer{FramesPerBuffer: cfg.FramesPerBuffer}
	}
	return playback.NullPlayer{}
}
