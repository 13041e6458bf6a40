package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8090")
	}
	if cfg.VADWarmUp != 4*time.Second {
		t.Fatalf("VADWarmUp = %s, want 4s", cfg.VADWarmUp)
	}
	if cfg.VADSilenceHold != 2500*time.Millisecond {
		t.Fatalf("VADSilenceHold = %s, want 2.5s", cfg.VADSilenceHold)
	}
	if cfg.VADMaxTurn != 25*time.Second {
		t.Fatalf("VADMaxTurn = %s, want 25s", cfg.VADMaxTurn)
	}
	if cfg.MinPayloadBytes != 3000 {
		t.Fatalf("MinPayloadBytes = %d, want 3000", cfg.MinPayloadBytes)
	}
	if cfg.PresenceGrace != 3*time.Second {
		t.Fatalf("PresenceGrace = %s, want 3s", cfg.PresenceGrace)
	}
	if cfg.CaptureBackend != "portaudio" {
		t.Fatalf("CaptureBackend = %q, want portaudio", cfg.CaptureBackend)
	}
}

func TestLoadRejectsInvalidCeiling(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VAD_MAX_TURN", "2s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want ceiling <= warm-up rejected")
	}
}

func TestLoadRejectsUnknownCaptureBackend(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CAPTURE_BACKEND", "alsa")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want unknown backend rejected")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VAD_SILENCE_HOLD", "1s")
	t.Setenv("CAPTURE_SAMPLE_RATE", "44100")
	t.Setenv("CAPTURE_BACKEND", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VADSilenceHold != time.Second {
		t.Fatalf("VADSilenceHold = %s, want 1s", cfg.VADSilenceHold)
	}
	if cfg.SampleRate != 44100 {
		t.Fatalf("SampleRate = %d, want 44100", cfg.SampleRate)
	}
	if cfg.CaptureBackend != "mock" {
		t.Fatalf("CaptureBackend = %q, want mock", cfg.CaptureBackend)
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"INTERVIEW_WS_URL",
		"INTERVIEW_TRANSCRIBE_URL",
		"INTERVIEW_RESULTS_URL",
		"INTERVIEW_HEALTH_URL",
		"CAPTURE_BACKEND",
		"VIDEO_BACKEND",
		"CAPTURE_SAMPLE_RATE",
		"CAPTURE_FRAMES_PER_BUFFER",
		"PRESENCE_GRACE",
		"PRESENCE_FRAME_INTERVAL",
		"VAD_ENERGY_THRESHOLD",
		"VAD_WARMUP",
		"VAD_SILENCE_HOLD",
		"VAD_MAX_TURN",
		"RECORDER_MIN_PAYLOAD_BYTES",
		"DATABASE_URL",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
