package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the interview client daemon.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	// Remote interview service endpoints.
	ControlWSURL  string
	TranscribeURL string
	ResultsURL    string
	HealthURL     string

	// Capture.
	CaptureBackend    string // portaudio | mock
	VideoBackend      string // none | mock
	SampleRate        int
	FramesPerBuffer   int
	PresenceGrace     time.Duration
	PresenceFrameRate time.Duration

	// Voice activity detection.
	VADEnergyThreshold float64
	VADWarmUp          time.Duration
	VADSilenceHold     time.Duration
	VADMaxTurn         time.Duration

	// Recorder.
	MinPayloadBytes int

	// Optional local turn journal.
	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8090"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "vivavoce"),
		ShutdownTimeout:  15 * time.Second,

		ControlWSURL:  envOrDefault("INTERVIEW_WS_URL", "ws://127.0.0.1:8000/ws/interview"),
		TranscribeURL: envOrDefault("INTERVIEW_TRANSCRIBE_URL", "http://127.0.0.1:8000/interview/transcribe"),
		ResultsURL:    envOrDefault("INTERVIEW_RESULTS_URL", "http://127.0.0.1:8000/interview/result"),
		HealthURL:     envOrDefault("INTERVIEW_HEALTH_URL", "http://127.0.0.1:8000/health"),

		CaptureBackend:    strings.ToLower(envOrDefault("CAPTURE_BACKEND", "portaudio")),
		VideoBackend:      strings.ToLower(envOrDefault("VIDEO_BACKEND", "none")),
		SampleRate:        16000,
		FramesPerBuffer:   1024,
		PresenceGrace:     3000 * time.Millisecond,
		PresenceFrameRate: 200 * time.Millisecond,

		VADEnergyThreshold: 0.01,
		VADWarmUp:          4000 * time.Millisecond,
		VADSilenceHold:     2500 * time.Millisecond,
		VADMaxTurn:         25000 * time.Millisecond,

		MinPayloadBytes: 3000,

		DatabaseURL: trimmedEnv("DATABASE_URL"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SampleRate, err = intFromEnv("CAPTURE_SAMPLE_RATE", cfg.SampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.FramesPerBuffer, err = intFromEnv("CAPTURE_FRAMES_PER_BUFFER", cfg.FramesPerBuffer)
	if err != nil {
		return Config{}, err
	}
	cfg.PresenceGrace, err = durationFromEnv("PRESENCE_GRACE", cfg.PresenceGrace)
	if err != nil {
		return Config{}, err
	}
	cfg.PresenceFrameRate, err = durationFromEnv("PRESENCE_FRAME_INTERVAL", cfg.PresenceFrameRate)
	if err != nil {
		return Config{}, err
	}
	cfg.VADEnergyThreshold, err = floatFromEnv("VAD_ENERGY_THRESHOLD", cfg.VADEnergyThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.VADWarmUp, err = durationFromEnv("VAD_WARMUP", cfg.VADWarmUp)
	if err != nil {
		return Config{}, err
	}
	cfg.VADSilenceHold, err = durationFromEnv("VAD_SILENCE_HOLD", cfg.VADSilenceHold)
	if err != nil {
		return Config{}, err
	}
	cfg.VADMaxTurn, err = durationFromEnv("VAD_MAX_TURN", cfg.VADMaxTurn)
	if err != nil {
		return Config{}, err
	}
	cfg.MinPayloadBytes, err = intFromEnv("RECORDER_MIN_PAYLOAD_BYTES", cfg.MinPayloadBytes)
	if err != nil {
		return Config{}, err
	}

	switch cfg.CaptureBackend {
	case "portaudio", "mock":
	default:
		return Config{}, fmt.Errorf("CAPTURE_BACKEND must be portaudio or mock, got %q", cfg.CaptureBackend)
	}
	switch cfg.VideoBackend {
	case "none", "mock":
	default:
		return Config{}, fmt.Errorf("VIDEO_BACKEND must be none or mock, got %q", cfg.VideoBackend)
	}
	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("CAPTURE_SAMPLE_RATE must be positive")
	}
	if cfg.FramesPerBuffer <= 0 {
		return Config{}, fmt.Errorf("CAPTURE_FRAMES_PER_BUFFER must be positive")
	}
	if cfg.VADEnergyThreshold <= 0 {
		return Config{}, fmt.Errorf("VAD_ENERGY_THRESHOLD must be positive")
	}
	if cfg.VADWarmUp <= 0 || cfg.VADSilenceHold <= 0 {
		return Config{}, fmt.Errorf("VAD warm-up and silence hold must be positive")
	}
	if cfg.VADMaxTurn <= cfg.VADWarmUp {
		return Config{}, fmt.Errorf("VAD_MAX_TURN must exceed VAD_WARMUP")
	}
	if cfg.MinPayloadBytes < 0 {
		return Config{}, fmt.Errorf("RECORDER_MIN_PAYLOAD_BYTES must be >= 0")
	}
	if strings.TrimSpace(cfg.ControlWSURL) == "" {
		return Config{}, fmt.Errorf("INTERVIEW_WS_URL must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}
