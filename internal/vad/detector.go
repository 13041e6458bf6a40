// Package vad decides when a spoken answer is complete by thresholding a
// short-window energy metric over time. The detector only ever requests a
// stop; the recorder owns the actual stop action.
package vad

import "time"

// StopReason explains why the detector requested a stop.
type StopReason string

const (
	// StopSilence fires after energy stayed below threshold for the full
	// silence hold, once the warm-up elapsed.
	StopSilence StopReason = "silence"
	// StopCeiling fires at the absolute max turn duration regardless of
	// energy, so a turn always ends even under continuous noise.
	StopCeiling StopReason = "ceiling"
)

// Config tunes the decision policy.
type Config struct {
	// EnergyThreshold is the mean absolute sample amplitude below which a
	// window counts as silence.
	EnergyThreshold float64
	// WarmUp is the minimum recording time before silence may stop a turn,
	// so a candidate pausing to think is not cut off.
	WarmUp time.Duration
	// SilenceHold is how long energy must stay below threshold continuously
	// before the stop is requested. A spike cancels the pending stop.
	SilenceHold time.Duration
	// MaxTurn is the hard ceiling on turn duration.
	MaxTurn time.Duration
}

// DefaultConfig mirrors the production tuning.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold: 0.01,
		WarmUp:          4000 * time.Millisecond,
		SilenceHold:     2500 * time.Millisecond,
		MaxTurn:         25000 * time.Millisecond,
	}
}

// Detector is a single-turn state machine. It is driven from one goroutine:
// Start once, then Observe for every capture window.
type Detector struct {
	cfg        Config
	startedAt  time.Time
	belowSince time.Time
	stopped    bool
}

func New(cfg Config) *Detector {
	if cfg.EnergyThreshold <= 0 {
		cfg.EnergyThreshold = DefaultConfig().EnergyThreshold
	}
	if cfg.WarmUp <= 0 {
		cfg.WarmUp = DefaultConfig().WarmUp
	}
	if cfg.SilenceHold <= 0 {
		cfg.SilenceHold = DefaultConfig().SilenceHold
	}
	if cfg.MaxTurn <= 0 {
		cfg.MaxTurn = DefaultConfig().MaxTurn
	}
	return &Detector{cfg: cfg}
}

// Start arms the detector for a new turn.
func (d *Detector) Start(now time.Time) {
	d.startedAt = now
	d.belowSince = time.Time{}
	d.stopped = false
}

// Observe feeds one capture window. It returns a stop reason exactly once per
// turn; afterwards the detector stays inert until restarted.
func (d *Detector) Observe(samples []float32, now time.Time) (StopReason, bool) {
	if d.stopped || d.startedAt.IsZero() {
		return "", false
	}

	if Energy(samples) >= d.cfg.EnergyThreshold {
		// Spike: cancel any pending stop and restart the hold on the next
		// sub-threshold run.
		d.belowSince = time.Time{}
	} else if d.belowSince.IsZero() {
		d.belowSince = now
	}

	elapsed := now.Sub(d.startedAt)
	if elapsed >= d.cfg.MaxTurn {
		d.stopped = true
		return StopCeiling, true
	}
	if elapsed >= d.cfg.WarmUp && !d.belowSince.IsZero() && now.Sub(d.belowSince) >= d.cfg.SilenceHold {
		d.stopped = true
		return StopSilence, true
	}
	return "", false
}

// Deadline returns the absolute time at which the ceiling fires; the caller
// arms a backstop timer on it in case capture stalls.
func (d *Detector) Deadline() time.Time {
	return d.startedAt.Add(d.cfg.MaxTurn)
}

// Energy computes the mean absolute deviation of the window from the
// waveform's zero line.
func Energy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	return sum / float64(len(samples))
}
