package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prerak-b/vivavoce/internal/journal"
	"github.com/prerak-b/vivavoce/internal/media"
	"github.com/prerak-b/vivavoce/internal/observability"
	"github.com/prerak-b/vivavoce/internal/playback"
	"github.com/prerak-b/vivavoce/internal/protocol"
	"github.com/prerak-b/vivavoce/internal/recorder"
	"github.com/prerak-b/vivavoce/internal/transcribe"
	"github.com/prerak-b/vivavoce/internal/vad"
)

// Options are the orchestrator's wiring-time settings.
type Options struct {
	ControlWSURL  string
	Constraints   media.Constraints
	VAD           vad.Config
	PresenceGrace time.Duration
	// Analyzer enables the advisory camera-presence monitor; nil disables it.
	Analyzer media.FrameAnalyzer
}

// turnResult is the resolved outcome of one answer turn, produced after the
// recording was transcribed (or discarded) and intent phrases were applied.
type turnResult struct {
	intent     Intent
	text       string
	durationMS int64
	outcome    string
}

// Orchestrator drives one interview session. All phase transitions happen in
// the Run dispatch loop; concurrent work (capture, playback, transcription)
// reports back over channels.
type Orchestrator struct {
	opts    Options
	source  *media.Source
	rec     *recorder.Recorder
	seq     *playback.Sequencer
	stt     *transcribe.Client
	store   journal.Store
	metrics *observability.Metrics
	log     *zap.Logger

	detMu   sync.Mutex
	det     *vad.Detector
	vadStop chan vad.StopReason

	mu               sync.Mutex
	state            State
	countdownSeconds int
	countdownArmed   bool

	endOnce sync.Once
	endCh   chan struct{}
	done    chan struct{}
}

func NewOrchestrator(
	opts Options,
	source *media.Source,
	rec *recorder.Recorder,
	seq *playback.Sequencer,
	stt *transcribe.Client,
	store journal.Store,
	metrics *observability.Metrics,
	log *zap.Logger,
) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		opts:    opts,
		source:  source,
		rec:     rec,
		seq:     seq,
		stt:     stt,
		store:   store,
		metrics: metrics,
		log:     log,
		det:     vad.New(opts.VAD),
		vadStop: make(chan vad.StopReason, 1),
		endCh:   make(chan struct{}),
		done:    make(chan struct{}),
		state:   State{Phase: PhaseIdle},
	}
}

// Run executes the session until the service ends it, the candidate ends it,
// or ctx is canceled. It blocks for the session's lifetime.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) error {
	defer close(o.done)

	if err := cfg.Validate(); err != nil {
		o.setPhase(PhaseEnded)
		return err
	}

	o.setPhase(PhaseConnecting)

	stream, err := o.source.Acquire(ctx, o.opts.Constraints)
	if err != nil {
		o.setPhase(PhaseEnded)
		return err
	}
	if o.opts.Analyzer != nil {
		o.source.AttachPresenceMonitor(o.opts.Analyzer, o.opts.PresenceGrace)
	}

	conn, err := dialControl(ctx, o.opts.ControlWSURL, o.log, o.metrics)
	if err != nil {
		o.source.Release()
		o.setPhase(PhaseEnded)
		return err
	}

	// Teardown runs exactly once and in order: stop recording, stop playback,
	// close the connection, release capture. Each step is best effort so a
	// failing step never blocks the ones after it.
	var teardownOnce sync.Once
	teardown := func() {
		teardownOnce.Do(func() {
			if _, ok := o.rec.End(); ok {
				o.log.Debug("discarded in-flight recording during teardown")
			}
			o.seq.Stop()
			conn.close()
			o.source.Release()
		})
	}
	defer teardown()

	go o.pumpCapture(stream)

	start := protocol.NewStartEvent(cfg.Role, cfg.Topics, string(cfg.Level), cfg.DurationMinutes)
	if err := conn.send(start, protocol.EventStart); err != nil {
		o.setPhase(PhaseEnded)
		return err
	}
	o.setPhase(PhaseAwaitingQuestion)

	// The clock is armed here but only starts counting down once the first
	// prompt arrives; connection setup time is not billed to the candidate.
	o.mu.Lock()
	o.countdownSeconds = cfg.DurationMinutes * 60
	o.mu.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var (
		playbackDone <-chan struct{}
		results      = make(chan turnResult, 4)
		ceiling      *time.Timer
		prevWarning  bool
	)
	stopCeiling := func() {
		if ceiling != nil {
			ceiling.Stop()
			ceiling = nil
		}
	}
	defer stopCeiling()

	for {
		select {
		case <-ctx.Done():
			teardown()
			o.setPhase(PhaseEnded)
			return ctx.Err()

		case <-o.endCh:
			if err := conn.send(protocol.NewEndRequest(), protocol.EventEnd); err != nil {
				o.log.Warn("end request not delivered", zap.Error(err))
				o.metrics.TeardownErrors.Inc()
			}
			teardown()
			o.setPhase(PhaseEnded)
			return nil

		case msg, ok := <-conn.Events():
			if !ok {
				teardown()
				o.setPhase(PhaseEnded)
				return fmt.Errorf("control connection closed unexpectedly")
			}
			switch ev := msg.(type) {
			case protocol.PromptEvent:
				if ch := o.handlePrompt(ctx, ev); ch != nil {
					playbackDone = ch
				}
			case protocol.EndEvent:
				teardown()
				o.setPhase(PhaseEnded)
				o.log.Info("session ended by service",
					zap.String("reason", ev.Reason),
					zap.Int("total_questions", ev.TotalQuestions))
				return nil
			}

		case <-playbackDone:
			playbackDone = nil
			if o.phase() != PhaseSpeaking {
				continue
			}
			o.startListening()
			stopCeiling()
			o.detMu.Lock()
			deadline := o.det.Deadline()
			o.detMu.Unlock()
			// Backstop in case capture stalls and Observe never fires.
			ceiling = time.AfterFunc(time.Until(deadline.Add(500*time.Millisecond)), func() {
				select {
				case o.vadStop <- vad.StopCeiling:
				default:
				}
			})

		case reason := <-o.vadStop:
			if o.phase() != PhaseListening {
				continue
			}
			stopCeiling()
			o.metrics.VADStops.WithLabelValues(string(reason)).Inc()
			o.finishTurn(ctx, results)

		case res := <-results:
			o.submitTurn(ctx, conn, res)

		case <-ticker.C:
			sig := o.source.Presence()
			if sig.WarningActive && !prevWarning {
				o.metrics.PresenceWarnings.Inc()
				o.log.Warn("camera presence warning armed")
			}
			prevWarning = sig.WarningActive

			o.mu.Lock()
			if o.state.SecondsRemaining > 0 {
				o.state.SecondsRemaining--
			}
			o.state.PresenceWarning = sig.WarningActive
			o.mu.Unlock()
		}
	}
}

// End requests a candidate-initiated shutdown. Safe to call multiple times
// and before Run ever observes it.
func (o *Orchestrator) End() {
	o.endOnce.Do(func() { close(o.endCh) })
}

// Done closes when Run has returned.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Snapshot returns the current session state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// pumpCapture feeds every capture chunk to the recorder and the detector.
// Both are inert outside the listening window, so the pump runs unguarded for
// the whole session.
func (o *Orchestrator) pumpCapture(stream *media.Stream) {
	for chunk := range stream.Audio().Chunks() {
		o.rec.Write(chunk.Samples)

		o.detMu.Lock()
		reason, fired := o.det.Observe(chunk.Samples, chunk.Time)
		o.detMu.Unlock()
		if fired {
			select {
			case o.vadStop <- reason:
			default:
			}
		}
	}
}

func (o *Orchestrator) startListening() {
	// A stale stop from the previous turn must not end the new one.
	select {
	case <-o.vadStop:
	default:
	}

	now := time.Now()
	o.rec.Begin(now)
	o.detMu.Lock()
	o.det.Start(now)
	o.detMu.Unlock()
	o.setPhase(PhaseListening)
}

// handlePrompt reacts to a service-delivered question. Prompts arriving in
// any phase where the candidate could still be speaking or playback is in
// flight are ignored; the service re-delivers on repeat requests.
func (o *Orchestrator) handlePrompt(ctx context.Context, ev protocol.PromptEvent) <-chan struct{} {
	switch o.phase() {
	case PhaseConnecting, PhaseAwaitingQuestion, PhaseSubmitting:
	default:
		o.log.Warn("ignoring prompt outside question boundary",
			zap.String("phase", string(o.phase())),
			zap.String("event", string(ev.Event)))
		return nil
	}

	o.mu.Lock()
	if !o.countdownArmed {
		o.countdownArmed = true
		o.state.SecondsRemaining = o.countdownSeconds
	}
	if o.state.SessionID == "" && ev.SessionID != "" {
		o.state.SessionID = ev.SessionID
	}
	o.state.CurrentQuestion = ev.Text
	if !ev.Redelivery() {
		o.state.QuestionsAsked++
		if ev.Index > 0 {
			o.state.QuestionIndex = ev.Index
		} else {
			o.state.QuestionIndex = o.state.QuestionsAsked - 1
		}
	}
	o.mu.Unlock()

	o.log.Info("question received",
		zap.Int("index", o.Snapshot().QuestionIndex),
		zap.Bool("redelivery", ev.Redelivery()))
	o.setPhase(PhaseSpeaking)
	return o.seq.Play(ctx, ev.AudioURL)
}

// finishTurn closes the recording and resolves it into a turnResult. A
// payload too small to carry speech resolves inline as a discarded turn; a
// real payload is transcribed off the loop.
func (o *Orchestrator) finishTurn(ctx context.Context, results chan<- turnResult) {
	o.setPhase(PhaseSubmitting)

	recording, ok := o.rec.End()
	if !ok {
		results <- turnResult{intent: IntentAnswer, outcome: "discarded"}
		return
	}

	go func() {
		startedAt := time.Now()
		res, err := o.stt.Transcribe(ctx, recording.Payload)
		o.metrics.ObserveTranscribeLatency(time.Since(startedAt))

		tr := turnResult{durationMS: recording.DurationMS}
		if err != nil {
			o.log.Warn("transcription failed; submitting empty answer", zap.Error(err))
			tr.outcome = "failed"
		} else {
			switch MatchIntent(res.Text) {
			case IntentRepeat:
				tr.intent = IntentRepeat
				tr.outcome = "repeat"
			case IntentSkip:
				tr.outcome = "skipped"
			default:
				tr.text = res.Text
				tr.outcome = "answered"
			}
		}

		select {
		case results <- tr:
		case <-o.done:
		}
	}()
}

// submitTurn delivers the resolved turn to the service and journals the
// exchange. Repeat intents turn into a re-delivery request instead of a
// transcript and do not touch the journal.
func (o *Orchestrator) submitTurn(ctx context.Context, conn *controlConn, res turnResult) {
	if o.phase() != PhaseSubmitting {
		return
	}
	o.metrics.TurnsTotal.WithLabelValues(res.outcome).Inc()

	if res.intent == IntentRepeat {
		if err := conn.send(protocol.NewRepeatRequest(), protocol.EventRepeat); err != nil {
			o.log.Warn("repeat request not delivered", zap.Error(err))
		}
		o.setPhase(PhaseAwaitingQuestion)
		return
	}

	o.mu.Lock()
	record := journal.Record{
		SessionID:     o.state.SessionID,
		QuestionIndex: o.state.QuestionIndex,
		Question:      o.state.CurrentQuestion,
		Answer:        res.text,
		DurationMS:    res.durationMS,
	}
	o.mu.Unlock()
	if err := o.store.SaveExchange(ctx, record); err != nil {
		o.log.Warn("journal write failed", zap.Error(err))
	}

	if err := conn.send(protocol.NewTranscriptEvent(res.text), protocol.EventTranscript); err != nil {
		o.log.Warn("transcript not delivered", zap.Error(err))
	}

	o.setPhase(PhaseAwaitingQuestion)
}

func (o *Orchestrator) phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Phase
}

func (o *Orchestrator) setPhase(next Phase) {
	o.mu.Lock()
	prev := o.state.Phase
	o.state.Phase = next
	o.mu.Unlock()

	if prev != next {
		o.metrics.SetPhase(string(prev), string(next))
		o.log.Debug("phase transition",
			zap.String("from", string(prev)),
			zap.String("to", string(next)))
	}
}
