// Package session runs the interview lifecycle: one control connection, one
// media stream, and a turn loop that alternates question playback with
// answer recording.
package session

import (
	"errors"
	"fmt"
	"strings"
)

// Phase is the orchestrator's lifecycle stage. Transitions happen only inside
// the dispatch loop, so readers always see a coherent snapshot.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseConnecting       Phase = "connecting"
	PhaseAwaitingQuestion Phase = "awaiting_question"
	PhaseSpeaking         Phase = "speaking"
	PhaseListening        Phase = "listening"
	PhaseSubmitting       Phase = "submitting"
	PhaseEnded            Phase = "ended"
)

// Level grades the requested question difficulty.
type Level string

const (
	LevelFresher      Level = "fresher"
	LevelIntermediate Level = "intermediate"
	LevelExperienced  Level = "experienced"
)

var ErrSessionActive = errors.New("a session is already active")

// Config is the candidate-chosen interview setup sent in the start event.
type Config struct {
	Role            string   `json:"role"`
	Topics          []string `json:"topics"`
	Level           Level    `json:"level"`
	DurationMinutes int      `json:"duration"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Role) == "" {
		return fmt.Errorf("role must not be empty")
	}
	if len(c.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	switch c.Level {
	case LevelFresher, LevelIntermediate, LevelExperienced:
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	if c.DurationMinutes <= 0 {
		return fmt.Errorf("duration must be positive minutes")
	}
	return nil
}

// State is a read-only snapshot of the running session.
type State struct {
	SessionID        string `json:"session_id"`
	Phase            Phase  `json:"phase"`
	CurrentQuestion  string `json:"current_question"`
	QuestionIndex    int    `json:"question_index"`
	QuestionsAsked   int    `json:"questions_asked"`
	SecondsRemaining int    `json:"seconds_remaining"`
	PresenceWarning  bool   `json:"presence_warning"`
}
