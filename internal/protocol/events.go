// Package protocol defines the JSON control events exchanged with the
// remote interview service over the persistent connection.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType identifies control event variants.
type EventType string

const (
	EventStart      EventType = "start"
	EventTranscript EventType = "transcript"
	EventRepeat     EventType = "repeat"
	EventEnd        EventType = "end"
	EventQuestion   EventType = "question"
)

var ErrUnsupportedEvent = errors.New("unsupported control event")

type Envelope struct {
	Event EventType `json:"event"`
}

// StartEvent opens a session; sent exactly once per session.
type StartEvent struct {
	Event    EventType `json:"event"`
	Role     string    `json:"role"`
	Topics   []string  `json:"topics"`
	Level    string    `json:"level"`
	Duration int       `json:"duration"`
}

// TranscriptEvent carries one completed answer. Empty text denotes no answer.
type TranscriptEvent struct {
	Event EventType `json:"event"`
	Text  string    `json:"text"`
}

// RepeatRequest asks the service to re-deliver the current prompt.
type RepeatRequest struct {
	Event EventType `json:"event"`
}

// EndRequest asks the service to terminate the session.
type EndRequest struct {
	Event EventType `json:"event"`
}

// PromptEvent is a service-delivered question. Event distinguishes a genuine
// new question ("question", advances the counter) from a re-delivery
// ("repeat", does not).
type PromptEvent struct {
	Event     EventType `json:"event"`
	SessionID string    `json:"session_id"`
	Index     int       `json:"index,omitempty"`
	Text      string    `json:"text"`
	AudioURL  string    `json:"audio_url,omitempty"`
}

// Redelivery reports whether the prompt repeats the current question.
func (p PromptEvent) Redelivery() bool { return p.Event == EventRepeat }

// EndEvent concludes the session from the service side.
type EndEvent struct {
	Event          EventType `json:"event"`
	Reason         string    `json:"reason,omitempty"`
	TotalQuestions int       `json:"total_questions,omitempty"`
}

func NewStartEvent(role string, topics []string, level string, durationMinutes int) StartEvent {
	return StartEvent{
		Event:    EventStart,
		Role:     role,
		Topics:   topics,
		Level:    level,
		Duration: durationMinutes,
	}
}

func NewTranscriptEvent(text string) TranscriptEvent {
	return TranscriptEvent{Event: EventTranscript, Text: text}
}

func NewRepeatRequest() RepeatRequest { return RepeatRequest{Event: EventRepeat} }

func NewEndRequest() EndRequest { return EndRequest{Event: EventEnd} }

// ParseServerEvent decodes one service-to-client control event. Unknown event
// names surface ErrUnsupportedEvent so callers can ignore them without
// dropping the connection.
func ParseServerEvent(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Event {
	case EventQuestion, EventRepeat:
		var msg PromptEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Text == "" {
			return nil, errors.New("prompt event missing text")
		}
		return msg, nil
	case EventEnd:
		var msg EndEvent
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedEvent
	}
}
