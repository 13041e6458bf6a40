package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseServerEventQuestion(t *testing.T) {
	raw := []byte(`{"event":"question","session_id":"s-1","index":2,"text":"Explain indexes.","audio_url":"http://x/q2.mp3"}`)

	parsed, err := ParseServerEvent(raw)
	if err != nil {
		t.Fatalf("ParseServerEvent() error = %v", err)
	}
	msg, ok := parsed.(PromptEvent)
	if !ok {
		t.Fatalf("parsed type = %T, want PromptEvent", parsed)
	}
	if msg.SessionID != "s-1" || msg.Text != "Explain indexes." {
		t.Fatalf("unexpected prompt: %+v", msg)
	}
	if msg.Redelivery() {
		t.Fatalf("Redelivery() = true for question event, want false")
	}
}

func TestParseServerEventRepeatIsRedelivery(t *testing.T) {
	raw := []byte(`{"event":"repeat","session_id":"s-1","text":"Explain indexes.","audio_url":"http://x/q2.mp3"}`)

	parsed, err := ParseServerEvent(raw)
	if err != nil {
		t.Fatalf("ParseServerEvent() error = %v", err)
	}
	msg := parsed.(PromptEvent)
	if !msg.Redelivery() {
		t.Fatalf("Redelivery() = false for repeat event, want true")
	}
}

func TestParseServerEventEnd(t *testing.T) {
	raw := []byte(`{"event":"end","reason":"Questions completed","total_questions":4}`)

	parsed, err := ParseServerEvent(raw)
	if err != nil {
		t.Fatalf("ParseServerEvent() error = %v", err)
	}
	msg, ok := parsed.(EndEvent)
	if !ok {
		t.Fatalf("parsed type = %T, want EndEvent", parsed)
	}
	if msg.TotalQuestions != 4 {
		t.Fatalf("TotalQuestions = %d, want 4", msg.TotalQuestions)
	}
}

func TestParseServerEventRejectsPromptWithoutText(t *testing.T) {
	if _, err := ParseServerEvent([]byte(`{"event":"question","session_id":"s-1"}`)); err == nil {
		t.Fatalf("ParseServerEvent() error = nil, want missing text rejected")
	}
}

func TestParseServerEventUnsupported(t *testing.T) {
	_, err := ParseServerEvent([]byte(`{"event":"scorecard"}`))
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("error = %v, want ErrUnsupportedEvent", err)
	}
}

func TestParseServerEventMalformed(t *testing.T) {
	if _, err := ParseServerEvent([]byte(`{"event":`)); err == nil {
		t.Fatalf("ParseServerEvent() error = nil, want envelope error")
	}
}

func TestStartEventWireShape(t *testing.T) {
	b, err := json.Marshal(NewStartEvent("Backend Developer", []string{"APIs", "Databases"}, "fresher", 5))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if m["event"] != "start" || m["role"] != "Backend Developer" || m["level"] != "fresher" {
		t.Fatalf("unexpected wire shape: %v", m)
	}
	if m["duration"] != float64(5) {
		t.Fatalf("duration = %v, want 5", m["duration"])
	}
}
