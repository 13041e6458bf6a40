// Package journal persists the local question/answer log of a session so a
// candidate can review the exchange after the interview ends.
package journal

import (
	"context"
	"time"
)

// Record stores a single asked question and the submitted answer transcript.
type Record struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	QuestionIndex int       `json:"question_index"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	DurationMS    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store persists and retrieves session exchanges.
type Store interface {
	SaveExchange(ctx context.Context, record Record) error
	SessionLog(ctx context.Context, sessionID string) ([]Record, error)
	Close() error
}
