package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process journal for local/dev use.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]Record)}
}

func (s *InMemoryStore) SaveExchange(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records[record.SessionID] = append(s.records[record.SessionID], record)
	return nil
}

func (s *InMemoryStore) SessionLog(_ context.Context, sessionID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[sessionID]
	if len(arr) == 0 {
		return nil, nil
	}
	out := make([]Record, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
