package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process fallback used when Redis is unavailable.
// History is lost on restart; turns for one session are serialized by the
// mutex.
type MemoryStore struct {
	mu    sync.Mutex
	turns map[string][]Turn
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]Turn)}
}

func (s *MemoryStore) Append(_ context.Context, sessionID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[sessionID] = append(s.turns[sessionID], Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *MemoryStore) History(_ context.Context, sessionID string, lastN int) ([]Turn, error) {
	if lastN <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.turns[sessionID]
	if len(history) > lastN {
		history = history[len(history)-lastN:]
	}

	out := make([]Turn, len(history))
	copy(out, history)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.turns, sessionID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
