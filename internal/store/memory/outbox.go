package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/transfermarket/internal/market/outbox"
)

// OutboxStore holds queued domain events, insertion order preserved.
type OutboxStore struct {
	mu     sync.RWMutex
	events []outbox.OutboxEvent
	byID   map[uuid.UUID]int
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{byID: make(map[uuid.UUID]int)}
}

func (s *OutboxStore) InsertOutboxEvent(ctx context.Context, event *outbox.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[event.ID] = len(s.events)
	s.events = append(s.events, *event)
	return nil
}

func (s *OutboxStore) FetchUnsentOutbox(ctx context.Context, limit int32) ([]outbox.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []outbox.OutboxEvent
	for _, e := range s.events {
		if e.SentAt != nil {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= int(limit) {
			break
		}
	}
	return out, nil
}

func (s *OutboxStore) MarkOutboxSent(ctx context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, id := range ids {
		if idx, ok := s.byID[id]; ok {
			sent := now
			s.events[idx].SentAt = &sent
		}
	}
	return nil
}

func (s *OutboxStore) CountUnsentOutbox(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.events {
		if e.SentAt == nil {
			n++
		}
	}
	return n, nil
}

// Events returns a copy of every queued event, insertion order.
func (s *OutboxStore) Events() []outbox.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]outbox.OutboxEvent, len(s.events))
	copy(out, s.events)
	return out
}
