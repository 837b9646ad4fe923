package actionlog

import (
	"context"
	"sync"

	"github.com/voltonic/campusgrid/core/model"
)

// MemoryStore keeps entries in a bounded in-process ring. When the bound is
// reached the oldest entries are evicted; durable retention belongs to the
// SQLite or JSONL backends.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []model.ActionEntry
	max     int
}

// NewMemoryStore creates a store bounded to max entries. A non-positive max
// defaults to 10000.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 10000
	}
	return &MemoryStore{max: max}
}

// Append adds the entry, evicting the oldest if the bound is exceeded.
func (s *MemoryStore) Append(ctx context.Context, e model.ActionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
	return nil
}

// Entries returns entries matching q in append order.
func (s *MemoryStore) Entries(ctx context.Context, q Query) ([]model.ActionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []model.ActionEntry
	for _, e := range s.entries {
		if matches(e, q) {
			res = append(res, e)
		}
	}
	return res, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
