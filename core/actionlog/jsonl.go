package actionlog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/voltonic/campusgrid/core/model"
)

// JSONLStore stores entries in a JSONL file.
type JSONLStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONLStore creates the file if needed and returns the store.
func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path}, nil
}

// Append writes the entry as one JSON line.
func (s *JSONLStore) Append(ctx context.Context, e model.ActionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(e)
}

// Entries scans the file and returns entries matching q.
func (s *JSONLStore) Entries(ctx context.Context, q Query) ([]model.ActionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var res []model.ActionEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e model.ActionEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		if matches(e, q) {
			res = append(res, e)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close implements Store.
func (s *JSONLStore) Close() error { return nil }
