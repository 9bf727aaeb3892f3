package throttle

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store guarded by a single mutex. Entries
// are never swept; expired lockouts are ignored at lookup time.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *MemoryStore) Update(_ context.Context, key string, fn func(Record, bool) (Record, bool)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.records[key]
	next, keep := fn(rec, found)
	if !keep {
		delete(s.records, key)
		return Record{}, nil
	}
	s.records[key] = next
	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Len returns the number of tracked identifiers.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
