package lockout

import (
	"context"
	"sync"
)

// InMemoryStore keeps lockout records in process memory. Used in tests and
// when no database is configured.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func (s *InMemoryStore) Get(_ context.Context, identifier string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[identifier]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Identifier] = cloneRecord(record)
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, identifier)
	return nil
}

func cloneRecord(record *Record) *Record {
	clone := *record
	if record.LockedUntil != nil {
		lockedUntil := *record.LockedUntil
		clone.LockedUntil = &lockedUntil
	}
	return &clone
}
