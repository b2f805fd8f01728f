package notification

import (
	"context"
	"fmt"
	"sync"

	"lifeline/contracts/events"
	"lifeline/pkg/platform/sentinel"
)

type outboxRow struct {
	entry     OutboxEntry
	published bool
}

// InMemoryOutbox is a mutex-guarded slice implementation for tests and local
// development.
type InMemoryOutbox struct {
	mu   sync.Mutex
	rows []*outboxRow
	seq  int64
}

func NewInMemoryOutbox() *InMemoryOutbox {
	return &InMemoryOutbox{}
}

func (s *InMemoryOutbox) Append(_ context.Context, env events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.rows = append(s.rows, &outboxRow{entry: OutboxEntry{ID: s.seq, Envelope: env}})
	return nil
}

func (s *InMemoryOutbox) NextBatch(_ context.Context, limit int) ([]OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OutboxEntry, 0, limit)
	for _, row := range s.rows {
		if row.published {
			continue
		}
		out = append(out, row.entry)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryOutbox) MarkPublished(_ context.Context, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.entry.ID == entryID {
			row.published = true
			return nil
		}
	}
	return fmt.Errorf("outbox entry %d: %w", entryID, sentinel.ErrNotFound)
}

// Pending reports how many entries await publication. Test helper.
func (s *InMemoryOutbox) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, row := range s.rows {
		if !row.published {
			n++
		}
	}
	return n
}
