package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"

	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

type inboxKey struct {
	eventID string
	userID  id.UserID
}

// InMemoryInbox is a mutex-guarded map implementation for tests and local
// development.
type InMemoryInbox struct {
	mu   sync.RWMutex
	rows map[id.NotificationID]*Notification
	seen map[inboxKey]bool
}

func NewInMemoryInbox() *InMemoryInbox {
	return &InMemoryInbox{
		rows: make(map[id.NotificationID]*Notification),
		seen: make(map[inboxKey]bool),
	}
}

func (s *InMemoryInbox) Insert(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := inboxKey{eventID: n.EventID, userID: n.UserID}
	if s.seen[key] {
		return nil
	}
	s.seen[key] = true
	s.rows[n.ID] = cloneNotification(n)
	return nil
}

func (s *InMemoryInbox) FindByID(_ context.Context, notificationID id.NotificationID) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.rows[notificationID]; ok {
		return cloneNotification(n), nil
	}
	return nil, fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
}

func (s *InMemoryInbox) ListByUser(_ context.Context, userID id.UserID, filter ListFilter) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Notification, 0)
	for _, n := range s.rows {
		if n.UserID != userID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemoryInbox) MarkRead(_ context.Context, notificationID id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.rows[notificationID]
	if !ok {
		return fmt.Errorf("notification %s: %w", notificationID, sentinel.ErrNotFound)
	}
	n.Read = true
	return nil
}

func cloneNotification(n *Notification) *Notification {
	clone := *n
	return &clone
}
