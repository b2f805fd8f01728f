package request

import (
	"context"
	"fmt"
	"sort"
	"sync"

	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store for tests and local runs.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*Request
}

// NewInMemory returns an empty in-memory request store.
func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*Request)}
}

func (s *InMemory) Create(_ context.Context, r *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[r.ID]; ok {
		return fmt.Errorf("create request %s: %w", r.ID, sentinel.ErrConflict)
	}
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, sentinel.ErrNotFound)
	}
	return cloneRequest(r), nil
}

func (s *InMemory) List(_ context.Context, filter ListFilter) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Request
	for _, r := range s.requests {
		if !matchesFilter(r, filter) {
			continue
		}
		out = append(out, cloneRequest(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, r *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[r.ID]; !ok {
		return fmt.Errorf("update request %s: %w", r.ID, sentinel.ErrNotFound)
	}
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

func matchesFilter(r *Request, filter ListFilter) bool {
	if !filter.HospitalID.IsZero() && r.HospitalID != filter.HospitalID {
		return false
	}
	if filter.Status != "" && r.Status != filter.Status {
		return false
	}
	if filter.Kind != "" && r.Kind != filter.Kind {
		return false
	}
	return true
}

func cloneRequest(r *Request) *Request {
	c := *r
	if r.BloodType != nil {
		bt := *r.BloodType
		c.BloodType = &bt
	}
	if r.OrganType != nil {
		ot := *r.OrganType
		c.OrganType = &ot
	}
	return &c
}
