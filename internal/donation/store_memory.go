package donation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store. The scan-and-insert under one lock
// gives the same atomicity the Postgres partial unique index provides.
type InMemory struct {
	mu        sync.RWMutex
	donations map[id.DonationID]*Donation
}

// NewInMemory returns an empty in-memory donation store.
func NewInMemory() *InMemory {
	return &InMemory{donations: make(map[id.DonationID]*Donation)}
}

func (s *InMemory) CreateIfNoActive(_ context.Context, d *Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.donations {
		if existing.DonorID == d.DonorID && existing.RequestID == d.RequestID && existing.IsActive() {
			return fmt.Errorf("donor %s already has an active donation for request %s: %w",
				d.DonorID, d.RequestID, sentinel.ErrConflict)
		}
	}
	s.donations[d.ID] = cloneDonation(d)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, donationID id.DonationID) (*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.donations[donationID]
	if !ok {
		return nil, fmt.Errorf("donation %s: %w", donationID, sentinel.ErrNotFound)
	}
	return cloneDonation(d), nil
}

func (s *InMemory) List(_ context.Context, filter ListFilter) ([]*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Donation
	for _, d := range s.donations {
		if !filter.DonorID.IsZero() && d.DonorID != filter.DonorID {
			continue
		}
		if !filter.RequestID.IsZero() && d.RequestID != filter.RequestID {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, cloneDonation(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, d *Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.donations[d.ID]; !ok {
		return fmt.Errorf("update donation %s: %w", d.ID, sentinel.ErrNotFound)
	}
	s.donations[d.ID] = cloneDonation(d)
	return nil
}

func (s *InMemory) CountCompletedByDonor(_ context.Context, donorID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, d := range s.donations {
		if d.DonorID == donorID && d.Status == StatusCompleted {
			count++
		}
	}
	return count, nil
}

func cloneDonation(d *Donation) *Donation {
	c := *d
	if d.ScheduledAt != nil {
		t := *d.ScheduledAt
		c.ScheduledAt = &t
	}
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
