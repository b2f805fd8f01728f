package user

import (
	"context"
	"fmt"
	"strings"
	"sync"

	id "lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store for tests and development mode.
// Values are cloned on the way in and out so callers never alias the stored
// aggregate.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]*User
	order []id.UserID
}

// NewInMemory builds an empty in-memory user store.
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.UserID]*User)}
}

func (s *InMemory) CreateIfEmailAvailable(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == email {
			return fmt.Errorf("email %s: %w", email, sentinel.ErrConflict)
		}
	}

	s.users[u.ID] = cloneUser(u)
	s.order = append(s.order, u.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, sentinel.ErrNotFound)
}

func (s *InMemory) ListByRole(_ context.Context, role id.Role) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*User
	for _, userID := range s.order {
		if u := s.users[userID]; u.Role == role {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return fmt.Errorf("user %s: %w", u.ID, sentinel.ErrNotFound)
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func cloneUser(u *User) *User {
	out := *u
	if u.Donor != nil {
		donor := *u.Donor
		if u.Donor.BloodType != nil {
			bt := *u.Donor.BloodType
			donor.BloodType = &bt
		}
		if u.Donor.LastDonationAt != nil {
			t := *u.Donor.LastDonationAt
			donor.LastDonationAt = &t
		}
		if u.Donor.Location != nil {
			loc := *u.Donor.Location
			donor.Location = &loc
		}
		out.Donor = &donor
	}
	if u.Hospital != nil {
		hospital := *u.Hospital
		if u.Hospital.Location != nil {
			loc := *u.Hospital.Location
			hospital.Location = &loc
		}
		out.Hospital = &hospital
	}
	return &out
}
