// Package revocation tracks revoked token IDs (jti) until the tokens they
// belong to expire. Entries carry a TTL equal to the token's remaining
// lifetime, so the list stays small without a reaper.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lifeline/pkg/platform/sentinel"
)

// Store is the token revocation list.
type Store interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// Clock abstracts time for the in-memory store.
type Clock func() time.Time

// InMemory is a mutex-guarded revocation list for tests and single-instance
// deployments. Expired entries are dropped lazily on lookup.
type InMemory struct {
	mu      sync.Mutex
	expires map[string]time.Time
	clock   Clock
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithClock sets the clock function, for tests.
func WithClock(clock Clock) InMemoryOption {
	return func(s *InMemory) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{
		expires: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[jti] = s.clock().Add(ttl)
	return nil
}

func (s *InMemory) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.expires[jti]
	if !ok {
		return false, nil
	}
	if s.clock().After(expiry) {
		delete(s.expires, jti)
		return false, nil
	}
	return true, nil
}
