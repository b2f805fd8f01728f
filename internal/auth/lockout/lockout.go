// Package lockout throttles credential guessing: repeated login failures for
// the same email and client IP within a sliding window lock that pair out for
// a fixed duration. A successful login clears the record.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

// Record tracks consecutive login failures for one identifier.
type Record struct {
	Identifier    string
	FailureCount  int
	WindowStart   time.Time
	LastFailureAt time.Time
	LockedUntil   *time.Time
}

// Store persists lockout records. Get returns (nil, nil) for an unknown
// identifier; Upsert inserts or replaces the whole record. Stores are pure
// I/O, thresholds live in the Service.
type Store interface {
	Get(ctx context.Context, identifier string) (*Record, error)
	Upsert(ctx context.Context, record *Record) error
	Clear(ctx context.Context, identifier string) error
}

// Config holds the lockout thresholds.
type Config struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultConfig returns the standard thresholds: five failures within
// fifteen minutes lock the pair for fifteen minutes.
func DefaultConfig() Config {
	return Config{
		MaxFailures:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// LockedError reports an active lock. Handlers unwrap it to populate the
// Retry-After header.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

// Service applies the lockout policy over a Store.
type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a lockout Service. Zero-valued config fields fall
// back to the defaults.
func NewService(store Store, cfg Config, opts ...Option) *Service {
	def := DefaultConfig()
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = def.LockDuration
	}
	s := &Service{store: store, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key builds the lockout identifier for an email and client IP. Delimiter
// characters in either segment are escaped so a crafted email cannot collide
// with another pair's key.
func Key(email, ip string) string {
	return sanitize(strings.ToLower(strings.TrimSpace(email))) + ":" + sanitize(ip)
}

func sanitize(segment string) string {
	return strings.ReplaceAll(segment, ":", "_")
}

// Check returns a CodeTooManyRequests error while the pair is locked.
func (s *Service) Check(ctx context.Context, email, ip string) error {
	record, err := s.store.Get(ctx, Key(email, ip))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "lockout check failed")
	}
	if record == nil || record.LockedUntil == nil {
		return nil
	}

	now := requestcontext.Now(ctx)
	if !now.Before(*record.LockedUntil) {
		return nil
	}
	return dErrors.Wrap(
		&LockedError{RetryAfter: record.LockedUntil.Sub(now)},
		dErrors.CodeTooManyRequests,
		"too many failed login attempts",
	)
}

// RecordFailure counts one failed attempt. Failures older than the window
// reset the count; crossing MaxFailures sets the lock.
func (s *Service) RecordFailure(ctx context.Context, email, ip string) error {
	key := Key(email, ip)
	now := requestcontext.Now(ctx)

	record, err := s.store.Get(ctx, key)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "lockout lookup failed")
	}
	if record == nil || now.Sub(record.WindowStart) > s.cfg.Window {
		record = &Record{Identifier: key, WindowStart: now}
	}

	record.FailureCount++
	record.LastFailureAt = now
	if record.FailureCount >= s.cfg.MaxFailures {
		lockedUntil := now.Add(s.cfg.LockDuration)
		record.LockedUntil = &lockedUntil
		s.logger.WarnContext(ctx, "login lockout applied",
			"identifier", key,
			"failures", record.FailureCount,
			"locked_until", lockedUntil,
		)
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "lockout update failed")
	}
	return nil
}

// Clear removes the record after a successful login.
func (s *Service) Clear(ctx context.Context, email, ip string) error {
	if err := s.store.Clear(ctx, Key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "lockout clear failed")
	}
	return nil
}
