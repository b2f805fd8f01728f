package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

// Service orchestrates user profile management. Registration-side creation
// is invoked by the auth service; profile updates come straight from the
// owning user.
type Service struct {
	store  Store
	logger *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService builds a user Service over the given store.
func NewService(store Store, opts ...Option) *Service {
	svc := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create persists a fully constructed user. Duplicate emails surface as
// CodeConflict.
func (s *Service) Create(ctx context.Context, u *User) error {
	if err := s.store.CreateIfEmailAvailable(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.logger.InfoContext(ctx, "user created",
		"user_id", u.ID.String(),
		"role", u.Role.String(),
	)
	return nil
}

// Get returns the user by ID.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*User, error) {
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

// GetByEmail returns the user by email; used by the auth service at login.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

// UpdateDonorProfile applies a donor's own profile changes.
func (s *Service) UpdateDonorProfile(ctx context.Context, userID id.UserID, update DonorUpdate) (*User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.ApplyDonorUpdate(update, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, u); err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

// UpdateHospitalProfile applies a hospital's own profile changes.
func (s *Service) UpdateHospitalProfile(ctx context.Context, userID id.UserID, update HospitalUpdate) (*User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.ApplyHospitalUpdate(update, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, u); err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

// RecordDonation stamps the donor's last completed donation, anchoring the
// next cooldown window. Runs inside the donation completion transaction when
// the caller has one open.
func (s *Service) RecordDonation(ctx context.Context, donorID id.UserID, completedAt time.Time) (*User, error) {
	u, err := s.Get(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if err := u.RecordDonation(completedAt); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, u); err != nil {
		return nil, wrapUserErr(err)
	}
	return u, nil
}

// ListByRole returns every user with the given role (admin surface, and the
// donor pool feed for matching).
func (s *Service) ListByRole(ctx context.Context, role id.Role) ([]*User, error) {
	if !role.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", role)
	}
	users, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

func wrapUserErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
}
