package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lifeline/contracts/events"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	pstrings "lifeline/pkg/platform/strings"
	"lifeline/pkg/requestcontext"
)

// CandidateFinder ranks donors for a request so a broadcast can target the
// best candidates instead of every donor in the system.
type CandidateFinder interface {
	TopCandidateDonorIDs(ctx context.Context, requestID id.RequestID, limit int) ([]id.UserID, error)
}

// DonationCanceller cascades a request cancellation into the donations made
// against it, returning the donor IDs whose donations were cancelled.
type DonationCanceller interface {
	CancelForRequest(ctx context.Context, requestID id.RequestID) ([]id.UserID, error)
}

// UserDirectory resolves user records for event enrichment.
type UserDirectory interface {
	Get(ctx context.Context, userID id.UserID) (*user.User, error)
}

// Notifier accepts notification events. Emission is fire-and-forget: a full
// pipeline drops the event rather than failing the request operation.
type Notifier interface {
	Emit(ctx context.Context, kind string, payload any)
}

// Service implements request lifecycle operations.
type Service struct {
	store     Store
	finder    CandidateFinder
	canceller DonationCanceller
	users     UserDirectory
	notifier  Notifier
	fanOut    int
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithBroadcastFanOut caps how many top-ranked donors a new request is
// broadcast to.
func WithBroadcastFanOut(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanOut = n
		}
	}
}

// NewService constructs a request Service. The canceller is attached later
// via SetDonationCanceller because the donation service depends on this one.
func NewService(store Store, finder CandidateFinder, users UserDirectory, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		finder:   finder,
		users:    users,
		notifier: notifier,
		fanOut:   10,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDonationCanceller wires the donation-side cascade after both services
// exist. Must be called before any cancellation is processed.
func (s *Service) SetDonationCanceller(c DonationCanceller) {
	s.canceller = c
}

// CreateInput carries the validated fields for a new request.
type CreateInput struct {
	HospitalID id.UserID
	Kind       id.RequestKind
	BloodType  *id.BloodType
	OrganType  *id.OrganType
	Urgency    id.Urgency
	Quantity   int
	RequiredBy time.Time
	Notes      string
}

// Create opens a new request in pending state and broadcasts it to the
// top-ranked candidate donors. Broadcast failures are logged, not returned:
// the request exists regardless of whether anyone was told about it.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Request, error) {
	now := requestcontext.Now(ctx)
	r, err := NewRequest(id.NewRequestID(), input.HospitalID, input.Kind,
		input.BloodType, input.OrganType, input.Urgency, input.Quantity,
		input.RequiredBy, input.Notes, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, r); err != nil {
		return nil, s.wrapStoreErr(err)
	}

	s.broadcast(ctx, r)
	return r, nil
}

// Get loads a request by ID.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*Request, error) {
	r, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return r, nil
}

// List returns requests matching the filter, newest-first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return out, nil
}

// UpdateStatus moves a request to target on behalf of actorID, which must be
// the owning hospital. Cancelling cascades into the donations made against
// the request and emits a request_cancelled event listing the affected donors.
func (s *Service) UpdateStatus(ctx context.Context, requestID id.RequestID, target Status, actorID id.UserID) (*Request, error) {
	r, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if r.HospitalID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "request belongs to another hospital")
	}
	if err := r.CanTransitionTo(target); err != nil {
		return nil, err
	}

	r.ApplyTransition(target, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, r); err != nil {
		return nil, s.wrapStoreErr(err)
	}

	if target == StatusCancelled {
		s.cascadeCancellation(ctx, r)
	}
	return r, nil
}

func (s *Service) broadcast(ctx context.Context, r *Request) {
	donorIDs, err := s.finder.TopCandidateDonorIDs(ctx, r.ID, s.fanOut)
	if err != nil {
		s.logger.Warn("request broadcast skipped: candidate lookup failed",
			"request_id", r.ID, "error", err)
		return
	}
	if len(donorIDs) == 0 {
		s.logger.Info("request broadcast skipped: no candidate donors",
			"request_id", r.ID)
		return
	}

	payload := events.RequestBroadcast{
		DonorIDs:    pstrings.DedupeAndTrim(userIDStrings(donorIDs)),
		RequestID:   r.ID.String(),
		RequestKind: r.Kind.String(),
		Urgency:     r.Urgency.String(),
		RequiredBy:  r.RequiredBy,
	}
	if r.BloodType != nil {
		payload.BloodType = r.BloodType.String()
	}
	if r.OrganType != nil {
		payload.OrganType = r.OrganType.String()
	}
	if hospital, err := s.users.Get(ctx, r.HospitalID); err == nil && hospital.Hospital != nil {
		payload.HospitalName = hospital.Hospital.HospitalName
	}

	s.notifier.Emit(ctx, events.KindRequestBroadcast, payload)
}

func (s *Service) cascadeCancellation(ctx context.Context, r *Request) {
	if s.canceller == nil {
		s.logger.Error("request cancelled without donation canceller wired",
			"request_id", r.ID)
		return
	}
	donorIDs, err := s.canceller.CancelForRequest(ctx, r.ID)
	if err != nil {
		s.logger.Error("cancellation cascade incomplete",
			"request_id", r.ID, "error", err)
	}

	s.notifier.Emit(ctx, events.KindRequestCancelled, events.RequestCancelled{
		RequestID:      r.ID.String(),
		HospitalUserID: r.HospitalID.String(),
		DonorIDs:       userIDStrings(donorIDs),
	})
}

func (s *Service) wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "request already exists")
	default:
		return fmt.Errorf("request store: %w", err)
	}
}

func userIDStrings(ids []id.UserID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}
