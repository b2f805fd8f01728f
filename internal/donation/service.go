package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lifeline/contracts/events"
	"lifeline/internal/eligibility"
	"lifeline/internal/request"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

// milestones are the completed-donation counts that earn an achievement.
var milestones = map[int]string{
	1:  "first donation",
	5:  "5 donations",
	10: "10 donations",
	25: "25 donations",
	50: "50 donations",
}

// Users is the slice of the user service the donation lifecycle needs.
type Users interface {
	Get(ctx context.Context, userID id.UserID) (*user.User, error)
	RecordDonation(ctx context.Context, donorID id.UserID, completedAt time.Time) (*user.User, error)
}

// Requests is the slice of the request service the donation lifecycle needs.
type Requests interface {
	Get(ctx context.Context, requestID id.RequestID) (*request.Request, error)
}

// Notifier accepts notification events, fire-and-forget.
type Notifier interface {
	Emit(ctx context.Context, kind string, payload any)
}

// TxRunner runs a function inside one transaction; satisfied by
// tx.Runner and tx.MemoryRunner.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the donation lifecycle.
type Service struct {
	store     Store
	users     Users
	requests  Requests
	evaluator *eligibility.Evaluator
	runner    TxRunner
	notifier  Notifier
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a donation Service.
func NewService(store Store, users Users, requests Requests, evaluator *eligibility.Evaluator, runner TxRunner, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:     store,
		users:     users,
		requests:  requests,
		evaluator: evaluator,
		runner:    runner,
		notifier:  notifier,
		tracer:    otel.Tracer("lifeline/donation"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create commits donorID to a request. Matching results are advisory; this
// is the authoritative path, so eligibility is re-checked here and the store
// enforces the one-active-donation invariant atomically.
func (s *Service) Create(ctx context.Context, donorID id.UserID, requestID id.RequestID, quantity int, notes string) (*Donation, error) {
	ctx, span := s.tracer.Start(ctx, "donation.create",
		trace.WithAttributes(
			attribute.String("donor.id", donorID.String()),
			attribute.String("request.id", requestID.String()),
		),
	)
	defer span.End()

	donor, err := s.users.Get(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if !donor.IsDonor() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only donors can commit to a request")
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.IsAcceptingDonations() {
		return nil, dErrors.Newf(dErrors.CodeConflict,
			"request is %s and no longer accepting donations", req.Status)
	}

	now := requestcontext.Now(ctx)
	verdict := s.evaluator.Evaluate(donorView(donor), requestView(req), now)
	if !verdict.Eligible {
		return nil, dErrors.New(dErrors.CodeIneligible, verdict.Reason)
	}

	d, err := NewDonation(id.NewDonationID(), donorID, requestID, quantity, notes, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateIfNoActive(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict,
				"you already have an active donation for this request")
		}
		return nil, fmt.Errorf("donation store: %w", err)
	}

	payload := events.MatchFound{
		HospitalUserID: req.HospitalID.String(),
		DonorID:        donorID.String(),
		DonorName:      donor.Name,
		DonationID:     d.ID.String(),
		RequestID:      requestID.String(),
		Quantity:       d.Quantity,
	}
	if req.BloodType != nil {
		payload.BloodType = req.BloodType.String()
	}
	s.notifier.Emit(ctx, events.KindMatchFound, payload)

	return d, nil
}

// Get loads a donation by ID.
func (s *Service) Get(ctx context.Context, donationID id.DonationID) (*Donation, error) {
	d, err := s.store.FindByID(ctx, donationID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return d, nil
}

// List returns donations matching the filter, newest-first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Donation, error) {
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	return out, nil
}

// UpdateStatus applies a lifecycle transition on behalf of actorID. Hospitals
// may only touch donations against their own requests; admins may touch any.
// Completion persists the donation and the donor's new cooldown anchor in one
// transaction, then emits status-changed and milestone events.
func (s *Service) UpdateStatus(ctx context.Context, donationID id.DonationID, t Transition, actorID id.UserID, actorRole id.Role) (*Donation, error) {
	ctx, span := s.tracer.Start(ctx, "donation.update_status",
		trace.WithAttributes(
			attribute.String("donation.id", donationID.String()),
			attribute.String("status.target", t.Target.String()),
		),
	)
	defer span.End()

	d, err := s.store.FindByID(ctx, donationID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	if err := s.authorize(ctx, d, actorID, actorRole); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	oldStatus := d.Status
	if err := d.ApplyTransition(t, now); err != nil {
		return nil, err
	}

	if d.Status == StatusCompleted {
		err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.store.Update(ctx, d); err != nil {
				return err
			}
			if _, err := s.users.RecordDonation(ctx, d.DonorID, *d.CompletedAt); err != nil {
				return err
			}
			return nil
		})
	} else {
		err = s.store.Update(ctx, d)
	}
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}

	s.emitStatusChanged(ctx, d, oldStatus)
	if d.Status == StatusCompleted {
		s.emitMilestone(ctx, d.DonorID)
	}
	return d, nil
}

// Cancel moves a donation to cancelled from any non-terminal state. Donors
// may cancel their own donation; hospitals one against their own request.
func (s *Service) Cancel(ctx context.Context, donationID id.DonationID, actorID id.UserID, actorRole id.Role) (*Donation, error) {
	return s.UpdateStatus(ctx, donationID, Transition{Target: StatusCancelled}, actorID, actorRole)
}

// CancelForRequest cancels every non-completed donation of a request,
// best-effort sequential: the first error is logged and the loop continues so
// one bad row cannot block the cascade. Returns the donor IDs whose
// donations were cancelled.
func (s *Service) CancelForRequest(ctx context.Context, requestID id.RequestID) ([]id.UserID, error) {
	donations, err := s.store.List(ctx, ListFilter{RequestID: requestID})
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}

	now := requestcontext.Now(ctx)
	var (
		donorIDs []id.UserID
		firstErr error
	)
	for _, d := range donations {
		if d.Status.IsTerminal() {
			continue
		}
		oldStatus := d.Status
		if err := d.ApplyTransition(Transition{Target: StatusCancelled}, now); err != nil {
			// non-terminal to cancelled is always legal; keep going anyway
			continue
		}
		if err := s.store.Update(ctx, d); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			s.logger.Error("cascade cancellation failed for donation",
				"donation_id", d.ID, "request_id", requestID, "error", err)
			continue
		}
		s.emitStatusChanged(ctx, d, oldStatus)
		donorIDs = append(donorIDs, d.DonorID)
	}
	return donorIDs, firstErr
}

func (s *Service) authorize(ctx context.Context, d *Donation, actorID id.UserID, actorRole id.Role) error {
	switch actorRole {
	case id.RoleAdmin:
		return nil
	case id.RoleDonor:
		if d.DonorID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "donation belongs to another donor")
		}
		return nil
	case id.RoleHospital:
		req, err := s.requests.Get(ctx, d.RequestID)
		if err != nil {
			return err
		}
		if req.HospitalID != actorID {
			return dErrors.New(dErrors.CodeForbidden, "donation belongs to another hospital's request")
		}
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "unknown actor role")
}

func (s *Service) emitStatusChanged(ctx context.Context, d *Donation, oldStatus Status) {
	req, err := s.requests.Get(ctx, d.RequestID)
	hospitalUserID := ""
	if err == nil {
		hospitalUserID = req.HospitalID.String()
	}
	s.notifier.Emit(ctx, events.KindDonationStatusChanged, events.DonationStatusChanged{
		DonationID:     d.ID.String(),
		RequestID:      d.RequestID.String(),
		DonorID:        d.DonorID.String(),
		HospitalUserID: hospitalUserID,
		OldStatus:      oldStatus.String(),
		NewStatus:      d.Status.String(),
	})
}

func (s *Service) emitMilestone(ctx context.Context, donorID id.UserID) {
	count, err := s.store.CountCompletedByDonor(ctx, donorID)
	if err != nil {
		s.logger.Warn("milestone check skipped", "donor_id", donorID, "error", err)
		return
	}
	achievement, ok := milestones[count]
	if !ok {
		return
	}
	s.notifier.Emit(ctx, events.KindMilestone, events.Milestone{
		UserID:        donorID.String(),
		Achievement:   achievement,
		DonationCount: count,
	})
}

func (s *Service) wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "donation not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "donation already exists")
	default:
		return fmt.Errorf("donation store: %w", err)
	}
}

func donorView(u *user.User) eligibility.Donor {
	return eligibility.Donor{
		Available:      u.Donor.Available,
		BloodType:      u.Donor.BloodType,
		LastDonationAt: u.Donor.LastDonationAt,
	}
}

func requestView(r *request.Request) eligibility.Request {
	return eligibility.Request{
		Kind:      r.Kind,
		BloodType: r.BloodType,
	}
}
