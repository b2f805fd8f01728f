// Package matching ranks compatible donors against requests and open
// requests against donors. Results are advisory: the donation service
// re-checks eligibility authoritatively before anything is written.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"lifeline/internal/donation"
	"lifeline/internal/eligibility"
	"lifeline/internal/matching/metrics"
	"lifeline/internal/request"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/geo"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/requestcontext"
)

const (
	baseScore            = 100.0
	neutralLocationScore = 50.0

	sideDonors   = "donors"
	sideRequests = "requests"

	reasonAlreadyResponded = "already_responded"
	reasonIneligible       = "ineligible"
)

// Config holds the scoring knobs.
type Config struct {
	ExactMatchBonus   float64
	ProximityRadiusKm float64
	UrgencyBonus      map[id.Urgency]float64
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		ExactMatchBonus:   20,
		ProximityRadiusKm: 100,
		UrgencyBonus: map[id.Urgency]float64{
			id.UrgencyLow:      0,
			id.UrgencyMedium:   5,
			id.UrgencyHigh:     15,
			id.UrgencyCritical: 25,
		},
	}
}

// UserStore is the user slice the matching engine reads from.
type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*user.User, error)
	ListByRole(ctx context.Context, role id.Role) ([]*user.User, error)
}

// RequestStore is the request slice the matching engine reads from.
type RequestStore interface {
	FindByID(ctx context.Context, requestID id.RequestID) (*request.Request, error)
	List(ctx context.Context, filter request.ListFilter) ([]*request.Request, error)
}

// DonationStore is the donation slice the matching engine reads from.
type DonationStore interface {
	List(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error)
}

// DonorMatch is one ranked donor for a request.
type DonorMatch struct {
	Donor  *user.User
	Score  float64
	Reason string
}

// RequestMatch is one ranked open request for a donor.
type RequestMatch struct {
	Request       *request.Request
	Score         float64
	Compatibility string
}

// Service implements the candidate search and scoring engine.
type Service struct {
	users     UserStore
	requests  RequestStore
	donations DonationStore
	evaluator *eligibility.Evaluator
	cfg       Config
	tracer    trace.Tracer
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches matching metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs a matching Service.
func NewService(users UserStore, requests RequestStore, donations DonationStore, evaluator *eligibility.Evaluator, cfg Config, opts ...Option) *Service {
	if cfg.ProximityRadiusKm <= 0 {
		cfg.ProximityRadiusKm = DefaultConfig().ProximityRadiusKm
	}
	s := &Service{
		users:     users,
		requests:  requests,
		donations: donations,
		evaluator: evaluator,
		cfg:       cfg,
		tracer:    otel.Tracer("lifeline/matching"),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindCandidateDonors ranks every eligible donor for the request, best
// first. Donors already holding a non-cancelled donation against the request
// are excluded. Ordering is deterministic: stable sort over the donor pool's
// listing order.
func (s *Service) FindCandidateDonors(ctx context.Context, requestID id.RequestID) ([]DonorMatch, error) {
	ctx, span := s.tracer.Start(ctx, "matching.find_candidate_donors",
		trace.WithAttributes(attribute.String("request.id", requestID.String())),
	)
	defer span.End()
	start := time.Now()

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapLookupErr(err, "request not found")
	}

	var (
		pool      []*user.User
		hospital  *user.User
		responded map[id.UserID]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pool, err = s.users.ListByRole(gctx, id.RoleDonor)
		return err
	})
	g.Go(func() error {
		var err error
		hospital, err = s.users.FindByID(gctx, req.HospitalID)
		return err
	})
	g.Go(func() error {
		existing, err := s.donations.List(gctx, donation.ListFilter{RequestID: requestID})
		if err != nil {
			return err
		}
		responded = make(map[id.UserID]bool, len(existing))
		for _, d := range existing {
			if d.IsActive() {
				responded[d.DonorID] = true
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("matching: load donor pool: %w", err)
	}

	var hospitalLocation *geo.Point
	if hospital.Hospital != nil {
		hospitalLocation = hospital.Hospital.Location
	}

	now := requestcontext.Now(ctx)
	reqView := eligibility.Request{Kind: req.Kind, BloodType: req.BloodType}
	matches := make([]DonorMatch, 0, len(pool))
	for _, donor := range pool {
		if donor.Donor == nil {
			continue
		}
		if responded[donor.ID] {
			s.metrics.IncrementExclusion(sideDonors, reasonAlreadyResponded)
			continue
		}
		verdict := s.evaluator.Evaluate(donorViewOf(donor), reqView, now)
		if !verdict.Eligible {
			s.metrics.IncrementExclusion(sideDonors, reasonIneligible)
			continue
		}
		matches = append(matches, DonorMatch{
			Donor:  donor,
			Score:  s.scoreDonor(donor, req, hospitalLocation),
			Reason: verdict.Reason,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	span.SetAttributes(
		attribute.Int("pool.size", len(pool)),
		attribute.Int("candidates", len(matches)),
	)
	s.metrics.ObserveSearch(sideDonors, time.Since(start), len(matches))
	return matches, nil
}

// FindCandidateRequests ranks the open requests a donor could serve, best
// first. Requests the donor already responded to are excluded.
func (s *Service) FindCandidateRequests(ctx context.Context, donorID id.UserID) ([]RequestMatch, error) {
	ctx, span := s.tracer.Start(ctx, "matching.find_candidate_requests",
		trace.WithAttributes(attribute.String("donor.id", donorID.String())),
	)
	defer span.End()
	start := time.Now()

	donor, err := s.users.FindByID(ctx, donorID)
	if err != nil {
		return nil, wrapLookupErr(err, "donor not found")
	}
	if !donor.IsDonor() {
		return nil, dErrors.New(dErrors.CodeNotFound, "donor not found")
	}

	var (
		pending    []*request.Request
		inProgress []*request.Request
		responded  map[id.RequestID]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.requests.List(gctx, request.ListFilter{Status: request.StatusPending})
		return err
	})
	g.Go(func() error {
		var err error
		inProgress, err = s.requests.List(gctx, request.ListFilter{Status: request.StatusInProgress})
		return err
	})
	g.Go(func() error {
		existing, err := s.donations.List(gctx, donation.ListFilter{DonorID: donorID})
		if err != nil {
			return err
		}
		responded = make(map[id.RequestID]bool, len(existing))
		for _, d := range existing {
			if d.IsActive() {
				responded[d.RequestID] = true
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("matching: load request pool: %w", err)
	}

	pool := make([]*request.Request, 0, len(pending)+len(inProgress))
	pool = append(pool, pending...)
	pool = append(pool, inProgress...)

	now := requestcontext.Now(ctx)
	donorView := donorViewOf(donor)
	matches := make([]RequestMatch, 0, len(pool))
	for _, req := range pool {
		if responded[req.ID] {
			s.metrics.IncrementExclusion(sideRequests, reasonAlreadyResponded)
			continue
		}
		verdict := s.evaluator.Evaluate(donorView, eligibility.Request{Kind: req.Kind, BloodType: req.BloodType}, now)
		if !verdict.Eligible {
			s.metrics.IncrementExclusion(sideRequests, reasonIneligible)
			continue
		}
		matches = append(matches, RequestMatch{
			Request:       req,
			Score:         s.scoreRequest(donor, req),
			Compatibility: compatibility(donor, req),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	span.SetAttributes(
		attribute.Int("pool.size", len(pool)),
		attribute.Int("candidates", len(matches)),
	)
	s.metrics.ObserveSearch(sideRequests, time.Since(start), len(matches))
	return matches, nil
}

// TopCandidateDonorIDs returns up to limit donor IDs from the ranked donor
// list; used by the request broadcast.
func (s *Service) TopCandidateDonorIDs(ctx context.Context, requestID id.RequestID, limit int) ([]id.UserID, error) {
	matches, err := s.FindCandidateDonors(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]id.UserID, len(matches))
	for i, m := range matches {
		out[i] = m.Donor.ID
	}
	return out, nil
}

// scoreDonor blends type affinity with proximity: running score (base +
// exact-match bonus) averaged with a 0-100 location sub-score that decays
// linearly to zero at the proximity radius. Missing coordinates on either
// side score a neutral 50.
func (s *Service) scoreDonor(donor *user.User, req *request.Request, hospitalLocation *geo.Point) float64 {
	score := baseScore
	if req.Kind == id.KindBlood && donor.Donor.BloodType != nil && req.BloodType != nil &&
		*donor.Donor.BloodType == *req.BloodType {
		score += s.cfg.ExactMatchBonus
	}

	location := neutralLocationScore
	if donor.Donor.Location != nil && hospitalLocation != nil {
		distance := geo.DistanceKm(*donor.Donor.Location, *hospitalLocation)
		if distance >= s.cfg.ProximityRadiusKm {
			location = 0
		} else {
			location = 100 * (1 - distance/s.cfg.ProximityRadiusKm)
		}
	}
	return (score + location) / 2
}

// scoreRequest favors exact type matches and urgent requests. No location
// blending on this side.
func (s *Service) scoreRequest(donor *user.User, req *request.Request) float64 {
	score := baseScore
	if req.Kind == id.KindBlood && donor.Donor.BloodType != nil && req.BloodType != nil &&
		*donor.Donor.BloodType == *req.BloodType {
		score += s.cfg.ExactMatchBonus
	}
	score += s.cfg.UrgencyBonus[req.Urgency]
	return score
}

func compatibility(donor *user.User, req *request.Request) string {
	if req.Kind == id.KindBlood && donor.Donor.BloodType != nil && req.BloodType != nil {
		return fmt.Sprintf("%s donor can supply %s request", *donor.Donor.BloodType, *req.BloodType)
	}
	return "donor is available"
}

func donorViewOf(u *user.User) eligibility.Donor {
	return eligibility.Donor{
		Available:      u.Donor.Available,
		BloodType:      u.Donor.BloodType,
		LastDonationAt: u.Donor.LastDonationAt,
	}
}

func wrapLookupErr(err error, message string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, message)
	}
	return err
}
