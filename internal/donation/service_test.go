package donation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/contracts/events"
	"lifeline/internal/eligibility"
	"lifeline/internal/request"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/tx"
	"lifeline/pkg/requestcontext"
)

type noopFinder struct{}

func (noopFinder) TopCandidateDonorIDs(context.Context, id.RequestID, int) ([]id.UserID, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	kinds    []string
	payloads []any
}

func (n *recordingNotifier) Emit(_ context.Context, kind string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	n.payloads = append(n.payloads, payload)
}

func (n *recordingNotifier) byKind(kind string) []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []any
	for i, k := range n.kinds {
		if k == kind {
			out = append(out, n.payloads[i])
		}
	}
	return out
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	store    *InMemory
	users    *user.Service
	requests *request.Service
	notifier *recordingNotifier
	service  *Service

	donorID    id.UserID
	hospitalID id.UserID
	requestID  id.RequestID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = NewInMemory()
	s.notifier = &recordingNotifier{}
	s.users = user.NewService(user.NewInMemory())
	s.requests = request.NewService(request.NewInMemory(), noopFinder{}, s.users, s.notifier)

	s.service = NewService(s.store, s.users, s.requests,
		eligibility.New(eligibility.Config{}), tx.NewMemoryRunner(), s.notifier)
	s.requests.SetDonationCanceller(s.service)

	s.donorID = s.registerDonor("donor@example.com", id.BloodONeg, nil)
	s.hospitalID = s.registerHospital("ward@hospital.example")
	s.requestID = s.openRequest(id.BloodOPos)
	// reset events emitted during fixture setup
	s.notifier.kinds = nil
	s.notifier.payloads = nil
}

func (s *ServiceSuite) registerDonor(emailAddr string, bloodType id.BloodType, lastDonation *time.Time) id.UserID {
	u, err := user.NewUser(id.NewUserID(), emailAddr, "hash", "", "", id.RoleDonor,
		&user.DonorProfile{BloodType: &bloodType, Available: true, LastDonationAt: lastDonation},
		nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u.ID
}

func (s *ServiceSuite) registerHospital(emailAddr string) id.UserID {
	u, err := user.NewUser(id.NewUserID(), emailAddr, "hash", "", "", id.RoleHospital,
		nil, &user.HospitalProfile{HospitalName: "City General"}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Create(s.ctx, u))
	return u.ID
}

func (s *ServiceSuite) openRequest(bloodType id.BloodType) id.RequestID {
	r, err := s.requests.Create(s.ctx, request.CreateInput{
		HospitalID: s.hospitalID,
		Kind:       id.KindBlood,
		BloodType:  &bloodType,
		Urgency:    id.UrgencyHigh,
		Quantity:   2,
		RequiredBy: s.now.Add(72 * time.Hour),
	})
	s.Require().NoError(err)
	return r.ID
}

func (s *ServiceSuite) TestCreate() {
	d, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "after work")

	s.Require().NoError(err)
	s.Equal(StatusPending, d.Status)
	s.Equal(s.donorID, d.DonorID)
	s.Equal(s.requestID, d.RequestID)

	// request status is the hospital's call; a donation never moves it
	r, err := s.requests.Get(s.ctx, s.requestID)
	s.Require().NoError(err)
	s.Equal(request.StatusPending, r.Status)

	// hospital is told about the match
	matches := s.notifier.byKind(events.KindMatchFound)
	s.Require().Len(matches, 1)
	payload, ok := matches[0].(events.MatchFound)
	s.Require().True(ok)
	s.Equal(s.hospitalID.String(), payload.HospitalUserID)
	s.Equal(d.ID.String(), payload.DonationID)
	s.Equal("O+", payload.BloodType)
}

func (s *ServiceSuite) TestCreateUnknownDonor() {
	_, err := s.service.Create(s.ctx, id.NewUserID(), s.requestID, 1, "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCreateUnknownRequest() {
	_, err := s.service.Create(s.ctx, s.donorID, id.NewRequestID(), 1, "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCreateByHospitalAccount() {
	_, err := s.service.Create(s.ctx, s.hospitalID, s.requestID, 1, "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestCreateAgainstClosedRequest() {
	_, err := s.requests.UpdateStatus(s.ctx, s.requestID, request.StatusCompleted, s.hospitalID)
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCreateIneligibleDonor() {
	// A+ cannot donate to an O+ request
	incompatible := s.registerDonor("aplus@example.com", id.BloodAPos, nil)

	_, err := s.service.Create(s.ctx, incompatible, s.requestID, 1, "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIneligible))
	s.Contains(dErrors.MessageOf(err), "A+")
}

func (s *ServiceSuite) TestCreateDonorInCooldown() {
	recent := s.now.Add(-10 * 24 * time.Hour)
	cooling := s.registerDonor("cooling@example.com", id.BloodONeg, &recent)

	_, err := s.service.Create(s.ctx, cooling, s.requestID, 1, "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIneligible))
	s.Contains(dErrors.MessageOf(err), "46")
}

func (s *ServiceSuite) TestCreateTwiceConflicts() {
	_, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestCreateAfterCancellationSucceeds() {
	d, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.ctx, d.ID, s.donorID, id.RoleDonor)
	s.Require().NoError(err)

	_, err = s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestConcurrentCreateAdmitsExactlyOne() {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
		}(i)
	}
	wg.Wait()

	var success, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			success++
		case dErrors.HasCode(err, dErrors.CodeConflict):
			conflict++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, success)
	s.Equal(1, conflict)
}

func (s *ServiceSuite) TestCompleteSetsCooldownAnchor() {
	d, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)

	later := requestcontext.WithTime(s.ctx, s.now.Add(24*time.Hour))
	updated, err := s.service.UpdateStatus(later, d.ID,
		Transition{Target: StatusCompleted}, s.hospitalID, id.RoleHospital)

	s.Require().NoError(err)
	s.Equal(StatusCompleted, updated.Status)

	donor, err := s.users.Get(s.ctx, s.donorID)
	s.Require().NoError(err)
	s.Require().NotNil(donor.Donor.LastDonationAt)
	s.Equal(s.now.Add(24*time.Hour), *donor.Donor.LastDonationAt)

	changed := s.notifier.byKind(events.KindDonationStatusChanged)
	s.Require().Len(changed, 1)
	payload, ok := changed[0].(events.DonationStatusChanged)
	s.Require().True(ok)
	s.Equal("pending", payload.OldStatus)
	s.Equal("completed", payload.NewStatus)
}

func (s *ServiceSuite) TestFirstCompletionEmitsMilestone() {
	d, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)

	_, err = s.service.UpdateStatus(s.ctx, d.ID,
		Transition{Target: StatusCompleted}, s.hospitalID, id.RoleHospital)
	s.Require().NoError(err)

	achievements := s.notifier.byKind(events.KindMilestone)
	s.Require().Len(achievements, 1)
	payload, ok := achievements[0].(events.Milestone)
	s.Require().True(ok)
	s.Equal("first donation", payload.Achievement)
	s.Equal(1, payload.DonationCount)
}

func (s *ServiceSuite) TestNonMilestoneCompletionStaysQuiet() {
	// a second completed donation does not cross a milestone threshold
	d1, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)
	_, err = s.service.UpdateStatus(s.ctx, d1.ID,
		Transition{Target: StatusCompleted}, s.hospitalID, id.RoleHospital)
	s.Require().NoError(err)

	secondRequest := s.openRequest(id.BloodONeg)
	// clear the cooldown so the same donor is eligible again
	farLater := requestcontext.WithTime(s.ctx, s.now.Add(60*24*time.Hour))
	d2, err := s.service.Create(farLater, s.donorID, secondRequest, 1, "")
	s.Require().NoError(err)
	_, err = s.service.UpdateStatus(farLater, d2.ID,
		Transition{Target: StatusCompleted}, s.hospitalID, id.RoleHospital)
	s.Require().NoError(err)

	s.Len(s.notifier.byKind(events.KindMilestone), 1)
}

func (s *ServiceSuite) TestUpdateStatusAuthorization() {
	d, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)

	otherHospital := s.registerHospital("other@hospital.example")
	_, err = s.service.UpdateStatus(s.ctx, d.ID,
		Transition{Target: StatusCompleted}, otherHospital, id.RoleHospital)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	otherDonor := s.registerDonor("other@example.com", id.BloodONeg, nil)
	_, err = s.service.Cancel(s.ctx, d.ID, otherDonor, id.RoleDonor)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	// admins may touch any donation
	_, err = s.service.UpdateStatus(s.ctx, d.ID,
		Transition{Target: StatusCompleted}, id.NewUserID(), id.RoleAdmin)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestTerminalDonationFrozen() {
	d, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)
	_, err = s.service.Cancel(s.ctx, d.ID, s.donorID, id.RoleDonor)
	s.Require().NoError(err)

	future := s.now.Add(time.Hour)
	_, err = s.service.UpdateStatus(s.ctx, d.ID,
		Transition{Target: StatusScheduled, ScheduledAt: &future}, s.hospitalID, id.RoleHospital)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ServiceSuite) TestCancelForRequestSkipsCompleted() {
	d1, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)
	_, err = s.service.UpdateStatus(s.ctx, d1.ID,
		Transition{Target: StatusCompleted}, s.hospitalID, id.RoleHospital)
	s.Require().NoError(err)

	second := s.registerDonor("second@example.com", id.BloodONeg, nil)
	d2, err := s.service.Create(s.ctx, second, s.requestID, 1, "")
	s.Require().NoError(err)

	donorIDs, err := s.service.CancelForRequest(s.ctx, s.requestID)

	s.Require().NoError(err)
	s.Equal([]id.UserID{second}, donorIDs)

	completed, err := s.service.Get(s.ctx, d1.ID)
	s.Require().NoError(err)
	s.Equal(StatusCompleted, completed.Status)

	cancelled, err := s.service.Get(s.ctx, d2.ID)
	s.Require().NoError(err)
	s.Equal(StatusCancelled, cancelled.Status)
}

func (s *ServiceSuite) TestRequestCancellationCascade() {
	d, err := s.service.Create(s.ctx, s.donorID, s.requestID, 1, "")
	s.Require().NoError(err)

	_, err = s.requests.UpdateStatus(s.ctx, s.requestID, request.StatusCancelled, s.hospitalID)
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(StatusCancelled, got.Status)

	cancelledEvents := s.notifier.byKind(events.KindRequestCancelled)
	s.Require().Len(cancelledEvents, 1)
	payload, ok := cancelledEvents[0].(events.RequestCancelled)
	s.Require().True(ok)
	s.Equal([]string{s.donorID.String()}, payload.DonorIDs)
}
