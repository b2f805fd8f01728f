package request

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"lifeline/contracts/events"
	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/requestcontext"
)

type stubFinder struct {
	donorIDs []id.UserID
	err      error
	lastN    int
}

func (f *stubFinder) TopCandidateDonorIDs(_ context.Context, _ id.RequestID, limit int) ([]id.UserID, error) {
	f.lastN = limit
	return f.donorIDs, f.err
}

type stubCanceller struct {
	donorIDs []id.UserID
	err      error
	calls    int
}

func (c *stubCanceller) CancelForRequest(context.Context, id.RequestID) ([]id.UserID, error) {
	c.calls++
	return c.donorIDs, c.err
}

type stubDirectory struct {
	users map[id.UserID]*user.User
}

func (d *stubDirectory) Get(_ context.Context, userID id.UserID) (*user.User, error) {
	u, ok := d.users[userID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return u, nil
}

type recordingNotifier struct {
	kinds    []string
	payloads []any
}

func (n *recordingNotifier) Emit(_ context.Context, kind string, payload any) {
	n.kinds = append(n.kinds, kind)
	n.payloads = append(n.payloads, payload)
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	store     *InMemory
	finder    *stubFinder
	canceller *stubCanceller
	notifier  *recordingNotifier
	service   *Service
	hospital  id.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = NewInMemory()
	s.finder = &stubFinder{}
	s.canceller = &stubCanceller{}
	s.notifier = &recordingNotifier{}
	s.hospital = id.NewUserID()

	directory := &stubDirectory{users: map[id.UserID]*user.User{
		s.hospital: {
			ID:       s.hospital,
			Role:     id.RoleHospital,
			Hospital: &user.HospitalProfile{HospitalName: "City General"},
		},
	}}

	s.service = NewService(s.store, s.finder, directory, s.notifier,
		WithBroadcastFanOut(3))
	s.service.SetDonationCanceller(s.canceller)
}

func (s *ServiceSuite) createInput() CreateInput {
	bt := id.BloodOPos
	return CreateInput{
		HospitalID: s.hospital,
		Kind:       id.KindBlood,
		BloodType:  &bt,
		Urgency:    id.UrgencyHigh,
		Quantity:   2,
		RequiredBy: s.now.Add(48 * time.Hour),
	}
}

func (s *ServiceSuite) TestCreateBroadcastsToCandidates() {
	donor := id.NewUserID()
	s.finder.donorIDs = []id.UserID{donor}

	r, err := s.service.Create(s.ctx, s.createInput())

	s.Require().NoError(err)
	s.Equal(StatusPending, r.Status)
	s.Equal(3, s.finder.lastN)

	s.Require().Len(s.notifier.kinds, 1)
	s.Equal(events.KindRequestBroadcast, s.notifier.kinds[0])
	payload, ok := s.notifier.payloads[0].(events.RequestBroadcast)
	s.Require().True(ok)
	s.Equal([]string{donor.String()}, payload.DonorIDs)
	s.Equal(r.ID.String(), payload.RequestID)
	s.Equal("City General", payload.HospitalName)
	s.Equal("O+", payload.BloodType)
}

func (s *ServiceSuite) TestCreateSucceedsWhenBroadcastFails() {
	s.finder.err = errors.New("matching unavailable")

	r, err := s.service.Create(s.ctx, s.createInput())

	s.Require().NoError(err)
	s.Empty(s.notifier.kinds)

	stored, err := s.service.Get(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(StatusPending, stored.Status)
}

func (s *ServiceSuite) TestCreateSkipsBroadcastWithoutCandidates() {
	_, err := s.service.Create(s.ctx, s.createInput())

	s.Require().NoError(err)
	s.Empty(s.notifier.kinds)
}

func (s *ServiceSuite) TestCreateRejectsInvalidInput() {
	input := s.createInput()
	input.Quantity = 0

	_, err := s.service.Create(s.ctx, input)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestGetUnknownRequest() {
	_, err := s.service.Get(s.ctx, id.NewRequestID())

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateStatusByOwner() {
	r, err := s.service.Create(s.ctx, s.createInput())
	s.Require().NoError(err)

	later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
	updated, err := s.service.UpdateStatus(later, r.ID, StatusCompleted, s.hospital)

	s.Require().NoError(err)
	s.Equal(StatusCompleted, updated.Status)
	s.True(updated.UpdatedAt.After(r.UpdatedAt))
	s.Zero(s.canceller.calls)
}

func (s *ServiceSuite) TestUpdateStatusRejectsOtherHospital() {
	r, err := s.service.Create(s.ctx, s.createInput())
	s.Require().NoError(err)

	_, err = s.service.UpdateStatus(s.ctx, r.ID, StatusCancelled, id.NewUserID())

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Zero(s.canceller.calls)
}

func (s *ServiceSuite) TestUpdateStatusRejectsIllegalTransition() {
	r, err := s.service.Create(s.ctx, s.createInput())
	s.Require().NoError(err)
	_, err = s.service.UpdateStatus(s.ctx, r.ID, StatusCompleted, s.hospital)
	s.Require().NoError(err)

	_, err = s.service.UpdateStatus(s.ctx, r.ID, StatusCancelled, s.hospital)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ServiceSuite) TestCancellationCascades() {
	donor := id.NewUserID()
	s.canceller.donorIDs = []id.UserID{donor}
	r, err := s.service.Create(s.ctx, s.createInput())
	s.Require().NoError(err)

	_, err = s.service.UpdateStatus(s.ctx, r.ID, StatusCancelled, s.hospital)

	s.Require().NoError(err)
	s.Equal(1, s.canceller.calls)
	s.Require().NotEmpty(s.notifier.kinds)
	last := len(s.notifier.kinds) - 1
	s.Equal(events.KindRequestCancelled, s.notifier.kinds[last])
	payload, ok := s.notifier.payloads[last].(events.RequestCancelled)
	s.Require().True(ok)
	s.Equal([]string{donor.String()}, payload.DonorIDs)
	s.Equal(s.hospital.String(), payload.HospitalUserID)
}

func (s *ServiceSuite) TestCancellationEmitsEventEvenWhenCascadeFails() {
	s.canceller.err = errors.New("donation store down")
	r, err := s.service.Create(s.ctx, s.createInput())
	s.Require().NoError(err)

	updated, err := s.service.UpdateStatus(s.ctx, r.ID, StatusCancelled, s.hospital)

	s.Require().NoError(err)
	s.Equal(StatusCancelled, updated.Status)
	s.Equal(events.KindRequestCancelled, s.notifier.kinds[len(s.notifier.kinds)-1])
}

func (s *ServiceSuite) TestListFiltersByHospitalAndStatus() {
	r1, err := s.service.Create(s.ctx, s.createInput())
	s.Require().NoError(err)

	otherHospital := id.NewUserID()
	input := s.createInput()
	input.HospitalID = otherHospital
	_, err = s.service.Create(s.ctx, input)
	s.Require().NoError(err)

	mine, err := s.service.List(s.ctx, ListFilter{HospitalID: s.hospital})
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(r1.ID, mine[0].ID)

	pending, err := s.service.List(s.ctx, ListFilter{Status: StatusPending})
	s.Require().NoError(err)
	s.Len(pending, 2)
}
