package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

type ModelsSuite struct {
	suite.Suite
	now      time.Time
	hospital id.UserID
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.hospital = id.NewUserID()
}

func (s *ModelsSuite) bloodRequest() *Request {
	bt := id.BloodOPos
	r, err := NewRequest(id.NewRequestID(), s.hospital, id.KindBlood, &bt, nil,
		id.UrgencyHigh, 2, s.now.Add(48*time.Hour), "", s.now)
	s.Require().NoError(err)
	return r
}

func (s *ModelsSuite) TestNewRequestBlood() {
	r := s.bloodRequest()

	s.Equal(StatusPending, r.Status)
	s.Equal(id.KindBlood, r.Kind)
	s.Require().NotNil(r.BloodType)
	s.Equal(id.BloodOPos, *r.BloodType)
	s.Nil(r.OrganType)
	s.True(r.IsAcceptingDonations())
}

func (s *ModelsSuite) TestNewRequestOrgan() {
	ot := id.OrganKidney
	r, err := NewRequest(id.NewRequestID(), s.hospital, id.KindOrgan, nil, &ot,
		id.UrgencyCritical, 1, s.now.Add(24*time.Hour), "urgent transplant", s.now)

	s.Require().NoError(err)
	s.Nil(r.BloodType)
	s.Require().NotNil(r.OrganType)
	s.Equal(id.OrganKidney, *r.OrganType)
	s.Equal("urgent transplant", r.Notes)
}

func (s *ModelsSuite) TestNewRequestValidation() {
	bt := id.BloodAPos
	ot := id.OrganLiver
	future := s.now.Add(time.Hour)

	cases := []struct {
		name      string
		kind      id.RequestKind
		bloodType *id.BloodType
		organType *id.OrganType
		quantity  int
		required  time.Time
	}{
		{"blood without blood type", id.KindBlood, nil, nil, 1, future},
		{"blood with organ type", id.KindBlood, &bt, &ot, 1, future},
		{"organ without organ type", id.KindOrgan, nil, nil, 1, future},
		{"organ with blood type", id.KindOrgan, &bt, &ot, 1, future},
		{"zero quantity", id.KindBlood, &bt, nil, 0, future},
		{"negative quantity", id.KindBlood, &bt, nil, -3, future},
		{"required-by in the past", id.KindBlood, &bt, nil, 1, s.now.Add(-time.Minute)},
		{"required-by exactly now", id.KindBlood, &bt, nil, 1, s.now},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := NewRequest(id.NewRequestID(), s.hospital, tc.kind,
				tc.bloodType, tc.organType, id.UrgencyMedium, tc.quantity,
				tc.required, "", s.now)

			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func (s *ModelsSuite) TestStatusTransitions() {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusInProgress, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		s.Run(string(tc.from)+"_to_"+string(tc.to), func() {
			s.Equal(tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func (s *ModelsSuite) TestTerminalRequestRejectsTransition() {
	r := s.bloodRequest()
	r.ApplyTransition(StatusCancelled, s.now.Add(time.Minute))

	err := r.CanTransitionTo(StatusInProgress)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.False(r.IsAcceptingDonations())
}

func (s *ModelsSuite) TestParseStatus() {
	got, err := ParseStatus("in_progress")
	s.Require().NoError(err)
	s.Equal(StatusInProgress, got)

	_, err = ParseStatus("archived")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
