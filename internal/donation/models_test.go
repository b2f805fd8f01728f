package donation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

type ModelsSuite struct {
	suite.Suite
	now time.Time
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ModelsSuite) newDonation() *Donation {
	d, err := NewDonation(id.NewDonationID(), id.NewUserID(), id.NewRequestID(), 1, "", s.now)
	s.Require().NoError(err)
	return d
}

func (s *ModelsSuite) TestNewDonationDefaults() {
	d, err := NewDonation(id.NewDonationID(), id.NewUserID(), id.NewRequestID(), 0, "  after work  ", s.now)

	s.Require().NoError(err)
	s.Equal(StatusPending, d.Status)
	s.Equal(1, d.Quantity)
	s.Equal("after work", d.Notes)
	s.True(d.IsActive())
}

func (s *ModelsSuite) TestNewDonationNegativeQuantity() {
	_, err := NewDonation(id.NewDonationID(), id.NewUserID(), id.NewRequestID(), -1, "", s.now)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ModelsSuite) TestStatusTransitions() {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusScheduled, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		s.Run(string(tc.from)+"_to_"+string(tc.to), func() {
			s.Equal(tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func (s *ModelsSuite) TestScheduleRequiresFutureTime() {
	d := s.newDonation()

	past := s.now.Add(-time.Hour)
	err := d.ApplyTransition(Transition{Target: StatusScheduled, ScheduledAt: &past}, s.now)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	err = d.ApplyTransition(Transition{Target: StatusScheduled, ScheduledAt: &s.now}, s.now)
	s.Require().Error(err)

	future := s.now.Add(24 * time.Hour)
	s.Require().NoError(d.ApplyTransition(Transition{Target: StatusScheduled, ScheduledAt: &future}, s.now))
	s.Equal(StatusScheduled, d.Status)
	s.Require().NotNil(d.ScheduledAt)
	s.Equal(future, *d.ScheduledAt)
}

func (s *ModelsSuite) TestScheduleWithoutTimestamp() {
	d := s.newDonation()

	err := d.ApplyTransition(Transition{Target: StatusScheduled}, s.now)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ModelsSuite) TestCompleteDefaultsToNow() {
	d := s.newDonation()

	s.Require().NoError(d.ApplyTransition(Transition{Target: StatusCompleted}, s.now))

	s.Equal(StatusCompleted, d.Status)
	s.Require().NotNil(d.CompletedAt)
	s.Equal(s.now, *d.CompletedAt)
	s.True(d.IsActive())
}

func (s *ModelsSuite) TestCompleteRejectsFutureTimestamp() {
	d := s.newDonation()

	future := s.now.Add(time.Minute)
	err := d.ApplyTransition(Transition{Target: StatusCompleted, CompletedAt: &future}, s.now)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Equal(StatusPending, d.Status)
}

func (s *ModelsSuite) TestCompleteAcceptsPastTimestamp() {
	d := s.newDonation()

	earlier := s.now.Add(-2 * time.Hour)
	s.Require().NoError(d.ApplyTransition(Transition{Target: StatusCompleted, CompletedAt: &earlier}, s.now))

	s.Equal(earlier, *d.CompletedAt)
}

func (s *ModelsSuite) TestCancelledIsInactive() {
	d := s.newDonation()

	s.Require().NoError(d.ApplyTransition(Transition{Target: StatusCancelled}, s.now))

	s.False(d.IsActive())
	err := d.ApplyTransition(Transition{Target: StatusPending}, s.now)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ModelsSuite) TestTransitionUpdatesNotes() {
	d := s.newDonation()

	notes := "  rescheduled twice  "
	future := s.now.Add(time.Hour)
	s.Require().NoError(d.ApplyTransition(Transition{
		Target: StatusScheduled, ScheduledAt: &future, Notes: &notes,
	}, s.now))

	s.Equal("rescheduled twice", d.Notes)
}

func (s *ModelsSuite) TestParseStatus() {
	got, err := ParseStatus("scheduled")
	s.Require().NoError(err)
	s.Equal(StatusScheduled, got)

	_, err = ParseStatus("done")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
