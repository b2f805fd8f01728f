package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "lifeline/pkg/domain"
)

type EvaluatorSuite struct {
	suite.Suite
	evaluator *Evaluator
	now       time.Time
}

func (s *EvaluatorSuite) SetupTest() {
	s.evaluator = New(Config{CooldownDays: 56})
	s.now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func bloodType(bt id.BloodType) *id.BloodType {
	return &bt
}

func (s *EvaluatorSuite) bloodRequest(bt id.BloodType) Request {
	return Request{Kind: id.KindBlood, BloodType: bloodType(bt)}
}

// TestAvailabilityShortCircuit verifies availability is checked before any
// blood-type rule: an unavailable donor is rejected even on a perfect match.
func (s *EvaluatorSuite) TestAvailabilityShortCircuit() {
	donor := Donor{
		Available: false,
		BloodType: bloodType(id.BloodOPos),
	}

	result := s.evaluator.Evaluate(donor, s.bloodRequest(id.BloodOPos), s.now)

	s.False(result.Eligible)
	s.Equal("donor is not currently available", result.Reason)
}

func (s *EvaluatorSuite) TestBloodTypeRules() {
	s.Run("missing blood type rejected before compatibility", func() {
		donor := Donor{Available: true}

		result := s.evaluator.Evaluate(donor, s.bloodRequest(id.BloodOPos), s.now)

		s.False(result.Eligible)
		s.Equal("donor has no blood type on file", result.Reason)
	})

	s.Run("incompatible pairing names both types", func() {
		donor := Donor{Available: true, BloodType: bloodType(id.BloodANeg)}

		result := s.evaluator.Evaluate(donor, s.bloodRequest(id.BloodOPos), s.now)

		s.False(result.Eligible)
		s.Contains(result.Reason, "A-")
		s.Contains(result.Reason, "O+")
	})

	s.Run("compatible pairing passes", func() {
		donor := Donor{Available: true, BloodType: bloodType(id.BloodONeg)}

		result := s.evaluator.Evaluate(donor, s.bloodRequest(id.BloodABPos), s.now)

		s.True(result.Eligible)
		s.Equal(ReasonEligible, result.Reason)
	})
}

// TestCooldownBoundary pins the whole-day truncation rule: exactly 56 days
// since the last donation is eligible, anything less is not.
func (s *EvaluatorSuite) TestCooldownBoundary() {
	newDonor := func(last time.Time) Donor {
		return Donor{
			Available:      true,
			BloodType:      bloodType(id.BloodOPos),
			LastDonationAt: &last,
		}
	}
	req := s.bloodRequest(id.BloodOPos)

	s.Run("exactly 56 days ago is eligible", func() {
		donor := newDonor(s.now.Add(-56 * 24 * time.Hour))

		result := s.evaluator.Evaluate(donor, req, s.now)

		s.True(result.Eligible)
	})

	s.Run("55 days ago is ineligible with one day remaining", func() {
		donor := newDonor(s.now.Add(-55 * 24 * time.Hour))

		result := s.evaluator.Evaluate(donor, req, s.now)

		s.False(result.Eligible)
		s.Contains(result.Reason, "1 more day")
	})

	s.Run("55 days and 23 hours ago is still ineligible", func() {
		donor := newDonor(s.now.Add(-55*24*time.Hour - 23*time.Hour))

		result := s.evaluator.Evaluate(donor, req, s.now)

		s.False(result.Eligible)
	})

	s.Run("donation moments ago reports the full wait", func() {
		donor := newDonor(s.now.Add(-time.Minute))

		result := s.evaluator.Evaluate(donor, req, s.now)

		s.False(result.Eligible)
		s.Contains(result.Reason, "56 more day")
	})

	s.Run("no prior donation skips the cooldown rule", func() {
		donor := Donor{Available: true, BloodType: bloodType(id.BloodOPos)}

		result := s.evaluator.Evaluate(donor, req, s.now)

		s.True(result.Eligible)
	})
}

// TestOrganRequests verifies availability is the only organ-kind gate: no
// blood type needed, no cooldown applied.
func (s *EvaluatorSuite) TestOrganRequests() {
	req := Request{Kind: id.KindOrgan}

	s.Run("available donor without blood type is eligible", func() {
		result := s.evaluator.Evaluate(Donor{Available: true}, req, s.now)

		s.True(result.Eligible)
	})

	s.Run("recent blood donation does not block an organ request", func() {
		last := s.now.Add(-24 * time.Hour)
		donor := Donor{
			Available:      true,
			BloodType:      bloodType(id.BloodOPos),
			LastDonationAt: &last,
		}

		result := s.evaluator.Evaluate(donor, req, s.now)

		s.True(result.Eligible)
	})

	s.Run("unavailable donor is still rejected", func() {
		result := s.evaluator.Evaluate(Donor{Available: false}, req, s.now)

		s.False(result.Eligible)
	})
}

func (s *EvaluatorSuite) TestConfigurableCooldown() {
	evaluator := New(Config{CooldownDays: 7})
	last := s.now.Add(-10 * 24 * time.Hour)
	donor := Donor{
		Available:      true,
		BloodType:      bloodType(id.BloodBPos),
		LastDonationAt: &last,
	}

	result := evaluator.Evaluate(donor, s.bloodRequest(id.BloodBPos), s.now)

	s.True(result.Eligible)
}

func (s *EvaluatorSuite) TestDefaultCooldownApplied() {
	evaluator := New(Config{})
	s.Equal(DefaultCooldownDays, evaluator.CooldownDays())
}
