// Package eligibility decides whether a donor may donate against a request.
// This is pure domain logic - no I/O, no side effects. The evaluator receives
// everything it needs as arguments, including the clock, and returns a
// verdict with a reason safe to show to the donor.
//
// The same evaluator is consulted twice per donation: advisorily by the
// matching engine at read time, and authoritatively by the donation service
// at creation time. Only the second check counts.
package eligibility

import (
	"fmt"
	"time"

	id "lifeline/pkg/domain"
)

// DefaultCooldownDays is the minimum wait between completed whole-blood
// donations, modeling whole-blood regeneration.
const DefaultCooldownDays = 56

// Config carries the evaluator's tunables.
type Config struct {
	CooldownDays int
}

// Donor is the evaluator's view of a donor. Built by callers from the user
// aggregate; the evaluator never loads anything itself.
type Donor struct {
	Available      bool
	BloodType      *id.BloodType
	LastDonationAt *time.Time
}

// Request is the evaluator's view of a request.
type Request struct {
	Kind      id.RequestKind
	BloodType *id.BloodType
}

// Result is the evaluation verdict. Reason is human-readable and may be
// surfaced verbatim to the donor.
type Result struct {
	Eligible bool
	Reason   string
}

// ReasonEligible is the reason attached to a passing verdict.
const ReasonEligible = "eligible to donate"

// Evaluator applies the donor-vs-request rule chain.
type Evaluator struct {
	cooldownDays int
}

// New constructs an Evaluator. A non-positive cooldown falls back to the
// 56-day default.
func New(cfg Config) *Evaluator {
	days := cfg.CooldownDays
	if days <= 0 {
		days = DefaultCooldownDays
	}
	return &Evaluator{cooldownDays: days}
}

// CooldownDays returns the configured minimum interval between donations.
func (e *Evaluator) CooldownDays() int {
	return e.cooldownDays
}

// Evaluate applies the rule chain, fail-fast:
//  1. Availability - the donor must be accepting requests at all.
//  2. Blood requests only:
//     a. the donor must have a blood type on file,
//     b. the ABO/Rh matrix must allow the transfusion,
//     c. the cooldown since the last donation must have elapsed.
//
// Organ requests impose no rule beyond availability. That is a known gap
// carried over deliberately: there is no organ compatibility model here, and
// one must not be invented without domain review.
func (e *Evaluator) Evaluate(donor Donor, req Request, now time.Time) Result {
	if !donor.Available {
		return Result{Reason: "donor is not currently available"}
	}

	if req.Kind != id.KindBlood {
		return Result{Eligible: true, Reason: ReasonEligible}
	}

	if donor.BloodType == nil {
		return Result{Reason: "donor has no blood type on file"}
	}
	if req.BloodType == nil {
		return Result{Reason: "request has no blood type"}
	}

	if !donor.BloodType.CanDonateTo(*req.BloodType) {
		return Result{Reason: fmt.Sprintf(
			"blood type %s is not compatible with recipient type %s",
			donor.BloodType, req.BloodType,
		)}
	}

	if donor.LastDonationAt != nil {
		if wait := e.remainingWaitDays(*donor.LastDonationAt, now); wait > 0 {
			return Result{Reason: fmt.Sprintf(
				"donor must wait %d more day(s) before donating again", wait,
			)}
		}
	}

	return Result{Eligible: true, Reason: ReasonEligible}
}

// remainingWaitDays computes how many whole days of cooldown remain.
// Elapsed time is truncated to whole days, so a donor is eligible on the
// first instant of day CooldownDays and ineligible any instant before.
func (e *Evaluator) remainingWaitDays(lastDonation, now time.Time) int {
	elapsedDays := int(now.Sub(lastDonation) / (24 * time.Hour))
	return e.cooldownDays - elapsedDays
}
