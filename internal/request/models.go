// Package request owns the donation Request aggregate: a hospital's ask for
// a blood type or organ category by a deadline, with a small status
// lifecycle and a cancellation cascade into the donations against it.
package request

import (
	"strings"
	"time"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// Status is the request lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown request status %q", s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the move to target is legal:
// pending → in_progress|completed|cancelled, in_progress → completed|cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() || s == target {
		return false
	}
	switch target {
	case StatusInProgress:
		return s == StatusPending
	case StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Request is the aggregate root for a hospital's donation ask.
//
// Invariants:
//   - exactly the sub-type matching Kind is set (BloodType for blood
//     requests, OrganType for organ requests)
//   - Quantity ≥ 1
//   - RequiredBy is strictly in the future at creation time
type Request struct {
	ID         id.RequestID   `json:"id"`
	HospitalID id.UserID      `json:"hospital_id"`
	Kind       id.RequestKind `json:"kind"`
	BloodType  *id.BloodType  `json:"blood_type,omitempty"`
	OrganType  *id.OrganType  `json:"organ_type,omitempty"`
	Urgency    id.Urgency     `json:"urgency"`
	Status     Status         `json:"status"`
	Quantity   int            `json:"quantity"`
	RequiredBy time.Time      `json:"required_by"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewRequest validates and constructs a Request in pending state.
func NewRequest(requestID id.RequestID, hospitalID id.UserID, kind id.RequestKind, bloodTypeValue *id.BloodType, organType *id.OrganType, urgency id.Urgency, quantity int, requiredBy time.Time, notes string, now time.Time) (*Request, error) {
	if hospitalID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "hospital id is required")
	}
	if !kind.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown request kind %q", kind)
	}
	if !urgency.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown urgency %q", urgency)
	}
	if quantity < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "quantity must be at least 1")
	}
	if !requiredBy.After(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "required-by date must be in the future")
	}

	switch kind {
	case id.KindBlood:
		if bloodTypeValue == nil || organType != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "blood requests require exactly a blood type")
		}
		if !bloodTypeValue.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown blood type %q", *bloodTypeValue)
		}
	case id.KindOrgan:
		if organType == nil || bloodTypeValue != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "organ requests require exactly an organ type")
		}
		if !organType.IsValid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown organ type %q", *organType)
		}
	}

	return &Request{
		ID:         requestID,
		HospitalID: hospitalID,
		Kind:       kind,
		BloodType:  bloodTypeValue,
		OrganType:  organType,
		Urgency:    urgency,
		Status:     StatusPending,
		Quantity:   quantity,
		RequiredBy: requiredBy,
		Notes:      strings.TrimSpace(notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsAcceptingDonations reports whether new donations may be created against
// this request.
func (r *Request) IsAcceptingDonations() bool {
	return r.Status == StatusPending || r.Status == StatusInProgress
}

// CanTransitionTo checks the status transition without applying it.
func (r *Request) CanTransitionTo(target Status) error {
	if !r.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"request cannot move from %s to %s", r.Status, target)
	}
	return nil
}

// ApplyTransition moves the request to target. Call CanTransitionTo first.
func (r *Request) ApplyTransition(target Status, now time.Time) {
	r.Status = target
	r.UpdatedAt = now
}
