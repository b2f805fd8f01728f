// Package donation owns the Donation aggregate: a donor's commitment to a
// request, tracked through a small state machine from pending to completed.
// The one write-side invariant lives here: a donor holds at most one
// non-cancelled donation per request, enforced atomically by the store.
package donation

import (
	"strings"
	"time"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// Status is the donation lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusScheduled, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown donation status %q", s)
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the move to target is legal:
// pending → scheduled|completed|cancelled, scheduled → completed|cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() || s == target {
		return false
	}
	switch target {
	case StatusScheduled:
		return s == StatusPending
	case StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Donation is a donor's commitment to a request.
type Donation struct {
	ID          id.DonationID `json:"id"`
	DonorID     id.UserID     `json:"donor_id"`
	RequestID   id.RequestID  `json:"request_id"`
	Status      Status        `json:"status"`
	Quantity    int           `json:"quantity"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewDonation validates and constructs a pending Donation. A zero quantity
// defaults to 1.
func NewDonation(donationID id.DonationID, donorID id.UserID, requestID id.RequestID, quantity int, notes string, now time.Time) (*Donation, error) {
	if donorID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "donor id is required")
	}
	if requestID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "request id is required")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "quantity must be at least 1")
	}

	return &Donation{
		ID:        donationID,
		DonorID:   donorID,
		RequestID: requestID,
		Status:    StatusPending,
		Quantity:  quantity,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive reports whether the donation still counts against the
// one-per-(donor,request) invariant.
func (d *Donation) IsActive() bool {
	return d.Status != StatusCancelled
}

// Transition carries the optional fields accompanying a status change.
type Transition struct {
	Target      Status
	ScheduledAt *time.Time
	CompletedAt *time.Time
	Notes       *string
}

// ApplyTransition validates and applies a status change. ScheduledAt must be
// strictly future and CompletedAt at or before now, both relative to the
// request clock.
func (d *Donation) ApplyTransition(t Transition, now time.Time) error {
	if !d.Status.CanTransitionTo(t.Target) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"donation cannot move from %s to %s", d.Status, t.Target)
	}

	switch t.Target {
	case StatusScheduled:
		if t.ScheduledAt == nil {
			return dErrors.New(dErrors.CodeValidation, "scheduled_at is required when scheduling")
		}
		if !t.ScheduledAt.After(now) {
			return dErrors.New(dErrors.CodeInvalidTransition, "scheduled_at must be in the future")
		}
		d.ScheduledAt = t.ScheduledAt
	case StatusCompleted:
		completedAt := now
		if t.CompletedAt != nil {
			completedAt = *t.CompletedAt
		}
		if completedAt.After(now) {
			return dErrors.New(dErrors.CodeInvalidTransition, "completed_at cannot be in the future")
		}
		d.CompletedAt = &completedAt
	}

	if t.Notes != nil {
		d.Notes = strings.TrimSpace(*t.Notes)
	}
	d.Status = t.Target
	d.UpdatedAt = now
	return nil
}
