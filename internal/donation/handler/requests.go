package handler

import (
	"strings"
	"time"

	"lifeline/internal/donation"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /donations.
type CreateRequest struct {
	RequestID string `json:"request_id"`
	Quantity  int    `json:"quantity,omitempty"`
	Notes     string `json:"notes,omitempty"`

	parsedRequestID id.RequestID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.RequestID) == "" {
		return dErrors.New(dErrors.CodeValidation, "request_id is required")
	}
	requestID, err := id.ParseRequestID(r.RequestID)
	if err != nil {
		return err
	}
	r.parsedRequestID = requestID

	if r.Quantity < 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}

// ParsedRequestID returns the validated request ID.
func (r *CreateRequest) ParsedRequestID() id.RequestID {
	return r.parsedRequestID
}

// UpdateStatusRequest is the HTTP request body for PATCH /donations/{id}/status.
type UpdateStatusRequest struct {
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       *string    `json:"notes,omitempty"`

	parsedStatus donation.Status
}

// Validate validates and parses the request. Timestamp plausibility relative
// to the request clock is checked by the domain transition.
func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := donation.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// Transition builds the domain transition from the validated body.
func (r *UpdateStatusRequest) Transition() donation.Transition {
	return donation.Transition{
		Target:      r.parsedStatus,
		ScheduledAt: r.ScheduledAt,
		CompletedAt: r.CompletedAt,
		Notes:       r.Notes,
	}
}
