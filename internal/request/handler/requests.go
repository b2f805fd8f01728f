package handler

import (
	"strings"
	"time"

	"lifeline/internal/request"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /requests.
type CreateRequest struct {
	Kind       string    `json:"kind"`
	BloodType  string    `json:"blood_type,omitempty"`
	OrganType  string    `json:"organ_type,omitempty"`
	Urgency    string    `json:"urgency"`
	Quantity   int       `json:"quantity"`
	RequiredBy time.Time `json:"required_by"`
	Notes      string    `json:"notes,omitempty"`

	parsedKind      id.RequestKind
	parsedBloodType *id.BloodType
	parsedOrganType *id.OrganType
	parsedUrgency   id.Urgency
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	kind, err := id.ParseRequestKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return err
	}
	r.parsedKind = kind

	urgency, err := id.ParseUrgency(strings.TrimSpace(r.Urgency))
	if err != nil {
		return err
	}
	r.parsedUrgency = urgency

	if r.BloodType != "" {
		bt, err := id.ParseBloodType(strings.TrimSpace(r.BloodType))
		if err != nil {
			return err
		}
		r.parsedBloodType = &bt
	}
	if r.OrganType != "" {
		ot, err := id.ParseOrganType(strings.TrimSpace(r.OrganType))
		if err != nil {
			return err
		}
		r.parsedOrganType = &ot
	}

	if r.RequiredBy.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "required_by is required")
	}
	return nil
}

// Input builds the service-level create input for the given hospital.
// Cross-field invariants (kind vs sub-type, quantity, deadline in the
// future) are enforced by the domain constructor.
func (r *CreateRequest) Input(hospitalID id.UserID) request.CreateInput {
	return request.CreateInput{
		HospitalID: hospitalID,
		Kind:       r.parsedKind,
		BloodType:  r.parsedBloodType,
		OrganType:  r.parsedOrganType,
		Urgency:    r.parsedUrgency,
		Quantity:   r.Quantity,
		RequiredBy: r.RequiredBy,
		Notes:      r.Notes,
	}
}

// UpdateStatusRequest is the HTTP request body for PATCH /requests/{id}/status.
type UpdateStatusRequest struct {
	StatusValue string `json:"status"`

	parsedStatus request.Status
}

// Validate validates and parses the request.
func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := request.ParseStatus(strings.TrimSpace(r.StatusValue))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	return nil
}

// Status returns the validated target status.
func (r *UpdateStatusRequest) Status() request.Status {
	return r.parsedStatus
}
