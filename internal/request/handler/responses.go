package handler

import (
	"time"

	"lifeline/internal/request"
)

// RequestResponse is the wire shape of a donation request.
type RequestResponse struct {
	ID         string    `json:"id"`
	HospitalID string    `json:"hospital_id"`
	Kind       string    `json:"kind"`
	BloodType  string    `json:"blood_type,omitempty"`
	OrganType  string    `json:"organ_type,omitempty"`
	Urgency    string    `json:"urgency"`
	Status     string    `json:"status"`
	Quantity   int       `json:"quantity"`
	RequiredBy time.Time `json:"required_by"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ListRequestsResponse wraps the request listing.
type ListRequestsResponse struct {
	Requests []*RequestResponse `json:"requests"`
}

// FromRequest converts a domain Request to its HTTP response.
func FromRequest(r *request.Request) *RequestResponse {
	resp := &RequestResponse{
		ID:         r.ID.String(),
		HospitalID: r.HospitalID.String(),
		Kind:       r.Kind.String(),
		Urgency:    r.Urgency.String(),
		Status:     r.Status.String(),
		Quantity:   r.Quantity,
		RequiredBy: r.RequiredBy,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.BloodType != nil {
		resp.BloodType = r.BloodType.String()
	}
	if r.OrganType != nil {
		resp.OrganType = r.OrganType.String()
	}
	return resp
}
