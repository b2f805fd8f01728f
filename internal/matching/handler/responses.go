package handler

import (
	"time"

	"lifeline/internal/matching"
)

// DonorMatchResponse is the wire shape of one ranked donor.
type DonorMatchResponse struct {
	DonorID   string  `json:"donor_id"`
	Name      string  `json:"name"`
	BloodType string  `json:"blood_type,omitempty"`
	City      string  `json:"city,omitempty"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

// DonorMatchesResponse wraps the donor match listing.
type DonorMatchesResponse struct {
	Matches []*DonorMatchResponse `json:"matches"`
}

// RequestMatchResponse is the wire shape of one ranked request.
type RequestMatchResponse struct {
	RequestID     string    `json:"request_id"`
	HospitalID    string    `json:"hospital_id"`
	Kind          string    `json:"kind"`
	BloodType     string    `json:"blood_type,omitempty"`
	OrganType     string    `json:"organ_type,omitempty"`
	Urgency       string    `json:"urgency"`
	Quantity      int       `json:"quantity"`
	RequiredBy    time.Time `json:"required_by"`
	Score         float64   `json:"score"`
	Compatibility string    `json:"compatibility"`
}

// RequestMatchesResponse wraps the request match listing.
type RequestMatchesResponse struct {
	Matches []*RequestMatchResponse `json:"matches"`
}

// FromDonorMatch converts a ranked donor to its HTTP response. Only the
// public slice of the donor profile crosses the wire.
func FromDonorMatch(m matching.DonorMatch) *DonorMatchResponse {
	resp := &DonorMatchResponse{
		DonorID: m.Donor.ID.String(),
		Name:    m.Donor.Name,
		Score:   m.Score,
		Reason:  m.Reason,
	}
	if m.Donor.Donor != nil {
		if m.Donor.Donor.BloodType != nil {
			resp.BloodType = m.Donor.Donor.BloodType.String()
		}
		resp.City = m.Donor.Donor.City
	}
	return resp
}

// FromRequestMatch converts a ranked request to its HTTP response.
func FromRequestMatch(m matching.RequestMatch) *RequestMatchResponse {
	resp := &RequestMatchResponse{
		RequestID:     m.Request.ID.String(),
		HospitalID:    m.Request.HospitalID.String(),
		Kind:          m.Request.Kind.String(),
		Urgency:       m.Request.Urgency.String(),
		Quantity:      m.Request.Quantity,
		RequiredBy:    m.Request.RequiredBy,
		Score:         m.Score,
		Compatibility: m.Compatibility,
	}
	if m.Request.BloodType != nil {
		resp.BloodType = m.Request.BloodType.String()
	}
	if m.Request.OrganType != nil {
		resp.OrganType = m.Request.OrganType.String()
	}
	return resp
}
