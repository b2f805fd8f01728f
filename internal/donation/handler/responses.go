package handler

import (
	"time"

	"lifeline/internal/donation"
)

// DonationResponse is the wire shape of a donation.
type DonationResponse struct {
	ID          string     `json:"id"`
	DonorID     string     `json:"donor_id"`
	RequestID   string     `json:"request_id"`
	Status      string     `json:"status"`
	Quantity    int        `json:"quantity"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ListDonationsResponse wraps the donation listing.
type ListDonationsResponse struct {
	Donations []*DonationResponse `json:"donations"`
}

// FromDonation converts a domain Donation to its HTTP response.
func FromDonation(d *donation.Donation) *DonationResponse {
	return &DonationResponse{
		ID:          d.ID.String(),
		DonorID:     d.DonorID.String(),
		RequestID:   d.RequestID.String(),
		Status:      d.Status.String(),
		Quantity:    d.Quantity,
		ScheduledAt: d.ScheduledAt,
		CompletedAt: d.CompletedAt,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
