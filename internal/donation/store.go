package donation

import (
	"context"

	id "lifeline/pkg/domain"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	DonorID   id.UserID
	RequestID id.RequestID
	Status    Status
}

// Store persists donations.
//
// CreateIfNoActive is the invariant gate: it must atomically reject the
// insert with sentinel.ErrConflict when the donor already holds a
// non-cancelled donation against the same request. FindByID returns
// sentinel.ErrNotFound for unknown IDs.
type Store interface {
	CreateIfNoActive(ctx context.Context, d *Donation) error
	FindByID(ctx context.Context, donationID id.DonationID) (*Donation, error)
	List(ctx context.Context, filter ListFilter) ([]*Donation, error)
	Update(ctx context.Context, d *Donation) error
	CountCompletedByDonor(ctx context.Context, donorID id.UserID) (int, error)
}
