package request

import (
	"context"

	id "lifeline/pkg/domain"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	HospitalID id.UserID
	Status     Status
	Kind       id.RequestKind
}

// Store persists requests.
//
// Implementations return sentinel.ErrNotFound when no request matches an ID.
// Listing returns requests newest-first.
type Store interface {
	Create(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]*Request, error)
	Update(ctx context.Context, r *Request) error
}
