package notification

import (
	"context"

	id "lifeline/pkg/domain"
)

// ListFilter narrows inbox listings.
type ListFilter struct {
	UnreadOnly bool
}

// InboxStore persists materialized notifications. Implementations report
// sentinel errors: sentinel.ErrNotFound for missing rows. Insert is
// idempotent on the (EventID, UserID) pair; a duplicate insert is a no-op,
// not an error, so the Kafka consumer can safely reprocess.
type InboxStore interface {
	Insert(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, notificationID id.NotificationID) (*Notification, error)
	ListByUser(ctx context.Context, userID id.UserID, filter ListFilter) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID) error
}
