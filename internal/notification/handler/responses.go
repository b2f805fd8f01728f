package handler

import (
	"time"

	"lifeline/internal/notification"
)

// NotificationResponse is the wire shape of one inbox row.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotificationsResponse wraps the inbox listing.
type ListNotificationsResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
}

// FromNotification converts an inbox row to its HTTP response.
func FromNotification(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID.String(),
		Kind:      n.Kind,
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
