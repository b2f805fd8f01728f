// Package notification implements the in-app notification pipeline: services
// emit events through the Publisher, an outbox relay ships them to Kafka, and
// the inbox writer materializes one row per recipient for the API to serve.
package notification

import (
	"strings"
	"time"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

// Notification is one inbox row for one recipient. EventID ties the row back
// to the originating event envelope; the (EventID, UserID) pair is unique so
// Kafka redeliveries cannot duplicate rows.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	EventID   string            `json:"event_id"`
	UserID    id.UserID         `json:"user_id"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification validates and constructs an inbox row.
func NewNotification(eventID string, userID id.UserID, kind, title, body string, createdAt time.Time) (*Notification, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "notification event id is required")
	}
	if userID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "notification recipient is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "notification title is required")
	}
	return &Notification{
		ID:        id.NewNotificationID(),
		EventID:   eventID,
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: createdAt,
	}, nil
}
