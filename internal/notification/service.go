package notification

import (
	"context"
	"errors"
	"log/slog"

	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/sentinel"
)

// Service serves a user's inbox.
type Service struct {
	inbox  InboxStore
	logger *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a notification Service.
func NewService(inbox InboxStore, opts ...ServiceOption) *Service {
	s := &Service{inbox: inbox, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID id.UserID, filter ListFilter) ([]*Notification, error) {
	rows, err := s.inbox.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return rows, nil
}

// MarkRead marks one of the caller's notifications read. Another user's
// notification reads as missing rather than forbidden, so IDs cannot be
// probed. Already-read rows are a no-op.
func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID, actorID id.UserID) (*Notification, error) {
	n, err := s.inbox.FindByID(ctx, notificationID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if n.UserID != actorID {
		return nil, dErrors.New(dErrors.CodeNotFound, "notification not found")
	}
	if n.Read {
		return n, nil
	}
	if err := s.inbox.MarkRead(ctx, notificationID); err != nil {
		return nil, wrapStoreErr(err)
	}
	n.Read = true
	return n, nil
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "notification not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "notification store failure")
}
