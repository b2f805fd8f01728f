// Package handler exposes the notification inbox endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/notification"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/httputil"
	"lifeline/pkg/requestcontext"
)

// Service defines the interface for inbox operations.
type Service interface {
	List(ctx context.Context, userID id.UserID, filter notification.ListFilter) ([]*notification.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, actorID id.UserID) (*notification.Notification, error)
}

// Handler wires inbox endpoints to the notification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a notification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoints available to any authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Post("/notifications/{id}/read", h.HandleMarkRead)
}

// HandleList handles GET /notifications with an optional unread=true filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	filter := notification.ListFilter{UnreadOnly: r.URL.Query().Get("unread") == "true"}
	rows, err := h.service.List(ctx, userID, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "notification listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]*NotificationResponse, 0, len(rows))
	for _, n := range rows {
		out = append(out, FromNotification(n))
	}
	httputil.WriteJSON(w, http.StatusOK, ListNotificationsResponse{Notifications: out})
}

// HandleMarkRead handles POST /notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.MarkRead(ctx, notificationID, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromNotification(updated))
}
