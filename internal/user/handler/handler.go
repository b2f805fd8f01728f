// Package handler exposes profile endpoints: the caller's own account plus
// the donor/hospital profile mutations.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/user"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/httputil"
	"lifeline/pkg/requestcontext"
)

// Service defines the interface for user profile operations.
type Service interface {
	Get(ctx context.Context, userID id.UserID) (*user.User, error)
	UpdateDonorProfile(ctx context.Context, userID id.UserID, update user.DonorUpdate) (*user.User, error)
	UpdateHospitalProfile(ctx context.Context, userID id.UserID, update user.HospitalUpdate) (*user.User, error)
	ListByRole(ctx context.Context, role id.Role) ([]*user.User, error)
}

// Handler wires profile endpoints to the user service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a user handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the self-service profile endpoints. Role enforcement
// happens in the router middleware; handlers only read the authenticated
// user from context.
func (h *Handler) Register(r chi.Router) {
	r.Get("/users/me", h.HandleGetMe)
	r.Put("/donors/me", h.HandleUpdateDonorProfile)
	r.Put("/hospitals/me", h.HandleUpdateHospitalProfile)
}

// RegisterAdmin mounts the admin user listing.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/users", h.HandleListUsers)
}

// HandleGetMe handles GET /users/me.
func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	u, err := h.service.Get(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}

// HandleUpdateDonorProfile handles PUT /donors/me.
func (h *Handler) HandleUpdateDonorProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateDonorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	u, err := h.service.UpdateDonorProfile(ctx, userID, req.Update())
	if err != nil {
		h.logger.ErrorContext(ctx, "donor profile update failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "donor profile updated",
		"request_id", requestID,
		"user_id", userID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}

// HandleUpdateHospitalProfile handles PUT /hospitals/me.
func (h *Handler) HandleUpdateHospitalProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateHospitalRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	u, err := h.service.UpdateHospitalProfile(ctx, userID, req.Update())
	if err != nil {
		h.logger.ErrorContext(ctx, "hospital profile update failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromUser(u))
}

// HandleListUsers handles GET /admin/users?role=donor|hospital|admin.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	role, err := id.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	users, err := h.service.ListByRole(ctx, role)
	if err != nil {
		h.logger.ErrorContext(ctx, "user listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"role", role,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, FromUser(u))
	}
	httputil.WriteJSON(w, http.StatusOK, ListUsersResponse{Users: out})
}
