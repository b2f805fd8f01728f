// Package handler exposes the donation lifecycle endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/donation"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/httputil"
	"lifeline/pkg/requestcontext"
)

// Service defines the interface for donation operations.
type Service interface {
	Create(ctx context.Context, donorID id.UserID, requestID id.RequestID, quantity int, notes string) (*donation.Donation, error)
	Get(ctx context.Context, donationID id.DonationID) (*donation.Donation, error)
	List(ctx context.Context, filter donation.ListFilter) ([]*donation.Donation, error)
	UpdateStatus(ctx context.Context, donationID id.DonationID, t donation.Transition, actorID id.UserID, actorRole id.Role) (*donation.Donation, error)
	Cancel(ctx context.Context, donationID id.DonationID, actorID id.UserID, actorRole id.Role) (*donation.Donation, error)
}

// Handler wires donation endpoints to the donation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a donation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoints open to any authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/donations", h.HandleList)
	r.Get("/donations/{id}", h.HandleGet)
	r.Post("/donations/{id}/cancel", h.HandleCancel)
}

// RegisterDonor mounts the donor-only endpoints.
func (h *Handler) RegisterDonor(r chi.Router) {
	r.Post("/donations", h.HandleCreate)
}

// RegisterHospital mounts the hospital/admin endpoints.
func (h *Handler) RegisterHospital(r chi.Router) {
	r.Patch("/donations/{id}/status", h.HandleUpdateStatus)
}

// HandleCreate handles POST /donations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	donorID := requestcontext.UserID(ctx)
	if donorID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.Create(ctx, donorID, req.ParsedRequestID(), req.Quantity, req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "donation creation failed",
			"request_id", requestID,
			"donor_id", donorID,
			"donation_request_id", req.RequestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "donation created",
		"request_id", requestID,
		"donor_id", donorID,
		"donation_id", d.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDonation(d))
}

// HandleGet handles GET /donations/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donationID, err := id.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.service.Get(ctx, donationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDonation(d))
}

// HandleList handles GET /donations with optional donor_id, request_id and
// status filters. Donors are always narrowed to their own donations.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter donation.ListFilter
	query := r.URL.Query()

	if raw := query.Get("request_id"); raw != "" {
		reqID, err := id.ParseRequestID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.RequestID = reqID
	}
	if raw := query.Get("donor_id"); raw != "" {
		donorID, err := id.ParseUserID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.DonorID = donorID
	}
	if raw := query.Get("status"); raw != "" {
		status, err := donation.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}
	if requestcontext.Role(ctx) == id.RoleDonor {
		filter.DonorID = requestcontext.UserID(ctx)
	}

	donations, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "donation listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]*DonationResponse, 0, len(donations))
	for _, d := range donations {
		out = append(out, FromDonation(d))
	}
	httputil.WriteJSON(w, http.StatusOK, ListDonationsResponse{Donations: out})
}

// HandleUpdateStatus handles PATCH /donations/{id}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.UserID(ctx)
	if actorID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	donationID, err := id.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.UpdateStatus(ctx, donationID, req.Transition(), actorID, requestcontext.Role(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "donation status update failed",
			"request_id", requestID,
			"donation_id", donationID,
			"target_status", req.Status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "donation status updated",
		"request_id", requestID,
		"donation_id", donationID,
		"status", d.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromDonation(d))
}

// HandleCancel handles POST /donations/{id}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID := requestcontext.UserID(ctx)
	if actorID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	donationID, err := id.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.service.Cancel(ctx, donationID, actorID, requestcontext.Role(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "donation cancellation failed",
			"request_id", requestcontext.RequestID(ctx),
			"donation_id", donationID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDonation(d))
}
