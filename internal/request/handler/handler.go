// Package handler exposes the donation request endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/request"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/httputil"
	"lifeline/pkg/requestcontext"
)

// Service defines the interface for request lifecycle operations.
type Service interface {
	Create(ctx context.Context, input request.CreateInput) (*request.Request, error)
	Get(ctx context.Context, requestID id.RequestID) (*request.Request, error)
	List(ctx context.Context, filter request.ListFilter) ([]*request.Request, error)
	UpdateStatus(ctx context.Context, requestID id.RequestID, target request.Status, actorID id.UserID) (*request.Request, error)
}

// Handler wires request endpoints to the request service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a request handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the endpoints available to any authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requests", h.HandleList)
	r.Get("/requests/{id}", h.HandleGet)
}

// RegisterHospital mounts the hospital-only endpoints.
func (h *Handler) RegisterHospital(r chi.Router) {
	r.Post("/requests", h.HandleCreate)
	r.Patch("/requests/{id}/status", h.HandleUpdateStatus)
}

// HandleCreate handles POST /requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	hospitalID := requestcontext.UserID(ctx)
	if hospitalID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, req.Input(hospitalID))
	if err != nil {
		h.logger.ErrorContext(ctx, "request creation failed",
			"request_id", requestID,
			"hospital_id", hospitalID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "request created",
		"request_id", requestID,
		"hospital_id", hospitalID,
		"donation_request_id", created.ID,
		"kind", created.Kind,
		"urgency", created.Urgency,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRequest(created))
}

// HandleGet handles GET /requests/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reqID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	found, err := h.service.Get(ctx, reqID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequest(found))
}

// HandleList handles GET /requests with optional status, kind and mine=true
// query filters. "mine" narrows to the caller's own hospital.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter request.ListFilter
	query := r.URL.Query()

	if raw := query.Get("status"); raw != "" {
		status, err := request.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}
	if raw := query.Get("kind"); raw != "" {
		kind, err := id.ParseRequestKind(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Kind = kind
	}
	if query.Get("mine") == "true" {
		filter.HospitalID = requestcontext.UserID(ctx)
	}

	requests, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "request listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]*RequestResponse, 0, len(requests))
	for _, found := range requests {
		out = append(out, FromRequest(found))
	}
	httputil.WriteJSON(w, http.StatusOK, ListRequestsResponse{Requests: out})
}

// HandleUpdateStatus handles PATCH /requests/{id}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.UserID(ctx)
	if actorID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	reqID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.UpdateStatus(ctx, reqID, req.Status(), actorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "request status update failed",
			"request_id", requestID,
			"donation_request_id", reqID,
			"target_status", req.Status(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "request status updated",
		"request_id", requestID,
		"donation_request_id", reqID,
		"status", updated.Status,
	)
	httputil.WriteJSON(w, http.StatusOK, FromRequest(updated))
}
