// Package handler exposes the match browsing endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lifeline/internal/matching"
	id "lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	"lifeline/pkg/platform/httputil"
	"lifeline/pkg/requestcontext"
)

// Service defines the interface for candidate search.
type Service interface {
	FindCandidateDonors(ctx context.Context, requestID id.RequestID) ([]matching.DonorMatch, error)
	FindCandidateRequests(ctx context.Context, donorID id.UserID) ([]matching.RequestMatch, error)
}

// Handler wires match endpoints to the matching service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a matching handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterHospital mounts the hospital-only endpoints.
func (h *Handler) RegisterHospital(r chi.Router) {
	r.Get("/requests/{id}/matches", h.HandleDonorMatches)
}

// RegisterDonor mounts the donor-only endpoints.
func (h *Handler) RegisterDonor(r chi.Router) {
	r.Get("/donors/me/matches", h.HandleRequestMatches)
}

// HandleDonorMatches handles GET /requests/{id}/matches. An optional limit
// query parameter caps the result.
func (h *Handler) HandleDonorMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reqID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	matches, err := h.service.FindCandidateDonors(ctx, reqID)
	if err != nil {
		h.logger.ErrorContext(ctx, "donor match search failed",
			"request_id", requestcontext.RequestID(ctx),
			"donation_request_id", reqID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*DonorMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, FromDonorMatch(m))
	}
	httputil.WriteJSON(w, http.StatusOK, DonorMatchesResponse{Matches: out})
}

// HandleRequestMatches handles GET /donors/me/matches.
func (h *Handler) HandleRequestMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID := requestcontext.UserID(ctx)
	if donorID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	matches, err := h.service.FindCandidateRequests(ctx, donorID)
	if err != nil {
		h.logger.ErrorContext(ctx, "request match search failed",
			"request_id", requestcontext.RequestID(ctx),
			"donor_id", donorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*RequestMatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, FromRequestMatch(m))
	}
	httputil.WriteJSON(w, http.StatusOK, RequestMatchesResponse{Matches: out})
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid limit %q", raw)
	}
	return limit, nil
}
