package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skillhub/backend/internal/domain/model"
	authsvc "github.com/skillhub/backend/internal/services/auth"
	ratesvc "github.com/skillhub/backend/internal/services/rate"
	swapsvc "github.com/skillhub/backend/internal/services/swaps"
	"github.com/skillhub/backend/internal/transport/http/dto"
	httperrors "github.com/skillhub/backend/internal/transport/http/errors"
)

type SwapsHandler struct {
	swaps         *swapsvc.Service
	createLimiter *ratesvc.Limiter
	pages         PageLimits
}

func NewSwapsHandler(swaps *swapsvc.Service, pages PageLimits) *SwapsHandler {
	return &SwapsHandler{swaps: swaps, pages: pages}
}

// AttachCreateLimiter throttles new swap requests per user.
func (h *SwapsHandler) AttachCreateLimiter(limiter *ratesvc.Limiter) {
	h.createLimiter = limiter
}

func (h *SwapsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	if h.createLimiter != nil {
		retryAfter, allowed, err := h.createLimiter.AllowUser(r.Context(), identity.UserID)
		if err == nil && !allowed {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "TOO_MANY_REQUESTS",
				Message:       "too many swap requests",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	var req dto.SwapCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	swap, err := h.swaps.Create(r.Context(), identity.UserID, swapsvc.CreateInput{
		ToUserID:      req.ToUserID,
		SkillOffered:  req.SkillOffered,
		SkillWanted:   req.SkillWanted,
		Message:       req.Message,
		Priority:      req.Priority,
		ScheduledDate: req.ScheduledDate,
		DurationHours: req.DurationHours,
		SessionFormat: req.SessionFormat,
		MeetingLink:   req.MeetingLink,
		Notes:         req.Notes,
	})
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.NewSwapResponse(swap))
}

func (h *SwapsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "swap id must be a positive integer")
		return
	}

	swap, err := h.swaps.Get(r.Context(), id, identity.UserID, identity.IsAdmin)
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSwapResponse(swap))
}

func (h *SwapsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	page, limit, offset := h.pages.fromQuery(r)
	status := r.URL.Query().Get("status")

	swaps, total, err := h.swaps.ListForUser(r.Context(), identity.UserID, status, limit, offset)
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwapListResponse{
		Items:      mapSwaps(swaps),
		Pagination: newPagination(page, limit, total),
	})
}

func (h *SwapsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.swaps.Accept)
}

func (h *SwapsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.swaps.Reject)
}

func (h *SwapsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "swap id must be a positive integer")
		return
	}

	// The reason is optional, so an empty body is fine.
	var req dto.SwapCancelRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	swap, err := h.swaps.Cancel(r.Context(), id, identity.UserID, req.Reason)
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSwapResponse(swap))
}

func (h *SwapsHandler) Rate(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "swap id must be a positive integer")
		return
	}

	var req dto.SwapRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	swap, err := h.swaps.SubmitRating(r.Context(), id, identity.UserID, req.Rating, req.Review)
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSwapResponse(swap))
}

func (h *SwapsHandler) Report(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "swap id must be a positive integer")
		return
	}

	var req dto.SwapReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	swap, err := h.swaps.Report(r.Context(), id, identity.UserID, req.Reason)
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSwapResponse(swap))
}

func (h *SwapsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	stats, err := h.swaps.UserStats(r.Context(), identity.UserID)
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSwapStatsResponse(stats))
}

func (h *SwapsHandler) respond(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id, actorID int64) (model.SwapRequest, error)) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "swap id must be a positive integer")
		return
	}

	swap, err := action(r.Context(), id, identity.UserID)
	if err != nil {
		handleSwapError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewSwapResponse(swap))
}

func (h *SwapsHandler) requireService(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	if h.swaps == nil {
		writeInternal(w, "SWAPS_SERVICE_UNAVAILABLE", "swap service is unavailable")
		return authsvc.Identity{}, false
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}

	return identity, true
}

func handleSwapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, swapsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, swapsvc.ErrNotFound):
		writeNotFound(w, "SWAP_NOT_FOUND", "swap request not found")
	case errors.Is(err, swapsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "you are not a party to this swap")
	case errors.Is(err, swapsvc.ErrInvalidState):
		writeConflict(w, "INVALID_STATE", "swap is not in a state that allows this action")
	case errors.Is(err, swapsvc.ErrConflict):
		writeConflict(w, "CONFLICT", "a matching pending request already exists")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
