package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	adminsvc "github.com/skillhub/backend/internal/services/admin"
	authsvc "github.com/skillhub/backend/internal/services/auth"
	"github.com/skillhub/backend/internal/transport/http/dto"
	httperrors "github.com/skillhub/backend/internal/transport/http/errors"
)

type AdminHandler struct {
	admin *adminsvc.Service
	pages PageLimits
}

func NewAdminHandler(admin *adminsvc.Service, pages PageLimits) *AdminHandler {
	return &AdminHandler{admin: admin, pages: pages}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireService(w, r); !ok {
		return
	}

	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		handleAdminError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminStatsResponse{
		Users:              dto.NewPlatformStatsResponse(stats.Users),
		Swaps:              dto.NewSwapStatsResponse(stats.Swaps),
		NewUsersLast30Days: stats.NewUsersLast30Days,
		NewSwapsLast30Days: stats.NewSwapsLast30Days,
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireService(w, r); !ok {
		return
	}

	page, limit, offset := h.pages.fromQuery(r)
	q := r.URL.Query()
	adminsOnly, _ := strconv.ParseBool(q.Get("admins_only"))

	users, total, err := h.admin.ListUsers(r.Context(), q.Get("search"), adminsOnly, limit, offset)
	if err != nil {
		handleAdminError(w, err)
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.NewUserResponse(u))
	}

	httperrors.Write(w, http.StatusOK, dto.UserListResponse{
		Items:      items,
		Pagination: newPagination(page, limit, total),
	})
}

func (h *AdminHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "user id must be a positive integer")
		return
	}

	var req dto.SetAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	user, err := h.admin.SetAdmin(r.Context(), identity.UserID, id, req.IsAdmin)
	if err != nil {
		handleAdminError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "user id must be a positive integer")
		return
	}

	if err := h.admin.DeleteUser(r.Context(), identity.UserID, id); err != nil {
		handleAdminError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireService(w, r); !ok {
		return
	}

	page, limit, offset := h.pages.fromQuery(r)
	q := r.URL.Query()
	reportedOnly, _ := strconv.ParseBool(q.Get("reported"))

	swaps, total, err := h.admin.ListSwaps(r.Context(), q.Get("status"), reportedOnly, limit, offset)
	if err != nil {
		handleAdminError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SwapListResponse{
		Items:      mapSwaps(swaps),
		Pagination: newPagination(page, limit, total),
	})
}

func (h *AdminHandler) DeleteSwap(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "swap id must be a positive integer")
		return
	}

	if err := h.admin.DeleteSwap(r.Context(), identity.UserID, id); err != nil {
		handleAdminError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) Announce(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireService(w, r)
	if !ok {
		return
	}

	var req dto.AnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	ann, err := h.admin.Announce(r.Context(), identity.UserID, adminsvc.AnnouncementInput{
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
	})
	if err != nil {
		handleAdminError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.AnnouncementResponse{
		Title:   ann.Title,
		Message: ann.Message,
		Type:    ann.Type,
		SentBy:  ann.SentBy,
		SentAt:  ann.SentAt,
	})
}

func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireService(w, r); !ok {
		return
	}

	bundle, err := h.admin.Export(r.Context())
	if err != nil {
		handleAdminError(w, err)
		return
	}

	users := make([]dto.UserResponse, 0, len(bundle.Users))
	for _, u := range bundle.Users {
		users = append(users, dto.NewUserResponse(u))
	}

	httperrors.Write(w, http.StatusOK, dto.ExportResponse{
		GeneratedAt: bundle.GeneratedAt,
		Users:       users,
		Swaps:       mapSwaps(bundle.Swaps),
	})
}

func (h *AdminHandler) requireService(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	if h.admin == nil {
		writeInternal(w, "ADMIN_SERVICE_UNAVAILABLE", "admin service is unavailable")
		return authsvc.Identity{}, false
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}

	return identity, true
}

func handleAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, adminsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, adminsvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "resource not found")
	case errors.Is(err, adminsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "operation not allowed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
