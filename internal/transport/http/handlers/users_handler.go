package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/skillhub/backend/internal/services/auth"
	avatarsvc "github.com/skillhub/backend/internal/services/avatar"
	dirsvc "github.com/skillhub/backend/internal/services/directory"
	"github.com/skillhub/backend/internal/transport/http/dto"
	httperrors "github.com/skillhub/backend/internal/transport/http/errors"
)

type UsersHandler struct {
	directory *dirsvc.Service
	avatars   *avatarsvc.Service
	pages     PageLimits
}

func NewUsersHandler(directory *dirsvc.Service, avatars *avatarsvc.Service, pages PageLimits) *UsersHandler {
	return &UsersHandler{directory: directory, avatars: avatars, pages: pages}
}

func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	user, err := h.directory.Get(r.Context(), identity.UserID, identity.UserID, identity.IsAdmin)
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "user id must be a positive integer")
		return
	}

	user, err := h.directory.Get(r.Context(), identity.UserID, id, identity.IsAdmin)
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	if id == identity.UserID || identity.IsAdmin {
		httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
		return
	}
	httperrors.Write(w, http.StatusOK, dto.NewPublicUserResponse(user))
}

func (h *UsersHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	page, limit, offset := h.pages.fromQuery(r)
	q := r.URL.Query()

	users, total, err := h.directory.Search(r.Context(), dirsvc.SearchInput{
		Query:        q.Get("q"),
		Skill:        q.Get("skill"),
		Location:     q.Get("location"),
		Availability: q.Get("availability"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UserListResponse{
		Items:      mapPublicUsers(users),
		Pagination: newPagination(page, limit, total),
	})
}

func (h *UsersHandler) BySkill(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	q := r.URL.Query()
	users, err := h.directory.BySkill(r.Context(), q.Get("skill"), q.Get("side"))
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UserListResponse{
		Items:      mapPublicUsers(users),
		Pagination: newPagination(1, len(users), len(users)),
	})
}

func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.ProfileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	user, err := h.directory.UpdateProfile(r.Context(), identity.UserID, dirsvc.ProfileInput{
		Name:            req.Name,
		Location:        req.Location,
		Bio:             req.Bio,
		Availability:    req.Availability,
		IsPublic:        req.IsPublic,
		LinkedinProfile: req.LinkedinProfile,
		GithubProfile:   req.GithubProfile,
		Portfolio:       req.Portfolio,
	})
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) UpdateSkills(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.SkillsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	user, err := h.directory.UpdateSkills(r.Context(), identity.UserID, req.SkillsOffered, req.SkillsWanted)
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UsersHandler) PopularSkills(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	counts, err := h.directory.PopularSkills(r.Context())
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	skills := make([]dto.SkillCountResponse, 0, len(counts))
	for _, c := range counts {
		skills = append(skills, dto.SkillCountResponse{Skill: c.Skill, Count: c.Count})
	}

	httperrors.Write(w, http.StatusOK, dto.PopularSkillsResponse{Skills: skills})
}

func (h *UsersHandler) PlatformStats(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		writeInternal(w, "USERS_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	stats, err := h.directory.PlatformStats(r.Context())
	if err != nil {
		handleDirectoryError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.NewPlatformStatsResponse(stats))
}

func (h *UsersHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		writeInternal(w, "AVATARS_UNAVAILABLE", "avatar storage is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	url, err := h.avatars.Upload(r.Context(), identity.UserID, r.Header.Get("Content-Type"), r.Body, r.ContentLength)
	if err != nil {
		handleAvatarError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AvatarResponse{URL: url})
}

func (h *UsersHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		writeInternal(w, "AVATARS_UNAVAILABLE", "avatar storage is unavailable")
		return
	}

	id, ok := parseIDParam(chi.URLParam(r, "id"))
	if !ok {
		writeBadRequest(w, "INVALID_ID", "user id must be a positive integer")
		return
	}

	url, err := h.avatars.URL(r.Context(), id)
	if err != nil {
		handleAvatarError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AvatarResponse{URL: url})
}

func (h *UsersHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		writeInternal(w, "AVATARS_UNAVAILABLE", "avatar storage is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.avatars.Remove(r.Context(), identity.UserID); err != nil {
		handleAvatarError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func handleDirectoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dirsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, dirsvc.ErrNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func handleAvatarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, avatarsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, avatarsvc.ErrNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, avatarsvc.ErrNoAvatar):
		writeNotFound(w, "AVATAR_NOT_FOUND", "no avatar uploaded")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
