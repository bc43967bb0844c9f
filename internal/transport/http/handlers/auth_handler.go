package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	authsvc "github.com/skillhub/backend/internal/services/auth"
	dirsvc "github.com/skillhub/backend/internal/services/directory"
	ratesvc "github.com/skillhub/backend/internal/services/rate"
	"github.com/skillhub/backend/internal/transport/http/dto"
	httperrors "github.com/skillhub/backend/internal/transport/http/errors"
)

type AuthHandler struct {
	auth         *authsvc.Service
	directory    *dirsvc.Service
	loginLimiter *ratesvc.Limiter
}

func NewAuthHandler(auth *authsvc.Service, directory *dirsvc.Service) *AuthHandler {
	return &AuthHandler{auth: auth, directory: directory}
}

// AttachLoginLimiter enables throttling of credential checks. Without it
// login attempts are unlimited (tests, degraded mode).
func (h *AuthHandler) AttachLoginLimiter(limiter *ratesvc.Limiter) {
	h.loginLimiter = limiter
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || h.directory == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	user, err := h.directory.Register(r.Context(), dirsvc.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Location:     req.Location,
		Availability: req.Availability,
	})
	if err != nil {
		switch {
		case errors.Is(err, dirsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, dirsvc.ErrEmailTaken):
			writeConflict(w, "EMAIL_TAKEN", "email is already registered")
		default:
			writeInternal(w, "INTERNAL_ERROR", "registration failed")
		}
		return
	}

	res, err := h.auth.IssueForUser(r.Context(), user.ID, user.IsAdmin)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to open session")
		return
	}

	writeTokens(w, http.StatusCreated, res, dto.NewUserResponse(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil || h.directory == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if h.loginLimiter != nil {
		subject := strings.ToLower(strings.TrimSpace(req.Email))
		if subject != "" {
			retryAfter, ok, err := h.loginLimiter.Allow(r.Context(), subject)
			if err == nil && !ok {
				httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
					Code:          "TOO_MANY_ATTEMPTS",
					Message:       "too many login attempts",
					RetryAfterSec: retryAfter,
				})
				return
			}
		}
	}

	user, err := h.directory.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, dirsvc.ErrBadCredentials) {
			writeUnauthorized(w, "BAD_CREDENTIALS", "invalid email or password")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "login failed")
		return
	}

	res, err := h.auth.IssueForUser(r.Context(), user.ID, user.IsAdmin)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to open session")
		return
	}

	writeTokens(w, http.StatusOK, res, dto.NewUserResponse(user))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	var user dto.UserResponse
	if h.directory != nil {
		if loaded, err := h.directory.Get(r.Context(), res.UserID, res.UserID, res.IsAdmin); err == nil {
			user = dto.NewUserResponse(loaded)
		}
	}

	writeTokens(w, http.StatusOK, res, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.auth.Logout(r.Context(), identity.SID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.auth.LogoutAll(r.Context(), identity.UserID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func writeTokens(w http.ResponseWriter, status int, res authsvc.AuthResult, user dto.UserResponse) {
	httperrors.Write(w, status, dto.AuthTokensResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.AccessExpires).Seconds())),
		User:         user,
	})
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
