package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/skillhub/backend/internal/domain/model"
	"github.com/skillhub/backend/internal/transport/http/dto"
	httperrors "github.com/skillhub/backend/internal/transport/http/errors"
)

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func parseIDParam(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// PageLimits carries the configured bounds for page/limit query params.
// The zero value falls back to 10 per page capped at 50.
type PageLimits struct {
	Default int
	Max     int
}

func (p PageLimits) orDefaults() PageLimits {
	if p.Default < 1 {
		p.Default = 10
	}
	if p.Max < 1 {
		p.Max = 50
	}
	return p
}

// fromQuery reads 1-based page/limit query params and returns the clamped
// limit and offset.
func (p PageLimits) fromQuery(r *http.Request) (page, limit, offset int) {
	p = p.orDefaults()

	page = parseIntOrDefault(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}

	limit = parseIntOrDefault(r.URL.Query().Get("limit"), p.Default)
	if limit < 1 {
		limit = p.Default
	}
	if limit > p.Max {
		limit = p.Max
	}

	return page, limit, (page - 1) * limit
}

func newPagination(page, limit, total int) dto.Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}

	return dto.Pagination{
		CurrentPage: page,
		TotalPages:  pages,
		TotalItems:  total,
		HasNext:     page < pages,
		HasPrev:     page > 1,
	}
}

func mapPublicUsers(users []model.User) []dto.UserResponse {
	out := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewPublicUserResponse(user))
	}
	return out
}

func mapSwaps(swaps []model.SwapRequest) []dto.SwapResponse {
	out := make([]dto.SwapResponse, 0, len(swaps))
	for _, swap := range swaps {
		out = append(out, dto.NewSwapResponse(swap))
	}
	return out
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
