package dto

import (
	"time"

	"github.com/skillhub/backend/internal/domain/model"
)

type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

type AnnouncementRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

type AnnouncementResponse struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	SentBy  int64     `json:"sent_by"`
	SentAt  time.Time `json:"sent_at"`
}

type AvailabilityCountResponse struct {
	Availability string `json:"availability"`
	Count        int    `json:"count"`
}

type RatedUserResponse struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Rating         float64 `json:"rating"`
	CompletedSwaps int     `json:"completed_swaps"`
}

type PlatformStatsResponse struct {
	TotalUsers            int                         `json:"total_users"`
	PublicUsers           int                         `json:"public_users"`
	AvailabilityBreakdown []AvailabilityCountResponse `json:"availability_breakdown"`
	TopRatedUsers         []RatedUserResponse         `json:"top_rated_users"`
}

func NewPlatformStatsResponse(stats model.PlatformStats) PlatformStatsResponse {
	breakdown := make([]AvailabilityCountResponse, 0, len(stats.AvailabilityBreakdown))
	for _, b := range stats.AvailabilityBreakdown {
		breakdown = append(breakdown, AvailabilityCountResponse{Availability: b.Availability, Count: b.Count})
	}

	top := make([]RatedUserResponse, 0, len(stats.TopRatedUsers))
	for _, u := range stats.TopRatedUsers {
		top = append(top, RatedUserResponse{
			ID:             u.ID,
			Name:           u.Name,
			Rating:         u.Rating,
			CompletedSwaps: u.CompletedSwaps,
		})
	}

	return PlatformStatsResponse{
		TotalUsers:            stats.TotalUsers,
		PublicUsers:           stats.PublicUsers,
		AvailabilityBreakdown: breakdown,
		TopRatedUsers:         top,
	}
}

type AdminStatsResponse struct {
	Users              PlatformStatsResponse `json:"users"`
	Swaps              SwapStatsResponse     `json:"swaps"`
	NewUsersLast30Days int                   `json:"new_users_last_30_days"`
	NewSwapsLast30Days int                   `json:"new_swaps_last_30_days"`
}

type ExportResponse struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Users       []UserResponse `json:"users"`
	Swaps       []SwapResponse `json:"swaps"`
}
