package dto

import (
	"time"

	"github.com/skillhub/backend/internal/domain/model"
)

type SwapCreateRequest struct {
	ToUserID      int64      `json:"to_user_id"`
	SkillOffered  string     `json:"skill_offered"`
	SkillWanted   string     `json:"skill_wanted"`
	Message       string     `json:"message,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	DurationHours *int       `json:"duration_hours,omitempty"`
	SessionFormat string     `json:"session_format,omitempty"`
	MeetingLink   string     `json:"meeting_link,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

type SwapCancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type SwapRatingRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review,omitempty"`
}

type SwapReportRequest struct {
	Reason string `json:"reason"`
}

type SwapRatingResponse struct {
	FromUserRating *int   `json:"from_user_rating,omitempty"`
	ToUserRating   *int   `json:"to_user_rating,omitempty"`
	FromUserReview string `json:"from_user_review,omitempty"`
	ToUserReview   string `json:"to_user_review,omitempty"`
}

type SwapResponse struct {
	ID                 int64              `json:"id"`
	FromUserID         int64              `json:"from_user_id"`
	ToUserID           int64              `json:"to_user_id"`
	SkillOffered       string             `json:"skill_offered"`
	SkillWanted        string             `json:"skill_wanted"`
	Message            string             `json:"message,omitempty"`
	Status             string             `json:"status"`
	Priority           string             `json:"priority"`
	ScheduledDate      *time.Time         `json:"scheduled_date,omitempty"`
	DurationHours      *int               `json:"duration_hours,omitempty"`
	SessionFormat      string             `json:"session_format"`
	MeetingLink        string             `json:"meeting_link,omitempty"`
	Notes              string             `json:"notes,omitempty"`
	Rating             SwapRatingResponse `json:"rating"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancelledBy        *int64             `json:"cancelled_by,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	IsReported         bool               `json:"is_reported,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func NewSwapResponse(swap model.SwapRequest) SwapResponse {
	return SwapResponse{
		ID:                 swap.ID,
		FromUserID:         swap.FromUserID,
		ToUserID:           swap.ToUserID,
		SkillOffered:       swap.SkillOffered,
		SkillWanted:        swap.SkillWanted,
		Message:            swap.Message,
		Status:             string(swap.Status),
		Priority:           string(swap.Priority),
		ScheduledDate:      swap.ScheduledDate,
		DurationHours:      swap.DurationHours,
		SessionFormat:      string(swap.SessionFormat),
		MeetingLink:        swap.MeetingLink,
		Notes:              swap.Notes,
		Rating: SwapRatingResponse{
			FromUserRating: swap.Rating.FromUserRating,
			ToUserRating:   swap.Rating.ToUserRating,
			FromUserReview: swap.Rating.FromUserReview,
			ToUserReview:   swap.Rating.ToUserReview,
		},
		CompletedAt:        swap.CompletedAt,
		CancelledAt:        swap.CancelledAt,
		CancelledBy:        swap.CancelledBy,
		CancellationReason: swap.CancellationReason,
		IsReported:         swap.IsReported,
		CreatedAt:          swap.CreatedAt,
		UpdatedAt:          swap.UpdatedAt,
	}
}

type SwapListResponse struct {
	Items      []SwapResponse `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

type SwapStatsResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}

func NewSwapStatsResponse(stats model.SwapStats) SwapStatsResponse {
	return SwapStatsResponse{
		Total:     stats.Total,
		Pending:   stats.Pending,
		Accepted:  stats.Accepted,
		Completed: stats.Completed,
		Rejected:  stats.Rejected,
		Cancelled: stats.Cancelled,
	}
}
