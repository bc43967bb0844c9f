package model

import (
	"time"

	"github.com/skillhub/backend/internal/domain/enums"
)

// SwapRating holds the per-side assessments of a swap. FromUserRating is
// the rating the initiating user gave their counterpart; ToUserRating is
// the recipient's rating of the initiator. A nil value means the side has
// not rated yet.
type SwapRating struct {
	FromUserRating *int   `json:"from_user_rating,omitempty"`
	ToUserRating   *int   `json:"to_user_rating,omitempty"`
	FromUserReview string `json:"from_user_review,omitempty"`
	ToUserReview   string `json:"to_user_review,omitempty"`
}

func (r SwapRating) BothRated() bool {
	return r.FromUserRating != nil && r.ToUserRating != nil
}

type SwapRequest struct {
	ID                 int64               `json:"id"`
	FromUserID         int64               `json:"from_user_id"`
	ToUserID           int64               `json:"to_user_id"`
	SkillOffered       string              `json:"skill_offered"`
	SkillWanted        string              `json:"skill_wanted"`
	Message            string              `json:"message"`
	Status             enums.SwapStatus    `json:"status"`
	Priority           enums.SwapPriority  `json:"priority"`
	ScheduledDate      *time.Time          `json:"scheduled_date,omitempty"`
	DurationHours      *int                `json:"duration_hours,omitempty"`
	SessionFormat      enums.SessionFormat `json:"session_format"`
	MeetingLink        string              `json:"meeting_link,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	Rating             SwapRating          `json:"rating"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CancelledBy        *int64              `json:"cancelled_by,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	IsReported         bool                `json:"is_reported"`
	ReportReason       string              `json:"report_reason,omitempty"`
	ReportedBy         *int64              `json:"reported_by,omitempty"`
	ReportedAt         *time.Time          `json:"reported_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (r SwapRequest) Involves(userID int64) bool {
	return r.FromUserID == userID || r.ToUserID == userID
}
