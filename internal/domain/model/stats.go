package model

import "time"

// SwapStats is a per-status breakdown of swap requests.
type SwapStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
}

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type AvailabilityCount struct {
	Availability string `json:"availability"`
	Count        int    `json:"count"`
}

type RatedUser struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Rating         float64 `json:"rating"`
	CompletedSwaps int     `json:"completed_swaps"`
}

// PlatformStats is the public snapshot served by the directory.
type PlatformStats struct {
	TotalUsers            int                 `json:"total_users"`
	PublicUsers           int                 `json:"public_users"`
	AvailabilityBreakdown []AvailabilityCount `json:"availability_breakdown"`
	TopRatedUsers         []RatedUser         `json:"top_rated_users"`
}

type Announcement struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	SentBy  int64     `json:"sent_by"`
	SentAt  time.Time `json:"sent_at"`
}
