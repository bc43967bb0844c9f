package dto

import (
	"time"

	"github.com/skillhub/backend/internal/domain/model"
)

type UserResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Location        string    `json:"location,omitempty"`
	Availability    string    `json:"availability"`
	IsPublic        bool      `json:"is_public"`
	SkillsOffered   []string  `json:"skills_offered"`
	SkillsWanted    []string  `json:"skills_wanted"`
	IsAdmin         bool      `json:"is_admin,omitempty"`
	Rating          float64   `json:"rating"`
	CompletedSwaps  int       `json:"completed_swaps"`
	Bio             string    `json:"bio,omitempty"`
	LinkedinProfile string    `json:"linkedin_profile,omitempty"`
	GithubProfile   string    `json:"github_profile,omitempty"`
	Portfolio       string    `json:"portfolio,omitempty"`
	JoinedAt        time.Time `json:"joined_at"`
	LastActive      time.Time `json:"last_active"`
}

// NewUserResponse maps a user for its owner (or an admin): contact
// details included.
func NewUserResponse(user model.User) UserResponse {
	resp := NewPublicUserResponse(user)
	resp.Email = user.Email
	resp.IsAdmin = user.IsAdmin
	return resp
}

// NewPublicUserResponse maps a user for other members: no email, no
// admin flag.
func NewPublicUserResponse(user model.User) UserResponse {
	offered := user.SkillsOffered
	if offered == nil {
		offered = []string{}
	}
	wanted := user.SkillsWanted
	if wanted == nil {
		wanted = []string{}
	}

	return UserResponse{
		ID:              user.ID,
		Name:            user.Name,
		Location:        user.Location,
		Availability:    string(user.Availability),
		IsPublic:        user.IsPublic,
		SkillsOffered:   offered,
		SkillsWanted:    wanted,
		Rating:          user.Rating,
		CompletedSwaps:  user.CompletedSwaps,
		Bio:             user.Bio,
		LinkedinProfile: user.LinkedinProfile,
		GithubProfile:   user.GithubProfile,
		Portfolio:       user.Portfolio,
		JoinedAt:        user.JoinedAt,
		LastActive:      user.LastActive,
	}
}

type ProfileUpdateRequest struct {
	Name            *string `json:"name,omitempty"`
	Location        *string `json:"location,omitempty"`
	Bio             *string `json:"bio,omitempty"`
	Availability    *string `json:"availability,omitempty"`
	IsPublic        *bool   `json:"is_public,omitempty"`
	LinkedinProfile *string `json:"linkedin_profile,omitempty"`
	GithubProfile   *string `json:"github_profile,omitempty"`
	Portfolio       *string `json:"portfolio,omitempty"`
}

type SkillsUpdateRequest struct {
	SkillsOffered []string `json:"skills_offered"`
	SkillsWanted  []string `json:"skills_wanted"`
}

type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

type SkillCountResponse struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type PopularSkillsResponse struct {
	Skills []SkillCountResponse `json:"skills"`
}

type AvatarResponse struct {
	URL string `json:"url"`
}
