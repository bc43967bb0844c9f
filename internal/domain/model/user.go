package model

import (
	"strings"
	"time"

	"github.com/skillhub/backend/internal/domain/enums"
)

type User struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	PasswordHash    string             `json:"-"`
	Location        string             `json:"location"`
	Availability    enums.Availability `json:"availability"`
	IsPublic        bool               `json:"is_public"`
	SkillsOffered   []string           `json:"skills_offered"`
	SkillsWanted    []string           `json:"skills_wanted"`
	IsAdmin         bool               `json:"is_admin"`
	Rating          float64            `json:"rating"`
	CompletedSwaps  int                `json:"completed_swaps"`
	Bio             string             `json:"bio"`
	LinkedinProfile string             `json:"linkedin_profile"`
	GithubProfile   string             `json:"github_profile"`
	Portfolio       string             `json:"portfolio"`
	AvatarKey       string             `json:"-"`
	JoinedAt        time.Time          `json:"joined_at"`
	LastActive      time.Time          `json:"last_active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// OffersSkill reports whether the user lists skill among their offered
// skills, ignoring case and surrounding whitespace.
func (u User) OffersSkill(skill string) bool {
	want := strings.ToLower(strings.TrimSpace(skill))
	for _, s := range u.SkillsOffered {
		if strings.ToLower(strings.TrimSpace(s)) == want {
			return true
		}
	}
	return false
}
