package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skillhub/backend/internal/domain/enums"
	"github.com/skillhub/backend/internal/domain/model"
	"github.com/skillhub/backend/internal/pkg/validate"
	pgrepo "github.com/skillhub/backend/internal/repo/postgres"
	authsvc "github.com/skillhub/backend/internal/services/auth"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid email or password")
)

const (
	minNameLen     = 2
	maxNameLen     = 100
	minPasswordLen = 6
	maxBioLen      = 500
	maxLocationLen = 200
	maxLinkLen     = 200
	maxSkills      = 20
	maxSkillLen    = 50

	popularSkillsCacheKey = "popular_skills"
	platformStatsCacheKey = "platform_stats"
)

type UserStore interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Search(ctx context.Context, filter pgrepo.SearchFilter) ([]model.User, int, error)
	FindBySkill(ctx context.Context, skill, side string) ([]model.User, error)
	UpdateProfile(ctx context.Context, id int64, update pgrepo.ProfileUpdate) (model.User, error)
	UpdateSkills(ctx context.Context, id int64, offered, wanted []string) (model.User, error)
	TouchLastActive(ctx context.Context, id int64) error
	PopularSkills(ctx context.Context, limit int) ([]model.SkillCount, error)
	PlatformCounts(ctx context.Context) (model.PlatformStats, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Dependencies struct {
	Store         UserStore
	Cache         Cache
	Log           *zap.Logger
	StatsCacheTTL time.Duration
	TopSkills     int
}

type Service struct {
	store         UserStore
	cache         Cache
	log           *zap.Logger
	statsCacheTTL time.Duration
	topSkills     int
}

func NewService(deps Dependencies) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	ttl := deps.StatsCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	top := deps.TopSkills
	if top <= 0 {
		top = 20
	}

	return &Service{
		store:         deps.Store,
		cache:         deps.Cache,
		log:           log,
		statsCacheTTL: ttl,
		topSkills:     top,
	}
}

type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Location     string
	Availability string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	name := strings.TrimSpace(in.Name)
	if !validate.LenBetween(name, minNameLen, maxNameLen) {
		return model.User{}, fmt.Errorf("name must be %d-%d characters: %w", minNameLen, maxNameLen, ErrValidation)
	}
	if !validate.Email(in.Email) {
		return model.User{}, fmt.Errorf("invalid email: %w", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return model.User{}, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, ErrValidation)
	}
	if !validate.MaxLen(in.Location, maxLocationLen) {
		return model.User{}, fmt.Errorf("location too long: %w", ErrValidation)
	}

	availability := enums.Availability(strings.TrimSpace(in.Availability))
	if availability == "" {
		availability = enums.AvailabilityFlexible
	}
	if !availability.Valid() {
		return model.User{}, fmt.Errorf("unknown availability: %w", ErrValidation)
	}

	hash, err := authsvc.HashPassword(in.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.Create(ctx, model.User{
		Name:          name,
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:  hash,
		Location:      strings.TrimSpace(in.Location),
		Availability:  availability,
		IsPublic:      true,
		SkillsOffered: []string{},
		SkillsWanted:  []string{},
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}
	if !validate.Required(email) || password == "" {
		return model.User{}, ErrBadCredentials
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrBadCredentials
		}
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}

	if !authsvc.CheckPassword(user.PasswordHash, password) {
		return model.User{}, ErrBadCredentials
	}

	if err := s.store.TouchLastActive(ctx, user.ID); err != nil {
		s.log.Warn("touch last active", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// Get returns the profile visible to viewerID. Private profiles are only
// visible to their owner and admins.
func (s *Service) Get(ctx context.Context, viewerID, id int64, viewerIsAdmin bool) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	if !user.IsPublic && user.ID != viewerID && !viewerIsAdmin {
		return model.User{}, ErrNotFound
	}

	return user, nil
}

type SearchInput struct {
	Query        string
	Skill        string
	Location     string
	Availability string
	Limit        int
	Offset       int
}

func (s *Service) Search(ctx context.Context, in SearchInput) ([]model.User, int, error) {
	if s.store == nil {
		return nil, 0, fmt.Errorf("user store is nil")
	}

	if in.Availability != "" && !enums.Availability(in.Availability).Valid() {
		return nil, 0, fmt.Errorf("unknown availability: %w", ErrValidation)
	}

	users, total, err := s.store.Search(ctx, pgrepo.SearchFilter{
		Query:        in.Query,
		Skill:        in.Skill,
		Location:     in.Location,
		Availability: in.Availability,
		Limit:        in.Limit,
		Offset:       in.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}

	return users, total, nil
}

// BySkill lists public users matching a skill on one side of their
// profile. Side defaults to "offered".
func (s *Service) BySkill(ctx context.Context, skill, side string) ([]model.User, error) {
	if s.store == nil {
		return nil, fmt.Errorf("user store is nil")
	}
	if !validate.Required(skill) {
		return nil, fmt.Errorf("skill is required: %w", ErrValidation)
	}

	side = strings.ToLower(strings.TrimSpace(side))
	switch side {
	case "":
		side = "offered"
	case "offered", "wanted":
	default:
		return nil, fmt.Errorf("side must be offered or wanted: %w", ErrValidation)
	}

	users, err := s.store.FindBySkill(ctx, skill, side)
	if err != nil {
		return nil, fmt.Errorf("find users by skill: %w", err)
	}

	return users, nil
}

type ProfileInput struct {
	Name            *string
	Location        *string
	Bio             *string
	Availability    *string
	IsPublic        *bool
	LinkedinProfile *string
	GithubProfile   *string
	Portfolio       *string
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, in ProfileInput) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	if in.Name != nil && !validate.LenBetween(*in.Name, minNameLen, maxNameLen) {
		return model.User{}, fmt.Errorf("name must be %d-%d characters: %w", minNameLen, maxNameLen, ErrValidation)
	}
	if in.Location != nil && !validate.MaxLen(*in.Location, maxLocationLen) {
		return model.User{}, fmt.Errorf("location too long: %w", ErrValidation)
	}
	if in.Bio != nil && !validate.MaxLen(*in.Bio, maxBioLen) {
		return model.User{}, fmt.Errorf("bio too long: %w", ErrValidation)
	}
	if in.Availability != nil && !enums.Availability(*in.Availability).Valid() {
		return model.User{}, fmt.Errorf("unknown availability: %w", ErrValidation)
	}
	for _, link := range []*string{in.LinkedinProfile, in.GithubProfile, in.Portfolio} {
		if link != nil && !validate.MaxLen(*link, maxLinkLen) {
			return model.User{}, fmt.Errorf("link too long: %w", ErrValidation)
		}
	}

	user, err := s.store.UpdateProfile(ctx, id, pgrepo.ProfileUpdate{
		Name:            trimmed(in.Name),
		Location:        trimmed(in.Location),
		Bio:             trimmed(in.Bio),
		Availability:    trimmed(in.Availability),
		IsPublic:        in.IsPublic,
		LinkedinProfile: trimmed(in.LinkedinProfile),
		GithubProfile:   trimmed(in.GithubProfile),
		Portfolio:       trimmed(in.Portfolio),
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}

func (s *Service) UpdateSkills(ctx context.Context, id int64, offered, wanted []string) (model.User, error) {
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	normalizedOffered, err := normalizeSkills(offered)
	if err != nil {
		return model.User{}, err
	}
	normalizedWanted, err := normalizeSkills(wanted)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.store.UpdateSkills(ctx, id, normalizedOffered, normalizedWanted)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("update skills: %w", err)
	}

	return user, nil
}

func (s *Service) PopularSkills(ctx context.Context) ([]model.SkillCount, error) {
	if s.store == nil {
		return nil, fmt.Errorf("user store is nil")
	}

	if s.cache != nil {
		var cached []model.SkillCount
		if err := s.cache.Get(ctx, popularSkillsCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	skills, err := s.store.PopularSkills(ctx, s.topSkills)
	if err != nil {
		return nil, fmt.Errorf("load popular skills: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, popularSkillsCacheKey, skills, s.statsCacheTTL); err != nil {
			s.log.Warn("cache popular skills", zap.Error(err))
		}
	}

	return skills, nil
}

func (s *Service) PlatformStats(ctx context.Context) (model.PlatformStats, error) {
	if s.store == nil {
		return model.PlatformStats{}, fmt.Errorf("user store is nil")
	}

	if s.cache != nil {
		var cached model.PlatformStats
		if err := s.cache.Get(ctx, platformStatsCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	stats, err := s.store.PlatformCounts(ctx)
	if err != nil {
		return model.PlatformStats{}, fmt.Errorf("load platform stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, platformStatsCacheKey, stats, s.statsCacheTTL); err != nil {
			s.log.Warn("cache platform stats", zap.Error(err))
		}
	}

	return stats, nil
}

func normalizeSkills(skills []string) ([]string, error) {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))

	for _, raw := range skills {
		skill := strings.TrimSpace(raw)
		if skill == "" {
			continue
		}
		if len(skill) > maxSkillLen {
			return nil, fmt.Errorf("skill name too long: %w", ErrValidation)
		}

		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}

	if len(out) > maxSkills {
		return nil, fmt.Errorf("at most %d skills per list: %w", maxSkills, ErrValidation)
	}

	return out, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
