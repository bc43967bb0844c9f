package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skillhub/backend/internal/domain/enums"
	"github.com/skillhub/backend/internal/domain/model"
	pgrepo "github.com/skillhub/backend/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("not allowed")
)

const (
	maxTitleLen   = 100
	maxMessageLen = 1000
	exportLimit   = 10000
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	ListAdmin(ctx context.Context, search string, adminsOnly bool, limit, offset int) ([]model.User, int, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (model.User, error)
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
	PlatformCounts(ctx context.Context) (model.PlatformStats, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

type SwapStore interface {
	List(ctx context.Context, filter pgrepo.SwapListFilter) ([]model.SwapRequest, int, error)
	StatusCounts(ctx context.Context) (model.SwapStats, error)
	DeleteForUser(ctx context.Context, tx pgx.Tx, userID int64) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Dependencies struct {
	Users UserStore
	Swaps SwapStore
	Tx    TxRunner
	Log   *zap.Logger
}

type Service struct {
	users UserStore
	swaps SwapStore
	tx    TxRunner
	log   *zap.Logger
	now   func() time.Time
}

func NewService(deps Dependencies) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		users: deps.Users,
		swaps: deps.Swaps,
		tx:    deps.Tx,
		log:   log,
		now:   time.Now,
	}
}

type Stats struct {
	Users              model.PlatformStats `json:"users"`
	Swaps              model.SwapStats     `json:"swaps"`
	NewUsersLast30Days int                 `json:"new_users_last_30_days"`
	NewSwapsLast30Days int                 `json:"new_swaps_last_30_days"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.users == nil || s.swaps == nil {
		return Stats{}, fmt.Errorf("admin service is not wired")
	}

	userStats, err := s.users.PlatformCounts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load user stats: %w", err)
	}

	swapStats, err := s.swaps.StatusCounts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load swap stats: %w", err)
	}

	windowStart := s.now().AddDate(0, 0, -30)
	newUsers, err := s.users.CountCreatedSince(ctx, windowStart)
	if err != nil {
		return Stats{}, fmt.Errorf("count new users: %w", err)
	}
	newSwaps, err := s.swaps.CountCreatedSince(ctx, windowStart)
	if err != nil {
		return Stats{}, fmt.Errorf("count new swaps: %w", err)
	}

	return Stats{
		Users:            userStats,
		Swaps:            swapStats,
		NewUsersLast30Days: newUsers,
		NewSwapsLast30Days: newSwaps,
	}, nil
}

func (s *Service) ListUsers(ctx context.Context, search string, adminsOnly bool, limit, offset int) ([]model.User, int, error) {
	if s.users == nil {
		return nil, 0, fmt.Errorf("user store is nil")
	}

	users, total, err := s.users.ListAdmin(ctx, search, adminsOnly, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// SetAdmin grants or revokes admin rights. Admins cannot demote
// themselves, so there is always at least one admin left.
func (s *Service) SetAdmin(ctx context.Context, actorID, targetID int64, isAdmin bool) (model.User, error) {
	if s.users == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}
	if actorID == targetID && !isAdmin {
		return model.User{}, fmt.Errorf("cannot revoke own admin rights: %w", ErrForbidden)
	}

	user, err := s.users.SetAdmin(ctx, targetID, isAdmin)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("set admin flag: %w", err)
	}

	s.log.Info("admin flag changed",
		zap.Int64("actor", actorID),
		zap.Int64("user_id", targetID),
		zap.Bool("is_admin", isAdmin),
	)
	return user, nil
}

// DeleteUser removes a user and every swap they are a party to in one
// transaction.
func (s *Service) DeleteUser(ctx context.Context, actorID, targetID int64) error {
	if s.users == nil || s.swaps == nil || s.tx == nil {
		return fmt.Errorf("admin service is not wired")
	}
	if actorID == targetID {
		return fmt.Errorf("cannot delete own account: %w", ErrForbidden)
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	var removedSwaps int64
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		removedSwaps, err = s.swaps.DeleteForUser(ctx, tx, targetID)
		if err != nil {
			return fmt.Errorf("delete swaps: %w", err)
		}
		if err := s.users.Delete(ctx, tx, targetID); err != nil {
			if errors.Is(err, pgrepo.ErrUserNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("user deleted",
		zap.Int64("actor", actorID),
		zap.Int64("user_id", targetID),
		zap.Int64("removed_swaps", removedSwaps),
	)
	return nil
}

func (s *Service) ListSwaps(ctx context.Context, status string, reportedOnly bool, limit, offset int) ([]model.SwapRequest, int, error) {
	if s.swaps == nil {
		return nil, 0, fmt.Errorf("swap store is nil")
	}
	if status != "" && !enums.SwapStatus(status).Valid() {
		return nil, 0, fmt.Errorf("unknown status: %w", ErrValidation)
	}

	swaps, total, err := s.swaps.List(ctx, pgrepo.SwapListFilter{
		Status:       status,
		ReportedOnly: reportedOnly,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps: %w", err)
	}
	return swaps, total, nil
}

func (s *Service) DeleteSwap(ctx context.Context, actorID, swapID int64) error {
	if s.swaps == nil {
		return fmt.Errorf("swap store is nil")
	}

	if err := s.swaps.DeleteByID(ctx, swapID); err != nil {
		if errors.Is(err, pgrepo.ErrSwapNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete swap: %w", err)
	}

	s.log.Info("swap deleted", zap.Int64("actor", actorID), zap.Int64("swap_id", swapID))
	return nil
}

type AnnouncementInput struct {
	Title   string
	Message string
	Type    string
}

// Announce validates and records a platform announcement. Delivery is a
// structured log line consumed by the notification pipeline.
func (s *Service) Announce(ctx context.Context, actorID int64, in AnnouncementInput) (model.Announcement, error) {
	title := strings.TrimSpace(in.Title)
	message := strings.TrimSpace(in.Message)
	if title == "" || len(title) > maxTitleLen {
		return model.Announcement{}, fmt.Errorf("title is required and bounded: %w", ErrValidation)
	}
	if message == "" || len(message) > maxMessageLen {
		return model.Announcement{}, fmt.Errorf("message is required and bounded: %w", ErrValidation)
	}

	kind := enums.AnnouncementType(strings.TrimSpace(in.Type))
	if kind == "" {
		kind = enums.AnnouncementInfo
	}
	if !kind.Valid() {
		return model.Announcement{}, fmt.Errorf("unknown announcement type: %w", ErrValidation)
	}

	announcement := model.Announcement{
		Title:   title,
		Message: message,
		Type:    string(kind),
		SentBy:  actorID,
		SentAt:  s.now(),
	}

	s.log.Info("announcement sent",
		zap.Int64("actor", actorID),
		zap.String("title", title),
		zap.String("type", string(kind)),
	)
	return announcement, nil
}

type ExportBundle struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Users       []model.User        `json:"users"`
	Swaps       []model.SwapRequest `json:"swaps"`
}

func (s *Service) Export(ctx context.Context) (ExportBundle, error) {
	if s.users == nil || s.swaps == nil {
		return ExportBundle{}, fmt.Errorf("admin service is not wired")
	}

	users, _, err := s.users.ListAdmin(ctx, "", false, exportLimit, 0)
	if err != nil {
		return ExportBundle{}, fmt.Errorf("export users: %w", err)
	}
	swaps, _, err := s.swaps.List(ctx, pgrepo.SwapListFilter{Limit: exportLimit})
	if err != nil {
		return ExportBundle{}, fmt.Errorf("export swaps: %w", err)
	}

	return ExportBundle{
		GeneratedAt: s.now(),
		Users:       users,
		Swaps:       swaps,
	}, nil
}
