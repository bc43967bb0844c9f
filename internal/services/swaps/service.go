package swaps

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
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("swap request not found")
	ErrForbidden    = errors.New("not allowed")
	ErrInvalidState = errors.New("invalid swap state")
	ErrConflict     = errors.New("conflicting swap request")
)

const (
	maxSkillLen   = 100
	maxMessageLen = 1000
	maxNotesLen   = 2000
	maxLinkLen    = 500
	maxReviewLen  = 500
	maxReasonLen  = 500
	minDuration   = 1
	maxDuration   = 40
	minRating     = 1
	maxRating     = 5

	// ratingRetries bounds how often a completion recomputes the running
	// mean after losing an optimistic write against a concurrent swap.
	ratingRetries = 3
)

type Store interface {
	Create(ctx context.Context, swap model.SwapRequest) (model.SwapRequest, error)
	GetByID(ctx context.Context, id int64) (model.SwapRequest, error)
	HasPendingTuple(ctx context.Context, fromUserID, toUserID int64, skillOffered, skillWanted string) (bool, error)
	Transition(ctx context.Context, id int64, from, to enums.SwapStatus) (model.SwapRequest, error)
	Cancel(ctx context.Context, id int64, from enums.SwapStatus, cancelledBy int64, reason string) (model.SwapRequest, error)
	SetRatingSlot(ctx context.Context, tx pgx.Tx, id int64, fromSide bool, rating int, review string) (model.SwapRequest, error)
	MarkCompleted(ctx context.Context, tx pgx.Tx, id int64) (model.SwapRequest, error)
	MarkReported(ctx context.Context, id int64, reportedBy int64, reason string) (model.SwapRequest, error)
	ListForUser(ctx context.Context, userID int64, status string, limit, offset int) ([]model.SwapRequest, int, error)
	List(ctx context.Context, filter pgrepo.SwapListFilter) ([]model.SwapRequest, int, error)
	StatusCountsForUser(ctx context.Context, userID int64) (model.SwapStats, error)
}

type Directory interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	ApplyRatingUpdate(ctx context.Context, tx pgx.Tx, id int64, newRating float64, expectedCompleted int, incrementCompleted bool) error
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type Dependencies struct {
	Store     Store
	Directory Directory
	Tx        TxRunner
	Log       *zap.Logger
}

type Service struct {
	store     Store
	directory Directory
	tx        TxRunner
	log       *zap.Logger
	now       func() time.Time
}

func NewService(deps Dependencies) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		store:     deps.Store,
		directory: deps.Directory,
		tx:        deps.Tx,
		log:       log,
		now:       time.Now,
	}
}

type CreateInput struct {
	ToUserID      int64
	SkillOffered  string
	SkillWanted   string
	Message       string
	Priority      string
	ScheduledDate *time.Time
	DurationHours *int
	SessionFormat string
	MeetingLink   string
	Notes         string
}

func (s *Service) Create(ctx context.Context, fromUserID int64, in CreateInput) (model.SwapRequest, error) {
	if s.store == nil || s.directory == nil {
		return model.SwapRequest{}, fmt.Errorf("swap service is not wired")
	}

	skillOffered := strings.TrimSpace(in.SkillOffered)
	skillWanted := strings.TrimSpace(in.SkillWanted)
	if skillOffered == "" || skillWanted == "" {
		return model.SwapRequest{}, fmt.Errorf("both skills are required: %w", ErrValidation)
	}
	if len(skillOffered) > maxSkillLen || len(skillWanted) > maxSkillLen {
		return model.SwapRequest{}, fmt.Errorf("skill name too long: %w", ErrValidation)
	}
	if fromUserID == in.ToUserID {
		return model.SwapRequest{}, fmt.Errorf("cannot swap with yourself: %w", ErrValidation)
	}
	if len(strings.TrimSpace(in.Message)) > maxMessageLen {
		return model.SwapRequest{}, fmt.Errorf("message too long: %w", ErrValidation)
	}
	if len(strings.TrimSpace(in.Notes)) > maxNotesLen {
		return model.SwapRequest{}, fmt.Errorf("notes too long: %w", ErrValidation)
	}
	if len(strings.TrimSpace(in.MeetingLink)) > maxLinkLen {
		return model.SwapRequest{}, fmt.Errorf("meeting link too long: %w", ErrValidation)
	}
	if in.DurationHours != nil && (*in.DurationHours < minDuration || *in.DurationHours > maxDuration) {
		return model.SwapRequest{}, fmt.Errorf("duration must be %d-%d hours: %w", minDuration, maxDuration, ErrValidation)
	}

	priority := enums.SwapPriority(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = enums.SwapPriorityMedium
	}
	if !priority.Valid() {
		return model.SwapRequest{}, fmt.Errorf("unknown priority: %w", ErrValidation)
	}

	format := enums.SessionFormat(strings.TrimSpace(in.SessionFormat))
	if format == "" {
		format = enums.SessionFormatOnline
	}
	if !format.Valid() {
		return model.SwapRequest{}, fmt.Errorf("unknown session format: %w", ErrValidation)
	}

	sender, err := s.directory.GetByID(ctx, fromUserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.SwapRequest{}, ErrNotFound
		}
		return model.SwapRequest{}, fmt.Errorf("load sender: %w", err)
	}
	if !sender.OffersSkill(skillOffered) {
		return model.SwapRequest{}, fmt.Errorf("you do not offer %q: %w", skillOffered, ErrValidation)
	}

	recipient, err := s.directory.GetByID(ctx, in.ToUserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.SwapRequest{}, ErrNotFound
		}
		return model.SwapRequest{}, fmt.Errorf("load recipient: %w", err)
	}
	if !recipient.IsPublic {
		return model.SwapRequest{}, ErrForbidden
	}

	exists, err := s.store.HasPendingTuple(ctx, fromUserID, in.ToUserID, skillOffered, skillWanted)
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("check duplicate request: %w", err)
	}
	if exists {
		return model.SwapRequest{}, fmt.Errorf("identical pending request exists: %w", ErrConflict)
	}

	swap, err := s.store.Create(ctx, model.SwapRequest{
		FromUserID:    fromUserID,
		ToUserID:      in.ToUserID,
		SkillOffered:  skillOffered,
		SkillWanted:   skillWanted,
		Message:       strings.TrimSpace(in.Message),
		Status:        enums.SwapStatusPending,
		Priority:      priority,
		ScheduledDate: in.ScheduledDate,
		DurationHours: in.DurationHours,
		SessionFormat: format,
		MeetingLink:   strings.TrimSpace(in.MeetingLink),
		Notes:         strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("create swap: %w", err)
	}

	s.log.Info("swap requested",
		zap.Int64("swap_id", swap.ID),
		zap.Int64("from_user", fromUserID),
		zap.Int64("to_user", in.ToUserID),
	)
	return swap, nil
}

func (s *Service) Get(ctx context.Context, id, actorID int64, isAdmin bool) (model.SwapRequest, error) {
	swap, err := s.load(ctx, id)
	if err != nil {
		return model.SwapRequest{}, err
	}
	if !swap.Involves(actorID) && !isAdmin {
		return model.SwapRequest{}, ErrForbidden
	}
	return swap, nil
}

// Accept moves a pending swap to accepted. Only the recipient can accept.
func (s *Service) Accept(ctx context.Context, id, actorID int64) (model.SwapRequest, error) {
	return s.respond(ctx, id, actorID, enums.SwapStatusAccepted)
}

// Reject moves a pending swap to rejected. Only the recipient can reject.
func (s *Service) Reject(ctx context.Context, id, actorID int64) (model.SwapRequest, error) {
	return s.respond(ctx, id, actorID, enums.SwapStatusRejected)
}

func (s *Service) respond(ctx context.Context, id, actorID int64, to enums.SwapStatus) (model.SwapRequest, error) {
	swap, err := s.load(ctx, id)
	if err != nil {
		return model.SwapRequest{}, err
	}
	if swap.ToUserID != actorID {
		return model.SwapRequest{}, ErrForbidden
	}
	if swap.Status != enums.SwapStatusPending {
		return model.SwapRequest{}, fmt.Errorf("swap is %s: %w", swap.Status, ErrInvalidState)
	}

	updated, err := s.store.Transition(ctx, id, enums.SwapStatusPending, to)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrSwapNotFound):
			return model.SwapRequest{}, ErrNotFound
		case errors.Is(err, pgrepo.ErrStatusConflict):
			return model.SwapRequest{}, ErrConflict
		}
		return model.SwapRequest{}, fmt.Errorf("transition swap: %w", err)
	}

	s.log.Info("swap responded",
		zap.Int64("swap_id", id),
		zap.String("status", string(to)),
	)
	return updated, nil
}

// Cancel withdraws a pending or accepted swap. Either party may cancel.
func (s *Service) Cancel(ctx context.Context, id, actorID int64, reason string) (model.SwapRequest, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) > maxReasonLen {
		return model.SwapRequest{}, fmt.Errorf("cancellation reason too long: %w", ErrValidation)
	}

	swap, err := s.load(ctx, id)
	if err != nil {
		return model.SwapRequest{}, err
	}
	if !swap.Involves(actorID) {
		return model.SwapRequest{}, ErrForbidden
	}
	if swap.Status != enums.SwapStatusPending && swap.Status != enums.SwapStatusAccepted {
		return model.SwapRequest{}, fmt.Errorf("swap is %s: %w", swap.Status, ErrInvalidState)
	}

	updated, err := s.store.Cancel(ctx, id, swap.Status, actorID, reason)
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrSwapNotFound):
			return model.SwapRequest{}, ErrNotFound
		case errors.Is(err, pgrepo.ErrStatusConflict):
			return model.SwapRequest{}, ErrConflict
		}
		return model.SwapRequest{}, fmt.Errorf("cancel swap: %w", err)
	}

	s.log.Info("swap cancelled", zap.Int64("swap_id", id), zap.Int64("by", actorID))
	return updated, nil
}

// SubmitRating stores the caller's rating of their counterpart on an
// accepted swap. Resubmitting overwrites the caller's slot. Once both
// parties have rated, the swap completes and both user aggregates are
// updated in the same transaction.
func (s *Service) SubmitRating(ctx context.Context, id, actorID int64, rating int, review string) (model.SwapRequest, error) {
	if s.tx == nil || s.directory == nil {
		return model.SwapRequest{}, fmt.Errorf("swap service is not wired")
	}
	if rating < minRating || rating > maxRating {
		return model.SwapRequest{}, fmt.Errorf("rating must be %d-%d: %w", minRating, maxRating, ErrValidation)
	}
	review = strings.TrimSpace(review)
	if len(review) > maxReviewLen {
		return model.SwapRequest{}, fmt.Errorf("review too long: %w", ErrValidation)
	}

	swap, err := s.load(ctx, id)
	if err != nil {
		return model.SwapRequest{}, err
	}
	if !swap.Involves(actorID) {
		return model.SwapRequest{}, ErrForbidden
	}
	if swap.Status != enums.SwapStatusAccepted {
		return model.SwapRequest{}, fmt.Errorf("swap is %s: %w", swap.Status, ErrInvalidState)
	}

	fromSide := actorID == swap.FromUserID

	var result model.SwapRequest
	for attempt := 0; ; attempt++ {
		result, err = s.applyRating(ctx, id, fromSide, rating, review)
		if err == nil {
			break
		}
		if errors.Is(err, pgrepo.ErrStaleUserUpdate) && attempt < ratingRetries {
			s.log.Warn("rating update raced, retrying",
				zap.Int64("swap_id", id),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return model.SwapRequest{}, err
	}

	if result.Status == enums.SwapStatusCompleted {
		s.log.Info("swap completed", zap.Int64("swap_id", id))
	}
	return result, nil
}

// applyRating performs one transactional attempt: write the rating slot
// and, if that filled the second slot, complete the swap and fold both
// received ratings into the user aggregates.
func (s *Service) applyRating(ctx context.Context, id int64, fromSide bool, rating int, review string) (model.SwapRequest, error) {
	var result model.SwapRequest

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		swap, err := s.store.SetRatingSlot(ctx, tx, id, fromSide, rating, review)
		if err != nil {
			switch {
			case errors.Is(err, pgrepo.ErrSwapNotFound):
				return ErrNotFound
			case errors.Is(err, pgrepo.ErrStatusConflict):
				return fmt.Errorf("swap left accepted state: %w", ErrInvalidState)
			}
			return fmt.Errorf("set rating slot: %w", err)
		}

		if !swap.Rating.BothRated() {
			result = swap
			return nil
		}

		// fromUser receives the recipient's rating and vice versa.
		if err := s.creditRating(ctx, tx, swap.FromUserID, *swap.Rating.ToUserRating); err != nil {
			return err
		}
		if err := s.creditRating(ctx, tx, swap.ToUserID, *swap.Rating.FromUserRating); err != nil {
			return err
		}

		completed, err := s.store.MarkCompleted(ctx, tx, id)
		if err != nil {
			switch {
			case errors.Is(err, pgrepo.ErrSwapNotFound):
				return ErrNotFound
			case errors.Is(err, pgrepo.ErrStatusConflict):
				return fmt.Errorf("swap left accepted state: %w", ErrInvalidState)
			}
			return fmt.Errorf("mark completed: %w", err)
		}

		result = completed
		return nil
	})
	if err != nil {
		return model.SwapRequest{}, err
	}

	return result, nil
}

func (s *Service) creditRating(ctx context.Context, tx pgx.Tx, userID int64, received int) error {
	user, err := s.directory.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %d for rating: %w", userID, err)
	}

	next := NextRating(user.Rating, user.CompletedSwaps, received)
	if err := s.directory.ApplyRatingUpdate(ctx, tx, userID, next, user.CompletedSwaps, true); err != nil {
		return err
	}

	return nil
}

// Report flags a swap for admin review. Only a party can report.
func (s *Service) Report(ctx context.Context, id, actorID int64, reason string) (model.SwapRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > maxReasonLen {
		return model.SwapRequest{}, fmt.Errorf("report reason is required and bounded: %w", ErrValidation)
	}

	swap, err := s.load(ctx, id)
	if err != nil {
		return model.SwapRequest{}, err
	}
	if !swap.Involves(actorID) {
		return model.SwapRequest{}, ErrForbidden
	}

	updated, err := s.store.MarkReported(ctx, id, actorID, reason)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSwapNotFound) {
			return model.SwapRequest{}, ErrNotFound
		}
		return model.SwapRequest{}, fmt.Errorf("report swap: %w", err)
	}

	s.log.Info("swap reported", zap.Int64("swap_id", id), zap.Int64("by", actorID))
	return updated, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64, status string, limit, offset int) ([]model.SwapRequest, int, error) {
	if status != "" && !enums.SwapStatus(status).Valid() {
		return nil, 0, fmt.Errorf("unknown status: %w", ErrValidation)
	}

	swaps, total, err := s.store.ListForUser(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps: %w", err)
	}
	return swaps, total, nil
}

func (s *Service) ListByStatus(ctx context.Context, status string, reportedOnly bool, limit, offset int) ([]model.SwapRequest, int, error) {
	if status != "" && !enums.SwapStatus(status).Valid() {
		return nil, 0, fmt.Errorf("unknown status: %w", ErrValidation)
	}

	swaps, total, err := s.store.List(ctx, pgrepo.SwapListFilter{
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

func (s *Service) UserStats(ctx context.Context, userID int64) (model.SwapStats, error) {
	stats, err := s.store.StatusCountsForUser(ctx, userID)
	if err != nil {
		return model.SwapStats{}, fmt.Errorf("count swaps: %w", err)
	}
	return stats, nil
}

func (s *Service) load(ctx context.Context, id int64) (model.SwapRequest, error) {
	if s.store == nil {
		return model.SwapRequest{}, fmt.Errorf("swap store is nil")
	}

	swap, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSwapNotFound) {
			return model.SwapRequest{}, ErrNotFound
		}
		return model.SwapRequest{}, fmt.Errorf("get swap: %w", err)
	}

	return swap, nil
}
