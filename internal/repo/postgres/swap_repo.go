package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillhub/backend/internal/domain/enums"
	"github.com/skillhub/backend/internal/domain/model"
)

const swapColumns = `
	id, from_user_id, to_user_id, skill_offered, skill_wanted, message,
	status, priority, scheduled_date, duration_hours, session_format,
	meeting_link, notes,
	from_user_rating, to_user_rating, from_user_review, to_user_review,
	completed_at, cancelled_at, cancelled_by, cancellation_reason,
	is_reported, report_reason, reported_by, reported_at,
	created_at, updated_at`

type SwapRepo struct {
	pool *pgxpool.Pool
}

func NewSwapRepo(pool *pgxpool.Pool) *SwapRepo {
	return &SwapRepo{pool: pool}
}

func (r *SwapRepo) q(tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.pool
}

type SwapListFilter struct {
	Status       string
	ReportedOnly bool
	Limit        int
	Offset       int
}

func (r *SwapRepo) Create(ctx context.Context, swap model.SwapRequest) (model.SwapRequest, error) {
	if r.pool == nil {
		return model.SwapRequest{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO swap_requests (
	from_user_id, to_user_id, skill_offered, skill_wanted, message,
	status, priority, scheduled_date, duration_hours, session_format,
	meeting_link, notes, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW()
)
RETURNING`+swapColumns,
		swap.FromUserID, swap.ToUserID, swap.SkillOffered, swap.SkillWanted, swap.Message,
		string(swap.Status), string(swap.Priority), swap.ScheduledDate, swap.DurationHours,
		string(swap.SessionFormat), swap.MeetingLink, swap.Notes,
	)

	created, err := scanSwap(row)
	if err != nil {
		return model.SwapRequest{}, fmt.Errorf("create swap request: %w", err)
	}

	return created, nil
}

func (r *SwapRepo) GetByID(ctx context.Context, id int64) (model.SwapRequest, error) {
	if r.pool == nil {
		return model.SwapRequest{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return model.SwapRequest{}, ErrSwapNotFound
	}

	row := r.pool.QueryRow(ctx, `SELECT`+swapColumns+` FROM swap_requests WHERE id = $1`, id)
	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwapRequest{}, ErrSwapNotFound
		}
		return model.SwapRequest{}, fmt.Errorf("get swap by id: %w", err)
	}

	return swap, nil
}

// HasPendingTuple reports whether an identical pending request already
// exists between the same two users for the same skill pair.
func (r *SwapRepo) HasPendingTuple(ctx context.Context, fromUserID, toUserID int64, skillOffered, skillWanted string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1 FROM swap_requests
WHERE from_user_id = $1 AND to_user_id = $2
	AND skill_offered = $3 AND skill_wanted = $4
	AND status = 'pending'
LIMIT 1
`, fromUserID, toUserID, skillOffered, skillWanted).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check pending duplicate: %w", err)
	}

	return true, nil
}

// Transition moves a swap from one status to another. The from-status is
// part of the WHERE clause, so a request that raced with another
// transition fails with ErrStatusConflict instead of clobbering it.
func (r *SwapRepo) Transition(ctx context.Context, id int64, from, to enums.SwapStatus) (model.SwapRequest, error) {
	if r.pool == nil {
		return model.SwapRequest{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE swap_requests SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2
RETURNING`+swapColumns, id, string(from), string(to))

	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwapRequest{}, r.notFoundOrConflict(ctx, id)
		}
		return model.SwapRequest{}, fmt.Errorf("transition swap: %w", err)
	}

	return swap, nil
}

func (r *SwapRepo) Cancel(ctx context.Context, id int64, from enums.SwapStatus, cancelledBy int64, reason string) (model.SwapRequest, error) {
	if r.pool == nil {
		return model.SwapRequest{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE swap_requests SET
	status = 'cancelled',
	cancelled_at = NOW(),
	cancelled_by = $3,
	cancellation_reason = $4,
	updated_at = NOW()
WHERE id = $1 AND status = $2
RETURNING`+swapColumns, id, string(from), cancelledBy, reason)

	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwapRequest{}, r.notFoundOrConflict(ctx, id)
		}
		return model.SwapRequest{}, fmt.Errorf("cancel swap: %w", err)
	}

	return swap, nil
}

// SetRatingSlot stores one side's rating and review. Ratings can only be
// attached to an accepted swap; a resubmission overwrites the slot.
func (r *SwapRepo) SetRatingSlot(ctx context.Context, tx pgx.Tx, id int64, fromSide bool, rating int, review string) (model.SwapRequest, error) {
	if r.pool == nil && tx == nil {
		return model.SwapRequest{}, fmt.Errorf("postgres pool is nil")
	}

	column := "to_user"
	if fromSide {
		column = "from_user"
	}

	row := r.q(tx).QueryRow(ctx, fmt.Sprintf(`
UPDATE swap_requests SET
	%s_rating = $2,
	%s_review = $3,
	updated_at = NOW()
WHERE id = $1 AND status = 'accepted'
RETURNING%s`, column, column, swapColumns), id, rating, review)

	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwapRequest{}, r.notFoundOrConflictQ(ctx, r.q(tx), id)
		}
		return model.SwapRequest{}, fmt.Errorf("set rating slot: %w", err)
	}

	return swap, nil
}

// MarkCompleted finalizes an accepted swap. Runs inside the same
// transaction as the rating bookkeeping so the swap and both user
// aggregates move together.
func (r *SwapRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id int64) (model.SwapRequest, error) {
	if tx == nil {
		return model.SwapRequest{}, fmt.Errorf("transaction is required")
	}

	row := tx.QueryRow(ctx, `
UPDATE swap_requests SET
	status = 'completed',
	completed_at = NOW(),
	updated_at = NOW()
WHERE id = $1 AND status = 'accepted'
RETURNING`+swapColumns, id)

	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwapRequest{}, r.notFoundOrConflictQ(ctx, tx, id)
		}
		return model.SwapRequest{}, fmt.Errorf("mark swap completed: %w", err)
	}

	return swap, nil
}

func (r *SwapRepo) MarkReported(ctx context.Context, id int64, reportedBy int64, reason string) (model.SwapRequest, error) {
	if r.pool == nil {
		return model.SwapRequest{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE swap_requests SET
	is_reported = TRUE,
	report_reason = $3,
	reported_by = $2,
	reported_at = NOW(),
	updated_at = NOW()
WHERE id = $1
RETURNING`+swapColumns, id, reportedBy, reason)

	swap, err := scanSwap(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.SwapRequest{}, ErrSwapNotFound
		}
		return model.SwapRequest{}, fmt.Errorf("mark swap reported: %w", err)
	}

	return swap, nil
}

func (r *SwapRepo) ListForUser(ctx context.Context, userID int64, status string, limit, offset int) ([]model.SwapRequest, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 10
	}

	conds := []string{"(from_user_id = $1 OR to_user_id = $1)"}
	args := []any{userID}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM swap_requests WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count swaps: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT%s FROM swap_requests WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		swapColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps for user: %w", err)
	}
	defer rows.Close()

	swaps, err := collectSwaps(rows)
	if err != nil {
		return nil, 0, err
	}

	return swaps, total, nil
}

func (r *SwapRepo) List(ctx context.Context, filter SwapListFilter) ([]model.SwapRequest, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	conds := []string{"TRUE"}
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ReportedOnly {
		conds = append(conds, "is_reported")
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM swap_requests WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count swaps: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT%s FROM swap_requests WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		swapColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps: %w", err)
	}
	defer rows.Close()

	swaps, err := collectSwaps(rows)
	if err != nil {
		return nil, 0, err
	}

	return swaps, total, nil
}

func (r *SwapRepo) StatusCountsForUser(ctx context.Context, userID int64) (model.SwapStats, error) {
	if r.pool == nil {
		return model.SwapStats{}, fmt.Errorf("postgres pool is nil")
	}
	return r.statusCounts(ctx, `WHERE from_user_id = $1 OR to_user_id = $1`, userID)
}

func (r *SwapRepo) StatusCounts(ctx context.Context) (model.SwapStats, error) {
	if r.pool == nil {
		return model.SwapStats{}, fmt.Errorf("postgres pool is nil")
	}
	return r.statusCounts(ctx, ``)
}

func (r *SwapRepo) statusCounts(ctx context.Context, where string, args ...any) (model.SwapStats, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM swap_requests `+where+` GROUP BY status`, args...)
	if err != nil {
		return model.SwapStats{}, fmt.Errorf("count swaps by status: %w", err)
	}
	defer rows.Close()

	var stats model.SwapStats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.SwapStats{}, fmt.Errorf("scan status count: %w", err)
		}
		stats.Total += count
		switch enums.SwapStatus(status) {
		case enums.SwapStatusPending:
			stats.Pending = count
		case enums.SwapStatusAccepted:
			stats.Accepted = count
		case enums.SwapStatusCompleted:
			stats.Completed = count
		case enums.SwapStatusRejected:
			stats.Rejected = count
		case enums.SwapStatusCancelled:
			stats.Cancelled = count
		}
	}
	if rows.Err() != nil {
		return model.SwapStats{}, fmt.Errorf("iterate status counts: %w", rows.Err())
	}

	return stats, nil
}

// DeleteForUser removes every swap the user is a party to. Used by the
// admin cascade, so it requires the surrounding transaction.
func (r *SwapRepo) DeleteForUser(ctx context.Context, tx pgx.Tx, userID int64) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `DELETE FROM swap_requests WHERE from_user_id = $1 OR to_user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete swaps for user: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *SwapRepo) DeleteByID(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM swap_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete swap: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSwapNotFound
	}

	return nil
}

func (r *SwapRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM swap_requests WHERE created_at >= $1`, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent swaps: %w", err)
	}
	return count, nil
}

func (r *SwapRepo) notFoundOrConflict(ctx context.Context, id int64) error {
	return r.notFoundOrConflictQ(ctx, r.pool, id)
}

func (r *SwapRepo) notFoundOrConflictQ(ctx context.Context, q querier, id int64) error {
	var one int
	err := q.QueryRow(ctx, `SELECT 1 FROM swap_requests WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSwapNotFound
	}
	if err != nil {
		return fmt.Errorf("check swap existence: %w", err)
	}
	return ErrStatusConflict
}

func scanSwap(row pgx.Row) (model.SwapRequest, error) {
	var swap model.SwapRequest
	var status, priority, format string
	err := row.Scan(
		&swap.ID, &swap.FromUserID, &swap.ToUserID, &swap.SkillOffered, &swap.SkillWanted,
		&swap.Message, &status, &priority, &swap.ScheduledDate, &swap.DurationHours,
		&format, &swap.MeetingLink, &swap.Notes,
		&swap.Rating.FromUserRating, &swap.Rating.ToUserRating,
		&swap.Rating.FromUserReview, &swap.Rating.ToUserReview,
		&swap.CompletedAt, &swap.CancelledAt, &swap.CancelledBy, &swap.CancellationReason,
		&swap.IsReported, &swap.ReportReason, &swap.ReportedBy, &swap.ReportedAt,
		&swap.CreatedAt, &swap.UpdatedAt,
	)
	if err != nil {
		return model.SwapRequest{}, err
	}
	swap.Status = enums.SwapStatus(status)
	swap.Priority = enums.SwapPriority(priority)
	swap.SessionFormat = enums.SessionFormat(format)
	return swap, nil
}

func collectSwaps(rows pgx.Rows) ([]model.SwapRequest, error) {
	swaps := []model.SwapRequest{}
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		swaps = append(swaps, swap)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate swaps: %w", rows.Err())
	}
	return swaps, nil
}
