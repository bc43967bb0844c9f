package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillhub/backend/internal/domain/enums"
	"github.com/skillhub/backend/internal/domain/model"
)

const userColumns = `
	id, name, email, password_hash, location, availability, is_public,
	skills_offered, skills_wanted, is_admin, rating, completed_swaps,
	bio, linkedin_profile, github_profile, portfolio, avatar_key,
	joined_at, last_active, created_at, updated_at`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) q(tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.pool
}

type SearchFilter struct {
	Query        string
	Skill        string
	Location     string
	Availability string
	Limit        int
	Offset       int
}

type ProfileUpdate struct {
	Name            *string
	Location        *string
	Bio             *string
	Availability    *string
	IsPublic        *bool
	LinkedinProfile *string
	GithubProfile   *string
	Portfolio       *string
}

func (r *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO users (
	name, email, password_hash, location, availability, is_public,
	skills_offered, skills_wanted, is_admin, rating, completed_swaps,
	bio, linkedin_profile, github_profile, portfolio, avatar_key,
	joined_at, last_active, created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, $10, $11, $12, $13, '',
	NOW(), NOW(), NOW(), NOW()
)
RETURNING`+userColumns,
		user.Name, strings.ToLower(user.Email), user.PasswordHash, user.Location,
		string(user.Availability), user.IsPublic, user.SkillsOffered, user.SkillsWanted,
		user.IsAdmin, user.Bio, user.LinkedinProfile, user.GithubProfile, user.Portfolio,
	)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 {
		return model.User{}, ErrUserNotFound
	}

	row := r.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepo) Search(ctx context.Context, filter SearchFilter) ([]model.User, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	conds := []string{"is_public"}
	args := []any{}

	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, q)
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(
			name ILIKE '%%' || $%d || '%%'
			OR location ILIKE '%%' || $%d || '%%'
			OR bio ILIKE '%%' || $%d || '%%'
			OR EXISTS (SELECT 1 FROM unnest(skills_offered || skills_wanted) AS s WHERE s ILIKE '%%' || $%d || '%%')
		)`, n, n, n, n))
	}
	if skill := strings.TrimSpace(filter.Skill); skill != "" {
		args = append(args, skill)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM unnest(skills_offered || skills_wanted) AS s WHERE s ILIKE '%%' || $%d || '%%')`, n))
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		args = append(args, loc)
		conds = append(conds, fmt.Sprintf(`location ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if av := strings.TrimSpace(filter.Availability); av != "" {
		args = append(args, av)
		conds = append(conds, fmt.Sprintf(`availability = $%d`, len(args)))
	}

	where := strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT%s FROM users WHERE %s ORDER BY rating DESC, completed_swaps DESC, id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// FindBySkill returns public users listing skill on the given side
// ("offered" or "wanted"), matched as a case-insensitive substring.
func (r *UserRepo) FindBySkill(ctx context.Context, skill, side string) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	column := "skills_offered"
	if side == "wanted" {
		column = "skills_wanted"
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT%s
FROM users
WHERE is_public
	AND EXISTS (SELECT 1 FROM unnest(%s) AS s WHERE s ILIKE '%%' || $1 || '%%')
ORDER BY rating DESC, completed_swaps DESC, id
`, userColumns, column), strings.TrimSpace(skill))
	if err != nil {
		return nil, fmt.Errorf("find users by skill: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE users SET
	name = COALESCE($2, name),
	location = COALESCE($3, location),
	bio = COALESCE($4, bio),
	availability = COALESCE($5, availability),
	is_public = COALESCE($6, is_public),
	linkedin_profile = COALESCE($7, linkedin_profile),
	github_profile = COALESCE($8, github_profile),
	portfolio = COALESCE($9, portfolio),
	last_active = NOW(),
	updated_at = NOW()
WHERE id = $1
RETURNING`+userColumns,
		id, update.Name, update.Location, update.Bio, update.Availability,
		update.IsPublic, update.LinkedinProfile, update.GithubProfile, update.Portfolio,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}

func (r *UserRepo) UpdateSkills(ctx context.Context, id int64, offered, wanted []string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE users SET
	skills_offered = $2,
	skills_wanted = $3,
	last_active = NOW(),
	updated_at = NOW()
WHERE id = $1
RETURNING`+userColumns, id, offered, wanted)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("update skills: %w", err)
	}

	return user, nil
}

// ApplyRatingUpdate writes a recomputed rating for the user. The write is
// guarded by the previously observed completed-swaps counter so that two
// concurrently completing swaps cannot overwrite each other; the loser
// gets ErrStaleUserUpdate and must recompute.
func (r *UserRepo) ApplyRatingUpdate(ctx context.Context, tx pgx.Tx, id int64, newRating float64, expectedCompleted int, incrementCompleted bool) error {
	if r.pool == nil && tx == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if id <= 0 || newRating < 0 || newRating > 5 {
		return fmt.Errorf("invalid rating update payload")
	}

	increment := 0
	if incrementCompleted {
		increment = 1
	}

	result, err := r.q(tx).Exec(ctx, `
UPDATE users SET
	rating = $2,
	completed_swaps = completed_swaps + $3,
	updated_at = NOW()
WHERE id = $1 AND completed_swaps = $4
`, id, newRating, increment, expectedCompleted)
	if err != nil {
		return fmt.Errorf("apply rating update: %w", err)
	}
	if result.RowsAffected() == 0 {
		var one int
		err := r.q(tx).QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("check user existence: %w", err)
		}
		return ErrStaleUserUpdate
	}

	return nil
}

func (r *UserRepo) SetAvatarKey(ctx context.Context, id int64, key string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	result, err := r.pool.Exec(ctx, `UPDATE users SET avatar_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	if err != nil {
		return fmt.Errorf("set avatar key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) TouchLastActive(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `UPDATE users SET last_active = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch last active: %w", err)
	}
	return nil
}

func (r *UserRepo) SetAdmin(ctx context.Context, id int64, isAdmin bool) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
UPDATE users SET is_admin = $2, updated_at = NOW() WHERE id = $1
RETURNING`+userColumns, id, isAdmin)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("set admin flag: %w", err)
	}

	return user, nil
}

func (r *UserRepo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) ListAdmin(ctx context.Context, search string, adminsOnly bool, limit, offset int) ([]model.User, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	conds := []string{"TRUE"}
	args := []any{}
	if q := strings.TrimSpace(search); q != "" {
		args = append(args, q)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(name ILIKE '%%' || $%d || '%%' OR email ILIKE '%%' || $%d || '%%' OR location ILIKE '%%' || $%d || '%%')`, n, n, n))
	}
	if adminsOnly {
		conds = append(conds, "is_admin")
	}

	where := strings.Join(conds, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT%s FROM users WHERE %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *UserRepo) PopularSkills(ctx context.Context, limit int) ([]model.SkillCount, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
SELECT skill, COUNT(*) AS cnt
FROM users, unnest(skills_offered || skills_wanted) AS skill
WHERE is_public
GROUP BY skill
ORDER BY cnt DESC, skill
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("count popular skills: %w", err)
	}
	defer rows.Close()

	items := make([]model.SkillCount, 0, limit)
	for rows.Next() {
		var item model.SkillCount
		if err := rows.Scan(&item.Skill, &item.Count); err != nil {
			return nil, fmt.Errorf("scan skill count: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate skill counts: %w", rows.Err())
	}

	return items, nil
}

func (r *UserRepo) PlatformCounts(ctx context.Context) (model.PlatformStats, error) {
	if r.pool == nil {
		return model.PlatformStats{}, fmt.Errorf("postgres pool is nil")
	}

	var stats model.PlatformStats
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE is_public)
FROM users
`).Scan(&stats.TotalUsers, &stats.PublicUsers)
	if err != nil {
		return model.PlatformStats{}, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT availability, COUNT(*)
FROM users
GROUP BY availability
ORDER BY availability
`)
	if err != nil {
		return model.PlatformStats{}, fmt.Errorf("count by availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.AvailabilityCount
		if err := rows.Scan(&item.Availability, &item.Count); err != nil {
			return model.PlatformStats{}, fmt.Errorf("scan availability count: %w", err)
		}
		stats.AvailabilityBreakdown = append(stats.AvailabilityBreakdown, item)
	}
	if rows.Err() != nil {
		return model.PlatformStats{}, fmt.Errorf("iterate availability counts: %w", rows.Err())
	}

	topRows, err := r.pool.Query(ctx, `
SELECT id, name, rating, completed_swaps
FROM users
WHERE is_public AND rating > 0 AND completed_swaps > 0
ORDER BY rating DESC, completed_swaps DESC, id
LIMIT 10
`)
	if err != nil {
		return model.PlatformStats{}, fmt.Errorf("list top rated users: %w", err)
	}
	defer topRows.Close()

	for topRows.Next() {
		var item model.RatedUser
		if err := topRows.Scan(&item.ID, &item.Name, &item.Rating, &item.CompletedSwaps); err != nil {
			return model.PlatformStats{}, fmt.Errorf("scan top rated user: %w", err)
		}
		stats.TopRatedUsers = append(stats.TopRatedUsers, item)
	}
	if topRows.Err() != nil {
		return model.PlatformStats{}, fmt.Errorf("iterate top rated users: %w", topRows.Err())
	}

	return stats, nil
}

func (r *UserRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= $1`, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent users: %w", err)
	}
	return count, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	var availability string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Location,
		&availability, &user.IsPublic, &user.SkillsOffered, &user.SkillsWanted,
		&user.IsAdmin, &user.Rating, &user.CompletedSwaps, &user.Bio,
		&user.LinkedinProfile, &user.GithubProfile, &user.Portfolio, &user.AvatarKey,
		&user.JoinedAt, &user.LastActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Availability = enums.Availability(availability)
	return user, nil
}

func collectUsers(rows pgx.Rows) ([]model.User, error) {
	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate users: %w", rows.Err())
	}
	return users, nil
}
