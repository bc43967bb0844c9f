package rate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter throttles a single kind of action with a fixed window counter.
// One instance guards login attempts per subject, another guards outgoing
// swap requests per user.
type Limiter struct {
	store  WindowStore
	scope  string
	limit  int
	window time.Duration
}

func NewLimiter(store WindowStore, scope string, limit int, window time.Duration) *Limiter {
	if limit < 0 {
		limit = 0
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Limiter{
		store:  store,
		scope:  scope,
		limit:  limit,
		window: window,
	}
}

// Allow records one attempt for subject and reports whether it is still
// under the limit. When the limit is exceeded it returns the number of
// seconds until the window resets.
func (l *Limiter) Allow(ctx context.Context, subject string) (int64, bool, error) {
	if strings.TrimSpace(subject) == "" {
		return 0, false, fmt.Errorf("rate subject is required")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}
	if l.limit == 0 {
		return 0, true, nil
	}

	count, ttl, err := l.store.IncrementWindow(ctx, l.key(subject), l.window)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.limit) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func (l *Limiter) AllowUser(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	return l.Allow(ctx, strconv.FormatInt(userID, 10))
}

func (l *Limiter) key(subject string) string {
	return "rate:" + l.scope + ":" + subject
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
