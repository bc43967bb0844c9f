package swaps_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skillhub/backend/internal/domain/enums"
	"github.com/skillhub/backend/internal/domain/model"
	pgrepo "github.com/skillhub/backend/internal/repo/postgres"
	swapsvc "github.com/skillhub/backend/internal/services/swaps"
)

func TestCreatePreconditions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.dir.seed(model.User{Name: "Alice", IsPublic: true, SkillsOffered: []string{"Go"}})
	bob := env.dir.seed(model.User{Name: "Bob", IsPublic: true, SkillsOffered: []string{"Spanish"}})
	hermit := env.dir.seed(model.User{Name: "Hermit", IsPublic: false, SkillsOffered: []string{"Chess"}})

	base := swapsvc.CreateInput{ToUserID: bob.ID, SkillOffered: "Go", SkillWanted: "Spanish"}

	if _, err := env.svc.Create(ctx, alice.ID, swapsvc.CreateInput{ToUserID: alice.ID, SkillOffered: "Go", SkillWanted: "Go"}); !errors.Is(err, swapsvc.ErrValidation) {
		t.Fatalf("self swap should be a validation error, got %v", err)
	}
	if _, err := env.svc.Create(ctx, alice.ID, swapsvc.CreateInput{ToUserID: 9999, SkillOffered: "Go", SkillWanted: "Spanish"}); !errors.Is(err, swapsvc.ErrNotFound) {
		t.Fatalf("missing recipient should be not found, got %v", err)
	}
	if _, err := env.svc.Create(ctx, alice.ID, swapsvc.CreateInput{ToUserID: hermit.ID, SkillOffered: "Go", SkillWanted: "Chess"}); !errors.Is(err, swapsvc.ErrForbidden) {
		t.Fatalf("private recipient should be forbidden, got %v", err)
	}
	if _, err := env.svc.Create(ctx, alice.ID, swapsvc.CreateInput{ToUserID: bob.ID, SkillOffered: "Cooking", SkillWanted: "Spanish"}); !errors.Is(err, swapsvc.ErrValidation) {
		t.Fatalf("unoffered skill should be a validation error, got %v", err)
	}

	longSkill := base
	longSkill.SkillOffered = strings.Repeat("g", 150)
	if _, err := env.svc.Create(ctx, alice.ID, longSkill); !errors.Is(err, swapsvc.ErrValidation) {
		t.Fatalf("oversized skill should be a validation error, got %v", err)
	}
	longNotes := base
	longNotes.Notes = strings.Repeat("n", 5000)
	if _, err := env.svc.Create(ctx, alice.ID, longNotes); !errors.Is(err, swapsvc.ErrValidation) {
		t.Fatalf("oversized notes should be a validation error, got %v", err)
	}
	longLink := base
	longLink.MeetingLink = "https://" + strings.Repeat("x", 600)
	if _, err := env.svc.Create(ctx, alice.ID, longLink); !errors.Is(err, swapsvc.ErrValidation) {
		t.Fatalf("oversized meeting link should be a validation error, got %v", err)
	}

	swap, err := env.svc.Create(ctx, alice.ID, base)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if swap.Status != enums.SwapStatusPending {
		t.Fatalf("new swap should be pending, got %s", swap.Status)
	}
	if swap.Priority != enums.SwapPriorityMedium || swap.SessionFormat != enums.SessionFormatOnline {
		t.Fatalf("defaults not applied: priority=%s format=%s", swap.Priority, swap.SessionFormat)
	}

	if _, err := env.svc.Create(ctx, alice.ID, base); !errors.Is(err, swapsvc.ErrConflict) {
		t.Fatalf("duplicate pending tuple should conflict, got %v", err)
	}

	// A different skill pair between the same users is fine.
	env.dir.addOffered(alice.ID, "Rust")
	if _, err := env.svc.Create(ctx, alice.ID, swapsvc.CreateInput{ToUserID: bob.ID, SkillOffered: "Rust", SkillWanted: "Spanish"}); err != nil {
		t.Fatalf("different tuple should be allowed: %v", err)
	}
}

func TestRespondAuthorizationAndState(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice, bob, swap := env.seedPendingSwap(t)
	stranger := env.dir.seed(model.User{Name: "Mallory", IsPublic: true})

	if _, err := env.svc.Accept(ctx, swap.ID, stranger.ID); !errors.Is(err, swapsvc.ErrForbidden) {
		t.Fatalf("stranger accept should be forbidden, got %v", err)
	}
	if _, err := env.svc.Accept(ctx, swap.ID, alice.ID); !errors.Is(err, swapsvc.ErrForbidden) {
		t.Fatalf("initiator accept should be forbidden, got %v", err)
	}

	accepted, err := env.svc.Accept(ctx, swap.ID, bob.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != enums.SwapStatusAccepted {
		t.Fatalf("status should be accepted, got %s", accepted.Status)
	}

	if _, err := env.svc.Accept(ctx, swap.ID, bob.ID); !errors.Is(err, swapsvc.ErrInvalidState) {
		t.Fatalf("double accept should be invalid state, got %v", err)
	}
	if _, err := env.svc.Reject(ctx, swap.ID, bob.ID); !errors.Is(err, swapsvc.ErrInvalidState) {
		t.Fatalf("reject after accept should be invalid state, got %v", err)
	}
}

func TestCancelByEitherParty(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice, bob, swap := env.seedPendingSwap(t)

	cancelled, err := env.svc.Cancel(ctx, swap.ID, alice.ID, "found another partner")
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if cancelled.Status != enums.SwapStatusCancelled {
		t.Fatalf("status should be cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelledBy == nil || *cancelled.CancelledBy != alice.ID {
		t.Fatalf("cancelledBy not recorded")
	}
	if cancelled.CancellationReason != "found another partner" {
		t.Fatalf("reason not recorded: %q", cancelled.CancellationReason)
	}

	if _, err := env.svc.Cancel(ctx, swap.ID, bob.ID, ""); !errors.Is(err, swapsvc.ErrInvalidState) {
		t.Fatalf("cancel of cancelled swap should be invalid state, got %v", err)
	}

	// The recipient can cancel an accepted swap too.
	_, _, second := env.seedPendingSwapBetween(t, alice, bob, "Go", "French")
	if _, err := env.svc.Accept(ctx, second.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, second.ID, bob.ID, ""); err != nil {
		t.Fatalf("cancel accepted: %v", err)
	}
}

func TestRatingCompletesAndUpdatesAggregates(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Veteran with an established rating and a fresh user.
	alice := env.dir.seed(model.User{Name: "Alice", IsPublic: true, SkillsOffered: []string{"Go"}, Rating: 4.8, CompletedSwaps: 12})
	bob := env.dir.seed(model.User{Name: "Bob", IsPublic: true, SkillsOffered: []string{"Spanish"}})

	_, _, swap := env.seedPendingSwapBetween(t, alice, bob, "Go", "Spanish")
	if _, err := env.svc.Accept(ctx, swap.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	afterFirst, err := env.svc.SubmitRating(ctx, swap.ID, alice.ID, 4, "great teacher")
	if err != nil {
		t.Fatalf("first rating: %v", err)
	}
	if afterFirst.Status != enums.SwapStatusAccepted {
		t.Fatalf("swap should stay accepted after one rating, got %s", afterFirst.Status)
	}

	afterSecond, err := env.svc.SubmitRating(ctx, swap.ID, bob.ID, 5, "fast learner")
	if err != nil {
		t.Fatalf("second rating: %v", err)
	}
	if afterSecond.Status != enums.SwapStatusCompleted {
		t.Fatalf("swap should complete after both ratings, got %s", afterSecond.Status)
	}
	if afterSecond.CompletedAt == nil {
		t.Fatalf("completedAt not set")
	}

	// Alice received 5: (4.8*12 + 5) / 13 rounds back to 4.8.
	gotAlice := env.dir.get(alice.ID)
	if gotAlice.Rating != 4.8 || gotAlice.CompletedSwaps != 13 {
		t.Fatalf("alice aggregate wrong: rating=%v completed=%d", gotAlice.Rating, gotAlice.CompletedSwaps)
	}

	// Bob received 4 as his first rating.
	gotBob := env.dir.get(bob.ID)
	if gotBob.Rating != 4.0 || gotBob.CompletedSwaps != 1 {
		t.Fatalf("bob aggregate wrong: rating=%v completed=%d", gotBob.Rating, gotBob.CompletedSwaps)
	}
}

func TestRatingResubmissionOverwrites(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice, bob, swap := env.seedPendingSwap(t)
	if _, err := env.svc.Accept(ctx, swap.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := env.svc.SubmitRating(ctx, swap.ID, alice.ID, 2, "meh"); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	updated, err := env.svc.SubmitRating(ctx, swap.ID, alice.ID, 5, "actually great")
	if err != nil {
		t.Fatalf("resubmission: %v", err)
	}
	if updated.Rating.FromUserRating == nil || *updated.Rating.FromUserRating != 5 {
		t.Fatalf("slot not overwritten: %v", updated.Rating.FromUserRating)
	}
	if updated.Rating.FromUserReview != "actually great" {
		t.Fatalf("review not overwritten: %q", updated.Rating.FromUserReview)
	}
	if updated.Status != enums.SwapStatusAccepted {
		t.Fatalf("swap should stay accepted, got %s", updated.Status)
	}

	// The completion uses the final slot values.
	completed, err := env.svc.SubmitRating(ctx, swap.ID, bob.ID, 3, "")
	if err != nil {
		t.Fatalf("counterpart rating: %v", err)
	}
	if completed.Status != enums.SwapStatusCompleted {
		t.Fatalf("swap should complete, got %s", completed.Status)
	}
	if got := env.dir.get(bob.ID); got.Rating != 5.0 {
		t.Fatalf("bob should have received the overwritten rating, got %v", got.Rating)
	}
}

func TestRatingValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice, bob, swap := env.seedPendingSwap(t)

	if _, err := env.svc.SubmitRating(ctx, swap.ID, alice.ID, 4, ""); !errors.Is(err, swapsvc.ErrInvalidState) {
		t.Fatalf("rating a pending swap should be invalid state, got %v", err)
	}

	if _, err := env.svc.Accept(ctx, swap.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	for _, rating := range []int{0, 6, -1} {
		if _, err := env.svc.SubmitRating(ctx, swap.ID, alice.ID, rating, ""); !errors.Is(err, swapsvc.ErrValidation) {
			t.Fatalf("rating %d should be a validation error, got %v", rating, err)
		}
	}

	stranger := env.dir.seed(model.User{Name: "Mallory", IsPublic: true})
	if _, err := env.svc.SubmitRating(ctx, swap.ID, stranger.ID, 4, ""); !errors.Is(err, swapsvc.ErrForbidden) {
		t.Fatalf("stranger rating should be forbidden, got %v", err)
	}
}

func TestRatingRetriesOnStaleAggregate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice, bob, swap := env.seedPendingSwap(t)
	if _, err := env.svc.Accept(ctx, swap.ID, bob.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := env.svc.SubmitRating(ctx, swap.ID, alice.ID, 4, ""); err != nil {
		t.Fatalf("first rating: %v", err)
	}

	// First aggregate write loses an optimistic race, the retry succeeds.
	env.dir.failStale = 1

	completed, err := env.svc.SubmitRating(ctx, swap.ID, bob.ID, 5, "")
	if err != nil {
		t.Fatalf("rating with transient conflict: %v", err)
	}
	if completed.Status != enums.SwapStatusCompleted {
		t.Fatalf("swap should complete after retry, got %s", completed.Status)
	}
	if got := env.dir.get(alice.ID); got.CompletedSwaps != 1 {
		t.Fatalf("alice counter wrong after retry: %d", got.CompletedSwaps)
	}
}

func TestConcurrentCompletionsSerializePerUser(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice := env.dir.seed(model.User{Name: "Alice", IsPublic: true, SkillsOffered: []string{"Go"}})
	partners := make([]model.User, 4)
	swapIDs := make([]int64, 4)
	for i := range partners {
		partners[i] = env.dir.seed(model.User{Name: fmt.Sprintf("Partner%d", i), IsPublic: true, SkillsOffered: []string{"Skill"}})
		_, _, swap := env.seedPendingSwapBetween(t, alice, partners[i], "Go", fmt.Sprintf("Skill%d", i))
		swapIDs[i] = swap.ID
		if _, err := env.svc.Accept(ctx, swap.ID, partners[i].ID); err != nil {
			t.Fatalf("accept %d: %v", i, err)
		}
		if _, err := env.svc.SubmitRating(ctx, swap.ID, partners[i].ID, 4, ""); err != nil {
			t.Fatalf("partner rating %d: %v", i, err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(swapIDs))
	for i, id := range swapIDs {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			if _, err := env.svc.SubmitRating(ctx, id, alice.ID, 5, ""); err != nil {
				errs <- fmt.Errorf("swap %d: %w", id, err)
			}
		}(i, id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent completion failed: %v", err)
	}

	got := env.dir.get(alice.ID)
	if got.CompletedSwaps != 4 {
		t.Fatalf("all completions must be counted, got %d", got.CompletedSwaps)
	}
	if got.Rating != 4.0 {
		t.Fatalf("alice received four 4s, rating should be 4.0, got %v", got.Rating)
	}
}

func TestReportRequiresParty(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	alice, _, swap := env.seedPendingSwap(t)
	stranger := env.dir.seed(model.User{Name: "Mallory", IsPublic: true})

	if _, err := env.svc.Report(ctx, swap.ID, stranger.ID, "spam"); !errors.Is(err, swapsvc.ErrForbidden) {
		t.Fatalf("stranger report should be forbidden, got %v", err)
	}
	if _, err := env.svc.Report(ctx, swap.ID, alice.ID, ""); !errors.Is(err, swapsvc.ErrValidation) {
		t.Fatalf("empty reason should be a validation error, got %v", err)
	}

	reported, err := env.svc.Report(ctx, swap.ID, alice.ID, "no-show")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !reported.IsReported || reported.ReportReason != "no-show" {
		t.Fatalf("report metadata missing: %+v", reported)
	}
}

func TestNextRating(t *testing.T) {
	cases := []struct {
		rating    float64
		completed int
		received  int
		want      float64
	}{
		{4.8, 12, 5, 4.8},
		{0, 0, 4, 4.0},
		{5, 1, 4, 4.5},
		{3.5, 2, 5, 4.0},
		{4.3, 3, 1, 3.5},
	}

	for _, tc := range cases {
		if got := swapsvc.NextRating(tc.rating, tc.completed, tc.received); got != tc.want {
			t.Fatalf("NextRating(%v, %d, %d) = %v, want %v", tc.rating, tc.completed, tc.received, got, tc.want)
		}
	}
}

func TestCountByStatus(t *testing.T) {
	swaps := []model.SwapRequest{
		{Status: enums.SwapStatusPending},
		{Status: enums.SwapStatusPending},
		{Status: enums.SwapStatusAccepted},
		{Status: enums.SwapStatusCompleted},
		{Status: enums.SwapStatusRejected},
		{Status: enums.SwapStatusCancelled},
	}

	stats := swapsvc.CountByStatus(swaps)
	want := model.SwapStats{Total: 6, Pending: 2, Accepted: 1, Completed: 1, Rejected: 1, Cancelled: 1}
	if stats != want {
		t.Fatalf("counts = %+v, want %+v", stats, want)
	}
}

// --- test doubles ---

type testEnv struct {
	store *memSwapStore
	dir   *memDirectory
	svc   *swapsvc.Service
}

func newTestEnv() *testEnv {
	store := newMemSwapStore()
	dir := newMemDirectory()
	svc := swapsvc.NewService(swapsvc.Dependencies{
		Store:     store,
		Directory: dir,
		Tx:        &memTxRunner{},
	})
	return &testEnv{store: store, dir: dir, svc: svc}
}

func (e *testEnv) seedPendingSwap(t *testing.T) (model.User, model.User, model.SwapRequest) {
	t.Helper()
	alice := e.dir.seed(model.User{Name: "Alice", IsPublic: true, SkillsOffered: []string{"Go"}})
	bob := e.dir.seed(model.User{Name: "Bob", IsPublic: true, SkillsOffered: []string{"Spanish"}})
	_, _, swap := e.seedPendingSwapBetween(t, alice, bob, "Go", "Spanish")
	return alice, bob, swap
}

func (e *testEnv) seedPendingSwapBetween(t *testing.T, from, to model.User, offered, wanted string) (model.User, model.User, model.SwapRequest) {
	t.Helper()
	e.dir.addOffered(from.ID, offered)
	swap, err := e.svc.Create(context.Background(), from.ID, swapsvc.CreateInput{
		ToUserID:     to.ID,
		SkillOffered: offered,
		SkillWanted:  wanted,
	})
	if err != nil {
		t.Fatalf("seed swap: %v", err)
	}
	return from, to, swap
}

type memTxRunner struct {
	mu sync.Mutex
}

func (r *memTxRunner) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, nil)
}

type memDirectory struct {
	mu        sync.Mutex
	users     map[int64]model.User
	nextID    int64
	failStale int
}

func newMemDirectory() *memDirectory {
	return &memDirectory{users: map[int64]model.User{}, nextID: 1}
}

func (d *memDirectory) seed(user model.User) model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	user.ID = d.nextID
	d.nextID++
	d.users[user.ID] = user
	return user
}

func (d *memDirectory) get(id int64) model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.users[id]
}

func (d *memDirectory) addOffered(id int64, skill string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user := d.users[id]
	if !user.OffersSkill(skill) {
		user.SkillsOffered = append(user.SkillsOffered, skill)
	}
	d.users[id] = user
}

func (d *memDirectory) GetByID(_ context.Context, id int64) (model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (d *memDirectory) ApplyRatingUpdate(_ context.Context, _ pgx.Tx, id int64, newRating float64, expectedCompleted int, incrementCompleted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failStale > 0 {
		d.failStale--
		return pgrepo.ErrStaleUserUpdate
	}

	user, ok := d.users[id]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	if user.CompletedSwaps != expectedCompleted {
		return pgrepo.ErrStaleUserUpdate
	}

	user.Rating = newRating
	if incrementCompleted {
		user.CompletedSwaps++
	}
	d.users[id] = user
	return nil
}

type memSwapStore struct {
	mu     sync.Mutex
	swaps  map[int64]model.SwapRequest
	nextID int64
}

func newMemSwapStore() *memSwapStore {
	return &memSwapStore{swaps: map[int64]model.SwapRequest{}, nextID: 1}
}

func (s *memSwapStore) Create(_ context.Context, swap model.SwapRequest) (model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap.ID = s.nextID
	s.nextID++
	now := time.Now()
	swap.CreatedAt = now
	swap.UpdatedAt = now
	s.swaps[swap.ID] = swap
	return swap, nil
}

func (s *memSwapStore) GetByID(_ context.Context, id int64) (model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	return swap, nil
}

func (s *memSwapStore) HasPendingTuple(_ context.Context, fromUserID, toUserID int64, skillOffered, skillWanted string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, swap := range s.swaps {
		if swap.FromUserID == fromUserID && swap.ToUserID == toUserID &&
			swap.SkillOffered == skillOffered && swap.SkillWanted == skillWanted &&
			swap.Status == enums.SwapStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *memSwapStore) Transition(_ context.Context, id int64, from, to enums.SwapStatus) (model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	if swap.Status != from {
		return model.SwapRequest{}, pgrepo.ErrStatusConflict
	}
	swap.Status = to
	swap.UpdatedAt = time.Now()
	s.swaps[id] = swap
	return swap, nil
}

func (s *memSwapStore) Cancel(_ context.Context, id int64, from enums.SwapStatus, cancelledBy int64, reason string) (model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	if swap.Status != from {
		return model.SwapRequest{}, pgrepo.ErrStatusConflict
	}
	now := time.Now()
	swap.Status = enums.SwapStatusCancelled
	swap.CancelledAt = &now
	swap.CancelledBy = &cancelledBy
	swap.CancellationReason = reason
	swap.UpdatedAt = now
	s.swaps[id] = swap
	return swap, nil
}

func (s *memSwapStore) SetRatingSlot(_ context.Context, _ pgx.Tx, id int64, fromSide bool, rating int, review string) (model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	if swap.Status != enums.SwapStatusAccepted {
		return model.SwapRequest{}, pgrepo.ErrStatusConflict
	}
	if fromSide {
		swap.Rating.FromUserRating = &rating
		swap.Rating.FromUserReview = review
	} else {
		swap.Rating.ToUserRating = &rating
		swap.Rating.ToUserReview = review
	}
	swap.UpdatedAt = time.Now()
	s.swaps[id] = swap
	return swap, nil
}

func (s *memSwapStore) MarkCompleted(_ context.Context, _ pgx.Tx, id int64) (model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	if swap.Status != enums.SwapStatusAccepted {
		return model.SwapRequest{}, pgrepo.ErrStatusConflict
	}
	now := time.Now()
	swap.Status = enums.SwapStatusCompleted
	swap.CompletedAt = &now
	swap.UpdatedAt = now
	s.swaps[id] = swap
	return swap, nil
}

func (s *memSwapStore) MarkReported(_ context.Context, id int64, reportedBy int64, reason string) (model.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	now := time.Now()
	swap.IsReported = true
	swap.ReportReason = reason
	swap.ReportedBy = &reportedBy
	swap.ReportedAt = &now
	swap.UpdatedAt = now
	s.swaps[id] = swap
	return swap, nil
}

func (s *memSwapStore) ListForUser(_ context.Context, userID int64, status string, _, _ int) ([]model.SwapRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SwapRequest{}
	for _, swap := range s.swaps {
		if !swap.Involves(userID) {
			continue
		}
		if status != "" && string(swap.Status) != status {
			continue
		}
		out = append(out, swap)
	}
	return out, len(out), nil
}

func (s *memSwapStore) List(_ context.Context, filter pgrepo.SwapListFilter) ([]model.SwapRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.SwapRequest{}
	for _, swap := range s.swaps {
		if filter.Status != "" && string(swap.Status) != filter.Status {
			continue
		}
		if filter.ReportedOnly && !swap.IsReported {
			continue
		}
		out = append(out, swap)
	}
	return out, len(out), nil
}

func (s *memSwapStore) StatusCountsForUser(_ context.Context, userID int64) (model.SwapStats, error) {
	swaps, _, _ := s.ListForUser(context.Background(), userID, "", 0, 0)
	return swapsvc.CountByStatus(swaps), nil
}
