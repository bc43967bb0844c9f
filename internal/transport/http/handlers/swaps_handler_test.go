package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/skillhub/backend/internal/domain/enums"
	"github.com/skillhub/backend/internal/domain/model"
	pgrepo "github.com/skillhub/backend/internal/repo/postgres"
	authsvc "github.com/skillhub/backend/internal/services/auth"
	swapsvc "github.com/skillhub/backend/internal/services/swaps"
)

type handlerSwapStore struct {
	nextID int64
	swaps  map[int64]model.SwapRequest
}

func newHandlerSwapStore() *handlerSwapStore {
	return &handlerSwapStore{swaps: make(map[int64]model.SwapRequest)}
}

func (s *handlerSwapStore) Create(_ context.Context, swap model.SwapRequest) (model.SwapRequest, error) {
	s.nextID++
	swap.ID = s.nextID
	s.swaps[swap.ID] = swap
	return swap, nil
}

func (s *handlerSwapStore) GetByID(_ context.Context, id int64) (model.SwapRequest, error) {
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	return swap, nil
}

func (s *handlerSwapStore) HasPendingTuple(_ context.Context, fromUserID, toUserID int64, skillOffered, skillWanted string) (bool, error) {
	for _, swap := range s.swaps {
		if swap.FromUserID == fromUserID && swap.ToUserID == toUserID &&
			swap.SkillOffered == skillOffered && swap.SkillWanted == skillWanted &&
			swap.Status == enums.SwapStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *handlerSwapStore) Transition(_ context.Context, id int64, from, to enums.SwapStatus) (model.SwapRequest, error) {
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	if swap.Status != from {
		return model.SwapRequest{}, pgrepo.ErrStatusConflict
	}
	swap.Status = to
	s.swaps[id] = swap
	return swap, nil
}

func (s *handlerSwapStore) Cancel(_ context.Context, id int64, from enums.SwapStatus, cancelledBy int64, reason string) (model.SwapRequest, error) {
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	if swap.Status != from {
		return model.SwapRequest{}, pgrepo.ErrStatusConflict
	}
	swap.Status = enums.SwapStatusCancelled
	swap.CancelledBy = &cancelledBy
	swap.CancellationReason = reason
	s.swaps[id] = swap
	return swap, nil
}

func (s *handlerSwapStore) SetRatingSlot(_ context.Context, _ pgx.Tx, id int64, fromSide bool, rating int, review string) (model.SwapRequest, error) {
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
	s.swaps[id] = swap
	return swap, nil
}

func (s *handlerSwapStore) MarkCompleted(_ context.Context, _ pgx.Tx, id int64) (model.SwapRequest, error) {
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	swap.Status = enums.SwapStatusCompleted
	s.swaps[id] = swap
	return swap, nil
}

func (s *handlerSwapStore) MarkReported(_ context.Context, id int64, reportedBy int64, reason string) (model.SwapRequest, error) {
	swap, ok := s.swaps[id]
	if !ok {
		return model.SwapRequest{}, pgrepo.ErrSwapNotFound
	}
	swap.IsReported = true
	swap.ReportedBy = &reportedBy
	swap.ReportReason = reason
	s.swaps[id] = swap
	return swap, nil
}

func (s *handlerSwapStore) ListForUser(_ context.Context, userID int64, status string, _, _ int) ([]model.SwapRequest, int, error) {
	var out []model.SwapRequest
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

func (s *handlerSwapStore) List(_ context.Context, _ pgrepo.SwapListFilter) ([]model.SwapRequest, int, error) {
	return nil, 0, nil
}

func (s *handlerSwapStore) StatusCountsForUser(_ context.Context, userID int64) (model.SwapStats, error) {
	swaps, _, _ := s.ListForUser(context.Background(), userID, "", 0, 0)
	return swapsvc.CountByStatus(swaps), nil
}

type handlerDirectory struct {
	users map[int64]model.User
}

func (d *handlerDirectory) GetByID(_ context.Context, id int64) (model.User, error) {
	user, ok := d.users[id]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (d *handlerDirectory) ApplyRatingUpdate(_ context.Context, _ pgx.Tx, id int64, newRating float64, _ int, increment bool) error {
	user, ok := d.users[id]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	user.Rating = newRating
	if increment {
		user.CompletedSwaps++
	}
	d.users[id] = user
	return nil
}

type handlerTxRunner struct{}

func (handlerTxRunner) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	return fn(ctx, nil)
}

func newSwapsHandlerForTest() (*SwapsHandler, *handlerSwapStore) {
	store := newHandlerSwapStore()
	directory := &handlerDirectory{users: map[int64]model.User{
		1: {ID: 1, Name: "Alice", IsPublic: true, SkillsOffered: []string{"Go"}},
		2: {ID: 2, Name: "Bob", IsPublic: true, SkillsOffered: []string{"Rust"}},
	}}

	svc := swapsvc.NewService(swapsvc.Dependencies{
		Store:     store,
		Directory: directory,
		Tx:        handlerTxRunner{},
	})
	return NewSwapsHandler(svc, PageLimits{}), store
}

func swapRouter(h *SwapsHandler) chi.Router {
	r := chi.NewRouter()
	r.Post("/swaps", h.Create)
	r.Get("/swaps/{id}", h.Get)
	r.Put("/swaps/{id}/accept", h.Accept)
	r.Put("/swaps/{id}/reject", h.Reject)
	r.Put("/swaps/{id}/cancel", h.Cancel)
	r.Put("/swaps/{id}/complete", h.Rate)
	return r
}

func performSwapRequest(t *testing.T, r chi.Router, method, path string, actorID int64, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: actorID,
		SID:    fmt.Sprintf("sid-%d", actorID),
	}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSwapCreateAndDuplicateConflict(t *testing.T) {
	h, _ := newSwapsHandlerForTest()
	r := swapRouter(h)

	body := map[string]any{
		"to_user_id":    int64(2),
		"skill_offered": "Go",
		"skill_wanted":  "Rust",
	}

	resp := performSwapRequest(t, r, http.MethodPost, "/swaps", 1, body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("new swap should be pending, got %q", created.Status)
	}

	dup := performSwapRequest(t, r, http.MethodPost, "/swaps", 1, body)
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate should conflict: got %d", dup.Code)
	}
}

func TestSwapAcceptOnlyByRecipient(t *testing.T) {
	h, _ := newSwapsHandlerForTest()
	r := swapRouter(h)

	created := performSwapRequest(t, r, http.MethodPost, "/swaps", 1, map[string]any{
		"to_user_id":    int64(2),
		"skill_offered": "Go",
		"skill_wanted":  "Rust",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", created.Code)
	}

	if resp := performSwapRequest(t, r, http.MethodPut, "/swaps/1/accept", 1, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("sender must not accept own request: got %d", resp.Code)
	}

	resp := performSwapRequest(t, r, http.MethodPut, "/swaps/1/accept", 2, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("accept by recipient failed: %d: %s", resp.Code, resp.Body.String())
	}

	// A second response attempt hits a non-pending swap.
	if resp := performSwapRequest(t, r, http.MethodPut, "/swaps/1/reject", 2, nil); resp.Code != http.StatusConflict {
		t.Fatalf("responding twice should conflict: got %d", resp.Code)
	}
}

func TestSwapRatingCompletesSwap(t *testing.T) {
	h, _ := newSwapsHandlerForTest()
	r := swapRouter(h)

	performSwapRequest(t, r, http.MethodPost, "/swaps", 1, map[string]any{
		"to_user_id":    int64(2),
		"skill_offered": "Go",
		"skill_wanted":  "Rust",
	})
	performSwapRequest(t, r, http.MethodPut, "/swaps/1/accept", 2, nil)

	if resp := performSwapRequest(t, r, http.MethodPut, "/swaps/1/complete", 1, map[string]any{"rating": 6}); resp.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range rating should fail: got %d", resp.Code)
	}

	if resp := performSwapRequest(t, r, http.MethodPut, "/swaps/1/complete", 1, map[string]any{"rating": 5}); resp.Code != http.StatusOK {
		t.Fatalf("first rating failed: %d: %s", resp.Code, resp.Body.String())
	}

	resp := performSwapRequest(t, r, http.MethodPut, "/swaps/1/complete", 2, map[string]any{"rating": 4, "review": "solid"})
	if resp.Code != http.StatusOK {
		t.Fatalf("second rating failed: %d: %s", resp.Code, resp.Body.String())
	}

	var swap struct {
		Status string `json:"status"`
		Rating struct {
			FromUserRating *int `json:"from_user_rating"`
			ToUserRating   *int `json:"to_user_rating"`
		} `json:"rating"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &swap); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if swap.Status != "completed" {
		t.Fatalf("swap should complete after both ratings, got %q", swap.Status)
	}
	if swap.Rating.FromUserRating == nil || swap.Rating.ToUserRating == nil {
		t.Fatalf("both rating slots should be set: %+v", swap.Rating)
	}
}

func TestSwapCancelWithoutBody(t *testing.T) {
	h, _ := newSwapsHandlerForTest()
	r := swapRouter(h)

	performSwapRequest(t, r, http.MethodPost, "/swaps", 1, map[string]any{
		"to_user_id":    int64(2),
		"skill_offered": "Go",
		"skill_wanted":  "Rust",
	})

	resp := performSwapRequest(t, r, http.MethodPut, "/swaps/1/cancel", 1, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("cancel without a reason should succeed: got %d: %s", resp.Code, resp.Body.String())
	}

	var cancelled struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Fatalf("swap should be cancelled, got %q", cancelled.Status)
	}
}

func TestSwapGetHiddenFromOutsiders(t *testing.T) {
	h, _ := newSwapsHandlerForTest()
	r := swapRouter(h)

	performSwapRequest(t, r, http.MethodPost, "/swaps", 1, map[string]any{
		"to_user_id":    int64(2),
		"skill_offered": "Go",
		"skill_wanted":  "Rust",
	})

	resp := performSwapRequest(t, r, http.MethodGet, "/swaps/1", 99, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("outsider should not see the swap: got %d", resp.Code)
	}
}
