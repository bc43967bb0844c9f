package avatar_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/skillhub/backend/internal/domain/model"
	pgrepo "github.com/skillhub/backend/internal/repo/postgres"
	avatarsvc "github.com/skillhub/backend/internal/services/avatar"
)

func TestUploadValidatesTypeAndSize(t *testing.T) {
	users, storage := newAvatarFakes()
	svc := avatarsvc.NewService(users, storage, 1024, nil)
	ctx := context.Background()

	users.seed(model.User{Name: "Alice"})

	body := bytes.NewReader([]byte("img"))
	if _, err := svc.Upload(ctx, 1, "text/plain", body, 3); !errors.Is(err, avatarsvc.ErrValidation) {
		t.Fatalf("bad content type should fail, got %v", err)
	}
	if _, err := svc.Upload(ctx, 1, "image/png", body, 4096); !errors.Is(err, avatarsvc.ErrValidation) {
		t.Fatalf("oversized body should fail, got %v", err)
	}
	if _, err := svc.Upload(ctx, 999, "image/png", body, 3); !errors.Is(err, avatarsvc.ErrNotFound) {
		t.Fatalf("missing user should fail, got %v", err)
	}
}

func TestUploadReplacesPreviousObject(t *testing.T) {
	users, storage := newAvatarFakes()
	svc := avatarsvc.NewService(users, storage, 0, nil)
	ctx := context.Background()

	users.seed(model.User{Name: "Alice"})

	first, err := svc.Upload(ctx, 1, "image/png", strings.NewReader("one"), 3)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if first == "" {
		t.Fatalf("expected presigned url")
	}
	firstKey := users.users[1].AvatarKey
	if firstKey == "" || !strings.HasPrefix(firstKey, "avatars/") || !strings.HasSuffix(firstKey, ".png") {
		t.Fatalf("unexpected avatar key %q", firstKey)
	}

	if _, err := svc.Upload(ctx, 1, "image/jpeg", strings.NewReader("two"), 3); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if _, ok := storage.objects[firstKey]; ok {
		t.Fatalf("previous object should be deleted")
	}
	secondKey := users.users[1].AvatarKey
	if secondKey == firstKey || !strings.HasSuffix(secondKey, ".jpg") {
		t.Fatalf("avatar key not replaced: %q", secondKey)
	}
}

func TestURLAndRemove(t *testing.T) {
	users, storage := newAvatarFakes()
	svc := avatarsvc.NewService(users, storage, 0, nil)
	ctx := context.Background()

	users.seed(model.User{Name: "Alice"})

	if _, err := svc.URL(ctx, 1); !errors.Is(err, avatarsvc.ErrNoAvatar) {
		t.Fatalf("missing avatar should fail, got %v", err)
	}

	if _, err := svc.Upload(ctx, 1, "image/png", strings.NewReader("img"), 3); err != nil {
		t.Fatalf("upload: %v", err)
	}
	url, err := svc.URL(ctx, 1)
	if err != nil || url == "" {
		t.Fatalf("url: %q err=%v", url, err)
	}

	if err := svc.Remove(ctx, 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if users.users[1].AvatarKey != "" {
		t.Fatalf("avatar key not cleared")
	}
	if len(storage.objects) != 0 {
		t.Fatalf("avatar object not deleted")
	}
}

func newAvatarFakes() (*fakeAvatarUsers, *fakeObjectStorage) {
	return &fakeAvatarUsers{users: map[int64]model.User{}},
		&fakeObjectStorage{objects: map[string][]byte{}}
}

type fakeAvatarUsers struct {
	users  map[int64]model.User
	nextID int64
}

func (f *fakeAvatarUsers) seed(user model.User) model.User {
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return user
}

func (f *fakeAvatarUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeAvatarUsers) SetAvatarKey(_ context.Context, id int64, key string) error {
	user, ok := f.users[id]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	user.AvatarKey = key
	f.users[id] = user
	return nil
}

type fakeObjectStorage struct {
	objects map[string][]byte
}

func (f *fakeObjectStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeObjectStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	payload, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = payload
	return nil
}

func (f *fakeObjectStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := f.objects[key]; !ok {
		return "", errors.New("object missing")
	}
	return "https://s3.local/" + key, nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}
