package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillhub/backend/internal/domain/model"
	pgrepo "github.com/skillhub/backend/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
	ErrNoAvatar   = errors.New("no avatar uploaded")
)

const (
	signedURLTTL    = 5 * time.Minute
	defaultMaxBytes = 5 << 20
)

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
	SetAvatarKey(ctx context.Context, id int64, key string) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	users    UserStore
	storage  ObjectStorage
	maxBytes int64
	log      *zap.Logger
}

func NewService(users UserStore, storage ObjectStorage, maxBytes int64, log *zap.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		users:    users,
		storage:  storage,
		maxBytes: maxBytes,
		log:      log,
	}
}

// Upload stores a new avatar and returns a presigned URL for it. A
// previous avatar object is removed after the key switch.
func (s *Service) Upload(ctx context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error) {
	if userID <= 0 || body == nil || size <= 0 {
		return "", ErrValidation
	}
	if s.users == nil || s.storage == nil {
		return "", fmt.Errorf("avatar dependencies are not configured")
	}
	if size > s.maxBytes {
		return "", fmt.Errorf("avatar exceeds %d bytes: %w", s.maxBytes, ErrValidation)
	}

	ext, ok := extByContentType[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q: %w", contentType, ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := "avatars/" + uuid.NewString() + ext
	if err := s.storage.Put(ctx, key, body, size, contentType); err != nil {
		return "", fmt.Errorf("put avatar: %w", err)
	}

	if err := s.users.SetAvatarKey(ctx, userID, key); err != nil {
		_ = s.storage.Delete(ctx, key)
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("set avatar key: %w", err)
	}

	if user.AvatarKey != "" && user.AvatarKey != key {
		if err := s.storage.Delete(ctx, user.AvatarKey); err != nil {
			s.log.Warn("delete previous avatar", zap.String("key", user.AvatarKey), zap.Error(err))
		}
	}

	url, err := s.storage.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign avatar url: %w", err)
	}

	return url, nil
}

// URL returns a short-lived presigned URL for the user's avatar.
func (s *Service) URL(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", ErrValidation
	}
	if s.users == nil || s.storage == nil {
		return "", fmt.Errorf("avatar dependencies are not configured")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load user: %w", err)
	}
	if user.AvatarKey == "" {
		return "", ErrNoAvatar
	}

	url, err := s.storage.PresignGet(ctx, user.AvatarKey, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign avatar url: %w", err)
	}

	return url, nil
}

func (s *Service) Remove(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrValidation
	}
	if s.users == nil || s.storage == nil {
		return fmt.Errorf("avatar dependencies are not configured")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if user.AvatarKey == "" {
		return nil
	}

	if err := s.users.SetAvatarKey(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear avatar key: %w", err)
	}
	if err := s.storage.Delete(ctx, user.AvatarKey); err != nil {
		s.log.Warn("delete avatar object", zap.String("key", user.AvatarKey), zap.Error(err))
	}

	return nil
}
