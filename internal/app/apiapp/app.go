package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skillhub/backend/internal/config"
	s3infra "github.com/skillhub/backend/internal/infra/s3"
	pgrepo "github.com/skillhub/backend/internal/repo/postgres"
	redrepo "github.com/skillhub/backend/internal/repo/redis"
	adminsvc "github.com/skillhub/backend/internal/services/admin"
	authsvc "github.com/skillhub/backend/internal/services/auth"
	avatarsvc "github.com/skillhub/backend/internal/services/avatar"
	dirsvc "github.com/skillhub/backend/internal/services/directory"
	ratesvc "github.com/skillhub/backend/internal/services/rate"
	swapsvc "github.com/skillhub/backend/internal/services/swaps"
	"github.com/skillhub/backend/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)

	userRepo := pgrepo.NewUserRepo(pool)
	swapRepo := pgrepo.NewSwapRepo(pool)
	txManager := pgrepo.NewTxManager(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, cfg.Auth.RefreshTTL)

	directoryService := dirsvc.NewService(dirsvc.Dependencies{
		Store:         userRepo,
		Cache:         cacheRepo,
		Log:           log,
		StatsCacheTTL: cfg.Limits.StatsCacheTTL,
		TopSkills:     cfg.Limits.PopularSkillsTop,
	})
	swapService := swapsvc.NewService(swapsvc.Dependencies{
		Store:     swapRepo,
		Directory: userRepo,
		Tx:        txManager,
		Log:       log,
	})
	adminService := adminsvc.NewService(adminsvc.Dependencies{
		Users: userRepo,
		Swaps: swapRepo,
		Tx:    txManager,
		Log:   log,
	})

	loginLimiter := ratesvc.NewLimiter(rateRepo, "login", cfg.Limits.LoginPerMinute, time.Minute)
	swapLimiter := ratesvc.NewLimiter(rateRepo, "swap_create", cfg.Limits.SwapsPerHour, time.Hour)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	avatarStorage := avatarsvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	avatarService := avatarsvc.NewService(userRepo, avatarStorage, cfg.Limits.AvatarMaxBytes, log)

	RegisterRoutes(r, Dependencies{
		AuthService:      authService,
		DirectoryService: directoryService,
		SwapService:      swapService,
		AdminService:     adminService,
		AvatarService:    avatarService,
		LoginLimiter:     loginLimiter,
		SwapLimiter:      swapLimiter,
		PageLimits: handlers.PageLimits{
			Default: cfg.Limits.DefaultPageSize,
			Max:     cfg.Limits.MaxPageSize,
		},
		Logger: log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
