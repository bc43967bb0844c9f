package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	adminsvc "github.com/skillhub/backend/internal/services/admin"
	authsvc "github.com/skillhub/backend/internal/services/auth"
	avatarsvc "github.com/skillhub/backend/internal/services/avatar"
	dirsvc "github.com/skillhub/backend/internal/services/directory"
	ratesvc "github.com/skillhub/backend/internal/services/rate"
	swapsvc "github.com/skillhub/backend/internal/services/swaps"
	"github.com/skillhub/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService      *authsvc.Service
	DirectoryService *dirsvc.Service
	SwapService      *swapsvc.Service
	AdminService     *adminsvc.Service
	AvatarService    *avatarsvc.Service
	LoginLimiter     *ratesvc.Limiter
	SwapLimiter      *ratesvc.Limiter
	PageLimits       handlers.PageLimits
	Logger           *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.DirectoryService)
	usersHandler := handlers.NewUsersHandler(deps.DirectoryService, deps.AvatarService, deps.PageLimits)
	swapsHandler := handlers.NewSwapsHandler(deps.SwapService, deps.PageLimits)
	adminHandler := handlers.NewAdminHandler(deps.AdminService, deps.PageLimits)

	if deps.LoginLimiter != nil {
		authHandler.AttachLoginLimiter(deps.LoginLimiter)
	}
	if deps.SwapLimiter != nil {
		swapsHandler.AttachCreateLimiter(deps.SwapLimiter)
	}

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	adminMW := RequireAdmin()

	r.Get("/healthz", healthHandler.Get)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Post("/logout-all", authHandler.LogoutAll)
			r.With(authMW).Get("/me", usersHandler.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", usersHandler.Search)
			r.Get("/search", usersHandler.Search)
			r.Get("/by-skill", usersHandler.BySkill)
			r.Get("/skills/popular", usersHandler.PopularSkills)
			r.Get("/stats/platform", usersHandler.PlatformStats)
			r.Get("/me", usersHandler.Me)
			r.Put("/profile", usersHandler.UpdateProfile)
			r.Put("/skills", usersHandler.UpdateSkills)
			r.Post("/avatar", usersHandler.UploadAvatar)
			r.Delete("/avatar", usersHandler.DeleteAvatar)
			r.Get("/{id}", usersHandler.GetByID)
			r.Get("/{id}/avatar", usersHandler.GetAvatar)
		})

		r.Route("/swaps", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", swapsHandler.Create)
			r.Get("/", swapsHandler.List)
			r.Get("/stats/user", swapsHandler.Stats)
			r.Get("/{id}", swapsHandler.Get)
			r.Put("/{id}/accept", swapsHandler.Accept)
			r.Put("/{id}/reject", swapsHandler.Reject)
			r.Put("/{id}/cancel", swapsHandler.Cancel)
			r.Put("/{id}/complete", swapsHandler.Rate)
			r.Put("/{id}/report", swapsHandler.Report)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW, adminMW)
			r.Get("/stats", adminHandler.Stats)
			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}/admin", adminHandler.SetAdmin)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Get("/swaps", adminHandler.ListSwaps)
			r.Delete("/swaps/{id}", adminHandler.DeleteSwap)
			r.Post("/announcements", adminHandler.Announce)
			r.Get("/export", adminHandler.Export)
		})
	})
}
