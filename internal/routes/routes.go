package routes

import (
	"net/http"

	"github.com/BradenHooton/drivewatch/internal/auth"
	"github.com/BradenHooton/drivewatch/internal/handlers"
	"github.com/BradenHooton/drivewatch/internal/middleware"
	"github.com/BradenHooton/drivewatch/internal/models"
	pkghttp "github.com/BradenHooton/drivewatch/pkg/http"
	"github.com/go-chi/chi/v5"
)

// RateLimits are the per-IP limits applied to the public screen routes
type RateLimits struct {
	OpenScreen middleware.RateLimitConfig
	Login      middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	screenHandler *handlers.ScreenHandler,
	sessions auth.SessionValidator,
	health handlers.HealthChecker,
	limits RateLimits,
	ipConfig *pkghttp.IPConfig,
) {
	router.Get("/health", handlers.Health(health))

	// Public routes - the login screen itself
	router.Route("/screens", func(r chi.Router) {
		r.With(middleware.RateLimitByIP(limits.OpenScreen, ipConfig)).Post("/", screenHandler.Open)

		r.With(
			auth.AuthMiddleware(sessions),
			auth.RequireRole(models.RoleCompany, models.RoleAdmin),
		).Get("/stats", screenHandler.Stats)

		r.Route("/{id}", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(limits.Login, ipConfig)).Post("/login", screenHandler.Login)
			r.Post("/blur", screenHandler.Blur)
			r.Get("/message", screenHandler.State)
			r.Delete("/notice", screenHandler.DismissNotice)
			r.Delete("/", screenHandler.Close)
		})
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(sessions))
		r.Get("/session", http.HandlerFunc(handlers.GetSession))
	})
}
