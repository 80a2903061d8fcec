package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/drivewatch/internal/auth"
	"github.com/BradenHooton/drivewatch/internal/models"
	pkghttp "github.com/BradenHooton/drivewatch/pkg/http"
)

// SessionResponse is the authenticated session and the screen it lands on
type SessionResponse struct {
	Session models.Session `json:"session"`
	Screen  models.Screen  `json:"screen"`
}

// GetSession returns the session carried by the bearer token
// @Summary Current session
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /session [get]
func GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	screen, err := models.ScreenForRole(session.Role)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{Session: session, Screen: screen})
}

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Health reports service and database health
// @Summary Health check
// @Produce json
// @Success 200
// @Failure 503
// @Router /health [get]
func Health(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}
