package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/drivewatch/internal/models"
)

// SessionTokens issues and validates signed session tokens.
type SessionTokens interface {
	GenerateSessionToken(session models.Session) (string, time.Time, error)
	ValidateSessionToken(token string) (*models.SessionClaims, error)
}

// NavigationService is the session sink: it routes an authenticated session to
// its role's screen and hands the client a token carrying the session context.
type NavigationService struct {
	tokens SessionTokens
	logger *slog.Logger
}

// NewNavigationService creates a new NavigationService
func NewNavigationService(tokens SessionTokens, logger *slog.Logger) *NavigationService {
	return &NavigationService{
		tokens: tokens,
		logger: logger,
	}
}

// Enter issues the session token and picks the landing screen.
func (s *NavigationService) Enter(ctx context.Context, session models.Session) (*models.Navigation, error) {
	screen, err := models.ScreenForRole(session.Role)
	if err != nil {
		return nil, fmt.Errorf("route session: %w", err)
	}

	token, expiresAt, err := s.tokens.GenerateSessionToken(session)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.logger.Info("session started",
		slog.String("account_id", session.ID),
		slog.String("role", string(session.Role)),
		slog.String("screen", string(screen)))

	return &models.Navigation{
		Screen:    screen,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Resume validates an existing session token and returns the session with its
// landing screen, so an already authenticated client skips the login form.
func (s *NavigationService) Resume(ctx context.Context, token string) (*models.Session, models.Screen, error) {
	claims, err := s.tokens.ValidateSessionToken(token)
	if err != nil {
		return nil, "", models.ErrInvalidSession
	}

	session := claims.Session()
	screen, err := models.ScreenForRole(session.Role)
	if err != nil {
		return nil, "", models.ErrInvalidSession
	}

	return &session, screen, nil
}
