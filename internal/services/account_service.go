package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/internal/validation"
	"github.com/BradenHooton/drivewatch/pkg/auth"
	pkglogger "github.com/BradenHooton/drivewatch/pkg/logger"
)

// AccountStore defines the account data access used for provisioning
type AccountStore interface {
	GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error)
	Create(ctx context.Context, role models.Role, account *models.Account) error
}

// ProvisionRequest describes a new account.
type ProvisionRequest struct {
	Role      models.Role
	Name      string
	Email     string
	Password  string
	CompanyID *string
}

// AccountService provisions accounts in the three partitions
type AccountService struct {
	repo        AccountStore
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo AccountStore, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AccountService {
	return &AccountService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Provision validates the request, hashes the password and stores the account.
// The email is stored in the same normalized form that login uses.
func (s *AccountService) Provision(ctx context.Context, req ProvisionRequest) (*models.Account, error) {
	if _, err := models.ParseRole(string(req.Role)); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}

	email := strings.ToLower(validation.Sanitize(req.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}

	name := validation.Sanitize(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrBadRequest)
	}

	// login compares the sanitized password, so that is the form we store
	password := validation.Sanitize(req.Password)
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}
	if err := auth.CheckPasswordStrength(password); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrBadRequest, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", pkglogger.Err(err))
		return nil, models.ErrInternalServer
	}

	account := &models.Account{
		Name:         name,
		Email:        email,
		CompanyID:    req.CompanyID,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, req.Role, account); err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrBadRequest) {
			return nil, err
		}
		s.logger.Error("failed to create account",
			slog.String("role", string(req.Role)),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			pkglogger.Err(err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_created", account.ID, string(req.Role))
	return account, nil
}

// EnsureAccount provisions the account unless one already exists with that
// email in the requested partition.
func (s *AccountService) EnsureAccount(ctx context.Context, req ProvisionRequest) (*models.Account, bool, error) {
	email := strings.ToLower(validation.Sanitize(req.Email))

	existing, err := s.repo.GetByEmail(ctx, req.Role, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check existing account: %w", err)
	}

	account, err := s.Provision(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}
