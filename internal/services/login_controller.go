package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/drivewatch/internal/lockout"
	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/internal/validation"
	pkglogger "github.com/BradenHooton/drivewatch/pkg/logger"
)

// AccountVerifier checks credentials against the three account partitions.
// Each method receives a sanitized, lowercased email. A nil account with a nil
// error means "no match in this partition"; an error means the check itself failed.
type AccountVerifier interface {
	VerifyCompanyLogin(ctx context.Context, email, password string) (*models.Account, error)
	VerifyAdminLogin(ctx context.Context, email, password string) (*models.Account, error)
	VerifyDriverLogin(ctx context.Context, email, password string) (*models.Account, error)
}

// SessionSink receives the authenticated session and routes it to its screen.
type SessionSink interface {
	Enter(ctx context.Context, session models.Session) (*models.Navigation, error)
}

// Presenter displays feedback on the login screen.
type Presenter interface {
	ShowMessage(message string)
	ShowNotice(notice Notice)
	ClearMessage()
}

// AttemptRecorder persists login attempt audit records
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
}

// LockoutNotifier is told when a failure engages the lock for an email.
type LockoutNotifier interface {
	NotifyLockout(ctx context.Context, email string, lockout time.Duration) error
}

// Notice is a modal message that stays until the user dismisses it.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

const (
	NoticeTitleLocked  = "Account Locked"
	NoticeTitleWarning = "Warning"
	NoticeTitleError   = "Error"
)

// LoginDeps are the collaborators shared by every login screen.
type LoginDeps struct {
	Verifier         AccountVerifier
	Sink             SessionSink
	Recorder         AttemptRecorder // optional
	Notifier         LockoutNotifier // optional
	Logger           *slog.Logger
	AuditLogger      *pkglogger.AuditLogger
	AttemptRetention time.Duration
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Session    models.Session
	Navigation *models.Navigation
}

// LoginController runs the login flow of one screen. It owns the screen's
// lockout tracker and is not safe for concurrent use.
type LoginController struct {
	deps      LoginDeps
	screenID  string
	tracker   *lockout.Tracker
	presenter Presenter
}

// NewLoginController creates the controller for a single screen.
func NewLoginController(screenID string, deps LoginDeps, tracker *lockout.Tracker, presenter Presenter) *LoginController {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.AuditLogger == nil {
		deps.AuditLogger = pkglogger.NewAuditLogger(deps.Logger)
	}
	if presenter == nil {
		presenter = nopPresenter{}
	}
	return &LoginController{
		deps:      deps,
		screenID:  screenID,
		tracker:   tracker,
		presenter: presenter,
	}
}

// Login authenticates raw user input.
//
// Errors are one of *LockedOutError, *InvalidInputError,
// *InvalidCredentialsError or ErrVerificationFailure (checked with errors.Is).
func (c *LoginController) Login(ctx context.Context, rawEmail, rawPassword string) (*LoginResult, error) {
	client := ClientFrom(ctx)

	if locked, remaining := c.tracker.IsLocked(); locked {
		err := &LockedOutError{RemainingSeconds: remaining}
		c.presenter.ShowMessage(err.Message())
		c.presenter.ShowNotice(Notice{Title: NoticeTitleLocked, Message: err.Message()})
		c.deps.AuditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			ScreenID:      c.screenID,
			IPAddress:     client.IPAddress,
			FailureReason: "locked_out",
		})
		return nil, err
	}

	creds, err := validation.SanitizeCredentials(rawEmail, rawPassword)
	if err != nil {
		var fe *validation.FieldError
		if !errors.As(err, &fe) {
			c.deps.Logger.Error("credential validation failed", pkglogger.Err(err))
			return nil, c.verificationFailure(err)
		}
		c.presenter.ShowMessage(fe.Message())
		c.deps.Logger.Debug("login rejected: invalid input",
			slog.String("screen_id", c.screenID),
			slog.String("field", fe.Field),
			slog.String("reason", string(fe.Reason)))
		return nil, newInvalidInputError(fe)
	}

	role, account, err := c.attemptLogin(ctx, creds)
	if err != nil {
		c.deps.Logger.Error("account verification error",
			slog.String("screen_id", c.screenID),
			slog.String("email", pkglogger.SanitizedEmail(creds.Email)),
			pkglogger.Err(err))
		c.deps.AuditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_error",
			ScreenID:      c.screenID,
			Email:         creds.Email,
			IPAddress:     client.IPAddress,
			FailureReason: "verification_error",
		})
		return nil, c.verificationFailure(err)
	}

	if account == nil {
		return nil, c.handleFailedLogin(ctx, creds.Email)
	}

	return c.handleSuccessfulLogin(ctx, role, account)
}

// attemptLogin tries each partition in precedence order: company, admin, driver.
// The first match wins and later partitions are not consulted.
func (c *LoginController) attemptLogin(ctx context.Context, creds validation.Credentials) (models.Role, *models.Account, error) {
	partitions := []struct {
		role   models.Role
		verify func(ctx context.Context, email, password string) (*models.Account, error)
	}{
		{models.RoleCompany, c.deps.Verifier.VerifyCompanyLogin},
		{models.RoleAdmin, c.deps.Verifier.VerifyAdminLogin},
		{models.RoleDriver, c.deps.Verifier.VerifyDriverLogin},
	}

	for _, p := range partitions {
		account, err := c.verifyPartition(ctx, p.role, p.verify, creds)
		if err != nil {
			return "", nil, err
		}
		if account != nil {
			return p.role, account, nil
		}
	}

	return "", nil, nil
}

// verifyPartition converts a panicking collaborator into an error so the
// login flow and the lockout bookkeeping survive it.
func (c *LoginController) verifyPartition(
	ctx context.Context,
	role models.Role,
	verify func(ctx context.Context, email, password string) (*models.Account, error),
	creds validation.Credentials,
) (account *models.Account, err error) {
	defer func() {
		if r := recover(); r != nil {
			account = nil
			err = fmt.Errorf("verify %s login: panic: %v", role, r)
		}
	}()

	account, err = verify(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("verify %s login: %w", role, err)
	}
	return account, nil
}

func (c *LoginController) handleSuccessfulLogin(ctx context.Context, role models.Role, account *models.Account) (*LoginResult, error) {
	client := ClientFrom(ctx)

	c.tracker.Reset()
	c.presenter.ClearMessage()

	session := models.NewSession(role, account)
	c.record(ctx, session.Email, &role, true, nil)
	c.deps.AuditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		ScreenID:  c.screenID,
		AccountID: session.ID,
		Role:      string(role),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
	})

	nav, err := c.deps.Sink.Enter(ctx, session)
	if err != nil {
		c.deps.Logger.Error("failed to enter session",
			slog.String("screen_id", c.screenID),
			slog.String("account_id", session.ID),
			slog.String("role", string(role)),
			pkglogger.Err(err))
		return nil, c.verificationFailure(err)
	}

	c.deps.Logger.Info("login succeeded",
		slog.String("screen_id", c.screenID),
		slog.String("account_id", session.ID),
		slog.String("role", string(role)),
		slog.String("screen", string(nav.Screen)))

	return &LoginResult{Session: session, Navigation: nav}, nil
}

func (c *LoginController) handleFailedLogin(ctx context.Context, email string) error {
	client := ClientFrom(ctx)

	c.tracker.RecordFailure()
	remaining := c.tracker.RemainingAttempts()

	err := &InvalidCredentialsError{RemainingAttempts: remaining}
	if remaining == 0 {
		err.LockoutSeconds = int(c.tracker.Policy().Duration / time.Second)
	}

	c.presenter.ShowMessage(err.Message())
	if warning, ok := err.Warning(); ok {
		c.presenter.ShowNotice(Notice{Title: NoticeTitleWarning, Message: warning})
	}
	if remaining == 0 {
		c.presenter.ShowNotice(Notice{Title: NoticeTitleLocked, Message: err.Message()})
	}

	reason := "invalid_credentials"
	c.record(ctx, email, nil, false, &reason)
	c.deps.AuditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		ScreenID:      c.screenID,
		Email:         email,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		FailureReason: reason,
		Metadata: map[string]string{
			"failed_attempts": fmt.Sprint(c.tracker.FailedAttempts()),
		},
	})

	if remaining == 0 {
		c.deps.Logger.Warn("login screen locked",
			slog.String("screen_id", c.screenID),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Duration("lockout", c.tracker.Policy().Duration))
		c.notifyLockout(ctx, email)
	}

	return err
}

func (c *LoginController) verificationFailure(cause error) error {
	c.presenter.ShowMessage(msgRetry)
	c.presenter.ShowNotice(Notice{Title: NoticeTitleError, Message: msgRetry})
	return fmt.Errorf("%w: %w", ErrVerificationFailure, cause)
}

func (c *LoginController) record(ctx context.Context, email string, role *models.Role, success bool, reason *string) {
	if c.deps.Recorder == nil {
		return
	}

	client := ClientFrom(ctx)
	now := c.tracker.Now()
	attempt := &models.LoginAttempt{
		Email:         email,
		Role:          role,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		AttemptTime:   now,
		Success:       success,
		FailureReason: reason,
		ExpiresAt:     now.Add(c.deps.AttemptRetention),
	}

	if err := c.deps.Recorder.RecordAttempt(ctx, attempt); err != nil {
		c.deps.Logger.Error("failed to record login attempt",
			slog.String("screen_id", c.screenID),
			pkglogger.Err(err))
	}
}

func (c *LoginController) notifyLockout(ctx context.Context, email string) {
	if c.deps.Notifier == nil {
		return
	}
	if err := c.deps.Notifier.NotifyLockout(ctx, email, c.tracker.Policy().Duration); err != nil {
		c.deps.Logger.Error("failed to send lockout notification",
			slog.String("screen_id", c.screenID),
			pkglogger.Err(err))
	}
}

// OnEmailBlur validates the email field when it loses focus. Empty input is ignored.
func (c *LoginController) OnEmailBlur(text string) error {
	email := validation.Sanitize(text)
	if email == "" {
		return nil
	}
	if err := validation.ValidateEmail(email); err != nil {
		c.presenter.ShowMessage(UserMessage(err))
		return err
	}
	c.presenter.ClearMessage()
	return nil
}

// OnPasswordBlur validates the password field when it loses focus. Empty input is ignored.
func (c *LoginController) OnPasswordBlur(text string) error {
	password := validation.Sanitize(text)
	if password == "" {
		return nil
	}
	if err := validation.ValidatePassword(password); err != nil {
		c.presenter.ShowMessage(UserMessage(err))
		return err
	}
	return nil
}

// LockStatus reports the current lock state without attempting a login.
func (c *LoginController) LockStatus() (locked bool, remainingSeconds int, remainingAttempts int) {
	locked, remainingSeconds = c.tracker.IsLocked()
	return locked, remainingSeconds, c.tracker.RemainingAttempts()
}

type nopPresenter struct{}

func (nopPresenter) ShowMessage(string) {}
func (nopPresenter) ShowNotice(Notice)  {}
func (nopPresenter) ClearMessage()      {}
