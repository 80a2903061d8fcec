package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// MockAccountVerifier implements AccountVerifier for testing
type MockAccountVerifier struct {
	VerifyCompanyLoginFunc func(ctx context.Context, email, password string) (*models.Account, error)
	VerifyAdminLoginFunc   func(ctx context.Context, email, password string) (*models.Account, error)
	VerifyDriverLoginFunc  func(ctx context.Context, email, password string) (*models.Account, error)

	mu    sync.Mutex
	Calls []models.Role
}

func (m *MockAccountVerifier) called(role models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, role)
}

// CallCount returns how many partition lookups were made
func (m *MockAccountVerifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockAccountVerifier) VerifyCompanyLogin(ctx context.Context, email, password string) (*models.Account, error) {
	m.called(models.RoleCompany)
	if m.VerifyCompanyLoginFunc != nil {
		return m.VerifyCompanyLoginFunc(ctx, email, password)
	}
	return nil, nil
}

func (m *MockAccountVerifier) VerifyAdminLogin(ctx context.Context, email, password string) (*models.Account, error) {
	m.called(models.RoleAdmin)
	if m.VerifyAdminLoginFunc != nil {
		return m.VerifyAdminLoginFunc(ctx, email, password)
	}
	return nil, nil
}

func (m *MockAccountVerifier) VerifyDriverLogin(ctx context.Context, email, password string) (*models.Account, error) {
	m.called(models.RoleDriver)
	if m.VerifyDriverLoginFunc != nil {
		return m.VerifyDriverLoginFunc(ctx, email, password)
	}
	return nil, nil
}

// MockSessionSink implements SessionSink for testing
type MockSessionSink struct {
	EnterFunc func(ctx context.Context, session models.Session) (*models.Navigation, error)
	Sessions  []models.Session
}

func (m *MockSessionSink) Enter(ctx context.Context, session models.Session) (*models.Navigation, error) {
	m.Sessions = append(m.Sessions, session)
	if m.EnterFunc != nil {
		return m.EnterFunc(ctx, session)
	}
	screen, err := models.ScreenForRole(session.Role)
	if err != nil {
		return nil, err
	}
	return &models.Navigation{Screen: screen, Token: "token_" + session.ID}, nil
}

// RecordingPresenter implements Presenter and keeps everything it was asked to show
type RecordingPresenter struct {
	Message  string
	Messages []string
	Notices  []Notice
	Cleared  int
}

func (p *RecordingPresenter) ShowMessage(message string) {
	p.Message = message
	p.Messages = append(p.Messages, message)
}

func (p *RecordingPresenter) ShowNotice(notice Notice) {
	p.Notices = append(p.Notices, notice)
}

func (p *RecordingPresenter) ClearMessage() {
	p.Message = ""
	p.Cleared++
}

// MockAttemptRecorder implements AttemptRecorder for testing
type MockAttemptRecorder struct {
	RecordAttemptFunc func(ctx context.Context, attempt *models.LoginAttempt) error
	Attempts          []*models.LoginAttempt
}

func (m *MockAttemptRecorder) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	m.Attempts = append(m.Attempts, attempt)
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, attempt)
	}
	return nil
}

// MockLockoutNotifier implements LockoutNotifier for testing
type MockLockoutNotifier struct {
	NotifyLockoutFunc func(ctx context.Context, email string, lockout time.Duration) error
	Emails            []string
}

func (m *MockLockoutNotifier) NotifyLockout(ctx context.Context, email string, lockout time.Duration) error {
	m.Emails = append(m.Emails, email)
	if m.NotifyLockoutFunc != nil {
		return m.NotifyLockoutFunc(ctx, email, lockout)
	}
	return nil
}

// MockSessionTokens implements SessionTokens for testing
type MockSessionTokens struct {
	GenerateSessionTokenFunc func(session models.Session) (string, time.Time, error)
	ValidateSessionTokenFunc func(token string) (*models.SessionClaims, error)
}

func (m *MockSessionTokens) GenerateSessionToken(session models.Session) (string, time.Time, error) {
	if m.GenerateSessionTokenFunc != nil {
		return m.GenerateSessionTokenFunc(session)
	}
	return "token_" + session.ID, time.Now().Add(time.Hour), nil
}

func (m *MockSessionTokens) ValidateSessionToken(token string) (*models.SessionClaims, error) {
	if m.ValidateSessionTokenFunc != nil {
		return m.ValidateSessionTokenFunc(token)
	}
	return nil, models.ErrInvalidSession
}

// MockSESClient implements SESAPI for testing
type MockSESClient struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	Inputs        []*ses.SendEmailInput
}

func (m *MockSESClient) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.Inputs = append(m.Inputs, params)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, params)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-123")}, nil
}

// MockAccountStore implements AccountStore for testing
type MockAccountStore struct {
	GetByEmailFunc func(ctx context.Context, role models.Role, email string) (*models.Account, error)
	CreateFunc     func(ctx context.Context, role models.Role, account *models.Account) error
	Created        []*models.Account
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, role, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) Create(ctx context.Context, role models.Role, account *models.Account) error {
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, role, account); err != nil {
			return err
		}
	}
	if account.ID == "" {
		account.ID = "acct-" + account.Email
	}
	m.Created = append(m.Created, account)
	return nil
}
