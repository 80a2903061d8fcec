package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/BradenHooton/drivewatch/internal/handlers"
	"github.com/BradenHooton/drivewatch/internal/loginscreen"
	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/internal/services"
	"github.com/BradenHooton/drivewatch/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driverVerifier() *services.MockAccountVerifier {
	companyID := "company-1"
	return &services.MockAccountVerifier{
		VerifyDriverLoginFunc: func(ctx context.Context, email, password string) (*models.Account, error) {
			if email == "dana@fleet.com" && password == "Correct1" {
				return &models.Account{ID: "driver-1", Name: "Dana", Email: email, CompanyID: &companyID}, nil
			}
			return nil, nil
		},
	}
}

func TestScreenHandler_Open(t *testing.T) {
	s := newTestServer(t, driverVerifier())

	rec := s.do(NewTestRequest(t, http.MethodPost, "/screens", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp handlers.OpenScreenResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.ScreenID)
	require.NotNil(t, resp.Status)
	assert.False(t, resp.Status.Locked)
	assert.Equal(t, 5, resp.Status.RemainingAttempts)
	assert.Nil(t, resp.Redirect)
	assert.Equal(t, 1, s.registry.Len())
}

func TestScreenHandler_OpenLimit(t *testing.T) {
	s := newTestServerWithConfig(t, driverVerifier(), loginscreen.Config{MaxOpen: 1})
	s.openScreen(t)

	rec := s.do(NewTestRequest(t, http.MethodPost, "/screens", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, s.registry.Len())
}

func TestScreenHandler_LoginSuccess(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	rec := s.login(t, id, "  Dana@Fleet.com ", "Correct1")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp handlers.LoginResponse
	decode(t, rec, &resp)
	assert.Equal(t, models.ScreenTripInit, resp.Screen)
	assert.Equal(t, models.RoleDriver, resp.Session.Role)
	assert.Equal(t, "company-1", *resp.Session.CompanyID)
	assert.NotEmpty(t, resp.Token)

	claims, err := s.tokens.ValidateSessionToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "driver-1", claims.Subject)
}

func TestScreenHandler_LoginInvalidInput(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	rec := s.login(t, id, "not-an-email", "x")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp handlers.LoginErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "invalid_input", resp.Error)
	assert.Equal(t, validation.FieldEmail, resp.Field)
	assert.Equal(t, validation.ReasonInvalidFormat, resp.Reason)
	assert.Equal(t, 0, s.verifier.CallCount())
}

func TestScreenHandler_LoginCountdownAndLockout(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	for want := 4; want >= 1; want-- {
		rec := s.login(t, id, "dana@fleet.com", "wrong")
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp handlers.LoginErrorResponse
		decode(t, rec, &resp)
		assert.Equal(t, "invalid_credentials", resp.Error)
		require.NotNil(t, resp.RemainingAttempts)
		assert.Equal(t, want, *resp.RemainingAttempts)
		if want <= 2 {
			assert.NotEmpty(t, resp.Warning)
		} else {
			assert.Empty(t, resp.Warning)
		}
	}

	rec := s.login(t, id, "dana@fleet.com", "wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var fifth handlers.LoginErrorResponse
	decode(t, rec, &fifth)
	assert.Equal(t, 0, *fifth.RemainingAttempts)
	assert.Equal(t, 30, fifth.LockoutSeconds)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	calls := s.verifier.CallCount()
	rec = s.login(t, id, "dana@fleet.com", "Correct1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var locked handlers.LoginErrorResponse
	decode(t, rec, &locked)
	assert.Equal(t, "locked_out", locked.Error)
	assert.Equal(t, 30, locked.RemainingSeconds)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, calls, s.verifier.CallCount(), "locked screen must not consult accounts")

	other := s.openScreen(t)
	assert.Equal(t, http.StatusOK, s.login(t, other, "dana@fleet.com", "Correct1").Code)
}

func TestScreenHandler_LoginVerificationFailure(t *testing.T) {
	s := newTestServer(t, &services.MockAccountVerifier{
		VerifyCompanyLoginFunc: func(ctx context.Context, email, password string) (*models.Account, error) {
			return nil, errors.New("connection refused")
		},
	})
	id := s.openScreen(t)

	rec := s.login(t, id, "dana@fleet.com", "whatever")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp handlers.LoginErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "verification_failure", resp.Error)
	assert.NotContains(t, resp.Message, "connection refused")
}

func TestScreenHandler_LoginBadBody(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	req := NewTestRequest(t, http.MethodPost, "/screens/"+id+"/login", nil)
	req.Body = http.NoBody
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)

}

func TestScreenHandler_LoginOversizedField(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"email", strings.Repeat("a", 2000), "x", validation.FieldEmail},
		{"password", "dana@fleet.com", strings.Repeat("p", 2000), validation.FieldPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.login(t, id, tt.email, tt.password)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp handlers.LoginErrorResponse
			decode(t, rec, &resp)
			assert.Equal(t, "invalid_input", resp.Error)
			assert.Equal(t, tt.field, resp.Field)
			assert.Equal(t, validation.ReasonTooLong, resp.Reason)
			assert.NotEmpty(t, resp.Message)
		})
	}
	assert.Equal(t, 0, s.verifier.CallCount())
}

func TestScreenHandler_UnknownScreen(t *testing.T) {
	s := newTestServer(t, driverVerifier())

	assert.Equal(t, http.StatusNotFound, s.login(t, "missing", "a@b.com", "x").Code)
	assert.Equal(t, http.StatusNotFound, s.do(NewTestRequest(t, http.MethodGet, "/screens/missing/message", nil)).Code)
	assert.Equal(t, http.StatusNotFound, s.do(NewTestRequest(t, http.MethodDelete, "/screens/missing", nil)).Code)
}

func TestScreenHandler_Blur(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	rec := s.do(NewTestRequest(t, http.MethodPost, "/screens/"+id+"/blur",
		handlers.BlurRequest{Field: "email", Text: "bad@"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.BlurResponse
	decode(t, rec, &resp)
	assert.False(t, resp.Valid)
	assert.Equal(t, validation.ReasonInvalidFormat, resp.Reason)

	rec = s.do(NewTestRequest(t, http.MethodPost, "/screens/"+id+"/blur",
		handlers.BlurRequest{Field: "password", Text: "fine"}))
	decode(t, rec, &resp)
	assert.True(t, resp.Valid)

	rec = s.do(NewTestRequest(t, http.MethodPost, "/screens/"+id+"/blur",
		handlers.BlurRequest{Field: "username", Text: "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScreenHandler_StateAndNotice(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	for i := 0; i < 5; i++ {
		s.login(t, id, "dana@fleet.com", "wrong")
	}

	rec := s.do(NewTestRequest(t, http.MethodGet, "/screens/"+id+"/message", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var state handlers.ScreenStateResponse
	decode(t, rec, &state)
	assert.True(t, state.Status.Locked)
	require.NotNil(t, state.Notice)
	assert.Equal(t, services.NoticeTitleLocked, state.Notice.Title)
	assert.NotEmpty(t, state.Message)

	rec = s.do(NewTestRequest(t, http.MethodDelete, "/screens/"+id+"/notice", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(NewTestRequest(t, http.MethodGet, "/screens/"+id+"/message", nil))
	state = handlers.ScreenStateResponse{}
	decode(t, rec, &state)
	assert.Nil(t, state.Notice)
}

func TestScreenHandler_Close(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)

	rec := s.do(NewTestRequest(t, http.MethodDelete, "/screens/"+id, nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, s.registry.Len())
}

func TestScreenHandler_OpenRedirectsSignedInClient(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)
	var login handlers.LoginResponse
	decode(t, s.login(t, id, "dana@fleet.com", "Correct1"), &login)

	req := NewTestRequest(t, http.MethodPost, "/screens", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.OpenScreenResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.Redirect)
	assert.Equal(t, models.ScreenTripInit, resp.Redirect.Screen)
	assert.Equal(t, "driver-1", resp.Redirect.Session.ID)
	assert.Empty(t, resp.ScreenID)
	assert.Equal(t, 1, s.registry.Len())
}

func TestScreenHandler_OpenIgnoresInvalidToken(t *testing.T) {
	s := newTestServer(t, driverVerifier())

	req := NewTestRequest(t, http.MethodPost, "/screens", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := s.do(req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetSession(t *testing.T) {
	s := newTestServer(t, driverVerifier())
	id := s.openScreen(t)
	var login handlers.LoginResponse
	decode(t, s.login(t, id, "dana@fleet.com", "Correct1"), &login)

	req := NewTestRequest(t, http.MethodGet, "/session", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.SessionResponse
	decode(t, rec, &resp)
	assert.Equal(t, models.ScreenTripInit, resp.Screen)
	assert.Equal(t, "dana@fleet.com", resp.Session.Email)

	rec = s.do(NewTestRequest(t, http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	rec := httptestDo(handlers.Health(fakeHealth{}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptestDo(handlers.Health(fakeHealth{err: errors.New("down")}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

