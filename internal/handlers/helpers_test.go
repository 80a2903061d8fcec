package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/drivewatch/internal/auth"
	"github.com/BradenHooton/drivewatch/internal/handlers"
	"github.com/BradenHooton/drivewatch/internal/lockout"
	"github.com/BradenHooton/drivewatch/internal/loginscreen"
	"github.com/BradenHooton/drivewatch/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
)

const testSecret = "handler-test-secret-0123456789abcdef"

type testServer struct {
	router   chi.Router
	registry *loginscreen.Registry
	tokens   *auth.TokenManager
	verifier *services.MockAccountVerifier
	clock    clockwork.Clock
}

// newTestServer wires the real registry, controller and navigation service
// around a mock account verifier.
func newTestServer(t *testing.T, verifier *services.MockAccountVerifier) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, verifier, loginscreen.Config{MessageClearDelay: 5 * time.Second})
}

func newTestServerWithConfig(t *testing.T, verifier *services.MockAccountVerifier, config loginscreen.Config) *testServer {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	clock := clockwork.NewFakeClock()

	tokens := auth.NewTokenManager(testSecret, time.Hour, clock)
	navigation := services.NewNavigationService(tokens, logger)

	deps := services.LoginDeps{
		Verifier: verifier,
		Sink:     navigation,
		Logger:   logger,
	}
	registry := loginscreen.NewRegistry(func(screenID string, presenter services.Presenter) *services.LoginController {
		return services.NewLoginController(screenID, deps, lockout.NewTracker(lockout.DefaultPolicy(), clock), presenter)
	}, config, clock, logger)

	h := handlers.NewScreenHandler(registry, navigation, nil, nil, logger)

	r := chi.NewRouter()
	r.Post("/screens", h.Open)
	r.Post("/screens/{id}/login", h.Login)
	r.Post("/screens/{id}/blur", h.Blur)
	r.Get("/screens/{id}/message", h.State)
	r.Delete("/screens/{id}/notice", h.DismissNotice)
	r.Delete("/screens/{id}", h.Close)
	r.With(auth.AuthMiddleware(tokens)).Get("/session", handlers.GetSession)

	return &testServer{router: r, registry: registry, tokens: tokens, verifier: verifier, clock: clock}
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.20:5555"
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) openScreen(t *testing.T) string {
	t.Helper()
	rec := s.do(NewTestRequest(t, http.MethodPost, "/screens", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("open screen: got %d: %s", rec.Code, rec.Body.String())
	}
	var resp handlers.OpenScreenResponse
	decode(t, rec, &resp)
	return resp.ScreenID
}

func (s *testServer) login(t *testing.T, screenID, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(NewTestRequest(t, http.MethodPost, "/screens/"+screenID+"/login",
		handlers.LoginRequest{Email: email, Password: password}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func httptestDo(h http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}
