package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/drivewatch/internal/auth"
	"github.com/BradenHooton/drivewatch/internal/loginscreen"
	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/internal/services"
	"github.com/BradenHooton/drivewatch/internal/validation"
	pkghttp "github.com/BradenHooton/drivewatch/pkg/http"
	pkglogger "github.com/BradenHooton/drivewatch/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// ScreenStore holds the open login screens
type ScreenStore interface {
	Open(client models.ClientInfo) (*loginscreen.Screen, error)
	Get(id string) (*loginscreen.Screen, error)
	Close(id string) error
	Len() int
}

// SessionResumer validates an existing session token
type SessionResumer interface {
	Resume(ctx context.Context, token string) (*models.Session, models.Screen, error)
}

// ScreenHandler serves the login screen endpoints
type ScreenHandler struct {
	screens  ScreenStore
	sessions SessionResumer
	timing   *auth.TimingDelay
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewScreenHandler creates a new ScreenHandler. timing may be nil.
func NewScreenHandler(screens ScreenStore, sessions SessionResumer, timing *auth.TimingDelay, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *ScreenHandler {
	return &ScreenHandler{
		screens:  screens,
		sessions: sessions,
		timing:   timing,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// Request/Response DTOs

// LoginRequest carries the raw field contents; sanitizing and validation happen in the controller.
type LoginRequest struct {
	Email    string `json:"email" validate:"max=1024"`
	Password string `json:"password" validate:"max=1024"`
}

// BlurRequest is sent when a field loses focus
type BlurRequest struct {
	Field string `json:"field" validate:"required,oneof=email password"`
	Text  string `json:"text" validate:"max=1024"`
}

// RedirectResponse tells an already signed-in client where to go instead
type RedirectResponse struct {
	Screen  models.Screen  `json:"screen"`
	Session models.Session `json:"session"`
}

// OpenScreenResponse is returned when a login screen is opened
type OpenScreenResponse struct {
	ScreenID string              `json:"screen_id,omitempty"`
	Status   *loginscreen.Status `json:"status,omitempty"`
	Redirect *RedirectResponse   `json:"redirect,omitempty"`
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	Session   models.Session `json:"session"`
	Screen    models.Screen  `json:"screen"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// LoginErrorResponse describes a failed login
type LoginErrorResponse struct {
	Error             string            `json:"error"`
	Message           string            `json:"message"`
	Field             string            `json:"field,omitempty"`
	Reason            validation.Reason `json:"reason,omitempty"`
	RemainingAttempts *int              `json:"remaining_attempts,omitempty"`
	RemainingSeconds  int               `json:"remaining_seconds,omitempty"`
	LockoutSeconds    int               `json:"lockout_seconds,omitempty"`
	Warning           string            `json:"warning,omitempty"`
}

// BlurResponse reports the focus-loss validation result
type BlurResponse struct {
	Valid   bool              `json:"valid"`
	Message string            `json:"message,omitempty"`
	Reason  validation.Reason `json:"reason,omitempty"`
}

// ScreenStateResponse is what the screen currently displays
type ScreenStateResponse struct {
	loginscreen.Snapshot
	Status loginscreen.Status `json:"status"`
}

func (h *ScreenHandler) clientInfo(r *http.Request) models.ClientInfo {
	return models.ClientInfo{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: pkghttp.UserAgent(r),
	}
}

func (h *ScreenHandler) screen(w http.ResponseWriter, r *http.Request) (*loginscreen.Screen, bool) {
	screen, err := h.screens.Get(chi.URLParam(r, "id"))
	if err != nil {
		pkghttp.WriteNotFound(w, "Login screen not found")
		return nil, false
	}
	return screen, true
}

// Open opens a login screen. A client presenting a valid session token is
// redirected to its role screen instead.
// @Summary Open login screen
// @Security BearerAuth
// @Produce json
// @Success 200 {object} OpenScreenResponse
// @Success 201 {object} OpenScreenResponse
// @Failure 429 {object} pkghttp.ErrorResponse
// @Router /screens [post]
func (h *ScreenHandler) Open(w http.ResponseWriter, r *http.Request) {
	if token := auth.BearerToken(r); token != "" && h.sessions != nil {
		session, target, err := h.sessions.Resume(r.Context(), token)
		if err == nil {
			pkghttp.WriteJSON(w, http.StatusOK, OpenScreenResponse{
				Redirect: &RedirectResponse{Screen: target, Session: *session},
			})
			return
		}
		h.logger.Debug("ignoring invalid session token on screen open", pkglogger.Err(err))
	}

	screen, err := h.screens.Open(h.clientInfo(r))
	if err != nil {
		if errors.Is(err, models.ErrTooManyScreens) {
			pkghttp.WriteTooManyRequests(w, "Too many open sign-in screens. Please try again later.", 60)
			return
		}
		h.logger.Error("failed to open login screen", pkglogger.Err(err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	status := screen.Status()
	pkghttp.WriteJSON(w, http.StatusCreated, OpenScreenResponse{
		ScreenID: screen.ID,
		Status:   &status,
	})
}

// Login submits the credentials typed into a screen
// @Summary Submit login
// @Accept json
// @Param id path string true "Screen ID"
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 400 {object} LoginErrorResponse
// @Failure 401 {object} LoginErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Failure 429 {object} LoginErrorResponse
// @Failure 503 {object} LoginErrorResponse
// @Router /screens/{id}/login [post]
func (h *ScreenHandler) Login(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if fe := validateLoginRequest(req); fe != nil {
		pkghttp.WriteJSON(w, http.StatusBadRequest, LoginErrorResponse{
			Error:   "invalid_input",
			Message: fe.Message(),
			Field:   fe.Field,
			Reason:  fe.Reason,
		})
		return
	}

	start := time.Now()
	ctx := services.WithClient(r.Context(), h.clientInfo(r))

	result, err := screen.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeLoginError(ctx, w, start, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
		Session:   result.Session,
		Screen:    result.Navigation.Screen,
		Token:     result.Navigation.Token,
		ExpiresAt: result.Navigation.ExpiresAt,
	})
}

// validateLoginRequest reports an oversized raw field in the same shape the
// login controller uses for its own input errors.
func validateLoginRequest(req LoginRequest) *validation.FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	field := validation.FieldEmail
	reason := validation.ReasonInvalidFormat
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		if ve[0].StructField() == "Password" {
			field = validation.FieldPassword
		}
		if ve[0].Tag() == "max" {
			reason = validation.ReasonTooLong
		}
	}
	return &validation.FieldError{Field: field, Reason: reason}
}

func (h *ScreenHandler) writeLoginError(ctx context.Context, w http.ResponseWriter, start time.Time, err error) {
	var (
		locked *services.LockedOutError
		input  *services.InvalidInputError
		creds  *services.InvalidCredentialsError
	)

	switch {
	case errors.As(err, &locked):
		pkghttp.SetRetryAfter(w, locked.RemainingSeconds)
		pkghttp.WriteJSON(w, http.StatusTooManyRequests, LoginErrorResponse{
			Error:            "locked_out",
			Message:          locked.Message(),
			RemainingSeconds: locked.RemainingSeconds,
		})

	case errors.As(err, &input):
		pkghttp.WriteJSON(w, http.StatusBadRequest, LoginErrorResponse{
			Error:   "invalid_input",
			Message: input.Message(),
			Field:   input.Field,
			Reason:  input.Reason,
		})

	case errors.As(err, &creds):
		if h.timing != nil {
			h.timing.Wait(ctx, start, false)
		}
		remaining := creds.RemainingAttempts
		resp := LoginErrorResponse{
			Error:             "invalid_credentials",
			Message:           creds.Message(),
			RemainingAttempts: &remaining,
			LockoutSeconds:    creds.LockoutSeconds,
		}
		if warning, ok := creds.Warning(); ok {
			resp.Warning = warning
		}
		pkghttp.SetRetryAfter(w, creds.LockoutSeconds)
		pkghttp.WriteJSON(w, http.StatusUnauthorized, resp)

	case errors.Is(err, services.ErrVerificationFailure):
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, LoginErrorResponse{
			Error:   "verification_failure",
			Message: services.UserMessage(err),
		})

	default:
		h.logger.Error("unexpected login error", pkglogger.Err(err))
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// Blur validates a field when it loses focus
// @Summary Field focus lost
// @Accept json
// @Param id path string true "Screen ID"
// @Param request body BlurRequest true "Blur request"
// @Produce json
// @Success 200 {object} BlurResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /screens/{id}/blur [post]
func (h *ScreenHandler) Blur(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}

	var req BlurRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := screen.Blur(req.Field, req.Text)
	var fe *validation.FieldError
	switch {
	case err == nil:
		pkghttp.WriteJSON(w, http.StatusOK, BlurResponse{Valid: true})
	case errors.As(err, &fe):
		pkghttp.WriteJSON(w, http.StatusOK, BlurResponse{Valid: false, Message: fe.Message(), Reason: fe.Reason})
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Unknown field")
	default:
		h.logger.Error("blur validation failed", pkglogger.Err(err))
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// State returns the message, notice and lock status of a screen
// @Summary Screen state
// @Param id path string true "Screen ID"
// @Produce json
// @Success 200 {object} ScreenStateResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /screens/{id}/message [get]
func (h *ScreenHandler) State(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ScreenStateResponse{
		Snapshot: screen.Snapshot(),
		Status:   screen.Status(),
	})
}

// DismissNotice closes the modal notice
// @Summary Dismiss notice
// @Param id path string true "Screen ID"
// @Success 204
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /screens/{id}/notice [delete]
func (h *ScreenHandler) DismissNotice(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	screen.DismissNotice()
	w.WriteHeader(http.StatusNoContent)
}

// Close discards the screen and everything typed into it
// @Summary Close login screen
// @Param id path string true "Screen ID"
// @Success 204
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /screens/{id} [delete]
func (h *ScreenHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.screens.Close(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrScreenNotFound) {
			pkghttp.WriteNotFound(w, "Login screen not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ScreenStatsResponse reports how many login screens are open
type ScreenStatsResponse struct {
	OpenScreens int `json:"open_screens"`
}

// Stats reports the number of open login screens
// @Summary Login screen stats
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ScreenStatsResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 403 {object} pkghttp.ErrorResponse
// @Router /screens/stats [get]
func (h *ScreenHandler) Stats(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, ScreenStatsResponse{OpenScreens: h.screens.Len()})
}
