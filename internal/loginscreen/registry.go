package loginscreen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/internal/services"
	"github.com/BradenHooton/drivewatch/internal/validation"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultIdleTimeout is how long an untouched screen survives.
	DefaultIdleTimeout = 15 * time.Minute
	// DefaultMaxOpen caps the screens held in memory at once.
	DefaultMaxOpen = 10000
)

// ControllerFactory builds the controller for a new screen.
type ControllerFactory func(screenID string, presenter services.Presenter) *services.LoginController

// Config controls screen lifetime and message display.
type Config struct {
	IdleTimeout       time.Duration
	MessageClearDelay time.Duration
	MaxOpen           int
}

// Status is the lock state of a screen.
type Status struct {
	Locked            bool `json:"locked"`
	RemainingSeconds  int  `json:"remaining_seconds,omitempty"`
	RemainingAttempts int  `json:"remaining_attempts"`
}

// Screen is one open login screen. Calls are serialized by the screen mutex.
type Screen struct {
	ID       string
	Client   models.ClientInfo
	OpenedAt time.Time

	mu         sync.Mutex
	controller *services.LoginController
	board      *MessageBoard
	lastSeen   atomic.Int64 // unix nanoseconds
}

// Login runs a login attempt on this screen.
func (s *Screen) Login(ctx context.Context, rawEmail, rawPassword string) (*services.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controller.Login(ctx, rawEmail, rawPassword)
}

// Blur runs focus-loss validation for the named field.
func (s *Screen) Blur(field, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch field {
	case validation.FieldEmail:
		return s.controller.OnEmailBlur(text)
	case validation.FieldPassword:
		return s.controller.OnPasswordBlur(text)
	default:
		return fmt.Errorf("%w: unknown field %q", models.ErrBadRequest, field)
	}
}

// Status reports the lock state.
func (s *Screen) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	locked, seconds, attempts := s.controller.LockStatus()
	return Status{Locked: locked, RemainingSeconds: seconds, RemainingAttempts: attempts}
}

// Snapshot returns the message and notice currently displayed.
func (s *Screen) Snapshot() Snapshot {
	return s.board.Snapshot()
}

// DismissNotice closes the modal notice.
func (s *Screen) DismissNotice() {
	s.board.DismissNotice()
}

// Registry holds the open login screens.
type Registry struct {
	mu      sync.RWMutex
	screens map[string]*Screen
	factory ControllerFactory
	clock   clockwork.Clock
	config  Config
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory ControllerFactory, config Config, clock clockwork.Clock, logger *slog.Logger) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	if config.MaxOpen <= 0 {
		config.MaxOpen = DefaultMaxOpen
	}
	return &Registry{
		screens: make(map[string]*Screen),
		factory: factory,
		clock:   clock,
		config:  config,
		logger:  logger,
	}
}

// Open creates a new screen with a fresh tracker and an empty board.
// It returns models.ErrTooManyScreens once MaxOpen screens are held.
func (r *Registry) Open(client models.ClientInfo) (*Screen, error) {
	id := uuid.New().String()
	board := NewMessageBoard(r.clock, r.config.MessageClearDelay)
	now := r.clock.Now()

	screen := &Screen{
		ID:         id,
		Client:     client,
		OpenedAt:   now,
		controller: r.factory(id, board),
		board:      board,
	}
	screen.lastSeen.Store(now.UnixNano())

	r.mu.Lock()
	if len(r.screens) >= r.config.MaxOpen {
		r.mu.Unlock()
		r.logger.Warn("login screen limit reached",
			slog.Int("max_open", r.config.MaxOpen),
			slog.String("ip_address", client.IPAddress))
		return nil, models.ErrTooManyScreens
	}
	r.screens[id] = screen
	r.mu.Unlock()

	r.logger.Debug("login screen opened",
		slog.String("screen_id", id),
		slog.String("ip_address", client.IPAddress))

	return screen, nil
}

// Get returns the screen and marks it as seen.
func (r *Registry) Get(id string) (*Screen, error) {
	r.mu.RLock()
	screen, ok := r.screens[id]
	r.mu.RUnlock()
	if !ok {
		return nil, models.ErrScreenNotFound
	}

	screen.lastSeen.Store(r.clock.Now().UnixNano())

	return screen, nil
}

// Close removes the screen and cancels its pending message timer.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	screen, ok := r.screens[id]
	delete(r.screens, id)
	r.mu.Unlock()

	if !ok {
		return models.ErrScreenNotFound
	}
	screen.board.Stop()
	return nil
}

// EvictIdle closes screens not touched within the idle timeout and returns how many were closed.
func (r *Registry) EvictIdle() int {
	cutoff := r.clock.Now().Add(-r.config.IdleTimeout).UnixNano()

	r.mu.Lock()
	var idle []*Screen
	for id, screen := range r.screens {
		if screen.lastSeen.Load() < cutoff {
			idle = append(idle, screen)
			delete(r.screens, id)
		}
	}
	r.mu.Unlock()

	for _, screen := range idle {
		screen.board.Stop()
	}
	return len(idle)
}

// Len returns the number of open screens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.screens)
}
