package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	pkglogger "github.com/BradenHooton/drivewatch/pkg/logger"
	"github.com/jonboulle/clockwork"
)

// ScreenEvictor closes login screens that have been idle too long.
type ScreenEvictor interface {
	EvictIdle() int
}

// AttemptPurger deletes login attempt records past their retention.
type AttemptPurger interface {
	DeleteExpiredAttempts(ctx context.Context) (int64, error)
}

// CleanupManager periodically evicts idle screens and purges expired attempt rows
type CleanupManager struct {
	screens  ScreenEvictor
	attempts AttemptPurger
	logger   *slog.Logger
	interval time.Duration
	clock    clockwork.Clock
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager. attempts may be nil.
func NewCleanupManager(
	screens ScreenEvictor,
	attempts AttemptPurger,
	logger *slog.Logger,
	interval time.Duration,
	clock clockwork.Clock,
) *CleanupManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CleanupManager{
		screens:  screens,
		attempts: attempts,
		logger:   logger,
		interval: interval,
		clock:    clock,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task and blocks until stopped
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := cm.clock.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.Chan():
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// RunOnce performs a single cleanup pass
func (cm *CleanupManager) RunOnce(ctx context.Context) {
	if evicted := cm.screens.EvictIdle(); evicted > 0 {
		cm.logger.Info("idle login screens closed", slog.Int("screens", evicted))
	}

	if cm.attempts == nil {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.attempts.DeleteExpiredAttempts(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to delete expired login attempts", pkglogger.Err(err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired login attempts deleted", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
