package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/drivewatch/internal/auth"
	"github.com/BradenHooton/drivewatch/internal/background"
	"github.com/BradenHooton/drivewatch/internal/config"
	"github.com/BradenHooton/drivewatch/internal/database"
	"github.com/BradenHooton/drivewatch/internal/handlers"
	"github.com/BradenHooton/drivewatch/internal/lockout"
	"github.com/BradenHooton/drivewatch/internal/loginscreen"
	middlewareCustom "github.com/BradenHooton/drivewatch/internal/middleware"
	"github.com/BradenHooton/drivewatch/internal/models"
	"github.com/BradenHooton/drivewatch/internal/repositories"
	"github.com/BradenHooton/drivewatch/internal/routes"
	"github.com/BradenHooton/drivewatch/internal/services"
	pkghttp "github.com/BradenHooton/drivewatch/pkg/http"
	pkglogger "github.com/BradenHooton/drivewatch/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", pkglogger.Err(err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", pkglogger.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.CheckSchema(schemaCtx)
	schemaCancel()
	if err != nil {
		logger.Error("database schema is not ready", pkglogger.Err(err))
		os.Exit(1)
	}

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxy configuration", pkglogger.Err(err))
		os.Exit(1)
	}

	clock := clockwork.NewRealClock()

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)

	auditLogger := pkglogger.NewAuditLogger(logger)
	tokenManager := auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry, clock)
	navigationService := services.NewNavigationService(tokenManager, logger)
	accountService := services.NewAccountService(accountRepo, logger, auditLogger)

	var notifier services.LockoutNotifier = services.NopNotifier{}
	if cfg.Email.NotifyLockout {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sesNotifier, err := services.NewSESNotifier(initCtx, cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize lockout notifier", pkglogger.Err(err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	loginDeps := services.LoginDeps{
		Verifier:         accountRepo,
		Sink:             navigationService,
		Recorder:         loginAttemptRepo,
		Notifier:         notifier,
		Logger:           logger,
		AuditLogger:      auditLogger,
		AttemptRetention: cfg.Auth.AttemptRetention,
	}
	policy := lockout.Policy{
		MaxAttempts: cfg.Auth.MaxFailedAttempts,
		Duration:    cfg.Auth.LockoutDuration,
	}

	// every screen gets its own tracker
	registry := loginscreen.NewRegistry(
		func(screenID string, presenter services.Presenter) *services.LoginController {
			return services.NewLoginController(screenID, loginDeps, lockout.NewTracker(policy, clock), presenter)
		},
		loginscreen.Config{
			IdleTimeout:       cfg.Auth.ScreenIdleTimeout,
			MessageClearDelay: cfg.Auth.MessageClearDelay,
			MaxOpen:           cfg.Auth.MaxOpenScreens,
		},
		clock,
		logger,
	)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:   cfg.Auth.TimingBaseDelay,
		RandomDelay: cfg.Auth.TimingRandomDelay,
	})

	screenHandler := handlers.NewScreenHandler(registry, navigationService, timingDelay, ipConfig, logger)

	// Bootstrap the first company account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureCompanyAccount(ctx, accountService, logger); err != nil {
		logger.Error("failed to ensure company account", pkglogger.Err(err))
	}
	cancel()

	cleanupManager := background.NewCleanupManager(registry, loginAttemptRepo, logger, cfg.Auth.CleanupInterval, clock)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, screenHandler, tokenManager, db,
		routes.RateLimits{
			OpenScreen: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Server.OpenScreenRateLimit},
			Login:      middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Server.LoginRateLimit},
		}, ipConfig)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", pkglogger.Err(err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", pkglogger.Err(err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully", slog.Int("open_screens", registry.Len()))
}

// ensureCompanyAccount creates the first company account if COMPANY_EMAIL and COMPANY_PASSWORD are set
func ensureCompanyAccount(ctx context.Context, accounts *services.AccountService, logger *slog.Logger) error {
	email := os.Getenv("COMPANY_EMAIL")
	password := os.Getenv("COMPANY_PASSWORD")

	if email == "" || password == "" {
		logger.Info("no COMPANY_EMAIL or COMPANY_PASSWORD set, skipping company account creation")
		return nil
	}

	name := os.Getenv("COMPANY_NAME")
	if name == "" {
		name = "Company"
	}

	account, created, err := accounts.EnsureAccount(ctx, services.ProvisionRequest{
		Role:     models.RoleCompany,
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}

	if created {
		logger.Info("company account created", slog.String("account_id", account.ID))
	} else {
		logger.Info("company account already exists")
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
