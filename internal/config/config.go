package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	// LoginRateLimit is the number of login requests allowed per IP per minute.
	LoginRateLimit int
	// OpenScreenRateLimit is the number of screens an IP may open per minute.
	OpenScreenRateLimit int
}

type AuthConfig struct {
	SessionSecret     string
	SessionExpiry     time.Duration
	MaxFailedAttempts int
	LockoutDuration   time.Duration
	MessageClearDelay time.Duration
	ScreenIdleTimeout time.Duration
	MaxOpenScreens    int
	CleanupInterval   time.Duration
	AttemptRetention  time.Duration
	TimingBaseDelay   time.Duration
	TimingRandomDelay time.Duration
}

type EmailConfig struct {
	NotifyLockout bool
	AWSRegion     string
	FromAddress   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "drivewatch"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:                getEnv("PORT", "8080"),
			Env:                 env,
			LogLevel:            getEnv("LOG_LEVEL", "info"),
			AllowedOrigins:      parseAllowedOrigins(env),
			TrustedProxies:      splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:         getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:        getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:         getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			LoginRateLimit:      getEnvAsInt("LOGIN_RATE_LIMIT", 20),
			OpenScreenRateLimit: getEnvAsInt("SCREEN_OPEN_RATE_LIMIT", 30),
		},
		Auth: AuthConfig{
			SessionSecret:     getEnv("SESSION_SECRET", ""),
			SessionExpiry:     getEnvAsDuration("SESSION_EXPIRY", 12*time.Hour),
			MaxFailedAttempts: getEnvAsInt("MAX_FAILED_ATTEMPTS", 5),
			LockoutDuration:   getEnvAsDuration("LOCKOUT_DURATION", 30*time.Second),
			MessageClearDelay: getEnvAsDuration("MESSAGE_CLEAR_DELAY", 5*time.Second),
			ScreenIdleTimeout: getEnvAsDuration("SCREEN_IDLE_TIMEOUT", 15*time.Minute),
			MaxOpenScreens:    getEnvAsInt("MAX_OPEN_SCREENS", 10000),
			CleanupInterval:   getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
			AttemptRetention:  getEnvAsDuration("ATTEMPT_RETENTION", 30*24*time.Hour),
			TimingBaseDelay:   getEnvAsDuration("TIMING_BASE_DELAY", 150*time.Millisecond),
			TimingRandomDelay: getEnvAsDuration("TIMING_RANDOM_DELAY", 100*time.Millisecond),
		},
		Email: EmailConfig{
			NotifyLockout: getEnvAsBool("NOTIFY_LOCKOUT", false),
			AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
			FromAddress:   getEnv("EMAIL_FROM", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required values and the lockout policy.
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if err := validateSessionSecret(c.Auth.SessionSecret, c.Server.Env); err != nil {
		return err
	}
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Auth.MaxFailedAttempts < 1 {
		return fmt.Errorf("MAX_FAILED_ATTEMPTS must be at least 1 (got %d)", c.Auth.MaxFailedAttempts)
	}
	if c.Auth.LockoutDuration <= 0 {
		return fmt.Errorf("LOCKOUT_DURATION must be positive (got %s)", c.Auth.LockoutDuration)
	}
	if c.Auth.SessionExpiry <= 0 {
		return fmt.Errorf("SESSION_EXPIRY must be positive (got %s)", c.Auth.SessionExpiry)
	}
	if c.Server.LoginRateLimit < 1 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1 (got %d)", c.Server.LoginRateLimit)
	}
	if c.Server.OpenScreenRateLimit < 1 {
		return fmt.Errorf("SCREEN_OPEN_RATE_LIMIT must be at least 1 (got %d)", c.Server.OpenScreenRateLimit)
	}
	if c.Auth.MaxOpenScreens < 1 {
		return fmt.Errorf("MAX_OPEN_SCREENS must be at least 1 (got %d)", c.Auth.MaxOpenScreens)
	}
	if c.Email.NotifyLockout && c.Email.FromAddress == "" {
		return fmt.Errorf("EMAIL_FROM is required when NOTIFY_LOCKOUT is enabled")
	}
	return nil
}

// validateSessionSecret enforces minimum security standards for the token signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		return splitList(originsStr)
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
