// Package config provides application configuration management.
// It loads configuration from environment variables with sensible defaults.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  uint64
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT token configuration.
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// AuthConfig holds password policy and session flow settings.
type AuthConfig struct {
	MinPasswordLength   int
	MinPasswordStrength int
	HashScheme          string
	RecoveryCodeDigits  int
	RecoveryCodeTTL     time.Duration
	RecoveryMaxAttempts int
	ExposeRecoveryCode  bool
	SessionTTL          time.Duration
}

// EmailConfig holds email service configuration.
type EmailConfig struct {
	ResendAPIKey  string
	ResendBaseURL string
	FromName      string
	FromEmail     string
	WorkerEnabled bool
	PollInterval  time.Duration
	BatchSize     int
	RetentionDays int
}

// RateLimitConfig holds login rate limiting settings.
type RateLimitConfig struct {
	LoginAttempts int
	Window        time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level slog.Level
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("APP_HOST", "127.0.0.1"),
			Port:         getEnvAsInt("APP_PORT", 8000),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			Environment:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DATABASE_DRIVER", DriverSQLite),
			URL:             getEnv("DATABASE_URL", "file:users.db?_pragma=foreign_keys(1)"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectRetries:  uint64(getEnvAsInt("DATABASE_CONNECT_RETRIES", 5)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "change-me-in-production"),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_TOKEN_EXPIRY", 30*time.Minute),
		},
		Auth: AuthConfig{
			MinPasswordLength:   getEnvAsInt("AUTH_MIN_PASSWORD_LENGTH", 8),
			MinPasswordStrength: getEnvAsInt("AUTH_MIN_PASSWORD_STRENGTH", 3),
			HashScheme:          getEnv("PASSWORD_HASH_SCHEME", "sha256"),
			RecoveryCodeDigits:  getEnvAsInt("AUTH_RECOVERY_CODE_DIGITS", 6),
			RecoveryCodeTTL:     getEnvAsDuration("AUTH_RECOVERY_CODE_TTL", 15*time.Minute),
			RecoveryMaxAttempts: getEnvAsInt("AUTH_RECOVERY_MAX_ATTEMPTS", 5),
			ExposeRecoveryCode:  getEnvAsBool("AUTH_EXPOSE_RECOVERY_CODE", false),
			SessionTTL:          getEnvAsDuration("AUTH_SESSION_TTL", 30*time.Minute),
		},
		Email: EmailConfig{
			ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
			ResendBaseURL: getEnv("RESEND_BASE_URL", ""),
			FromName:      getEnv("RESEND_FROM_NAME", "User Accounts"),
			FromEmail:     getEnv("RESEND_FROM_EMAIL", "onboarding@resend.dev"),
			WorkerEnabled: getEnvAsBool("EMAIL_WORKER_ENABLED", true),
			PollInterval:  getEnvAsDuration("EMAIL_WORKER_POLL_INTERVAL", 5*time.Second),
			BatchSize:     getEnvAsInt("EMAIL_WORKER_BATCH_SIZE", 10),
			RetentionDays: getEnvAsInt("EMAIL_RETENTION_DAYS", 7),
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: getEnvAsInt("RATE_LIMIT_LOGIN_ATTEMPTS", 5),
			Window:        getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Log: LogConfig{
			Level: getEnvAsLogLevel("LOG_LEVEL", slog.LevelInfo),
		},
	}
}

// IsDevelopment reports whether the server runs in development mode.
func (c ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue slog.Level) slog.Level {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(value))); err != nil {
		return defaultValue
	}
	return level
}
