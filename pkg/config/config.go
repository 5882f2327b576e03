package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Storage       StorageConfig
	Mail          MailConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	// MaxUploadMB caps the size of an uploaded invoice
	MaxUploadMB int
	// SecureCookies marks the access_token cookie Secure
	SecureCookies bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	Enabled          bool
	JWTSecret        string
	AccessTokenTTL   time.Duration
	OperatorUsername string
	// OperatorPasswordHash is a bcrypt hash
	OperatorPasswordHash string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type StorageConfig struct {
	LocalPath     string
	RetentionDays int
	// RetentionSchedule is a 5-field cron expression for the archive sweep
	RetentionSchedule string
}

type MailConfig struct {
	ResendAPIKey string
	FromEmail    string
	CC           []string
}

var defaultOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:8080",
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 20),
			AllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", defaultOrigins),
			MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 20),
			SecureCookies:      getEnvAsBool("SECURE_COOKIES", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "invoice-ledger"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			Enabled:              getEnvAsBool("AUTH_ENABLED", false),
			JWTSecret:            getEnv("JWT_SECRET", ""),
			AccessTokenTTL:       time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			OperatorUsername:     getEnv("OPERATOR_USERNAME", ""),
			OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Storage: StorageConfig{
			LocalPath:         getEnv("STORAGE_LOCAL_PATH", "./archive"),
			RetentionDays:     getEnvAsInt("STORAGE_RETENTION_DAYS", 90),
			RetentionSchedule: getEnv("STORAGE_RETENTION_SCHEDULE", "0 3 * * *"),
		},
		Mail: MailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM_EMAIL", "Invoice Ledger <donotreply@invoice-ledger.local>"),
			CC:           getEnvAsList("REPORT_CC", nil),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if !c.Auth.Enabled {
		return nil
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is set")
	}
	if c.Auth.OperatorUsername == "" || c.Auth.OperatorPasswordHash == "" {
		return errors.New("OPERATOR_USERNAME and OPERATOR_PASSWORD_HASH are required when AUTH_ENABLED is set")
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the listen address of the API server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
