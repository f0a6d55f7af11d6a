package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Mail     MailConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name     string
	Version  string
	Env      string
	Debug    bool
	Port     string
	Host     string
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds staff token configuration. An empty SecretKey disables
// the authenticated read endpoints.
type AuthConfig struct {
	SecretKey          string
	TokenExpiryMinutes int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// MailConfig holds the notification settings. Missing values are not an
// error here; the dispatcher decides whether it can send.
type MailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	AdminEmail string
	// CC is the raw comma-separated list from CC_EMAIL.
	CC         string
	Production bool
}

// Load reads configuration from the environment once. A .env file is
// loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := strings.ToLower(getEnv("APP_ENV", "development"))

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "Urja Contact API"),
			Version:  getEnv("APP_VERSION", "1.0.0"),
			Env:      env,
			Debug:    getEnvAsBool("DEBUG", false),
			Port:     getEnv("PORT", "5000"),
			Host:     getEnv("HOST", "0.0.0.0"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./urja.db"),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("SECRET_KEY", ""),
			TokenExpiryMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         86400,
		},
		Mail: MailConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 0),
			Username:   getEnv("SMTP_USER", ""),
			Password:   getEnv("SMTP_PASS", ""),
			AdminEmail: getEnv("ADMIN_EMAIL", ""),
			CC:         getEnv("CC_EMAIL", ""),
			Production: env == "production",
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with production strictness.
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	if cfg.Auth.SecretKey != "" && len(cfg.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://") ||
		strings.Contains(c.URL, "host=")
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
