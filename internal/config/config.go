package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Env         string
	LogLevel    string
	DatabaseURL string
	Port        string

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	BcryptCost int

	UploadDir      string
	MaxUploadBytes int64

	CORSAllowedOrigins []string

	AMQPURL      string
	AMQPExchange string

	DefaultAdminName     string
	DefaultAdminEmail    string
	DefaultAdminPassword string

	// Warnings lists keys whose values could not be parsed and fell back to
	// their defaults. main logs them once the logger exists.
	Warnings []string
}

const defaultJWTSecret = "dev-secret"

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabaseURL:  getEnv("DATABASE_URL", "sqlite3:studygroup.db"),
		Port:         getEnv("PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		JWTIssuer:    getEnv("JWT_ISSUER", "studygroup"),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "studygroup.events"),

		DefaultAdminName:     getEnv("DEFAULT_ADMIN_NAME", "Admin"),
		DefaultAdminEmail:    getEnv("DEFAULT_ADMIN_EMAIL", ""),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),
	}

	cfg.TokenTTL = cfg.getDuration("TOKEN_TTL", 24*time.Hour)
	cfg.BcryptCost = cfg.getInt("BCRYPT_COST", 10)
	cfg.MaxUploadBytes = int64(cfg.getInt("MAX_UPLOAD_MB", 16)) << 20
	cfg.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	return cfg
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// UsesDefaultSecret reports whether JWT_SECRET was left at its development value
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// SeedsDefaultAdmin reports whether a default account should be created at startup
func (c *Config) SeedsDefaultAdmin() bool {
	return c.DefaultAdminEmail != "" && c.DefaultAdminPassword != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func (c *Config) getInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		c.Warnings = append(c.Warnings, key)
		return defaultValue
	}
	return v
}

func (c *Config) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		c.Warnings = append(c.Warnings, key)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
