package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SMTP holds outbound email settings. An empty Host disables delivery.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	SessionTTL  time.Duration
	ClientURL   string
	CORSOrigins []string
	SMTP        SMTP
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		Env:         fallback(os.Getenv("APP_ENV"), "development"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "accounts-backend"),
		ClientURL:   strings.TrimRight(fallback(os.Getenv("CLIENT_URL"), "http://localhost:3000"), "/"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		SMTP: SMTP{
			Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Port:     atoiDefault(os.Getenv("SMTP_PORT"), 587),
			Username: strings.TrimSpace(os.Getenv("SMTP_USER")),
			Password: os.Getenv("SMTP_PASS"),
			From:     strings.TrimSpace(os.Getenv("FROM_EMAIL")),
		},
	}

	minutes := fallback(os.Getenv("SESSION_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.SessionTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.SessionTTL = 60 * time.Minute
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsProduction reports whether the deployment mode is production,
// which controls the Secure attribute on session cookies.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func atoiDefault(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
