// Package config loads process configuration from the environment.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvProduction selects JSON logs and refuses insecure defaults.
const EnvProduction = "production"

// Board configures cmd/server, the activity board page.
type Board struct {
	Env            string        `env:"ACTIVITYBOARD_ENV" envDefault:"development"`
	Addr           string        `env:"ACTIVITYBOARD_ADDR" envDefault:":8080"`
	APIURL         string        `env:"ACTIVITYBOARD_API_URL" envDefault:"http://localhost:8000"`
	APITimeout     time.Duration `env:"ACTIVITYBOARD_API_TIMEOUT"`
	Title          string        `env:"ACTIVITYBOARD_TITLE" envDefault:"Mergington High School"`
	CSRFKeyHex     string        `env:"ACTIVITYBOARD_CSRF_KEY"`
	Secure         bool          `env:"ACTIVITYBOARD_SECURE_COOKIES"`
	TrustedOrigins []string      `env:"ACTIVITYBOARD_TRUSTED_ORIGINS" envSeparator:","`
	RateLimit      int           `env:"ACTIVITYBOARD_RATE_LIMIT" envDefault:"10"`
	SlowRequestMs  int           `env:"ACTIVITYBOARD_SLOW_REQUEST_MS" envDefault:"500"`
	ExposePerf     bool          `env:"ACTIVITYBOARD_EXPOSE_PERF"`
	LogLevel       string        `env:"ACTIVITYBOARD_LOG_LEVEL" envDefault:"info"`
}

// API configures cmd/activityapi, the reference activities API.
type API struct {
	Env           string `env:"ACTIVITYAPI_ENV" envDefault:"development"`
	Addr          string `env:"ACTIVITYAPI_ADDR" envDefault:":8000"`
	DBPath        string `env:"ACTIVITYAPI_DB_PATH" envDefault:"activities.db"`
	SlowRequestMs int    `env:"ACTIVITYAPI_SLOW_REQUEST_MS" envDefault:"500"`
	SlowQueryMs   int    `env:"ACTIVITYAPI_SLOW_QUERY_MS" envDefault:"50"`
	ExposePerf    bool   `env:"ACTIVITYAPI_EXPOSE_PERF"`
	ResendKey     string `env:"ACTIVITYAPI_RESEND_KEY"`
	EmailFrom     string `env:"ACTIVITYAPI_EMAIL_FROM" envDefault:"Mergington High School <noreply@mergington.edu>"`
	LogLevel      string `env:"ACTIVITYAPI_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv reads .env files into the environment without overriding set variables.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadBoard reads .env and the environment into a Board config.
func LoadBoard() (Board, error) {
	if err := LoadDotEnv(); err != nil {
		return Board{}, err
	}
	var cfg Board
	if err := ParseEnv(&cfg); err != nil {
		return Board{}, err
	}
	if cfg.RateLimit <= 0 {
		return Board{}, fmt.Errorf("ACTIVITYBOARD_RATE_LIMIT must be positive, got %d", cfg.RateLimit)
	}
	return cfg, nil
}

// LoadAPI reads .env and the environment into an API config.
func LoadAPI() (API, error) {
	if err := LoadDotEnv(); err != nil {
		return API{}, err
	}
	var cfg API
	if err := ParseEnv(&cfg); err != nil {
		return API{}, err
	}
	return cfg, nil
}

// CSRFKey decodes the configured 32-byte key.
// An empty value yields nil so the caller can generate a per-process key.
func (b Board) CSRFKey() ([]byte, error) {
	if b.CSRFKeyHex == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(b.CSRFKeyHex)
	if err != nil {
		return nil, fmt.Errorf("ACTIVITYBOARD_CSRF_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ACTIVITYBOARD_CSRF_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func NewLogger(w io.Writer, envName, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if envName == EnvProduction {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
