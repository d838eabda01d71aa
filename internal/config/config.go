package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL = "http://localhost:5000/api"
	DefaultDemoAddr   = ":5000"
)

// Config holds the client and demo API settings.
type Config struct {
	APIBaseURL      string
	HTTPTimeout     time.Duration
	CredentialsFile string
	CredentialsDSN  string
	Env             string
	LogLevel        string
	DemoAddr        string
	JWTSecret       string
}

// Load reads the given .env files (".env" when none are named) and then the
// process environment. Missing .env files are not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		APIBaseURL:     getenv("TEAMGLOW_API_URL", DefaultAPIBaseURL),
		CredentialsDSN: os.Getenv("TEAMGLOW_CREDENTIALS_DSN"),
		Env:            getenv("APP_ENV", "development"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		DemoAddr:       getenv("DEMO_ADDR", DefaultDemoAddr),
		JWTSecret:      os.Getenv("JWT_SECRET"),
	}

	if raw := os.Getenv("TEAMGLOW_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("TEAMGLOW_HTTP_TIMEOUT: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("TEAMGLOW_HTTP_TIMEOUT: negative duration %s", d)
		}
		cfg.HTTPTimeout = d
	}

	cfg.CredentialsFile = os.Getenv("TEAMGLOW_CREDENTIALS_FILE")
	if cfg.CredentialsFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve credentials file: %w", err)
		}
		cfg.CredentialsFile = filepath.Join(dir, "teamglow", "credentials.json")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
