// Package config validates the relay's environment, collecting every
// missing/invalid variable into a single error rather than failing on the
// first one, following RoseWrightdev-Video-Conferencing's
// internal/v1/config.ValidateEnv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	Port        string

	GithubClientID     string
	GithubClientSecret string

	DevelopmentMode bool
	RequestTimeout  time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	cfg.Port = getEnvOrDefault("PORT", "8080")
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be a valid port number (got %q)", cfg.Port))
	}

	cfg.GithubClientID = os.Getenv("GITHUB_CLIENT_ID")
	cfg.GithubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	if cfg.GithubClientID == "" || cfg.GithubClientSecret == "" {
		errs = append(errs, "GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required")
	}

	cfg.DevelopmentMode = os.Getenv("DEVELOPMENT_MODE") == "true"

	timeoutSeconds := getEnvOrDefault("REQUEST_TIMEOUT_SECONDS", "45")
	seconds, err := strconv.Atoi(timeoutSeconds)
	if err != nil || seconds < 1 {
		errs = append(errs, fmt.Sprintf("REQUEST_TIMEOUT_SECONDS must be a positive integer (got %q)", timeoutSeconds))
	} else {
		cfg.RequestTimeout = time.Duration(seconds) * time.Second
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
