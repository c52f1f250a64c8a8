// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
// Secrets (the service-account bundle and directory ID) are not configuration;
// they come through the secret store.
type Config struct {
	RosterPath       string
	RosterDBPath     string
	KeyPath          string
	AuditLogPath     string
	Actor            string
	DirectoryBaseURL string
	MinFetchInterval time.Duration
	FetchTimeout     time.Duration
	MaxFetchAttempts int
}

// HasDirectory returns true when a directory base URL is configured. The
// composition root skips building the remote client otherwise; local roster
// operations do not need it.
func (c *Config) HasDirectory() bool {
	return c.DirectoryBaseURL != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. Everything has a default except PERSONDIR_DIRECTORY_BASE_URL, which
// is optional: without it the remote directory is simply unavailable.
// Optional variables with defaults: PERSONDIR_ROSTER_PATH (roster.csv),
// PERSONDIR_ROSTER_DB_PATH (roster.db), PERSONDIR_KEY_PATH
// (keys/roster.key), PERSONDIR_AUDIT_LOG_PATH (audit.log), PERSONDIR_ACTOR
// (system), PERSONDIR_MIN_FETCH_INTERVAL (1s), PERSONDIR_FETCH_TIMEOUT (10s),
// PERSONDIR_MAX_FETCH_ATTEMPTS (3).
func Load() (*Config, error) {
	cfg := &Config{
		RosterPath:       envOr("PERSONDIR_ROSTER_PATH", "roster.csv"),
		RosterDBPath:     envOr("PERSONDIR_ROSTER_DB_PATH", "roster.db"),
		KeyPath:          envOr("PERSONDIR_KEY_PATH", "keys/roster.key"),
		AuditLogPath:     envOr("PERSONDIR_AUDIT_LOG_PATH", "audit.log"),
		Actor:            envOr("PERSONDIR_ACTOR", "system"),
		DirectoryBaseURL: os.Getenv("PERSONDIR_DIRECTORY_BASE_URL"),
		MinFetchInterval: time.Second,
		FetchTimeout:     10 * time.Second,
		MaxFetchAttempts: 3,
	}

	if v, ok := os.LookupEnv("PERSONDIR_MIN_FETCH_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("PERSONDIR_MIN_FETCH_INTERVAL has invalid duration %q", v)
		}
		cfg.MinFetchInterval = parsed
	}

	if v, ok := os.LookupEnv("PERSONDIR_FETCH_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("PERSONDIR_FETCH_TIMEOUT has invalid duration %q", v)
		}
		cfg.FetchTimeout = parsed
	}

	if v, ok := os.LookupEnv("PERSONDIR_MAX_FETCH_ATTEMPTS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("PERSONDIR_MAX_FETCH_ATTEMPTS must be a positive integer, got %q", v)
		}
		cfg.MaxFetchAttempts = parsed
	}

	return cfg, nil
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}
