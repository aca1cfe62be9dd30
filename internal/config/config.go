// Package config loads client settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything the client needs to reach the backend and place
// its output.
type Config struct {
	ServerURL      string
	Language       string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	ExportDir      string
	LogFile        string
	LogLevel       string
}

// Load reads configuration from INTELLISCRIPT_* environment variables,
// falling back to defaults that match a locally run backend.
func Load() Config {
	return Config{
		ServerURL:      env("INTELLISCRIPT_SERVER_URL", "http://localhost:8000"),
		Language:       env("INTELLISCRIPT_LANGUAGE", "en"),
		PollInterval:   envDuration("INTELLISCRIPT_POLL_INTERVAL", 2*time.Second),
		RequestTimeout: envDuration("INTELLISCRIPT_REQUEST_TIMEOUT", 30*time.Second),
		ExportDir:      env("INTELLISCRIPT_EXPORT_DIR", "."),
		LogFile:        env("INTELLISCRIPT_LOG_FILE", ""),
		LogLevel:       env("INTELLISCRIPT_LOG_LEVEL", "info"),
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Bare numbers are taken as seconds.
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
