package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ".", cfg.ExportDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INTELLISCRIPT_SERVER_URL", "http://backend:9000")
	t.Setenv("INTELLISCRIPT_LANGUAGE", "de")
	t.Setenv("INTELLISCRIPT_POLL_INTERVAL", "500ms")

	cfg := Load()

	assert.Equal(t, "http://backend:9000", cfg.ServerURL)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
}

func TestDurationAcceptsBareSeconds(t *testing.T) {
	t.Setenv("INTELLISCRIPT_POLL_INTERVAL", "5")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestDurationRejectsGarbage(t *testing.T) {
	t.Setenv("INTELLISCRIPT_POLL_INTERVAL", "soon")

	cfg := Load()
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
}
