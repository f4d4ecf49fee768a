package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvironmentVariablesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("SESSION_TIMEOUT", "")
	t.Setenv("MAX_SESSION_DURATION", "")
	t.Setenv("CLEANUP_INTERVAL", "")

	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout)
	assert.Equal(t, 4*time.Hour, cfg.MaxSessionAge)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
}

func TestLoadEnvironmentVariablesOverrides(t *testing.T) {
	t.Setenv("PORT", "3001")
	t.Setenv("SESSION_TIMEOUT", "60000")
	t.Setenv("MAX_SESSION_DURATION", "120000")
	t.Setenv("CLEANUP_INTERVAL", "30000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, time.Minute, cfg.SessionTimeout)
	assert.Equal(t, 2*time.Minute, cfg.MaxSessionAge)
	assert.Equal(t, 30*time.Second, cfg.CleanupInterval)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestLoadEnvironmentVariablesRejectsBadDurations(t *testing.T) {
	t.Setenv("SESSION_TIMEOUT", "not-a-number")

	_, err := LoadEnvironmentVariables()
	assert.Error(t, err)

	t.Setenv("SESSION_TIMEOUT", "-5")

	_, err = LoadEnvironmentVariables()
	assert.Error(t, err)
}
