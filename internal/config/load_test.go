package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("SCOUT_LLM_GEMINI_API_KEY", "test-api-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.ModelName)
	assert.Equal(t, "prompts/detect.tmpl", cfg.LLM.PromptTemplatePath)
	assert.Equal(t, 2, cfg.Governor.Concurrency)
	assert.Equal(t, 3000, cfg.Governor.MinIntervalMs)
	assert.Equal(t, 5, cfg.Governor.MaxRetries)
	assert.Equal(t, 1200, cfg.Governor.BaseDelayMs)
	assert.Equal(t, 20000, cfg.Governor.MaxDelayMs)
	assert.InDelta(t, 0.25, cfg.Governor.JitterRatio, 0.0001)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCOUT_LLM_GEMINI_API_KEY", "test-api-key")
	t.Setenv("SCOUT_SERVER_PORT", "9090")
	t.Setenv("SCOUT_SERVER_LOG_LEVEL", "debug")
	t.Setenv("SCOUT_GOVERNOR_CONCURRENCY", "4")
	t.Setenv("SCOUT_GOVERNOR_MIN_INTERVAL_MS", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 4, cfg.Governor.Concurrency)
	assert.Equal(t, 500, cfg.Governor.MinIntervalMs)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	// No SCOUT_LLM_GEMINI_API_KEY in the environment.
	t.Setenv("SCOUT_LLM_GEMINI_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero concurrency", "SCOUT_GOVERNOR_CONCURRENCY", "0"},
		{"negative retries", "SCOUT_GOVERNOR_MAX_RETRIES", "-1"},
		{"bad log level", "SCOUT_SERVER_LOG_LEVEL", "verbose"},
		{"port out of range", "SCOUT_SERVER_PORT", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SCOUT_LLM_GEMINI_API_KEY", "test-api-key")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
