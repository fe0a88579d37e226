package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8092, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8094/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "", cfg.OpenAI.APIKey)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9001")
	t.Setenv("OPENAI_BASE_URL", "https://upstream.example.com/v1")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "https://upstream.example.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "sk-fallback", cfg.OpenAI.APIKey)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "OPENAI_BASE_URL", "OPENAI_API_KEY", "LOG_LEVEL", "LOG_FORMAT"} {
		val, had := os.LookupEnv(key)
		os.Unsetenv(key)
		if had {
			t.Cleanup(func() { os.Setenv(key, val) })
		}
	}
}
