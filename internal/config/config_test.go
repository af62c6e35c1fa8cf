package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praktiklabs/kurator/internal/extraction"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8780, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "kurator.db", cfg.Store.Path)
	assert.Equal(t, extraction.ProviderAnthropic, cfg.Extraction.Provider)
	assert.Equal(t, 10, cfg.RateLimit.MaxExtractions)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
logging:
  level: debug
  format: console
store:
  path: /var/lib/kurator/kurator.db
extraction:
  provider: openai
  api_key: file-key
rate_limit:
  max_extractions: 5
  window: 30m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	// Unset keys keep their defaults.
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "/var/lib/kurator/kurator.db", cfg.Store.Path)
	assert.Equal(t, extraction.ProviderOpenAI, cfg.Extraction.Provider)
	assert.Equal(t, "file-key", cfg.Extraction.APIKey)
	assert.Equal(t, 5, cfg.RateLimit.MaxExtractions)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644))

	t.Setenv("KURATOR_SERVER_PORT", "9100")
	t.Setenv("KURATOR_EXTRACTION_API_KEY", "env-key")
	t.Setenv("KURATOR_RATE_LIMIT_MAX_EXTRACTIONS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.Extraction.APIKey)
	assert.Equal(t, 3, cfg.RateLimit.MaxExtractions)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8780, cfg.Server.Port)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"KURATOR_SERVER_PORT", "server.port"},
		{"KURATOR_SERVER_SHUTDOWN_TIMEOUT", "server.shutdown_timeout"},
		{"KURATOR_LOGGING_LEVEL", "logging.level"},
		{"KURATOR_EXTRACTION_API_KEY", "extraction.api_key"},
		{"KURATOR_RATE_LIMIT_MAX_EXTRACTIONS", "rate_limit.max_extractions"},
		{"KURATOR_RATE_LIMIT_WINDOW", "rate_limit.window"},
		{"KURATOR_STORE_PATH", "store.path"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, envTransform(tt.in), tt.in)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Extraction.APIKey = "k"
		return cfg
	}

	assert.NoError(t, valid().Validate())

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad shutdown timeout", func(t *testing.T) {
		cfg := valid()
		cfg.Server.ShutdownTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := valid()
		cfg.Extraction.APIKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad rate limit", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.MaxExtractions = 0
		assert.Error(t, cfg.Validate())

		cfg = valid()
		cfg.RateLimit.Window = -time.Minute
		assert.Error(t, cfg.Validate())
	})
}
