package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, ScopeDurable, cfg.CredentialScope)
	assert.Equal(t, 1_000_000, cfg.DailyTokenLimit)
	assert.Zero(t, cfg.RequestsPerMinute)
	assert.Equal(t, int64(20*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.HostKey)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mifoto.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
storage: memory
model: nano-banana-2
session_ttl: 30m
log_level: debug
`), 0o600))

	t.Setenv("MIFOTO_HTTP_ADDR", ":9999")
	t.Setenv("MIFOTO_REQUESTS_PER_MINUTE", "10")
	t.Setenv("MIFOTO_HOST_KEY", "true")
	t.Setenv("MIFOTO_GEMINI_API_KEY", "provisioned")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "nano-banana-2", cfg.Model)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.RequestsPerMinute)
	assert.True(t, cfg.HostKey)
	assert.Equal(t, "provisioned", cfg.GeminiAPIKey)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"storage", map[string]string{"MIFOTO_STORAGE": "postgres"}},
		{"scope", map[string]string{"MIFOTO_CREDENTIAL_SCOPE": "forever"}},
		{"log format", map[string]string{"MIFOTO_LOG_FORMAT": "xml"}},
		{"log level", map[string]string{"MIFOTO_LOG_LEVEL": "loud"}},
		{"negative rpm", map[string]string{"MIFOTO_REQUESTS_PER_MINUTE": "-1"}},
		{"upload size", map[string]string{"MIFOTO_MAX_UPLOAD_BYTES": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
