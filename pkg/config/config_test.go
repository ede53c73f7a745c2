package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "LISTEN_ADDR", "TABLE_NAME", "SESSION_INDEX_NAME",
		"AWS_REGION", "DYNAMODB_ENDPOINT", "LOG_LEVEL", "ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "mindmap", cfg.TableName)
	assert.Equal(t, "SessionIndex", cfg.SessionIndexName)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.DynamoDBEndpoint)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("TABLE_NAME", "mindmap-prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "mindmap-prod", cfg.TableName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
}

func TestConfigFileAndPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":7000"
table_name: from-file
log_level: warn
allowed_origins:
  - https://file.example.com
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	// Environment wins over the file.
	t.Setenv("TABLE_NAME", "from-env")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "from-env", cfg.TableName)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"https://file.example.com"}, cfg.AllowedOrigins)
}

func TestConfigFileErrors(t *testing.T) {
	clearEnv(t)

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := New()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [unclosed"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	_, err = New()
	assert.Error(t, err)
}
