package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every POSIXSYNC_ env var that Load() reads.
var allConfigKeys = []string{
	"POSIXSYNC_CREDENTIALS_PATH",
	"POSIXSYNC_TOKEN_PATH",
	"POSIXSYNC_READONLY_TOKEN_PATH",
	"POSIXSYNC_LEGACY_TOKEN_PATH",
	"POSIXSYNC_TARGETS_PATH",
	"POSIXSYNC_DB_PATH",
	"POSIXSYNC_API_BASE_URL",
	"POSIXSYNC_LOG_LEVEL",
	"POSIXSYNC_HISTORY_LIMIT",
	"POSIXSYNC_API_RATE_LIMIT",
	"POSIXSYNC_METRICS_TEXTFILE",
}

// isolateConfigEnv saves and unsets all POSIXSYNC_ env vars so tests don't
// inherit values from the host environment.
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "credentials.json", cfg.CredentialsPath)
	assert.Equal(t, "token.json", cfg.TokenPath)
	assert.Equal(t, "token.readonly.json", cfg.ReadOnlyTokenPath)
	assert.Equal(t, "token.gob", cfg.LegacyTokenPath)
	assert.Equal(t, "targets.yaml", cfg.TargetsPath)
	assert.Equal(t, "posixsync.db", cfg.DBPath)
	assert.Equal(t, "https://admin.googleapis.com/admin/directory/v1", cfg.APIBaseURL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.InDelta(t, 10.0, cfg.APIRateLimit, 0)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.True(t, cfg.HistoryEnabled())
}

func TestLoad_TokenPathsFollowCredentials(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("POSIXSYNC_CREDENTIALS_PATH", "/etc/posixsync/credentials.json")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/etc/posixsync/token.json"), cfg.TokenPath)
	assert.Equal(t, filepath.FromSlash("/etc/posixsync/token.readonly.json"), cfg.ReadOnlyTokenPath)
	assert.Equal(t, filepath.FromSlash("/etc/posixsync/token.gob"), cfg.LegacyTokenPath)
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("POSIXSYNC_CREDENTIALS_PATH", "/secrets/client.json")
	t.Setenv("POSIXSYNC_TOKEN_PATH", "/state/tok.json")
	t.Setenv("POSIXSYNC_READONLY_TOKEN_PATH", "/state/ro.json")
	t.Setenv("POSIXSYNC_LEGACY_TOKEN_PATH", "/state/tok.gob")
	t.Setenv("POSIXSYNC_TARGETS_PATH", "/etc/targets.yaml")
	t.Setenv("POSIXSYNC_DB_PATH", "/state/history.db")
	t.Setenv("POSIXSYNC_API_BASE_URL", "http://127.0.0.1:9999/dir")
	t.Setenv("POSIXSYNC_LOG_LEVEL", "debug")
	t.Setenv("POSIXSYNC_HISTORY_LIMIT", "10")
	t.Setenv("POSIXSYNC_API_RATE_LIMIT", "2.5")
	t.Setenv("POSIXSYNC_METRICS_TEXTFILE", "/var/lib/node_exporter/posixsync.prom")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/secrets/client.json", cfg.CredentialsPath)
	assert.Equal(t, "/state/tok.json", cfg.TokenPath)
	assert.Equal(t, "/state/ro.json", cfg.ReadOnlyTokenPath)
	assert.Equal(t, "/state/tok.gob", cfg.LegacyTokenPath)
	assert.Equal(t, "/etc/targets.yaml", cfg.TargetsPath)
	assert.Equal(t, "/state/history.db", cfg.DBPath)
	assert.Equal(t, "http://127.0.0.1:9999/dir", cfg.APIBaseURL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.InDelta(t, 2.5, cfg.APIRateLimit, 0)
	assert.Equal(t, "/var/lib/node_exporter/posixsync.prom", cfg.MetricsTextfile)
}

func TestLoad_EmptyDBPathDisablesHistory(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("POSIXSYNC_DB_PATH", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.HistoryEnabled())
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("POSIXSYNC_LOG_LEVEL", "chatty")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSIXSYNC_LOG_LEVEL")
}

func TestLoad_InvalidHistoryLimit(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("POSIXSYNC_HISTORY_LIMIT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSIXSYNC_HISTORY_LIMIT")
}

func TestLoad_InvalidAPIRateLimit(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("POSIXSYNC_API_RATE_LIMIT", "-1")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSIXSYNC_API_RATE_LIMIT")
}
