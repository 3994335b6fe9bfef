// Package config loads application configuration from environment variables
// and the targets file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Directory API scopes. The update workflow needs read-write access; the
// inspector only reads.
var (
	UpdateScopes = []string{
		"https://www.googleapis.com/auth/admin.directory.user",
		"https://www.googleapis.com/auth/admin.directory.group",
	}
	ReadOnlyScopes = []string{
		"https://www.googleapis.com/auth/admin.directory.user.readonly",
		"https://www.googleapis.com/auth/admin.directory.group.readonly",
	}
)

const defaultAPIBaseURL = "https://admin.googleapis.com/admin/directory/v1"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	CredentialsPath   string
	TokenPath         string
	ReadOnlyTokenPath string
	LegacyTokenPath   string
	TargetsPath       string
	DBPath            string
	APIBaseURL        string
	LogLevel          slog.Level
	HistoryLimit      int
	APIRateLimit      float64
	MetricsTextfile   string
}

// HistoryEnabled reports whether runs are recorded. Setting
// POSIXSYNC_DB_PATH to an empty string disables history.
func (c *Config) HistoryEnabled() bool {
	return c.DBPath != ""
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory if one exists. Variables already set in the
// environment win over .env entries.
//
// Optional variables with defaults: POSIXSYNC_CREDENTIALS_PATH (credentials.json),
// POSIXSYNC_TOKEN_PATH (token.json beside the credentials file),
// POSIXSYNC_READONLY_TOKEN_PATH (token.readonly.json beside the credentials
// file), POSIXSYNC_LEGACY_TOKEN_PATH (token.gob beside the credentials file),
// POSIXSYNC_TARGETS_PATH (targets.yaml), POSIXSYNC_DB_PATH (posixsync.db),
// POSIXSYNC_API_BASE_URL, POSIXSYNC_LOG_LEVEL (info), POSIXSYNC_HISTORY_LIMIT (5),
// POSIXSYNC_API_RATE_LIMIT (10 requests per second, 0 disables pacing),
// POSIXSYNC_METRICS_TEXTFILE (unset disables metrics export).
func Load() (*Config, error) {
	_ = godotenv.Load()

	credentialsPath := "credentials.json"
	if v, ok := os.LookupEnv("POSIXSYNC_CREDENTIALS_PATH"); ok && v != "" {
		credentialsPath = v
	}
	credentialsDir := filepath.Dir(credentialsPath)

	tokenPath := filepath.Join(credentialsDir, "token.json")
	if v, ok := os.LookupEnv("POSIXSYNC_TOKEN_PATH"); ok && v != "" {
		tokenPath = v
	}

	readOnlyTokenPath := filepath.Join(credentialsDir, "token.readonly.json")
	if v, ok := os.LookupEnv("POSIXSYNC_READONLY_TOKEN_PATH"); ok && v != "" {
		readOnlyTokenPath = v
	}

	legacyTokenPath := filepath.Join(credentialsDir, "token.gob")
	if v, ok := os.LookupEnv("POSIXSYNC_LEGACY_TOKEN_PATH"); ok && v != "" {
		legacyTokenPath = v
	}

	targetsPath := "targets.yaml"
	if v, ok := os.LookupEnv("POSIXSYNC_TARGETS_PATH"); ok && v != "" {
		targetsPath = v
	}

	dbPath := "posixsync.db"
	if v, ok := os.LookupEnv("POSIXSYNC_DB_PATH"); ok {
		dbPath = v
	}

	apiBaseURL := defaultAPIBaseURL
	if v, ok := os.LookupEnv("POSIXSYNC_API_BASE_URL"); ok && v != "" {
		apiBaseURL = v
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("POSIXSYNC_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("POSIXSYNC_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	historyLimit := 5
	if v, ok := os.LookupEnv("POSIXSYNC_HISTORY_LIMIT"); ok && v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("POSIXSYNC_HISTORY_LIMIT must be a positive integer, got %q", v)
		}
		historyLimit = parsed
	}

	apiRateLimit := 10.0
	if v, ok := os.LookupEnv("POSIXSYNC_API_RATE_LIMIT"); ok && v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("POSIXSYNC_API_RATE_LIMIT must be a non-negative number, got %q", v)
		}
		apiRateLimit = parsed
	}

	metricsTextfile := os.Getenv("POSIXSYNC_METRICS_TEXTFILE")

	return &Config{
		CredentialsPath:   credentialsPath,
		TokenPath:         tokenPath,
		ReadOnlyTokenPath: readOnlyTokenPath,
		LegacyTokenPath:   legacyTokenPath,
		TargetsPath:       targetsPath,
		DBPath:            dbPath,
		APIBaseURL:        apiBaseURL,
		LogLevel:          logLevel,
		HistoryLimit:      historyLimit,
		APIRateLimit:      apiRateLimit,
		MetricsTextfile:   metricsTextfile,
	}, nil
}
