package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every GITLAB_ATTENDANT_ env var that Load() reads.
var allConfigKeys = []string{
	EnvHost,
	EnvToken,
	EnvInterval,
	EnvRunImmediately,
	EnvMRStaleDays,
	EnvIssueDueDays,
	EnvLogLevel,
	EnvLogFormat,
	EnvJournalPath,
}

// isolateConfigEnv saves and unsets all GITLAB_ATTENDANT_ env vars so tests
// don't inherit values from the host environment.
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

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "attendant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Interval)
	assert.False(t, cfg.RunImmediately)
	assert.Equal(t, 7, cfg.MergeRequestStaleDays)
	assert.Equal(t, 7, cfg.IssueDueDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.JournalPath)
	assert.False(t, cfg.HasJournal())
}

func TestLoad_Env(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv(EnvHost, "gitlab.internal")
	t.Setenv(EnvToken, "glpat-test")
	t.Setenv(EnvInterval, "12")
	t.Setenv(EnvRunImmediately, "true")
	t.Setenv(EnvMRStaleDays, "3")
	t.Setenv(EnvIssueDueDays, "10")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "text")
	t.Setenv(EnvJournalPath, "/tmp/journal.db")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "gitlab.internal", cfg.Host)
	assert.Equal(t, "glpat-test", cfg.Token)
	assert.Equal(t, 12*time.Hour, cfg.Interval)
	assert.True(t, cfg.RunImmediately)
	assert.Equal(t, 3, cfg.MergeRequestStaleDays)
	assert.Equal(t, 10, cfg.IssueDueDays)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.HasJournal())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfigFile(t, `
host: https://gitlab.example.com
token: from-file
interval: 90m
run_immediately: true
merge_request_stale_days: 14
issue_due_days: 0
`)
	t.Setenv(EnvToken, "from-env")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.example.com", cfg.Host)
	assert.Equal(t, "from-env", cfg.Token, "env overrides file")
	assert.Equal(t, 90*time.Minute, cfg.Interval)
	assert.True(t, cfg.RunImmediately)
	assert.Equal(t, 14, cfg.MergeRequestStaleDays)
	assert.Equal(t, 0, cfg.IssueDueDays, "explicit zero in file is kept")
	assert.Error(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	isolateConfigEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	isolateConfigEnv(t)
	path := writeConfigFile(t, "host: [unterminated")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_InvalidEnv(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "interval", key: EnvInterval, val: "soon"},
		{name: "run immediately", key: EnvRunImmediately, val: "maybe"},
		{name: "mr stale days", key: EnvMRStaleDays, val: "seven"},
		{name: "issue due days", key: EnvIssueDueDays, val: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "24", want: 24 * time.Hour},
		{in: " 1 ", want: time.Hour},
		{in: "30m", want: 30 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseInterval("daily")
	assert.Error(t, err)
}

func TestParseInterval_HourOverflow(t *testing.T) {
	got, err := ParseInterval("2562047")
	require.NoError(t, err)
	assert.Positive(t, got)

	for _, in := range []string{"2562048", "-2562048", "9223372036854775807", "99999999999999999999"} {
		_, err := ParseInterval(in)
		assert.Error(t, err, in)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Host = "gitlab.local"
		cfg.Token = "tok"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing host", mutate: func(c *Config) { c.Host = " " }, wantErr: "host is required"},
		{name: "missing token", mutate: func(c *Config) { c.Token = "" }, wantErr: "token is required"},
		{name: "zero interval", mutate: func(c *Config) { c.Interval = 0 }, wantErr: "interval must be positive"},
		{name: "negative mr days", mutate: func(c *Config) { c.MergeRequestStaleDays = -1 }, wantErr: "merge request stale days"},
		{name: "zero issue days", mutate: func(c *Config) { c.IssueDueDays = 0 }, wantErr: "issue due days"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "unknown log level"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Config{}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
	assert.Contains(t, err.Error(), "token is required")
	assert.Contains(t, err.Error(), "interval must be positive")
}
