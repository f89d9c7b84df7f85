// Package config loads the attendant's configuration from defaults, an optional
// YAML file and GITLAB_ATTENDANT_ environment variables. Command-line flags are
// layered on top by the caller before Validate is called.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/gitlab-attendant/internal/logging"
)

// Environment variable names.
const (
	EnvHost           = "GITLAB_ATTENDANT_HOST"
	EnvToken          = "GITLAB_ATTENDANT_TOKEN"
	EnvInterval       = "GITLAB_ATTENDANT_INTERVAL"
	EnvRunImmediately = "GITLAB_ATTENDANT_RUN_IMMEDIATELY"
	EnvMRStaleDays    = "GITLAB_ATTENDANT_MR_STALE_DAYS"
	EnvIssueDueDays   = "GITLAB_ATTENDANT_ISSUE_DUE_DAYS"
	EnvLogLevel       = "GITLAB_ATTENDANT_LOG_LEVEL"
	EnvLogFormat      = "GITLAB_ATTENDANT_LOG_FORMAT"
	EnvJournalPath    = "GITLAB_ATTENDANT_JOURNAL_PATH"
)

// Config holds the attendant configuration. It is read once at startup and
// passed by value to the services; nothing mutates it afterwards.
type Config struct {
	Host                  string
	Token                 string
	Interval              time.Duration
	RunImmediately        bool // Run the first tick at startup instead of after one interval.
	MergeRequestStaleDays int
	IssueDueDays          int
	LogLevel              string
	LogFormat             string
	JournalPath           string // Empty disables the action journal.
}

// fileConfig mirrors Config for YAML decoding. Pointers distinguish "absent"
// from zero values so the file only overrides what it sets.
type fileConfig struct {
	Host                  string `yaml:"host"`
	Token                 string `yaml:"token"`
	Interval              string `yaml:"interval"`
	RunImmediately        *bool  `yaml:"run_immediately"`
	MergeRequestStaleDays *int   `yaml:"merge_request_stale_days"`
	IssueDueDays          *int   `yaml:"issue_due_days"`
	LogLevel              string `yaml:"log_level"`
	LogFormat             string `yaml:"log_format"`
	JournalPath           string `yaml:"journal_path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interval:              24 * time.Hour,
		MergeRequestStaleDays: 7,
		IssueDueDays:          7,
		LogLevel:              "info",
		LogFormat:             logging.FormatJSON,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path
// is empty) and environment variables, in that order of precedence.
// The result is not validated; call Validate once flags have been applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.Host != "" {
		c.Host = fc.Host
	}
	if fc.Token != "" {
		c.Token = fc.Token
	}
	if fc.Interval != "" {
		interval, err := ParseInterval(fc.Interval)
		if err != nil {
			return fmt.Errorf("config file %s: interval: %w", path, err)
		}
		c.Interval = interval
	}
	if fc.RunImmediately != nil {
		c.RunImmediately = *fc.RunImmediately
	}
	if fc.MergeRequestStaleDays != nil {
		c.MergeRequestStaleDays = *fc.MergeRequestStaleDays
	}
	if fc.IssueDueDays != nil {
		c.IssueDueDays = *fc.IssueDueDays
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		c.LogFormat = fc.LogFormat
	}
	if fc.JournalPath != "" {
		c.JournalPath = fc.JournalPath
	}

	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok && v != "" {
		c.Host = v
	}
	if v, ok := lookup(EnvToken); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookup(EnvInterval); ok && v != "" {
		interval, err := ParseInterval(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInterval, err)
		}
		c.Interval = interval
	}
	if v, ok := lookup(EnvRunImmediately); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s has invalid boolean %q: %w", EnvRunImmediately, v, err)
		}
		c.RunImmediately = b
	}
	if v, ok := lookup(EnvMRStaleDays); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s has invalid integer %q: %w", EnvMRStaleDays, v, err)
		}
		c.MergeRequestStaleDays = n
	}
	if v, ok := lookup(EnvIssueDueDays); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s has invalid integer %q: %w", EnvIssueDueDays, v, err)
		}
		c.IssueDueDays = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := lookup(EnvJournalPath); ok && v != "" {
		c.JournalPath = v
	}
	return nil
}

// maxIntervalHours is the largest hour count a time.Duration can hold.
const maxIntervalHours = int64(math.MaxInt64 / time.Hour)

// ParseInterval accepts either a Go duration ("90m", "12h") or a bare number
// of hours ("24"), the form the attendant's --interval has always taken.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if hours, err := strconv.ParseInt(s, 10, 64); err == nil {
		if hours > maxIntervalHours || hours < -maxIntervalHours {
			return 0, fmt.Errorf("invalid interval %q: at most %d hours", s, maxIntervalHours)
		}
		return time.Duration(hours) * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: want hours or a duration such as 12h", s)
	}
	return d, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, fmt.Errorf("gitlab host is required (--host or %s)", EnvHost))
	}
	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, fmt.Errorf("gitlab token is required (--token or %s)", EnvToken))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.MergeRequestStaleDays <= 0 {
		errs = append(errs, fmt.Errorf("merge request stale days must be positive, got %d", c.MergeRequestStaleDays))
	}
	if c.IssueDueDays <= 0 {
		errs = append(errs, fmt.Errorf("issue due days must be positive, got %d", c.IssueDueDays))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != logging.FormatJSON && f != logging.FormatText {
		errs = append(errs, fmt.Errorf("unknown log format %q (want json or text)", c.LogFormat))
	}

	return errors.Join(errs...)
}

// HasJournal reports whether an action journal is configured.
func (c *Config) HasJournal() bool {
	return c.JournalPath != ""
}
