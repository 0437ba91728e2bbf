package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
type Config struct {
	Generator GeneratorConfig `json:"generator" yaml:"generator"`
	Sender    SenderConfig    `json:"sender" yaml:"sender"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// GeneratorConfig contains defaults for the flight generator.
type GeneratorConfig struct {
	// OutputPath is the flight file written by the generator
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Store selects where generated flights go: "file", "db" or "both"
	Store string `json:"store" yaml:"store"`
}

// SenderConfig contains flight replay settings.
type SenderConfig struct {
	// PeriodMillis is the time between transmitted records (default: 1000)
	PeriodMillis int `json:"period_ms" yaml:"period_ms"`

	// ExitOnComplete ends the session after the last record instead of
	// waiting for the operator
	ExitOnComplete bool `json:"exit_on_complete" yaml:"exit_on_complete"`

	// Sink selects the record destination
	Sink SinkConfig `json:"sink" yaml:"sink"`

	// Retry bounds resends of a failed record within one period
	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// Period returns the transmit period as a duration.
func (s SenderConfig) Period() time.Duration {
	return time.Duration(s.PeriodMillis) * time.Millisecond
}

// SinkConfig describes where records are sent.
type SinkConfig struct {
	// Type is "console" (status lines only), "json" (JSON lines on stdout)
	// or "udp"
	Type string `json:"type" yaml:"type"`

	// Address is the receiver host:port for the udp sink
	Address string `json:"address" yaml:"address"`
}

// RetryConfig contains resend settings for network sinks.
type RetryConfig struct {
	// MaxRetries is the number of resends after a failure (0 = none)
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// InitialDelayMillis is the wait before the first resend
	InitialDelayMillis int `json:"initial_delay_ms" yaml:"initial_delay_ms"`

	// MaxDelayMillis caps the backoff
	MaxDelayMillis int `json:"max_delay_ms" yaml:"max_delay_ms"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string `json:"host" yaml:"host"`

	// Port is the database server port
	Port int `json:"port" yaml:"port"`

	// Database is the database name
	Database string `json:"database" yaml:"database"`

	// Username for database authentication
	Username string `json:"username" yaml:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password" yaml:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns"`
}

// MetricsConfig contains the sender's HTTP metrics endpoint settings.
type MetricsConfig struct {
	// Address is the listen address, e.g. ":9102" (empty = disabled)
	Address string `json:"address" yaml:"address"`
}

// LoggingConfig contains log file settings.
type LoggingConfig struct {
	// File is the log file path (empty = console only)
	File string `json:"file" yaml:"file"`

	// MaxSizeMB is the size at which the file is rotated
	MaxSizeMB int `json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is how long rotated files are kept
	MaxAgeDays int `json:"max_age_days" yaml:"max_age_days"`
}

// Load reads configuration from a JSON or YAML file.
// If the file doesn't exist, returns a default configuration.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration, choosing the format from the extension.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Generator: GeneratorConfig{
			OutputPath: "flight.csv",
			Store:      "file",
		},
		Sender: SenderConfig{
			PeriodMillis: 1000,
			Sink: SinkConfig{
				Type:    "console",
				Address: "127.0.0.1:30003",
			},
			Retry: RetryConfig{
				MaxRetries:         2,
				InitialDelayMillis: 50,
				MaxDelayMillis:     200,
			},
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "asvsim",
			Username:     "asvsim",
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Generator.Store {
	case "file", "db", "both":
	default:
		return fmt.Errorf("invalid generator store %q (want file, db or both)", c.Generator.Store)
	}
	switch c.Sender.Sink.Type {
	case "console", "json":
	case "udp":
		if c.Sender.Sink.Address == "" {
			return fmt.Errorf("udp sink requires an address")
		}
	default:
		return fmt.Errorf("invalid sink type %q (want console, json or udp)", c.Sender.Sink.Type)
	}
	if c.Sender.PeriodMillis <= 0 {
		return fmt.Errorf("sender period must be positive, got %d ms", c.Sender.PeriodMillis)
	}
	if c.Sender.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry count must not be negative, got %d", c.Sender.Retry.MaxRetries)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if dbPassword := os.Getenv("ASV_SIM_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if dbHost := os.Getenv("ASV_SIM_DB_HOST"); dbHost != "" {
		c.Database.Host = dbHost
	}
	if addr := os.Getenv("ASV_SIM_SINK_ADDR"); addr != "" {
		c.Sender.Sink.Address = addr
	}
	if period := os.Getenv("ASV_SIM_PERIOD_MS"); period != "" {
		if ms, err := strconv.Atoi(period); err == nil {
			c.Sender.PeriodMillis = ms
		}
	}
	if addr := os.Getenv("ASV_SIM_METRICS_ADDR"); addr != "" {
		c.Metrics.Address = addr
	}
	if file := os.Getenv("ASV_SIM_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
}
