package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns valid defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Generator defaults
	if cfg.Generator.Store != "file" {
		t.Errorf("Expected file store, got %s", cfg.Generator.Store)
	}
	if cfg.Generator.OutputPath != "flight.csv" {
		t.Errorf("Expected flight.csv output, got %s", cfg.Generator.OutputPath)
	}

	// Sender defaults
	if cfg.Sender.Period() != time.Second {
		t.Errorf("Expected 1s period, got %v", cfg.Sender.Period())
	}
	if cfg.Sender.ExitOnComplete {
		t.Error("Expected exit-on-complete disabled by default")
	}
	if cfg.Sender.Sink.Type != "console" {
		t.Errorf("Expected console sink, got %s", cfg.Sender.Sink.Type)
	}
	if cfg.Sender.Retry.MaxRetries != 2 {
		t.Errorf("Expected 2 retries, got %d", cfg.Sender.Retry.MaxRetries)
	}

	// Database defaults
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default postgres port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("Expected ssl mode disable, got %s", cfg.Database.SSLMode)
	}

	// Metrics disabled by default
	if cfg.Metrics.Address != "" {
		t.Errorf("Expected metrics disabled, got %s", cfg.Metrics.Address)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}

// TestLoadNonExistentFile tests loading when config file doesn't exist.
func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Expected no error for non-existent file, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config, got nil")
	}
	if cfg.Sender.PeriodMillis != 1000 {
		t.Error("Did not get default config for non-existent file")
	}
}

// TestLoadValidConfig tests loading a valid JSON configuration file.
func TestLoadValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.json")

	testConfig := &Config{
		Sender: SenderConfig{
			PeriodMillis:   250,
			ExitOnComplete: true,
			Sink:           SinkConfig{Type: "udp", Address: "10.0.0.5:4000"},
		},
		Database: DatabaseConfig{
			Host:     "db.example.com",
			Port:     5433,
			Database: "testdb",
			Username: "testuser",
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Sender.Period() != 250*time.Millisecond {
		t.Errorf("Expected 250ms period, got %v", cfg.Sender.Period())
	}
	if !cfg.Sender.ExitOnComplete {
		t.Error("Expected exit-on-complete enabled")
	}
	if cfg.Sender.Sink.Address != "10.0.0.5:4000" {
		t.Errorf("Expected sink address 10.0.0.5:4000, got %s", cfg.Sender.Sink.Address)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Expected db.example.com, got %s", cfg.Database.Host)
	}
}

// TestLoadYAML tests that .yaml files are parsed as YAML over the defaults.
func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sim.yaml")

	yamlData := `
sender:
  period_ms: 500
  sink:
    type: json
database:
  host: yaml-host
`
	if err := os.WriteFile(configPath, []byte(yamlData), 0644); err != nil {
		t.Fatalf("Failed to write yaml config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load yaml config: %v", err)
	}

	if cfg.Sender.PeriodMillis != 500 {
		t.Errorf("Expected period 500, got %d", cfg.Sender.PeriodMillis)
	}
	if cfg.Sender.Sink.Type != "json" {
		t.Errorf("Expected json sink, got %s", cfg.Sender.Sink.Type)
	}
	if cfg.Database.Host != "yaml-host" {
		t.Errorf("Expected yaml-host, got %s", cfg.Database.Host)
	}
	// Unset keys keep their defaults
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Generator.Store != "file" {
		t.Errorf("Expected default store, got %s", cfg.Generator.Store)
	}
}

// TestLoadInvalidJSON tests error handling for malformed JSON.
func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write invalid config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

// TestSaveConfig tests saving configuration in both formats.
func TestSaveConfig(t *testing.T) {
	for _, name := range []string{"saved.json", "saved.yml"} {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), name)

			cfg := DefaultConfig()
			cfg.Sender.PeriodMillis = 2000
			cfg.Sender.Sink = SinkConfig{Type: "udp", Address: "radar.local:9000"}
			cfg.Logging.File = "/var/log/asv-sim.log"

			if err := cfg.Save(configPath); err != nil {
				t.Fatalf("Failed to save config: %v", err)
			}

			loaded, err := Load(configPath)
			if err != nil {
				t.Fatalf("Failed to load saved config: %v", err)
			}
			if loaded.Sender.PeriodMillis != 2000 {
				t.Errorf("Expected period 2000, got %d", loaded.Sender.PeriodMillis)
			}
			if loaded.Sender.Sink != cfg.Sender.Sink {
				t.Errorf("Expected sink %+v, got %+v", cfg.Sender.Sink, loaded.Sender.Sink)
			}
			if loaded.Logging.File != cfg.Logging.File {
				t.Errorf("Expected log file %s, got %s", cfg.Logging.File, loaded.Logging.File)
			}
		})
	}
}

// TestSaveConfigCreatesDirectory tests that Save creates missing directories.
func TestSaveConfigCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dir", "config.json")

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config with nested directory: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
}

// TestEnvironmentOverrides tests environment variable overrides.
func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ASV_SIM_DB_HOST", "env-db-host")
	t.Setenv("ASV_SIM_DB_PASSWORD", "env-password")
	t.Setenv("ASV_SIM_SINK_ADDR", "env-receiver:5000")
	t.Setenv("ASV_SIM_PERIOD_MS", "100")
	t.Setenv("ASV_SIM_METRICS_ADDR", ":9102")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	testCfg := DefaultConfig()
	testCfg.Database.Password = "original-password"
	if err := testCfg.Save(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.Host != "env-db-host" {
		t.Errorf("Expected env-db-host from env, got %s", cfg.Database.Host)
	}
	if cfg.Database.Password != "env-password" {
		t.Errorf("Expected env-password from env, got %s", cfg.Database.Password)
	}
	if cfg.Sender.Sink.Address != "env-receiver:5000" {
		t.Errorf("Expected sink address from env, got %s", cfg.Sender.Sink.Address)
	}
	if cfg.Sender.PeriodMillis != 100 {
		t.Errorf("Expected period 100 from env, got %d", cfg.Sender.PeriodMillis)
	}
	if cfg.Metrics.Address != ":9102" {
		t.Errorf("Expected metrics address from env, got %s", cfg.Metrics.Address)
	}
}

// TestValidate tests config validation.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"store both", func(c *Config) { c.Generator.Store = "both" }, false},
		{"bad store", func(c *Config) { c.Generator.Store = "s3" }, true},
		{"udp with address", func(c *Config) { c.Sender.Sink.Type = "udp" }, false},
		{"udp without address", func(c *Config) { c.Sender.Sink = SinkConfig{Type: "udp"} }, true},
		{"bad sink", func(c *Config) { c.Sender.Sink.Type = "kafka" }, true},
		{"zero period", func(c *Config) { c.Sender.PeriodMillis = 0 }, true},
		{"negative retries", func(c *Config) { c.Sender.Retry.MaxRetries = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
