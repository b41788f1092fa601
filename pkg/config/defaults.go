package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyAPIDefaults(&cfg.API)
	applyStorageDefaults(&cfg.Storage)
	applyHelperDefaults(&cfg.Helper)
	applyLockDefaults(&cfg.Lock)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.AuthnURL == "" {
		cfg.AuthnURL = "https://authn.srcdev.skao.int/api/v1"
	}
	if cfg.DataManagementURL == "" {
		cfg.DataManagementURL = "https://data-management.srcdev.skao.int/api/v1"
	}
	if cfg.SiteCapabilitiesURL == "" {
		cfg.SiteCapabilitiesURL = "https://site-capabilities.srcdev.skao.int/api/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Root == "" {
		cfg.Root = "/skadata"
	}
	if cfg.StagingMode == "" {
		cfg.StagingMode = "twoStage"
	}
	if cfg.BindsDir == "" {
		cfg.BindsDir = ".binds"
	}
	if cfg.ProjectsDir == "" {
		cfg.ProjectsDir = "projects"
	}
}

func applyHelperDefaults(cfg *HelperConfig) {
	if cfg.Path == "" {
		cfg.Path = "/usr/local/bin/starbind-helper"
	}
	if cfg.SudoPath == "" {
		cfg.SudoPath = "/usr/bin/sudo"
	}
}

func applyLockDefaults(cfg *LockConfig) {
	if cfg.Dir == "" {
		cfg.Dir = "/run/lock/starbind"
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// Metrics take no defaults: an empty textfile_dir means metrics are off,
// and a node-exporter path is too deployment-specific to guess.

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}

	ApplyDefaults(cfg)
	return cfg
}
