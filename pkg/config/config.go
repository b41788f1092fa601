package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// HelperConfigPath is the only configuration file the privileged helper
// reads. The helper runs as root on behalf of unprivileged users, so it
// must never honor user-controlled paths or environment overrides.
const HelperConfigPath = "/etc/starbind/config.yaml"

// Config represents the starbind configuration.
//
// This structure captures static configuration for both the user CLI and
// the privileged helper:
//   - API endpoints (authentication, data management, site capabilities)
//   - Site identity (which node and site this host belongs to)
//   - Storage layout (storage root, staging mode, sandbox directories)
//   - Helper invocation (helper binary and sudo paths)
//   - Lock directory for per-user-per-dataset operation locks
//   - Logging, metrics, and telemetry
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (STARBIND_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
//
// The privileged helper only uses layers 3 and 4 (see LoadHelper).
type Config struct {
	// API configures the remote service endpoints
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Site identifies which node and site this host belongs to.
	// The resolver uses it to prefer replicas on local storage.
	Site SiteConfig `mapstructure:"site" yaml:"site"`

	// Storage configures the storage root and the per-user sandbox layout
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Helper configures how the CLI invokes the privileged helper
	Helper HelperConfig `mapstructure:"helper" yaml:"helper"`

	// Lock configures the operation lock directory
	Lock LockConfig `mapstructure:"lock" yaml:"lock"`

	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus textfile metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// APIConfig contains the remote service endpoints the CLI talks to.
type APIConfig struct {
	// AuthnURL is the base URL of the authentication service that issues
	// device-flow and exchanged tokens.
	AuthnURL string `mapstructure:"authn_url" validate:"required,url" yaml:"authn_url"`

	// DataManagementURL is the base URL of the data management service
	// used to list namespaces and locate file replicas.
	DataManagementURL string `mapstructure:"data_management_url" validate:"required,url" yaml:"data_management_url"`

	// SiteCapabilitiesURL is the base URL of the site capabilities service
	// that describes nodes, sites, and storage areas.
	SiteCapabilitiesURL string `mapstructure:"site_capabilities_url" validate:"required,url" yaml:"site_capabilities_url"`

	// Timeout is the per-request HTTP timeout
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" validate:"required,gt=0" yaml:"timeout"`
}

// SiteConfig identifies the node and site this host belongs to.
// Both are optional: without them the resolver cannot break ties between
// multiple matching replicas, but single-replica lookups still work.
type SiteConfig struct {
	// Node is the site-capabilities node name of this host's storage
	Node string `mapstructure:"node" yaml:"node,omitempty"`

	// Site is the site name within the node
	Site string `mapstructure:"site" yaml:"site,omitempty"`
}

// StorageConfig configures the storage root and the sandbox layout
// created beneath each user's home directory.
type StorageConfig struct {
	// Root is the absolute path the storage paths resolve under.
	// Example: /skadata
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	// StagingMode selects how the data file is exposed.
	// Valid values: twoStage (bindfs staging dir plus a kernel bind of the
	// single file) or direct (bindfs of the parent directory only).
	StagingMode string `mapstructure:"staging_mode" validate:"required,oneof=twoStage direct" yaml:"staging_mode"`

	// BindsDir is the staging directory name under the user's home.
	// Default: .binds
	BindsDir string `mapstructure:"binds_dir" validate:"required" yaml:"binds_dir"`

	// ProjectsDir is the user-facing directory name under the user's home.
	// Default: projects
	ProjectsDir string `mapstructure:"projects_dir" validate:"required" yaml:"projects_dir"`
}

// HelperConfig configures how the CLI invokes the privileged helper.
type HelperConfig struct {
	// Path is the helper binary path passed to sudo.
	// Default: /usr/local/bin/starbind-helper
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// SudoPath is the sudo binary path.
	// Default: /usr/bin/sudo
	SudoPath string `mapstructure:"sudo_path" validate:"required" yaml:"sudo_path"`
}

// LockConfig configures the operation lock directory.
type LockConfig struct {
	// Dir is the directory holding per-user-per-dataset lock files.
	// Default: /run/lock/starbind
	Dir string `mapstructure:"dir" validate:"required" yaml:"dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures Prometheus textfile metrics. The helper is a
// one-shot process, so instead of serving /metrics it writes a textfile
// for the node exporter's textfile collector to pick up.
type MetricsConfig struct {
	// TextfileDir is the node exporter textfile collector directory,
	// e.g. /var/lib/node_exporter/textfile_collector.
	// Empty (the default) disables metrics output.
	TextfileDir string `mapstructure:"textfile_dir" yaml:"textfile_dir,omitempty"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// 1.0 = sample all traces, 0.5 = sample 50%, 0.0 = no sampling
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (STARBIND_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location under the user's config
// directory.
func Load(configPath string) (*Config, error) {
	return load(configPath, true)
}

func load(configPath string, allowEnv bool) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath, allowEnv)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadHelper loads the helper's configuration from the fixed system path.
// Missing file falls back to defaults; a present but invalid file is an
// error, never silently ignored.
func LoadHelper() (*Config, error) {
	return LoadHelperFrom(HelperConfigPath)
}

// LoadHelperFrom loads helper configuration from an explicit path.
//
// Unlike Load, STARBIND_* environment variables are ignored: the helper
// runs as root via sudo, and a kept environment (sudoers env_keep) must
// not be able to redefine the storage root or any other setting the
// root-owned file pins down.
func LoadHelperFrom(path string) (*Config, error) {
	return load(path, false)
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly
// instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  starbind config init\n\n"+
				"Or specify a custom config file:\n"+
				"  starbind <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  starbind config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Restricted permissions: the file does not hold tokens, but it does
	// name the endpoints and sudo path this host trusts.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file
// settings. allowEnv is false on the helper path, where environment
// overrides are forbidden.
func setupViper(v *viper.Viper, configPath string, allowEnv bool) {
	if allowEnv {
		// Environment variables use the STARBIND_ prefix and underscores
		// Example: STARBIND_LOGGING_LEVEL=DEBUG
		v.SetEnvPrefix("STARBIND")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search order: $XDG_CONFIG_HOME/starbind/config.yaml, then the
		// system-wide file the helper uses.
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath(filepath.Dir(HelperConfigPath))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "starbind")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "starbind")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// config init command).
func GetConfigDir() string {
	return getConfigDir()
}
