// Package config loads the perch configuration: defaults, merged with
// ~/.perch/config.yaml when present, then environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values exported for documentation and validation
const (
	DefaultBusCapacity       = 256
	DefaultUserEventBuffer   = 64
	DefaultCommandBuffer     = 256
	DefaultFrameInterval     = 16 * time.Millisecond
	DefaultLogLevel          = "info"
	DefaultProfileDebounceMS = 500
)

// Config is the complete perch configuration.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	LogDir   string `yaml:"log_dir"`
	LogLevel string `yaml:"log_level"`

	Bus       BusConfig       `yaml:"bus"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	UI        UIConfig        `yaml:"ui"`
	Profiles  ProfilesConfig  `yaml:"profiles"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// BusConfig sizes the broadcast ring buffer.
type BusConfig struct {
	Capacity int `yaml:"capacity"`
}

// BridgeConfig sizes the UI-facing channels.
type BridgeConfig struct {
	UserEventBuffer int `yaml:"user_event_buffer"`
	CommandBuffer   int `yaml:"command_buffer"`
}

// UIConfig controls the frame loop.
type UIConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// ProfilesConfig controls the profile file watcher.
type ProfilesConfig struct {
	WatchEnabled bool `yaml:"watch_enabled"`
	DebounceMS   int  `yaml:"debounce_ms"`
}

// TelemetryConfig toggles tracing output.
type TelemetryConfig struct {
	TracingEnabled bool `yaml:"tracing_enabled"`
}

// DefaultConfig returns the built-in defaults rooted under ~/.perch.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	base := filepath.Join(home, ".perch")

	return &Config{
		DataDir:  base,
		LogDir:   filepath.Join(base, "logs"),
		LogLevel: DefaultLogLevel,
		Bus:      BusConfig{Capacity: DefaultBusCapacity},
		Bridge: BridgeConfig{
			UserEventBuffer: DefaultUserEventBuffer,
			CommandBuffer:   DefaultCommandBuffer,
		},
		UI: UIConfig{FrameInterval: DefaultFrameInterval},
		Profiles: ProfilesConfig{
			WatchEnabled: true,
			DebounceMS:   DefaultProfileDebounceMS,
		},
		Telemetry: TelemetryConfig{TracingEnabled: false},
	}
}

// Load loads configuration from the default location with proper
// precedence: defaults, then ~/.perch/config.yaml, then env overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, filepath.Join(cfg.DataDir, "config.yaml")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading user config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Zero values are treated as
// unset, except for booleans, which consult the raw document.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override.DataDir != "" {
		base.DataDir = os.ExpandEnv(override.DataDir)
	}
	if override.LogDir != "" {
		base.LogDir = os.ExpandEnv(override.LogDir)
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.Bus.Capacity != 0 {
		base.Bus.Capacity = override.Bus.Capacity
	}
	if override.Bridge.UserEventBuffer != 0 {
		base.Bridge.UserEventBuffer = override.Bridge.UserEventBuffer
	}
	if override.Bridge.CommandBuffer != 0 {
		base.Bridge.CommandBuffer = override.Bridge.CommandBuffer
	}
	if override.UI.FrameInterval != 0 {
		base.UI.FrameInterval = override.UI.FrameInterval
	}
	if override.Profiles.DebounceMS != 0 {
		base.Profiles.DebounceMS = override.Profiles.DebounceMS
	}
	if boolFieldSet(raw, "profiles", "watch_enabled") {
		base.Profiles.WatchEnabled = override.Profiles.WatchEnabled
	}
	if boolFieldSet(raw, "telemetry", "tracing_enabled") {
		base.Telemetry.TracingEnabled = override.Telemetry.TracingEnabled
	}
}

// boolFieldSet reports whether the raw document explicitly contains the
// nested key path, so "false" can override a "true" default.
func boolFieldSet(raw map[string]any, path ...string) bool {
	node := any(raw)
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return false
		}
		node, ok = m[key]
		if !ok {
			return false
		}
	}
	return true
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PERCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PERCH_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("PERCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PERCH_BUS_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bus.Capacity = n
		}
	}
	if val, ok := envBool("PERCH_TRACING"); ok {
		cfg.Telemetry.TracingEnabled = val
	}
	if val, ok := envBool("PERCH_PROFILE_WATCH"); ok {
		cfg.Profiles.WatchEnabled = val
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Bus.Capacity < 1 {
		return fmt.Errorf("bus.capacity must be at least 1, got %d", c.Bus.Capacity)
	}
	if c.Bridge.UserEventBuffer < 1 {
		return fmt.Errorf("bridge.user_event_buffer must be at least 1, got %d", c.Bridge.UserEventBuffer)
	}
	if c.Bridge.CommandBuffer < 1 {
		return fmt.Errorf("bridge.command_buffer must be at least 1, got %d", c.Bridge.CommandBuffer)
	}
	if c.UI.FrameInterval <= 0 {
		return fmt.Errorf("ui.frame_interval must be positive, got %s", c.UI.FrameInterval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// Storage paths derived from DataDir.

// ConversationsDir is where per-conversation JSON files live.
func (c *Config) ConversationsDir() string { return filepath.Join(c.DataDir, "conversations") }

// ProfilesPath is the profile registry file.
func (c *Config) ProfilesPath() string { return filepath.Join(c.DataDir, "profiles.json") }

// McpServersPath is the MCP server registry file.
func (c *Config) McpServersPath() string { return filepath.Join(c.DataDir, "mcp_servers.json") }

// ModelsPath is the model catalog state file.
func (c *Config) ModelsPath() string { return filepath.Join(c.DataDir, "models.json") }

// SettingsPath is the app settings file.
func (c *Config) SettingsPath() string { return filepath.Join(c.DataDir, "settings.json") }

// SecretsPath is the API key store.
func (c *Config) SecretsPath() string { return filepath.Join(c.DataDir, "secrets", "keys.json") }
