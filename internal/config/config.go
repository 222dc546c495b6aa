package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRemoteURL is the public catalog service.
const DefaultRemoteURL = "https://selact.dev"

// Config represents the selact configuration.
type Config struct {
	Remote  RemoteConfig  `yaml:"remote"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// RemoteConfig holds remote catalog settings.
type RemoteConfig struct {
	BaseURL      string `yaml:"base_url"`       // Catalog service address (empty = disabled)
	PageSize     int    `yaml:"page_size"`      // Results per search page
	DebounceMs   int    `yaml:"debounce_ms"`    // Search input debounce
	TimeoutMs    int    `yaml:"timeout_ms"`     // Per-request timeout
	SeedPageSize int    `yaml:"seed_page_size"` // Entries installed by init when no curated list exists
}

// CatalogConfig holds local catalog settings.
type CatalogConfig struct {
	RemoteAddBubble bool    `yaml:"remote_add_bubble"` // Show added remote entries in the bubble
	RemoteAddPanel  bool    `yaml:"remote_add_panel"`  // Show added remote entries in the panel
	ConfirmWindowMs int     `yaml:"confirm_window_ms"` // Second-activation window for delete
	BubbleOffsetX   float64 `yaml:"bubble_offset_x"`   // Default bubble offset from the anchor
	BubbleOffsetY   float64 `yaml:"bubble_offset_y"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // SQLite file (empty = data dir default)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (empty = stderr)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL:      DefaultRemoteURL,
			PageSize:     10,
			DebounceMs:   500,
			TimeoutMs:    10000,
			SeedPageSize: 50,
		},
		Catalog: CatalogConfig{
			RemoteAddBubble: true,
			RemoteAddPanel:  true,
			ConfirmWindowMs: 250,
			BubbleOffsetX:   20,
			BubbleOffsetY:   20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	paths := DefaultPaths()
	return c.SaveToFile(paths.ConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Durations derived from the millisecond settings.
func (r RemoteConfig) Debounce() time.Duration { return time.Duration(r.DebounceMs) * time.Millisecond }
func (r RemoteConfig) Timeout() time.Duration  { return time.Duration(r.TimeoutMs) * time.Millisecond }
func (c CatalogConfig) ConfirmWindow() time.Duration {
	return time.Duration(c.ConfirmWindowMs) * time.Millisecond
}

// DBPath returns the configured database path or the data dir default.
func (c *Config) DBPath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return DefaultPaths().DatabaseFile()
}

// Get retrieves a configuration value by dot-separated key.
// For example: "remote.page_size" or "catalog.remote_add_bubble"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "remote":
		return c.getRemoteField(field)
	case "catalog":
		return c.getCatalogField(field)
	case "storage":
		return c.getStorageField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "remote":
		return c.setRemoteField(field, value)
	case "catalog":
		return c.setCatalogField(field, value)
	case "storage":
		return c.setStorageField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getRemoteField(field string) (string, error) {
	switch field {
	case "base_url":
		return c.Remote.BaseURL, nil
	case "page_size":
		return strconv.Itoa(c.Remote.PageSize), nil
	case "debounce_ms":
		return strconv.Itoa(c.Remote.DebounceMs), nil
	case "timeout_ms":
		return strconv.Itoa(c.Remote.TimeoutMs), nil
	case "seed_page_size":
		return strconv.Itoa(c.Remote.SeedPageSize), nil
	default:
		return "", fmt.Errorf("unknown field: remote.%s", field)
	}
}

func (c *Config) setRemoteField(field, value string) error {
	switch field {
	case "base_url":
		if value != "" && !isValidBaseURL(value) {
			return fmt.Errorf("invalid base_url: %s (must be an http or https URL)", value)
		}
		c.Remote.BaseURL = value
	case "page_size":
		v, err := parsePositive(field, value)
		if err != nil {
			return err
		}
		c.Remote.PageSize = v
	case "debounce_ms":
		v, err := parseNonNegative(field, value)
		if err != nil {
			return err
		}
		c.Remote.DebounceMs = v
	case "timeout_ms":
		v, err := parsePositive(field, value)
		if err != nil {
			return err
		}
		c.Remote.TimeoutMs = v
	case "seed_page_size":
		v, err := parsePositive(field, value)
		if err != nil {
			return err
		}
		c.Remote.SeedPageSize = v
	default:
		return fmt.Errorf("unknown field: remote.%s", field)
	}
	return nil
}

func (c *Config) getCatalogField(field string) (string, error) {
	switch field {
	case "remote_add_bubble":
		return strconv.FormatBool(c.Catalog.RemoteAddBubble), nil
	case "remote_add_panel":
		return strconv.FormatBool(c.Catalog.RemoteAddPanel), nil
	case "confirm_window_ms":
		return strconv.Itoa(c.Catalog.ConfirmWindowMs), nil
	case "bubble_offset_x":
		return strconv.FormatFloat(c.Catalog.BubbleOffsetX, 'g', -1, 64), nil
	case "bubble_offset_y":
		return strconv.FormatFloat(c.Catalog.BubbleOffsetY, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unknown field: catalog.%s", field)
	}
}

func (c *Config) setCatalogField(field, value string) error {
	switch field {
	case "remote_add_bubble":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for remote_add_bubble: %w", err)
		}
		c.Catalog.RemoteAddBubble = v
	case "remote_add_panel":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for remote_add_panel: %w", err)
		}
		c.Catalog.RemoteAddPanel = v
	case "confirm_window_ms":
		v, err := parsePositive(field, value)
		if err != nil {
			return err
		}
		c.Catalog.ConfirmWindowMs = v
	case "bubble_offset_x", "bubble_offset_y":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field, err)
		}
		if field == "bubble_offset_x" {
			c.Catalog.BubbleOffsetX = v
		} else {
			c.Catalog.BubbleOffsetY = v
		}
	default:
		return fmt.Errorf("unknown field: catalog.%s", field)
	}
	return nil
}

func (c *Config) getStorageField(field string) (string, error) {
	switch field {
	case "db_path":
		return c.Storage.DBPath, nil
	default:
		return "", fmt.Errorf("unknown field: storage.%s", field)
	}
}

func (c *Config) setStorageField(field, value string) error {
	switch field {
	case "db_path":
		c.Storage.DBPath = value
	default:
		return fmt.Errorf("unknown field: storage.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func parsePositive(field, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", field, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", field)
	}
	return v, nil
}

func parseNonNegative(field, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", field, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s: must be non-negative", field)
	}
	return v, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Remote.BaseURL != "" && !isValidBaseURL(c.Remote.BaseURL) {
		return fmt.Errorf("remote.base_url must be an http or https URL (got: %s)", c.Remote.BaseURL)
	}
	if c.Remote.PageSize <= 0 {
		return errors.New("remote.page_size must be > 0")
	}
	if c.Remote.DebounceMs < 0 {
		return errors.New("remote.debounce_ms must be >= 0")
	}
	if c.Remote.TimeoutMs <= 0 {
		return errors.New("remote.timeout_ms must be > 0")
	}
	if c.Remote.SeedPageSize <= 0 {
		return errors.New("remote.seed_page_size must be > 0")
	}
	if c.Catalog.ConfirmWindowMs <= 0 {
		return errors.New("catalog.confirm_window_ms must be > 0")
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidBaseURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SELACT_REMOTE_URL"); v != "" {
		c.Remote.BaseURL = v
	}
	if v := os.Getenv("SELACT_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("SELACT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("SELACT_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("SELACT_LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"remote.base_url",
		"remote.page_size",
		"remote.debounce_ms",
		"remote.timeout_ms",
		"remote.seed_page_size",
		"catalog.remote_add_bubble",
		"catalog.remote_add_panel",
		"catalog.confirm_window_ms",
		"catalog.bubble_offset_x",
		"catalog.bubble_offset_y",
		"storage.db_path",
		"log.level",
		"log.file",
	}
}
