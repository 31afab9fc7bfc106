package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backend modes.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// BackendConfig selects where list data comes from.
type BackendConfig struct {
	// Mode is "local" (SQLite store) or "remote" (CRM HTTP API).
	Mode string `mapstructure:"mode" yaml:"mode"`

	// BaseURL is the root URL of the CRM API in remote mode.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// DBPath is the SQLite database used in local mode and for
	// notifications, dismissals and intake state in both modes.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// IntakeConfig describes one IMAP mailbox polled for new leads.
// The password lives in the keyring under "intake:<name>".
type IntakeConfig struct {
	Name            string `mapstructure:"name" yaml:"name"`
	Host            string `mapstructure:"host" yaml:"host"`
	Port            string `mapstructure:"port" yaml:"port"`
	Username        string `mapstructure:"username" yaml:"username"`
	TLS             bool   `mapstructure:"tls" yaml:"tls"`
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme            string `mapstructure:"theme" yaml:"theme"`
	PageSize         int    `mapstructure:"page_size" yaml:"page_size"`
	SearchDebounceMS int    `mapstructure:"search_debounce_ms" yaml:"search_debounce_ms"`

	// Queries maps a resource to the query string its screen opens with,
	// e.g. clients: "sort=name&status=active".
	Queries map[string]string `mapstructure:"queries" yaml:"queries,omitempty"`
}

// UserConfig identifies the signed-in user for per-user notices.
type UserConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
}

// LogConfig controls the file logger. The terminal belongs to the UI.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Display DisplayConfig  `mapstructure:"display" yaml:"display"`
	User    UserConfig     `mapstructure:"user" yaml:"user"`
	Log     LogConfig      `mapstructure:"log" yaml:"log"`
	Intake  []IntakeConfig `mapstructure:"intake" yaml:"intake"`
}

// ConfigDir returns ~/.config/crm-console.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "crm-console")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/crm-console/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{
			Mode:       BackendLocal,
			DBPath:     filepath.Join(ConfigDir(), "crm.db"),
			TimeoutSec: 30,
		},
		Display: DisplayConfig{
			Theme:            "default",
			PageSize:         15,
			SearchDebounceMS: 300,
		},
		Log: LogConfig{
			Level: "info",
		},
		Intake: []IntakeConfig{},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with CRM_ override file values
// (CRM_BACKEND_MODE, CRM_DISPLAY_PAGE_SIZE, ...). If the file does not
// exist, defaults are returned.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("backend.mode", def.Backend.Mode)
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.db_path", def.Backend.DBPath)
	v.SetDefault("backend.timeout_sec", def.Backend.TimeoutSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.page_size", def.Display.PageSize)
	v.SetDefault("display.search_debounce_ms", def.Display.SearchDebounceMS)
	v.SetDefault("user.id", "")
	v.SetDefault("user.name", "")
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for i := range cfg.Intake {
		if cfg.Intake[i].PollIntervalSec == 0 {
			cfg.Intake[i].PollIntervalSec = 300
		}
		if cfg.Intake[i].Port == "" {
			cfg.Intake[i].Port = "993"
		}
		if !cfg.Intake[i].Enabled {
			// Viper unmarshals missing bools as false; treat unset as true.
			key := fmt.Sprintf("intake.%d.enabled", i)
			if !v.IsSet(key) {
				cfg.Intake[i].Enabled = true
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *AppConfig) Validate() error {
	switch c.Backend.Mode {
	case BackendLocal:
	case BackendRemote:
		if c.Backend.BaseURL == "" {
			return errors.New("backend.base_url is required in remote mode")
		}
	default:
		return fmt.Errorf("unknown backend.mode %q", c.Backend.Mode)
	}
	if c.Display.PageSize < 1 || c.Display.PageSize > 100 {
		return fmt.Errorf("display.page_size must be within 1..100, got %d", c.Display.PageSize)
	}
	if c.Display.SearchDebounceMS < 0 {
		return fmt.Errorf("display.search_debounce_ms must not be negative")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("display", cfg.Display)
	v.Set("user", cfg.User)
	v.Set("log", cfg.Log)
	v.Set("intake", cfg.Intake)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
