// Package config loads the navsync process configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration. The per-target crawl configuration
// lives in a separate document at NavConfigPath.
type Config struct {
	DataDir        string        `yaml:"data_dir"`
	NavConfigPath  string        `yaml:"nav_config"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	SwitchInterval time.Duration `yaml:"switch_interval"`
	StatusInterval time.Duration `yaml:"status_interval"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
	ActionDelay    time.Duration `yaml:"action_delay"`
	AbortCorner    float64       `yaml:"abort_corner"`
	LogLevel       string        `yaml:"log_level"`
	LogFile        string        `yaml:"log_file"`
}

// Error is a configuration validation failure.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNoDataDir   Error = "no data directory: set data_dir, NAVSYNC_DATA_DIR or --data-dir"
	ErrBadInterval Error = "intervals and timeouts must be positive"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:        defaultDataDir(),
		PollInterval:   500 * time.Millisecond,
		SwitchInterval: 2 * time.Second,
		StatusInterval: 5 * time.Second,
		CallTimeout:    2 * time.Second,
		ActionDelay:    300 * time.Millisecond,
		AbortCorner:    50,
		LogLevel:       "info",
	}
}

// Load applies, in order: defaults, the YAML file at path (optional; a
// missing file is not an error), then NAVSYNC_* environment overrides.
// An empty path means DefaultPath().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	loadFromEnv(cfg)
	if cfg.NavConfigPath == "" && cfg.DataDir != "" {
		cfg.NavConfigPath = filepath.Join(cfg.DataDir, "navconfig.yaml")
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/navsync/config.yaml or
// ~/.config/navsync/config.yaml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "navsync", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "navsync", "config.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".navsync")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if dir := os.Getenv("NAVSYNC_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if level := os.Getenv("NAVSYNC_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if nav := os.Getenv("NAVSYNC_NAV_CONFIG"); nav != "" {
		cfg.NavConfigPath = nav
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrNoDataDir
	}
	for _, d := range []time.Duration{c.PollInterval, c.SwitchInterval, c.StatusInterval, c.CallTimeout} {
		if d <= 0 {
			return ErrBadInterval
		}
	}
	if c.ActionDelay < 0 {
		return ErrBadInterval
	}
	return nil
}

// StateDir is where State Records live.
func (c *Config) StateDir() string { return filepath.Join(c.DataDir, "state") }

// IndexDir is where indexes live.
func (c *Config) IndexDir() string { return filepath.Join(c.DataDir, "index") }
