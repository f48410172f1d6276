package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Charts    ChartsConfig    `yaml:"charts"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// LogConfig selects where logs go. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	AlsoStdout bool   `yaml:"also_stdout"`
}

type AnalyticsConfig struct {
	DefaultWindowDays int `yaml:"default_window_days"`
}

// ChartsConfig sizes the rendered chart cache. freecache rejects entries
// larger than 1/1024 of the cache, so small caches hold no charts.
type ChartsConfig struct {
	CacheMB int `yaml:"cache_mb"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file next to the config file, if present, is loaded into the
// environment first; variables already set are not replaced.
// Env vars use the prefix TEAMLIFT_ and underscore-separated paths:
//
//	TEAMLIFT_SERVER_HOST, TEAMLIFT_SERVER_PORT,
//	TEAMLIFT_DB_HOST, TEAMLIFT_DB_PORT, TEAMLIFT_DB_NAME,
//	TEAMLIFT_DB_USER, TEAMLIFT_DB_PASSWORD, TEAMLIFT_DB_SSLMODE,
//	TEAMLIFT_AUTH_API_KEY,
//	TEAMLIFT_TAILSCALE_ENABLED, TEAMLIFT_TAILSCALE_HOSTNAME, TEAMLIFT_TAILSCALE_STATE_DIR,
//	TEAMLIFT_LOG_LEVEL, TEAMLIFT_LOG_FILE,
//	TEAMLIFT_ANALYTICS_WINDOW_DAYS, TEAMLIFT_CHARTS_CACHE_MB
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", envFile, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TEAMLIFT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TEAMLIFT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TEAMLIFT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TEAMLIFT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("TEAMLIFT_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("TEAMLIFT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TEAMLIFT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TEAMLIFT_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("TEAMLIFT_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("TEAMLIFT_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("TEAMLIFT_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
	if v := os.Getenv("TEAMLIFT_TAILSCALE_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
	if v := os.Getenv("TEAMLIFT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TEAMLIFT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("TEAMLIFT_ANALYTICS_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Analytics.DefaultWindowDays = days
		}
	}
	if v := os.Getenv("TEAMLIFT_CHARTS_CACHE_MB"); v != "" {
		if mb, err := strconv.Atoi(v); err == nil {
			cfg.Charts.CacheMB = mb
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Analytics.DefaultWindowDays == 0 {
		cfg.Analytics.DefaultWindowDays = 30
	}
	if cfg.Charts.CacheMB == 0 {
		cfg.Charts.CacheMB = 64
	}
	if cfg.Tailscale.Enabled && cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "teamlift"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Analytics.DefaultWindowDays < 0 {
		return fmt.Errorf("analytics.default_window_days must not be negative")
	}
	if c.Charts.CacheMB < 0 {
		return fmt.Errorf("charts.cache_mb must not be negative")
	}
	return nil
}
