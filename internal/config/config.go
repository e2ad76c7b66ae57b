// Package config builds the immutable configuration value the pipeline
// components are constructed with. Connection parameters come from the YAML
// file with environment-variable fallback; nothing reads ambient process
// state after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	Journal  JournalConfig  `yaml:"journal"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds the relational store connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"     validate:"required"`
	Port     int    `yaml:"port"     validate:"min=1,max=65535"`
	User     string `yaml:"user"     validate:"required"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"     validate:"required"`
	SSLMode  string `yaml:"sslMode"  validate:"omitempty,oneof=disable require verify-ca verify-full"`
	MaxConns int    `yaml:"maxConns" validate:"omitempty,min=1"`
}

// DSN renders the pgx connection string.
func (d DatabaseConfig) DSN() string {
	ssl := d.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, ssl)
}

// ScrapeConfig holds the fetch-loop settings.
type ScrapeConfig struct {
	// Target usernames, fetched strictly in this order.
	Usernames []string `yaml:"usernames" validate:"required,min=1,dive,required"`
	// Seconds between consecutive provider requests.
	RequestDelaySeconds int `yaml:"requestDelaySeconds" validate:"min=0"`
	// Per-request HTTP timeout.
	TimeoutSeconds int    `yaml:"timeoutSeconds" validate:"omitempty,min=1"`
	UserAgent      string `yaml:"userAgent"`
	// When true, each successful fetch is persisted immediately in its own
	// transaction instead of one batch at the end, so an interrupted run
	// keeps the profiles fetched so far.
	Incremental bool `yaml:"incremental"`
}

func (s ScrapeConfig) RequestDelay() time.Duration {
	return time.Duration(s.RequestDelaySeconds) * time.Second
}

func (s ScrapeConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// JournalConfig holds the local run-journal settings.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig holds the optional Prometheus endpoint address.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// Default returns a sensible default configuration, targeting the public
// accounts the tool ships with.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Name:     "ig_leaderboard",
			SSLMode:  "disable",
			MaxConns: 2,
		},
		Scrape: ScrapeConfig{
			Usernames: []string{
				"cristiano", "leomessi", "selenagomez", "therock",
				"kyliejenner", "arianagrande", "beyonce", "kimkardashian",
				"kendalljenner", "natgeo", "nike", "fcbarcelona",
				"virat.kohli", "priyankachopra", "shraddhakapoor",
			},
			RequestDelaySeconds: 3,
			TimeoutSeconds:      15,
			UserAgent:           "Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
			Incremental:         false,
		},
		Journal: JournalConfig{Path: "./gramscout.db"},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// ResolveEnv fills in connection fields from environment variables when the
// file left them unset.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("DB_HOST"); v != "" && c.Database.Host == "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" && c.Database.Port == 0 {
		if p, err := strconv.Atoi(v); err == nil {
			c.Database.Port = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" && c.Database.User == "" {
		c.Database.User = v
	}
	if c.Database.Password == "" {
		c.Database.Password = os.Getenv("DB_PASSWORD")
	}
	if v := os.Getenv("DB_NAME"); v != "" && c.Database.Name == "" {
		c.Database.Name = v
	}
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Load reads YAML config from path, applies env fallbacks, and validates.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
