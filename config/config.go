// ABOUTME: Runtime configuration for every prm surface
// ABOUTME: Layers code defaults, an XDG YAML file, a .env file and PRM_ environment variables
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const appName = "prm"

// Config holds runtime configuration. Environment tags are read with the PRM_
// prefix and have no defaults so they only override what is already set.
type Config struct {
	DBPath    string `yaml:"db_path" envconfig:"DB_PATH"`
	FilesPath string `yaml:"files_path" envconfig:"FILES_PATH"`

	Addr               string        `yaml:"addr" envconfig:"ADDR"`
	BaseURL            string        `yaml:"base_url" envconfig:"BASE_URL"`
	ReadTimeout        time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout       time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	UploadMaxBytes     int64         `yaml:"upload_max_bytes" envconfig:"UPLOAD_MAX_BYTES"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" envconfig:"RATE_LIMIT_PER_MINUTE"`
	Production         bool          `yaml:"production" envconfig:"PRODUCTION"`

	JWTSecret  string        `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	SessionTTL time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`

	VAPIDPublicKey  string `yaml:"vapid_public_key" envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `yaml:"vapid_private_key" envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `yaml:"vapid_subscriber" envconfig:"VAPID_SUBSCRIBER"`
	PushTTL         int    `yaml:"push_ttl" envconfig:"PUSH_TTL"`

	// SweepSchedule is a cron expression; empty disables the in-process sweep.
	SweepSchedule string `yaml:"sweep_schedule" envconfig:"SWEEP_SCHEDULE"`

	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		DBPath:             filepath.Join(xdg.DataHome, appName, "prm.db"),
		FilesPath:          filepath.Join(xdg.DataHome, appName, "files"),
		Addr:               ":8080",
		BaseURL:            "http://localhost:8080",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       30 * time.Second,
		UploadMaxBytes:     10 << 20,
		RateLimitPerMinute: 300,
		SessionTTL:         720 * time.Hour,
		VAPIDSubscriber:    "mailto:admin@localhost",
		PushTTL:            86400,
		SweepSchedule:      "0 9 * * *",
		LogLevel:           "info",
		LogFormat:          "pretty",
	}
}

// DefaultPath is the YAML file consulted by Load.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load builds the configuration. A missing YAML or .env file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process("PRM", cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ValidateServer checks the settings `prm serve` cannot run without.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("jwt secret must be provided (PRM_JWT_SECRET)")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("jwt secret must be at least 16 characters")
	}
	return nil
}

// PushEnabled reports whether VAPID keys are configured.
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
