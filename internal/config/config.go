// Package config loads runtime configuration from defaults, an optional YAML
// file, and OPSCORE_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage selects the persistent store backend.
type Storage struct {
	Driver      string `env:"OPSCORE_STORAGE_DRIVER" yaml:"driver"`
	SQLitePath  string `env:"OPSCORE_SQLITE_PATH" yaml:"sqlite_path"`
	PostgresDSN string `env:"OPSCORE_POSTGRES_DSN" yaml:"postgres_dsn"`
}

// Blob selects the artifact blob store backend.
type Blob struct {
	Driver   string `env:"OPSCORE_BLOB_DRIVER" yaml:"driver"`
	FSRoot   string `env:"OPSCORE_BLOB_FS_ROOT" yaml:"fs_root"`
	S3Bucket string `env:"OPSCORE_BLOB_S3_BUCKET" yaml:"s3_bucket"`
	S3Prefix string `env:"OPSCORE_BLOB_S3_PREFIX" yaml:"s3_prefix"`
}

// Assistant configures the text-completion collaborator.
type Assistant struct {
	Endpoint string        `env:"OPSCORE_ASSIST_ENDPOINT" yaml:"endpoint"`
	APIKey   string        `env:"OPSCORE_ASSIST_API_KEY" yaml:"api_key"`
	Timeout  time.Duration `env:"OPSCORE_ASSIST_TIMEOUT" yaml:"timeout"`
}

// LoyaltyTier is one rung of the reward ladder. Thresholds are points,
// amounts are integral cents.
type LoyaltyTier struct {
	ThresholdPoints  int64 `yaml:"threshold_points"`
	PercentOff       int   `yaml:"percent_off"`
	MinPurchaseCents int64 `yaml:"min_purchase_cents"`
	ExpiryDays       int   `yaml:"expiry_days"`
}

// Loyalty holds the reward ladder. The ladder is YAML-only; environment
// variables cannot express it.
type Loyalty struct {
	Ladder []LoyaltyTier `yaml:"ladder"`
}

// Config is the full runtime configuration.
type Config struct {
	Storage   Storage   `yaml:"storage"`
	Blob      Blob      `yaml:"blob"`
	Assistant Assistant `yaml:"assistant"`
	Loyalty   Loyalty   `yaml:"loyalty"`
	LogLevel  string    `env:"OPSCORE_LOG_LEVEL" yaml:"log_level"`
}

// Default returns the built-in configuration: sqlite storage, filesystem
// blobs, and the standard three-rung loyalty ladder.
func Default() Config {
	return Config{
		Storage: Storage{Driver: "sqlite", SQLitePath: "opscore.db"},
		Blob:    Blob{Driver: "fs", FSRoot: "artifacts"},
		Assistant: Assistant{
			Timeout: 10 * time.Second,
		},
		Loyalty: Loyalty{Ladder: []LoyaltyTier{
			{ThresholdPoints: 100, PercentOff: 5, MinPurchaseCents: 2500, ExpiryDays: 30},
			{ThresholdPoints: 250, PercentOff: 15, ExpiryDays: 30},
			{ThresholdPoints: 500, PercentOff: 25, ExpiryDays: 30},
		}},
		LogLevel: "info",
	}
}

// Load builds the configuration. A non-empty path names a YAML file overlaid
// on the defaults; environment variables override both.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
