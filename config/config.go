/*
Package config loads server configuration.

LAYERING (later wins):
  1. Defaults()
  2. YAML file (optional, -config flag or VAULT_CONFIG)
  3. VAULT_* environment variables
  4. Command-line flags (applied by cmd/server)

EXAMPLE FILE:
  port: 8080
  db_path: ./data/vault.db
  log:
    level: debug
    format: json
  cors:
    allowed_origins: ["http://localhost:3000"]
  rate_limit:
    rps: 20
    burst: 40
  auto_release_interval: 30s
  signature_skew: 5m
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   int    `yaml:"port" env:"VAULT_PORT"`
	DBPath string `yaml:"db_path" env:"VAULT_DB_PATH"`

	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// AutoReleaseInterval is how often pending delivery escrows are checked.
	// Zero disables the scheduler.
	AutoReleaseInterval time.Duration `yaml:"auto_release_interval" env:"VAULT_AUTO_RELEASE_INTERVAL"`

	// SignatureSkew bounds the drift of X-Vault-Timestamp.
	SignatureSkew time.Duration `yaml:"signature_skew" env:"VAULT_SIGNATURE_SKEW"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"VAULT_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"VAULT_LOG_FORMAT"` // text or json
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"VAULT_ALLOWED_ORIGINS" envSeparator:","`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"VAULT_RATE_LIMIT_RPS"`
	Burst int     `yaml:"burst" env:"VAULT_RATE_LIMIT_BURST"`
}

func Defaults() Config {
	return Config{
		Port:   8080,
		DBPath: "vault.db",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
		AutoReleaseInterval: time.Minute,
		SignatureSkew:       5 * time.Minute,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile overlays the fields present in the YAML file onto cfg.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	if c.AutoReleaseInterval < 0 {
		errs = append(errs, errors.New("auto_release_interval must not be negative"))
	}
	if c.SignatureSkew <= 0 {
		errs = append(errs, errors.New("signature_skew must be positive"))
	}
	return errors.Join(errs...)
}
