// Package config loads server configuration from an optional YAML file,
// an optional .env file and APPROVALS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Source  SourceConfig  `mapstructure:"source"`
	Backend BackendConfig `mapstructure:"backend"`
	Replica ReplicaConfig `mapstructure:"replica"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	I18n    I18nConfig    `mapstructure:"i18n"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	EnableDemo     bool          `mapstructure:"enable_demo"`
}

// Source modes.
const (
	SourceBackend = "backend"
	SourceReplica = "replica"
)

// SourceConfig selects where snapshots come from.
type SourceConfig struct {
	Mode string `mapstructure:"mode"` // backend | replica
}

// BackendConfig holds HR backend connection settings
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ReplicaConfig holds the SQLite snapshot replica settings
type ReplicaConfig struct {
	Path string `mapstructure:"path"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// I18nConfig holds label localization settings
type I18nConfig struct {
	DefaultLocale string `mapstructure:"default_locale"`
}

// Load reads configuration. configPath may be empty; a missing .env is fine.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := gotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APPROVALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("server.enable_demo", false)

	v.SetDefault("source.mode", SourceReplica)

	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("replica.path", "approvals.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	v.SetDefault("i18n.default_locale", "en")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Source.Mode {
	case SourceBackend:
		if c.Backend.BaseURL == "" {
			errs = append(errs, errors.New("backend.base_url is required when source.mode is backend"))
		}
		if c.Backend.Timeout <= 0 {
			errs = append(errs, errors.New("backend.timeout must be positive"))
		}
	case SourceReplica:
		if c.Replica.Path == "" {
			errs = append(errs, errors.New("replica.path is required when source.mode is replica"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.mode %q must be %q or %q", c.Source.Mode, SourceBackend, SourceReplica))
	}

	return errors.Join(errs...)
}
