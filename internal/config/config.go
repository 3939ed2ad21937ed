// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Gateway GatewayConfig `mapstructure:"gateway" yaml:"gateway"`
	Vault   VaultConfig   `mapstructure:"vault" yaml:"vault"`
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
}

// LoggerConfig controls the zap logger setup.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// GatewayConfig configures the action guard and the approval workflow.
// SensitiveDomains is the set of sites where purchase-like actions require
// a human decision; the list is fixed for the lifetime of the process.
type GatewayConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled"`
	SensitiveDomains []string      `mapstructure:"sensitive_domains" yaml:"sensitive_domains"`
	ApprovalChannel  string        `mapstructure:"approval_channel" yaml:"approval_channel"`
	ApprovalTarget   string        `mapstructure:"approval_target" yaml:"approval_target"`
	ApprovalTimeout  time.Duration `mapstructure:"approval_timeout" yaml:"approval_timeout"`
}

// VaultConfig configures secret resolution. Prefix is prepended to item
// references that are not already full paths (e.g. "op://Private").
// TokenEnv names the environment variable holding the service credential.
type VaultConfig struct {
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	TokenEnv string `mapstructure:"token_env" yaml:"token_env"`
	Binary   string `mapstructure:"binary" yaml:"binary"`
}

// JournalConfig configures the on-disk decision journal. An empty path
// disables journaling entirely.
type JournalConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// NotifyConfig bounds outbound notification delivery.
type NotifyConfig struct {
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// NewDefaultConfig returns a Config populated entirely from defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "actiongate")
	v.SetDefault("logger.log_file", "actiongate.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Gateway --
	v.SetDefault("gateway.enabled", true)
	v.SetDefault("gateway.sensitive_domains", []string{})
	v.SetDefault("gateway.approval_channel", "")
	v.SetDefault("gateway.approval_target", "")
	v.SetDefault("gateway.approval_timeout", "120s")

	// -- Vault --
	v.SetDefault("vault.prefix", "")
	v.SetDefault("vault.token_env", "OP_SERVICE_ACCOUNT_TOKEN")
	v.SetDefault("vault.binary", "op")

	// -- Journal --
	v.SetDefault("journal.path", "")

	// -- Notify --
	v.SetDefault("notify.rate_limit", 1.0)
	v.SetDefault("notify.burst", 3)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway configuration invalid: %w", err)
	}
	if c.Notify.RateLimit <= 0 {
		return fmt.Errorf("notify.rate_limit must be positive")
	}
	if c.Notify.Burst <= 0 {
		return fmt.Errorf("notify.burst must be positive")
	}
	return nil
}

// Validate checks the Gateway configuration.
func (g *GatewayConfig) Validate() error {
	if !g.Enabled {
		return nil
	}
	if g.ApprovalTimeout <= 0 {
		return fmt.Errorf("approval_timeout must be a positive duration")
	}
	for _, d := range g.SensitiveDomains {
		if d == "" {
			return fmt.Errorf("sensitive_domains must not contain empty entries")
		}
	}
	return nil
}
