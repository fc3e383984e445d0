// Package config provides configuration management for measurement runs.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/deepsize/pkg/meter"
	"github.com/deepsize/pkg/sizing"
	"github.com/deepsize/pkg/utils"
)

// Config holds all configuration for the library and its diagnostics.
type Config struct {
	Meter MeterConfig `mapstructure:"meter"`
	Trace TraceConfig `mapstructure:"trace"`
	Log   LogConfig   `mapstructure:"log"`
}

// MeterConfig holds measurement configuration.
type MeterConfig struct {
	SizingMode                string `mapstructure:"sizing_mode"`
	IgnoreOuterReferences     bool   `mapstructure:"ignore_outer_references"`
	IgnoreKnownSingletons     bool   `mapstructure:"ignore_known_singletons"`
	IgnoreNonStrongReferences bool   `mapstructure:"ignore_non_strong_references"`
	OmitSharedBufferOverhead  bool   `mapstructure:"omit_shared_buffer_overhead"`
	PrintVisitedTree          bool   `mapstructure:"print_visited_tree"`
	PrintVisitedTreeDepth     int    `mapstructure:"print_visited_tree_depth"` // 0 means unbounded
}

// TraceConfig holds traversal tracing configuration.
type TraceConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/deepsize")
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing config files fall back to defaults.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Allow environment variables to override config
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Meter defaults
	v.SetDefault("meter.sizing_mode", string(sizing.GuessFallbackBest))
	v.SetDefault("meter.print_visited_tree_depth", 0)

	// Trace defaults
	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.service_name", "deepsize")

	// Log defaults
	v.SetDefault("log.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := sizing.ParseGuess(c.Meter.SizingMode); err != nil {
		return err
	}
	if c.Meter.PrintVisitedTreeDepth < 0 {
		return fmt.Errorf("print tree depth must not be negative: %d", c.Meter.PrintVisitedTreeDepth)
	}
	return nil
}

// NewBuilder assembles a meter builder from the configuration. The caller
// may attach further options before Build.
func (c *Config) NewBuilder() *meter.Builder {
	guess, _ := sizing.ParseGuess(c.Meter.SizingMode)

	b := meter.NewBuilder().
		WithGuessing(guess).
		WithLogger(c.NewLogger())

	if c.Meter.IgnoreOuterReferences {
		b.IgnoreOuterReferences()
	}
	if c.Meter.IgnoreKnownSingletons {
		b.IgnoreKnownSingletons()
	}
	if c.Meter.IgnoreNonStrongReferences {
		b.IgnoreNonStrongReferences()
	}
	if c.Meter.OmitSharedBufferOverhead {
		b.OmitSharedBufferOverhead()
	}
	if c.Meter.PrintVisitedTree {
		if c.Meter.PrintVisitedTreeDepth > 0 {
			b.PrintVisitedTreeUpTo(c.Meter.PrintVisitedTreeDepth)
		} else {
			b.PrintVisitedTree()
		}
	}
	return b
}

// NewLogger creates a logger at the configured level.
func (c *Config) NewLogger() utils.Logger {
	return utils.NewDefaultLogger(utils.ParseLogLevel(c.Log.Level), os.Stderr)
}
