// Package config provides configuration management for the analysis toolkit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	UI       UIConfig       `mapstructure:"ui"`
}

// ProviderConfig holds history provider configuration.
type ProviderConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// CacheConfig holds the local bar cache configuration.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

// AnalysisConfig holds default analysis parameters.
type AnalysisConfig struct {
	DefaultLookback int     `mapstructure:"default_lookback"`
	ProfileBins     int     `mapstructure:"profile_bins"`
	InitialCapital  float64 `mapstructure:"initial_capital"`
	FastPeriod      int     `mapstructure:"fast_period"`
	SlowPeriod      int     `mapstructure:"slow_period"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds output formatting configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stocklab"
	}
	return filepath.Join(home, ".config", "stocklab")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:           "https://query1.finance.yahoo.com",
			Timeout:           15 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 2,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultConfigDir(), "bars.db"),
			MaxAge:  12 * time.Hour,
		},
		Analysis: AnalysisConfig{
			DefaultLookback: 365,
			ProfileBins:     12,
			InitialCapital:  10000,
			FastPeriod:      20,
			SlowPeriod:      50,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    true,
			File:       true,
			FilePath:   filepath.Join(DefaultConfigDir(), "logs", "stocklab.log"),
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
		},
		UI: UIConfig{
			ColorEnabled: true,
			DateFormat:   "2006-01-02",
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := writeTemplate(configDir); werr != nil {
				return nil, fmt.Errorf("writing config template: %w", werr)
			}
		} else {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	} else if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKLAB_PROVIDER_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("STOCKLAB_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("STOCKLAB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	if c.Provider.MaxRetries < 0 {
		return fmt.Errorf("provider max_retries must be non-negative")
	}
	if c.Provider.RequestsPerSecond <= 0 {
		return fmt.Errorf("provider requests_per_second must be positive")
	}
	if c.Analysis.ProfileBins <= 0 {
		return fmt.Errorf("analysis profile_bins must be positive")
	}
	if c.Analysis.InitialCapital <= 0 {
		return fmt.Errorf("analysis initial_capital must be positive")
	}
	if c.Analysis.FastPeriod <= 0 || c.Analysis.SlowPeriod <= 0 {
		return fmt.Errorf("analysis crossover periods must be positive")
	}
	if c.Analysis.FastPeriod >= c.Analysis.SlowPeriod {
		return fmt.Errorf("analysis fast_period must be less than slow_period")
	}
	return nil
}
