// Package config provides configuration management for the market data toolkit.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AnalysisConfig holds strike selection and drawdown analysis parameters.
type AnalysisConfig struct {
	KAbove                int      `mapstructure:"k_above"`
	KBelow                int      `mapstructure:"k_below"`
	ReductionThresholdPct float64  `mapstructure:"reduction_threshold_pct"`
	PriorityFields        []string `mapstructure:"priority_fields"`
}

// CatalogConfig holds instrument catalog configuration.
type CatalogConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ReportConfig holds report output configuration.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	Format    string `mapstructure:"format"` // "xlsx", "csv"
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// KnownPriorityFields is the set of contract fields usable for tie-breaking.
var KnownPriorityFields = []string{"close", "open", "high", "low", "last", "settle", "volume", "open_interest"}

// DefaultPriorityFields is the default tie-break field order: price presence
// from most to least representative.
var DefaultPriorityFields = []string{"close", "open", "high", "low", "last"}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/derivscan"
	}
	return filepath.Join(home, ".config", "derivscan")
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Analysis: AnalysisConfig{
			KAbove:                3,
			KBelow:                3,
			ReductionThresholdPct: 50.0,
			PriorityFields:        append([]string(nil), DefaultPriorityFields...),
		},
		Catalog: CatalogConfig{
			DBPath: filepath.Join(dir, "catalog.db"),
		},
		Report: ReportConfig{
			OutputDir: filepath.Join(dir, "reports"),
			Format:    "xlsx",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  true,
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

	v.SetDefault("analysis.k_above", cfg.Analysis.KAbove)
	v.SetDefault("analysis.k_below", cfg.Analysis.KBelow)
	v.SetDefault("analysis.reduction_threshold_pct", cfg.Analysis.ReductionThresholdPct)
	v.SetDefault("analysis.priority_fields", cfg.Analysis.PriorityFields)
	v.SetDefault("catalog.db_path", cfg.Catalog.DBPath)
	v.SetDefault("report.output_dir", cfg.Report.OutputDir)
	v.SetDefault("report.format", cfg.Report.Format)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Config file not found, write a template for next time
		if werr := createTemplateConfig(configDir); werr != nil {
			return nil, fmt.Errorf("creating config template: %w", werr)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DERIVSCAN_DB_PATH"); v != "" {
		cfg.Catalog.DBPath = v
	}
	if v := os.Getenv("DERIVSCAN_REPORT_DIR"); v != "" {
		cfg.Report.OutputDir = v
	}
	if v := os.Getenv("DERIVSCAN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.KAbove < 0 {
		return fmt.Errorf("k_above must be non-negative")
	}
	if c.Analysis.KBelow < 0 {
		return fmt.Errorf("k_below must be non-negative")
	}
	if c.Analysis.ReductionThresholdPct <= 0 || c.Analysis.ReductionThresholdPct > 100 {
		return fmt.Errorf("reduction_threshold_pct must be in (0, 100]")
	}
	for _, f := range c.Analysis.PriorityFields {
		if !knownPriorityField(f) {
			return fmt.Errorf("unknown priority field: %s", f)
		}
	}
	switch c.Report.Format {
	case "xlsx", "csv":
	default:
		return fmt.Errorf("invalid report format: %s (must be 'xlsx' or 'csv')", c.Report.Format)
	}
	return nil
}

func knownPriorityField(name string) bool {
	for _, f := range KnownPriorityFields {
		if f == name {
			return true
		}
	}
	return false
}
