// Package config holds the YAML configuration of the extraction pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/mstk/pkg/filter"
	"github.com/ChrisMcGann/mstk/pkg/psf"
)

// Config holds all mstk configuration.
type Config struct {
	// Number of input files processed in parallel
	Threads int `yaml:"threads"`
	// Log level: debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	Mercury MercuryConfig `yaml:"mercury"`
	Filter  filter.Config `yaml:"filter"`
	Xic     XicConfig     `yaml:"xic"`
	Pattern PatternConfig `yaml:"pattern"`
	Fwhm    FwhmConfig    `yaml:"fwhm"`
	Output  OutputConfig  `yaml:"output"`
}

// MercuryConfig configures theoretical isotope distributions.
type MercuryConfig struct {
	Limit     float64 `yaml:"limit"`      // pruning threshold, 0 disables pruning
	CacheSize int     `yaml:"cache_size"` // distributions kept in the LRU cache
}

// XicConfig configures XIC extraction.
type XicConfig struct {
	// Box generator: "scan" (scan tolerance and ppm) or "fwhm" (rt tolerance
	// and learned peak width)
	Boxes         string  `yaml:"boxes"`
	ScanTolerance int     `yaml:"scan_tolerance"`
	Ppm           float64 `yaml:"ppm"`
	RtTolerance   float64 `yaml:"rt_tolerance"`
	MzFactor      float64 `yaml:"mz_factor"`
	MinLength     int     `yaml:"min_length"`
	MinDepth      float64 `yaml:"min_depth"`
	// "weighted-mean" or "nearest"
	Disambiguator string `yaml:"disambiguator"`
}

// PatternConfig configures isotope pattern extraction.
type PatternConfig struct {
	Charges        []int      `yaml:"charges"`
	Shift          float64    `yaml:"shift"`
	RtRange        [2]float64 `yaml:"rt_range"`
	PpmRange       [2]float64 `yaml:"ppm_range"`
	MinCorrelation float64    `yaml:"min_correlation"`
	MinSize        int        `yaml:"min_size"`
	// "none", "rt-gap" or "mz-gap"
	Splitter   string  `yaml:"splitter"`
	MaxRtGap   float64 `yaml:"max_rt_gap"`
	MzGapSlack float64 `yaml:"mz_gap_slack"`
	// QuickCharge options, 0 disables them
	ChargeTolerance float64 `yaml:"charge_tolerance"`
	MaxCharge       int     `yaml:"max_charge"`
}

// FwhmConfig configures the peak width model.
type FwhmConfig struct {
	Model     string  `yaml:"model"`
	MinHeight float64 `yaml:"min_height"`
	// Width used where the model is undefined or has not been learned
	Fallback float64 `yaml:"fallback"`
}

// OutputConfig configures result persistence.
type OutputConfig struct {
	// "sqlite" or "tsv"
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Threads:  4,
		LogLevel: "info",
		Mercury: MercuryConfig{
			Limit:     1e-26,
			CacheSize: 1024,
		},
		Xic: XicConfig{
			Boxes:         "scan",
			ScanTolerance: 2,
			Ppm:           7,
			RtTolerance:   5,
			MzFactor:      1,
			MinLength:     3,
			MinDepth:      0.76,
			Disambiguator: "weighted-mean",
		},
		Pattern: PatternConfig{
			Charges:        []int{1, 2, 3, 4},
			Shift:          1.00286864,
			RtRange:        [2]float64{2, 20},
			PpmRange:       [2]float64{2, 10},
			MinCorrelation: 0.6,
			MinSize:        2,
			Splitter:       "none",
			MaxRtGap:       10,
			MzGapSlack:     0.01,
		},
		Fwhm: FwhmConfig{
			Model:    "orbitrap",
			Fallback: 0.01,
		},
		Output: OutputConfig{
			Format: "sqlite",
			Path:   "features.db",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MSTK_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Threads = n
		}
	}
	if v := os.Getenv("MSTK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Mercury.Limit < 0 {
		return fmt.Errorf("mercury limit must not be negative, got %g", c.Mercury.Limit)
	}
	if c.Mercury.CacheSize < 1 {
		return fmt.Errorf("mercury cache size must be positive, got %d", c.Mercury.CacheSize)
	}
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	switch c.Xic.Boxes {
	case "scan", "fwhm":
	default:
		return fmt.Errorf("unknown xic box generator %q", c.Xic.Boxes)
	}
	switch c.Xic.Disambiguator {
	case "weighted-mean", "nearest":
	default:
		return fmt.Errorf("unknown disambiguator %q", c.Xic.Disambiguator)
	}
	if c.Xic.MinDepth < 0 || c.Xic.MinDepth > 1 {
		return fmt.Errorf("xic min_depth %g out of [0, 1]", c.Xic.MinDepth)
	}
	if c.Xic.MinLength < 1 {
		return fmt.Errorf("xic min_length must be positive, got %d", c.Xic.MinLength)
	}

	if len(c.Pattern.Charges) == 0 {
		return fmt.Errorf("pattern charges must not be empty")
	}
	for _, z := range c.Pattern.Charges {
		if z == 0 {
			return fmt.Errorf("pattern charges must not contain 0")
		}
	}
	if c.Pattern.MinCorrelation < 0 || c.Pattern.MinCorrelation > 1 {
		return fmt.Errorf("pattern min_correlation %g out of [0, 1]", c.Pattern.MinCorrelation)
	}
	if c.Pattern.MinSize < 1 {
		return fmt.Errorf("pattern min_size must be positive, got %d", c.Pattern.MinSize)
	}
	if c.Pattern.RtRange[0] > c.Pattern.RtRange[1] || c.Pattern.PpmRange[0] > c.Pattern.PpmRange[1] {
		return fmt.Errorf("pattern ranges must be ordered, got rt=%v ppm=%v", c.Pattern.RtRange, c.Pattern.PpmRange)
	}
	switch c.Pattern.Splitter {
	case "none", "rt-gap", "mz-gap":
	default:
		return fmt.Errorf("unknown pattern splitter %q", c.Pattern.Splitter)
	}

	if _, err := psf.NewModel(c.Fwhm.Model); err != nil {
		return fmt.Errorf("fwhm: %w", err)
	}
	if !(c.Fwhm.Fallback > 0) {
		return fmt.Errorf("fwhm fallback must be positive, got %g", c.Fwhm.Fallback)
	}
	switch c.Output.Format {
	case "sqlite", "tsv":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}

	return nil
}
