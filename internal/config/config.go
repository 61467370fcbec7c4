package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Export  ExportConfig  `yaml:"export"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	StateDir  string `yaml:"state_dir"`
	Timezone  string `yaml:"timezone"`
}

type MetricsConfig struct {
	HRMaxTheoretical  float64   `yaml:"hr_max_theoretical"`
	HRCeiling         float64   `yaml:"hr_ceiling"`
	MovementThreshold float64   `yaml:"movement_threshold"`
	ZoneBounds        []float64 `yaml:"zone_bounds"`
}

type WatchConfig struct {
	// Schedule is a cron expression (or @hourly-style shorthand) for watch
	// mode. Empty disables scheduling.
	Schedule string `yaml:"schedule"`
}

// Location resolves the configured reporting timezone. Empty means UTC.
func (e ExportConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(e.Timezone)
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error — defaults plus env
// vars can fully configure the tool. Env vars:
//
//	ZEPP_TOKEN, ZEPP_API_BASE_URL,
//	ZEPP_OUTPUT_DIR, ZEPP_STATE_DIR, ZEPP_TIMEZONE,
//	ZEPP_HR_MAX, ZEPP_HR_CEILING, ZEPP_MOVEMENT_THRESHOLD,
//	ZEPP_WATCH_SCHEDULE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// fall through to defaults + env
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZEPP_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("ZEPP_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("ZEPP_OUTPUT_DIR"); v != "" {
		cfg.Export.OutputDir = v
	}
	if v := os.Getenv("ZEPP_STATE_DIR"); v != "" {
		cfg.Export.StateDir = v
	}
	if v := os.Getenv("ZEPP_TIMEZONE"); v != "" {
		cfg.Export.Timezone = v
	}
	if v := os.Getenv("ZEPP_HR_MAX"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Metrics.HRMaxTheoretical = f
		}
	}
	if v := os.Getenv("ZEPP_HR_CEILING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Metrics.HRCeiling = f
		}
	}
	if v := os.Getenv("ZEPP_MOVEMENT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Metrics.MovementThreshold = f
		}
	}
	if v := os.Getenv("ZEPP_WATCH_SCHEDULE"); v != "" {
		cfg.Watch.Schedule = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "workouts"
	}
	if cfg.Export.StateDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Export.StateDir = filepath.Join(home, ".zepp-extractor")
		} else {
			cfg.Export.StateDir = ".zepp-extractor"
		}
	}
	if cfg.Metrics.HRMaxTheoretical == 0 {
		cfg.Metrics.HRMaxTheoretical = 196
	}
	if cfg.Metrics.HRCeiling == 0 {
		cfg.Metrics.HRCeiling = 250
	}
	if len(cfg.Metrics.ZoneBounds) == 0 {
		cfg.Metrics.ZoneBounds = []float64{0.6, 0.7, 0.8, 0.9}
	}
}

func (c *Config) validate() error {
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required (or set ZEPP_TOKEN)")
	}
	if c.Metrics.HRMaxTheoretical <= 0 {
		return fmt.Errorf("metrics.hr_max_theoretical must be positive")
	}
	if c.Metrics.HRCeiling <= c.Metrics.HRMaxTheoretical {
		return fmt.Errorf("metrics.hr_ceiling must exceed hr_max_theoretical")
	}
	if c.Metrics.MovementThreshold < 0 {
		return fmt.Errorf("metrics.movement_threshold must not be negative")
	}
	if !sort.Float64sAreSorted(c.Metrics.ZoneBounds) {
		return fmt.Errorf("metrics.zone_bounds must be ascending")
	}
	for _, b := range c.Metrics.ZoneBounds {
		if b <= 0 || b >= 1 {
			return fmt.Errorf("metrics.zone_bounds entries must be fractions between 0 and 1")
		}
	}
	if _, err := c.Export.Location(); err != nil {
		return fmt.Errorf("export.timezone: %w", err)
	}
	return nil
}
