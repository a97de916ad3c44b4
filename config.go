// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when no --config is given and it exists
const DefaultConfigFile = "sondeo.yaml"

// Config holds the application configuration
type Config struct {
	// Survey API
	APIURL         string        `yaml:"api_url" toml:"api_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" toml:"request_timeout"`
	SurveyName     string        `yaml:"survey_name" toml:"survey_name"`

	// Output and storage
	OutputDir   string `yaml:"output_dir" toml:"output_dir"`
	StoragePath string `yaml:"storage_path" toml:"storage_path"`

	// Branding
	BackgroundImage   string  `yaml:"background_image" toml:"background_image"`
	LogoImage         string  `yaml:"logo_image" toml:"logo_image"`
	BackgroundOpacity float64 `yaml:"background_opacity" toml:"background_opacity"`
	LogoWidthMM       float64 `yaml:"logo_width_mm" toml:"logo_width_mm"`

	// Charts
	ChartStyle  string     `yaml:"chart_style" toml:"chart_style"`
	ChartWidth  int        `yaml:"chart_width" toml:"chart_width"`
	ChartHeight int        `yaml:"chart_height" toml:"chart_height"`
	RenderScale float64    `yaml:"render_scale" toml:"render_scale"`
	RasterDPI   float64    `yaml:"raster_dpi" toml:"raster_dpi"`
	Thresholds  Thresholds `yaml:"thresholds" toml:"thresholds"`
	HeatmapGrid int        `yaml:"heatmap_grid" toml:"heatmap_grid"`

	// Report pagination
	BatchSize        int           `yaml:"batch_size" toml:"batch_size"`
	MaxQuestions     int           `yaml:"max_questions" toml:"max_questions"`
	BatchPause       time.Duration `yaml:"batch_pause" toml:"batch_pause"`
	FetchConcurrency int           `yaml:"fetch_concurrency" toml:"fetch_concurrency"`

	// Filter option cache. 0 keeps options in memory for the current run,
	// a positive ttl persists them in the storage directory.
	OptionCacheTTL time.Duration `yaml:"option_cache_ttl" toml:"option_cache_ttl"`

	// Debugging
	Debug bool `yaml:"debug" toml:"debug"`
}

// DefaultConfig returns a configuration with every default applied
func DefaultConfig() *Config {
	return &Config{
		APIURL:            DefaultAPIBase,
		SurveyName:        "Encuesta",
		OutputDir:         ".",
		StoragePath:       getDefaultStoragePath(),
		BackgroundOpacity: defaultOpacity,
		LogoWidthMM:       defaultLogoMM,
		ChartStyle:        string(ChartAuto),
		ChartWidth:        800,
		ChartHeight:       500,
		RenderScale:       2,
		RasterDPI:         150,
		Thresholds:        DefaultThresholds(),
		HeatmapGrid:       40,
		BatchSize:         DefaultBatchSize,
		MaxQuestions:      DefaultMaxQuestions,
	}
}

// LoadConfig loads configuration from a YAML or TOML file. An empty path
// falls back to DefaultConfigFile when present, then to defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.applyEnvironmentVariables(); err != nil {
		return nil, err
	}

	return config, nil
}

// getDefaultStoragePath returns the default storage path
func getDefaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sondeo"
	}
	return filepath.Join(home, ".config", "sondeo")
}

// applyEnvironmentVariables overrides config with SONDEO_* variables
func (c *Config) applyEnvironmentVariables() error {
	strs := map[string]*string{
		"SONDEO_API_URL":          &c.APIURL,
		"SONDEO_SURVEY_NAME":      &c.SurveyName,
		"SONDEO_OUTPUT_DIR":       &c.OutputDir,
		"SONDEO_STORAGE_PATH":     &c.StoragePath,
		"SONDEO_BACKGROUND_IMAGE": &c.BackgroundImage,
		"SONDEO_LOGO_IMAGE":       &c.LogoImage,
		"SONDEO_CHART_STYLE":      &c.ChartStyle,
	}
	for key, target := range strs {
		if val := os.Getenv(key); val != "" {
			*target = val
		}
	}

	durations := map[string]*time.Duration{
		"SONDEO_REQUEST_TIMEOUT":  &c.RequestTimeout,
		"SONDEO_BATCH_PAUSE":      &c.BatchPause,
		"SONDEO_OPTION_CACHE_TTL": &c.OptionCacheTTL,
	}
	for key, target := range durations {
		val := os.Getenv(key)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return &ConfigError{Field: key, Message: fmt.Sprintf("invalid duration %q", val)}
		}
		*target = d
	}

	if val := os.Getenv("SONDEO_BATCH_SIZE"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return &ConfigError{Field: "SONDEO_BATCH_SIZE", Message: fmt.Sprintf("invalid integer %q", val)}
		}
		c.BatchSize = n
	}

	if val := os.Getenv("SONDEO_DEBUG"); val == "true" || val == "1" {
		c.Debug = true
	}
	return nil
}

// ChartOverride returns the configured global chart style
func (c *Config) ChartOverride() ChartKind {
	kind, err := ParseChartKind(c.ChartStyle)
	if err != nil {
		return ChartAuto
	}
	return kind
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, "api_url must be an absolute http(s) URL")
	}
	if c.RequestTimeout < 0 {
		errors = append(errors, "request_timeout cannot be negative")
	}

	if c.BackgroundOpacity < 0 || c.BackgroundOpacity > 1 {
		errors = append(errors, "background_opacity must be between 0 and 1")
	}
	if c.LogoWidthMM <= 0 || c.LogoWidthMM > pageWidthMM-2*pageMarginMM {
		errors = append(errors, "logo_width_mm must fit inside the page margins")
	}

	if _, err := ParseChartKind(c.ChartStyle); err != nil {
		errors = append(errors, "chart_style must be one of auto, gauge, pie, vbar, hbar")
	}
	if c.ChartWidth < 100 || c.ChartHeight < 100 {
		errors = append(errors, "chart_width and chart_height must be at least 100")
	}
	if c.RenderScale < 1 || c.RenderScale > 4 {
		errors = append(errors, "render_scale must be between 1 and 4")
	}
	if c.RasterDPI < 72 || c.RasterDPI > 600 {
		errors = append(errors, "raster_dpi must be between 72 and 600")
	}
	if c.Thresholds.GaugeExact < 1 {
		errors = append(errors, "thresholds.gauge_exact must be positive")
	}
	if c.Thresholds.PieMax > c.Thresholds.VBarMax {
		errors = append(errors, "thresholds.pie_max cannot exceed thresholds.vbar_max")
	}
	if c.HeatmapGrid < 2 || c.HeatmapGrid > 500 {
		errors = append(errors, "heatmap_grid must be between 2 and 500")
	}

	if c.BatchSize < 1 {
		errors = append(errors, "batch_size must be at least 1")
	}
	if c.MaxQuestions < 1 || c.MaxQuestions > DefaultMaxQuestions {
		errors = append(errors, fmt.Sprintf("max_questions must be between 1 and %d", DefaultMaxQuestions))
	}
	if c.BatchPause < 0 {
		errors = append(errors, "batch_pause cannot be negative")
	}
	if c.FetchConcurrency < 0 {
		errors = append(errors, "fetch_concurrency cannot be negative")
	}
	if c.OptionCacheTTL < 0 {
		errors = append(errors, "option_cache_ttl cannot be negative")
	}

	// Set default paths if empty
	if c.StoragePath == "" {
		c.StoragePath = getDefaultStoragePath()
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
