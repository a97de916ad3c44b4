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
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultAPIBase, cfg.APIURL)
	assert.Equal(t, ChartAuto, cfg.ChartOverride())
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultMaxQuestions, cfg.MaxQuestions)
	assert.Equal(t, time.Duration(0), cfg.BatchPause)
	assert.Equal(t, DefaultThresholds(), cfg.Thresholds)
}

func TestLoadConfig_YAMLAndTOMLAgree(t *testing.T) {
	yamlPath := writeConfig(t, "sondeo.yaml", `
api_url: https://encuestas.example.mx/api
request_timeout: 5s
survey_name: Encuesta 2024
chart_style: hbar
batch_size: 4
batch_pause: 350ms
thresholds:
  gauge_exact: 2
  pie_max: 3
  vbar_max: 10
`)
	tomlPath := writeConfig(t, "sondeo.toml", `
api_url = "https://encuestas.example.mx/api"
request_timeout = "5s"
survey_name = "Encuesta 2024"
chart_style = "hbar"
batch_size = 4
batch_pause = "350ms"

[thresholds]
gauge_exact = 2
pie_max = 3
vbar_max = 10
`)

	fromYAML, err := LoadConfig(yamlPath)
	require.NoError(t, err)
	fromTOML, err := LoadConfig(tomlPath)
	require.NoError(t, err)

	for _, cfg := range []*Config{fromYAML, fromTOML} {
		assert.Equal(t, "https://encuestas.example.mx/api", cfg.APIURL)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "Encuesta 2024", cfg.SurveyName)
		assert.Equal(t, ChartHBar, cfg.ChartOverride())
		assert.Equal(t, 4, cfg.BatchSize)
		assert.Equal(t, 350*time.Millisecond, cfg.BatchPause)
		assert.Equal(t, Thresholds{GaugeExact: 2, PieMax: 3, VBarMax: 10}, cfg.Thresholds)
		// untouched keys keep their defaults
		assert.Equal(t, 800, cfg.ChartWidth)
		assert.NoError(t, cfg.Validate())
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "bad.yaml", "batch_size: [1"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "bad.toml", "batch_size = "))
	assert.Error(t, err)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SONDEO_API_URL", "http://10.0.0.5:3000")
	t.Setenv("SONDEO_OUTPUT_DIR", "/tmp/reportes")
	t.Setenv("SONDEO_BATCH_PAUSE", "1s")
	t.Setenv("SONDEO_BATCH_SIZE", "3")
	t.Setenv("SONDEO_DEBUG", "1")

	cfg, err := LoadConfig(writeConfig(t, "sondeo.yaml", "api_url: http://ignored\nbatch_size: 9\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:3000", cfg.APIURL)
	assert.Equal(t, "/tmp/reportes", cfg.OutputDir)
	assert.Equal(t, time.Second, cfg.BatchPause)
	assert.Equal(t, 3, cfg.BatchSize)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_BadEnvironmentValues(t *testing.T) {
	t.Setenv("SONDEO_OPTION_CACHE_TTL", "forever")
	_, err := LoadConfig(writeConfig(t, "sondeo.yaml", ""))
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "SONDEO_OPTION_CACHE_TTL", cerr.Field)

	t.Setenv("SONDEO_OPTION_CACHE_TTL", "")
	t.Setenv("SONDEO_BATCH_SIZE", "six")
	_, err = LoadConfig(writeConfig(t, "sondeo.yaml", ""))
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "SONDEO_BATCH_SIZE", cerr.Field)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIURL = "localhost:3000"
	cfg.BackgroundOpacity = 1.5
	cfg.ChartStyle = "radar"
	cfg.BatchSize = 0
	cfg.MaxQuestions = 500
	cfg.Thresholds.PieMax = 20

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "configuration validation failed")
	assert.Contains(t, msg, "api_url")
	assert.Contains(t, msg, "background_opacity")
	assert.Contains(t, msg, "chart_style")
	assert.Contains(t, msg, "batch_size")
	assert.Contains(t, msg, "max_questions must be between 1 and 200")
	assert.Contains(t, msg, "thresholds.pie_max")
}

func TestValidate_FillsEmptyPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StoragePath = ""
	cfg.OutputDir = ""
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.StoragePath)
	assert.Equal(t, ".", cfg.OutputDir)
}

func TestChartOverride_FallsBackToAuto(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChartStyle = "unknown"
	assert.Equal(t, ChartAuto, cfg.ChartOverride())
	cfg.ChartStyle = "pie"
	assert.Equal(t, ChartPie, cfg.ChartOverride())
}
