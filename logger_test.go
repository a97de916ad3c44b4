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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONCarriesComponentAndRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false, true).WithComponent("report").WithRunID("abc")

	logger.LogBatch(1, 3, 6)
	logger.Debug("hidden")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Report batch rendered", record["msg"])
	assert.Equal(t, "report", record["component"])
	assert.Equal(t, "abc", record["run_id"])
	assert.Equal(t, float64(6), record["questions"])
}

func TestLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, true, false)
	logger.LogAPIRequest("GET", "http://localhost:3000/filters/questions")
	assert.Contains(t, buf.String(), "API request")
	assert.Contains(t, buf.String(), "endpoint=http://localhost:3000/filters/questions")
}

func TestLogger_UserMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: NewDiscardLogger().Logger, out: &buf}
	logger.UserMessage("Reporte guardado en %s", "reporte_encuesta.pdf")
	assert.Equal(t, "Reporte guardado en reporte_encuesta.pdf\n", buf.String())
}

func TestErrors_UnwrapAndRetry(t *testing.T) {
	inner := errors.New("connection reset")

	apiErr := &APIError{Endpoint: "/dashboard/kpis-generales", StatusCode: 503, Message: "unavailable", Err: inner}
	assert.ErrorIs(t, apiErr, inner)
	assert.True(t, apiErr.IsRetryable())
	assert.Contains(t, apiErr.Error(), "status 503")

	wrapped := fmt.Errorf("loading: %w", &RenderError{Kind: "pie", Err: ErrNoChartData})
	assert.ErrorIs(t, wrapped, ErrNoChartData)

	storageErr := &StorageError{Operation: "write_pdf", Path: "x.pdf", Err: inner}
	assert.ErrorIs(t, storageErr, inner)
	assert.Contains(t, storageErr.Error(), "write_pdf")

	assetErr := &AssetError{Asset: "logo", Path: "logo.png", Err: inner}
	assert.ErrorIs(t, assetErr, inner)

	assert.Equal(t, "validation error for level: unknown", (&ValidationError{Field: "level", Message: "unknown"}).Error())
	assert.Contains(t, (&ConfigError{Field: "SONDEO_BATCH_SIZE", Message: "bad"}).Error(), "SONDEO_BATCH_SIZE")
}
