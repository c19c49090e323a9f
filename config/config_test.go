//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoParsnip.
//
// GoParsnip is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoParsnip is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoParsnip. If not, see https://www.gnu.org/licenses/.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/value"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parsnip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestLoad_Defaults tests the configuration without a file or environment
func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

// TestLoad_File tests reading settings from YAML
func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logLevel: debug
timezone: Europe/Paris
pipeline: etl.yaml
dateFormats:
  - dd.MM.yyyy
batchSize: 50
errorStrategy: skip_errors
sink:
  format: csv
  location: s3://bucket/out.csv
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		LogLevel:      "debug",
		Timezone:      "Europe/Paris",
		Pipeline:      "etl.yaml",
		DateFormats:   []string{"dd.MM.yyyy"},
		BatchSize:     50,
		ErrorStrategy: core.SkipErrors,
		Sink:          SinkConfig{Format: "csv", Location: "s3://bucket/out.csv"},
		Source:        SourceFile,
	}, cfg)
}

// TestLoad_EnvOverrides tests that environment variables win over the file
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "logLevel: warn\nbatchSize: 10\n")
	t.Setenv("PARSNIP_LOG_LEVEL", "SEVERE")
	t.Setenv("PARSNIP_TIMEZONE", "America/New_York")
	t.Setenv("PARSNIP_PIPELINE", "/etc/parsnip/etl.json")
	t.Setenv("PARSNIP_DATE_FORMATS", "dd/MM/yyyy, yyyyMMdd ,")
	t.Setenv("PARSNIP_BATCH_SIZE", "200")
	t.Setenv("PARSNIP_ERROR_STRATEGY", "Collect")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "SEVERE", cfg.LogLevel)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, "/etc/parsnip/etl.json", cfg.Pipeline)
	assert.Equal(t, []string{"dd/MM/yyyy", "yyyyMMdd"}, cfg.DateFormats)
	assert.Equal(t, 200, cfg.BatchSize)
	assert.Equal(t, core.CollectErrors, cfg.ErrorStrategy)
	assert.Equal(t, SourceEnvVar, cfg.Source)
}

// TestLoad_Errors tests invalid settings
func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"missing file", "", nil},
		{"bad yaml", "logLevel: [", nil},
		{"bad level", "logLevel: loud\n", nil},
		{"bad timezone", "timezone: Mars/Olympus\n", nil},
		{"negative batch", "batchSize: -1\n", nil},
		{"bad format", "sink:\n  format: xml\n", nil},
		{"bad location", "sink:\n  location: ftp://host/x\n", nil},
		{"bad batch env", "", map[string]string{"PARSNIP_BATCH_SIZE": "lots"}},
		{"bad strategy", "errorStrategy: retry\n", nil},
		{"bad strategy env", "", map[string]string{"PARSNIP_ERROR_STRATEGY": "ignore"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			} else if tt.env != nil {
				path = ""
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

// TestApply tests that settings are installed process-wide
func TestApply(t *testing.T) {
	t.Cleanup(func() {
		value.SetLocation(time.UTC)
		value.AddDateLayouts()
		logging.SetLogger(nil)
	})

	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.Timezone = "Asia/Tokyo"
	cfg.DateFormats = []string{"dd.MM.yyyy HH:mm"}
	logger, err := cfg.Apply()
	require.NoError(t, err)
	assert.Same(t, logger, logging.L())
	assert.Equal(t, "Asia/Tokyo", value.Location().String())

	ts, ok := value.ParseTime("17.10.2026 09:30")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 30, 0, 0, time.UTC), ts.UTC())

	cfg.Timezone = "nowhere"
	_, err = cfg.Apply()
	assert.Error(t, err)
}

// TestSinkConfig_Open tests that the sink location can come from the environment
func TestSinkConfig_Open(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.jsonl")
	t.Setenv("PARSNIP_SINK_LOCATION", out)
	cfg, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, SourceEnvVar, cfg.Source)

	sink, err := cfg.Sink.Open()
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), value.MapOf("ok", true)))
	require.NoError(t, sink.Close())
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "{\"ok\":true}\n", string(data))
}
