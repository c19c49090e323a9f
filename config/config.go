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

// Package config loads GoParsnip runtime settings.
//
// Settings are layered with priority: environment variables > config file > defaults. The file is
// YAML; the environment variables are PARSNIP_LOG_LEVEL, PARSNIP_TIMEZONE, PARSNIP_PIPELINE,
// PARSNIP_DATE_FORMATS (comma separated), PARSNIP_BATCH_SIZE, PARSNIP_ERROR_STRATEGY,
// PARSNIP_SINK_FORMAT and PARSNIP_SINK_LOCATION.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/types"
	"github.com/aaronlmathis/goparsnip/value"
)

// Source indicates where a setting came from
type Source string

const (
	SourceEnvVar  Source = "environment_variable"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// Config holds the runtime settings of a GoParsnip host.
type Config struct {
	// LogLevel is a level name accepted by logging.ParseLevel.
	LogLevel string `yaml:"logLevel"`
	// Timezone interprets date strings without an offset. Defaults to UTC.
	Timezone string `yaml:"timezone"`
	// Pipeline is the path of the Etl document to run.
	Pipeline string `yaml:"pipeline"`
	// DateFormats are extra date patterns, in Java style ("dd/MM/yyyy HH:mm").
	DateFormats []string `yaml:"dateFormats"`
	// BatchSize is the number of records buffered by batch stages. Zero collects the whole stream.
	BatchSize int `yaml:"batchSize"`
	// ErrorStrategy is fail_fast, skip_errors or collect_errors.
	ErrorStrategy core.ErrorStrategy `yaml:"errorStrategy"`
	// Sink names the output format and location.
	Sink SinkConfig `yaml:"sink"`

	Source Source `yaml:"-"`
}

// SinkConfig selects where pipeline output goes.
type SinkConfig struct {
	// Format is one of json, csv or parquet.
	Format string `yaml:"format"`
	// Location is "-" for standard output, a local path, or a URL understood by
	// types.ParseLocation (s3, azblob, postgres, mongodb, nats).
	Location string `yaml:"location"`
}

// Open opens the configured sink.
func (s SinkConfig) Open() (core.DataSink, error) {
	return types.Open(s.Location, s.Format)
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Timezone: "UTC",
		Sink:     SinkConfig{Format: "json", Location: "-"},
		Source:   SourceDefault,
	}
}

// Load reads the YAML file at path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		cfg.Source = SourceFile
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv builds a Config from defaults and environment variables only.
func LoadEnv() (*Config, error) {
	return Load("")
}

func (c *Config) applyEnv() error {
	if v := getEnv("PARSNIP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
		c.Source = SourceEnvVar
	}
	if v := getEnv("PARSNIP_TIMEZONE"); v != "" {
		c.Timezone = v
		c.Source = SourceEnvVar
	}
	if v := getEnv("PARSNIP_PIPELINE"); v != "" {
		c.Pipeline = v
		c.Source = SourceEnvVar
	}
	if v := getEnv("PARSNIP_DATE_FORMATS"); v != "" {
		c.DateFormats = nil
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				c.DateFormats = append(c.DateFormats, f)
			}
		}
		c.Source = SourceEnvVar
	}
	if v := getEnv("PARSNIP_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PARSNIP_BATCH_SIZE %q: %w", v, err)
		}
		c.BatchSize = n
		c.Source = SourceEnvVar
	}
	if v := getEnv("PARSNIP_ERROR_STRATEGY"); v != "" {
		strategy, err := core.ParseErrorStrategy(v)
		if err != nil {
			return fmt.Errorf("invalid PARSNIP_ERROR_STRATEGY: %w", err)
		}
		c.ErrorStrategy = strategy
		c.Source = SourceEnvVar
	}
	if v := getEnv("PARSNIP_SINK_FORMAT"); v != "" {
		c.Sink.Format = v
		c.Source = SourceEnvVar
	}
	if v := getEnv("PARSNIP_SINK_LOCATION"); v != "" {
		c.Sink.Location = v
		c.Source = SourceEnvVar
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must not be negative: %d", c.BatchSize)
	}
	if _, err := types.ParseFormat(c.Sink.Format); err != nil {
		return err
	}
	if _, err := types.ParseLocation(c.Sink.Location); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone. An empty zone is UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Apply installs the settings process-wide: the library logger, the date zone and the extra date
// layouts. It returns the installed logger.
func (c *Config) Apply() (*zap.Logger, error) {
	logger, err := logging.New(c.LogLevel)
	if err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	logging.SetLogger(logger)
	value.SetLocation(loc)
	layouts := make([]string, len(c.DateFormats))
	for i, f := range c.DateFormats {
		layouts[i] = value.JavaLayout(f)
	}
	value.AddDateLayouts(layouts...)
	logger.Debug("Configuration applied",
		zap.String("source", string(c.Source)),
		zap.String("timezone", loc.String()),
		zap.Strings("dateFormats", c.DateFormats))
	return logger, nil
}

// getEnv retrieves a trimmed environment variable
func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
