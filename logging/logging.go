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

// Package logging holds the library logger.
//
// The logger defaults to a no-op zap logger; hosts install their own with SetLogger or build one
// from a level name with New. Operators that log at a configurable level (LogValue, LogDatum)
// go through Log, which accepts the level names used in pipeline documents.
package logging

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// New builds a logger for the given level name. "debug" and finer levels use the development
// configuration; everything else uses the production JSON configuration.
func New(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var cfg zap.Config
	if lvl <= zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// SetLogger installs l as the library logger. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// L returns the library logger.
func L() *zap.Logger {
	return logger.Load()
}

// ParseLevel maps a level name to a zap level. Besides the zap names it accepts
// SEVERE, WARNING, CONFIG, FINE, FINER, FINEST and TRACE, in any case.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "INFO", "CONFIG":
		return zapcore.InfoLevel, nil
	case "DEBUG", "FINE", "FINER", "FINEST", "TRACE":
		return zapcore.DebugLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR", "SEVERE":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", name)
}

// Log writes msg at the named level. Unknown level names log at info.
func Log(level, msg string, fields ...zap.Field) {
	lvl, _ := ParseLevel(level)
	if ce := L().Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

// Dump renders v for debug output.
func Dump(v any) string {
	return dumper.Sdump(v)
}

// DumpField returns Dump(v) as a lazily rendered zap field.
func DumpField(key string, v any) zap.Field {
	return zap.Stringer(key, stringer(func() string { return Dump(v) }))
}

type stringer func() string

func (s stringer) String() string { return s() }
