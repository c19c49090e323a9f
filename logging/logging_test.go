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

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLevel tests level name mapping
func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"info":    zapcore.InfoLevel,
		"FINE":    zapcore.DebugLevel,
		"Severe":  zapcore.ErrorLevel,
		"WARNING": zapcore.WarnLevel,
		"":        zapcore.InfoLevel,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

// TestLog tests level-named logging through the installed logger
func TestLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Log("FINE", "hidden")
	Log("WARNING", "shown", zap.Int("n", 1))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "shown", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
}

// TestNew tests logger construction
func TestNew(t *testing.T) {
	l, err := New("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("error")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New("nope")
	assert.Error(t, err)
}

// TestDump tests debug rendering
func TestDump(t *testing.T) {
	assert.Contains(t, Dump(map[string]int{"b": 2, "a": 1}), "(string) (len=1) \"a\": (int) 1")
}
