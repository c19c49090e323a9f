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

// Package compute provides value computes: functions from one value to another.
//
// Computes never fail on unexpected input. They return nil, or the configured default, and reserve
// errors for conditions a caller must see, such as a decoder rejecting its input.
package compute

import (
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/value"
)

// Identity returns its input.
type Identity struct{}

func (Identity) Name() string               { return "Identity" }
func (Identity) Compute(v any) (any, error) { return v, nil }

// Constant ignores its input and returns Value.
type Constant struct {
	Value any
}

// NewConstant creates a Constant compute
func NewConstant(v any) *Constant { return &Constant{Value: value.Normalize(v)} }

func (c *Constant) Name() string                            { return "Constant" }
func (c *Constant) Compute(any) (any, error)                { return c.Value, nil }
func (c *Constant) EncodePayload(core.Encoder) (any, error) { return c.Value, nil }

// LogValue logs its input at Level and returns it unchanged.
type LogValue struct {
	Level string
}

func (c *LogValue) Name() string { return "LogValue" }

// SimpleValue returns the level name
func (c *LogValue) SimpleValue() any { return c.Level }

// Compute implements core.ValueCompute
func (c *LogValue) Compute(v any) (any, error) {
	logging.Log(c.Level, value.String(v), zap.String("operator", "LogValue"))
	return v, nil
}

// ValueFilterCompute returns the result of a filter as a boolean. It encodes as the filter itself.
type ValueFilterCompute struct {
	Filter core.ValueFilter
}

func (c *ValueFilterCompute) Name() string { return "ValueFilterCompute" }

// Compute implements core.ValueCompute
func (c *ValueFilterCompute) Compute(v any) (any, error) { return c.Filter.Match(v), nil }

// EncodeDocument returns the filter's document
func (c *ValueFilterCompute) EncodeDocument(enc core.Encoder) (any, error) {
	return enc.EncodeNode(c.Filter)
}

// TargetMultipleFields marks a field computation whose list result is spread over several targets.
// It only appears inside a field encoding and is never computed.
type TargetMultipleFields struct {
	Fields []string
}

func (c *TargetMultipleFields) Name() string     { return "TargetMultipleFields" }
func (c *TargetMultipleFields) SimpleValue() any { return core.StringList(c.Fields) }

// Compute always fails.
func (c *TargetMultipleFields) Compute(any) (any, error) {
	return nil, core.Computef("TargetMultipleFields", "not a computation")
}
