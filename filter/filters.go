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

package filter

import (
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/value"
)

// Package filter provides composable value filters for GoParsnip pipelines.
//
// Comparison filters order values with value.Compare, so "10" matches Gt(9) and a time matches
// Lt("2020-01-01"). Values that cannot be compared never match.
// This file contains the comparison filters.

// comparing is the shared state of the ordering filters.
type comparing struct {
	Value any
}

func (c *comparing) test(v any, ok func(int) bool) bool {
	r, err := value.Compare(v, c.Value)
	if err != nil {
		logging.L().Debug("objects were not comparable", zap.Error(err))
		return false
	}
	return ok(r)
}

// EncodePayload returns the compared value, nil included.
func (c *comparing) EncodePayload(core.Encoder) (any, error) { return c.Value, nil }

// Equal matches values equal to Value. Nil only equals nil.
type Equal struct{ comparing }

// NewEqual creates an Equal filter
func NewEqual(v any) *Equal { return &Equal{comparing{value.Normalize(v)}} }

func (f *Equal) Name() string { return "Equal" }

// Match implements core.ValueFilter
func (f *Equal) Match(v any) bool {
	if v == nil || f.Value == nil {
		return v == f.Value
	}
	return f.test(v, func(c int) bool { return c == 0 })
}

// NotEqual matches values not equal to Value.
type NotEqual struct{ comparing }

// NewNotEqual creates a NotEqual filter
func NewNotEqual(v any) *NotEqual { return &NotEqual{comparing{value.Normalize(v)}} }

func (f *NotEqual) Name() string { return "NotEqual" }

// Match implements core.ValueFilter
func (f *NotEqual) Match(v any) bool {
	if v == nil || f.Value == nil {
		return v != f.Value
	}
	return f.test(v, func(c int) bool { return c != 0 })
}

// Gt matches values greater than Value.
type Gt struct{ comparing }

// NewGt creates a Gt filter
func NewGt(v any) *Gt { return &Gt{comparing{value.Normalize(v)}} }

func (f *Gt) Name() string { return "Gt" }

// Match implements core.ValueFilter
func (f *Gt) Match(v any) bool { return f.test(v, func(c int) bool { return c > 0 }) }

// Gte matches values greater than or equal to Value.
type Gte struct{ comparing }

// NewGte creates a Gte filter
func NewGte(v any) *Gte { return &Gte{comparing{value.Normalize(v)}} }

func (f *Gte) Name() string { return "Gte" }

// Match implements core.ValueFilter
func (f *Gte) Match(v any) bool { return f.test(v, func(c int) bool { return c >= 0 }) }

// Lt matches values less than Value.
type Lt struct{ comparing }

// NewLt creates a Lt filter
func NewLt(v any) *Lt { return &Lt{comparing{value.Normalize(v)}} }

func (f *Lt) Name() string { return "Lt" }

// Match implements core.ValueFilter
func (f *Lt) Match(v any) bool { return f.test(v, func(c int) bool { return c < 0 }) }

// Lte matches values less than or equal to Value.
type Lte struct{ comparing }

// NewLte creates a Lte filter
func NewLte(v any) *Lte { return &Lte{comparing{value.Normalize(v)}} }

func (f *Lte) Name() string { return "Lte" }

// Match implements core.ValueFilter
func (f *Lte) Match(v any) bool { return f.test(v, func(c int) bool { return c <= 0 }) }

// Range matches values between Min and Max, both inclusive.
type Range struct {
	Min, Max any
}

// NewRange creates a Range filter
func NewRange(min, max any) *Range {
	return &Range{Min: value.Normalize(min), Max: value.Normalize(max)}
}

func (f *Range) Name() string { return "Range" }

// SimpleValue returns [min, max]
func (f *Range) SimpleValue() any { return []any{f.Min, f.Max} }

// Match implements core.ValueFilter
func (f *Range) Match(v any) bool {
	lo, err := value.Compare(v, f.Min)
	if err != nil {
		return false
	}
	hi, err := value.Compare(v, f.Max)
	if err != nil {
		return false
	}
	return lo >= 0 && hi <= 0
}

// OneOf matches values equal to any element of Values.
type OneOf struct {
	Values []any
}

// NewOneOf creates a OneOf filter
func NewOneOf(vs ...any) *OneOf {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = value.Normalize(v)
	}
	return &OneOf{Values: out}
}

func (f *OneOf) Name() string { return "OneOf" }

// SimpleValue returns the candidate list
func (f *OneOf) SimpleValue() any { return f.Values }

// Match implements core.ValueFilter
func (f *OneOf) Match(v any) bool {
	eq := NewEqual(v)
	for _, x := range f.Values {
		if eq.Match(x) {
			return true
		}
	}
	return false
}
