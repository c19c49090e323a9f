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
	"github.com/aaronlmathis/goparsnip/core"
)

// IsNull matches nil.
type IsNull struct{}

func (IsNull) Name() string     { return "IsNull" }
func (IsNull) Match(v any) bool { return v == nil }

// IsNotNull matches anything but nil.
type IsNotNull struct{}

func (IsNotNull) Name() string     { return "IsNotNull" }
func (IsNotNull) Match(v any) bool { return v != nil }

// IsEmpty matches nil and the empty string.
type IsEmpty struct{}

func (IsEmpty) Name() string     { return "IsEmpty" }
func (IsEmpty) Match(v any) bool { return v == nil || v == "" }

// IsNotEmpty matches anything but nil and the empty string.
type IsNotEmpty struct{}

func (IsNotEmpty) Name() string     { return "IsNotEmpty" }
func (IsNotEmpty) Match(v any) bool { return v != nil && v != "" }

// All matches everything.
type All struct{}

func (All) Name() string   { return "All" }
func (All) Match(any) bool { return true }

// None matches nothing.
type None struct{}

func (None) Name() string   { return "None" }
func (None) Match(any) bool { return false }

// And matches when every filter matches. Nested And filters are merged into the top list.
type And struct {
	Filters []core.ValueFilter
}

// NewAnd creates an And filter
func NewAnd(filters ...core.ValueFilter) *And {
	var base []core.ValueFilter
	for _, f := range filters {
		if a, ok := f.(*And); ok {
			base = append(base, a.Filters...)
		} else {
			base = append(base, f)
		}
	}
	return &And{Filters: base}
}

func (f *And) Name() string { return "And" }

// Match implements core.ValueFilter
func (f *And) Match(v any) bool {
	for _, x := range f.Filters {
		if !x.Match(v) {
			return false
		}
	}
	return true
}

// EncodePayload returns the encoded filter list
func (f *And) EncodePayload(enc core.Encoder) (any, error) { return encodeList(enc, f.Filters) }

// Or matches when any filter matches. Nested Or filters are merged into the top list.
type Or struct {
	Filters []core.ValueFilter
}

// NewOr creates an Or filter
func NewOr(filters ...core.ValueFilter) *Or {
	var base []core.ValueFilter
	for _, f := range filters {
		if o, ok := f.(*Or); ok {
			base = append(base, o.Filters...)
		} else {
			base = append(base, f)
		}
	}
	return &Or{Filters: base}
}

func (f *Or) Name() string { return "Or" }

// Match implements core.ValueFilter
func (f *Or) Match(v any) bool {
	for _, x := range f.Filters {
		if x.Match(v) {
			return true
		}
	}
	return false
}

// EncodePayload returns the encoded filter list
func (f *Or) EncodePayload(enc core.Encoder) (any, error) { return encodeList(enc, f.Filters) }

// Not inverts a filter.
type Not struct {
	Filter core.ValueFilter
}

// Negate returns the inverse of f, unwrapping rather than stacking Not.
func Negate(f core.ValueFilter) core.ValueFilter {
	if n, ok := f.(*Not); ok {
		return n.Filter
	}
	return &Not{Filter: f}
}

func (f *Not) Name() string { return "Not" }

// Match implements core.ValueFilter
func (f *Not) Match(v any) bool { return !f.Filter.Match(v) }

// EncodePayload returns the encoded inner filter
func (f *Not) EncodePayload(enc core.Encoder) (any, error) { return enc.EncodeNode(f.Filter) }

func encodeList(enc core.Encoder, filters []core.ValueFilter) (any, error) {
	out := make([]any, 0, len(filters))
	for _, f := range filters {
		doc, err := enc.EncodeNode(f)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
