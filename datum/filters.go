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

// Package datum provides filters and computes over single records.
package datum

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/filter"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// FieldFilter applies a value filter per field and matches when all of them match. Fields are read
// by exact key first, then as a pointer.
type FieldFilter struct {
	keys    []string
	filters map[string]core.ValueFilter
}

// NewFieldFilter creates a FieldFilter from field/filter pairs. Values that are not filters become Equal filters.
func NewFieldFilter(kv ...any) *FieldFilter {
	f := &FieldFilter{filters: map[string]core.ValueFilter{}}
	for i := 0; i+1 < len(kv); i += 2 {
		field := value.String(kv[i])
		if vf, ok := kv[i+1].(core.ValueFilter); ok {
			f.Put(field, vf)
		} else {
			f.Put(field, filter.NewEqual(kv[i+1]))
		}
	}
	return f
}

// Put sets the filter for a field and returns f.
func (f *FieldFilter) Put(field string, vf core.ValueFilter) *FieldFilter {
	if f.filters == nil {
		f.filters = map[string]core.ValueFilter{}
	}
	if _, ok := f.filters[field]; !ok {
		f.keys = append(f.keys, field)
	}
	f.filters[field] = vf
	return f
}

// Fields returns the filtered fields in insertion order.
func (f *FieldFilter) Fields() []string { return f.keys }

// Filter returns the filter for field.
func (f *FieldFilter) Filter(field string) core.ValueFilter { return f.filters[field] }

func (f *FieldFilter) Name() string { return "DatumFieldFilter" }

// MatchDatum implements core.DatumFilter
func (f *FieldFilter) MatchDatum(d core.Datum) bool {
	for _, k := range f.keys {
		if !f.filters[k].Match(AtFieldOrPointer(d, k)) {
			return false
		}
	}
	return true
}

// EncodeDocument returns the bare field map.
func (f *FieldFilter) EncodeDocument(enc core.Encoder) (any, error) {
	out := value.NewMap(len(f.keys))
	for _, k := range f.keys {
		doc, err := enc.EncodeNode(f.filters[k])
		if err != nil {
			return nil, err
		}
		out.Set(k, doc)
	}
	return out, nil
}

// AtFieldOrPointer reads key from d, falling back to a pointer lookup when the key is absent.
func AtFieldOrPointer(d core.Datum, key string) any {
	if v, ok := d.Get(key); ok {
		return v
	}
	return pointer.Get(d, key)
}

// All matches every record.
type All struct{}

func (All) Name() string               { return "All" }
func (All) MatchDatum(core.Datum) bool { return true }

// None matches no record.
type None struct{}

func (None) Name() string               { return "None" }
func (None) MatchDatum(core.Datum) bool { return false }

// And matches when every filter matches. Nested And filters are merged into the top list.
type And struct {
	Filters []core.DatumFilter
}

// NewAnd creates an And filter
func NewAnd(filters ...core.DatumFilter) *And {
	var base []core.DatumFilter
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

// MatchDatum implements core.DatumFilter
func (f *And) MatchDatum(d core.Datum) bool {
	for _, x := range f.Filters {
		if !x.MatchDatum(d) {
			return false
		}
	}
	return true
}

func (f *And) EncodePayload(enc core.Encoder) (any, error) { return encodeNodes(enc, f.Filters) }

// Or matches when any filter matches. Nested Or filters are merged into the top list.
type Or struct {
	Filters []core.DatumFilter
}

// NewOr creates an Or filter
func NewOr(filters ...core.DatumFilter) *Or {
	var base []core.DatumFilter
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

// MatchDatum implements core.DatumFilter
func (f *Or) MatchDatum(d core.Datum) bool {
	for _, x := range f.Filters {
		if x.MatchDatum(d) {
			return true
		}
	}
	return false
}

func (f *Or) EncodePayload(enc core.Encoder) (any, error) { return encodeNodes(enc, f.Filters) }

// Not inverts a record filter.
type Not struct {
	Filter core.DatumFilter
}

// Negate returns the inverse of f, unwrapping rather than stacking Not.
func Negate(f core.DatumFilter) core.DatumFilter {
	if n, ok := f.(*Not); ok {
		return n.Filter
	}
	return &Not{Filter: f}
}

func (f *Not) Name() string                                { return "Not" }
func (f *Not) MatchDatum(d core.Datum) bool                { return !f.Filter.MatchDatum(d) }
func (f *Not) EncodePayload(enc core.Encoder) (any, error) { return enc.EncodeNode(f.Filter) }

func encodeNodes[T any](enc core.Encoder, nodes []T) ([]any, error) {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		doc, err := enc.EncodeNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}
