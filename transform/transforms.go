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

// Package transform provides record transforms for GoParsnip pipelines.
//
// This package includes field selection and removal, key flattening, field swapping, conditional
// patches, change monitoring, JSON patches and record construction. Multi transforms split one
// record into several.
package transform

import (
	"slices"

	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/datum"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// RetainFields keeps only the listed fields of each record.
type RetainFields struct {
	Fields []string
}

// Retain creates a transformer that keeps only the specified fields, in record order.
func Retain(fields ...string) *RetainFields { return &RetainFields{Fields: fields} }

func (t *RetainFields) Name() string     { return "RetainFields" }
func (t *RetainFields) SimpleValue() any { return core.StringList(t.Fields) }

// Transform implements core.DatumTransform
func (t *RetainFields) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	result := value.NewMap(len(t.Fields))
	for k, v := range d.All() {
		if slices.Contains(t.Fields, k) {
			result.Set(k, v)
		}
	}
	return result, nil
}

// RemoveFields drops the listed fields of each record. Fields that don't exist are ignored.
type RemoveFields struct {
	Fields []string
}

// Remove creates a transformer that removes the specified fields.
func Remove(fields ...string) *RemoveFields { return &RemoveFields{Fields: fields} }

func (t *RemoveFields) Name() string     { return "RemoveFields" }
func (t *RemoveFields) SimpleValue() any { return core.StringList(t.Fields) }

// Transform implements core.DatumTransform
func (t *RemoveFields) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	result := d.Clone()
	for _, f := range t.Fields {
		result.Delete(f)
	}
	return result, nil
}

// FlattenFields un-nests the listed map fields: {"a": {"b": 1}} becomes {"a.b": 1}. Nested maps below a
// listed field are flattened all the way down.
type FlattenFields struct {
	Fields []string
}

// FlattenKeys creates a transformer that flattens the specified map fields.
func FlattenKeys(fields ...string) *FlattenFields { return &FlattenFields{Fields: fields} }

func (t *FlattenFields) Name() string     { return "FlattenFields" }
func (t *FlattenFields) SimpleValue() any { return core.StringList(t.Fields) }

// Transform implements core.DatumTransform
func (t *FlattenFields) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	result := value.NewMap(d.Len())
	for k, v := range d.All() {
		if m, ok := v.(*value.Map); ok && slices.Contains(t.Fields, k) {
			flattenInto(result, k, m)
		} else {
			result.Set(k, v)
		}
	}
	return result, nil
}

func flattenInto(result *value.Map, prefix string, m *value.Map) {
	for k, v := range m.All() {
		key := prefix + "." + k
		if nested, ok := v.(*value.Map); ok {
			flattenInto(result, key, nested)
		} else {
			result.Set(key, v)
		}
	}
}

// Symmetry swaps the values of paired fields, for instance (ip1, port1) with (ip2, port2).
// Applying it twice returns the original record.
type Symmetry struct {
	Pairs *value.Map
}

// NewSymmetry creates a Symmetry from alternating field names, e.g. NewSymmetry("ip1", "ip2").
func NewSymmetry(pairs ...string) *Symmetry {
	m := value.NewMap(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return &Symmetry{Pairs: m}
}

func (t *Symmetry) Name() string { return "Symmetry" }

// SimpleValue returns the field pairs
func (t *Symmetry) SimpleValue() any {
	if t.Pairs == nil {
		return value.NewMap()
	}
	return t.Pairs
}

// Transform implements core.DatumTransform
func (t *Symmetry) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	result := d.Clone()
	for k, v := range t.Pairs.All() {
		other := value.String(v)
		swapInto(result, other, d, k)
		swapInto(result, k, d, other)
	}
	return result, nil
}

// swapInto copies src[from] to dst[to], removing dst[to] when src has no such key.
func swapInto(dst *value.Map, to string, src *value.Map, from string) {
	if v, ok := src.Get(from); ok {
		dst.Set(to, v)
	} else {
		dst.Delete(to)
	}
}

// MappingRule puts fields into a record when its filter matches.
type MappingRule struct {
	When *datum.FieldFilter
	Put  *value.Map
}

// Mapping applies every matching rule's puts to a copy of its input.
type Mapping struct {
	Rules []MappingRule
}

// NewMapping creates a Mapping transform
func NewMapping(rules ...MappingRule) *Mapping { return &Mapping{Rules: rules} }

func (t *Mapping) Name() string { return "Mapping" }

// Transform implements core.DatumTransform
func (t *Mapping) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	result := d.DeepCopy()
	for _, r := range t.Rules {
		if r.When.MatchDatum(d) {
			if err := pointer.PutAll(result, r.Put); err != nil {
				logging.L().Debug("mapping put failed", zap.Error(err))
			}
		}
	}
	return result, nil
}

// EncodePayload returns the list of {when, put} rules
func (t *Mapping) EncodePayload(enc core.Encoder) (any, error) {
	out := make([]any, len(t.Rules))
	for i, r := range t.Rules {
		when, err := r.When.EncodeDocument(enc)
		if err != nil {
			return nil, err
		}
		put := r.Put
		if put == nil {
			put = value.NewMap()
		}
		out[i] = value.MapOf("when", when, "put", put)
	}
	return out, nil
}

func decodeMapping(payload any, dec core.Decoder) (any, error) {
	var items []any
	switch p := payload.(type) {
	case nil:
	case []any:
		items = p
	default:
		items = []any{p}
	}
	m := &Mapping{}
	for _, item := range items {
		bean, err := core.Bean("Mapping", item)
		if err != nil {
			return nil, err
		}
		when, err := datum.DecodeFieldFilter(dec, bean.Value("when"))
		if err != nil {
			return nil, err
		}
		put, err := core.Bean("Mapping", bean.Value("put"))
		if err != nil {
			return nil, err
		}
		m.Rules = append(m.Rules, MappingRule{When: when, Put: put})
	}
	return m, nil
}

// LogDatum logs each record at Level and passes it through.
type LogDatum struct {
	Level string
}

func (t *LogDatum) Name() string     { return "LogDatum" }
func (t *LogDatum) SimpleValue() any { return t.Level }

// Transform implements core.DatumTransform
func (t *LogDatum) Transform(d core.Datum) (core.Datum, error) {
	logging.Log(t.Level, value.String(d), zap.String("operator", "LogDatum"))
	return d, nil
}
