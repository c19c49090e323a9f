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

package transform

import (
	"slices"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// Flatten splits a record into several, one per element of its list fields: {a: [1, 2]} becomes
// {a: 1} and {a: 2}. Collated fields are walked in parallel; otherwise every combination of elements
// is produced. As optionally renames the flattened fields by position.
type Flatten struct {
	Fields  []string
	As      []string
	Collate bool
}

// NewFlatten creates a collating Flatten over fields.
func NewFlatten(fields ...string) *Flatten {
	return &Flatten{Fields: fields, Collate: true}
}

func (t *Flatten) Name() string { return "Flatten" }

// TransformAll implements core.MultiDatumTransform
func (t *Flatten) TransformAll(d core.Datum) ([]core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	if t.Collate {
		return t.collate(d), nil
	}
	res := []core.Datum{d}
	for i, f := range t.Fields {
		name := f
		if i < len(t.As) {
			name = t.As[i]
		}
		next := make([]core.Datum, 0, len(res))
		for _, r := range res {
			list, ok := r.Value(f).([]any)
			if !ok {
				next = append(next, r)
				continue
			}
			for _, x := range list {
				c := r.Clone()
				c.Delete(f)
				c.Set(name, x)
				next = append(next, c)
			}
		}
		res = next
	}
	return res, nil
}

func (t *Flatten) collate(d core.Datum) []core.Datum {
	size := -1
	for _, f := range t.Fields {
		if list, ok := d.Value(f).([]any); ok {
			size = max(size, len(list))
		}
	}
	if size < 0 {
		return []core.Datum{d}
	}
	res := make([]core.Datum, size)
	for i := range size {
		c := d.Clone()
		for j, f := range t.Fields {
			name := f
			if j < len(t.As) {
				name = t.As[j]
			}
			var x any
			switch v := d.Value(f).(type) {
			case []any:
				if i < len(v) {
					x = v[i]
				}
			default:
				if i == 0 {
					x = v
				}
			}
			c.Set(name, x)
		}
		if len(t.As) > 0 {
			for _, f := range t.Fields {
				if !slices.Contains(t.As, f) {
					c.Delete(f)
				}
			}
		}
		res[i] = c
	}
	return res
}

// EncodePayload implements core.PayloadEncoder
func (t *Flatten) EncodePayload(core.Encoder) (any, error) {
	out := value.MapOf("fields", core.StringList(t.Fields))
	if len(t.As) > 0 {
		out.Set("as", core.StringList(t.As))
	}
	if !t.Collate {
		out.Set("collate", false)
	}
	return out, nil
}

func decodeFlatten(payload any, _ core.Decoder) (any, error) {
	m, ok := payload.(*value.Map)
	if !ok {
		return NewFlatten(core.Strings(payload)...), nil
	}
	return &Flatten{
		Fields:  core.Strings(m.Value("fields")),
		As:      core.Strings(m.Value("as")),
		Collate: core.BoolOr(m, "collate", true),
	}, nil
}

// Fold splits a record into one record per listed field. Each result is the input plus a key field
// holding the field name and a value field holding its value.
type Fold struct {
	Fields []string
	As     []string
}

// NewFold creates a Fold that writes to "key" and "value".
func NewFold(fields ...string) *Fold {
	return &Fold{Fields: fields, As: []string{"key", "value"}}
}

func (t *Fold) Name() string { return "Fold" }

func (t *Fold) names() (string, string) {
	key, val := "key", "value"
	if len(t.As) > 0 {
		key = t.As[0]
	}
	if len(t.As) > 1 {
		val = t.As[1]
	}
	return key, val
}

// TransformAll implements core.MultiDatumTransform
func (t *Fold) TransformAll(d core.Datum) ([]core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	key, val := t.names()
	res := make([]core.Datum, len(t.Fields))
	for i, f := range t.Fields {
		c := d.Clone()
		c.Set(key, f)
		c.Set(val, d.Value(f))
		res[i] = c
	}
	return res, nil
}

// EncodePayload implements core.PayloadEncoder
func (t *Fold) EncodePayload(core.Encoder) (any, error) {
	out := value.MapOf("fields", core.StringList(t.Fields))
	if key, val := t.names(); key != "key" || val != "value" {
		out.Set("as", core.StringList(t.As))
	}
	return out, nil
}

func decodeFold(payload any, _ core.Decoder) (any, error) {
	m, ok := payload.(*value.Map)
	if !ok {
		return NewFold(core.Strings(payload)...), nil
	}
	f := NewFold(core.Strings(m.Value("fields"))...)
	if as := core.Strings(m.Value("as")); len(as) > 0 {
		f.As = as
	}
	return f, nil
}

// Wrapper adapts a DatumTransform to a MultiDatumTransform. A nil result yields no records.
type Wrapper struct {
	Base core.DatumTransform
}

// Wrap returns t as a MultiDatumTransform, wrapping it when needed.
func Wrap(t core.DatumTransform) core.MultiDatumTransform {
	if m, ok := t.(core.MultiDatumTransform); ok {
		return m
	}
	return &Wrapper{Base: t}
}

func (t *Wrapper) Name() string { return "DatumTransformWrapper" }

// TransformAll implements core.MultiDatumTransform
func (t *Wrapper) TransformAll(d core.Datum) ([]core.Datum, error) {
	res, err := t.Base.Transform(d)
	if err != nil || res == nil {
		return nil, err
	}
	return []core.Datum{res}, nil
}

// EncodeDocument returns the document of the wrapped transform.
func (t *Wrapper) EncodeDocument(enc core.Encoder) (any, error) {
	return enc.EncodeNode(t.Base)
}
