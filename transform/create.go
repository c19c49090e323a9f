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
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/compute"
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/datum"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// FieldEncode computes the value of one or more target fields: From reads the record and each
// Process step refines the result. Targets are plain keys or pointers. With several targets the
// result is read as a list and spread over them by position.
type FieldEncode struct {
	datum.Chain
	Target []string
}

// NewFieldEncode creates a FieldEncode. At least one target is required.
func NewFieldEncode(target []string, from core.DatumCompute, process ...core.ValueCompute) (*FieldEncode, error) {
	if len(target) == 0 {
		return nil, core.Constructionf("FieldEncode", "must have at least one target field")
	}
	return &FieldEncode{Chain: *datum.NewChain(from, process...), Target: target}, nil
}

// Encode creates a FieldEncode for a single target.
func Encode(target string, from core.DatumCompute, process ...core.ValueCompute) *FieldEncode {
	return &FieldEncode{Chain: *datum.NewChain(from, process...), Target: []string{target}}
}

// EncodeBoolean creates a FieldEncode for a single target that stores whether from matches f.
func EncodeBoolean(target string, from core.DatumCompute, f core.ValueFilter) *FieldEncode {
	return Encode(target, from, &compute.ValueFilterCompute{Filter: f}, &compute.As{Type: value.TypeBoolean})
}

func (f *FieldEncode) Name() string { return "FieldEncode" }

// TargetSingle returns the first target.
func (f *FieldEncode) TargetSingle() string { return f.Target[0] }

// MultipleTargets reports whether the result is spread over several targets.
func (f *FieldEncode) MultipleTargets() bool { return len(f.Target) > 1 }

// transformTo computes the field from d and writes it into res. Failures omit the field.
func (f *FieldEncode) transformTo(d, res core.Datum) {
	v, err := f.ComputeDatum(d)
	if err != nil {
		logging.L().Debug("field computation failed", zap.Strings("target", f.Target), zap.Error(err))
		return
	}
	if !f.MultipleTargets() {
		if err := pointer.Put(res, f.TargetSingle(), v); err != nil {
			logging.L().Debug("field write failed", zap.String("target", f.TargetSingle()), zap.Error(err))
		}
		return
	}
	list := asList(v)
	for i, t := range f.Target {
		var x any
		if i < len(list) {
			x = list[i]
		}
		if err := pointer.Put(res, t, x); err != nil {
			logging.L().Debug("field write failed", zap.String("target", t), zap.Error(err))
		}
	}
}

// encode returns the document payload of f as it appears in a Create.
func (f *FieldEncode) encode(enc core.Encoder) (any, error) {
	if !f.MultipleTargets() && len(f.Process) == 0 {
		if c, ok := f.From.(*datum.Constant); ok && !isContainer(c.Value) {
			return c.Value, nil
		}
		return enc.EncodeNode(f.From)
	}
	nodes := make([]any, 0, len(f.Process)+2)
	nodes = append(nodes, f.From)
	for _, p := range f.Process {
		nodes = append(nodes, p)
	}
	if f.MultipleTargets() {
		nodes = append(nodes, &compute.TargetMultipleFields{Fields: f.Target})
	}
	return datum.EncodeChain(enc, nodes)
}

// decodeFieldEncode reads a Create entry: a chain document, or a scalar taken as a constant.
func decodeFieldEncode(dec core.Decoder, target string, doc any) (*FieldEncode, error) {
	switch doc.(type) {
	case *value.Map, []any:
	default:
		return Encode(target, datum.NewConstant(doc)), nil
	}
	items := make([]any, 0)
	for _, item := range datum.ChainItems(doc) {
		if item != nil {
			items = append(items, item)
		}
	}
	from, process, err := datum.DecodeChain(dec, items)
	if err != nil {
		return nil, err
	}
	fe := Encode(target, from)
	for _, p := range process {
		if tm, ok := p.(*compute.TargetMultipleFields); ok {
			if len(tm.Fields) == 0 {
				return nil, core.Decodef("FieldEncode", "no target fields for %s", target)
			}
			fe.Target = tm.Fields
			continue
		}
		fe.Process = append(fe.Process, p)
	}
	return fe, nil
}

// Create builds a new record from field encodings. With no fields it returns its input.
type Create struct {
	Fields []*FieldEncode
}

// NewCreate creates a Create from field encodings.
func NewCreate(fields ...*FieldEncode) *Create {
	return &Create{Fields: fields}
}

func (t *Create) Name() string { return "Create" }

// Add appends a field encoding and returns t.
func (t *Create) Add(f *FieldEncode) *Create {
	t.Fields = append(t.Fields, f)
	return t
}

// Field returns the encoding whose first target is target, or nil.
func (t *Create) Field(target string) *FieldEncode {
	for _, f := range t.Fields {
		if f.TargetSingle() == target {
			return f
		}
	}
	return nil
}

// TargetFields returns every target field, without duplicates, in order.
func (t *Create) TargetFields() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range t.Fields {
		for _, target := range f.Target {
			if !seen[target] {
				seen[target] = true
				out = append(out, target)
			}
		}
	}
	return out
}

// Transform implements core.DatumTransform
func (t *Create) Transform(d core.Datum) (core.Datum, error) {
	if len(t.Fields) == 0 || d == nil {
		return d, nil
	}
	return t.create(d), nil
}

func (t *Create) create(d core.Datum) core.Datum {
	res := value.NewMap(len(t.Fields))
	for _, f := range t.Fields {
		f.transformTo(d, res)
	}
	return res
}

// EncodePayload returns the map of first target to field payload.
func (t *Create) EncodePayload(enc core.Encoder) (any, error) {
	out := value.NewMap(len(t.Fields))
	for _, f := range t.Fields {
		doc, err := f.encode(enc)
		if err != nil {
			return nil, err
		}
		out.Set(f.TargetSingle(), doc)
	}
	return out, nil
}

// DecodeCreate decodes the payload of a Create: a map of target to field payload. Null is an empty Create.
func DecodeCreate(dec core.Decoder, payload any) (*Create, error) {
	m, err := core.Bean("Create", payload)
	if err != nil {
		return nil, err
	}
	c := &Create{}
	for target, doc := range m.All() {
		f, err := decodeFieldEncode(dec, target, doc)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, f)
	}
	return c, nil
}

// Augment adds the fields of a Create to a copy of its input.
type Augment struct {
	Create
}

// NewAugment creates an Augment from field encodings.
func NewAugment(fields ...*FieldEncode) *Augment {
	return &Augment{Create{Fields: fields}}
}

func (t *Augment) Name() string { return "Augment" }

// Transform implements core.DatumTransform
func (t *Augment) Transform(d core.Datum) (core.Datum, error) {
	if len(t.Fields) == 0 || d == nil {
		return d, nil
	}
	res := d.Clone()
	for k, v := range t.create(d).All() {
		res.Set(k, v)
	}
	return res, nil
}

func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case *value.Map:
		out := make([]any, 0, t.Len())
		for _, x := range t.All() {
			out = append(out, x)
		}
		return out
	}
	if l, ok := value.Normalize(v).([]any); ok {
		return l
	}
	return []any{v}
}

func isContainer(v any) bool {
	switch v.(type) {
	case *value.Map, []any:
		return true
	}
	return false
}
