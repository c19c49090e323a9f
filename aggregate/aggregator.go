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

// Package aggregate provides functions over record collections and value sets for GoParsnip.
//
// DataSet transforms sort, limit, chain and summarize collections of records. DataSet computes
// extract values or pick records. Value-set computes reduce a list of values to a count, a sum,
// an extreme or full statistics.
package aggregate

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

// Aggregate counts or otherwise summarizes records, optionally grouped by one or more fields.
// Each result holds the group's field values and the summary in AsField.
type Aggregate struct {
	GroupBy []string
	Op      core.ValueSetCompute
	Field   string
	AsField string
}

// NewAggregate creates an Aggregate. A nil op counts. Field is required unless op is Count.
func NewAggregate(groupBy []string, op core.ValueSetCompute, field, asField string) (*Aggregate, error) {
	if op == nil {
		op = Count{}
	}
	if _, ok := op.(Count); !ok && field == "" {
		return nil, core.Constructionf("Aggregate", "field must be supplied if not a count aggregate")
	}
	return &Aggregate{GroupBy: groupBy, Op: op, Field: field, AsField: asField}, nil
}

// CountBy creates an aggregate that counts the tuples of groupBy into asField.
func CountBy(groupBy []string, asField string) *Aggregate {
	return &Aggregate{GroupBy: groupBy, Op: Count{}, AsField: asField}
}

func (a *Aggregate) Name() string { return "Aggregate" }

// TransformSet implements core.DataSetTransform
func (a *Aggregate) TransformSet(ds core.DataSet) (core.DataSet, error) {
	op := a.Op
	if op == nil {
		op = Count{}
	}
	g := &GroupBy{Fields: a.GroupBy, Columns: []Column{{Op: op, Field: a.Field, As: a.AsField}}}
	return g.TransformSet(ds)
}

// EncodePayload implements core.PayloadEncoder
func (a *Aggregate) EncodePayload(core.Encoder) (any, error) {
	m := value.NewMap(4)
	if len(a.GroupBy) > 0 {
		m.Set("groupBy", core.StringList(a.GroupBy))
	}
	if a.Op != nil {
		if _, ok := a.Op.(Count); !ok {
			m.Set("op", opName(a.Op))
		}
	}
	if a.Field != "" {
		m.Set("field", a.Field)
	}
	m.Set("asField", a.AsField)
	return m, nil
}

func decodeAggregate(payload any, dec core.Decoder) (any, error) {
	m, err := core.Bean("Aggregate", payload)
	if err != nil {
		return nil, err
	}
	op, err := decodeOp(dec, m.Value("op"))
	if err != nil {
		return nil, err
	}
	return NewAggregate(core.Strings(m.Value("groupBy")), op, core.StringOr(m, "field", ""),
		core.StringOr(m, "asField", ""))
}

func decodeGroupBy(payload any, dec core.Decoder) (any, error) {
	m, err := core.Bean("GroupBy", payload)
	if err != nil {
		return nil, err
	}
	g := NewGroupBy(core.Strings(m.Value("groupBy"))...)
	cols, _ := m.Value("columns").([]any)
	for _, c := range cols {
		bean, err := core.Bean("GroupBy", c)
		if err != nil {
			return nil, err
		}
		op, err := decodeOp(dec, bean.Value("op"))
		if err != nil {
			return nil, err
		}
		field := core.StringOr(bean, "field", "")
		if _, ok := op.(Count); !ok && field == "" {
			return nil, core.Constructionf("GroupBy", "field must be supplied if not a count column")
		}
		g.Column(op, field, core.StringOr(bean, "as", ""))
	}
	return g, nil
}

// decodeOp reads a value-set compute given by name or as a node document. Null counts.
func decodeOp(dec core.Decoder, doc any) (core.ValueSetCompute, error) {
	switch d := doc.(type) {
	case nil:
		return Count{}, nil
	case string:
		f, err := registry.Lookup(core.FamilyValueSetCompute, d)
		if err != nil {
			return nil, err
		}
		node, err := f(nil, dec)
		if err != nil {
			return nil, err
		}
		op, ok := node.(core.ValueSetCompute)
		if !ok {
			return nil, core.Decodef("Aggregate", "%s is not a value set compute", d)
		}
		return op, nil
	}
	return core.DecodeAs[core.ValueSetCompute](dec, core.FamilyValueSetCompute, doc)
}

func opName(op core.ValueSetCompute) string {
	if n, ok := op.(core.Named); ok {
		return n.Name()
	}
	return value.TypeName(op)
}
