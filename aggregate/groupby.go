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

package aggregate

import (
	"strings"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/datum"
	"github.com/aaronlmathis/goparsnip/value"
)

// Column is one summary computed per group: Op over the values of Field, stored in As.
// A Count column needs no field and counts the records of the group.
type Column struct {
	Op    core.ValueSetCompute
	Field string
	As    string
}

func (c Column) compute(group core.DataSet) (any, error) {
	if _, ok := c.Op.(Count); ok {
		return int64(len(group)), nil
	}
	return c.Op.ComputeValues(valueSet(group, c.Field))
}

// GroupBy summarizes records grouped by the values of one or more fields, computing several
// columns in one pass. Groups appear in order of first occurrence.
type GroupBy struct {
	Fields  []string
	Columns []Column
}

// NewGroupBy creates a GroupBy over the specified fields. No fields put every record in one group.
func NewGroupBy(fields ...string) *GroupBy {
	return &GroupBy{Fields: fields}
}

// Count adds a count column
func (g *GroupBy) Count(as string) *GroupBy {
	g.Columns = append(g.Columns, Column{Op: Count{}, As: as})
	return g
}

// Sum adds a sum column for the specified field
func (g *GroupBy) Sum(field, as string) *GroupBy {
	g.Columns = append(g.Columns, Column{Op: Sum{}, Field: field, As: as})
	return g
}

// Avg adds an average column for the specified field
func (g *GroupBy) Avg(field, as string) *GroupBy {
	g.Columns = append(g.Columns, Column{Op: Average{}, Field: field, As: as})
	return g
}

// Min adds a minimum column for the specified field
func (g *GroupBy) Min(field, as string) *GroupBy {
	g.Columns = append(g.Columns, Column{Op: Min{}, Field: field, As: as})
	return g
}

// Max adds a maximum column for the specified field
func (g *GroupBy) Max(field, as string) *GroupBy {
	g.Columns = append(g.Columns, Column{Op: Max{}, Field: field, As: as})
	return g
}

// Column adds a column computing op over field.
func (g *GroupBy) Column(op core.ValueSetCompute, field, as string) *GroupBy {
	g.Columns = append(g.Columns, Column{Op: op, Field: field, As: as})
	return g
}

func (g *GroupBy) Name() string { return "GroupBy" }

// TransformSet implements core.DataSetTransform
func (g *GroupBy) TransformSet(ds core.DataSet) (core.DataSet, error) {
	groups := tupleGroup(ds, g.Fields)
	out := make(core.DataSet, 0, len(groups))
	for _, grp := range groups {
		res := value.NewMap(len(g.Fields) + len(g.Columns))
		for i, f := range g.Fields {
			res.Set(f, grp.key[i])
		}
		for _, c := range g.Columns {
			v, err := c.compute(grp.records)
			if err != nil {
				return nil, core.NewError(core.ErrCompute, "GroupBy", "computing "+c.As, err)
			}
			res.Set(c.As, v)
		}
		out = append(out, res)
	}
	return out, nil
}

// EncodePayload implements core.PayloadEncoder
func (g *GroupBy) EncodePayload(core.Encoder) (any, error) {
	cols := make([]any, len(g.Columns))
	for i, c := range g.Columns {
		m := value.MapOf("op", opName(c.Op))
		if c.Field != "" {
			m.Set("field", c.Field)
		}
		m.Set("as", c.As)
		cols[i] = m
	}
	return value.MapOf("groupBy", core.StringList(g.Fields), "columns", cols), nil
}

type group struct {
	key     []any
	records core.DataSet
}

// tupleGroup groups records by the tuple of their values at fields, keeping first-occurrence order.
func tupleGroup(ds core.DataSet, fields []string) []*group {
	var order []*group
	index := map[string]*group{}
	for _, d := range ds {
		key := make([]any, len(fields))
		parts := make([]string, len(fields))
		for i, f := range fields {
			key[i] = datum.AtFieldOrPointer(d, f)
			parts[i] = tupleKey(key[i])
		}
		k := strings.Join(parts, "\x00")
		g, ok := index[k]
		if !ok {
			g = &group{key: key}
			index[k] = g
			order = append(order, g)
		}
		g.records = append(g.records, d)
	}
	return order
}

// tupleKey identifies a value by kind and rendering.
func tupleKey(v any) string {
	return value.TypeName(v) + ":" + value.String(v)
}

func valueSet(ds core.DataSet, field string) []any {
	out := make([]any, len(ds))
	for i, d := range ds {
		out[i] = datum.AtFieldOrPointer(d, field)
	}
	return out
}
