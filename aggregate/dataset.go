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
	"slices"
	"strings"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// Limit keeps the first N records.
type Limit struct {
	N int
}

func (t *Limit) Name() string     { return "Limit" }
func (t *Limit) SimpleValue() any { return int64(t.N) }

// TransformSet implements core.DataSetTransform
func (t *Limit) TransformSet(ds core.DataSet) (core.DataSet, error) {
	if t.N < len(ds) {
		return ds[:max(t.N, 0)], nil
	}
	return ds, nil
}

// Chain applies each transform in order. A nil result from any step ends the chain with nil.
type Chain struct {
	Transforms []core.DataSetTransform
}

// NewChain creates a Chain of transforms
func NewChain(transforms ...core.DataSetTransform) *Chain {
	return &Chain{Transforms: transforms}
}

func (t *Chain) Name() string { return "Chain" }

// TransformSet implements core.DataSetTransform
func (t *Chain) TransformSet(ds core.DataSet) (core.DataSet, error) {
	set := ds
	for _, tr := range t.Transforms {
		next, err := tr.TransformSet(set)
		if err != nil || next == nil {
			return nil, err
		}
		set = next
	}
	return set, nil
}

// EncodePayload returns the list of transform documents
func (t *Chain) EncodePayload(enc core.Encoder) (any, error) {
	out := make([]any, len(t.Transforms))
	for i, tr := range t.Transforms {
		doc, err := enc.EncodeNode(tr)
		if err != nil {
			return nil, err
		}
		out[i] = doc
	}
	return out, nil
}

// SortBy sorts records by the given fields, ascending. The sort is stable.
type SortBy struct {
	Fields []string
}

func (t *SortBy) Name() string     { return "SortBy" }
func (t *SortBy) SimpleValue() any { return core.StringList(t.Fields) }

// TransformSet implements core.DataSetTransform
func (t *SortBy) TransformSet(ds core.DataSet) (core.DataSet, error) {
	return sortRecords(ds, t.Fields, 1), nil
}

// SortByDescending sorts records by the given fields, descending. The sort is stable.
type SortByDescending struct {
	Fields []string
}

func (t *SortByDescending) Name() string     { return "SortByDescending" }
func (t *SortByDescending) SimpleValue() any { return core.StringList(t.Fields) }

// TransformSet implements core.DataSetTransform
func (t *SortByDescending) TransformSet(ds core.DataSet) (core.DataSet, error) {
	return sortRecords(ds, t.Fields, -1), nil
}

func sortRecords(ds core.DataSet, fields []string, sign int) core.DataSet {
	out := slices.Clone(ds)
	slices.SortStableFunc(out, func(a, b core.Datum) int {
		for _, f := range fields {
			if c := compareNullable(a.Value(f), b.Value(f)); c != 0 {
				return sign * c
			}
		}
		return 0
	})
	return out
}

// compareNullable orders nulls first and falls back to string order for values with no common order.
func compareNullable(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c, err := value.Compare(a, b)
	if err != nil {
		return strings.Compare(value.String(a), value.String(b))
	}
	return c
}

// OnEach applies a record transform to every record of a set, dropping nil results.
type OnEach struct {
	Transform core.DatumTransform
}

// TransformSet implements core.DataSetTransform
func (t *OnEach) TransformSet(ds core.DataSet) (core.DataSet, error) {
	out := make(core.DataSet, 0, len(ds))
	for _, d := range ds {
		res, err := t.Transform.Transform(d)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

// TopTuples counts the tuples of groupBy into asField and keeps the limit most frequent.
func TopTuples(groupBy []string, asField string, limit int) *Chain {
	return NewChain(CountBy(groupBy, asField), &SortByDescending{Fields: []string{asField}}, &Limit{N: limit})
}

// Values extracts the values of one field.
type Values struct {
	Field string
}

func (c *Values) Name() string     { return "Values" }
func (c *Values) SimpleValue() any { return c.Field }

// ComputeSet implements core.DataSetCompute
func (c *Values) ComputeSet(ds core.DataSet) (any, error) { return valueSet(ds, c.Field), nil }

// ArgMin finds the record whose field has the smallest numeric value. Records without a number there
// are skipped; with none left the result is nil.
type ArgMin struct {
	Field string
}

func (c *ArgMin) Name() string                            { return "ArgMin" }
func (c *ArgMin) SimpleValue() any                        { return c.Field }
func (c *ArgMin) ComputeSet(ds core.DataSet) (any, error) { return argBest(ds, c.Field, -1), nil }

// ArgMax finds the record whose field has the largest numeric value. Records without a number there
// are skipped; with none left the result is nil.
type ArgMax struct {
	Field string
}

func (c *ArgMax) Name() string                            { return "ArgMax" }
func (c *ArgMax) SimpleValue() any                        { return c.Field }
func (c *ArgMax) ComputeSet(ds core.DataSet) (any, error) { return argBest(ds, c.Field, 1), nil }

func argBest(ds core.DataSet, field string, sign int) any {
	var best core.Datum
	var bestVal float64
	for _, d := range ds {
		f, ok := value.ToFloat(d.Value(field))
		if !ok {
			continue
		}
		if best == nil || (sign < 0 && f < bestVal) || (sign > 0 && f > bestVal) {
			best, bestVal = d, f
		}
	}
	if best == nil {
		return nil
	}
	return best
}

// FieldStats computes ExtendedStats over the values of one field.
type FieldStats struct {
	Field string
}

func (c *FieldStats) Name() string     { return "Stats" }
func (c *FieldStats) SimpleValue() any { return c.Field }

// ComputeSet implements core.DataSetCompute
func (c *FieldStats) ComputeSet(ds core.DataSet) (any, error) {
	return NewExtendedStats(valueSet(ds, c.Field)), nil
}
