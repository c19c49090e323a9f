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

package core

import (
	"iter"

	"github.com/aaronlmathis/goparsnip/value"
)

// Package core defines the core types for the GoParsnip library.
//
// This file contains the record types and function adapters.

// Datum is a single record: an ordered map from field names to values.
// A nil Datum means "no record" and is how transforms suppress output.
type Datum = *value.Map

// DataSet is an ordered collection of records.
type DataSet []Datum

// DataSequence is a lazy, possibly unbounded sequence of records.
type DataSequence = iter.Seq[Datum]

// NewDatum builds a Datum from alternating keys and values, e.g. NewDatum("a", 1, "b", "x").
func NewDatum(kv ...any) Datum {
	return value.MapOf(kv...)
}

// Compact returns the non-nil records of ds.
func (ds DataSet) Compact() DataSet {
	out := make(DataSet, 0, len(ds))
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// All returns ds as a DataSequence.
func (ds DataSet) All() DataSequence {
	return func(yield func(Datum) bool) {
		for _, d := range ds {
			if !yield(d) {
				return
			}
		}
	}
}

// Collect drains seq into a DataSet.
func Collect(seq DataSequence) DataSet {
	var out DataSet
	for d := range seq {
		out = append(out, d)
	}
	return out
}

// TransformFunc is a function adapter for the DatumTransform interface.
// Allows ordinary functions to be used as transforms.
type TransformFunc func(d Datum) (Datum, error)

// Transform implements the DatumTransform interface for TransformFunc.
func (f TransformFunc) Transform(d Datum) (Datum, error) {
	return f(d)
}

// FilterFunc is a function adapter for the DatumFilter interface.
// Allows ordinary functions to be used as record filters.
type FilterFunc func(d Datum) bool

// MatchDatum implements the DatumFilter interface for FilterFunc.
func (f FilterFunc) MatchDatum(d Datum) bool {
	return f(d)
}

// ValueFilterFunc is a function adapter for the ValueFilter interface.
type ValueFilterFunc func(v any) bool

// Match implements the ValueFilter interface for ValueFilterFunc.
func (f ValueFilterFunc) Match(v any) bool {
	return f(v)
}

// ComputeFunc is a function adapter for the ValueCompute interface.
type ComputeFunc func(v any) (any, error)

// Compute implements the ValueCompute interface for ComputeFunc.
func (f ComputeFunc) Compute(v any) (any, error) {
	return f(v)
}
