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
	"context"
	"fmt"
)

// Package core defines the core interfaces for the GoParsnip library.
//
// GoParsnip composes filters, computes and transforms over semi-structured records and persists the
// composition as a compact JSON or YAML document. Operators are pure and synchronous; the streaming
// runner in the root package adds context, sources and sinks.
//
// This file contains the operator capability interfaces, the node contracts used by the codec,
// and the source and sink interfaces.

// ValueFilter matches single values.
type ValueFilter interface {
	Match(v any) bool
}

// ValueCompute derives a value from a value.
type ValueCompute interface {
	Compute(v any) (any, error)
}

// DatumFilter matches records.
type DatumFilter interface {
	MatchDatum(d Datum) bool
}

// DatumCompute derives a value from a record.
type DatumCompute interface {
	ComputeDatum(d Datum) (any, error)
}

// DatumTransform maps a record to a record. A nil result drops the record.
type DatumTransform interface {
	Transform(d Datum) (Datum, error)
}

// MultiDatumTransform maps a record to zero or more records.
type MultiDatumTransform interface {
	TransformAll(d Datum) ([]Datum, error)
}

// DataSetCompute derives a value from a collection of records.
type DataSetCompute interface {
	ComputeSet(ds DataSet) (any, error)
}

// DataSetTransform maps a collection of records to a collection of records.
type DataSetTransform interface {
	TransformSet(ds DataSet) (DataSet, error)
}

// ValueSetCompute derives a value from a list of values.
type ValueSetCompute interface {
	ComputeValues(vs []any) (any, error)
}

// ValueDecoder parses raw strings into typed values.
type ValueDecoder interface {
	Decode(s string) (any, error)
}

// Family names an operator capability. Type names are unique within a family.
type Family string

const (
	FamilyValueFilter         Family = "ValueFilter"
	FamilyValueCompute        Family = "ValueCompute"
	FamilyDatumFilter         Family = "DatumFilter"
	FamilyDatumCompute        Family = "DatumCompute"
	FamilyDatumTransform      Family = "DatumTransform"
	FamilyMultiDatumTransform Family = "MultiDatumTransform"
	FamilyDataSetCompute      Family = "DataSetCompute"
	FamilyDataSetTransform    Family = "DataSetTransform"
	FamilyValueSetCompute     Family = "ValueSetCompute"
	FamilyDecoder             Family = "Decoder"
)

// Families lists every operator family.
var Families = []Family{
	FamilyValueFilter, FamilyValueCompute, FamilyDatumFilter, FamilyDatumCompute, FamilyDatumTransform,
	FamilyMultiDatumTransform, FamilyDataSetCompute, FamilyDataSetTransform, FamilyValueSetCompute, FamilyDecoder,
}

// Named is implemented by every operator node. Name returns the short type name used as the
// document tag, e.g. "Gte" or "Create".
type Named interface {
	Name() string
}

// SimpleValuer is implemented by nodes with a shortcut document form. The node encodes as
// {Name: SimpleValue()}; a nil simple value encodes as {Name: {}}.
type SimpleValuer interface {
	SimpleValue() any
}

// PayloadEncoder is implemented by nodes whose document payload needs more than a simple value,
// typically because it nests other nodes. It takes precedence over SimpleValuer.
type PayloadEncoder interface {
	EncodePayload(enc Encoder) (any, error)
}

// Encoder turns nodes into documents. Implemented by the codec.
type Encoder interface {
	// EncodeNode returns the full tagged document for node.
	EncodeNode(node any) (any, error)
}

// Decoder turns documents into nodes of an expected family. Implemented by the codec.
type Decoder interface {
	// DecodeNode decodes doc as a node of family. A nil document yields a nil node.
	DecodeNode(family Family, doc any) (any, error)
}

// DecodeAs decodes doc as a node of family and asserts it to T.
// A nil document yields the zero T.
func DecodeAs[T any](dec Decoder, family Family, doc any) (T, error) {
	var zero T
	n, err := dec.DecodeNode(family, doc)
	if err != nil || n == nil {
		return zero, err
	}
	t, ok := n.(T)
	if !ok {
		return zero, Decodef("decode", "%T is not a %s", n, family)
	}
	return t, nil
}

// DecodeList decodes each element of a list document as a node of family.
// A non-list document is decoded as a single element.
func DecodeList[T any](dec Decoder, family Family, doc any) ([]T, error) {
	items, ok := doc.([]any)
	if !ok {
		if doc == nil {
			return nil, nil
		}
		items = []any{doc}
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		t, err := DecodeAs[T](dec, family, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// DataSource defines the interface for data extraction.
// Implementations stream records from a source (e.g., CSV, Parquet, PostgreSQL).
type DataSource interface {
	// Read returns the next record or io.EOF when no more records are available.
	Read(ctx context.Context) (Datum, error)
	// Close releases any resources held by the data source.
	Close() error
}

// DataSink defines the interface for data loading.
// Implementations write records to a destination (e.g., CSV, Parquet, PostgreSQL).
type DataSink interface {
	// Write outputs a single record to the sink.
	Write(ctx context.Context, record Datum) error
	// Flush ensures all buffered data is written to the sink.
	Flush() error
	// Close releases any resources held by the data sink.
	Close() error
}

// DocumentEncoder is implemented by nodes that encode as a different node's document rather than
// under their own tag, e.g. a filter used where a compute is expected. It takes precedence over
// PayloadEncoder and SimpleValuer.
type DocumentEncoder interface {
	EncodeDocument(enc Encoder) (any, error)
}
