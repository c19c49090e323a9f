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

package goparsnip

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/codec"
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/datum"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/transform"
	"github.com/aaronlmathis/goparsnip/value"
)

// Etl performs a generic extract-transform-load over one record at a time: a single record filter,
// a list of record transforms and a single load.
//
// A record that fails Extract, or that any transform drops, yields nil. An empty Load passes the
// transformed record through unchanged.
type Etl struct {
	Extract    core.DatumFilter
	Transforms []core.DatumTransform
	Load       *transform.Create
}

// NewEtl creates an Etl with an empty extract filter and load.
func NewEtl() *Etl {
	return &Etl{Extract: datum.NewFieldFilter(), Load: transform.NewCreate()}
}

// Transform implements core.DatumTransform
func (e *Etl) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	if e.Extract != nil && !e.Extract.MatchDatum(d) {
		return nil, nil
	}
	res := d
	for _, t := range e.Transforms {
		next, err := t.Transform(res)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, nil
		}
		res = next
	}
	if e.Load == nil {
		return res, nil
	}
	return e.Load.Transform(res)
}

// AsTransform returns the Etl as a record transform.
func (e *Etl) AsTransform() core.DatumTransform { return e }

// TransformSet implements core.DataSetTransform, dropping records that yield nil. A record that
// fails is logged and dropped; the rest of the set is still transformed.
func (e *Etl) TransformSet(ds core.DataSet) (core.DataSet, error) {
	out := make(core.DataSet, 0, len(ds))
	for _, d := range ds {
		res, err := e.Transform(d)
		if err != nil {
			skipRecord("Etl", d, err)
			continue
		}
		if res != nil {
			out = append(out, res)
		}
	}
	return out, nil
}

// TransformSeq applies the Etl lazily over seq. Records that yield nil are skipped, and so are
// records that fail: each is logged and the first error is reported through errp.
func (e *Etl) TransformSeq(seq core.DataSequence, errp *error) core.DataSequence {
	return func(yield func(core.Datum) bool) {
		for d := range seq {
			res, err := e.Transform(d)
			if err != nil {
				skipRecord("Etl", d, err)
				if errp != nil && *errp == nil {
					*errp = err
				}
				continue
			}
			if res != nil && !yield(res) {
				return
			}
		}
	}
}

func skipRecord(op string, d core.Datum, err error) {
	logging.L().Warn("Record skipped", zap.String("op", op), zap.Stringer("record", d), zap.Error(err))
}

// Document encodes the Etl as an {extract, transform, load} document.
func (e *Etl) Document(enc core.Encoder) (*value.Map, error) {
	nodes := make([]any, len(e.Transforms))
	for i, t := range e.Transforms {
		nodes[i] = t
	}
	return document(enc, e.Extract, nodes, e.Load)
}

// MarshalJSON writes the Etl document with the default codec.
func (e *Etl) MarshalJSON() ([]byte, error) {
	doc, err := e.Document(codec.Default)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads an Etl document with the default codec.
func (e *Etl) UnmarshalJSON(data []byte) error {
	doc, err := value.ParseJSON(data)
	if err != nil {
		return core.NewError(core.ErrDecode, "Etl", "invalid JSON", err)
	}
	parsed, err := DecodeEtl(codec.Default, doc)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

// MarshalYAML renders the Etl document for goccy/go-yaml.
func (e *Etl) MarshalYAML() (any, error) {
	doc, err := e.Document(codec.Default)
	if err != nil {
		return nil, err
	}
	return value.ToYAMLValue(doc), nil
}

// UnmarshalYAML reads an Etl document through goccy/go-yaml.
func (e *Etl) UnmarshalYAML(data []byte) error {
	doc, err := yamlDocument(data)
	if err != nil {
		return err
	}
	parsed, err := DecodeEtl(codec.Default, doc)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

// DecodeEtl reads an {extract, transform, load} document.
func DecodeEtl(dec core.Decoder, doc any) (*Etl, error) {
	extract, transforms, load, err := parseDocument(dec, "Etl", doc)
	if err != nil {
		return nil, err
	}
	e := &Etl{Extract: extract, Load: load}
	e.Transforms, err = core.DecodeList[core.DatumTransform](dec, core.FamilyDatumTransform, transforms)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transform: %w", err)
	}
	return e, nil
}

// BatchEtl performs extract-transform-load over a collection of records. Its transforms may turn one
// record into several. Records the load drops are removed from the result.
type BatchEtl struct {
	Extract    core.DatumFilter
	Transforms []core.MultiDatumTransform
	Load       *transform.Create
}

// NewBatchEtl creates a BatchEtl with an empty extract filter and load.
func NewBatchEtl() *BatchEtl {
	return &BatchEtl{Extract: datum.NewFieldFilter(), Load: transform.NewCreate()}
}

// Run filters ds, flat-maps it through each transform in turn, then loads every record. A record
// that fails is logged and dropped.
func (b *BatchEtl) Run(ds core.DataSet) (core.DataSet, error) {
	res := make(core.DataSet, 0, len(ds))
	for _, d := range ds {
		if d != nil && (b.Extract == nil || b.Extract.MatchDatum(d)) {
			res = append(res, d)
		}
	}
	for _, t := range b.Transforms {
		next := make(core.DataSet, 0, len(res))
		for _, d := range res {
			out, err := t.TransformAll(d)
			if err != nil {
				skipRecord("BatchEtl", d, err)
				continue
			}
			next = append(next, out...)
		}
		res = next
	}
	if b.Load == nil {
		return res.Compact(), nil
	}
	out := make(core.DataSet, 0, len(res))
	for _, d := range res {
		loaded, err := b.Load.Transform(d)
		if err != nil {
			skipRecord("BatchEtl", d, err)
			continue
		}
		if loaded != nil {
			out = append(out, loaded)
		}
	}
	return out, nil
}

// TransformSet implements core.DataSetTransform
func (b *BatchEtl) TransformSet(ds core.DataSet) (core.DataSet, error) { return b.Run(ds) }

// AsTransform returns the BatchEtl as a set transform.
func (b *BatchEtl) AsTransform() core.DataSetTransform { return b }

// Document encodes the BatchEtl as an {extract, transform, load} document.
func (b *BatchEtl) Document(enc core.Encoder) (*value.Map, error) {
	nodes := make([]any, len(b.Transforms))
	for i, t := range b.Transforms {
		nodes[i] = t
	}
	return document(enc, b.Extract, nodes, b.Load)
}

// MarshalJSON writes the BatchEtl document with the default codec.
func (b *BatchEtl) MarshalJSON() ([]byte, error) {
	doc, err := b.Document(codec.Default)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads a BatchEtl document with the default codec.
func (b *BatchEtl) UnmarshalJSON(data []byte) error {
	doc, err := value.ParseJSON(data)
	if err != nil {
		return core.NewError(core.ErrDecode, "BatchEtl", "invalid JSON", err)
	}
	parsed, err := DecodeBatchEtl(codec.Default, doc)
	if err != nil {
		return err
	}
	*b = *parsed
	return nil
}

// MarshalYAML renders the BatchEtl document for goccy/go-yaml.
func (b *BatchEtl) MarshalYAML() (any, error) {
	doc, err := b.Document(codec.Default)
	if err != nil {
		return nil, err
	}
	return value.ToYAMLValue(doc), nil
}

// UnmarshalYAML reads a BatchEtl document through goccy/go-yaml.
func (b *BatchEtl) UnmarshalYAML(data []byte) error {
	doc, err := yamlDocument(data)
	if err != nil {
		return err
	}
	parsed, err := DecodeBatchEtl(codec.Default, doc)
	if err != nil {
		return err
	}
	*b = *parsed
	return nil
}

// DecodeBatchEtl reads an {extract, transform, load} document whose transforms are multi transforms.
// Record transforms in the list are wrapped.
func DecodeBatchEtl(dec core.Decoder, doc any) (*BatchEtl, error) {
	extract, transforms, load, err := parseDocument(dec, "BatchEtl", doc)
	if err != nil {
		return nil, err
	}
	b := &BatchEtl{Extract: extract, Load: load}
	b.Transforms, err = core.DecodeList[core.MultiDatumTransform](dec, core.FamilyMultiDatumTransform, transforms)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transform: %w", err)
	}
	return b, nil
}

func document(enc core.Encoder, extract core.DatumFilter, transforms []any, load *transform.Create) (*value.Map, error) {
	doc := value.NewMap(3)
	if extract == nil {
		doc.Set("extract", value.NewMap())
	} else {
		ex, err := enc.EncodeNode(extract)
		if err != nil {
			return nil, fmt.Errorf("failed to encode extract: %w", err)
		}
		doc.Set("extract", ex)
	}
	list := make([]any, len(transforms))
	for i, t := range transforms {
		td, err := enc.EncodeNode(t)
		if err != nil {
			return nil, fmt.Errorf("failed to encode transform %d: %w", i, err)
		}
		list[i] = td
	}
	doc.Set("transform", list)
	if load == nil {
		load = transform.NewCreate()
	}
	ld, err := load.EncodePayload(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode load: %w", err)
	}
	doc.Set("load", ld)
	return doc, nil
}

func parseDocument(dec core.Decoder, op string, doc any) (core.DatumFilter, any, *transform.Create, error) {
	bean, err := core.Bean(op, doc)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, k := range bean.Keys() {
		switch k {
		case "extract", "transform", "load":
		default:
			return nil, nil, nil, core.Decodef(op, "unknown key %q", k)
		}
	}
	var extract core.DatumFilter = datum.NewFieldFilter()
	if ex := bean.Value("extract"); ex != nil {
		if extract, err = core.DecodeAs[core.DatumFilter](dec, core.FamilyDatumFilter, ex); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to decode extract: %w", err)
		}
	}
	load, err := transform.DecodeCreate(dec, bean.Value("load"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to decode load: %w", err)
	}
	return extract, bean.Value("transform"), load, nil
}

// yamlDocument parses the raw YAML of a document node. goccy/go-yaml hands byte unmarshalers the
// node source, so nested mappings keep their order too.
func yamlDocument(data []byte) (any, error) {
	doc, err := value.ParseYAML(data)
	if err != nil {
		return nil, core.NewError(core.ErrDecode, "yaml", "invalid document", err)
	}
	if _, ok := doc.(*value.Map); !ok {
		return nil, core.Decodef("yaml", "expected a mapping, got %s", value.KindOf(doc))
	}
	return doc, nil
}

// ParseEtl reads an Etl document in JSON or YAML.
func ParseEtl(data []byte) (*Etl, error) {
	doc, err := parseBytes(data)
	if err != nil {
		return nil, err
	}
	return DecodeEtl(codec.Default, doc)
}

// ParseBatchEtl reads a BatchEtl document in JSON or YAML.
func ParseBatchEtl(data []byte) (*BatchEtl, error) {
	doc, err := parseBytes(data)
	if err != nil {
		return nil, err
	}
	return DecodeBatchEtl(codec.Default, doc)
}

// parseBytes reads JSON, falling back to YAML.
func parseBytes(data []byte) (any, error) {
	if doc, err := value.ParseJSON(data); err == nil {
		return doc, nil
	}
	doc, err := value.ParseYAML(data)
	if err != nil {
		return nil, core.NewError(core.ErrDecode, "parse", "document is neither JSON nor YAML", err)
	}
	return doc, nil
}
