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
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// JSONPatch applies RFC 6902 operations to a copy of each record. The record passes through JSON, so
// times come back as strings and keys come back in sorted order.
type JSONPatch struct {
	Ops []any
	ops jsonpatch.Patch
}

// NewJSONPatch creates a JSONPatch from operation documents such as {"op": "add", "path": "/a", "value": 1}.
func NewJSONPatch(ops ...any) (*JSONPatch, error) {
	d, err := json.Marshal(ops)
	if err != nil {
		return nil, core.NewError(core.ErrConstruction, "JSONPatch", "encoding operations", err)
	}
	patch, err := jsonpatch.DecodePatch(d)
	if err != nil {
		return nil, core.NewError(core.ErrConstruction, "JSONPatch", "invalid operations", err)
	}
	return &JSONPatch{Ops: ops, ops: patch}, nil
}

func (t *JSONPatch) Name() string     { return "JSONPatch" }
func (t *JSONPatch) SimpleValue() any { return t.Ops }

// Transform implements core.DatumTransform
func (t *JSONPatch) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	doc, err := json.Marshal(d)
	if err != nil {
		return nil, core.NewError(core.ErrCompute, "JSONPatch", "encoding record", err)
	}
	out, err := t.ops.Apply(doc)
	if err != nil {
		return nil, core.NewError(core.ErrCompute, "JSONPatch", "applying patch", err)
	}
	res, err := value.ParseJSON(out)
	if err != nil {
		return nil, core.NewError(core.ErrCompute, "JSONPatch", "decoding record", err)
	}
	m, ok := res.(*value.Map)
	if !ok {
		return nil, core.Computef("JSONPatch", "patch result is not an object: %s", value.String(res))
	}
	return m, nil
}

func decodeJSONPatch(payload any, _ core.Decoder) (any, error) {
	switch p := payload.(type) {
	case nil:
		return NewJSONPatch()
	case []any:
		return NewJSONPatch(p...)
	}
	return NewJSONPatch(payload)
}
