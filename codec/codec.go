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

// Package codec converts operator nodes to and from generic documents, and documents to and from
// JSON and YAML bytes.
//
// A node encodes as a single-key map {Name: payload}. Nodes with a shortcut form encode their simple
// value as the payload; nodes that nest other nodes build their payload through the Encoder. Decoding
// resolves the tag in the registry for the expected family. Bare documents (scalars, lists and
// untagged maps) are accepted where a family has a natural reading for them: a scalar is an Equal
// filter, a list is a OneOf filter, a record compute scalar is a Constant and an untagged map is a
// field filter.
package codec

import (
	"unicode"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

// Codec implements core.Encoder and core.Decoder over a registry.
type Codec struct {
	reg *registry.Registry
}

// New creates a Codec resolving names in reg. A nil reg uses registry.Default.
func New(reg *registry.Registry) *Codec {
	if reg == nil {
		reg = registry.Default
	}
	return &Codec{reg: reg}
}

// Default is a Codec over the default registry.
var Default = New(nil)

// EncodeNode implements core.Encoder
func (c *Codec) EncodeNode(node any) (any, error) {
	if node == nil {
		return nil, nil
	}
	if de, ok := node.(core.DocumentEncoder); ok {
		return de.EncodeDocument(c)
	}
	named, ok := node.(core.Named)
	if !ok {
		return nil, core.Constructionf("encode", "%T has no type name", node)
	}
	switch n := node.(type) {
	case core.PayloadEncoder:
		payload, err := n.EncodePayload(c)
		if err != nil {
			return nil, err
		}
		return value.MapOf(named.Name(), payload), nil
	case core.SimpleValuer:
		sv := value.Normalize(n.SimpleValue())
		if sv == nil {
			sv = value.NewMap()
		}
		return value.MapOf(named.Name(), sv), nil
	}
	return value.MapOf(named.Name(), value.NewMap()), nil
}

// DecodeNode implements core.Decoder
func (c *Codec) DecodeNode(family core.Family, doc any) (any, error) {
	if doc == nil {
		return nil, nil
	}
	doc = value.Normalize(doc)
	if m, ok := doc.(*value.Map); ok && m.Len() == 1 {
		name := m.Keys()[0]
		if f, err := c.reg.Lookup(family, name); err == nil {
			return c.build(f, family, name, m.Value(name))
		}
	}
	return c.decodeBare(family, doc)
}

func (c *Codec) build(f registry.Factory, family core.Family, name string, payload any) (any, error) {
	node, err := f(payload, c)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, core.Decodef("decode", "%s %q built no node", family, name)
	}
	return node, nil
}

// decodeBare reads a document that is not a tag registered in family.
func (c *Codec) decodeBare(family core.Family, doc any) (any, error) {
	m, isMap := doc.(*value.Map)
	switch family {
	case core.FamilyValueFilter:
		switch doc.(type) {
		case *value.Map:
		case []any:
			return c.lookupBuild(family, "OneOf", doc)
		default:
			return c.lookupBuild(family, "Equal", doc)
		}
	case core.FamilyValueCompute:
		if !isMap || m.Len() == 1 {
			if isMap && !c.reg.Has(core.FamilyValueFilter, m.Keys()[0]) {
				break
			}
			return c.lookupBuild(family, "ValueFilterCompute", doc)
		}
	case core.FamilyDatumCompute:
		if isMap && m.Len() == 1 && isTypeName(m.Keys()[0]) {
			break
		}
		return c.lookupBuild(family, "Constant", doc)
	case core.FamilyDatumFilter:
		if isMap {
			return c.lookupBuild(family, "DatumFieldFilter", doc)
		}
	case core.FamilyDecoder, core.FamilyValueSetCompute:
		if name, ok := doc.(string); ok {
			return c.lookupBuild(family, name, nil)
		}
	}
	if isMap && m.Len() == 1 {
		return nil, core.Decodef("decode", "unknown %s type %q", family, m.Keys()[0])
	}
	return nil, core.Decodef("decode", "expected a tagged %s document, got %s", family, value.String(doc))
}

func (c *Codec) lookupBuild(family core.Family, name string, payload any) (any, error) {
	f, err := c.reg.Lookup(family, name)
	if err != nil {
		return nil, err
	}
	return c.build(f, family, name, payload)
}

// isTypeName reports whether key looks like an operator tag rather than a data key.
func isTypeName(key string) bool {
	for _, r := range key {
		return unicode.IsUpper(r)
	}
	return false
}

// Encode encodes node with the default codec.
func Encode(node any) (any, error) {
	return Default.EncodeNode(node)
}

// Decode decodes doc as a node of family with the default codec.
func Decode(family core.Family, doc any) (any, error) {
	return Default.DecodeNode(family, doc)
}

// DecodeAs decodes doc as a T of family with the default codec.
func DecodeAs[T any](family core.Family, doc any) (T, error) {
	return core.DecodeAs[T](Default, family, doc)
}
