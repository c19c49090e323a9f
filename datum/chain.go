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

package datum

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// Chain computes a value from a record with From, then passes it through each Process step in order.
type Chain struct {
	From    core.DatumCompute
	Process []core.ValueCompute
}

// NewChain creates a Chain. A nil from computes null.
func NewChain(from core.DatumCompute, process ...core.ValueCompute) *Chain {
	if from == nil {
		from = &Constant{}
	}
	return &Chain{From: from, Process: process}
}

func (c *Chain) Name() string { return "Chain" }

// ComputeDatum implements core.DatumCompute
func (c *Chain) ComputeDatum(d core.Datum) (any, error) {
	res, err := c.From.ComputeDatum(d)
	if err != nil {
		return nil, err
	}
	for _, p := range c.Process {
		if res, err = p.Compute(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// EncodePayload returns the chain form of [From, Process...].
func (c *Chain) EncodePayload(enc core.Encoder) (any, error) {
	nodes := make([]any, 0, len(c.Process)+1)
	nodes = append(nodes, c.From)
	for _, p := range c.Process {
		nodes = append(nodes, p)
	}
	return EncodeChain(enc, nodes)
}

// EncodeChain encodes a sequence of nodes. When the node documents carry pairwise distinct tags the
// result is a single map of tag to payload; otherwise it is a list of the tagged documents.
func EncodeChain(enc core.Encoder, nodes []any) (any, error) {
	docs := make([]any, len(nodes))
	seen := map[string]bool{}
	distinct := true
	for i, n := range nodes {
		doc, err := enc.EncodeNode(n)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
		m, ok := doc.(*value.Map)
		if !ok || m.Len() != 1 || seen[m.Keys()[0]] {
			distinct = false
			continue
		}
		seen[m.Keys()[0]] = true
	}
	if !distinct {
		return docs, nil
	}
	out := value.NewMap(len(docs))
	for _, doc := range docs {
		m := doc.(*value.Map)
		k := m.Keys()[0]
		out.Set(k, m.Value(k))
	}
	return out, nil
}

// ChainItems splits a chain document into item documents. A list yields its elements and a map with
// several keys yields one single-key map per entry. Anything else is a single item.
func ChainItems(doc any) []any {
	switch d := doc.(type) {
	case []any:
		return d
	case *value.Map:
		if d.Len() > 1 {
			items := make([]any, 0, d.Len())
			for k, v := range d.All() {
				items = append(items, value.MapOf(k, v))
			}
			return items
		}
	}
	return []any{doc}
}

// DecodeChain decodes chain item documents: the first as a record compute and the rest as value computes.
func DecodeChain(dec core.Decoder, items []any) (core.DatumCompute, []core.ValueCompute, error) {
	if len(items) == 0 {
		return &Constant{}, nil, nil
	}
	from, err := core.DecodeAs[core.DatumCompute](dec, core.FamilyDatumCompute, items[0])
	if err != nil {
		return nil, nil, err
	}
	if from == nil {
		from = &Constant{}
	}
	process, err := core.DecodeList[core.ValueCompute](dec, core.FamilyValueCompute, items[1:])
	if err != nil {
		return nil, nil, err
	}
	return from, process, nil
}

func decodeChain(payload any, dec core.Decoder) (any, error) {
	if m, ok := payload.(*value.Map); ok && isChainBean(m) {
		from, err := core.DecodeAs[core.DatumCompute](dec, core.FamilyDatumCompute, m.Value("from"))
		if err != nil {
			return nil, err
		}
		process, err := core.DecodeList[core.ValueCompute](dec, core.FamilyValueCompute, m.Value("process"))
		if err != nil {
			return nil, err
		}
		return NewChain(from, process...), nil
	}
	if payload == nil {
		return NewChain(nil), nil
	}
	from, process, err := DecodeChain(dec, ChainItems(payload))
	if err != nil {
		return nil, err
	}
	return NewChain(from, process...), nil
}

func isChainBean(m *value.Map) bool {
	if m.Len() == 0 {
		return false
	}
	for _, k := range m.Keys() {
		if k != "from" && k != "process" {
			return false
		}
	}
	return true
}
