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

package compute

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// FlattenList turns a list into a list of maps {As: item, Index: position}. Other input passes through.
type FlattenList struct {
	As    string
	Index string
}

func (c *FlattenList) Name() string { return "FlattenList" }

// Compute implements core.ValueCompute
func (c *FlattenList) Compute(v any) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return v, nil
	}
	return flattenToMaps(list, c.As, c.Index), nil
}

// EncodePayload returns {as, index}
func (c *FlattenList) EncodePayload(core.Encoder) (any, error) {
	return value.MapOf("as", c.As, "index", c.Index), nil
}

// FlattenMatrix turns a list of lists into a flat list of maps {As: item, Index2: column, Index1: row}.
// Input that is not a list of lists passes through.
type FlattenMatrix struct {
	As     string
	Index1 string
	Index2 string
}

func (c *FlattenMatrix) Name() string { return "FlattenMatrix" }

// Compute implements core.ValueCompute
func (c *FlattenMatrix) Compute(v any) (any, error) {
	rows, ok := v.([]any)
	if !ok {
		return v, nil
	}
	for _, r := range rows {
		if _, ok := r.([]any); !ok {
			return v, nil
		}
	}
	var out []any
	for i, r := range rows {
		for _, m := range flattenToMaps(r.([]any), c.As, c.Index2) {
			m.(*value.Map).Set(c.Index1, int64(i))
			out = append(out, m)
		}
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// EncodePayload returns {as, index1, index2}
func (c *FlattenMatrix) EncodePayload(core.Encoder) (any, error) {
	return value.MapOf("as", c.As, "index1", c.Index1, "index2", c.Index2), nil
}

func flattenToMaps(list []any, as, index string) []any {
	out := make([]any, len(list))
	for i, x := range list {
		out[i] = value.MapOf(as, x, index, int64(i))
	}
	return out
}
