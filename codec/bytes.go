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

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// Marshal encodes node as JSON, keeping key order.
func (c *Codec) Marshal(node any) ([]byte, error) {
	doc, err := c.EncodeNode(node)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Unmarshal decodes JSON data as a node of family.
func (c *Codec) Unmarshal(family core.Family, data []byte) (any, error) {
	doc, err := value.ParseJSON(data)
	if err != nil {
		return nil, core.NewError(core.ErrDecode, "unmarshal", "invalid JSON", err)
	}
	return c.DecodeNode(family, doc)
}

// MarshalYAML encodes node as YAML, keeping key order.
func (c *Codec) MarshalYAML(node any) ([]byte, error) {
	doc, err := c.EncodeNode(node)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(value.ToYAMLValue(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// UnmarshalYAML decodes YAML data as a node of family.
func (c *Codec) UnmarshalYAML(family core.Family, data []byte) (any, error) {
	doc, err := value.ParseYAML(data)
	if err != nil {
		return nil, core.NewError(core.ErrDecode, "unmarshal", "invalid YAML", err)
	}
	return c.DecodeNode(family, doc)
}

// Marshal encodes node as JSON with the default codec.
func Marshal(node any) ([]byte, error) { return Default.Marshal(node) }

// Unmarshal decodes JSON data as a T of family with the default codec.
func Unmarshal[T any](family core.Family, data []byte) (T, error) {
	var zero T
	n, err := Default.Unmarshal(family, data)
	if err != nil || n == nil {
		return zero, err
	}
	t, ok := n.(T)
	if !ok {
		return zero, core.Decodef("unmarshal", "%T is not a %s", n, family)
	}
	return t, nil
}

// MarshalYAML encodes node as YAML with the default codec.
func MarshalYAML(node any) ([]byte, error) { return Default.MarshalYAML(node) }

// UnmarshalYAML decodes YAML data as a T of family with the default codec.
func UnmarshalYAML[T any](family core.Family, data []byte) (T, error) {
	var zero T
	n, err := Default.UnmarshalYAML(family, data)
	if err != nil || n == nil {
		return zero, err
	}
	t, ok := n.(T)
	if !ok {
		return zero, core.Decodef("unmarshal", "%T is not a %s", n, family)
	}
	return t, nil
}
