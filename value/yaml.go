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

package value

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// MarshalYAML renders the map as an ordered YAML mapping.
func (m *Map) MarshalYAML() (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	return toMapSlice(m), nil
}

// UnmarshalYAML reads a YAML mapping from its source, keeping key order at every depth.
func (m *Map) UnmarshalYAML(data []byte) error {
	v, err := ParseYAML(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("expected YAML mapping")
	}
	*m = *obj
	return nil
}

// ParseYAML decodes a YAML document into engine values, keeping mapping order.
func ParseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// ToYAMLValue converts engine values to values goccy/go-yaml encodes in order.
func ToYAMLValue(v any) any {
	switch t := v.(type) {
	case *Map:
		return toMapSlice(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = ToYAMLValue(x)
		}
		return out
	default:
		return v
	}
}

func toMapSlice(m *Map) yaml.MapSlice {
	ms := make(yaml.MapSlice, 0, m.Len())
	for k, v := range m.All() {
		ms = append(ms, yaml.MapItem{Key: k, Value: ToYAMLValue(v)})
	}
	return ms
}
