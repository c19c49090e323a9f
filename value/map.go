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
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Package value defines the dynamic data model used by GoParsnip operators.
//
// Engine values are plain Go values of a small set of kinds: nil, bool, int64, float64, string,
// []any, *Map and opaque host values such as time.Time. Use Normalize to bring host data into this form.
//
// This file contains the insertion-ordered Map used for records and nested objects.

// Map is a string-keyed map that remembers insertion order.
// The zero value is not usable; create maps with NewMap or MapOf.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap creates an empty Map with room for n keys.
func NewMap(n ...int) *Map {
	size := 0
	if len(n) > 0 {
		size = n[0]
	}
	return &Map{keys: make([]string, 0, size), vals: make(map[string]any, size)}
}

// MapOf builds a Map from alternating key/value arguments. Values are normalized.
// It panics if a key is not a string, which makes it suitable for literals and tests.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("value.MapOf: odd number of arguments")
	}
	m := NewMap(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("value.MapOf: key %v is not a string", kv[i]))
		}
		m.Set(k, Normalize(kv[i+1]))
	}
	return m
}

// Len returns the number of entries. A nil map has length zero.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Value returns the value for key, or nil when absent.
func (m *Map) Value(key string) any {
	v, _ := m.Get(key)
	return v
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key. New keys are appended to the key order; existing keys keep their position.
func (m *Map) Set(key string, v any) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over entries in insertion order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	c := NewMap(len(m.keys))
	for _, k := range m.keys {
		c.Set(k, m.vals[k])
	}
	return c
}

// DeepCopy returns a copy in which nested maps and lists are copied as well.
func (m *Map) DeepCopy() *Map {
	if m == nil {
		return nil
	}
	c := NewMap(len(m.keys))
	for _, k := range m.keys {
		c.Set(k, DeepCopy(m.vals[k]))
	}
	return c
}

// DeepCopy copies maps and lists recursively; other values are returned as is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.DeepCopy()
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = DeepCopy(x)
		}
		return out
	default:
		return v
	}
}

// Native converts the map to plain Go maps and slices, recursively.
// The result no longer carries key order.
func (m *Map) Native() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = Native(m.vals[k])
	}
	return out
}

// Native converts v so that nested *Map values become map[string]any.
func Native(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.Native()
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Native(x)
		}
		return out
	default:
		return v
	}
}

// String renders the map as {k=v, ...}.
func (m *Map) String() string {
	return String(m)
}

// MarshalJSON writes the entries in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(jsonValue(m.vals[k]))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order and normalizing numbers to int64 or float64.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := readJSON(dec)
	if err != nil {
		return err
	}
	obj, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("expected JSON object, got %s", KindOf(v))
	}
	*m = *obj
	return nil
}

// ParseJSON decodes any JSON document into engine values.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return readJSON(dec)
}

func readJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", kt)
				}
				v, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			list := make([]any, 0)
			for dec.More() {
				v, err := readJSON(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		return normalizeNumber(t), nil
	default:
		return t, nil
	}
}

// jsonValue prepares opaque values for encoding/json.
func jsonValue(v any) any {
	switch t := v.(type) {
	case float64:
		if isSpecialFloat(t) {
			return String(t)
		}
	}
	return v
}

// sortedKeys returns the keys of a host map in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
