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
	"github.com/aaronlmathis/goparsnip/value"
)

// Payload helpers for registry factories. A bean payload is a map of field names to values;
// a missing payload reads as an empty bean.

// Bean returns payload as a map. Nil yields an empty map; any other non-map is a decode error.
func Bean(op string, payload any) (*value.Map, error) {
	switch p := payload.(type) {
	case nil:
		return value.NewMap(), nil
	case *value.Map:
		return p, nil
	}
	return nil, Decodef(op, "expected an object, got %s", value.String(payload))
}

// StringOr returns the string field key of m, or def when absent or null.
func StringOr(m *value.Map, key, def string) string {
	v := m.Value(key)
	if v == nil {
		return def
	}
	return value.String(v)
}

// BoolOr returns the boolean field key of m, or def when absent or not a boolean.
func BoolOr(m *value.Map, key string, def bool) bool {
	if b, ok := value.ToBool(m.Value(key)); ok {
		return b
	}
	return def
}

// Strings reads a list of strings. A single scalar reads as a one-element list; nil as none.
func Strings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			out = append(out, value.String(x))
		}
		return out
	case []string:
		return t
	}
	return []string{value.String(v)}
}

// StringList converts strings to a document list.
func StringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
