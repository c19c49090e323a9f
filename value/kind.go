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
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Kind classifies an engine value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindTime
	KindOpaque
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "list", "map", "time", "opaque"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsNumber reports whether k is KindInt or KindFloat.
func (k Kind) IsNumber() bool {
	return k == KindInt || k == KindFloat
}

// KindOf returns the kind of a normalized value.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case []any:
		return KindList
	case *Map:
		return KindMap
	case time.Time:
		return KindTime
	default:
		return KindOpaque
	}
}

// TypeName returns a short, stable name for the concrete type of v.
func TypeName(v any) string {
	if v == nil {
		return "null"
	}
	return reflect.TypeOf(v).String()
}

// Normalize converts host values to engine values: Go ints become int64, float32 becomes float64,
// maps with string keys become *Map (keys sorted), YAML map slices become *Map (order kept) and
// other slices become []any. Opaque values are returned unchanged.
func Normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, int64, float64, string, time.Time:
		return v
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return normalizeUint(uint64(t))
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return normalizeUint(t)
	case float32:
		return float64(t)
	case json.Number:
		return normalizeNumber(t)
	case *Map:
		if t == nil {
			return nil
		}
		for k, x := range t.vals {
			t.vals[k] = Normalize(x)
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Normalize(x)
		}
		return out
	case map[string]any:
		m := NewMap(len(t))
		for _, k := range sortedKeys(t) {
			m.Set(k, Normalize(t[k]))
		}
		return m
	case yaml.MapSlice:
		m := NewMap(len(t))
		for _, item := range t {
			m.Set(fmt.Sprint(item.Key), Normalize(item.Value))
		}
		return m
	case []byte:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		m := NewMap(rv.Len())
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		sort.Strings(names)
		for _, k := range names {
			m.Set(k, Normalize(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()))
		}
		return m
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

func normalizeUint(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func normalizeNumber(n json.Number) any {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(string(n), 64); err == nil {
		return f
	}
	return string(n)
}

// String formats v the way values are rendered in templates, lookups and group keys.
// Integral floats keep a trailing ".0" so that 1.0 and 1 remain distinguishable.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case []any:
		parts := make([]string, len(t))
		for i, x := range t {
			parts[i] = String(x)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		if t == nil {
			return "null"
		}
		parts := make([]string, 0, t.Len())
		for k, x := range t.All() {
			parts = append(parts, k+"="+String(x))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e7:
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

func isSpecialFloat(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
