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
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var leadingNumber = regexp.MustCompile(`^[+-]?[0-9,]*\.?[0-9]+(?:[eE][+-]?[0-9]+)?|^[+-]?[0-9][0-9,]*`)

// ToNumber converts v to int64 or float64, returning nil when v has no numeric reading.
// Strings are trimmed and tried as an integer, then as a float, then as "-" (zero),
// a percentage ("50%" is 0.5) and finally a comma-grouped number ("1,000").
// Times convert to epoch milliseconds.
func ToNumber(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64, float64:
		return t
	case time.Time:
		return t.UnixMilli()
	case string:
		return ParseNumber(t)
	case bool, []any, *Map:
		return ParseNumber(String(t))
	}
	switch n := Normalize(v).(type) {
	case int64, float64:
		return n
	}
	return ParseNumber(String(v))
}

// ParseNumber parses s as described in ToNumber.
func ParseNumber(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, ok := parseFloat(s); ok {
		return f
	}
	if s == "-" {
		return 0.0
	}
	if strings.HasSuffix(s, "%") {
		if n := parseGrouped(strings.TrimSpace(strings.TrimSuffix(s, "%"))); n != nil {
			f, _ := AsFloat(n)
			pct := f / 100
			if pct == math.Trunc(pct) && math.Abs(pct) < 1<<53 {
				return int64(pct)
			}
			return pct
		}
		return nil
	}
	return parseGrouped(s)
}

// parseFloat accepts decimal and exponent forms as well as NaN and Infinity.
func parseFloat(s string) (float64, bool) {
	switch s {
	case "NaN":
		return math.NaN(), true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	if strings.ContainsAny(s, "xXpP_") || strings.EqualFold(strings.TrimLeft(s, "+-"), "inf") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// parseGrouped reads the leading number of s, ignoring grouping commas.
func parseGrouped(s string) any {
	lead := leadingNumber.FindString(s)
	if lead == "" {
		return nil
	}
	plain := strings.ReplaceAll(lead, ",", "")
	if i, err := strconv.ParseInt(plain, 10, 64); err == nil {
		return i
	}
	if f, ok := parseFloat(plain); ok {
		return f
	}
	return nil
}

// ToNumberAs converts v to a number of the given kind (KindInt or KindFloat).
// Strings must parse exactly as that kind; numbers are converted, truncating toward zero for KindInt;
// times become epoch milliseconds. Returns nil when no conversion applies.
func ToNumberAs(v any, kind Kind) any {
	var n any
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if kind == KindInt {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
			return nil
		}
		if f, ok := parseFloat(s); ok {
			return f
		}
		return nil
	case time.Time:
		n = t.UnixMilli()
	default:
		n = Normalize(v)
	}
	return castNumber(n, kind)
}

// parseNumberAs parses s as the given kind, falling back to the lenient grouped form.
func parseNumberAs(s string, kind Kind) any {
	if n := ToNumberAs(s, kind); n != nil {
		return n
	}
	return castNumber(parseGrouped(strings.TrimSpace(s)), kind)
}

func castNumber(n any, kind Kind) any {
	switch kind {
	case KindInt:
		switch t := n.(type) {
		case int64:
			return t
		case float64:
			if math.IsNaN(t) || math.IsInf(t, 0) {
				return nil
			}
			return int64(t)
		}
	case KindFloat:
		if f, ok := AsFloat(n); ok {
			return f
		}
	}
	return nil
}

// AsFloat returns the float64 value of an int64 or float64.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// ToFloat converts v to float64 through ToNumber.
func ToFloat(v any) (float64, bool) {
	return AsFloat(ToNumber(v))
}

// ToInt converts v to int64 through ToNumber, truncating floats.
func ToInt(v any) (int64, bool) {
	switch t := ToNumber(v).(type) {
	case int64:
		return t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}

// IsNumber reports whether v is an int64 or float64.
func IsNumber(v any) bool {
	return KindOf(v).IsNumber()
}

// ToBool interprets v as a boolean. Strings must be "true" or "false" (any case);
// numbers are true when non-zero. Returns false, false when v has no boolean reading.
func ToBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	case int64:
		return t != 0, true
	case float64:
		return t != 0, true
	}
	return false, false
}
