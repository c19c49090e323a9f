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
	"strings"
	"time"
)

// Type names accepted by ConvertTo. Lookup is case-insensitive; these are the canonical spellings.
const (
	TypeString        = "String"
	TypeLong          = "Long"
	TypeInteger       = "Integer"
	TypeShort         = "Short"
	TypeByte          = "Byte"
	TypeDouble        = "Double"
	TypeFloat         = "Float"
	TypeNumber        = "Number"
	TypeBoolean       = "Boolean"
	TypeDate          = "Date"
	TypeInstant       = "Instant"
	TypeLocalDate     = "LocalDate"
	TypeLocalDateTime = "LocalDateTime"
	TypeZonedDateTime = "ZonedDateTime"
	TypeList          = "List"
	TypeMap           = "Map"
	TypeObject        = "Object"
)

var typeNames = map[string]string{}

func init() {
	for _, n := range []string{TypeString, TypeLong, TypeInteger, TypeShort, TypeByte, TypeDouble, TypeFloat,
		TypeNumber, TypeBoolean, TypeDate, TypeInstant, TypeLocalDate, TypeLocalDateTime, TypeZonedDateTime,
		TypeList, TypeMap, TypeObject} {
		typeNames[strings.ToLower(n)] = n
	}
	typeNames["int"] = TypeInteger
	typeNames["bool"] = TypeBoolean
	typeNames["any"] = TypeObject
}

// CanonicalType resolves a type name such as "long" or "Long" to its canonical spelling.
func CanonicalType(name string) (string, error) {
	if n, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return n, nil
	}
	return "", fmt.Errorf("unknown type name: %s", name)
}

// IsTimeType reports whether the canonical type name denotes an instant.
func IsTimeType(name string) bool {
	switch name {
	case TypeDate, TypeInstant, TypeLocalDate, TypeLocalDateTime, TypeZonedDateTime:
		return true
	}
	return false
}

// ConvertTo converts v to the named type. Nil converts to nil. An unconvertible value yields nil, nil;
// an unknown type name is an error.
func ConvertTo(v any, typeName string) (any, error) {
	name, err := CanonicalType(typeName)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	switch name {
	case TypeString:
		return String(v), nil
	case TypeObject:
		return v, nil
	case TypeLong:
		if n := ToNumberAs(v, KindInt); n != nil {
			return n, nil
		}
		if ms, ok := EpochMilli(v); ok {
			return ms, nil
		}
		return nil, nil
	case TypeInteger, TypeShort, TypeByte:
		n, ok := ToNumberAs(v, KindInt).(int64)
		if !ok {
			return nil, nil
		}
		switch name {
		case TypeInteger:
			return int64(int32(n)), nil
		case TypeShort:
			return int64(int16(n)), nil
		}
		return int64(int8(n)), nil
	case TypeDouble:
		return ToNumberAs(v, KindFloat), nil
	case TypeFloat:
		f, ok := ToNumberAs(v, KindFloat).(float64)
		if !ok {
			return nil, nil
		}
		return float64(float32(f)), nil
	case TypeNumber:
		return ToNumber(v), nil
	case TypeBoolean:
		if b, ok := ToBool(v); ok {
			return b, nil
		}
		return nil, nil
	case TypeList:
		if l, ok := v.([]any); ok {
			return l, nil
		}
		return []any{v}, nil
	case TypeMap:
		if m, ok := v.(*Map); ok {
			return m, nil
		}
		return nil, nil
	}
	t, ok := ToTime(v)
	if !ok {
		return nil, nil
	}
	if name == TypeLocalDate {
		lt := t.In(Location())
		return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Location()), nil
	}
	return t, nil
}
