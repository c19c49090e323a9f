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

// Package decode parses raw strings into typed values.
//
// The standard decoders are registered by name under the Decoder family ("LONG", "DATE_TIME", ...).
// InstantDecoder and InstantEpochDecoder parse timestamps with an explicit pattern.
package decode

import (
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

// Standard is one of the named string decoders.
type Standard string

// Standard decoder names.
const (
	Null       Standard = "NULL"
	String     Standard = "STRING"
	Boolean    Standard = "BOOLEAN"
	Long       Standard = "LONG"
	Integer    Standard = "INTEGER"
	Short      Standard = "SHORT"
	Byte       Standard = "BYTE"
	Double     Standard = "DOUBLE"
	Float      Standard = "FLOAT"
	IPAddress  Standard = "IP_ADDRESS"
	DomainName Standard = "DOMAIN_NAME"
	HexString  Standard = "HEX_STRING"
	List       Standard = "LIST"
	DateTime   Standard = "DATE_TIME"
	Date       Standard = "DATE"
	Time       Standard = "TIME"
	Epoch      Standard = "EPOCH"
)

// Standards lists the standard decoders in declaration order.
var Standards = []Standard{
	Null, String, Boolean, Long, Integer, Short, Byte, Double, Float,
	IPAddress, DomainName, HexString, List, DateTime, Date, Time, Epoch,
}

// Name returns the decoder name.
func (s Standard) Name() string { return string(s) }

// IsTime reports whether the decoder produces a time value.
func (s Standard) IsTime() bool {
	switch s {
	case DateTime, Date, Time, Epoch:
		return true
	}
	return false
}

// Decode parses input. A result that converts to nothing is an error.
func (s Standard) Decode(input string) (any, error) {
	v, ok := s.decode(input)
	if !ok || (v == nil && s != Null) {
		return nil, core.Computef(string(s), "converted value to null: %s", input)
	}
	return v, nil
}

func (s Standard) decode(input string) (any, bool) {
	trimmed := trim(input)
	switch s {
	case Null:
		return nil, true
	case String:
		return input, true
	case Boolean:
		return strings.EqualFold(trimmed, "true"), true
	case Long:
		return parseInt(trimmed, 64)
	case Integer:
		return parseInt(trimmed, 32)
	case Short:
		return parseInt(trimmed, 16)
	case Byte:
		return parseInt(trimmed, 8)
	case Double:
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil && !strings.ContainsAny(trimmed, "xX_")
	case Float:
		f, err := strconv.ParseFloat(trimmed, 32)
		return f, err == nil && !strings.ContainsAny(trimmed, "xX_")
	case IPAddress, DomainName:
		return trimmed, true
	case HexString:
		if strings.HasPrefix(trimmed, "0x") {
			return trimmed, true
		}
		return "0x" + trimmed, true
	case List:
		parts := strings.Split(trimmed, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = trim(p)
		}
		return out, true
	case DateTime:
		return value.ParseTime(trimmed)
	case Date:
		t, ok := value.ParseTime(trimmed)
		if !ok {
			return nil, false
		}
		lt := t.In(value.Location())
		return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, value.Location()), true
	case Time:
		t, ok := value.ParseTime(trimmed)
		if !ok {
			return nil, false
		}
		lt := t.In(value.Location())
		now := time.Now().In(value.Location())
		return time.Date(now.Year(), now.Month(), now.Day(), lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), value.Location()), true
	case Epoch:
		t, ok := value.ParseTime(trimmed)
		if !ok {
			return nil, false
		}
		return t.UnixMilli(), true
	}
	return nil, false
}

func parseInt(s string, bits int) (any, bool) {
	i, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, bits)
	return i, err == nil
}

// trim removes leading and trailing control characters and spaces.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
}

// Of returns the standard decoder with the given name.
func Of(name string) (Standard, bool) {
	for _, s := range Standards {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

func init() {
	for _, s := range Standards {
		registry.MustRegister(core.FamilyDecoder, string(s), func(any, core.Decoder) (any, error) {
			return s, nil
		})
	}
	registry.MustRegister(core.FamilyDecoder, "InstantDecoder", func(payload any, _ core.Decoder) (any, error) {
		return NewInstantDecoder(patternOf(payload))
	})
	registry.MustRegister(core.FamilyDecoder, "InstantEpochDecoder", func(payload any, _ core.Decoder) (any, error) {
		return NewInstantEpochDecoder(patternOf(payload))
	})
}

// patternOf reads a pattern from a bare string or a {pattern: ...} document.
func patternOf(payload any) string {
	switch p := payload.(type) {
	case string:
		return p
	case *value.Map:
		if s, ok := p.Value("pattern").(string); ok {
			return s
		}
	}
	return ""
}
