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
	"github.com/aaronlmathis/goparsnip/decode"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

func init() {
	register("Identity", func(any, core.Decoder) (any, error) { return Identity{}, nil })
	register("IpToInt", func(any, core.Decoder) (any, error) { return IpToInt{}, nil })
	register("IpFromInt", func(any, core.Decoder) (any, error) { return IpFromInt{}, nil })
	register("Constant", func(payload any, _ core.Decoder) (any, error) { return NewConstant(payload), nil })
	register("LogValue", func(payload any, _ core.Decoder) (any, error) {
		level := "INFO"
		switch p := payload.(type) {
		case string:
			level = p
		case *value.Map:
			level = core.StringOr(p, "level", level)
		}
		return &LogValue{Level: level}, nil
	})

	arithmetic := map[string]func(any) (*Arithmetic, error){
		"Add":      NewAdd,
		"Subtract": NewSubtract,
		"Multiply": NewMultiply,
		"Divide":   NewDivide,
	}
	for name, ctor := range arithmetic {
		register(name, func(payload any, _ core.Decoder) (any, error) { return ctor(payload) })
	}
	register("Linear", func(payload any, _ core.Decoder) (any, error) {
		bean, err := core.Bean("Linear", payload)
		if err != nil {
			return nil, err
		}
		domain, err := floats("Linear", bean.Value("domain"))
		if err != nil {
			return nil, err
		}
		rng, err := floats("Linear", bean.Value("range"))
		if err != nil {
			return nil, err
		}
		return NewLinear(domain, rng)
	})

	register("Lookup", func(payload any, _ core.Decoder) (any, error) {
		m, err := core.Bean("Lookup", payload)
		if err != nil {
			return nil, err
		}
		if !isLookupBean(m) {
			return NewLookup(m), nil
		}
		c := NewLookup(m.Value("table").(*value.Map))
		c.IfNull = m.Value("ifNull")
		c.CaseSensitive = core.BoolOr(m, "caseSensitive", true)
		return c, nil
	})
	register("OneHot", func(payload any, _ core.Decoder) (any, error) {
		if list, ok := payload.([]any); ok {
			return &OneHot{Values: list}, nil
		}
		if payload == nil {
			return &OneHot{Values: []any{}}, nil
		}
		return nil, core.Constructionf("OneHot", "expected a list of values, got %s", value.String(payload))
	})
	register("RegexCapture", func(payload any, _ core.Decoder) (any, error) {
		bean, err := core.Bean("RegexCapture", payload)
		if err != nil {
			return nil, err
		}
		return NewRegexCapture(core.StringOr(bean, "regex", ""), core.Strings(bean.Value("as"))...), nil
	})

	register("As", func(payload any, _ core.Decoder) (any, error) { return NewAs(value.String(payload)) })
	register("Decode", func(payload any, dec core.Decoder) (any, error) {
		if name, ok := payload.(string); ok {
			s, ok := decode.Of(name)
			if !ok {
				return nil, core.Constructionf("Decode", "unknown decoder %q", name)
			}
			return &Decode{Decoder: s}, nil
		}
		d, err := core.DecodeAs[core.ValueDecoder](dec, core.FamilyDecoder, payload)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, core.Decodef("Decode", "missing decoder")
		}
		return &Decode{Decoder: d}, nil
	})
	register("DecodeInstant", func(payload any, _ core.Decoder) (any, error) {
		if payload == nil {
			return NewDecodeInstant("")
		}
		return NewDecodeInstant(value.String(payload))
	})

	register("FlattenList", func(payload any, _ core.Decoder) (any, error) {
		bean, err := core.Bean("FlattenList", payload)
		if err != nil {
			return nil, err
		}
		return &FlattenList{As: core.StringOr(bean, "as", ""), Index: core.StringOr(bean, "index", "")}, nil
	})
	register("FlattenMatrix", func(payload any, _ core.Decoder) (any, error) {
		bean, err := core.Bean("FlattenMatrix", payload)
		if err != nil {
			return nil, err
		}
		return &FlattenMatrix{
			As:     core.StringOr(bean, "as", ""),
			Index1: core.StringOr(bean, "index1", ""),
			Index2: core.StringOr(bean, "index2", ""),
		}, nil
	})
	register("ValueFilterCompute", func(payload any, dec core.Decoder) (any, error) {
		f, err := core.DecodeAs[core.ValueFilter](dec, core.FamilyValueFilter, payload)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, core.Decodef("ValueFilterCompute", "missing filter")
		}
		return &ValueFilterCompute{Filter: f}, nil
	})
	register("TargetMultipleFields", func(payload any, _ core.Decoder) (any, error) {
		return &TargetMultipleFields{Fields: core.Strings(payload)}, nil
	})
}

// isLookupBean tells the bean form {table, ifNull, caseSensitive} apart from a bare table.
func isLookupBean(m *value.Map) bool {
	if _, ok := m.Value("table").(*value.Map); !ok {
		return false
	}
	for _, k := range m.Keys() {
		switch k {
		case "table", "ifNull", "caseSensitive":
		default:
			return false
		}
	}
	return true
}

func register(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyValueCompute, name, f)
}
