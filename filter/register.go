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

package filter

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

func init() {
	comparing := map[string]func(any) core.ValueFilter{
		"Equal":    func(v any) core.ValueFilter { return NewEqual(v) },
		"NotEqual": func(v any) core.ValueFilter { return NewNotEqual(v) },
		"Gt":       func(v any) core.ValueFilter { return NewGt(v) },
		"Gte":      func(v any) core.ValueFilter { return NewGte(v) },
		"Lt":       func(v any) core.ValueFilter { return NewLt(v) },
		"Lte":      func(v any) core.ValueFilter { return NewLte(v) },
	}
	for name, ctor := range comparing {
		register(name, func(payload any, _ core.Decoder) (any, error) { return ctor(payload), nil })
	}

	for _, f := range []core.ValueFilter{IsNull{}, IsNotNull{}, IsEmpty{}, IsNotEmpty{}, All{}, None{}, IsIP{}, IsCidr{}} {
		register(f.(core.Named).Name(), func(any, core.Decoder) (any, error) { return f, nil })
	}

	register("Range", func(payload any, _ core.Decoder) (any, error) {
		bounds, ok := payload.([]any)
		if !ok || len(bounds) != 2 {
			return nil, core.Constructionf("Range", "expected [min, max], got %s", value.String(payload))
		}
		return NewRange(bounds[0], bounds[1]), nil
	})
	register("OneOf", func(payload any, _ core.Decoder) (any, error) {
		if list, ok := payload.([]any); ok {
			return NewOneOf(list...), nil
		}
		return NewOneOf(payload), nil
	})

	register("Contains", func(payload any, _ core.Decoder) (any, error) {
		return &Contains{Value: value.String(payload)}, nil
	})
	register("StartsWith", func(payload any, _ core.Decoder) (any, error) {
		return &StartsWith{Value: value.String(payload)}, nil
	})
	register("EndsWith", func(payload any, _ core.Decoder) (any, error) {
		return &EndsWith{Value: value.String(payload)}, nil
	})
	register("Matches", func(payload any, _ core.Decoder) (any, error) {
		return NewMatches(value.String(payload))
	})
	register("ContainsMatch", func(payload any, _ core.Decoder) (any, error) {
		return NewContainsMatch(value.String(payload))
	})
	register("IpContainedIn", func(payload any, _ core.Decoder) (any, error) {
		return NewIpContainedIn(value.String(payload))
	})
	register("CidrContains", func(payload any, _ core.Decoder) (any, error) {
		return NewCidrContains(value.String(payload))
	})

	register("And", func(payload any, dec core.Decoder) (any, error) {
		fs, err := core.DecodeList[core.ValueFilter](dec, core.FamilyValueFilter, payload)
		if err != nil {
			return nil, err
		}
		return NewAnd(fs...), nil
	})
	register("Or", func(payload any, dec core.Decoder) (any, error) {
		fs, err := core.DecodeList[core.ValueFilter](dec, core.FamilyValueFilter, payload)
		if err != nil {
			return nil, err
		}
		return NewOr(fs...), nil
	})
	register("Not", func(payload any, dec core.Decoder) (any, error) {
		f, err := core.DecodeAs[core.ValueFilter](dec, core.FamilyValueFilter, payload)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, core.Decodef("Not", "missing filter")
		}
		return Negate(f), nil
	})
}

func register(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyValueFilter, name, f)
}
