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

package transform

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

func init() {
	register("Create", func(payload any, dec core.Decoder) (any, error) {
		return DecodeCreate(dec, payload)
	})
	register("Augment", func(payload any, dec core.Decoder) (any, error) {
		c, err := DecodeCreate(dec, payload)
		if err != nil {
			return nil, err
		}
		return &Augment{Create: *c}, nil
	})
	register("Change", decodeChange)
	register("Mapping", decodeMapping)
	register("JSONPatch", decodeJSONPatch)
	register("Symmetry", func(payload any, _ core.Decoder) (any, error) {
		m, err := core.Bean("Symmetry", payload)
		if err != nil {
			return nil, err
		}
		pairs := value.NewMap(m.Len())
		for k, v := range m.All() {
			pairs.Set(k, value.String(v))
		}
		return &Symmetry{Pairs: pairs}, nil
	})
	register("RetainFields", func(payload any, _ core.Decoder) (any, error) {
		return Retain(core.Strings(payload)...), nil
	})
	register("RemoveFields", func(payload any, _ core.Decoder) (any, error) {
		return Remove(core.Strings(payload)...), nil
	})
	register("FlattenFields", func(payload any, _ core.Decoder) (any, error) {
		return FlattenKeys(core.Strings(payload)...), nil
	})
	register("LogDatum", func(payload any, _ core.Decoder) (any, error) {
		if m, ok := payload.(*value.Map); ok {
			return &LogDatum{Level: core.StringOr(m, "level", "INFO")}, nil
		}
		if payload == nil {
			return &LogDatum{Level: "INFO"}, nil
		}
		return &LogDatum{Level: value.String(payload)}, nil
	})

	registerMulti("Flatten", decodeFlatten)
	registerMulti("Fold", decodeFold)

	// A record transform named where a multi transform is expected is wrapped.
	registry.AddProvider(registry.ProviderFunc(func(family core.Family, name string) (registry.Factory, bool) {
		if family != core.FamilyMultiDatumTransform {
			return nil, false
		}
		f, err := registry.Lookup(core.FamilyDatumTransform, name)
		if err != nil {
			return nil, false
		}
		return func(payload any, dec core.Decoder) (any, error) {
			node, err := f(payload, dec)
			if err != nil {
				return nil, err
			}
			t, ok := node.(core.DatumTransform)
			if !ok {
				return nil, core.Decodef(name, "%T is not a record transform", node)
			}
			return Wrap(t), nil
		}, true
	}))
}

func register(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyDatumTransform, name, f)
}

func registerMulti(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyMultiDatumTransform, name, f)
}
