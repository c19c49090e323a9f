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

package aggregate

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

func init() {
	for _, op := range []core.ValueSetCompute{Stats{}, IntStats{}, Sum{}, Mean{}, Average{}, Min{}, Max{},
		Count{}, CountValid{}, CountMissing{}, CountNonNull{}, CountDistinct{}, CountNumeric{}} {
		registry.MustRegister(core.FamilyValueSetCompute, opName(op), func(any, core.Decoder) (any, error) {
			return op, nil
		})
	}

	registerSet("Values", func(payload any, _ core.Decoder) (any, error) {
		return &Values{Field: value.String(payload)}, nil
	})
	registerSet("ArgMin", func(payload any, _ core.Decoder) (any, error) {
		return &ArgMin{Field: value.String(payload)}, nil
	})
	registerSet("ArgMax", func(payload any, _ core.Decoder) (any, error) {
		return &ArgMax{Field: value.String(payload)}, nil
	})
	registerSet("Stats", func(payload any, _ core.Decoder) (any, error) {
		return &FieldStats{Field: value.String(payload)}, nil
	})

	register("Limit", func(payload any, _ core.Decoder) (any, error) {
		n, ok := value.ToInt(payload)
		if !ok {
			return nil, core.Decodef("Limit", "expected a number, got %s", value.String(payload))
		}
		return &Limit{N: int(n)}, nil
	})
	register("Chain", func(payload any, dec core.Decoder) (any, error) {
		ts, err := core.DecodeList[core.DataSetTransform](dec, core.FamilyDataSetTransform, payload)
		if err != nil {
			return nil, err
		}
		return NewChain(ts...), nil
	})
	register("SortBy", func(payload any, _ core.Decoder) (any, error) {
		return &SortBy{Fields: core.Strings(payload)}, nil
	})
	register("SortByDescending", func(payload any, _ core.Decoder) (any, error) {
		return &SortByDescending{Fields: core.Strings(payload)}, nil
	})
	register("Aggregate", decodeAggregate)
	register("GroupBy", decodeGroupBy)
}

func register(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyDataSetTransform, name, f)
}

func registerSet(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyDataSetCompute, name, f)
}
