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

package datum

import (
	"time"

	"github.com/aaronlmathis/goparsnip/compute"
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/filter"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

func init() {
	registerFilter("DatumFieldFilter", func(payload any, dec core.Decoder) (any, error) {
		return DecodeFieldFilter(dec, payload)
	})
	registerFilter("All", func(any, core.Decoder) (any, error) { return All{}, nil })
	registerFilter("None", func(any, core.Decoder) (any, error) { return None{}, nil })
	registerFilter("And", func(payload any, dec core.Decoder) (any, error) {
		fs, err := core.DecodeList[core.DatumFilter](dec, core.FamilyDatumFilter, payload)
		if err != nil {
			return nil, err
		}
		return NewAnd(fs...), nil
	})
	registerFilter("Or", func(payload any, dec core.Decoder) (any, error) {
		fs, err := core.DecodeList[core.DatumFilter](dec, core.FamilyDatumFilter, payload)
		if err != nil {
			return nil, err
		}
		return NewOr(fs...), nil
	})
	registerFilter("Not", func(payload any, dec core.Decoder) (any, error) {
		f, err := core.DecodeAs[core.DatumFilter](dec, core.FamilyDatumFilter, payload)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, core.Decodef("Not", "missing filter")
		}
		return Negate(f), nil
	})

	register("Field", func(payload any, _ core.Decoder) (any, error) {
		return &Field{Field: value.String(payload)}, nil
	})
	register("Constant", func(payload any, _ core.Decoder) (any, error) { return NewConstant(payload), nil })
	register("Uuid", func(any, core.Decoder) (any, error) { return Uuid{}, nil })
	register("Chain", decodeChain)
	register("Condition", decodeCondition)
	register("Template", func(payload any, _ core.Decoder) (any, error) {
		template, forNull, err := templateOf("Template", payload)
		if err != nil {
			return nil, err
		}
		return &Template{Template: template, ForNull: forNull}, nil
	})
	register("Calculate", func(payload any, _ core.Decoder) (any, error) {
		template, forNull, err := templateOf("Calculate", payload)
		if err != nil {
			return nil, err
		}
		c := NewCalculate(template)
		c.ForNull = forNull
		return c, nil
	})
	register("CalculateBoolean", func(payload any, _ core.Decoder) (any, error) {
		template, forNull, err := templateOf("CalculateBoolean", payload)
		if err != nil {
			return nil, err
		}
		c := NewCalculateBoolean(template)
		c.ForNull = forNull
		return c, nil
	})
	register("ToArray", func(payload any, _ core.Decoder) (any, error) {
		bean, err := core.Bean("ToArray", payload)
		if err != nil {
			return nil, err
		}
		return &ToArray{
			Fields:         core.Strings(bean.Value("fields")),
			Flatten:        core.BoolOr(bean, "flatten", false),
			KeepFieldNames: core.BoolOr(bean, "keepFieldNames", false),
		}, nil
	})
	register("MathOp", func(payload any, _ core.Decoder) (any, error) {
		bean, err := core.Bean("MathOp", payload)
		if err != nil {
			return nil, err
		}
		op, err := compute.ParseOperate(core.StringOr(bean, "operator", string(compute.ADD)))
		if err != nil {
			return nil, err
		}
		c := NewMathOp(op, core.Strings(bean.Value("fields"))...)
		c.IfInvalid = bean.Value("ifInvalid")
		return c, nil
	})
	register("Script", func(payload any, _ core.Decoder) (any, error) {
		if s, ok := payload.(string); ok {
			return NewScript(s)
		}
		bean, err := core.Bean("Script", payload)
		if err != nil {
			return nil, err
		}
		s, err := NewScript(core.StringOr(bean, "source", ""))
		if err != nil {
			return nil, err
		}
		if t := bean.Value("timeout"); t != nil {
			if s.Timeout, err = time.ParseDuration(value.String(t)); err != nil {
				return nil, core.NewError(core.ErrConstruction, "Script", "invalid timeout", err)
			}
		}
		return s, nil
	})
}

// DecodeFieldFilter decodes a map of field to value filter document. Bare values decode as Equal.
func DecodeFieldFilter(dec core.Decoder, payload any) (*FieldFilter, error) {
	bean, err := core.Bean("DatumFieldFilter", payload)
	if err != nil {
		return nil, err
	}
	f := NewFieldFilter()
	for k, v := range bean.All() {
		vf, err := dec.DecodeNode(core.FamilyValueFilter, v)
		if err != nil {
			return nil, err
		}
		if vf == nil {
			vf = filter.NewEqual(nil)
		}
		f.Put(k, vf.(core.ValueFilter))
	}
	return f, nil
}

func decodeCondition(payload any, dec core.Decoder) (any, error) {
	if payload == nil {
		return &Condition{}, nil
	}
	items, ok := payload.([]any)
	if !ok {
		return nil, core.Decodef("Condition", "expected a list of {when, value}, got %s", value.String(payload))
	}
	c := &Condition{Cases: make([]When, 0, len(items))}
	for _, item := range items {
		bean, err := core.Bean("Condition", item)
		if err != nil {
			return nil, err
		}
		when, err := DecodeFieldFilter(dec, bean.Value("when"))
		if err != nil {
			return nil, err
		}
		val, err := core.DecodeAs[core.DatumCompute](dec, core.FamilyDatumCompute, bean.Value("value"))
		if err != nil {
			return nil, err
		}
		c.Cases = append(c.Cases, When{When: when, Value: val})
	}
	return c, nil
}

// templateOf reads a template string or a {template, forNull} bean.
func templateOf(op string, payload any) (string, string, error) {
	if payload == nil {
		return "", "null", nil
	}
	if m, ok := payload.(*value.Map); ok {
		return core.StringOr(m, "template", ""), core.StringOr(m, "forNull", "null"), nil
	}
	switch payload.(type) {
	case []any:
		return "", "", core.Decodef(op, "expected a template, got %s", value.String(payload))
	}
	return value.String(payload), "null", nil
}

func registerFilter(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyDatumFilter, name, f)
}

func register(name string, f registry.Factory) {
	registry.MustRegister(core.FamilyDatumCompute, name, f)
}
