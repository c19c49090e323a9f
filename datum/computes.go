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
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// Field reads a value by key or pointer.
type Field struct {
	Field string
}

func (c *Field) Name() string                           { return "Field" }
func (c *Field) SimpleValue() any                       { return c.Field }
func (c *Field) ComputeDatum(d core.Datum) (any, error) { return pointer.Get(d, c.Field), nil }

// Constant ignores the record and returns Value.
type Constant struct {
	Value any
}

// NewConstant creates a Constant compute
func NewConstant(v any) *Constant { return &Constant{Value: value.Normalize(v)} }

func (c *Constant) Name() string                            { return "Constant" }
func (c *Constant) ComputeDatum(core.Datum) (any, error)    { return c.Value, nil }
func (c *Constant) EncodePayload(core.Encoder) (any, error) { return c.Value, nil }

// When pairs a field filter with the value computed when it matches.
type When struct {
	When  *FieldFilter
	Value core.DatumCompute
}

// Condition returns the value of the first case whose filter matches, or nil when none does.
type Condition struct {
	Cases []When
}

func (c *Condition) Name() string { return "Condition" }

// ComputeDatum implements core.DatumCompute
func (c *Condition) ComputeDatum(d core.Datum) (any, error) {
	for _, w := range c.Cases {
		if w.When.MatchDatum(d) {
			if w.Value == nil {
				return nil, nil
			}
			return w.Value.ComputeDatum(d)
		}
	}
	return nil, nil
}

// EncodePayload returns the list of {when, value} cases
func (c *Condition) EncodePayload(enc core.Encoder) (any, error) {
	out := make([]any, 0, len(c.Cases))
	for _, w := range c.Cases {
		when, err := w.When.EncodeDocument(enc)
		if err != nil {
			return nil, err
		}
		val, err := enc.EncodeNode(w.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, value.MapOf("when", when, "value", val))
	}
	return out, nil
}

// Template renders a string with {pointer} placeholders filled from the record. A template that
// starts with "/" is instead a ";"-separated list of pointers, and the first non-null value wins.
type Template struct {
	Template string
	ForNull  string
}

// NewTemplate creates a Template that renders missing values as "null".
func NewTemplate(template string) *Template {
	return &Template{Template: template, ForNull: "null"}
}

func (c *Template) Name() string { return "Template" }

// ComputeDatum implements core.DatumCompute
func (c *Template) ComputeDatum(d core.Datum) (any, error) {
	s, ok := Render(d, c.Template, c.ForNull)
	if !ok {
		return nil, nil
	}
	return s, nil
}

// EncodePayload returns the template string, or {template, forNull} when ForNull is not "null".
func (c *Template) EncodePayload(core.Encoder) (any, error) {
	return templatePayload(c.Template, c.ForNull), nil
}

// Render fills the placeholders of template from d. It reports false when a pointer-list
// template finds no value.
func Render(d core.Datum, template, forNull string) (string, bool) {
	if strings.HasPrefix(template, "/") {
		for _, p := range strings.Split(template, ";") {
			if p == "" {
				continue
			}
			if v := pointer.Get(d, p); v != nil {
				return value.String(v), true
			}
		}
		return "", false
	}

	var b strings.Builder
	rest := template
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			break
		}
		j := strings.IndexByte(rest[i:], '}')
		if j < 0 {
			logging.L().Debug("invalid template: '{' without '}'", zap.String("template", template))
			return template, true
		}
		b.WriteString(rest[:i])
		field := rest[i+1 : i+j]
		b.WriteString(renderField(field, pointer.Get(d, field), forNull))
		rest = rest[i+j+1:]
	}
	b.WriteString(rest)
	return b.String(), true
}

// renderField formats epoch values as timestamps when the field name mentions a date or time.
func renderField(field string, v any, forNull string) string {
	if v == nil {
		return forNull
	}
	lc := strings.ToLower(field)
	if n, ok := v.(int64); ok && (strings.Contains(lc, "date") || strings.Contains(lc, "time")) {
		return time.UnixMilli(n).In(value.Location()).Format(time.DateTime)
	}
	if t, ok := v.(time.Time); ok && (strings.Contains(lc, "date") || strings.Contains(lc, "time")) {
		return t.In(value.Location()).Format(time.DateTime)
	}
	return value.String(v)
}

// ToArray lists field values of a record in field order, or in the record's own key order when
// Fields is empty. Flatten splices list values into the result; KeepFieldNames returns
// [fieldNames, values].
type ToArray struct {
	Fields         []string
	Flatten        bool
	KeepFieldNames bool
}

func (c *ToArray) Name() string { return "ToArray" }

// ComputeDatum implements core.DatumCompute
func (c *ToArray) ComputeDatum(d core.Datum) (any, error) {
	fields := c.Fields
	if len(fields) == 0 {
		fields = d.Keys()
	}
	values := make([]any, 0, len(fields))
	for _, f := range fields {
		v := d.Value(f)
		if list, ok := v.([]any); ok && c.Flatten {
			values = append(values, list...)
			continue
		}
		values = append(values, v)
	}
	if c.KeepFieldNames {
		return []any{core.StringList(fields), values}, nil
	}
	return values, nil
}

// EncodePayload returns the non-default fields
func (c *ToArray) EncodePayload(core.Encoder) (any, error) {
	out := value.NewMap()
	if len(c.Fields) > 0 {
		out.Set("fields", core.StringList(c.Fields))
	}
	if c.Flatten {
		out.Set("flatten", true)
	}
	if c.KeepFieldNames {
		out.Set("keepFieldNames", true)
	}
	return out, nil
}

// Uuid returns a new random UUID string for every record.
type Uuid struct{}

func (Uuid) Name() string                         { return "Uuid" }
func (Uuid) SimpleValue() any                     { return nil }
func (Uuid) ComputeDatum(core.Datum) (any, error) { return uuid.NewString(), nil }
