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
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// expression is a compiled template in which each {pointer} placeholder is bound to a variable aN.
type expression struct {
	template string
	vars     []string // pointers, indexed by variable number
	program  *vm.Program
}

func compileExpression(template string) *expression {
	e := &expression{template: template}
	var b strings.Builder
	rest := template
	for {
		i := strings.IndexByte(rest, '{')
		if i < 0 {
			break
		}
		j := strings.IndexByte(rest[i:], '}')
		if j < 0 {
			logging.L().Debug("invalid expression template: '{' without '}'", zap.String("template", template))
			break
		}
		b.WriteString(rest[:i])
		fmt.Fprintf(&b, "a%d", len(e.vars))
		e.vars = append(e.vars, rest[i+1:i+j])
		rest = rest[i+j+1:]
	}
	b.WriteString(rest)

	program, err := expr.Compile(b.String())
	if err != nil {
		logging.L().Debug("invalid expression", zap.String("template", template), zap.Error(err))
		return e
	}
	e.program = program
	return e
}

// eval binds each variable with conv and runs the program. A nil binding or a runtime error yields nil.
func (e *expression) eval(d core.Datum, conv func(any) any) any {
	if e.program == nil {
		return nil
	}
	env := make(map[string]any, len(e.vars))
	for i, p := range e.vars {
		v := conv(pointer.Get(d, p))
		if v == nil {
			return nil
		}
		env[fmt.Sprintf("a%d", i)] = v
	}
	res, err := expr.Run(e.program, env)
	if err != nil {
		logging.L().Debug("expression failed", zap.String("template", e.template), zap.Error(err))
		return nil
	}
	return res
}

// Calculate evaluates a numeric expression such as "{/a} + {/b/c} * 2". Placeholder values are
// coerced to numbers; a missing value, a non-numeric result or an invalid expression yields nil.
type Calculate struct {
	Template string
	ForNull  string
	expr     *expression
}

// NewCalculate compiles a Calculate compute. Invalid expressions compute nil.
func NewCalculate(template string) *Calculate {
	return &Calculate{Template: template, ForNull: "null", expr: compileExpression(template)}
}

func (c *Calculate) Name() string { return "Calculate" }

// ComputeDatum implements core.DatumCompute
func (c *Calculate) ComputeDatum(d core.Datum) (any, error) {
	res := c.expr.eval(d, func(v any) any {
		f, ok := value.ToFloat(v)
		if !ok {
			return nil
		}
		return f
	})
	switch n := value.Normalize(res).(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return nil, nil
}

func (c *Calculate) EncodePayload(core.Encoder) (any, error) {
	return templatePayload(c.Template, c.ForNull), nil
}

// CalculateBoolean evaluates a boolean expression such as "{/a} or {/b}". Placeholder values are
// coerced to booleans; a missing value, a non-boolean result or an invalid expression yields nil.
type CalculateBoolean struct {
	Template string
	ForNull  string
	expr     *expression
}

// NewCalculateBoolean compiles a CalculateBoolean compute
func NewCalculateBoolean(template string) *CalculateBoolean {
	return &CalculateBoolean{Template: template, ForNull: "null", expr: compileExpression(template)}
}

func (c *CalculateBoolean) Name() string { return "CalculateBoolean" }

// ComputeDatum implements core.DatumCompute
func (c *CalculateBoolean) ComputeDatum(d core.Datum) (any, error) {
	res := c.expr.eval(d, func(v any) any {
		b, ok := value.ToBool(v)
		if !ok {
			return nil
		}
		return b
	})
	if b, ok := res.(bool); ok {
		return b, nil
	}
	return nil, nil
}

func (c *CalculateBoolean) EncodePayload(core.Encoder) (any, error) {
	return templatePayload(c.Template, c.ForNull), nil
}

func templatePayload(template, forNull string) any {
	if forNull == "null" || forNull == "" {
		return template
	}
	return value.MapOf("template", template, "forNull", forNull)
}
