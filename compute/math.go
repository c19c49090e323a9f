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
	"github.com/aaronlmathis/goparsnip/value"
)

// Arithmetic applies Op to the input and a fixed operand. The input is coerced to a number first
// and its kind decides integer or float arithmetic.
type Arithmetic struct {
	Op      Operate
	Operand any
}

func newArithmetic(op Operate, operand any) (*Arithmetic, error) {
	n := value.Normalize(operand)
	if !value.IsNumber(n) {
		return nil, core.Constructionf(arithmeticNames[op], "operand must be a number, got %s", value.String(operand))
	}
	return &Arithmetic{Op: op, Operand: n}, nil
}

var arithmeticNames = map[Operate]string{ADD: "Add", SUBTRACT: "Subtract", MULTIPLY: "Multiply", DIVIDE: "Divide"}

// NewAdd adds operand to the input
func NewAdd(operand any) (*Arithmetic, error) { return newArithmetic(ADD, operand) }

// NewSubtract subtracts operand from the input
func NewSubtract(operand any) (*Arithmetic, error) { return newArithmetic(SUBTRACT, operand) }

// NewMultiply multiplies the input by operand
func NewMultiply(operand any) (*Arithmetic, error) { return newArithmetic(MULTIPLY, operand) }

// NewDivide divides the input by operand
func NewDivide(operand any) (*Arithmetic, error) { return newArithmetic(DIVIDE, operand) }

func (c *Arithmetic) Name() string     { return arithmeticNames[c.Op] }
func (c *Arithmetic) SimpleValue() any { return c.Operand }

// Compute implements core.ValueCompute
func (c *Arithmetic) Compute(v any) (any, error) {
	return c.Op.Apply([]any{value.ToNumber(v), c.Operand}, nil), nil
}

// Linear maps Domain linearly onto Range. Both must have two elements.
type Linear struct {
	Domain [2]float64
	Range  [2]float64
}

// NewLinear creates a Linear compute; nil slices default to [0, 1].
func NewLinear(domain, rng []float64) (*Linear, error) {
	l := &Linear{Domain: [2]float64{0, 1}, Range: [2]float64{0, 1}}
	if domain != nil {
		if len(domain) != 2 {
			return nil, core.Constructionf("Linear", "domain must have length 2")
		}
		l.Domain = [2]float64{domain[0], domain[1]}
	}
	if rng != nil {
		if len(rng) != 2 {
			return nil, core.Constructionf("Linear", "range must have length 2")
		}
		l.Range = [2]float64{rng[0], rng[1]}
	}
	return l, nil
}

func (c *Linear) Name() string { return "Linear" }

// Scale returns the slope of the mapping.
func (c *Linear) Scale() float64 {
	return (c.Range[1] - c.Range[0]) / (c.Domain[1] - c.Domain[0])
}

// Compute implements core.ValueCompute
func (c *Linear) Compute(v any) (any, error) {
	f, ok := value.ToFloat(v)
	if !ok {
		return nil, nil
	}
	return c.Range[0] + (f-c.Domain[0])*c.Scale(), nil
}

// EncodePayload returns {domain, range}
func (c *Linear) EncodePayload(core.Encoder) (any, error) {
	return value.MapOf("domain", []any{c.Domain[0], c.Domain[1]}, "range", []any{c.Range[0], c.Range[1]}), nil
}

func floats(op string, v any) ([]float64, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, core.Constructionf(op, "expected a list of numbers, got %s", value.String(v))
	}
	out := make([]float64, len(list))
	for i, x := range list {
		f, ok := value.ToFloat(x)
		if !ok {
			return nil, core.Constructionf(op, "not a number: %s", value.String(x))
		}
		out[i] = f
	}
	return out, nil
}
