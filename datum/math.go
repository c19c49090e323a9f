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
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// MathOp applies an operation to the values at Fields. Values are coerced to numbers, and times
// count as epoch milliseconds. When the first value is a time and the operation returns dates
// (MIN, MAX, AVERAGE, STD_DEV), the result is a time as well. Missing or non-numeric inputs yield IfInvalid.
type MathOp struct {
	Operator  compute.Operate
	Fields    []string
	IfInvalid any
}

// NewMathOp creates a MathOp
func NewMathOp(op compute.Operate, fields ...string) *MathOp {
	return &MathOp{Operator: op, Fields: fields}
}

func (c *MathOp) Name() string { return "MathOp" }

// ComputeDatum implements core.DatumCompute
func (c *MathOp) ComputeDatum(d core.Datum) (any, error) {
	if len(c.Fields) == 0 {
		return c.IfInvalid, nil
	}
	first := pointer.Get(d, c.Fields[0])
	if first == nil {
		return c.IfInvalid, nil
	}
	inputs := make([]any, len(c.Fields))
	for i, f := range c.Fields {
		inputs[i] = value.ToNumber(pointer.Get(d, f))
	}
	op := c.Operator
	if op == "" {
		op = compute.ADD
	}
	res := op.Apply(inputs, c.IfInvalid)
	if _, isTime := first.(time.Time); isTime && op.ReturnsDates() {
		if f, ok := value.AsFloat(res); ok {
			return time.UnixMilli(int64(f)).In(value.Location()), nil
		}
	}
	return res, nil
}

// EncodePayload returns the non-default fields
func (c *MathOp) EncodePayload(core.Encoder) (any, error) {
	out := value.NewMap()
	if c.Operator != "" && c.Operator != compute.ADD {
		out.Set("operator", string(c.Operator))
	}
	if len(c.Fields) > 0 {
		out.Set("fields", core.StringList(c.Fields))
	}
	if c.IfInvalid != nil {
		out.Set("ifInvalid", c.IfInvalid)
	}
	return out, nil
}
