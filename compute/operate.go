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
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/filter"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/value"
)

// Operate is an operation over a list of numbers. Arithmetic keeps the kind of the first operand:
// int64 operands produce int64 results (AVERAGE and STD_DEV excepted), float64 operands produce float64.
type Operate string

const (
	EQUAL     Operate = "EQUAL"     // first value equal to all others
	NOT_EQUAL Operate = "NOT_EQUAL" // first value not equal to any other
	GT        Operate = "GT"        // first value greater than all others
	GTE       Operate = "GTE"
	LT        Operate = "LT"
	LTE       Operate = "LTE"
	NEGATE    Operate = "NEGATE"
	DIVIDE    Operate = "DIVIDE"
	MULTIPLY  Operate = "MULTIPLY"
	SUBTRACT  Operate = "SUBTRACT" // first value minus all others
	ADD       Operate = "ADD"
	MIN       Operate = "MIN"
	MAX       Operate = "MAX"
	AVERAGE   Operate = "AVERAGE"
	STD_DEV   Operate = "STD_DEV" // population standard deviation
)

// Operates lists every operation.
var Operates = []Operate{EQUAL, NOT_EQUAL, GT, GTE, LT, LTE, NEGATE, DIVIDE, MULTIPLY, SUBTRACT, ADD, MIN, MAX, AVERAGE, STD_DEV}

// ParseOperate resolves an operation name, case-insensitively.
func ParseOperate(name string) (Operate, error) {
	for _, op := range Operates {
		if strings.EqualFold(string(op), strings.TrimSpace(name)) {
			return op, nil
		}
	}
	return "", core.Constructionf("Operate", "unknown operator %q", name)
}

// ReturnsDates reports whether the result is an instant when the first operand is one.
func (op Operate) ReturnsDates() bool {
	switch op {
	case MIN, MAX, AVERAGE, STD_DEV:
		return true
	}
	return false
}

// Apply evaluates op over inputs, each an int64, a float64 or nil. It returns def when a required
// operand is missing or the arithmetic is invalid, such as an integer division by zero.
func (op Operate) Apply(inputs []any, def any) any {
	if len(inputs) == 0 || inputs[0] == nil {
		return def
	}
	first := inputs[0]
	switch op {
	case EQUAL, NOT_EQUAL, GT, GTE, LT, LTE:
		for _, other := range inputs[1:] {
			if !op.test(first, other) {
				return false
			}
		}
		return true
	case NEGATE:
		switch n := first.(type) {
		case int64:
			return -n
		case float64:
			return -n
		}
	case DIVIDE, MULTIPLY:
		if len(inputs) < 2 || inputs[1] == nil {
			return def
		}
		return binary(op, first, inputs[1], def)
	}

	for _, x := range inputs {
		if x == nil {
			return def
		}
	}
	switch op {
	case ADD, SUBTRACT, MIN, MAX:
		if acc, ok := first.(int64); ok {
			for _, x := range inputs[1:] {
				acc = accumulate(op, acc, asInt(x))
			}
			return acc
		}
		acc := asFloat(first)
		for _, x := range inputs[1:] {
			acc = accumulate(op, acc, asFloat(x))
		}
		return acc
	case AVERAGE:
		return mean(inputs)
	case STD_DEV:
		if len(inputs) == 1 {
			return 0.0
		}
		m := mean(inputs)
		var sq float64
		for _, x := range inputs {
			d := asFloat(x) - m
			sq += d * d
		}
		return math.Sqrt(sq / float64(len(inputs)))
	}
	logging.L().Debug("unsupported operation", zap.String("op", string(op)))
	return def
}

func (op Operate) test(first, other any) bool {
	switch op {
	case EQUAL:
		return filter.NewEqual(first).Match(other)
	case NOT_EQUAL:
		return filter.NewNotEqual(first).Match(other)
	case GT:
		return filter.NewGt(other).Match(first)
	case GTE:
		return filter.NewGte(other).Match(first)
	case LT:
		return filter.NewLt(other).Match(first)
	}
	return filter.NewLte(other).Match(first)
}

func binary(op Operate, a, b, def any) any {
	if x, ok := a.(int64); ok {
		y := asInt(b)
		if op == MULTIPLY {
			return x * y
		}
		if y == 0 {
			logging.L().Debug("cast/math error", zap.String("op", string(op)), zap.String("error", "division by zero"))
			return def
		}
		return x / y
	}
	if op == MULTIPLY {
		return asFloat(a) * asFloat(b)
	}
	return asFloat(a) / asFloat(b)
}

func accumulate[N int64 | float64](op Operate, acc, x N) N {
	switch op {
	case ADD:
		return acc + x
	case SUBTRACT:
		return acc - x
	case MIN:
		return min(acc, x)
	}
	return max(acc, x)
}

func mean(xs []any) float64 {
	var sum float64
	for _, x := range xs {
		sum += asFloat(x)
	}
	return sum / float64(len(xs))
}

// asInt keeps int64 operands exact and truncates floats.
func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	i, _ := value.ToInt(v)
	return i
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}
