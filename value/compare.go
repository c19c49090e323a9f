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

package value

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// ErrNotComparable is returned by Compare when two values have no defined order.
var ErrNotComparable = errors.New("values are not comparable")

// Compare orders two non-nil values, coercing across kinds:
//
//	equal values                  -> 0
//	same kind, natively ordered   -> native order
//	either side a number          -> numeric order, parsing the other side
//	either side a time            -> epoch order, converting the other side
//	either side a bool            -> boolean order if the other reads as "true"/"false", else string order
//	anything else                 -> order of the Go type names
//
// Nil operands and failed coercions return ErrNotComparable.
func Compare(left, right any) (int, error) {
	if left == nil || right == nil {
		return 0, fmt.Errorf("%w: nulls not allowed", ErrNotComparable)
	}
	lk, rk := KindOf(left), KindOf(right)
	if lk == rk {
		if c, ok := compareSame(left, right); ok {
			return c, nil
		}
	}
	switch {
	case lk.IsNumber():
		return compareNumbers(left, right)
	case rk.IsNumber():
		c, err := compareNumbers(right, left)
		return -c, err
	case lk == KindTime:
		return compareTimes(left, right)
	case rk == KindTime:
		c, err := compareTimes(right, left)
		return -c, err
	case lk == KindBool:
		return compareBools(left.(bool), right), nil
	case rk == KindBool:
		return -compareBools(right.(bool), left), nil
	}
	return strings.Compare(TypeName(left), TypeName(right)), nil
}

func compareSame(left, right any) (int, bool) {
	switch l := left.(type) {
	case bool:
		return compareBools(l, right), true
	case int64:
		return cmp.Compare(l, right.(int64)), true
	case float64:
		return cmp.Compare(l, right.(float64)), true
	case string:
		return strings.Compare(l, right.(string)), true
	case time.Time:
		return l.Compare(right.(time.Time)), true
	case []any, *Map:
		if Equal(left, right) {
			return 0, true
		}
	}
	if TypeName(left) == TypeName(right) {
		if c, ok := left.(interface{ Compare(any) int }); ok {
			return c.Compare(right), true
		}
		if Equal(left, right) {
			return 0, true
		}
	}
	return 0, false
}

func compareNumbers(left, right any) (int, error) {
	lf, _ := AsFloat(left)
	if rf, ok := AsFloat(right); ok {
		return cmp.Compare(lf, rf), nil
	}
	n := parseNumberAs(String(right), KindOf(left))
	rf, ok := AsFloat(n)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a number", ErrNotComparable, String(right))
	}
	return cmp.Compare(lf, rf), nil
}

func compareTimes(left, right any) (int, error) {
	t0 := left.(time.Time).UnixMilli()
	t1, ok := EpochMilli(right)
	if !ok {
		return 0, fmt.Errorf("%w: not a timestamp: %s", ErrNotComparable, String(right))
	}
	return cmp.Compare(t0, t1), nil
}

func compareBools(left bool, right any) int {
	b := func(x bool) int {
		if x {
			return 1
		}
		return 0
	}
	if r, ok := right.(bool); ok {
		return cmp.Compare(b(left), b(r))
	}
	switch strings.ToLower(String(right)) {
	case "true":
		return cmp.Compare(b(left), 1)
	case "false":
		return cmp.Compare(b(left), 0)
	}
	return strings.Compare(String(left), String(right))
}

// Equal reports structural equality. Numbers compare by value across int64 and float64,
// maps compare without regard to key order and times compare as instants.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case float64:
			return x == y || (math.IsNaN(x) && math.IsNaN(y))
		}
		return false
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok {
			return false
		}
		if x == nil || y == nil {
			return x == y
		}
		if x.Len() != y.Len() {
			return false
		}
		for k, v := range x.All() {
			w, ok := y.Get(k)
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
