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
	"math"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// ExtendedStats summarizes a list of numbers. Nulls and non-numeric values are counted, not summed.
type ExtendedStats struct {
	Count        int64
	NullCount    int64
	InvalidCount int64
	Min          *float64
	Max          *float64
	Sum          float64
	SumSq        float64
	SumCb        float64
}

// NewExtendedStats computes statistics over vs. Values are read with value.ToNumber.
func NewExtendedStats(vs []any) *ExtendedStats {
	s := &ExtendedStats{}
	for _, v := range vs {
		if v == nil {
			s.NullCount++
			continue
		}
		f, ok := value.ToFloat(v)
		if !ok {
			s.NullCount++
			continue
		}
		s.Count++
		s.Sum += f
		s.SumSq += f * f
		s.SumCb += f * f * f
		if s.Min == nil || f < *s.Min {
			s.Min = &f
		}
		if s.Max == nil || f > *s.Max {
			s.Max = &f
		}
	}
	return s
}

// Average returns the mean, or NaN for no values.
func (s *ExtendedStats) Average() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.Count)
}

// Mean is a synonym for Average.
func (s *ExtendedStats) Mean() float64 { return s.Average() }

// Variance returns the population variance, or 0 for no values.
func (s *ExtendedStats) Variance() float64 {
	if s.Count == 0 {
		return 0
	}
	n := float64(s.Count)
	return (s.SumSq - s.Sum*s.Sum/n) / n
}

// StandardDeviation returns the population standard deviation, or NaN for no values.
func (s *ExtendedStats) StandardDeviation() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return math.Sqrt(s.Variance())
}

// Map renders the statistics as a record.
func (s *ExtendedStats) Map() *value.Map {
	m := value.MapOf("count", s.Count, "nullCount", s.NullCount, "invalidCount", s.InvalidCount)
	m.Set("min", floatOrNil(s.Min))
	m.Set("max", floatOrNil(s.Max))
	m.Set("sum", s.Sum)
	m.Set("average", s.Average())
	m.Set("variance", s.Variance())
	m.Set("standardDeviation", s.StandardDeviation())
	return m
}

func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// IntStatistics summarizes integer values: count, sum, min, max and average.
type IntStatistics struct {
	Count int64
	Sum   int64
	Min   int64
	Max   int64
}

// Average returns the mean, or 0 for no values.
func (s *IntStatistics) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

// Stats computes ExtendedStats over a value set.
type Stats struct{}

func (Stats) Name() string { return "Stats" }

// ComputeValues implements core.ValueSetCompute
func (Stats) ComputeValues(vs []any) (any, error) { return NewExtendedStats(vs), nil }

// IntStats computes IntStatistics over the integer readings of a value set, skipping the rest.
type IntStats struct{}

func (IntStats) Name() string { return "IntStats" }

// ComputeValues implements core.ValueSetCompute
func (IntStats) ComputeValues(vs []any) (any, error) {
	s := &IntStatistics{Min: math.MaxInt32, Max: math.MinInt32}
	for _, v := range vs {
		n, ok := value.ToInt(v)
		if !ok {
			continue
		}
		n = int64(int32(n))
		s.Count++
		s.Sum += n
		s.Min = min(s.Min, n)
		s.Max = max(s.Max, n)
	}
	return s, nil
}

// numbers reads every value as a number. A value with no numeric reading is an error.
// The bool result reports whether every number is an int64.
func numbers(op string, vs []any) ([]any, bool, error) {
	out := make([]any, len(vs))
	ints := true
	for i, v := range vs {
		n := value.ToNumber(v)
		if n == nil {
			return nil, false, core.Computef(op, "not a number: %s", value.String(v))
		}
		if _, ok := n.(int64); !ok {
			ints = false
		}
		out[i] = n
	}
	return out, ints, nil
}

// Sum adds numbers. The result is an int64 when every input is an integer and a float64 otherwise.
type Sum struct{}

func (Sum) Name() string { return "Sum" }

// ComputeValues implements core.ValueSetCompute
func (Sum) ComputeValues(vs []any) (any, error) {
	ns, ints, err := numbers("Sum", vs)
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return 0.0, nil
	}
	if ints {
		var sum int64
		for _, n := range ns {
			sum += n.(int64)
		}
		return sum, nil
	}
	var sum float64
	for _, n := range ns {
		f, _ := value.AsFloat(n)
		sum += f
	}
	return sum, nil
}

// Mean averages numbers as float64. No values yield NaN.
type Mean struct{}

func (Mean) Name() string { return "Mean" }

// ComputeValues implements core.ValueSetCompute
func (Mean) ComputeValues(vs []any) (any, error) { return average("Mean", vs) }

// Average is a synonym for Mean.
type Average struct{}

func (Average) Name() string { return "Average" }

// ComputeValues implements core.ValueSetCompute
func (Average) ComputeValues(vs []any) (any, error) { return average("Average", vs) }

func average(op string, vs []any) (any, error) {
	ns, _, err := numbers(op, vs)
	if err != nil {
		return nil, err
	}
	if len(ns) == 0 {
		return math.NaN(), nil
	}
	var sum float64
	for _, n := range ns {
		f, _ := value.AsFloat(n)
		sum += f
	}
	return sum / float64(len(ns)), nil
}

// Min returns the smallest number, or nil for no values.
type Min struct{}

func (Min) Name() string { return "Min" }

// ComputeValues implements core.ValueSetCompute
func (Min) ComputeValues(vs []any) (any, error) { return extreme("Min", vs, -1) }

// Max returns the largest number, or nil for no values.
type Max struct{}

func (Max) Name() string { return "Max" }

// ComputeValues implements core.ValueSetCompute
func (Max) ComputeValues(vs []any) (any, error) { return extreme("Max", vs, 1) }

func extreme(op string, vs []any, sign int) (any, error) {
	ns, ints, err := numbers(op, vs)
	if err != nil || len(ns) == 0 {
		return nil, err
	}
	if ints {
		best := ns[0].(int64)
		for _, n := range ns[1:] {
			if i := n.(int64); (sign < 0 && i < best) || (sign > 0 && i > best) {
				best = i
			}
		}
		return best, nil
	}
	best, _ := value.AsFloat(ns[0])
	for _, n := range ns[1:] {
		if f, _ := value.AsFloat(n); (sign < 0 && f < best) || (sign > 0 && f > best) {
			best = f
		}
	}
	return best, nil
}

// Count counts values.
type Count struct{}

func (Count) Name() string                        { return "Count" }
func (Count) ComputeValues(vs []any) (any, error) { return int64(len(vs)), nil }

// CountValid counts values that are neither null nor a NaN or infinite float.
type CountValid struct{}

func (CountValid) Name() string { return "CountValid" }

// ComputeValues implements core.ValueSetCompute
func (CountValid) ComputeValues(vs []any) (any, error) {
	return countIf(vs, func(v any) bool {
		if f, ok := v.(float64); ok {
			return !math.IsNaN(f) && !math.IsInf(f, 0)
		}
		return v != nil
	}), nil
}

// CountMissing counts null values.
type CountMissing struct{}

func (CountMissing) Name() string { return "CountMissing" }

// ComputeValues implements core.ValueSetCompute
func (CountMissing) ComputeValues(vs []any) (any, error) {
	return countIf(vs, func(v any) bool { return v == nil }), nil
}

// CountNonNull counts non-null values.
type CountNonNull struct{}

func (CountNonNull) Name() string { return "CountNonNull" }

// ComputeValues implements core.ValueSetCompute
func (CountNonNull) ComputeValues(vs []any) (any, error) {
	return countIf(vs, func(v any) bool { return v != nil }), nil
}

// CountDistinct counts distinct values. Values of different kinds are distinct, so 1 and 1.0 count twice.
type CountDistinct struct{}

func (CountDistinct) Name() string { return "CountDistinct" }

// ComputeValues implements core.ValueSetCompute
func (CountDistinct) ComputeValues(vs []any) (any, error) {
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		seen[tupleKey(v)] = struct{}{}
	}
	return int64(len(seen)), nil
}

// CountNumeric counts values with a numeric reading.
type CountNumeric struct{}

func (CountNumeric) Name() string { return "CountNumeric" }

// ComputeValues implements core.ValueSetCompute
func (CountNumeric) ComputeValues(vs []any) (any, error) {
	return countIf(vs, func(v any) bool { return value.ToNumber(v) != nil }), nil
}

func countIf(vs []any, pred func(any) bool) int64 {
	var n int64
	for _, v := range vs {
		if pred(v) {
			n++
		}
	}
	return n
}
