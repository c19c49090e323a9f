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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/compute"
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/filter"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

func rec(kv ...any) core.Datum { return value.MapOf(kv...) }

func computeOf(t *testing.T, c core.DatumCompute, d core.Datum) any {
	t.Helper()
	res, err := c.ComputeDatum(d)
	require.NoError(t, err)
	return res
}

func logicalParams() (*FieldFilter, *FieldFilter) {
	p1 := NewFieldFilter().Put("x", filter.NewGt(10)).Put("y", &filter.Contains{Value: "Test"})
	p2 := NewFieldFilter().Put("x", filter.NewGt(15)).Put("y", &filter.StartsWith{Value: "Mock"})
	return p1, p2
}

// TestFieldFilter tests per-field matching
func TestFieldFilter(t *testing.T) {
	nulls := NewFieldFilter("a", nil)
	assert.False(t, nulls.MatchDatum(rec("a", 1)))
	assert.True(t, nulls.MatchDatum(rec("a", nil)))
	assert.True(t, nulls.MatchDatum(rec()))

	mf := NewFieldFilter().Put("a", filter.NewRange(1, 3))
	assert.True(t, mf.MatchDatum(rec("a", 1, "b", "two")))
	mf.Put("b", &filter.Contains{Value: "t"})
	assert.True(t, mf.MatchDatum(rec("a", 1, "b", "two")))
	mf.Put("c", filter.NewGt("four"))
	assert.False(t, mf.MatchDatum(rec("a", 1, "b", "two")))
	assert.True(t, mf.MatchDatum(rec("a", 1, "b", "two", "c", "seven")))
	assert.Equal(t, []string{"a", "b", "c"}, mf.Fields())

	nested := NewFieldFilter("/b/c", "x")
	assert.True(t, nested.MatchDatum(rec("b", rec("c", "x"))))
	assert.True(t, NewFieldFilter("/b/c", "y").MatchDatum(rec("/b/c", "y", "b", rec("c", "x"))))
}

// TestLogic tests And, Or and Not over field filters
func TestLogic(t *testing.T) {
	p1, p2 := logicalParams()

	and := NewAnd(p1, p2)
	assert.False(t, and.MatchDatum(rec("x", 20)))
	assert.False(t, and.MatchDatum(rec("x", 12, "y", "Mock_Test")))
	assert.False(t, and.MatchDatum(rec("x", 20, "y", "M0ck_Test")))
	assert.True(t, and.MatchDatum(rec("x", 20, "y", "Mock_Test")))

	or := NewOr(p1, p2)
	assert.False(t, or.MatchDatum(rec("x", 20)))
	assert.False(t, or.MatchDatum(rec("x", 6, "y", "Mock_Test")))
	assert.True(t, or.MatchDatum(rec("x", 12, "y", "Ex_Test")))
	assert.True(t, or.MatchDatum(rec("x", 20, "y", "Mock")))

	not := Negate(and)
	assert.False(t, not.MatchDatum(rec("x", 20, "y", "Mock_Test")))
	assert.True(t, not.MatchDatum(rec("x", 20)))
	assert.Same(t, and, Negate(not))

	final := Negate(NewOr(
		Negate(NewAnd(NewFieldFilter("x", filter.NewGt(10)), NewFieldFilter("x", filter.NewLt(15)))),
		Negate(NewAnd(NewFieldFilter("x", filter.NewGt(12)), NewFieldFilter("x", filter.NewLt(14)))),
	))
	assert.True(t, final.MatchDatum(rec("x", 13)))
	assert.False(t, final.MatchDatum(rec("x", 10)))

	assert.True(t, All{}.MatchDatum(rec()))
	assert.False(t, None{}.MatchDatum(rec()))
}

// TestLogic_Flatten tests that nested And and Or filters merge into one level
func TestLogic_Flatten(t *testing.T) {
	a, b, c := All{}, None{}, NewFieldFilter("x", 1)
	assert.Len(t, NewAnd(NewAnd(a, b), c).Filters, 3)
	assert.Len(t, NewOr(a, NewOr(b, c)).Filters, 3)
	assert.Len(t, NewAnd(NewOr(a, b), c).Filters, 2)
}

// TestField tests key and pointer reads
func TestField(t *testing.T) {
	d := rec("a", 1, "b", rec("c", "two"), "l", []any{"x", "y"})
	assert.Equal(t, int64(1), computeOf(t, &Field{Field: "a"}, d))
	assert.Equal(t, "two", computeOf(t, &Field{Field: "/b/c"}, d))
	assert.Equal(t, "y", computeOf(t, &Field{Field: "/l/1"}, d))
	assert.Nil(t, computeOf(t, &Field{Field: "/b/d"}, d))
}

// TestChain tests a record compute followed by value computes
func TestChain(t *testing.T) {
	d := rec("x", 1)
	assert.Nil(t, computeOf(t, NewChain(nil), d))

	as, err := compute.NewAs("String")
	require.NoError(t, err)
	assert.Equal(t, "1", computeOf(t, NewChain(&Field{Field: "x"}, as), d))

	add, err := compute.NewAdd(100)
	require.NoError(t, err)
	assert.Equal(t, int64(101), computeOf(t, NewChain(&Field{Field: "x"}, add), d))
	assert.Equal(t, int64(201), computeOf(t, NewChain(&Field{Field: "x"}, add, add), d))
}

// TestChainItems tests splitting of chain documents
func TestChainItems(t *testing.T) {
	m := value.MapOf("Field", "a", "Add", 100)
	items := ChainItems(m)
	require.Len(t, items, 2)
	assert.Equal(t, value.MapOf("Field", "a"), items[0])
	assert.Equal(t, value.MapOf("Add", 100), items[1])

	single := value.MapOf("Field", "a")
	assert.Equal(t, []any{single}, ChainItems(single))
	assert.Equal(t, []any{"x"}, ChainItems("x"))
	assert.Len(t, ChainItems([]any{single, single}), 2)
}

// TestCondition tests first-match conditional values
func TestCondition(t *testing.T) {
	empty := &Condition{}
	assert.Nil(t, computeOf(t, empty, rec()))
	assert.Nil(t, computeOf(t, empty, rec("x", 1, "a", "yes")))

	c := &Condition{Cases: []When{
		{When: NewFieldFilter("x", filter.NewGte(5)), Value: &Field{Field: "a"}},
		{When: NewFieldFilter("x", filter.NewLt(5)), Value: &Field{Field: "b"}},
	}}
	assert.Nil(t, computeOf(t, c, rec()))
	assert.Equal(t, "yes", computeOf(t, c, rec("x", 10, "a", "yes", "b", "no")))
	assert.Equal(t, "no", computeOf(t, c, rec("x", 1, "a", "yes", "b", "no")))
}

// TestTemplate tests placeholder rendering and pointer lists
func TestTemplate(t *testing.T) {
	tf := NewTemplate("{/a} then {/b/c}")
	assert.Equal(t, "null then null", computeOf(t, tf, rec()))
	assert.Equal(t, "one then null", computeOf(t, tf, rec("a", "one")))
	assert.Equal(t, "one then two", computeOf(t, tf, rec("a", "one", "b", rec("c", "two"))))

	inst := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2000-01-01T00:00:00Z then null", computeOf(t, tf, rec("a", inst)))

	tf2 := NewTemplate("/a;/b")
	assert.Equal(t, "one", computeOf(t, tf2, rec("a", "one")))
	assert.Equal(t, "two", computeOf(t, tf2, rec("b", "two")))
	assert.Equal(t, "one", computeOf(t, tf2, rec("a", "one", "b", "two")))
	assert.Nil(t, computeOf(t, tf2, rec()))

	assert.Equal(t, "{/a", computeOf(t, NewTemplate("{/a"), rec("a", 1)))
	assert.Equal(t, "-", computeOf(t, &Template{Template: "{a}", ForNull: "-"}, rec()))
}

// TestToArray tests record-to-list conversion
func TestToArray(t *testing.T) {
	flat := &ToArray{Flatten: true}
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, computeOf(t, flat, rec("a", []any{1, 2, 3})))
	assert.Equal(t, []any{int64(1), int64(2), []any{int64(3), int64(4)}, int64(5)},
		computeOf(t, flat, rec("a", []any{1, 2, []any{3, 4}}, "b", 5)))
	assert.Equal(t, []any{[]any{int64(1), int64(2)}, int64(5)},
		computeOf(t, &ToArray{}, rec("a", []any{1, 2}, "b", 5)))

	named := &ToArray{Fields: []string{"b", "a"}, KeepFieldNames: true}
	assert.Equal(t, []any{[]any{"b", "a"}, []any{int64(5), int64(1)}}, computeOf(t, named, rec("a", 1, "b", 5)))
}

// TestMathOp tests operations over record fields
func TestMathOp(t *testing.T) {
	tests := []struct {
		name   string
		d      core.Datum
		op     compute.Operate
		fields []string
		want   any
	}{
		{"negate", rec("a", 1, "b", 2), compute.NEGATE, []string{"a", "b"}, int64(-1)},
		{"add", rec("a", 0, "b", 2), compute.ADD, []string{"a", "b"}, int64(2)},
		{"subtract", rec("a", 0, "b", 2), compute.SUBTRACT, []string{"a", "b"}, int64(-2)},
		{"subtract strings", rec("a", 0, "b", "2", "c", "3"), compute.SUBTRACT, []string{"a", "b", "c"}, int64(-5)},
		{"multiply", rec("a", 3, "b", 2), compute.MULTIPLY, []string{"a", "b"}, int64(6)},
		{"divide", rec("a", 0, "b", 2), compute.DIVIDE, []string{"a", "b"}, int64(0)},
		{"divide by zero", rec("a", 2, "b", 0), compute.DIVIDE, []string{"a", "b"}, "invalid"},
		{"min", rec("a", 0, "b", 2), compute.MIN, []string{"a", "b"}, int64(0)},
		{"max", rec("a", 0, "b", 2), compute.MAX, []string{"a", "b"}, int64(2)},
		{"average", rec("a", 0, "b", "2.0"), compute.AVERAGE, []string{"a", "b"}, 1.0},
		{"std dev", rec("a", 0, "b", 2), compute.STD_DEV, []string{"a", "b"}, 1.0},
		{"missing first", rec("a", 2, "b", 0), compute.DIVIDE, []string{"invalid", "a", "b"}, "invalid"},
		{"missing other", rec("a", 0, "b", "2"), compute.SUBTRACT, []string{"invalid", "a", "b", "c"}, "invalid"},
		{"equal", rec("a", 0, "b", 1), compute.EQUAL, []string{"a", "b"}, false},
		{"equal true", rec("a", 0, "b", 0), compute.EQUAL, []string{"a", "b"}, true},
		{"gt", rec("a", 0, "b", 1), compute.GT, []string{"a", "b"}, false},
		{"gt reversed", rec("a", 0, "b", 1), compute.GT, []string{"b", "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMathOp(tt.op, tt.fields...)
			c.IfInvalid = "invalid"
			assert.Equal(t, tt.want, computeOf(t, c, tt.d))
		})
	}
}

// TestMathOp_Dates tests date-preserving operations
func TestMathOp_Dates(t *testing.T) {
	d := rec("a", time.UnixMilli(0), "b", time.UnixMilli(6))
	msOf := func(op compute.Operate) int64 {
		return computeOf(t, NewMathOp(op, "a", "b"), d).(time.Time).UnixMilli()
	}
	assert.Equal(t, int64(0), msOf(compute.MIN))
	assert.Equal(t, int64(6), msOf(compute.MAX))
	assert.Equal(t, int64(3), msOf(compute.AVERAGE))
	assert.Equal(t, int64(-6), computeOf(t, NewMathOp(compute.SUBTRACT, "a", "b"), d))
}

// TestCreateSum tests the canonical record sum
func TestCreateSum(t *testing.T) {
	assert.Equal(t, int64(3), computeOf(t, NewMathOp(compute.ADD, "a", "b"), rec("a", 1, "b", 2)))
}

// TestCalculate tests numeric expressions
func TestCalculate(t *testing.T) {
	assert.Equal(t, 2.0, computeOf(t, NewCalculate("{/a}"), rec("a", 2)))
	assert.Equal(t, 2.0, computeOf(t, NewCalculate("{a}"), rec("a", 2)))
	assert.Nil(t, computeOf(t, NewCalculate("{a}"), rec("a", nil)))
	assert.Nil(t, computeOf(t, NewCalculate("{/a}"), rec("a", true)))

	tf := NewCalculate("{/a} + {/b/c}")
	assert.Nil(t, computeOf(t, tf, rec()))
	assert.Nil(t, computeOf(t, tf, rec("a", 1)))
	assert.Equal(t, 3.0, computeOf(t, tf, rec("a", 1, "b", rec("c", "2"))))

	tf2 := NewCalculate("{/a} + 2")
	assert.Nil(t, computeOf(t, tf2, rec()))
	assert.Equal(t, 3.0, computeOf(t, tf2, rec("a", 1)))
	assert.Equal(t, 3.0, computeOf(t, tf2, rec("a", "100%")))
	assert.Equal(t, 1002.0, computeOf(t, tf2, rec("a", "1,000")))
	assert.Equal(t, 2.0, computeOf(t, tf2, rec("a", "-")))

	tf3 := NewCalculate("{/Cases - last 7 days}/7")
	assert.Nil(t, computeOf(t, tf3, rec()))
	assert.Equal(t, 0.0, computeOf(t, tf3, rec("Cases - last 7 days", 0)))
	assert.Equal(t, 1.0, computeOf(t, tf3, rec("Cases - last 7 days", 7)))

	assert.Nil(t, computeOf(t, NewCalculate("%%--+*not math"), rec()))
	assert.Nil(t, computeOf(t, NewCalculate("{/ not closed"), rec()))
}

// TestCalculateBoolean tests boolean expressions
func TestCalculateBoolean(t *testing.T) {
	assert.Equal(t, true, computeOf(t, NewCalculateBoolean("true"), rec("a", 1)))
	assert.Equal(t, true, computeOf(t, NewCalculateBoolean("true or false"), rec("a", 1)))
	assert.Equal(t, true, computeOf(t, NewCalculateBoolean("{/a}"), rec("a", true)))
	assert.Equal(t, true, computeOf(t, NewCalculateBoolean("{/a} or {/b}"), rec("a", true, "b", false)))
	assert.Equal(t, false, computeOf(t, NewCalculateBoolean("{/a} and {/b}"), rec("a", true, "b", false)))
	assert.Equal(t, true, computeOf(t, NewCalculateBoolean("{/a} and not {/b}"), rec("a", "TRUE", "b", "false")))
	assert.Nil(t, computeOf(t, NewCalculateBoolean("{/a} > 0"), rec("a", true)))
	assert.Nil(t, computeOf(t, NewCalculateBoolean("{/a}"), rec("a", "maybe")))
}

// TestScript tests JavaScript computes
func TestScript(t *testing.T) {
	s, err := NewScript("record.a + record.b.c")
	require.NoError(t, err)
	assert.Equal(t, int64(3), computeOf(t, s, rec("a", 1, "b", rec("c", 2))))

	s, err = NewScript("({total: record.items.length, first: record.items[0]})")
	require.NoError(t, err)
	res := computeOf(t, s, rec("items", []any{"x", "y"}))
	assert.Equal(t, value.MapOf("first", "x", "total", int64(2)), res)

	s, err = NewScript("undefined")
	require.NoError(t, err)
	assert.Nil(t, computeOf(t, s, rec()))

	s, err = NewScript("throw new Error('boom')")
	require.NoError(t, err)
	_, err = s.ComputeDatum(rec())
	assert.True(t, core.IsCompute(err))

	s, err = NewScript("while (true) {}")
	require.NoError(t, err)
	s.Timeout = 20 * time.Millisecond
	_, err = s.ComputeDatum(rec())
	assert.True(t, core.IsCompute(err))

	_, err = NewScript("function (")
	assert.True(t, core.IsConstruction(err))
}

// TestUuid tests random identifiers
func TestUuid(t *testing.T) {
	a := computeOf(t, Uuid{}, rec()).(string)
	b := computeOf(t, Uuid{}, rec()).(string)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

// TestRegistered tests that every record operator resolves by name
func TestRegistered(t *testing.T) {
	for _, name := range []string{"DatumFieldFilter", "All", "None", "And", "Or", "Not"} {
		assert.True(t, registry.Default.Has(core.FamilyDatumFilter, name), name)
	}
	for _, name := range []string{"Field", "Constant", "Chain", "Condition", "Template", "ToArray", "MathOp",
		"Calculate", "CalculateBoolean", "Script", "Uuid"} {
		assert.True(t, registry.Default.Has(core.FamilyDatumCompute, name), name)
	}

	f, err := registry.Lookup(core.FamilyDatumCompute, "MathOp")
	require.NoError(t, err)
	n, err := f(value.MapOf("operator", "multiply", "fields", []any{"a", "b"}), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), computeOf(t, n.(core.DatumCompute), rec("a", 2, "b", 3)))

	_, err = f(value.MapOf("operator", "POW"), nil)
	assert.True(t, core.IsConstruction(err))
}
