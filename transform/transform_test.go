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

package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/compute"
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/datum"
	"github.com/aaronlmathis/goparsnip/filter"
	"github.com/aaronlmathis/goparsnip/registry"
	"github.com/aaronlmathis/goparsnip/value"
)

func rec(kv ...any) core.Datum { return value.MapOf(kv...) }

func assertDatum(t *testing.T, want, got core.Datum) {
	t.Helper()
	assert.True(t, value.Equal(want, got), "want %s, got %s", value.String(want), value.String(got))
}

func transform(t *testing.T, tr core.DatumTransform, d core.Datum) core.Datum {
	t.Helper()
	res, err := tr.Transform(d)
	require.NoError(t, err)
	return res
}

// TestFieldEncode tests construction and computation of field encodings
func TestFieldEncode(t *testing.T) {
	_, err := NewFieldEncode(nil, nil)
	assert.True(t, core.IsConstruction(err))

	f := Encode("f", nil)
	assert.Equal(t, "f", f.TargetSingle())
	assert.False(t, f.MultipleTargets())
	assert.Equal(t, &datum.Constant{}, f.From)
	assert.Empty(t, f.Process)

	multi, err := NewFieldEncode([]string{"f1", "f2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "f1", multi.TargetSingle())
	assert.True(t, multi.MultipleTargets())

	as, err := compute.NewAs("String")
	require.NoError(t, err)
	tests := []struct {
		name string
		fe   *FieldEncode
		want any
	}{
		{"constant", Encode("f", nil), nil},
		{"as string", Encode("f", &datum.Field{Field: "x"}, as), "1"},
		{"decode string", Encode("f", &datum.Field{Field: "x"}, &compute.Decode{Decoder: mustDecoder(t, "STRING")}), "1"},
		{"not equal", EncodeBoolean("f", &datum.Field{Field: "x"}, filter.NewNotEqual(5)), true},
		{"equal", EncodeBoolean("f", &datum.Field{Field: "x"}, filter.NewNotEqual(1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fe.ComputeDatum(rec("x", 1))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustDecoder(t *testing.T, name string) core.ValueDecoder {
	t.Helper()
	f, err := registry.Lookup(core.FamilyDecoder, name)
	require.NoError(t, err)
	d, err := f(nil, nil)
	require.NoError(t, err)
	return d.(core.ValueDecoder)
}

// TestFieldEncode_Change tests a Change used as a field computation
func TestFieldEncode_Change(t *testing.T) {
	fe := Encode("f", NewChange("", "x"))
	got, err := fe.ComputeDatum(rec("x", 1))
	require.NoError(t, err)
	assertDatum(t, rec("x", 1), got.(core.Datum))

	change := NewChange("", "x", Transition{Put: rec("change", true)})
	fe = Encode("f", change)
	steps := []struct {
		x    int
		want core.Datum
	}{
		{1, rec("x", 1, "change", true)},
		{1, nil},
		{2, rec("x", 2, "change", true)},
		{2, nil},
		{2, nil},
		{1, rec("x", 1, "change", true)},
	}
	for _, s := range steps {
		got, err := fe.ComputeDatum(rec("x", s.x))
		require.NoError(t, err)
		if s.want == nil {
			assert.Nil(t, got)
			continue
		}
		assertDatum(t, s.want, got.(core.Datum))
	}
}

// TestCreate tests record construction
func TestCreate(t *testing.T) {
	long, err := compute.NewAs("Long")
	require.NoError(t, err)
	str, err := compute.NewAs("String")
	require.NoError(t, err)

	text := Encode("text", datum.NewTemplate("{/a} {/b} and stuff"), str)
	c := NewCreate(text, Encode("start", &datum.Field{Field: "Date"}, long))
	assert.Same(t, text, c.Field("text"))
	assert.Nil(t, c.Field("missing"))

	assertDatum(t, rec("text", "1 two and stuff", "start", nil), transform(t, c, rec("a", 1, "b", "two")))
	assertDatum(t, rec("text", "1 null and stuff", "start", nil), transform(t, c, rec("a", 1)))

	empty := NewCreate()
	in := rec("a", 1)
	assert.Same(t, in, transform(t, empty, in))
}

// TestCreate_Nested tests pointer targets
func TestCreate_Nested(t *testing.T) {
	str := &compute.As{Type: value.TypeString}
	c := NewCreate(
		Encode("text", datum.NewTemplate("{/a} {/b}"), str),
		Encode("/text2/nested", datum.NewTemplate("{/a} {/b}"), str),
		Encode("/text3/nested/more", datum.NewTemplate("{/a} {/b}"), str),
	)
	want := rec("text", "1 2", "text2", rec("nested", "1 2"), "text3", rec("nested", rec("more", "1 2")))
	assertDatum(t, want, transform(t, c, rec("a", 1, "b", 2)))
}

// TestCreate_MultipleTargets tests spreading a list result over several targets
func TestCreate_MultipleTargets(t *testing.T) {
	fe, err := NewFieldEncode([]string{"a", "b", "c"}, &datum.Field{Field: "alpha"}, &compute.OneHot{Values: []any{"a", "b", "c"}})
	require.NoError(t, err)
	c := NewCreate(fe)
	assertDatum(t, rec("a", 1, "b", 0, "c", 0), transform(t, c, rec("alpha", "a")))
	assertDatum(t, rec("a", 0, "b", 1, "c", 0), transform(t, c, rec("alpha", "b")))
	assertDatum(t, rec("a", 0, "b", 0, "c", 0), transform(t, c, rec("alpha", "d")))
	assert.Equal(t, []string{"a", "b", "c"}, c.TargetFields())

	short, err := NewFieldEncode([]string{"x", "y"}, datum.NewConstant([]any{1}))
	require.NoError(t, err)
	assertDatum(t, rec("x", 1, "y", nil), transform(t, NewCreate(short), rec()))
}

// TestCreate_Sum tests a computed sum
func TestCreate_Sum(t *testing.T) {
	c := NewCreate(Encode("sum", datum.NewMathOp(compute.ADD, "a", "b")))
	assertDatum(t, rec("sum", 3), transform(t, c, rec("a", 1, "b", 2)))
}

// TestCreate_FailedField tests that a failing field is omitted
func TestCreate_FailedField(t *testing.T) {
	c := NewCreate(
		Encode("ok", &datum.Field{Field: "a"}),
		Encode("bad", &datum.Field{Field: "a"}, &compute.TargetMultipleFields{Fields: []string{"q"}}),
	)
	got := transform(t, c, rec("a", 1))
	assertDatum(t, rec("ok", 1), got)
	assert.False(t, got.Has("bad"))
}

// TestAugment tests adding created fields to the input
func TestAugment(t *testing.T) {
	a := NewAugment(Encode("c", datum.NewMathOp(compute.ADD, "a", "b")))
	in := rec("a", 1, "b", 2)
	assertDatum(t, rec("a", 1, "b", 2, "c", 3), transform(t, a, in))
	assert.False(t, in.Has("c"))
	assert.Equal(t, "Augment", a.Name())
}

// TestChange tests change monitoring
func TestChange(t *testing.T) {
	plain := NewChange("", "b")
	assert.Equal(t, "x", transform(t, plain, rec("b", "x")).Value("b"))
	assert.Nil(t, transform(t, plain, rec("b", "x")))
	assert.Equal(t, "y", transform(t, plain, rec("b", "y")).Value("b"))

	c := NewChange("", "b",
		Transition{From: "off", To: "on", Put: rec("trigger", "turned on")},
		Transition{From: "on", To: "off", Put: rec("trigger", "turned off")},
	)
	assert.Nil(t, transform(t, c, rec("b", "off")))
	assert.Nil(t, transform(t, c, rec("b", "off")))
	assert.Equal(t, "turned on", transform(t, c, rec("b", "on")).Value("trigger"))
	assert.Equal(t, "turned off", transform(t, c, rec("b", "off")).Value("trigger"))
	assert.Nil(t, transform(t, c, rec("b", "c")))
	assert.Nil(t, transform(t, c, rec("b", "on")))
}

// TestChange_BadPut tests that a put into a scalar is skipped and the rest of the patch applied
func TestChange_BadPut(t *testing.T) {
	c := NewChange("", "state", Transition{Put: rec("/state/flag", true, "changed", true)})
	got, err := c.Transform(rec("state", "on"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "on", got.Value("state"))
	assert.Equal(t, true, got.Value("changed"))
}

// TestChange_GroupBy tests per-group state
func TestChange_GroupBy(t *testing.T) {
	c := NewChange("host", "/state/up", Transition{To: true, Put: rec("/event/kind", "up")})
	assert.Nil(t, transform(t, c, rec("host", "a", "state", rec("up", false))))
	assert.Nil(t, transform(t, c, rec("host", "b", "state", rec("up", false))))

	got := transform(t, c, rec("host", "a", "state", rec("up", true)))
	require.NotNil(t, got)
	assert.Equal(t, rec("kind", "up").String(), value.String(got.Value("event")))

	assert.Nil(t, transform(t, c, rec("host", "a", "state", rec("up", true))))
	assert.NotNil(t, transform(t, c, rec("host", "b", "state", rec("up", true))))

	c.Reset()
	assert.NotNil(t, transform(t, c, rec("host", "a", "state", rec("up", true))))
}

// TestTransition tests wildcard matching
func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		tr        Transition
		last, cur any
		want      bool
	}{
		{"any change", Transition{}, "a", "b", true},
		{"no change", Transition{}, "a", "a", false},
		{"first value", Transition{}, nil, "a", true},
		{"to matches", Transition{To: "on"}, "off", "on", true},
		{"to already", Transition{To: "on"}, "on", "on", false},
		{"from matches", Transition{From: "on"}, "on", "off", true},
		{"from other", Transition{From: "on"}, "x", "off", false},
		{"both", Transition{From: "on", To: "off"}, "on", "off", true},
		{"both wrong", Transition{From: "on", To: "off"}, "x", "off", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tr.Matches(tt.last, tt.cur))
		})
	}
}

// TestFieldTransforms tests retain, remove and flatten fields
func TestFieldTransforms(t *testing.T) {
	in := rec("a", 1, "b", 2)
	assertDatum(t, rec(), transform(t, Retain(), in))
	assertDatum(t, rec("a", 1), transform(t, Retain("a"), in))
	assertDatum(t, rec("a", 1, "b", 2), transform(t, Remove(), in))
	assertDatum(t, rec("b", 2), transform(t, Remove("a"), in))

	nested := rec("key", 1, "key2", rec("a", "123", "b", "456"))
	assertDatum(t, nested, transform(t, FlattenKeys("none"), nested))
	assertDatum(t, rec("key", 1, "key2.a", "123", "key2.b", "456"), transform(t, FlattenKeys("key2"), nested))
	assertDatum(t, rec("key", 1, "key2.a", "123", "key2.b", "456"), transform(t, FlattenKeys("key2", "a"), nested))

	deep := rec("key", 1, "key2", rec("a", rec("r", 5, "b", 456)))
	assertDatum(t, rec("key", 1, "key2.a.r", 5, "key2.a.b", 456), transform(t, FlattenKeys("key2", "a"), deep))
}

// TestSymmetry tests that the swap is its own inverse
func TestSymmetry(t *testing.T) {
	s := NewSymmetry("ip1", "ip2", "port1", "port2")
	in := rec("ip1", "1", "ip2", "2", "port1", "p1", "port2", "p2", "val", "x")
	once := transform(t, s, in)
	assertDatum(t, rec("ip2", "1", "ip1", "2", "port2", "p1", "port1", "p2", "val", "x"), once)
	assertDatum(t, in, transform(t, s, once))
}

// TestSymmetry_MissingField tests that an absent field of a pair stays absent after two swaps
func TestSymmetry_MissingField(t *testing.T) {
	s := NewSymmetry("a", "b")
	in := rec("a", 1)
	once := transform(t, s, in)
	assertDatum(t, rec("b", 1), once)
	assert.False(t, once.Has("a"))
	twice := transform(t, s, once)
	assert.True(t, value.Equal(in, twice))
	assert.False(t, twice.Has("b"))
}

// TestMapping tests conditional puts
func TestMapping(t *testing.T) {
	m := NewMapping(
		MappingRule{When: datum.NewFieldFilter("proto", "tcp"), Put: rec("reliable", true)},
		MappingRule{When: datum.NewFieldFilter().Put("port", filter.NewLt(1024)), Put: rec("/meta/wellKnown", true)},
	)
	assertDatum(t, rec("proto", "tcp", "port", 80, "reliable", true, "meta", rec("wellKnown", true)),
		transform(t, m, rec("proto", "tcp", "port", 80)))
	assertDatum(t, rec("proto", "udp", "port", 5000), transform(t, m, rec("proto", "udp", "port", 5000)))
}

// TestLogDatum tests pass-through
func TestLogDatum(t *testing.T) {
	in := rec("a", 1)
	assert.Same(t, in, transform(t, &LogDatum{Level: "DEBUG"}, in))
}

// TestJSONPatch tests patch application
func TestJSONPatch(t *testing.T) {
	p, err := NewJSONPatch(
		rec("op", "add", "path", "/c", "value", 3),
		rec("op", "remove", "path", "/a"),
		rec("op", "replace", "path", "/n/x", "value", "y"),
	)
	require.NoError(t, err)
	in := rec("a", 1, "b", 2, "n", rec("x", "q"))
	assertDatum(t, rec("b", 2, "c", 3, "n", rec("x", "y")), transform(t, p, in))
	assert.True(t, in.Has("a"))

	_, err = p.Transform(rec("b", 1))
	assert.True(t, core.IsCompute(err))

	_, err = NewJSONPatch(make(chan int))
	assert.True(t, core.IsConstruction(err))
}

// TestFlatten tests collated and cartesian flattening
func TestFlatten(t *testing.T) {
	all := func(t *testing.T, m core.MultiDatumTransform, d core.Datum) []core.Datum {
		t.Helper()
		res, err := m.TransformAll(d)
		require.NoError(t, err)
		return res
	}

	cartesian := &Flatten{Fields: []string{"a", "b"}}
	res := all(t, cartesian, rec("a", 0, "b", 2))
	require.Len(t, res, 1)
	assertDatum(t, rec("a", 0, "b", 2), res[0])

	res = all(t, cartesian, rec("a", []any{0, 1}, "b", 2))
	require.Len(t, res, 2)
	assertDatum(t, rec("a", 0, "b", 2), res[0])
	assertDatum(t, rec("a", 1, "b", 2), res[1])
	assert.Len(t, all(t, cartesian, rec("a", []any{0, 1}, "b", []any{2, 3, 4})), 6)

	renamed := &Flatten{Fields: []string{"a", "b"}, As: []string{"alt"}}
	res = all(t, renamed, rec("a", []any{0, 1}, "b", 2))
	require.Len(t, res, 2)
	assertDatum(t, rec("alt", 0, "b", 2), res[0])
	assertDatum(t, rec("alt", 1, "b", 2), res[1])

	collated := &Flatten{Fields: []string{"a", "b"}, As: []string{"x", "y"}, Collate: true}
	res = all(t, collated, rec("a", []any{0, 1}, "b", 2))
	require.Len(t, res, 2)
	assertDatum(t, rec("x", 0, "y", 2), res[0])
	assertDatum(t, rec("x", 1, "y", nil), res[1])
	assert.Len(t, all(t, collated, rec("a", []any{0, 1}, "b", []any{2, 3, 4})), 3)

	in := rec("a", 1)
	res = all(t, NewFlatten("a"), in)
	require.Len(t, res, 1)
	assert.Same(t, in, res[0])
}

// TestFold tests one record per field
func TestFold(t *testing.T) {
	res, err := NewFold("a", "b").TransformAll(rec("a", 0, "b", 2))
	require.NoError(t, err)
	require.Len(t, res, 2)
	assertDatum(t, rec("a", 0, "b", 2, "key", "a", "value", 0), res[0])
	assertDatum(t, rec("a", 0, "b", 2, "key", "b", "value", 2), res[1])

	res, err = (&Fold{Fields: []string{"a", "b"}, As: []string{"indicator"}}).TransformAll(rec("a", 0, "b", 2))
	require.NoError(t, err)
	assertDatum(t, rec("a", 0, "b", 2, "indicator", "a", "value", 0), res[0])
	assertDatum(t, rec("a", 0, "b", 2, "indicator", "b", "value", 2), res[1])
}

// TestWrap tests adapting single-record transforms
func TestWrap(t *testing.T) {
	w := Wrap(NewChange("", "x"))
	res, err := w.TransformAll(rec("x", 1))
	require.NoError(t, err)
	assert.Len(t, res, 1)

	res, err = w.TransformAll(rec("x", 1))
	require.NoError(t, err)
	assert.Empty(t, res)

	fold := NewFold("a")
	assert.Equal(t, multiAsSingle{fold}, Wrap(multiAsSingle{fold}))
}

type multiAsSingle struct{ *Fold }

func (multiAsSingle) Transform(d core.Datum) (core.Datum, error) { return d, nil }

// TestRegistration tests that every transform is registered
func TestRegistration(t *testing.T) {
	for _, name := range []string{"Create", "Augment", "Change", "Mapping", "JSONPatch", "Symmetry",
		"RetainFields", "RemoveFields", "FlattenFields", "LogDatum"} {
		_, err := registry.Lookup(core.FamilyDatumTransform, name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"Flatten", "Fold"} {
		_, err := registry.Lookup(core.FamilyMultiDatumTransform, name)
		assert.NoError(t, err, name)
	}
}

// TestDecodeSimple tests factories that need no nested decoding
func TestDecodeSimple(t *testing.T) {
	f, err := registry.Lookup(core.FamilyDatumTransform, "Change")
	require.NoError(t, err)
	node, err := f(rec("monitor", "/path/to/field", "whenChange", []any{
		rec("from", "off", "to", "on", "put", rec("trigger", "turned on")),
	}), nil)
	require.NoError(t, err)
	c := node.(*Change)
	assert.Equal(t, "/path/to/field", c.Monitor)
	require.Len(t, c.WhenChange, 1)
	assert.Equal(t, "on", c.WhenChange[0].To)

	payload, err := c.EncodePayload(nil)
	require.NoError(t, err)
	assert.Equal(t, `{monitor=/path/to/field, whenChange=[{from=off, to=on, put={trigger=turned on}}]}`, value.String(payload))

	_, err = f(rec("groupBy", "g"), nil)
	assert.True(t, core.IsDecode(err))

	f, err = registry.Lookup(core.FamilyMultiDatumTransform, "Flatten")
	require.NoError(t, err)
	node, err = f(rec("fields", []any{"a", "b"}, "as", []any{"alt", "balt"}, "collate", false), nil)
	require.NoError(t, err)
	assert.Equal(t, &Flatten{Fields: []string{"a", "b"}, As: []string{"alt", "balt"}}, node)

	payload, err = node.(*Flatten).EncodePayload(nil)
	require.NoError(t, err)
	assert.Equal(t, `{fields=[a, b], as=[alt, balt], collate=false}`, value.String(payload))
}
