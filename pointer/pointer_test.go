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

package pointer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

func mustParse(t *testing.T, doc string) *value.Map {
	t.Helper()
	v, err := value.ParseJSON([]byte(doc))
	require.NoError(t, err)
	return v.(*value.Map)
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// TestGet tests lenient pointer reads
func TestGet(t *testing.T) {
	root := mustParse(t, `{"x":1,"a/b":2,"n":{"m":{"k":"v"}},"l":[{"y":3},[4,5]]}`)

	tests := []struct {
		ptr  string
		want any
	}{
		{"x", int64(1)},
		{"/x", int64(1)},
		{" /x ", int64(1)},
		{"/a/b", int64(2)},
		{"a/b", int64(2)},
		{"/n/m/k", "v"},
		{"/n/m", value.MapOf("k", "v")},
		{"/l/0/y", int64(3)},
		{"/l/1/1", int64(5)},
		{"/l/2", nil},
		{"/l/z", nil},
		{"/missing/deep", nil},
		{"/x/deeper", nil},
	}
	for _, tt := range tests {
		t.Run(tt.ptr, func(t *testing.T) {
			assert.Equal(t, tt.want, Get(root, tt.ptr))
		})
	}

	assert.Same(t, root, Get(root, "/"))
	assert.Same(t, root, Get(root, ""))
	assert.Nil(t, Get("scalar", "/x"))
	assert.Nil(t, Get(nil, "/x"))
}

// TestPut tests writes with auto-created intermediates
func TestPut(t *testing.T) {
	root := value.NewMap()
	require.NoError(t, Put(root, "a", int64(1)))
	assert.Equal(t, `{"a":1}`, jsonOf(t, root))

	root = value.NewMap()
	require.NoError(t, Put(root, "/b/c", int64(1)))
	assert.Equal(t, `{"b":{"c":1}}`, jsonOf(t, root))

	require.NoError(t, Put(root, "/b/c", int64(2)))
	require.NoError(t, Put(root, "/b/d/e", "x"))
	assert.Equal(t, `{"b":{"c":2,"d":{"e":"x"}}}`, jsonOf(t, root))

	root = value.NewMap()
	require.NoError(t, Put(root, "x/y", true))
	assert.Equal(t, true, root.Value("x/y"))
}

// TestPut_Lists tests index replacement and append
func TestPut_Lists(t *testing.T) {
	root := mustParse(t, `{"b":[{"x":1}]}`)
	require.NoError(t, Put(root, "/b/0/x", int64(2)))
	assert.Equal(t, `{"b":[{"x":2}]}`, jsonOf(t, root))

	root = mustParse(t, `{"list":[1,2]}`)
	require.NoError(t, Put(root, "/list/-", int64(3)))
	assert.Len(t, root.Value("list"), 3)
	assert.Equal(t, int64(3), Get(root, "/list/2"))

	require.NoError(t, Put(root, "/list/0", "first"))
	assert.Equal(t, "first", Get(root, "/list/0"))

	root = mustParse(t, `{"m":[[1],[2]]}`)
	require.NoError(t, Put(root, "/m/1/-", int64(3)))
	assert.Equal(t, `{"m":[[1],[2,3]]}`, jsonOf(t, root))
}

// TestPut_Errors tests address errors
func TestPut_Errors(t *testing.T) {
	root := mustParse(t, `{"s":"scalar","l":[1,null]}`)

	err := Put(root, "/s/x", int64(1))
	assert.ErrorIs(t, err, ErrInvalidIntermediate)
	assert.True(t, core.IsAddress(err))

	assert.ErrorIs(t, Put(root, "/l/5", int64(1)), ErrInvalidIndex)
	assert.ErrorIs(t, Put(root, "/l/x", int64(1)), ErrInvalidIndex)
	assert.ErrorIs(t, Put(root, "/l/x/y", int64(1)), ErrInvalidIndex)
	assert.ErrorIs(t, Put(root, "/l/1/y", int64(1)), ErrInvalidIntermediate)
	assert.ErrorIs(t, Put(root, "/l/0/y", int64(1)), ErrInvalidIntermediate)
	assert.True(t, core.IsAddress(Put(nil, "/x", int64(1))))
}

// TestPut_RoundTrip tests that a written value reads back
func TestPut_RoundTrip(t *testing.T) {
	for _, ptr := range []string{"a", "/a", "/a/b", "/a/b/c", "/z/y/x/w"} {
		root := value.NewMap()
		require.NoError(t, Put(root, ptr, "v"))
		assert.Equal(t, "v", Get(root, ptr), ptr)
	}
}

// TestPutAll tests patch application in order
func TestPutAll(t *testing.T) {
	root := mustParse(t, `{"a":1}`)
	patch := value.MapOf("/b/c", "x", "a", int64(2), "/b/d", []any{int64(1)})
	require.NoError(t, PutAll(root, patch))
	assert.Equal(t, `{"a":2,"b":{"c":"x","d":[1]}}`, jsonOf(t, root))

	// patch values are copied
	root.Value("b").(*value.Map).Value("d").([]any)[0] = int64(9)
	assert.Equal(t, []any{int64(1)}, patch.Value("/b/d"))
}
