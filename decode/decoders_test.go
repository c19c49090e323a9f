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

package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/registry"
)

// TestStandard_Decode tests the named string decoders
func TestStandard_Decode(t *testing.T) {
	tests := []struct {
		dec  Standard
		in   string
		want any
	}{
		{Null, "x", nil},
		{String, " x ", " x "},
		{Boolean, " TRUE", true},
		{Boolean, "yes", false},
		{Long, " 42 ", int64(42)},
		{Integer, "-7", int64(-7)},
		{Short, "300", int64(300)},
		{Byte, "100", int64(100)},
		{Double, "2.5", 2.5},
		{IPAddress, " 10.0.0.1 ", "10.0.0.1"},
		{HexString, "ff", "0xff"},
		{HexString, "0x1f", "0x1f"},
		{List, " a, b ,c", []any{"a", "b", "c"}},
		{Epoch, "2012-07-16T19:35:06Z", int64(1342467306000)},
	}
	for _, tt := range tests {
		t.Run(string(tt.dec)+"/"+tt.in, func(t *testing.T) {
			got, err := tt.dec.Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestStandard_Errors tests that values decoding to nothing are errors
func TestStandard_Errors(t *testing.T) {
	for _, tt := range []struct {
		dec Standard
		in  string
	}{
		{Long, "x"},
		{Integer, "3000000000"},
		{Byte, "300"},
		{Double, "abc"},
		{DateTime, "not a date"},
	} {
		_, err := tt.dec.Decode(tt.in)
		assert.True(t, core.IsCompute(err), "%s(%q)", tt.dec, tt.in)
	}
}

// TestStandard_Registered tests registration under the Decoder family
func TestStandard_Registered(t *testing.T) {
	names := registry.Names(core.FamilyDecoder)
	for _, s := range Standards {
		assert.Contains(t, names, string(s))
	}
	assert.Contains(t, names, "InstantDecoder")

	s, ok := Of("EPOCH")
	assert.True(t, ok)
	assert.True(t, s.IsTime())
	_, ok = Of("NOPE")
	assert.False(t, ok)
}

// TestInstantDecoder tests pattern-based timestamp parsing
func TestInstantDecoder(t *testing.T) {
	dec, err := NewInstantDecoder("")
	require.NoError(t, err)
	got, err := dec.DecodeTime("2001-11-09T23:12:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2001, 11, 9, 23, 12, 0, 0, time.UTC), got)

	_, err = dec.DecodeTime("")
	assert.Error(t, err)
	_, err = dec.DecodeTime("1/2/3")
	assert.Error(t, err)

	dec2, err := NewInstantDecoder("yyyy-MM-dd'T'HH:mm:ss.SS")
	require.NoError(t, err)
	got, err = dec2.DecodeTime("2017-10-31T16:40:10.13")
	require.NoError(t, err)
	assert.Equal(t, 130000000, got.Nanosecond())
	_, err = dec2.DecodeTime("2017-10-31T16:40:10.132")
	assert.Error(t, err)
	_, err = dec2.DecodeTime("2017-10-31T16:40:10.1")
	assert.Error(t, err)

	dec4, err := NewInstantDecoder("yyyy-MM-dd'T'HH:mm:ss.SSS'Z'")
	require.NoError(t, err)
	got, err = dec4.DecodeTime("2017-10-31T16:41:13.196Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 10, 31, 16, 41, 13, 196000000, time.UTC), got)

	dec6, err := NewInstantDecoder("EEE MMM d HH:mm:ss yyyy")
	require.NoError(t, err)
	got, err = dec6.DecodeTime("Mon May 14 10:00:00 2018")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 5, 14, 10, 0, 0, 0, time.UTC), got)

	date, err := NewInstantDecoder("yyyy/MM/dd")
	require.NoError(t, err)
	got, err = date.DecodeTime("2012/01/01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC), got)

	obj := time.Date(2000, 11, 9, 8, 7, 6, 0, time.UTC)
	assert.Equal(t, "2000-11-09T08:07:06", mustDecoder(t, "").Format(obj))
	assert.Equal(t, "11/09/2000", mustDecoder(t, "MM/dd/yyyy").Format(obj))
}

func mustDecoder(t *testing.T, pattern string) *InstantDecoder {
	t.Helper()
	d, err := NewInstantDecoder(pattern)
	require.NoError(t, err)
	return d
}

// TestInstantEpochDecoder tests epoch millisecond output
func TestInstantEpochDecoder(t *testing.T) {
	dec, err := NewInstantEpochDecoder("yyyy-MM-dd HH:mm:ss")
	require.NoError(t, err)
	got, err := dec.Decode("2012-07-16 19:35:06")
	require.NoError(t, err)
	assert.Equal(t, int64(1342467306000), got)
}
