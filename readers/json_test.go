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

package readers

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

func readAll(t *testing.T, src core.DataSource) []core.Datum {
	t.Helper()
	var out []core.Datum
	for {
		d, err := src.Read(context.Background())
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, d)
	}
}

func TestJSONReader(t *testing.T) {
	input := `{"b":1,"a":{"y":2.5,"x":[1,"s",null]}}

{"c":true}
`
	r := NewJSONReader(io.NopCloser(strings.NewReader(input)))
	got := readAll(t, r)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"b", "a"}, got[0].Keys())
	assert.Equal(t, int64(1), got[0].Value("b"))
	nested := got[0].Value("a").(*value.Map)
	assert.Equal(t, []string{"y", "x"}, nested.Keys())
	assert.Equal(t, []any{int64(1), "s", nil}, nested.Value("x"))
	assert.Equal(t, true, got[1].Value("c"))

	stats := r.Stats()
	assert.Equal(t, int64(2), stats.RecordsRead)
	assert.NoError(t, r.Close())
}

func TestJSONReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(error) bool
	}{
		{"malformed", "{\"a\":1}\n{oops}\n", core.IsDecode},
		{"not an object", "{\"a\":1}\n[1,2]\n", func(err error) bool { return err != nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewJSONReader(io.NopCloser(strings.NewReader(tt.input)))
			_, err := r.Read(context.Background())
			require.NoError(t, err)
			_, err = r.Read(context.Background())
			var rerr *ReaderError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, "json", rerr.Source)
			assert.True(t, tt.check(err))
		})
	}
}

func TestJSONReader_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewJSONReader(io.NopCloser(strings.NewReader(`{"a":1}`)))
	_, err := r.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
