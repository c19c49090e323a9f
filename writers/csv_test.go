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

package writers

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/readers"
	"github.com/aaronlmathis/goparsnip/value"
)

func readCSV(t *testing.T, s string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(s)).ReadAll()
	require.NoError(t, err)
	return rows
}

// TestCSVWriter_BasicFunctionality tests headers from the first record
func TestCSVWriter_BasicFunctionality(t *testing.T) {
	mock := &mockWriteCloser{}
	writer, err := NewCSVWriter(mock)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, writer.Write(ctx, rec("name", "Alice", "age", 30, "score", 9.5)))
	require.NoError(t, writer.Write(ctx, rec("age", 25, "name", "Bob", "extra", true)))
	require.NoError(t, writer.Close())

	assert.Equal(t, [][]string{
		{"name", "age", "score"},
		{"Alice", "30", "9.5"},
		{"Bob", "25", ""},
	}, readCSV(t, mock.String()))
	assert.Equal(t, []string{"name", "age", "score"}, writer.Headers())
	assert.True(t, mock.IsClosed())
}

// TestCSVWriter_NestedValues tests pointer headers and JSON cells
func TestCSVWriter_NestedValues(t *testing.T) {
	mock := &mockWriteCloser{}
	writer, err := NewCSVWriter(mock, WithHeaders([]string{"id", "/user/name", "tags", "meta"}))
	require.NoError(t, err)
	r := rec("id", 1, "user", rec("name", "ada"), "tags", []any{"x", 2}, "meta", rec("k", nil))
	require.NoError(t, writer.Write(context.Background(), r))
	require.NoError(t, writer.Close())

	rows := readCSV(t, mock.String())
	assert.Equal(t, []string{"1", "ada", `["x",2]`, `{"k":null}`}, rows[1])

	back, err := readers.NewCSVReader(io.NopCloser(strings.NewReader(mock.String())))
	require.NoError(t, err)
	got, err := back.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, value.Equal(rec("name", "ada"), got.Value("user")))
}

// TestCSVWriter_Options tests delimiter, header suppression and CRLF
func TestCSVWriter_Options(t *testing.T) {
	tests := []struct {
		name    string
		options []WriterOptionCSV
		want    string
	}{
		{"semicolon", []WriterOptionCSV{WithComma(';')}, "a;b\n1;x\n"},
		{"no header", []WriterOptionCSV{WithWriteHeader(false)}, "1,x\n"},
		{"crlf", []WriterOptionCSV{WithUseCRLF(true)}, "a,b\r\n1,x\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockWriteCloser{}
			writer, err := NewCSVWriter(mock, tt.options...)
			require.NoError(t, err)
			require.NoError(t, writer.Write(context.Background(), rec("a", 1, "b", "x")))
			require.NoError(t, writer.Close())
			assert.Equal(t, tt.want, mock.String())
		})
	}
}

// TestCSVWriter_BatchedWrites tests buffering until the batch fills
func TestCSVWriter_BatchedWrites(t *testing.T) {
	mock := &mockWriteCloser{}
	writer, err := NewCSVWriter(mock, WithCSVBatchSize(3))
	require.NoError(t, err)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, writer.Write(ctx, rec("n", i)))
	}
	assert.Len(t, readCSV(t, mock.String()), 4)
	require.NoError(t, writer.Flush())
	assert.Len(t, readCSV(t, mock.String()), 5)

	stats := writer.Stats()
	assert.Equal(t, int64(4), stats.RecordsWritten)
	assert.Equal(t, int64(2), stats.FlushCount)
}

// TestCSVWriter_ErrorHandling tests the error state after a failed write
func TestCSVWriter_ErrorHandling(t *testing.T) {
	mock := &mockWriteCloser{failWrite: true}
	writer, err := NewCSVWriter(mock)
	require.NoError(t, err)
	err = writer.Write(context.Background(), rec("a", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv writer")

	err = writer.Write(context.Background(), rec("a", 2))
	assert.ErrorContains(t, err, "error state")
}
