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
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/readers"
	"github.com/aaronlmathis/goparsnip/value"
)

// TestJSONWriter_BasicFunctionality tests output format and key order
func TestJSONWriter_BasicFunctionality(t *testing.T) {
	mock := &mockWriteCloser{}
	writer := NewJSONWriter(mock)
	ctx := context.Background()

	require.NoError(t, writer.Write(ctx, rec("id", 1, "name", "John Doe", "tags", []any{"a", nil})))
	require.NoError(t, writer.Write(ctx, rec("z", rec("y", 1.5, "x", true))))
	require.NoError(t, writer.Close())

	assert.Equal(t, "{\"id\":1,\"name\":\"John Doe\",\"tags\":[\"a\",null]}\n{\"z\":{\"y\":1.5,\"x\":true}}\n", mock.String())
	assert.True(t, mock.IsClosed())
}

// TestJSONWriter_RoundTrip tests that the JSON reader reads back what was written
func TestJSONWriter_RoundTrip(t *testing.T) {
	mock := &mockWriteCloser{}
	writer := NewJSONWriter(mock)
	records := []core.Datum{
		rec("b", 2, "a", rec("c", "x")),
		rec("when", time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC).Format(time.RFC3339)),
	}
	for _, r := range records {
		require.NoError(t, writer.Write(context.Background(), r))
	}
	require.NoError(t, writer.Close())

	reader := readers.NewJSONReader(io.NopCloser(strings.NewReader(mock.String())))
	for _, want := range records {
		got, err := reader.Read(context.Background())
		require.NoError(t, err)
		assert.True(t, value.Equal(want, got), "want %s, got %s", want, got)
		assert.Equal(t, want.Keys(), got.Keys())
	}
}

// TestJSONWriter_BatchedWrites tests batching behavior
func TestJSONWriter_BatchedWrites(t *testing.T) {
	mock := &mockWriteCloser{}
	writer := NewJSONWriter(mock, WithJSONBatchSize(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, writer.Write(ctx, rec("id", i, "value", i*10)))
	}
	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	assert.Len(t, lines, 3)

	require.NoError(t, writer.Flush())
	lines = strings.Split(strings.TrimSpace(mock.String()), "\n")
	assert.Len(t, lines, 5)

	stats := writer.Stats()
	assert.Equal(t, int64(5), stats.RecordsWritten)
	assert.Equal(t, int64(2), stats.FlushCount)
}

// TestJSONWriter_FlushOnWrite tests immediate flush behavior
func TestJSONWriter_FlushOnWrite(t *testing.T) {
	mock := &mockWriteCloser{}
	writer := NewJSONWriter(mock, WithJSONBatchSize(100), WithFlushOnWrite(true))
	require.NoError(t, writer.Write(context.Background(), rec("test", "value")))
	assert.Contains(t, mock.String(), `"test":"value"`)
}

// TestJSONWriter_NullValueTracking tests null counting
func TestJSONWriter_NullValueTracking(t *testing.T) {
	writer := NewJSONWriter(&mockWriteCloser{})
	ctx := context.Background()
	require.NoError(t, writer.Write(ctx, rec("a", nil, "b", 1)))
	require.NoError(t, writer.Write(ctx, rec("a", nil, "b", nil)))
	stats := writer.Stats()
	assert.Equal(t, int64(2), stats.NullValueCounts["a"])
	assert.Equal(t, int64(1), stats.NullValueCounts["b"])
}

// TestJSONWriter_ErrorHandling tests write, close and closed-writer errors
func TestJSONWriter_ErrorHandling(t *testing.T) {
	t.Run("write_error", func(t *testing.T) {
		mock := &mockWriteCloser{failWrite: true}
		writer := NewJSONWriter(mock)
		err := writer.Write(context.Background(), rec("a", 1))
		var werr *WriterError
		require.ErrorAs(t, err, &werr)
		assert.Equal(t, "json", werr.Sink)
	})

	t.Run("close_error", func(t *testing.T) {
		mock := &mockWriteCloser{failClose: true}
		writer := NewJSONWriter(mock)
		assert.ErrorIs(t, writer.Close(), io.ErrUnexpectedEOF)
	})

	t.Run("write_after_close", func(t *testing.T) {
		writer := NewJSONWriter(&mockWriteCloser{})
		require.NoError(t, writer.Close())
		assert.Error(t, writer.Write(context.Background(), rec("a", 1)))
		assert.NoError(t, writer.Close())
	})
}

// TestJSONWriter_ConcurrentSafety tests parallel writers
func TestJSONWriter_ConcurrentSafety(t *testing.T) {
	mock := &mockWriteCloser{}
	writer := NewJSONWriter(mock, WithJSONBatchSize(4))
	var wg sync.WaitGroup
	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				assert.NoError(t, writer.Write(context.Background(), rec("worker", w, "n", i, "s", fmt.Sprint(i))))
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, writer.Close())
	assert.Len(t, strings.Split(strings.TrimSpace(mock.String()), "\n"), 50)
	assert.Equal(t, int64(50), writer.Stats().RecordsWritten)
}
