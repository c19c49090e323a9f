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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
)

// JSONWriterOptions configures JSON lines output.
type JSONWriterOptions struct {
	BatchSize    int  // Records buffered before they are written (0 = write through)
	FlushOnWrite bool // Flush the underlying writer after every record
}

// WriterOptionJSON is a functional option.
type WriterOptionJSON func(*JSONWriterOptions)

func WithJSONBatchSize(size int) WriterOptionJSON {
	return func(o *JSONWriterOptions) { o.BatchSize = size }
}

func WithFlushOnWrite(flush bool) WriterOptionJSON {
	return func(o *JSONWriterOptions) { o.FlushOnWrite = flush }
}

// JSONWriter implements DataSink for JSON lines output. Field order is preserved.
type JSONWriter struct {
	mu      sync.Mutex
	out     *bufio.Writer
	closer  io.Closer
	opts    JSONWriterOptions
	pending [][]byte
	stats   WriterStats
	closed  bool
}

// NewJSONWriter creates a new JSON writer for line-delimited JSON output
func NewJSONWriter(w io.WriteCloser, options ...WriterOptionJSON) *JSONWriter {
	opts := JSONWriterOptions{}
	for _, o := range options {
		o(&opts)
	}
	return &JSONWriter{
		out:    bufio.NewWriter(w),
		closer: w,
		opts:   opts,
		stats:  newWriterStats(),
	}
}

// Write implements the DataSink interface
func (j *JSONWriter) Write(ctx context.Context, record core.Datum) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return &WriterError{Sink: "json", Op: "write", Err: errors.New("writer is closed")}
	}
	data, err := json.Marshal(record)
	if err != nil {
		return &WriterError{Sink: "json", Op: "marshal", Err: err}
	}
	j.pending = append(j.pending, data)
	j.stats.observe(record)
	if j.opts.FlushOnWrite || len(j.pending) >= j.opts.BatchSize {
		return j.flushLocked()
	}
	return nil
}

// Flush implements the DataSink interface
func (j *JSONWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flushLocked()
}

// Close implements the DataSink interface
func (j *JSONWriter) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	err := j.flushLocked()
	if j.closer != nil {
		err = errors.Join(err, j.closer.Close())
	}
	return err
}

// Stats returns write statistics.
func (j *JSONWriter) Stats() WriterStats {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stats.snapshot()
}

func (j *JSONWriter) flushLocked() error {
	start := time.Now()
	for _, line := range j.pending {
		if _, err := j.out.Write(line); err != nil {
			return &WriterError{Sink: "json", Op: "write", Err: err}
		}
		if err := j.out.WriteByte('\n'); err != nil {
			return &WriterError{Sink: "json", Op: "write", Err: err}
		}
	}
	j.pending = j.pending[:0]
	if err := j.out.Flush(); err != nil {
		return &WriterError{Sink: "json", Op: "flush", Err: err}
	}
	j.stats.flushed(start)
	return nil
}
