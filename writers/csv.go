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
	"errors"
	"io"
	"sync"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/pointer"
)

// CSVWriterOptions configures CSV output.
type CSVWriterOptions struct {
	Comma       rune
	UseCRLF     bool
	WriteHeader bool
	// Headers fixes the columns. A header starting with "/" is a pointer into the record.
	// Empty means the keys of the first record, in order.
	Headers   []string
	BatchSize int
}

// WriterOptionCSV is a functional option.
type WriterOptionCSV func(*CSVWriterOptions)

func WithHeaders(headers []string) WriterOptionCSV {
	return func(opts *CSVWriterOptions) {
		opts.Headers = append([]string(nil), headers...)
	}
}

func WithComma(delim rune) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.Comma = delim }
}

func WithWriteHeader(write bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.WriteHeader = write }
}

func WithCSVBatchSize(size int) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.BatchSize = size }
}

func WithUseCRLF(useCRLF bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.UseCRLF = useCRLF }
}

// CSVWriter implements DataSink for CSV output. Nested records and lists are written as JSON.
type CSVWriter struct {
	mu          sync.Mutex
	writer      *csv.Writer
	closer      io.Closer
	options     CSVWriterOptions
	headers     []string
	recordBuf   []core.Datum
	stats       WriterStats
	wroteHeader bool
	errorState  bool
}

// NewCSVWriter creates a new CSV writer with extended options.
func NewCSVWriter(w io.WriteCloser, opts ...WriterOptionCSV) (*CSVWriter, error) {
	options := CSVWriterOptions{Comma: ',', WriteHeader: true}
	for _, opt := range opts {
		opt(&options)
	}
	cw := csv.NewWriter(w)
	cw.Comma = options.Comma
	cw.UseCRLF = options.UseCRLF
	return &CSVWriter{
		writer:  cw,
		closer:  w,
		options: options,
		headers: append([]string(nil), options.Headers...),
		stats:   newWriterStats(),
	}, nil
}

// Write implements the DataSink interface.
func (c *CSVWriter) Write(ctx context.Context, record core.Datum) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errorState {
		return &WriterError{Sink: "csv", Op: "write", Err: errors.New("writer is in error state")}
	}
	if len(c.headers) == 0 {
		c.headers = record.Keys()
	}
	if !c.wroteHeader && c.options.WriteHeader {
		if err := c.writer.Write(c.headers); err != nil {
			c.errorState = true
			return &WriterError{Sink: "csv", Op: "write_header", Err: err}
		}
	}
	c.wroteHeader = true

	c.recordBuf = append(c.recordBuf, record)
	c.stats.observe(record)
	if len(c.recordBuf) >= c.options.BatchSize {
		if err := c.flushBufferLocked(); err != nil {
			c.errorState = true
			return err
		}
	}
	return nil
}

// Flush implements the DataSink interface.
func (c *CSVWriter) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.flushBufferLocked(); err != nil {
		return err
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return &WriterError{Sink: "csv", Op: "flush", Err: err}
	}
	return nil
}

// Close implements the DataSink interface.
func (c *CSVWriter) Close() error {
	err := c.Flush()
	if c.closer != nil {
		err = errors.Join(err, c.closer.Close())
	}
	return err
}

// Headers returns the columns being written.
func (c *CSVWriter) Headers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.headers...)
}

// Stats returns write statistics.
func (c *CSVWriter) Stats() WriterStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.snapshot()
}

func (c *CSVWriter) flushBufferLocked() error {
	if len(c.recordBuf) == 0 {
		return nil
	}
	start := time.Now()
	row := make([]string, len(c.headers))
	for _, record := range c.recordBuf {
		for i, key := range c.headers {
			text, err := cellText(pointer.Get(record, key))
			if err != nil {
				return &WriterError{Sink: "csv", Op: "format", Err: err}
			}
			row[i] = text
		}
		if err := c.writer.Write(row); err != nil {
			return &WriterError{Sink: "csv", Op: "write_row", Err: err}
		}
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return &WriterError{Sink: "csv", Op: "flush", Err: err}
	}
	c.stats.flushed(start)
	c.recordBuf = c.recordBuf[:0]
	return nil
}
