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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// ParquetWriterOptions configures Parquet output.
type ParquetWriterOptions struct {
	BatchSize    int64                // Records buffered per Arrow record batch
	Compression  compress.Compression // Column compression codec
	FieldOrder   []string             // Columns in order; empty means the keys of the first record
	RowGroupSize int64                // Maximum rows per row group
	Metadata     map[string]string    // Schema metadata
}

// WriterOptionParquet is a functional option.
type WriterOptionParquet func(*ParquetWriterOptions)

func WithParquetBatchSize(size int64) WriterOptionParquet {
	return func(o *ParquetWriterOptions) { o.BatchSize = size }
}

func WithParquetCompression(c compress.Compression) WriterOptionParquet {
	return func(o *ParquetWriterOptions) { o.Compression = c }
}

func WithParquetFieldOrder(fields ...string) WriterOptionParquet {
	return func(o *ParquetWriterOptions) { o.FieldOrder = append([]string(nil), fields...) }
}

func WithParquetRowGroupSize(size int64) WriterOptionParquet {
	return func(o *ParquetWriterOptions) { o.RowGroupSize = size }
}

func WithParquetMetadata(md map[string]string) WriterOptionParquet {
	return func(o *ParquetWriterOptions) { o.Metadata = md }
}

// ParquetWriter implements DataSink for Parquet output. The schema is inferred from the first
// record: booleans, longs, doubles and times map to their Arrow types, and strings, nested
// records and lists are written as text (JSON for the nested values).
type ParquetWriter struct {
	mu      sync.Mutex
	out     io.WriteCloser
	writer  *pqarrow.FileWriter
	builder *array.RecordBuilder
	schema  *arrow.Schema
	opts    ParquetWriterOptions
	buffer  []core.Datum
	stats   ParquetWriterStats
	closed  bool
}

// ParquetWriterStats extends WriterStats with batch counters.
type ParquetWriterStats struct {
	WriterStats
	BatchesWritten int64
}

// NewParquetWriter creates filename and its parent directories.
func NewParquetWriter(filename string, options ...WriterOptionParquet) (*ParquetWriter, error) {
	if dir := filepath.Dir(filename); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &WriterError{Sink: "parquet", Op: "create_directory", Err: err}
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, &WriterError{Sink: "parquet", Op: "open_file", Err: err}
	}
	return NewParquetStreamWriter(f, options...), nil
}

// NewParquetStreamWriter writes Parquet to w, which is closed with the writer.
func NewParquetStreamWriter(w io.WriteCloser, options ...WriterOptionParquet) *ParquetWriter {
	opts := ParquetWriterOptions{BatchSize: 1000, Compression: compress.Codecs.Snappy}
	for _, o := range options {
		o(&opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	return &ParquetWriter{
		out:   w,
		opts:  opts,
		stats: ParquetWriterStats{WriterStats: newWriterStats()},
	}
}

// Write implements the DataSink interface.
func (p *ParquetWriter) Write(ctx context.Context, record core.Datum) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return &WriterError{Sink: "parquet", Op: "write", Err: errors.New("writer is closed")}
	}
	if p.schema == nil {
		if err := p.initSchema(record); err != nil {
			return err
		}
	}
	p.buffer = append(p.buffer, record)
	p.stats.observe(record)
	if int64(len(p.buffer)) >= p.opts.BatchSize {
		return p.flushLocked()
	}
	return nil
}

// Flush implements the DataSink interface.
func (p *ParquetWriter) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked()
}

// Close flushes buffered records and writes the file footer.
func (p *ParquetWriter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.flushLocked()
	if p.builder != nil {
		p.builder.Release()
		p.builder = nil
	}
	if p.writer != nil {
		// closing the file writer also closes out
		if cerr := p.writer.Close(); cerr != nil {
			err = errors.Join(err, &WriterError{Sink: "parquet", Op: "close", Err: cerr})
		}
		p.writer = nil
		return err
	}
	return errors.Join(err, p.out.Close())
}

// Schema returns the inferred schema, or nil before the first record.
func (p *ParquetWriter) Schema() *arrow.Schema {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.schema
}

// Stats returns write statistics.
func (p *ParquetWriter) Stats() ParquetWriterStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.WriterStats = p.stats.WriterStats.snapshot()
	return s
}

func (p *ParquetWriter) initSchema(record core.Datum) error {
	names := p.opts.FieldOrder
	if len(names) == 0 {
		names = record.Keys()
	}
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrowType(record.Value(name)), Nullable: true}
	}
	var md *arrow.Metadata
	if len(p.opts.Metadata) > 0 {
		m := arrow.MetadataFrom(p.opts.Metadata)
		md = &m
	}
	schema := arrow.NewSchema(fields, md)

	props := []parquet.WriterProperty{parquet.WithCompression(p.opts.Compression)}
	if p.opts.RowGroupSize > 0 {
		props = append(props, parquet.WithMaxRowGroupLength(p.opts.RowGroupSize))
	}
	w, err := pqarrow.NewFileWriter(schema, p.out, parquet.NewWriterProperties(props...), pqarrow.DefaultWriterProps())
	if err != nil {
		return &WriterError{Sink: "parquet", Op: "create_writer", Err: err}
	}
	p.schema = schema
	p.writer = w
	p.builder = array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	return nil
}

// arrowType infers a column type from a sample value. Null samples give a text column.
func arrowType(v any) arrow.DataType {
	switch v.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case int64:
		return arrow.PrimitiveTypes.Int64
	case float64:
		return arrow.PrimitiveTypes.Float64
	case time.Time:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	default:
		return arrow.BinaryTypes.String
	}
}

func (p *ParquetWriter) flushLocked() error {
	if len(p.buffer) == 0 || p.writer == nil {
		return nil
	}
	start := time.Now()
	for _, record := range p.buffer {
		for i, field := range p.schema.Fields() {
			if err := appendValue(p.builder.Field(i), record.Value(field.Name)); err != nil {
				return &WriterError{Sink: "parquet", Op: "append", Err: fmt.Errorf("field %s: %w", field.Name, err)}
			}
		}
	}
	rec := p.builder.NewRecord()
	defer rec.Release()
	if err := p.writer.Write(rec); err != nil {
		return &WriterError{Sink: "parquet", Op: "write_batch", Err: err}
	}
	p.buffer = p.buffer[:0]
	p.stats.BatchesWritten++
	p.stats.flushed(start)
	return nil
}

// appendValue appends v, converted to the builder's type. Values that do not convert are null.
func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch b := b.(type) {
	case *array.BooleanBuilder:
		if x, ok := value.ToBool(v); ok {
			b.Append(x)
			return nil
		}
	case *array.Int64Builder:
		if x, ok := value.ToInt(v); ok {
			b.Append(x)
			return nil
		}
	case *array.Float64Builder:
		if x, ok := value.ToFloat(v); ok {
			b.Append(x)
			return nil
		}
	case *array.TimestampBuilder:
		if x, ok := value.ToTime(v); ok {
			b.Append(arrow.Timestamp(x.UnixMicro()))
			return nil
		}
	case *array.StringBuilder:
		text, err := cellText(v)
		if err != nil {
			return err
		}
		b.Append(text)
		return nil
	default:
		return fmt.Errorf("unsupported column type %T", b)
	}
	b.AppendNull()
	return nil
}
