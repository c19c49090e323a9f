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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// ParquetReaderOptions configures the Parquet reader
// BatchSize: rows per batch
// Columns: optional list of column names to project
type ParquetReaderOptions struct {
	BatchSize int64
	Columns   []string
}

// ReaderOptionParquet represents a configuration function
type ReaderOptionParquet func(*ParquetReaderOptions)

func WithParquetBatchSize(size int64) ReaderOptionParquet {
	return func(opts *ParquetReaderOptions) {
		opts.BatchSize = size
	}
}

func WithParquetColumns(columns ...string) ReaderOptionParquet {
	return func(opts *ParquetReaderOptions) {
		opts.Columns = append([]string(nil), columns...)
	}
}

// ParquetStats extends ReaderStats with batch counters.
type ParquetStats struct {
	ReaderStats
	BatchesRead int64
}

// ParquetReader implements DataSource for Parquet files. Columns become fields in schema order;
// struct columns become nested records and list columns become lists.
type ParquetReader struct {
	fileHandle   *os.File
	recordReader pqarrow.RecordReader
	batch        arrow.Record
	batchIdx     int
	schema       *arrow.Schema
	stats        ParquetStats
}

// NewParquetReader opens a Parquet file and prepares an Arrow RecordReader
func NewParquetReader(filename string, options ...ReaderOptionParquet) (*ParquetReader, error) {
	opts := &ParquetReaderOptions{BatchSize: 1000}
	for _, option := range options {
		option(opts)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, &ReaderError{Source: "parquet", Op: "open_file", Err: err}
	}
	p, err := newParquetReader(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

func newParquetReader(f *os.File, opts *ParquetReaderOptions) (*ParquetReader, error) {
	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		return nil, &ReaderError{Source: "parquet", Op: "create_reader", Err: err}
	}
	props := pqarrow.ArrowReadProperties{BatchSize: opts.BatchSize}
	arrowReader, err := pqarrow.NewFileReader(parquetReader, props, memory.NewGoAllocator())
	if err != nil {
		return nil, &ReaderError{Source: "parquet", Op: "create_arrow_reader", Err: err}
	}
	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, &ReaderError{Source: "parquet", Op: "get_schema", Err: err}
	}

	// Prepare column index projection if requested
	var colIndices []int
	for _, name := range opts.Columns {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			return nil, &ReaderError{Source: "parquet", Op: "column_projection", Err: fmt.Errorf("column %q not found in schema", name)}
		}
		colIndices = append(colIndices, idx[0])
	}

	recordReader, err := arrowReader.GetRecordReader(context.Background(), colIndices, nil)
	if err != nil {
		return nil, &ReaderError{Source: "parquet", Op: "create_record_reader", Err: err}
	}
	return &ParquetReader{
		fileHandle:   f,
		recordReader: recordReader,
		schema:       recordReader.Schema(),
		stats:        ParquetStats{ReaderStats: newReaderStats()},
	}, nil
}

// Read reads the next record from the Parquet file, returning a Datum or io.EOF
func (p *ParquetReader) Read(ctx context.Context) (core.Datum, error) {
	if err := checkContext(ctx, "parquet"); err != nil {
		return nil, err
	}
	start := time.Now()

	for p.batch == nil || p.batchIdx >= int(p.batch.NumRows()) {
		if err := p.loadNextBatch(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, &ReaderError{Source: "parquet", Op: "load_batch", Err: err}
		}
	}

	res := value.NewMap(int(p.batch.NumCols()))
	for i, field := range p.batch.Schema().Fields() {
		res.Set(field.Name, arrowValue(p.batch.Column(i), p.batchIdx))
	}
	p.batchIdx++
	p.stats.observe(res, start)
	return res, nil
}

// Close releases resources and closes the underlying file
func (p *ParquetReader) Close() error {
	if p.batch != nil {
		p.batch.Release()
		p.batch = nil
	}
	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.fileHandle != nil {
		err := p.fileHandle.Close()
		p.fileHandle = nil
		return err
	}
	return nil
}

// Schema returns the Arrow schema of the projected columns
func (p *ParquetReader) Schema() *arrow.Schema {
	return p.schema
}

// Stats returns statistics about the Parquet reader's performance
func (p *ParquetReader) Stats() ParquetStats {
	s := p.stats
	s.ReaderStats = p.stats.ReaderStats.snapshot()
	return s
}

func (p *ParquetReader) loadNextBatch() error {
	if p.batch != nil {
		p.batch.Release()
		p.batch = nil
	}
	rec, err := p.recordReader.Read()
	if err != nil {
		return err
	}
	if rec == nil {
		return io.EOF
	}
	// the reader owns rec until its next Read
	rec.Retain()
	p.batch = rec
	p.batchIdx = 0
	p.stats.BatchesRead++
	return nil
}

// arrowValue converts one cell to an engine value.
func arrowValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(i)
	case *array.Int8:
		return int64(arr.Value(i))
	case *array.Int16:
		return int64(arr.Value(i))
	case *array.Int32:
		return int64(arr.Value(i))
	case *array.Int64:
		return arr.Value(i)
	case *array.Uint8:
		return int64(arr.Value(i))
	case *array.Uint16:
		return int64(arr.Value(i))
	case *array.Uint32:
		return int64(arr.Value(i))
	case *array.Uint64:
		return value.Normalize(arr.Value(i))
	case *array.Float32:
		return float64(arr.Value(i))
	case *array.Float64:
		return arr.Value(i)
	case *array.String:
		return arr.Value(i)
	case *array.Binary:
		return string(arr.Value(i))
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		return arr.Value(i).ToTime(unit).UTC()
	case *array.Date32:
		return arr.Value(i).ToTime().UTC()
	case *array.Date64:
		return arr.Value(i).ToTime().UTC()
	case *array.Struct:
		st := arr.DataType().(*arrow.StructType)
		m := value.NewMap(arr.NumField())
		for f := 0; f < arr.NumField(); f++ {
			m.Set(st.Field(f).Name, arrowValue(arr.Field(f), i))
		}
		return m
	case *array.List:
		start, end := arr.ValueOffsets(i)
		values := arr.ListValues()
		out := make([]any, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, arrowValue(values, int(j)))
		}
		return out
	default:
		return value.Normalize(col.GetOneForMarshal(i))
	}
}
