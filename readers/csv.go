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
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// CSVReaderOptions configures the CSV reader.
type CSVReaderOptions struct {
	Comma            rune
	Comment          rune
	FieldsPerRecord  int
	LazyQuotes       bool
	TrimLeadingSpace bool
	HasHeaders       bool
	// Decoders convert the cells of named columns. Other columns are inferred as
	// long, double, boolean or string.
	Decoders map[string]core.ValueDecoder
	// Raw keeps every undecoded cell as a string.
	Raw bool
}

// ReaderOptionCSV allows functional customization of CSVReader.
type ReaderOptionCSV func(*CSVReaderOptions)

func WithCSVComma(r rune) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.Comma = r }
}

func WithCSVHasHeaders(hasHeaders bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.HasHeaders = hasHeaders }
}

func WithCSVTrimSpace(trim bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.TrimLeadingSpace = trim }
}

func WithCSVLazyQuotes(lazy bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.LazyQuotes = lazy }
}

// WithCSVDecoder decodes the cells of column with dec, e.g. decode.Standard("DATE_TIME").
func WithCSVDecoder(column string, dec core.ValueDecoder) ReaderOptionCSV {
	return func(o *CSVReaderOptions) {
		if o.Decoders == nil {
			o.Decoders = make(map[string]core.ValueDecoder)
		}
		o.Decoders[column] = dec
	}
}

// WithCSVRaw disables type inference.
func WithCSVRaw(raw bool) ReaderOptionCSV {
	return func(o *CSVReaderOptions) { o.Raw = raw }
}

// CSVReader implements DataSource for CSV files. A header starting with "/" is a pointer, so
// "/name/first" builds a nested record.
type CSVReader struct {
	reader  *csv.Reader
	headers []string
	closer  io.Closer
	stats   ReaderStats
	opts    CSVReaderOptions
}

// NewCSVReader creates a CSVReader with default or overridden options.
func NewCSVReader(r io.ReadCloser, options ...ReaderOptionCSV) (*CSVReader, error) {
	opts := CSVReaderOptions{
		Comma:            ',',
		HasHeaders:       true,
		TrimLeadingSpace: true,
	}
	for _, opt := range options {
		opt(&opts)
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = opts.Comma
	csvReader.Comment = opts.Comment
	csvReader.FieldsPerRecord = opts.FieldsPerRecord
	csvReader.LazyQuotes = opts.LazyQuotes
	csvReader.TrimLeadingSpace = opts.TrimLeadingSpace
	csvReader.ReuseRecord = true

	reader := &CSVReader{
		reader: csvReader,
		closer: r,
		opts:   opts,
		stats:  newReaderStats(),
	}

	// Read headers if applicable
	if opts.HasHeaders {
		headers, err := csvReader.Read()
		if err != nil {
			return nil, &ReaderError{Source: "csv", Op: "read_headers", Err: err}
		}
		reader.headers = append([]string(nil), headers...)
	}

	return reader, nil
}

// Headers returns the column names in file order.
func (c *CSVReader) Headers() []string { return c.headers }

// Read implements the DataSource interface.
func (c *CSVReader) Read(ctx context.Context) (core.Datum, error) {
	if err := checkContext(ctx, "csv"); err != nil {
		return nil, err
	}
	start := time.Now()

	row, err := c.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &ReaderError{Source: "csv", Op: "read_record", Err: err}
	}

	res := value.NewMap(len(row))
	for i, cell := range row {
		key := "col_" + strconv.Itoa(i)
		if i < len(c.headers) {
			key = c.headers[i]
		}
		v, err := c.parseCell(key, cell)
		if err != nil {
			return nil, &ReaderError{Source: "csv", Op: "decode", Err: err}
		}
		if strings.HasPrefix(key, "/") {
			if err := pointer.Put(res, key, v); err != nil {
				return nil, &ReaderError{Source: "csv", Op: "put", Err: err}
			}
			continue
		}
		res.Set(key, v)
	}

	c.stats.observe(res, start)
	return res, nil
}

// Close implements the DataSource interface.
func (c *CSVReader) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// Stats returns CSV reader performance stats.
func (c *CSVReader) Stats() ReaderStats {
	return c.stats.snapshot()
}

// parseCell decodes a cell. Blank cells are null.
func (c *CSVReader) parseCell(column, cell string) (any, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	if dec, ok := c.opts.Decoders[column]; ok {
		return dec.Decode(cell)
	}
	if c.opts.Raw {
		return cell, nil
	}
	return inferValue(cell), nil
}

// inferValue attempts to infer long, double, or bool, falling back to string.
func inferValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
