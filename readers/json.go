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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// JSONReader implements DataSource for JSON lines input. Blank lines are skipped; key order is kept.
type JSONReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	stats   ReaderStats
}

// ReaderOptionJSON allows functional customization of JSONReader.
type ReaderOptionJSON func(*JSONReader)

// WithJSONMaxLineSize raises the longest accepted line, 64 KiB by default.
func WithJSONMaxLineSize(n int) ReaderOptionJSON {
	return func(j *JSONReader) { j.scanner.Buffer(make([]byte, 0, min(n, 64*1024)), n) }
}

// NewJSONReader creates a new JSON reader for line-delimited JSON
func NewJSONReader(r io.ReadCloser, opts ...ReaderOptionJSON) *JSONReader {
	j := &JSONReader{
		scanner: bufio.NewScanner(r),
		closer:  r,
		stats:   newReaderStats(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Read implements the DataSource interface
func (j *JSONReader) Read(ctx context.Context) (core.Datum, error) {
	if err := checkContext(ctx, "json"); err != nil {
		return nil, err
	}
	start := time.Now()
	for j.scanner.Scan() {
		j.line++
		line := bytes.TrimSpace(j.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		doc, err := value.ParseJSON(line)
		if err != nil {
			return nil, &ReaderError{Source: "json", Op: "decode", Err: core.NewError(core.ErrDecode, "json", fmt.Sprintf("line %d", j.line), err)}
		}
		d, err := asDatum("json", doc)
		if err != nil {
			return nil, err
		}
		j.stats.observe(d, start)
		return d, nil
	}
	if err := j.scanner.Err(); err != nil {
		return nil, &ReaderError{Source: "json", Op: "scan", Err: err}
	}
	return nil, io.EOF
}

// Close implements the DataSource interface
func (j *JSONReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// Stats returns JSON reader performance stats.
func (j *JSONReader) Stats() ReaderStats { return j.stats.snapshot() }
