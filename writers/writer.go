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

// Package writers provides DataSink implementations that write records to files, databases
// and message subjects.
package writers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// WriterError wraps structured error information for a writer.
type WriterError struct {
	Sink string
	Op   string
	Err  error
}

func (e *WriterError) Error() string {
	return fmt.Sprintf("%s writer %s: %v", e.Sink, e.Op, e.Err)
}

func (e *WriterError) Unwrap() error {
	return e.Err
}

// WriterStats holds write performance statistics.
type WriterStats struct {
	RecordsWritten  int64
	FlushCount      int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

func newWriterStats() WriterStats {
	return WriterStats{NullValueCounts: make(map[string]int64)}
}

func (s *WriterStats) observe(d core.Datum) {
	s.RecordsWritten++
	for k, v := range d.All() {
		if v == nil {
			s.NullValueCounts[k]++
		}
	}
}

func (s *WriterStats) flushed(start time.Time) {
	s.FlushCount++
	s.LastFlushTime = time.Now()
	s.FlushDuration += time.Since(start)
}

// snapshot returns a copy that does not share the null counts.
func (s WriterStats) snapshot() WriterStats {
	out := s
	out.NullValueCounts = make(map[string]int64, len(s.NullValueCounts))
	for k, v := range s.NullValueCounts {
		out.NullValueCounts[k] = v
	}
	return out
}

// cellText renders a value for a text column. Nested records and lists are written as JSON
// and null as the empty string.
func cellText(v any) (string, error) {
	switch v.(type) {
	case nil:
		return "", nil
	case *value.Map, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return value.String(v), nil
}
