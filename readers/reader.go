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

// Package readers provides DataSource implementations that stream records from files, databases,
// object stores and message subjects.
//
// Every reader yields core.Datum values with engine-normalized fields: int64, float64, bool, string,
// time.Time, []any and nested *value.Map.
package readers

import (
	"context"
	"fmt"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// ReaderError wraps structured error information for a reader.
type ReaderError struct {
	Source string
	Op     string
	Err    error
}

func (e *ReaderError) Error() string {
	return fmt.Sprintf("%s reader %s: %v", e.Source, e.Op, e.Err)
}

func (e *ReaderError) Unwrap() error {
	return e.Err
}

// ReaderStats holds statistics about a reader's performance.
type ReaderStats struct {
	RecordsRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

func newReaderStats() ReaderStats {
	return ReaderStats{NullValueCounts: make(map[string]int64)}
}

// observe records one read that started at start.
func (s *ReaderStats) observe(d core.Datum, start time.Time) {
	s.RecordsRead++
	s.LastReadTime = time.Now()
	s.ReadDuration += time.Since(start)
	if d == nil {
		return
	}
	for k, v := range d.All() {
		if v == nil {
			s.NullValueCounts[k]++
		}
	}
}

// snapshot returns a copy that does not share the null counts.
func (s ReaderStats) snapshot() ReaderStats {
	out := s
	out.NullValueCounts = make(map[string]int64, len(s.NullValueCounts))
	for k, v := range s.NullValueCounts {
		out.NullValueCounts[k] = v
	}
	return out
}

// checkContext returns a wrapped context error once ctx is done.
func checkContext(ctx context.Context, source string) error {
	select {
	case <-ctx.Done():
		return &ReaderError{Source: source, Op: "read", Err: ctx.Err()}
	default:
		return nil
	}
}

// asDatum converts a parsed document to a record.
func asDatum(source string, doc any) (core.Datum, error) {
	m, ok := doc.(*value.Map)
	if !ok {
		return nil, &ReaderError{Source: source, Op: "decode", Err: fmt.Errorf("expected an object, got %s", value.KindOf(doc))}
	}
	return m, nil
}
