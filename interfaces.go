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

package goparsnip

import (
	"github.com/aaronlmathis/goparsnip/core"
)

// Package goparsnip defines the top-level types for the GoParsnip library.
//
// This file re-exports the record, source, sink and error handling contracts from core so that hosts
// building pipelines need only this package.

// Datum is a single record: an ordered map from field names to values.
type Datum = core.Datum

// DataSet is an ordered collection of records.
type DataSet = core.DataSet

// DataSource defines the interface for data extraction.
// Implementations stream records from a source (e.g., CSV, Parquet, PostgreSQL).
type DataSource = core.DataSource

// DataSink defines the interface for data loading.
// Implementations write records to a destination (e.g., CSV, Parquet, PostgreSQL).
type DataSink = core.DataSink

// ErrorHandler defines how errors are handled during processing.
type ErrorHandler = core.ErrorHandler

// ErrorHandlerFunc is a function adapter for the ErrorHandler interface.
type ErrorHandlerFunc = core.ErrorHandlerFunc

// ErrorStrategy defines how to handle per-record errors in the pipeline.
type ErrorStrategy = core.ErrorStrategy

const (
	// FailFast stops processing on the first error encountered.
	FailFast = core.FailFast
	// SkipErrors continues processing, skipping failed records.
	SkipErrors = core.SkipErrors
	// CollectErrors continues processing, collecting all errors for later inspection.
	CollectErrors = core.CollectErrors
)

// NewDatum builds a Datum from alternating keys and values, e.g. NewDatum("a", 1, "b", "x").
func NewDatum(kv ...any) Datum { return core.NewDatum(kv...) }
