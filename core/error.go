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

package core

import (
	"context"
	"fmt"
	"strings"
)

// ErrorHandler receives the per-record failures of a pipeline run. Returning a non-nil error stops
// the run; nil continues with the next record. The record is nil when the source itself failed.
type ErrorHandler interface {
	HandleError(ctx context.Context, record Datum, err error) error
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, record Datum, err error) error

func (f ErrorHandlerFunc) HandleError(ctx context.Context, record Datum, err error) error {
	return f(ctx, record, err)
}

// ErrorStrategy selects what a pipeline does after a record fails.
type ErrorStrategy int

const (
	// FailFast stops processing on the first error encountered.
	FailFast ErrorStrategy = iota
	// SkipErrors continues processing, skipping failed records.
	SkipErrors
	// CollectErrors continues processing, collecting all errors for later inspection.
	CollectErrors
)

var strategyNames = [...]string{"fail_fast", "skip_errors", "collect_errors"}

func (s ErrorStrategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("ErrorStrategy(%d)", int(s))
	}
	return strategyNames[s]
}

// ParseErrorStrategy reads a strategy name. Case, dashes and the short forms "fail", "skip" and
// "collect" are accepted; the empty name is FailFast.
func ParseErrorStrategy(name string) (ErrorStrategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_") {
	case "", "fail", "fail_fast":
		return FailFast, nil
	case "skip", "skip_errors":
		return SkipErrors, nil
	case "collect", "collect_errors":
		return CollectErrors, nil
	}
	return FailFast, Constructionf("ErrorStrategy", "unknown error strategy %q", name)
}

// MarshalText implements encoding.TextMarshaler, so strategies read and write by name in config files.
func (s ErrorStrategy) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(strategyNames) {
		return nil, Constructionf("ErrorStrategy", "unknown error strategy %d", int(s))
	}
	return []byte(strategyNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ErrorStrategy) UnmarshalText(text []byte) error {
	v, err := ParseErrorStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
