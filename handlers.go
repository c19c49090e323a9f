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
	"context"
	"errors"
	"sync"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// LoggingErrorHandler logs each record failure with zap and lets the pipeline continue.
// A nil logger logs nothing.
func LoggingErrorHandler(logger *zap.Logger) core.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return core.ErrorHandlerFunc(func(ctx context.Context, record core.Datum, err error) error {
		logger.Warn("Record failed",
			zap.Error(err),
			zap.String("record", value.String(record)))
		return nil
	})
}

// SentryErrorHandler reports each record failure to Sentry through hub and lets the pipeline continue.
// A nil hub uses the current hub.
func SentryErrorHandler(hub *sentry.Hub) core.ErrorHandler {
	return core.ErrorHandlerFunc(func(ctx context.Context, record core.Datum, err error) error {
		h := hub
		if h == nil {
			h = sentry.GetHubFromContext(ctx)
		}
		if h == nil {
			h = sentry.CurrentHub()
		}
		h.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("component", "goparsnip")
			if record != nil {
				scope.SetContext("record", sentry.Context{"fields": record.Native()})
			}
			h.CaptureException(err)
		})
		return nil
	})
}

// RecordError pairs a failure with the record being processed.
type RecordError struct {
	Record core.Datum
	Err    error
}

// Error implements the error interface
func (e RecordError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error
func (e RecordError) Unwrap() error { return e.Err }

// CollectingErrorHandler records every failure for later inspection and lets the pipeline continue.
// It is safe for concurrent use.
type CollectingErrorHandler struct {
	mu   sync.Mutex
	errs []RecordError
	next core.ErrorHandler
}

// NewCollectingErrorHandler creates a collector. A non-nil next handler also sees each error, and
// its result decides whether the pipeline stops.
func NewCollectingErrorHandler(next core.ErrorHandler) *CollectingErrorHandler {
	return &CollectingErrorHandler{next: next}
}

// HandleError implements core.ErrorHandler
func (c *CollectingErrorHandler) HandleError(ctx context.Context, record core.Datum, err error) error {
	c.mu.Lock()
	c.errs = append(c.errs, RecordError{Record: record, Err: err})
	c.mu.Unlock()
	if c.next != nil {
		return c.next.HandleError(ctx, record, err)
	}
	return nil
}

// Errors returns a copy of the collected errors.
func (c *CollectingErrorHandler) Errors() []RecordError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RecordError, len(c.errs))
	copy(out, c.errs)
	return out
}

// Err joins the collected errors, or returns nil when there are none.
func (c *CollectingErrorHandler) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	errs := make([]error, len(c.errs))
	for i, e := range c.errs {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Reset discards the collected errors.
func (c *CollectingErrorHandler) Reset() {
	c.mu.Lock()
	c.errs = nil
	c.mu.Unlock()
}
