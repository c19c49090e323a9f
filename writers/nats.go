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
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// NATSWriterOptions configures the NATS writer.
type NATSWriterOptions struct {
	URL string
	// SubjectField is a pointer into each record; when set, its value is appended to the
	// base subject, e.g. "events" + "." + "login".
	SubjectField string
	Conn         *nats.Conn // Used instead of dialing URL; not closed on Close
	FlushTimeout time.Duration
}

// WriterOptionNATS is a functional option.
type WriterOptionNATS func(*NATSWriterOptions)

func WithNATSURL(url string) WriterOptionNATS {
	return func(o *NATSWriterOptions) { o.URL = url }
}

func WithNATSSubjectField(ptr string) WriterOptionNATS {
	return func(o *NATSWriterOptions) { o.SubjectField = ptr }
}

func WithNATSConn(nc *nats.Conn) WriterOptionNATS {
	return func(o *NATSWriterOptions) { o.Conn = nc }
}

// NATSWriter implements DataSink by publishing each record as one JSON message.
type NATSWriter struct {
	mu       sync.Mutex
	conn     *nats.Conn
	ownsConn bool
	subject  string
	opts     NATSWriterOptions
	stats    WriterStats
}

// NewNATSWriter publishes to subject.
func NewNATSWriter(subject string, options ...WriterOptionNATS) (*NATSWriter, error) {
	opts := NATSWriterOptions{URL: nats.DefaultURL, FlushTimeout: 5 * time.Second}
	for _, o := range options {
		o(&opts)
	}
	w := &NATSWriter{conn: opts.Conn, subject: subject, opts: opts, stats: newWriterStats()}
	if w.conn == nil {
		nc, err := nats.Connect(opts.URL, nats.Name("goparsnip-writer"))
		if err != nil {
			return nil, &WriterError{Sink: "nats", Op: "connect", Err: err}
		}
		w.conn, w.ownsConn = nc, true
	}
	return w, nil
}

// Subject returns the subject a record is published to.
func (w *NATSWriter) Subject(record core.Datum) string {
	if w.opts.SubjectField == "" {
		return w.subject
	}
	v := pointer.Get(record, w.opts.SubjectField)
	if v == nil {
		return w.subject
	}
	return w.subject + "." + value.String(v)
}

// Write implements the DataSink interface.
func (w *NATSWriter) Write(ctx context.Context, record core.Datum) error {
	data, err := json.Marshal(record)
	if err != nil {
		return &WriterError{Sink: "nats", Op: "marshal", Err: err}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.Publish(w.Subject(record), data); err != nil {
		return &WriterError{Sink: "nats", Op: "publish", Err: err}
	}
	w.stats.observe(record)
	return nil
}

// Flush waits for the server to acknowledge published messages.
func (w *NATSWriter) Flush() error {
	start := time.Now()
	if err := w.conn.FlushTimeout(w.opts.FlushTimeout); err != nil {
		return &WriterError{Sink: "nats", Op: "flush", Err: err}
	}
	w.mu.Lock()
	w.stats.flushed(start)
	w.mu.Unlock()
	return nil
}

// Close implements the DataSink interface.
func (w *NATSWriter) Close() error {
	if !w.ownsConn || w.conn == nil {
		return nil
	}
	err := w.conn.Drain()
	w.conn = nil
	if err != nil {
		return &WriterError{Sink: "nats", Op: "drain", Err: err}
	}
	return nil
}

// Stats returns write statistics.
func (w *NATSWriter) Stats() WriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats.snapshot()
}
