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
	"io"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// NATSReaderOptions configures the NATS reader
type NATSReaderOptions struct {
	URL         string
	Queue       string        // Queue group; empty subscribes every reader to every message
	MaxMessages int64         // Stop after this many messages (0 = unlimited)
	IdleTimeout time.Duration // Stop when no message arrives for this long (0 = wait forever)
	Conn        *nats.Conn    // Used instead of dialing URL. It is not closed on Close.
}

// ReaderOptionNATS is a functional option for NATSReaderOptions
type ReaderOptionNATS func(*NATSReaderOptions)

func WithNATSURL(url string) ReaderOptionNATS {
	return func(o *NATSReaderOptions) { o.URL = url }
}

func WithNATSQueue(queue string) ReaderOptionNATS {
	return func(o *NATSReaderOptions) { o.Queue = queue }
}

func WithNATSMaxMessages(n int64) ReaderOptionNATS {
	return func(o *NATSReaderOptions) { o.MaxMessages = n }
}

func WithNATSIdleTimeout(d time.Duration) ReaderOptionNATS {
	return func(o *NATSReaderOptions) { o.IdleTimeout = d }
}

func WithNATSConn(nc *nats.Conn) ReaderOptionNATS {
	return func(o *NATSReaderOptions) { o.Conn = nc }
}

// NATSReader implements DataSource over a subject. Every message carries one JSON object.
type NATSReader struct {
	conn     *nats.Conn
	ownsConn bool
	sub      *nats.Subscription
	opts     NATSReaderOptions
	stats    ReaderStats
}

// NewNATSReader subscribes to subject.
func NewNATSReader(subject string, options ...ReaderOptionNATS) (*NATSReader, error) {
	opts := NATSReaderOptions{URL: nats.DefaultURL}
	for _, option := range options {
		option(&opts)
	}
	r := &NATSReader{conn: opts.Conn, opts: opts, stats: newReaderStats()}
	if r.conn == nil {
		nc, err := nats.Connect(opts.URL, nats.Name("goparsnip-reader"))
		if err != nil {
			return nil, &ReaderError{Source: "nats", Op: "connect", Err: err}
		}
		r.conn, r.ownsConn = nc, true
	}
	var err error
	if opts.Queue != "" {
		r.sub, err = r.conn.QueueSubscribeSync(subject, opts.Queue)
	} else {
		r.sub, err = r.conn.SubscribeSync(subject)
	}
	if err != nil {
		r.Close()
		return nil, &ReaderError{Source: "nats", Op: "subscribe", Err: err}
	}
	return r, nil
}

// Read implements the core.DataSource interface. It returns io.EOF once MaxMessages have
// been read or the idle timeout passes.
func (r *NATSReader) Read(ctx context.Context) (core.Datum, error) {
	if r.opts.MaxMessages > 0 && r.stats.RecordsRead >= r.opts.MaxMessages {
		return nil, io.EOF
	}
	start := time.Now()
	wait := ctx
	if r.opts.IdleTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, r.opts.IdleTimeout)
		defer cancel()
	}
	msg, err := r.sub.NextMsgWithContext(wait)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, io.EOF
		}
		if errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionClosed) {
			return nil, io.EOF
		}
		return nil, &ReaderError{Source: "nats", Op: "next_msg", Err: err}
	}
	doc, err := value.ParseJSON(msg.Data)
	if err != nil {
		return nil, &ReaderError{Source: "nats", Op: "decode", Err: core.NewError(core.ErrDecode, "nats", msg.Subject, err)}
	}
	d, err := asDatum("nats", doc)
	if err != nil {
		return nil, err
	}
	r.stats.observe(d, start)
	return d, nil
}

// Close unsubscribes and closes a connection the reader dialed itself.
func (r *NATSReader) Close() error {
	var err error
	if r.sub != nil && r.sub.IsValid() {
		err = r.sub.Unsubscribe()
	}
	if r.ownsConn && r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	if err != nil {
		return &ReaderError{Source: "nats", Op: "unsubscribe", Err: err}
	}
	return nil
}

// Stats returns NATS reader statistics
func (r *NATSReader) Stats() ReaderStats {
	return r.stats.snapshot()
}
