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
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// MongoWriterOptions configures the MongoDB writer.
type MongoWriterOptions struct {
	URI        string
	Database   string
	Collection string
	BatchSize  int
	Ordered    bool // Stop a batch at the first failed insert
	Timeout    time.Duration
	Client     *mongo.Client // Used instead of connecting to URI; not disconnected on Close
}

// WriterOptionMongo is a functional option.
type WriterOptionMongo func(*MongoWriterOptions)

func WithMongoURI(uri string) WriterOptionMongo {
	return func(o *MongoWriterOptions) { o.URI = uri }
}

func WithMongoBatchSize(size int) WriterOptionMongo {
	return func(o *MongoWriterOptions) { o.BatchSize = size }
}

func WithMongoOrdered(ordered bool) WriterOptionMongo {
	return func(o *MongoWriterOptions) { o.Ordered = ordered }
}

func WithMongoClient(client *mongo.Client) WriterOptionMongo {
	return func(o *MongoWriterOptions) { o.Client = client }
}

// MongoWriter implements DataSink for a collection. Records are inserted with InsertMany
// and keep their field order.
type MongoWriter struct {
	mu         sync.Mutex
	client     *mongo.Client
	ownsClient bool
	coll       *mongo.Collection
	opts       MongoWriterOptions
	buffer     []any
	stats      WriterStats
}

// NewMongoWriter connects to the database and collection.
func NewMongoWriter(database, collection string, options ...WriterOptionMongo) (*MongoWriter, error) {
	opts := MongoWriterOptions{
		URI:        "mongodb://localhost:27017",
		Database:   database,
		Collection: collection,
		BatchSize:  500,
		Ordered:    true,
		Timeout:    30 * time.Second,
	}
	for _, o := range options {
		o(&opts)
	}
	if opts.Database == "" || opts.Collection == "" {
		return nil, &WriterError{Sink: "mongo", Op: "validate", Err: errors.New("database and collection are required")}
	}
	w := &MongoWriter{client: opts.Client, opts: opts, stats: newWriterStats()}
	if w.client == nil {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()
		client, err := mongo.Connect(ctx, optionsFor(opts.URI))
		if err != nil {
			return nil, &WriterError{Sink: "mongo", Op: "connect", Err: err}
		}
		w.client, w.ownsClient = client, true
	}
	w.coll = w.client.Database(opts.Database).Collection(opts.Collection)
	return w, nil
}

func optionsFor(uri string) *options.ClientOptions {
	return options.Client().ApplyURI(uri).SetAppName("goparsnip")
}

// Write implements the DataSink interface.
func (w *MongoWriter) Write(ctx context.Context, record core.Datum) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer = append(w.buffer, ToBSON(record))
	w.stats.observe(record)
	if len(w.buffer) >= w.opts.BatchSize {
		return w.flushLocked(ctx)
	}
	return nil
}

// Flush implements the DataSink interface.
func (w *MongoWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.Timeout)
	defer cancel()
	return w.flushLocked(ctx)
}

// Close implements the DataSink interface.
func (w *MongoWriter) Close() error {
	err := w.Flush()
	if w.ownsClient && w.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.Timeout)
		defer cancel()
		err = errors.Join(err, w.client.Disconnect(ctx))
		w.client = nil
	}
	return err
}

// Stats returns write statistics.
func (w *MongoWriter) Stats() WriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats.snapshot()
}

func (w *MongoWriter) flushLocked(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}
	start := time.Now()
	_, err := w.coll.InsertMany(ctx, w.buffer, options.InsertMany().SetOrdered(w.opts.Ordered))
	w.buffer = w.buffer[:0]
	if err != nil {
		return &WriterError{Sink: "mongo", Op: "insert_many", Err: err}
	}
	w.stats.flushed(start)
	return nil
}

// ToBSON converts a record to an ordered document.
func ToBSON(m *value.Map) bson.D {
	doc := make(bson.D, 0, m.Len())
	for k, v := range m.All() {
		doc = append(doc, bson.E{Key: k, Value: bsonValue(v)})
	}
	return doc
}

func bsonValue(v any) any {
	switch t := v.(type) {
	case *value.Map:
		return ToBSON(t)
	case []any:
		out := make(bson.A, len(t))
		for i, x := range t {
			out[i] = bsonValue(x)
		}
		return out
	}
	return v
}
