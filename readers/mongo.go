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
	"fmt"
	"io"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// MongoReadMode selects how documents are fetched.
type MongoReadMode string

const (
	ModeFind      MongoReadMode = "find"
	ModeAggregate MongoReadMode = "aggregate"
	ModeWatch     MongoReadMode = "watch"
)

// MongoReaderOptions configures the MongoDB reader
type MongoReaderOptions struct {
	URI        string
	Database   string
	Collection string
	Mode       MongoReadMode
	Filter     bson.D
	Projection bson.D
	Sort       bson.D
	Pipeline   mongo.Pipeline
	Limit      int64
	Skip       int64
	BatchSize  int32
	Timeout    time.Duration
	// Client is used instead of connecting to URI. It is not disconnected on Close.
	Client *mongo.Client
}

// ReaderOptionMongo is a functional option for MongoReaderOptions
type ReaderOptionMongo func(*MongoReaderOptions)

func WithMongoURI(uri string) ReaderOptionMongo {
	return func(o *MongoReaderOptions) { o.URI = uri }
}

func WithMongoCollection(database, collection string) ReaderOptionMongo {
	return func(o *MongoReaderOptions) {
		o.Database = database
		o.Collection = collection
	}
}

func WithMongoFilter(filter bson.D) ReaderOptionMongo {
	return func(o *MongoReaderOptions) { o.Filter = filter }
}

func WithMongoProjection(projection bson.D) ReaderOptionMongo {
	return func(o *MongoReaderOptions) { o.Projection = projection }
}

func WithMongoSort(sort bson.D) ReaderOptionMongo {
	return func(o *MongoReaderOptions) { o.Sort = sort }
}

func WithMongoLimit(limit, skip int64) ReaderOptionMongo {
	return func(o *MongoReaderOptions) {
		o.Limit = limit
		o.Skip = skip
	}
}

func WithMongoBatchSize(size int32) ReaderOptionMongo {
	return func(o *MongoReaderOptions) { o.BatchSize = size }
}

// WithMongoPipeline switches the reader to aggregate mode.
func WithMongoPipeline(pipeline mongo.Pipeline) ReaderOptionMongo {
	return func(o *MongoReaderOptions) {
		o.Pipeline = pipeline
		o.Mode = ModeAggregate
	}
}

// WithMongoWatch switches the reader to a change stream. Each change event is one record.
func WithMongoWatch(pipeline mongo.Pipeline) ReaderOptionMongo {
	return func(o *MongoReaderOptions) {
		o.Pipeline = pipeline
		o.Mode = ModeWatch
	}
}

func WithMongoClient(client *mongo.Client) ReaderOptionMongo {
	return func(o *MongoReaderOptions) { o.Client = client }
}

// mongoCursor is satisfied by both *mongo.Cursor and *mongo.ChangeStream.
type mongoCursor interface {
	Next(ctx context.Context) bool
	Decode(v any) error
	Err() error
	Close(ctx context.Context) error
}

// MongoReader implements DataSource over a collection. Documents keep their field order.
type MongoReader struct {
	client     *mongo.Client
	ownsClient bool
	collection *mongo.Collection
	cursor     mongoCursor
	opts       MongoReaderOptions
	stats      ReaderStats
}

// NewMongoReader creates a new MongoDB reader. The connection is opened on the first Read.
func NewMongoReader(options ...ReaderOptionMongo) (*MongoReader, error) {
	opts := MongoReaderOptions{
		URI:       "mongodb://localhost:27017",
		Mode:      ModeFind,
		BatchSize: 1000,
		Timeout:   30 * time.Second,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Database == "" || opts.Collection == "" {
		return nil, &ReaderError{Source: "mongo", Op: "validate", Err: errors.New("database and collection are required")}
	}
	switch opts.Mode {
	case ModeFind, ModeAggregate, ModeWatch:
	default:
		return nil, &ReaderError{Source: "mongo", Op: "validate", Err: fmt.Errorf("unknown read mode %q", opts.Mode)}
	}
	return &MongoReader{opts: opts, client: opts.Client, stats: newReaderStats()}, nil
}

// Read implements the core.DataSource interface
func (mr *MongoReader) Read(ctx context.Context) (core.Datum, error) {
	if err := checkContext(ctx, "mongo"); err != nil {
		return nil, err
	}
	start := time.Now()
	if mr.cursor == nil {
		if err := mr.open(ctx); err != nil {
			return nil, err
		}
	}
	if !mr.cursor.Next(ctx) {
		if err := mr.cursor.Err(); err != nil {
			return nil, &ReaderError{Source: "mongo", Op: "next", Err: err}
		}
		return nil, io.EOF
	}
	var doc bson.D
	if err := mr.cursor.Decode(&doc); err != nil {
		return nil, &ReaderError{Source: "mongo", Op: "decode", Err: err}
	}
	d := FromBSON(doc)
	mr.stats.observe(d, start)
	return d, nil
}

// Close implements the core.DataSource interface
func (mr *MongoReader) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mr.opts.Timeout)
	defer cancel()
	var errs []error
	if mr.cursor != nil {
		errs = append(errs, mr.cursor.Close(ctx))
		mr.cursor = nil
	}
	if mr.client != nil && mr.ownsClient {
		errs = append(errs, mr.client.Disconnect(ctx))
		mr.client = nil
	}
	if err := errors.Join(errs...); err != nil {
		return &ReaderError{Source: "mongo", Op: "close", Err: err}
	}
	return nil
}

// Stats returns MongoDB reader statistics
func (mr *MongoReader) Stats() ReaderStats {
	return mr.stats.snapshot()
}

func (mr *MongoReader) open(ctx context.Context) error {
	if mr.client == nil {
		cctx, cancel := context.WithTimeout(ctx, mr.opts.Timeout)
		defer cancel()
		client, err := mongo.Connect(cctx, options.Client().ApplyURI(mr.opts.URI))
		if err != nil {
			return &ReaderError{Source: "mongo", Op: "connect", Err: err}
		}
		if err := client.Ping(cctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return &ReaderError{Source: "mongo", Op: "ping", Err: err}
		}
		mr.client, mr.ownsClient = client, true
	}
	mr.collection = mr.client.Database(mr.opts.Database).Collection(mr.opts.Collection)

	var (
		cur mongoCursor
		err error
	)
	switch mr.opts.Mode {
	case ModeAggregate:
		cur, err = mr.collection.Aggregate(ctx, mr.opts.Pipeline, options.Aggregate().SetBatchSize(mr.opts.BatchSize))
	case ModeWatch:
		pipeline := mr.opts.Pipeline
		if pipeline == nil {
			pipeline = mongo.Pipeline{}
		}
		cur, err = mr.collection.Watch(ctx, pipeline, options.ChangeStream().SetBatchSize(mr.opts.BatchSize))
	default:
		find := options.Find().SetBatchSize(mr.opts.BatchSize)
		if mr.opts.Projection != nil {
			find.SetProjection(mr.opts.Projection)
		}
		if mr.opts.Sort != nil {
			find.SetSort(mr.opts.Sort)
		}
		if mr.opts.Limit > 0 {
			find.SetLimit(mr.opts.Limit)
		}
		if mr.opts.Skip > 0 {
			find.SetSkip(mr.opts.Skip)
		}
		filter := mr.opts.Filter
		if filter == nil {
			filter = bson.D{}
		}
		cur, err = mr.collection.Find(ctx, filter, find)
	}
	if err != nil {
		return &ReaderError{Source: "mongo", Op: string(mr.opts.Mode), Err: err}
	}
	mr.cursor = cur
	return nil
}

// FromBSON converts a document to a record. ObjectIDs become hex strings, dates become UTC times
// and decimals become float64.
func FromBSON(doc bson.D) *value.Map {
	m := value.NewMap(len(doc))
	for _, e := range doc {
		m.Set(e.Key, bsonValue(e.Value))
	}
	return m
}

func bsonValue(v any) any {
	switch t := v.(type) {
	case nil, primitive.Null, primitive.Undefined:
		return nil
	case bson.D:
		return FromBSON(t)
	case bson.M:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := value.NewMap(len(t))
		for _, k := range keys {
			m.Set(k, bsonValue(t[k]))
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = bsonValue(x)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC()
	case primitive.Decimal128:
		if f, ok := value.ToFloat(t.String()); ok {
			return f
		}
		return t.String()
	case primitive.Binary:
		return string(t.Data)
	case primitive.Regex:
		return t.Pattern
	case primitive.JavaScript:
		return string(t)
	case primitive.Symbol:
		return string(t)
	case int32:
		return int64(t)
	default:
		return value.Normalize(v)
	}
}
