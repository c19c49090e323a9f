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
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// This file implements a PostgreSQL reader for streaming ETL pipelines. It supports connection
// pooling, server-side cursors fetched in batches, query parameterization, and statistics.
// JSON and JSONB columns are read as nested records.

// PostgresReaderStats holds statistics about the Postgres reader's performance
type PostgresReaderStats struct {
	ReaderStats
	QueryDuration  time.Duration
	ConnectionTime time.Duration
	BatchesFetched int64
}

// PostgresReaderOptions configures the Postgres reader
type PostgresReaderOptions struct {
	DSN             string        // Database connection string
	Query           string        // SQL query to execute
	Params          []any         // Optional query parameters
	BatchSize       int           // Rows per FETCH when UseCursor is set
	ConnMaxLifetime time.Duration // Maximum connection lifetime
	ConnMaxIdleTime time.Duration // Maximum connection idle time
	MaxOpenConns    int           // Maximum open connections
	MaxIdleConns    int           // Maximum idle connections
	QueryTimeout    time.Duration // Connect and query timeout
	UseCursor       bool          // Use server-side cursor for large results
	CursorName      string        // Name for the cursor (if UseCursor is true)
	DB              *sql.DB       // Existing pool; DSN is ignored when set
}

// PostgresReaderOption represents a configuration function for PostgresReaderOptions
type PostgresReaderOption func(*PostgresReaderOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.DSN = dsn
	}
}

// WithPostgresDB reads through an existing connection pool. Close leaves the pool open.
func WithPostgresDB(db *sql.DB) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.DB = db
	}
}

// WithPostgresQuery sets the SQL query and optional parameters.
func WithPostgresQuery(query string, params ...any) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.Query = query
		opts.Params = append([]any(nil), params...)
	}
}

// WithPostgresBatchSize sets the batch size for cursor fetches.
func WithPostgresBatchSize(size int) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.BatchSize = size
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// WithPostgresConnectionTimeout sets connection and idle timeouts.
func WithPostgresConnectionTimeout(lifetime, idleTime time.Duration) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.ConnMaxLifetime = lifetime
		opts.ConnMaxIdleTime = idleTime
	}
}

// WithPostgresQueryTimeout sets the query execution timeout.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.QueryTimeout = timeout
	}
}

// WithPostgresCursor enables or disables server-side cursor usage for large results.
func WithPostgresCursor(useCursor bool, cursorName string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.UseCursor = useCursor
		opts.CursorName = cursorName
	}
}

// PostgresReader implements core.DataSource for PostgreSQL databases.
type PostgresReader struct {
	mu          sync.Mutex
	db          *sql.DB
	ownsDB      bool
	tx          *sql.Tx
	rows        *sql.Rows
	columnNames []string
	columnTypes []*sql.ColumnType
	values      []any
	scanBuffer  []any
	fetchedRows int
	stats       PostgresReaderStats
	opts        PostgresReaderOptions
	finished    bool
}

// NewPostgresReader creates a new PostgreSQL reader with the given options and runs its query.
func NewPostgresReader(options ...PostgresReaderOption) (*PostgresReader, error) {
	opts := PostgresReaderOptions{}
	for _, option := range options {
		option(&opts)
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	db, owns := opts.DB, false
	if db == nil {
		var err error
		db, err = sql.Open("postgres", opts.DSN)
		if err != nil {
			return nil, &ReaderError{Source: "postgres", Op: "connect", Err: err}
		}
		owns = true
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxIdleConns)
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		if owns {
			db.Close()
		}
		return nil, &ReaderError{Source: "postgres", Op: "ping", Err: err}
	}

	p := &PostgresReader{
		db:     db,
		ownsDB: owns,
		opts:   opts,
		stats:  PostgresReaderStats{ReaderStats: newReaderStats(), ConnectionTime: time.Since(start)},
	}
	if err := p.executeQuery(context.Background()); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (opts PostgresReaderOptions) withDefaults() PostgresReaderOptions {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 30 * time.Second
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 5 * time.Minute
	}
	if opts.ConnMaxIdleTime <= 0 {
		opts.ConnMaxIdleTime = time.Minute
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.CursorName == "" {
		opts.CursorName = "goparsnip_cursor"
	}
	return opts
}

func (opts PostgresReaderOptions) validate() error {
	if opts.DSN == "" && opts.DB == nil {
		return &ReaderError{Source: "postgres", Op: "validate", Err: errors.New("dsn is required")}
	}
	if opts.Query == "" {
		return &ReaderError{Source: "postgres", Op: "validate", Err: errors.New("query is required")}
	}
	if opts.UseCursor && !isValidIdentifier(opts.CursorName) {
		return &ReaderError{Source: "postgres", Op: "validate_cursor", Err: fmt.Errorf("invalid cursor name: %s", opts.CursorName)}
	}
	return nil
}

// Read implements the core.DataSource interface. Reads the next row of the query result. Thread-safe.
func (p *PostgresReader) Read(ctx context.Context) (core.Datum, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkContext(ctx, "postgres"); err != nil {
		return nil, err
	}
	if p.db == nil {
		return nil, &ReaderError{Source: "postgres", Op: "read", Err: errors.New("reader is closed")}
	}
	start := time.Now()

	for {
		if p.finished || p.rows == nil {
			return nil, io.EOF
		}
		if p.rows.Next() {
			break
		}
		if err := p.rows.Err(); err != nil {
			return nil, &ReaderError{Source: "postgres", Op: "read", Err: err}
		}
		if err := p.nextBatch(ctx); err != nil {
			return nil, err
		}
	}

	if err := p.rows.Scan(p.scanBuffer...); err != nil {
		return nil, &ReaderError{Source: "postgres", Op: "scan", Err: err}
	}
	p.fetchedRows++

	record := value.NewMap(len(p.columnNames))
	for i, name := range p.columnNames {
		record.Set(name, convertSQLValue(p.values[i], p.columnTypes[i].DatabaseTypeName()))
	}
	p.stats.observe(record, start)
	return record, nil
}

// Close releases all resources held by the PostgreSQL reader
func (p *PostgresReader) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error

	if p.rows != nil {
		if err := p.rows.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing rows: %w", err))
		}
		p.rows = nil
	}
	if p.tx != nil {
		if err := p.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, fmt.Errorf("rolling back transaction: %w", err))
		}
		p.tx = nil
	}
	if p.db != nil && p.ownsDB {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	p.db = nil

	if err := errors.Join(errs...); err != nil {
		return &ReaderError{Source: "postgres", Op: "close", Err: err}
	}
	return nil
}

// Stats returns statistics about the PostgreSQL reader's performance
func (p *PostgresReader) Stats() PostgresReaderStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.ReaderStats = p.stats.ReaderStats.snapshot()
	return s
}

// Schema returns a map of column name to database type name.
func (p *PostgresReader) Schema() map[string]string {
	schema := make(map[string]string, len(p.columnNames))
	for i, name := range p.columnNames {
		if i < len(p.columnTypes) {
			schema[name] = p.columnTypes[i].DatabaseTypeName()
		}
	}
	return schema
}

// executeQuery runs the query, or declares the cursor and fetches its first batch.
func (p *PostgresReader) executeQuery(ctx context.Context) error {
	start := time.Now()
	var err error
	if p.opts.UseCursor {
		p.tx, err = p.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
		if err != nil {
			return &ReaderError{Source: "postgres", Op: "begin_transaction", Err: err}
		}
		declare := fmt.Sprintf("DECLARE %s NO SCROLL CURSOR FOR %s", p.opts.CursorName, p.opts.Query)
		if _, err := p.tx.ExecContext(ctx, declare, p.opts.Params...); err != nil {
			return &ReaderError{Source: "postgres", Op: "declare_cursor", Err: err}
		}
		err = p.fetch(ctx)
	} else {
		p.rows, err = p.db.QueryContext(ctx, p.opts.Query, p.opts.Params...)
	}
	if err != nil {
		return &ReaderError{Source: "postgres", Op: "query", Err: err}
	}
	p.stats.QueryDuration = time.Since(start)

	if p.columnNames, err = p.rows.Columns(); err != nil {
		return &ReaderError{Source: "postgres", Op: "columns", Err: err}
	}
	if p.columnTypes, err = p.rows.ColumnTypes(); err != nil {
		return &ReaderError{Source: "postgres", Op: "column_types", Err: err}
	}
	p.values = make([]any, len(p.columnNames))
	p.scanBuffer = make([]any, len(p.columnNames))
	for i := range p.scanBuffer {
		p.scanBuffer[i] = &p.values[i]
	}
	return nil
}

// nextBatch fetches the next cursor batch. Without a cursor, or after a short batch, the result is finished.
func (p *PostgresReader) nextBatch(ctx context.Context) error {
	if !p.opts.UseCursor || p.fetchedRows < p.opts.BatchSize {
		p.finished = true
		return nil
	}
	if err := p.rows.Close(); err != nil {
		return &ReaderError{Source: "postgres", Op: "close_batch", Err: err}
	}
	if err := p.fetch(ctx); err != nil {
		return &ReaderError{Source: "postgres", Op: "fetch_cursor", Err: err}
	}
	return nil
}

func (p *PostgresReader) fetch(ctx context.Context) error {
	rows, err := p.tx.QueryContext(ctx, fmt.Sprintf("FETCH %d FROM %s", p.opts.BatchSize, p.opts.CursorName))
	if err != nil {
		return err
	}
	p.rows = rows
	p.fetchedRows = 0
	p.stats.BatchesFetched++
	return nil
}

// isValidIdentifier allows only alphanumeric characters and underscores, within the PostgreSQL limit.
func isValidIdentifier(name string) bool {
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return len(name) > 0 && len(name) <= 63
}

// convertSQLValue converts a driver value to an engine value. JSON columns become nested
// records or lists, NUMERIC becomes a double, and BYTEA is kept as text.
func convertSQLValue(v any, dbType string) any {
	b, ok := v.([]byte)
	if !ok {
		return value.Normalize(v)
	}
	switch dbType {
	case "JSON", "JSONB":
		if doc, err := value.ParseJSON(b); err == nil {
			return doc
		}
	case "NUMERIC", "DECIMAL":
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	}
	return string(b)
}
