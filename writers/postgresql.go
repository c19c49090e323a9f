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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// PostgresWriterStats holds PostgreSQL write statistics.
type PostgresWriterStats struct {
	WriterStats
	BatchesWritten   int64
	TransactionCount int64
	ConnectionTime   time.Duration
	ConflictCount    int64 // Rows skipped by ON CONFLICT DO NOTHING
}

// ConflictResolution defines how to handle INSERT conflicts in PostgreSQL.
type ConflictResolution int

const (
	// ConflictError returns an error on conflict.
	ConflictError ConflictResolution = iota
	// ConflictIgnore skips conflicting rows (ON CONFLICT DO NOTHING).
	ConflictIgnore
	// ConflictUpdate updates conflicting rows (ON CONFLICT DO UPDATE).
	ConflictUpdate
)

// PostgresWriterOptions configures the PostgreSQL writer.
type PostgresWriterOptions struct {
	DSN                string
	DB                 *sql.DB // Existing pool; not closed by the writer
	TableName          string  // Table, optionally schema-qualified
	Columns            []string
	BatchSize          int
	CreateTable        bool
	TruncateTable      bool
	ConflictResolution ConflictResolution
	ConflictColumns    []string
	UpdateColumns      []string
	TransactionMode    bool
	MaxOpenConns       int
	MaxIdleConns       int
	QueryTimeout       time.Duration
}

// PostgresWriterOption represents a configuration function for PostgresWriterOptions.
type PostgresWriterOption func(*PostgresWriterOptions)

func WithPostgresDSN(dsn string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.DSN = dsn }
}

func WithPostgresDB(db *sql.DB) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.DB = db }
}

func WithTableName(tableName string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.TableName = tableName }
}

func WithColumns(columns []string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.Columns = append([]string(nil), columns...) }
}

func WithPostgresBatchSize(size int) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.BatchSize = size }
}

func WithCreateTable(create bool) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.CreateTable = create }
}

func WithTruncateTable(truncate bool) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.TruncateTable = truncate }
}

func WithConflictResolution(resolution ConflictResolution, conflictCols, updateCols []string) PostgresWriterOption {
	return func(o *PostgresWriterOptions) {
		o.ConflictResolution = resolution
		o.ConflictColumns = conflictCols
		o.UpdateColumns = updateCols
	}
}

func WithTransactionMode(enabled bool) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.TransactionMode = enabled }
}

func WithPostgresQueryTimeout(timeout time.Duration) PostgresWriterOption {
	return func(o *PostgresWriterOptions) { o.QueryTimeout = timeout }
}

// PostgresWriter implements DataSink for a PostgreSQL table. Columns default to the keys of
// the first record; nested records and lists are written as JSON.
type PostgresWriter struct {
	mu          sync.Mutex
	db          *sql.DB
	ownsDB      bool
	options     PostgresWriterOptions
	columns     []string
	recordBuf   []core.Datum
	stats       PostgresWriterStats
	prepared    *sql.Stmt
	initialized bool
	errorState  bool
}

// NewPostgresWriter connects and validates the options. The table is prepared on the first Write.
func NewPostgresWriter(opts ...PostgresWriterOption) (*PostgresWriter, error) {
	options := PostgresWriterOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	options = options.withDefaults()
	if err := options.validate(); err != nil {
		return nil, &WriterError{Sink: "postgres", Op: "validate", Err: err}
	}
	w := &PostgresWriter{
		options: options,
		columns: append([]string(nil), options.Columns...),
		stats:   PostgresWriterStats{WriterStats: newWriterStats()},
	}
	if err := w.connect(); err != nil {
		return nil, &WriterError{Sink: "postgres", Op: "connect", Err: err}
	}
	return w, nil
}

func (opts PostgresWriterOptions) withDefaults() PostgresWriterOptions {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 30 * time.Second
	}
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	return opts
}

func (opts PostgresWriterOptions) validate() error {
	if opts.DSN == "" && opts.DB == nil {
		return errors.New("dsn is required")
	}
	if opts.TableName == "" {
		return errors.New("table name is required")
	}
	if opts.ConflictResolution == ConflictUpdate && len(opts.UpdateColumns) == 0 {
		return errors.New("update columns required for conflict update resolution")
	}
	if opts.ConflictResolution != ConflictError && len(opts.ConflictColumns) == 0 {
		return errors.New("conflict columns required for conflict resolution")
	}
	return nil
}

// Write implements the DataSink interface.
func (w *PostgresWriter) Write(ctx context.Context, record core.Datum) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.errorState {
		return &WriterError{Sink: "postgres", Op: "write", Err: errors.New("writer is in error state")}
	}
	if !w.initialized {
		if err := w.initializeLocked(ctx, record); err != nil {
			w.errorState = true
			return &WriterError{Sink: "postgres", Op: "initialize", Err: err}
		}
	}
	w.recordBuf = append(w.recordBuf, record)
	w.stats.observe(record)
	if len(w.recordBuf) >= w.options.BatchSize {
		if err := w.flushLocked(ctx); err != nil {
			w.errorState = true
			return &WriterError{Sink: "postgres", Op: "flush_batch", Err: err}
		}
	}
	return nil
}

// Flush implements the DataSink interface.
func (w *PostgresWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), w.options.QueryTimeout)
	defer cancel()
	if err := w.flushLocked(ctx); err != nil {
		return &WriterError{Sink: "postgres", Op: "flush", Err: err}
	}
	return nil
}

// Close implements the DataSink interface.
func (w *PostgresWriter) Close() error {
	err := w.Flush()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.prepared != nil {
		err = errors.Join(err, w.prepared.Close())
		w.prepared = nil
	}
	if w.db != nil && w.ownsDB {
		err = errors.Join(err, w.db.Close())
	}
	w.db = nil
	return err
}

// Stats returns a copy of the current write statistics.
func (w *PostgresWriter) Stats() PostgresWriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.WriterStats = w.stats.WriterStats.snapshot()
	return s
}

func (w *PostgresWriter) connect() error {
	start := time.Now()
	if w.options.DB != nil {
		w.db = w.options.DB
		return nil
	}
	db, err := sql.Open("postgres", w.options.DSN)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(w.options.MaxOpenConns)
	db.SetMaxIdleConns(w.options.MaxIdleConns)
	ctx, cancel := context.WithTimeout(context.Background(), w.options.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}
	w.db, w.ownsDB = db, true
	w.stats.ConnectionTime = time.Since(start)
	return nil
}

func (w *PostgresWriter) initializeLocked(ctx context.Context, first core.Datum) error {
	if len(w.columns) == 0 {
		w.columns = first.Keys()
	}
	if w.options.CreateTable {
		if _, err := w.db.ExecContext(ctx, createTableQuery(w.options.TableName, w.columns, first)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	if w.options.TruncateTable {
		if _, err := w.db.ExecContext(ctx, "TRUNCATE TABLE "+quoteTable(w.options.TableName)); err != nil {
			return fmt.Errorf("truncate table: %w", err)
		}
	}
	stmt, err := w.db.PrepareContext(ctx, insertQuery(w.options, w.columns))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	w.prepared = stmt
	w.initialized = true
	return nil
}

func (w *PostgresWriter) flushLocked(ctx context.Context) (err error) {
	if len(w.recordBuf) == 0 {
		return nil
	}
	start := time.Now()
	stmt := w.prepared
	var tx *sql.Tx
	if w.options.TransactionMode {
		if tx, err = w.db.BeginTx(ctx, nil); err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() {
			if err != nil {
				tx.Rollback()
			}
		}()
		stmt = tx.StmtContext(ctx, w.prepared)
		defer stmt.Close()
	}

	values := make([]any, len(w.columns))
	for _, record := range w.recordBuf {
		for i, col := range w.columns {
			if values[i], err = sqlValue(record.Value(col)); err != nil {
				return fmt.Errorf("column %s: %w", col, err)
			}
		}
		result, err := stmt.ExecContext(ctx, values...)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			w.stats.ConflictCount++
		}
	}

	if tx != nil {
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		w.stats.TransactionCount++
	}
	w.stats.BatchesWritten++
	w.stats.flushed(start)
	w.recordBuf = w.recordBuf[:0]
	return nil
}

// quoteTable quotes each part of a possibly schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

func createTableQuery(table string, columns []string, sample core.Datum) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pq.QuoteIdentifier(col) + " " + sqlType(sample.Value(col))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteTable(table), strings.Join(defs, ", "))
}

func insertQuery(opts PostgresWriterOptions, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTable(opts.TableName), quoteAll(columns), strings.Join(placeholders, ", "))
	switch opts.ConflictResolution {
	case ConflictIgnore:
		query += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", quoteAll(opts.ConflictColumns))
	case ConflictUpdate:
		sets := make([]string, len(opts.UpdateColumns))
		for i, col := range opts.UpdateColumns {
			q := pq.QuoteIdentifier(col)
			sets[i] = q + " = EXCLUDED." + q
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", quoteAll(opts.ConflictColumns), strings.Join(sets, ", "))
	}
	return query
}

// sqlType infers a column type from a sample value. Null samples give TEXT.
func sqlType(v any) string {
	switch v.(type) {
	case bool:
		return "BOOLEAN"
	case int64:
		return "BIGINT"
	case float64:
		return "DOUBLE PRECISION"
	case time.Time:
		return "TIMESTAMPTZ"
	case *value.Map, []any:
		return "JSONB"
	default:
		return "TEXT"
	}
}

func sqlValue(v any) (any, error) {
	switch v.(type) {
	case nil, bool, int64, float64, string, time.Time:
		return v, nil
	case *value.Map, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return value.String(v), nil
}
