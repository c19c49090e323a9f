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
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aaronlmathis/goparsnip/aggregate"
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/transform"
)

// Mock source for testing
type sliceSource struct {
	records []core.Datum
	pos     int
	failAt  int
	closed  bool
}

func newSliceSource(records ...core.Datum) *sliceSource {
	return &sliceSource{records: records, failAt: -1}
}

func (s *sliceSource) Read(ctx context.Context) (core.Datum, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	i := s.pos
	s.pos++
	if i == s.failAt {
		return nil, errors.New("read failed")
	}
	return s.records[i], nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

// Mock sink for testing
type sliceSink struct {
	mu      sync.Mutex
	records []core.Datum
	flushed bool
	closed  bool
}

func (s *sliceSink) Write(ctx context.Context, record core.Datum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *sliceSink) Flush() error {
	s.flushed = true
	return nil
}

func (s *sliceSink) Close() error {
	s.closed = true
	return nil
}

func numbers(n int) []core.Datum {
	out := make([]core.Datum, n)
	for i := range out {
		out[i] = rec("n", i, "parity", []string{"even", "odd"}[i%2])
	}
	return out
}

// TestPipeline_Build tests that source and sink are required
func TestPipeline_Build(t *testing.T) {
	_, err := NewPipeline().To(&sliceSink{}).Build()
	assert.Error(t, err)
	_, err = NewPipeline().From(newSliceSource()).Build()
	assert.Error(t, err)

	p, err := NewPipeline().From(newSliceSource()).To(&sliceSink{}).WithErrorStrategy(CollectErrors).Build()
	require.NoError(t, err)
	assert.IsType(t, &CollectingErrorHandler{}, p.errorHandler)
}

// TestPipeline_Execute tests transforms, filters and sink lifecycle
func TestPipeline_Execute(t *testing.T) {
	src := newSliceSource(numbers(6)...)
	sink := &sliceSink{}
	etl, err := ParseEtl([]byte(`{"extract":{"parity":"even"},"load":{"value":{"Field":"n","Multiply":10}}}`))
	require.NoError(t, err)

	zcore, logs := observer.New(zap.InfoLevel)
	p, err := NewPipeline().
		From(src).
		Etl(etl).
		Where(func(d Datum) bool { return d.Value("value") != int64(20) }).
		To(sink).
		WithLogger(zap.New(zcore)).
		WithTracer(noop.NewTracerProvider().Tracer("test")).
		Build()
	require.NoError(t, err)
	require.NoError(t, p.Execute(context.Background()))

	require.Len(t, sink.records, 2)
	assertRecord(t, rec("value", 0), sink.records[0])
	assertRecord(t, rec("value", 40), sink.records[1])
	assert.True(t, src.closed)
	assert.True(t, sink.flushed)
	assert.True(t, sink.closed)

	stats := p.Stats()
	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, int64(6), stats.Read)
	assert.Equal(t, int64(2), stats.Written)
	assert.Equal(t, int64(4), stats.Skipped)
	assert.Equal(t, 1, logs.FilterMessage("Pipeline started").Len())
	assert.Equal(t, 1, logs.FilterMessage("Pipeline finished").Len())
}

// TestPipeline_FanOut tests multi-record transforms
func TestPipeline_FanOut(t *testing.T) {
	sink := &sliceSink{}
	p, err := NewPipeline().
		From(newSliceSource(rec("id", 1, "tags", []any{"a", "b", "c"}))).
		FanOut(transform.NewFlatten("tags")).
		Transform(transform.Retain("tags")).
		To(sink).
		Build()
	require.NoError(t, err)
	require.NoError(t, p.Execute(context.Background()))
	require.Len(t, sink.records, 3)
	assertRecord(t, rec("tags", "c"), sink.records[2])
}

// TestPipeline_ErrorStrategies tests fail fast, skip and collect
func TestPipeline_ErrorStrategies(t *testing.T) {
	failOdd := func(d Datum) (Datum, error) {
		if d.Value("parity") == "odd" {
			return nil, core.Computef("test", "odd record")
		}
		return d, nil
	}

	t.Run("FailFast", func(t *testing.T) {
		sink := &sliceSink{}
		p, err := NewPipeline().From(newSliceSource(numbers(4)...)).Map(failOdd).To(sink).Build()
		require.NoError(t, err)
		err = p.Execute(context.Background())
		assert.True(t, core.IsCompute(err))
		assert.Len(t, sink.records, 1)
		assert.True(t, sink.closed)
	})

	t.Run("SkipErrors", func(t *testing.T) {
		sink := &sliceSink{}
		var handled int
		p, err := NewPipeline().
			From(newSliceSource(numbers(4)...)).
			Map(failOdd).
			To(sink).
			WithErrorStrategy(SkipErrors).
			WithErrorHandler(ErrorHandlerFunc(func(ctx context.Context, record Datum, err error) error {
				handled++
				return nil
			})).
			Build()
		require.NoError(t, err)
		require.NoError(t, p.Execute(context.Background()))
		assert.Len(t, sink.records, 2)
		assert.Equal(t, 2, handled)
		assert.Equal(t, int64(2), p.Stats().Failed)
	})

	t.Run("CollectErrors", func(t *testing.T) {
		src := newSliceSource(numbers(4)...)
		src.failAt = 0
		sink := &sliceSink{}
		p, err := NewPipeline().From(src).Map(failOdd).To(sink).WithErrorStrategy(CollectErrors).Build()
		require.NoError(t, err)
		require.NoError(t, p.Execute(context.Background()))
		assert.Len(t, sink.records, 1)
		errs := p.Errors()
		require.Len(t, errs, 3)
		assert.Nil(t, errs[0].Record)
		assert.Equal(t, int64(3), errs[2].Record.Value("n"))
		assert.True(t, core.IsCompute(errs[1]))
	})

	t.Run("HandlerStops", func(t *testing.T) {
		stop := errors.New("stop")
		p, err := NewPipeline().
			From(newSliceSource(numbers(4)...)).
			Map(failOdd).
			To(&sliceSink{}).
			WithErrorStrategy(SkipErrors).
			WithErrorHandler(ErrorHandlerFunc(func(context.Context, Datum, error) error { return stop })).
			Build()
		require.NoError(t, err)
		assert.ErrorIs(t, p.Execute(context.Background()), stop)
	})
}

// TestPipeline_Batch tests set transforms over buffered records
func TestPipeline_Batch(t *testing.T) {
	count, err := aggregate.NewAggregate([]string{"parity"}, aggregate.Count{}, "", "count")
	require.NoError(t, err)

	sink := &sliceSink{}
	p, err := NewPipeline().
		From(newSliceSource(numbers(5)...)).
		Batch(count, 0).
		To(sink).
		Build()
	require.NoError(t, err)
	require.NoError(t, p.Execute(context.Background()))
	require.Len(t, sink.records, 2)
	assertRecord(t, rec("parity", "even", "count", 3), sink.records[0])
	assertRecord(t, rec("parity", "odd", "count", 2), sink.records[1])

	sink = &sliceSink{}
	p, err = NewPipeline().
		From(newSliceSource(numbers(5)...)).
		Batch(&aggregate.SortByDescending{Fields: []string{"n"}}, 2).
		To(sink).
		Build()
	require.NoError(t, err)
	require.NoError(t, p.Execute(context.Background()))
	require.Len(t, sink.records, 5)
	assert.Equal(t, int64(1), sink.records[0].Value("n"))
	assert.Equal(t, int64(4), sink.records[4].Value("n"))
}

// TestPipeline_ContextCancellation tests that a cancelled context stops the run
func TestPipeline_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &sliceSink{}
	p, err := NewPipeline().From(newSliceSource(numbers(3)...)).To(sink).Build()
	require.NoError(t, err)
	assert.ErrorIs(t, p.Execute(ctx), context.Canceled)
	assert.Empty(t, sink.records)
	assert.True(t, sink.closed)
}

// TestCollectingErrorHandler tests collection, joining and reset
func TestCollectingErrorHandler(t *testing.T) {
	var seen int
	c := NewCollectingErrorHandler(ErrorHandlerFunc(func(context.Context, Datum, error) error {
		seen++
		return nil
	}))
	boom := errors.New("boom")
	require.NoError(t, c.HandleError(context.Background(), rec("a", 1), boom))
	require.NoError(t, c.HandleError(context.Background(), nil, io.EOF))
	assert.Equal(t, 2, seen)
	assert.Len(t, c.Errors(), 2)
	assert.ErrorIs(t, c.Err(), boom)
	assert.ErrorIs(t, c.Err(), io.EOF)
	c.Reset()
	assert.NoError(t, c.Err())

	zcore, logs := observer.New(zap.WarnLevel)
	require.NoError(t, LoggingErrorHandler(zap.New(zcore)).HandleError(context.Background(), rec("a", 1), boom))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Record failed", logs.All()[0].Message)
}
