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
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/transform"
)

// Package goparsnip composes filters, computes and transforms over semi-structured records and runs
// them as streaming ETL pipelines.
//
// Core Concepts:
//   - Etl and BatchEtl: an extract filter, a list of transforms and a load, persisted as a JSON or
//     YAML document through the codec package.
//   - DataSource and DataSink: record streams (JSON lines, CSV, Parquet, PostgreSQL, MongoDB, NATS).
//   - Pipeline: a streaming runner from one source to one sink, with record transforms, fan-out,
//     filters and optional batch stages.
//   - ErrorStrategy: configurable error handling (fail fast, skip, collect, custom handler).
//
// Example usage:
//
//	etl, err := goparsnip.ParseEtl(doc)
//	if err != nil { log.Fatal(err) }
//	pipeline, err := goparsnip.NewPipeline().
//	    From(jsonReader).
//	    Etl(etl).
//	    To(jsonWriter).
//	    WithErrorStrategy(goparsnip.SkipErrors).
//	    Build()
//	if err != nil { log.Fatal(err) }
//	if err := pipeline.Execute(context.Background()); err != nil { log.Fatal(err) }
//
// Operators are pure and synchronous. The pipeline checks the context between records.

// PipelineBuilder provides a fluent API for constructing pipelines.
// Use NewPipeline() to create a new builder, then chain From, Transform, Filter, To, and configuration methods.
type PipelineBuilder struct {
	pipeline *Pipeline
}

// NewPipeline creates a new PipelineBuilder.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{
		pipeline: &Pipeline{
			stages:   make([]core.MultiDatumTransform, 0),
			filters:  make([]core.DatumFilter, 0),
			strategy: core.FailFast,
			logger:   logging.L(),
			tracer:   otel.Tracer("goparsnip/pipeline"),
		},
	}
}

// From sets the DataSource for the pipeline.
func (pb *PipelineBuilder) From(source core.DataSource) *PipelineBuilder {
	pb.pipeline.source = source
	return pb
}

// Transform adds a record transform. A nil result drops the record.
func (pb *PipelineBuilder) Transform(t core.DatumTransform) *PipelineBuilder {
	pb.pipeline.stages = append(pb.pipeline.stages, transform.Wrap(t))
	return pb
}

// FanOut adds a transform that may turn one record into several.
func (pb *PipelineBuilder) FanOut(t core.MultiDatumTransform) *PipelineBuilder {
	pb.pipeline.stages = append(pb.pipeline.stages, t)
	return pb
}

// Etl adds an Etl as a record transform.
func (pb *PipelineBuilder) Etl(e *Etl) *PipelineBuilder {
	return pb.Transform(e)
}

// Filter adds a record filter, applied after every transform.
func (pb *PipelineBuilder) Filter(f core.DatumFilter) *PipelineBuilder {
	pb.pipeline.filters = append(pb.pipeline.filters, f)
	return pb
}

// Map adds a record transform given as a function.
func (pb *PipelineBuilder) Map(fn func(d core.Datum) (core.Datum, error)) *PipelineBuilder {
	return pb.Transform(core.TransformFunc(fn))
}

// Where adds a record filter given as a function.
func (pb *PipelineBuilder) Where(fn func(d core.Datum) bool) *PipelineBuilder {
	return pb.Filter(core.FilterFunc(fn))
}

// Batch buffers the records that pass the per-record stages and applies t to every size records.
// A size of zero or less collects the whole stream into one batch. BatchEtl and the aggregate
// package's set transforms fit here.
func (pb *PipelineBuilder) Batch(t core.DataSetTransform, size int) *PipelineBuilder {
	pb.pipeline.batches = append(pb.pipeline.batches, t)
	pb.pipeline.batchSize = size
	return pb
}

// To sets the DataSink for the pipeline.
func (pb *PipelineBuilder) To(sink core.DataSink) *PipelineBuilder {
	pb.pipeline.sink = sink
	return pb
}

// WithErrorStrategy sets the error handling strategy for the pipeline.
func (pb *PipelineBuilder) WithErrorStrategy(strategy core.ErrorStrategy) *PipelineBuilder {
	pb.pipeline.strategy = strategy
	return pb
}

// WithErrorHandler sets a custom error handler for the pipeline.
func (pb *PipelineBuilder) WithErrorHandler(handler core.ErrorHandler) *PipelineBuilder {
	pb.pipeline.errorHandler = handler
	return pb
}

// WithLogger sets the logger for run events. The default is the library logger.
func (pb *PipelineBuilder) WithLogger(logger *zap.Logger) *PipelineBuilder {
	if logger != nil {
		pb.pipeline.logger = logger
	}
	return pb
}

// WithTracer sets the tracer for run spans. The default is the global otel tracer.
func (pb *PipelineBuilder) WithTracer(tracer trace.Tracer) *PipelineBuilder {
	if tracer != nil {
		pb.pipeline.tracer = tracer
	}
	return pb
}

// Build validates and constructs the Pipeline from the builder.
//
// Returns the constructed pipeline, or an error if required components are missing.
// With CollectErrors the configured handler is wrapped in a CollectingErrorHandler.
func (pb *PipelineBuilder) Build() (*Pipeline, error) {
	if pb.pipeline.source == nil {
		return nil, fmt.Errorf("pipeline requires a data source")
	}
	if pb.pipeline.sink == nil {
		return nil, fmt.Errorf("pipeline requires a data sink")
	}
	if pb.pipeline.strategy == core.CollectErrors {
		if _, ok := pb.pipeline.errorHandler.(*CollectingErrorHandler); !ok {
			pb.pipeline.errorHandler = NewCollectingErrorHandler(pb.pipeline.errorHandler)
		}
	}
	return pb.pipeline, nil
}

// RunStats summarizes one Execute call.
type RunStats struct {
	RunID    string
	Read     int64
	Written  int64
	Skipped  int64
	Failed   int64
	Duration time.Duration
}

// Pipeline represents a streaming ETL run from one source to one sink.
//
// Use Execute to process all records from the DataSource through transforms and filters, writing to the DataSink.
type Pipeline struct {
	stages       []core.MultiDatumTransform
	filters      []core.DatumFilter
	batches      []core.DataSetTransform
	batchSize    int
	source       core.DataSource
	sink         core.DataSink
	strategy     core.ErrorStrategy
	errorHandler core.ErrorHandler
	logger       *zap.Logger
	tracer       trace.Tracer
	stats        RunStats
}

// Execute runs the pipeline, processing all records from source to sink.
//
// Returns an error if a fatal error occurs or the context is cancelled. The source and sink are
// closed when Execute returns. Error handling is governed by the configured ErrorStrategy and ErrorHandler.
func (p *Pipeline) Execute(ctx context.Context) (err error) {
	p.stats = RunStats{RunID: uuid.NewString()}
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "goparsnip.pipeline.execute",
		trace.WithAttributes(
			attribute.String("run.id", p.stats.RunID),
			attribute.String("error.strategy", p.strategy.String()),
		))
	logger := p.logger.With(zap.String("runID", p.stats.RunID))
	logger.Info("Pipeline started", zap.Int("stages", len(p.stages)), zap.Int("filters", len(p.filters)))

	defer func() {
		if cerr := p.close(); cerr != nil && err == nil {
			err = cerr
		}
		p.stats.Duration = time.Since(start)
		span.SetAttributes(
			attribute.Int64("records.read", p.stats.Read),
			attribute.Int64("records.written", p.stats.Written),
			attribute.Int64("records.skipped", p.stats.Skipped),
			attribute.Int64("records.failed", p.stats.Failed),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("Pipeline failed", zap.Error(err), zap.Duration("duration", p.stats.Duration))
		} else {
			logger.Info("Pipeline finished",
				zap.Int64("read", p.stats.Read),
				zap.Int64("written", p.stats.Written),
				zap.Int64("skipped", p.stats.Skipped),
				zap.Int64("failed", p.stats.Failed),
				zap.Duration("duration", p.stats.Duration))
		}
		span.End()
	}()

	var batch core.DataSet
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := p.source.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if err := p.handleError(ctx, record, err); err != nil {
				return err
			}
			continue
		}
		p.stats.Read++

		// Skip empty records early
		if record == nil || record.Len() == 0 {
			p.stats.Skipped++
			continue
		}

		out, err := p.process(record)
		if err != nil {
			if err := p.handleError(ctx, record, err); err != nil {
				return err
			}
			continue
		}
		if len(out) == 0 {
			p.stats.Skipped++
			continue
		}

		if len(p.batches) > 0 {
			batch = append(batch, out...)
			if p.batchSize > 0 && len(batch) >= p.batchSize {
				if err := p.flushBatch(ctx, batch); err != nil {
					return err
				}
				batch = nil
			}
			continue
		}
		if err := p.write(ctx, out); err != nil {
			return err
		}
	}

	if len(batch) > 0 {
		return p.flushBatch(ctx, batch)
	}
	return nil
}

// Stats returns the counters of the last Execute call.
func (p *Pipeline) Stats() RunStats { return p.stats }

// Errors returns the failures collected under CollectErrors.
func (p *Pipeline) Errors() []RecordError {
	if c, ok := p.errorHandler.(*CollectingErrorHandler); ok {
		return c.Errors()
	}
	return nil
}

// process applies every stage in sequence, then the filters. A record may fan out into several.
func (p *Pipeline) process(record core.Datum) (core.DataSet, error) {
	current := core.DataSet{record}
	for _, stage := range p.stages {
		next := make(core.DataSet, 0, len(current))
		for _, d := range current {
			out, err := stage.TransformAll(d)
			if err != nil {
				return nil, err
			}
			for _, o := range out {
				if o != nil && o.Len() > 0 {
					next = append(next, o)
				}
			}
		}
		if len(next) == 0 {
			return nil, nil
		}
		current = next
	}
	out := current[:0:0]
	for _, d := range current {
		if p.include(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// include applies all configured filters to a record.
func (p *Pipeline) include(d core.Datum) bool {
	for _, f := range p.filters {
		if !f.MatchDatum(d) {
			return false
		}
	}
	return true
}

func (p *Pipeline) flushBatch(ctx context.Context, batch core.DataSet) error {
	set := batch
	for _, t := range p.batches {
		next, err := t.TransformSet(set)
		if err != nil {
			return p.handleError(ctx, nil, fmt.Errorf("batch transform failed: %w", err))
		}
		set = next
	}
	return p.write(ctx, set)
}

func (p *Pipeline) write(ctx context.Context, out core.DataSet) error {
	for _, d := range out {
		if d == nil {
			continue
		}
		if err := p.sink.Write(ctx, d); err != nil {
			if err := p.handleError(ctx, d, err); err != nil {
				return err
			}
			continue
		}
		p.stats.Written++
	}
	return nil
}

func (p *Pipeline) close() error {
	var errs []error
	if p.source != nil {
		if err := p.source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close source: %w", err))
		}
	}
	if p.sink != nil {
		if err := p.sink.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush sink: %w", err))
		}
		if err := p.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close sink: %w", err))
		}
	}
	return errors.Join(errs...)
}

// handleError handles errors according to the pipeline's error strategy and handler.
// Returns an error if processing should stop, or nil to continue.
func (p *Pipeline) handleError(ctx context.Context, record core.Datum, err error) error {
	p.stats.Failed++
	switch p.strategy {
	case core.SkipErrors, core.CollectErrors:
		if p.errorHandler != nil {
			return p.errorHandler.HandleError(ctx, record, err)
		}
		return nil
	default:
		return err
	}
}
