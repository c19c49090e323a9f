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
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/goparsnip/core"
)

// S3API is the subset of the S3 client used by S3Reader.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3ReaderStats holds statistics about the S3 reader's performance
type S3ReaderStats struct {
	ReaderStats
	ObjectsListed  int64    // Total objects matching the filters
	ObjectsRead    int64    // Total objects opened
	CurrentObject  string   // Key being read
	ProcessedFiles []string // Keys fully read
}

// SortOrder defines how objects are ordered for processing
type SortOrder string

const (
	SortByName         SortOrder = "name"
	SortByLastModified SortOrder = "last_modified"
	SortBySize         SortOrder = "size"
	SortNone           SortOrder = "none"
)

// S3ReaderOptions configures the S3 reader behavior
type S3ReaderOptions struct {
	Bucket         string
	Prefix         string
	Suffix         string // Key suffix filter, e.g. ".jsonl"
	Pattern        string // path.Match pattern applied to the key's base name
	Recursive      bool   // Include keys below the prefix's sub-folders
	SortOrder      SortOrder
	Region         string
	Profile        string
	Credentials    aws.Credentials
	EndpointURL    string // For S3-compatible services
	ForcePathStyle bool
	CSVOptions     []ReaderOptionCSV
	Client         S3API
}

// ReaderOptionS3 is a functional option for S3ReaderOptions
type ReaderOptionS3 func(*S3ReaderOptions)

func WithS3Prefix(prefix string) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Prefix = prefix }
}

func WithS3Suffix(suffix string) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Suffix = suffix }
}

func WithS3Pattern(pattern string) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Pattern = pattern }
}

func WithS3Recursive(recursive bool) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Recursive = recursive }
}

func WithS3SortOrder(order SortOrder) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.SortOrder = order }
}

func WithS3Region(region string) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Region = region }
}

func WithS3Profile(profile string) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Profile = profile }
}

func WithS3Credentials(creds aws.Credentials) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Credentials = creds }
}

func WithS3Endpoint(endpoint string, pathStyle bool) ReaderOptionS3 {
	return func(o *S3ReaderOptions) {
		o.EndpointURL = endpoint
		o.ForcePathStyle = pathStyle
	}
}

// WithS3CSVOptions configures the reader used for ".csv" objects.
func WithS3CSVOptions(options ...ReaderOptionCSV) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.CSVOptions = options }
}

func WithS3Client(client S3API) ReaderOptionS3 {
	return func(o *S3ReaderOptions) { o.Client = client }
}

// S3Object describes one listed object.
type S3Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// S3Reader implements DataSource over every matching object in a bucket. Objects ending in
// ".csv" are read as CSV, everything else as JSON lines.
type S3Reader struct {
	client  S3API
	opts    S3ReaderOptions
	objects []S3Object
	listed  bool
	next    int
	current core.DataSource
	stats   S3ReaderStats
}

// NewS3Reader creates an S3 reader for bucket. Objects are listed on the first Read.
func NewS3Reader(bucket string, options ...ReaderOptionS3) (*S3Reader, error) {
	opts := S3ReaderOptions{Bucket: bucket, SortOrder: SortByName}
	for _, option := range options {
		option(&opts)
	}
	if opts.Bucket == "" {
		return nil, &ReaderError{Source: "s3", Op: "validate", Err: errors.New("bucket is required")}
	}
	client := opts.Client
	if client == nil {
		cfg, err := LoadAWSConfig(context.Background(), opts.Region, opts.Profile, opts.Credentials)
		if err != nil {
			return nil, &ReaderError{Source: "s3", Op: "config", Err: err}
		}
		client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if opts.EndpointURL != "" {
				o.BaseEndpoint = aws.String(opts.EndpointURL)
			}
			o.UsePathStyle = opts.ForcePathStyle
		})
	}
	return &S3Reader{
		client: client,
		opts:   opts,
		stats:  S3ReaderStats{ReaderStats: newReaderStats()},
	}, nil
}

// Read implements the core.DataSource interface
func (s *S3Reader) Read(ctx context.Context) (core.Datum, error) {
	if err := checkContext(ctx, "s3"); err != nil {
		return nil, err
	}
	start := time.Now()
	if !s.listed {
		if err := s.listObjects(ctx); err != nil {
			return nil, &ReaderError{Source: "s3", Op: "list_objects", Err: err}
		}
		s.listed = true
	}
	for {
		if s.current == nil {
			if s.next >= len(s.objects) {
				return nil, io.EOF
			}
			if err := s.openNextObject(ctx); err != nil {
				return nil, &ReaderError{Source: "s3", Op: "get_object", Err: err}
			}
		}
		d, err := s.current.Read(ctx)
		if errors.Is(err, io.EOF) {
			s.stats.ProcessedFiles = append(s.stats.ProcessedFiles, s.stats.CurrentObject)
			if err := s.closeCurrent(); err != nil {
				return nil, &ReaderError{Source: "s3", Op: "close_object", Err: err}
			}
			continue
		}
		if err != nil {
			return nil, &ReaderError{Source: "s3", Op: "read " + s.stats.CurrentObject, Err: err}
		}
		s.stats.observe(d, start)
		return d, nil
	}
}

// Close implements the core.DataSource interface
func (s *S3Reader) Close() error {
	return s.closeCurrent()
}

// Stats returns S3 reader statistics
func (s *S3Reader) Stats() S3ReaderStats {
	out := s.stats
	out.ReaderStats = s.stats.ReaderStats.snapshot()
	out.ProcessedFiles = append([]string(nil), s.stats.ProcessedFiles...)
	return out
}

// Objects returns the listed objects in processing order.
func (s *S3Reader) Objects() []S3Object {
	return s.objects
}

// LoadAWSConfig loads the default AWS configuration, overriding region, profile and static
// credentials when set.
func LoadAWSConfig(ctx context.Context, region, profile string, creds aws.Credentials) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error
	if region != "" {
		configOpts = append(configOpts, config.WithRegion(region))
	}
	if profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}
	if creds.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		)
	}
	return cfg, nil
}

func (s *S3Reader) listObjects(ctx context.Context) error {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.opts.Bucket)}
	if s.opts.Prefix != "" {
		input.Prefix = aws.String(s.opts.Prefix)
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !s.include(key) {
				continue
			}
			s.objects = append(s.objects, S3Object{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	s.sortObjects()
	s.stats.ObjectsListed = int64(len(s.objects))
	return nil
}

func (s *S3Reader) include(key string) bool {
	if strings.HasSuffix(key, "/") {
		return false
	}
	if s.opts.Suffix != "" && !strings.HasSuffix(key, s.opts.Suffix) {
		return false
	}
	if !s.opts.Recursive && strings.Contains(strings.TrimPrefix(key, s.opts.Prefix), "/") {
		return false
	}
	if s.opts.Pattern != "" {
		ok, err := path.Match(s.opts.Pattern, path.Base(key))
		return err == nil && ok
	}
	return true
}

func (s *S3Reader) sortObjects() {
	var less func(a, b S3Object) bool
	switch s.opts.SortOrder {
	case SortByName:
		less = func(a, b S3Object) bool { return a.Key < b.Key }
	case SortByLastModified:
		less = func(a, b S3Object) bool { return a.LastModified.Before(b.LastModified) }
	case SortBySize:
		less = func(a, b S3Object) bool { return a.Size < b.Size }
	default:
		return
	}
	sort.SliceStable(s.objects, func(i, j int) bool { return less(s.objects[i], s.objects[j]) })
}

func (s *S3Reader) openNextObject(ctx context.Context) error {
	obj := s.objects[s.next]
	s.next++
	s.stats.CurrentObject = obj.Key
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(obj.Key),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", obj.Key, err)
	}
	if strings.HasSuffix(strings.ToLower(obj.Key), ".csv") {
		r, err := NewCSVReader(out.Body, s.opts.CSVOptions...)
		if err != nil {
			out.Body.Close()
			return err
		}
		s.current = r
	} else {
		s.current = NewJSONReader(out.Body)
	}
	s.stats.ObjectsRead++
	return nil
}

func (s *S3Reader) closeCurrent() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	return err
}
