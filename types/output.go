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

// Package types resolves output locations and opens a sink of the requested format there.
package types

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/readers"
	"github.com/aaronlmathis/goparsnip/writers"
)

// OutputFormat represents a supported file format.
type OutputFormat int

const (
	FormatJSON OutputFormat = iota
	FormatCSV
	FormatParquet
)

func (f OutputFormat) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	default:
		return "json"
	}
}

// ParseFormat maps json, csv or parquet to a format. Empty is json.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json", "jsonl":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	}
	return 0, fmt.Errorf("unsupported output format %q", s)
}

// OutputLocation creates a DataSink for a given format. Database and subject locations ignore
// the format.
type OutputLocation interface {
	NewSink(format OutputFormat) (core.DataSink, error)
}

// ParseLocation resolves a location string:
//
//	-                                      standard output
//	path/to/file                           local file
//	s3://bucket/key                        S3 object
//	azblob://container/blob                Azure blob
//	postgres://user@host/db?table=events   PostgreSQL table
//	mongodb://host/?db=app&collection=ev   MongoDB collection
//	nats://host:4222/subject               NATS subject
func ParseLocation(s string) (OutputLocation, error) {
	if s == "" || s == "-" {
		return FileLocation{Path: "-"}, nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return FileLocation{Path: s}, nil
	}
	key := strings.TrimPrefix(u.Path, "/")
	switch u.Scheme {
	case "file":
		return FileLocation{Path: u.Path}, nil
	case "s3":
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("s3 location needs a bucket and key: %s", s)
		}
		return S3Location{Bucket: u.Host, Key: key}, nil
	case "azblob":
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("azblob location needs a container and blob: %s", s)
		}
		return AzureBlobLocation{Container: u.Host, Blob: key}, nil
	case "postgres", "postgresql":
		q := u.Query()
		table := q.Get("table")
		if table == "" {
			return nil, fmt.Errorf("postgres location needs a table parameter: %s", s)
		}
		q.Del("table")
		u.RawQuery = q.Encode()
		return PostgresLocation{DSN: u.String(), Table: table}, nil
	case "mongodb", "mongodb+srv":
		q := u.Query()
		db, coll := q.Get("db"), q.Get("collection")
		if db == "" || coll == "" {
			return nil, fmt.Errorf("mongodb location needs db and collection parameters: %s", s)
		}
		q.Del("db")
		q.Del("collection")
		u.RawQuery = q.Encode()
		return MongoLocation{URI: u.String(), Database: db, Collection: coll}, nil
	case "nats":
		if key == "" {
			return nil, fmt.Errorf("nats location needs a subject: %s", s)
		}
		return NATSLocation{URL: "nats://" + u.Host, Subject: key}, nil
	}
	return nil, fmt.Errorf("unsupported output location scheme %q", u.Scheme)
}

// Open resolves location and opens a sink of the named format there.
func Open(location, format string) (core.DataSink, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return loc.NewSink(f)
}

// newStreamSink opens a sink of format over w.
func newStreamSink(format OutputFormat, w io.WriteCloser) (core.DataSink, error) {
	switch format {
	case FormatCSV:
		return writers.NewCSVWriter(w)
	case FormatParquet:
		return writers.NewParquetStreamWriter(w), nil
	default:
		return writers.NewJSONWriter(w), nil
	}
}

// FileLocation writes output to a local filesystem path. "-" is standard output.
type FileLocation struct {
	Path string
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewSink instantiates a writer for the file location.
func (f FileLocation) NewSink(format OutputFormat) (core.DataSink, error) {
	if f.Path == "-" {
		return newStreamSink(format, nopWriteCloser{os.Stdout})
	}
	if format == FormatParquet {
		return writers.NewParquetWriter(f.Path)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(f.Path)
	if err != nil {
		return nil, err
	}
	return newStreamSink(format, file)
}

// bufferedUpload collects output in memory and hands it to upload on Close.
type bufferedUpload struct {
	buf    bytes.Buffer
	upload func(ctx context.Context, data []byte) error
}

func (b *bufferedUpload) Write(p []byte) (int, error) { return b.buf.Write(p) }

func (b *bufferedUpload) Close() error {
	return b.upload(context.Background(), b.buf.Bytes())
}

// S3Putter is the subset of the S3 client used to upload output.
type S3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Location writes one object to an S3 bucket when the sink is closed.
type S3Location struct {
	Bucket string
	Key    string
	Client S3Putter
}

// NewSink creates a writer uploading to S3.
func (s S3Location) NewSink(format OutputFormat) (core.DataSink, error) {
	client := s.Client
	if client == nil {
		cfg, err := readers.LoadAWSConfig(context.Background(), "", "", aws.Credentials{})
		if err != nil {
			return nil, err
		}
		client = s3.NewFromConfig(cfg)
	}
	return newStreamSink(format, &bufferedUpload{upload: func(ctx context.Context, data []byte) error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.Bucket),
			Key:    aws.String(s.Key),
			Body:   bytes.NewReader(data),
		})
		return err
	}})
}

// AzureUploader is the subset of the blob client used to upload output.
type AzureUploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureBlobLocation writes one blob when the sink is closed. Without a client, the connection
// string in AZURE_STORAGE_CONNECTION_STRING is used, or else the SAS URL in
// AZURE_STORAGE_ACCOUNT_URL.
type AzureBlobLocation struct {
	Container string
	Blob      string
	Client    AzureUploader
}

// NewSink creates a writer uploading to Azure Blob Storage.
func (a AzureBlobLocation) NewSink(format OutputFormat) (core.DataSink, error) {
	client := a.Client
	if client == nil {
		c, err := azureClientFromEnv()
		if err != nil {
			return nil, err
		}
		client = c
	}
	return newStreamSink(format, &bufferedUpload{upload: func(ctx context.Context, data []byte) error {
		_, err := client.UploadBuffer(ctx, a.Container, a.Blob, data, nil)
		return err
	}})
}

func azureClientFromEnv() (*azblob.Client, error) {
	if cs := os.Getenv("AZURE_STORAGE_CONNECTION_STRING"); cs != "" {
		return azblob.NewClientFromConnectionString(cs, nil)
	}
	if u := os.Getenv("AZURE_STORAGE_ACCOUNT_URL"); u != "" {
		return azblob.NewClientWithNoCredential(u, nil)
	}
	return nil, errors.New("azure blob location needs AZURE_STORAGE_CONNECTION_STRING or AZURE_STORAGE_ACCOUNT_URL")
}

// PostgresLocation directs output to a PostgreSQL table, created on first write.
type PostgresLocation struct {
	DSN   string
	Table string
}

// NewSink instantiates a PostgreSQL writer.
func (p PostgresLocation) NewSink(OutputFormat) (core.DataSink, error) {
	return writers.NewPostgresWriter(
		writers.WithPostgresDSN(p.DSN),
		writers.WithTableName(p.Table),
		writers.WithCreateTable(true),
	)
}

// MongoLocation directs output to a MongoDB collection.
type MongoLocation struct {
	URI        string
	Database   string
	Collection string
}

// NewSink instantiates a MongoDB writer.
func (m MongoLocation) NewSink(OutputFormat) (core.DataSink, error) {
	return writers.NewMongoWriter(m.Database, m.Collection, writers.WithMongoURI(m.URI))
}

// NATSLocation publishes output to a NATS subject.
type NATSLocation struct {
	URL     string
	Subject string
}

// NewSink instantiates a NATS writer.
func (n NATSLocation) NewSink(OutputFormat) (core.DataSink, error) {
	return writers.NewNATSWriter(n.Subject, writers.WithNATSURL(n.URL))
}
