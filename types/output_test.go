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

package types

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/goparsnip/value"
	"github.com/aaronlmathis/goparsnip/writers"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want OutputLocation
	}{
		{"-", FileLocation{Path: "-"}},
		{"out/records.jsonl", FileLocation{Path: "out/records.jsonl"}},
		{"file:///tmp/x.csv", FileLocation{Path: "/tmp/x.csv"}},
		{"s3://bucket/path/to/key.parquet", S3Location{Bucket: "bucket", Key: "path/to/key.parquet"}},
		{"azblob://container/dir/blob.json", AzureBlobLocation{Container: "container", Blob: "dir/blob.json"}},
		{"postgres://u@db:5432/app?sslmode=disable&table=events", PostgresLocation{DSN: "postgres://u@db:5432/app?sslmode=disable", Table: "events"}},
		{"mongodb://localhost:27017/?db=app&collection=ev", MongoLocation{URI: "mongodb://localhost:27017/", Database: "app", Collection: "ev"}},
		{"nats://localhost:4222/events.out", NATSLocation{URL: "nats://localhost:4222", Subject: "events.out"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"s3://bucket", "azblob://c", "postgres://h/db", "mongodb://h/?db=x", "nats://h", "ftp://h/x"} {
		_, err := ParseLocation(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatJSON, "JSON": FormatJSON, "csv": FormatCSV, "parquet": FormatParquet} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestFileLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	sink, err := Open(path, "csv")
	require.NoError(t, err)
	assert.IsType(t, &writers.CSVWriter{}, sink)
	require.NoError(t, sink.Write(context.Background(), value.MapOf("a", 1)))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))
}

type fakePutter struct {
	bucket, key string
	body        []byte
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.bucket, f.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
	b, err := io.ReadAll(in.Body)
	f.body = b
	return &s3.PutObjectOutput{}, err
}

func TestS3Location(t *testing.T) {
	fake := &fakePutter{}
	sink, err := S3Location{Bucket: "b", Key: "k.jsonl", Client: fake}.NewSink(FormatJSON)
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), value.MapOf("x", true)))
	assert.Empty(t, fake.body)
	require.NoError(t, sink.Close())
	assert.Equal(t, "b", fake.bucket)
	assert.Equal(t, "k.jsonl", fake.key)
	assert.Equal(t, "{\"x\":true}\n", string(fake.body))
}

type fakeUploader struct {
	container, blob string
	data            []byte
}

func (f *fakeUploader) UploadBuffer(ctx context.Context, container, blob string, buf []byte, _ *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.container, f.blob, f.data = container, blob, append([]byte(nil), buf...)
	return azblob.UploadBufferResponse{}, nil
}

func TestAzureBlobLocation(t *testing.T) {
	fake := &fakeUploader{}
	sink, err := AzureBlobLocation{Container: "c", Blob: "out.parquet", Client: fake}.NewSink(FormatParquet)
	require.NoError(t, err)
	assert.IsType(t, &writers.ParquetWriter{}, sink)
	require.NoError(t, sink.Write(context.Background(), value.MapOf("n", 1)))
	require.NoError(t, sink.Close())
	assert.Equal(t, "c", fake.container)
	assert.Equal(t, "PAR1", string(fake.data[:4]))
}
