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
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPReader_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		pagination *PaginationConfig
		handler    func(w http.ResponseWriter, r *http.Request)
		want       []int64
	}{
		{
			name:       "page",
			pagination: &PaginationConfig{Type: "page", PageParam: "page", LimitParam: "limit", PageSize: 2},
			handler: func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Query().Get("page") {
				case "1":
					fmt.Fprint(w, `{"data":{"items":[{"id":1},{"id":2}]}}`)
				case "2":
					fmt.Fprint(w, `{"data":{"items":[{"id":3}]}}`)
				default:
					t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
				}
			},
			want: []int64{1, 2, 3},
		},
		{
			name:       "offset",
			pagination: &PaginationConfig{Type: "offset", PageParam: "offset", PageSize: 2},
			handler: func(w http.ResponseWriter, r *http.Request) {
				off, _ := strconv.Atoi(r.URL.Query().Get("offset"))
				if off >= 4 {
					fmt.Fprint(w, `{"data":{"items":[]}}`)
					return
				}
				fmt.Fprintf(w, `{"data":{"items":[{"id":%d},{"id":%d}]}}`, off+1, off+2)
			},
			want: []int64{1, 2, 3, 4},
		},
		{
			name:       "cursor",
			pagination: &PaginationConfig{Type: "cursor", CursorParam: "after", CursorPath: "/next"},
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("after") == "" {
					fmt.Fprint(w, `{"next":"abc","data":{"items":[{"id":1}]}}`)
					return
				}
				fmt.Fprint(w, `{"next":null,"data":{"items":[{"id":2}]}}`)
			},
			want: []int64{1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(tt.handler))
			defer srv.Close()

			r, err := NewHTTPReader(srv.URL, WithHTTPPagination(tt.pagination), WithHTTPDataPath("/data/items"))
			require.NoError(t, err)
			var ids []int64
			for _, d := range readAll(t, r) {
				ids = append(ids, d.Value("id").(int64))
			}
			assert.Equal(t, tt.want, ids)
			assert.NoError(t, r.Close())
		})
	}
}

func TestHTTPReader_HeadersAndJSONLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		assert.Equal(t, "v", r.Header.Get("X-Extra"))
		assert.Equal(t, "1", r.URL.Query().Get("q"))
		fmt.Fprint(w, "{\"a\":1}\n{\"a\":2}\n")
	}))
	defer srv.Close()

	r, err := NewHTTPReader(srv.URL,
		WithHTTPBearerToken("s3cret"),
		WithHTTPHeader("X-Extra", "v"),
		WithHTTPQueryParam("q", "1"),
		WithHTTPResponseFormat("jsonl"))
	require.NoError(t, err)
	got := readAll(t, r)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[1].Value("a"))
	assert.Equal(t, int64(1), r.Stats().RequestCount)
}

func TestHTTPReader_Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[{"ok":true}]`)
	}))
	defer srv.Close()

	r, err := NewHTTPReader(srv.URL, WithHTTPRetries(3, time.Millisecond))
	require.NoError(t, err)
	got := readAll(t, r)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), r.Stats().RetryCount)
}

func TestHTTPReader_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r, err := NewHTTPReader(srv.URL, WithHTTPRetries(3, time.Millisecond))
	require.NoError(t, err)
	_, err = r.Read(t.Context())
	var rerr *ReaderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "request", rerr.Op)
	assert.Equal(t, int32(1), calls.Load())
}
