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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// HTTPReaderStats holds statistics about the HTTP reader's performance
type HTTPReaderStats struct {
	ReaderStats
	RequestCount int64 // Total HTTP requests made
	BytesRead    int64 // Total bytes read
	RetryCount   int64 // Number of retries performed
}

// PaginationConfig defines pagination behavior
type PaginationConfig struct {
	Type        string // "page", "offset", "cursor" or "none"
	PageParam   string // Parameter name for page number or offset
	LimitParam  string // Parameter name for page size
	CursorParam string // Parameter name for cursor
	PageSize    int    // Number of records per page
	MaxPages    int    // Maximum pages to fetch (0 = unlimited)
	CursorPath  string // Pointer to the next cursor in the response
}

// HTTPReaderOptions configures the HTTP reader
type HTTPReaderOptions struct {
	Method         string            // HTTP method (default: GET)
	Headers        map[string]string // Additional headers
	QueryParams    map[string]string // Query parameters
	BearerToken    string            // Sent as an Authorization header
	Pagination     *PaginationConfig // Pagination configuration
	Timeout        time.Duration     // Request timeout
	RetryAttempts  int               // Number of retry attempts
	RetryDelay     time.Duration     // Base delay between retries
	ResponseFormat string            // "json" or "jsonl"
	// DataPath is a pointer to the record list inside a JSON response, e.g. "/data/items".
	// Empty means the response itself is the list or a single object.
	DataPath  string
	UserAgent string
	Client    *http.Client
}

// ReaderOptionHTTP is a functional option for HTTPReaderOptions
type ReaderOptionHTTP func(*HTTPReaderOptions)

func WithHTTPMethod(method string) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.Method = method }
}

func WithHTTPHeader(name, val string) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.Headers[name] = val }
}

func WithHTTPQueryParam(name, val string) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.QueryParams[name] = val }
}

func WithHTTPBearerToken(token string) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.BearerToken = token }
}

func WithHTTPPagination(p *PaginationConfig) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.Pagination = p }
}

func WithHTTPRetries(attempts int, delay time.Duration) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) {
		o.RetryAttempts = attempts
		o.RetryDelay = delay
	}
}

func WithHTTPResponseFormat(format string) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.ResponseFormat = format }
}

func WithHTTPDataPath(path string) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.DataPath = path }
}

func WithHTTPClient(client *http.Client) ReaderOptionHTTP {
	return func(o *HTTPReaderOptions) { o.Client = client }
}

// HTTPReader implements DataSource over a JSON or JSON lines API, following pages until one
// comes back short or empty.
type HTTPReader struct {
	baseURL string
	client  *http.Client
	opts    HTTPReaderOptions
	stats   HTTPReaderStats
	batch   []core.Datum
	pos     int
	page    int
	cursor  string
	done    bool
}

// NewHTTPReader creates a new HTTP API reader with configurable options
func NewHTTPReader(rawURL string, options ...ReaderOptionHTTP) (*HTTPReader, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return nil, &ReaderError{Source: "http", Op: "parse_url", Err: err}
	}
	opts := HTTPReaderOptions{
		Method:         http.MethodGet,
		Headers:        make(map[string]string),
		QueryParams:    make(map[string]string),
		Timeout:        30 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     time.Second,
		ResponseFormat: "json",
		UserAgent:      "GoParsnip-HTTPReader/1.0",
	}
	for _, option := range options {
		option(&opts)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPReader{
		baseURL: rawURL,
		client:  client,
		opts:    opts,
		stats:   HTTPReaderStats{ReaderStats: newReaderStats()},
	}, nil
}

// Read implements the core.DataSource interface
func (hr *HTTPReader) Read(ctx context.Context) (core.Datum, error) {
	if err := checkContext(ctx, "http"); err != nil {
		return nil, err
	}
	start := time.Now()
	for hr.pos >= len(hr.batch) {
		if hr.done {
			return nil, io.EOF
		}
		if err := hr.loadNextBatch(ctx); err != nil {
			return nil, err
		}
	}
	d := hr.batch[hr.pos]
	hr.pos++
	hr.stats.observe(d, start)
	return d, nil
}

// Close implements the core.DataSource interface
func (hr *HTTPReader) Close() error {
	hr.client.CloseIdleConnections()
	return nil
}

// Stats returns HTTP reader performance statistics
func (hr *HTTPReader) Stats() HTTPReaderStats {
	s := hr.stats
	s.ReaderStats = hr.stats.ReaderStats.snapshot()
	return s
}

// loadNextBatch fetches the next page and advances the pagination state.
func (hr *HTTPReader) loadNextBatch(ctx context.Context) error {
	reqURL, err := hr.requestURL()
	if err != nil {
		return &ReaderError{Source: "http", Op: "build_url", Err: err}
	}
	body, err := hr.fetchWithRetry(ctx, reqURL)
	if err != nil {
		return err
	}
	doc, records, err := hr.parse(body)
	if err != nil {
		return &ReaderError{Source: "http", Op: "parse", Err: err}
	}
	hr.batch, hr.pos = records, 0
	hr.page++

	p := hr.opts.Pagination
	switch {
	case p == nil || p.Type == "" || p.Type == "none":
		hr.done = true
	case p.MaxPages > 0 && hr.page >= p.MaxPages:
		hr.done = true
	case p.Type == "cursor":
		next := pointer.Get(doc, p.CursorPath)
		hr.cursor = ""
		if next != nil {
			hr.cursor = value.String(next)
		}
		hr.done = hr.cursor == "" || len(records) == 0
	default:
		hr.done = len(records) == 0 || (p.PageSize > 0 && len(records) < p.PageSize)
	}
	return nil
}

func (hr *HTTPReader) requestURL() (string, error) {
	u, err := url.Parse(hr.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range hr.opts.QueryParams {
		q.Set(k, v)
	}
	if p := hr.opts.Pagination; p != nil {
		if p.LimitParam != "" && p.PageSize > 0 {
			q.Set(p.LimitParam, strconv.Itoa(p.PageSize))
		}
		switch p.Type {
		case "page":
			q.Set(p.PageParam, strconv.Itoa(hr.page+1))
		case "offset":
			q.Set(p.PageParam, strconv.Itoa(hr.page*p.PageSize))
		case "cursor":
			if hr.cursor != "" {
				q.Set(p.CursorParam, hr.cursor)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// fetchWithRetry retries transport failures and 5xx responses with linear backoff.
func (hr *HTTPReader) fetchWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= hr.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			hr.stats.RetryCount++
			select {
			case <-time.After(hr.opts.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, &ReaderError{Source: "http", Op: "retry", Err: ctx.Err()}
			}
		}
		body, retry, err := hr.fetch(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, &ReaderError{Source: "http", Op: "request", Err: lastErr}
}

func (hr *HTTPReader) fetch(ctx context.Context, reqURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, hr.opts.Method, reqURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", hr.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range hr.opts.Headers {
		req.Header.Set(k, v)
	}
	if hr.opts.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+hr.opts.BearerToken)
	}
	hr.stats.RequestCount++
	resp, err := hr.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	hr.stats.BytesRead += int64(len(body))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
			fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, false, nil
}

// parse returns the whole response document and the records found at DataPath.
func (hr *HTTPReader) parse(body []byte) (any, []core.Datum, error) {
	if hr.opts.ResponseFormat == "jsonl" {
		r := NewJSONReader(io.NopCloser(bytes.NewReader(body)))
		var out []core.Datum
		for {
			d, err := r.Read(context.Background())
			if errors.Is(err, io.EOF) {
				return nil, out, nil
			}
			if err != nil {
				return nil, nil, err
			}
			out = append(out, d)
		}
	}
	doc, err := value.ParseJSON(body)
	if err != nil {
		return nil, nil, err
	}
	data := doc
	if hr.opts.DataPath != "" {
		data = pointer.Get(doc, hr.opts.DataPath)
	}
	switch t := data.(type) {
	case nil:
		return doc, nil, nil
	case *value.Map:
		return doc, []core.Datum{t}, nil
	case []any:
		out := make([]core.Datum, 0, len(t))
		for _, x := range t {
			d, err := asDatum("http", x)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, d)
		}
		return doc, out, nil
	}
	return nil, nil, fmt.Errorf("expected records at %q, got %s", hr.opts.DataPath, value.KindOf(data))
}
