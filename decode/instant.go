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

package decode

import (
	"strings"
	"time"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// DefaultPattern is the pattern used when none is given.
const DefaultPattern = "yyyy-MM-dd'T'HH:mm:ss"

// InstantDecoder parses timestamps with a fixed date pattern such as "yyyy-MM-dd HH:mm:ss.SSS".
// Inputs without a zone are read in the configured location; patterns with a literal 'Z' read UTC.
type InstantDecoder struct {
	Pattern string
	layout  string
	loc     *time.Location
}

// NewInstantDecoder creates a decoder for pattern, or for DefaultPattern when pattern is empty.
func NewInstantDecoder(pattern string) (*InstantDecoder, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	layout := value.JavaLayout(pattern)
	if layout == "" {
		return nil, core.Constructionf("InstantDecoder", "empty pattern")
	}
	d := &InstantDecoder{Pattern: pattern, layout: layout}
	if strings.Contains(pattern, "'Z'") {
		d.loc = time.UTC
	}
	return d, nil
}

// Name returns the type name.
func (d *InstantDecoder) Name() string { return "InstantDecoder" }

// SimpleValue returns the pattern.
func (d *InstantDecoder) SimpleValue() any { return d.Pattern }

// Decode parses input as an instant.
func (d *InstantDecoder) Decode(input string) (any, error) {
	return d.DecodeTime(input)
}

// DecodeTime parses input as an instant.
func (d *InstantDecoder) DecodeTime(input string) (time.Time, error) {
	loc := d.loc
	if loc == nil {
		loc = value.Location()
	}
	t, err := time.ParseInLocation(d.layout, input, loc)
	if err != nil {
		return time.Time{}, core.NewError(core.ErrCompute, "InstantDecoder", "cannot parse "+input, err)
	}
	return t, nil
}

// Format renders t with the decoder's pattern.
func (d *InstantDecoder) Format(t time.Time) string {
	loc := d.loc
	if loc == nil {
		loc = value.Location()
	}
	return t.In(loc).Format(d.layout)
}

// InstantEpochDecoder parses timestamps like InstantDecoder and returns epoch milliseconds.
type InstantEpochDecoder struct {
	delegate *InstantDecoder
}

// NewInstantEpochDecoder creates a decoder for pattern, or for DefaultPattern when pattern is empty.
func NewInstantEpochDecoder(pattern string) (*InstantEpochDecoder, error) {
	d, err := NewInstantDecoder(pattern)
	if err != nil {
		return nil, err
	}
	return &InstantEpochDecoder{delegate: d}, nil
}

// Name returns the type name.
func (d *InstantEpochDecoder) Name() string { return "InstantEpochDecoder" }

// SimpleValue returns the pattern.
func (d *InstantEpochDecoder) SimpleValue() any { return d.delegate.Pattern }

// Decode parses input as epoch milliseconds.
func (d *InstantEpochDecoder) Decode(input string) (any, error) {
	t, err := d.delegate.DecodeTime(input)
	if err != nil {
		return nil, err
	}
	return t.UnixMilli(), nil
}
