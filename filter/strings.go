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

package filter

import (
	"regexp"
	"strings"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// String filters test the string form of a value; nil reads as "null".

// Contains matches values whose string form contains Value.
type Contains struct{ Value string }

func (f *Contains) Name() string     { return "Contains" }
func (f *Contains) SimpleValue() any { return f.Value }

// Match implements core.ValueFilter
func (f *Contains) Match(v any) bool { return strings.Contains(value.String(v), f.Value) }

// StartsWith matches values whose string form starts with Value.
type StartsWith struct{ Value string }

func (f *StartsWith) Name() string     { return "StartsWith" }
func (f *StartsWith) SimpleValue() any { return f.Value }

// Match implements core.ValueFilter
func (f *StartsWith) Match(v any) bool { return strings.HasPrefix(value.String(v), f.Value) }

// EndsWith matches values whose string form ends with Value.
type EndsWith struct{ Value string }

func (f *EndsWith) Name() string     { return "EndsWith" }
func (f *EndsWith) SimpleValue() any { return f.Value }

// Match implements core.ValueFilter
func (f *EndsWith) Match(v any) bool { return strings.HasSuffix(value.String(v), f.Value) }

// Matches matches values whose entire string form matches the regular expression.
type Matches struct {
	Regex string
	re    *regexp.Regexp
}

// NewMatches creates a Matches filter
func NewMatches(expr string) (*Matches, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, core.NewError(core.ErrConstruction, "Matches", "invalid regex "+expr, err)
	}
	return &Matches{Regex: expr, re: re}, nil
}

func (f *Matches) Name() string     { return "Matches" }
func (f *Matches) SimpleValue() any { return f.Regex }

// Match implements core.ValueFilter
func (f *Matches) Match(v any) bool { return f.re.MatchString(value.String(v)) }

// ContainsMatch matches values whose string form contains a match of the regular expression.
type ContainsMatch struct {
	Regex string
	re    *regexp.Regexp
}

// NewContainsMatch creates a ContainsMatch filter
func NewContainsMatch(expr string) (*ContainsMatch, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, core.NewError(core.ErrConstruction, "ContainsMatch", "invalid regex "+expr, err)
	}
	return &ContainsMatch{Regex: expr, re: re}, nil
}

func (f *ContainsMatch) Name() string     { return "ContainsMatch" }
func (f *ContainsMatch) SimpleValue() any { return f.Regex }

// Match implements core.ValueFilter
func (f *ContainsMatch) Match(v any) bool { return f.re.MatchString(value.String(v)) }
