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

package compute

import (
	"regexp"
	"sync/atomic"

	"golang.org/x/text/cases"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// Lookup maps the string form of its input through Table. Missing and null entries yield IfNull.
type Lookup struct {
	Table         *value.Map
	IfNull        any
	CaseSensitive bool

	folded atomic.Pointer[map[string]string]
}

// NewLookup creates a case-sensitive Lookup over table.
func NewLookup(table *value.Map) *Lookup {
	if table == nil {
		table = value.NewMap()
	}
	return &Lookup{Table: table, CaseSensitive: true}
}

// Put adds an entry and returns the lookup.
func (c *Lookup) Put(key string, v any) *Lookup {
	c.Table.Set(key, value.Normalize(v))
	c.folded.Store(nil)
	return c
}

func (c *Lookup) Name() string { return "Lookup" }

// Compute implements core.ValueCompute
func (c *Lookup) Compute(v any) (any, error) {
	key := value.String(v)
	var res any
	if c.CaseSensitive {
		res = c.Table.Value(key)
	} else {
		folded := c.folded.Load()
		if folded == nil {
			m := c.foldKeys()
			folded = &m
			c.folded.Store(folded)
		}
		if k, ok := (*folded)[cases.Fold().String(key)]; ok {
			res = c.Table.Value(k)
		}
	}
	if res == nil {
		return c.IfNull, nil
	}
	return res, nil
}

// foldKeys indexes table keys by their case-folded form; the first key wins.
func (c *Lookup) foldKeys() map[string]string {
	fold := cases.Fold()
	out := make(map[string]string, c.Table.Len())
	for _, k := range c.Table.Keys() {
		f := fold.String(k)
		if _, ok := out[f]; !ok {
			out[f] = k
		}
	}
	return out
}

// EncodePayload returns the bare table when the other fields have their defaults.
func (c *Lookup) EncodePayload(core.Encoder) (any, error) {
	if c.IfNull == nil && c.CaseSensitive {
		return c.Table, nil
	}
	bean := value.MapOf("table", c.Table)
	if c.IfNull != nil {
		bean.Set("ifNull", c.IfNull)
	}
	if !c.CaseSensitive {
		bean.Set("caseSensitive", false)
	}
	return bean, nil
}

// OneHot encodes its input as an indicator vector over Values.
type OneHot struct {
	Values []any
}

func (c *OneHot) Name() string     { return "OneHot" }
func (c *OneHot) SimpleValue() any { return c.Values }

// Compute returns a []int64 with a 1 at the position of the first value equal to the input.
func (c *OneHot) Compute(v any) (any, error) {
	out := make([]int64, len(c.Values))
	for i, x := range c.Values {
		if value.Equal(x, v) {
			out[i] = 1
			break
		}
	}
	return out, nil
}

// RegexCapture matches the entire string form of its input and returns the capture groups
// keyed by As. Empty names and groups that did not participate are skipped.
type RegexCapture struct {
	Regex string
	As    []string

	re *regexp.Regexp
}

// NewRegexCapture creates a RegexCapture. An invalid expression never matches.
func NewRegexCapture(expr string, as ...string) *RegexCapture {
	c := &RegexCapture{Regex: expr, As: as}
	c.re, _ = regexp.Compile(`^(?:` + expr + `)$`)
	return c
}

func (c *RegexCapture) Name() string { return "RegexCapture" }

// Compute implements core.ValueCompute
func (c *RegexCapture) Compute(v any) (any, error) {
	if c.re == nil {
		return nil, nil
	}
	s := value.String(v)
	idx := c.re.FindStringSubmatchIndex(s)
	if idx == nil {
		return nil, nil
	}
	out := value.NewMap()
	for i, name := range c.As {
		g := 2 * (i + 1)
		if name == "" || g+1 >= len(idx) || idx[g] < 0 {
			continue
		}
		out.Set(name, s[idx[g]:idx[g+1]])
	}
	return out, nil
}

// EncodePayload returns {regex, as}
func (c *RegexCapture) EncodePayload(core.Encoder) (any, error) {
	return value.MapOf("regex", c.Regex, "as", core.StringList(c.As)), nil
}
