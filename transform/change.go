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

package transform

import (
	"sync"

	"go.uber.org/zap"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/filter"
	"github.com/aaronlmathis/goparsnip/logging"
	"github.com/aaronlmathis/goparsnip/pointer"
	"github.com/aaronlmathis/goparsnip/value"
)

// Transition describes a change of a monitored value from From to To and the fields to put when it occurs.
// A nil From or To matches any value other than the other end.
type Transition struct {
	From any
	To   any
	Put  *value.Map
}

// Matches reports whether moving from last to cur triggers t.
func (t Transition) Matches(last, cur any) bool {
	switch {
	case t.From == nil && t.To == nil:
		return filter.NewNotEqual(last).Match(cur)
	case t.From == nil:
		return filter.NewNotEqual(t.To).Match(last) && filter.NewEqual(t.To).Match(cur)
	case t.To == nil:
		return filter.NewEqual(t.From).Match(last) && filter.NewNotEqual(t.From).Match(cur)
	}
	return filter.NewEqual(t.From).Match(last) && filter.NewEqual(t.To).Match(cur)
}

var anyChange = []Transition{{Put: value.NewMap()}}

// Change monitors a field for transitions, assuming its input arrives in order. It keeps the last
// value seen per group and returns a copy of the record with the puts of every matching transition,
// or nil when none matches. With no transitions any change matches.
type Change struct {
	GroupBy    string
	Monitor    string
	WhenChange []Transition

	mu   sync.Mutex
	last map[string]any
}

// NewChange creates a Change. An empty groupBy puts every record in one group.
func NewChange(groupBy, monitor string, whenChange ...Transition) *Change {
	return &Change{GroupBy: groupBy, Monitor: monitor, WhenChange: whenChange}
}

func (t *Change) Name() string { return "Change" }

// Transform implements core.DatumTransform
func (t *Change) Transform(d core.Datum) (core.Datum, error) {
	if d == nil {
		return nil, nil
	}
	group := "null"
	if t.GroupBy != "" {
		group = value.String(pointer.Get(d, t.GroupBy))
	}
	cur := pointer.Get(d, t.Monitor)

	t.mu.Lock()
	if t.last == nil {
		t.last = map[string]any{}
	}
	last := t.last[group]
	t.last[group] = cur
	t.mu.Unlock()

	rules := t.WhenChange
	if len(rules) == 0 {
		rules = anyChange
	}
	var res core.Datum
	for _, r := range rules {
		if !r.Matches(last, cur) {
			continue
		}
		if res == nil {
			res = d.DeepCopy()
		}
		if err := pointer.PutAll(res, r.Put); err != nil {
			logging.L().Debug("change put failed", zap.String("monitor", t.Monitor), zap.Error(err))
		}
	}
	return res, nil
}

// ComputeDatum runs Transform, so a Change can also serve as a field computation.
func (t *Change) ComputeDatum(d core.Datum) (any, error) {
	res, err := t.Transform(d)
	if err != nil || res == nil {
		return nil, err
	}
	return res, nil
}

// Reset forgets the last values of every group.
func (t *Change) Reset() {
	t.mu.Lock()
	t.last = nil
	t.mu.Unlock()
}

// EncodePayload implements core.PayloadEncoder
func (t *Change) EncodePayload(core.Encoder) (any, error) {
	out := value.NewMap(3)
	if t.GroupBy != "" {
		out.Set("groupBy", t.GroupBy)
	}
	out.Set("monitor", t.Monitor)
	if len(t.WhenChange) > 0 {
		rules := make([]any, len(t.WhenChange))
		for i, r := range t.WhenChange {
			m := value.NewMap(3)
			if r.From != nil {
				m.Set("from", r.From)
			}
			if r.To != nil {
				m.Set("to", r.To)
			}
			if r.Put.Len() > 0 {
				m.Set("put", r.Put)
			}
			rules[i] = m
		}
		out.Set("whenChange", rules)
	}
	return out, nil
}

func decodeChange(payload any, _ core.Decoder) (any, error) {
	m, err := core.Bean("Change", payload)
	if err != nil {
		return nil, err
	}
	monitor := core.StringOr(m, "monitor", "")
	if monitor == "" {
		return nil, core.Decodef("Change", "monitor is required")
	}
	c := NewChange(core.StringOr(m, "groupBy", ""), monitor)
	var rules []any
	switch w := m.Value("whenChange").(type) {
	case nil:
	case []any:
		rules = w
	default:
		rules = []any{w}
	}
	for _, r := range rules {
		bean, err := core.Bean("Change", r)
		if err != nil {
			return nil, err
		}
		put, err := core.Bean("Change", bean.Value("put"))
		if err != nil {
			return nil, err
		}
		c.WhenChange = append(c.WhenChange, Transition{From: bean.Value("from"), To: bean.Value("to"), Put: put})
	}
	return c, nil
}
