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

package value

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	dateOnlyLayouts = []string{"1/2/06", "1/2/2006", "2006/1/2", "1-2-06", "1-2-2006", "2006-1-2", "Jan2006", "Jan 2, 2006"}
	dateTimeSeps    = []string{" ", "T"}
	timeOnlyLayouts = []string{"3:04:05 PM", "15:04:05.000", "15:04:05", "15:04"}
)

// timeParser parses one string form into an instant.
type timeParser struct {
	layout string
	kind   int // 0 instant, 1 date and time, 2 date, 3 time of day
}

type timeSettings struct {
	loc     *time.Location
	parsers []timeParser
}

var (
	settingsMu sync.Mutex
	settings   atomic.Pointer[timeSettings]
	lastParser atomic.Int64
)

func init() {
	settings.Store(buildSettings(time.UTC, nil))
	lastParser.Store(-1)
}

func buildSettings(loc *time.Location, extra []string) *timeSettings {
	ps := []timeParser{{layout: time.RFC3339Nano, kind: 0}}
	for _, l := range extra {
		ps = append(ps, timeParser{layout: l, kind: 1})
	}
	for _, d := range dateOnlyLayouts {
		for _, sep := range dateTimeSeps {
			for _, t := range timeOnlyLayouts {
				ps = append(ps, timeParser{layout: d + sep + t, kind: 1})
			}
		}
	}
	for _, d := range dateOnlyLayouts {
		ps = append(ps, timeParser{layout: d, kind: 2})
	}
	for _, t := range timeOnlyLayouts {
		ps = append(ps, timeParser{layout: t, kind: 3})
	}
	return &timeSettings{loc: loc, parsers: ps}
}

// SetLocation sets the zone used to interpret date/time strings without an offset.
// The default is UTC.
func SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	settingsMu.Lock()
	defer settingsMu.Unlock()
	cur := settings.Load()
	settings.Store(&timeSettings{loc: loc, parsers: cur.parsers})
}

// Location returns the zone used for date/time strings without an offset.
func Location() *time.Location {
	return settings.Load().loc
}

// AddDateLayouts registers extra Go layouts tried after RFC 3339 and before the built-in forms.
func AddDateLayouts(layouts ...string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	cur := settings.Load()
	settings.Store(buildSettings(cur.loc, layouts))
	lastParser.Store(-1)
}

func (p timeParser) parse(s string, loc *time.Location) (time.Time, bool) {
	switch p.kind {
	case 0:
		t, err := time.Parse(p.layout, s)
		return t, err == nil
	case 3:
		t, err := time.ParseInLocation(p.layout, s, loc)
		if err != nil {
			return time.Time{}, false
		}
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), true
	default:
		t, err := time.ParseInLocation(p.layout, s, loc)
		return t, err == nil
	}
}

// ParseTime parses s using RFC 3339 and a fixed list of common date, date-time and time layouts.
// The layout that last succeeded is tried first.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	st := settings.Load()
	last := int(lastParser.Load())
	if last >= 0 && last < len(st.parsers) {
		if t, ok := st.parsers[last].parse(s, st.loc); ok {
			return t, true
		}
	}
	for i, p := range st.parsers {
		if i == last {
			continue
		}
		if t, ok := p.parse(s, st.loc); ok {
			lastParser.Store(int64(i))
			return t, true
		}
	}
	return time.Time{}, false
}

// ToTime converts v to an instant: times are returned as is, numbers are epoch milliseconds
// and strings are parsed with ParseTime.
func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true
	case string:
		return ParseTime(t)
	}
	return time.Time{}, false
}

// EpochMilli converts v to epoch milliseconds through ToTime.
func EpochMilli(v any) (int64, bool) {
	t, ok := ToTime(v)
	if !ok {
		return 0, false
	}
	return t.UnixMilli(), true
}

// JavaLayout converts a java.time style pattern such as "yyyy-MM-dd'T'HH:mm:ss" to a Go layout.
func JavaLayout(pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		c := runes[i]
		if c == '\'' {
			j := i + 1
			for j < len(runes) && runes[j] != '\'' {
				j++
			}
			if j == i+1 && j < len(runes) {
				b.WriteRune('\'')
			} else {
				b.WriteString(string(runes[i+1 : min(j, len(runes))]))
			}
			i = j + 1
			continue
		}
		n := 1
		for i+n < len(runes) && runes[i+n] == c {
			n++
		}
		b.WriteString(javaToken(c, n))
		i += n
	}
	return b.String()
}

func javaToken(c rune, n int) string {
	switch c {
	case 'y', 'u':
		if n == 2 {
			return "06"
		}
		return "2006"
	case 'M', 'L':
		switch {
		case n >= 4:
			return "January"
		case n == 3:
			return "Jan"
		case n == 2:
			return "01"
		}
		return "1"
	case 'd':
		if n == 2 {
			return "02"
		}
		return "2"
	case 'D':
		return "002"
	case 'E':
		if n >= 4 {
			return "Monday"
		}
		return "Mon"
	case 'H', 'k':
		return "15"
	case 'h':
		if n == 2 {
			return "03"
		}
		return "3"
	case 'm':
		if n == 2 {
			return "04"
		}
		return "4"
	case 's':
		if n == 2 {
			return "05"
		}
		return "5"
	case 'S':
		return strings.Repeat("0", n)
	case 'a':
		return "PM"
	case 'X':
		if n == 1 {
			return "Z07"
		}
		return "Z07:00"
	case 'x':
		return "-07:00"
	case 'Z':
		return "-0700"
	case 'z':
		return "MST"
	}
	return strings.Repeat(string(c), n)
}
