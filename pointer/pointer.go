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

// Package pointer reads and writes values inside nested records by slash path.
//
// A pointer is either a plain key ("name") or a slash path ("/a/b/0"). Reads are lenient: a map key
// containing slashes is found before the path is split, and missing structure yields nil. Writes
// auto-create intermediate maps, never lists, and "-" appends to a list.
package pointer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

var (
	// ErrInvalidIntermediate is returned when a write passes through a value that is not a container.
	ErrInvalidIntermediate = fmt.Errorf("%w: invalid intermediate", core.ErrAddress)

	// ErrInvalidIndex is returned when a list segment is not "-" or an in-range integer.
	ErrInvalidIndex = fmt.Errorf("%w: invalid index", core.ErrAddress)
)

// Get returns the value at ptr inside root, or nil when nothing is there.
func Get(root any, ptr string) any {
	ptr = strings.TrimSpace(ptr)
	if ptr == "" {
		ptr = "/"
	}
	if !strings.HasPrefix(ptr, "/") {
		ptr = "/" + ptr
	}
	return at(root, ptr)
}

func at(root any, ptr string) any {
	if ptr == "/" {
		return root
	}
	switch node := root.(type) {
	case *value.Map:
		if v, ok := node.Get(ptr); ok {
			return v
		}
		if v, ok := node.Get(ptr[1:]); ok {
			return v
		}
		i := strings.Index(ptr[1:], "/")
		if i < 0 {
			return nil
		}
		head := node.Value(ptr[1 : i+1])
		if head == nil {
			return nil
		}
		return at(head, ptr[i+1:])
	case []any:
		seg, tail, nested := strings.Cut(ptr[1:], "/")
		idx, err := strconv.Atoi(unescape(seg))
		if err != nil || idx < 0 || idx >= len(node) {
			return nil
		}
		if !nested {
			return node[idx]
		}
		return at(node[idx], "/"+tail)
	}
	return nil
}

// unescape decodes the ~1 and ~0 escapes of a list segment.
func unescape(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}

// Put writes v at ptr inside root, creating intermediate maps as needed.
// A pointer without a leading slash is a literal key.
func Put(root *value.Map, ptr string, v any) error {
	if root == nil {
		return core.Addressf("put", "cannot write %q into a nil record", ptr)
	}
	if !strings.HasPrefix(ptr, "/") {
		root.Set(ptr, v)
		return nil
	}
	return putMap(root, ptr, v)
}

// PutAll writes every entry of patch into root, in order. Keys are pointers.
func PutAll(root, patch *value.Map) error {
	var errs []error
	for k, v := range patch.All() {
		if err := Put(root, k, value.DeepCopy(v)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// putMap handles a pointer starting with "/" against a map.
func putMap(m *value.Map, ptr string, v any) error {
	i := strings.Index(ptr[1:], "/")
	if i < 0 {
		m.Set(ptr[1:], v)
		return nil
	}
	head, tail := ptr[1:i+1], ptr[i+1:]
	switch cur := m.Value(head).(type) {
	case *value.Map:
		return putMap(cur, tail, v)
	case []any:
		list, err := putList(cur, tail, v)
		if err != nil {
			return err
		}
		m.Set(head, list)
		return nil
	case nil:
		child := value.NewMap()
		if err := putMap(child, tail, v); err != nil {
			return err
		}
		m.Set(head, child)
		return nil
	default:
		return fmt.Errorf("expected a map or list at %q, found %s: %w", head, value.TypeName(cur), ErrInvalidIntermediate)
	}
}

// putList handles a pointer starting with "/" against a list, returning the updated list.
func putList(list []any, ptr string, v any) ([]any, error) {
	i := strings.Index(ptr[1:], "/")
	if i < 0 {
		return putIndex(list, ptr[1:], v)
	}
	seg, tail := ptr[1:i+1], ptr[i+1:]
	idx, err := index(list, seg)
	if err != nil {
		return nil, err
	}
	switch cur := list[idx].(type) {
	case *value.Map:
		return list, putMap(cur, tail, v)
	case []any:
		child, err := putList(cur, tail, v)
		if err != nil {
			return nil, err
		}
		list[idx] = child
		return list, nil
	default:
		return nil, fmt.Errorf("expected a map or list at index %d, found %s: %w", idx, value.TypeName(cur), ErrInvalidIntermediate)
	}
}

func putIndex(list []any, seg string, v any) ([]any, error) {
	if seg == "-" {
		return append(list, v), nil
	}
	idx, err := index(list, seg)
	if err != nil {
		return nil, err
	}
	list[idx] = v
	return list, nil
}

func index(list []any, seg string) (int, error) {
	idx, err := strconv.Atoi(unescape(seg))
	if err != nil {
		return 0, fmt.Errorf("list index %q: %w", seg, ErrInvalidIndex)
	}
	if idx < 0 || idx >= len(list) {
		return 0, fmt.Errorf("list index %d out of range [0,%d): %w", idx, len(list), ErrInvalidIndex)
	}
	return idx, nil
}
