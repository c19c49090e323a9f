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

package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAddress indicates an invalid pointer, a non-container intermediate or a bad list index
	ErrAddress = errors.New("address error")

	// ErrDecode indicates an unknown type name or a malformed document
	ErrDecode = errors.New("decode error")

	// ErrCompute indicates a type mismatch, a failed comparison or an invalid arithmetic operand
	ErrCompute = errors.New("compute error")

	// ErrConstruction indicates an invalid operator configuration
	ErrConstruction = errors.New("construction error")
)

// Error represents a categorized engine error
type Error struct {
	// Kind is one of the sentinel errors above
	Kind error

	// Op names the operation or operator that failed
	Op string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, msg)
}

// Unwrap returns the kind and the underlying error
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError creates a new engine error of the given kind
func NewError(kind error, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Addressf creates an address error
func Addressf(op, format string, args ...any) *Error {
	return NewError(ErrAddress, op, fmt.Sprintf(format, args...), nil)
}

// Decodef creates a decode error
func Decodef(op, format string, args ...any) *Error {
	return NewError(ErrDecode, op, fmt.Sprintf(format, args...), nil)
}

// Computef creates a compute error
func Computef(op, format string, args ...any) *Error {
	return NewError(ErrCompute, op, fmt.Sprintf(format, args...), nil)
}

// Constructionf creates a construction error
func Constructionf(op, format string, args ...any) *Error {
	return NewError(ErrConstruction, op, fmt.Sprintf(format, args...), nil)
}

// IsAddress checks if an error is an address error
func IsAddress(err error) bool {
	return errors.Is(err, ErrAddress)
}

// IsDecode checks if an error is a decode error
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsCompute checks if an error is a compute error
func IsCompute(err error) bool {
	return errors.Is(err, ErrCompute)
}

// IsConstruction checks if an error is a construction error
func IsConstruction(err error) bool {
	return errors.Is(err, ErrConstruction)
}
