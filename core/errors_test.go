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
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestError_Kinds tests that wrapped engine errors match their sentinels
func TestError_Kinds(t *testing.T) {
	err := fmt.Errorf("field x: %w", Computef("Divide", "division by zero"))
	assert.True(t, IsCompute(err))
	assert.False(t, IsDecode(err))
	assert.Equal(t, "field x: compute error: Divide: division by zero", err.Error())

	cause := errors.New("boom")
	err = NewError(ErrDecode, "", "bad document", cause)
	assert.True(t, IsDecode(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "decode error: bad document: boom", err.Error())
}

// TestDataSet_Helpers tests compaction and sequence conversion
func TestDataSet_Helpers(t *testing.T) {
	ds := DataSet{NewDatum("a", 1), nil, NewDatum("a", 2)}
	compact := ds.Compact()
	assert.Len(t, compact, 2)
	assert.Equal(t, compact, Collect(compact.All()))

	var first Datum
	for d := range ds.All() {
		first = d
		break
	}
	assert.Equal(t, int64(1), first.Value("a"))
}

// TestErrorStrategy_Names tests parsing and text round trips of strategy names
func TestErrorStrategy_Names(t *testing.T) {
	for input, want := range map[string]ErrorStrategy{
		"":               FailFast,
		"fail-fast":      FailFast,
		"SKIP":           SkipErrors,
		"skip_errors":    SkipErrors,
		" collect ":      CollectErrors,
		"Collect-Errors": CollectErrors,
	} {
		got, err := ParseErrorStrategy(input)
		assert.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseErrorStrategy("retry")
	assert.True(t, IsConstruction(err))

	text, err := CollectErrors.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "collect_errors", string(text))
	var s ErrorStrategy
	assert.NoError(t, s.UnmarshalText(text))
	assert.Equal(t, CollectErrors, s)

	_, err = ErrorStrategy(7).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "ErrorStrategy(7)", ErrorStrategy(7).String())
}
