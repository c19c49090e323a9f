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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSReader_Options(t *testing.T) {
	opts := NATSReaderOptions{}
	for _, o := range []ReaderOptionNATS{
		WithNATSURL("nats://example:4222"),
		WithNATSQueue("workers"),
		WithNATSMaxMessages(10),
		WithNATSIdleTimeout(time.Second),
	} {
		o(&opts)
	}
	assert.Equal(t, "nats://example:4222", opts.URL)
	assert.Equal(t, "workers", opts.Queue)
	assert.Equal(t, int64(10), opts.MaxMessages)
	assert.Equal(t, time.Second, opts.IdleTimeout)
}

func TestNewNATSReader_ConnectError(t *testing.T) {
	_, err := NewNATSReader("events", WithNATSURL("nats://127.0.0.1:1"))
	require.Error(t, err)
	var re *ReaderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "connect", re.Op)
}
