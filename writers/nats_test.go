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

package writers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNATSWriter_Subject(t *testing.T) {
	w := &NATSWriter{subject: "events"}
	assert.Equal(t, "events", w.Subject(rec("kind", "login")))

	w.opts.SubjectField = "/meta/kind"
	assert.Equal(t, "events.login", w.Subject(rec("meta", rec("kind", "login"))))
	assert.Equal(t, "events", w.Subject(rec("other", 1)))
}
