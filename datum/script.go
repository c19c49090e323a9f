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

package datum

import (
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// DefaultScriptTimeout bounds a single script evaluation.
const DefaultScriptTimeout = time.Second

// Script evaluates a JavaScript expression with the record bound to the global "record".
// The completion value of the script is the result.
type Script struct {
	Source  string
	Timeout time.Duration

	program *goja.Program
	vms     sync.Pool
}

// NewScript compiles source. A syntax error is a construction error.
func NewScript(source string) (*Script, error) {
	program, err := goja.Compile("script", source, true)
	if err != nil {
		return nil, core.NewError(core.ErrConstruction, "Script", "invalid script", err)
	}
	s := &Script{Source: source, Timeout: DefaultScriptTimeout, program: program}
	s.vms.New = func() any { return goja.New() }
	return s, nil
}

func (c *Script) Name() string { return "Script" }

// ComputeDatum implements core.DatumCompute
func (c *Script) ComputeDatum(d core.Datum) (res any, err error) {
	rt := c.vms.Get().(*goja.Runtime)
	defer func() {
		if r := recover(); r != nil {
			err = core.Computef("Script", "panic during execution: %v", r)
			return
		}
		rt.ClearInterrupt()
		c.vms.Put(rt)
	}()

	if c.Timeout > 0 {
		timer := time.AfterFunc(c.Timeout, func() { rt.Interrupt("execution timeout") })
		defer timer.Stop()
	}
	if err := rt.Set("record", d.Native()); err != nil {
		return nil, core.NewError(core.ErrCompute, "Script", "cannot bind record", err)
	}
	v, err := rt.RunProgram(c.program)
	if err != nil {
		return nil, core.NewError(core.ErrCompute, "Script", "script failed", err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return value.Normalize(v.Export()), nil
}

// EncodePayload returns the source, or {source, timeout} when the timeout is not the default.
func (c *Script) EncodePayload(core.Encoder) (any, error) {
	if c.Timeout == DefaultScriptTimeout {
		return c.Source, nil
	}
	return value.MapOf("source", c.Source, "timeout", c.Timeout.String()), nil
}
