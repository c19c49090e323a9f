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
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/decode"
	"github.com/aaronlmathis/goparsnip/value"
)

// As converts its input to a named type such as "Long" or "Date".
type As struct {
	Type string
}

// NewAs creates an As compute. Type names are case-insensitive and stored in canonical form.
func NewAs(typeName string) (*As, error) {
	name, err := value.CanonicalType(typeName)
	if err != nil {
		return nil, core.NewError(core.ErrConstruction, "As", "unknown type", err)
	}
	return &As{Type: name}, nil
}

func (c *As) Name() string     { return "As" }
func (c *As) SimpleValue() any { return c.Type }

// Compute implements core.ValueCompute
func (c *As) Compute(v any) (any, error) {
	return value.ConvertTo(v, c.Type)
}

// Decode parses the string form of its input with a decoder. Decoder failures are returned.
type Decode struct {
	Decoder core.ValueDecoder
}

func (c *Decode) Name() string { return "Decode" }

// Compute implements core.ValueCompute
func (c *Decode) Compute(v any) (any, error) {
	return c.Decoder.Decode(value.String(v))
}

// EncodePayload returns the decoder name for standard decoders and the decoder document otherwise.
func (c *Decode) EncodePayload(enc core.Encoder) (any, error) {
	if s, ok := c.Decoder.(decode.Standard); ok {
		return string(s), nil
	}
	return enc.EncodeNode(c.Decoder)
}

// DecodeInstant parses timestamps with a date pattern such as "yyyy-MM-dd HH:mm:ss.SSS".
// Unparseable input yields nil.
type DecodeInstant struct {
	Format  string
	decoder *decode.InstantDecoder
}

// NewDecodeInstant creates a DecodeInstant compute
func NewDecodeInstant(format string) (*DecodeInstant, error) {
	d, err := decode.NewInstantDecoder(format)
	if err != nil {
		return nil, err
	}
	return &DecodeInstant{Format: format, decoder: d}, nil
}

func (c *DecodeInstant) Name() string     { return "DecodeInstant" }
func (c *DecodeInstant) SimpleValue() any { return c.Format }

// Compute implements core.ValueCompute
func (c *DecodeInstant) Compute(v any) (any, error) {
	t, err := c.decoder.DecodeTime(value.String(v))
	if err != nil {
		return nil, nil
	}
	return t, nil
}

// IpToInt packs a dotted-quad address into a signed 32-bit integer. Invalid input yields nil.
type IpToInt struct{}

func (IpToInt) Name() string { return "IpToInt" }

// Compute implements core.ValueCompute
func (IpToInt) Compute(v any) (any, error) {
	n, err := value.IPToInt(value.String(v))
	if err != nil {
		return nil, nil
	}
	return int64(n), nil
}

// IpFromInt formats a packed address as a dotted quad. Non-numeric input yields nil.
type IpFromInt struct{}

func (IpFromInt) Name() string { return "IpFromInt" }

// Compute implements core.ValueCompute
func (IpFromInt) Compute(v any) (any, error) {
	n, ok := value.ToNumberAs(v, value.KindInt).(int64)
	if !ok {
		return nil, nil
	}
	return value.IPFromInt(int32(n)), nil
}
