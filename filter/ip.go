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

package filter

import (
	"github.com/aaronlmathis/goparsnip/core"
	"github.com/aaronlmathis/goparsnip/value"
)

// IsIP matches IPv4 address strings.
type IsIP struct{}

func (IsIP) Name() string { return "IsIP" }

// Match implements core.ValueFilter
func (IsIP) Match(v any) bool {
	s, ok := v.(string)
	return ok && value.IsIPv4(s)
}

// IsCidr matches IPv4 CIDR block strings.
type IsCidr struct{}

func (IsCidr) Name() string { return "IsCidr" }

// Match implements core.ValueFilter
func (IsCidr) Match(v any) bool {
	s, ok := v.(string)
	return ok && value.IsCIDR(s)
}

// IpContainedIn matches addresses inside a CIDR block.
type IpContainedIn struct {
	Cidr string
}

// NewIpContainedIn creates an IpContainedIn filter; cidr must be a valid block.
func NewIpContainedIn(cidr string) (*IpContainedIn, error) {
	if !value.IsCIDR(cidr) {
		return nil, core.Constructionf("IpContainedIn", "invalid CIDR: %s", cidr)
	}
	return &IpContainedIn{Cidr: cidr}, nil
}

func (f *IpContainedIn) Name() string     { return "IpContainedIn" }
func (f *IpContainedIn) SimpleValue() any { return f.Cidr }

// Match implements core.ValueFilter
func (f *IpContainedIn) Match(v any) bool {
	s, ok := v.(string)
	return ok && value.CIDRContains(f.Cidr, s)
}

// CidrContains matches CIDR blocks containing an address.
type CidrContains struct {
	IP string
}

// NewCidrContains creates a CidrContains filter; ip must be a valid IPv4 address.
func NewCidrContains(ip string) (*CidrContains, error) {
	if !value.IsIPv4(ip) {
		return nil, core.Constructionf("CidrContains", "invalid IP: %s", ip)
	}
	return &CidrContains{IP: ip}, nil
}

func (f *CidrContains) Name() string     { return "CidrContains" }
func (f *CidrContains) SimpleValue() any { return f.IP }

// Match implements core.ValueFilter
func (f *CidrContains) Match(v any) bool {
	s, ok := v.(string)
	return ok && value.CIDRContains(s, f.IP)
}
