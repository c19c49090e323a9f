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
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

var ipv4Pattern = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

var cidrPattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})/(\d{1,2})$`)

// IsIPv4 reports whether s is a dotted-quad IPv4 address.
func IsIPv4(s string) bool {
	return ipv4Pattern.MatchString(s)
}

// IsCIDR reports whether s is an IPv4 CIDR block such as 10.0.0.0/8.
func IsCIDR(s string) bool {
	_, err := ParseCIDR(s)
	return err == nil
}

// ParseCIDR parses an IPv4 CIDR block.
func ParseCIDR(s string) (*net.IPNet, error) {
	if !cidrPattern.MatchString(s) {
		return nil, fmt.Errorf("invalid CIDR: %s", s)
	}
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR: %s: %w", s, err)
	}
	return ipnet, nil
}

// CIDRContains reports whether ip lies in cidr, network and broadcast addresses included.
func CIDRContains(cidr, ip string) bool {
	ipnet, err := ParseCIDR(cidr)
	if err != nil || !IsIPv4(ip) {
		return false
	}
	return ipnet.Contains(net.ParseIP(ip))
}

// IPToInt packs a dotted-quad address into a signed 32-bit integer, as (a<<24)+(b<<16)+(c<<8)+d.
func IPToInt(ip string) (int32, error) {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid IP address: %s", ip)
	}
	var n uint32
	for _, p := range parts {
		b, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid IP address: %s", ip)
		}
		n = n<<8 | uint32(b)
	}
	return int32(n), nil
}

// IPFromInt formats a packed address back to dotted-quad form.
func IPFromInt(n int32) string {
	u := uint32(n)
	return fmt.Sprintf("%d.%d.%d.%d", u>>24, u>>16&0xff, u>>8&0xff, u&0xff)
}
