// SPDX-License-Identifier: GPL-3.0-or-later

package iprange

import (
	"errors"
	"fmt"
	"math/bits"
	"net/netip"
	"strings"
)

var (
	ErrInvalidSyntax        = errors.New("invalid IP range syntax")
	ErrInvalidRange         = errors.New("invalid IP range")
	ErrMixedAddressFamilies = errors.New("mixed address families in range")
)

// Parse parses one of:
//   - "192.0.2.1"
//   - "192.0.2.1-192.0.2.10"
//   - "192.0.2.0/24" (network and broadcast excluded below /31, /127 for IPv6)
//   - "192.0.2.0/255.255.255.0"
func Parse(s string) (Range, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch {
	case s == "":
		return Range{}, fmt.Errorf("%w: empty", ErrInvalidSyntax)
	case strings.Contains(s, "-"):
		return parseStartEnd(s)
	case strings.Contains(s, "/"):
		addr, mask, _ := strings.Cut(s, "/")
		if strings.Contains(mask, ".") {
			return parseSubnetMask(addr, mask)
		}
		return parseCIDR(s)
	default:
		addr, err := ParseAddr(s)
		if err != nil {
			return Range{}, err
		}
		r, _ := New(addr, addr)
		return r, nil
	}
}

// ParseAddr parses a single host address.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %v", ErrInvalidSyntax, err)
	}
	return addr.Unmap(), nil
}

func parseStartEnd(s string) (Range, error) {
	first, last, _ := strings.Cut(s, "-")

	start, err := ParseAddr(first)
	if err != nil {
		return Range{}, err
	}
	end, err := ParseAddr(last)
	if err != nil {
		return Range{}, err
	}
	if start.Is4() != end.Is4() {
		return Range{}, ErrMixedAddressFamilies
	}

	r, ok := New(start, end)
	if !ok {
		return Range{}, fmt.Errorf("%w: start address is greater than end address", ErrInvalidRange)
	}
	return r, nil
}

func parseCIDR(s string) (Range, error) {
	prefix, err := netip.ParsePrefix(s)
	if err != nil {
		return Range{}, fmt.Errorf("%w: %v", ErrInvalidSyntax, err)
	}
	prefix = prefix.Masked()

	start, end := prefix.Addr(), lastAddr(prefix)

	if prefix.Bits() < start.BitLen()-1 {
		start, end = start.Next(), end.Prev()
	}

	r, _ := New(start, end)
	return r, nil
}

func parseSubnetMask(addr, mask string) (Range, error) {
	m, err := netip.ParseAddr(mask)
	if err != nil || !m.Is4() {
		return Range{}, fmt.Errorf("%w: invalid subnet mask '%s'", ErrInvalidSyntax, mask)
	}

	b := m.As4()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	ones := bits.LeadingZeros32(^v)
	if v<<ones != 0 {
		return Range{}, fmt.Errorf("%w: subnet mask '%s' is not contiguous", ErrInvalidSyntax, mask)
	}

	return parseCIDR(fmt.Sprintf("%s/%d", addr, ones))
}

func lastAddr(p netip.Prefix) netip.Addr {
	a := p.Addr().AsSlice()
	for i := p.Bits(); i < len(a)*8; i++ {
		a[i/8] |= 0x80 >> (i % 8)
	}
	last, _ := netip.AddrFromSlice(a)
	return last
}
