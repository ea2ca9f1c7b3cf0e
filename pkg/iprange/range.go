// SPDX-License-Identifier: GPL-3.0-or-later

// Package iprange parses the address forms accepted by
// network_address and iterates the host addresses they cover.
package iprange

import (
	"fmt"
	"iter"
	"math"
	"math/big"
	"net/netip"
)

// Range is an inclusive range of addresses of a single family.
type Range struct {
	start netip.Addr
	end   netip.Addr
}

// New returns a Range, or false if start and end are of different families
// or start > end.
func New(start, end netip.Addr) (Range, bool) {
	if !start.IsValid() || !end.IsValid() {
		return Range{}, false
	}
	start, end = start.Unmap(), end.Unmap()
	if start.Is4() != end.Is4() || start.Compare(end) > 0 {
		return Range{}, false
	}
	return Range{start: start, end: end}, true
}

func (r Range) Start() netip.Addr { return r.start }
func (r Range) End() netip.Addr   { return r.end }

func (r Range) String() string {
	if r.start == r.end {
		return r.start.String()
	}
	return fmt.Sprintf("%s-%s", r.start, r.end)
}

func (r Range) Contains(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.Is4() != r.start.Is4() {
		return false
	}
	return addr.Compare(r.start) >= 0 && addr.Compare(r.end) <= 0
}

// Size returns the number of addresses, saturating at math.MaxUint64.
func (r Range) Size() uint64 {
	s, e := r.start.As16(), r.end.As16()
	n := new(big.Int).Sub(new(big.Int).SetBytes(e[:]), new(big.Int).SetBytes(s[:]))
	n.Add(n, big.NewInt(1))
	if !n.IsUint64() {
		return math.MaxUint64
	}
	return n.Uint64()
}

// Hosts iterates the addresses of the range in ascending order.
func (r Range) Hosts() iter.Seq[netip.Addr] {
	return func(yield func(netip.Addr) bool) {
		if !r.start.IsValid() {
			return
		}
		for addr := r.start; addr.IsValid() && addr.Compare(r.end) <= 0; addr = addr.Next() {
			if !yield(addr) {
				return
			}
		}
	}
}
