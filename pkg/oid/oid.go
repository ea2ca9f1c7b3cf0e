// SPDX-License-Identifier: GPL-3.0-or-later

// Package oid implements an immutable SNMP object identifier.
//
// An OID keeps its arcs packed as fixed-width big-endian words inside a string.
// That makes OID values comparable with == (and usable as map keys), and makes
// byte-wise ordering identical to lexicographic ordering of the arc tuple.
package oid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const arcWidth = 4

var (
	ErrEmpty      = errors.New("empty OID")
	ErrInvalidArc = errors.New("invalid OID arc")
)

// OID is an ordered sequence of non-negative integers. The zero value is the empty OID.
type OID struct {
	enc string
}

// New builds an OID from arcs.
func New(arcs ...uint32) OID {
	buf := make([]byte, len(arcs)*arcWidth)
	for i, arc := range arcs {
		binary.BigEndian.PutUint32(buf[i*arcWidth:], arc)
	}
	return OID{enc: string(buf)}
}

// Parse parses a dotted OID. A single leading dot is allowed.
func Parse(s string) (OID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return OID{}, ErrEmpty
	}

	parts := strings.Split(s, ".")
	arcs := make([]uint32, 0, len(parts))

	for _, part := range parts {
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return OID{}, fmt.Errorf("%w '%s' in '%s'", ErrInvalidArc, part, s)
		}
		arcs = append(arcs, uint32(v))
	}

	return New(arcs...), nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) OID {
	o, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return o
}

func (o OID) Len() int { return len(o.enc) / arcWidth }

func (o OID) IsZero() bool { return o.enc == "" }

// Arc returns the i-th (0-based) arc.
func (o OID) Arc(i int) uint32 {
	return binary.BigEndian.Uint32([]byte(o.enc[i*arcWidth : (i+1)*arcWidth]))
}

// Arcs returns a copy of the arcs.
func (o OID) Arcs() []uint32 {
	arcs := make([]uint32, o.Len())
	for i := range arcs {
		arcs[i] = o.Arc(i)
	}
	return arcs
}

// Compare orders OIDs lexicographically by arc: -1, 0 or +1.
func (o OID) Compare(other OID) int {
	return strings.Compare(o.enc, other.enc)
}

// IsPrefixOf reports whether o is a (non-strict) prefix of other.
func (o OID) IsPrefixOf(other OID) bool {
	return strings.HasPrefix(other.enc, o.enc)
}

// Suffix returns the arcs of o past the first n arcs.
func (o OID) Suffix(n int) []uint32 {
	if n >= o.Len() {
		return nil
	}
	return OID{enc: o.enc[n*arcWidth:]}.Arcs()
}

// Append returns a new OID with arcs appended.
func (o OID) Append(arcs ...uint32) OID {
	return OID{enc: o.enc + New(arcs...).enc}
}

func (o OID) String() string {
	var sb strings.Builder
	for i := 0; i < o.Len(); i++ {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.FormatUint(uint64(o.Arc(i)), 10))
	}
	return sb.String()
}

// UnmarshalYAML allows OIDs in YAML documents as dotted strings.
func (o *OID) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}
