// SPDX-License-Identifier: GPL-3.0-or-later

package mibs

import (
	"github.com/gosnmp/gosnmp"
)

var syntaxTypes = map[string][]gosnmp.Asn1BER{
	"Integer":          {gosnmp.Integer},
	"Integer32":        {gosnmp.Integer},
	"OctetString":      {gosnmp.OctetString},
	"ObjectIdentifier": {gosnmp.ObjectIdentifier},
	"IpAddress":        {gosnmp.IPAddress},
	"Counter32":        {gosnmp.Counter32},
	"Gauge32":          {gosnmp.Gauge32, gosnmp.Uinteger32},
	"Unsigned32":       {gosnmp.Gauge32, gosnmp.Uinteger32},
	"TimeTicks":        {gosnmp.TimeTicks},
	"Opaque":           {gosnmp.Opaque, gosnmp.OpaqueFloat, gosnmp.OpaqueDouble},
	"Counter64":        {gosnmp.Counter64},
}

// Accepts reports whether a value of type t satisfies the symbol's declared
// syntax. Symbols without a (known) syntax accept anything.
func (s Symbol) Accepts(t gosnmp.Asn1BER) bool {
	types, ok := syntaxTypes[s.Syntax]
	if !ok {
		return true
	}
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}
