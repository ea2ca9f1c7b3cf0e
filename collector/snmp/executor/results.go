// SPDX-License-Identifier: GPL-3.0-or-later

package executor

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// Row is one value of a metric. Index is empty for scalars.
type Row struct {
	Index []string
	PDU   gosnmp.SnmpPDU
}

// Results maps a metric name to its rows, keyed by the dotted row index.
type Results map[string]map[string]Row

func (r Results) add(name string, index []string, pdu gosnmp.SnmpPDU) {
	rows, ok := r[name]
	if !ok {
		rows = make(map[string]Row)
		r[name] = rows
	}
	rows[IndexKey(index)] = Row{Index: index, PDU: pdu}
}

// Rows returns the rows of name ordered by index.
func (r Results) Rows(name string) []Row {
	rows := make([]Row, 0, len(r[name]))
	for _, row := range r[name] {
		rows = append(rows, row)
	}
	slices.SortFunc(rows, func(a, b Row) int { return compareIndex(a.Index, b.Index) })
	return rows
}

// Lookup returns the row of name at index.
func (r Results) Lookup(name string, index []string) (Row, bool) {
	row, ok := r[name][IndexKey(index)]
	return row, ok
}

func IndexKey(index []string) string {
	return strings.Join(index, ".")
}

// compareIndex orders indexes arc by arc, numerically when both arcs are numbers.
func compareIndex(a, b []string) int {
	for i := range min(len(a), len(b)) {
		x, errX := strconv.ParseUint(a[i], 10, 64)
		y, errY := strconv.ParseUint(b[i], 10, 64)
		var c int
		if errX == nil && errY == nil {
			c = cmp.Compare(x, y)
		} else {
			c = cmp.Compare(a[i], b[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
