// SPDX-License-Identifier: GPL-3.0-or-later

package executor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
	"github.com/netdata/netdata/go/snmppoll/pkg/snmputils"
)

var errNonIncreasingOID = errors.New("OID not increasing")

// fetchScalars GETs oids in batches. A missing object is retried alone with
// GETNEXT, which finds e.g. the ".0" instance of a scalar declared without it.
func (e *Executor) fetchScalars(oids []oid.OID, pdus *[]gosnmp.SnmpPDU) []error {
	var errs []error

	for chunk := range slices.Chunk(oids, e.cfg.OIDBatchSize) {
		found, missing, err := e.getScalars(chunk)
		*pdus = append(*pdus, found...)
		if err != nil {
			errs = append(errs, err)
		}

		for _, o := range missing {
			next, err := e.getNextUnder(o)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if next != nil {
				*pdus = append(*pdus, *next)
			}
		}
	}

	return errs
}

// getScalars GETs oids in one request. SNMPv1 agents answer a request holding
// an unknown object with noSuchName for the whole PDU: that object is reported
// missing and the others are asked for again.
func (e *Executor) getScalars(oids []oid.OID) (found []gosnmp.SnmpPDU, missing []oid.OID, err error) {
	oids = slices.Clone(oids)

	for len(oids) > 0 {
		names := oidStrings(oids)

		pkt, err := e.client.Get(names)
		if err != nil {
			return found, missing, fmt.Errorf("GET %s: %w", strings.Join(names, ", "), err)
		}
		if i, ok := noSuchNameIndex(pkt, len(oids)); ok {
			e.Debugf("GET: device has no object '%s'", oids[i])
			missing = append(missing, oids[i])
			oids = slices.Delete(oids, i, i+1)
			continue
		}
		if err := packetError(pkt); err != nil {
			return found, missing, fmt.Errorf("GET %s: %w", strings.Join(names, ", "), err)
		}

		for i, pdu := range pkt.Variables {
			if !snmputils.IsPduMissing(pdu) {
				found = append(found, pdu)
				continue
			}
			requested, err := oid.Parse(pdu.Name)
			if err != nil && i < len(oids) {
				requested = oids[i]
			} else if err != nil {
				continue
			}
			missing = append(missing, requested)
		}
		return found, missing, nil
	}

	return found, missing, nil
}

// getNextUnder returns the successor of o only if it lies in o's subtree.
func (e *Executor) getNextUnder(o oid.OID) (*gosnmp.SnmpPDU, error) {
	pkt, err := e.client.GetNext([]string{o.String()})
	if err != nil {
		return nil, fmt.Errorf("GETNEXT %s: %w", o, err)
	}
	if err := packetError(pkt); err != nil {
		return nil, fmt.Errorf("GETNEXT %s: %w", o, err)
	}
	if len(pkt.Variables) == 0 || !snmputils.IsPduWithData(pkt.Variables[0]) {
		return nil, nil
	}

	pdu := pkt.Variables[0]
	got, err := oid.Parse(pdu.Name)
	if err != nil || !o.IsPrefixOf(got) {
		e.Debugf("no instance of '%s' found with GETNEXT", o)
		return nil, nil
	}
	return &pdu, nil
}

// fetchColumns walks the columns of a table with GETNEXT, OIDBatchSize columns per request.
func (e *Executor) fetchColumns(batch metricparse.TableBatch, pdus *[]gosnmp.SnmpPDU) []error {
	var errs []error

	for chunk := range slices.Chunk(batch.OIDs, e.cfg.OIDBatchSize) {
		rows, err := e.walkColumns(chunk)
		if err != nil {
			errs = append(errs, fmt.Errorf("table '%s::%s': %w", batch.Key.MIB, batch.Key.Table, err))
			continue
		}
		*pdus = append(*pdus, rows...)
	}

	return errs
}

// walkColumns sends one GETNEXT per step carrying the current position of
// every column still being walked. A column is done once the device returns
// an OID outside of it.
func (e *Executor) walkColumns(columns []oid.OID) ([]gosnmp.SnmpPDU, error) {
	var rows []gosnmp.SnmpPDU

	cursors := slices.Clone(columns)
	active := make([]int, len(columns))
	for i := range active {
		active[i] = i
	}

	for len(active) > 0 {
		names := make([]string, len(active))
		for i, col := range active {
			names[i] = cursors[col].String()
		}

		pkt, err := e.client.GetNext(names)
		if err != nil {
			return nil, fmt.Errorf("GETNEXT %s: %w", strings.Join(names, ", "), err)
		}
		if err := packetError(pkt); err != nil {
			return nil, fmt.Errorf("GETNEXT %s: %w", strings.Join(names, ", "), err)
		}

		var next []int
		for i, pdu := range pkt.Variables {
			if i >= len(active) {
				break
			}
			col := active[i]

			got, ok := e.successor(columns[col], cursors[col], pdu)
			if !ok {
				continue
			}
			if got.Compare(cursors[col]) <= 0 {
				if e.cfg.IgnoreNonIncreasingOID {
					e.Debugf("stopping walk of '%s': device returned '%s' after '%s'", columns[col], got, cursors[col])
					return rows, nil
				}
				return nil, fmt.Errorf("walking '%s': %w ('%s' after '%s')", columns[col], errNonIncreasingOID, got, cursors[col])
			}

			rows = append(rows, pdu)
			cursors[col] = got
			next = append(next, col)
		}
		active = next
	}

	return rows, nil
}

// fetchBulk walks the whole table subtree with GETBULK and keeps the rows of
// the batch columns.
func (e *Executor) fetchBulk(batch metricparse.TableBatch, pdus *[]gosnmp.SnmpPDU) error {
	root := batch.TableOID
	cursor := root

	for {
		pkt, err := e.client.GetBulk([]string{cursor.String()}, 0, e.cfg.MaxRepetitions)
		if err != nil {
			return fmt.Errorf("table '%s::%s': GETBULK %s: %w", batch.Key.MIB, batch.Key.Table, cursor, err)
		}
		if err := packetError(pkt); err != nil {
			return fmt.Errorf("table '%s::%s': GETBULK %s: %w", batch.Key.MIB, batch.Key.Table, cursor, err)
		}
		if len(pkt.Variables) == 0 {
			return nil
		}

		for _, pdu := range pkt.Variables {
			got, ok := e.successor(root, cursor, pdu)
			if !ok {
				return nil
			}
			if got.Compare(cursor) <= 0 {
				if e.cfg.IgnoreNonIncreasingOID {
					e.Debugf("stopping bulk walk of '%s': device returned '%s' after '%s'", root, got, cursor)
					return nil
				}
				return fmt.Errorf("table '%s::%s': %w ('%s' after '%s')", batch.Key.MIB, batch.Key.Table, errNonIncreasingOID, got, cursor)
			}
			cursor = got

			if slices.ContainsFunc(batch.OIDs, func(column oid.OID) bool { return column.IsPrefixOf(got) }) {
				*pdus = append(*pdus, pdu)
			}
		}
	}
}

// successor reports whether pdu continues the walk of subtree: it must carry
// data and lie strictly under subtree.
func (e *Executor) successor(subtree, cursor oid.OID, pdu gosnmp.SnmpPDU) (oid.OID, bool) {
	if !snmputils.IsPduWithData(pdu) {
		return oid.OID{}, false
	}
	got, err := oid.Parse(pdu.Name)
	if err != nil {
		e.Debugf("walk of '%s' stopped at malformed OID '%s' (after '%s')", subtree, pdu.Name, cursor)
		return oid.OID{}, false
	}
	if !subtree.IsPrefixOf(got) || got.Len() == subtree.Len() {
		return oid.OID{}, false
	}
	return got, true
}

func packetError(pkt *gosnmp.SnmpPacket) error {
	if pkt == nil {
		return errors.New("empty response")
	}
	if pkt.Error != gosnmp.NoError {
		return fmt.Errorf("device returned error status '%v' at index %d", pkt.Error, pkt.ErrorIndex)
	}
	return nil
}

// noSuchNameIndex returns the 0-based position of the varbind a noSuchName
// error status points at.
func noSuchNameIndex(pkt *gosnmp.SnmpPacket, n int) (int, bool) {
	if pkt == nil || pkt.Error != gosnmp.NoSuchName {
		return 0, false
	}
	if i := int(pkt.ErrorIndex); i >= 1 && i <= n {
		return i - 1, true
	}
	return 0, false
}

func oidStrings(oids []oid.OID) []string {
	names := make([]string, len(oids))
	for i, o := range oids {
		names[i] = o.String()
	}
	return names
}
