// SPDX-License-Identifier: GPL-3.0-or-later

package metricparse

import (
	"fmt"
	"slices"

	"github.com/gosnmp/gosnmp"

	"github.com/netdata/netdata/go/snmppoll/logger"
	"github.com/netdata/netdata/go/snmppoll/pkg/mibs"
	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
	"github.com/netdata/netdata/go/snmppoll/pkg/oidtrie"
)

var log = logger.New().With("component", "snmp/metricparse")

type Options struct {
	// Lookup resolves symbolic names. Only needed when declarations use them.
	Lookup SymbolLookup
	// Resolver receives the OID and index registrations. A new one is created when nil.
	Resolver *oidtrie.Resolver
	// BulkThreshold is the column count above which a table is fetched with
	// GETBULK. Zero disables GETBULK.
	BulkThreshold int
	SNMPVersion   gosnmp.SnmpVersion
}

// Plan is the outcome of parsing a metrics section: what to fetch, how, and
// how to report it.
type Plan struct {
	Resolver *oidtrie.Resolver

	// ScalarOIDs are fetched with GET.
	ScalarOIDs []oid.OID
	// NextBatches are walked column by column with GETNEXT.
	NextBatches []TableBatch
	// BulkBatches are walked from the table root with GETBULK.
	BulkBatches []TableBatch

	Metrics []ParsedMetric
	// Symbols holds the MIB definitions of every name that was looked up in
	// the MIB view, keyed by "MIB::name".
	Symbols  map[string]mibs.Symbol
	Warnings []string
}

// Symbol returns the MIB definition of mib::name if it was looked up.
func (p *Plan) Symbol(mib, name string) (mibs.Symbol, bool) {
	sym, ok := p.Symbols[mibs.Symbol{MIB: mib, Name: name}.QualifiedName()]
	return sym, ok
}

// Parse turns metric declarations into a fetch Plan and registers every name
// and index mapping it finds into the resolver.
func Parse(metrics []MetricConfig, opts Options) (*Plan, error) {
	p := &parser{lookup: opts.Lookup}

	var all metricParseResult
	for i, m := range metrics {
		decl, err := m.toDeclaration()
		if err != nil {
			return nil, fmt.Errorf("metrics[%d]: %w", i, err)
		}
		res, err := decl.parse(p)
		if err != nil {
			return nil, fmt.Errorf("metrics[%d]: %w", i, err)
		}
		all.absorb(res)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = oidtrie.New()
	}
	for _, name := range sortedNames(all.oidsToResolve) {
		resolver.Register(all.oidsToResolve[name], name)
	}
	for _, im := range all.indexMappings {
		resolver.RegisterIndex(im.Name, im.Index, im.Mapping)
	}

	plan := &Plan{
		Resolver: resolver,
		Metrics:  all.parsedMetrics,
		Symbols:  all.symbols,
		Warnings: all.warnings,
	}

	for _, o := range all.oidsToFetch {
		plan.ScalarOIDs = appendUnique(plan.ScalarOIDs, o)
	}

	for _, batch := range all.tableBatches.sorted() {
		switch {
		case len(batch.OIDs) == 0:
			plan.ScalarOIDs = appendUnique(plan.ScalarOIDs, batch.TableOID)
		case ShouldQueryInBulk(len(batch.OIDs), opts.BulkThreshold, opts.SNMPVersion):
			plan.BulkBatches = append(plan.BulkBatches, batch)
		default:
			plan.NextBatches = append(plan.NextBatches, batch)
		}
	}

	for _, w := range plan.Warnings {
		log.Warning(w)
	}

	return plan, nil
}

// ShouldQueryInBulk reports whether a table with n column OIDs is fetched
// with GETBULK. SNMPv1 has no GETBULK.
func ShouldQueryInBulk(n, threshold int, version gosnmp.SnmpVersion) bool {
	return threshold > 0 && n > threshold && version != gosnmp.Version1
}

func appendUnique(oids []oid.OID, o oid.OID) []oid.OID {
	if slices.Contains(oids, o) {
		return oids
	}
	return append(oids, o)
}

func sortedNames(m map[string]oid.OID) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
