// SPDX-License-Identifier: GPL-3.0-or-later

package metricparse

import (
	"cmp"
	"slices"

	"github.com/netdata/netdata/go/snmppoll/pkg/mibs"
	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
)

// Forced types accepted in "forced_type".
const (
	ForcedTypeGauge          = "gauge"
	ForcedTypeCounter        = "counter"
	ForcedTypeMonotonicCount = "monotonic_count"
)

// ParsedMetric is either a *ScalarMetric or a *TableMetric.
type ParsedMetric interface {
	MetricName() string
	isParsedMetric()
}

// ScalarMetric expects one value per poll.
type ScalarMetric struct {
	Name string
	// MIB is empty for metrics declared by raw OID.
	MIB        string
	Tags       []string
	ForcedType string
	// EnforceScalar drops the metric when the device returns more than one
	// row for it. Otherwise the first row is reported.
	EnforceScalar bool
}

// TableMetric expects one value per table row.
type TableMetric struct {
	Name       string
	MIB        string
	IndexTags  []IndexTag
	ColumnTags []ColumnTag
	ForcedType string
}

func (m *ScalarMetric) MetricName() string { return m.Name }
func (m *TableMetric) MetricName() string  { return m.Name }
func (*ScalarMetric) isParsedMetric()      {}
func (*TableMetric) isParsedMetric()       {}

// IndexTag takes its value from the Index-th (1-based) arc of the row index.
type IndexTag struct {
	Tag   string
	Index int
}

// ColumnTag takes its value from the same row of another column.
type ColumnTag struct {
	Tag    string
	Column string
}

// IndexMapping translates raw index arcs into display values.
type IndexMapping struct {
	Name    string
	Index   int
	Mapping map[int]string
}

type TableBatchKey struct {
	MIB   string
	Table string
}

// TableBatch is the set of column OIDs fetched together for one table.
type TableBatch struct {
	Key      TableBatchKey
	TableOID oid.OID
	OIDs     []oid.OID
}

func (b TableBatch) withOIDs(oids ...oid.OID) TableBatch {
	merged := slices.Clone(b.OIDs)
	for _, o := range oids {
		if !slices.Contains(merged, o) {
			merged = append(merged, o)
		}
	}
	b.OIDs = merged
	return b
}

type TableBatches map[TableBatchKey]TableBatch

// merge returns a new TableBatches holding every batch of both sides. Batches
// with the same key are combined, keeping each OID once.
func (tb TableBatches) merge(other TableBatches) TableBatches {
	merged := make(TableBatches, len(tb)+len(other))
	for k, b := range tb {
		merged[k] = b.withOIDs()
	}
	for k, b := range other {
		if cur, ok := merged[k]; ok {
			merged[k] = cur.withOIDs(b.OIDs...)
		} else {
			merged[k] = b.withOIDs()
		}
	}
	return merged
}

// sorted returns the batches ordered by MIB and table name.
func (tb TableBatches) sorted() []TableBatch {
	batches := make([]TableBatch, 0, len(tb))
	for _, b := range tb {
		batches = append(batches, b)
	}
	slices.SortFunc(batches, func(a, b TableBatch) int {
		return cmp.Or(cmp.Compare(a.Key.MIB, b.Key.MIB), cmp.Compare(a.Key.Table, b.Key.Table))
	})
	return batches
}

// metricParseResult is what parsing one declaration (or one of its tags) yields.
type metricParseResult struct {
	oidsToFetch   []oid.OID
	oidsToResolve map[string]oid.OID
	tableBatches  TableBatches
	indexMappings []IndexMapping
	parsedMetrics []ParsedMetric
	symbols       map[string]mibs.Symbol
	warnings      []string
}

func (r *metricParseResult) addResolve(name string, o oid.OID) {
	if r.oidsToResolve == nil {
		r.oidsToResolve = make(map[string]oid.OID)
	}
	r.oidsToResolve[name] = o
}

func (r *metricParseResult) addSymbol(sym *mibs.Symbol) {
	if sym == nil {
		return
	}
	if r.symbols == nil {
		r.symbols = make(map[string]mibs.Symbol)
	}
	r.symbols[sym.QualifiedName()] = *sym
}

// absorb folds other into r.
func (r *metricParseResult) absorb(other metricParseResult) {
	r.oidsToFetch = append(r.oidsToFetch, other.oidsToFetch...)
	for name, o := range other.oidsToResolve {
		r.addResolve(name, o)
	}
	r.tableBatches = r.tableBatches.merge(other.tableBatches)
	r.indexMappings = append(r.indexMappings, other.indexMappings...)
	r.parsedMetrics = append(r.parsedMetrics, other.parsedMetrics...)
	for _, sym := range other.symbols {
		r.addSymbol(&sym)
	}
	r.warnings = append(r.warnings, other.warnings...)
}
