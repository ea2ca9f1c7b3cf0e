// SPDX-License-Identifier: GPL-3.0-or-later

package metricparse

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
)

func (m tableMetric) parse(p *parser) (metricParseResult, error) {
	table, err := p.parseSymbol(m.mib, m.table)
	if err != nil {
		return metricParseResult{}, err
	}

	var res metricParseResult
	res.addResolve(table.name, table.oid)
	res.addSymbol(table.mibSymbol)

	batch := TableBatch{
		Key:      TableBatchKey{MIB: m.mib, Table: table.name},
		TableOID: table.oid,
	}

	if len(m.tags) == 0 {
		res.warnings = append(res.warnings, fmt.Sprintf("table metric '%s::%s' has no metric_tags: "+
			"rows cannot be told apart and only one row will be reported per poll", m.mib, table.name))
	}

	var (
		indexTags  []IndexTag
		columnTags []ColumnTag
	)

	// Tags go first: the index mappings they carry have to be known before any reply is resolved.
	for _, t := range m.tags {
		tag, err := p.parseTableMetricTag(m.mib, t)
		if err != nil {
			return metricParseResult{}, fmt.Errorf("table '%s::%s': %w", m.mib, table.name, err)
		}

		res.absorb(tag.result)
		batch = batch.withOIDs(tag.sameTableOIDs...)
		indexTags = append(indexTags, tag.indexTags...)
		columnTags = append(columnTags, tag.columnTags...)

		for _, index := range sortedKeys(tag.indexMappings) {
			mapping := tag.indexMappings[index]
			for _, s := range m.symbols {
				res.indexMappings = append(res.indexMappings, IndexMapping{Name: s.Name, Index: index, Mapping: mapping})
			}
			for _, other := range m.tags {
				if other.Column != nil {
					res.indexMappings = append(res.indexMappings, IndexMapping{Name: other.Column.Name, Index: index, Mapping: mapping})
				}
			}
		}
	}

	for _, s := range m.symbols {
		sym, err := p.parseSymbol(m.mib, s)
		if err != nil {
			return metricParseResult{}, fmt.Errorf("table '%s::%s': %w", m.mib, table.name, err)
		}

		res.addResolve(sym.name, sym.oid)
		res.addSymbol(sym.mibSymbol)
		batch = batch.withOIDs(sym.oid)

		res.parsedMetrics = append(res.parsedMetrics, &TableMetric{
			Name:       sym.name,
			MIB:        m.mib,
			IndexTags:  slices.Clone(indexTags),
			ColumnTags: slices.Clone(columnTags),
			ForcedType: m.forcedType,
		})
	}

	res.tableBatches = res.tableBatches.merge(TableBatches{batch.Key: batch})

	return res, nil
}

type parsedTableMetricTag struct {
	result        metricParseResult
	sameTableOIDs []oid.OID
	indexTags     []IndexTag
	columnTags    []ColumnTag
	indexMappings map[int]map[int]string
}

func (p *parser) parseTableMetricTag(mib string, t MetricTagConfig) (parsedTableMetricTag, error) {
	if t.isStatic() {
		return parsedTableMetricTag{}, ConfigErrorf("table metric tags must specify a tag and an index or a column, got '%s'", t.Static)
	}
	if t.Tag == "" {
		return parsedTableMetricTag{}, ConfigErrorf("when specifying metric tags, you must specify a tag")
	}

	switch {
	case t.Index != 0:
		return parseIndexMetricTag(t)
	case t.Column != nil:
		tagMIB := cmp.Or(t.MIB, mib)
		if t.Table != nil {
			return p.parseOtherTableColumnMetricTag(tagMIB, t)
		}
		if tagMIB != mib {
			return parsedTableMetricTag{}, ConfigErrorf("tag '%s': when tagging from a different MIB (%s), the table must be specified", t.Tag, tagMIB)
		}
		return p.parseColumnMetricTag(mib, t)
	default:
		return parsedTableMetricTag{}, ConfigErrorf("tag '%s': when specifying metric tags, you must specify either an index or a column", t.Tag)
	}
}

func parseIndexMetricTag(t MetricTagConfig) (parsedTableMetricTag, error) {
	if t.Index < 1 {
		return parsedTableMetricTag{}, ConfigErrorf("tag '%s': index must be a positive 1-based position, got %d", t.Tag, t.Index)
	}

	tag := parsedTableMetricTag{
		indexTags: []IndexTag{{Tag: t.Tag, Index: t.Index}},
	}
	if t.Mapping != nil {
		tag.indexMappings = map[int]map[int]string{t.Index: t.Mapping}
	}
	return tag, nil
}

// parseColumnMetricTag handles a column of the table being parsed.
func (p *parser) parseColumnMetricTag(mib string, t MetricTagConfig) (parsedTableMetricTag, error) {
	column, err := p.parseSymbol(mib, *t.Column)
	if err != nil {
		return parsedTableMetricTag{}, fmt.Errorf("tag '%s': %w", t.Tag, err)
	}

	var tag parsedTableMetricTag
	tag.result.addResolve(column.name, column.oid)
	tag.result.addSymbol(column.mibSymbol)
	tag.sameTableOIDs = []oid.OID{column.oid}
	tag.columnTags = []ColumnTag{{Tag: t.Tag, Column: column.name}}

	return tag, nil
}

// parseOtherTableColumnMetricTag handles a column of another table; the
// column is fetched as part of that table's batch.
func (p *parser) parseOtherTableColumnMetricTag(mib string, t MetricTagConfig) (parsedTableMetricTag, error) {
	column, err := p.parseSymbol(mib, *t.Column)
	if err != nil {
		return parsedTableMetricTag{}, fmt.Errorf("tag '%s': %w", t.Tag, err)
	}
	table, err := p.parseSymbol(mib, *t.Table)
	if err != nil {
		return parsedTableMetricTag{}, fmt.Errorf("tag '%s': %w", t.Tag, err)
	}

	key := TableBatchKey{MIB: mib, Table: table.name}

	var tag parsedTableMetricTag
	tag.result.addResolve(column.name, column.oid)
	tag.result.addResolve(table.name, table.oid)
	tag.result.addSymbol(column.mibSymbol)
	tag.result.addSymbol(table.mibSymbol)
	tag.result.tableBatches = TableBatches{key: {Key: key, TableOID: table.oid, OIDs: []oid.OID{column.oid}}}
	tag.columnTags = []ColumnTag{{Tag: t.Tag, Column: column.name}}

	return tag, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
