// SPDX-License-Identifier: GPL-3.0-or-later

package metricparse

import (
	"fmt"
	"strings"

	"github.com/netdata/netdata/go/snmppoll/pkg/mibs"
	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
)

// SymbolLookup resolves MIB symbols to OIDs. *mibs.View implements it.
type SymbolLookup interface {
	Lookup(mib, name string) (mibs.Symbol, error)
}

// declaration is the closed set of metric shapes: oidMetric, symbolMetric
// and tableMetric.
type declaration interface {
	parse(p *parser) (metricParseResult, error)
}

type (
	oidMetric struct {
		name       string
		oid        string
		tags       []string
		forcedType string
	}
	symbolMetric struct {
		mib        string
		symbol     SymbolConfig
		tags       []string
		forcedType string
	}
	tableMetric struct {
		mib        string
		table      SymbolConfig
		symbols    []SymbolConfig
		tags       []MetricTagConfig
		forcedType string
	}
)

type parser struct {
	lookup SymbolLookup
}

// toDeclaration classifies a config item into one of the declaration shapes.
func (m MetricConfig) toDeclaration() (declaration, error) {
	forcedType, err := parseForcedType(m.ForcedType)
	if err != nil {
		return nil, err
	}

	switch {
	case m.OID != "":
		tags, err := staticTags(m.MetricTags)
		if err != nil {
			return nil, err
		}
		return oidMetric{name: m.Name, oid: m.OID, tags: tags, forcedType: forcedType}, nil
	case m.MIB == "":
		return nil, ConfigErrorf("unsupported metric in config file: %s", m.describe())
	case m.Symbol != nil:
		tags, err := staticTags(m.MetricTags)
		if err != nil {
			return nil, err
		}
		return symbolMetric{mib: m.MIB, symbol: *m.Symbol, tags: tags, forcedType: forcedType}, nil
	case m.Table != nil:
		if m.Symbols == nil {
			return nil, ConfigErrorf("when specifying a table, you must specify a list of symbols (%s)", m.describe())
		}
		return tableMetric{
			mib:        m.MIB,
			table:      *m.Table,
			symbols:    m.Symbols,
			tags:       m.MetricTags,
			forcedType: forcedType,
		}, nil
	default:
		return nil, ConfigErrorf("when specifying a MIB, you must specify either table or symbol (%s)", m.describe())
	}
}

func (m MetricConfig) describe() string {
	switch {
	case m.OID != "":
		return fmt.Sprintf("OID=%s name=%s", m.OID, m.Name)
	case m.Table != nil:
		return fmt.Sprintf("MIB=%s table=%s", m.MIB, m.Table)
	case m.Symbol != nil:
		return fmt.Sprintf("MIB=%s symbol=%s", m.MIB, m.Symbol)
	default:
		return fmt.Sprintf("MIB=%s name=%s", m.MIB, m.Name)
	}
}

func parseForcedType(v string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(v)); t {
	case "", ForcedTypeGauge, ForcedTypeCounter, ForcedTypeMonotonicCount:
		return t, nil
	default:
		return "", ConfigErrorf("invalid forced_type '%s' (must be gauge, counter or monotonic_count)", v)
	}
}

func staticTags(tags []MetricTagConfig) ([]string, error) {
	var out []string
	for _, t := range tags {
		if !t.isStatic() {
			return nil, ConfigErrorf("metric_tags of a scalar metric must be 'key:value' strings, got tag '%s'", t.Tag)
		}
		out = append(out, t.Static)
	}
	return out, nil
}

func (m oidMetric) parse(_ *parser) (metricParseResult, error) {
	if m.name == "" {
		return metricParseResult{}, ConfigErrorf("OID metric '%s' has no name", m.oid)
	}
	o, err := oid.Parse(m.oid)
	if err != nil {
		return metricParseResult{}, wrapConfigError(err, "OID metric '%s'", m.name)
	}

	var res metricParseResult
	res.oidsToFetch = []oid.OID{o}
	// no MIB lookup happens for raw OIDs, so the name is only known from here
	res.addResolve(m.name, o)
	res.parsedMetrics = []ParsedMetric{&ScalarMetric{
		Name:          m.name,
		Tags:          m.tags,
		ForcedType:    m.forcedType,
		EnforceScalar: false,
	}}

	return res, nil
}

func (m symbolMetric) parse(p *parser) (metricParseResult, error) {
	sym, err := p.parseSymbol(m.mib, m.symbol)
	if err != nil {
		return metricParseResult{}, err
	}

	var res metricParseResult
	res.oidsToFetch = []oid.OID{sym.oid}
	res.addResolve(sym.name, sym.oid)
	res.addSymbol(sym.mibSymbol)
	res.parsedMetrics = []ParsedMetric{&ScalarMetric{
		Name:          sym.name,
		MIB:           m.mib,
		Tags:          m.tags,
		ForcedType:    m.forcedType,
		EnforceScalar: true,
	}}

	return res, nil
}

type parsedSymbol struct {
	name string
	oid  oid.OID
	// set when the symbol was looked up in the MIB view
	mibSymbol *mibs.Symbol
}

func (p *parser) parseSymbol(mib string, s SymbolConfig) (parsedSymbol, error) {
	if s.isResolved() {
		if s.Name == "" {
			return parsedSymbol{}, ConfigErrorf("symbol with OID '%s' has no name", s.OID)
		}
		o, err := oid.Parse(s.OID)
		if err != nil {
			return parsedSymbol{}, wrapConfigError(err, "symbol '%s'", s.Name)
		}
		return parsedSymbol{name: s.Name, oid: o}, nil
	}

	if s.Name == "" {
		return parsedSymbol{}, ConfigErrorf("empty symbol in MIB '%s'", mib)
	}
	if p.lookup == nil {
		return parsedSymbol{}, ConfigErrorf("cannot resolve '%s::%s': no MIB view", mib, s.Name)
	}
	sym, err := p.lookup.Lookup(mib, s.Name)
	if err != nil {
		return parsedSymbol{}, wrapConfigError(err, "cannot resolve '%s::%s'", mib, s.Name)
	}

	return parsedSymbol{name: sym.Name, oid: sym.OID, mibSymbol: &sym}, nil
}
