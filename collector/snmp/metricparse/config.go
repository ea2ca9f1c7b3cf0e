// SPDX-License-Identifier: GPL-3.0-or-later

package metricparse

import (
	"fmt"
)

// MetricConfig is one item of the "metrics" list. It is a superset of the
// three declaration shapes:
//
// OID metric:
//
//	metrics:
//	  - OID: 1.3.6.1.2.1.2.1
//	    name: ifNumber
//
// Symbol metric:
//
//	metrics:
//	  - MIB: TCP-MIB
//	    symbol: tcpCurrEstab          # looked up in the MIB view
//	  - MIB: TCP-MIB
//	    symbol:                       # MIB-less syntax
//	      OID: 1.3.6.1.2.1.6.9
//	      name: tcpCurrEstab
//
// Table metric:
//
//	metrics:
//	  - MIB: IF-MIB
//	    table: ifTable
//	    symbols:
//	      - ifInErrors
//	      - OID: 1.3.6.1.2.1.2.2.1.20
//	        name: ifOutErrors
//	    metric_tags:
//	      - tag: interface
//	        column: ifDescr
type MetricConfig struct {
	OID  string `yaml:"OID,omitempty" json:"OID,omitempty"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	MIB     string         `yaml:"MIB,omitempty" json:"MIB,omitempty"`
	Symbol  *SymbolConfig  `yaml:"symbol,omitempty" json:"symbol,omitempty"`
	Table   *SymbolConfig  `yaml:"table,omitempty" json:"table,omitempty"`
	Symbols []SymbolConfig `yaml:"symbols,omitempty" json:"symbols,omitempty"`

	ForcedType string            `yaml:"forced_type,omitempty" json:"forced_type,omitempty"`
	MetricTags []MetricTagConfig `yaml:"metric_tags,omitempty" json:"metric_tags,omitempty"`
}

// SymbolConfig is either the bare name of a MIB symbol or an already
// resolved {OID, name} pair.
type SymbolConfig struct {
	OID  string `yaml:"OID,omitempty" json:"OID,omitempty"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

func (s SymbolConfig) isResolved() bool { return s.OID != "" }

func (s *SymbolConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		*s = SymbolConfig{Name: name}
		return nil
	}

	type plain SymbolConfig
	var v plain
	if err := unmarshal(&v); err != nil {
		return err
	}
	*s = SymbolConfig(v)
	return nil
}

func (s SymbolConfig) String() string {
	if s.isResolved() {
		return fmt.Sprintf("%s(%s)", s.Name, s.OID)
	}
	return s.Name
}

// MetricTagConfig is one item of a "metric_tags" list. Scalar metrics use
// plain "key:value" strings, table metrics use index or column references:
//
//	metric_tags:
//	  - tag: ip_version             # n-th arc of the row index
//	    index: 1
//	    mapping: {1: ipv4, 2: ipv6}
//	  - tag: interface              # another column of the same table
//	    column: ifDescr
//	  - tag: adapter                # a column of a different table
//	    MIB: ADAPTER-MIB
//	    table: genericAdaptersAttrTable
//	    column:
//	      OID: 1.3.6.1.4.1.343.2.7.2.2.1.1.1.2
//	      name: adapterName
type MetricTagConfig struct {
	Static string `yaml:"-" json:"-"`

	Tag     string         `yaml:"tag,omitempty" json:"tag,omitempty"`
	Index   int            `yaml:"index,omitempty" json:"index,omitempty"`
	Mapping map[int]string `yaml:"mapping,omitempty" json:"mapping,omitempty"`
	Column  *SymbolConfig  `yaml:"column,omitempty" json:"column,omitempty"`
	MIB     string         `yaml:"MIB,omitempty" json:"MIB,omitempty"`
	Table   *SymbolConfig  `yaml:"table,omitempty" json:"table,omitempty"`
}

func (t *MetricTagConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var static string
	if err := unmarshal(&static); err == nil {
		*t = MetricTagConfig{Static: static}
		return nil
	}

	type plain MetricTagConfig
	var v plain
	if err := unmarshal(&v); err != nil {
		return err
	}
	*t = MetricTagConfig(v)
	return nil
}

func (t MetricTagConfig) isStatic() bool { return t.Static != "" }
