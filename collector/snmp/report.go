// SPDX-License-Identifier: GPL-3.0-or-later

package snmp

import (
	"slices"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/executor"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
	"github.com/netdata/netdata/go/snmppoll/pkg/snmputils"
)

// Metric types.
const (
	TypeGauge          = "gauge"
	TypeRate           = "rate"
	TypeMonotonicCount = "monotonic_count"
)

type (
	// Report is the output of one collection cycle.
	Report struct {
		Metrics      []Metric
		ServiceCheck ServiceCheck
	}
	Metric struct {
		Name  string
		Value float64
		Tags  []string
		Type  string
	}
	// ServiceCheck is the availability signal of the instance.
	ServiceCheck struct {
		Name    string
		Status  executor.Status
		Tags    []string
		Message string
	}
)

func (c *Check) report(dev *device, results executor.Results) []Metric {
	var out []Metric

	for _, pm := range dev.plan.Metrics {
		switch m := pm.(type) {
		case *metricparse.ScalarMetric:
			if mx, ok := c.reportScalar(dev, m, results); ok {
				out = append(out, mx)
			}
		case *metricparse.TableMetric:
			out = append(out, c.reportTable(dev, m, results)...)
		}
	}

	return out
}

func (c *Check) reportScalar(dev *device, m *metricparse.ScalarMetric, results executor.Results) (Metric, bool) {
	rows := results.Rows(m.Name)
	switch {
	case len(rows) == 0:
		c.Debugf("device '%s': no value for '%s'", dev.target, m.Name)
		return Metric{}, false
	case len(rows) > 1 && m.EnforceScalar:
		c.Warningf("device '%s': metric '%s' is declared as a scalar but returned %d values, skipping it (declare it in a table)",
			dev.target, m.Name, len(rows))
		return Metric{}, false
	case len(rows) > 1:
		c.Warningf("device '%s': metric '%s' returned %d values, reporting the first one", dev.target, m.Name, len(rows))
	}

	tags := append(slices.Clone(dev.tags), m.Tags...)

	return c.newMetric(dev, m.MIB, m.Name, m.ForcedType, rows[0].PDU, tags)
}

func (c *Check) reportTable(dev *device, m *metricparse.TableMetric, results executor.Results) []Metric {
	var out []Metric
	seen := make(map[string]bool)

	for _, row := range results.Rows(m.Name) {
		tags := slices.Clone(dev.tags)

		for _, it := range m.IndexTags {
			if it.Index > len(row.Index) {
				c.Warningf("device '%s': not enough indexes for tag '%s' of '%s' (row %s), skipping this tag",
					dev.target, it.Tag, m.Name, executor.IndexKey(row.Index))
				continue
			}
			tags = append(tags, it.Tag+":"+row.Index[it.Index-1])
		}

		for _, ct := range m.ColumnTags {
			col, ok := results.Lookup(ct.Column, row.Index)
			if !ok {
				c.Warningf("device '%s': column '%s' not present at row %s of '%s', skipping tag '%s'",
					dev.target, ct.Column, executor.IndexKey(row.Index), m.Name, ct.Tag)
				continue
			}
			v, err := snmputils.PduToString(col.PDU)
			if err != nil {
				c.Warningf("device '%s': column '%s': %v, skipping tag '%s'", dev.target, ct.Column, err, ct.Tag)
				continue
			}
			tags = append(tags, ct.Tag+":"+v)
		}

		key := strings.Join(tags, ",")
		if seen[key] {
			c.Warningf("device '%s': row %s of '%s' has the same tags as a previous row, skipping it",
				dev.target, executor.IndexKey(row.Index), m.Name)
			continue
		}
		seen[key] = true

		if mx, ok := c.newMetric(dev, m.MIB, m.Name, m.ForcedType, row.PDU, tags); ok {
			out = append(out, mx)
		}
	}

	return out
}

// newMetric types the value of pdu, either by the forced type or by the
// PDU type.
func (c *Check) newMetric(dev *device, mib, name, forcedType string, pdu gosnmp.SnmpPDU, tags []string) (Metric, bool) {
	if sym, ok := dev.plan.Symbol(mib, name); ok && c.EnforceMIBConstraints && !sym.Accepts(pdu.Type) {
		c.Warningf("device '%s': '%s' returned %v which does not match its %s syntax, skipping it",
			dev.target, name, pdu.Type, sym.Syntax)
		return Metric{}, false
	}

	typ := forcedMetricType(forcedType)
	if typ == "" {
		var ok bool
		if typ, ok = inferMetricType(pdu); !ok {
			c.Warningf("device '%s': unsupported type %v for metric '%s'", dev.target, pdu.Type, name)
			return Metric{}, false
		}
	}

	value, err := snmputils.PduToFloat(pdu)
	if err != nil {
		c.Warningf("device '%s': metric '%s': %v", dev.target, name, err)
		return Metric{}, false
	}

	return Metric{
		Name:  "snmp." + normalizeName(name),
		Value: value,
		Tags:  tags,
		Type:  typ,
	}, true
}

func forcedMetricType(forcedType string) string {
	switch forcedType {
	case metricparse.ForcedTypeGauge:
		return TypeGauge
	case metricparse.ForcedTypeCounter:
		return TypeRate
	case metricparse.ForcedTypeMonotonicCount:
		return TypeMonotonicCount
	default:
		return ""
	}
}

func inferMetricType(pdu gosnmp.SnmpPDU) (string, bool) {
	switch pdu.Type {
	case gosnmp.Counter32, gosnmp.Counter64:
		return TypeRate, true
	case gosnmp.Gauge32, gosnmp.Uinteger32, gosnmp.Integer, gosnmp.TimeTicks,
		gosnmp.OpaqueFloat, gosnmp.OpaqueDouble:
		return TypeGauge, true
	case gosnmp.OctetString:
		if _, err := snmputils.PduToFloat(pdu); err == nil {
			return TypeGauge, true
		}
		return "", false
	default:
		return "", false
	}
}

// normalizeName replaces characters outside [A-Za-z0-9_.] with underscores,
// collapses runs of underscores and trims them from both ends.
func normalizeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			sb.WriteRune(r)
		default:
			if s := sb.String(); len(s) > 0 && s[len(s)-1] == '_' {
				continue
			}
			sb.WriteByte('_')
		}
	}

	return strings.Trim(sb.String(), "_")
}
