// SPDX-License-Identifier: GPL-3.0-or-later

package snmp

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/gosnmp/gosnmp"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/discovery"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/executor"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/profile"
	"github.com/netdata/netdata/go/snmppoll/pkg/snmputils"
)

// device is one polled target and its fetch plan.
type device struct {
	target string
	plan   *metricparse.Plan
	// tags are added to every metric of the device, before the row tags.
	tags []string
	// client stays connected between cycles. Nil for discovered devices,
	// which connect for each cycle.
	client gosnmp.Handler
}

func deviceTag(target string) string { return "snmp_device:" + target }

// newDevice parses the instance metrics, the global metrics and the metrics
// of prof (optional) into one plan.
func (c *Check) newDevice(target string, prof *profile.Profile) (*device, error) {
	var metrics []metricparse.MetricConfig
	metrics = append(metrics, c.Metrics...)
	if c.UseGlobalMetrics {
		metrics = append(metrics, c.InitConfig.GlobalMetrics...)
	}

	tags := append(slices.Clone(c.Tags), deviceTag(target))
	if prof != nil {
		metrics = append(metrics, prof.Metrics...)
		tags = append(tags, "snmp_profile:"+prof.Name)
		tags = append(tags, prof.MetricTags...)
	}

	plan, err := metricparse.Parse(metrics, metricparse.Options{
		Lookup:        c.view,
		BulkThreshold: c.BulkThreshold,
		SNMPVersion:   c.version,
	})
	if err != nil {
		return nil, fmt.Errorf("device '%s': %w", target, err)
	}

	return &device{target: target, plan: plan, tags: tags}, nil
}

// probe is the discovery probe: a host is kept when it answers the sysinfo
// GET and there is something to collect from it.
func (c *Check) probe(addr netip.Addr) (*device, error) {
	target := addr.String()

	client := c.newClient(target)
	if err := client.Connect(); err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	si, err := snmputils.GetSysInfo(client)
	if err != nil {
		return nil, err
	}

	prof, err := c.selectProfile(si.SysObjectID)
	if err != nil {
		return nil, err
	}

	dev, err := c.newDevice(target, prof)
	if err != nil {
		return nil, err
	}

	if prof != nil {
		c.Debugf("device '%s' (sysObjectID %s) uses profile '%s'", target, si.SysObjectID, prof.Name)
	}

	return dev, nil
}

func (c *Check) selectProfile(sysObjectID string) (*profile.Profile, error) {
	if c.Profile != "" {
		prof, _ := c.profiles.Get(c.Profile)
		return prof, nil
	}
	if prof, ok := c.profiles.Match(sysObjectID); ok {
		return prof, nil
	}
	if len(c.Metrics) == 0 {
		return nil, fmt.Errorf("sysObjectID %s: %w", sysObjectID, discovery.ErrNoMatch)
	}
	return nil, nil
}

func (c *Check) executorConfig() executor.Config {
	return executor.Config{
		OIDBatchSize:           c.oidBatchSize(c.InitConfig),
		MaxRepetitions:         defaultMaxRepetitions,
		IgnoreNonIncreasingOID: c.IgnoreNonIncreasingOID || c.InitConfig.IgnoreNonIncreasingOID,
	}
}

// pollDevice runs one cycle against dev. Connection failures of discovered
// devices are reported like any other request failure.
func (c *Check) pollDevice(dev *device) ([]Metric, *executor.Poll) {
	client := dev.client
	if client == nil {
		client = c.newClient(dev.target)
		if err := client.Connect(); err != nil {
			err = fmt.Errorf("SNMP connect: %v", err)
			c.Warningf("device '%s': %v", dev.target, err)
			return nil, &executor.Poll{Errors: []error{err}, Failed: true, Status: executor.StatusCritical}
		}
		defer func() { _ = client.Close() }()
	}

	exec := executor.New(client, c.executorConfig(), c.Logger.With("device", dev.target))
	poll := exec.Poll(dev.plan)

	return c.report(dev, poll.Results), poll
}
