// SPDX-License-Identifier: GPL-3.0-or-later

// Package snmp is the SNMP check: one instance polls a single device
// (ip_address) or every device discovered in an address range
// (network_address), and turns the replies into typed, tagged metrics plus
// an availability signal.
package snmp

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosnmp/gosnmp"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/discovery"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/executor"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/profile"
	"github.com/netdata/netdata/go/snmppoll/logger"
	"github.com/netdata/netdata/go/snmppoll/pkg/iprange"
	"github.com/netdata/netdata/go/snmppoll/pkg/mibs"
	"github.com/netdata/netdata/go/snmppoll/pkg/snmputils"
)

const serviceCheckName = "snmp.can_check"

// New returns an uninitialized check. Views are shared through registry;
// a nil registry gives the check one of its own.
func New(initCfg InitConfig, cfg Config, registry *mibs.Registry) *Check {
	if registry == nil {
		registry = mibs.NewRegistry()
	}
	c := &Check{
		InitConfig:    initCfg,
		Config:        cfg,
		registry:      registry,
		newSnmpClient: gosnmp.NewHandler,
	}
	c.Logger = logger.New().With("collector", "snmp", "instance", c.Key())
	return c
}

type Check struct {
	*logger.Logger

	InitConfig InitConfig
	Config

	registry      *mibs.Registry
	newSnmpClient func() gosnmp.Handler

	id       string
	version  gosnmp.SnmpVersion
	usm      *gosnmp.UsmSecurityParameters
	msgFlags gosnmp.SnmpV3MsgFlags
	view     *mibs.View
	profiles *profile.Set
	network  iprange.Range

	device     *device
	discoverer *discovery.Discoverer[*device]

	// initErr is reported by every cycle of a check that failed to initialize.
	initErr error
}

// Init validates the configuration, loads the MIB view and profiles, and
// either connects to the device or starts discovery.
func (c *Check) Init(ctx context.Context) error {
	if err := c.init(ctx); err != nil {
		c.initErr = err
		c.Error(err)
		return err
	}
	return nil
}

func (c *Check) init(ctx context.Context) error {
	if err := c.validateConfig(); err != nil {
		return err
	}

	c.version = c.snmpVersion()
	if c.version == gosnmp.Version3 {
		usm, flags, err := c.initSecurity()
		if err != nil {
			return err
		}
		c.usm, c.msgFlags = usm, flags
	}

	view, err := c.registry.Get(c.InitConfig.MIBsFolder)
	if err != nil {
		return configErrorf("mibs_folder '%s': %v", c.InitConfig.MIBsFolder, err)
	}
	c.view = view

	profiles, err := profile.Load(c.InitConfig.ProfilesFolder, c.InitConfig.Profiles)
	if err != nil {
		return configErrorf("profiles: %v", err)
	}
	c.profiles = profiles

	if c.Profile != "" {
		if _, ok := c.profiles.Get(c.Profile); !ok {
			return configErrorf("unknown profile '%s'", c.Profile)
		}
	}

	id, err := identity(c.Config)
	if err != nil {
		return fmt.Errorf("check identity: %v", err)
	}
	c.id = id

	if c.NetworkAddress != "" {
		c.startDiscovery(ctx)
		return nil
	}

	var prof *profile.Profile
	if c.Profile != "" {
		prof, _ = c.profiles.Get(c.Profile)
	}
	dev, err := c.newDevice(c.IPAddress, prof)
	if err != nil {
		return err
	}

	client := c.newClient(c.IPAddress)
	if err := client.Connect(); err != nil {
		return fmt.Errorf("SNMP connect: %v", err)
	}
	c.Info(snmputils.SnmpClientConnInfo(client))
	dev.client = client
	c.device = dev

	return nil
}

func (c *Check) startDiscovery(ctx context.Context) {
	c.discoverer = discovery.New[*device](discovery.Config{
		Network:         c.network,
		Interval:        c.DiscoveryInterval.OrDefault(defaultDiscoveryInterval),
		AllowedFailures: c.DiscoveryAllowedFailures,
		Workers:         c.DiscoveryWorkers,
		Cache:           discovery.NewCache(c.cacheDir(), c.id),
	}, c.probe, c.Logger)

	c.Infof("starting discovery of %s (%d addresses)", c.network, c.network.Size())
	c.discoverer.Start(ctx)
}

// Check runs one collection cycle. It never fails: every problem ends up in
// the service check of the report.
func (c *Check) Check(ctx context.Context) *Report {
	switch {
	case c.initErr != nil:
		return c.failedReport(c.initErr)
	case c.device != nil:
		return c.checkDevice()
	case c.discoverer != nil:
		return c.checkNetwork(ctx)
	default:
		return c.failedReport(errNotInitialized)
	}
}

func (c *Check) checkDevice() *Report {
	metrics, poll := c.pollDevice(c.device)

	rep := &Report{Metrics: metrics}
	rep.ServiceCheck = ServiceCheck{
		Name:   serviceCheckName,
		Status: poll.Status,
		Tags:   append([]string{deviceTag(c.device.target)}, c.Tags...),
	}
	if err := poll.Err(); err != nil {
		rep.ServiceCheck.Message = err.Error()
	}
	return rep
}

// checkNetwork polls the discovered devices one after another. The worst
// device status becomes the instance status.
func (c *Check) checkNetwork(ctx context.Context) *Report {
	rep := &Report{}
	rep.ServiceCheck = ServiceCheck{
		Name:   serviceCheckName,
		Status: executor.StatusOK,
		Tags:   append(append([]string{}, c.Tags...), "network:"+c.network.String()),
	}

	hosts := c.discoverer.Hosts()
	if len(hosts) == 0 {
		rep.ServiceCheck.Message = "no devices discovered yet"
		return rep
	}

	var errs []error
	for _, host := range hosts {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			rep.ServiceCheck.Status = rep.ServiceCheck.Status.Worst(executor.StatusWarning)
			break
		}
		metrics, poll := c.pollDevice(host.Instance)
		rep.Metrics = append(rep.Metrics, metrics...)
		rep.ServiceCheck.Status = rep.ServiceCheck.Status.Worst(poll.Status)
		if err := poll.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host.Addr, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		rep.ServiceCheck.Message = err.Error()
	}

	return rep
}

func (c *Check) failedReport(err error) *Report {
	tags := append([]string{}, c.Tags...)
	if c.IPAddress != "" {
		tags = append([]string{deviceTag(c.IPAddress)}, tags...)
	}
	return &Report{ServiceCheck: ServiceCheck{
		Name:    serviceCheckName,
		Status:  executor.StatusCritical,
		Tags:    tags,
		Message: err.Error(),
	}}
}

// Cleanup stops discovery and closes the device connection.
func (c *Check) Cleanup() {
	if c.discoverer != nil {
		c.discoverer.Stop()
	}
	if c.device != nil && c.device.client != nil {
		if err := c.device.client.Close(); err != nil {
			c.Debugf("closing SNMP connection: %v", err)
		}
		c.device.client = nil
	}
}

// Devices returns the number of devices the check currently polls.
func (c *Check) Devices() int {
	switch {
	case c.device != nil:
		return 1
	case c.discoverer != nil:
		return c.discoverer.Len()
	default:
		return 0
	}
}
