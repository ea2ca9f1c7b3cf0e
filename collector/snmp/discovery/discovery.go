// SPDX-License-Identifier: GPL-3.0-or-later

// Package discovery sweeps an address range in the background and keeps the
// set of hosts that answer a probe. The set survives restarts through a cache
// file.
package discovery

import (
	"context"
	"errors"
	"iter"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/netdata/netdata/go/snmppoll/logger"
	"github.com/netdata/netdata/go/snmppoll/pkg/iprange"
)

const (
	defaultInterval        = time.Hour
	defaultAllowedFailures = 3
	defaultWorkers         = 5
)

// ErrNoMatch is returned by a probe for a host that answered but has nothing
// to collect. It counts as a failure.
var ErrNoMatch = errors.New("no metrics and no matching profile")

// ProbeFunc builds the per-host instance of addr. It is called from several
// goroutines at once, never twice at once for the same address.
type ProbeFunc[T any] func(addr netip.Addr) (T, error)

type Config struct {
	Network iprange.Range
	// Interval is the pause between two sweeps.
	Interval time.Duration
	// AllowedFailures is the number of consecutive failed probes after which
	// a discovered host is forgotten.
	AllowedFailures int
	// Workers bounds the number of hosts probed at once.
	Workers int
	// Cache persists the discovered addresses. Optional.
	Cache *Cache
}

// Host is a discovered host and the instance its probe built.
type Host[T any] struct {
	Addr     netip.Addr
	Instance T
}

type Discoverer[T any] struct {
	*logger.Logger

	cfg   Config
	probe ProbeFunc[T]

	mu        sync.RWMutex
	instances map[netip.Addr]T
	failures  map[netip.Addr]int

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func New[T any](cfg Config, probe ProbeFunc[T], log *logger.Logger) *Discoverer[T] {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.AllowedFailures <= 0 {
		cfg.AllowedFailures = defaultAllowedFailures
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if log == nil {
		log = logger.New()
	}
	return &Discoverer[T]{
		Logger:    log.With("component", "snmp/discovery", "network", cfg.Network.String()),
		cfg:       cfg,
		probe:     probe,
		instances: make(map[netip.Addr]T),
		failures:  make(map[netip.Addr]int),
	}
}

// Start runs the discovery loop in its own goroutine until Stop is called or
// ctx is done.
func (d *Discoverer[T]) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})

	go func() {
		defer close(d.done)
		d.Run(ctx)
	}()
}

// Stop cancels the loop and waits for it to exit. A probe in flight is not
// interrupted; the loop exits once it returns.
func (d *Discoverer[T]) Stop() {
	d.stopOnce.Do(func() {
		if d.cancel == nil {
			return
		}
		d.cancel()
		<-d.done
	})
}

// Run sweeps the network every Interval until ctx is done. When hosts from a
// previous run answer again, only those are probed at first and the first full
// sweep waits for the next tick.
func (d *Discoverer[T]) Run(ctx context.Context) {
	d.Info("instance is started")
	defer func() { d.Info("instance is stopped") }()

	if !d.restore(ctx) {
		d.Sweep(ctx)
	}

	tk := time.NewTicker(d.cfg.Interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			d.Sweep(ctx)
		}
	}
}

// Sweep probes every host of the network once and persists the result.
func (d *Discoverer[T]) Sweep(ctx context.Context) {
	now := time.Now()
	d.Debugf("starting sweep of %d addresses", d.cfg.Network.Size())

	d.probeAll(ctx, d.cfg.Network.Hosts())
	d.persist()

	d.Infof("sweep finished in %s: %d hosts discovered", time.Since(now).Round(time.Millisecond), d.Len())
}

func (d *Discoverer[T]) probeAll(ctx context.Context, addrs iter.Seq[netip.Addr]) {
	p := pool.New().WithMaxGoroutines(d.cfg.Workers)

	for addr := range addrs {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() { d.probeHost(addr) })
	}

	p.Wait()
}

func (d *Discoverer[T]) probeHost(addr netip.Addr) {
	inst, err := d.probe(addr)
	if err == nil {
		d.mu.Lock()
		if _, ok := d.instances[addr]; !ok {
			d.Infof("discovered host '%s'", addr)
		}
		d.instances[addr] = inst
		delete(d.failures, addr)
		d.mu.Unlock()
		return
	}

	d.mu.Lock()
	if _, ok := d.instances[addr]; !ok {
		d.mu.Unlock()
		return
	}
	d.failures[addr]++
	failures := d.failures[addr]
	evict := failures >= d.cfg.AllowedFailures
	if evict {
		delete(d.instances, addr)
		delete(d.failures, addr)
	}
	d.mu.Unlock()

	if !evict {
		d.Debugf("host '%s' failed %d/%d probes: %v", addr, failures, d.cfg.AllowedFailures, err)
		return
	}

	d.Warningf("forgetting host '%s' after %d consecutive failed probes: %v", addr, failures, err)
	d.persist()
}

// Hosts returns the discovered hosts ordered by address.
func (d *Discoverer[T]) Hosts() []Host[T] {
	d.mu.RLock()
	defer d.mu.RUnlock()

	hosts := make([]Host[T], 0, len(d.instances))
	for addr, inst := range d.instances {
		hosts = append(hosts, Host[T]{Addr: addr, Instance: inst})
	}
	slices.SortFunc(hosts, func(a, b Host[T]) int { return a.Addr.Compare(b.Addr) })

	return hosts
}

func (d *Discoverer[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.instances)
}

func (d *Discoverer[T]) addrs() []netip.Addr {
	d.mu.RLock()
	defer d.mu.RUnlock()

	addrs := make([]netip.Addr, 0, len(d.instances))
	for addr := range d.instances {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, netip.Addr.Compare)

	return addrs
}

// restore probes the hosts saved by a previous run. It reports whether any of
// them answered.
func (d *Discoverer[T]) restore(ctx context.Context) bool {
	if d.cfg.Cache == nil {
		return false
	}

	cached, err := d.cfg.Cache.Load()
	if err != nil {
		d.Warningf("failed to load discovery cache: %v", err)
		return false
	}

	cached = slices.DeleteFunc(cached, func(addr netip.Addr) bool {
		if d.cfg.Network.Contains(addr) {
			return false
		}
		d.Debugf("ignoring cached host '%s': not in network", addr)
		return true
	})
	if len(cached) == 0 {
		return false
	}

	d.Infof("restoring %d hosts from the discovery cache", len(cached))
	d.probeAll(ctx, slices.Values(cached))

	if d.Len() == 0 {
		d.Info("no cached host answered")
		return false
	}
	return true
}

func (d *Discoverer[T]) persist() {
	if d.cfg.Cache == nil {
		return
	}
	if err := d.cfg.Cache.Save(d.addrs()); err != nil {
		d.Warningf("failed to save discovery cache: %v", err)
	}
}
