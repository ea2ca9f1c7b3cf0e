// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp"
	"github.com/netdata/netdata/go/snmppoll/logger"
	"github.com/netdata/netdata/go/snmppoll/pkg/buildinfo"
	"github.com/netdata/netdata/go/snmppoll/pkg/mibs"
)

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(s string, args ...any) {}))

	opts, err := parseCLI(os.Args[1:])
	if err != nil {
		if isHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("snmppoll, version: %s\n", buildinfo.Version)
		return
	}

	logger.Level.SetByName(opts.LogLevel)
	if opts.Debug {
		logger.Level.Set(slog.LevelDebug)
	}

	log := logger.New().With("component", "main")

	file, err := loadChecksFile(opts.Config)
	if err != nil {
		log.Errorf("config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := initChecks(ctx, file, log)
	defer func() {
		for _, c := range checks {
			c.Cleanup()
		}
	}()

	out := &emitter{w: os.Stdout, format: opts.Format}

	run(ctx, checks, out, log)
	if opts.Once {
		return
	}

	tk := time.NewTicker(opts.Interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping")
			return
		case <-tk.C:
			run(ctx, checks, out, log)
		}
	}
}

// initChecks builds one check per instance. A check that fails to initialize
// is kept: it reports its error on every cycle.
func initChecks(ctx context.Context, file *checksFile, log *logger.Logger) []*snmp.Check {
	registry := mibs.NewRegistry()

	var checks []*snmp.Check
	for _, cfg := range file.Instances {
		c := snmp.New(file.InitConfig, cfg, registry)
		if err := c.Init(ctx); err != nil {
			log.Warningf("instance '%s' failed to initialize: %v", c.Key(), err)
		}
		checks = append(checks, c)
	}

	log.Infof("running %d instances (version %s)", len(checks), buildinfo.Version)

	return checks
}

// run collects every check once. Checks run concurrently, commands to one
// device stay sequential.
func run(ctx context.Context, checks []*snmp.Check, out *emitter, log *logger.Logger) {
	var wg conc.WaitGroup

	for _, c := range checks {
		wg.Go(func() {
			rep := c.Check(ctx)
			if err := out.emit(c.Key(), rep); err != nil {
				log.Errorf("instance '%s': writing report: %v", c.Key(), err)
			}
		})
	}

	wg.Wait()
}
