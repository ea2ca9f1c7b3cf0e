// SPDX-License-Identifier: GPL-3.0-or-later

// Package executor runs a metricparse.Plan against one device: it issues the
// GET, GETNEXT and GETBULK requests the plan calls for and resolves the
// replies into named, indexed values.
package executor

import (
	"errors"
	"fmt"

	"github.com/gosnmp/gosnmp"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
	"github.com/netdata/netdata/go/snmppoll/logger"
	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
	"github.com/netdata/netdata/go/snmppoll/pkg/snmputils"
)

const (
	defaultOIDBatchSize   = 10
	defaultMaxRepetitions = 25
)

type Config struct {
	// OIDBatchSize is the number of OIDs sent in one GET or GETNEXT request.
	OIDBatchSize int
	// MaxRepetitions is the max-repetitions field of GETBULK requests.
	MaxRepetitions uint32
	// IgnoreNonIncreasingOID stops a walk quietly, keeping what it collected,
	// when a device returns an OID that is not greater than the previous one.
	IgnoreNonIncreasingOID bool
}

// Executor is not safe for concurrent use: commands to one device are issued
// one at a time.
type Executor struct {
	*logger.Logger

	client gosnmp.Handler
	cfg    Config
	state  State
	// set by a failed request in any fetching state, cleared when a cycle starts
	failedCycle bool
}

func New(client gosnmp.Handler, cfg Config, log *logger.Logger) *Executor {
	if cfg.OIDBatchSize <= 0 {
		cfg.OIDBatchSize = defaultOIDBatchSize
	}
	if cfg.MaxRepetitions == 0 {
		cfg.MaxRepetitions = defaultMaxRepetitions
	}
	if log == nil {
		log = logger.New().With("component", "snmp/executor")
	}
	return &Executor{Logger: log, client: client, cfg: cfg}
}

// Poll is the outcome of one collection cycle.
type Poll struct {
	Results Results
	// Errors holds one entry per failed request. A failed request never stops the cycle.
	Errors []error
	// Failed is set when at least one request of the cycle failed.
	Failed bool
	Status Status
}

// Err joins the cycle errors, nil if there were none.
func (p *Poll) Err() error {
	return errors.Join(p.Errors...)
}

// State returns the phase the executor is in. It is Done between cycles.
func (e *Executor) State() State { return e.state }

// Failed reports whether a request of the last (or current) cycle failed.
// It annotates the state and does not stop the cycle.
func (e *Executor) Failed() bool { return e.failedCycle }

// Poll fetches every OID of the plan and resolves the replies.
func (e *Executor) Poll(plan *metricparse.Plan) *Poll {
	var (
		pdus []gosnmp.SnmpPDU
		errs []error
	)

	e.failedCycle = false

	e.state = FetchingScalars
	for _, err := range e.fetchScalars(plan.ScalarOIDs, &pdus) {
		errs = append(errs, e.failed(err))
	}

	e.state = FetchingNext
	for _, batch := range plan.NextBatches {
		for _, err := range e.fetchColumns(batch, &pdus) {
			errs = append(errs, e.failed(err))
		}
	}

	e.state = FetchingBulk
	for _, batch := range plan.BulkBatches {
		if err := e.fetchBulk(batch, &pdus); err != nil {
			errs = append(errs, e.failed(err))
		}
	}

	e.state = Resolving
	results := e.resolve(plan, pdus)

	e.state = Done

	return &Poll{
		Results: results,
		Errors:  errs,
		Failed:  e.failedCycle,
		Status:  statusOf(len(results) > 0, e.failedCycle),
	}
}

func (e *Executor) failed(err error) error {
	e.failedCycle = true
	err = fmt.Errorf("%s: %w", e.state, err)
	e.Warning(err)
	return err
}

func (e *Executor) resolve(plan *metricparse.Plan, pdus []gosnmp.SnmpPDU) Results {
	results := make(Results)

	for _, pdu := range pdus {
		if !snmputils.IsPduWithData(pdu) {
			continue
		}
		o, err := oid.Parse(pdu.Name)
		if err != nil {
			e.Debugf("skipping reply with malformed OID '%s': %v", pdu.Name, err)
			continue
		}
		name, index, ok := plan.Resolver.Resolve(o)
		if !ok {
			e.Debugf("unresolved OID '%s'", o)
			continue
		}
		results.add(name, index, pdu)
	}

	return results
}
