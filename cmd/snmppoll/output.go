// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp"
)

// emitter writes reports of several checks to one stream.
type emitter struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

type jsonReport struct {
	Instance     string           `json:"instance"`
	Metrics      []jsonMetric     `json:"metrics"`
	ServiceCheck jsonServiceCheck `json:"service_check"`
}

type jsonMetric struct {
	Name  string   `json:"name"`
	Value float64  `json:"value"`
	Type  string   `json:"type"`
	Tags  []string `json:"tags"`
}

type jsonServiceCheck struct {
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
	Message string   `json:"message,omitempty"`
}

func (e *emitter) emit(instance string, rep *snmp.Report) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.format == "json" {
		return e.emitJSON(instance, rep)
	}
	return e.emitText(instance, rep)
}

func (e *emitter) emitText(instance string, rep *snmp.Report) error {
	var sb strings.Builder

	for _, m := range rep.Metrics {
		fmt.Fprintf(&sb, "%s %s %s %s [%s]\n",
			instance, m.Name, strconv.FormatFloat(m.Value, 'f', -1, 64), m.Type, strings.Join(m.Tags, ","))
	}

	sc := rep.ServiceCheck
	fmt.Fprintf(&sb, "%s %s %s [%s]", instance, sc.Name, sc.Status, strings.Join(sc.Tags, ","))
	if sc.Message != "" {
		fmt.Fprintf(&sb, " %q", sc.Message)
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(e.w, sb.String())
	return err
}

func (e *emitter) emitJSON(instance string, rep *snmp.Report) error {
	out := jsonReport{
		Instance: instance,
		Metrics:  make([]jsonMetric, 0, len(rep.Metrics)),
		ServiceCheck: jsonServiceCheck{
			Name:    rep.ServiceCheck.Name,
			Status:  rep.ServiceCheck.Status.String(),
			Tags:    rep.ServiceCheck.Tags,
			Message: rep.ServiceCheck.Message,
		},
	}
	for _, m := range rep.Metrics {
		out.Metrics = append(out.Metrics, jsonMetric{Name: m.Name, Value: m.Value, Type: m.Type, Tags: m.Tags})
	}

	return json.NewEncoder(e.w).Encode(out)
}
