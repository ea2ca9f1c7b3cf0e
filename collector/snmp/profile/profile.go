// SPDX-License-Identifier: GPL-3.0-or-later

// Package profile loads device profiles: named metric sets bound to devices
// by their sysObjectID.
package profile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
)

// Profile is a metric set. Profiles can extend other profile files and
// declare the sysObjectID patterns of the devices they apply to.
type Profile struct {
	Name       string `yaml:"-" json:"name"`
	SourceFile string `yaml:"-" json:"source_file,omitempty"`

	Extends      []string                   `yaml:"extends,omitempty" json:"extends,omitempty"`
	SysObjectIDs SysObjectIDs               `yaml:"sysobjectid,omitempty" json:"sysobjectid,omitempty"`
	Metrics      []metricparse.MetricConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	// MetricTags are static "key:value" tags added to every metric of the profile.
	MetricTags []string `yaml:"metric_tags,omitempty" json:"metric_tags,omitempty"`
}

// SysObjectIDs accepts both a single pattern and a list of patterns.
type SysObjectIDs []string

func (s *SysObjectIDs) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var multiple []string
	if err := unmarshal(&multiple); err == nil {
		*s = multiple
		return nil
	}

	return errors.New("invalid sysobjectid format: expected a string or a list of strings")
}

// Definition references a profile from the instance configuration, either by
// file or inline.
type Definition struct {
	DefinitionFile string   `yaml:"definition_file,omitempty" json:"definition_file,omitempty"`
	Definition     *Profile `yaml:"definition,omitempty" json:"definition,omitempty"`
}

// merge appends the metrics and tags of base, the profile p extends.
func (p *Profile) merge(base *Profile) {
	p.Metrics = append(p.Metrics, base.Metrics...)
	for _, tag := range base.MetricTags {
		if !slices.Contains(p.MetricTags, tag) {
			p.MetricTags = append(p.MetricTags, tag)
		}
	}
}

func (p *Profile) validate() error {
	if len(p.Metrics) == 0 {
		return errors.New("profile has no metrics")
	}
	for _, pattern := range p.SysObjectIDs {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid sysobjectid pattern '%s'", pattern)
		}
	}
	return nil
}

// specificity ranks how precisely pattern matches sysObjectID; zero means no
// match. Patterns with more literal arcs win, then longer patterns.
func specificity(pattern, sysObjectID string) (literal, length int) {
	ok, err := doublestar.Match(strings.TrimPrefix(pattern, "."), sysObjectID)
	if err != nil || !ok {
		return 0, 0
	}
	for _, arc := range strings.Split(pattern, ".") {
		if arc != "" && !strings.ContainsAny(arc, "*?[{") {
			literal++
		}
	}
	return literal, len(pattern)
}
