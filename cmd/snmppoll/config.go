// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp"
)

// checksFile is the layout of the --config file.
type checksFile struct {
	InitConfig snmp.InitConfig `yaml:"init_config"`
	Instances  []snmp.Config   `yaml:"instances"`
}

func loadChecksFile(path string) (*checksFile, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file checksFile
	if err := yaml.Unmarshal(bs, &file); err != nil {
		return nil, fmt.Errorf("'%s': %v", path, err)
	}
	if len(file.Instances) == 0 {
		return nil, fmt.Errorf("'%s': no instances", path)
	}

	return &file, nil
}
