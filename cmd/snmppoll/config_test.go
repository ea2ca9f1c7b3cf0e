// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadChecksFile(t *testing.T) {
	tests := map[string]struct {
		content  string
		wantFail bool
		check    func(t *testing.T, file *checksFile)
	}{
		"instances with init_config": {
			content: `
init_config:
  oid_batch_size: 20
  global_metrics:
    - OID: 1.3.6.1.2.1.1.3.0
      name: sysUpTime
instances:
  - ip_address: 192.0.2.1
    community_string: public
    metrics:
      - MIB: IF-MIB
        table: ifTable
        symbols: [ifInErrors]
        metric_tags:
          - tag: interface
            column: ifDescr
  - network_address: 192.0.2.0/28
    community_string: public
`,
			check: func(t *testing.T, file *checksFile) {
				assert.Equal(t, 20, file.InitConfig.OIDBatchSize)
				require.Len(t, file.InitConfig.GlobalMetrics, 1)
				require.Len(t, file.Instances, 2)
				assert.Equal(t, "192.0.2.1", file.Instances[0].IPAddress)
				require.Len(t, file.Instances[0].Metrics, 1)
				assert.Equal(t, "ifDescr", file.Instances[0].Metrics[0].MetricTags[0].Column.Name)
				assert.True(t, file.Instances[1].EnforceMIBConstraints)
				assert.Equal(t, 2, file.Instances[1].SNMPVersion)
			},
		},
		"no instances": {
			content:  "init_config: {}\n",
			wantFail: true,
		},
		"invalid yaml": {
			content:  "instances: [",
			wantFail: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snmp.yaml")
			require.NoError(t, os.WriteFile(path, []byte(test.content), 0o644))

			file, err := loadChecksFile(path)

			if test.wantFail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			test.check(t, file)
		})
	}
}
