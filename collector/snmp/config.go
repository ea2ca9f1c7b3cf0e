// SPDX-License-Identifier: GPL-3.0-or-later

package snmp

import (
	"time"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/profile"
	"github.com/netdata/netdata/go/snmppoll/pkg/confopt"
)

const (
	defaultPort                     = 161
	defaultSNMPVersion              = 2
	defaultTimeout                  = time.Second
	defaultRetries                  = 5
	defaultOIDBatchSize             = 10
	defaultMaxRepetitions           = 25
	defaultDiscoveryInterval        = time.Hour
	defaultDiscoveryAllowedFailures = 3
	defaultDiscoveryWorkers         = 5
)

type (
	// InitConfig is shared by every instance of the check.
	InitConfig struct {
		MIBsFolder     string                        `yaml:"mibs_folder,omitempty" json:"mibs_folder"`
		ProfilesFolder string                        `yaml:"profiles_folder,omitempty" json:"profiles_folder"`
		Profiles       map[string]profile.Definition `yaml:"profiles,omitempty" json:"profiles"`
		GlobalMetrics  []metricparse.MetricConfig    `yaml:"global_metrics,omitempty" json:"global_metrics"`

		OIDBatchSize           int  `yaml:"oid_batch_size,omitempty" json:"oid_batch_size"`
		IgnoreNonIncreasingOID bool `yaml:"ignore_nonincreasing_oid,omitempty" json:"ignore_nonincreasing_oid"`
	}

	// Config is one instance: a single device (ip_address) or every device
	// of an address range (network_address).
	Config struct {
		Name           string `yaml:"name,omitempty" json:"name"`
		IPAddress      string `yaml:"ip_address,omitempty" json:"ip_address"`
		NetworkAddress string `yaml:"network_address,omitempty" json:"network_address"`
		Port           int    `yaml:"port,omitempty" json:"port"`

		SNMPVersion     int    `yaml:"snmp_version,omitempty" json:"snmp_version"`
		CommunityString string `yaml:"community_string,omitempty" json:"community_string"`
		User            string `yaml:"user,omitempty" json:"user"`
		AuthKey         string `yaml:"authKey,omitempty" json:"authKey"`
		AuthProtocol    string `yaml:"authProtocol,omitempty" json:"authProtocol"`
		PrivKey         string `yaml:"privKey,omitempty" json:"privKey"`
		PrivProtocol    string `yaml:"privProtocol,omitempty" json:"privProtocol"`
		ContextEngineID string `yaml:"context_engine_id,omitempty" json:"context_engine_id"`
		ContextName     string `yaml:"context_name,omitempty" json:"context_name"`

		Timeout confopt.Duration `yaml:"timeout,omitempty" json:"timeout"`
		Retries int              `yaml:"retries,omitempty" json:"retries"`

		OIDBatchSize           int  `yaml:"oid_batch_size,omitempty" json:"oid_batch_size"`
		BulkThreshold          int  `yaml:"bulk_threshold,omitempty" json:"bulk_threshold"`
		IgnoreNonIncreasingOID bool `yaml:"ignore_nonincreasing_oid,omitempty" json:"ignore_nonincreasing_oid"`
		EnforceMIBConstraints  bool `yaml:"enforce_mib_constraints" json:"enforce_mib_constraints"`

		Tags             []string                   `yaml:"tags,omitempty" json:"tags"`
		Metrics          []metricparse.MetricConfig `yaml:"metrics,omitempty" json:"metrics"`
		UseGlobalMetrics bool                       `yaml:"use_global_metrics" json:"use_global_metrics"`
		Profile          string                     `yaml:"profile,omitempty" json:"profile"`

		DiscoveryInterval        confopt.Duration `yaml:"discovery_interval,omitempty" json:"discovery_interval"`
		DiscoveryAllowedFailures int              `yaml:"discovery_allowed_failures,omitempty" json:"discovery_allowed_failures"`
		DiscoveryWorkers         int              `yaml:"discovery_workers,omitempty" json:"discovery_workers"`
		DiscoveryCacheDir        string           `yaml:"discovery_cache_dir,omitempty" json:"discovery_cache_dir"`
	}
)

// DefaultConfig returns an instance config holding every default. Decode
// instance YAML on top of it.
func DefaultConfig() Config {
	return Config{
		SNMPVersion:              defaultSNMPVersion,
		Timeout:                  confopt.Duration(defaultTimeout),
		Retries:                  defaultRetries,
		EnforceMIBConstraints:    true,
		UseGlobalMetrics:         true,
		DiscoveryInterval:        confopt.Duration(defaultDiscoveryInterval),
		DiscoveryAllowedFailures: defaultDiscoveryAllowedFailures,
		DiscoveryWorkers:         defaultDiscoveryWorkers,
	}
}

// UnmarshalYAML decodes an instance on top of DefaultConfig.
func (c *Config) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Config
	v := plain(DefaultConfig())
	if err := unmarshal(&v); err != nil {
		return err
	}
	*c = Config(v)
	return nil
}

func (c Config) port() int {
	if c.Port <= 0 {
		return defaultPort
	}
	return c.Port
}

func (c Config) oidBatchSize(ic InitConfig) int {
	switch {
	case c.OIDBatchSize > 0:
		return c.OIDBatchSize
	case ic.OIDBatchSize > 0:
		return ic.OIDBatchSize
	default:
		return defaultOIDBatchSize
	}
}
