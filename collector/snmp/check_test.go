// SPDX-License-Identifier: GPL-3.0-or-later

package snmp

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snmpmock "github.com/gosnmp/gosnmp/mocks"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/discovery"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/executor"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
	"github.com/netdata/netdata/go/snmppoll/collector/snmp/profile"
)

func TestCheck_Init(t *testing.T) {
	tests := map[string]struct {
		prepare       func(cfg *Config, initCfg *InitConfig)
		wantFail      bool
		wantConfigErr bool
	}{
		"success with metrics": {
			prepare: func(cfg *Config, initCfg *InitConfig) {},
		},
		"success with a profile only": {
			prepare: func(cfg *Config, initCfg *InitConfig) {
				cfg.Metrics = nil
				cfg.Profile = "router"
				initCfg.Profiles = map[string]profile.Definition{"router": {Definition: routerProfile()}}
			},
		},
		"success with SNMPv3 user": {
			prepare: func(cfg *Config, initCfg *InitConfig) {
				cfg.CommunityString = ""
				cfg.User = "monitor"
				cfg.AuthKey = "authsecret"
				cfg.PrivKey = "privsecret"
				cfg.AuthProtocol = "usmHMACSHAAuthProtocol"
				cfg.PrivProtocol = "aes"
			},
		},
		"fail when no address": {
			prepare:       func(cfg *Config, initCfg *InitConfig) { cfg.IPAddress = "" },
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when both addresses": {
			prepare:       func(cfg *Config, initCfg *InitConfig) { cfg.NetworkAddress = "192.0.2.0/24" },
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when network address is invalid": {
			prepare: func(cfg *Config, initCfg *InitConfig) {
				cfg.IPAddress = ""
				cfg.NetworkAddress = "192.0.2.0/99"
			},
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when no authentication": {
			prepare:       func(cfg *Config, initCfg *InitConfig) { cfg.CommunityString = "" },
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when no metrics and no profile": {
			prepare:       func(cfg *Config, initCfg *InitConfig) { cfg.Metrics = nil },
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when snmp_version is invalid": {
			prepare:       func(cfg *Config, initCfg *InitConfig) { cfg.SNMPVersion = 4 },
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when profile is unknown": {
			prepare:       func(cfg *Config, initCfg *InitConfig) { cfg.Profile = "unknown" },
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when authProtocol is unsupported": {
			prepare: func(cfg *Config, initCfg *InitConfig) {
				cfg.CommunityString = ""
				cfg.User = "monitor"
				cfg.AuthKey = "authsecret"
				cfg.AuthProtocol = "sha3"
			},
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when a MIB symbol is unknown": {
			prepare: func(cfg *Config, initCfg *InitConfig) {
				cfg.Metrics = []metricparse.MetricConfig{{MIB: "IF-MIB", Symbol: &metricparse.SymbolConfig{Name: "ifUnknown"}}}
			},
			wantFail:      true,
			wantConfigErr: true,
		},
		"fail when mibs folder does not exist": {
			prepare:       func(cfg *Config, initCfg *InitConfig) { initCfg.MIBsFolder = "testdata/no-such-dir" },
			wantFail:      true,
			wantConfigErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl, mockSNMP := setupMockHandler(t)
			defer ctrl.Finish()
			setMockClientInitExpect(mockSNMP)

			cfg, initCfg := prepareConfig(), InitConfig{}
			test.prepare(&cfg, &initCfg)

			c := New(initCfg, cfg, nil)
			c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
			defer c.Cleanup()

			err := c.Init(context.Background())

			if test.wantFail {
				require.Error(t, err)
				assert.Equal(t, test.wantConfigErr, IsConfigurationError(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, c.Devices())
			}
		})
	}
}

func TestCheck_Init_ConnectError(t *testing.T) {
	ctrl, mockSNMP := setupMockHandler(t)
	defer ctrl.Finish()

	mockSNMP.EXPECT().Connect().Return(errors.New("connect failed"))
	mockSNMP.EXPECT().Close().Return(nil).AnyTimes()
	setMockClientInitExpect(mockSNMP)

	c := New(InitConfig{}, prepareConfig(), nil)
	c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }

	err := c.Init(context.Background())
	require.Error(t, err)
	assert.False(t, IsConfigurationError(err))
}

func TestCheck_Check(t *testing.T) {
	ctrl, mockSNMP := setupMockHandler(t)
	defer ctrl.Finish()

	setMockClientInitExpect(mockSNMP)
	newSNMPAgent(
		createTimeTicksPDU(".1.3.6.1.2.1.1.3.0", 1200),
		createGauge32PDU(".1.3.6.1.2.1.6.9.0", 7),
		createStringPDU(".1.3.6.1.2.1.2.2.1.2.1", "eth0"),
		createStringPDU(".1.3.6.1.2.1.2.2.1.2.2", "eth1"),
		createCounter32PDU(".1.3.6.1.2.1.2.2.1.14.1", 3),
		createCounter32PDU(".1.3.6.1.2.1.2.2.1.14.2", 0),
		createStringPDU(".1.3.6.1.4.1.2021.99.1.0", "42.5"),
	).serve(mockSNMP)

	cfg := prepareConfig()
	cfg.Tags = []string{"env:test"}
	cfg.Metrics = []metricparse.MetricConfig{
		{OID: "1.3.6.1.2.1.1.3.0", Name: "uptime"},
		{
			MIB:        "TCP-MIB",
			Symbol:     &metricparse.SymbolConfig{Name: "tcpCurrEstab"},
			MetricTags: []metricparse.MetricTagConfig{{Static: "proto:tcp"}},
		},
		{
			MIB:     "IF-MIB",
			Table:   &metricparse.SymbolConfig{Name: "ifTable"},
			Symbols: []metricparse.SymbolConfig{{Name: "ifInErrors"}},
			MetricTags: []metricparse.MetricTagConfig{
				{Tag: "interface", Column: &metricparse.SymbolConfig{Name: "ifDescr"}},
			},
		},
		{OID: "1.3.6.1.4.1.2021.99.1.0", Name: "cpu-temp", ForcedType: "gauge"},
	}

	c := New(InitConfig{}, cfg, nil)
	c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
	require.NoError(t, c.Init(context.Background()))
	defer c.Cleanup()

	rep := c.Check(context.Background())

	device := []string{"env:test", "snmp_device:192.0.2.1"}
	with := func(tags ...string) []string { return append(append([]string{}, device...), tags...) }

	assert.ElementsMatch(t, []Metric{
		{Name: "snmp.uptime", Value: 1200, Tags: with(), Type: TypeGauge},
		{Name: "snmp.tcpCurrEstab", Value: 7, Tags: with("proto:tcp"), Type: TypeGauge},
		{Name: "snmp.ifInErrors", Value: 3, Tags: with("interface:eth0"), Type: TypeRate},
		{Name: "snmp.ifInErrors", Value: 0, Tags: with("interface:eth1"), Type: TypeRate},
		{Name: "snmp.cpu_temp", Value: 42.5, Tags: with(), Type: TypeGauge},
	}, rep.Metrics)

	assert.Equal(t, ServiceCheck{
		Name:   "snmp.can_check",
		Status: executor.StatusOK,
		Tags:   []string{"snmp_device:192.0.2.1", "env:test"},
	}, rep.ServiceCheck)
}

func TestCheck_Check_IndexTags(t *testing.T) {
	tests := map[string]struct {
		mapping  map[int]string
		wantTags [][]string
	}{
		"raw index": {
			wantTags: [][]string{{"interface:1"}, {"interface:2"}},
		},
		"mapped index": {
			mapping:  map[int]string{1: "eth0", 2: "eth1"},
			wantTags: [][]string{{"interface:eth0"}, {"interface:eth1"}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl, mockSNMP := setupMockHandler(t)
			defer ctrl.Finish()

			setMockClientInitExpect(mockSNMP)
			newSNMPAgent(
				createCounter32PDU(".1.3.6.1.2.1.2.2.1.14.1", 10),
				createCounter32PDU(".1.3.6.1.2.1.2.2.1.14.2", 20),
			).serve(mockSNMP)

			cfg := prepareConfig()
			cfg.Metrics = []metricparse.MetricConfig{{
				MIB:     "IF-MIB",
				Table:   &metricparse.SymbolConfig{Name: "ifTable"},
				Symbols: []metricparse.SymbolConfig{{OID: "1.3.6.1.2.1.2.2.1.14", Name: "ifInErrors"}},
				MetricTags: []metricparse.MetricTagConfig{
					{Tag: "interface", Index: 1, Mapping: test.mapping},
				},
			}}

			c := New(InitConfig{}, cfg, nil)
			c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
			require.NoError(t, c.Init(context.Background()))
			defer c.Cleanup()

			rep := c.Check(context.Background())

			require.Len(t, rep.Metrics, len(test.wantTags))
			for i, tags := range test.wantTags {
				assert.Equal(t, append([]string{"snmp_device:192.0.2.1"}, tags...), rep.Metrics[i].Tags)
			}
			assert.Equal(t, executor.StatusOK, rep.ServiceCheck.Status)
		})
	}
}

func TestCheck_Check_EnforceMIBConstraints(t *testing.T) {
	tests := map[string]struct {
		enforce     bool
		wantMetrics []Metric
	}{
		"enforced drops values that contradict the syntax": {
			enforce: true,
		},
		"not enforced keeps them": {
			enforce: false,
			wantMetrics: []Metric{
				{Name: "snmp.tcpCurrEstab", Value: 5, Tags: []string{"snmp_device:192.0.2.1"}, Type: TypeGauge},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl, mockSNMP := setupMockHandler(t)
			defer ctrl.Finish()

			setMockClientInitExpect(mockSNMP)
			newSNMPAgent(createStringPDU(".1.3.6.1.2.1.6.9.0", "5")).serve(mockSNMP)

			cfg := prepareConfig()
			cfg.EnforceMIBConstraints = test.enforce
			cfg.Metrics = []metricparse.MetricConfig{{MIB: "TCP-MIB", Symbol: &metricparse.SymbolConfig{Name: "tcpCurrEstab"}}}

			c := New(InitConfig{}, cfg, nil)
			c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
			require.NoError(t, c.Init(context.Background()))
			defer c.Cleanup()

			rep := c.Check(context.Background())

			assert.Equal(t, test.wantMetrics, rep.Metrics)
		})
	}
}

func TestCheck_Check_Status(t *testing.T) {
	tests := map[string]struct {
		prepareMock func(m *snmpmock.MockHandler)
		wantStatus  executor.Status
		wantMetrics int
		wantMessage string
	}{
		"CRITICAL when nothing resolves": {
			prepareMock: func(m *snmpmock.MockHandler) {
				m.EXPECT().Get(gomock.Any()).Return(nil, errors.New("request timeout")).AnyTimes()
				m.EXPECT().GetNext(gomock.Any()).Return(nil, errors.New("request timeout")).AnyTimes()
			},
			wantStatus:  executor.StatusCritical,
			wantMessage: "request timeout",
		},
		"WARNING when some values resolve": {
			prepareMock: func(m *snmpmock.MockHandler) {
				agent := newSNMPAgent(createCounter32PDU(".1.3.6.1.2.1.2.2.1.14.1", 1))
				m.EXPECT().Get(gomock.Any()).Return(nil, errors.New("request timeout")).AnyTimes()
				m.EXPECT().GetNext(gomock.Any()).DoAndReturn(agent.getNext).AnyTimes()
			},
			wantStatus:  executor.StatusWarning,
			wantMetrics: 1,
			wantMessage: "request timeout",
		},
		"WARNING on device error status": {
			prepareMock: func(m *snmpmock.MockHandler) {
				agent := newSNMPAgent(createCounter32PDU(".1.3.6.1.2.1.2.2.1.14.1", 1))
				m.EXPECT().Get(gomock.Any()).Return(&gosnmp.SnmpPacket{Error: gosnmp.GenErr, ErrorIndex: 1}, nil).AnyTimes()
				m.EXPECT().GetNext(gomock.Any()).DoAndReturn(agent.getNext).AnyTimes()
			},
			wantStatus:  executor.StatusWarning,
			wantMetrics: 1,
			wantMessage: "device returned error status",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl, mockSNMP := setupMockHandler(t)
			defer ctrl.Finish()

			setMockClientInitExpect(mockSNMP)
			test.prepareMock(mockSNMP)

			cfg := prepareConfig()
			cfg.Metrics = []metricparse.MetricConfig{
				{OID: "1.3.6.1.2.1.1.3.0", Name: "uptime"},
				{
					MIB:     "IF-MIB",
					Table:   &metricparse.SymbolConfig{Name: "ifTable"},
					Symbols: []metricparse.SymbolConfig{{Name: "ifInErrors"}},
				},
			}

			c := New(InitConfig{}, cfg, nil)
			c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
			require.NoError(t, c.Init(context.Background()))
			defer c.Cleanup()

			rep := c.Check(context.Background())

			assert.Len(t, rep.Metrics, test.wantMetrics)
			assert.Equal(t, test.wantStatus, rep.ServiceCheck.Status)
			assert.Contains(t, rep.ServiceCheck.Message, test.wantMessage)
		})
	}
}

func TestCheck_Check_NotInitialized(t *testing.T) {
	cfg := prepareConfig()
	cfg.Metrics = nil
	cfg.Tags = []string{"env:test"}

	c := New(InitConfig{}, cfg, nil)
	require.Error(t, c.Init(context.Background()))

	rep := c.Check(context.Background())

	assert.Empty(t, rep.Metrics)
	assert.Equal(t, executor.StatusCritical, rep.ServiceCheck.Status)
	assert.Equal(t, []string{"snmp_device:192.0.2.1", "env:test"}, rep.ServiceCheck.Tags)
	assert.Contains(t, rep.ServiceCheck.Message, "at least one metric or a profile")
}

func TestCheck_Check_Network(t *testing.T) {
	ctrl, mockSNMP := setupMockHandler(t)
	defer ctrl.Finish()

	setMockClientInitExpect(mockSNMP)
	newSNMPAgent(
		createPDU(".1.3.6.1.2.1.1.2.0", gosnmp.ObjectIdentifier, ".1.3.6.1.4.1.9.1.1"),
		createStringPDU(".1.3.6.1.2.1.1.5.0", "router-1"),
		createTimeTicksPDU(".1.3.6.1.2.1.1.3.0", 300),
	).serve(mockSNMP)

	cfg := prepareConfig()
	cfg.IPAddress = ""
	cfg.NetworkAddress = "192.0.2.1"
	cfg.Metrics = nil
	cfg.Tags = []string{"env:test"}
	cfg.DiscoveryCacheDir = t.TempDir()

	initCfg := InitConfig{Profiles: map[string]profile.Definition{"router": {Definition: routerProfile()}}}

	c := New(initCfg, cfg, nil)
	c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
	require.NoError(t, c.Init(context.Background()))
	defer c.Cleanup()

	require.Eventually(t, func() bool { return c.Devices() == 1 }, time.Second*5, time.Millisecond*10)

	rep := c.Check(context.Background())

	assert.Equal(t, []Metric{{
		Name:  "snmp.sysUpTime",
		Value: 300,
		Tags:  []string{"env:test", "snmp_device:192.0.2.1", "snmp_profile:router", "vendor:cisco"},
		Type:  TypeGauge,
	}}, rep.Metrics)
	assert.Equal(t, ServiceCheck{
		Name:   "snmp.can_check",
		Status: executor.StatusOK,
		Tags:   []string{"env:test", "network:192.0.2.1"},
	}, rep.ServiceCheck)
}

func TestCheck_probe_NoMatch(t *testing.T) {
	ctrl, mockSNMP := setupMockHandler(t)
	defer ctrl.Finish()

	setMockClientInitExpect(mockSNMP)
	newSNMPAgent(
		createPDU(".1.3.6.1.2.1.1.2.0", gosnmp.ObjectIdentifier, ".1.3.6.1.4.1.2636.1.1"),
	).serve(mockSNMP)

	cfg := prepareConfig()
	cfg.IPAddress = ""
	cfg.NetworkAddress = "192.0.2.1"
	cfg.Metrics = nil
	cfg.DiscoveryCacheDir = t.TempDir()

	c := New(InitConfig{Profiles: map[string]profile.Definition{"router": {Definition: routerProfile()}}}, cfg, nil)
	c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
	require.NoError(t, c.Init(context.Background()))
	defer c.Cleanup()

	_, err := c.probe(netip.MustParseAddr("192.0.2.1"))

	assert.ErrorIs(t, err, discovery.ErrNoMatch)
}

func TestCheck_Key(t *testing.T) {
	tests := map[string]struct {
		cfg  Config
		want string
	}{
		"name wins":              {cfg: Config{Name: "core", IPAddress: "192.0.2.1", Port: 1161}, want: "core"},
		"explicit port":          {cfg: Config{IPAddress: "192.0.2.1", Port: 1161}, want: "192.0.2.1:1161"},
		"ip only":                {cfg: Config{IPAddress: "192.0.2.1"}, want: "192.0.2.1"},
		"network address":        {cfg: Config{NetworkAddress: "192.0.2.0/24"}, want: "192.0.2.0/24"},
		"name with network only": {cfg: Config{Name: "lab", NetworkAddress: "192.0.2.0/24"}, want: "lab"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, New(InitConfig{}, test.cfg, nil).Key())
		})
	}
}

func TestIdentity(t *testing.T) {
	cfg := prepareConfig()

	id1, err := identity(cfg)
	require.NoError(t, err)
	id2, err := identity(cfg)
	require.NoError(t, err)

	cfg.NetworkAddress = "192.0.2.0/24"
	id3, err := identity(cfg)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func prepareConfig() Config {
	cfg := DefaultConfig()
	cfg.IPAddress = "192.0.2.1"
	cfg.CommunityString = "public"
	cfg.Metrics = []metricparse.MetricConfig{{OID: "1.3.6.1.2.1.1.3.0", Name: "uptime"}}
	return cfg
}

func routerProfile() *profile.Profile {
	return &profile.Profile{
		SysObjectIDs: profile.SysObjectIDs{"1.3.6.1.4.1.9.*"},
		Metrics:      []metricparse.MetricConfig{{MIB: "SNMPv2-MIB", Symbol: &metricparse.SymbolConfig{Name: "sysUpTime"}}},
		MetricTags:   []string{"vendor:cisco"},
	}
}
