// SPDX-License-Identifier: GPL-3.0-or-later

package snmp

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gohugoio/hashstructure"
	"github.com/google/uuid"
	"github.com/gosnmp/gosnmp"

	"github.com/netdata/netdata/go/snmppoll/collector/snmp/metricparse"
	"github.com/netdata/netdata/go/snmppoll/pkg/iprange"
	"github.com/netdata/netdata/go/snmppoll/pkg/snmputils"
)

// ConfigurationError marks a fatal problem with the instance configuration.
type ConfigurationError = metricparse.ConfigurationError

// IsConfigurationError reports whether err or any error it wraps is a ConfigurationError.
func IsConfigurationError(err error) bool {
	return metricparse.IsConfigurationError(err)
}

var configErrorf = metricparse.ConfigErrorf

func (c *Check) validateConfig() error {
	switch {
	case c.IPAddress == "" && c.NetworkAddress == "":
		return configErrorf("an IP address or a network address must be specified")
	case c.IPAddress != "" && c.NetworkAddress != "":
		return configErrorf("only one of IP address and network address must be specified")
	}

	if c.NetworkAddress != "" {
		r, err := iprange.Parse(c.NetworkAddress)
		if err != nil {
			return configErrorf("invalid network_address '%s': %v", c.NetworkAddress, err)
		}
		c.network = r
	}

	if c.CommunityString == "" && c.User == "" {
		return configErrorf("an authentication method needs to be provided (community_string or user)")
	}

	if len(c.Metrics) == 0 && c.Profile == "" && c.NetworkAddress == "" {
		return configErrorf("instance should specify at least one metric or a profile")
	}

	if _, err := snmputils.ParseSNMPVersion(c.SNMPVersion); err != nil {
		return configErrorf("%v", err)
	}

	if c.Retries < 0 {
		return configErrorf("retries must not be negative, got %d", c.Retries)
	}

	return nil
}

// snmpVersion picks the protocol version from the credentials: a community
// string means v1 or v2c, a user means v3.
func (c *Check) snmpVersion() gosnmp.SnmpVersion {
	ver, _ := snmputils.ParseSNMPVersion(c.SNMPVersion)
	switch {
	case c.User != "" && (c.CommunityString == "" || ver == gosnmp.Version3):
		return gosnmp.Version3
	case ver == gosnmp.Version1:
		return gosnmp.Version1
	default:
		return gosnmp.Version2c
	}
}

// initSecurity builds the USM parameters of a v3 instance. A key without
// a protocol falls back to MD5 (auth) and DES (priv).
func (c *Check) initSecurity() (*gosnmp.UsmSecurityParameters, gosnmp.SnmpV3MsgFlags, error) {
	usm := &gosnmp.UsmSecurityParameters{
		UserName:                 c.User,
		AuthenticationPassphrase: c.AuthKey,
		PrivacyPassphrase:        c.PrivKey,
	}

	if c.AuthKey != "" || c.PrivKey != "" {
		usm.AuthenticationProtocol = gosnmp.MD5
	}
	if c.PrivKey != "" {
		usm.PrivacyProtocol = gosnmp.DES
	}

	if c.AuthProtocol != "" {
		proto, err := snmputils.ParseSNMPv3AuthProtocol(c.AuthProtocol)
		if err != nil {
			return nil, 0, configErrorf("%v", err)
		}
		usm.AuthenticationProtocol = proto
	}
	if c.PrivProtocol != "" {
		proto, err := snmputils.ParseSNMPv3PrivProtocol(c.PrivProtocol)
		if err != nil {
			return nil, 0, configErrorf("%v", err)
		}
		usm.PrivacyProtocol = proto
	}

	hasAuth := usm.AuthenticationProtocol != gosnmp.NoAuth && usm.AuthenticationProtocol != 0
	hasPriv := usm.PrivacyProtocol != gosnmp.NoPriv && usm.PrivacyProtocol != 0

	switch {
	case hasPriv && !hasAuth:
		return nil, 0, configErrorf("privacy without authentication is not supported")
	case hasPriv:
		return usm, gosnmp.AuthPriv, nil
	case hasAuth:
		return usm, gosnmp.AuthNoPriv, nil
	default:
		return usm, gosnmp.NoAuthNoPriv, nil
	}
}

// newClient returns a configured, not yet connected client for target.
func (c *Check) newClient(target string) gosnmp.Handler {
	client := c.newSnmpClient()

	client.SetTarget(target)
	client.SetPort(uint16(c.port()))
	client.SetRetries(c.Retries)
	client.SetTimeout(c.Timeout.OrDefault(defaultTimeout))
	client.SetMaxOids(c.oidBatchSize(c.InitConfig))
	client.SetMaxRepetitions(defaultMaxRepetitions)

	switch c.version {
	case gosnmp.Version1, gosnmp.Version2c:
		client.SetCommunity(c.CommunityString)
		client.SetVersion(c.version)
	case gosnmp.Version3:
		client.SetVersion(gosnmp.Version3)
		client.SetSecurityModel(gosnmp.UserSecurityModel)
		client.SetMsgFlags(c.msgFlags)
		client.SetSecurityParameters(c.usm.Copy())
		if c.ContextName != "" {
			client.SetContextName(c.ContextName)
		}
		if c.ContextEngineID != "" {
			client.SetContextEngineID(c.ContextEngineID)
		}
	}

	return client
}

// identity is stable across restarts for an unchanged instance config.
func identity(cfg Config) (string, error) {
	hash, err := hashstructure.Hash(cfg, nil)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strconv.FormatUint(hash, 10))).String(), nil
}

func (c *Check) cacheDir() string {
	if c.DiscoveryCacheDir != "" {
		return c.DiscoveryCacheDir
	}
	if dir := os.Getenv("NETDATA_LIB_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "snmppoll")
}

// Key names the instance in logs and emitted output.
func (c *Check) Key() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.IPAddress != "" && c.Port > 0:
		return c.IPAddress + ":" + strconv.Itoa(c.Port)
	case c.IPAddress != "":
		return c.IPAddress
	default:
		return c.NetworkAddress
	}
}

var errNotInitialized = errors.New("check is not initialized")
