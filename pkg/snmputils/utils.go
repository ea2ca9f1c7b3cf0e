// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"fmt"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// ParseSNMPVersion maps the snmp_version option (1, 2 or 3) to a gosnmp version.
func ParseSNMPVersion(version int) (gosnmp.SnmpVersion, error) {
	switch version {
	case 1:
		return gosnmp.Version1, nil
	case 0, 2:
		return gosnmp.Version2c, nil
	case 3:
		return gosnmp.Version3, nil
	default:
		return 0, fmt.Errorf("invalid snmp_version %d (must be 1, 2 or 3)", version)
	}
}

// ParseSNMPv3AuthProtocol accepts both short names ("sha256") and
// pysnmp-style names ("usmHMAC192SHA256AuthProtocol").
func ParseSNMPv3AuthProtocol(protocol string) (gosnmp.SnmpV3AuthProtocol, error) {
	switch strings.ToLower(protocol) {
	case "", "none", "noauth", "usmnoauthprotocol":
		return gosnmp.NoAuth, nil
	case "md5", "usmhmacmd5authprotocol":
		return gosnmp.MD5, nil
	case "sha", "usmhmacshaauthprotocol":
		return gosnmp.SHA, nil
	case "sha224", "usmhmac128sha224authprotocol":
		return gosnmp.SHA224, nil
	case "sha256", "usmhmac192sha256authprotocol":
		return gosnmp.SHA256, nil
	case "sha384", "usmhmac256sha384authprotocol":
		return gosnmp.SHA384, nil
	case "sha512", "usmhmac384sha512authprotocol":
		return gosnmp.SHA512, nil
	default:
		return gosnmp.NoAuth, fmt.Errorf("unsupported authProtocol '%s'", protocol)
	}
}

func ParseSNMPv3PrivProtocol(protocol string) (gosnmp.SnmpV3PrivProtocol, error) {
	switch strings.ToLower(protocol) {
	case "", "none", "nopriv", "usmnoprivprotocol":
		return gosnmp.NoPriv, nil
	case "des", "usmdesprivprotocol":
		return gosnmp.DES, nil
	case "aes", "usmaescfb128protocol":
		return gosnmp.AES, nil
	case "aes192", "usmaescfb192protocol":
		return gosnmp.AES192, nil
	case "aes256", "usmaescfb256protocol":
		return gosnmp.AES256, nil
	case "aes192c", "usmaesblumenthalcfb192protocol":
		return gosnmp.AES192C, nil
	case "aes256c", "usmaesblumenthalcfb256protocol":
		return gosnmp.AES256C, nil
	default:
		return gosnmp.NoPriv, fmt.Errorf("unsupported privProtocol '%s'", protocol)
	}
}

// SnmpClientConnInfo describes the client connection for logs.
func SnmpClientConnInfo(c gosnmp.Handler) string {
	var info strings.Builder
	info.WriteString(fmt.Sprintf("hostname='%s',port='%d',snmp_version='%s'", c.Target(), c.Port(), c.Version()))
	if c.Version() == gosnmp.Version3 {
		info.WriteString(fmt.Sprintf(",security_level='%d'", c.MsgFlags()))
		if sp := c.SecurityParameters(); sp != nil {
			info.WriteString(fmt.Sprintf(",%s", sp.Description()))
		}
	}
	return info.String()
}
