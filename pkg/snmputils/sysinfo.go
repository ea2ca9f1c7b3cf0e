// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"errors"
	"fmt"

	"github.com/gosnmp/gosnmp"
)

const (
	OidSysDescr    = "1.3.6.1.2.1.1.1.0"
	OidSysObjectID = "1.3.6.1.2.1.1.2.0"
	OidSysName     = "1.3.6.1.2.1.1.5.0"
)

// SysInfo is the device identity gathered by a discovery probe.
type SysInfo struct {
	SysObjectID string `json:"sys_object_id"`
	Name        string `json:"name"`
	Descr       string `json:"description"`
}

// GetSysInfo reads sysObjectID, sysName and sysDescr with a single GET.
// Only sysObjectID is required.
func GetSysInfo(client gosnmp.Handler) (*SysInfo, error) {
	pkt, err := client.Get([]string{OidSysObjectID, OidSysName, OidSysDescr})
	if err != nil {
		return nil, err
	}
	if pkt == nil {
		return nil, errors.New("empty response")
	}
	if pkt.Error != gosnmp.NoError {
		return nil, fmt.Errorf("device returned error status '%v'", pkt.Error)
	}

	var si SysInfo
	for _, pdu := range pkt.Variables {
		if !IsPduWithData(pdu) {
			continue
		}
		v, err := PduToString(pdu)
		if err != nil {
			return nil, fmt.Errorf("OID '%s': %v", pdu.Name, err)
		}
		switch TrimOID(pdu.Name) {
		case OidSysObjectID:
			si.SysObjectID = v
		case OidSysName:
			si.Name = v
		case OidSysDescr:
			si.Descr = v
		}
	}

	if si.SysObjectID == "" {
		return nil, errors.New("device did not report sysObjectID")
	}

	return &si, nil
}
