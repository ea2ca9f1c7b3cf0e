// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gosnmp/gosnmp"
)

// TrimOID strips the leading dot gosnmp puts in front of returned names.
func TrimOID(oid string) string {
	return strings.TrimPrefix(oid, ".")
}

// IsPduWithData reports whether the varbind carries a value rather than an
// exception (noSuchObject, noSuchInstance, endOfMibView) or NULL.
func IsPduWithData(pdu gosnmp.SnmpPDU) bool {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.Null, gosnmp.EndOfMibView:
		return false
	default:
		return true
	}
}

// IsPduMissing reports whether the device said the object or instance does not exist.
func IsPduMissing(pdu gosnmp.SnmpPDU) bool {
	return pdu.Type == gosnmp.NoSuchObject || pdu.Type == gosnmp.NoSuchInstance
}

func PduToString(pdu gosnmp.SnmpPDU) (string, error) {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.Null, gosnmp.EndOfMibView:
		return "", fmt.Errorf("object not available: %v", pdu.Type)
	case gosnmp.OctetString:
		switch v := pdu.Value.(type) {
		case string:
			return v, nil
		case []byte:
			if utf8.Valid(v) {
				return string(v), nil
			}
			return hex.EncodeToString(v), nil
		default:
			return "", fmt.Errorf("OctetString has unexpected type %T", pdu.Value)
		}
	case gosnmp.Counter32, gosnmp.Counter64, gosnmp.Integer, gosnmp.Gauge32, gosnmp.Uinteger32, gosnmp.TimeTicks:
		return gosnmp.ToBigInt(pdu.Value).String(), nil
	case gosnmp.OpaqueFloat, gosnmp.OpaqueDouble:
		f, err := PduToFloat(pdu)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case gosnmp.ObjectIdentifier:
		v, ok := pdu.Value.(string)
		if !ok {
			return "", fmt.Errorf("ObjectIdentifier is not a string but %T", pdu.Value)
		}
		return TrimOID(v), nil
	case gosnmp.IPAddress:
		v, ok := pdu.Value.(string)
		if !ok {
			return "", fmt.Errorf("IPAddress is not a string but %T", pdu.Value)
		}
		return v, nil
	default:
		return fmt.Sprintf("%v", pdu.Value), nil
	}
}

// PduToFloat converts a numeric varbind to float64. OctetStrings are accepted
// when they hold a decimal number, as some devices report gauges that way.
func PduToFloat(pdu gosnmp.SnmpPDU) (float64, error) {
	switch pdu.Type {
	case gosnmp.Counter32, gosnmp.Counter64, gosnmp.Integer, gosnmp.Gauge32, gosnmp.Uinteger32, gosnmp.TimeTicks:
		f, _ := gosnmp.ToBigInt(pdu.Value).Float64()
		return f, nil
	case gosnmp.OpaqueFloat:
		v, ok := pdu.Value.(float32)
		if !ok {
			return 0, fmt.Errorf("OpaqueFloat is not a float32 but %T", pdu.Value)
		}
		return float64(v), nil
	case gosnmp.OpaqueDouble:
		v, ok := pdu.Value.(float64)
		if !ok {
			return 0, fmt.Errorf("OpaqueDouble is not a float64 but %T", pdu.Value)
		}
		return v, nil
	case gosnmp.OctetString:
		s, err := PduToString(pdu)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("OctetString '%s' is not a number", s)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type: '%v'", pdu.Type)
	}
}
