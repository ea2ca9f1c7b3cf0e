// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
)

func TestParseSNMPVersion(t *testing.T) {
	tests := map[string]struct {
		input   int
		want    gosnmp.SnmpVersion
		wantErr bool
	}{
		"v1":      {input: 1, want: gosnmp.Version1},
		"v2":      {input: 2, want: gosnmp.Version2c},
		"default": {input: 0, want: gosnmp.Version2c},
		"v3":      {input: 3, want: gosnmp.Version3},
		"invalid": {input: 4, wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := ParseSNMPVersion(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.want, v)
		})
	}
}

func TestParseSNMPv3AuthProtocol(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    gosnmp.SnmpV3AuthProtocol
		wantErr bool
	}{
		"empty":        {input: "", want: gosnmp.NoAuth},
		"md5":          {input: "md5", want: gosnmp.MD5},
		"pysnmp md5":   {input: "usmHMACMD5AuthProtocol", want: gosnmp.MD5},
		"pysnmp sha":   {input: "usmHMACSHAAuthProtocol", want: gosnmp.SHA},
		"sha512 upper": {input: "SHA512", want: gosnmp.SHA512},
		"unknown":      {input: "rot13", wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := ParseSNMPv3AuthProtocol(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.want, v)
		})
	}
}

func TestParseSNMPv3PrivProtocol(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    gosnmp.SnmpV3PrivProtocol
		wantErr bool
	}{
		"empty":      {input: "", want: gosnmp.NoPriv},
		"des":        {input: "des", want: gosnmp.DES},
		"pysnmp des": {input: "usmDESPrivProtocol", want: gosnmp.DES},
		"pysnmp aes": {input: "usmAesCfb128Protocol", want: gosnmp.AES},
		"aes256c":    {input: "aes256c", want: gosnmp.AES256C},
		"unknown":    {input: "3des", wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := ParseSNMPv3PrivProtocol(test.input)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.want, v)
		})
	}
}
