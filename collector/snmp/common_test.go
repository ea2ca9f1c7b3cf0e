// SPDX-License-Identifier: GPL-3.0-or-later

package snmp

import (
	"slices"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/gosnmp/gosnmp"

	snmpmock "github.com/gosnmp/gosnmp/mocks"

	"github.com/netdata/netdata/go/snmppoll/pkg/oid"
)

// snmpAgent answers GET, GETNEXT and GETBULK from a fixed set of varbinds.
type snmpAgent struct {
	pdus []gosnmp.SnmpPDU
}

func newSNMPAgent(pdus ...gosnmp.SnmpPDU) *snmpAgent {
	a := &snmpAgent{pdus: slices.Clone(pdus)}
	slices.SortFunc(a.pdus, func(x, y gosnmp.SnmpPDU) int {
		return oid.MustParse(x.Name).Compare(oid.MustParse(y.Name))
	})
	return a
}

func (a *snmpAgent) get(names []string) (*gosnmp.SnmpPacket, error) {
	pkt := &gosnmp.SnmpPacket{}
	for _, name := range names {
		o := oid.MustParse(name)
		pdu := gosnmp.SnmpPDU{Name: "." + name, Type: gosnmp.NoSuchObject}
		for _, p := range a.pdus {
			if oid.MustParse(p.Name).Compare(o) == 0 {
				pdu = p
				break
			}
		}
		pkt.Variables = append(pkt.Variables, pdu)
	}
	return pkt, nil
}

func (a *snmpAgent) next(o oid.OID) gosnmp.SnmpPDU {
	for _, p := range a.pdus {
		if oid.MustParse(p.Name).Compare(o) > 0 {
			return p
		}
	}
	return gosnmp.SnmpPDU{Name: "." + o.String(), Type: gosnmp.EndOfMibView}
}

func (a *snmpAgent) getNext(names []string) (*gosnmp.SnmpPacket, error) {
	pkt := &gosnmp.SnmpPacket{}
	for _, name := range names {
		pkt.Variables = append(pkt.Variables, a.next(oid.MustParse(name)))
	}
	return pkt, nil
}

func (a *snmpAgent) getBulk(names []string, _ uint8, maxReps uint32) (*gosnmp.SnmpPacket, error) {
	pkt := &gosnmp.SnmpPacket{}
	for _, name := range names {
		cursor := oid.MustParse(name)
		for range maxReps {
			pdu := a.next(cursor)
			pkt.Variables = append(pkt.Variables, pdu)
			if pdu.Type == gosnmp.EndOfMibView {
				break
			}
			cursor = oid.MustParse(pdu.Name)
		}
	}
	return pkt, nil
}

func (a *snmpAgent) serve(m *snmpmock.MockHandler) {
	m.EXPECT().Get(gomock.Any()).DoAndReturn(a.get).AnyTimes()
	m.EXPECT().GetNext(gomock.Any()).DoAndReturn(a.getNext).AnyTimes()
	m.EXPECT().GetBulk(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(a.getBulk).AnyTimes()
}

func setupMockHandler(t *testing.T) (*gomock.Controller, *snmpmock.MockHandler) {
	ctrl := gomock.NewController(t)
	return ctrl, snmpmock.NewMockHandler(ctrl)
}

// setMockClientInitExpect allows everything the check does to a client
// before and after polling it.
func setMockClientInitExpect(m *snmpmock.MockHandler) {
	m.EXPECT().SetTarget(gomock.Any()).AnyTimes()
	m.EXPECT().SetPort(gomock.Any()).AnyTimes()
	m.EXPECT().SetRetries(gomock.Any()).AnyTimes()
	m.EXPECT().SetTimeout(gomock.Any()).AnyTimes()
	m.EXPECT().SetMaxOids(gomock.Any()).AnyTimes()
	m.EXPECT().SetMaxRepetitions(gomock.Any()).AnyTimes()
	m.EXPECT().SetCommunity(gomock.Any()).AnyTimes()
	m.EXPECT().SetVersion(gomock.Any()).AnyTimes()
	m.EXPECT().SetSecurityModel(gomock.Any()).AnyTimes()
	m.EXPECT().SetMsgFlags(gomock.Any()).AnyTimes()
	m.EXPECT().SetSecurityParameters(gomock.Any()).AnyTimes()
	m.EXPECT().SetContextName(gomock.Any()).AnyTimes()
	m.EXPECT().SetContextEngineID(gomock.Any()).AnyTimes()

	m.EXPECT().Target().Return("192.0.2.1").AnyTimes()
	m.EXPECT().Port().Return(uint16(161)).AnyTimes()
	m.EXPECT().Version().Return(gosnmp.Version2c).AnyTimes()
	m.EXPECT().MsgFlags().Return(gosnmp.NoAuthNoPriv).AnyTimes()
	m.EXPECT().SecurityParameters().Return(nil).AnyTimes()

	m.EXPECT().Connect().Return(nil).AnyTimes()
	m.EXPECT().Close().Return(nil).AnyTimes()
}

func createPDU(name string, pduType gosnmp.Asn1BER, value any) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Name: name, Type: pduType, Value: value}
}

func createStringPDU(name, value string) gosnmp.SnmpPDU {
	return createPDU(name, gosnmp.OctetString, []byte(value))
}

func createCounter32PDU(name string, value uint) gosnmp.SnmpPDU {
	return createPDU(name, gosnmp.Counter32, value)
}

func createGauge32PDU(name string, value uint) gosnmp.SnmpPDU {
	return createPDU(name, gosnmp.Gauge32, value)
}

func createTimeTicksPDU(name string, value uint32) gosnmp.SnmpPDU {
	return createPDU(name, gosnmp.TimeTicks, value)
}
