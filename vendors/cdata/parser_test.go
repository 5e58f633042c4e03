package cdata

import (
	"testing"

	"github.com/nanoncore/nano-fleetmon/types"
)

func TestParseConfirmBind(t *testing.T) {
	transcript := `
interface epon 0/1
confirm onu mac a2:7d:08:15:41:00 onuid 2
`
	records := Parse(7, transcript)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.PONPort != "0/1" {
		t.Errorf("PONPort = %q, want 0/1", r.PONPort)
	}
	if r.ONUIndex != 2 {
		t.Errorf("ONUIndex = %d, want 2", r.ONUIndex)
	}
	if r.MACAddress != "A2:7D:08:15:41:00" {
		t.Errorf("MACAddress = %q", r.MACAddress)
	}
	if r.SerialNumber != "A27D08154100" {
		t.Errorf("SerialNumber = %q", r.SerialNumber)
	}
	if r.Status != types.StatusOnline {
		t.Errorf("Status = %q, want online", r.Status)
	}
	if r.DeviceID != 7 {
		t.Errorf("DeviceID = %d, want 7", r.DeviceID)
	}
}

func TestParseFullTranscript(t *testing.T) {
	transcript := `
OLT> show running
interface epon 0/1
confirm onu mac a2:7d:08:15:41:00 onuid 1
confirm onu mac a2:7d:08:15:41:01 onuid 2
OLT> show onu info
OnuId  Status    MacAddress          Description
-----  ------    ----------          -----------
1      online    a2:7d:08:15:41:00   CPE-market
2      offline   a2:7d:08:15:41:01   -
OLT> show onu optical-transceiver-diagnosis
OnuId  Temperature  TxPower  RxPower
1      45.2         2.31     -19.82
OLT> show onu distance
OnuId  Distance
1      1523
OLT> show onu version
OnuId  Vendor  Model
1      VSOL    V2801F
2025-06-01 10:20:30  0/1:2  deregister  reason: power-off
2025-06-01 09:00:10  0/1:1  register
`
	records := Parse(1, transcript)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Status != types.StatusOnline {
		t.Errorf("onu 1 status = %q", first.Status)
	}
	if first.Name != "CPE-market" {
		t.Errorf("onu 1 name = %q", first.Name)
	}
	if first.RxPower == nil || *first.RxPower != -19.82 {
		t.Errorf("onu 1 rx = %v", first.RxPower)
	}
	if first.TxPower == nil || *first.TxPower != 2.31 {
		t.Errorf("onu 1 tx = %v", first.TxPower)
	}
	if first.Temperature == nil || *first.Temperature != 45.2 {
		t.Errorf("onu 1 temp = %v", first.Temperature)
	}
	if first.DistanceM == nil || *first.DistanceM != 1523 {
		t.Errorf("onu 1 distance = %v", first.DistanceM)
	}
	if first.Vendor != "VSOL" || first.Model != "V2801F" {
		t.Errorf("onu 1 vendor/model = %q/%q", first.Vendor, first.Model)
	}
	if first.LastOnlineAt == nil {
		t.Error("onu 1 missing last online time")
	}

	second := records[1]
	if second.Status != types.StatusOffline {
		t.Errorf("onu 2 status = %q", second.Status)
	}
	if second.OfflineReason != "power-off" {
		t.Errorf("onu 2 offline reason = %q", second.OfflineReason)
	}
	if second.LastOfflineAt == nil {
		t.Error("onu 2 missing last offline time")
	}
	// Placeholder name when device reports "-"
	if second.Name != "ONU-0-1-2" {
		t.Errorf("onu 2 name = %q, want placeholder ONU-0-1-2", second.Name)
	}
}

func TestParseStatusOverwritesConfirm(t *testing.T) {
	// The status table is a later, more authoritative command than the
	// running-config confirm statements.
	transcript := `
interface epon 0/2
confirm onu mac 00:11:22:33:44:55 onuid 3
OnuId  Status   MacAddress          Description
3      los      00:11:22:33:44:55   hilltop
`
	records := Parse(1, transcript)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Status != types.StatusWarning {
		t.Errorf("status = %q, want warning (los)", records[0].Status)
	}
	if records[0].Name != "hilltop" {
		t.Errorf("name = %q", records[0].Name)
	}
}

func TestParseEmptyTranscript(t *testing.T) {
	if records := Parse(1, ""); len(records) != 0 {
		t.Fatalf("empty transcript produced %d records", len(records))
	}
}
