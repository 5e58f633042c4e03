package bdcom

import (
	"testing"

	"github.com/nanoncore/nano-fleetmon/types"
)

func TestParseOnuInformation(t *testing.T) {
	transcript := `
Switch# show epon onu-information interface EPON0/1
IntfName     MacAddress       Vendor   Status            RTT
EPON0/1:1    a27d.0815.4100   VSOL     auto-configured   00:10:05
EPON0/1:2    a27d.0815.4101   BDCOM    lost              --
Switch# show epon optical-transceiver-diagnosis interface EPON0/1:1
Interface EPON0/1:1 transceiver diagnostics:
  Temperature : 42.5 C
  Tx Power    : 2.10 dBm
  Rx Power    : -21.30 dBm
Switch# show epon onu deregister-reason
EPON0/1:2    power-off    2025-06-01 10:20:30
EPON0/1:1    last-registered: 2025-06-01 09:00:10
EPON0/1:1    distance: 1847 m
`
	records := Parse(3, transcript)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.PONPort != "0/1" || first.ONUIndex != 1 {
		t.Fatalf("first key = %s:%d", first.PONPort, first.ONUIndex)
	}
	if first.Status != types.StatusOnline {
		t.Errorf("onu 1 status = %q", first.Status)
	}
	if first.MACAddress != "A2:7D:08:15:41:00" {
		t.Errorf("onu 1 mac = %q", first.MACAddress)
	}
	if first.SerialNumber != "A27D08154100" {
		t.Errorf("onu 1 serial = %q", first.SerialNumber)
	}
	if first.Vendor != "VSOL" {
		t.Errorf("onu 1 vendor = %q", first.Vendor)
	}
	if first.RxPower == nil || *first.RxPower != -21.30 {
		t.Errorf("onu 1 rx = %v", first.RxPower)
	}
	if first.TxPower == nil || *first.TxPower != 2.10 {
		t.Errorf("onu 1 tx = %v", first.TxPower)
	}
	if first.Temperature == nil || *first.Temperature != 42.5 {
		t.Errorf("onu 1 temp = %v", first.Temperature)
	}
	if first.DistanceM == nil || *first.DistanceM != 1847 {
		t.Errorf("onu 1 distance = %v", first.DistanceM)
	}
	if first.LastOnlineAt == nil {
		t.Error("onu 1 missing register time")
	}

	second := records[1]
	if second.Status != types.StatusOffline {
		t.Errorf("onu 2 status = %q", second.Status)
	}
	if second.OfflineReason != "power-off" {
		t.Errorf("onu 2 offline reason = %q", second.OfflineReason)
	}
	if second.LastOfflineAt == nil {
		t.Error("onu 2 missing deregister time")
	}
}

func TestParsePositiveRxRejected(t *testing.T) {
	// Rx power is always <= 0 dBm; a positive reading is a read error
	transcript := `
Interface EPON0/2:5 transceiver diagnostics:
  Rx Power : 3.10 dBm
  Tx Power : 2.00 dBm
`
	records := Parse(1, transcript)
	// Optical side-table entries without a matching info row produce no
	// record at all
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
}
