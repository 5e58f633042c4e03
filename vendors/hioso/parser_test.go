package hioso

import "testing"

const at8000Transcript = `AT8000# show epon onu-information
Pon 2 Onu 1 Mac 00:11:22:33:44:55 Status up Name office-cpe
Pon 2 Onu 2 Mac 0011.2233.4466 Status down
AT8000# show epon optical-transceiver
Pon 2 Onu 1 RxPower -18.50 TxPower 2.10 Temp 40.2
AT8000# show epon onu-dereg
Pon 2 Onu 2 Distance 1200 LastDereg power-off 2025-06-01 10:20:30
AT8000#`

func TestParseAT8000(t *testing.T) {
	records := Parse(5, at8000Transcript)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	byKey := map[string]int{}
	for i, r := range records {
		byKey[r.Key()] = i
	}

	r := records[byKey["0/2:1"]]
	if r.MACAddress != "00:11:22:33:44:55" {
		t.Errorf("mac = %q", r.MACAddress)
	}
	if r.SerialNumber != "001122334455" {
		t.Errorf("serial = %q", r.SerialNumber)
	}
	if r.Status != "online" {
		t.Errorf("status = %q", r.Status)
	}
	if r.Name != "office-cpe" {
		t.Errorf("name = %q", r.Name)
	}
	if r.RxPower == nil || *r.RxPower != -18.50 {
		t.Errorf("rx power = %v", r.RxPower)
	}

	r = records[byKey["0/2:2"]]
	if r.MACAddress != "00:11:22:33:44:66" {
		t.Errorf("mac = %q", r.MACAddress)
	}
	if r.Status != "offline" {
		t.Errorf("status = %q", r.Status)
	}
	if r.OfflineReason != "power-off" {
		t.Errorf("dereg reason = %q", r.OfflineReason)
	}
	if r.DistanceM == nil || *r.DistanceM != 1200 {
		t.Errorf("distance = %v", r.DistanceM)
	}
	if r.LastOfflineAt == nil {
		t.Error("expected last offline timestamp")
	}
}
