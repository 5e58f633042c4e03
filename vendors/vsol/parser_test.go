package vsol

import "testing"

const v1600Transcript = `V1600G2# show onu info
Onuindex    Model        Profile        AuthInfo
--------------------------------------------------------
GPON0/1:1   HG6143D      default   sn   FHTT59CB8310
GPON0/1:2   HG323AC      default   sn   GPON00A1B2C3
GPON0/2:1   unknown      default   mac  a8:4e:3f:11:22:33
V1600G2# show onu state
Onuindex    State     LastChange
--------------------------------------------------------
GPON0/1:1   online    2025-06-01 09:00:10
GPON0/1:2   offline
GPON0/2:1   online
V1600G2# show onu optical-info
Onuindex    TxPower   RxPower   Temp    Distance
--------------------------------------------------------
GPON0/1:1   2.20      -18.50    45.0    1523
GPON0/2:1   2.31      -27.90    51.2    3810
V1600G2# show onu last-dereg-reason
Onuindex    Reason      Time
--------------------------------------------------------
GPON0/1:2   dying-gasp  2025-06-01 10:20:30
V1600G2#`

func TestParseV1600(t *testing.T) {
	records := Parse(7, v1600Transcript)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	byKey := map[string]int{}
	for i, r := range records {
		byKey[r.Key()] = i
	}

	r := records[byKey["0/1:1"]]
	if r.SerialNumber != "FHTT59CB8310" {
		t.Errorf("serial = %q", r.SerialNumber)
	}
	if r.Vendor != "FHTT" {
		t.Errorf("vendor = %q", r.Vendor)
	}
	if r.Model != "HG6143D" {
		t.Errorf("model = %q", r.Model)
	}
	if r.Status != "online" {
		t.Errorf("status = %q", r.Status)
	}
	if r.RxPower == nil || *r.RxPower != -18.50 {
		t.Errorf("rx power = %v", r.RxPower)
	}
	if r.TxPower == nil || *r.TxPower != 2.20 {
		t.Errorf("tx power = %v", r.TxPower)
	}
	if r.DistanceM == nil || *r.DistanceM != 1523 {
		t.Errorf("distance = %v", r.DistanceM)
	}
	if r.LastOnlineAt == nil {
		t.Error("expected last online timestamp")
	}

	r = records[byKey["0/1:2"]]
	if r.Status != "offline" {
		t.Errorf("status = %q", r.Status)
	}
	if r.OfflineReason != "dying-gasp" {
		t.Errorf("dereg reason = %q", r.OfflineReason)
	}
	if r.LastOfflineAt == nil {
		t.Error("expected last offline timestamp")
	}

	r = records[byKey["0/2:1"]]
	if r.MACAddress != "A8:4E:3F:11:22:33" {
		t.Errorf("mac = %q", r.MACAddress)
	}
	if r.SerialNumber != "A84E3F112233" {
		t.Errorf("serial = %q", r.SerialNumber)
	}
	if r.Model != "" {
		t.Errorf("unknown model should stay empty, got %q", r.Model)
	}
}

func TestParsePositiveRxRejected(t *testing.T) {
	records := Parse(1, `GPON0/1:1   online
GPON0/1:1   2.20      3.50    45.0    1523`)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].RxPower != nil {
		t.Errorf("positive rx power should be dropped, got %v", *records[0].RxPower)
	}
	if records[0].TxPower == nil || *records[0].TxPower != 2.20 {
		t.Errorf("tx power = %v", records[0].TxPower)
	}
}

func TestParseEmpty(t *testing.T) {
	if got := Parse(1, ""); len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}
