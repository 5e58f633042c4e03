package huawei

import "testing"

const ma5800Transcript = `MA5800-X7#display ont info 0 1 0 all
  -----------------------------------------------------------------------------
  F/S/P   ONT         SN         Control     Run      Config   Match    Protect
          ID                     flag        state    state    state    side
  -----------------------------------------------------------------------------
  0/ 1/0    0   4857544345E8A1B2  active      online   normal   match    no
  0/ 1/0    1   48575443AABBCCDD  active      offline  normal   match    no
  0/ 2/3    5   485754431234ABCD  active      online   normal   match    no
MA5800-X7#display ont optical-info 0 all
  -----------------------------------------------------------------------------
  F/S/P   ONT   RxPower   TxPower   Temperature   Voltage/Bias
          ID    (dBm)     (dBm)     (C)
  -----------------------------------------------------------------------------
  0/ 1/0    0   -19.82    2.31      45            3.32/11.85
  0/ 2/3    5   -28.40    2.05      51            3.30/12.02
MA5800-X7#display ont register-info 0 1 0
  -----------------------------------------------------------------------------
  ONT   UpTime                DownTime              DownCause
  ID
  -----------------------------------------------------------------------------
  0     2025-06-01 09:00:10   -                     -
  1     2025-05-30 20:11:02   2025-06-01 10:20:30   dying-gasp
MA5800-X7#display ont info 0 1 0 1
  ONT-ID              : 1
  Description         : zone7-west-cpe
  Equipment-ID        : HG8145V5
  ONT distance(m)     : 1523
MA5800-X7#`

func TestParseMA5800(t *testing.T) {
	records := Parse(3, ma5800Transcript)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	byKey := map[string]int{}
	for i, r := range records {
		byKey[r.Key()] = i
	}

	r := records[byKey["1/0:0"]]
	if r.SerialNumber != "4857544345E8A1B2" {
		t.Errorf("serial = %q", r.SerialNumber)
	}
	if r.Vendor != "4857" {
		t.Errorf("vendor = %q", r.Vendor)
	}
	if r.Status != "online" {
		t.Errorf("status = %q", r.Status)
	}
	if r.RxPower == nil || *r.RxPower != -19.82 {
		t.Errorf("rx power = %v", r.RxPower)
	}
	if r.Temperature == nil || *r.Temperature != 45 {
		t.Errorf("temperature = %v", r.Temperature)
	}
	if r.LastOnlineAt == nil {
		t.Error("expected last online timestamp")
	}
	if r.OfflineReason != "" {
		t.Errorf("dereg reason should be empty, got %q", r.OfflineReason)
	}

	r = records[byKey["1/0:1"]]
	if r.Status != "offline" {
		t.Errorf("status = %q", r.Status)
	}
	if r.OfflineReason != "dying-gasp" {
		t.Errorf("dereg reason = %q", r.OfflineReason)
	}
	if r.LastOfflineAt == nil {
		t.Error("expected last offline timestamp")
	}
	if r.Name != "zone7-west-cpe" {
		t.Errorf("name = %q", r.Name)
	}
	if r.Model != "HG8145V5" {
		t.Errorf("model = %q", r.Model)
	}
	if r.DistanceM == nil || *r.DistanceM != 1523 {
		t.Errorf("distance = %v", r.DistanceM)
	}

	r = records[byKey["2/3:5"]]
	if r.Status != "online" {
		t.Errorf("status = %q", r.Status)
	}
	if r.RxPower == nil || *r.RxPower != -28.40 {
		t.Errorf("rx power = %v", r.RxPower)
	}
}

func TestParseRegisterRowsNeedPortContext(t *testing.T) {
	// Register-table rows are ambiguous without the command echo that
	// names the port, so they are dropped.
	records := Parse(1, `1     2025-05-30 20:11:02   2025-06-01 10:20:30   dying-gasp`)
	if len(records) != 0 {
		t.Fatalf("expected 0 records, got %d", len(records))
	}
}
