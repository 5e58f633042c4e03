package mikrotik

import (
	"testing"

	"github.com/nanoncore/nano-fleetmon/types"
)

func TestCandidatesDefaultOrder(t *testing.T) {
	c := NewClient(types.RouterConfig{Address: "10.0.0.1"}, nil)

	got := c.candidates()
	want := []candidate{
		{ProtoBinary, 8728, false},
		{ProtoBinary, 8729, true},
		{ProtoREST, 443, true},
		{ProtoREST, 80, false},
	}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCandidatesCustomPortFirst(t *testing.T) {
	c := NewClient(types.RouterConfig{Address: "10.0.0.1", Port: 9999, UseTLS: true}, nil)

	got := c.candidates()
	want := []candidate{
		{ProtoREST, 9999, false},
		{ProtoREST, 9999, true},
		{ProtoBinary, 9999, true},
		{ProtoBinary, 8728, false},
		{ProtoBinary, 8729, true},
		{ProtoREST, 443, true},
		{ProtoREST, 80, false},
	}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDeviceMacFromRow(t *testing.T) {
	e := deviceMacFromRow(map[string]string{
		"mac-address":  "AA:BB:CC:00:11:22",
		"on-interface": "ether5",
		"interface":    "bridge1",
	})
	if e.MAC != "AA:BB:CC:00:11:22" || e.Interface != "ether5" {
		t.Fatalf("entry = %+v", e)
	}

	e = deviceMacFromRow(map[string]string{
		"mac-address": "AA:BB:CC:00:11:22",
		"interface":   "ether3",
	})
	if e.Interface != "ether3" {
		t.Fatalf("fallback interface = %q", e.Interface)
	}
}

func TestVersionFrom(t *testing.T) {
	reply := &Reply{Rows: []map[string]string{{"version": "7.14.2 (stable)"}}}
	if v := versionFrom(reply); v != "7.14.2" {
		t.Errorf("version = %q", v)
	}
	if v := versionFrom(&Reply{}); v != "unknown" {
		t.Errorf("empty reply version = %q", v)
	}
}
