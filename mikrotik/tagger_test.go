package mikrotik

import (
	"testing"

	"github.com/nanoncore/nano-fleetmon/types"
)

func tagRecords() []*types.ONURecord {
	return []*types.ONURecord{
		{PONPort: "0/1", ONUIndex: 1, SerialNumber: "A27D08154100", Name: "ONU-0/1-1", MACAddress: "A2:7D:08:15:41:00"},
		{PONPort: "0/1", ONUIndex: 2, SerialNumber: "GPON0011F2A4", Name: "pppoe.garcia"},
		{PONPort: "0/2", ONUIndex: 5, SerialNumber: "ONU-0/2-5", Name: "ONU-0/2-5", MACAddress: "E4:8F:34:AA:10:01"},
		{PONPort: "0/3", ONUIndex: 1, SerialNumber: "E48F34BB2002", Name: "ONU-0/3-1"},
	}
}

func TestMatchSecretCallerID(t *testing.T) {
	records := tagRecords()

	byMAC := matchSecret(types.Secret{Name: "x", CallerID: "a2:7d:08:15:41:00"}, records)
	if byMAC == nil || byMAC.ONUIndex != 1 {
		t.Fatalf("caller-id MAC match = %+v", byMAC)
	}

	bySerial := matchSecret(types.Secret{Name: "x", CallerID: "E4:8F:34:BB:20:02"}, records)
	if bySerial == nil || bySerial.SerialNumber != "E48F34BB2002" {
		t.Fatalf("caller-id serial match = %+v", bySerial)
	}
}

func TestMatchSecretComment(t *testing.T) {
	records := tagRecords()

	r := matchSecret(types.Secret{Name: "x", Comment: "cliente sn gpon0011f2a4 torre 3"}, records)
	if r == nil || r.SerialNumber != "GPON0011F2A4" {
		t.Fatalf("serial-in-comment match = %+v", r)
	}

	r = matchSecret(types.Secret{Name: "x", Comment: "mac e4:8f:34:aa:10:01"}, records)
	if r == nil || r.ONUIndex != 5 {
		t.Fatalf("mac-in-comment match = %+v", r)
	}

	// Placeholder serials never match through comments
	r = matchSecret(types.Secret{Name: "x", Comment: "onu-0/2-5"}, records)
	if r != nil {
		t.Fatalf("placeholder serial matched: %+v", r)
	}
}

func TestMatchSecretNameOverlap(t *testing.T) {
	records := tagRecords()

	r := matchSecret(types.Secret{Name: "garcia"}, records)
	if r == nil || r.Name != "pppoe.garcia" {
		t.Fatalf("name overlap match = %+v", r)
	}

	// Placeholder names are excluded from the overlap pass
	if r := matchSecret(types.Secret{Name: "ONU-0/1-1"}, records); r != nil {
		t.Fatalf("placeholder name matched: %+v", r)
	}

	if r := matchSecret(types.Secret{Name: "zz"}, records); r != nil {
		t.Fatalf("short name matched: %+v", r)
	}
}

func TestDeviceTag(t *testing.T) {
	tag := deviceTag("olt-norte", tagRecords()[0])
	if tag != "OLT:olt-norte 0/1:1 SN:A27D08154100" {
		t.Fatalf("tag = %q", tag)
	}
}

func TestApplyMode(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		value    string
		mode     TagMode
		want     string
		write    bool
	}{
		{"overwrite changed", "old", "new", TagOverwrite, "new", true},
		{"overwrite equal", "same", "same", TagOverwrite, "", false},
		{"empty-only empty", "", "tag", TagEmptyOnly, "tag", true},
		{"empty-only blank", "   ", "tag", TagEmptyOnly, "tag", true},
		{"empty-only occupied", "keep", "tag", TagEmptyOnly, "", false},
		{"append fresh", "", "tag", TagAppend, "tag", true},
		{"append existing", "cliente torre 3", "tag", TagAppend, "cliente torre 3 | tag", true},
		{"append dedup", "cliente | tag", "tag", TagAppend, "", false},
		{"unknown mode", "x", "y", TagMode("bogus"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := applyMode(tt.existing, tt.value, tt.mode)
			if ok != tt.write || got != tt.want {
				t.Errorf("applyMode(%q, %q, %s) = %q, %v; want %q, %v",
					tt.existing, tt.value, tt.mode, got, ok, tt.want, tt.write)
			}
		})
	}
}

func TestBuildTagFields(t *testing.T) {
	record := tagRecords()[0]
	tag := deviceTag("olt-norte", record)

	secret := types.Secret{Name: "sub.one", Comment: "cliente torre 3"}
	fields := buildTagFields(secret, record, tag, TagPolicy{Mode: TagAppend, Target: TargetBoth})
	if fields["comment"] != "cliente torre 3 | "+tag {
		t.Errorf("comment = %q", fields["comment"])
	}
	if fields["caller-id"] != "A2:7D:08:15:41:00" {
		t.Errorf("caller-id = %q", fields["caller-id"])
	}

	// comment-only target must not touch caller-id
	fields = buildTagFields(secret, record, tag, TagPolicy{Mode: TagOverwrite, Target: TargetComment})
	if _, ok := fields["caller-id"]; ok {
		t.Error("caller-id written under comment target")
	}
	if fields["comment"] != tag {
		t.Errorf("comment = %q", fields["comment"])
	}

	// caller-id target with no record MAC writes nothing
	noMAC := tagRecords()[1]
	fields = buildTagFields(secret, noMAC, tag, TagPolicy{Mode: TagOverwrite, Target: TargetCallerID})
	if len(fields) != 0 {
		t.Errorf("fields = %v", fields)
	}
}
