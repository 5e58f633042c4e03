package common

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Hello, OLT", "Hello, OLT"},
		{"color", "\x1b[31mLOS\x1b[0m", "LOS"},
		{"cursor", "\x1b[2J\x1b[Honu list", "onu list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.input); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"colons", "a2:7d:08:15:41:00", "A2:7D:08:15:41:00"},
		{"dashes", "a2-7d-08-15-41-00", "A2:7D:08:15:41:00"},
		{"cisco_dots", "a27d.0815.4100", "A2:7D:08:15:41:00"},
		{"bare", "A27D08154100", "A2:7D:08:15:41:00"},
		{"too_short", "a27d08", ""},
		{"not_hex", "hello-world!", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMAC(tt.input); got != tt.want {
				t.Errorf("NormalizeMAC(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMACToSerial(t *testing.T) {
	if got := MACToSerial("a2:7d:08:15:41:00"); got != "A27D08154100" {
		t.Errorf("MACToSerial = %q", got)
	}
	if got := MACToSerial("bogus"); got != "" {
		t.Errorf("MACToSerial(bogus) = %q, want empty", got)
	}
}

func TestLastHex(t *testing.T) {
	if got := LastHex("a2:7d:08:15:41:00", 6); got != "154100" {
		t.Errorf("LastHex = %q, want 154100", got)
	}
	if got := LastHex("ab", 6); got != "" {
		t.Errorf("LastHex on short input = %q, want empty", got)
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"-19.82", -19.82, true},
		{"-19.82(dbm)", -19.82, true},
		{"2.31 dBm", 2.31, true},
		{"45.0 C", 45.0, true},
		{"n/a", 0, false},
		{"--", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFloat(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseFloat(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"1523", 1523, true},
		{"1523m", 1523, true},
		{" 87 ", 87, true},
		{"-", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInt(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseInt(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
