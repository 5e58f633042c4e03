package mikrotik

import (
	"bytes"
	"strings"
	"testing"
)

func TestLengthRoundTrip(t *testing.T) {
	// One value either side of every size-class boundary
	tests := []struct {
		length     uint32
		prefixSize int
	}{
		{0, 1},
		{0x7F, 1},
		{0x80, 2},
		{0x3FFF, 2},
		{0x4000, 3},
		{0x1FFFFF, 3},
		{0x200000, 4},
		{0xFFFFFFF, 4},
		{0x10000000, 5},
		{0xFFFFFFFF, 5},
	}

	for _, tt := range tests {
		encoded := EncodeLength(tt.length)
		if len(encoded) != tt.prefixSize {
			t.Errorf("EncodeLength(0x%X) produced %d bytes, want %d",
				tt.length, len(encoded), tt.prefixSize)
		}

		decoded, err := DecodeLength(bytes.NewReader(encoded))
		if err != nil {
			t.Errorf("DecodeLength(0x%X) error: %v", tt.length, err)
			continue
		}
		if decoded != tt.length {
			t.Errorf("DecodeLength(EncodeLength(0x%X)) = 0x%X", tt.length, decoded)
		}
	}
}

func TestWordRoundTrip(t *testing.T) {
	words := []string{
		"/login",
		"=name=admin",
		"=password=secret",
		"!done",
		strings.Repeat("x", 0x80),   // forces 2-byte prefix
		strings.Repeat("y", 0x4000), // forces 3-byte prefix
	}

	for _, word := range words {
		var buf bytes.Buffer
		if err := WriteWord(&buf, word); err != nil {
			t.Fatalf("WriteWord(%.20q): %v", word, err)
		}
		got, err := ReadWord(&buf)
		if err != nil {
			t.Fatalf("ReadWord(%.20q): %v", word, err)
		}
		if got != word {
			t.Errorf("round trip mismatch for %.20q (len %d)", word, len(word))
		}
	}
}

func TestSentenceRoundTrip(t *testing.T) {
	sentence := []string{"/ppp/active/print", "=.proplist=name,caller-id,address"}

	var buf bytes.Buffer
	if err := WriteSentence(&buf, sentence); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSentence(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(sentence) {
		t.Fatalf("got %d words, want %d", len(got), len(sentence))
	}
	for i := range sentence {
		if got[i] != sentence[i] {
			t.Errorf("word[%d] = %q, want %q", i, got[i], sentence[i])
		}
	}
}

func TestReadSentenceStopsAtTerminator(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteSentence(&buf, []string{"!done"})
	_ = WriteSentence(&buf, []string{"!re", "=name=u1"})

	first, err := ReadSentence(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 || first[0] != "!done" {
		t.Fatalf("first sentence = %v", first)
	}

	second, err := ReadSentence(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 2 || second[0] != "!re" {
		t.Fatalf("second sentence = %v", second)
	}
}

func TestDecodeLengthInvalidPrefix(t *testing.T) {
	// 0xF8 is not a valid prefix byte in any size class
	_, err := DecodeLength(bytes.NewReader([]byte{0xF8}))
	if err == nil {
		t.Fatal("expected error for invalid prefix byte")
	}
}
