// Package mikrotik implements the dual-protocol client for the edge
// router: the legacy binary length-prefixed control protocol and its
// REST/JSON successor, behind automatic method detection.
package mikrotik

import (
	"fmt"
	"io"
)

// EncodeLength produces the variable-width length prefix of one word.
// The first byte's top bits select the size class:
//
//	< 0x80       1 byte, raw value
//	< 0x4000     2 bytes, 0x80 tag
//	< 0x200000   3 bytes, 0xC0 tag
//	< 0x10000000 4 bytes, 0xE0 tag
//	otherwise    5 bytes, 0xF0 marker then 4 raw length bytes
func EncodeLength(n uint32) []byte {
	switch {
	case n < 0x80:
		return []byte{byte(n)}
	case n < 0x4000:
		return []byte{byte(n>>8) | 0x80, byte(n)}
	case n < 0x200000:
		return []byte{byte(n>>16) | 0xC0, byte(n >> 8), byte(n)}
	case n < 0x10000000:
		return []byte{byte(n>>24) | 0xE0, byte(n >> 16), byte(n >> 8), byte(n)}
	default:
		return []byte{0xF0, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

// DecodeLength reads one length prefix, dispatching on the first byte's
// bit pattern.
func DecodeLength(r io.Reader) (uint32, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, err
	}

	switch {
	case b&0x80 == 0x00:
		return uint32(b), nil

	case b&0xC0 == 0x80:
		n := uint32(b & ^byte(0xC0))
		return extend(r, n, 1)

	case b&0xE0 == 0xC0:
		n := uint32(b & ^byte(0xE0))
		return extend(r, n, 2)

	case b&0xF0 == 0xE0:
		n := uint32(b & ^byte(0xF0))
		return extend(r, n, 3)

	case b == 0xF0:
		return extend(r, 0, 4)

	default:
		return 0, fmt.Errorf("invalid length prefix byte 0x%02X", b)
	}
}

func extend(r io.Reader, n uint32, more int) (uint32, error) {
	for i := 0; i < more; i++ {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		n = n<<8 | uint32(b)
	}
	return n, nil
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteWord writes one length-prefixed word
func WriteWord(w io.Writer, word string) error {
	if _, err := w.Write(EncodeLength(uint32(len(word)))); err != nil {
		return err
	}
	_, err := io.WriteString(w, word)
	return err
}

// ReadWord reads one length-prefixed word. A zero-length word (the
// sentence terminator) returns "".
func ReadWord(r io.Reader) (string, error) {
	n, err := DecodeLength(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteSentence writes words followed by the zero-length terminator
func WriteSentence(w io.Writer, words []string) error {
	for _, word := range words {
		if err := WriteWord(w, word); err != nil {
			return err
		}
	}
	_, err := w.Write([]byte{0})
	return err
}

// ReadSentence reads words until the zero-length terminator
func ReadSentence(r io.Reader) ([]string, error) {
	var words []string
	for {
		word, err := ReadWord(r)
		if err != nil {
			return words, err
		}
		if word == "" {
			return words, nil
		}
		words = append(words, word)
	}
}
