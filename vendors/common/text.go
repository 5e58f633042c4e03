// Package common holds the transcript-normalization helpers and the
// accumulator shared by every brand parser.
package common

import (
	"regexp"
	"strconv"
	"strings"
)

// ansiRegex matches ANSI escape sequences (colors, cursor movement, etc.)
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape codes from a string. Shell transcripts
// from some brands carry terminal formatting.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// moreRegex matches pager continuation artifacts left in transcripts
var moreRegex = regexp.MustCompile(`(?i)--\s*more\s*--|\x08+ +\x08+`)

// CleanTranscript strips ANSI codes, pager artifacts and carriage
// returns so line scanning sees what the CLI printed.
func CleanTranscript(s string) string {
	s = StripANSI(s)
	s = moreRegex.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\r", "")
}

var hexOnly = regexp.MustCompile(`[^0-9a-fA-F]`)

// NormalizeMAC canonicalizes any common MAC notation (aa:bb:cc:dd:ee:ff,
// aa-bb-..., aabb.ccdd.eeff, bare hex) to uppercase colon-separated
// form. Returns "" when the input does not contain exactly 12 hex
// digits.
func NormalizeMAC(s string) string {
	hex := hexOnly.ReplaceAllString(s, "")
	if len(hex) != 12 {
		return ""
	}
	hex = strings.ToUpper(hex)
	parts := make([]string, 6)
	for i := 0; i < 6; i++ {
		parts[i] = hex[i*2 : i*2+2]
	}
	return strings.Join(parts, ":")
}

// MACToSerial converts a MAC to the bare-hex serial form used by brands
// where serial == MAC (EPON terminals).
func MACToSerial(mac string) string {
	hex := hexOnly.ReplaceAllString(mac, "")
	if len(hex) != 12 {
		return ""
	}
	return strings.ToUpper(hex)
}

// SerialAsMAC renders a 12-hex-digit serial in colon MAC form, or ""
// when the serial is not MAC-shaped.
func SerialAsMAC(serial string) string {
	return NormalizeMAC(serial)
}

// LastHex returns the last n hex digits of a MAC or serial, uppercase,
// for the low-precision fallback match. Returns "" when fewer than n
// hex digits are present.
func LastHex(s string, n int) string {
	hex := hexOnly.ReplaceAllString(s, "")
	if len(hex) < n {
		return ""
	}
	return strings.ToUpper(hex[len(hex)-n:])
}

// ParseFloat extracts a float from CLI table cells, tolerating dBm/°C
// suffixes. "-19.82(dbm)" -> -19.82.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "(d°C m"); i > 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInt extracts an integer, tolerating unit suffixes like "1523m".
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
