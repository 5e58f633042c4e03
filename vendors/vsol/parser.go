// Package vsol parses V-SOL V1600-series shell transcripts (GPON and
// EPON command sets). The V1600 CLI keys rows with "GPON0/1:2" style
// indexes inside per-interface command contexts.
package vsol

import (
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

var (
	// interface gpon 0/1 / interface epon 0/1
	ctxRe = regexp.MustCompile(`(?i)^interface\s+(?:gpon|epon)\s+(\d+/\d+)\s*$`)

	// onuIndexRe matches "GPON0/1:2", "EPON0/1:2" or bare "0/1:2"
	onuIndexRe = regexp.MustCompile(`(?i)^(?:GPON|EPON)?(\d+/\d+):(\d+)`)

	// GPON0/1:2  HG6143D  AN5506-04-F1  sn  FHTT59CB8310
	infoRe = regexp.MustCompile(`(?i)^((?:GPON|EPON)?\d+/\d+:\d+)\s+(\S+)\s+(\S+)\s+(sn|loid|mac)\s+(\S+)\s*$`)

	// GPON0/1:2  online   2025-06-01 09:00:10
	stateRe = regexp.MustCompile(`(?i)^((?:GPON|EPON)?\d+/\d+:\d+)\s+(online|offline|los|initial)\s*(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})?\s*$`)

	// GPON0/1:2  2.20  -18.50  45.0  1523
	opticalRe = regexp.MustCompile(`(?i)^((?:GPON|EPON)?\d+/\d+:\d+)\s+(-?\d+\.\d+)\s+(-?\d+\.\d+)\s+(-?\d+\.?\d*)\s+(\d+)\s*$`)

	// GPON0/1:2  dying-gasp  2025-06-01 10:20:30
	deregRe = regexp.MustCompile(`(?i)^((?:GPON|EPON)?\d+/\d+:\d+)\s+(dying-gasp|los[is]?|power-off|wire-down|reboot|unknown)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s*$`)

	// GPON0/1:2  name  zone-7-cpe
	nameRe = regexp.MustCompile(`(?i)^((?:GPON|EPON)?\d+/\d+:\d+)\s+name\s+(\S+)\s*$`)
)

// Parse scans a V-SOL transcript into normalized records. Later pattern
// matches for the same key overwrite earlier ones; the catalog orders
// commands from least to most authoritative.
func Parse(deviceID int64, transcript string) []*types.ONURecord {
	acc := common.NewAccumulator(deviceID)

	for _, raw := range strings.Split(common.CleanTranscript(transcript), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "Onuindex") {
			continue
		}

		if ctxRe.MatchString(line) {
			// Context is informational for V1600: rows carry the full
			// index, so nothing is tracked here.
			continue
		}

		if m := deregRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := splitIndex(m[1])
			if !ok {
				continue
			}
			acc.SetDeregReason(port, idx, strings.ToLower(m[2]))
			if t, err := time.Parse("2006-01-02 15:04:05", m[3]); err == nil {
				acc.SetTimes(port, idx, nil, &t)
			}
			continue
		}

		if m := stateRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := splitIndex(m[1])
			if !ok {
				continue
			}
			r := acc.Upsert(port, idx)
			switch strings.ToLower(m[2]) {
			case "online":
				r.Status = types.StatusOnline
			case "offline", "initial":
				r.Status = types.StatusOffline
			case "los":
				r.Status = types.StatusWarning
			}
			if m[3] != "" && r.Status == types.StatusOnline {
				if t, err := time.Parse("2006-01-02 15:04:05", m[3]); err == nil {
					acc.SetTimes(port, idx, &t, nil)
				}
			}
			continue
		}

		if m := opticalRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := splitIndex(m[1])
			if !ok {
				continue
			}
			var rxP, txP, tempP *float64
			if tx, ok := common.ParseFloat(m[2]); ok {
				txP = &tx
			}
			if rx, ok := common.ParseFloat(m[3]); ok && rx <= 0 {
				rxP = &rx
			}
			if temp, ok := common.ParseFloat(m[4]); ok {
				tempP = &temp
			}
			acc.SetOptical(port, idx, rxP, txP, tempP)
			if meters, ok := common.ParseInt(m[5]); ok {
				acc.SetDistance(port, idx, meters)
			}
			continue
		}

		if m := infoRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := splitIndex(m[1])
			if !ok {
				continue
			}
			r := acc.Upsert(port, idx)
			if model := m[2]; model != "" && !strings.EqualFold(model, "unknown") {
				r.Model = model
			}
			auth := m[5]
			switch strings.ToLower(m[4]) {
			case "mac":
				if mac := common.NormalizeMAC(auth); mac != "" {
					r.MACAddress = mac
					r.SerialNumber = common.MACToSerial(auth)
				}
			default:
				r.SerialNumber = strings.ToUpper(auth)
				// GPON serials embed the vendor prefix (FHTT, ZTEG...)
				if len(auth) >= 4 {
					r.Vendor = strings.ToUpper(auth[:4])
				}
			}
			continue
		}

		if m := nameRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := splitIndex(m[1])
			if !ok {
				continue
			}
			acc.Upsert(port, idx).Name = m[2]
			continue
		}
	}

	return acc.Finalize()
}

func splitIndex(s string) (string, int, bool) {
	m := onuIndexRe.FindStringSubmatch(s)
	if m == nil {
		return "", 0, false
	}
	idx, ok := common.ParseInt(m[2])
	if !ok {
		return "", 0, false
	}
	return m[1], idx, true
}
