// Package hioso parses Hioso AT8000-series EPON shell transcripts.
// Hioso prints flat "Pon X Onu Y ..." attribute lines rather than
// tables, so the parser is pattern-per-attribute with no section state.
package hioso

import (
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

var (
	// Pon 2 Onu 3 Mac 00:11:22:33:44:55 Status up Name office-cpe
	statusRe = regexp.MustCompile(`(?i)^\s*Pon\s+(\d+)\s+Onu\s+(\d+)\s+Mac\s+([0-9a-f:.\-]+)\s+Status\s+(up|down|los)(?:\s+Name\s+(\S+))?`)

	// Pon 2 Onu 3 RxPower -18.50 TxPower 2.10 Temp 40.2
	opticalRe = regexp.MustCompile(`(?i)^\s*Pon\s+(\d+)\s+Onu\s+(\d+)\s+RxPower\s+(-?\d+\.?\d*)\s+TxPower\s+(-?\d+\.?\d*)(?:\s+Temp\s+(-?\d+\.?\d*))?`)

	// Pon 2 Onu 3 Distance 1200 LastDereg power-off 2025-06-01 10:20:30
	deregRe = regexp.MustCompile(`(?i)^\s*Pon\s+(\d+)\s+Onu\s+(\d+)\s+Distance\s+(\d+)\s+LastDereg\s+(\S+)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
)

// Parse scans a Hioso transcript into normalized records. Hioso PON
// ports are single numbers; they are normalized to the 0/N form shared
// by the other brands.
func Parse(deviceID int64, transcript string) []*types.ONURecord {
	acc := common.NewAccumulator(deviceID)

	for _, line := range strings.Split(common.CleanTranscript(transcript), "\n") {
		if m := statusRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := keyOf(m[1], m[2])
			if !ok {
				continue
			}
			r := acc.Upsert(port, idx)
			if mac := common.NormalizeMAC(m[3]); mac != "" {
				r.MACAddress = mac
				r.SerialNumber = common.MACToSerial(mac)
			}
			switch strings.ToLower(m[4]) {
			case "up":
				r.Status = types.StatusOnline
			case "down":
				r.Status = types.StatusOffline
			case "los":
				r.Status = types.StatusWarning
			}
			if m[5] != "" {
				r.Name = m[5]
			}
			continue
		}

		if m := opticalRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := keyOf(m[1], m[2])
			if !ok {
				continue
			}
			var rxP, txP, tempP *float64
			if rx, ok := common.ParseFloat(m[3]); ok && rx <= 0 {
				rxP = &rx
			}
			if tx, ok := common.ParseFloat(m[4]); ok {
				txP = &tx
			}
			if m[5] != "" {
				if temp, ok := common.ParseFloat(m[5]); ok {
					tempP = &temp
				}
			}
			acc.SetOptical(port, idx, rxP, txP, tempP)
			continue
		}

		if m := deregRe.FindStringSubmatch(line); m != nil {
			port, idx, ok := keyOf(m[1], m[2])
			if !ok {
				continue
			}
			if meters, ok := common.ParseInt(m[3]); ok {
				acc.SetDistance(port, idx, meters)
			}
			acc.SetDeregReason(port, idx, strings.ToLower(m[4]))
			if t, err := time.Parse("2006-01-02 15:04:05", m[5]); err == nil {
				acc.SetTimes(port, idx, nil, &t)
			}
			continue
		}
	}

	return acc.Finalize()
}

func keyOf(pon, onu string) (string, int, bool) {
	idx, ok := common.ParseInt(onu)
	if !ok {
		return "", 0, false
	}
	return "0/" + pon, idx, true
}
