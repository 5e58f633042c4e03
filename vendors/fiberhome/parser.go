// Package fiberhome parses FiberHome AN5516-series transcripts.
package fiberhome

import (
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

var (
	// slot pon onu rows from "show onu list"
	// 1   2   3   GPON   AN5506-04-F1   FHTT59CB8310   online
	listRe = regexp.MustCompile(`(?i)^(\d+)\s+(\d+)\s+(\d+)\s+[EG]PON\s+(\S+)\s+([0-9A-Z]{8,16})\s+(online|offline|los|down)\s*$`)

	// 1   2   3   -18.50   2.20   45.2   1523
	opticalRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s+(\d+)\s+(-?\d+\.\d+)\s+(-?\d+\.\d+)\s+(-?\d+\.?\d*)\s+(\d+)\s*$`)

	// 1   2   3   dying-gasp   2025-06-01 10:20:30
	offRe = regexp.MustCompile(`(?i)^(\d+)\s+(\d+)\s+(\d+)\s+([a-z\-]+)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s*$`)

	// 1   2   3   desc   zone-7-cpe
	descRe = regexp.MustCompile(`(?i)^(\d+)\s+(\d+)\s+(\d+)\s+desc\s+(\S+)\s*$`)
)

// Parse scans a FiberHome transcript into normalized records. Rows key
// on slot/pon/onu; slot and pon flatten into the "slot/pon" port.
func Parse(deviceID int64, transcript string) []*types.ONURecord {
	acc := common.NewAccumulator(deviceID)

	for _, raw := range strings.Split(common.CleanTranscript(transcript), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}

		if m := listRe.FindStringSubmatch(line); m != nil {
			port := m[1] + "/" + m[2]
			idx, ok := common.ParseInt(m[3])
			if !ok {
				continue
			}
			r := acc.Upsert(port, idx)
			r.Model = m[4]
			r.SerialNumber = strings.ToUpper(m[5])
			if len(r.SerialNumber) >= 4 {
				r.Vendor = r.SerialNumber[:4]
			}
			switch strings.ToLower(m[6]) {
			case "online":
				r.Status = types.StatusOnline
			case "los":
				r.Status = types.StatusWarning
			default:
				r.Status = types.StatusOffline
			}
			continue
		}

		if m := opticalRe.FindStringSubmatch(line); m != nil {
			port := m[1] + "/" + m[2]
			idx, ok := common.ParseInt(m[3])
			if !ok {
				continue
			}
			var rxP, txP, tempP *float64
			if rx, ok := common.ParseFloat(m[4]); ok && rx <= 0 {
				rxP = &rx
			}
			if tx, ok := common.ParseFloat(m[5]); ok {
				txP = &tx
			}
			if temp, ok := common.ParseFloat(m[6]); ok {
				tempP = &temp
			}
			acc.SetOptical(port, idx, rxP, txP, tempP)
			if meters, ok := common.ParseInt(m[7]); ok {
				acc.SetDistance(port, idx, meters)
			}
			continue
		}

		if m := offRe.FindStringSubmatch(line); m != nil {
			port := m[1] + "/" + m[2]
			idx, ok := common.ParseInt(m[3])
			if !ok {
				continue
			}
			acc.SetDeregReason(port, idx, strings.ToLower(m[4]))
			if t, err := time.Parse("2006-01-02 15:04:05", m[5]); err == nil {
				acc.SetTimes(port, idx, nil, &t)
			}
			continue
		}

		if m := descRe.FindStringSubmatch(line); m != nil {
			port := m[1] + "/" + m[2]
			idx, ok := common.ParseInt(m[3])
			if !ok {
				continue
			}
			acc.Upsert(port, idx).Name = m[4]
			continue
		}
	}

	return acc.Finalize()
}
