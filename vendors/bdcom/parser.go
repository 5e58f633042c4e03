// Package bdcom parses BDCOM P33xx EPON shell transcripts. BDCOM keys
// every row with the full "EPON0/1:2" interface notation instead of a
// separate interface context.
package bdcom

import (
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

var (
	// EPON0/1:2   a27d.0815.4100   VSOL   auto-configured   00:10:05
	infoRe = regexp.MustCompile(`(?i)^\s*EPON(\d+/\d+):(\d+)\s+([0-9a-f.]{14})\s+(\S+)\s+(auto-configured|registered|auth-failed|lost|deregistered)\b`)

	// Interface EPON0/1:2 optical diagnostics key/value block
	opticalCtxRe = regexp.MustCompile(`(?i)interface\s+EPON(\d+/\d+):(\d+)`)
	kvFloatRe    = regexp.MustCompile(`(?i)^\s*(rx\s*power|tx\s*power|temperature)\s*:\s*(-?\d+\.?\d*)`)

	// EPON0/1:2   power-off    2025-06-01 10:20:30
	deregRe = regexp.MustCompile(`(?i)^\s*EPON(\d+/\d+):(\d+)\s+(wire-down|power-off|los|unknown|admin-reset)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)

	// EPON0/1:2   distance: 1523 m
	distanceRe = regexp.MustCompile(`(?i)^\s*EPON(\d+/\d+):(\d+)\s+distance:\s*(\d+)`)

	// EPON0/1:2   last-registered: 2025-06-01 09:00:10
	registerRe = regexp.MustCompile(`(?i)^\s*EPON(\d+/\d+):(\d+)\s+last-registered:\s*(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`)
)

// Parse scans a BDCOM transcript into normalized records
func Parse(deviceID int64, transcript string) []*types.ONURecord {
	acc := common.NewAccumulator(deviceID)

	// optical blocks are keyed by the preceding interface line
	optPort := ""
	optIndex := 0

	for _, line := range strings.Split(common.CleanTranscript(transcript), "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}

		if m := infoRe.FindStringSubmatch(line); m != nil {
			idx, ok := common.ParseInt(m[2])
			if !ok {
				continue
			}
			r := acc.Upsert(m[1], idx)
			if mac := common.NormalizeMAC(m[3]); mac != "" {
				r.MACAddress = mac
				r.SerialNumber = common.MACToSerial(mac)
			}
			r.Vendor = m[4]
			r.Status = normalizeStatus(m[5])
			if r.Status == types.StatusOffline {
				r.OfflineReason = strings.ToLower(m[5])
			}
			continue
		}

		if m := deregRe.FindStringSubmatch(line); m != nil {
			idx, ok := common.ParseInt(m[2])
			if !ok {
				continue
			}
			acc.SetDeregReason(m[1], idx, strings.ToLower(m[3]))
			if t, err := time.Parse("2006-01-02 15:04:05", m[4]); err == nil {
				acc.SetTimes(m[1], idx, nil, &t)
			}
			continue
		}

		if m := registerRe.FindStringSubmatch(line); m != nil {
			idx, ok := common.ParseInt(m[2])
			if !ok {
				continue
			}
			if t, err := time.Parse("2006-01-02 15:04:05", m[3]); err == nil {
				acc.SetTimes(m[1], idx, &t, nil)
			}
			continue
		}

		if m := distanceRe.FindStringSubmatch(line); m != nil {
			idx, ok := common.ParseInt(m[2])
			if !ok {
				continue
			}
			if meters, ok := common.ParseInt(m[3]); ok {
				acc.SetDistance(m[1], idx, meters)
			}
			continue
		}

		if m := opticalCtxRe.FindStringSubmatch(line); m != nil {
			optPort = m[1]
			optIndex, _ = common.ParseInt(m[2])
			continue
		}

		if m := kvFloatRe.FindStringSubmatch(line); m != nil && optPort != "" {
			v, ok := common.ParseFloat(m[2])
			if !ok {
				continue
			}
			field := strings.ToLower(strings.ReplaceAll(m[1], " ", ""))
			switch field {
			case "rxpower":
				if v <= 0 {
					acc.SetOptical(optPort, optIndex, &v, nil, nil)
				}
			case "txpower":
				acc.SetOptical(optPort, optIndex, nil, &v, nil)
			case "temperature":
				acc.SetOptical(optPort, optIndex, nil, nil, &v)
			}
			continue
		}
	}

	return acc.Finalize()
}

func normalizeStatus(raw string) types.ONUStatus {
	switch strings.ToLower(raw) {
	case "auto-configured", "registered":
		return types.StatusOnline
	case "lost", "deregistered":
		return types.StatusOffline
	case "auth-failed":
		return types.StatusWarning
	default:
		return types.StatusUnknown
	}
}
