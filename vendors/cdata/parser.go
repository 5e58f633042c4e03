// Package cdata parses C-Data OLT shell transcripts (FD1104/FD1208
// series, EPON and GPON command sets).
package cdata

import (
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

var (
	// interface epon 0/1 / interface gpon 0/2
	ctxRe = regexp.MustCompile(`(?i)^interface\s+(?:epon|gpon)\s+(\d+/\d+)\s*$`)

	// confirm onu mac a2:7d:08:15:41:00 onuid 2
	confirmRe = regexp.MustCompile(`(?i)confirm\s+onu\s+mac\s+([0-9a-f:.\-]+)\s+onuid\s+(\d+)`)

	// status table row:  2   offline   a2:7d:08:15:41:01   CPE-north
	statusRe = regexp.MustCompile(`(?i)^\s*(\d+)\s+(online|offline|los|dying-gasp|power-off)\s+([0-9a-f:.\-]{12,17})(?:\s+(\S.*))?$`)

	// optical table row:  1   45.2   2.31   -19.82
	opticalRe = regexp.MustCompile(`^\s*(\d+)\s+(-?\d+\.\d+)\s+(-?\d+\.\d+)\s+(-?\d+\.\d+)\s*$`)

	// 2025-06-01 10:20:30  0/1:2  deregister  reason: power-off
	deregRe = regexp.MustCompile(`(?i)^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+(\d+/\d+):(\d+)\s+deregister\s+reason:\s*(\S+)`)

	// 2025-06-01 09:00:10  0/1:2  register
	regEventRe = regexp.MustCompile(`(?i)^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+(\d+/\d+):(\d+)\s+register\s*$`)

	// distance table row:  2   1523
	distanceRe = regexp.MustCompile(`^\s*(\d+)\s+(\d+)\s*m?\s*$`)

	// vendor table row:  1   VSOL   V2801F
	vendorRe = regexp.MustCompile(`^\s*(\d+)\s+([A-Za-z][\w\-]*)\s+([\w\-./]+)\s*$`)
)

// section headers switch how ambiguous numeric rows are interpreted
const (
	sectionNone     = ""
	sectionOptical  = "optical"
	sectionDistance = "distance"
	sectionVendor   = "vendor"
)

// Parse scans a C-Data transcript into normalized records. Lines are
// matched in fixed priority order; later matches for a key overwrite
// earlier ones because later catalog commands are more authoritative.
func Parse(deviceID int64, transcript string) []*types.ONURecord {
	acc := common.NewAccumulator(deviceID)

	ctxPort := ""
	section := sectionNone

	for _, line := range strings.Split(common.CleanTranscript(transcript), "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}

		if m := ctxRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			ctxPort = m[1]
			section = sectionNone
			continue
		}
		if s := sectionFor(line); s != sectionNone {
			section = s
			continue
		}

		if m := confirmRe.FindStringSubmatch(line); m != nil && ctxPort != "" {
			idx, ok := common.ParseInt(m[2])
			if !ok {
				continue
			}
			r := acc.Upsert(ctxPort, idx)
			r.MACAddress = common.NormalizeMAC(m[1])
			r.SerialNumber = common.MACToSerial(m[1])
			r.Status = types.StatusOnline
			continue
		}

		if m := statusRe.FindStringSubmatch(line); m != nil && ctxPort != "" {
			idx, ok := common.ParseInt(m[1])
			if !ok {
				continue
			}
			r := acc.Upsert(ctxPort, idx)
			r.Status = normalizeStatus(m[2])
			if mac := common.NormalizeMAC(m[3]); mac != "" {
				r.MACAddress = mac
				r.SerialNumber = common.MACToSerial(mac)
			}
			if name := strings.TrimSpace(m[4]); name != "" && name != "-" {
				r.Name = name
			}
			if r.Status != types.StatusOnline {
				r.OfflineReason = strings.ToLower(m[2])
			}
			continue
		}

		if m := deregRe.FindStringSubmatch(line); m != nil {
			idx, ok := common.ParseInt(m[3])
			if !ok {
				continue
			}
			if t, err := time.Parse("2006-01-02 15:04:05", m[1]); err == nil {
				acc.SetTimes(m[2], idx, nil, &t)
			}
			acc.SetDeregReason(m[2], idx, strings.ToLower(m[4]))
			continue
		}

		if m := regEventRe.FindStringSubmatch(line); m != nil {
			idx, ok := common.ParseInt(m[3])
			if !ok {
				continue
			}
			if t, err := time.Parse("2006-01-02 15:04:05", m[1]); err == nil {
				acc.SetTimes(m[2], idx, &t, nil)
			}
			continue
		}

		if ctxPort == "" {
			continue
		}

		switch section {
		case sectionOptical:
			if m := opticalRe.FindStringSubmatch(line); m != nil {
				idx, _ := common.ParseInt(m[1])
				temp, okT := common.ParseFloat(m[2])
				tx, okX := common.ParseFloat(m[3])
				rx, okR := common.ParseFloat(m[4])
				var tempP, txP, rxP *float64
				if okT {
					tempP = &temp
				}
				if okX {
					txP = &tx
				}
				if okR && rx <= 0 {
					rxP = &rx
				}
				acc.SetOptical(ctxPort, idx, rxP, txP, tempP)
			}
		case sectionDistance:
			if m := distanceRe.FindStringSubmatch(line); m != nil {
				idx, _ := common.ParseInt(m[1])
				if meters, ok := common.ParseInt(m[2]); ok {
					acc.SetDistance(ctxPort, idx, meters)
				}
			}
		case sectionVendor:
			if m := vendorRe.FindStringSubmatch(line); m != nil {
				idx, _ := common.ParseInt(m[1])
				acc.SetVendorInfo(ctxPort, idx, m[2], m[3])
			}
		}
	}

	return acc.Finalize()
}

// sectionFor recognizes the table headers emitted by the catalog's
// diagnostic commands.
func sectionFor(line string) string {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "txpower") && strings.Contains(lower, "rxpower"):
		return sectionOptical
	case strings.Contains(lower, "optical-transceiver-diagnosis"):
		return sectionOptical
	case strings.Contains(lower, "distance"):
		return sectionDistance
	case strings.Contains(lower, "vendor") || strings.Contains(lower, "onu version"):
		return sectionVendor
	default:
		return sectionNone
	}
}

func normalizeStatus(raw string) types.ONUStatus {
	switch strings.ToLower(raw) {
	case "online":
		return types.StatusOnline
	case "offline", "power-off", "dying-gasp":
		return types.StatusOffline
	case "los":
		return types.StatusWarning
	default:
		return types.StatusUnknown
	}
}
