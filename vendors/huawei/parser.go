// Package huawei parses Huawei MA5600/MA5800-series transcripts. The
// ONT tables key rows by frame/slot/port plus ONT ID; the frame/slot
// pair is flattened into the normalized "F/S" pon port.
package huawei

import (
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

var (
	// 0/1/0   1   485754435E8D1234   active   online   normal   match
	infoRe = regexp.MustCompile(`(?i)^(\d+)/\s*(\d+)/(\d+)\s+(\d+)\s+([0-9A-F]{12,16})\s+(\S+)\s+(online|offline|initial)\b`)

	// 0/1/0   1   -19.82   2.31   45   3.32/1.18
	opticalRe = regexp.MustCompile(`^(\d+)/\s*(\d+)/(\d+)\s+(\d+)\s+(-?\d+\.?\d*)\s+(-?\d+\.?\d*)\s+(-?\d+)\b`)

	// register table rows carry up/down timestamps and the down cause
	// 1   2025-06-01 09:00:10   2025-06-01 10:20:30   dying-gasp
	registerRe = regexp.MustCompile(`^(\d+)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}|-)\s+(\S+)\s*$`)

	// block attributes from "display ont info <port> <id>" detail output
	kvRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 /()\-]*?)\s*:\s*(.+?)\s*$`)

	// matched against command echoes, which keep the shell prompt prefix
	portCtxRe = regexp.MustCompile(`(?i)display\s+ont\s+(?:register-info|info)\s+(\d+)\s+(\d+)\s+(\d+)(?:\s+(\d+))?\s*$`)

	distRe = regexp.MustCompile(`^(\d+)`)
)

// ONT IDs start at 0, so the context tracks "id seen" separately.
type scanCtx struct {
	port   string
	idx    int
	hasIdx bool
	ok     bool
}

// Parse scans a Huawei transcript into normalized records.
func Parse(deviceID int64, transcript string) []*types.ONURecord {
	acc := common.NewAccumulator(deviceID)
	var ctx scanCtx

	for _, raw := range strings.Split(common.CleanTranscript(transcript), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}

		// Command echoes scope the detail and register tables to one
		// port (and optionally one ONT).
		if m := portCtxRe.FindStringSubmatch(line); m != nil {
			ctx = scanCtx{port: m[2] + "/" + m[3], ok: true}
			if m[4] != "" {
				if idx, ok := common.ParseInt(m[4]); ok {
					ctx.idx, ctx.hasIdx = idx, true
				}
			}
			continue
		}

		if m := infoRe.FindStringSubmatch(line); m != nil {
			port := m[2] + "/" + m[3]
			idx, ok := common.ParseInt(m[4])
			if !ok {
				continue
			}
			r := acc.Upsert(port, idx)
			r.SerialNumber = strings.ToUpper(m[5])
			if len(r.SerialNumber) >= 4 {
				r.Vendor = r.SerialNumber[:4]
			}
			switch strings.ToLower(m[7]) {
			case "online":
				r.Status = types.StatusOnline
			default:
				r.Status = types.StatusOffline
			}
			continue
		}

		if m := opticalRe.FindStringSubmatch(line); m != nil {
			port := m[2] + "/" + m[3]
			idx, ok := common.ParseInt(m[4])
			if !ok {
				continue
			}
			var rxP, txP, tempP *float64
			if rx, ok := common.ParseFloat(m[5]); ok && rx <= 0 {
				rxP = &rx
			}
			if tx, ok := common.ParseFloat(m[6]); ok {
				txP = &tx
			}
			if temp, ok := common.ParseFloat(m[7]); ok {
				tempP = &temp
			}
			acc.SetOptical(port, idx, rxP, txP, tempP)
			continue
		}

		if m := registerRe.FindStringSubmatch(line); m != nil && ctx.ok {
			idx, ok := common.ParseInt(m[1])
			if !ok {
				continue
			}
			var up, down *time.Time
			if t, err := time.Parse("2006-01-02 15:04:05", m[2]); err == nil {
				up = &t
			}
			if m[3] != "-" {
				if t, err := time.Parse("2006-01-02 15:04:05", m[3]); err == nil {
					down = &t
				}
			}
			acc.SetTimes(ctx.port, idx, up, down)
			if cause := strings.ToLower(m[4]); cause != "-" {
				acc.SetDeregReason(ctx.port, idx, cause)
			}
			continue
		}

		if m := kvRe.FindStringSubmatch(line); m != nil && ctx.ok {
			key := strings.ToLower(strings.TrimSpace(m[1]))
			val := strings.TrimSpace(m[2])
			switch key {
			case "ont-id", "ont id":
				if idx, ok := common.ParseInt(val); ok {
					ctx.idx, ctx.hasIdx = idx, true
				}
			case "description":
				if val != "-" && ctx.hasIdx {
					acc.Upsert(ctx.port, ctx.idx).Name = val
				}
			case "ont distance(m)", "ont distance":
				if dm := distRe.FindString(val); dm != "" {
					if meters, ok := common.ParseInt(dm); ok && ctx.hasIdx {
						acc.SetDistance(ctx.port, ctx.idx, meters)
					}
				}
			case "equipment-id", "equipment id":
				if val != "-" && ctx.hasIdx {
					acc.Upsert(ctx.port, ctx.idx).Model = val
				}
			}
			continue
		}
	}

	return acc.Finalize()
}
