// Package zte parses ZTE C300/C320-series transcripts. ZTE addresses
// ONUs as "gpon-onu_<shelf>/<slot>/<port>:<id>"; the shelf/slot pair is
// flattened into the normalized "shelf/slot-port" pon port so the three
// levels survive in two fields.
package zte

import (
	"regexp"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

var (
	// 1/2/1:1   enable   enable   working   ZTEG12345678
	// older C300 firmware drops the OMCC column, so one or two admin
	// columns precede the phase state
	stateRe = regexp.MustCompile(`(?i)^(\d+)/(\d+)/(\d+):(\d+)\s+(?:\S+\s+){1,2}(working|offline|los|dyinggasp|logging|init)\s*(\S*)\s*$`)

	// detail and power command echoes name one ONU
	onuCtxRe = regexp.MustCompile(`(?i)gpon-onu_(\d+)/(\d+)/(\d+):(\d+)\s*$`)

	kvRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 \-]*?)\s*:\s*(.+?)\s*$`)

	// up/down direction rows in "show pon power attenuation" output
	// up     Rx:-18.50(dbm)   Tx:2.20(dbm)
	powerRe = regexp.MustCompile(`(?i)^(up|down)\s+Rx\s*:\s*(-?\d+\.?\d*)\s*\(dbm\)\s+Tx\s*:\s*(-?\d+\.?\d*)\s*\(dbm\)`)

	tsRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
)

type scanCtx struct {
	port string
	idx  int
	ok   bool
}

// Parse scans a ZTE transcript into normalized records.
func Parse(deviceID int64, transcript string) []*types.ONURecord {
	acc := common.NewAccumulator(deviceID)
	var ctx scanCtx

	for _, raw := range strings.Split(common.CleanTranscript(transcript), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}

		if m := onuCtxRe.FindStringSubmatch(line); m != nil {
			idx, ok := common.ParseInt(m[4])
			if !ok {
				continue
			}
			ctx = scanCtx{port: m[1] + "/" + m[2] + "-" + m[3], idx: idx, ok: true}
			continue
		}

		if m := stateRe.FindStringSubmatch(line); m != nil {
			port := m[1] + "/" + m[2] + "-" + m[3]
			idx, ok := common.ParseInt(m[4])
			if !ok {
				continue
			}
			r := acc.Upsert(port, idx)
			switch strings.ToLower(m[5]) {
			case "working":
				r.Status = types.StatusOnline
			case "los", "dyinggasp":
				r.Status = types.StatusWarning
			default:
				r.Status = types.StatusOffline
			}
			if sn := strings.ToUpper(m[6]); len(sn) >= 8 {
				r.SerialNumber = sn
				if len(sn) >= 4 {
					r.Vendor = sn[:4]
				}
			}
			continue
		}

		if m := powerRe.FindStringSubmatch(line); m != nil && ctx.ok {
			// "up" is the OLT-side reading of the ONU transmitter;
			// "down" carries the ONU-side receive level we report.
			if !strings.EqualFold(m[1], "down") {
				continue
			}
			var rxP, txP *float64
			if rx, ok := common.ParseFloat(m[2]); ok && rx <= 0 {
				rxP = &rx
			}
			if tx, ok := common.ParseFloat(m[3]); ok {
				txP = &tx
			}
			acc.SetOptical(ctx.port, ctx.idx, rxP, txP, nil)
			continue
		}

		if m := kvRe.FindStringSubmatch(line); m != nil && ctx.ok {
			key := strings.ToLower(strings.TrimSpace(m[1]))
			val := strings.TrimSpace(m[2])
			switch key {
			case "serial number":
				if sn := strings.ToUpper(val); len(sn) >= 8 {
					r := acc.Upsert(ctx.port, ctx.idx)
					r.SerialNumber = sn
					r.Vendor = sn[:4]
				}
			case "name":
				if val != "" && !strings.EqualFold(val, "none") {
					acc.Upsert(ctx.port, ctx.idx).Name = val
				}
			case "type":
				acc.Upsert(ctx.port, ctx.idx).Model = val
			case "onu distance":
				if meters, ok := common.ParseInt(strings.TrimSuffix(val, "m")); ok {
					acc.SetDistance(ctx.port, ctx.idx, meters)
				}
			case "last down cause":
				if !strings.EqualFold(val, "none") {
					acc.SetDeregReason(ctx.port, ctx.idx, strings.ToLower(val))
				}
			case "last up time":
				if ts := tsRe.FindString(val); ts != "" {
					if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
						acc.SetTimes(ctx.port, ctx.idx, &t, nil)
					}
				}
			case "last down time":
				if ts := tsRe.FindString(val); ts != "" {
					if t, err := time.Parse("2006-01-02 15:04:05", ts); err == nil {
						acc.SetTimes(ctx.port, ctx.idx, nil, &t)
					}
				}
			case "onlinedetect", "phase state":
				switch strings.ToLower(val) {
				case "working", "online":
					acc.Upsert(ctx.port, ctx.idx).Status = types.StatusOnline
				case "offline", "logging", "init":
					acc.Upsert(ctx.port, ctx.idx).Status = types.StatusOffline
				}
			}
			continue
		}
	}

	return acc.Finalize()
}
