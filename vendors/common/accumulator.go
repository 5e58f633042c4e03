package common

import (
	"fmt"
	"sort"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
)

// Accumulator is the shared core of every brand parser. Scanning fills
// the record map plus several side-tables; Finalize merges the side
// tables in a fixed pass order (optical, deregister reason, distance,
// register times, vendor info) and synthesizes placeholders for records
// that still lack a serial or display name.
//
// Later writes for the same key overwrite earlier ones on purpose:
// later commands in a brand's catalog return more authoritative data.
type Accumulator struct {
	DeviceID int64

	records map[string]*types.ONURecord

	optical  map[string]opticalEntry
	dereg    map[string]string
	distance map[string]int
	times    map[string]timesEntry
	vendor   map[string]vendorEntry
}

type opticalEntry struct {
	rx, tx, temp *float64
}

type timesEntry struct {
	lastOnline, lastOffline *time.Time
}

type vendorEntry struct {
	vendor, model string
}

// NewAccumulator creates an empty accumulator for one device's poll
func NewAccumulator(deviceID int64) *Accumulator {
	return &Accumulator{
		DeviceID: deviceID,
		records:  make(map[string]*types.ONURecord),
		optical:  make(map[string]opticalEntry),
		dereg:    make(map[string]string),
		distance: make(map[string]int),
		times:    make(map[string]timesEntry),
		vendor:   make(map[string]vendorEntry),
	}
}

func key(ponPort string, onuIndex int) string {
	return fmt.Sprintf("%s:%d", ponPort, onuIndex)
}

// Upsert returns the record for a key, creating it on first sight
func (a *Accumulator) Upsert(ponPort string, onuIndex int) *types.ONURecord {
	k := key(ponPort, onuIndex)
	if r, ok := a.records[k]; ok {
		return r
	}
	r := &types.ONURecord{
		DeviceID: a.DeviceID,
		PONPort:  ponPort,
		ONUIndex: onuIndex,
		Status:   types.StatusUnknown,
	}
	a.records[k] = r
	return r
}

// SetOptical records rx/tx/temperature for a key. Nil fields leave the
// previous value in place.
func (a *Accumulator) SetOptical(ponPort string, onuIndex int, rx, tx, temp *float64) {
	k := key(ponPort, onuIndex)
	e := a.optical[k]
	if rx != nil {
		e.rx = rx
	}
	if tx != nil {
		e.tx = tx
	}
	if temp != nil {
		e.temp = temp
	}
	a.optical[k] = e
}

// SetDeregReason records the most recent deregister/offline reason
func (a *Accumulator) SetDeregReason(ponPort string, onuIndex int, reason string) {
	if reason != "" {
		a.dereg[key(ponPort, onuIndex)] = reason
	}
}

// SetDistance records the fiber distance in meters
func (a *Accumulator) SetDistance(ponPort string, onuIndex int, meters int) {
	if meters > 0 {
		a.distance[key(ponPort, onuIndex)] = meters
	}
}

// SetTimes records last register/deregister timestamps. Nil fields leave
// the previous value in place.
func (a *Accumulator) SetTimes(ponPort string, onuIndex int, lastOnline, lastOffline *time.Time) {
	k := key(ponPort, onuIndex)
	e := a.times[k]
	if lastOnline != nil {
		e.lastOnline = lastOnline
	}
	if lastOffline != nil {
		e.lastOffline = lastOffline
	}
	a.times[k] = e
}

// SetVendorInfo records ONU vendor/model strings
func (a *Accumulator) SetVendorInfo(ponPort string, onuIndex int, vendor, model string) {
	k := key(ponPort, onuIndex)
	e := a.vendor[k]
	if vendor != "" {
		e.vendor = vendor
	}
	if model != "" {
		e.model = model
	}
	a.vendor[k] = e
}

// Finalize merges side tables into the accumulated records and fills
// placeholders, returning the records ordered by key for determinism.
func (a *Accumulator) Finalize() []*types.ONURecord {
	// Side tables only annotate; keys absent from the info pass are
	// stale rows and never create records
	for k, e := range a.optical {
		r, ok := a.records[k]
		if !ok {
			continue
		}
		if e.rx != nil {
			r.RxPower = e.rx
		}
		if e.tx != nil {
			r.TxPower = e.tx
		}
		if e.temp != nil {
			r.Temperature = e.temp
		}
	}

	for k, reason := range a.dereg {
		if r, ok := a.records[k]; ok {
			r.OfflineReason = reason
		}
	}

	for k, meters := range a.distance {
		if r, ok := a.records[k]; ok {
			m := meters
			r.DistanceM = &m
		}
	}

	for k, e := range a.times {
		r, ok := a.records[k]
		if !ok {
			continue
		}
		if e.lastOnline != nil {
			r.LastOnlineAt = e.lastOnline
		}
		if e.lastOffline != nil {
			r.LastOfflineAt = e.lastOffline
		}
	}

	for k, e := range a.vendor {
		r, ok := a.records[k]
		if !ok {
			continue
		}
		if e.vendor != "" {
			r.Vendor = e.vendor
		}
		if e.model != "" {
			r.Model = e.model
		}
	}

	keys := make([]string, 0, len(a.records))
	for k := range a.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*types.ONURecord, 0, len(keys))
	for _, k := range keys {
		r := a.records[k]
		if r.SerialNumber == "" {
			r.SerialNumber = types.PlaceholderSerial(r.PONPort, r.ONUIndex)
		}
		if r.Name == "" {
			r.Name = types.PlaceholderSerial(r.PONPort, r.ONUIndex)
		}
		out = append(out, r)
	}
	return out
}
