// Package reconcile folds freshly-polled ONU records into the store and
// raises rate-limited alerts. One call handles one device's batch.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nanoncore/nano-fleetmon/notify"
	"github.com/nanoncore/nano-fleetmon/store"
	"github.com/nanoncore/nano-fleetmon/types"
)

// Engine reconciles poll batches. The clock is injectable so alert
// timing is testable.
type Engine struct {
	store  store.Store
	notify *notify.Fanout
	log    *zap.Logger
	now    func() time.Time
}

func New(st store.Store, fan *notify.Fanout, log *zap.Logger) *Engine {
	return &Engine{store: st, notify: fan, log: log, now: time.Now}
}

// NewWithClock is New with a fake clock for tests.
func NewWithClock(st store.Store, fan *notify.Fanout, log *zap.Logger, now func() time.Time) *Engine {
	e := New(st, fan, log)
	e.now = now
	return e
}

// Result summarizes one reconciliation run.
type Result struct {
	Inserted int
	Updated  int
	Deleted  int
	Alerts   int

	// ActivePorts counts distinct PON ports with at least one online
	// terminal, written back to the device row by the orchestrator.
	ActivePorts int

	// Errors holds per-record persistence failures. The batch keeps
	// going past them.
	Errors []error
}

// Reconcile runs the full sequence: intra-batch dedup, historical
// duplicate repair, upsert with transition tracking, power readings,
// and alerting.
func (e *Engine) Reconcile(ctx context.Context, device types.DeviceConfig, incoming []*types.ONURecord, settings types.AlertSettings) (*Result, error) {
	res := &Result{}
	now := e.now()

	batch := dedupe(incoming)

	existing, err := e.store.ONUsForDevice(ctx, device.ID)
	if err != nil {
		return nil, fmt.Errorf("load persisted records: %w", err)
	}
	byKey, stale := groupNewest(existing)
	if len(stale) > 0 {
		if err := e.store.DeleteONUs(ctx, stale); err != nil {
			res.Errors = append(res.Errors, err)
		} else {
			res.Deleted += len(stale)
		}
	}

	activePorts := make(map[string]bool)
	for _, rec := range batch {
		rec.DeviceID = device.ID

		prev, known := byKey[rec.Key()]
		var persisted *types.ONURecord
		if known {
			trackTransition(prev, rec, now)
			prev.Merge(rec)
			persisted = prev
		} else {
			if rec.Status == types.StatusOnline && rec.LastOnlineAt == nil {
				rec.LastOnlineAt = &now
			}
			persisted = rec
		}

		if err := e.store.UpsertONU(ctx, persisted); err != nil {
			res.Errors = append(res.Errors, err)
			e.log.Warn("record persist failed",
				zap.Int64("device_id", device.ID),
				zap.String("key", persisted.Key()),
				zap.Error(err))
			continue
		}
		if known {
			res.Updated++
		} else {
			res.Inserted++
		}

		if persisted.Status == types.StatusOnline {
			activePorts[persisted.PONPort] = true
		}

		if rec.RxPower != nil && rec.TxPower != nil {
			reading := &types.PowerReading{
				ONUID:   persisted.ID,
				RxPower: *rec.RxPower,
				TxPower: *rec.TxPower,
				TakenAt: now,
			}
			if err := e.store.InsertPowerReading(ctx, reading); err != nil {
				res.Errors = append(res.Errors, err)
			}
		}

		e.maybeAlertOffline(ctx, device, persisted, settings, now, res)
		e.maybeAlertPower(ctx, device, persisted, settings, now, res)
	}

	res.ActivePorts = len(activePorts)
	return res, nil
}

// AlertUnreachable raises olt_unreachable after transport exhaustion,
// subject to the repeat-suppression window.
func (e *Engine) AlertUnreachable(ctx context.Context, device types.DeviceConfig, cause error, settings types.AlertSettings) {
	now := e.now()
	if e.alreadyAlerted(ctx, device.ID, types.AlertOLTUnreachable, now.Add(-settings.AlertWindow)) {
		return
	}
	e.raise(ctx, types.Alert{
		DeviceID:  device.ID,
		Type:      types.AlertOLTUnreachable,
		Severity:  "critical",
		Message:   fmt.Sprintf("%s unreachable: %v", device.Name, cause),
		CreatedAt: now,
	}, settings, nil)
}

// dedupe collapses records sharing a key. The survivor is the first
// occurrence with later records merged in, so later non-null fields win
// without reviving nulls.
func dedupe(records []*types.ONURecord) []*types.ONURecord {
	var out []*types.ONURecord
	index := make(map[string]*types.ONURecord)
	for _, r := range records {
		if prev, ok := index[r.Key()]; ok {
			prev.Merge(r)
			continue
		}
		index[r.Key()] = r
		out = append(out, r)
	}
	return out
}

// groupNewest indexes persisted rows by key and returns the ids of any
// older duplicates for deletion.
func groupNewest(existing []*types.ONURecord) (map[string]*types.ONURecord, []int64) {
	byKey := make(map[string]*types.ONURecord)
	var stale []int64
	for _, r := range existing {
		prev, ok := byKey[r.Key()]
		if !ok {
			byKey[r.Key()] = r
			continue
		}
		if r.UpdatedAt.After(prev.UpdatedAt) {
			stale = append(stale, prev.ID)
			byKey[r.Key()] = r
		} else {
			stale = append(stale, r.ID)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	return byKey, stale
}

// trackTransition stamps status-change timestamps on the incoming
// record before it is merged over the persisted one.
func trackTransition(prev, rec *types.ONURecord, now time.Time) {
	if rec.Status == "" || rec.Status == types.StatusUnknown || rec.Status == prev.Status {
		return
	}
	switch rec.Status {
	case types.StatusOnline:
		if rec.LastOnlineAt == nil {
			rec.LastOnlineAt = &now
		}
	case types.StatusOffline, types.StatusWarning:
		if rec.LastOfflineAt == nil && prev.Status == types.StatusOnline {
			rec.LastOfflineAt = &now
		}
	}
}

func (e *Engine) maybeAlertOffline(ctx context.Context, device types.DeviceConfig, r *types.ONURecord, settings types.AlertSettings, now time.Time, res *Result) {
	if r.Status != types.StatusOffline {
		return
	}
	delay := time.Duration(settings.OfflineDelayMinutes) * time.Minute
	if r.LastOfflineAt == nil {
		// No transition timestamp is known; without one the delay
		// cannot be measured, so only a zero delay fires.
		if delay != 0 {
			return
		}
	} else if now.Sub(*r.LastOfflineAt) < delay {
		return
	}

	since := now.Add(-settings.AlertWindow)
	if r.LastOfflineAt != nil && r.LastOfflineAt.After(since) {
		since = *r.LastOfflineAt
	}
	if e.alreadyAlertedFor(ctx, device.ID, types.AlertONUOffline, since, r.Key()) {
		return
	}

	reason := r.OfflineReason
	if reason == "" {
		reason = "unknown"
	}
	e.raise(ctx, types.Alert{
		DeviceID:  device.ID,
		Type:      types.AlertONUOffline,
		Severity:  "warning",
		Message:   fmt.Sprintf("%s %s (%s) offline: %s", device.Name, r.Key(), label(r), reason),
		CreatedAt: now,
	}, settings, res)
}

func (e *Engine) maybeAlertPower(ctx context.Context, device types.DeviceConfig, r *types.ONURecord, settings types.AlertSettings, now time.Time, res *Result) {
	if r.Status != types.StatusOnline || r.RxPower == nil {
		return
	}
	if *r.RxPower >= settings.RxPowerThreshold {
		return
	}
	if e.alreadyAlerted(ctx, device.ID, types.AlertPowerDrop, now.Add(-settings.AlertWindow)) {
		return
	}
	e.raise(ctx, types.Alert{
		DeviceID:  device.ID,
		Type:      types.AlertPowerDrop,
		Severity:  "warning",
		Message:   fmt.Sprintf("%s %s (%s) rx power %.2f dBm below %.2f", device.Name, r.Key(), label(r), *r.RxPower, settings.RxPowerThreshold),
		CreatedAt: now,
	}, settings, res)
}

func (e *Engine) alreadyAlerted(ctx context.Context, deviceID int64, alertType string, since time.Time) bool {
	alerts, err := e.store.RecentAlerts(ctx, deviceID, alertType, since)
	if err != nil {
		e.log.Warn("alert dedupe lookup failed", zap.Error(err))
		return false
	}
	return len(alerts) > 0
}

// alreadyAlertedFor narrows the dedupe check to alerts mentioning one
// ONU key, so one offline terminal does not silence its neighbors.
func (e *Engine) alreadyAlertedFor(ctx context.Context, deviceID int64, alertType string, since time.Time, key string) bool {
	alerts, err := e.store.RecentAlerts(ctx, deviceID, alertType, since)
	if err != nil {
		e.log.Warn("alert dedupe lookup failed", zap.Error(err))
		return false
	}
	for _, a := range alerts {
		if containsKey(a.Message, key) {
			return true
		}
	}
	return false
}

func (e *Engine) raise(ctx context.Context, alert types.Alert, settings types.AlertSettings, res *Result) {
	if err := e.store.InsertAlert(ctx, &alert); err != nil {
		e.log.Warn("alert insert failed", zap.Error(err))
		if res != nil {
			res.Errors = append(res.Errors, err)
		}
		return
	}
	if res != nil {
		res.Alerts++
	}
	if e.notify != nil {
		e.notify.Dispatch(settings, alert)
	}
}

func label(r *types.ONURecord) string {
	if !types.IsPlaceholderName(r.Name) {
		return r.Name
	}
	return r.SerialNumber
}

func containsKey(message, key string) bool {
	return key != "" && strings.Contains(message, key)
}
