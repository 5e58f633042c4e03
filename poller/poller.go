// Package poller orchestrates the poll pipeline per device and runs
// the fleet schedule. A device poll is strictly sequential; devices are
// polled concurrently under a bounded worker count.
package poller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	fleetmon "github.com/nanoncore/nano-fleetmon"
	"github.com/nanoncore/nano-fleetmon/cache"
	"github.com/nanoncore/nano-fleetmon/drivers"
	"github.com/nanoncore/nano-fleetmon/enrich"
	"github.com/nanoncore/nano-fleetmon/metrics"
	"github.com/nanoncore/nano-fleetmon/mikrotik"
	"github.com/nanoncore/nano-fleetmon/reconcile"
	"github.com/nanoncore/nano-fleetmon/store"
	"github.com/nanoncore/nano-fleetmon/types"
)

// defaultPollTimeout bounds a device poll when the config carries none.
const defaultPollTimeout = 4 * time.Minute

// SettingsSource yields the current alert settings; *store.SettingsProvider
// satisfies it in production.
type SettingsSource interface {
	Alerts(ctx context.Context) types.AlertSettings
}

// Orchestrator runs the pipeline for one device at a time.
type Orchestrator struct {
	store      store.Store
	settings   SettingsSource
	reconciler *reconcile.Engine
	metrics    *metrics.Metrics
	log        *zap.Logger

	// methodCache is shared across polls so repeated router probing is
	// avoided; entries are keyed by router address.
	methodCache *cache.TTL[mikrotik.Method]

	// commandDelay paces items of a bulk terminal command run
	commandDelay time.Duration

	// execute and snapshot are swappable for tests.
	execute  func(ctx context.Context, device types.DeviceConfig, p drivers.Profile, commands []string) (*drivers.Result, error)
	snapshot func(ctx context.Context, router types.RouterConfig, methods *cache.TTL[mikrotik.Method]) (*types.IdentitySnapshot, error)
}

func NewOrchestrator(st store.Store, settings SettingsSource, rec *reconcile.Engine, m *metrics.Metrics, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:        st,
		settings:     settings,
		reconciler:   rec,
		metrics:      m,
		log:          log,
		methodCache:  cache.New[mikrotik.Method](),
		commandDelay: defaultCommandDelay,
		execute:      drivers.Execute,
		snapshot: func(ctx context.Context, router types.RouterConfig, methods *cache.TTL[mikrotik.Method]) (*types.IdentitySnapshot, error) {
			return mikrotik.NewClient(router, methods).Snapshot(ctx)
		},
	}
}

// PollResult summarizes one device poll for the control surface.
type PollResult struct {
	DeviceID    int64  `json:"device_id"`
	Method      string `json:"method"`
	Parsed      int    `json:"parsed"`
	Inserted    int    `json:"inserted"`
	Updated     int    `json:"updated"`
	Deleted     int    `json:"deleted"`
	Alerts      int    `json:"alerts"`
	Enriched    bool   `json:"enriched"`
	DurationMs  int64  `json:"duration_ms"`
	PartialErrs int    `json:"partial_errors"`
}

// PollDevice runs the full pipeline for one device. Transport
// exhaustion marks the device offline and raises olt_unreachable; any
// other stage degrades as gracefully as it can.
func (o *Orchestrator) PollDevice(ctx context.Context, device types.DeviceConfig) (*PollResult, error) {
	timeout := device.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	settings := o.settings.Alerts(ctx)
	log := o.log.With(zap.Int64("device_id", device.ID), zap.String("brand", string(device.Brand)))

	catalog, err := fleetmon.Catalog(device.Brand, device.Mode)
	if err != nil {
		o.observe(device, metrics.OutcomeError, started)
		return nil, err
	}
	caps, err := fleetmon.CapabilityFor(device.Brand)
	if err != nil {
		o.observe(device, metrics.OutcomeError, started)
		return nil, err
	}

	result, err := o.execute(ctx, device, caps.Profile, catalog)
	if err != nil {
		log.Warn("all transports failed", zap.Error(err))
		o.debugLog(ctx, device, "", 0, "", err, started)
		o.reconciler.AlertUnreachable(ctx, device, err, settings)
		if serr := o.store.UpdateDeviceStatus(ctx, device.ID, string(types.StatusOffline), time.Now(), 0); serr != nil {
			log.Warn("device status update failed", zap.Error(serr))
		}
		o.observe(device, metrics.OutcomeUnreachable, started)
		return nil, err
	}

	records, err := fleetmon.Parse(device.Brand, device.ID, result.Transcript)
	if err != nil {
		o.observe(device, metrics.OutcomeError, started)
		return nil, err
	}
	log.Debug("transcript parsed",
		zap.String("method", result.Method),
		zap.Int("records", len(records)))

	enriched := o.enrichRecords(ctx, device, records, log)

	recRes, err := o.reconciler.Reconcile(ctx, device, records, settings)
	if err != nil {
		o.debugLog(ctx, device, result.Transcript, len(records), result.Method, err, started)
		o.observe(device, metrics.OutcomeError, started)
		return nil, err
	}

	status := types.StatusOnline
	if len(records) == 0 {
		status = types.StatusUnknown
	}
	if err := o.store.UpdateDeviceStatus(ctx, device.ID, string(status), time.Now(), recRes.ActivePorts); err != nil {
		log.Warn("device status update failed", zap.Error(err))
	}
	o.debugLog(ctx, device, result.Transcript, len(records), result.Method, nil, started)

	if o.metrics != nil {
		o.metrics.RecordsParsed.WithLabelValues(device.Name).Set(float64(len(records)))
		if recRes.Alerts > 0 {
			o.metrics.AlertsRaised.WithLabelValues("reconcile").Add(float64(recRes.Alerts))
		}
	}
	o.observe(device, metrics.OutcomeOK, started)

	return &PollResult{
		DeviceID:    device.ID,
		Method:      result.Method,
		Parsed:      len(records),
		Inserted:    recRes.Inserted,
		Updated:     recRes.Updated,
		Deleted:     recRes.Deleted,
		Alerts:      recRes.Alerts,
		Enriched:    enriched,
		DurationMs:  time.Since(started).Milliseconds(),
		PartialErrs: len(recRes.Errors),
	}, nil
}

// enrichRecords fetches the router identity snapshot and applies the
// matching cascade. Router failures degrade to an un-enriched poll.
func (o *Orchestrator) enrichRecords(ctx context.Context, device types.DeviceConfig, records []*types.ONURecord, log *zap.Logger) bool {
	if device.Router == nil || len(records) == 0 {
		return false
	}
	snap, err := o.snapshot(ctx, *device.Router, o.methodCache)
	if err != nil {
		log.Warn("router snapshot failed, continuing un-enriched",
			zap.String("router", device.Router.Address),
			zap.Error(err))
		return false
	}
	enrich.Enrich(records, snap)
	return true
}

func (o *Orchestrator) debugLog(ctx context.Context, device types.DeviceConfig, transcript string, parsed int, method string, pollErr error, started time.Time) {
	entry := &types.PollDebugLog{
		DeviceID:         device.ID,
		RawOutput:        transcript,
		ParsedCount:      parsed,
		ConnectionMethod: method,
		Duration:         time.Since(started),
		CreatedAt:        time.Now(),
	}
	if pollErr != nil {
		entry.Error = pollErr.Error()
	}
	if err := o.store.InsertPollDebugLog(ctx, entry); err != nil {
		o.log.Warn("debug log insert failed", zap.Int64("device_id", device.ID), zap.Error(err))
	}
}

func (o *Orchestrator) observe(device types.DeviceConfig, outcome string, started time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.PollsTotal.WithLabelValues(string(device.Brand), outcome).Inc()
	o.metrics.PollDuration.WithLabelValues(string(device.Brand)).Observe(time.Since(started).Seconds())
}

// TestConnection tries the transport cascade (and router, when linked)
// without touching the store, for pre-save validation.
func (o *Orchestrator) TestConnection(ctx context.Context, device types.DeviceConfig) (string, error) {
	caps, err := fleetmon.CapabilityFor(device.Brand)
	if err != nil {
		return "", err
	}
	catalog, err := fleetmon.Catalog(device.Brand, device.Mode)
	if err != nil {
		return "", err
	}
	// A short catalog keeps the check quick; the first two commands are
	// enough to prove login works.
	if len(catalog) > 2 {
		catalog = catalog[:2]
	}
	result, err := o.execute(ctx, device, caps.Profile, catalog)
	if err != nil {
		return "", err
	}
	if device.Router != nil {
		if _, err := o.snapshot(ctx, *device.Router, o.methodCache); err != nil {
			return result.Method, fmt.Errorf("olt reachable via %s but router failed: %w", result.Method, err)
		}
	}
	return result.Method, nil
}
