package poller

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nanoncore/nano-fleetmon/store"
	"github.com/nanoncore/nano-fleetmon/types"
)

// Fleet runs scheduled full-fleet polls with bounded concurrency.
type Fleet struct {
	orch    *Orchestrator
	store   store.Store
	log     *zap.Logger
	workers int

	cron    *cron.Cron
	running atomic.Bool
}

func NewFleet(orch *Orchestrator, st store.Store, log *zap.Logger, workers int) *Fleet {
	if workers <= 0 {
		workers = 4
	}
	return &Fleet{orch: orch, store: st, log: log, workers: workers}
}

// FleetSummary reports one full-fleet run.
type FleetSummary struct {
	Devices  int `json:"devices"`
	Polled   int `json:"polled"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	Parsed   int `json:"parsed"`
	Alerted  int `json:"alerted"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// PollAll polls every configured device. Only one fleet run may be in
// flight; overlapping calls return a skipped summary so a slow fleet
// never stacks runs.
func (f *Fleet) PollAll(ctx context.Context) (*FleetSummary, error) {
	if !f.running.CompareAndSwap(false, true) {
		f.log.Warn("fleet poll already running, skipping")
		return &FleetSummary{Skipped: 1}, nil
	}
	defer f.running.Store(false)

	devices, err := f.store.Devices(ctx)
	if err != nil {
		return nil, err
	}

	summary := &FleetSummary{Devices: len(devices)}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.workers)

	for _, device := range devices {
		wg.Add(1)
		go func(device types.DeviceConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := f.orch.PollDevice(ctx, device)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				return
			}
			summary.Polled++
			summary.Parsed += res.Parsed
			summary.Alerted += res.Alerts
			summary.Inserted += res.Inserted
			summary.Updated += res.Updated
		}(device)
	}
	wg.Wait()

	f.log.Info("fleet poll finished",
		zap.Int("devices", summary.Devices),
		zap.Int("polled", summary.Polled),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// Start schedules recurring fleet polls with a cron expression.
func (f *Fleet) Start(spec string) error {
	f.cron = cron.New()
	_, err := f.cron.AddFunc(spec, func() {
		if _, err := f.PollAll(context.Background()); err != nil {
			f.log.Error("scheduled fleet poll failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	f.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running job to return.
func (f *Fleet) Stop() {
	if f.cron != nil {
		<-f.cron.Stop().Done()
	}
}
