// Package notify delivers alerts to external channels. Delivery is
// fire-and-forget: reconciliation inserts the alert and hands it off,
// and a broken channel can never stall a poll.
package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nanoncore/nano-fleetmon/types"
)

// Sink is one delivery channel.
type Sink interface {
	Name() string
	Notify(ctx context.Context, settings types.AlertSettings, alert types.Alert) error
}

// deliveryTimeout bounds a single channel attempt.
const deliveryTimeout = 10 * time.Second

// Fanout dispatches each alert to every sink concurrently. Errors are
// logged per channel and otherwise dropped.
type Fanout struct {
	log   *zap.Logger
	sinks []Sink
}

func NewFanout(log *zap.Logger, sinks ...Sink) *Fanout {
	return &Fanout{log: log, sinks: sinks}
}

// Dispatch hands the alert to every sink and returns immediately. The
// background deliveries carry their own timeout, detached from the
// caller's poll context.
func (f *Fanout) Dispatch(settings types.AlertSettings, alert types.Alert) {
	for _, sink := range f.sinks {
		go func(s Sink) {
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()
			if err := s.Notify(ctx, settings, alert); err != nil {
				f.log.Warn("alert delivery failed",
					zap.String("sink", s.Name()),
					zap.String("type", alert.Type),
					zap.Int64("device_id", alert.DeviceID),
					zap.Error(err))
			}
		}(sink)
	}
}

// DispatchWait is Dispatch plus a barrier, used by tests and shutdown.
func (f *Fanout) DispatchWait(settings types.AlertSettings, alert types.Alert) {
	var wg sync.WaitGroup
	for _, sink := range f.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()
			if err := s.Notify(ctx, settings, alert); err != nil {
				f.log.Warn("alert delivery failed",
					zap.String("sink", s.Name()),
					zap.String("type", alert.Type),
					zap.Int64("device_id", alert.DeviceID),
					zap.Error(err))
			}
		}(sink)
	}
	wg.Wait()
}

// LogSink writes alerts to the structured log. It is the default sink
// when no external channel is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Notify(_ context.Context, _ types.AlertSettings, alert types.Alert) error {
	s.log.Info("alert",
		zap.Int64("device_id", alert.DeviceID),
		zap.String("type", alert.Type),
		zap.String("severity", alert.Severity),
		zap.String("message", alert.Message))
	return nil
}
