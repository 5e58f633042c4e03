package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/nanoncore/nano-fleetmon/types"
)

type countingSink struct {
	name  string
	calls atomic.Int64
	err   error
}

func (s *countingSink) Name() string { return s.name }

func (s *countingSink) Notify(context.Context, types.AlertSettings, types.Alert) error {
	s.calls.Add(1)
	return s.err
}

func TestFanoutReachesEverySink(t *testing.T) {
	a := &countingSink{name: "a"}
	b := &countingSink{name: "b"}
	f := NewFanout(zap.NewNop(), a, b)

	f.DispatchWait(types.AlertSettings{}, types.Alert{DeviceID: 1, Type: "onu_offline"})

	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Fatalf("calls = %d, %d", a.calls.Load(), b.calls.Load())
	}
}

func TestFanoutIsolatesFailures(t *testing.T) {
	failing := &countingSink{name: "bad", err: errors.New("unreachable")}
	healthy := &countingSink{name: "good"}
	f := NewFanout(zap.NewNop(), failing, healthy)

	f.DispatchWait(types.AlertSettings{}, types.Alert{DeviceID: 2, Type: "power_drop"})

	if healthy.calls.Load() != 1 {
		t.Fatal("healthy sink not reached after sibling failure")
	}
}

func TestFanoutNoSinks(t *testing.T) {
	f := NewFanout(zap.NewNop())
	// must not panic
	f.Dispatch(types.AlertSettings{}, types.Alert{})
	f.DispatchWait(types.AlertSettings{}, types.Alert{})
}
