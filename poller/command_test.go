package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nanoncore/nano-fleetmon/drivers"
	"github.com/nanoncore/nano-fleetmon/types"
)

func TestONUCommandReboot(t *testing.T) {
	st := newFakeStore()
	o := newTestOrchestrator(st)

	var mu sync.Mutex
	var runs [][]string
	o.execute = func(_ context.Context, _ types.DeviceConfig, _ drivers.Profile, commands []string) (*drivers.Result, error) {
		mu.Lock()
		runs = append(runs, commands)
		mu.Unlock()
		return &drivers.Result{Transcript: strings.Repeat("ok\n", 40), Method: "telnet:23"}, nil
	}

	device := types.DeviceConfig{ID: 1, Brand: types.BrandCData, Mode: types.ModeGPON}
	targets := []ONUTarget{{PONPort: "0/1", ONUIndex: 2}, {PONPort: "0/1", ONUIndex: 3}}

	res, err := o.ONUCommand(context.Background(), device, ActionReboot, targets)
	if err != nil {
		t.Fatal(err)
	}
	if res.Attempted != 2 || res.Succeeded != 2 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d", len(runs))
	}
	joined := strings.Join(runs[0], "\n")
	if !strings.Contains(joined, "interface gpon 0/1") || !strings.Contains(joined, "onu reboot 2") {
		t.Errorf("commands = %v", runs[0])
	}
}

func TestONUCommandContinuesPastFailures(t *testing.T) {
	st := newFakeStore()
	o := newTestOrchestrator(st)

	calls := 0
	o.execute = func(_ context.Context, _ types.DeviceConfig, _ drivers.Profile, _ []string) (*drivers.Result, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("session dropped")
		}
		return &drivers.Result{Transcript: strings.Repeat("ok\n", 40), Method: "telnet:23"}, nil
	}

	device := types.DeviceConfig{ID: 1, Brand: types.BrandBDCOM, Mode: types.ModeEPON}
	targets := []ONUTarget{{PONPort: "0/1", ONUIndex: 1}, {PONPort: "0/1", ONUIndex: 2}}

	res, err := o.ONUCommand(context.Background(), device, ActionDeauth, targets)
	if err != nil {
		t.Fatal(err)
	}
	if res.Attempted != 2 || res.Succeeded != 1 || len(res.Errors) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Errors[0], "0/1:1") {
		t.Errorf("error = %q", res.Errors[0])
	}
}

func TestONUCommandUnsupported(t *testing.T) {
	st := newFakeStore()
	o := newTestOrchestrator(st)

	device := types.DeviceConfig{ID: 1, Brand: types.BrandFiberHome, Mode: types.ModeGPON}
	if _, err := o.ONUCommand(context.Background(), device, ActionDeauth, []ONUTarget{{PONPort: "1/1", ONUIndex: 1}}); err == nil {
		t.Fatal("expected error for unsupported action")
	}

	if _, err := o.ONUCommand(context.Background(), device, ONUAction("bogus"), []ONUTarget{{PONPort: "1/1", ONUIndex: 1}}); err == nil {
		t.Fatal("expected error for unknown action")
	}
}
