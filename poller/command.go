package poller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	fleetmon "github.com/nanoncore/nano-fleetmon"
	"github.com/nanoncore/nano-fleetmon/types"
)

// ONUAction is a per-terminal maintenance operation
type ONUAction string

const (
	ActionReboot ONUAction = "reboot"
	ActionDeauth ONUAction = "deauth"
)

// defaultCommandDelay paces consecutive terminal commands; OLT control
// planes drop registrations under write bursts.
const defaultCommandDelay = 2 * time.Second

// ONUTarget identifies one terminal on a device
type ONUTarget struct {
	PONPort  string `json:"pon_port"`
	ONUIndex int    `json:"onu_index"`
}

// ONUCommandResult summarizes a bulk command run
type ONUCommandResult struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Errors    []string `json:"errors,omitempty"`
}

// ONUCommand runs a reboot or deauthorize against a list of terminals,
// sequentially with a fixed inter-item delay. Items continue past
// individual failures; context cancellation stops the run.
func (o *Orchestrator) ONUCommand(ctx context.Context, device types.DeviceConfig, action ONUAction, targets []ONUTarget) (*ONUCommandResult, error) {
	caps, err := fleetmon.CapabilityFor(device.Brand)
	if err != nil {
		return nil, err
	}

	var build fleetmon.CommandFunc
	switch action {
	case ActionReboot:
		build = caps.Reboot
	case ActionDeauth:
		build = caps.Deauth
	default:
		return nil, fmt.Errorf("unknown onu action %q", action)
	}
	if build == nil {
		return nil, fmt.Errorf("brand %s does not support %s", device.Brand, action)
	}

	log := o.log.With(
		zap.Int64("device_id", device.ID),
		zap.String("action", string(action)))

	result := &ONUCommandResult{}
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if i > 0 {
			select {
			case <-time.After(o.commandDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}

		result.Attempted++
		commands := build(device.Mode, target.PONPort, target.ONUIndex)
		if _, err := o.execute(ctx, device, caps.Profile, commands); err != nil {
			log.Warn("terminal command failed",
				zap.String("pon_port", target.PONPort),
				zap.Int("onu_index", target.ONUIndex),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s:%d: %v", target.PONPort, target.ONUIndex, err))
			continue
		}
		result.Succeeded++
	}

	return result, nil
}
