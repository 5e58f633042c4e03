// Package drivers holds the transport clients and the connection
// strategy that orders them. The ordered attempt list, not a retry loop,
// is the system's principal failure-recovery mechanism.
package drivers

import (
	"context"
	"fmt"
	"time"

	"github.com/nanoncore/nano-fleetmon/drivers/snmpprobe"
	"github.com/nanoncore/nano-fleetmon/drivers/sshcli"
	"github.com/nanoncore/nano-fleetmon/drivers/telnet"
	"github.com/nanoncore/nano-fleetmon/drivers/web"
	"github.com/nanoncore/nano-fleetmon/types"
)

// MinTranscript is the minimum usable transcript length. Anything
// shorter is treated as a failed transport attempt, not a parse failure,
// so the cascade moves on.
const MinTranscript = 64

// Attempt is one entry of the ordered connection plan
type Attempt struct {
	Transport types.Transport
	Port      int
}

// Profile describes how a brand is reached
type Profile struct {
	Primary      types.Transport
	Fallback     types.Transport
	DefaultPort  int
	WebPorts     []int
	SupportsSNMP bool
}

func defaultPortFor(t types.Transport, p Profile) int {
	switch t {
	case types.TransportSSH:
		return 22
	case types.TransportSNMP:
		return 161
	case types.TransportTelnet:
		if p.DefaultPort != 0 {
			return p.DefaultPort
		}
		return 23
	default:
		return 0
	}
}

// Plan produces the ordered attempt list for a brand and configured
// port. Port 22 forces SSH first, 23 forces the interactive shell, 161
// forces SNMP when the brand supports it (else degrades to shell); any
// other port is treated as a forwarded interactive-shell port.
func Plan(p Profile, configuredPort int) []Attempt {
	var attempts []Attempt
	seen := make(map[Attempt]bool)
	add := func(a Attempt) {
		if a.Port == 0 || seen[a] {
			return
		}
		seen[a] = true
		attempts = append(attempts, a)
	}

	switch configuredPort {
	case 22:
		add(Attempt{types.TransportSSH, 22})
	case 161:
		if p.SupportsSNMP {
			add(Attempt{types.TransportSNMP, 161})
		} else {
			add(Attempt{types.TransportTelnet, defaultPortFor(types.TransportTelnet, p)})
		}
	case 23, 0:
		add(Attempt{types.TransportTelnet, defaultPortFor(types.TransportTelnet, p)})
	default:
		// Externally port-forwarded device
		add(Attempt{types.TransportTelnet, configuredPort})
	}

	// Brand primary and fallback with their own default ports
	for _, t := range []types.Transport{p.Primary, p.Fallback} {
		switch t {
		case types.TransportHTTP:
			for _, wp := range p.WebPorts {
				add(Attempt{types.TransportHTTP, wp})
			}
		case "":
		default:
			add(Attempt{t, defaultPortFor(t, p)})
		}
	}

	// Remaining web ports, then the SNMP probe as last resort
	for _, wp := range p.WebPorts {
		add(Attempt{types.TransportHTTP, wp})
	}
	if p.SupportsSNMP {
		add(Attempt{types.TransportSNMP, 161})
	}

	return attempts
}

// Result of a successful connection run
type Result struct {
	Transcript string
	Method     string
}

// Execute walks the attempt plan until one transport yields a usable
// transcript. Individual failures are absorbed; an ExhaustedError
// carrying every reason is returned only when the whole plan failed.
func Execute(ctx context.Context, device types.DeviceConfig, p Profile, commands []string) (*Result, error) {
	attempts := Plan(p, device.Port)
	exhausted := &types.ExhaustedError{}

	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			exhausted.Attempts = append(exhausted.Attempts,
				&types.TransportError{Transport: attempt.Transport, Port: attempt.Port, Err: err})
			break
		}

		transcript, err := runAttempt(ctx, device, attempt, commands)
		if err != nil {
			exhausted.Attempts = append(exhausted.Attempts, asTransportError(attempt, err))
			continue
		}

		// SNMP proves reachability but carries no ONU data
		if attempt.Transport != types.TransportSNMP && len(transcript) < MinTranscript {
			exhausted.Attempts = append(exhausted.Attempts,
				&types.TransportError{Transport: attempt.Transport, Port: attempt.Port, Err: types.ErrInsufficientData})
			continue
		}

		return &Result{
			Transcript: transcript,
			Method:     fmt.Sprintf("%s:%d", attempt.Transport, attempt.Port),
		}, nil
	}

	return nil, exhausted
}

func runAttempt(ctx context.Context, device types.DeviceConfig, attempt Attempt, commands []string) (string, error) {
	switch attempt.Transport {
	case types.TransportTelnet:
		client, err := telnet.NewClient(telnet.Config{
			Address:  device.Address,
			Port:     attempt.Port,
			Username: device.Username,
			Password: device.Password,
		})
		if err != nil {
			return "", err
		}
		return client.Run(ctx, commands)

	case types.TransportSSH:
		client, err := sshcli.NewClient(sshcli.Config{
			Address:  device.Address,
			Port:     attempt.Port,
			Username: device.Username,
			Password: device.Password,
		})
		if err != nil {
			return "", err
		}
		return client.Run(ctx, commands)

	case types.TransportHTTP:
		client, err := web.NewClient(web.Config{
			Address:  device.Address,
			Port:     attempt.Port,
			UseTLS:   attempt.Port == 443 || attempt.Port == 8443,
			Username: device.Username,
			Password: device.Password,
		})
		if err != nil {
			return "", err
		}
		return client.Run(ctx, device.Brand)

	case types.TransportSNMP:
		err := snmpprobe.Probe(ctx, snmpprobe.Config{
			Address:   device.Address,
			Port:      attempt.Port,
			Community: device.SNMPCommunity,
			Timeout:   5 * time.Second,
		})
		return "", err

	default:
		return "", fmt.Errorf("unknown transport %q", attempt.Transport)
	}
}

func asTransportError(attempt Attempt, err error) *types.TransportError {
	if te, ok := err.(*types.TransportError); ok {
		return te
	}
	return &types.TransportError{Transport: attempt.Transport, Port: attempt.Port, Err: err}
}
