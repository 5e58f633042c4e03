// Package snmpprobe implements the SNMP transport, which is
// connectivity-only: a sysDescr get proves the device answers, but no
// ONU state is read over SNMP.
package snmpprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/nanoncore/nano-fleetmon/types"
)

const sysDescrOID = "1.3.6.1.2.1.1.1.0"

// Config for one probe
type Config struct {
	Address   string
	Port      int
	Community string
	Timeout   time.Duration
}

// Probe performs an SNMP get of sysDescr. A non-nil error means the
// device did not answer at all (timeout, refused) or rejected the
// community.
func Probe(ctx context.Context, cfg Config) error {
	if cfg.Port == 0 {
		cfg.Port = 161
	}
	if cfg.Community == "" {
		cfg.Community = "public"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		cfg.Port = 161
	}

	client := &gosnmp.GoSNMP{
		Target:    cfg.Address,
		Port:      uint16(cfg.Port), //nolint:gosec // range-checked above
		Community: cfg.Community,
		Version:   gosnmp.Version2c,
		Timeout:   cfg.Timeout,
		Retries:   1,
		Context:   ctx,
	}

	if err := client.Connect(); err != nil {
		return &types.TransportError{Transport: types.TransportSNMP, Port: cfg.Port, Err: fmt.Errorf("connect: %w", err)}
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{sysDescrOID})
	if err != nil {
		return &types.TransportError{Transport: types.TransportSNMP, Port: cfg.Port, Err: fmt.Errorf("get sysDescr: %w", err)}
	}
	if len(result.Variables) == 0 {
		return &types.TransportError{Transport: types.TransportSNMP, Port: cfg.Port, Err: fmt.Errorf("empty sysDescr response")}
	}
	return nil
}
