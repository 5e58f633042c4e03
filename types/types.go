package types

import (
	"time"
)

// Transport represents a management transport protocol
type Transport string

const (
	TransportTelnet Transport = "telnet"
	TransportSSH    Transport = "ssh"
	TransportHTTP   Transport = "http"
	TransportSNMP   Transport = "snmp"
)

// Brand represents the OLT vendor
type Brand string

const (
	BrandCData     Brand = "cdata"
	BrandBDCOM     Brand = "bdcom"
	BrandVSOL      Brand = "vsol"
	BrandHuawei    Brand = "huawei"
	BrandZTE       Brand = "zte"
	BrandFiberHome Brand = "fiberhome"
	BrandHioso     Brand = "hioso"
)

// Mode is the PON technology variant, which selects the command catalog
type Mode string

const (
	ModeEPON Mode = "epon"
	ModeGPON Mode = "gpon"
)

// ONUStatus is the normalized terminal state
type ONUStatus string

const (
	StatusOnline  ONUStatus = "online"
	StatusOffline ONUStatus = "offline"
	StatusWarning ONUStatus = "warning"
	StatusUnknown ONUStatus = "unknown"
)

// RouterConfig describes the edge router linked to an OLT for
// subscriber-session attribution.
type RouterConfig struct {
	// Name is a display label for the router
	Name string

	// Address is the management IP/hostname
	Address string

	// Port is the configured API port (0 = probe defaults)
	Port int

	// Username and Password authenticate both the binary API and REST
	Username string
	Password string

	// UseTLS prefers the TLS variants (api-ssl / https) when probing
	UseTLS bool
}

// DeviceConfig contains the configuration of one polled OLT.
// It is owned by the config provider and treated as immutable per cycle.
type DeviceConfig struct {
	// ID is the unique device identifier in the store
	ID int64

	// Name is a display label
	Name string

	// Brand is the OLT vendor
	Brand Brand

	// Mode selects EPON or GPON command catalogs
	Mode Mode

	// Address is the management IP/hostname
	Address string

	// Port is the configured management port
	Port int

	// Username and Password for shell/web login
	Username string
	Password string

	// SNMPCommunity for the connectivity probe (default "public")
	SNMPCommunity string

	// Timeout for the whole poll of this device
	Timeout time.Duration

	// Router is the linked edge router, nil when none is configured
	Router *RouterConfig
}

// Alert is an append-only event raised by reconciliation
type Alert struct {
	ID        int64
	DeviceID  int64
	Type      string
	Severity  string
	Message   string
	CreatedAt time.Time
}

// Alert types raised by the reconciliation engine
const (
	AlertONUOffline     = "onu_offline"
	AlertPowerDrop      = "power_drop"
	AlertOLTUnreachable = "olt_unreachable"
)

// PowerReading is one optical power sample for an ONU. Recorded only
// when both values were present in the poll.
type PowerReading struct {
	ID      int64
	ONUID   int64
	RxPower float64
	TxPower float64
	TakenAt time.Time
}

// PollDebugLog captures one poll attempt for troubleshooting.
// The store keeps at most 10 per device.
type PollDebugLog struct {
	ID               int64
	DeviceID         int64
	RawOutput        string
	ParsedCount      int
	ConnectionMethod string
	Error            string
	Duration         time.Duration
	CreatedAt        time.Time
}

// AlertSettings are the operator-tunable alerting knobs, read through a
// TTL-cached settings provider.
type AlertSettings struct {
	// OfflineDelayMinutes defers onu_offline alerts until the ONU has
	// been offline at least this long. Zero fires immediately.
	OfflineDelayMinutes int

	// RxPowerThreshold is the dBm floor below which power_drop fires
	RxPowerThreshold float64

	// AlertWindow suppresses repeat alerts per (device, type)
	AlertWindow time.Duration
}
